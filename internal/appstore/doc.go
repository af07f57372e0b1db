// Package appstore talks to the App Store Connect API.
//
// Signer produces the short-lived ES256 bearer tokens the API requires and
// Client lists the builds of an app, optionally narrowed to one version.
package appstore
