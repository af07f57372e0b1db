// Package googleplay talks to the Google Play Developer (Publisher) API with a
// service account.
//
// Dial authorizes the service identity and Client exposes the few edit
// operations needed to read the version codes of uploaded bundles.
package googleplay
