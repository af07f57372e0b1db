// Package common holds helpers shared by the command services: publishing a
// resolved build number and building vendor HTTP clients.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
