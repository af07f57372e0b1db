// Package apple implements the apple command: resolve the latest build number
// of an app from App Store Connect.
package apple
