// Package android implements the android command: resolve the latest version
// code of a package from the Google Play Developer API.
package android
