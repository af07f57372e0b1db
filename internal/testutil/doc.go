// Package testutil provides throwaway keys and in-process fakes of App Store
// Connect and the Google Play Developer API for tests.
package testutil
