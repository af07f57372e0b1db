// Package manifest edits the build fields of an Expo app.json.
//
// Only expo.ios.buildNumber and expo.android.versionCode are rewritten; the
// rest of the document keeps its content and key order. Files are replaced
// atomically so an interrupted write never leaves a truncated manifest.
package manifest
