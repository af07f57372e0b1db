// Package expo implements the expo command: write a given build number into
// an Expo manifest.
package expo
