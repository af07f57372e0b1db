// Package build contains the build-number arithmetic shared by the vendor
// resolvers and the error kinds they report.
package build
