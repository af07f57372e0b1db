// Package config loads the optional YAML settings file and resolves vendor
// credentials with flag > environment > settings file precedence.
//
// Resolved values are handed to services as explicit records; nothing below
// the command layer reads the process environment.
package config
