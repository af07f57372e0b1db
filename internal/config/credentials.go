package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment variables consulted when a credential flag is not set.
const (
	EnvApplePrivateKey      = "APPLE_PRIVATE_KEY"
	EnvAppleKeyIdentifier   = "APPLE_KEY_IDENTIFIER"
	EnvAppleIssuerID        = "APPLE_ISSUER_ID"
	EnvGooglePlayServiceKey = "GOOGLE_PLAY_SERVICE_KEY"
)

var (
	// ErrMissingCredential is returned when neither a flag, an environment
	// variable nor the settings file provides a required credential.
	ErrMissingCredential = errors.New("missing credential")
	// ErrSecretRead is returned when key material cannot be read from disk.
	ErrSecretRead = errors.New("read key material")
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// AppleCredentials is everything needed to sign an App Store Connect token.
type AppleCredentials struct {
	// PrivateKey is a path to the .p8 file or inline PEM text.
	PrivateKey string
	// KeyIdentifier goes into the token header as kid.
	KeyIdentifier string
	// IssuerID goes into the token payload as iss.
	IssuerID string
}

// credential describes one value and the places it may come from.
type credential struct {
	what      string
	flagName  string
	envName   string
	flagValue string
	fileValue string
}

// resolve picks the first non-blank source: flag, then environment, then settings file.
func (c credential) resolve(env LookupFunc) (string, error) {
	if v := strings.TrimSpace(c.flagValue); v != "" {
		return v, nil
	}

	if env != nil {
		if v, ok := env(c.envName); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}

	if v := strings.TrimSpace(c.fileValue); v != "" {
		return v, nil
	}

	return "", fmt.Errorf("%w: %s is required, use --%s or %s", ErrMissingCredential, c.what, c.flagName, c.envName)
}

// ResolveApple fills every Apple credential, in the order private key,
// key identifier, issuer. Values set in flags win.
func (cfg *Config) ResolveApple(flags AppleCredentials, env LookupFunc) (AppleCredentials, error) {
	var (
		resolved AppleCredentials
		err      error
	)

	resolved.PrivateKey, err = credential{
		what:      "private key",
		flagName:  "private_key",
		envName:   EnvApplePrivateKey,
		flagValue: flags.PrivateKey,
		fileValue: cfg.Apple.PrivateKey,
	}.resolve(env)
	if err != nil {
		return AppleCredentials{}, err
	}

	resolved.KeyIdentifier, err = credential{
		what:      "key identifier",
		flagName:  "key_identifier",
		envName:   EnvAppleKeyIdentifier,
		flagValue: flags.KeyIdentifier,
		fileValue: cfg.Apple.KeyIdentifier,
	}.resolve(env)
	if err != nil {
		return AppleCredentials{}, err
	}

	resolved.IssuerID, err = credential{
		what:      "issuer id",
		flagName:  "issuer_id",
		envName:   EnvAppleIssuerID,
		flagValue: flags.IssuerID,
		fileValue: cfg.Apple.IssuerID,
	}.resolve(env)
	if err != nil {
		return AppleCredentials{}, err
	}

	return resolved, nil
}

// ResolveGoogleServiceKey returns the service key reference (path or inline JSON).
func (cfg *Config) ResolveGoogleServiceKey(flagValue string, env LookupFunc) (string, error) {
	return credential{
		what:      "google play service key",
		flagName:  "key",
		envName:   EnvGooglePlayServiceKey,
		flagValue: flagValue,
		fileValue: cfg.Google.ServiceKey,
	}.resolve(env)
}

// ReadSecret returns key material referenced by ref. Values that already
// look like key material (a PEM block or a JSON object) are returned as is,
// anything else is read as a file path.
func ReadSecret(ref string) ([]byte, error) {
	trimmed := strings.TrimSpace(ref)
	if strings.Contains(trimmed, "-----BEGIN ") || strings.HasPrefix(trimmed, "{") {
		return []byte(trimmed), nil
	}

	contents, err := os.ReadFile(filepath.Clean(trimmed))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSecretRead, err)
	}

	if len(bytes.TrimSpace(contents)) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrSecretRead, trimmed)
	}

	return contents, nil
}
