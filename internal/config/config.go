package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds optional defaults for credentials and vendor endpoints.
type Config struct {
	// Apple holds App Store Connect settings.
	Apple AppleConfig `yaml:"apple"`
	// Google holds Google Play Console settings.
	Google GoogleConfig `yaml:"google"`
	// Timeout bounds every HTTP exchange with a vendor API.
	Timeout time.Duration `yaml:"timeout"`
}

// AppleConfig holds App Store Connect settings.
type AppleConfig struct {
	// PrivateKey is the path to the .p8 key file or the PEM text itself.
	PrivateKey string `yaml:"private_key"`
	// KeyIdentifier is the key ID shown on the App Store Connect API keys page.
	KeyIdentifier string `yaml:"key_identifier"`
	// IssuerID is the issuer ID shown on the App Store Connect API keys page.
	IssuerID string `yaml:"issuer_id"`
	// BaseURL overrides the App Store Connect API root.
	BaseURL string `yaml:"base_url"`
}

// GoogleConfig holds Google Play Console settings.
type GoogleConfig struct {
	// ServiceKey is the path to the service account JSON key or the JSON itself.
	ServiceKey string `yaml:"service_key"`
	// Endpoint overrides the Play Publisher API root.
	Endpoint string `yaml:"endpoint"`
}

const (
	// DefaultConfigFilename is the settings file looked up when --config is not changed.
	DefaultConfigFilename = "appci-number.yaml"

	// DefaultTimeout is the default duration for vendor API calls.
	DefaultTimeout = 30 * time.Second
)

// errConfigIsNotSet is returned when a nil configuration is provided.
var errConfigIsNotSet = errors.New("configuration is not set")

// Load reads settings from path. A missing default settings file yields an
// empty configuration; a missing explicitly named file is an error.
func Load(path string) (*Config, error) {
	explicit := path != "" && path != DefaultConfigFilename
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			cfg := new(Config)

			return cfg, Validate(cfg)
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks URL overrides and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.Apple.BaseURL != "" {
		if _, err := url.ParseRequestURI(cfg.Apple.BaseURL); err != nil {
			return fmt.Errorf("invalid apple base URL: %w", err)
		}
	}

	if cfg.Google.Endpoint != "" {
		if _, err := url.ParseRequestURI(cfg.Google.Endpoint); err != nil {
			return fmt.Errorf("invalid google endpoint: %w", err)
		}
	}

	return nil
}
