// Package config provides YAML-based configuration for the catalog query
// tool: the stream endpoint, the catalog filter values, and optional
// signature verification.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/japence/simplestream-parser/internal/catalog"
	"github.com/japence/simplestream-parser/internal/simplestream"
)

// Sentinel errors for configuration validation
var (
	ErrBaseURLRequired         = errors.New("stream base_url is required")
	ErrIndexPathRequired       = errors.New("stream index_path is required")
	ErrSignedIndexPathRequired = errors.New("stream signed_index_path is required when gpg verification is enabled")
	ErrArchitectureRequired    = errors.New("catalog architecture is required")
	ErrImageTagRequired        = errors.New("catalog image_tag is required")
	ErrDigestFieldRequired     = errors.New("catalog digest_field is required")
	ErrKeysDirRequired         = errors.New("verification keys_dir is required when gpg verification is enabled")
	ErrInvalidTimeout          = errors.New("stream timeout is not a valid duration")
)

// Config represents the top-level configuration structure.
type Config struct {
	Stream       StreamConfig       `yaml:"stream"`
	Catalog      CatalogConfig      `yaml:"catalog"`
	Verification VerificationConfig `yaml:"verification"`
}

// StreamConfig configures the catalog endpoint.
type StreamConfig struct {
	BaseURL         string `yaml:"base_url"`
	IndexPath       string `yaml:"index_path"`
	SignedIndexPath string `yaml:"signed_index_path"`
	Timeout         string `yaml:"timeout"`
	UserAgent       string `yaml:"user_agent"`
}

// GetTimeout parses and returns the stream timeout duration.
func (s *StreamConfig) GetTimeout() time.Duration {
	if s.Timeout == "" {
		return simplestream.DefaultTimeout
	}
	timeout, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return simplestream.DefaultTimeout
	}
	return timeout
}

// CatalogConfig configures the catalog query values.
type CatalogConfig struct {
	Architecture string `yaml:"architecture"`
	ImageTag     string `yaml:"image_tag"`
	DigestField  string `yaml:"digest_field"`
}

// VerificationConfig configures document verification.
type VerificationConfig struct {
	GPG GPGConfig `yaml:"gpg"`
}

// GPGConfig configures clearsigned-catalog verification.
type GPGConfig struct {
	Enabled bool   `yaml:"enabled"`
	KeysDir string `yaml:"keys_dir"`
}

// Default returns the configuration for the published Ubuntu cloud-image
// catalog.
func Default() *Config {
	return &Config{
		Stream: StreamConfig{
			BaseURL:         simplestream.DefaultBaseURL,
			IndexPath:       simplestream.DefaultIndexPath,
			SignedIndexPath: simplestream.DefaultSignedIndexPath,
			UserAgent:       simplestream.DefaultUserAgent,
		},
		Catalog: CatalogConfig{
			Architecture: catalog.DefaultArchitecture,
			ImageTag:     catalog.DefaultImageTag,
			DigestField:  catalog.DefaultDigestField,
		},
	}
}

// Load reads a YAML configuration file on top of the defaults and validates
// the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for missing required values.
func (c *Config) Validate() error {
	if c.Stream.BaseURL == "" {
		return ErrBaseURLRequired
	}
	if c.Stream.IndexPath == "" {
		return ErrIndexPathRequired
	}
	if c.Stream.Timeout != "" {
		if _, err := time.ParseDuration(c.Stream.Timeout); err != nil {
			return ErrInvalidTimeout
		}
	}
	if c.Catalog.Architecture == "" {
		return ErrArchitectureRequired
	}
	if c.Catalog.ImageTag == "" {
		return ErrImageTagRequired
	}
	if c.Catalog.DigestField == "" {
		return ErrDigestFieldRequired
	}
	if c.Verification.GPG.Enabled {
		if c.Verification.GPG.KeysDir == "" {
			return ErrKeysDirRequired
		}
		if c.Stream.SignedIndexPath == "" {
			return ErrSignedIndexPathRequired
		}
	}
	return nil
}
