// Package config provides configuration management for wikiconv.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/open-cli-collective/wikiconv/internal/logging"
)

// Config holds the wikiconv configuration.
type Config struct {
	// PagesDir is a directory of pages used for includes and page listing.
	PagesDir string `yaml:"pages_dir,omitempty"`
	// RemoteURL is a wiki served over HTTP, used instead of PagesDir.
	RemoteURL   string `yaml:"remote_url,omitempty"`
	RemoteUser  string `yaml:"remote_user,omitempty"`
	RemoteToken string `yaml:"remote_token,omitempty"`

	DefaultFrom string   `yaml:"default_from,omitempty"`
	DefaultTo   string   `yaml:"default_to,omitempty"`
	Passes      []string `yaml:"passes,omitempty"`
	// LinkBase prefixes resolved local links.
	LinkBase  string            `yaml:"link_base,omitempty"`
	Interwiki map[string]string `yaml:"interwiki,omitempty"`

	LogLevel     string `yaml:"log_level,omitempty"`
	LogFormat    string `yaml:"log_format,omitempty"`
	OutputFormat string `yaml:"output_format,omitempty"`
}

// Defaults used when the configuration leaves a field empty.
const (
	DefaultFrom = "wiki"
	DefaultTo   = "html"
)

var outputFormats = map[string]bool{"": true, "table": true, "json": true, "plain": true}

// Validate checks that the fields hold usable values.
func (c *Config) Validate() error {
	if c.PagesDir != "" && c.RemoteURL != "" {
		return errors.New("pages_dir and remote_url are mutually exclusive")
	}
	if c.RemoteURL != "" && !strings.HasPrefix(c.RemoteURL, "https://") && !strings.HasPrefix(c.RemoteURL, "http://") {
		return errors.New("remote_url must use http or https")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return err
	}
	if !outputFormats[c.OutputFormat] {
		return fmt.Errorf("invalid output_format %q: must be table, json or plain", c.OutputFormat)
	}
	for name, url := range c.Interwiki {
		if url == "" {
			return fmt.Errorf("interwiki %s has no url", name)
		}
	}
	return nil
}

// From returns the configured input format or the default.
func (c *Config) From() string {
	if c.DefaultFrom != "" {
		return c.DefaultFrom
	}
	return DefaultFrom
}

// To returns the configured output format or the default.
func (c *Config) To() string {
	if c.DefaultTo != "" {
		return c.DefaultTo
	}
	return DefaultTo
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables override existing values only if set and non-empty.
func (c *Config) LoadFromEnv() {
	set := func(key string, field *string) {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}
	set("WIKICONV_PAGES_DIR", &c.PagesDir)
	set("WIKICONV_REMOTE_URL", &c.RemoteURL)
	set("WIKICONV_REMOTE_USER", &c.RemoteUser)
	set("WIKICONV_REMOTE_TOKEN", &c.RemoteToken)
	set("WIKICONV_FROM", &c.DefaultFrom)
	set("WIKICONV_TO", &c.DefaultTo)
	set("WIKICONV_LINK_BASE", &c.LinkBase)
	set("WIKICONV_LOG_LEVEL", &c.LogLevel)
	set("WIKICONV_LOG_FORMAT", &c.LogFormat)
	set("WIKICONV_OUTPUT", &c.OutputFormat)
	if v := os.Getenv("WIKICONV_PASSES"); v != "" {
		c.Passes = SplitList(v)
	}
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "wikiconv", "config.yml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".wikiconv", "config.yml")
	}

	return filepath.Join(home, ".config", "wikiconv", "config.yml")
}

// Save writes the configuration to the specified path.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// the remote token is a credential
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load reads the configuration from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnv loads configuration from file and overrides with environment
// variables. A missing file gives an empty configuration; a malformed one is
// an error.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = &Config{}
	}

	cfg.LoadFromEnv()
	return cfg, nil
}
