// Package config handles application configuration: command-line argument
// parsing layered over an optional YAML config file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexflint/go-arg"
	"gopkg.in/yaml.v3"
)

// DefaultTimeoutSeconds bounds each network request.
const DefaultTimeoutSeconds = 30

// Config holds the application configuration. Flags override the config
// file, which overrides built-in defaults.
type Config struct {
	BaseURL        string `arg:"-b,--base-url" yaml:"baseURL" help:"Remote library base URL (files are fetched from <base>/docs/<category>/<name>)"`
	ManifestURL    string `arg:"--manifest-url" yaml:"manifestURL" help:"Manifest URL (default: <base>/api/manifest.json)"`
	DocsRoot       string `arg:"-d,--docs" yaml:"docsRoot" help:"Local documents directory (default: ~/docsync)"`
	CacheFile      string `arg:"--cache-file" yaml:"cacheFile" help:"Sync cache file (default: ~/.cache/docsync/sync-cache.json)"`
	TimeoutSeconds int    `arg:"--timeout" yaml:"timeout" help:"Per-request timeout in seconds (default: 30)"`
	Headless       bool   `arg:"--headless" yaml:"-" help:"Run without the TUI, logging progress instead"`
	Verbose        bool   `arg:"-v,--verbose" yaml:"verbose" help:"Enable debug logging"`
	LogFile        string `arg:"--log-file" yaml:"logFile" help:"Rotated log file path (default: ~/.cache/docsync/docsync.log)"`
	ConfigFile     string `arg:"--config" yaml:"-" help:"Config file path (default: ~/.config/docsync/config.yaml)"`
}

// Description returns the program description for go-arg.
func (Config) Description() string {
	return "Keeps a local directory of PDF documents synchronized with a remote file manifest"
}

// Version returns the version string for go-arg.
func (Config) Version() string {
	return "docsync 1.0.0"
}

// ParseFlags parses command-line flags and returns the layered configuration.
func ParseFlags() (*Config, error) {
	cfg := &Config{}
	arg.MustParse(cfg)

	return PostProcessConfig(cfg)
}

// PostProcessConfig layers the config file under the parsed flags, fills
// remaining defaults, and validates the result.
func PostProcessConfig(cfg *Config) (*Config, error) {
	if err := applyConfigFile(cfg); err != nil {
		return nil, err
	}

	if err := applyDefaults(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (cfg *Config) Validate() error {
	if cfg.BaseURL == "" {
		return fmt.Errorf("base URL is required (flag --base-url or baseURL in the config file)")
	}

	for _, raw := range []string{cfg.BaseURL, cfg.ManifestURL} {
		parsed, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid URL %q: %w", raw, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("URL %q must use http or https", raw)
		}
	}

	if cfg.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", cfg.TimeoutSeconds)
	}

	return nil
}

// applyConfigFile fills empty fields from the YAML config file. A missing
// file is fine; a present but unreadable or malformed one is an error.
func applyConfigFile(cfg *Config) error {
	path := cfg.ConfigFile
	explicit := path != ""

	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil // no home, no default config file
		}

		path = filepath.Join(home, ".config", "docsync", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if explicit {
			return fmt.Errorf("config file does not exist: %s", path)
		}

		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = fileCfg.BaseURL
	}
	if cfg.ManifestURL == "" {
		cfg.ManifestURL = fileCfg.ManifestURL
	}
	if cfg.DocsRoot == "" {
		cfg.DocsRoot = fileCfg.DocsRoot
	}
	if cfg.CacheFile == "" {
		cfg.CacheFile = fileCfg.CacheFile
	}
	if cfg.TimeoutSeconds == 0 {
		cfg.TimeoutSeconds = fileCfg.TimeoutSeconds
	}
	if cfg.LogFile == "" {
		cfg.LogFile = fileCfg.LogFile
	}
	if fileCfg.Verbose {
		cfg.Verbose = true
	}

	return nil
}

func applyDefaults(cfg *Config) error {
	if cfg.ManifestURL == "" && cfg.BaseURL != "" {
		cfg.ManifestURL = strings.TrimRight(cfg.BaseURL, "/") + "/api/manifest.json"
	}

	if cfg.TimeoutSeconds == 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}

	if cfg.DocsRoot != "" && cfg.CacheFile != "" && cfg.LogFile != "" {
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("cannot determine home directory for default paths: %w", err)
	}

	if cfg.DocsRoot == "" {
		cfg.DocsRoot = filepath.Join(home, "docsync")
	}
	if cfg.CacheFile == "" {
		cfg.CacheFile = filepath.Join(home, ".cache", "docsync", "sync-cache.json")
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(home, ".cache", "docsync", "docsync.log")
	}

	return nil
}
