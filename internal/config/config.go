package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/vadimtrunov/marquee/internal/httpclient"
	"github.com/vadimtrunov/marquee/internal/metadata/tmdb"
)

// Defaults applied by setDefaults.
const (
	defaultLogLevel       = "info"
	defaultDataDirName    = ".marquee"
	defaultLogFileName    = "marquee.log"
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 1
	defaultSearchDebounce = 500 * time.Millisecond
)

// Config represents the main application configuration
type Config struct {
	// Metadata provider
	TMDb TMDbConfig `yaml:"tmdb"`

	// Application settings
	App AppConfig `yaml:"app"`
}

// TMDbConfig holds TMDb API configuration
type TMDbConfig struct {
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	MaxRetries int           `yaml:"max_retries,omitempty"` // total attempts per request
}

// AppConfig holds application-level settings
type AppConfig struct {
	LogLevel       string        `yaml:"log_level"` // "debug", "info", "warn", "error"
	DataDir        string        `yaml:"data_dir"`  // Directory for the genre cache and logs
	LogFile        string        `yaml:"log_file,omitempty"`
	SearchDebounce time.Duration `yaml:"search_debounce,omitempty"`
	CacheGenres    *bool         `yaml:"cache_genres,omitempty"` // nil means enabled
}

// Load loads configuration from a YAML file with environment variable overrides
func Load(path string) (*Config, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// validateConfigPath checks that path names an existing regular file.
func validateConfigPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file not found: %s", path)
		}
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory, expected a file", path)
	}
	return nil
}

// applyEnvOverrides overrides config values with MARQUEE_* environment variables
func (c *Config) applyEnvOverrides() error {
	// TMDb
	if v := os.Getenv("MARQUEE_TMDB_API_KEY"); v != "" {
		c.TMDb.APIKey = v
	}
	if v := os.Getenv("MARQUEE_TMDB_BASE_URL"); v != "" {
		c.TMDb.BaseURL = v
	}
	if err := envDuration("MARQUEE_TMDB_TIMEOUT", &c.TMDb.Timeout); err != nil {
		return err
	}
	if v := os.Getenv("MARQUEE_TMDB_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MARQUEE_TMDB_MAX_RETRIES: %w", err)
		}
		c.TMDb.MaxRetries = n
	}

	// App
	if v := os.Getenv("MARQUEE_LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv("MARQUEE_DATA_DIR"); v != "" {
		c.App.DataDir = v
	}
	if v := os.Getenv("MARQUEE_LOG_FILE"); v != "" {
		c.App.LogFile = v
	}
	if err := envDuration("MARQUEE_SEARCH_DEBOUNCE", &c.App.SearchDebounce); err != nil {
		return err
	}
	if v := os.Getenv("MARQUEE_CACHE_GENRES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MARQUEE_CACHE_GENRES: %w", err)
		}
		c.App.CacheGenres = &b
	}
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

// setDefaults fills zero values. Negative values are kept for Validate to reject.
func (c *Config) setDefaults() {
	if c.TMDb.BaseURL == "" {
		c.TMDb.BaseURL = tmdb.DefaultBaseURL
	}
	if c.TMDb.Timeout == 0 {
		c.TMDb.Timeout = defaultTimeout
	}
	if c.TMDb.MaxRetries == 0 {
		c.TMDb.MaxRetries = defaultMaxRetries
	}

	if c.App.LogLevel == "" {
		c.App.LogLevel = defaultLogLevel
	}
	if c.App.DataDir == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			c.App.DataDir = filepath.Join(homeDir, defaultDataDirName)
		} else {
			c.App.DataDir = defaultDataDirName
		}
	}
	c.App.DataDir = expandHome(c.App.DataDir)
	c.App.LogFile = expandHome(c.App.LogFile)
	if c.App.LogFile == "" {
		c.App.LogFile = filepath.Join(c.App.DataDir, defaultLogFileName)
	}
	if c.App.SearchDebounce == 0 {
		c.App.SearchDebounce = defaultSearchDebounce
	}
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// Validate sets defaults and validates the configuration
func (c *Config) Validate() error {
	c.setDefaults()

	if c.TMDb.APIKey == "" {
		return fmt.Errorf("tmdb.api_key is required")
	}
	if err := validateURL(c.TMDb.BaseURL, "tmdb.base_url"); err != nil {
		return err
	}
	if c.TMDb.Timeout < 0 {
		return fmt.Errorf("tmdb.timeout must be positive")
	}
	if c.TMDb.MaxRetries < 1 {
		return fmt.Errorf("tmdb.max_retries must be at least 1")
	}

	switch strings.ToLower(c.App.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level must be one of debug, info, warn, error (got %q)", c.App.LogLevel)
	}
	if c.App.SearchDebounce < 0 {
		return fmt.Errorf("app.search_debounce must be positive")
	}

	return nil
}

// validateURL checks that raw is an absolute http(s) URL with a host.
func validateURL(raw, field string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", field)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: missing host", field)
	}
	return nil
}

// GenreCacheEnabled reports whether the genre catalog is persisted.
func (c *Config) GenreCacheEnabled() bool {
	return c.App.CacheGenres == nil || *c.App.CacheGenres
}

// HTTPConfig returns the transport settings for the TMDb client.
func (c *Config) HTTPConfig() httpclient.Config {
	hc := httpclient.DefaultConfig()
	if c.TMDb.Timeout > 0 {
		hc.Timeout = c.TMDb.Timeout
	}
	if c.TMDb.MaxRetries > 0 {
		hc.Attempts = c.TMDb.MaxRetries
	}
	return hc
}
