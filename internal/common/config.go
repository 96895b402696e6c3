package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the client configuration.
type Config struct {
	Service ServiceConfig `toml:"service"`
	Auth    AuthConfig    `toml:"auth"`
	Client  ClientConfig  `toml:"client"`
	Cache   CacheConfig   `toml:"cache"`
	Logging LoggingConfig `toml:"logging"`
}

// ServiceConfig identifies the remote Case Conductor platform.
type ServiceConfig struct {
	BaseURL   string `toml:"base_url" validate:"required,url"`
	CompanyID string `toml:"company_id"`
}

// AuthConfig holds default credentials. Password and cookie are mutually
// exclusive; cookie wins when both are set.
type AuthConfig struct {
	UserID   string `toml:"user_id"`
	Password string `toml:"password"`
	Cookie   string `toml:"cookie"`
}

// ClientConfig tunes the HTTP layer.
type ClientConfig struct {
	Timeout   string `toml:"timeout"`    // e.g. "30s"
	RateLimit int    `toml:"rate_limit"` // requests per second, 0 = library default
	UserAgent string `toml:"user_agent"`
}

// CacheConfig controls GET response caching.
type CacheConfig struct {
	Enabled bool         `toml:"enabled"`
	TTL     string       `toml:"ttl"`   // e.g. "10m"
	Store   string       `toml:"store"` // "memory" or "badger"
	Badger  BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration for the
// persistent cache store.
type BadgerConfig struct {
	Path           string `toml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // default "15:04:05"
}

// NewDefaultConfig returns the built-in defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL: "http://localhost:8080/rest/",
		},
		Client: ClientConfig{
			Timeout:   "30s",
			RateLimit: 10,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     "10m",
			Store:   "memory",
			Badger: BadgerConfig{
				Path: "./data/cache",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
	}
}

// LoadConfig builds the configuration from defaults, then the given TOML
// files in order (later files override earlier ones), then environment
// variables.
func LoadConfig(paths ...string) (*Config, error) {
	cfg := NewDefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for structural errors.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Cache.Store != "" && c.Cache.Store != "memory" && c.Cache.Store != "badger" {
		return fmt.Errorf("invalid configuration: unknown cache store %q", c.Cache.Store)
	}
	if _, err := c.Client.TimeoutDuration(); err != nil {
		return fmt.Errorf("invalid configuration: client timeout: %w", err)
	}
	if _, err := c.Cache.TTLDuration(); err != nil {
		return fmt.Errorf("invalid configuration: cache ttl: %w", err)
	}
	return nil
}

// applyEnvOverrides applies CONDUCTOR_* environment variables on top of the
// loaded configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CONDUCTOR_BASE_URL"); v != "" {
		cfg.Service.BaseURL = v
	}
	if v := os.Getenv("CONDUCTOR_COMPANY_ID"); v != "" {
		cfg.Service.CompanyID = v
	}
	if v := os.Getenv("CONDUCTOR_USER_ID"); v != "" {
		cfg.Auth.UserID = v
	}
	if v := os.Getenv("CONDUCTOR_PASSWORD"); v != "" {
		cfg.Auth.Password = v
	}
	if v := os.Getenv("CONDUCTOR_COOKIE"); v != "" {
		cfg.Auth.Cookie = v
	}
	if v := os.Getenv("CONDUCTOR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CONDUCTOR_CACHE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Cache.Enabled = b
		}
	}
}

// TimeoutDuration parses the configured HTTP timeout.
func (c *ClientConfig) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(c.Timeout)
}

// TTLDuration parses the configured cache TTL.
func (c *CacheConfig) TTLDuration() (time.Duration, error) {
	if c.TTL == "" {
		return 10 * time.Minute, nil
	}
	return time.ParseDuration(c.TTL)
}
