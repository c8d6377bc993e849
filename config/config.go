// Package config loads client settings from YAML, a .env file and KIOSK_* variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"kiosk/globals"
	"kiosk/maps"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all client configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Chat    ChatConfig    `yaml:"chat"`
	Maps    MapsConfig    `yaml:"maps"`
	Pay     PayConfig     `yaml:"pay"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig points the client at the marketplace API.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Prefix  string `yaml:"prefix"`
	// Timeout is a duration string; empty means no client timeout.
	Timeout   string  `yaml:"timeout"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second, 0 = unlimited
	Burst     int     `yaml:"burst"`
}

// Storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// StorageConfig selects where session keys persist.
type StorageConfig struct {
	Backend   string `yaml:"backend"`
	Path      string `yaml:"path"`
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
	Profile   string `yaml:"profile"`
}

type ChatConfig struct {
	// URL is the websocket base; empty derives it from the API base URL.
	URL string `yaml:"url"`
}

type MapsConfig struct {
	BaseURL   string `yaml:"base_url"`
	UserAgent string `yaml:"user_agent"`
}

// PayConfig holds the merchant credentials used for checkout digests.
type PayConfig struct {
	MerchantID string `yaml:"merchant_id"`
	Secret     string `yaml:"secret"`
	Currency   string `yaml:"currency"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "kiosk.yaml"
	}
	return filepath.Join(dir, "kiosk", "config.yaml")
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".kiosk-session.json"
	}
	return filepath.Join(dir, "kiosk", "session.json")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:4000",
			Prefix:  globals.APIPrefix,
			Burst:   1,
		},
		Storage: StorageConfig{
			Backend:   BackendFile,
			Path:      defaultSessionPath(),
			RedisAddr: "localhost:6379",
			Profile:   "default",
		},
		Maps: MapsConfig{
			BaseURL:   maps.DefaultNominatimURL,
			UserAgent: "kiosk-client/1.0",
		},
		Pay: PayConfig{
			Currency: "LKR",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads .env (if present) and the YAML file at path, then applies KIOSK_*
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := DefaultConfig()
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML, creating the directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("KIOSK_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("KIOSK_API_PREFIX"); v != "" {
		c.API.Prefix = v
	}
	if v := os.Getenv("KIOSK_API_TIMEOUT"); v != "" {
		c.API.Timeout = v
	}
	if v := os.Getenv("KIOSK_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.API.RateLimit = f
		}
	}

	if v := os.Getenv("KIOSK_STORAGE"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("KIOSK_SESSION_FILE"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("KIOSK_REDIS_ADDR"); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := os.Getenv("KIOSK_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Storage.RedisDB = n
		}
	}
	if v := os.Getenv("KIOSK_PROFILE"); v != "" {
		c.Storage.Profile = v
	}

	if v := os.Getenv("KIOSK_CHAT_URL"); v != "" {
		c.Chat.URL = v
	}
	if v := os.Getenv("KIOSK_MAPS_URL"); v != "" {
		c.Maps.BaseURL = v
	}

	if v := os.Getenv("KIOSK_MERCHANT_ID"); v != "" {
		c.Pay.MerchantID = v
	}
	if v := os.Getenv("KIOSK_MERCHANT_SECRET"); v != "" {
		c.Pay.Secret = v
	}

	if v := os.Getenv("KIOSK_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// GetTimeout returns the parsed API timeout, 0 when unset or invalid.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// ValidBackends lists all supported storage backends.
var ValidBackends = []string{BackendMemory, BackendFile, BackendRedis}

// ValidLevels lists the accepted log levels.
var ValidLevels = []string{"debug", "info", "warn", "error"}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API base URL not configured (set api.base_url or KIOSK_API_URL)")
	}
	if c.API.Timeout != "" {
		if d, err := time.ParseDuration(c.API.Timeout); err != nil || d < 0 {
			return fmt.Errorf("invalid API timeout: %q", c.API.Timeout)
		}
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("invalid rate limit: %v", c.API.RateLimit)
	}
	if !contains(ValidBackends, c.Storage.Backend) {
		return fmt.Errorf("invalid storage backend: %s (valid: %v)", c.Storage.Backend, ValidBackends)
	}
	if c.Storage.Backend == BackendFile && c.Storage.Path == "" {
		return fmt.Errorf("file storage needs storage.path")
	}
	if c.Storage.Backend == BackendRedis && c.Storage.RedisAddr == "" {
		return fmt.Errorf("redis storage needs storage.redis_addr")
	}
	if !contains(ValidLevels, c.Log.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Log.Level, ValidLevels)
	}
	return nil
}
