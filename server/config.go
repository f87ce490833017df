package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leadwise/dispatch"
	"github.com/leadwise/dispatch/types"
)

// RateLimitConfig controls the per-client request rate limit.
type RateLimitConfig struct {
	// Enabled turns the middleware on. Disabled by default.
	Enabled bool `yaml:"enabled"`

	// RPS is the sustained request rate allowed per client key.
	RPS float64 `yaml:"rps"`

	// Burst is the short-term burst allowance per client key.
	Burst int `yaml:"burst"`

	// KeyHeader names a header whose value identifies the client
	// (e.g. "X-Api-Key"). Empty falls back to the remote address.
	KeyHeader string `yaml:"keyHeader"`
}

// RedisConfig points the assignment stats recorder at a Redis instance.
// Disabled, stats are kept in process memory.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// Prefix namespaces the stats keys. Default "dispatch".
	Prefix string `yaml:"prefix"`
}

// NATSConfig enables request lifecycle event publishing.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`

	// SubjectPrefix namespaces the event subjects. Default "dispatch".
	SubjectPrefix string `yaml:"subjectPrefix"`
}

// Config is the daemon configuration, typically loaded from a YAML file.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// ReadTimeout bounds reading a full request, including the body.
	ReadTimeout time.Duration `yaml:"readTimeout"`

	// WriteTimeout bounds writing a full response.
	WriteTimeout time.Duration `yaml:"writeTimeout"`

	// ShutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// Engine configures the assignment engine.
	Engine dispatch.Config `yaml:"engine"`

	// RateLimit configures the per-client rate limit middleware.
	RateLimit RateLimitConfig `yaml:"rateLimit"`

	// Redis configures the optional Redis stats backend.
	Redis RedisConfig `yaml:"redis"`

	// NATS configures optional lifecycle event publishing.
	NATS NATSConfig `yaml:"nats"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Listen:          ":8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Engine:          dispatch.DefaultConfig(),
		RateLimit: RateLimitConfig{
			RPS:   50,
			Burst: 100,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "dispatch",
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			SubjectPrefix: "dispatch",
		},
	}
}

// SetDefaults fills in missing configuration values with production defaults.
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Listen == "" {
		cfg.Listen = defaults.Listen
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	dispatch.SetDefaults(&cfg.Engine)
	if cfg.RateLimit.RPS == 0 {
		cfg.RateLimit.RPS = defaults.RateLimit.RPS
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = defaults.RateLimit.Burst
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = defaults.Redis.Addr
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = defaults.Redis.Prefix
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = defaults.NATS.URL
	}
	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = defaults.NATS.SubjectPrefix
	}
}

// Validate checks configuration constraints and returns error for invalid values.
func (cfg *Config) Validate() error {
	if err := cfg.Engine.Validate(); err != nil {
		return err
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RPS <= 0 {
			return fmt.Errorf("%w: rate limit rps must be > 0, got %v", types.ErrInvalidConfig, cfg.RateLimit.RPS)
		}
		if cfg.RateLimit.Burst <= 0 {
			return fmt.Errorf("%w: rate limit burst must be > 0, got %d", types.ErrInvalidConfig, cfg.RateLimit.Burst)
		}
	}

	return nil
}

// LoadConfig reads a YAML configuration file, applies defaults, and
// validates the result. An empty path yields the defaults.
//
// Parameters:
//   - path: Path to the YAML file, or "" for defaults
//
// Returns:
//   - Config: Loaded configuration
//   - error: Read, parse, or validation failure
func LoadConfig(path string) (Config, error) {
	cfg := Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	SetDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
