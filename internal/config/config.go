// Package config loads runtime settings from an optional YAML file, an
// optional .env file and VIBEORACLE_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
	Scoring ScoringConfig `yaml:"scoring"`
	Quota   QuotaConfig   `yaml:"quota"`
	History HistoryConfig `yaml:"history"`
	Events  EventsConfig  `yaml:"events"`
	Breaker BreakerConfig `yaml:"breaker"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`  // trace, debug, info, warn, error
	Format     string `yaml:"format"` // pretty or json
	File       string `yaml:"file"`   // optional rotating log file
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxAgeDays int    `yaml:"max_age_days"`
	MaxBackups int    `yaml:"max_backups"`
}

type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps"` // 0 disables client rate limiting
	RateLimitBurst int           `yaml:"rate_limit_burst"`
	SessionIdleTTL time.Duration `yaml:"session_idle_ttl"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	AccessLog      string        `yaml:"access_log"` // optional combined-format access log file
}

type ScoringConfig struct {
	Parallelism  int    `yaml:"parallelism"`
	WeightsFile  string `yaml:"weights_file"`
	RegistryFile string `yaml:"registry_file"`
}

// Quota backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type QuotaConfig struct {
	Backend    string      `yaml:"backend"`
	Limit      int         `yaml:"limit"`
	DailyReset bool        `yaml:"daily_reset"`
	Timezone   string      `yaml:"timezone"` // day boundary for daily_reset
	Redis      RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

type HistoryConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Driver       string        `yaml:"driver"` // postgres or sqlite
	DSN          string        `yaml:"dsn"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	MaxOpenConns int           `yaml:"max_open_conns"`
}

type EventsConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type BreakerConfig struct {
	MaxRequests         uint32        `yaml:"max_requests"`
	Interval            time.Duration `yaml:"interval"`
	Timeout             time.Duration `yaml:"timeout"`
	ConsecutiveFailures uint32        `yaml:"consecutive_failures"`
	SinkTimeout         time.Duration `yaml:"sink_timeout"`
}

// Default returns the configuration used when nothing overrides it: seven
// rerolls per hour label, in-memory quota, history and events off.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "pretty",
			MaxSizeMB:  100,
			MaxAgeDays: 28,
			MaxBackups: 3,
		},
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			IdleTimeout:    60 * time.Second,
			RequestTimeout: 5 * time.Second,
			AllowedOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
			RateLimitRPS:   10,
			RateLimitBurst: 20,
			SessionIdleTTL: 30 * time.Minute,
			SweepInterval:  time.Minute,
		},
		Scoring: ScoringConfig{
			Parallelism: 8,
		},
		Quota: QuotaConfig{
			Backend: BackendMemory,
			Limit:   7,
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "vibeoracle:quota:",
			},
		},
		History: HistoryConfig{
			Driver:       "sqlite",
			DSN:          "file:vibeoracle.db?_pragma=busy_timeout(5000)",
			QueryTimeout: 5 * time.Second,
			MaxOpenConns: 10,
		},
		Events: EventsConfig{
			Brokers:      []string{"localhost:9092"},
			Topic:        "vibeoracle.passes",
			WriteTimeout: 5 * time.Second,
		},
		Breaker: BreakerConfig{
			MaxRequests:         1,
			Interval:            time.Minute,
			Timeout:             30 * time.Second,
			ConsecutiveFailures: 5,
			SinkTimeout:         2 * time.Second,
		},
	}
}

// Load builds the configuration. An empty path skips the YAML file; a .env
// file in the working directory is loaded when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cfg.parse(data); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Parse layers YAML over the defaults and validates the result. Environment
// variables are not consulted.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.parse(data); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) parse(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// Validate ensures the configuration is valid and consistent
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "pretty", "json":
	default:
		return fmt.Errorf("logging.format must be pretty or json, got %q", c.Logging.Format)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 0 {
		return fmt.Errorf("server.rate_limit_rps must not be negative")
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("server.rate_limit_burst must be at least 1 when rate limiting is on")
	}

	if c.Server.SweepInterval <= 0 {
		return fmt.Errorf("server.sweep_interval must be positive")
	}

	if c.Scoring.Parallelism < 1 {
		return fmt.Errorf("scoring.parallelism must be at least 1")
	}

	if c.Quota.Limit < 0 {
		return fmt.Errorf("quota.limit must not be negative")
	}
	switch c.Quota.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Quota.Redis.Addr == "" {
			return fmt.Errorf("quota.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("quota.backend must be %s or %s, got %q", BackendMemory, BackendRedis, c.Quota.Backend)
	}
	if c.Quota.Timezone != "" {
		if _, err := time.LoadLocation(c.Quota.Timezone); err != nil {
			return fmt.Errorf("quota.timezone: %w", err)
		}
	}

	if c.History.Enabled {
		switch c.History.Driver {
		case "postgres", "sqlite":
		default:
			return fmt.Errorf("history.driver must be postgres or sqlite, got %q", c.History.Driver)
		}
		if c.History.DSN == "" {
			return fmt.Errorf("history.dsn is required when history is enabled")
		}
	}

	if c.Events.Enabled {
		if len(c.Events.Brokers) == 0 {
			return fmt.Errorf("events.brokers is required when events are enabled")
		}
		if c.Events.Topic == "" {
			return fmt.Errorf("events.topic is required when events are enabled")
		}
	}

	if c.Breaker.ConsecutiveFailures == 0 {
		return fmt.Errorf("breaker.consecutive_failures must be at least 1")
	}
	return nil
}

// QuotaLocation is the zone that bounds a quota day.
func (c *Config) QuotaLocation() *time.Location {
	if c.Quota.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Quota.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
