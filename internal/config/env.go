package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VIBEORACLE_"

type override struct {
	key   string
	apply func(c *Config, v string) error
}

var overrides = []override{
	{"LOG_LEVEL", str(func(c *Config) *string { return &c.Logging.Level })},
	{"LOG_FORMAT", str(func(c *Config) *string { return &c.Logging.Format })},
	{"LOG_FILE", str(func(c *Config) *string { return &c.Logging.File })},
	{"HTTP_HOST", str(func(c *Config) *string { return &c.Server.Host })},
	{"HTTP_PORT", integer(func(c *Config) *int { return &c.Server.Port })},
	{"RATE_LIMIT_RPS", float(func(c *Config) *float64 { return &c.Server.RateLimitRPS })},
	{"RATE_LIMIT_BURST", integer(func(c *Config) *int { return &c.Server.RateLimitBurst })},
	{"SESSION_IDLE_TTL", duration(func(c *Config) *time.Duration { return &c.Server.SessionIdleTTL })},
	{"ALLOWED_ORIGINS", list(func(c *Config) *[]string { return &c.Server.AllowedOrigins })},
	{"ACCESS_LOG", str(func(c *Config) *string { return &c.Server.AccessLog })},
	{"SCORING_PARALLELISM", integer(func(c *Config) *int { return &c.Scoring.Parallelism })},
	{"WEIGHTS_FILE", str(func(c *Config) *string { return &c.Scoring.WeightsFile })},
	{"REGISTRY_FILE", str(func(c *Config) *string { return &c.Scoring.RegistryFile })},
	{"QUOTA_BACKEND", str(func(c *Config) *string { return &c.Quota.Backend })},
	{"QUOTA_LIMIT", integer(func(c *Config) *int { return &c.Quota.Limit })},
	{"QUOTA_DAILY_RESET", boolean(func(c *Config) *bool { return &c.Quota.DailyReset })},
	{"QUOTA_TIMEZONE", str(func(c *Config) *string { return &c.Quota.Timezone })},
	{"REDIS_ADDR", str(func(c *Config) *string { return &c.Quota.Redis.Addr })},
	{"REDIS_PASSWORD", str(func(c *Config) *string { return &c.Quota.Redis.Password })},
	{"REDIS_DB", integer(func(c *Config) *int { return &c.Quota.Redis.DB })},
	{"HISTORY_ENABLED", boolean(func(c *Config) *bool { return &c.History.Enabled })},
	{"HISTORY_DRIVER", str(func(c *Config) *string { return &c.History.Driver })},
	{"HISTORY_DSN", str(func(c *Config) *string { return &c.History.DSN })},
	{"EVENTS_ENABLED", boolean(func(c *Config) *bool { return &c.Events.Enabled })},
	{"KAFKA_BROKERS", list(func(c *Config) *[]string { return &c.Events.Brokers })},
	{"EVENTS_TOPIC", str(func(c *Config) *string { return &c.Events.Topic })},
}

// applyEnv applies every VIBEORACLE_* variable lookup reports as set.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	for _, o := range overrides {
		v, ok := lookup(EnvPrefix + o.key)
		if !ok {
			continue
		}
		if err := o.apply(c, strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, o.key, err)
		}
	}
	return nil
}

func str(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func integer(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func float(field func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*field(c) = f
		return nil
	}
}

func boolean(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func duration(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

func list(field func(*Config) *[]string) func(*Config, string) error {
	return func(c *Config, v string) error {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*field(c) = out
		return nil
	}
}
