package config

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/anmolkh/internradar/internal/model"
)

// Config is the root configuration for the internradar ingestion process.
// It is read once at startup; changes require a restart.
type Config struct {
	DBPath           string
	Jitter           float64 // fraction of each interval, ±
	BroadcastUpdates bool
	MaxFetches       int // concurrent org fetches per source
	HTTPTimeout      time.Duration
	Sources          []SourceConfig
	RateLimit        RateLimitConfig
	Retry            RetryConfig
	Server           ServerConfig
	Notification     NotificationConfig
	ExcludeKeywords  []string // nil means the classifier defaults
}

// SourceConfig describes one provider's polling plan.
type SourceConfig struct {
	Source   model.Source
	Orgs     []string
	Interval time.Duration
	Enabled  bool
}

// RateLimitConfig controls the shared per-provider request limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// RetryConfig controls the transient-failure retry decorator.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// ServerConfig controls the HTTP/WebSocket serving surface.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// NotificationConfig controls which notifier subscribes to the broadcaster.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// Interval bounds used when a source does not set its own interval: each
// such source gets a random interval in this window so restarts do not put
// all sources in lockstep.
const (
	defaultIntervalMin = 2 * time.Minute
	defaultIntervalMax = 4 * time.Minute
)

// rawConfig is used for YAML unmarshaling (snake_case fields and durations
// as strings).
type rawConfig struct {
	DBPath           string             `yaml:"db_path"`
	Jitter           *float64           `yaml:"jitter"`
	BroadcastUpdates *bool              `yaml:"broadcast_updates"`
	MaxFetches       int                `yaml:"max_concurrent_fetches"`
	HTTPTimeout      string             `yaml:"http_timeout"`
	Sources          []rawSourceConfig  `yaml:"sources"`
	RateLimit        rawRateLimitConfig `yaml:"rate_limit"`
	Retry            rawRetryConfig     `yaml:"retry"`
	Server           ServerConfig       `yaml:"server"`
	Notification     NotificationConfig `yaml:"notification"`
	ExcludeKeywords  []string           `yaml:"exclude_keywords"`
}

type rawSourceConfig struct {
	Source   string   `yaml:"source"`
	Orgs     []string `yaml:"orgs"`
	Interval string   `yaml:"interval"`
	Enabled  *bool    `yaml:"enabled"`
}

type rawRateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

// Load reads and parses the YAML config file at path, applies defaults,
// validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		DBPath:           "internradar.db",
		Jitter:           0.15,
		BroadcastUpdates: true,
		MaxFetches:       3,
		HTTPTimeout:      20 * time.Second,
		RateLimit:        RateLimitConfig{RequestsPerSecond: 1, Burst: 2},
		Retry:            RetryConfig{MaxRetries: 2, BaseDelay: 5 * time.Second},
		Server:           raw.Server,
		Notification:     raw.Notification,
		ExcludeKeywords:  raw.ExcludeKeywords,
	}

	if raw.DBPath != "" {
		cfg.DBPath = raw.DBPath
	}
	if raw.Jitter != nil {
		cfg.Jitter = *raw.Jitter
	}
	if raw.BroadcastUpdates != nil {
		cfg.BroadcastUpdates = *raw.BroadcastUpdates
	}
	if raw.MaxFetches > 0 {
		cfg.MaxFetches = raw.MaxFetches
	}
	if raw.HTTPTimeout != "" {
		cfg.HTTPTimeout, err = time.ParseDuration(raw.HTTPTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse http_timeout %q: %w", raw.HTTPTimeout, err)
		}
	}
	if raw.RateLimit.RequestsPerSecond > 0 {
		cfg.RateLimit.RequestsPerSecond = raw.RateLimit.RequestsPerSecond
	}
	if raw.RateLimit.Burst > 0 {
		cfg.RateLimit.Burst = raw.RateLimit.Burst
	}
	if raw.Retry.MaxRetries != nil {
		cfg.Retry.MaxRetries = *raw.Retry.MaxRetries
	}
	if raw.Retry.BaseDelay != "" {
		cfg.Retry.BaseDelay, err = time.ParseDuration(raw.Retry.BaseDelay)
		if err != nil {
			return nil, fmt.Errorf("parse retry.base_delay %q: %w", raw.Retry.BaseDelay, err)
		}
	}

	for _, rs := range raw.Sources {
		sc := SourceConfig{
			Source:  model.Source(strings.ToLower(rs.Source)),
			Orgs:    rs.Orgs,
			Enabled: true,
		}
		if rs.Enabled != nil {
			sc.Enabled = *rs.Enabled
		}
		if rs.Interval != "" {
			sc.Interval, err = time.ParseDuration(rs.Interval)
			if err != nil {
				return nil, fmt.Errorf("parse sources[%s].interval %q: %w", rs.Source, rs.Interval, err)
			}
		} else {
			sc.Interval = randomInterval()
		}
		cfg.Sources = append(cfg.Sources, sc)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// randomInterval picks an interval inside the default window.
func randomInterval() time.Duration {
	window := defaultIntervalMax - defaultIntervalMin
	return defaultIntervalMin + time.Duration(rand.Int64N(int64(window)))
}

func validate(cfg *Config) error {
	if cfg.Jitter < 0 || cfg.Jitter > 0.5 {
		return fmt.Errorf("jitter must be between 0 and 0.5, got %v", cfg.Jitter)
	}

	enabled := 0
	for _, sc := range cfg.Sources {
		if !sc.Source.Valid() {
			return fmt.Errorf("unknown source %q", sc.Source)
		}
		if sc.Interval <= 0 {
			return fmt.Errorf("sources[%s].interval must be positive, got %v", sc.Source, sc.Interval)
		}
		if !sc.Enabled {
			continue
		}
		if len(sc.Orgs) == 0 {
			return fmt.Errorf("sources[%s] is enabled but lists no orgs", sc.Source)
		}
		enabled++
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	if cfg.Notification.Type == "slack" && cfg.Notification.WebhookURL == "" {
		return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
	}

	if cfg.Server.Enabled && cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required when server.enabled is true")
	}

	return nil
}
