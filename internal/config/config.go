// Package config defines service configuration and its loading.
//
// Conventions:
//   - Keys are flat snake_case; nested groups are addressed from the
//     environment with a double underscore (NETRISK_WEIGHTS__MODEL).
//   - Durations are integer milliseconds with an _ms suffix.
package config

import (
	"time"

	"github.com/okian/netrisk/internal/adapters/camara"
	"github.com/okian/netrisk/internal/adapters/notify"
	"github.com/okian/netrisk/internal/adapters/provider"
	"github.com/okian/netrisk/internal/domain/geo"
	"github.com/okian/netrisk/internal/domain/phone"
	"github.com/okian/netrisk/internal/domain/scoring"
	"github.com/okian/netrisk/internal/gateway"
)

// Audit backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr        string `koanf:"addr"`
	ServiceName string `koanf:"service_name"`

	// OTLPEndpoint enables trace export when set (host:port).
	OTLPEndpoint string `koanf:"otlp_endpoint"`

	// ProviderMode is the default mode for every provider: live or simulated.
	ProviderMode string `koanf:"provider_mode"`
	// ProviderModes overrides the mode per signal kind.
	ProviderModes     map[string]string `koanf:"provider_modes"`
	ProviderTimeoutMS int               `koanf:"provider_timeout_ms"`
	ProviderBaseURL   string            `koanf:"provider_base_url"`
	RapidAPIHost      string            `koanf:"rapidapi_host"`
	RapidAPIKey       string            `koanf:"rapidapi_key"`
	BreakerFailures   int               `koanf:"breaker_failures"`
	BreakerCooldownMS int               `koanf:"breaker_cooldown_ms"`
	HomeNetwork       string            `koanf:"home_network"`

	ExpectedLocation   geo.Point `koanf:"expected_location"`
	RadiusMeters       float64   `koanf:"radius_m"`
	MaxSwapAgeHours    int       `koanf:"max_swap_age_hours"`
	DefaultCountryCode string    `koanf:"default_country_code"`

	Weights    scoring.Weights    `koanf:"weights"`
	Thresholds scoring.Thresholds `koanf:"thresholds"`
	// RulePoints overrides built-in rule points by rule id.
	RulePoints map[string]float64 `koanf:"rule_points"`
	ExtraRules []scoring.RuleSpec `koanf:"extra_rules"`

	// HighRiskCountries and WatchlistCountries replace the built-in lists
	// when set.
	HighRiskCountries  []string `koanf:"high_risk_countries"`
	WatchlistCountries []string `koanf:"watchlist_countries"`
	CountryRefreshMS   int      `koanf:"country_refresh_ms"`

	AuditBackend   string `koanf:"audit_backend"`
	AuditFile      string `koanf:"audit_file"`
	AuditFsync     bool   `koanf:"audit_fsync"`
	AuditQueueSize int    `koanf:"audit_queue_size"`
	AuditTimeoutMS int    `koanf:"audit_timeout_ms"`
	DatabaseURL    string `koanf:"database_url"`
	// HistoryLimit caps the prior records read for anomaly detection.
	HistoryLimit int `koanf:"history_limit"`

	ReplayTTLMS int `koanf:"replay_ttl_ms"`
	ReplaySize  int `koanf:"replay_size"`

	// RedisAddr enables the shared replay guard and the Redis country list.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// KafkaBrokers enables alert publishing; otherwise alerts are logged.
	KafkaBrokers []string `koanf:"kafka_brokers"`
	KafkaTopic   string   `koanf:"kafka_topic"`

	// SummaryCron schedules the daily summary; empty disables it.
	SummaryCron string `koanf:"summary_cron"`

	HealthTimeoutMS int `koanf:"health_timeout_ms"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		Addr:        ":8080",
		ServiceName: "netrisk",

		ProviderMode:      string(provider.ModeLive),
		ProviderTimeoutMS: int(provider.DefaultTimeout / time.Millisecond),
		ProviderBaseURL:   camara.DefaultBaseURL,
		RapidAPIHost:      camara.DefaultAPIHost,
		BreakerFailures:   provider.DefaultBreakerFailures,
		BreakerCooldownMS: int(provider.DefaultBreakerCooldown / time.Millisecond),
		HomeNetwork:       provider.DefaultHomeNetwork,

		ExpectedLocation:   gateway.DefaultExpected,
		RadiusMeters:       gateway.DefaultRadiusMeters,
		MaxSwapAgeHours:    gateway.DefaultMaxSwapAgeHours,
		DefaultCountryCode: phone.DefaultCountryCode,

		Weights:    scoring.DefaultWeights(),
		Thresholds: scoring.DefaultThresholds(),

		CountryRefreshMS: 5 * 60 * 1000,

		AuditBackend:   BackendMemory,
		AuditFile:      "netrisk-audit.jsonl",
		AuditFsync:     true,
		AuditQueueSize: 1024,
		AuditTimeoutMS: 5000,
		HistoryLimit:   100,

		ReplayTTLMS: 10 * 60 * 1000,
		ReplaySize:  50_000,

		KafkaTopic: notify.DefaultTopic,

		SummaryCron: "0 8 * * *",

		HealthTimeoutMS: 2000,
	}
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// ProviderTimeout bounds each live provider call.
func (c *Config) ProviderTimeout() time.Duration { return ms(c.ProviderTimeoutMS) }

// BreakerCooldown is how long an open breaker stays open.
func (c *Config) BreakerCooldown() time.Duration { return ms(c.BreakerCooldownMS) }

// CountryRefresh is the country list refresh interval.
func (c *Config) CountryRefresh() time.Duration { return ms(c.CountryRefreshMS) }

// AuditTimeout bounds each audit append.
func (c *Config) AuditTimeout() time.Duration { return ms(c.AuditTimeoutMS) }

// ReplayTTL is how long request ids are remembered.
func (c *Config) ReplayTTL() time.Duration { return ms(c.ReplayTTLMS) }

// HealthTimeout bounds each readiness check.
func (c *Config) HealthTimeout() time.Duration { return ms(c.HealthTimeoutMS) }
