package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"

	"github.com/okian/netrisk/internal/adapters/provider"
	"github.com/okian/netrisk/internal/domain/model"
)

// Environment variables read before the layered load.
const (
	EnvPrefix  = "NETRISK_"
	EnvConfig  = "NETRISK_CONFIG"
	EnvDotFile = "NETRISK_ENV_FILE"
)

var countryCodeRe = regexp.MustCompile(`^\+[1-9][0-9]{0,3}$`)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if NETRISK_CONFIG is set
//  3. env (prefix NETRISK_), after loading .env if present
func Load(_ context.Context) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// NETRISK_AUDIT_BACKEND -> audit_backend, NETRISK_WEIGHTS__MODEL -> weights.model
	envProvider := env.ProviderWithValue(EnvPrefix, ".", envValue)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// listKeys are the []string settings written as comma-separated env values.
var listKeys = map[string]bool{
	"high_risk_countries": true,
	"watchlist_countries": true,
	"kafka_brokers":       true,
}

// envValue maps an env variable to its koanf key and splits list values.
func envValue(name, value string) (string, interface{}) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), "__", ".")
	if !listKeys[key] {
		return key, value
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return key, out
}

// loadDotEnv reads NETRISK_ENV_FILE, or .env when present. Variables
// already set in the environment win.
func loadDotEnv() error {
	path := os.Getenv(EnvDotFile)
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
	}
	return nil
}

// Validate checks the configuration. Scoring weights and rules are
// checked when the engine is built.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Addr == "" {
		fail("addr must not be empty")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		fail("log_format must be text or json, got %q", c.LogFormat)
	}
	if _, err := c.Modes(); err != nil {
		fail("%v", err)
	}
	if c.ProviderTimeoutMS <= 0 {
		fail("provider_timeout_ms must be positive")
	}
	if c.BreakerFailures <= 0 || c.BreakerCooldownMS <= 0 {
		fail("breaker_failures and breaker_cooldown_ms must be positive")
	}
	if c.RadiusMeters <= 0 {
		fail("radius_m must be positive")
	}
	if c.MaxSwapAgeHours <= 0 {
		fail("max_swap_age_hours must be positive")
	}
	if !countryCodeRe.MatchString(c.DefaultCountryCode) {
		fail("default_country_code must look like +91, got %q", c.DefaultCountryCode)
	}

	switch c.AuditBackend {
	case BackendMemory:
	case BackendFile:
		if c.AuditFile == "" {
			fail("audit_file is required for the file backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			fail("database_url is required for the postgres backend")
		}
	default:
		fail("audit_backend must be memory, file or postgres, got %q", c.AuditBackend)
	}
	if c.AuditQueueSize <= 0 {
		fail("audit_queue_size must be positive")
	}
	if c.AuditTimeoutMS <= 0 {
		fail("audit_timeout_ms must be positive")
	}
	if c.HistoryLimit < 0 {
		fail("history_limit must not be negative")
	}
	if c.ReplayTTLMS <= 0 {
		fail("replay_ttl_ms must be positive")
	}
	if c.CountryRefreshMS <= 0 {
		fail("country_refresh_ms must be positive")
	}
	if c.SummaryCron != "" {
		if _, err := cron.ParseStandard(c.SummaryCron); err != nil {
			fail("summary_cron %q: %v", c.SummaryCron, err)
		}
	}
	return errors.Join(errs...)
}

// Modes resolves the provider mode of each signal kind.
func (c *Config) Modes() (map[model.SignalKind]provider.Mode, error) {
	def, err := provider.ParseMode(c.ProviderMode)
	if err != nil {
		return nil, fmt.Errorf("provider_mode: %w", err)
	}
	modes := make(map[model.SignalKind]provider.Mode, 4)
	for _, k := range model.Kinds() {
		modes[k] = def
	}
	for name, raw := range c.ProviderModes {
		kind := model.SignalKind(strings.ToLower(name))
		if _, ok := modes[kind]; !ok {
			return nil, fmt.Errorf("provider_modes: unknown signal kind %q", name)
		}
		m, err := provider.ParseMode(raw)
		if err != nil {
			return nil, fmt.Errorf("provider_modes.%s: %w", name, err)
		}
		modes[kind] = m
	}
	return modes, nil
}
