package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/medisys/hms/internal/platform/listquery"
)

// devSecret signs tokens when AUTH_SECRET is unset outside production.
const devSecret = "hms-development-secret-do-not-use"

type Config struct {
	Port               string        `mapstructure:"PORT"`
	Env                string        `mapstructure:"ENV"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32         `mapstructure:"DB_MIN_CONNS"`
	AuthSecret         string        `mapstructure:"AUTH_SECRET"`
	AuthIssuer         string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience       string        `mapstructure:"AUTH_AUDIENCE"`
	AuthTokenTTL       time.Duration `mapstructure:"AUTH_TOKEN_TTL"`
	CORSOrigins        []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS       float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int           `mapstructure:"RATE_LIMIT_BURST"`
	ListDefaultPerPage int           `mapstructure:"LIST_DEFAULT_PER_PAGE"`
	ListMaxPerPage     int           `mapstructure:"LIST_MAX_PER_PAGE"`
	ListFieldPolicy    string        `mapstructure:"LIST_FIELD_POLICY"`
	MetricsEnabled     bool          `mapstructure:"METRICS_ENABLED"`
}

var keys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"AUTH_SECRET", "AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_TOKEN_TTL",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"LIST_DEFAULT_PER_PAGE", "LIST_MAX_PER_PAGE", "LIST_FIELD_POLICY", "METRICS_ENABLED",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("AUTH_ISSUER", "hms")
	v.SetDefault("AUTH_AUDIENCE", "hms-api")
	v.SetDefault("AUTH_TOKEN_TTL", "8h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("LIST_DEFAULT_PER_PAGE", 10)
	v.SetDefault("LIST_MAX_PER_PAGE", 100)
	v.SetDefault("LIST_FIELD_POLICY", "strict")
	v.SetDefault("METRICS_ENABLED", true)

	// Unmarshal only sees env vars that are bound explicitly.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// A missing .env file is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(strings.Join(cfg.CORSOrigins, ","))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SigningKey returns the HS256 key. Outside production an unset
// AUTH_SECRET falls back to a fixed development key.
func (c *Config) SigningKey() []byte {
	if c.AuthSecret == "" && !c.IsProduction() {
		return []byte(devSecret)
	}
	return []byte(c.AuthSecret)
}

// FieldPolicy parses LIST_FIELD_POLICY.
func (c *Config) FieldPolicy() (listquery.FieldPolicy, error) {
	return listquery.ParsePolicy(c.ListFieldPolicy)
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.AuthSecret == "" {
			return fmt.Errorf("AUTH_SECRET is required in production")
		}
		if len(c.AuthSecret) < 32 {
			return fmt.Errorf("AUTH_SECRET must be at least 32 bytes, got %d", len(c.AuthSecret))
		}
	}
	if _, err := c.FieldPolicy(); err != nil {
		return fmt.Errorf("LIST_FIELD_POLICY: %w", err)
	}
	if c.ListDefaultPerPage < 1 {
		return fmt.Errorf("LIST_DEFAULT_PER_PAGE must be at least 1, got %d", c.ListDefaultPerPage)
	}
	if c.ListMaxPerPage < c.ListDefaultPerPage {
		return fmt.Errorf("LIST_MAX_PER_PAGE (%d) must not be below LIST_DEFAULT_PER_PAGE (%d)",
			c.ListMaxPerPage, c.ListDefaultPerPage)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	return nil
}
