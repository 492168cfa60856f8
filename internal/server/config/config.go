// Package config handles configuration for the server component: defaults,
// an optional config file, a .env file, environment variables and
// command-line flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds runtime settings for the auth server.
//
// JWTExpiredIn and JWTMaxAge are parsed for compatibility with existing
// deployments; token and cookie lifetimes are fixed at one hour.
type Config struct {
	DatabaseURL       string        `mapstructure:"database_url" env:"DATABASE_URL"`
	JWTSecret         string        `mapstructure:"jwt_secret" env:"JWT_SECRET"`
	JWTExpiredIn      time.Duration `mapstructure:"jwt_expired_in" env:"JWT_EXPIRED_IN"`
	JWTMaxAge         int           `mapstructure:"jwt_maxage" env:"JWT_MAXAGE"`
	HTTPAddr          string        `mapstructure:"http_addr" env:"HTTP_ADDR"`
	GRPCHealthAddr    string        `mapstructure:"grpc_health_addr" env:"GRPC_HEALTH_ADDR"`
	DBMaxConns        int           `mapstructure:"db_max_conns" env:"DB_MAX_CONNS"`
	DBCheckoutTimeout time.Duration `mapstructure:"db_checkout_timeout" env:"DB_CHECKOUT_TIMEOUT"`
	LogLevel          string        `mapstructure:"log_level" env:"LOG_LEVEL"`
	CookieSecure      bool          `mapstructure:"cookie_secure" env:"COOKIE_SECURE"`
	CookieSameSite    string        `mapstructure:"cookie_same_site" env:"COOKIE_SAME_SITE"`
	OTLPEndpoint      string        `mapstructure:"otel_exporter_otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// CORSAllowedOrigins lists origins allowed to make credentialed calls.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// LoadDefaults populates Config with development defaults. DatabaseURL and
// JWTSecret have none and must be supplied.
func (c *Config) LoadDefaults() {
	c.JWTExpiredIn = 60 * time.Minute
	c.JWTMaxAge = 60
	c.HTTPAddr = ":8000"
	c.DBMaxConns = 10
	c.DBCheckoutTimeout = 5 * time.Second
	c.LogLevel = "info"
	c.CORSAllowedOrigins = []string{"http://localhost:3000"}
}

// Validate reports missing or inconsistent settings.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL must be set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	}
	if c.DBMaxConns <= 0 {
		errs = append(errs, fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DBMaxConns))
	}
	if c.DBCheckoutTimeout <= 0 {
		errs = append(errs, fmt.Errorf("DB_CHECKOUT_TIMEOUT must be positive, got %s", c.DBCheckoutTimeout))
	}
	switch strings.ToLower(c.CookieSameSite) {
	case "", "lax", "strict", "none":
	default:
		errs = append(errs, fmt.Errorf("COOKIE_SAME_SITE must be lax, strict or none, got %q", c.CookieSameSite))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config from os.Args and the process environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], ".env")
}

// Load applies defaults, then the file named by -c/-config in args, then
// envFile, then the environment, then the flags in args, and validates the
// result.
func Load(args []string, envFile string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg, configFilePath(args)); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, envFile); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
