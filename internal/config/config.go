// Package config builds the runtime configuration of the API server.
// Values are layered: defaults, an optional .env file, an optional YAML file,
// environment variables and finally command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings. It is built once at startup and passed to
// constructors; nothing reads it through globals.
type Config struct {
	HTTPAddr       string `yaml:"http_addr"`
	DatabaseDSN    string `yaml:"database_dsn"`
	MigrateOnStart bool   `yaml:"migrate_on_start"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	SecretKey       string        `yaml:"secret_key"`
	Algorithm       string        `yaml:"algorithm"`
	Issuer          string        `yaml:"issuer"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
	BcryptCost      int           `yaml:"bcrypt_cost"`

	RateLimitBurst     int     `yaml:"rate_limit_burst"`
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`
	MaxBodyBytes       int64   `yaml:"max_body_bytes"`
	LogLevel           string  `yaml:"log_level"`

	// TrustProxy takes client addresses from X-Forwarded-For. Leave it off
	// unless the API is reachable only through a proxy that appends to it.
	TrustProxy bool `yaml:"trust_proxy"`

	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
	AdminFullName string `yaml:"admin_full_name"`

	OpenAIAPIKey      string  `yaml:"openai_api_key"`
	OpenAIModel       string  `yaml:"openai_model"`
	OpenAIBaseURL     string  `yaml:"openai_base_url"`
	OpenAITemperature float32 `yaml:"openai_temperature"`
}

var supportedAlgorithms = map[string]struct{}{
	"HS256": {},
	"HS384": {},
	"HS512": {},
}

// LoadDefaults populates Config with development defaults. The signing
// secret is intentionally left empty so a deployment cannot start without one.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.Algorithm = "HS256"
	c.Issuer = "jobtrack"
	c.AccessTokenTTL = 30 * time.Minute
	c.RefreshTokenTTL = 7 * 24 * time.Hour
	c.BcryptCost = bcrypt.DefaultCost
	c.RateLimitBurst = 20
	c.RateLimitPerSecond = 5
	c.MaxBodyBytes = 1 << 20
	c.LogLevel = "info"
	c.AdminFullName = "Administrator"
	c.OpenAIModel = "gpt-4o-mini"
	c.OpenAITemperature = 0.7
}

// Load builds a Config from defaults and every configured source.
// args are the command-line arguments without the program name.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := loadDotEnv(envFilePath(args)); err != nil {
		return nil, err
	}
	if path := configFilePath(args); path != "" {
		if err := parseYAML(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := parseEnv(cfg, lookupEnv); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Algorithm = strings.ToUpper(strings.TrimSpace(c.Algorithm))
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.AdminEmail = strings.ToLower(strings.TrimSpace(c.AdminEmail))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if _, ok := supportedAlgorithms[c.Algorithm]; !ok {
		errs = append(errs, fmt.Errorf("unsupported signing algorithm %q", c.Algorithm))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("access token ttl must be positive"))
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		errs = append(errs, errors.New("refresh token ttl must exceed access token ttl"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.RateLimitBurst <= 0 || c.RateLimitPerSecond <= 0 {
		errs = append(errs, errors.New("rate limit must be positive"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("max body bytes must be positive"))
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("admin email and password must be set together"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// AIEnabled reports whether an OpenAI key is configured.
func (c *Config) AIEnabled() bool {
	return strings.TrimSpace(c.OpenAIAPIKey) != ""
}
