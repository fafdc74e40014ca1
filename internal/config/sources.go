package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultEnvFile = ".env"

var lookupEnv = os.LookupEnv

// loadDotEnv exports variables from a dotenv file without overriding the
// ones already present in the process environment. A missing file is fine.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

func parseYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// envSetter applies one environment variable to the config.
type envSetter func(cfg *Config, raw string) error

// envBindings lists the recognized variables. Later entries win, so the
// JOBTRACK_ names take precedence over the short legacy ones.
var envBindings = []struct {
	name string
	set  envSetter
}{
	{"JOBTRACK_HTTP_ADDR", setString(func(c *Config) *string { return &c.HTTPAddr })},
	{"JOBTRACK_DATABASE_DSN", setString(func(c *Config) *string { return &c.DatabaseDSN })},
	{"JOBTRACK_MIGRATE_ON_START", setBool(func(c *Config) *bool { return &c.MigrateOnStart })},
	{"JOBTRACK_REDIS_ADDR", setString(func(c *Config) *string { return &c.RedisAddr })},
	{"JOBTRACK_REDIS_PASSWORD", setString(func(c *Config) *string { return &c.RedisPassword })},
	{"JOBTRACK_REDIS_DB", setInt(func(c *Config) *int { return &c.RedisDB })},
	{"SECRET_KEY", setString(func(c *Config) *string { return &c.SecretKey })},
	{"JOBTRACK_SECRET_KEY", setString(func(c *Config) *string { return &c.SecretKey })},
	{"ALGORITHM", setString(func(c *Config) *string { return &c.Algorithm })},
	{"JOBTRACK_ALGORITHM", setString(func(c *Config) *string { return &c.Algorithm })},
	{"JOBTRACK_ISSUER", setString(func(c *Config) *string { return &c.Issuer })},
	{"ACCESS_TOKEN_EXPIRE_MINUTES", setUnits(time.Minute, func(c *Config) *time.Duration { return &c.AccessTokenTTL })},
	{"REFRESH_TOKEN_EXPIRE_DAYS", setUnits(24*time.Hour, func(c *Config) *time.Duration { return &c.RefreshTokenTTL })},
	{"JOBTRACK_BCRYPT_COST", setInt(func(c *Config) *int { return &c.BcryptCost })},
	{"JOBTRACK_RATE_LIMIT_BURST", setInt(func(c *Config) *int { return &c.RateLimitBurst })},
	{"JOBTRACK_RATE_LIMIT_RPS", setFloat(func(c *Config) *float64 { return &c.RateLimitPerSecond })},
	{"JOBTRACK_MAX_BODY_BYTES", func(c *Config, raw string) error {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		c.MaxBodyBytes = v
		return nil
	}},
	{"JOBTRACK_LOG_LEVEL", setString(func(c *Config) *string { return &c.LogLevel })},
	{"JOBTRACK_TRUST_PROXY", setBool(func(c *Config) *bool { return &c.TrustProxy })},
	{"JOBTRACK_ADMIN_EMAIL", setString(func(c *Config) *string { return &c.AdminEmail })},
	{"JOBTRACK_ADMIN_PASSWORD", setString(func(c *Config) *string { return &c.AdminPassword })},
	{"JOBTRACK_ADMIN_FULL_NAME", setString(func(c *Config) *string { return &c.AdminFullName })},
	{"OPENAI_API_KEY", setString(func(c *Config) *string { return &c.OpenAIAPIKey })},
	{"OPENAI_MODEL", setString(func(c *Config) *string { return &c.OpenAIModel })},
	{"OPENAI_BASE_URL", setString(func(c *Config) *string { return &c.OpenAIBaseURL })},
	{"OPENAI_TEMPERATURE", func(c *Config, raw string) error {
		v, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return err
		}
		c.OpenAITemperature = float32(v)
		return nil
	}},
}

func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for _, b := range envBindings {
		raw, ok := lookup(b.name)
		if !ok {
			continue
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if err := b.set(cfg, raw); err != nil {
			return fmt.Errorf("config: %s: %w", b.name, err)
		}
	}
	return nil
}

func setString(field func(*Config) *string) envSetter {
	return func(c *Config, raw string) error {
		*field(c) = raw
		return nil
	}
}

func setBool(field func(*Config) *bool) envSetter {
	return func(c *Config, raw string) error {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		*field(c) = v
		return nil
	}
}

func setInt(field func(*Config) *int) envSetter {
	return func(c *Config, raw string) error {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		*field(c) = v
		return nil
	}
}

func setFloat(field func(*Config) *float64) envSetter {
	return func(c *Config, raw string) error {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		*field(c) = v
		return nil
	}
}

// setUnits parses an integer count of unit, e.g. minutes or days.
func setUnits(unit time.Duration, field func(*Config) *time.Duration) envSetter {
	return func(c *Config, raw string) error {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		*field(c) = time.Duration(v) * unit
		return nil
	}
}
