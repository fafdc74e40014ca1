package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// parseFlags overlays command-line flags onto cfg.
//
// Supported flags:
//
//	-addr string         HTTP bind address
//	-dsn string          PostgreSQL DSN (pgx)
//	-migrate             apply migrations on start
//	-redis string        Redis address for the token revocation list
//	-secret string       token signing secret
//	-alg string          token signing algorithm (HS256, HS384, HS512)
//	-access-minutes int  access token lifetime in minutes
//	-refresh-days int    refresh token lifetime in days
//	-log-level string    debug, info, warn or error
//	-config string       YAML config file (read before the environment)
//	-env-file string     dotenv file (read first)
//
// Token lifetimes are only touched when their flag is given, so a YAML
// duration such as "90s" is not truncated to whole minutes.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("jobtrack", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.String("config", "", "YAML config file")
	fs.String("env-file", defaultEnvFile, "dotenv file")

	fs.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP bind address")
	fs.StringVar(&cfg.DatabaseDSN, "dsn", cfg.DatabaseDSN, "PostgreSQL DSN")
	fs.BoolVar(&cfg.MigrateOnStart, "migrate", cfg.MigrateOnStart, "apply migrations on start")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address")
	fs.StringVar(&cfg.SecretKey, "secret", cfg.SecretKey, "token signing secret")
	fs.StringVar(&cfg.Algorithm, "alg", cfg.Algorithm, "token signing algorithm")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.TrustProxy, "trust-proxy", cfg.TrustProxy, "take client IPs from X-Forwarded-For")
	accessMinutes := fs.Int("access-minutes", int(cfg.AccessTokenTTL/time.Minute), "access token lifetime (minutes)")
	refreshDays := fs.Int("refresh-days", int(cfg.RefreshTokenTTL/(24*time.Hour)), "refresh token lifetime (days)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("config: parse flags: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "access-minutes":
			cfg.AccessTokenTTL = time.Duration(*accessMinutes) * time.Minute
		case "refresh-days":
			cfg.RefreshTokenTTL = time.Duration(*refreshDays) * 24 * time.Hour
		}
	})
	return nil
}

// configFilePath finds the YAML file before the full flag set is parsed,
// falling back to JOBTRACK_CONFIG.
func configFilePath(args []string) string {
	if v, ok := flagValue(args, "config"); ok {
		return v
	}
	return strings.TrimSpace(os.Getenv("JOBTRACK_CONFIG"))
}

func envFilePath(args []string) string {
	if v, ok := flagValue(args, "env-file"); ok {
		return v
	}
	return defaultEnvFile
}

// flagValue extracts the value of -name / --name in both "-name v" and
// "-name=v" forms.
func flagValue(args []string, name string) (string, bool) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		trimmed := strings.TrimLeft(arg, "-")
		if trimmed == arg {
			continue
		}
		if k, v, ok := strings.Cut(trimmed, "="); ok {
			if k == name {
				return v, true
			}
			continue
		}
		if trimmed == name && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}
