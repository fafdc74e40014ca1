package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "HS256", c.Algorithm)
	assert.Equal(t, 30*time.Minute, c.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, c.RefreshTokenTTL)
	assert.Empty(t, c.SecretKey)
	assert.False(t, c.TrustProxy, "forwarded headers are ignored by default")
}

func TestLoad_RequiresSecret(t *testing.T) {
	_, err := Load([]string{"-env-file", ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret key is required")
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cr3t")
	t.Setenv("ALGORITHM", "hs512")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "15")
	t.Setenv("REFRESH_TOKEN_EXPIRE_DAYS", "3")
	t.Setenv("JOBTRACK_REDIS_DB", "2")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "s3cr3t", cfg.SecretKey)
	assert.Equal(t, "HS512", cfg.Algorithm)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 72*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoad_PrefixedEnvWinsOverLegacyName(t *testing.T) {
	t.Setenv("SECRET_KEY", "legacy")
	t.Setenv("JOBTRACK_SECRET_KEY", "prefixed")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.SecretKey)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("SECRET_KEY", "x")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "soon")

	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_EXPIRE_MINUTES")
}

func TestLoad_YAMLThenEnvThenFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobtrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":9000"
secret_key: from-yaml
access_token_ttl: 90s
refresh_token_ttl: 48h
database_dsn: postgres://yaml
`), 0o600))

	t.Setenv("JOBTRACK_DATABASE_DSN", "postgres://env")

	cfg, err := Load([]string{"-config", path, "-addr", ":7000"})
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.HTTPAddr, "flag beats yaml")
	assert.Equal(t, "postgres://env", cfg.DatabaseDSN, "env beats yaml")
	assert.Equal(t, "from-yaml", cfg.SecretKey)
	assert.Equal(t, 90*time.Second, cfg.AccessTokenTTL, "yaml duration kept when flag absent")
	assert.Equal(t, 48*time.Hour, cfg.RefreshTokenTTL)
}

func TestLoad_TokenLifetimeFlags(t *testing.T) {
	t.Setenv("SECRET_KEY", "x")

	cfg, err := Load([]string{"-access-minutes=5", "-refresh-days", "2"})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 48*time.Hour, cfg.RefreshTokenTTL)
}

func TestLoad_TrustProxy(t *testing.T) {
	t.Setenv("SECRET_KEY", "x")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.False(t, cfg.TrustProxy)

	t.Setenv("JOBTRACK_TRUST_PROXY", "true")
	cfg, err = Load(nil)
	require.NoError(t, err)
	assert.True(t, cfg.TrustProxy)

	cfg, err = Load([]string{"-trust-proxy=false"})
	require.NoError(t, err)
	assert.False(t, cfg.TrustProxy, "flag beats env")
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("JOBTRACK_TEST_DOTENV_SECRET=dotenv\nJOBTRACK_ISSUER=dotenv-issuer\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("JOBTRACK_TEST_DOTENV_SECRET")
		_ = os.Unsetenv("JOBTRACK_ISSUER")
	})
	t.Setenv("SECRET_KEY", "x")

	cfg, err := Load([]string{"-env-file=" + path})
	require.NoError(t, err)
	assert.Equal(t, "dotenv-issuer", cfg.Issuer)
	assert.Equal(t, "dotenv", os.Getenv("JOBTRACK_TEST_DOTENV_SECRET"))
}

func TestValidate(t *testing.T) {
	base := func() Config {
		var c Config
		c.LoadDefaults()
		c.SecretKey = "x"
		return c
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unsupported alg", func(c *Config) { c.Algorithm = "RS256" }, "unsupported signing algorithm"},
		{"zero access ttl", func(c *Config) { c.AccessTokenTTL = 0 }, "access token ttl"},
		{"refresh shorter than access", func(c *Config) { c.RefreshTokenTTL = time.Minute }, "refresh token ttl"},
		{"bcrypt cost", func(c *Config) { c.BcryptCost = 99 }, "bcrypt cost"},
		{"admin half set", func(c *Config) { c.AdminEmail = "a@b.c" }, "admin email and password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	c := base()
	assert.NoError(t, c.Validate())
}

func TestFlagValue(t *testing.T) {
	v, ok := flagValue([]string{"-addr", ":1", "--config=/etc/x.yaml"}, "config")
	assert.True(t, ok)
	assert.Equal(t, "/etc/x.yaml", v)

	_, ok = flagValue([]string{"--", "-config", "x"}, "config")
	assert.False(t, ok)
}
