package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisRevokerBlocklist(t *testing.T) {
	client, mr := setupTestRedis(t)
	r := NewRedisRevoker(client, 24*time.Hour)
	ctx := context.Background()

	revoked, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))
	revoked, err = r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists("jobtrack:revoked:jti:jti-1"))

	mr.FastForward(2 * time.Minute)
	revoked, err = r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entry must expire with the token")
}

func TestRedisRevokerSkipsExpiredTokens(t *testing.T) {
	client, mr := setupTestRedis(t)
	r := NewRedisRevoker(client, time.Hour)

	require.NoError(t, r.Revoke(context.Background(), "old", time.Now().Add(-time.Second)))
	assert.False(t, mr.Exists("jobtrack:revoked:jti:old"))
}

func TestRedisRevokerIdentityWatermark(t *testing.T) {
	client, mr := setupTestRedis(t)
	r := NewRedisRevoker(client, time.Hour)
	ctx := context.Background()

	mark, err := r.RevokedBefore(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, mark.IsZero())

	at := time.Date(2026, 5, 1, 12, 0, 0, 250_000_700, time.UTC)
	require.NoError(t, r.RevokeIdentity(ctx, "u1", at))

	mark, err = r.RevokedBefore(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, at.Truncate(time.Microsecond), mark, "sub-second part is kept")
	assert.Equal(t, time.Hour, mr.TTL("jobtrack:revoked:identity:u1"))
}
