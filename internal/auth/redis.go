package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Revoker = (*RedisRevoker)(nil)

// RedisRevoker stores revocations in Redis so every API replica sees them.
// Keys expire on their own once the tokens they block would have expired.
type RedisRevoker struct {
	client redis.Cmdable
	prefix string
	maxTTL time.Duration
	now    func() time.Time
}

// NewRedisRevoker builds a revoker. maxTokenTTL bounds how long an identity
// watermark is kept; it should be the refresh token lifetime.
func NewRedisRevoker(client redis.Cmdable, maxTokenTTL time.Duration) *RedisRevoker {
	return &RedisRevoker{
		client: client,
		prefix: "jobtrack:revoked:",
		maxTTL: maxTokenTTL,
		now:    time.Now,
	}
}

func (r *RedisRevoker) tokenKey(id string) string    { return r.prefix + "jti:" + id }
func (r *RedisRevoker) identityKey(id string) string { return r.prefix + "identity:" + id }

func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return nil
	}
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.tokenKey(tokenID), "1", ttl).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.tokenKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisRevoker) RevokeIdentity(ctx context.Context, identityID string, at time.Time) error {
	return r.client.Set(ctx, r.identityKey(identityID), strconv.FormatInt(at.UnixMicro(), 10), r.maxTTL).Err()
}

func (r *RedisRevoker) RevokedBefore(ctx context.Context, identityID string) (time.Time, error) {
	raw, err := r.client.Get(ctx, r.identityKey(identityID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	usec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMicro(usec).UTC(), nil
}
