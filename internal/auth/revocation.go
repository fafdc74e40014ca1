package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Revoker tracks tokens that must be refused before they expire.
//
// Two mechanisms are supported: a blocklist of individual token ids, and a
// per-identity watermark that invalidates every token issued before it.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	RevokeIdentity(ctx context.Context, identityID string, at time.Time) error
	RevokedBefore(ctx context.Context, identityID string) (time.Time, error)
}

// checkRevoked fails with ErrTokenRevoked if the token was blocklisted or
// predates the identity's watermark. The issued-at claim round-trips through
// a float64 and may decode one jwt.TimePrecision tick early.
func checkRevoked(ctx context.Context, r Revoker, claims *Claims, identityID string) error {
	revoked, err := r.IsRevoked(ctx, claims.ID)
	if err != nil {
		return fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return ErrTokenRevoked
	}
	mark, err := r.RevokedBefore(ctx, identityID)
	if err != nil {
		return fmt.Errorf("check identity revocation: %w", err)
	}
	if !mark.IsZero() && claims.IssuedAt.Time.Add(jwt.TimePrecision).Before(mark) {
		return ErrTokenRevoked
	}
	return nil
}

var _ Revoker = (*MemoryRevoker)(nil)

// MemoryRevoker keeps revocations in process memory. Entries are dropped
// lazily once they can no longer matter.
type MemoryRevoker struct {
	mu         sync.Mutex
	tokens     map[string]time.Time
	identities map[string]time.Time
	now        func() time.Time
}

// NewMemoryRevoker returns an empty revocation list.
func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{
		tokens:     make(map[string]time.Time),
		identities: make(map[string]time.Time),
		now:        time.Now,
	}
}

func (m *MemoryRevoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()
	if until.After(m.now()) {
		m.tokens[tokenID] = until
	}
	return nil
}

func (m *MemoryRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.tokens[tokenID]
	return ok && until.After(m.now()), nil
}

func (m *MemoryRevoker) RevokeIdentity(ctx context.Context, identityID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	at = at.Truncate(jwt.TimePrecision)
	if prev, ok := m.identities[identityID]; !ok || at.After(prev) {
		m.identities[identityID] = at
	}
	return nil
}

func (m *MemoryRevoker) RevokedBefore(ctx context.Context, identityID string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identities[identityID], nil
}

func (m *MemoryRevoker) pruneLocked() {
	now := m.now()
	for id, until := range m.tokens {
		if !until.After(now) {
			delete(m.tokens, id)
		}
	}
}
