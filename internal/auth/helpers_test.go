package auth

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)}
}

func newTestTokens(t *testing.T, clk *fakeClock) *TokenManager {
	t.Helper()
	tm, err := NewTokenManager(TokenConfig{
		Secret:     "test-secret",
		Algorithm:  "HS256",
		Issuer:     "jobtrack-test",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}, WithTokenClock(clk.Now))
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return tm
}

type testEnv struct {
	svc     *Service
	store   *MemoryStore
	tokens  *TokenManager
	revoker *MemoryRevoker
	guard   *Guard
	clock   *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clk := newFakeClock()
	store := NewMemoryStore()
	tokens := newTestTokens(t, clk)
	rev := NewMemoryRevoker()
	rev.now = clk.Now
	svc := NewService(store, NewHasher(bcrypt.MinCost), tokens, WithRevoker(rev), WithClock(clk.Now))
	return &testEnv{
		svc:     svc,
		store:   store,
		tokens:  tokens,
		revoker: rev,
		guard:   NewGuard(tokens, store, rev, nil),
		clock:   clk,
	}
}

func (e *testEnv) register(t *testing.T, email, password string) User {
	t.Helper()
	u, err := e.svc.Register(t.Context(), RegisterInput{
		Email:           email,
		FullName:        "Test User",
		Password:        password,
		PasswordConfirm: password,
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return u
}
