package auth

import (
	"sync"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"jobtrack.dev/internal/validation"
)

// bcrypt only looks at the first 72 bytes; longer input is cut there on
// both hash and verify so the two stay consistent.
const bcryptMaxBytes = 72

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewHasher returns a hasher with the given bcrypt cost; out-of-range
// values fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted bcrypt hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", validation.Field("password", "is required")
	}
	if !utf8.ValidString(password) {
		return "", validation.Field("password", "must be valid UTF-8")
	}
	hash, err := bcrypt.GenerateFromPassword(clamp(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. A malformed hash is
// simply a mismatch.
func (h *Hasher) Verify(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), clamp(password)) == nil
}

// burn spends the same work as a real verification. Used when the account
// does not exist so response timing does not reveal it.
func (h *Hasher) burn(password string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("jobtrack-timing-equalizer"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, clamp(password))
}

func clamp(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptMaxBytes {
		b = b[:bcryptMaxBytes]
	}
	return b
}
