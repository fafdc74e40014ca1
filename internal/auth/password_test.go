package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasherRoundTrip(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "correct horse" {
		t.Fatalf("hash must not equal plaintext")
	}
	if !h.Verify("correct horse", hash) {
		t.Fatalf("expected password to verify")
	}
	if h.Verify("correct horsf", hash) {
		t.Fatalf("unexpected verification of a different password")
	}
}

func TestHasherSaltsEveryHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	a, _ := h.Hash("same-password")
	b, _ := h.Hash("same-password")
	if a == b {
		t.Fatalf("expected distinct salts")
	}
}

func TestHasherMalformedHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	for _, hash := range []string{"", "not-a-bcrypt-hash", "$2a$04$short"} {
		if h.Verify("whatever", hash) {
			t.Fatalf("malformed hash %q must not verify", hash)
		}
	}
}

func TestHasherRejectsBadInput(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	if _, err := h.Hash(""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty password, got %v", err)
	}
	if _, err := h.Hash("bad\xffutf8"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for invalid utf-8, got %v", err)
	}
}

func TestHasherLongPasswords(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	long := strings.Repeat("a", 100)
	hash, err := h.Hash(long)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !h.Verify(long, hash) {
		t.Fatalf("long password must verify")
	}
}

func TestNewHasherClampsCost(t *testing.T) {
	if got := NewHasher(1).cost; got != bcrypt.DefaultCost {
		t.Fatalf("cost=%d, want default", got)
	}
}
