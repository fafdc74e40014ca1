package auth

import (
	"context"
	"errors"
	"testing"
)

func TestGuardAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "ann@example.com", "s3cret-pass")
	pair, _, err := env.svc.Login(context.Background(), "ann@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	sess, err := env.guard.Authenticate(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if sess.Identity.ID != u.ID || sess.Role != RoleUser || sess.Claims.Type != TokenAccess {
		t.Fatalf("unexpected session: %+v", sess)
	}

	if _, err := env.guard.Authenticate(context.Background(), pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token must not authenticate: %v", err)
	}
}

func TestGuardFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "ann@example.com", "s3cret-pass")
	pair, _, _ := env.svc.Login(context.Background(), "ann@example.com", "s3cret-pass")

	ghost, _ := env.tokens.Issue("ghost-id", "ghost@example.com", RoleAdmin)
	if _, err := env.guard.Authenticate(context.Background(), ghost.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("unknown subject: %v", err)
	}

	inactive := false
	if _, err := env.svc.UpdateUser(context.Background(), u.ID, AdminUpdate{IsActive: &inactive}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if _, err := env.guard.Authenticate(context.Background(), pair.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("inactive identity: %v", err)
	}
}

func TestGuardUsesStoredRole(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "ann@example.com", "s3cret-pass")

	forged, _ := env.tokens.Issue(u.ID, "ann@example.com", RoleAdmin)
	sess, err := env.guard.Authenticate(context.Background(), forged.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if err := RequireRole(sess, RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stored role must win over claim, got %v", err)
	}
}

func TestGuardRejectsTokenAfterEmailReassigned(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "a@x.com", "alice-pass")
	old, _, err := env.svc.Login(context.Background(), "a@x.com", "alice-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	moved := "a2@x.com"
	if _, err := env.svc.UpdateProfile(context.Background(), alice.ID, ProfileUpdate{Email: &moved}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if _, err := env.guard.Authenticate(context.Background(), old.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token for a vacated email: %v", err)
	}

	bob := env.register(t, "a@x.com", "bob-password")
	sess, err := env.guard.Authenticate(context.Background(), old.AccessToken)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("old token resolved to %q, err=%v", sess.Identity.ID, err)
	}

	admin := RoleAdmin
	if _, err := env.svc.UpdateUser(context.Background(), bob.ID, AdminUpdate{Role: &admin}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if _, err := env.guard.Authenticate(context.Background(), old.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("old token must stay dead after the new owner changes: %v", err)
	}
}

func TestRequireRoleAndOwner(t *testing.T) {
	admin := Session{Identity: User{ID: "a"}, Role: RoleAdmin}
	user := Session{Identity: User{ID: "u"}, Role: RoleUser}

	if err := RequireRole(admin, RoleAdmin); err != nil {
		t.Fatalf("admin should pass: %v", err)
	}
	if err := RequireRole(user, RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := RequireOwner(user, "u"); err != nil {
		t.Fatalf("owner should pass: %v", err)
	}
	if err := RequireOwner(user, "someone-else"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ownership mismatch must look like not-found, got %v", err)
	}
	if err := RequireOwner(admin, "u"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("admins do not bypass ownership, got %v", err)
	}
}

func TestExtractBearer(t *testing.T) {
	if tok, err := ExtractBearer("Bearer abc.def"); err != nil || tok != "abc.def" {
		t.Fatalf("unexpected result %q %v", tok, err)
	}
	if tok, err := ExtractBearer("bearer  xyz "); err != nil || tok != "xyz" {
		t.Fatalf("scheme is case-insensitive: %q %v", tok, err)
	}
	for _, h := range []string{"", "Basic abc", "Bearer", "Bearer   "} {
		if _, err := ExtractBearer(h); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("header %q: expected ErrInvalidToken, got %v", h, err)
		}
	}
}

func TestSessionContext(t *testing.T) {
	if _, ok := SessionFromContext(context.Background()); ok {
		t.Fatalf("empty context must not carry a session")
	}
	ctx := ContextWithSession(context.Background(), Session{Identity: User{ID: "u1"}})
	sess, ok := SessionFromContext(ctx)
	if !ok || sess.Identity.ID != "u1" {
		t.Fatalf("unexpected session %+v", sess)
	}
}
