package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// Session is the request-scoped result of authentication.
type Session struct {
	Identity User
	Role     Role
	Claims   Claims
}

// Guard turns a bearer token into a Session and enforces role and
// ownership constraints. It fails closed.
type Guard struct {
	tokens  *TokenManager
	store   IdentityStore
	revoker Revoker
	logger  *slog.Logger
}

// NewGuard builds a Guard. revoker may be nil when revocation is unused.
func NewGuard(tokens *TokenManager, store IdentityStore, revoker Revoker, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Guard{tokens: tokens, store: store, revoker: revoker, logger: logger}
}

// Authenticate verifies an access token and resolves its identity.
// Token problems surface as ErrInvalidToken; a deactivated identity as
// ErrInactiveUser. Store failures are returned as is.
func (g *Guard) Authenticate(ctx context.Context, rawToken string) (Session, error) {
	claims, err := g.tokens.Verify(rawToken, TokenAccess)
	if err != nil {
		g.logger.DebugContext(ctx, "access token rejected", "reason", err.Error())
		return Session{}, ErrInvalidToken
	}
	identity, err := g.store.FindByEmail(ctx, claims.Subject)
	if errors.Is(err, ErrNotFound) {
		g.logger.DebugContext(ctx, "access token subject unknown")
		return Session{}, ErrInvalidToken
	}
	if err != nil {
		return Session{}, err
	}
	// The email may have moved to a newer identity since the token was issued.
	if identity.ID != claims.UserID {
		g.logger.DebugContext(ctx, "access token subject now belongs to another identity")
		return Session{}, ErrInvalidToken
	}
	if !identity.IsActive {
		return Session{}, ErrInactiveUser
	}
	if g.revoker != nil {
		if err := checkRevoked(ctx, g.revoker, claims, identity.ID); err != nil {
			if errors.Is(err, ErrTokenRevoked) {
				g.logger.DebugContext(ctx, "access token revoked", "identity_id", identity.ID)
				return Session{}, ErrInvalidToken
			}
			return Session{}, err
		}
	}
	// The stored role wins over the claim so a downgrade applies at once.
	return Session{Identity: identity.Public(), Role: identity.Role, Claims: *claims}, nil
}

// ExtractBearer pulls the token out of an Authorization header value.
func ExtractBearer(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingBearerToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errMalformedAuthorization
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errMissingBearerToken
	}
	return token, nil
}

// RequireRole fails with ErrForbidden unless the session has role.
func RequireRole(s Session, role Role) error {
	if s.Role != role {
		return ErrForbidden
	}
	return nil
}

// RequireOwner fails with ErrNotFound unless the session identity owns the
// resource, so foreign resources are indistinguishable from missing ones.
func RequireOwner(s Session, ownerID string) error {
	if ownerID == "" || s.Identity.ID != ownerID {
		return ErrNotFound
	}
	return nil
}
