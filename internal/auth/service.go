package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobtrack.dev/internal/validation"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Service orchestrates registration, login, token rotation and profile
// changes on top of an IdentityStore.
type Service struct {
	store   IdentityStore
	hasher  *Hasher
	tokens  *TokenManager
	revoker Revoker
	now     func() time.Time
	logger  *slog.Logger
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithRevoker replaces the default in-memory revocation list.
func WithRevoker(r Revoker) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.revoker = r
		}
	}
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithLogger sets the logger used for internal failure reasons.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService wires the service. Hasher and TokenManager are required.
func NewService(store IdentityStore, hasher *Hasher, tokens *TokenManager, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		revoker: NewMemoryRevoker(),
		now:     time.Now,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Revoker exposes the revocation list so the Guard can share it.
func (s *Service) Revoker() Revoker { return s.revoker }

// RegisterInput is the self-registration request.
type RegisterInput struct {
	Email           string `json:"email" validate:"required,email,max=254"`
	FullName        string `json:"full_name" validate:"required,min=1,max=100"`
	Password        string `json:"password" validate:"required,min=8,max=100"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

// Register creates a new active, unverified identity with role user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	in.Email = NormalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validation.Struct(in); err != nil {
		return User{}, err
	}
	if in.Password != in.PasswordConfirm {
		return User{}, validation.Field("password_confirm", "passwords do not match")
	}
	identity, err := s.create(ctx, in.Email, in.FullName, in.Password, RoleUser, false)
	if err != nil {
		return User{}, err
	}
	return identity.Public(), nil
}

func (s *Service) create(ctx context.Context, email, fullName, password string, role Role, verified bool) (Identity, error) {
	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return Identity{}, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return Identity{}, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return Identity{}, err
	}
	now := s.now().UTC()
	return s.store.Insert(ctx, Identity{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		IsVerified:   verified,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// Login checks credentials and issues a token pair. Unknown email and wrong
// password produce the same ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, User, error) {
	identity, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		s.hasher.burn(password)
		return TokenPair{}, User{}, ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, User{}, err
	}
	if !s.hasher.Verify(password, identity.PasswordHash) {
		return TokenPair{}, User{}, ErrInvalidCredentials
	}
	if !identity.IsActive {
		return TokenPair{}, User{}, ErrInactiveUser
	}

	now := s.now().UTC()
	identity, err = s.store.Update(ctx, identity.ID, IdentityUpdate{LastLogin: &now, UpdatedAt: now})
	if err != nil {
		return TokenPair{}, User{}, fmt.Errorf("record login: %w", err)
	}
	pair, err := s.tokens.Issue(identity.ID, identity.Email, identity.Role)
	if err != nil {
		return TokenPair{}, User{}, err
	}
	return pair, identity.Public(), nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked so it cannot be replayed.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, User, error) {
	claims, err := s.tokens.Verify(refreshToken, TokenRefresh)
	if err != nil {
		s.logger.DebugContext(ctx, "refresh token rejected", "reason", err.Error())
		return TokenPair{}, User{}, ErrInvalidToken
	}
	identity, err := s.store.FindByEmail(ctx, claims.Subject)
	if errors.Is(err, ErrNotFound) {
		return TokenPair{}, User{}, ErrInvalidToken
	}
	if err != nil {
		return TokenPair{}, User{}, err
	}
	if identity.ID != claims.UserID {
		s.logger.DebugContext(ctx, "refresh token subject now belongs to another identity")
		return TokenPair{}, User{}, ErrInvalidToken
	}
	if !identity.IsActive {
		return TokenPair{}, User{}, ErrInactiveUser
	}
	if err := checkRevoked(ctx, s.revoker, claims, identity.ID); err != nil {
		if errors.Is(err, ErrTokenRevoked) {
			return TokenPair{}, User{}, ErrInvalidToken
		}
		return TokenPair{}, User{}, err
	}

	pair, err := s.tokens.Issue(identity.ID, identity.Email, identity.Role)
	if err != nil {
		return TokenPair{}, User{}, err
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return TokenPair{}, User{}, fmt.Errorf("revoke used refresh token: %w", err)
	}
	return pair, identity.Public(), nil
}

// Logout revokes the session's access token and, when given and owned by
// the same identity, the refresh token.
func (s *Service) Logout(ctx context.Context, sess Session, refreshToken string) error {
	if err := s.revoker.Revoke(ctx, sess.Claims.ID, sess.Claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	claims, err := s.tokens.Verify(refreshToken, TokenRefresh)
	if err != nil || claims.UserID != sess.Identity.ID {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// ChangePasswordInput is the password change request.
type ChangePasswordInput struct {
	CurrentPassword    string `json:"current_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required,min=8,max=100"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required"`
}

// ChangePassword replaces the password after checking the current one.
// Tokens issued before the change stop working.
func (s *Service) ChangePassword(ctx context.Context, identityID string, in ChangePasswordInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if in.NewPassword != in.NewPasswordConfirm {
		return validation.Field("new_password_confirm", "passwords do not match")
	}
	identity, err := s.store.FindByID(ctx, identityID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(in.CurrentPassword, identity.PasswordHash) {
		return ErrIncorrectPassword
	}
	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	if _, err := s.store.Update(ctx, identityID, IdentityUpdate{PasswordHash: &hash, UpdatedAt: now}); err != nil {
		return err
	}
	if err := s.revoker.RevokeIdentity(ctx, identityID, now); err != nil {
		return fmt.Errorf("revoke outstanding tokens: %w", err)
	}
	return nil
}

// ProfileUpdate holds the fields a user may change on their own account.
type ProfileUpdate struct {
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=100"`
}

// UpdateProfile applies only the provided fields.
func (s *Service) UpdateProfile(ctx context.Context, identityID string, in ProfileUpdate) (User, error) {
	upd, err := s.prepareUpdate(ctx, identityID, in.Email, in.FullName)
	if err != nil {
		return User{}, err
	}
	identity, err := s.store.Update(ctx, identityID, upd)
	if err != nil {
		return User{}, err
	}
	return identity.Public(), nil
}

// AdminUpdate holds the fields an administrator may change.
type AdminUpdate struct {
	Email      *string `json:"email" validate:"omitempty,email,max=254"`
	FullName   *string `json:"full_name" validate:"omitempty,min=1,max=100"`
	IsActive   *bool   `json:"is_active"`
	IsVerified *bool   `json:"is_verified"`
	Role       *Role   `json:"role" validate:"omitempty,oneof=user admin"`
}

// UpdateUser applies an administrative update. Deactivation or a role
// downgrade invalidates the identity's outstanding tokens.
func (s *Service) UpdateUser(ctx context.Context, identityID string, in AdminUpdate) (User, error) {
	if err := validation.Struct(in); err != nil {
		return User{}, err
	}
	current, err := s.store.FindByID(ctx, identityID)
	if err != nil {
		return User{}, err
	}
	upd, err := s.prepareUpdate(ctx, identityID, in.Email, in.FullName)
	if err != nil {
		return User{}, err
	}
	upd.IsActive = in.IsActive
	upd.IsVerified = in.IsVerified
	upd.Role = in.Role

	identity, err := s.store.Update(ctx, identityID, upd)
	if err != nil {
		return User{}, err
	}
	deactivated := current.IsActive && !identity.IsActive
	downgraded := current.Role == RoleAdmin && identity.Role != RoleAdmin
	if deactivated || downgraded {
		if err := s.revoker.RevokeIdentity(ctx, identityID, upd.UpdatedAt); err != nil {
			return User{}, fmt.Errorf("revoke outstanding tokens: %w", err)
		}
	}
	return identity.Public(), nil
}

func (s *Service) prepareUpdate(ctx context.Context, identityID string, email, fullName *string) (IdentityUpdate, error) {
	if email != nil {
		e := NormalizeEmail(*email)
		email = &e
	}
	if fullName != nil {
		n := strings.TrimSpace(*fullName)
		fullName = &n
	}
	if err := validation.Struct(ProfileUpdate{Email: email, FullName: fullName}); err != nil {
		return IdentityUpdate{}, err
	}
	if email != nil {
		existing, err := s.store.FindByEmail(ctx, *email)
		switch {
		case err == nil && existing.ID != identityID:
			return IdentityUpdate{}, ErrConflict
		case err != nil && !errors.Is(err, ErrNotFound):
			return IdentityUpdate{}, err
		}
	}
	return IdentityUpdate{
		Email:     email,
		FullName:  fullName,
		UpdatedAt: s.now().UTC(),
	}, nil
}

// GetUser returns the public view of one identity.
func (s *Service) GetUser(ctx context.Context, identityID string) (User, error) {
	identity, err := s.store.FindByID(ctx, identityID)
	if err != nil {
		return User{}, err
	}
	return identity.Public(), nil
}

// ListUsers pages through all identities in creation order. A zero limit
// means the default page size.
func (s *Service) ListUsers(ctx context.Context, offset, limit int) ([]User, error) {
	if offset < 0 {
		return nil, validation.Field("skip", "must be greater than or equal to 0")
	}
	switch {
	case limit < 0:
		return nil, validation.Field("limit", "must be greater than or equal to 0")
	case limit == 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	identities, err := s.store.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	out := make([]User, 0, len(identities))
	for _, identity := range identities {
		out = append(out, identity.Public())
	}
	return out, nil
}

// RequestPasswordReset never reveals whether the email is registered.
// Delivery of the reset link is outside this service; the request is logged.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) {
	identity, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	switch {
	case errors.Is(err, ErrNotFound):
		return
	case err != nil:
		s.logger.ErrorContext(ctx, "password reset lookup failed", "error", err)
		return
	case !identity.IsActive:
		return
	}
	s.logger.InfoContext(ctx, "password reset requested", "identity_id", identity.ID)
}

// EnsureAdmin creates the bootstrap administrator, or promotes and
// reactivates an existing identity with that email.
func (s *Service) EnsureAdmin(ctx context.Context, email, fullName, password string) (User, error) {
	email = NormalizeEmail(email)
	existing, err := s.store.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role == RoleAdmin && existing.IsActive {
			return existing.Public(), nil
		}
		role, active := RoleAdmin, true
		updated, err := s.store.Update(ctx, existing.ID, IdentityUpdate{Role: &role, IsActive: &active, UpdatedAt: s.now().UTC()})
		if err != nil {
			return User{}, err
		}
		return updated.Public(), nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}
	if err := validation.Struct(RegisterInput{Email: email, FullName: fullName, Password: password, PasswordConfirm: password}); err != nil {
		return User{}, err
	}
	identity, err := s.create(ctx, email, fullName, password, RoleAdmin, true)
	if err != nil {
		return User{}, err
	}
	return identity.Public(), nil
}
