package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Claims carried by every token. Subject is the identity's email; UserID
// pins the token to the identity it was issued for, since emails can be
// changed and later claimed by someone else.
type Claims struct {
	UserID string    `json:"uid"`
	Role   Role      `json:"role"`
	Type   TokenType `json:"type"`
	jwt.RegisteredClaims
}

// Issued-at and expiry are encoded with microsecond precision so that an
// identity watermark can separate tokens minted within the same second.
func init() {
	jwt.TimePrecision = time.Microsecond
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// TokenConfig is the immutable signing setup.
type TokenConfig struct {
	Secret     string
	Algorithm  string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenManager issues and verifies HMAC-signed JWTs.
type TokenManager struct {
	secret     []byte
	method     jwt.SigningMethod
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// TokenOption configures a TokenManager.
type TokenOption func(*TokenManager)

// WithTokenClock overrides the time source.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewTokenManager validates cfg and builds a manager.
func NewTokenManager(cfg TokenConfig, opts ...TokenOption) (*TokenManager, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("auth: token secret is required")
	}
	alg := strings.ToUpper(strings.TrimSpace(cfg.Algorithm))
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	var method jwt.SigningMethod
	switch alg {
	case jwt.SigningMethodHS256.Alg():
		method = jwt.SigningMethodHS256
	case jwt.SigningMethodHS384.Alg():
		method = jwt.SigningMethodHS384
	case jwt.SigningMethodHS512.Alg():
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("auth: unsupported signing algorithm %q", cfg.Algorithm)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	m := &TokenManager{
		secret:     []byte(cfg.Secret),
		method:     method,
		issuer:     strings.TrimSpace(cfg.Issuer),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// RefreshTTL is the longest lifetime of any token this manager issues.
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// Issue signs a fresh access/refresh pair for the given identity.
func (m *TokenManager) Issue(identityID, email string, role Role) (TokenPair, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return TokenPair{}, errors.New("auth: token subject is required")
	}
	if identityID == "" {
		return TokenPair{}, errors.New("auth: token identity is required")
	}
	now := m.now().UTC()
	access, accessExp, err := m.sign(identityID, email, role, TokenAccess, now, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := m.sign(identityID, email, role, TokenRefresh, now, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (m *TokenManager) sign(identityID, subject string, role Role, typ TokenType, now time.Time, ttl time.Duration) (string, time.Time, error) {
	issued := jwt.NewNumericDate(now)
	expires := jwt.NewNumericDate(now.Add(ttl))
	claims := Claims{
		UserID: identityID,
		Role:   role,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subject,
			IssuedAt:  issued,
			ExpiresAt: expires,
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, expires.Time, nil
}

// Verify checks signature, expiry and type. Every failure wraps
// ErrInvalidToken; the wrapped detail is for logs only.
func (m *TokenManager) Verify(raw string, want TokenType) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errMissingBearerToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	switch {
	case strings.TrimSpace(claims.Subject) == "":
		return nil, fmt.Errorf("%w: subject missing", ErrInvalidToken)
	case claims.UserID == "":
		return nil, fmt.Errorf("%w: identity missing", ErrInvalidToken)
	case claims.ID == "":
		return nil, fmt.Errorf("%w: token id missing", ErrInvalidToken)
	case claims.IssuedAt == nil:
		return nil, fmt.Errorf("%w: issued-at missing", ErrInvalidToken)
	case claims.Type != want:
		return nil, fmt.Errorf("%w: got %q, want %q", ErrTokenTypeMismatch, claims.Type, want)
	}
	return claims, nil
}
