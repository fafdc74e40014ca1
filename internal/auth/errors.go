package auth

import (
	"errors"
	"fmt"

	"jobtrack.dev/internal/validation"
)

var (
	ErrValidation   = validation.ErrInvalid
	ErrConflict     = errors.New("auth: already exists")
	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrForbidden    = errors.New("auth: forbidden")
	ErrNotFound     = errors.New("auth: not found")
)

// Refinements of ErrUnauthorized. The HTTP layer picks the public message
// from these; everything else is rendered generically.
var (
	ErrInvalidToken           = fmt.Errorf("%w: invalid token", ErrUnauthorized)
	ErrInvalidCredentials     = fmt.Errorf("%w: incorrect email or password", ErrUnauthorized)
	ErrInactiveUser           = fmt.Errorf("%w: inactive user", ErrUnauthorized)
	ErrIncorrectPassword      = fmt.Errorf("%w: incorrect current password", ErrUnauthorized)
	ErrTokenRevoked           = fmt.Errorf("%w: token revoked", ErrInvalidToken)
	ErrTokenTypeMismatch      = fmt.Errorf("%w: unexpected token type", ErrInvalidToken)
	errMissingBearerToken     = fmt.Errorf("%w: missing bearer token", ErrInvalidToken)
	errMalformedAuthorization = fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
)
