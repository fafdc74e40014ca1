package auth

import (
	"strings"
	"time"
)

// Role is the coarse permission level of an identity.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity is the stored account record. PasswordHash never leaves the
// service; handlers work with User.
type Identity struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	IsActive     bool
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLogin    *time.Time
}

// User is the public view of an Identity.
type User struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	FullName   string     `json:"full_name"`
	Role       Role       `json:"role"`
	IsActive   bool       `json:"is_active"`
	IsVerified bool       `json:"is_verified"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
}

// Public strips credentials from the identity.
func (i Identity) Public() User {
	return User{
		ID:         i.ID,
		Email:      i.Email,
		FullName:   i.FullName,
		Role:       i.Role,
		IsActive:   i.IsActive,
		IsVerified: i.IsVerified,
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
		LastLogin:  i.LastLogin,
	}
}

// IdentityUpdate is a partial update; nil fields are left untouched.
// UpdatedAt is always written.
type IdentityUpdate struct {
	Email        *string
	FullName     *string
	PasswordHash *string
	Role         *Role
	IsActive     *bool
	IsVerified   *bool
	LastLogin    *time.Time
	UpdatedAt    time.Time
}

func (u IdentityUpdate) apply(i *Identity) {
	if u.Email != nil {
		i.Email = *u.Email
	}
	if u.FullName != nil {
		i.FullName = *u.FullName
	}
	if u.PasswordHash != nil {
		i.PasswordHash = *u.PasswordHash
	}
	if u.Role != nil {
		i.Role = *u.Role
	}
	if u.IsActive != nil {
		i.IsActive = *u.IsActive
	}
	if u.IsVerified != nil {
		i.IsVerified = *u.IsVerified
	}
	if u.LastLogin != nil {
		t := *u.LastLogin
		i.LastLogin = &t
	}
	i.UpdatedAt = u.UpdatedAt
}

// NormalizeEmail lower-cases and trims; emails compare case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
