package auth

import "context"

// IdentityStore persists identities. Implementations return ErrNotFound for
// unknown ids or emails and ErrConflict when an email is already taken.
// Emails are matched case-insensitively.
type IdentityStore interface {
	FindByEmail(ctx context.Context, email string) (Identity, error)
	FindByID(ctx context.Context, id string) (Identity, error)
	Insert(ctx context.Context, identity Identity) (Identity, error)
	Update(ctx context.Context, id string, upd IdentityUpdate) (Identity, error)
	List(ctx context.Context, offset, limit int) ([]Identity, error)
}
