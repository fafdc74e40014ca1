package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"jobtrack.dev/internal/dbx"
)

var _ IdentityStore = (*PGStore)(nil)

const identityColumns = `id, email, full_name, password_hash, role, is_active, is_verified, created_at, updated_at, last_login`

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// PGStore implements IdentityStore on the users table.
type PGStore struct {
	db dbx.DBTX
}

func NewPGStore(db dbx.DBTX) *PGStore {
	return &PGStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (Identity, error) {
	var (
		identity Identity
		role     string
		last     sql.NullTime
	)
	err := row.Scan(
		&identity.ID, &identity.Email, &identity.FullName, &identity.PasswordHash, &role,
		&identity.IsActive, &identity.IsVerified, &identity.CreatedAt, &identity.UpdatedAt, &last,
	)
	if err != nil {
		return Identity{}, err
	}
	identity.Role = Role(role)
	if last.Valid {
		t := last.Time
		identity.LastLogin = &t
	}
	return identity, nil
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+identityColumns+` from users where lower(email) = $1`, NormalizeEmail(email))
	identity, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Identity{}, ErrNotFound
	}
	if err != nil {
		return Identity{}, fmt.Errorf("find user by email: %w", err)
	}
	return identity, nil
}

func (s *PGStore) FindByID(ctx context.Context, id string) (Identity, error) {
	row := s.db.QueryRowContext(ctx, `select `+identityColumns+` from users where id = $1`, id)
	identity, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Identity{}, ErrNotFound
	}
	if err != nil {
		return Identity{}, fmt.Errorf("find user by id: %w", err)
	}
	return identity, nil
}

func (s *PGStore) Insert(ctx context.Context, identity Identity) (Identity, error) {
	_, err := s.db.ExecContext(ctx,
		`insert into users(`+identityColumns+`) values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		identity.ID, identity.Email, identity.FullName, identity.PasswordHash, string(identity.Role),
		identity.IsActive, identity.IsVerified, identity.CreatedAt, identity.UpdatedAt, identity.LastLogin,
	)
	if isUniqueViolation(err) {
		return Identity{}, ErrConflict
	}
	if err != nil {
		return Identity{}, fmt.Errorf("insert user: %w", err)
	}
	return identity, nil
}

func (s *PGStore) Update(ctx context.Context, id string, upd IdentityUpdate) (Identity, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.Email != nil {
		set("email", NormalizeEmail(*upd.Email))
	}
	if upd.FullName != nil {
		set("full_name", *upd.FullName)
	}
	if upd.PasswordHash != nil {
		set("password_hash", *upd.PasswordHash)
	}
	if upd.Role != nil {
		set("role", string(*upd.Role))
	}
	if upd.IsActive != nil {
		set("is_active", *upd.IsActive)
	}
	if upd.IsVerified != nil {
		set("is_verified", *upd.IsVerified)
	}
	if upd.LastLogin != nil {
		set("last_login", *upd.LastLogin)
	}
	set("updated_at", upd.UpdatedAt)
	args = append(args, id)

	query := fmt.Sprintf(`update users set %s where id = $%d returning %s`,
		strings.Join(sets, ", "), len(args), identityColumns)
	identity, err := scanIdentity(s.db.QueryRowContext(ctx, query, args...))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Identity{}, ErrNotFound
	case isUniqueViolation(err):
		return Identity{}, ErrConflict
	case err != nil:
		return Identity{}, fmt.Errorf("update user: %w", err)
	}
	return identity, nil
}

func (s *PGStore) List(ctx context.Context, offset, limit int) ([]Identity, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+identityColumns+` from users order by created_at, id offset $1 limit $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]Identity, 0)
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
