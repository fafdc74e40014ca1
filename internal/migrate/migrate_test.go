package migrate

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestEmbeddedMigrationsAreAnnotated(t *testing.T) {
	files, err := fs.Glob(migrations, migrationsDir+"/*.sql")
	require.NoError(t, err)
	require.Len(t, files, 2)

	for _, name := range files {
		body, err := fs.ReadFile(migrations, name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", name)
		assert.Contains(t, string(body), "-- +goose Down", name)
	}

	users, err := fs.ReadFile(migrations, migrationsDir+"/00001_users.sql")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(users), "on users (lower(email))"), "email must be unique case-insensitively")
}

func TestUpUsesEmbeddedDir(t *testing.T) {
	db := newDB(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(ctx context.Context, _ *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, NewManager(db, nil).Up(context.Background()))
	assert.Equal(t, migrationsDir, gotDir)
}

func TestUpWrapsError(t *testing.T) {
	db := newDB(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	boom := errors.New("boom")
	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error { return boom }

	err := NewManager(db, nil).Up(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "migrate up")
}

func TestDownAndStatus(t *testing.T) {
	db := newDB(t)

	origDown, origStatus, origVersion := gooseDownContext, gooseStatusContext, gooseVersionContext
	t.Cleanup(func() {
		gooseDownContext, gooseStatusContext, gooseVersionContext = origDown, origStatus, origVersion
	})

	var calls []string
	gooseDownContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		calls = append(calls, "down")
		return nil
	}
	gooseStatusContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		calls = append(calls, "status")
		return nil
	}
	gooseVersionContext = func(context.Context, *sql.DB) (int64, error) { return 2, nil }

	m := NewManager(db, nil)
	require.NoError(t, m.Down(context.Background()))
	v, err := m.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
	assert.Equal(t, []string{"down", "status"}, calls)
}
