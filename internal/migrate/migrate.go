// Package migrate applies the embedded Postgres schema with goose.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var migrations embed.FS

const migrationsDir = "sql"

// goose keeps its configuration in package globals.
var setupMu sync.Mutex

// Seams for tests.
var (
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
	gooseDownContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.DownContext(ctx, db, dir, opts...)
	}
	gooseStatusContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.StatusContext(ctx, db, dir, opts...)
	}
	gooseVersionContext = func(ctx context.Context, db *sql.DB) (int64, error) {
		return goose.GetDBVersionContext(ctx, db)
	}
)

// Manager runs schema migrations against one database.
type Manager struct {
	db  *sql.DB
	log *slog.Logger
}

func NewManager(db *sql.DB, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{db: db, log: logger}
}

func (m *Manager) setup() error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{m.log})
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return nil
}

// Up applies all pending migrations.
func (m *Manager) Up(ctx context.Context) error {
	setupMu.Lock()
	defer setupMu.Unlock()
	if err := m.setup(); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, migrationsDir); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back the most recent migration.
func (m *Manager) Down(ctx context.Context) error {
	setupMu.Lock()
	defer setupMu.Unlock()
	if err := m.setup(); err != nil {
		return err
	}
	if err := gooseDownContext(ctx, m.db, migrationsDir); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Status logs every migration with its state and returns the current
// schema version.
func (m *Manager) Status(ctx context.Context) (int64, error) {
	setupMu.Lock()
	defer setupMu.Unlock()
	if err := m.setup(); err != nil {
		return 0, err
	}
	if err := gooseStatusContext(ctx, m.db, migrationsDir); err != nil {
		return 0, fmt.Errorf("migrate status: %w", err)
	}
	v, err := gooseVersionContext(ctx, m.db)
	if err != nil {
		return 0, fmt.Errorf("schema version: %w", err)
	}
	return v, nil
}

// gooseLogger routes goose output into slog.
type gooseLogger struct{ l *slog.Logger }

func (g gooseLogger) Printf(format string, v ...any) {
	g.l.Info(fmt.Sprintf(format, v...), "component", "migrate")
}

// Fatalf must not exit the process; goose only calls it on invalid input.
func (g gooseLogger) Fatalf(format string, v ...any) {
	g.l.Error(fmt.Sprintf(format, v...), "component", "migrate")
}
