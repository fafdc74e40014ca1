package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"jobtrack.dev/internal/migrate"
	"jobtrack.dev/internal/obs"
)

func main() {
	var (
		dsn     = flag.String("dsn", os.Getenv("JOBTRACK_DATABASE_DSN"), "PostgreSQL DSN")
		timeout = flag.Duration("timeout", 30*time.Second, "Overall timeout")
	)
	flag.Parse()
	logger := obs.NewLogger("info", os.Stderr)

	if *dsn == "" {
		fatal(logger, "missing DSN: provide via -dsn or JOBTRACK_DATABASE_DSN")
	}
	if len(flag.Args()) == 0 {
		fatal(logger, "usage: migrate [up|down|status]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatal(logger, fmt.Sprintf("open db: %v", err))
	}
	defer db.Close()

	mgr := migrate.NewManager(db, logger)

	switch flag.Arg(0) {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "status":
		var v int64
		v, err = mgr.Status(ctx)
		if err == nil {
			fmt.Printf("schema version %d\n", v)
		}
	default:
		fatal(logger, fmt.Sprintf("unknown command %q", flag.Arg(0)))
	}
	if err != nil {
		fatal(logger, fmt.Sprintf("migrate %s: %v", flag.Arg(0), err))
	}
}

func fatal(logger *slog.Logger, msg string) {
	logger.Error(msg)
	os.Exit(1)
}
