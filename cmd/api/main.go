package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"jobtrack.dev/internal/ai"
	"jobtrack.dev/internal/auth"
	"jobtrack.dev/internal/config"
	"jobtrack.dev/internal/httpapi"
	"jobtrack.dev/internal/jobs"
	"jobtrack.dev/internal/migrate"
	"jobtrack.dev/internal/obs"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger := obs.NewLogger(cfg.LogLevel, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("api stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// metrics registry and jobtrack_build_info
	obs.Init()
	obs.InitBuildInfo(version, commit)

	// Postgres when a DSN is given; in-memory stores otherwise
	var (
		db         *sql.DB
		identities auth.IdentityStore = auth.NewMemoryStore()
		jobStore   jobs.Store         = jobs.NewInMemory()
	)
	if cfg.DatabaseDSN != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)

		if cfg.MigrateOnStart {
			if err := migrate.NewManager(db, logger).Up(ctx); err != nil {
				return err
			}
		}
		identities = auth.NewPGStore(db)
		jobStore = jobs.NewPGStore(db)
	} else {
		logger.Warn("no database configured, using in-memory stores")
	}

	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		Secret:     cfg.SecretKey,
		Algorithm:  cfg.Algorithm,
		Issuer:     cfg.Issuer,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		return err
	}

	var revoker auth.Revoker = auth.NewMemoryRevoker()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		revoker = auth.NewRedisRevoker(rdb, cfg.RefreshTokenTTL)
	}

	authSvc := auth.NewService(identities, auth.NewHasher(cfg.BcryptCost), tokens,
		auth.WithRevoker(revoker),
		auth.WithLogger(logger.With("component", "auth")),
	)
	if cfg.AdminEmail != "" {
		admin, err := authSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminFullName, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		logger.Info("bootstrap admin ready", "identity_id", admin.ID)
	}

	assistant := ai.New(ai.Config{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.OpenAIModel,
		BaseURL:     cfg.OpenAIBaseURL,
		Temperature: cfg.OpenAITemperature,
	})
	if !assistant.Enabled() {
		logger.Info("ai assistant disabled, no API key configured")
	}

	api := httpapi.New(httpapi.Deps{
		Auth:      authSvc,
		Guard:     auth.NewGuard(tokens, identities, revoker, logger.With("component", "guard")),
		Jobs:      jobs.NewService(jobStore),
		Assistant: assistant,
		Logger:    logger,
		Ready:     httpapi.ReadyProbe{DB: db},
		Version:   version,
	},
		httpapi.WithRateLimit(cfg.RateLimitBurst, cfg.RateLimitPerSecond),
		httpapi.WithMaxBodyBytes(cfg.MaxBodyBytes),
		httpapi.WithTrustProxy(cfg.TrustProxy),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting jobtrack-api", "version", version, "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("stopped")
	return nil
}
