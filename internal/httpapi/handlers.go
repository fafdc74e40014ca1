package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"jobtrack.dev/internal/ai"
	"jobtrack.dev/internal/audit"
	"jobtrack.dev/internal/auth"
	"jobtrack.dev/internal/jobs"
	"jobtrack.dev/internal/obs"
)

// ReadyProbe pings the database when one is configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return rp.DB.PingContext(ctx)
}

// Deps are the services the HTTP layer dispatches to.
type Deps struct {
	Auth      *auth.Service
	Guard     *auth.Guard
	Jobs      *jobs.Service
	Assistant *ai.Assistant
	Logger    *slog.Logger
	Ready     ReadyProbe
	Version   string
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	auth      *auth.Service
	guard     *auth.Guard
	jobs      *jobs.Service
	assistant *ai.Assistant
	log       *slog.Logger
	auditLog  *audit.Logger

	rateBurst    int
	ratePerSec   float64
	maxBodyBytes int64
	trustProxy   bool
}

// Option tunes API limits.
type Option func(*API)

// WithRateLimit sets the per-client token bucket for login and registration.
func WithRateLimit(burst int, perSecond float64) Option {
	return func(a *API) {
		if burst > 0 && perSecond > 0 {
			a.rateBurst = burst
			a.ratePerSec = perSecond
		}
	}
}

// WithTrustProxy makes client addresses come from X-Forwarded-For. Enable
// only when every request passes through a reverse proxy that sets it.
func WithTrustProxy(trust bool) Option {
	return func(a *API) {
		a.trustProxy = trust
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBodyBytes = n
		}
	}
}

func New(d Deps, opts ...Option) *API {
	logger := d.Logger
	if logger == nil {
		logger = obs.Discard()
	}
	a := &API{
		mux:          http.NewServeMux(),
		readyProbe:   d.Ready,
		version:      d.Version,
		auth:         d.Auth,
		guard:        d.Guard,
		jobs:         d.Jobs,
		assistant:    d.Assistant,
		log:          logger,
		auditLog:     audit.New(logger),
		rateBurst:    20,
		ratePerSec:   5,
		maxBodyBytes: 1 << 20,
	}
	for _, opt := range opts {
		opt(a)
	}

	// health/ready
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// login and registration are throttled per client
	a.mux.Handle("/auth/register", RateLimit(http.HandlerFunc(a.handleRegister), a.rateBurst, a.ratePerSec, a.trustProxy))
	a.mux.Handle("/auth/login", RateLimit(http.HandlerFunc(a.handleLogin), a.rateBurst, a.ratePerSec, a.trustProxy))
	a.mux.Handle("/auth/password/reset", RateLimit(http.HandlerFunc(a.handlePasswordReset), a.rateBurst, a.ratePerSec, a.trustProxy))
	a.mux.HandleFunc("/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/auth/logout", a.authenticated(a.handleLogout))
	a.mux.HandleFunc("/auth/me", a.authenticated(a.handleMe))
	a.mux.HandleFunc("/auth/password/change", a.authenticated(a.handlePasswordChange))
	a.mux.HandleFunc("/auth/users", a.adminOnly(a.handleUsersCollection))
	a.mux.HandleFunc("/auth/users/", a.adminOnly(a.handleUserResource))

	a.mux.HandleFunc("/jobs", a.authenticated(a.handleJobsCollection))
	a.mux.HandleFunc("/jobs/", a.authenticated(a.handleJobResource))

	a.mux.HandleFunc("/ai/analyze-resume", a.authenticated(a.handleAnalyzeResume))
	a.mux.HandleFunc("/ai/match-job", a.authenticated(a.handleMatchJob))
	a.mux.HandleFunc("/ai/generate-cover-letter", a.authenticated(a.handleCoverLetter))
	a.mux.HandleFunc("/ai/suggest-improvements", a.authenticated(a.handleSuggestImprovements))

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(a.log, a.trustProxy)(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "jobtrack-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		a.log.WarnContext(r.Context(), "readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) audit(ctx context.Context, event string, fields map[string]any) {
	if err := a.auditLog.LogEvent(ctx, event, fields); err != nil {
		a.log.WarnContext(ctx, "audit log failed", "event", event, "error", err)
	}
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
