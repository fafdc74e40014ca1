// Package audit records security-relevant events as structured log entries.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"jobtrack.dev/internal/auth"
)

type ctxKey struct{}

// WithRequestID attaches the request identifier to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, requestID)
}

// RequestIDFromContext returns the request id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}

// Logger writes audit entries through slog.
type Logger struct {
	log *slog.Logger
}

func New(l *slog.Logger) *Logger {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	return &Logger{log: l.With("type", "audit")}
}

// LogEvent writes one entry enriched with the request id and, when the
// request is authenticated, the acting identity.
func (a *Logger) LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	attrs := []slog.Attr{slog.String("event", event)}
	if rid := RequestIDFromContext(ctx); rid != "" {
		attrs = append(attrs, slog.String("request_id", rid))
	}
	if sess, ok := auth.SessionFromContext(ctx); ok {
		attrs = append(attrs, slog.String("user_id", sess.Identity.ID))
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	group := make([]any, 0, len(keys))
	for _, k := range keys {
		group = append(group, slog.Any(k, fields[k]))
	}
	attrs = append(attrs, slog.Group("fields", group...))

	a.log.LogAttrs(ctx, slog.LevelInfo, "audit", attrs...)
	return nil
}
