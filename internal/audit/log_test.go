package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"jobtrack.dev/internal/auth"
	"jobtrack.dev/internal/obs"
)

func TestLogEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(obs.NewLogger("info", &buf))

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = auth.ContextWithSession(ctx, auth.Session{Identity: auth.User{ID: "user-42"}, Role: auth.RoleAdmin})

	if err := logger.LogEvent(ctx, "audit.test", map[string]any{"foo": "bar"}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	line := buf.String()
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != "audit.test" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["user_id"] != "user-42" {
		t.Fatalf("unexpected user id: %v", entry["user_id"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["foo"] != "bar" {
		t.Fatalf("unexpected fields: %v", entry["fields"])
	}
}

func TestLogEventAnonymous(t *testing.T) {
	var buf bytes.Buffer
	logger := New(obs.NewLogger("info", &buf))

	if err := logger.LogEvent(context.Background(), "auth.login.failed", nil); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if _, ok := entry["user_id"]; ok {
		t.Fatalf("anonymous events must not carry a user id")
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := New(nil).LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for empty event")
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	if got := RequestIDFromContext(WithRequestID(context.Background(), " abc ")); got != "abc" {
		t.Fatalf("unexpected request id %q", got)
	}
	if got := RequestIDFromContext(WithRequestID(context.Background(), "")); got != "" {
		t.Fatalf("empty id must not be stored, got %q", got)
	}
}
