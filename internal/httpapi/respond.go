package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"jobtrack.dev/internal/ai"
	"jobtrack.dev/internal/audit"
	"jobtrack.dev/internal/auth"
	"jobtrack.dev/internal/jobs"
	"jobtrack.dev/internal/validation"
)

func parseNonNegativeInt(raw, name string, def int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validation.Field(name, "must be an integer")
	}
	if val < 0 {
		return 0, validation.Field(name, "must be greater than or equal to 0")
	}
	return val, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleError is the single error to status mapping of the API.
func (a *API) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Errors
	switch {
	case errors.As(err, &verr):
		writeValidation(w, r, verr)
	case errors.Is(err, validation.ErrInvalid):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, "Email already registered")
	case errors.Is(err, auth.ErrInvalidCredentials):
		unauthorized(w, r, "Incorrect email or password")
	case errors.Is(err, auth.ErrIncorrectPassword):
		unauthorized(w, r, "Incorrect password")
	case errors.Is(err, auth.ErrInactiveUser):
		unauthorized(w, r, "Inactive user")
	case errors.Is(err, auth.ErrUnauthorized):
		unauthorized(w, r, "Could not validate credentials")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "Not enough permissions")
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "User not found")
	case errors.Is(err, jobs.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Job not found")
	case errors.Is(err, ai.ErrUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "AI assistant is not configured")
	case errors.Is(err, ai.ErrUpstream):
		a.log.WarnContext(r.Context(), "ai upstream failure", "error", err)
		writeError(w, r, http.StatusBadGateway, "AI service failed")
	default:
		a.log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, r, http.StatusUnauthorized, msg)
}

func writeValidation(w http.ResponseWriter, r *http.Request, verr *validation.Errors) {
	payload := map[string]any{
		"error":  validation.ErrInvalid.Error(),
		"fields": verr.Fields,
	}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, http.StatusBadRequest, payload)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
