package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"jobtrack.dev/internal/auth"
	"jobtrack.dev/internal/obs"
	"jobtrack.dev/internal/validation"
)

type tokenResponse struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	ExpiresIn        int64     `json:"expires_in"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

func newTokenResponse(pair auth.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		TokenType:        "bearer",
		ExpiresIn:        int64(time.Until(pair.AccessExpiresAt).Seconds()),
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

const passwordResetMessage = "If the email is registered, a password reset link has been sent"

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req auth.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.auth.Register(r.Context(), req)
	if err != nil {
		obs.AuthEvent("register", "failure")
		a.handleError(w, r, err)
		return
	}
	obs.AuthEvent("register", "success")
	a.audit(r.Context(), "auth.register", map[string]any{"identity_id": user.ID})

	w.Header().Set("Location", "/auth/users/"+user.ID)
	writeJSON(w, http.StatusCreated, user)
}

// handleLogin takes the OAuth2 password form: username carries the email.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid form body")
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	missing := map[string]string{}
	if username == "" {
		missing["username"] = "is required"
	}
	if password == "" {
		missing["password"] = "is required"
	}
	if len(missing) > 0 {
		writeValidation(w, r, &validation.Errors{Fields: missing})
		return
	}

	pair, user, err := a.auth.Login(r.Context(), username, password)
	if err != nil {
		obs.AuthEvent("login", "failure")
		if errors.Is(err, auth.ErrUnauthorized) {
			a.audit(r.Context(), "auth.login.failed", map[string]any{"client_ip": clientIP(r, a.trustProxy)})
		}
		a.handleError(w, r, err)
		return
	}
	obs.AuthEvent("login", "success")
	a.audit(r.Context(), "auth.login", map[string]any{"identity_id": user.ID, "client_ip": clientIP(r, a.trustProxy)})

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, newTokenResponse(pair))
}

// handleRefresh accepts the token as a query parameter or a JSON body.
func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	token := strings.TrimSpace(r.URL.Query().Get("refresh_token"))
	if token == "" {
		var req refreshRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		token = strings.TrimSpace(req.RefreshToken)
	}
	if token == "" {
		writeValidation(w, r, validation.Field("refresh_token", "is required"))
		return
	}

	pair, user, err := a.auth.Refresh(r.Context(), token)
	if err != nil {
		obs.AuthEvent("refresh", "failure")
		a.handleError(w, r, err)
		return
	}
	obs.AuthEvent("refresh", "success")
	a.audit(r.Context(), "auth.refresh", map[string]any{"identity_id": user.ID})

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, newTokenResponse(pair))
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req refreshRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := a.auth.Logout(r.Context(), sess, req.RefreshToken); err != nil {
		a.handleError(w, r, err)
		return
	}
	obs.AuthEvent("logout", "success")
	a.audit(r.Context(), "auth.logout", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, sess.Identity)
	case http.MethodPatch:
		var req auth.ProfileUpdate
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		user, err := a.auth.UpdateProfile(r.Context(), sess.Identity.ID, req)
		if err != nil {
			a.handleError(w, r, err)
			return
		}
		a.audit(r.Context(), "auth.profile.update", map[string]any{"fields": changedFields(req.Email != nil, req.FullName != nil)})
		writeJSON(w, http.StatusOK, user)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
	}
}

func (a *API) handlePasswordChange(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req auth.ChangePasswordInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.ChangePassword(r.Context(), sess.Identity.ID, req); err != nil {
		obs.AuthEvent("password_change", "failure")
		a.handleError(w, r, err)
		return
	}
	obs.AuthEvent("password_change", "success")
	a.audit(r.Context(), "auth.password.change", nil)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

func (a *API) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req passwordResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeValidation(w, r, validation.Field("email", "is required"))
		return
	}
	a.auth.RequestPasswordReset(r.Context(), req.Email)
	writeJSON(w, http.StatusOK, map[string]string{"message": passwordResetMessage})
}

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request, _ auth.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	q := r.URL.Query()
	skip, err := parseNonNegativeInt(q.Get("skip"), "skip", 0)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	limit, err := parseNonNegativeInt(q.Get("limit"), "limit", 0)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	users, err := a.auth.ListUsers(r.Context(), skip, limit)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request, _ auth.Session) {
	id := strings.TrimPrefix(r.URL.Path, "/auth/users/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := a.auth.GetUser(r.Context(), id)
		if err != nil {
			a.handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPatch:
		var req auth.AdminUpdate
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		user, err := a.auth.UpdateUser(r.Context(), id, req)
		if err != nil {
			a.handleError(w, r, err)
			return
		}
		a.audit(r.Context(), "admin.user.update", map[string]any{
			"target_id": user.ID,
			"role":      string(user.Role),
			"is_active": user.IsActive,
		})
		writeJSON(w, http.StatusOK, user)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
	}
}

func changedFields(email, fullName bool) []string {
	out := make([]string, 0, 2)
	if email {
		out = append(out, "email")
	}
	if fullName {
		out = append(out, "full_name")
	}
	return out
}
