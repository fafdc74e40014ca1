// Command smoke runs the register, login, me, refresh and wrong-password
// scenario against a running API.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

func main() {
	var (
		addr    = flag.String("addr", envOr("JOBTRACK_SMOKE_ADDR", "http://localhost:8080"), "API base URL")
		timeout = flag.Duration("timeout", 15*time.Second, "Overall timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	email, err := run(ctx, &http.Client{Timeout: 5 * time.Second}, strings.TrimRight(*addr, "/"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "smoke test failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("smoke test passed: user=%s\n", email)
}

type tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type smokeClient struct {
	ctx  context.Context
	http *http.Client
	base string
}

func run(ctx context.Context, hc *http.Client, base string) (string, error) {
	c := &smokeClient{ctx: ctx, http: hc, base: base}
	email := "smoke-" + uuid.NewString()[:8] + "@example.com"
	password := "smoke-" + uuid.NewString()[:12]

	if err := c.expect(http.MethodGet, "/healthz", nil, "", "", http.StatusOK, nil); err != nil {
		return "", err
	}

	var user struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	register := map[string]string{
		"email":            email,
		"full_name":        "Smoke Test",
		"password":         password,
		"password_confirm": password,
	}
	if err := c.expectJSON(http.MethodPost, "/auth/register", register, "", http.StatusCreated, &user); err != nil {
		return "", err
	}

	var tok tokens
	form := url.Values{"username": {email}, "password": {password}}
	if err := c.expect(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", "", http.StatusOK, &tok); err != nil {
		return "", err
	}
	if tok.TokenType != "bearer" || tok.AccessToken == "" || tok.RefreshToken == "" {
		return "", fmt.Errorf("login: unexpected token response %+v", tok)
	}

	var me struct {
		ID string `json:"id"`
	}
	if err := c.expect(http.MethodGet, "/auth/me", nil, "", tok.AccessToken, http.StatusOK, &me); err != nil {
		return "", err
	}
	if me.ID != user.ID {
		return "", fmt.Errorf("me: got identity %q, want %q", me.ID, user.ID)
	}

	var rotated tokens
	if err := c.expectJSON(http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": tok.RefreshToken}, "", http.StatusOK, &rotated); err != nil {
		return "", err
	}
	if rotated.AccessToken == "" {
		return "", fmt.Errorf("refresh: empty access token")
	}

	bad := url.Values{"username": {email}, "password": {password + "-wrong"}}
	if err := c.expect(http.MethodPost, "/auth/login", strings.NewReader(bad.Encode()), "application/x-www-form-urlencoded", "", http.StatusUnauthorized, nil); err != nil {
		return "", err
	}
	return email, nil
}

func (c *smokeClient) expectJSON(method, path string, body any, token string, want int, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.expect(method, path, bytes.NewReader(payload), "application/json", token, want, out)
}

func (c *smokeClient) expect(method, path string, body io.Reader, contentType, token string, want int, out any) error {
	req, err := http.NewRequestWithContext(c.ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: expected %d, got %d: %s", method, path, want, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
