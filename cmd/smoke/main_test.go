package main

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"jobtrack.dev/internal/auth"
	"jobtrack.dev/internal/httpapi"
	"jobtrack.dev/internal/jobs"
)

func TestRunAgainstInProcessServer(t *testing.T) {
	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		Secret:     "smoke-secret",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	require.NoError(t, err)
	store := auth.NewMemoryStore()
	svc := auth.NewService(store, auth.NewHasher(bcrypt.MinCost), tokens)

	api := httpapi.New(httpapi.Deps{
		Auth:  svc,
		Guard: auth.NewGuard(tokens, store, svc.Revoker(), nil),
		Jobs:  jobs.NewService(jobs.NewInMemory()),
	})
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	email, err := run(t.Context(), srv.Client(), srv.URL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(email, "smoke-"))
}

func TestRunReportsUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()

	_, err := run(t.Context(), srv.Client(), url)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/healthz")
}
