// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fptsphere/fptsphere/internal/access"
	"github.com/fptsphere/fptsphere/internal/api"
	"github.com/fptsphere/fptsphere/internal/console"
	"github.com/fptsphere/fptsphere/internal/platform/config"
	"github.com/fptsphere/fptsphere/internal/platform/constants"
	"github.com/fptsphere/fptsphere/internal/platform/metrics"
	"github.com/fptsphere/fptsphere/internal/platform/sec"
	"github.com/fptsphere/fptsphere/internal/users/account"
)

const directorID = "0192a3b4-0000-7000-8000-000000000002"

// directorRepository knows a single Director account.
type directorRepository struct{ account.Repository }

func (directorRepository) FindByID(_ context.Context, id string) (*account.Account, error) {
	role := access.RoleDirector
	return &account.Account{ID: id, Email: "director@fpt.edu.vn", FullName: "Director", RoleID: &role}, nil
}

type harness struct {
	handler http.Handler
	tokens  *sec.TokenService
}

func newHarness(t *testing.T, ready bool) *harness {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tokens := sec.NewTokenServiceFromKeys(key, &key.PublicKey, constants.AuthIssuer)

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()

	accounts := account.NewService(directorRepository{}, account.NewRedisSnapshotCache(client), time.Minute, m, logger)
	catalog, err := console.LoadCatalog()
	require.NoError(t, err)

	health := api.NewHealth(logger).With("redis", func(context.Context) error {
		if !ready {
			return errors.New("connection refused")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := api.NewServer(ctx, api.Dependencies{
		Config:   &config.Config{ServerPort: "0", Environment: "development", RateLimitRPS: 100, RateLimitBurst: 100},
		Logger:   logger,
		Verifier: tokens,
		Sessions: accounts,
		Metrics:  m,
		Health:   health,
		Console:  console.NewHandler(catalog, m),
		Accounts: account.NewHandler(accounts, m),
	})

	return &harness{handler: srv.Handler(), tokens: tokens}
}

func (h *harness) do(t *testing.T, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

/*
TestServer_Probes covers liveness, readiness and the metrics endpoint.
*/
func TestServer_Probes(t *testing.T) {
	h := newHarness(t, true)

	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/ready", "").Code)

	rec := h.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fptsphere_http_requests_total")

	degraded := newHarness(t, false)
	assert.Equal(t, http.StatusServiceUnavailable, degraded.do(t, http.MethodGet, "/ready", "").Code)
}

/*
TestServer_SessionFlow signs a token whose claims are stale and checks that
the account snapshot decides access.
*/
func TestServer_SessionFlow(t *testing.T) {
	h := newHarness(t, true)

	token, err := h.tokens.GenerateAccessToken(sec.AuthClaims{
		UserID:   directorID,
		RoleID:   "5",
		RoleName: access.NameStudent,
	}, time.Minute)
	require.NoError(t, err)

	rec := h.do(t, http.MethodGet, "/api/v1/console/dashboard", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), access.AdminDashboardPath)

	rec = h.do(t, http.MethodGet, "/api/v1/console/access?path=/admin/events", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Data console.AccessView `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, access.OutcomeAllow, view.Data.Outcome)

	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/v1/me", token).Code)

	metricsBody := h.do(t, http.MethodGet, "/metrics", "").Body.String()
	assert.True(t, strings.Contains(metricsBody, `fptsphere_access_decisions_total{outcome="allow"}`))
	assert.True(t, strings.Contains(metricsBody, `fptsphere_session_snapshot_lookups_total{result="hit"}`))
}

func TestServer_Anonymous(t *testing.T) {
	h := newHarness(t, true)

	rec := h.do(t, http.MethodGet, "/api/v1/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redirect":"/login"`)

	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, "/api/v1/me", "garbage").Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/v1/console/access?path=/events", "").Code)
}
