// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fptsphere/fptsphere/internal/access"
	"github.com/fptsphere/fptsphere/internal/platform/apperr"
	"github.com/fptsphere/fptsphere/internal/platform/ctxutil"
	"github.com/fptsphere/fptsphere/internal/platform/middleware"
	"github.com/fptsphere/fptsphere/internal/platform/respond"
	"github.com/fptsphere/fptsphere/internal/platform/sec"
)

// # Fakes

type stubVerifier struct {
	claims *sec.AuthClaims
	err    error
}

func (v stubVerifier) VerifyToken(string) (*sec.AuthClaims, error) { return v.claims, v.err }

type stubLoader struct {
	user *access.CurrentUser
	err  error
}

func (l stubLoader) Snapshot(context.Context, string) (*access.CurrentUser, error) {
	return l.user, l.err
}

type countingRecorder map[string]int

func (r countingRecorder) RecordAccess(outcome string) { r[outcome]++ }

// captureSession is a terminal handler that stores the session it saw.
func captureSession(into *access.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*into = ctxutil.GetSession(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) respond.ErrorEnvelope {
	t.Helper()
	var envelope respond.ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope
}

/*
TestAuthenticate covers the bearer header parsing.
*/
func TestAuthenticate(t *testing.T) {
	claims := &sec.AuthClaims{UserID: "u-1"}
	tests := []struct {
		name     string
		header   string
		verifier stubVerifier
		status   int
	}{
		{"anonymous", "", stubVerifier{}, http.StatusNoContent},
		{"valid", "Bearer abc", stubVerifier{claims: claims}, http.StatusNoContent},
		{"lowercase_scheme", "bearer abc", stubVerifier{claims: claims}, http.StatusNoContent},
		{"wrong_scheme", "Basic abc", stubVerifier{claims: claims}, http.StatusUnauthorized},
		{"missing_token", "Bearer ", stubVerifier{claims: claims}, http.StatusUnauthorized},
		{"invalid_token", "Bearer abc", stubVerifier{err: errors.New("expired")}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *sec.AuthClaims
			handler := middleware.Authenticate(tt.verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = ctxutil.GetAuthUser(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, access.LoginPath, decodeError(t, rec).Redirect)
			}
			if tt.name == "valid" {
				assert.Same(t, claims, seen)
			}
		})
	}
}

/*
TestLoadSession checks snapshot precedence and the fallbacks.
*/
func TestLoadSession(t *testing.T) {
	claims := &sec.AuthClaims{UserID: "u-1", RoleID: "4", RoleName: access.NameStaff, Email: "staff@fpt.edu.vn"}
	fresh := &access.CurrentUser{RoleID: 1, RoleName: access.NameAdmin}

	tests := []struct {
		name   string
		claims *sec.AuthClaims
		loader stubLoader
		authed bool
		role   access.RoleID
	}{
		{"anonymous", nil, stubLoader{}, false, access.NoRole},
		{"snapshot_wins", claims, stubLoader{user: fresh}, true, access.RoleAdmin},
		{"loader_down_uses_claims", claims, stubLoader{err: errors.New("redis down")}, true, access.RoleStaff},
		{"account_deleted", claims, stubLoader{err: apperr.NotFound("Account")}, false, access.NoRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var session access.Session
			handler := middleware.LoadSession(tt.loader)(captureSession(&session))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.claims != nil {
				req = req.WithContext(ctxutil.WithAuthUser(req.Context(), tt.claims))
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.False(t, session.Loading)
			assert.Equal(t, tt.authed, session.Authenticated)
			if tt.authed {
				require.NotNil(t, session.User)
				assert.Equal(t, tt.role, session.User.ResolvedRoleID())
			} else {
				assert.Nil(t, session.User)
			}
		})
	}
}

/*
TestRequireAccess maps every gating outcome onto its HTTP response.
*/
func TestRequireAccess(t *testing.T) {
	guard := access.AllowIDs(access.RoleAdmin, access.RoleDirector)
	director := access.SignedIn(access.CurrentUser{RoleID: 2})
	student := access.SignedIn(access.CurrentUser{RoleName: access.NameStudent})

	tests := []struct {
		name     string
		session  *access.Session
		status   int
		code     string
		redirect string
		outcome  access.Outcome
	}{
		{"no_session_is_pending", nil, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "", access.OutcomePending},
		{"anonymous", &access.Session{}, http.StatusUnauthorized, "UNAUTHORIZED", access.LoginPath, access.OutcomeLogin},
		{"forbidden", &student, http.StatusForbidden, "FORBIDDEN", access.ForbiddenPath, access.OutcomeForbidden},
		{"allowed", &director, http.StatusOK, "", "", access.OutcomeAllow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := countingRecorder{}
			handler := middleware.RequireAccess(guard, recorder)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
			if tt.session != nil {
				req = req.WithContext(ctxutil.WithSession(req.Context(), *tt.session))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, 1, recorder[string(tt.outcome)])
			if tt.code != "" {
				envelope := decodeError(t, rec)
				assert.Equal(t, tt.code, envelope.Code)
				assert.Equal(t, tt.redirect, envelope.Redirect)
			}
		})
	}
}

/*
TestRequireAuth lets any signed-in role through, including users without a role.
*/
func TestRequireAuth(t *testing.T) {
	handler := middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	signedIn := httptest.NewRequest(http.MethodGet, "/", nil)
	signedIn = signedIn.WithContext(ctxutil.WithSession(signedIn.Context(), access.SignedIn(access.CurrentUser{})))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedIn)
	assert.Equal(t, http.StatusOK, rec.Code)

	anonymous := httptest.NewRequest(http.MethodGet, "/", nil)
	anonymous = anonymous.WithContext(ctxutil.WithSession(anonymous.Context(), access.Anonymous()))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, anonymous)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
