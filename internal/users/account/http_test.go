// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fptsphere/fptsphere/internal/access"
	"github.com/fptsphere/fptsphere/internal/platform/ctxutil"
	"github.com/fptsphere/fptsphere/internal/platform/middleware"
	"github.com/fptsphere/fptsphere/internal/platform/sec"
	"github.com/fptsphere/fptsphere/internal/users/account"
)

// signedInAs runs the real session loader for userID, as the server does.
func signedInAs(f *fixture, userID string, next http.Handler) http.Handler {
	load := middleware.LoadSession(f.service)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID != "" {
			r = r.WithContext(ctxutil.WithAuthUser(r.Context(), &sec.AuthClaims{UserID: userID}))
		}
		load.ServeHTTP(w, r)
	})
}

func call(t *testing.T, f *fixture, userID, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	handler := signedInAs(f, userID, account.NewHandler(f.service, nil).Routes())

	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

/*
TestHandler_Me returns the caller's snapshot and landing page.
*/
func TestHandler_Me(t *testing.T) {
	f := newFixture(t)

	rec := call(t, f, staffID, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, staffID, envelope.Data["id"])
	assert.Equal(t, float64(4), envelope.Data["roleId"])
	assert.Equal(t, access.NameStaff, envelope.Data["roleName"])
	assert.Equal(t, access.StaffDashboardPath, envelope.Data["dashboardPath"])

	assert.Equal(t, http.StatusUnauthorized, call(t, f, "", http.MethodGet, "/me", nil).Code)
}

func TestHandler_Logout(t *testing.T) {
	f := newFixture(t)

	rec := call(t, f, adminID, http.MethodPost, "/me/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, f.redis.Exists("session:snapshot:"+adminID))
}

/*
TestHandler_UsersGuards checks the role gates on the administrative routes.
*/
func TestHandler_UsersGuards(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusOK, call(t, f, adminID, http.MethodGet, "/users", nil).Code)
	assert.Equal(t, http.StatusForbidden, call(t, f, staffID, http.MethodGet, "/users", nil).Code)
	assert.Equal(t, http.StatusForbidden, call(t, f, noRoleID, http.MethodGet, "/users", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, call(t, f, "", http.MethodGet, "/users", nil).Code)

	body := `{"role_id": 3}`
	assert.Equal(t, http.StatusForbidden,
		call(t, f, staffID, http.MethodPut, "/users/"+noRoleID+"/role", strings.NewReader(body)).Code)
}

func TestHandler_ListUsersFilter(t *testing.T) {
	f := newFixture(t)

	rec := call(t, f, adminID, http.MethodGet, "/users?role_ids=1,4&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []account.Account `json:"data"`
		Meta struct {
			Total      int `json:"total"`
			TotalPages int `json:"total_pages"`
		} `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Len(t, envelope.Data, 1)
	assert.Equal(t, 2, envelope.Meta.Total)
	assert.Equal(t, 2, envelope.Meta.TotalPages)

	assert.Equal(t, http.StatusBadRequest, call(t, f, adminID, http.MethodGet, "/users?role_ids=9", nil).Code)
}

/*
TestHandler_AssignRole promotes the newcomer and the change shows on their /me.
*/
func TestHandler_AssignRole(t *testing.T) {
	f := newFixture(t)

	// prime the newcomer's cache with the role-less snapshot
	require.Equal(t, http.StatusOK, call(t, f, noRoleID, http.MethodGet, "/me", nil).Code)

	rec := call(t, f, adminID, http.MethodPut, "/users/"+noRoleID+"/role", strings.NewReader(`{"role_id": 3}`))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, f, noRoleID, http.MethodGet, "/me", nil)
	var envelope struct {
		Data account.MeView `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, access.ManagerDashboardPath, envelope.Data.DashboardPath)

	assert.Equal(t, http.StatusBadRequest,
		call(t, f, adminID, http.MethodPut, "/users/"+noRoleID+"/role", strings.NewReader(`{"role_id": 8}`)).Code)
	assert.Equal(t, http.StatusNotFound,
		call(t, f, adminID, http.MethodPut, "/users/"+missingID+"/role", strings.NewReader(`{"role_id": 2}`)).Code)
}

func TestHandler_ProvisionUser(t *testing.T) {
	f := newFixture(t)

	rec := call(t, f, adminID, http.MethodPost, "/users",
		strings.NewReader(`{"email":"student@fpt.edu.vn","full_name":"Pham D","role_id":5}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = call(t, f, adminID, http.MethodPost, "/users",
		strings.NewReader(`{"email":"student@fpt.edu.vn","full_name":"Again"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, f, adminID, http.MethodPost, "/users", strings.NewReader(`{"email":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
