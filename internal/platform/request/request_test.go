// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package requestutil_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fptsphere/fptsphere/internal/access"
	"github.com/fptsphere/fptsphere/internal/platform/apperr"
	"github.com/fptsphere/fptsphere/internal/platform/ctxutil"
	requestutil "github.com/fptsphere/fptsphere/internal/platform/request"
	"github.com/fptsphere/fptsphere/internal/platform/sec"
)

func TestDecodeJSON(t *testing.T) {
	var body struct {
		RoleID int `json:"role_id"`
	}

	r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"role_id":3}`))
	require.NoError(t, requestutil.DecodeJSON(r, &body))
	assert.Equal(t, 3, body.RoleID)

	r = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"role":3}`))
	assert.Error(t, requestutil.DecodeJSON(r, &body))

	r = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{`))
	assert.Error(t, requestutil.DecodeJSON(r, &body))
}

/*
TestRequiredClaims checks the 401 path carries the login redirect.
*/
func TestRequiredClaims(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := requestutil.RequiredUserID(r)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, http.StatusUnauthorized, ae.HTTPStatus)
	assert.Equal(t, access.LoginPath, ae.Redirect)

	ctx := ctxutil.WithAuthUser(r.Context(), &sec.AuthClaims{UserID: "u-1"})
	id, err := requestutil.RequiredUserID(r.WithContext(ctx))
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)
}

func TestSession(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, requestutil.Session(r).Loading)

	ctx := ctxutil.WithSession(r.Context(), access.Anonymous())
	assert.False(t, requestutil.Session(r.WithContext(ctx)).Loading)
}
