// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fptsphere/fptsphere/internal/platform/apperr"
	"github.com/fptsphere/fptsphere/internal/platform/respond"
	"github.com/fptsphere/fptsphere/pkg/pagination"
)

/*
TestError_Envelope checks status codes and the redirect hint of error responses.
*/
func TestError_Envelope(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		redirect string
	}{
		{"forbidden", apperr.Forbidden("Insufficient permissions").WithRedirect("/forbidden"), http.StatusForbidden, "FORBIDDEN", "/forbidden"},
		{"unauthorized", apperr.Unauthorized("Sign in required").WithRedirect("/login"), http.StatusUnauthorized, "UNAUTHORIZED", "/login"},
		{"plain_error", errors.New("pgx: conn closed"), http.StatusInternalServerError, "INTERNAL_ERROR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respond.Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

			var body respond.ErrorEnvelope
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.redirect, body.Redirect)
			assert.NotContains(t, body.Error, "pgx")
		})
	}
}

/*
TestPaginated wraps data and meta in the list envelope.
*/
func TestPaginated(t *testing.T) {
	rec := httptest.NewRecorder()
	respond.Paginated(rec, []string{"a", "b"}, pagination.NewMeta(pagination.Params{Page: 1, Limit: 2}, 5))

	var body struct {
		Data []string        `json:"data"`
		Meta pagination.Meta `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, []string{"a", "b"}, body.Data)
	assert.Equal(t, 3, body.Meta.TotalPages)
}
