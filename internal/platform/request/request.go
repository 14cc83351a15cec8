// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil extracts typed data from incoming HTTP requests: JSON
bodies, chi URL parameters and the caller identity placed on the context by
the auth middleware.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fptsphere/fptsphere/internal/access"
	"github.com/fptsphere/fptsphere/internal/platform/apperr"
	"github.com/fptsphere/fptsphere/internal/platform/ctxutil"
	"github.com/fptsphere/fptsphere/internal/platform/sec"
	"github.com/fptsphere/fptsphere/internal/platform/validate"
)

// DecodeJSON decodes the body into target. Unknown fields are rejected.
func DecodeJSON(request *http.Request, target any) error {
	decoder := json.NewDecoder(request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

// Param returns a named chi URL parameter.
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
RequiredClaims returns the verified token claims.

Returns:
  - *sec.AuthClaims: the authenticated caller
  - error: apperr.Unauthorized (redirect /login) if the request carries no token
*/
func RequiredClaims(request *http.Request) (*sec.AuthClaims, error) {
	claims := ctxutil.GetAuthUser(request.Context())
	if claims == nil {
		return nil, apperr.Unauthorized("Authentication required").WithRedirect(access.LoginPath)
	}
	return claims, nil
}

// RequiredUserID returns the account id of the authenticated caller.
func RequiredUserID(request *http.Request) (string, error) {
	claims, err := RequiredClaims(request)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// Session returns the resolved session for the request. Requests that never
// passed through LoadSession read as still loading.
func Session(request *http.Request) access.Session {
	return ctxutil.GetSession(request.Context())
}
