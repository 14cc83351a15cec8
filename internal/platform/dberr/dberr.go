// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr translates Postgres driver errors into [apperr.AppError]
// values the handlers can render directly.
package dberr

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fptsphere/fptsphere/internal/platform/apperr"
)

// SQLSTATE codes the account store cares about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Wrap classifies err for the given resource name.
//
//   - pgx.ErrNoRows        -> 404 "<resource> not found"
//   - unique violation     -> 409
//   - foreign key violation -> 422 (e.g. a role id missing from users.role)
//   - anything else        -> 500, cause kept for logging
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperr.Conflict(resource + " already exists")
		case codeForeignKeyViolation:
			return apperr.Unprocessable(resource + " references a missing record")
		}
	}

	return apperr.Internal(err)
}

// IsNotFound reports whether err is (or wraps) pgx.ErrNoRows or a 404 [apperr.AppError]
// produced by [Wrap].
func IsNotFound(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	ae := apperr.As(err)
	return ae != nil && ae.HTTPStatus == http.StatusNotFound
}
