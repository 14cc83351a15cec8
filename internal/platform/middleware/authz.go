// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fptsphere/fptsphere/internal/access"
	"github.com/fptsphere/fptsphere/internal/platform/apperr"
	"github.com/fptsphere/fptsphere/internal/platform/ctxutil"
	"github.com/fptsphere/fptsphere/internal/platform/dberr"
	"github.com/fptsphere/fptsphere/internal/platform/respond"
	"github.com/fptsphere/fptsphere/internal/platform/sec"
)

// TokenVerifier verifies a bearer token. Implemented by [sec.TokenService].
type TokenVerifier interface {
	VerifyToken(token string) (*sec.AuthClaims, error)
}

// SessionLoader returns the current snapshot of an account.
//
// Implementations return an [apperr.AppError] with code NOT_FOUND when the
// account no longer exists.
type SessionLoader interface {
	Snapshot(ctx context.Context, userID string) (*access.CurrentUser, error)
}

// AccessRecorder counts access decisions by outcome.
type AccessRecorder interface {
	RecordAccess(outcome string)
}

// # Authentication

/*
Authenticate verifies an "Authorization: Bearer <token>" header and stores the
claims in the context.

Requests without the header pass through as anonymous. A malformed header or
an invalid token is rejected with 401 and a redirect to the login page.
*/
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			header := request.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(writer, request)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				respond.Error(writer, request, unauthorized("Invalid authorization format"))
				return
			}

			claims, err := verifier.VerifyToken(strings.TrimSpace(token))
			if err != nil {
				ctxutil.GetLogger(request.Context()).DebugContext(request.Context(), "token_rejected",
					slog.String("error", err.Error()),
				)
				respond.Error(writer, request, unauthorized("Invalid or expired token"))
				return
			}

			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

/*
LoadSession turns the verified claims into an [access.Session].

The account snapshot from loader wins over the token: a role assigned after
the token was issued takes effect on the next request. If the loader fails
for any reason other than a missing account, the claims' rid/rnm are used.
A missing account yields an anonymous session.
*/
func LoadSession(loader SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := request.Context()
			claims := ctxutil.GetAuthUser(ctx)
			if claims == nil {
				next.ServeHTTP(writer, request.WithContext(ctxutil.WithSession(ctx, access.Anonymous())))
				return
			}

			logger := ctxutil.GetLogger(ctx)
			session := access.SignedIn(claimsSnapshot(claims))

			user, err := loader.Snapshot(ctx, claims.UserID)
			switch {
			case err == nil:
				session = access.SignedIn(*user)
			case dberr.IsNotFound(err):
				logger.WarnContext(ctx, "session_account_missing", slog.String("user_id", claims.UserID))
				session = access.Anonymous()
			default:
				logger.WarnContext(ctx, "session_snapshot_failed",
					slog.String("user_id", claims.UserID),
					slog.String("error", err.Error()),
				)
			}

			if session.User != nil {
				if holder := sessionHolderFrom(ctx); holder != nil {
					holder.userID = claims.UserID
					holder.user = session.User
				}
			}

			next.ServeHTTP(writer, request.WithContext(ctxutil.WithSession(ctx, session)))
		})
	}
}

// # Authorization

// RequireAuth rejects requests whose session is not authenticated.
// Mount it after [LoadSession].
func RequireAuth(next http.Handler) http.Handler {
	return RequireAccess(access.Unrestricted(), nil)(next)
}

/*
RequireAccess gates a route on guard using [access.Decide].

	pending   -> 503 SERVICE_UNAVAILABLE
	login     -> 401 UNAUTHORIZED, redirect /login
	forbidden -> 403 FORBIDDEN, redirect /forbidden
	allow     -> next

recorder may be nil.
*/
func RequireAccess(guard access.Guard, recorder AccessRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := request.Context()
			session := ctxutil.GetSession(ctx)
			outcome, decision := access.Decide(session, guard)

			if recorder != nil {
				recorder.RecordAccess(string(outcome))
			}

			logger := ctxutil.GetLogger(ctx)
			logger.DebugContext(ctx, "access_decided",
				slog.String("outcome", string(outcome)),
				slog.String("guard", guard.Kind().String()),
				slog.String("matched_by", string(decision.MatchedBy)),
			)
			if session.User != nil {
				logRoleMismatch(ctx, logger, *session.User)
			}

			switch outcome {
			case access.OutcomePending:
				respond.Error(writer, request, apperr.ServiceUnavailable("Session is still loading"))
			case access.OutcomeLogin:
				respond.Error(writer, request, unauthorized("Authentication required"))
			case access.OutcomeForbidden:
				respond.Error(writer, request,
					apperr.Forbidden("Insufficient permissions").WithRedirect(outcome.Redirect()))
			default:
				next.ServeHTTP(writer, request)
			}
		})
	}
}

// # Helpers

func unauthorized(msg string) *apperr.AppError {
	return apperr.Unauthorized(msg).WithRedirect(access.LoginPath)
}

// claimsSnapshot builds the fallback user from the token alone.
func claimsSnapshot(claims *sec.AuthClaims) access.CurrentUser {
	return access.CurrentUser{
		RoleID:   claims.RoleID,
		RoleName: claims.RoleName,
		FullName: claims.FullName,
		Email:    claims.Email,
	}
}

// logRoleMismatch reports users whose roleId and roleName disagree. The id
// always wins, but the pair should be consistent.
func logRoleMismatch(ctx context.Context, logger *slog.Logger, user access.CurrentUser) {
	if user.RoleName == "" {
		return
	}
	byID := access.ResolveRoleID(user.RoleID, "")
	byName := access.LookupRoleID(user.RoleName)
	if byID != access.NoRole && byID != byName {
		logger.DebugContext(ctx, "access_role_mismatch",
			slog.String("role_id", byID.String()),
			slog.String("role_name", user.RoleName),
		)
	}
}

// # Request Log Enrichment

type sessionHolderKey struct{}

// sessionHolder lets LoadSession report the resolved user back to
// StructuredLogger, which sits further out in the chain.
type sessionHolder struct {
	userID string
	user   *access.CurrentUser
}

func withSessionHolder(ctx context.Context, holder *sessionHolder) context.Context {
	return context.WithValue(ctx, sessionHolderKey{}, holder)
}

func sessionHolderFrom(ctx context.Context) *sessionHolder {
	holder, _ := ctx.Value(sessionHolderKey{}).(*sessionHolder)
	return holder
}
