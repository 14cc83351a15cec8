// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package middleware holds the HTTP decorators mounted by the API server.

Chain order (outermost first):

  - RequestID, StructuredLogger: correlation id and per-request logger.
  - RateLimit, PanicRecovery, CORS: transport safety.
  - Authenticate, LoadSession: bearer token to [access.Session].
  - RequireAuth, RequireAccess: per-route gates built on access.Decide.
*/
package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fptsphere/fptsphere/internal/platform/apperr"
	"github.com/fptsphere/fptsphere/internal/platform/constants"
	"github.com/fptsphere/fptsphere/internal/platform/ctxutil"
	"github.com/fptsphere/fptsphere/internal/platform/respond"
)

// # Request Tracing

// RequestID reuses the caller's X-Request-ID or mints a UUIDv7 one.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			id := request.Header.Get(constants.HeaderXRequestID)
			if id == "" {
				if v7, err := uuid.NewV7(); err == nil {
					id = v7.String()
				} else {
					id = uuid.NewString()
				}
			}

			writer.Header().Set(constants.HeaderXRequestID, id)
			ctx := ctxutil.WithRequestID(request.Context(), id)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Activity Logging

// StatusRecorder captures the status code written by downstream handlers.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

// WriteHeader records code before delegating.
func (recorder *StatusRecorder) WriteHeader(code int) {
	recorder.Status = code
	recorder.ResponseWriter.WriteHeader(code)
}

// StructuredLogger stores a request-scoped logger in the context and emits
// one "http_request_finished" line per request.
//
// The session is read after the handler returns, so the line carries the
// resolved role of authenticated callers.
func StructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			start := time.Now()

			requestLogger := logger.With(
				slog.String("request_id", ctxutil.GetRequestID(request.Context())),
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
				slog.String("ip", RealIP(request)),
			)

			holder := &sessionHolder{}
			ctx := ctxutil.WithLogger(request.Context(), requestLogger)
			ctx = withSessionHolder(ctx, holder)

			recorder := &StatusRecorder{ResponseWriter: writer, Status: http.StatusOK}
			next.ServeHTTP(recorder, request.WithContext(ctx))

			level := slog.LevelInfo
			switch {
			case recorder.Status >= 500:
				level = slog.LevelError
			case recorder.Status >= 400:
				level = slog.LevelWarn
			}

			attrs := []any{
				slog.Int("status", recorder.Status),
				slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			}
			if holder.user != nil {
				attrs = append(attrs,
					slog.String("user_id", holder.userID),
					slog.String("role", holder.user.ResolvedRoleID().String()),
				)
			}

			requestLogger.Log(ctx, level, "http_request_finished", attrs...)
		})
	}
}

// # Reliability

// PanicRecovery turns a handler panic into a 500 response and an error log
// with the stack trace.
func PanicRecovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "panic_recovered",
					slog.Any("error", recovered),
					slog.String("stack", string(debug.Stack())),
				)
				respond.Error(writer, request, apperr.Internal(fmt.Errorf("panic: %v", recovered)))
			}()

			next.ServeHTTP(writer, request)
		})
	}
}

// # Helpers

// RealIP returns the client address, preferring X-Real-IP, then the first
// X-Forwarded-For hop, then the socket peer.
func RealIP(request *http.Request) string {
	if ip := request.Header.Get(constants.HeaderXRealIP); ip != "" {
		return ip
	}

	if forwarded := request.Header.Get(constants.HeaderXForwardedFor); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}
