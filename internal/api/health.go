// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fptsphere/fptsphere/internal/platform/constants"
	"github.com/fptsphere/fptsphere/internal/platform/respond"
)

// Checker pings one backing service.
type Checker func(ctx context.Context) error

// Health serves the liveness and readiness probes.
type Health struct {
	checks map[string]Checker
	order  []string
	logger *slog.Logger
}

// NewHealth creates the probe handlers. Add dependencies with [Health.With].
func NewHealth(logger *slog.Logger) *Health {
	return &Health{checks: map[string]Checker{}, logger: logger}
}

// With registers a named readiness check. Checks run in registration order.
func (health *Health) With(name string, check Checker) *Health {
	if _, exists := health.checks[name]; !exists {
		health.order = append(health.order, name)
	}
	health.checks[name] = check
	return health
}

type checkResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Liveness handles GET /health. It reports the process is up.
func (health *Health) Liveness(writer http.ResponseWriter, _ *http.Request) {
	respond.OK(writer, map[string]string{constants.FieldStatus: "ok"})
}

// Readiness handles GET /ready. Any failing dependency turns it into a 503.
func (health *Health) Readiness(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	results := make([]checkResult, 0, len(health.order))
	status, code := "ready", http.StatusOK

	for _, name := range health.order {
		result := checkResult{Name: name, OK: true}
		if err := health.checks[name](ctx); err != nil {
			result.OK = false
			result.Error = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			health.logger.ErrorContext(ctx, "readiness_check_failed",
				slog.String("dependency", name),
				slog.Any("error", err),
			)
		}
		results = append(results, result)
	}

	respond.JSON(writer, code, respond.SuccessEnvelope{Data: map[string]any{
		constants.FieldStatus: status,
		constants.FieldChecks: results,
	}})
}
