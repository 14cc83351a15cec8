// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fptsphere/fptsphere/internal/access"
	"github.com/fptsphere/fptsphere/internal/platform/apperr"
	"github.com/fptsphere/fptsphere/internal/platform/dberr"
	"github.com/fptsphere/fptsphere/internal/platform/validate"
	"github.com/fptsphere/fptsphere/pkg/pagination"
	"github.com/fptsphere/fptsphere/pkg/pointer"
	"github.com/fptsphere/fptsphere/pkg/uuid"
)

// Snapshot lookup results reported to a [LookupObserver].
const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupError = "error"
)

// LookupObserver counts snapshot cache lookups.
type LookupObserver interface {
	RecordSnapshotLookup(result string)
}

// # Service Layer

// Service orchestrates accounts, their roles and the cached session snapshot.
type Service struct {
	repository Repository
	cache      SnapshotCache
	ttl        time.Duration
	observer   LookupObserver
	logger     *slog.Logger
}

// NewService constructs a [Service]. observer may be nil.
func NewService(repository Repository, cache SnapshotCache, ttl time.Duration, observer LookupObserver, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		cache:      cache,
		ttl:        ttl,
		observer:   observer,
		logger:     logger,
	}
}

// # Session Snapshot

/*
Snapshot returns the session view of an account.

Flow:
 1. Serve from the cache when present.
 2. Otherwise read the snapshot generation, load the account, and cache its
    snapshot for the configured TTL unless the generation moved meanwhile.

A failing cache degrades to the repository; it never fails the lookup.

Returns:
  - *access.CurrentUser: The snapshot
  - error: apperr.NotFound if the account does not exist
*/
func (service *Service) Snapshot(ctx context.Context, userID string) (*access.CurrentUser, error) {
	if !uuid.Valid(userID) {
		return nil, apperr.NotFound("Account")
	}

	cached, err := service.cache.Get(ctx, userID)
	switch {
	case err == nil:
		service.observe(LookupHit)
		return cached, nil
	case errors.Is(err, ErrSnapshotMiss):
		service.observe(LookupMiss)
	default:
		service.observe(LookupError)
		service.logger.WarnContext(ctx, "snapshot_cache_read_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}

	// Taken before the read: an invalidation landing in between voids the fill.
	gen, genErr := service.cache.Generation(ctx, userID)

	account, err := service.repository.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_snapshot_failed: %w", err)
	}

	snapshot := account.Snapshot()
	if genErr != nil {
		service.logger.WarnContext(ctx, "snapshot_cache_write_failed",
			slog.String("user_id", userID),
			slog.Any("error", genErr),
		)
	} else {
		service.fill(ctx, userID, snapshot, gen)
	}

	return &snapshot, nil
}

// Logout invalidates the cached snapshot so the next request reloads it.
func (service *Service) Logout(ctx context.Context, userID string) error {
	if err := service.cache.Invalidate(ctx, userID); err != nil {
		return fmt.Errorf("account_service_logout_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "session_snapshot_cleared", slog.String("user_id", userID))
	return nil
}

// # Administration

/*
Provision creates an account with an optional initial role.

Returns:
  - *Account: The persisted account
  - error: ValidationError on bad input, Conflict if the email is taken
*/
func (service *Service) Provision(ctx context.Context, input ProvisionInput) (*Account, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)

	validator := &validate.Validator{}
	validator.
		Required("email", input.Email).
		Email("email", input.Email).
		MaxLen("email", input.Email, 254).
		Required("full_name", input.FullName).
		MaxLen("full_name", input.FullName, 100)
	if input.RoleID != nil {
		validator.Role("role_id", *input.RoleID)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	_, err := service.repository.FindByEmail(ctx, input.Email)
	switch {
	case err == nil:
		return nil, apperr.Conflict("Account already exists")
	case !dberr.IsNotFound(err):
		return nil, fmt.Errorf("account_service_provision_failed: %w", err)
	}

	account := &Account{
		ID:       uuid.New(),
		Email:    input.Email,
		FullName: input.FullName,
		RoleID:   input.RoleID,
	}

	if err := service.repository.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("account_service_provision_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "account_provisioned",
		slog.String("account_id", account.ID),
		slog.String("role", pointer.Val(account.RoleID).String()),
	)
	return account, nil
}

/*
AssignRole changes an account's role and invalidates its cached snapshot, so
the new role applies from the next request. A snapshot read concurrently with
the change is not cached.

Returns:
  - *Account: The updated account
  - error: ValidationError for an unknown role or malformed id, NotFound if missing
*/
func (service *Service) AssignRole(ctx context.Context, userID string, roleID access.RoleID) (*Account, error) {
	validator := &validate.Validator{}
	validator.
		UUID("id", userID).
		Custom("role_id", roleID == access.NoRole, "Role is required")
	if roleID != access.NoRole {
		validator.Role("role_id", roleID)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	account, err := service.repository.UpdateRole(ctx, userID, roleID)
	if err != nil {
		return nil, fmt.Errorf("account_service_assign_role_failed: %w", err)
	}

	if err := service.cache.Invalidate(ctx, userID); err != nil {
		// stale for at most one TTL
		service.logger.WarnContext(ctx, "snapshot_cache_evict_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}

	service.logger.InfoContext(ctx, "account_role_assigned",
		slog.String("account_id", userID),
		slog.String("role", roleID.String()),
	)
	return account, nil
}

// List returns one page of accounts matching filter.
func (service *Service) List(ctx context.Context, filter Filter, page pagination.Params) ([]*Account, int, error) {
	validator := &validate.Validator{}
	for _, id := range filter.RoleIDs {
		validator.Role("role_ids", id)
	}
	validator.MaxLen("q", filter.Query, 100)
	if err := validator.Err(); err != nil {
		return nil, 0, err
	}

	accounts, total, err := service.repository.List(ctx, filter, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("account_service_list_failed: %w", err)
	}
	return accounts, total, nil
}

// # Helpers

// fill caches snapshot if gen is still current. Failures only cost a cache miss.
func (service *Service) fill(ctx context.Context, userID string, snapshot access.CurrentUser, gen int64) {
	err := service.cache.Fill(ctx, userID, snapshot, gen, service.ttl)
	switch {
	case err == nil:
	case errors.Is(err, ErrSnapshotStale):
		service.logger.DebugContext(ctx, "snapshot_cache_fill_skipped",
			slog.String("user_id", userID),
			slog.Int64("generation", gen),
		)
	default:
		service.logger.WarnContext(ctx, "snapshot_cache_write_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
}

func (service *Service) observe(result string) {
	if service.observer != nil {
		service.observer.RecordSnapshotLookup(result)
	}
}
