// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"time"

	"github.com/fptsphere/fptsphere/internal/access"
)

var (
	// ErrSnapshotMiss is returned by [SnapshotCache.Get] when nothing is cached.
	ErrSnapshotMiss = errors.New("account: snapshot not cached")

	// ErrSnapshotStale is returned by [SnapshotCache.Fill] when the account was
	// invalidated after the snapshot was read.
	ErrSnapshotStale = errors.New("account: snapshot generation changed")
)

// # Repository Contracts

// Repository defines the persistence contract for accounts.
type Repository interface {
	/*
		FindByID retrieves a live account.

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound if missing or soft-deleted
	*/
	FindByID(ctx context.Context, id string) (*Account, error)

	/*
		FindByEmail retrieves a live account by case-insensitive email.

		Returns:
		  - error: apperr.NotFound if no live account uses the address
	*/
	FindByEmail(ctx context.Context, email string) (*Account, error)

	/*
		List returns one page of accounts matching filter and the total count.

		Results are ordered by creation time, newest first.
	*/
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Account, int, error)

	/*
		Create persists a new account. CreatedAt and UpdatedAt are set from the database.

		Returns:
		  - error: apperr.Conflict if the email is taken
	*/
	Create(ctx context.Context, account *Account) error

	/*
		UpdateRole sets the role of an account and returns the updated row.

		Returns:
		  - *Account: The account after the change
		  - error: apperr.NotFound if missing; apperr.Unprocessable if the role is not seeded
	*/
	UpdateRole(ctx context.Context, id string, roleID access.RoleID) (*Account, error)
}

/*
SnapshotCache stores session snapshots keyed by account id.

Every account has a generation counter. A reader takes the generation before
loading the account and fills the cache only if it has not moved, so a fill
racing an [SnapshotCache.Invalidate] is dropped instead of resurrecting the
old role.
*/
type SnapshotCache interface {
	// Get returns ErrSnapshotMiss when no snapshot is cached.
	Get(ctx context.Context, userID string) (*access.CurrentUser, error)

	// Generation returns the current generation; 0 if never invalidated.
	Generation(ctx context.Context, userID string) (int64, error)

	// Fill caches user for ttl if the generation still equals gen.
	// It returns ErrSnapshotStale otherwise.
	Fill(ctx context.Context, userID string, user access.CurrentUser, gen int64, ttl time.Duration) error

	// Invalidate bumps the generation and evicts the snapshot.
	Invalidate(ctx context.Context, userID string) error
}
