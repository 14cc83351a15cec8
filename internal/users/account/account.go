// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account owns the platform accounts and the session snapshot the access
rules evaluate.

# Architecture

  - Entities: Account (users.account row), Filter.
  - Storage: Postgres repository for accounts, Redis cache for snapshots.
  - Service: snapshot loading, provisioning, role assignment, listing.
  - HTTP: /me for the signed-in user, /users for administrators.

A snapshot is the read-only [access.CurrentUser] handed to route guards. It is
cached with a short TTL and evicted whenever the account's role changes.
*/
package account

import (
	"time"

	"github.com/fptsphere/fptsphere/internal/access"
)

// # Domain Entities

// Account is a platform user. RoleID is nil until an administrator assigns one.
type Account struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	FullName  string         `json:"full_name"`
	RoleID    *access.RoleID `json:"role_id"`
	RoleName  string         `json:"role_name,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Snapshot converts the account into the session view used by route guards.
// An account without a role yields a nil roleId and an empty roleName.
func (account *Account) Snapshot() access.CurrentUser {
	user := access.CurrentUser{
		FullName: account.FullName,
		Email:    account.Email,
	}

	if account.RoleID != nil {
		user.RoleID = int(*account.RoleID)
		user.RoleName, _ = access.RoleName(*account.RoleID)
	}

	return user
}

// hydrateRoleName fills RoleName from the registry.
func (account *Account) hydrateRoleName() {
	account.RoleName = ""
	if account.RoleID != nil {
		account.RoleName, _ = access.RoleName(*account.RoleID)
	}
}

// Filter narrows an account listing.
type Filter struct {
	// RoleIDs keeps accounts holding any of the listed roles. Empty means all.
	RoleIDs []access.RoleID

	// Query matches a case-insensitive substring of the email or full name.
	Query string
}

// ProvisionInput is the payload for creating an account.
type ProvisionInput struct {
	Email    string         `json:"email"`
	FullName string         `json:"full_name"`
	RoleID   *access.RoleID `json:"role_id,omitempty"`
}
