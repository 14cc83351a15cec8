// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/fptsphere/fptsphere/pkg/convert"
)

// # Current User

// CurrentUser is the read-only session snapshot the access rules look at.
//
// RoleID keeps whatever shape the session provider handed over: a Go integer,
// a JSON number (float64 or [json.Number]), a numeral string such as "2", or
// nil. Use [ResolveRoleID] to normalize it.
type CurrentUser struct {
	RoleID   any    `json:"roleId"`
	RoleName string `json:"roleName,omitempty"`
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
}

// ResolvedRoleID normalizes the user's role, preferring RoleID over RoleName.
func (user CurrentUser) ResolvedRoleID() RoleID {
	return ResolveRoleID(user.RoleID, user.RoleName)
}

// # Resolution

// ResolveRoleID turns a heterogeneous role representation into a [RoleID].
//
// # Rules
//  1. A present roleID wins and roleName is ignored.
//  2. Otherwise roleName is looked up in the registry.
//  3. Otherwise the result is [NoRole].
//
// Empty strings, non-numeral strings, zero, NaN, negative and fractional
// numbers all count as an absent roleID.
func ResolveRoleID(roleID any, roleName string) RoleID {
	if id := coerceRoleID(roleID); id != NoRole {
		return id
	}

	if roleName != "" {
		return LookupRoleID(roleName)
	}

	return NoRole
}

// coerceRoleID converts the supported roleID shapes to a positive [RoleID].
func coerceRoleID(raw any) RoleID {
	var n int64

	switch value := raw.(type) {
	case nil:
		return NoRole
	case RoleID:
		n = int64(value)
	case int:
		n = int64(value)
	case int8:
		n = int64(value)
	case int16:
		n = int64(value)
	case int32:
		n = int64(value)
	case int64:
		n = value
	case uint8:
		n = int64(value)
	case uint16:
		n = int64(value)
	case uint32:
		n = int64(value)
	case float32:
		return coerceFloat(float64(value))
	case float64:
		return coerceFloat(value)
	case json.Number:
		return coerceRoleID(value.String())
	case string:
		n = int64(convert.ToInt(strings.TrimSpace(value)))
	case *int:
		if value == nil {
			return NoRole
		}
		n = int64(*value)
	case *string:
		if value == nil {
			return NoRole
		}
		return coerceRoleID(*value)
	default:
		return NoRole
	}

	if n <= 0 || n > math.MaxInt32 {
		return NoRole
	}
	return RoleID(n)
}

// coerceFloat accepts only finite, positive, integral values.
func coerceFloat(value float64) RoleID {
	if math.IsNaN(value) || math.IsInf(value, 0) || value != math.Trunc(value) {
		return NoRole
	}
	if value <= 0 || value > math.MaxInt32 {
		return NoRole
	}
	return RoleID(value)
}
