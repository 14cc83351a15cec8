// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import "slices"

// # Guard Configuration

// GuardConfig is a route's allow-list as declared in configuration.
//
// At most one field is authoritative. [GuardConfig.Guard] picks it by the
// fixed precedence: AllowedRoleIDs, RequiredRoleID, AllowedRoleNames,
// RequiredRoleName. A config with nothing set is unrestricted.
type GuardConfig struct {
	AllowedRoleIDs   []RoleID `json:"allowed_role_ids,omitempty"   yaml:"allowed_role_ids,omitempty"`
	RequiredRoleID   *RoleID  `json:"required_role_id,omitempty"   yaml:"required_role_id,omitempty"`
	AllowedRoleNames []string `json:"allowed_role_names,omitempty" yaml:"allowed_role_names,omitempty"`
	RequiredRoleName string   `json:"required_role_name,omitempty" yaml:"required_role_name,omitempty"`
}

// Guard collapses the config into its single authoritative [Guard].
func (cfg GuardConfig) Guard() Guard {
	switch {
	case len(cfg.AllowedRoleIDs) > 0:
		return AllowIDs(cfg.AllowedRoleIDs...)
	case cfg.RequiredRoleID != nil && *cfg.RequiredRoleID > NoRole:
		return RequireID(*cfg.RequiredRoleID)
	case len(cfg.AllowedRoleNames) > 0:
		return AllowNames(cfg.AllowedRoleNames...)
	case cfg.RequiredRoleName != "":
		return RequireName(cfg.RequiredRoleName)
	default:
		return Unrestricted()
	}
}

// # Guard Variants

// GuardKind tags which allow-list form a [Guard] holds.
type GuardKind int

const (
	// KindUnrestricted lets every caller through.
	KindUnrestricted GuardKind = iota
	KindAllowIDs
	KindRequireID
	KindAllowNames
	KindRequireName
)

// String implements [fmt.Stringer].
func (kind GuardKind) String() string {
	switch kind {
	case KindAllowIDs:
		return "allow_ids"
	case KindRequireID:
		return "require_id"
	case KindAllowNames:
		return "allow_names"
	case KindRequireName:
		return "require_name"
	default:
		return "unrestricted"
	}
}

// Guard is the normalized allow-list of one route. The zero value is unrestricted.
type Guard struct {
	kind  GuardKind
	ids   []RoleID
	names []string
}

// AllowIDs grants access to any of the listed roles.
// An empty list yields an unrestricted guard.
func AllowIDs(ids ...RoleID) Guard {
	if len(ids) == 0 {
		return Unrestricted()
	}
	return Guard{kind: KindAllowIDs, ids: slices.Clone(ids)}
}

// RequireID grants access to exactly one role.
func RequireID(id RoleID) Guard {
	return Guard{kind: KindRequireID, ids: []RoleID{id}}
}

// AllowNames grants access to any of the named roles.
// Names missing from the registry are dropped at evaluation time.
func AllowNames(names ...string) Guard {
	if len(names) == 0 {
		return Unrestricted()
	}
	return Guard{kind: KindAllowNames, names: slices.Clone(names)}
}

// RequireName grants access to exactly one named role.
func RequireName(name string) Guard {
	return Guard{kind: KindRequireName, names: []string{name}}
}

// Unrestricted grants access to everyone.
func Unrestricted() Guard {
	return Guard{kind: KindUnrestricted}
}

// Kind returns the guard's variant tag.
func (guard Guard) Kind() GuardKind {
	return guard.kind
}

// IsUnrestricted reports whether the guard lets every caller through.
func (guard Guard) IsUnrestricted() bool {
	return guard.kind == KindUnrestricted
}

// AllowSet returns the effective role identifiers the guard admits.
//
// Name-based guards are mapped through the registry; unknown names are
// dropped, so a guard made only of unknown names admits nobody. The result
// is nil for an unrestricted guard.
func (guard Guard) AllowSet() []RoleID {
	switch guard.kind {
	case KindAllowIDs, KindRequireID:
		return slices.Clone(guard.ids)
	case KindAllowNames, KindRequireName:
		set := make([]RoleID, 0, len(guard.names))
		for _, name := range guard.names {
			if id := LookupRoleID(name); id != NoRole {
				set = append(set, id)
			}
		}
		return set
	default:
		return nil
	}
}

// # Evaluation

// Match labels which path of the evaluator granted access.
type Match string

const (
	MatchNone         Match = ""
	MatchUnrestricted Match = "unrestricted"
	MatchRoleID       Match = "role_id"
	MatchRoleName     Match = "role_name"
)

// Decision is the evaluator's verdict together with the data it used.
type Decision struct {
	Allowed      bool     `json:"allowed"`
	Unrestricted bool     `json:"unrestricted"`
	AllowSet     []RoleID `json:"allow_set"`
	MatchedBy    Match    `json:"matched_by,omitempty"`
}

// Evaluate applies guard to user.
//
// # Flow
//  1. An unrestricted guard always allows.
//  2. The user's role is resolved with roleId taking precedence.
//  3. A resolved role inside the allow-set allows.
//  4. Otherwise the user's roleName is mapped and checked as a fallback.
//  5. Otherwise access is denied.
//
// A deny is an ordinary result, never an error. Callers must check that the
// session is authenticated before calling Evaluate.
func Evaluate(user CurrentUser, guard Guard) Decision {
	if guard.IsUnrestricted() {
		return Decision{Allowed: true, Unrestricted: true, MatchedBy: MatchUnrestricted}
	}

	allowSet := guard.AllowSet()
	decision := Decision{AllowSet: allowSet}

	if id := user.ResolvedRoleID(); id != NoRole && slices.Contains(allowSet, id) {
		decision.Allowed = true
		decision.MatchedBy = MatchRoleID
		return decision
	}

	// roleId can be stale or malformed while roleName is still usable
	if user.RoleName != "" {
		if id := LookupRoleID(user.RoleName); id != NoRole && slices.Contains(allowSet, id) {
			decision.Allowed = true
			decision.MatchedBy = MatchRoleName
			return decision
		}
	}

	return decision
}

// HasAccess reports whether guard admits user.
func HasAccess(user CurrentUser, guard Guard) bool {
	return Evaluate(user, guard).Allowed
}
