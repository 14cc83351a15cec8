// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package access decides who may open which FPTSphere console page.

It owns the fixed role registry, normalizes the loosely-typed role data carried
by sessions and tokens, evaluates per-route guards, and plans the navigation
menu of each console shell.

Architecture:

  - Registry: static id <-> name bijection over the five platform roles.
  - Resolver: turns a session's roleId/roleName pair into a single [RoleID].
  - Evaluator: applies a route [Guard] to a [CurrentUser].
  - Planner: annotates console [NavItem]s and picks the landing dashboard.

Everything here is pure computation over values passed in by the caller. The
package never reads ambient session state, never performs I/O, and never
returns an error: malformed input degrades to "no role" or "denied".
*/
package access

// # Role Identity

// RoleID is the canonical numeric identifier of a platform role.
//
// The zero value [NoRole] is the "none" variant: a user whose role could not
// be resolved. It never matches any allow-set.
type RoleID int

const (
	// NoRole marks an absent or unresolvable role.
	NoRole RoleID = 0

	// Full platform administration
	RoleAdmin RoleID = 1

	// Oversees every event and approves plans
	RoleDirector RoleID = 2

	// Runs the events they are assigned to
	RoleEventManager RoleID = 3

	// Executes tasks and check-in on event days
	RoleStaff RoleID = 4

	// Default role for attendees
	RoleStudent RoleID = 5
)

// Role names as they appear in sessions, tokens and route guards.
const (
	NameAdmin        = "Admin"
	NameDirector     = "Director"
	NameEventManager = "Event Manager"
	NameStaff        = "Staff"
	NameStudent      = "Student"
)

// Role pairs an identifier with its display name.
type Role struct {
	ID   RoleID `json:"id"`
	Name string `json:"name"`
}

// # Registry

var (
	roleNames = map[RoleID]string{
		RoleAdmin:        NameAdmin,
		RoleDirector:     NameDirector,
		RoleEventManager: NameEventManager,
		RoleStaff:        NameStaff,
		RoleStudent:      NameStudent,
	}

	roleIDs = map[string]RoleID{
		NameAdmin:        RoleAdmin,
		NameDirector:     RoleDirector,
		NameEventManager: RoleEventManager,
		NameStaff:        RoleStaff,
		NameStudent:      RoleStudent,
	}
)

// RoleName returns the name registered for id.
// It reports false for [NoRole] and any identifier outside the registry.
func RoleName(id RoleID) (string, bool) {
	name, ok := roleNames[id]
	return name, ok
}

// LookupRoleID returns the identifier registered for name, or [NoRole].
//
// Matching is exact: "staff" and "Staff " are not registered names.
func LookupRoleID(name string) RoleID {
	return roleIDs[name]
}

// Roles lists every registered role in ascending id order.
func Roles() []Role {
	roles := make([]Role, 0, len(roleNames))
	for id := RoleAdmin; id <= RoleStudent; id++ {
		roles = append(roles, Role{ID: id, Name: roleNames[id]})
	}
	return roles
}

// Valid reports whether id belongs to the registry.
func (id RoleID) Valid() bool {
	_, ok := roleNames[id]
	return ok
}

// String implements [fmt.Stringer].
func (id RoleID) String() string {
	if name, ok := roleNames[id]; ok {
		return name
	}
	return "none"
}
