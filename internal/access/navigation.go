// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import "slices"

// # Landing Paths

const (
	HomePath             = "/"
	LoginPath            = "/login"
	ForbiddenPath        = "/forbidden"
	AdminDashboardPath   = "/admin/dashboard"
	ManagerDashboardPath = "/manager/dashboard"
	StaffDashboardPath   = "/staff/dashboard"
)

// UnauthorizedTooltip is shown on menu entries the role may not open.
const UnauthorizedTooltip = "Unauthorized"

// DashboardPathFor returns the console landing page of a role.
//
// Admin and Director share the admin console. Students and unresolvable
// roles land on the public home page.
func DashboardPathFor(roleID any, roleName string) string {
	switch ResolveRoleID(roleID, roleName) {
	case RoleAdmin, RoleDirector:
		return AdminDashboardPath
	case RoleEventManager:
		return ManagerDashboardPath
	case RoleStaff:
		return StaffDashboardPath
	default:
		return HomePath
	}
}

// # Navigation Planning

// NavItem is one entry of a console shell's menu.
//
// Disabled is a configuration-time flag for features that are not available
// yet. It is independent of access.
type NavItem struct {
	Path           string   `json:"path"             yaml:"path"`
	Label          string   `json:"label"            yaml:"label"`
	Icon           string   `json:"icon,omitempty"   yaml:"icon,omitempty"`
	AllowedRoleIDs []RoleID `json:"allowed_role_ids" yaml:"allowed_role_ids"`
	Disabled       bool     `json:"disabled"         yaml:"disabled,omitempty"`
}

// PlannedItem is a [NavItem] annotated for one role.
type PlannedItem struct {
	NavItem
	HasAccess   bool   `json:"has_access"`
	Interactive bool   `json:"interactive"`
	Tooltip     string `json:"tooltip,omitempty"`
}

// PlanNavigation annotates items for roleID, keeping their order.
//
// Access uses the id-list form only: an empty AllowedRoleIDs is open to every
// role, including [NoRole]. An item is interactive when it is both accessible
// and enabled. Non-interactive items carry a tooltip telling "unauthorized"
// apart from "not available yet" (the item's own label).
func PlanNavigation(roleID RoleID, items []NavItem) []PlannedItem {
	planned := make([]PlannedItem, 0, len(items))

	for _, item := range items {
		hasAccess := len(item.AllowedRoleIDs) == 0 ||
			(roleID != NoRole && slices.Contains(item.AllowedRoleIDs, roleID))

		entry := PlannedItem{
			NavItem:     item,
			HasAccess:   hasAccess,
			Interactive: hasAccess && !item.Disabled,
		}

		switch {
		case !hasAccess:
			entry.Tooltip = UnauthorizedTooltip
		case item.Disabled:
			entry.Tooltip = item.Label
		}

		planned = append(planned, entry)
	}

	return planned
}
