// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package console serves the role-aware pieces of the management console: the
route guard catalog, shell menus planned per role, and dashboard landing paths.

The catalog is declared in catalog.yaml and embedded in the binary. It is
validated once at startup, so a misspelled role name fails the boot instead of
silently locking every user out of a route.
*/
package console

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fptsphere/fptsphere/internal/access"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// ErrInvalidCatalog wraps every catalog validation failure.
var ErrInvalidCatalog = errors.New("console: invalid catalog")

// # Catalog Types

// Route is one console path and the guard protecting it.
type Route struct {
	Path   string             `yaml:"path"   json:"path"`
	Public bool               `yaml:"public" json:"public"`
	Guard  access.GuardConfig `yaml:"guard"  json:"guard"`
}

// document mirrors the YAML layout.
type document struct {
	Routes []Route                     `yaml:"routes"`
	Shells map[string][]access.NavItem `yaml:"shells"`
}

// Catalog is the validated, read-only route and menu table.
//
// A Catalog is safe for concurrent use.
type Catalog struct {
	routes map[string]Route
	// prefixes holds every route path, longest first.
	prefixes []string
	shells   map[string][]access.NavItem
}

// # Loading

// LoadCatalog parses the embedded catalog.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(embeddedCatalog)
}

/*
ParseCatalog decodes and validates a catalog document.

Rules:
  - every path is absolute and declared at most once
  - guard role names and ids belong to the registry
  - a public route carries no guard
  - every shell item path is absolute and its role ids are registered
*/
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	catalog := &Catalog{
		routes: make(map[string]Route, len(doc.Routes)),
		shells: make(map[string][]access.NavItem, len(doc.Shells)),
	}

	for _, route := range doc.Routes {
		route.Path = normalizePath(route.Path)
		if err := validateRoute(route); err != nil {
			return nil, err
		}
		if _, dup := catalog.routes[route.Path]; dup {
			return nil, fmt.Errorf("%w: duplicate route %q", ErrInvalidCatalog, route.Path)
		}
		catalog.routes[route.Path] = route
		catalog.prefixes = append(catalog.prefixes, route.Path)
	}

	sort.SliceStable(catalog.prefixes, func(i, j int) bool {
		return len(catalog.prefixes[i]) > len(catalog.prefixes[j])
	})

	for name, items := range doc.Shells {
		for _, item := range items {
			if !strings.HasPrefix(item.Path, "/") {
				return nil, fmt.Errorf("%w: shell %s item %q is not absolute", ErrInvalidCatalog, name, item.Path)
			}
			if err := validateIDs(item.AllowedRoleIDs); err != nil {
				return nil, fmt.Errorf("%w: shell %s item %s: %w", ErrInvalidCatalog, name, item.Path, err)
			}
		}
		catalog.shells[name] = slices.Clone(items)
	}

	return catalog, nil
}

func validateRoute(route Route) error {
	if !strings.HasPrefix(route.Path, "/") {
		return fmt.Errorf("%w: route %q is not absolute", ErrInvalidCatalog, route.Path)
	}

	cfg := route.Guard
	if route.Public && !cfg.Guard().IsUnrestricted() {
		return fmt.Errorf("%w: public route %s declares a guard", ErrInvalidCatalog, route.Path)
	}

	ids := slices.Clone(cfg.AllowedRoleIDs)
	if cfg.RequiredRoleID != nil {
		ids = append(ids, *cfg.RequiredRoleID)
	}
	if err := validateIDs(ids); err != nil {
		return fmt.Errorf("%w: route %s: %w", ErrInvalidCatalog, route.Path, err)
	}

	names := slices.Clone(cfg.AllowedRoleNames)
	if cfg.RequiredRoleName != "" {
		names = append(names, cfg.RequiredRoleName)
	}
	for _, name := range names {
		if access.LookupRoleID(name) == access.NoRole {
			return fmt.Errorf("%w: route %s: unknown role name %q", ErrInvalidCatalog, route.Path, name)
		}
	}

	return nil
}

func validateIDs(ids []access.RoleID) error {
	for _, id := range ids {
		if !id.Valid() {
			return fmt.Errorf("unknown role id %d", id)
		}
	}
	return nil
}

// normalizePath trims a trailing slash, keeping "/" itself.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

// # Lookup

/*
Route returns the catalog entry governing path.

An exact match wins. Otherwise the longest declared prefix ending on a
segment boundary applies, so "/admin" covers "/admin/events" but not
"/administrator". The root route "/" only matches itself. Unknown paths
report false.
*/
func (catalog *Catalog) Route(path string) (Route, bool) {
	path = normalizePath(path)

	if route, ok := catalog.routes[path]; ok {
		return route, true
	}

	for _, prefix := range catalog.prefixes {
		if prefix == "/" {
			continue
		}
		if strings.HasPrefix(path, prefix+"/") {
			return catalog.routes[prefix], true
		}
	}

	return Route{}, false
}

// Guard returns the guard for path. Unknown and public paths are unrestricted.
func (catalog *Catalog) Guard(path string) access.Guard {
	route, ok := catalog.Route(path)
	if !ok || route.Public {
		return access.Unrestricted()
	}
	return route.Guard.Guard()
}

// Shell returns a copy of the named shell's menu.
func (catalog *Catalog) Shell(name string) ([]access.NavItem, bool) {
	items, ok := catalog.shells[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(items), true
}

// ShellNames lists the declared shells in lexical order.
func (catalog *Catalog) ShellNames() []string {
	names := make([]string, 0, len(catalog.shells))
	for name := range catalog.shells {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ShellFor maps a role to the shell of its dashboard, or "" for roles that
// land outside the console.
func ShellFor(roleID access.RoleID) string {
	switch access.DashboardPathFor(int(roleID), "") {
	case access.AdminDashboardPath:
		return "admin"
	case access.ManagerDashboardPath:
		return "manager"
	case access.StaffDashboardPath:
		return "staff"
	default:
		return ""
	}
}
