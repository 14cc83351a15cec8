// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package console

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fptsphere/fptsphere/internal/access"
	"github.com/fptsphere/fptsphere/internal/platform/apperr"
	"github.com/fptsphere/fptsphere/internal/platform/middleware"
	requestutil "github.com/fptsphere/fptsphere/internal/platform/request"
	"github.com/fptsphere/fptsphere/internal/platform/respond"
	"github.com/fptsphere/fptsphere/internal/platform/validate"
)

// # Response Shapes

// NavigationView is the planned menu of one shell for the session user.
type NavigationView struct {
	Shell         string               `json:"shell"`
	DashboardPath string               `json:"dashboard_path"`
	Role          access.Role          `json:"role"`
	Items         []access.PlannedItem `json:"items"`
}

// AccessView is the guard decision for a console path.
type AccessView struct {
	Path         string          `json:"path"`
	Outcome      access.Outcome  `json:"outcome"`
	Redirect     string          `json:"redirect,omitempty"`
	Allowed      bool            `json:"allowed"`
	Public       bool            `json:"public"`
	Unrestricted bool            `json:"unrestricted"`
	AllowSet     []access.RoleID `json:"allow_set"`
	MatchedBy    access.Match    `json:"matched_by,omitempty"`
}

// # Handler Implementation

// Handler exposes the catalog over HTTP.
type Handler struct {
	catalog  *Catalog
	recorder middleware.AccessRecorder
}

// NewHandler constructs a console [Handler]. recorder may be nil.
func NewHandler(catalog *Catalog, recorder middleware.AccessRecorder) *Handler {
	return &Handler{catalog: catalog, recorder: recorder}
}

// Routes returns the console router. It expects [middleware.LoadSession]
// to have run.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// ## Anonymous-safe
	router.Get("/access", handler.checkAccess)

	// ## Signed-in
	router.Group(func(signedIn chi.Router) {
		signedIn.Use(middleware.RequireAuth)
		signedIn.Get("/navigation", handler.navigation)
		signedIn.Get("/dashboard", handler.dashboard)
		signedIn.Get("/roles", handler.roles)
	})

	return router
}

/*
GET /api/v1/console/access.

Description: Evaluates the catalog guard of a console path for the caller.
Anonymous callers get outcome "login" for guarded paths.

Request:
  - path: string (absolute console path)

Response:
  - 200: AccessView
  - 400: ValidationError: path missing, not absolute, or with dot segments
*/
func (handler *Handler) checkAccess(writer http.ResponseWriter, request *http.Request) {
	path := request.URL.Query().Get("path")

	validator := &validate.Validator{}
	validator.Required("path", path).Path("path", path)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	route, _ := handler.catalog.Route(path)
	view := AccessView{Path: path, Public: route.Public}

	if route.Public {
		view.Outcome = access.OutcomeAllow
		view.Allowed = true
		view.Unrestricted = true
		view.MatchedBy = access.MatchUnrestricted
	} else {
		outcome, decision := access.Decide(requestutil.Session(request), handler.catalog.Guard(path))
		view.Outcome = outcome
		view.Redirect = outcome.Redirect()
		view.Allowed = decision.Allowed
		view.Unrestricted = decision.Unrestricted
		view.AllowSet = decision.AllowSet
		view.MatchedBy = decision.MatchedBy
	}

	if handler.recorder != nil {
		handler.recorder.RecordAccess(string(view.Outcome))
	}

	respond.OK(writer, view)
}

/*
GET /api/v1/console/navigation.

Description: Plans a shell menu for the session user's role. Without a
shell parameter the shell of the user's own dashboard is used.

Request:
  - shell: string (admin | manager | staff)

Response:
  - 200: NavigationView
  - 400: ValidationError: unknown shell
  - 404: NotFound: the role has no console shell
*/
func (handler *Handler) navigation(writer http.ResponseWriter, request *http.Request) {
	user := requestutil.Session(request).User
	roleID := user.ResolvedRoleID()

	shell := request.URL.Query().Get("shell")
	if shell == "" {
		shell = ShellFor(roleID)
		if shell == "" {
			respond.Error(writer, request, apperr.NotFound("Console shell"))
			return
		}
	}

	validator := &validate.Validator{}
	if err := validator.OneOf("shell", shell, handler.catalog.ShellNames()...).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	items, _ := handler.catalog.Shell(shell)
	name, _ := access.RoleName(roleID)

	respond.OK(writer, NavigationView{
		Shell:         shell,
		DashboardPath: access.DashboardPathFor(user.RoleID, user.RoleName),
		Role:          access.Role{ID: roleID, Name: name},
		Items:         access.PlanNavigation(roleID, items),
	})
}

/*
GET /api/v1/console/dashboard.

Description: Returns the landing path for the session user's role.

Response:
  - 200: {"path": string}
*/
func (handler *Handler) dashboard(writer http.ResponseWriter, request *http.Request) {
	user := requestutil.Session(request).User
	respond.OK(writer, map[string]string{
		"path": access.DashboardPathFor(user.RoleID, user.RoleName),
	})
}

/*
GET /api/v1/console/roles.

Description: Lists the role registry in id order.

Response:
  - 200: []access.Role
*/
func (handler *Handler) roles(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, access.Roles())
}
