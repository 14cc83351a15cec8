// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fptsphere/fptsphere/internal/access"
	"github.com/fptsphere/fptsphere/internal/platform/middleware"
	requestutil "github.com/fptsphere/fptsphere/internal/platform/request"
	"github.com/fptsphere/fptsphere/internal/platform/respond"
	"github.com/fptsphere/fptsphere/pkg/pagination"
	"github.com/fptsphere/fptsphere/pkg/query"
)

// Route guards for the administrative endpoints.
var (
	listGuard   = access.AllowIDs(access.RoleAdmin, access.RoleDirector)
	manageGuard = access.RequireID(access.RoleAdmin)
)

// MeView is the signed-in user's session snapshot and landing page.
type MeView struct {
	ID string `json:"id"`
	access.CurrentUser
	DashboardPath string `json:"dashboardPath"`
}

type assignRoleRequest struct {
	RoleID access.RoleID `json:"role_id"`
}

// # Handler Implementation

// Handler implements the account HTTP endpoints.
type Handler struct {
	service  *Service
	recorder middleware.AccessRecorder
}

// NewHandler constructs an account [Handler]. recorder may be nil.
func NewHandler(service *Service, recorder middleware.AccessRecorder) *Handler {
	return &Handler{service: service, recorder: recorder}
}

// Routes returns the account router, mounted at /api/v1.
// It expects [middleware.LoadSession] to have run.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// ## Self-service
	router.Group(func(self chi.Router) {
		self.Use(middleware.RequireAuth)
		self.Get("/me", handler.me)
		self.Post("/me/logout", handler.logout)
	})

	// ## Administration
	router.With(middleware.RequireAccess(listGuard, handler.recorder)).Get("/users", handler.listUsers)
	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAccess(manageGuard, handler.recorder))
		admin.Post("/users", handler.provisionUser)
		admin.Put("/users/{id}/role", handler.assignRole)
	})

	return router
}

// # Self-service Endpoints

/*
GET /api/v1/me.

Description: Returns the session snapshot of the caller and the dashboard
path of their role.

Response:
  - 200: MeView
  - 401: Unauthorized
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user := *requestutil.Session(request).User
	respond.OK(writer, MeView{
		ID:            userID,
		CurrentUser:   user,
		DashboardPath: access.DashboardPathFor(user.RoleID, user.RoleName),
	})
}

/*
POST /api/v1/me/logout.

Description: Clears the cached session snapshot of the caller.

Response:
  - 204: No Content
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Logout(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Administration Endpoints

/*
GET /api/v1/users.

Description: Lists accounts. Admin and Director only.

Request:
  - role_ids: comma-separated role ids, e.g. "3,4"
  - q: string (email or name substring)
  - page, limit: int

Response:
  - 200: []Account (paginated)
  - 400: ValidationError: unknown role id
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	page := pagination.FromRequest(request)
	params := request.URL.Query()

	filter := Filter{Query: params.Get("q")}
	for _, id := range query.IntSlice(params.Get("role_ids")) {
		filter.RoleIDs = append(filter.RoleIDs, access.RoleID(id))
	}

	accounts, total, err := handler.service.List(request.Context(), filter, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, accounts, pagination.NewMeta(page, total))
}

/*
POST /api/v1/users.

Description: Provisions an account. Admin only.

Request (Body):
  - email: string
  - full_name: string
  - role_id: int (optional)

Response:
  - 201: Account
  - 400: ValidationError
  - 409: Conflict: email already registered
*/
func (handler *Handler) provisionUser(writer http.ResponseWriter, request *http.Request) {
	var input ProvisionInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.service.Provision(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, account)
}

/*
PUT /api/v1/users/{id}/role.

Description: Assigns a role to an account. Admin only. The account's cached
session snapshot is evicted.

Request (Body):
  - role_id: int (1-5)

Response:
  - 200: Account
  - 400: ValidationError
  - 404: NotFound
*/
func (handler *Handler) assignRole(writer http.ResponseWriter, request *http.Request) {
	var body assignRoleRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.service.AssignRole(request.Context(), requestutil.Param(request, "id"), body.RoleID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, account)
}
