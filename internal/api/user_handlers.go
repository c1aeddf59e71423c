package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/users"
)

type UserHandler struct {
	errorResponder
	Service     *users.Service
	Permissions *users.PermissionService
}

func NewUserHandler(svc *users.Service, perms *users.PermissionService, log *zap.Logger) *UserHandler {
	return &UserHandler{errorResponder: newResponder(log), Service: svc, Permissions: perms}
}

func (h *UserHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/api/user/GetAll", Tag: "user", Summary: "List users with their role", Handler: h.GetAll},
		{Method: http.MethodGet, Pattern: "/api/user/Pagination", Tag: "user", Summary: "Page through users", Query: []string{"pageNumber", "pageSize"}, Handler: h.Pagination},
		{Method: http.MethodGet, Pattern: "/api/user/{id}", Tag: "user", Summary: "Get a user", Handler: h.Get},
		{Method: http.MethodPost, Pattern: "/api/user", Tag: "user", Summary: "Create a user", Body: "UserInput", Handler: h.Create},
		{Method: http.MethodPut, Pattern: "/api/user", Tag: "user", Summary: "Update user fields", Body: "UserPatch", Handler: h.Update},
		{Method: http.MethodPut, Pattern: "/api/user/update-status", Tag: "user", Summary: "Enable or disable a user", Body: "StatusUpdate", Handler: h.UpdateStatus},
		{Method: http.MethodDelete, Pattern: "/api/user/{id}", Tag: "user", Summary: "Delete a user", Handler: h.Delete},

		{Method: http.MethodGet, Pattern: "/api/permission/user/{userId}", Tag: "permission", Summary: "Cameras granted to a user", Handler: h.ListPermissions},
		{Method: http.MethodPost, Pattern: "/api/permission", Tag: "permission", Summary: "Grant a camera to a user", Body: "GrantInput", Handler: h.Grant},
		{Method: http.MethodDelete, Pattern: "/api/permission/{id}", Tag: "permission", Summary: "Revoke a camera grant", Handler: h.Revoke},
	}
}

// GET /api/user/GetAll
func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// GET /api/user/Pagination
func (h *UserHandler) Pagination(w http.ResponseWriter, r *http.Request) {
	number, size, err := pageQuery(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	page, err := h.Service.Paginate(r.Context(), number, size)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// GET /api/user/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	u, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// POST /api/user
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in users.Input
	if err := decodeJSON(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	u, err := h.Service.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// PUT /api/user
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p users.Patch
	if err := decodeJSON(w, r, &p); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Service.Update(r.Context(), p); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondNoContent(w)
}

// PUT /api/user/update-status
func (h *UserHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var su users.StatusUpdate
	if err := decodeJSON(w, r, &su); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Service.UpdateStatus(r.Context(), su); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondNoContent(w)
}

// DELETE /api/user/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondNoContent(w)
}

// GET /api/permission/user/{userId}
func (h *UserHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	list, err := h.Permissions.ListForUser(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// POST /api/permission
func (h *UserHandler) Grant(w http.ResponseWriter, r *http.Request) {
	var in users.GrantInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	p, err := h.Permissions.Grant(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// DELETE /api/permission/{id}
func (h *UserHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Permissions.Revoke(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondNoContent(w)
}
