package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/profiles"
	"github.com/technosupport/vms-inventory/internal/users"
)

// Profiles and roles are named lookup rows with identical endpoints.

type ProfileHandler struct {
	errorResponder
	Service *profiles.Service
}

func NewProfileHandler(svc *profiles.Service, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{errorResponder: newResponder(log), Service: svc}
}

func (h *ProfileHandler) Routes() []Route {
	const tag = "profile"
	return []Route{
		{Method: http.MethodGet, Pattern: "/api/profile/GetAll", Public: true, Tag: tag, Summary: "List profiles", Handler: h.GetAll},
		{Method: http.MethodGet, Pattern: "/api/profile/{id}", Public: true, Tag: tag, Summary: "Get a profile", Handler: h.Get},
		{Method: http.MethodPost, Pattern: "/api/profile", Tag: tag, Summary: "Create a profile", Body: "ProfileInput", Handler: h.Create},
		{Method: http.MethodPut, Pattern: "/api/profile", Tag: tag, Summary: "Update a profile", Body: "ProfileInput", Handler: h.Update},
		{Method: http.MethodDelete, Pattern: "/api/profile/{id}", Tag: tag, Summary: "Delete a profile", Handler: h.Delete},
	}
}

func (h *ProfileHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	p, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in profiles.Input
	if err := decodeJSON(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	p, err := h.Service.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in profiles.Input
	if err := decodeJSON(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Service.Update(r.Context(), in); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondNoContent(w)
}

func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

type RoleHandler struct {
	errorResponder
	Service *users.RoleService
}

func NewRoleHandler(svc *users.RoleService, log *zap.Logger) *RoleHandler {
	return &RoleHandler{errorResponder: newResponder(log), Service: svc}
}

func (h *RoleHandler) Routes() []Route {
	const tag = "role"
	return []Route{
		{Method: http.MethodGet, Pattern: "/api/role/GetAll", Public: true, Tag: tag, Summary: "List roles", Handler: h.GetAll},
		{Method: http.MethodGet, Pattern: "/api/role/{id}", Public: true, Tag: tag, Summary: "Get a role", Handler: h.Get},
		{Method: http.MethodPost, Pattern: "/api/role", Tag: tag, Summary: "Create a role", Body: "RoleInput", Handler: h.Create},
		{Method: http.MethodPut, Pattern: "/api/role", Tag: tag, Summary: "Update a role", Body: "RoleInput", Handler: h.Update},
		{Method: http.MethodDelete, Pattern: "/api/role/{id}", Tag: tag, Summary: "Delete a role", Handler: h.Delete},
	}
}

func (h *RoleHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	role, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, role)
}

func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in users.RoleInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	role, err := h.Service.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, role)
}

func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in users.RoleInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Service.Update(r.Context(), in); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondNoContent(w)
}

func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
