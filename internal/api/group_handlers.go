package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/cameras"
)

type GroupHandler struct {
	errorResponder
	Service *cameras.GroupService
}

func NewGroupHandler(svc *cameras.GroupService, log *zap.Logger) *GroupHandler {
	return &GroupHandler{errorResponder: newResponder(log), Service: svc}
}

func (h *GroupHandler) Routes() []Route {
	const tag = "group"
	return []Route{
		{Method: http.MethodGet, Pattern: "/api/group/GetAll", Public: true, Tag: tag, Summary: "List groups", Handler: h.GetAll},
		{Method: http.MethodGet, Pattern: "/api/group/Count", Public: true, Tag: tag, Summary: "Group status counts", Handler: h.Count},
		{Method: http.MethodGet, Pattern: "/api/group/{id}", Public: true, Tag: tag, Summary: "Get a group", Handler: h.Get},
		{Method: http.MethodPost, Pattern: "/api/group", Tag: tag, Summary: "Create a group", Body: "GroupInput", Handler: h.Create},
		{Method: http.MethodPut, Pattern: "/api/group", Tag: tag, Summary: "Update group fields", Body: "GroupPatch", Handler: h.Update},
		{Method: http.MethodPut, Pattern: "/api/group/update-status", Tag: tag, Summary: "Enable or disable a group", Body: "StatusUpdate", Handler: h.UpdateStatus},
		{Method: http.MethodDelete, Pattern: "/api/group/{id}", Tag: tag, Summary: "Delete a group and its cameras", Handler: h.Delete},
	}
}

func (h *GroupHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *GroupHandler) Count(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Service.Count(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, counts)
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	g, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in cameras.GroupInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	g, err := h.Service.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p cameras.GroupPatch
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

func (h *GroupHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var su cameras.StatusUpdate
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

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
