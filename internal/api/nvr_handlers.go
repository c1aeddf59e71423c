package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/nvr"
)

type NVRHandler struct {
	errorResponder
	Service *nvr.Service
}

func NewNVRHandler(svc *nvr.Service, log *zap.Logger) *NVRHandler {
	return &NVRHandler{errorResponder: newResponder(log), Service: svc}
}

func (h *NVRHandler) Routes() []Route {
	const tag = "nvr"
	return []Route{
		{Method: http.MethodGet, Pattern: "/api/nvr/GetAll", Public: true, Tag: tag, Summary: "List NVRs", Handler: h.GetAll},
		{Method: http.MethodGet, Pattern: "/api/nvr/Count", Public: true, Tag: tag, Summary: "NVR status counts", Handler: h.Count},
		{Method: http.MethodGet, Pattern: "/api/nvr/Pagination", Public: true, Tag: tag, Summary: "Page through NVRs", Query: []string{"pageNumber", "pageSize"}, Handler: h.Pagination},
		{Method: http.MethodGet, Pattern: "/api/nvr/{id}", Public: true, Tag: tag, Summary: "Get an NVR", Handler: h.Get},
		{Method: http.MethodGet, Pattern: "/api/nvr/{id}/credentials", Tag: tag, Summary: "Decrypted NVR login", Handler: h.Credentials},
		{Method: http.MethodPost, Pattern: "/api/nvr", Tag: tag, Summary: "Create an NVR", Body: "NVRInput", Handler: h.Create},
		{Method: http.MethodPut, Pattern: "/api/nvr", Tag: tag, Summary: "Update NVR fields", Body: "NVRPatch", Handler: h.Update},
		{Method: http.MethodPut, Pattern: "/api/nvr/update-status", Tag: tag, Summary: "Enable or disable an NVR", Body: "StatusUpdate", Handler: h.UpdateStatus},
		{Method: http.MethodDelete, Pattern: "/api/nvr/{id}", Tag: tag, Summary: "Delete an NVR and its cameras", Handler: h.Delete},
	}
}

// GET /api/nvr/GetAll
func (h *NVRHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// GET /api/nvr/Count
func (h *NVRHandler) Count(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Service.Count(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, counts)
}

// GET /api/nvr/Pagination
func (h *NVRHandler) Pagination(w http.ResponseWriter, r *http.Request) {
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

// GET /api/nvr/{id}
func (h *NVRHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	n, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

// GET /api/nvr/{id}/credentials
func (h *NVRHandler) Credentials(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	creds, err := h.Service.Credentials(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, http.StatusOK, creds)
}

// POST /api/nvr
func (h *NVRHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in nvr.Input
	if err := decodeJSON(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	n, err := h.Service.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

// PUT /api/nvr
func (h *NVRHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p nvr.Patch
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

// PUT /api/nvr/update-status
func (h *NVRHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var su nvr.StatusUpdate
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

// DELETE /api/nvr/{id}
func (h *NVRHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
