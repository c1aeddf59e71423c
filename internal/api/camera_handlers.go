package api

import (
	"bytes"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/cameras"
)

type CameraHandler struct {
	errorResponder
	Service *cameras.Service
}

func NewCameraHandler(svc *cameras.Service, log *zap.Logger) *CameraHandler {
	return &CameraHandler{errorResponder: newResponder(log), Service: svc}
}

func (h *CameraHandler) Routes() []Route {
	const tag = "camera"
	return []Route{
		{Method: http.MethodPost, Pattern: "/api/camera/import-json", Tag: tag, Summary: "Import cameras in one transaction", Body: "[]CameraInput", Handler: h.ImportJSON},
		{Method: http.MethodGet, Pattern: "/api/camera/export-json", Public: true, Tag: tag, Summary: "Export all cameras", Handler: h.ExportJSON},
		{Method: http.MethodGet, Pattern: "/api/camera/export-excel", Public: true, Tag: tag, Summary: "Export all cameras as CSV", Handler: h.ExportExcel},
		{Method: http.MethodGet, Pattern: "/api/camera/GetAll", Public: true, Tag: tag, Summary: "List cameras with group and NVR", Handler: h.GetAll},
		{Method: http.MethodGet, Pattern: "/api/camera/Count", Public: true, Tag: tag, Summary: "Camera status counts", Handler: h.Count},
		{Method: http.MethodGet, Pattern: "/api/camera/Pagination", Public: true, Tag: tag, Summary: "Page through cameras", Query: []string{"pageNumber", "pageSize"}, Handler: h.Pagination},
		{Method: http.MethodGet, Pattern: "/api/camera/CMR", Public: true, Tag: tag, Summary: "Active cameras for the map", Handler: h.CMR},
		{Method: http.MethodGet, Pattern: "/api/camera/{id}", Public: true, Tag: tag, Summary: "Get a camera", Handler: h.Get},
		{Method: http.MethodPost, Pattern: "/api/camera", Tag: tag, Summary: "Create a camera", Body: "CameraInput", Handler: h.Create},
		{Method: http.MethodPut, Pattern: "/api/camera", Tag: tag, Summary: "Update camera fields", Body: "CameraPatch", Handler: h.Update},
		{Method: http.MethodPut, Pattern: "/api/camera/update-status", Tag: tag, Summary: "Enable or disable a camera", Body: "StatusUpdate", Handler: h.UpdateStatus},
		{Method: http.MethodDelete, Pattern: "/api/camera/{id}", Tag: tag, Summary: "Delete a camera and its records", Handler: h.Delete},
	}
}

// POST /api/camera/import-json
func (h *CameraHandler) ImportJSON(w http.ResponseWriter, r *http.Request) {
	var items []cameras.CameraInput
	if err := decodeJSON(w, r, &items); err != nil {
		h.respondError(w, r, err)
		return
	}
	n, err := h.Service.Import(r.Context(), items)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondText(w, http.StatusOK, fmt.Sprintf("%d cameras imported", n))
}

// GET /api/camera/export-json
func (h *CameraHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	cams, err := h.Service.ExportAll(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cams)
}

// GET /api/camera/export-excel
func (h *CameraHandler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	// Buffer so a storage failure can still become an error response.
	var buf bytes.Buffer
	if err := h.Service.ExportCSV(r.Context(), &buf); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+cameras.CSVFileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// GET /api/camera/GetAll
func (h *CameraHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	cams, err := h.Service.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cams)
}

// GET /api/camera/Count
func (h *CameraHandler) Count(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Service.Count(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, counts)
}

// GET /api/camera/Pagination?pageNumber=1&pageSize=10
func (h *CameraHandler) Pagination(w http.ResponseWriter, r *http.Request) {
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

// GET /api/camera/CMR
func (h *CameraHandler) CMR(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListForMap(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// GET /api/camera/{id}
func (h *CameraHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	c, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// POST /api/camera
func (h *CameraHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in cameras.CameraInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	c, err := h.Service.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// PUT /api/camera
func (h *CameraHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p cameras.CameraPatch
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

// PUT /api/camera/update-status
func (h *CameraHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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

// DELETE /api/camera/{id}
func (h *CameraHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
