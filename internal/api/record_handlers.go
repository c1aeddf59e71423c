package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/cameras"
	"github.com/technosupport/vms-inventory/internal/middleware"
)

// RecordHandler serves the per-camera alert, activity and tracking records.
type RecordHandler struct {
	errorResponder
	Service *cameras.RecordService
}

func NewRecordHandler(svc *cameras.RecordService, log *zap.Logger) *RecordHandler {
	return &RecordHandler{errorResponder: newResponder(log), Service: svc}
}

func (h *RecordHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/api/alert/GetAll", Public: true, Tag: "alert", Summary: "List alerts", Handler: h.ListAlerts},
		{Method: http.MethodGet, Pattern: "/api/alert/camera/{cameraId}", Public: true, Tag: "alert", Summary: "Alerts raised by a camera", Handler: h.AlertsForCamera},
		{Method: http.MethodPost, Pattern: "/api/alert", Tag: "alert", Summary: "Record an alert", Body: "AlertInput", Handler: h.CreateAlert},
		{Method: http.MethodPut, Pattern: "/api/alert/update-status", Tag: "alert", Summary: "Acknowledge or reopen an alert", Body: "StatusUpdate", Handler: h.UpdateAlertStatus},
		{Method: http.MethodDelete, Pattern: "/api/alert/{id}", Tag: "alert", Summary: "Delete an alert", Handler: h.DeleteAlert},

		{Method: http.MethodGet, Pattern: "/api/activity/GetAll", Public: true, Tag: "activity", Summary: "List camera activities", Handler: h.ListActivities},
		{Method: http.MethodPost, Pattern: "/api/activity", Tag: "activity", Summary: "Record a camera activity", Body: "ActivityInput", Handler: h.CreateActivity},
		{Method: http.MethodPut, Pattern: "/api/activity", Tag: "activity", Summary: "Update a camera activity", Body: "ActivityPatch", Handler: h.UpdateActivity},
		{Method: http.MethodDelete, Pattern: "/api/activity/{id}", Tag: "activity", Summary: "Delete a camera activity", Handler: h.DeleteActivity},

		{Method: http.MethodGet, Pattern: "/api/tracking/Pagination", Public: true, Tag: "tracking", Summary: "Page through vehicle tracking records", Query: []string{"pageNumber", "pageSize"}, Handler: h.PageTracking},
		{Method: http.MethodGet, Pattern: "/api/tracking/camera/{cameraId}", Public: true, Tag: "tracking", Summary: "Tracking records of a camera", Handler: h.TrackingForCamera},
		{Method: http.MethodPost, Pattern: "/api/tracking", Tag: "tracking", Summary: "Record a tracked vehicle", Body: "TrackingInput", Handler: h.CreateTracking},
		{Method: http.MethodDelete, Pattern: "/api/tracking/{id}", Tag: "tracking", Summary: "Delete a tracking record", Handler: h.DeleteTracking},
	}
}

func (h *RecordHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListAlerts(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *RecordHandler) AlertsForCamera(w http.ResponseWriter, r *http.Request) {
	cameraID, err := pathID(r, "cameraId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	list, err := h.Service.AlertsForCamera(r.Context(), cameraID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *RecordHandler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var in cameras.AlertInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	a, err := h.Service.CreateAlert(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (h *RecordHandler) UpdateAlertStatus(w http.ResponseWriter, r *http.Request) {
	var su cameras.StatusUpdate
	if err := decodeJSON(w, r, &su); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Service.UpdateAlertStatus(r.Context(), su); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondNoContent(w)
}

func (h *RecordHandler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Service.DeleteAlert(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondNoContent(w)
}

func (h *RecordHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListActivities(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *RecordHandler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var in cameras.ActivityInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	a, err := h.Service.CreateActivity(r.Context(), in, middleware.UserID(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (h *RecordHandler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	var p cameras.ActivityPatch
	if err := decodeJSON(w, r, &p); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Service.UpdateActivity(r.Context(), p); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondNoContent(w)
}

func (h *RecordHandler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Service.DeleteActivity(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondNoContent(w)
}

func (h *RecordHandler) PageTracking(w http.ResponseWriter, r *http.Request) {
	number, size, err := pageQuery(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	page, err := h.Service.PageTracking(r.Context(), number, size)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *RecordHandler) TrackingForCamera(w http.ResponseWriter, r *http.Request) {
	cameraID, err := pathID(r, "cameraId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	list, err := h.Service.TrackingForCamera(r.Context(), cameraID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *RecordHandler) CreateTracking(w http.ResponseWriter, r *http.Request) {
	var in cameras.TrackingInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	t, err := h.Service.CreateTracking(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (h *RecordHandler) DeleteTracking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Service.DeleteTracking(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondNoContent(w)
}
