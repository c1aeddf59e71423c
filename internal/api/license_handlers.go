package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/license"
	"github.com/technosupport/vms-inventory/internal/middleware"
)

type LicenseHandler struct {
	errorResponder
	Service *license.Service
}

func NewLicenseHandler(svc *license.Service, log *zap.Logger) *LicenseHandler {
	return &LicenseHandler{errorResponder: newResponder(log), Service: svc}
}

func (h *LicenseHandler) Routes() []Route {
	const tag = "license"
	return []Route{
		{Method: http.MethodGet, Pattern: "/api/license/GetAll", Public: true, Tag: tag, Summary: "List licenses", Handler: h.GetAll},
		{Method: http.MethodGet, Pattern: "/api/license/{id}", Public: true, Tag: tag, Summary: "Get a license", Handler: h.Get},
		{Method: http.MethodGet, Pattern: "/api/license/{id}/activations", Tag: tag, Summary: "Machines bound to a license", Handler: h.Activations},
		{Method: http.MethodPost, Pattern: "/api/license", Tag: tag, Summary: "Create a license", Body: "LicenseInput", Handler: h.Create},
		{Method: http.MethodPost, Pattern: "/api/license/activate", Tag: tag, Summary: "Activate a license for the caller", Body: "ActivationInput", Handler: h.Activate},
		{Method: http.MethodPut, Pattern: "/api/license", Tag: tag, Summary: "Update license fields", Body: "LicensePatch", Handler: h.Update},
		{Method: http.MethodPut, Pattern: "/api/license/update-status", Tag: tag, Summary: "Enable or disable a license", Body: "StatusUpdate", Handler: h.UpdateStatus},
		{Method: http.MethodDelete, Pattern: "/api/license/{id}", Tag: tag, Summary: "Delete a license", Handler: h.Delete},
	}
}

func (h *LicenseHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *LicenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	l, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}

func (h *LicenseHandler) Activations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	list, err := h.Service.Activations(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *LicenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in license.Input
	if err := decodeJSON(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	l, err := h.Service.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}

// Activate binds the license to the signed-in caller. A missing machineIP
// defaults to the client address.
func (h *LicenseHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var in license.ActivationInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	if in.MachineIP == nil {
		if ip := middleware.ClientIP(r); ip != "" {
			in.MachineIP = &ip
		}
	}
	a, err := h.Service.Activate(r.Context(), in, middleware.UserID(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (h *LicenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p license.Patch
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

func (h *LicenseHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var su license.StatusUpdate
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

func (h *LicenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
