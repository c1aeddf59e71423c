package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/apperr"
	"github.com/technosupport/vms-inventory/internal/middleware"
	"github.com/technosupport/vms-inventory/internal/users"
)

type AuthHandler struct {
	errorResponder
	Service *users.AuthService
}

func NewAuthHandler(svc *users.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{errorResponder: newResponder(log), Service: svc}
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Routes() []Route {
	const tag = "auth"
	return []Route{
		{Method: http.MethodPost, Pattern: "/api/auth/login", Public: true, Login: true, Tag: tag, Summary: "Exchange credentials for tokens", Body: "Credentials", Handler: h.Login},
		{Method: http.MethodPost, Pattern: "/api/auth/refresh", Public: true, Tag: tag, Summary: "Rotate a refresh token", Body: "RefreshRequest", Handler: h.Refresh},
		{Method: http.MethodPost, Pattern: "/api/auth/logout", Tag: tag, Summary: "Revoke the presented access token", Handler: h.Logout},
	}
}

// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var c users.Credentials
	if err := decodeJSON(w, r, &c); err != nil {
		h.respondError(w, r, err)
		return
	}
	pair, err := h.Service.Login(r.Context(), c)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, http.StatusOK, pair)
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.RefreshToken == "" {
		h.respondError(w, r, apperr.Invalid("refreshToken is required"))
		return
	}
	pair, err := h.Service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, http.StatusOK, pair)
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		h.respondError(w, r, apperr.Unauthenticated("missing bearer token"))
		return
	}
	if err := h.Service.Logout(r.Context(), token); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondNoContent(w)
}
