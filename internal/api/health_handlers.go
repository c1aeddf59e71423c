package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pinger is satisfied by *sql.DB. Redis is adapted with PingFunc.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// HealthHandler reports liveness and whether the backing stores answer.
type HealthHandler struct {
	log    *zap.Logger
	checks map[string]Pinger
}

func NewHealthHandler(checks map[string]Pinger, log *zap.Logger) *HealthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HealthHandler{log: log.Named("health"), checks: checks}
}

type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/healthz", Public: true, Tag: "ops", Summary: "Liveness probe", Handler: h.Live},
		{Method: http.MethodGet, Pattern: "/readyz", Public: true, Tag: "ops", Summary: "Readiness probe", Handler: h.Ready},
	}
}

func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, HealthStatus{Status: "ok"})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	out := HealthStatus{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for name, p := range h.checks {
		if err := p.PingContext(ctx); err != nil {
			h.log.Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			out.Checks[name] = "unavailable"
			out.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		out.Checks[name] = "ok"
	}
	respondJSON(w, status, out)
}
