package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/metrics"
	"github.com/technosupport/vms-inventory/internal/middleware"
)

// Route is one entry of the declarative route table. Public routes skip the
// bearer-token gate; every other route requires a valid access token.
type Route struct {
	Method  string
	Pattern string
	Public  bool
	// Login routes are limited per client address and username before credentials are checked.
	Login   bool
	Summary string
	Tag     string
	// Query lists the query parameters the handler reads.
	Query []string
	// Body names the request payload for the API document.
	Body    string
	Handler http.HandlerFunc
}

// Routable is implemented by every resource handler.
type Routable interface {
	Routes() []Route
}

// RouterConfig carries the cross-cutting pieces. Nil RateLimit, Audit and
// Metrics disable their middleware.
type RouterConfig struct {
	Log            *zap.Logger
	Auth           *middleware.JWTAuth
	RateLimit      *middleware.RateLimitMiddleware
	Audit          *middleware.AuditMiddleware
	Metrics        *metrics.Collector
	CORSOrigins    []string
	RequestTimeout time.Duration
	Title          string
	Version        string
}

// Collect flattens the route tables of the given handlers.
func Collect(handlers ...Routable) []Route {
	var routes []Route
	for _, h := range handlers {
		routes = append(routes, h.Routes()...)
	}
	return routes
}

// NewRouter mounts routes behind the global middleware and serves the API
// document built from the same table at /swagger/doc.json.
func NewRouter(cfg RouterConfig, routes []Route) http.Handler {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(cfg.Log))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	r.Use(middleware.CORS(cfg.CORSOrigins))
	if cfg.RateLimit != nil {
		r.Use(cfg.RateLimit.GlobalLimiter)
	}
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}

	if cfg.Metrics != nil {
		routes = append(routes, Route{
			Method: http.MethodGet, Pattern: "/metrics", Public: true, Tag: "ops",
			Summary: "Prometheus metrics", Handler: cfg.Metrics.Handler().ServeHTTP,
		})
	}
	doc := BuildDocument(cfg.Title, cfg.Version, routes)
	routes = append(routes, Route{
		Method: http.MethodGet, Pattern: "/swagger/doc.json", Public: true, Tag: "ops",
		Summary: "OpenAPI document",
		Handler: func(w http.ResponseWriter, _ *http.Request) { respondJSON(w, http.StatusOK, doc) },
	})

	for _, rt := range routes {
		r.With(chain(cfg, rt)...).Method(rt.Method, rt.Pattern, rt.Handler)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "route not found", RequestID: middleware.RequestID(r.Context())})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed", RequestID: middleware.RequestID(r.Context())})
	})
	return r
}

// chain builds the per-route middleware. The user limiter and the activity
// log run after the gate so they see the caller's identity.
func chain(cfg RouterConfig, rt Route) []func(http.Handler) http.Handler {
	var mws []func(http.Handler) http.Handler
	if rt.Login && cfg.RateLimit != nil {
		mws = append(mws, cfg.RateLimit.LoginLimiter)
	}
	mws = append(mws, cfg.Auth.Gate(rt.Public))
	if !rt.Public && cfg.RateLimit != nil {
		mws = append(mws, cfg.RateLimit.UserLimiter)
	}
	if cfg.Audit != nil {
		mws = append(mws, cfg.Audit.LogRequest)
	}
	return mws
}
