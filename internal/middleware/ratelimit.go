package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/ratelimit"
)

type Config struct {
	GlobalIP ratelimit.LimitConfig `yaml:"global_ip"`
	User     ratelimit.LimitConfig `yaml:"user"`
	Login    ratelimit.LimitConfig `yaml:"login"`
}

// RateLimitRecorder is satisfied by *metrics.Collector.
type RateLimitRecorder interface {
	RecordRateLimit(scope string, allowed bool)
	RecordRedisError()
}

type nopRecorder struct{}

func (nopRecorder) RecordRateLimit(string, bool) {}
func (nopRecorder) RecordRedisError()            {}

type RateLimitMiddleware struct {
	limiter *ratelimit.Limiter
	config  atomic.Pointer[Config]
	rec     RateLimitRecorder
	log     *zap.Logger
}

func NewRateLimitMiddleware(l *ratelimit.Limiter, c Config, rec RateLimitRecorder, log *zap.Logger) *RateLimitMiddleware {
	if rec == nil {
		rec = nopRecorder{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	m := &RateLimitMiddleware{limiter: l, rec: rec, log: log.Named("ratelimit")}
	m.config.Store(&c)
	return m
}

// SetConfig swaps the limits in place. Used by the config file watcher.
func (m *RateLimitMiddleware) SetConfig(c Config) {
	m.config.Store(&c)
	m.log.Info("rate limits reloaded",
		zap.Int("global_ip_rate", c.GlobalIP.Rate), zap.Int("user_rate", c.User.Rate), zap.Int("login_rate", c.Login.Rate))
}

// ClientIP is the first X-Forwarded-For hop, else the remote host.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// check returns false when the request has already been answered.
// failClosed rejects the request when Redis is unreachable.
func (m *RateLimitMiddleware) check(w http.ResponseWriter, r *http.Request, scope ratelimit.Scope, key string, cfg ratelimit.LimitConfig, failClosed bool) bool {
	if !cfg.Enabled() {
		return true
	}
	d, err := m.limiter.Check(r.Context(), scope, key, cfg)
	if errors.Is(err, ratelimit.ErrRedisUnavailable) {
		m.rec.RecordRedisError()
		if failClosed {
			m.log.Error("rate limit unavailable, failing closed", zap.String("scope", string(scope)), zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "service unavailable")
			return false
		}
		m.log.Warn("rate limit unavailable, failing open", zap.String("scope", string(scope)), zap.Error(err))
		return true
	}
	if err != nil {
		m.log.Error("rate limit check failed", zap.Error(err))
		return true
	}

	m.rec.RecordRateLimit(string(scope), d.Allowed)
	writeRateLimitHeaders(w, d)
	if !d.Allowed {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return false
	}
	return true
}

// GlobalLimiter limits every request by client address. It fails open.
func (m *RateLimitMiddleware) GlobalLimiter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg := m.config.Load()
		if m.check(w, r, ratelimit.ScopeGlobalIP, m.limiter.HashIP(ClientIP(r)), cfg.GlobalIP, false) {
			next.ServeHTTP(w, r)
		}
	})
}

// UserLimiter limits authenticated callers by user id. It must run after the auth gate.
func (m *RateLimitMiddleware) UserLimiter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := GetAuthContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		cfg := m.config.Load()
		if m.check(w, r, ratelimit.ScopeUser, strconv.FormatInt(ac.UserID, 10), cfg.User, false) {
			next.ServeHTTP(w, r)
		}
	})
}

const maxLoginBody = 64 << 10

// LoginLimiter limits login attempts per client address and username before
// credentials are checked. It fails closed.
func (m *RateLimitMiddleware) LoginLimiter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxLoginBody))
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable request body")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		var creds struct {
			Username string `json:"username"`
		}
		_ = json.Unmarshal(body, &creds)

		key := m.limiter.HashIP(ClientIP(r) + "|" + strings.ToLower(creds.Username))
		cfg := m.config.Load()
		if m.check(w, r, ratelimit.ScopeLogin, key, cfg.Login, true) {
			next.ServeHTTP(w, r)
		}
	})
}

func writeRateLimitHeaders(w http.ResponseWriter, d *ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
	if !d.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfter))
	}
}
