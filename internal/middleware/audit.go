package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/technosupport/vms-inventory/internal/audit"
)

// AuditWriter is satisfied by *audit.Service.
type AuditWriter interface {
	Write(ctx context.Context, e audit.Entry)
}

type AuditMiddleware struct {
	writer   AuditWriter
	timeout  time.Duration
	inflight sync.WaitGroup
}

func NewAuditMiddleware(w AuditWriter) *AuditMiddleware {
	return &AuditMiddleware{writer: w, timeout: 5 * time.Second}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// moduleName is the first segment after /api/, e.g. "camera" for /api/camera/{id}.
func moduleName(pattern string) string {
	p := strings.TrimPrefix(pattern, "/api/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return p
}

// LogRequest writes one activity log entry per authenticated mutating request,
// after the handler has run. Reads and anonymous calls such as login are not
// recorded.
func (m *AuditMiddleware) LogRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isMutating(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := wrap(w)
		next.ServeHTTP(rw, r)

		uid := UserID(r.Context())
		if uid <= 0 {
			return
		}

		pattern := routePattern(r)
		if pattern == "" {
			pattern = r.URL.Path
		}
		entry := audit.Entry{
			UserID:     &uid,
			ModuleName: truncate(moduleName(pattern), 100),
			Action:     truncate(r.Method+" "+pattern, 200),
			Data: map[string]any{
				"path":       truncate(r.URL.Path, 255),
				"status":     rw.status,
				"request_id": RequestID(r.Context()),
				"client_ip":  truncate(ClientIP(r), 64),
				"latency_ms": time.Since(start).Milliseconds(),
			},
		}

		m.inflight.Add(1)
		go func() {
			defer m.inflight.Done()
			ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
			defer cancel()
			m.writer.Write(ctx, entry)
		}()
	})
}

// Wait blocks until every pending write has finished or ctx is done.
func (m *AuditMiddleware) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}
