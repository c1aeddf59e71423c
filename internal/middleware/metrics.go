package middleware

import (
	"net/http"
	"time"

	"github.com/technosupport/vms-inventory/internal/metrics"
)

// Metrics records request count and latency by chi route pattern.
func Metrics(c *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := wrap(w)
			next.ServeHTTP(rw, r)
			c.ObserveHTTP(routePattern(r), r.Method, rw.status, time.Since(start))
		})
	}
}
