package metrics

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/data"
	"github.com/technosupport/vms-inventory/internal/events"
)

// StatsSource reports the status counts of one inventory resource.
type StatsSource func(ctx context.Context) (data.StatusCounts, error)

// Collector owns the process registry and every metric the API exports.
type Collector struct {
	registry *prometheus.Registry
	log      *zap.Logger

	mu           sync.RWMutex
	sources      map[string]StatsSource
	lastSnapshot time.Time

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	mutations    *prometheus.CounterVec
	eventsTotal  *prometheus.CounterVec
	rateLimit    *prometheus.CounterVec
	redisErrors  prometheus.Counter
	inventory    *prometheus.GaugeVec
	up           *prometheus.GaugeVec
	snapshotAge  prometheus.Gauge
}

func NewCollector(log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &Collector{
		registry: reg,
		log:      log.Named("metrics"),
		sources:  map[string]StatsSource{},
	}

	c.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vms_http_requests_total",
		Help: "HTTP requests by route pattern, method and status code",
	}, []string{"route", "method", "code"})

	c.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vms_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	c.mutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vms_inventory_mutations_total",
		Help: "Committed inventory mutations by resource and action",
	}, []string{"resource", "action"})

	c.eventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vms_events_published_total",
		Help: "Change events handed to the broker",
	}, []string{"result"}) // "ok", "error"

	c.rateLimit = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vms_ratelimit_decisions_total",
		Help: "Rate limit decisions by scope",
	}, []string{"scope", "result"}) // result: allowed, blocked

	c.redisErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vms_ratelimit_redis_errors_total",
		Help: "Rate limit checks that could not reach Redis",
	})

	// Cardinality is bounded: resource x {active, inactive}.
	c.inventory = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vms_inventory_items",
		Help: "Inventory rows by resource and status",
	}, []string{"resource", "status"})

	c.up = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vms_inventory_snapshot_up",
		Help: "Whether the last inventory snapshot succeeded (1=up, 0=down)",
	}, []string{"resource"})

	c.snapshotAge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vms_inventory_snapshot_age_seconds",
		Help: "Age of the last inventory snapshot",
	})

	reg.MustRegister(c.httpRequests, c.httpDuration, c.mutations, c.eventsTotal,
		c.rateLimit, c.redisErrors, c.inventory, c.up, c.snapshotAge)
	return c
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) ObserveHTTP(route, method string, code int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	c.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func (c *Collector) RecordRateLimit(scope string, allowed bool) {
	result := "allowed"
	if !allowed {
		result = "blocked"
	}
	c.rateLimit.WithLabelValues(scope, result).Inc()
}

func (c *Collector) RecordRedisError() { c.redisErrors.Inc() }

// AddSource registers a resource for the inventory snapshot.
func (c *Collector) AddSource(resource string, src StatsSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[resource] = src
}

// Start refreshes the inventory gauges every interval until ctx ends.
func (c *Collector) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.collect(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.collect(ctx)
		}
	}
}

func (c *Collector) collect(ctx context.Context) {
	c.mu.RLock()
	sources := make(map[string]StatsSource, len(c.sources))
	for k, v := range c.sources {
		sources[k] = v
	}
	last := c.lastSnapshot
	c.mu.RUnlock()

	ok := true
	for resource, src := range sources {
		qctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		st, err := src(qctx)
		cancel()
		if err != nil {
			ok = false
			c.up.WithLabelValues(resource).Set(0)
			c.log.Warn("inventory snapshot failed", zap.String("resource", resource), zap.Error(err))
			continue
		}
		c.up.WithLabelValues(resource).Set(1)
		c.inventory.WithLabelValues(resource, "active").Set(float64(st.Active))
		c.inventory.WithLabelValues(resource, "inactive").Set(float64(st.Inactive))
	}

	now := time.Now()
	if ok {
		c.mu.Lock()
		c.lastSnapshot = now
		c.mu.Unlock()
		last = now
	}
	if !last.IsZero() {
		c.snapshotAge.Set(now.Sub(last).Seconds())
	}
}

// InstrumentPublisher counts published events and committed mutations.
func (c *Collector) InstrumentPublisher(next events.Publisher) events.Publisher {
	return &countingPublisher{next: next, c: c}
}

type countingPublisher struct {
	next events.Publisher
	c    *Collector
}

func (p *countingPublisher) Publish(ctx context.Context, evt events.Event) error {
	p.c.mutations.WithLabelValues(evt.Resource, string(evt.Action)).Inc()
	err := p.next.Publish(ctx, evt)
	if err != nil {
		p.c.eventsTotal.WithLabelValues("error").Inc()
		return err
	}
	p.c.eventsTotal.WithLabelValues("ok").Inc()
	return nil
}
