package metrics

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/vms-inventory/internal/data"
	"github.com/technosupport/vms-inventory/internal/events"
)

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, events.Event) error { return errors.New("broker down") }

func TestInstrumentPublisher(t *testing.T) {
	c := NewCollector(nil)
	ctx := context.Background()

	ok := c.InstrumentPublisher(events.Nop{})
	require.NoError(t, ok.Publish(ctx, events.Event{Resource: "camera", Action: events.Created}))
	require.NoError(t, ok.Publish(ctx, events.Event{Resource: "camera", Action: events.Created}))

	bad := c.InstrumentPublisher(failingPublisher{})
	assert.Error(t, bad.Publish(ctx, events.Event{Resource: "nvr", Action: events.Deleted}))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.mutations.WithLabelValues("camera", "created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.mutations.WithLabelValues("nvr", "deleted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.eventsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.eventsTotal.WithLabelValues("error")))
}

func TestCollect_InventoryGauges(t *testing.T) {
	c := NewCollector(nil)
	c.AddSource("camera", func(context.Context) (data.StatusCounts, error) {
		return data.StatusCounts{Total: 5, Active: 3, Inactive: 2}, nil
	})
	c.AddSource("nvr", func(context.Context) (data.StatusCounts, error) {
		return data.StatusCounts{}, errors.New("db down")
	})

	c.collect(context.Background())

	assert.Equal(t, 3.0, testutil.ToFloat64(c.inventory.WithLabelValues("camera", "active")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.inventory.WithLabelValues("camera", "inactive")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.up.WithLabelValues("camera")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.up.WithLabelValues("nvr")))
}

func TestHandler_ExposesHTTPMetrics(t *testing.T) {
	c := NewCollector(nil)
	c.ObserveHTTP("/api/camera/{id}", "GET", 404, 12*time.Millisecond)
	c.RecordRateLimit("ip", false)

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	body := w.Body.String()
	assert.True(t, strings.Contains(body, `vms_http_requests_total{code="404",method="GET",route="/api/camera/{id}"} 1`))
	assert.True(t, strings.Contains(body, `vms_ratelimit_decisions_total{result="blocked",scope="ip"} 1`))
}
