package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Conn is the subset of *nats.Conn used for publishing.
type Conn interface {
	Publish(subj string, data []byte) error
}

var _ Conn = (*nats.Conn)(nil)

// NATSPublisher sends events to "<prefix>.<resource>.<action>" with bounded retries.
type NATSPublisher struct {
	conn       Conn
	prefix     string
	maxRetries int
	dedup      *Dedup
}

func NewNATSPublisher(conn Conn, prefix string, maxRetries int, dedup *Dedup) *NATSPublisher {
	return &NATSPublisher{
		conn:       conn,
		prefix:     prefix,
		maxRetries: maxRetries,
		dedup:      dedup,
	}
}

func (p *NATSPublisher) Subject(evt Event) string {
	return p.prefix + "." + evt.Resource + "." + string(evt.Action)
}

func (p *NATSPublisher) Publish(ctx context.Context, evt Event) error {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	if p.dedup != nil && p.dedup.IsDuplicate(evt.Key()) {
		return nil
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	subject := p.Subject(evt)
	for i := 0; i <= p.maxRetries; i++ {
		err = p.conn.Publish(subject, data)
		if err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i*100) * time.Millisecond):
		}
	}

	return fmt.Errorf("publish failed after %d retries: %w", p.maxRetries, err)
}
