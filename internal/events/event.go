// Package events publishes inventory change notifications.
package events

import (
	"context"
	"strconv"
	"time"
)

type Action string

const (
	Created       Action = "created"
	Updated       Action = "updated"
	StatusChanged Action = "status_changed"
	Deleted       Action = "deleted"
	Imported      Action = "imported"
)

// Event describes one committed mutation of an inventory resource.
type Event struct {
	Resource string    `json:"resource"`
	Action   Action    `json:"action"`
	ID       int64     `json:"id,omitempty"`
	At       time.Time `json:"at"`
	Data     any       `json:"data,omitempty"`
}

// Key identifies an event for deduplication. Timestamps are bucketed to the second.
func (e Event) Key() string {
	return e.Resource + "|" + string(e.Action) + "|" + strconv.FormatInt(e.ID, 10) + "|" +
		strconv.FormatInt(e.At.Truncate(time.Second).Unix(), 10)
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
