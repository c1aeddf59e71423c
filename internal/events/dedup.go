package events

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Dedup suppresses repeats of the same key within ttl. Capacity bounds memory;
// the oldest keys are evicted first.
type Dedup struct {
	cache *lru.Cache[string, time.Time]
	ttl   time.Duration
}

func NewDedup(maxKeys int, ttl time.Duration) (*Dedup, error) {
	c, err := lru.New[string, time.Time](maxKeys)
	if err != nil {
		return nil, err
	}
	return &Dedup{cache: c, ttl: ttl}, nil
}

func (d *Dedup) IsDuplicate(key string) bool {
	if addedAt, ok := d.cache.Get(key); ok && time.Since(addedAt) < d.ttl {
		return true
	}
	d.cache.Add(key, time.Now())
	return false
}
