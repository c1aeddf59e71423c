package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRedisUnavailable = errors.New("redis unavailable")

type Scope string

const (
	ScopeGlobalIP Scope = "ip"
	ScopeUser     Scope = "user"
	ScopeLogin    Scope = "login"
)

type Decision struct {
	Scope      Scope
	Limit      int
	Remaining  int
	Reset      time.Time // When the window resets
	RetryAfter int       // Seconds
	Allowed    bool
}

type LimitConfig struct {
	Rate   int           `yaml:"rate"`
	Window time.Duration `yaml:"window"`
}

// Enabled reports whether the config actually limits anything.
func (c LimitConfig) Enabled() bool { return c.Rate > 0 && c.Window > 0 }

// fixedWindow increments the counter, starts its expiry on first hit and
// returns the count together with the remaining window in milliseconds.
var fixedWindow = redis.NewScript(`
	local current = redis.call("INCR", KEYS[1])
	if tonumber(current) == 1 then
		redis.call("PEXPIRE", KEYS[1], ARGV[1])
	end
	local ttl = redis.call("PTTL", KEYS[1])
	return {current, ttl}
`)

type Limiter struct {
	client redis.Scripter
	salt   string // For IP hashing stability
}

func NewLimiter(client redis.Scripter, salt string) *Limiter {
	if salt == "" {
		salt = "vms-inventory"
	}
	return &Limiter{client: client, salt: salt}
}

// HashIP keeps raw client addresses out of Redis keys.
func (l *Limiter) HashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip + l.salt))
	return hex.EncodeToString(hash[:])
}

// Check counts one hit against key under a fixed window.
func (l *Limiter) Check(ctx context.Context, scope Scope, key string, cfg LimitConfig) (*Decision, error) {
	res, err := fixedWindow.Run(ctx, l.client, []string{"rl:" + string(scope) + ":" + key}, cfg.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("%w: unexpected script reply %v", ErrRedisUnavailable, res)
	}

	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	if ttl < 0 {
		ttl = cfg.Window
	}

	remaining := cfg.Rate - count
	if remaining < 0 {
		remaining = 0
	}
	retry := int((ttl + time.Second - 1) / time.Second)

	return &Decision{
		Scope:      scope,
		Limit:      cfg.Rate,
		Remaining:  remaining,
		Reset:      time.Now().Add(ttl),
		RetryAfter: retry,
		Allowed:    count <= cfg.Rate,
	}, nil
}
