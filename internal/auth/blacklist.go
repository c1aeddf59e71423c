package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist records revoked token ids until they would have expired anyway.
type TokenBlacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error
}

type RedisBlacklist struct {
	client redis.Cmdable
	prefix string
}

func NewRedisBlacklist(client redis.Cmdable, prefix string) *RedisBlacklist {
	if prefix == "" {
		prefix = "blacklist"
	}
	return &RedisBlacklist{client: client, prefix: prefix}
}

func (r *RedisBlacklist) key(jti string) string {
	return r.prefix + ":" + jti
}

func (r *RedisBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := r.client.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// AddToBlacklist is a no-op for tokens that are already expired.
func (r *RedisBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.key(jti), "revoked", ttl).Err()
}
