package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTokenRepo is the access-token deny list. Entries live exactly as
// long as the token they block would have.
type RedisTokenRepo struct {
	client *redis.Client
}

func NewRedisTokenRepo(client *redis.Client) *RedisTokenRepo {
	return &RedisTokenRepo{client: client}
}

func (r *RedisTokenRepo) RevokeAccess(ctx context.Context, digest string, exp time.Time) error {
	return r.client.Set(ctx, "revoked:"+digest, 1, safeTTL(exp)).Err()
}

func (r *RedisTokenRepo) IsAccessRevoked(ctx context.Context, digest string) (bool, error) {
	n, err := r.client.Exists(ctx, "revoked:"+digest).Result()
	return n > 0, err
}

func safeTTL(exp time.Time) time.Duration {
	ttl := time.Until(exp)
	if ttl <= 0 {
		// minimal TTL so the key still disappears
		return time.Minute
	}
	return ttl
}
