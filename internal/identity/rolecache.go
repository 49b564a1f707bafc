package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Lyndoncatan/Neu-LabLogs/internal/model"
)

// RedisRoleCache stores preferred roles under a per-email key with a TTL, so
// a stale preference expires instead of persisting forever.
type RedisRoleCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRoleCache(client *redis.Client, ttl time.Duration) *RedisRoleCache {
	return &RedisRoleCache{client: client, ttl: ttl}
}

func (c *RedisRoleCache) PreferredRole(ctx context.Context, email string) (model.Role, bool, error) {
	value, err := c.client.Get(ctx, preferredRoleKey(email)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	role := model.Role(value)
	if role != model.RoleAdmin && role != model.RoleProfessor {
		return "", false, nil
	}
	return role, true, nil
}

func (c *RedisRoleCache) SetPreferredRole(ctx context.Context, email string, role model.Role) error {
	return c.client.Set(ctx, preferredRoleKey(email), string(role), c.ttl).Err()
}

func preferredRoleKey(email string) string {
	return fmt.Sprintf("preferred_role:%s", email)
}
