package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/you/safetyauth/domain"
)

// CooldownRepositoryImpl implements domain.CooldownStore using Redis
type CooldownRepositoryImpl struct {
	client *redis.Client
	prefix string
}

// NewCooldownRepository creates a new cooldown store
func NewCooldownRepository(client *redis.Client) domain.CooldownStore {
	return &CooldownRepositoryImpl{
		client: client,
		prefix: "cooldown:",
	}
}

// Acquire implements domain.CooldownStore
func (r *CooldownRepositoryImpl) Acquire(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	k := r.prefix + key
	ok, err := r.client.SetNX(ctx, k, time.Now().Unix(), window).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to acquire cooldown: %w", err)
	}
	if ok {
		return true, 0, nil
	}

	left, err := r.client.PTTL(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to read cooldown: %w", err)
	}
	// -2: expired between the two calls, -1: no expiry
	if left < 0 {
		left = 0
	}
	return false, left, nil
}

// Release implements domain.CooldownStore
func (r *CooldownRepositoryImpl) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
