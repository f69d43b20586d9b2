package coupon

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const activeSnapshotKey = "coupons:active"

// Cache keeps a short-lived JSON snapshot of the active coupon collection in
// Redis so selection calls do not hit Postgres on every request.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetSnapshot loads the cached coupon snapshot. It reports whether the key existed.
func (c *Cache) GetSnapshot(ctx context.Context) ([]Coupon, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, activeSnapshotKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	var coupons []Coupon
	if err := json.Unmarshal(data, &coupons); err != nil {
		return nil, false, err
	}
	return coupons, true, nil
}

// SetSnapshot stores the coupon snapshot with the configured TTL.
func (c *Cache) SetSnapshot(ctx context.Context, coupons []Coupon) error {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(coupons)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, activeSnapshotKey, data, c.ttl).Err()
}

// Invalidate drops the snapshot, forcing the next read to hit the store.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, activeSnapshotKey).Err()
}
