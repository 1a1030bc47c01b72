package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/race-bet-platform/pkg/contracts/topics"
)

type Cache struct{ R *redis.Client }

func New(r *redis.Client) *Cache { return &Cache{R: r} }

// GetPayouts devolve false quando a corrida não está no cache
func (c *Cache) GetPayouts(ctx context.Context, raceID string, dst any) (bool, error) {
	b, err := c.R.Get(ctx, topics.PayoutsCacheKey(raceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) SetPayouts(ctx context.Context, raceID string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, topics.PayoutsCacheKey(raceID), b, ttl).Err()
}
