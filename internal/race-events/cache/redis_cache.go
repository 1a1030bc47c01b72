package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/race-bet-platform/pkg/contracts/events"
	"github.com/radieske/race-bet-platform/pkg/contracts/topics"
)

// RedisCache guarda os rateios publicados de cada corrida
// TTL: expiração; o race-status-service relê do banco quando a chave some
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

// SetPayouts substitui os rateios da corrida no cache
func (r *RedisCache) SetPayouts(ctx context.Context, raceID string, payouts []events.PayoutSummary) error {
	b, err := json.Marshal(payouts)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, topics.PayoutsCacheKey(raceID), b, r.TTL).Err()
}

// Invalidate remove os rateios após um reset
func (r *RedisCache) Invalidate(ctx context.Context, raceID string) error {
	return r.Client.Del(ctx, topics.PayoutsCacheKey(raceID)).Err()
}
