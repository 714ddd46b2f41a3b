package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"parkingslots/internal/entities"
)

// AvailabilityCache holds per-slot, per-day free intervals for the read path. Commit-time
// checks never consult it.
type AvailabilityCache interface {
	Get(ctx context.Context, slotID int64, day string) ([]entities.FreeInterval, bool, error)
	Set(ctx context.Context, slotID int64, day string, intervals []entities.FreeInterval) error
	Invalidate(ctx context.Context, slotID int64, days ...string) error
}

// RedisAvailabilityCache stores each slot day under its own key, so every entry carries
// its own TTL.
type RedisAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{client: client, ttl: ttl}
}

const availabilityKeyPrefix = "availability:slot:"

func availabilityKey(slotID int64, day string) string {
	return availabilityKeyPrefix + strconv.FormatInt(slotID, 10) + ":" + day
}

func (c *RedisAvailabilityCache) Get(ctx context.Context, slotID int64, day string) ([]entities.FreeInterval, bool, error) {
	val, err := c.client.Get(ctx, availabilityKey(slotID, day)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("error reading availability cache: %w", err)
	}

	var intervals []entities.FreeInterval
	if err := json.Unmarshal([]byte(val), &intervals); err != nil {
		// A corrupt entry is treated as a miss; the next Set overwrites it.
		return nil, false, nil
	}
	return intervals, true, nil
}

func (c *RedisAvailabilityCache) Set(ctx context.Context, slotID int64, day string, intervals []entities.FreeInterval) error {
	data, err := json.Marshal(intervals)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, availabilityKey(slotID, day), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("error writing availability cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached days of a slot.
func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, slotID int64, days ...string) error {
	if len(days) == 0 {
		return nil
	}
	keys := make([]string, 0, len(days))
	for _, day := range days {
		keys = append(keys, availabilityKey(slotID, day))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("error invalidating availability cache: %w", err)
	}
	return nil
}

// NoopCache is used when no Redis address is configured.
type NoopCache struct{}

func (NoopCache) Get(context.Context, int64, string) ([]entities.FreeInterval, bool, error) {
	return nil, false, nil
}

func (NoopCache) Set(context.Context, int64, string, []entities.FreeInterval) error { return nil }

func (NoopCache) Invalidate(context.Context, int64, ...string) error { return nil }
