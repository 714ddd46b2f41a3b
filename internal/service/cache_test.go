package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkingslots/internal/entities"
)

func newRedisCache(t *testing.T) (*RedisAvailabilityCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisAvailabilityCache(client, 5*time.Second), mr
}

func TestRedisAvailabilityCache(t *testing.T) {
	ctx := context.Background()
	cache, mr := newRedisCache(t)

	_, ok, err := cache.Get(ctx, 1, "2026-10-19")
	require.NoError(t, err)
	assert.False(t, ok)

	want := []entities.FreeInterval{{Start: today(8, 0), End: today(10, 0), Remaining: 1}}
	require.NoError(t, cache.Set(ctx, 1, "2026-10-19", want))
	require.NoError(t, cache.Set(ctx, 1, "2026-10-20", nil))

	got, ok, err := cache.Get(ctx, 1, "2026-10-19")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.True(t, got[0].Start.Equal(want[0].Start))
	assert.True(t, got[0].End.Equal(want[0].End))
	assert.Equal(t, 1, got[0].Remaining)

	assert.Equal(t, 5*time.Second, mr.TTL("availability:slot:1:2026-10-19"))
	assert.Equal(t, 5*time.Second, mr.TTL("availability:slot:1:2026-10-20"))

	mr.FastForward(6 * time.Second)
	_, ok, err = cache.Get(ctx, 1, "2026-10-19")
	require.NoError(t, err)
	assert.False(t, ok, "entry expires with the ttl")

	require.NoError(t, cache.Set(ctx, 1, "2026-10-19", want))
	require.NoError(t, cache.Set(ctx, 1, "2026-10-20", want))
	require.NoError(t, cache.Set(ctx, 2, "2026-10-19", want))
	require.NoError(t, cache.Invalidate(ctx, 1, "2026-10-19", "2026-10-20"))
	assert.False(t, mr.Exists("availability:slot:1:2026-10-19"))
	assert.False(t, mr.Exists("availability:slot:1:2026-10-20"))
	assert.True(t, mr.Exists("availability:slot:2:2026-10-19"), "other slots keep their entries")
	require.NoError(t, cache.Invalidate(ctx, 1))
}

func TestRedisAvailabilityCacheEntryExpiresIndependently(t *testing.T) {
	ctx := context.Background()
	cache, mr := newRedisCache(t)
	intervals := []entities.FreeInterval{{Start: today(8, 0), End: today(22, 0), Remaining: 1}}

	require.NoError(t, cache.Set(ctx, 1, "2026-10-19", intervals))
	mr.FastForward(4 * time.Second)
	require.NoError(t, cache.Set(ctx, 1, "2026-10-20", intervals))
	mr.FastForward(4 * time.Second)

	_, ok, err := cache.Get(ctx, 1, "2026-10-19")
	require.NoError(t, err)
	assert.False(t, ok, "writing another day must not extend this entry")

	_, ok, err = cache.Get(ctx, 1, "2026-10-20")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisAvailabilityCacheCorruptEntry(t *testing.T) {
	cache, mr := newRedisCache(t)
	require.NoError(t, mr.Set("availability:slot:7:2026-10-19", "{not json"))

	_, ok, err := cache.Get(context.Background(), 7, "2026-10-19")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestServiceUsesAndInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	cache, mr := newRedisCache(t)
	f := newFixtureWithCache(t, testNow, cache)
	a1 := f.slot(t, "A1")

	_, err := f.svc.GetSlotAvailability(ctx, a1.ID, DayToday)
	require.NoError(t, err)
	_, err = f.svc.GetSlotAvailability(ctx, a1.ID, DayToday)
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CacheLookups.WithLabelValues("hit")))
	_, err = f.svc.GetSlotAvailability(ctx, a1.ID, DayTomorrow)
	require.NoError(t, err)
	assert.True(t, mr.Exists("availability:slot:1:2026-10-19"))
	assert.True(t, mr.Exists("availability:slot:1:2026-10-20"))

	f.book(t, "A1", "u1", today(10, 0), today(11, 0))
	assert.False(t, mr.Exists("availability:slot:1:2026-10-19"), "commit drops the slot's cached days")
	assert.False(t, mr.Exists("availability:slot:1:2026-10-20"))

	got, err := f.svc.GetSlotAvailability(ctx, a1.ID, DayToday)
	require.NoError(t, err)
	assert.Len(t, got.Intervals, 2)
}

func TestServiceSurvivesCacheOutage(t *testing.T) {
	cache, mr := newRedisCache(t)
	f := newFixtureWithCache(t, testNow, cache)
	mr.Close()

	got, err := f.svc.GetSlotAvailability(context.Background(), f.slot(t, "A1").ID, DayToday)
	require.NoError(t, err)
	assert.Len(t, got.Intervals, 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CacheLookups.WithLabelValues("error")))

	f.book(t, "A1", "u1", today(10, 0), today(11, 0))
}
