package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/config"
)

func setupRedisCache(t *testing.T) (*RedisAvailabilityCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(config.RedisConfig{Address: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisAvailabilityCache(client), mr
}

func TestRedisBusySlots(t *testing.T) {
	cache, mr := setupRedisCache(t)
	ctx := context.Background()

	_, ok, err := cache.GetBusySlots(ctx, "2026-09-15")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.SetBusySlots(ctx, "2026-09-15", []string{"10:00", "14:00"}, time.Minute))

	slots, ok, err := cache.GetBusySlots(ctx, "2026-09-15")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"10:00", "14:00"}, slots)

	// Свободный день кэшируется как пустой список, а не как промах
	require.NoError(t, cache.SetBusySlots(ctx, "2026-09-16", nil, time.Minute))
	slots, ok, err = cache.GetBusySlots(ctx, "2026-09-16")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, slots)

	// Истечение TTL
	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.GetBusySlots(ctx, "2026-09-15")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisInvalidateDate(t *testing.T) {
	cache, _ := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetBusySlots(ctx, "2026-09-15", []string{"10:00"}, time.Minute))
	require.NoError(t, cache.InvalidateDate(ctx, "2026-09-15"))

	_, ok, err := cache.GetBusySlots(ctx, "2026-09-15")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCheckRateLimit(t *testing.T) {
	cache, mr := setupRedisCache(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := cache.CheckRateLimit(ctx, "79991234567", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "attempt %d", i)
	}

	allowed, err := cache.CheckRateLimit(ctx, "79991234567", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Другой ключ не задет
	allowed, err = cache.CheckRateLimit(ctx, "79990000000", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Окно истекло, счетчик сброшен
	mr.FastForward(2 * time.Minute)
	allowed, err = cache.CheckRateLimit(ctx, "79991234567", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryCacheTTL(t *testing.T) {
	cache := NewMemoryAvailabilityCache()
	ctx := context.Background()

	require.NoError(t, cache.SetBusySlots(ctx, "2026-09-15", []string{"10:00"}, 10*time.Millisecond))

	slots, ok, err := cache.GetBusySlots(ctx, "2026-09-15")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"10:00"}, slots)

	time.Sleep(20 * time.Millisecond)
	_, ok, err = cache.GetBusySlots(ctx, "2026-09-15")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheCopiesSlots(t *testing.T) {
	cache := NewMemoryAvailabilityCache()
	ctx := context.Background()

	src := []string{"10:00"}
	require.NoError(t, cache.SetBusySlots(ctx, "2026-09-15", src, time.Minute))
	src[0] = "11:00"

	slots, _, err := cache.GetBusySlots(ctx, "2026-09-15")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00"}, slots)
}

func TestFailoverSwitchesToFallback(t *testing.T) {
	logger := zerolog.New(os.Stdout)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	primary := NewRedisAvailabilityCache(client)
	fallback := NewMemoryAvailabilityCache()
	cache := NewFailoverAvailabilityCache(primary, fallback, &logger)
	ctx := context.Background()

	require.NoError(t, cache.SetBusySlots(ctx, "2026-09-15", []string{"10:00"}, time.Minute))

	slots, ok, err := cache.GetBusySlots(ctx, "2026-09-15")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"10:00"}, slots)

	// Redis падает, запись уходит в резервный кэш без ошибки
	mr.Close()
	require.NoError(t, cache.SetBusySlots(ctx, "2026-09-16", []string{"12:00"}, time.Minute))

	slots, ok, err = cache.GetBusySlots(ctx, "2026-09-16")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"12:00"}, slots)

	allowed, err := cache.CheckRateLimit(ctx, "79991234567", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, err = cache.CheckRateLimit(ctx, "79991234567", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestFailoverInvalidateClearsBothCopies(t *testing.T) {
	logger := zerolog.New(os.Stdout)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	primary := NewRedisAvailabilityCache(client)
	fallback := NewMemoryAvailabilityCache()
	cache := NewFailoverAvailabilityCache(primary, fallback, &logger)
	ctx := context.Background()

	require.NoError(t, primary.SetBusySlots(ctx, "2026-09-15", []string{"10:00"}, time.Minute))
	require.NoError(t, fallback.SetBusySlots(ctx, "2026-09-15", []string{"10:00"}, time.Minute))

	require.NoError(t, cache.InvalidateDate(ctx, "2026-09-15"))

	_, ok, err := primary.GetBusySlots(ctx, "2026-09-15")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = fallback.GetBusySlots(ctx, "2026-09-15")
	require.NoError(t, err)
	assert.False(t, ok)
}
