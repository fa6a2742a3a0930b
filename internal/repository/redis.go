package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/config"
)

// RedisAvailabilityCache хранит занятые слоты по дате и счетчики лимитов заявок.
type RedisAvailabilityCache struct {
	client *redis.Client
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisAvailabilityCache(client *redis.Client) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{client: client}
}

func busySlotsKey(dateKey string) string {
	return fmt.Sprintf("busy_slots:%s", dateKey)
}

func (r *RedisAvailabilityCache) GetBusySlots(ctx context.Context, dateKey string) ([]string, bool, error) {
	if r.client == nil {
		return nil, false, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, busySlotsKey(dateKey)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get busy slots from redis: %w", err)
	}

	var slots []string
	if err := json.Unmarshal([]byte(val), &slots); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal busy slots: %w", err)
	}

	return slots, true, nil
}

func (r *RedisAvailabilityCache) SetBusySlots(ctx context.Context, dateKey string, slots []string, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	// Пустой список тоже кэшируем: свободный день — валидный ответ
	if slots == nil {
		slots = []string{}
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("failed to marshal busy slots: %w", err)
	}

	if err := r.client.Set(ctx, busySlotsKey(dateKey), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set busy slots in redis: %w", err)
	}

	return nil
}

func (r *RedisAvailabilityCache) InvalidateDate(ctx context.Context, dateKey string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, busySlotsKey(dateKey)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate busy slots in redis: %w", err)
	}
	return nil
}

func (r *RedisAvailabilityCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	rlKey := fmt.Sprintf("booking_rl:%s", key)
	count, err := r.client.Incr(ctx, rlKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, rlKey, window)
	}

	return count <= int64(limit), nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
