package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryAvailabilityCache — кэш в памяти процесса. Используется как
// запасной вариант при недоступном Redis и в тестах.
type MemoryAvailabilityCache struct {
	slots      sync.Map
	rateLimits sync.Map
}

func NewMemoryAvailabilityCache() *MemoryAvailabilityCache {
	return &MemoryAvailabilityCache{}
}

type busyEntry struct {
	slots     []string
	expiresAt time.Time
}

func (r *MemoryAvailabilityCache) GetBusySlots(ctx context.Context, dateKey string) ([]string, bool, error) {
	val, ok := r.slots.Load(dateKey)
	if !ok {
		return nil, false, nil
	}
	entry := val.(*busyEntry)
	if time.Now().After(entry.expiresAt) {
		r.slots.Delete(dateKey)
		return nil, false, nil
	}
	out := make([]string, len(entry.slots))
	copy(out, entry.slots)
	return out, true, nil
}

func (r *MemoryAvailabilityCache) SetBusySlots(ctx context.Context, dateKey string, slots []string, ttl time.Duration) error {
	stored := make([]string, len(slots))
	copy(stored, slots)
	r.slots.Store(dateKey, &busyEntry{slots: stored, expiresAt: time.Now().Add(ttl)})
	return nil
}

func (r *MemoryAvailabilityCache) InvalidateDate(ctx context.Context, dateKey string) error {
	r.slots.Delete(dateKey)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryAvailabilityCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(key)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(key, entry)
	return entry.count <= limit, nil
}
