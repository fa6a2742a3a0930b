package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/domain"
)

// FailoverAvailabilityCache переключается на резервный кэш в памяти,
// когда Redis недоступен, и периодически пробует вернуться.
type FailoverAvailabilityCache struct {
	primary   domain.AvailabilityCache
	fallback  domain.AvailabilityCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverAvailabilityCache(primary, fallback domain.AvailabilityCache, logger *zerolog.Logger) *FailoverAvailabilityCache {
	return &FailoverAvailabilityCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverAvailabilityCache) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary availability cache failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck = time.Now()
}

func (r *FailoverAvailabilityCache) GetBusySlots(ctx context.Context, dateKey string) ([]string, bool, error) {
	if !r.isDown.Load() {
		slots, ok, err := r.primary.GetBusySlots(ctx, dateKey)
		if err == nil {
			return slots, ok, nil
		}
		r.markDown(err)
	}

	// Пробуем вернуться на основной кэш через минуту
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		slots, ok, err := r.primary.GetBusySlots(ctx, dateKey)
		if err == nil {
			r.isDown.Store(false)
			return slots, ok, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetBusySlots(ctx, dateKey)
}

func (r *FailoverAvailabilityCache) SetBusySlots(ctx context.Context, dateKey string, slots []string, ttl time.Duration) error {
	if !r.isDown.Load() {
		err := r.primary.SetBusySlots(ctx, dateKey, slots, ttl)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetBusySlots(ctx, dateKey, slots, ttl)
}

func (r *FailoverAvailabilityCache) InvalidateDate(ctx context.Context, dateKey string) error {
	if !r.isDown.Load() {
		err := r.primary.InvalidateDate(ctx, dateKey)
		if err == nil {
			// Сбрасываем обе копии: резервная могла успеть закэшировать
			_ = r.fallback.InvalidateDate(ctx, dateKey)
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.InvalidateDate(ctx, dateKey)
}

func (r *FailoverAvailabilityCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
