package worker

import (
	"math"
	"time"
)

// RetryPolicy — параметры экспоненциальной выдержки между повторами
// задач синхронизации календаря.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryPolicy — выдержка синхронизации с Google Calendar:
// 2s, 4s, 8s... с потолком в минуту, пять попыток.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  2 * time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2,
	}
}

// withDefaults заполняет нулевые поля значениями DefaultRetryPolicy.
func (r RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if r.MaxRetries == 0 {
		r.MaxRetries = def.MaxRetries
	}
	if r.InitialDelay == 0 {
		r.InitialDelay = def.InitialDelay
	}
	if r.MaxDelay == 0 {
		r.MaxDelay = def.MaxDelay
	}
	if r.BackoffFactor == 0 {
		r.BackoffFactor = def.BackoffFactor
	}
	return r
}

// NextDelay возвращает выдержку перед попыткой attempt (нумерация с 1).
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = time.Second
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}

	delay := float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1))
	d := time.Duration(delay)
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d <= 0 {
		d = time.Second
	}
	return d
}
