// Package resilience guards database calls with a failure-cooldown breaker
// so listing endpoints degrade to fallback data instead of erroring.
package resilience

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pluginhub-dev/pluginhub/internal/hub/logging"
)

// DefaultCooldown is how long the breaker stays open after a failure.
const DefaultCooldown = 30 * time.Second

// Breaker trips after a single failure and stays open for a cooldown
// window. While open, guarded operations are not invoked at all. One
// Breaker instance is shared by the data-access layer; it is safe for
// concurrent use.
type Breaker struct {
	mu       sync.Mutex
	lastFail time.Time
	open     bool

	cooldown time.Duration
	now      func() time.Time
}

// NewBreaker creates a Breaker with the default cooldown.
func NewBreaker() *Breaker {
	return NewBreakerWithClock(DefaultCooldown, time.Now)
}

// NewBreakerWithClock creates a Breaker with an injected clock, for tests.
func NewBreakerWithClock(cooldown time.Duration, now func() time.Time) *Breaker {
	if now == nil {
		now = time.Now
	}
	return &Breaker{cooldown: cooldown, now: now}
}

// Allow reports whether a guarded operation may run. The breaker reopens
// for attempts once the cooldown has elapsed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true
	}
	if b.now().Sub(b.lastFail) >= b.cooldown {
		b.open = false
		return true
	}
	return false
}

// RecordFailure opens the breaker. Any error counts; there is no
// distinction between error types.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = true
	b.lastFail = b.now()
}

// Reset closes the breaker immediately.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
	b.lastFail = time.Time{}
}

// Guard executes op under the breaker. On success it returns
// (result, true). If the breaker is open, or op fails, it returns
// (fallback, false); a failure opens the breaker for subsequent calls.
// The label identifies the operation in logs.
//
// Callers must treat a false second return as best-effort stale/empty
// data and render a degraded result, never a hard failure.
func Guard[T any](ctx context.Context, b *Breaker, label string, fallback T, op func(ctx context.Context) (T, error)) (T, bool) {
	if !b.Allow() {
		logging.Log(ctx, logging.ServiceLog, zapcore.WarnLevel, "breaker open, serving fallback",
			zap.String("operation", label))
		return fallback, false
	}

	result, err := op(ctx)
	if err != nil {
		b.RecordFailure()
		logging.Log(ctx, logging.ServiceLog, zapcore.ErrorLevel, "query failed, serving fallback",
			zap.String("operation", label), zap.Error(err))
		return fallback, false
	}
	return result, true
}
