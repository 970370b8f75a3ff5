package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts time so the limiter can be driven by a fake in tests.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Option func(*RateLimiter)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(rl *RateLimiter) {
		rl.clock = clock
	}
}

// WithWaitObserver registers fn to be called with every wait the limiter imposes.
func WithWaitObserver(fn func(time.Duration)) Option {
	return func(rl *RateLimiter) {
		rl.onWait = fn
	}
}

// RateLimiter admits at most budget calls within any trailing window.
// It keeps the timestamps of admitted calls rather than a token count, so a
// blocked caller waits exactly until the oldest retained call leaves the window.
type RateLimiter struct {
	mu     sync.Mutex
	calls  []time.Time
	budget int
	window time.Duration
	clock  Clock
	onWait func(time.Duration)
}

// New creates a limiter. A budget <= 0 disables limiting.
func New(budget int, window time.Duration, opts ...Option) *RateLimiter {
	rl := &RateLimiter{
		budget: budget,
		window: window,
		clock:  realClock{},
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Acquire blocks until one more call fits in the window and records it.
// The wait is recomputed against the clock on every pass; the lock is never
// held while sleeping. It only returns an error when ctx is done.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	if rl.budget <= 0 {
		return nil
	}
	for {
		rl.mu.Lock()
		now := rl.clock.Now()
		rl.prune(now)
		if len(rl.calls) < rl.budget {
			rl.calls = append(rl.calls, now)
			rl.mu.Unlock()
			return nil
		}
		wait := rl.window - now.Sub(rl.calls[0]) + time.Second
		rl.mu.Unlock()

		if rl.onWait != nil {
			rl.onWait(wait)
		}
		if err := rl.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// InWindow returns the number of calls admitted within the trailing window.
func (rl *RateLimiter) InWindow() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.prune(rl.clock.Now())
	return len(rl.calls)
}

// Budget returns the configured maximum; <= 0 means unlimited.
func (rl *RateLimiter) Budget() int {
	return rl.budget
}

// prune drops calls that are window or more in the past. calls is ordered.
func (rl *RateLimiter) prune(now time.Time) {
	keep := 0
	for keep < len(rl.calls) && now.Sub(rl.calls[keep]) >= rl.window {
		keep++
	}
	if keep > 0 {
		rl.calls = append(rl.calls[:0], rl.calls[keep:]...)
	}
}
