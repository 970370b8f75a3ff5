package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Advance(d)
	c.mu.Lock()
	c.slept = append(c.slept, d)
	c.mu.Unlock()
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestAcquireWithinBudgetDoesNotWait(t *testing.T) {
	clock := newFakeClock()
	rl := New(3, 10*time.Second, WithClock(clock))

	for i := 0; i < 3; i++ {
		if err := rl.Acquire(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if len(clock.slept) != 0 {
		t.Errorf("expected no waits, got %v", clock.slept)
	}
	if rl.InWindow() != 3 {
		t.Errorf("expected 3 calls in window, got %d", rl.InWindow())
	}
}

func TestAcquireOverBudgetWaitsForOldestToExpire(t *testing.T) {
	clock := newFakeClock()
	rl := New(2, 10*time.Second, WithClock(clock))

	_ = rl.Acquire(context.Background())
	clock.Advance(4 * time.Second)
	_ = rl.Acquire(context.Background())
	clock.Advance(2 * time.Second)

	// oldest call is 6s old: wait = 10 - 6 + 1 = 5s
	if err := rl.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(clock.slept) != 1 || clock.slept[0] != 5*time.Second {
		t.Fatalf("expected a single 5s wait, got %v", clock.slept)
	}
}

func TestAcquireWindowProperty(t *testing.T) {
	clock := newFakeClock()
	budget := 5
	window := 20 * time.Second
	var admitted []time.Time
	rl := New(budget, window, WithClock(clock))

	steps := []time.Duration{0, 0, time.Second, 0, 3 * time.Second, 0, 0, 0, 7 * time.Second, 0, 0, 0, 0, 0, 30 * time.Second, 0, 0}
	for _, step := range steps {
		clock.Advance(step)
		if err := rl.Acquire(context.Background()); err != nil {
			t.Fatal(err)
		}
		admitted = append(admitted, clock.Now())
	}

	for i, at := range admitted {
		inWindow := 0
		for _, other := range admitted[:i+1] {
			if at.Sub(other) < window {
				inWindow++
			}
		}
		if inWindow > budget {
			t.Fatalf("call %d admitted with %d calls in trailing window (budget %d)", i, inWindow, budget)
		}
	}
}

func TestAcquireUnlimited(t *testing.T) {
	clock := newFakeClock()
	rl := New(0, time.Second, WithClock(clock))
	for i := 0; i < 100; i++ {
		if err := rl.Acquire(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if len(clock.slept) != 0 {
		t.Error("unlimited limiter should never wait")
	}
}

func TestAcquireHonoursCancelledContext(t *testing.T) {
	clock := newFakeClock()
	rl := New(1, time.Minute, WithClock(clock))
	_ = rl.Acquire(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rl.Acquire(ctx); err == nil {
		t.Fatal("expected context error while waiting")
	}
}

func TestWaitObserver(t *testing.T) {
	clock := newFakeClock()
	var observed []time.Duration
	rl := New(1, 10*time.Second, WithClock(clock), WithWaitObserver(func(d time.Duration) {
		observed = append(observed, d)
	}))
	_ = rl.Acquire(context.Background())
	_ = rl.Acquire(context.Background())
	if len(observed) != 1 || observed[0] != 11*time.Second {
		t.Errorf("expected one 11s wait, got %v", observed)
	}
}
