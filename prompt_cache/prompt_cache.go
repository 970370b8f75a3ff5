// package prompt_cache provides the expiring cache that sits in front of the
// remote sheet. Entries are replaced wholesale, never updated in place, and
// write paths drop them by key substring.
package prompt_cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"

	"promptq/stats_collector"
)

const DefaultTTL = 300 * time.Second

// Clock is the time source used for TTL checks.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type entry struct {
	value    any
	storedAt time.Time
}

// TTLCache is a string keyed cache with a single global TTL.
type TTLCache struct {
	ttl   time.Duration
	clock Clock
	stats stats_collector.StatsCollector

	items *ttlcache.Cache[string, entry]
	group singleflight.Group

	// generation is bumped by every invalidation so a load that started
	// before an invalidation does not repopulate the cache afterwards.
	mu         sync.Mutex
	generation uint64
}

type Option func(*TTLCache)

func WithClock(clock Clock) Option {
	return func(c *TTLCache) {
		c.clock = clock
	}
}

func WithStats(stats stats_collector.StatsCollector) Option {
	return func(c *TTLCache) {
		c.stats = stats
	}
}

// New creates a cache. If ttl <= 0, DefaultTTL is used.
func New(ttl time.Duration, opts ...Option) *TTLCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &TTLCache{
		ttl:   ttl,
		clock: realClock{},
		stats: stats_collector.NewNoopStatsCollector(),
		items: ttlcache.New[string, entry](
			ttlcache.WithTTL[string, entry](ttl),
			ttlcache.WithDisableTouchOnHit[string, entry](),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured time-to-live.
func (c *TTLCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the value stored under key if it is younger than the TTL.
// A stale entry is evicted and reported as a miss.
func (c *TTLCache) Get(key string) (any, bool) {
	item := c.items.Get(key)
	if item == nil {
		c.stats.IncCacheLookups(keyKind(key), "miss")
		return nil, false
	}
	e := item.Value()
	if c.clock.Now().Sub(e.storedAt) >= c.ttl {
		c.items.Delete(key)
		c.stats.IncCacheLookups(keyKind(key), "expired")
		return nil, false
	}
	c.stats.IncCacheLookups(keyKind(key), "hit")
	return e.value, true
}

// Set stores value under key, replacing any previous entry.
func (c *TTLCache) Set(key string, value any) {
	c.items.Set(key, entry{value: value, storedAt: c.clock.Now()}, ttlcache.DefaultTTL)
}

// Invalidate removes every entry whose key contains pattern, or every entry
// when pattern is empty. It returns the number of entries removed.
func (c *TTLCache) Invalidate(pattern string) int {
	c.mu.Lock()
	c.generation++
	c.mu.Unlock()

	removed := 0
	if pattern == "" {
		removed = c.items.Len()
		c.items.DeleteAll()
	} else {
		for _, key := range c.items.Keys() {
			if strings.Contains(key, pattern) {
				c.items.Delete(key)
				removed++
			}
		}
	}
	if removed > 0 {
		c.stats.IncCacheInvalidations(float64(removed))
	}
	return removed
}

// Len returns the number of entries currently held, stale ones included.
func (c *TTLCache) Len() int {
	return c.items.Len()
}

func (c *TTLCache) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Run will run the auto-expiring goroutine until 'ctx' is
// cancelled.
func (c *TTLCache) Run(ctx context.Context) {
	doneCh := make(chan bool)

	go func() {
		defer close(doneCh)
		c.items.Start()
	}()

	<-ctx.Done()
	c.items.Stop()
	<-doneCh
}

// GetOrLoad returns the cached value for key or calls load to produce it.
// Concurrent misses on the same key share a single load. The shared load runs
// on a context detached from ctx's cancellation, so one caller going away
// does not fail the others; a caller whose own ctx ends stops waiting and
// gets ctx.Err(). The result is only cached if no invalidation happened while
// load was running.
func GetOrLoad[T any](ctx context.Context, c *TTLCache, key string, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if value, ok := c.Get(key); ok {
		if typed, ok := value.(T); ok {
			return typed, nil
		}
	}

	loadCtx := context.WithoutCancel(ctx)
	resultCh := c.group.DoChan(key, func() (interface{}, error) {
		generation := c.currentGeneration()
		loaded, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if c.currentGeneration() == generation {
			c.Set(key, loaded)
		}
		return loaded, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-resultCh:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func keyKind(key string) string {
	if kind, _, ok := strings.Cut(key, ":"); ok {
		return kind
	}
	return "other"
}
