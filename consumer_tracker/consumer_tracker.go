package consumer_tracker

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/puzpuzpuz/xsync/v3"
)

type counters struct {
	Claimed int
	Marked  int
	Failed  int
}

// Activity is what is known about one log_id.
type Activity struct {
	LastSeen int64 `json:"last_seen"`
	Claimed  int   `json:"claimed"`
	Marked   int   `json:"marked"`
	Failed   int   `json:"failed"`
}

// ConsumerTracker remembers which log_ids recently claimed or finished
// prompts. Consumers silent for longer than the TTL are forgotten.
type ConsumerTracker struct {
	maxConsumerTTL time.Duration
	lastSeen       *ttlcache.Cache[string, int64]
	counters       *xsync.MapOf[string, counters]
}

func NewConsumerTracker(maxConsumerTTL time.Duration) *ConsumerTracker {
	if maxConsumerTTL <= 0 {
		maxConsumerTTL = time.Hour
	}
	tracker := &ConsumerTracker{
		maxConsumerTTL: maxConsumerTTL,
		lastSeen: ttlcache.New[string, int64](
			ttlcache.WithTTL[string, int64](maxConsumerTTL),
		),
		counters: xsync.NewMapOf[string, counters](),
	}
	tracker.lastSeen.OnEviction(func(_ context.Context, _ ttlcache.EvictionReason, item *ttlcache.Item[string, int64]) {
		tracker.counters.Delete(item.Key())
	})
	return tracker
}

func (tracker *ConsumerTracker) touch(logId string, update func(c *counters)) {
	if logId == "" {
		return
	}
	tracker.lastSeen.Set(logId, time.Now().Unix(), tracker.maxConsumerTTL)
	tracker.counters.Compute(logId, func(c counters, _ bool) (counters, bool) {
		update(&c)
		return c, false
	})
}

func (tracker *ConsumerTracker) RecordClaim(logId string, rows int) {
	tracker.touch(logId, func(c *counters) { c.Claimed += rows })
}

func (tracker *ConsumerTracker) RecordMarked(logId string, rows int) {
	tracker.touch(logId, func(c *counters) { c.Marked += rows })
}

func (tracker *ConsumerTracker) RecordFailed(logId string, rows int) {
	tracker.touch(logId, func(c *counters) { c.Failed += rows })
}

// Snapshot returns the activity of every consumer still within the TTL.
func (tracker *ConsumerTracker) Snapshot() map[string]Activity {
	out := make(map[string]Activity)
	for _, item := range tracker.lastSeen.Items() {
		if item.IsExpired() {
			continue
		}
		c, _ := tracker.counters.Load(item.Key())
		out[item.Key()] = Activity{
			LastSeen: item.Value(),
			Claimed:  c.Claimed,
			Marked:   c.Marked,
			Failed:   c.Failed,
		}
	}
	return out
}

func (tracker *ConsumerTracker) Run(ctx context.Context) {
	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()
	go func() {
		defer tracker.lastSeen.Stop()
		<-ctx.Done()
	}()
	tracker.lastSeen.Start()
}
