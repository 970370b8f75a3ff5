package sheet

import (
	"context"

	log "github.com/sirupsen/logrus"

	"promptq/stats_collector"
)

// Acquirer is satisfied by ratelimit.RateLimiter.
type Acquirer interface {
	Acquire(ctx context.Context) error
}

var _ Store = (*LimitedStore)(nil)

// LimitedStore gates every call to the wrapped Store behind exactly one
// Acquire and records the outcome.
type LimitedStore struct {
	inner   Store
	limiter Acquirer
	stats   stats_collector.StatsCollector
}

func NewLimitedStore(inner Store, limiter Acquirer, stats stats_collector.StatsCollector) *LimitedStore {
	if stats == nil {
		stats = stats_collector.NewNoopStatsCollector()
	}
	return &LimitedStore{inner: inner, limiter: limiter, stats: stats}
}

func (s *LimitedStore) GetValues(ctx context.Context, rng string) ([][]string, error) {
	if err := s.acquire(ctx, "get_values"); err != nil {
		return nil, err
	}
	values, err := s.inner.GetValues(ctx, rng)
	s.record("get_values", rng, err)
	return values, err
}

func (s *LimitedStore) GetProperties(ctx context.Context, sheetName string) (Properties, error) {
	if err := s.acquire(ctx, "get_properties"); err != nil {
		return Properties{}, err
	}
	props, err := s.inner.GetProperties(ctx, sheetName)
	s.record("get_properties", sheetName, err)
	return props, err
}

func (s *LimitedStore) Append(ctx context.Context, rng string, rows [][]string) error {
	if err := s.acquire(ctx, "append"); err != nil {
		return err
	}
	err := s.inner.Append(ctx, rng, rows)
	s.record("append", rng, err)
	return err
}

func (s *LimitedStore) BatchUpdate(ctx context.Context, updates []CellUpdate) error {
	if err := s.acquire(ctx, "batch_update"); err != nil {
		return err
	}
	err := s.inner.BatchUpdate(ctx, updates)
	s.record("batch_update", "", err)
	return err
}

func (s *LimitedStore) acquire(ctx context.Context, op string) error {
	if err := s.limiter.Acquire(ctx); err != nil {
		s.stats.IncRemoteCalls(op, "cancelled")
		return err
	}
	return nil
}

func (s *LimitedStore) record(op, target string, err error) {
	if err != nil {
		s.stats.IncRemoteCalls(op, "error")
		log.Warnf("Sheet: %s %s failed: %s", op, target, err)
		return
	}
	s.stats.IncRemoteCalls(op, "ok")
	log.Debugf("Sheet: %s %s", op, target)
}
