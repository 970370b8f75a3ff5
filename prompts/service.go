package prompts

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"promptq/consumer_tracker"
	"promptq/intstripedmutex"
	"promptq/journal"
	"promptq/prompt_cache"
	"promptq/sheet"
	"promptq/stats_collector"
)

// Service is the prompt queue for one table.
type Service struct {
	reader      *RowReader
	allocator   *Allocator
	transitions *Transitions
	inserter    *Inserter

	stats     stats_collector.StatsCollector
	journal   journal.Journal
	consumers *consumer_tracker.ConsumerTracker
	now       func() time.Time
}

type Options struct {
	Location  *time.Location
	Stats     stats_collector.StatsCollector
	Journal   journal.Journal
	Consumers *consumer_tracker.ConsumerTracker
	Now       func() time.Time
}

func NewService(store sheet.Store, table sheet.Table, cache *prompt_cache.TTLCache, opts Options) *Service {
	if opts.Stats == nil {
		opts.Stats = stats_collector.NewNoopStatsCollector()
	}
	if opts.Journal == nil {
		opts.Journal = journal.NewNoopJournal()
	}
	if opts.Consumers == nil {
		opts.Consumers = consumer_tracker.NewConsumerTracker(time.Hour)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	locks := intstripedmutex.New(64)
	reader := NewRowReader(store, table, cache)
	return &Service{
		reader:      reader,
		allocator:   NewAllocator(reader),
		transitions: NewTransitions(reader, store, locks, WithLocation(opts.Location), WithNow(opts.Now)),
		inserter:    NewInserter(reader, store, locks),
		stats:       opts.Stats,
		journal:     opts.Journal,
		consumers:   opts.Consumers,
		now:         opts.Now,
	}
}

func (s *Service) Consumers() *consumer_tracker.ConsumerTracker {
	return s.consumers
}

func (s *Service) Journal() journal.Journal {
	return s.journal
}

func (s *Service) record(op string, rows int, err error) {
	status := "ok"
	var notFound *NotFoundError
	var validation *ValidationError
	var conflict *ConflictError
	switch {
	case err == nil:
	case errors.As(err, &notFound):
		status = "not_found"
	case errors.As(err, &conflict):
		status = "conflict"
	case errors.As(err, &validation):
		status = "invalid"
	default:
		status = "error"
	}
	s.stats.IncPromptOperations(op, status)
	if err == nil && rows > 0 {
		s.stats.AddPromptRows(op, float64(rows))
	}
}

func (s *Service) writeJournal(ctx context.Context, op, topic, logID string, rowIDs []int) {
	entry := journal.NewEntry(op, s.reader.Table().Sheet, topic, logID, rowIDs, s.now())
	if err := s.journal.Record(ctx, entry); err != nil {
		log.Warnf("Prompts: failed to journal %s: %s", op, err)
	}
}

func (s *Service) NextPromptBatch(ctx context.Context) ([]BatchItem, error) {
	batch, err := s.allocator.Next(ctx)
	s.record("next_batch", len(batch), err)
	return batch, err
}

func (s *Service) Lock(ctx context.Context, rowID int, logID string) (LockResult, error) {
	result, err := s.transitions.Lock(ctx, rowID, logID)
	s.record("lock", len(result.RowIDs), err)
	if err != nil {
		return result, err
	}
	s.consumers.RecordClaim(logID, len(result.RowIDs))
	s.writeJournal(ctx, "lock", result.Topic, logID, result.RowIDs)
	return result, nil
}

func (s *Service) MarkUsed(ctx context.Context, rowIDs []int, logID string) (int, error) {
	marked, err := s.transitions.MarkUsed(ctx, rowIDs, logID)
	s.record("mark_used", marked, err)
	if err != nil {
		return 0, err
	}
	s.consumers.RecordMarked(logID, marked)
	s.writeJournal(ctx, "mark_used", "", logID, rowIDs)
	return marked, nil
}

func (s *Service) MarkFailed(ctx context.Context, rowIDs []int, logID string) (int, error) {
	marked, err := s.transitions.MarkFailed(ctx, rowIDs, logID)
	s.record("mark_failed", marked, err)
	if err != nil {
		return 0, err
	}
	s.consumers.RecordFailed(logID, marked)
	s.writeJournal(ctx, "mark_failed", "", logID, rowIDs)
	return marked, nil
}

func (s *Service) Clear(ctx context.Context, rowID int) (int, error) {
	cleared, err := s.transitions.Clear(ctx, rowID)
	s.record("clear", cleared, err)
	if err != nil {
		return 0, err
	}
	s.writeJournal(ctx, "clear", "", "", []int{rowID})
	return cleared, nil
}

func (s *Service) Insert(ctx context.Context, prompts []NewPrompt) (InsertResult, error) {
	result, err := s.inserter.Insert(ctx, prompts)
	s.record("insert", result.Inserted, err)
	if err != nil {
		return result, err
	}
	s.writeJournal(ctx, "insert", "", "", result.RowIDs)
	return result, nil
}

// Status counts rows per state.
type Status struct {
	Total   int `json:"total"`
	Unused  int `json:"unused"`
	Locked  int `json:"locked"`
	Used    int `json:"used"`
	Failed  int `json:"failed"`
	Other   int `json:"other"`
	Invalid int `json:"invalid"`
}

func (s *Service) Status(ctx context.Context) (Status, error) {
	rows, _, err := s.reader.Rows(ctx)
	if err != nil {
		return Status{}, err
	}
	var st Status
	for _, row := range rows {
		if !row.Valid {
			st.Invalid++
			continue
		}
		st.Total++
		switch row.State() {
		case StateUnused:
			st.Unused++
		case StateLocked:
			st.Locked++
		case StateUsed:
			st.Used++
		case StateFailed:
			st.Failed++
		default:
			st.Other++
		}
	}
	return st, nil
}

// InvalidateCache drops every cached entry of the table.
func (s *Service) InvalidateCache() int {
	return s.reader.Invalidate()
}
