package prompts

import (
	"context"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"promptq/intstripedmutex"
	"promptq/sheet"
)

const (
	TimestampLayout = "2006-01-02 15:04:05"
	DefaultZone     = "Asia/Bangkok"
)

// DefaultLocation is DefaultZone, or a fixed UTC+7 zone when the tz
// database is unavailable. Bangkok has no daylight saving.
func DefaultLocation() *time.Location {
	if loc, err := time.LoadLocation(DefaultZone); err == nil {
		return loc
	}
	return time.FixedZone("ICT", 7*60*60)
}

var writeColumns = []string{ColUsed, ColLogID, ColTimestamp}

// LockResult lists the used cells written by a lock, in A1 notation.
type LockResult struct {
	Topic       string
	RowIDs      []int
	LockedCells []string
}

// Transitions moves rows between unused, locked, used, failed and back.
// Writes for one table are serialised in process only; two instances can
// still claim the same block.
type Transitions struct {
	reader   *RowReader
	store    sheet.Store
	locks    *intstripedmutex.IntStripedMutex
	location *time.Location
	now      func() time.Time
}

type TransitionOption func(*Transitions)

func WithLocation(loc *time.Location) TransitionOption {
	return func(t *Transitions) {
		if loc != nil {
			t.location = loc
		}
	}
}

func WithNow(now func() time.Time) TransitionOption {
	return func(t *Transitions) {
		t.now = now
	}
}

func NewTransitions(reader *RowReader, store sheet.Store, locks *intstripedmutex.IntStripedMutex, opts ...TransitionOption) *Transitions {
	t := &Transitions{
		reader:   reader,
		store:    store,
		locks:    locks,
		location: DefaultLocation(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transitions) timestamp() string {
	return t.now().In(t.location).Format(TimestampLayout)
}

// prepare resolves the column index, checks the write columns and drops the
// table's cache entries. The caller must hold the table lock.
func (t *Transitions) prepare(ctx context.Context, required ...string) (*ColumnIndex, error) {
	ci, err := t.reader.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	if err := ci.Require(required...); err != nil {
		return nil, err
	}
	t.reader.Invalidate()
	return ci, nil
}

func (t *Transitions) write(ctx context.Context, op string, updates []sheet.CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	defer t.reader.Invalidate()
	if err := t.store.BatchUpdate(ctx, updates); err != nil {
		return upstream(op, err)
	}
	return nil
}

// Lock claims the unused rows of rowID's topic for logID. Locking a topic
// that logID already fully holds is a no-op; one fully held by another
// consumer is a ConflictError.
func (t *Transitions) Lock(ctx context.Context, rowID int, logID string) (LockResult, error) {
	unlock := t.locks.LockString(t.reader.Table().Key())
	defer unlock()

	ci, err := t.prepare(ctx, ColUsed, ColLogID)
	if err != nil {
		return LockResult{}, err
	}
	rows, err := t.reader.FreshRows(ctx, ci)
	if err != nil {
		return LockResult{}, err
	}

	candidates := FilterRows(rows, StateUnused, StateLocked)
	target, ok := findRow(candidates, rowID)
	if !ok {
		return LockResult{}, &NotFoundError{What: fmt.Sprintf("unused rowId %d", rowID)}
	}

	result := LockResult{Topic: target.Topic, RowIDs: []int{}, LockedCells: []string{}}
	usedCol := ci.mustPosition(ColUsed)
	values := map[string]string{ColUsed: UsedLocked, ColLogID: logID}
	if _, ok := ci.Position(ColTimestamp); ok {
		values[ColTimestamp] = t.timestamp()
	}

	var updates []sheet.CellUpdate
	for _, row := range GroupByTopic(candidates)[target.Topic] {
		if row.State() != StateUnused {
			continue
		}
		updates = append(updates, rowUpdates(t.reader.Table().Sheet, ci, row.PhysicalRow, values)...)
		result.RowIDs = append(result.RowIDs, row.RowID)
		result.LockedCells = append(result.LockedCells, sheet.CellRange(t.reader.Table().Sheet, usedCol, row.PhysicalRow))
	}
	if len(updates) == 0 && target.LogID != logID {
		return LockResult{}, &ConflictError{What: fmt.Sprintf("topic %q", target.Topic), Holder: target.LogID}
	}
	if err := t.write(ctx, "lock", updates); err != nil {
		return LockResult{}, err
	}
	log.Infof("Prompts: %s locked %d rows of topic %q", logID, len(result.RowIDs), target.Topic)
	return result, nil
}

// MarkUsed finalises rowIDs as used by logID. Unknown ids are ignored.
func (t *Transitions) MarkUsed(ctx context.Context, rowIDs []int, logID string) (int, error) {
	return t.mark(ctx, "mark_used", UsedYes, rowIDs, logID)
}

// MarkFailed records a failed attempt on rowIDs.
func (t *Transitions) MarkFailed(ctx context.Context, rowIDs []int, logID string) (int, error) {
	return t.mark(ctx, "mark_failed", UsedFailed, rowIDs, logID)
}

func (t *Transitions) mark(ctx context.Context, op, used string, rowIDs []int, logID string) (int, error) {
	unlock := t.locks.LockString(t.reader.Table().Key())
	defer unlock()

	ci, err := t.prepare(ctx, writeColumns...)
	if err != nil {
		return 0, err
	}
	ids, err := t.reader.RowIDColumn(ctx, ci)
	if err != nil {
		return 0, err
	}

	wanted := make(map[int]struct{}, len(rowIDs))
	for _, id := range rowIDs {
		wanted[id] = struct{}{}
	}
	values := map[string]string{ColUsed: used, ColLogID: logID, ColTimestamp: t.timestamp()}

	var updates []sheet.CellUpdate
	marked := 0
	for _, id := range ids {
		if _, ok := wanted[id.RowID]; !ok {
			continue
		}
		updates = append(updates, rowUpdates(t.reader.Table().Sheet, ci, id.PhysicalRow, values)...)
		marked++
	}
	if err := t.write(ctx, op, updates); err != nil {
		return 0, err
	}
	log.Infof("Prompts: %s marked %d rows %s", logID, marked, used)
	return marked, nil
}

// Clear returns the unused, locked and failed rows of rowID's topic to unused.
func (t *Transitions) Clear(ctx context.Context, rowID int) (int, error) {
	unlock := t.locks.LockString(t.reader.Table().Key())
	defer unlock()

	ci, err := t.prepare(ctx, writeColumns...)
	if err != nil {
		return 0, err
	}
	rows, err := t.reader.FreshRows(ctx, ci)
	if err != nil {
		return 0, err
	}
	target, ok := findRow(rows, rowID)
	if !ok {
		return 0, &NotFoundError{What: fmt.Sprintf("rowId %d", rowID)}
	}

	values := map[string]string{ColUsed: "", ColLogID: "", ColTimestamp: ""}
	var updates []sheet.CellUpdate
	cleared := 0
	for _, row := range FilterRows(rows, StateUnused, StateLocked, StateFailed) {
		if row.Topic != target.Topic {
			continue
		}
		updates = append(updates, rowUpdates(t.reader.Table().Sheet, ci, row.PhysicalRow, values)...)
		cleared++
	}
	if err := t.write(ctx, "clear", updates); err != nil {
		return 0, err
	}
	log.Infof("Prompts: cleared %d rows of topic %q", cleared, target.Topic)
	return cleared, nil
}

// rowUpdates writes values into one sheet row, merging adjacent columns
// into a single range.
func rowUpdates(sheetName string, ci *ColumnIndex, physicalRow int, values map[string]string) []sheet.CellUpdate {
	byCol := make(map[int]string, len(values))
	cols := make([]int, 0, len(values))
	for name, value := range values {
		pos, ok := ci.Position(name)
		if !ok {
			continue
		}
		byCol[pos] = value
		cols = append(cols, pos)
	}
	sort.Ints(cols)

	var updates []sheet.CellUpdate
	for i := 0; i < len(cols); {
		j := i
		for j+1 < len(cols) && cols[j+1] == cols[j]+1 {
			j++
		}
		span := make([]string, 0, j-i+1)
		for _, col := range cols[i : j+1] {
			span = append(span, byCol[col])
		}
		updates = append(updates, sheet.CellUpdate{
			Range:  sheet.RowSpanRange(sheetName, physicalRow, cols[i], cols[j]),
			Values: [][]string{span},
		})
		i = j + 1
	}
	return updates
}
