package prompts

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"promptq/intstripedmutex"
	"promptq/sheet"
)

var insertColumns = []string{ColRowID, ColTopic, ColPrompt, ColTitle, ColUsed}

// NewPrompt is one row to append. Keywords[i] lands in column keyword<i+1>.
type NewPrompt struct {
	Topic    string
	Prompt   string
	Title    string
	Keywords []string
}

type InsertResult struct {
	Inserted          int
	RemainingUnmarked int
	RowIDs            []int
}

// Inserter appends new prompt rows with sequential rowIds.
type Inserter struct {
	reader *RowReader
	store  sheet.Store
	locks  *intstripedmutex.IntStripedMutex
}

func NewInserter(reader *RowReader, store sheet.Store, locks *intstripedmutex.IntStripedMutex) *Inserter {
	return &Inserter{reader: reader, store: store, locks: locks}
}

func validatePrompts(prompts []NewPrompt) error {
	if len(prompts) == 0 {
		return &ValidationError{Field: "prompts", Reason: "no prompts supplied"}
	}
	for i, p := range prompts {
		if strings.TrimSpace(p.Prompt) == "" {
			return &ValidationError{Field: fmt.Sprintf("prompts[%d].prompt", i), Reason: "must not be empty"}
		}
	}
	return nil
}

// Insert appends prompts after the existing data in a single call. rowIds
// continue from the largest one present; appends racing from another process
// can still collide.
func (in *Inserter) Insert(ctx context.Context, prompts []NewPrompt) (InsertResult, error) {
	if err := validatePrompts(prompts); err != nil {
		return InsertResult{}, err
	}

	unlock := in.locks.LockString(in.reader.Table().Key())
	defer unlock()

	ci, err := in.reader.Metadata(ctx)
	if err != nil {
		return InsertResult{}, err
	}
	if err := ci.Require(insertColumns...); err != nil {
		return InsertResult{}, err
	}
	in.reader.Invalidate()

	rows, err := in.reader.FreshRows(ctx, ci)
	if err != nil {
		return InsertResult{}, err
	}

	maxID, remaining := 0, 0
	for _, row := range rows {
		if !row.Valid {
			continue
		}
		if row.RowID > maxID {
			maxID = row.RowID
		}
		if row.State() != StateUsed {
			remaining++
		}
	}

	result := InsertResult{RowIDs: make([]int, 0, len(prompts))}
	values := make([][]string, 0, len(prompts))
	for i, p := range prompts {
		id := maxID + 1 + i
		values = append(values, buildRow(ci, id, p))
		result.RowIDs = append(result.RowIDs, id)
	}

	defer in.reader.Invalidate()
	if err := in.store.Append(ctx, sheet.CellRange(in.reader.Table().Sheet, 0, 1), values); err != nil {
		return InsertResult{}, upstream("append", err)
	}

	result.Inserted = len(values)
	result.RemainingUnmarked = remaining + result.Inserted
	log.Infof("Prompts: inserted %d rows (rowId %d..%d), %d unmarked", result.Inserted, maxID+1, maxID+result.Inserted, result.RemainingUnmarked)
	return result, nil
}

func buildRow(ci *ColumnIndex, rowID int, p NewPrompt) []string {
	cells := make([]string, ci.Width())
	cells[ci.mustPosition(ColRowID)] = strconv.Itoa(rowID)
	cells[ci.mustPosition(ColTopic)] = strings.TrimSpace(p.Topic)
	cells[ci.mustPosition(ColPrompt)] = strings.TrimSpace(p.Prompt)
	cells[ci.mustPosition(ColTitle)] = strings.TrimSpace(p.Title)
	for i, kw := range p.Keywords {
		if i >= MaxKeywords {
			break
		}
		if pos, ok := ci.KeywordColumn(i + 1); ok {
			cells[pos] = strings.TrimSpace(kw)
		}
	}
	return cells
}
