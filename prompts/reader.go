package prompts

import (
	"context"

	log "github.com/sirupsen/logrus"

	"promptq/prompt_cache"
	"promptq/sheet"
)

// RowReader fetches and projects rows of one table, consulting the cache first.
type RowReader struct {
	store sheet.Store
	table sheet.Table
	cache *prompt_cache.TTLCache
}

type rowSnapshot struct {
	ci   *ColumnIndex
	rows []PromptRow
}

func NewRowReader(store sheet.Store, table sheet.Table, cache *prompt_cache.TTLCache) *RowReader {
	return &RowReader{store: store, table: table, cache: cache}
}

func (r *RowReader) Table() sheet.Table {
	return r.table
}

func (r *RowReader) metaKey() string {
	return "meta:" + r.table.Key()
}

func (r *RowReader) rowsKey() string {
	return "rows:" + r.table.Key()
}

// Metadata returns the column index, costing two remote calls on a miss.
func (r *RowReader) Metadata(ctx context.Context) (*ColumnIndex, error) {
	return prompt_cache.GetOrLoad(ctx, r.cache, r.metaKey(), func(ctx context.Context) (*ColumnIndex, error) {
		return r.loadMetadata(ctx)
	})
}

func (r *RowReader) loadMetadata(ctx context.Context) (*ColumnIndex, error) {
	props, err := r.store.GetProperties(ctx, r.table.Sheet)
	if err != nil {
		return nil, upstream("get_properties", err)
	}
	width := props.ColumnCount
	if width < 1 {
		width = 1
	}
	values, err := r.store.GetValues(ctx, sheet.HeaderRange(r.table.Sheet, width))
	if err != nil {
		return nil, upstream("get_header", err)
	}
	var headers []string
	if len(values) > 0 {
		headers = values[0]
	}
	ci, err := NewColumnIndex(headers, props.RowCount)
	if err != nil {
		return nil, err
	}
	log.Debugf("Prompts: resolved %d columns for %s (%d rows)", ci.Width(), r.table.Key(), props.RowCount)
	return ci, nil
}

// Rows returns every data row, served from the cache when possible.
// The returned slice is shared and must not be modified.
func (r *RowReader) Rows(ctx context.Context) ([]PromptRow, *ColumnIndex, error) {
	ci, err := r.Metadata(ctx)
	if err != nil {
		return nil, nil, err
	}
	snap, err := prompt_cache.GetOrLoad(ctx, r.cache, r.rowsKey(), func(ctx context.Context) (rowSnapshot, error) {
		rows, err := r.readRows(ctx, ci)
		if err != nil {
			return rowSnapshot{}, err
		}
		return rowSnapshot{ci: ci, rows: rows}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return snap.rows, snap.ci, nil
}

// FreshRows reads every data row from the store, bypassing the cache.
func (r *RowReader) FreshRows(ctx context.Context, ci *ColumnIndex) ([]PromptRow, error) {
	return r.readRows(ctx, ci)
}

func (r *RowReader) readRows(ctx context.Context, ci *ColumnIndex) ([]PromptRow, error) {
	values, err := r.store.GetValues(ctx, sheet.DataRange(r.table.Sheet, 2, ci.Width()))
	if err != nil {
		return nil, upstream("get_rows", err)
	}
	return projectRows(ci, values), nil
}

// PhysicalID pairs a rowId with the sheet row holding it.
type PhysicalID struct {
	PhysicalRow int
	RowID       int
}

// RowIDColumn reads only the rowId column. Cells that are not positive
// integers are skipped.
func (r *RowReader) RowIDColumn(ctx context.Context, ci *ColumnIndex) ([]PhysicalID, error) {
	col := ci.mustPosition(ColRowID)
	values, err := r.store.GetValues(ctx, sheet.ColumnRange(r.table.Sheet, col, 2))
	if err != nil {
		return nil, upstream("get_row_ids", err)
	}
	ids := make([]PhysicalID, 0, len(values))
	for i, cells := range values {
		if len(cells) == 0 {
			continue
		}
		if id, ok := parseRowID(cells[0]); ok {
			ids = append(ids, PhysicalID{PhysicalRow: i + 2, RowID: id})
		}
	}
	return ids, nil
}

// Invalidate drops every cached entry belonging to the table.
func (r *RowReader) Invalidate() int {
	return r.cache.Invalidate(r.table.Key())
}
