// Package sheet is the boundary to the remote tabular store. Everything above
// it speaks in A1 ranges and string cells; the adapters deal with the wire.
package sheet

import (
	"context"
	"errors"
)

var ErrSheetNotFound = errors.New("sheet: worksheet not found")

// Table identifies one worksheet inside one spreadsheet.
type Table struct {
	SpreadsheetID string
	Sheet         string
}

// Key is the identity used to scope cache entries for this table. Every cache
// key built for the table contains it, so it doubles as the invalidation pattern.
func (t Table) Key() string {
	return t.SpreadsheetID + ":" + t.Sheet
}

type Properties struct {
	Title       string
	RowCount    int
	ColumnCount int
}

// CellUpdate is one range of a batched write.
type CellUpdate struct {
	Range  string
	Values [][]string
}

// Store is the subset of the remote spreadsheet API the service consumes.
type Store interface {
	GetValues(ctx context.Context, rng string) ([][]string, error)
	GetProperties(ctx context.Context, sheetName string) (Properties, error)
	Append(ctx context.Context, rng string, rows [][]string) error
	BatchUpdate(ctx context.Context, updates []CellUpdate) error
}
