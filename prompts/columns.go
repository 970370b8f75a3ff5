package prompts

import (
	"strconv"
	"strings"
)

const (
	ColRowID     = "rowId"
	ColTopic     = "topic"
	ColPrompt    = "prompt"
	ColTitle     = "title"
	ColUsed      = "used"
	ColLogID     = "log_id"
	ColTimestamp = "timestamp"

	keywordPrefix = "keyword"
)

// ReadColumns must exist for the index to be valid at all.
var ReadColumns = []string{ColRowID, ColTopic, ColPrompt, ColUsed}

// DefaultHeaders is the layout used when a fresh table has to be created.
var DefaultHeaders = []string{
	ColRowID, ColTopic, ColPrompt, ColTitle,
	"keyword1", "keyword2", "keyword3", "keyword4", "keyword5",
	"keyword6", "keyword7", "keyword8", "keyword9", "keyword10",
	ColUsed, ColLogID, ColTimestamp,
}

// ColumnIndex is the header row of one table generation resolved to positions.
// It is immutable; a changed header produces a new index.
type ColumnIndex struct {
	headers   []string
	positions map[string]int
	keywords  []int
	rowCount  int
}

// NewColumnIndex resolves a header row. Blank header cells are ignored.
func NewColumnIndex(headers []string, rowCount int) (*ColumnIndex, error) {
	ci := &ColumnIndex{
		headers:   make([]string, len(headers)),
		positions: make(map[string]int, len(headers)),
		rowCount:  rowCount,
	}
	var duplicates []string
	for i, header := range headers {
		name := strings.TrimSpace(header)
		ci.headers[i] = name
		if name == "" {
			continue
		}
		if _, seen := ci.positions[name]; seen {
			duplicates = append(duplicates, name)
			continue
		}
		ci.positions[name] = i
		if strings.HasPrefix(strings.ToLower(name), keywordPrefix) {
			ci.keywords = append(ci.keywords, i)
		}
	}
	if len(duplicates) > 0 {
		return nil, &SchemaError{Duplicate: duplicates}
	}
	if err := ci.Require(ReadColumns...); err != nil {
		return nil, err
	}
	return ci, nil
}

// Require returns a SchemaError naming every absent column.
func (ci *ColumnIndex) Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, ok := ci.positions[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

func (ci *ColumnIndex) Position(name string) (int, bool) {
	pos, ok := ci.positions[name]
	return pos, ok
}

// mustPosition is for columns already checked by Require.
func (ci *ColumnIndex) mustPosition(name string) int {
	pos, ok := ci.positions[name]
	if !ok {
		panic("prompts: column " + name + " used without Require")
	}
	return pos
}

// Width is the number of header cells, blank ones included.
func (ci *ColumnIndex) Width() int {
	return len(ci.headers)
}

func (ci *ColumnIndex) Headers() []string {
	return append([]string(nil), ci.headers...)
}

// RowCount is the row capacity reported by the sheet properties.
func (ci *ColumnIndex) RowCount() int {
	return ci.rowCount
}

// KeywordColumns returns the positions of keyword* headers in header order.
func (ci *ColumnIndex) KeywordColumns() []int {
	return append([]int(nil), ci.keywords...)
}

// KeywordColumn finds the column named keyword<n>, ignoring case.
func (ci *ColumnIndex) KeywordColumn(n int) (int, bool) {
	want := keywordPrefix + strconv.Itoa(n)
	for _, pos := range ci.keywords {
		if strings.EqualFold(ci.headers[pos], want) {
			return pos, true
		}
	}
	return 0, false
}
