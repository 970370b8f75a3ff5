package prompts

import (
	"strconv"
	"strings"

	"promptq/util"
)

// Values of the used column. Comparisons are case-insensitive.
const (
	UsedLocked = "LOCKED"
	UsedYes    = "yes"
	UsedFailed = "FAILED"
)

type State int

const (
	StateUnused State = iota
	StateLocked
	StateUsed
	StateFailed
	StateOther
)

func (s State) String() string {
	switch s {
	case StateUnused:
		return "unused"
	case StateLocked:
		return "locked"
	case StateUsed:
		return "used"
	case StateFailed:
		return "failed"
	default:
		return "other"
	}
}

// PromptRow is one data row projected through a ColumnIndex.
type PromptRow struct {
	// PhysicalRow is the 1-based sheet row, header being row 1.
	PhysicalRow int
	RowID       int
	// Valid is false when the rowId cell is not a positive integer.
	Valid     bool
	Topic     string
	Prompt    string
	Title     string
	Used      string
	LogID     string
	Timestamp string
	// Keywords holds the non-empty keyword* cells in header order.
	Keywords []string
	// Cells is the raw row padded to the header width.
	Cells []string
}

func (r PromptRow) State() State {
	used := strings.TrimSpace(r.Used)
	switch {
	case used == "":
		return StateUnused
	case util.SameFold(used, UsedLocked):
		return StateLocked
	case util.SameFold(used, UsedYes):
		return StateUsed
	case util.SameFold(used, UsedFailed):
		return StateFailed
	default:
		return StateOther
	}
}

// parseRowID accepts positive integers only. Sheets may render them as "7.0"
// when the cell is numeric-formatted, so a zero fraction is tolerated.
func parseRowID(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if id, err := strconv.Atoi(s); err == nil {
		return id, id > 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

func projectRow(ci *ColumnIndex, physicalRow int, raw []string) PromptRow {
	cells := make([]string, ci.Width())
	copy(cells, raw)

	cell := func(name string) string {
		if pos, ok := ci.Position(name); ok {
			return strings.TrimSpace(cells[pos])
		}
		return ""
	}

	row := PromptRow{
		PhysicalRow: physicalRow,
		Topic:       cell(ColTopic),
		Prompt:      cell(ColPrompt),
		Title:       cell(ColTitle),
		Used:        cell(ColUsed),
		LogID:       cell(ColLogID),
		Timestamp:   cell(ColTimestamp),
		Cells:       cells,
	}
	row.RowID, row.Valid = parseRowID(cell(ColRowID))
	for _, pos := range ci.KeywordColumns() {
		if kw := strings.TrimSpace(cells[pos]); kw != "" {
			row.Keywords = append(row.Keywords, kw)
		}
	}
	return row
}

// projectRows turns a data read starting at sheet row 2 into PromptRows.
// Blank rows are kept as invalid rows so they still separate topic blocks.
func projectRows(ci *ColumnIndex, values [][]string) []PromptRow {
	rows := make([]PromptRow, 0, len(values))
	for i, raw := range values {
		rows = append(rows, projectRow(ci, i+2, raw))
	}
	return rows
}

// FilterRows keeps the rows that are valid and in one of the given states.
func FilterRows(rows []PromptRow, states ...State) []PromptRow {
	var out []PromptRow
	for _, row := range rows {
		if !row.Valid {
			continue
		}
		st := row.State()
		for _, want := range states {
			if st == want {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// GroupByTopic groups rows by exact topic, keeping physical order inside a group.
func GroupByTopic(rows []PromptRow) map[string][]PromptRow {
	groups := make(map[string][]PromptRow)
	for _, row := range rows {
		groups[row.Topic] = append(groups[row.Topic], row)
	}
	return groups
}

func findRow(rows []PromptRow, rowID int) (PromptRow, bool) {
	for _, row := range rows {
		if row.Valid && row.RowID == rowID {
			return row, true
		}
	}
	return PromptRow{}, false
}
