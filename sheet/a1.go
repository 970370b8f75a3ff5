package sheet

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnLetter converts a zero-based column index into its A1 letter form
// (0 -> A, 25 -> Z, 26 -> AA, 701 -> ZZ). Negative indexes return "".
func ColumnLetter(index int) string {
	if index < 0 {
		return ""
	}
	var buf []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		buf = append([]byte{byte('A' + (n-1)%26)}, buf...)
	}
	return string(buf)
}

// ColumnNumber is the inverse of ColumnLetter.
func ColumnNumber(letters string) (int, error) {
	if letters == "" {
		return 0, fmt.Errorf("sheet: empty column letters")
	}
	n := 0
	for _, ch := range strings.ToUpper(letters) {
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("sheet: invalid column letters %q", letters)
		}
		n = n*26 + int(ch-'A'+1)
	}
	return n - 1, nil
}

// Range is a rectangular A1 range on one worksheet. Rows are 1-based.
// EndRow == 0 means "to the last row".
type Range struct {
	Sheet    string
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

func (r Range) String() string {
	start := ColumnLetter(r.StartCol) + strconv.Itoa(r.StartRow)
	if r.EndCol == r.StartCol && r.EndRow == r.StartRow {
		return quoteSheet(r.Sheet) + "!" + start
	}
	end := ColumnLetter(r.EndCol)
	if r.EndRow > 0 {
		end += strconv.Itoa(r.EndRow)
	}
	return quoteSheet(r.Sheet) + "!" + start + ":" + end
}

// ParseRange parses the subset of A1 notation this service emits:
// "Sheet!A2:H", "Sheet!A1:H1", "Sheet!C2:C" and "Sheet!F7".
func ParseRange(s string) (Range, error) {
	bang := strings.LastIndex(s, "!")
	if bang <= 0 {
		return Range{}, fmt.Errorf("sheet: range %q has no sheet name", s)
	}
	r := Range{Sheet: unquoteSheet(s[:bang])}
	start, end, isSpan := strings.Cut(s[bang+1:], ":")

	col, row, err := parseCell(start)
	if err != nil {
		return Range{}, err
	}
	if row == 0 {
		return Range{}, fmt.Errorf("sheet: range %q start needs a row", s)
	}
	r.StartCol, r.StartRow = col, row
	if !isSpan {
		r.EndCol, r.EndRow = col, row
		return r, nil
	}
	if r.EndCol, r.EndRow, err = parseCell(end); err != nil {
		return Range{}, err
	}
	if r.EndCol < r.StartCol || (r.EndRow != 0 && r.EndRow < r.StartRow) {
		return Range{}, fmt.Errorf("sheet: range %q is inverted", s)
	}
	return r, nil
}

func parseCell(s string) (int, int, error) {
	i := 0
	for i < len(s) && (s[i] >= 'A' && s[i] <= 'Z' || s[i] >= 'a' && s[i] <= 'z') {
		i++
	}
	col, err := ColumnNumber(s[:i])
	if err != nil {
		return 0, 0, err
	}
	if i == len(s) {
		return col, 0, nil
	}
	row, err := strconv.Atoi(s[i:])
	if err != nil || row <= 0 {
		return 0, 0, fmt.Errorf("sheet: invalid row in cell %q", s)
	}
	return col, row, nil
}

// HeaderRange covers row 1 across width columns.
func HeaderRange(sheetName string, width int) string {
	return Range{Sheet: sheetName, StartCol: 0, StartRow: 1, EndCol: lastCol(width), EndRow: 1}.String()
}

// DataRange covers every row from fromRow down across width columns.
func DataRange(sheetName string, fromRow, width int) string {
	return Range{Sheet: sheetName, StartCol: 0, StartRow: fromRow, EndCol: lastCol(width)}.String()
}

// ColumnRange covers one column from fromRow down.
func ColumnRange(sheetName string, col, fromRow int) string {
	return Range{Sheet: sheetName, StartCol: col, StartRow: fromRow, EndCol: col}.String()
}

// CellRange addresses a single cell.
func CellRange(sheetName string, col, row int) string {
	return Range{Sheet: sheetName, StartCol: col, StartRow: row, EndCol: col, EndRow: row}.String()
}

// RowSpanRange addresses columns [fromCol, toCol] of a single row.
func RowSpanRange(sheetName string, row, fromCol, toCol int) string {
	return Range{Sheet: sheetName, StartCol: fromCol, StartRow: row, EndCol: toCol, EndRow: row}.String()
}

func lastCol(width int) int {
	if width < 1 {
		return 0
	}
	return width - 1
}

func quoteSheet(name string) string {
	for _, ch := range name {
		if !(ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9' || ch == '_') {
			return "'" + strings.ReplaceAll(name, "'", "''") + "'"
		}
	}
	return name
}

func unquoteSheet(name string) string {
	if len(name) >= 2 && name[0] == '\'' && name[len(name)-1] == '\'' {
		return strings.ReplaceAll(name[1:len(name)-1], "''", "'")
	}
	return name
}
