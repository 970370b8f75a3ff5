package sheet

import (
	"context"
	"fmt"
	"os"
	"sync"

	"promptq/codec"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store. It backs the in_memory mode and the
// tests, and mimics the API's habit of dropping trailing empty cells and rows.
type MemoryStore struct {
	mu     sync.Mutex
	sheets map[string][][]string
	calls  map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sheets: make(map[string][][]string),
		calls:  make(map[string]int),
	}
}

// SetSheet replaces the contents of a worksheet. rows[0] is the header row.
func (m *MemoryStore) SetSheet(name string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets[name] = cloneRows(rows)
}

// Sheet returns a copy of a worksheet's contents.
func (m *MemoryStore) Sheet(name string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneRows(m.sheets[name])
}

// Calls returns how many times op was invoked.
func (m *MemoryStore) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls returns the number of remote calls across all operations.
func (m *MemoryStore) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

func (m *MemoryStore) GetValues(_ context.Context, rng string) ([][]string, error) {
	r, err := ParseRange(rng)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["get_values"]++

	rows, ok := m.sheets[r.Sheet]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, r.Sheet)
	}
	var out [][]string
	for i := r.StartRow - 1; i < len(rows); i++ {
		if r.EndRow != 0 && i >= r.EndRow {
			break
		}
		var cells []string
		for c := r.StartCol; c <= r.EndCol && c < len(rows[i]); c++ {
			cells = append(cells, rows[i][c])
		}
		out = append(out, trimCells(cells))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *MemoryStore) GetProperties(_ context.Context, sheetName string) (Properties, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["get_properties"]++

	rows, ok := m.sheets[sheetName]
	if !ok {
		return Properties{}, fmt.Errorf("%w: %s", ErrSheetNotFound, sheetName)
	}
	props := Properties{Title: sheetName, RowCount: len(rows)}
	for _, row := range rows {
		if len(row) > props.ColumnCount {
			props.ColumnCount = len(row)
		}
	}
	return props, nil
}

func (m *MemoryStore) Append(_ context.Context, rng string, rows [][]string) error {
	r, err := ParseRange(rng)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["append"]++

	existing, ok := m.sheets[r.Sheet]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSheetNotFound, r.Sheet)
	}
	last := len(existing)
	for last > 0 && len(trimCells(existing[last-1])) == 0 {
		last--
	}
	m.sheets[r.Sheet] = append(existing[:last], cloneRows(rows)...)
	return nil
}

func (m *MemoryStore) BatchUpdate(_ context.Context, updates []CellUpdate) error {
	parsed := make([]Range, len(updates))
	for i, update := range updates {
		r, err := ParseRange(update.Range)
		if err != nil {
			return err
		}
		parsed[i] = r
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["batch_update"]++

	for i, update := range updates {
		r := parsed[i]
		rows, ok := m.sheets[r.Sheet]
		if !ok {
			return fmt.Errorf("%w: %s", ErrSheetNotFound, r.Sheet)
		}
		for dy, values := range update.Values {
			rowIdx := r.StartRow - 1 + dy
			for len(rows) <= rowIdx {
				rows = append(rows, nil)
			}
			for dx, value := range values {
				colIdx := r.StartCol + dx
				for len(rows[rowIdx]) <= colIdx {
					rows[rowIdx] = append(rows[rowIdx], "")
				}
				rows[rowIdx][colIdx] = value
			}
		}
		m.sheets[r.Sheet] = rows
	}
	return nil
}

// SaveSnapshot writes every worksheet to path as JSON.
func (m *MemoryStore) SaveSnapshot(path string) error {
	m.mu.Lock()
	data, err := codec.JSONMarshalIndent(m.sheets, "", "  ")
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadSnapshot replaces the store contents with a snapshot written by SaveSnapshot.
func (m *MemoryStore) LoadSnapshot(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	sheets := make(map[string][][]string)
	if err := codec.JSONUnmarshal(data, &sheets); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	m.mu.Lock()
	m.sheets = sheets
	m.mu.Unlock()
	return nil
}

func trimCells(cells []string) []string {
	end := len(cells)
	for end > 0 && cells[end-1] == "" {
		end--
	}
	return cells[:end]
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
