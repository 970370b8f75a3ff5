package sheet

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
)

func TestColumnLetter(t *testing.T) {
	tests := []struct {
		index    int
		expected string
	}{
		{0, "A"},
		{7, "H"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
		{-1, ""},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("ColumnLetter %d", test.index), func(t *testing.T) {
			if got := ColumnLetter(test.index); got != test.expected {
				t.Errorf("expected %q, got %q", test.expected, got)
			}
			if test.index < 0 {
				return
			}
			back, err := ColumnNumber(test.expected)
			if err != nil || back != test.index {
				t.Errorf("round trip of %q gave %d (%v)", test.expected, back, err)
			}
		})
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in       string
		expected Range
		err      bool
	}{
		{"Prompts!A2:H", Range{Sheet: "Prompts", StartCol: 0, StartRow: 2, EndCol: 7}, false},
		{"Prompts!A1:H1", Range{Sheet: "Prompts", StartCol: 0, StartRow: 1, EndCol: 7, EndRow: 1}, false},
		{"Prompts!F7", Range{Sheet: "Prompts", StartCol: 5, StartRow: 7, EndCol: 5, EndRow: 7}, false},
		{"'My Sheet'!C2:C", Range{Sheet: "My Sheet", StartCol: 2, StartRow: 2, EndCol: 2}, false},
		{"A1:B2", Range{}, true},
		{"Prompts!A:B", Range{}, true},
		{"Prompts!C2:A3", Range{}, true},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			got, err := ParseRange(test.in)
			if test.err {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != test.expected {
				t.Errorf("expected %+v, got %+v", test.expected, got)
			}
			if got.String() != test.in {
				t.Errorf("String() = %q, want %q", got.String(), test.in)
			}
		})
	}
}

func TestRangeHelpers(t *testing.T) {
	if got := HeaderRange("Prompts", 8); got != "Prompts!A1:H1" {
		t.Errorf("HeaderRange = %s", got)
	}
	if got := DataRange("Prompts", 2, 28); got != "Prompts!A2:AB" {
		t.Errorf("DataRange = %s", got)
	}
	if got := ColumnRange("Prompts", 0, 2); got != "Prompts!A2:A" {
		t.Errorf("ColumnRange = %s", got)
	}
	if got := CellRange("Prompts", 5, 3); got != "Prompts!F3" {
		t.Errorf("CellRange = %s", got)
	}
	if got := RowSpanRange("Prompts", 3, 5, 7); got != "Prompts!F3:H3" {
		t.Errorf("RowSpanRange = %s", got)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.SetSheet("Prompts", [][]string{
		{"rowId", "topic", "prompt", "used"},
		{"1", "cats", "a cat", ""},
	})

	if err := store.Append(ctx, "Prompts!A1", [][]string{{"2", "dogs", "a dog", ""}}); err != nil {
		t.Fatal(err)
	}
	if err := store.BatchUpdate(ctx, []CellUpdate{{Range: "Prompts!D2", Values: [][]string{{"LOCKED"}}}}); err != nil {
		t.Fatal(err)
	}

	values, err := store.GetValues(ctx, "Prompts!A2:D")
	if err != nil {
		t.Fatal(err)
	}
	expected := [][]string{{"1", "cats", "a cat", "LOCKED"}, {"2", "dogs", "a dog"}}
	if !reflect.DeepEqual(values, expected) {
		t.Errorf("expected %v, got %v", expected, values)
	}

	column, err := store.GetValues(ctx, "Prompts!A2:A")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(column, [][]string{{"1"}, {"2"}}) {
		t.Errorf("unexpected column read %v", column)
	}

	props, err := store.GetProperties(ctx, "Prompts")
	if err != nil || props.RowCount != 3 || props.ColumnCount != 4 {
		t.Errorf("unexpected properties %+v %v", props, err)
	}
	if _, err := store.GetProperties(ctx, "Missing"); err == nil {
		t.Error("expected error for missing sheet")
	}
	if store.TotalCalls() != 6 {
		t.Errorf("expected 6 calls, got %d", store.TotalCalls())
	}
}

func TestMemoryStoreSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.json")
	store := NewMemoryStore()
	store.SetSheet("Prompts", [][]string{{"rowId"}, {"1"}})
	if err := store.SaveSnapshot(path); err != nil {
		t.Fatal(err)
	}

	restored := NewMemoryStore()
	if err := restored.LoadSnapshot(path); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(restored.Sheet("Prompts"), [][]string{{"rowId"}, {"1"}}) {
		t.Errorf("snapshot not restored: %v", restored.Sheet("Prompts"))
	}
}

type countingLimiter struct {
	acquired int
}

func (l *countingLimiter) Acquire(context.Context) error {
	l.acquired++
	return nil
}

func TestLimitedStoreAcquiresOncePerCall(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	inner.SetSheet("Prompts", [][]string{{"rowId"}})
	limiter := &countingLimiter{}
	store := NewLimitedStore(inner, limiter, nil)

	_, _ = store.GetValues(ctx, "Prompts!A1")
	_, _ = store.GetProperties(ctx, "Prompts")
	_ = store.Append(ctx, "Prompts!A1", [][]string{{"1"}})
	_ = store.BatchUpdate(ctx, []CellUpdate{{Range: "Prompts!A2", Values: [][]string{{"2"}}}})

	if limiter.acquired != 4 || inner.TotalCalls() != 4 {
		t.Errorf("expected 4 acquisitions for 4 calls, got %d / %d", limiter.acquired, inner.TotalCalls())
	}
}
