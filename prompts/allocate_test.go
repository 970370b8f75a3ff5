package prompts

import (
	"reflect"
	"strings"
	"testing"
)

func rowsOf(specs ...[3]string) []PromptRow {
	rows := make([]PromptRow, len(specs))
	for i, spec := range specs {
		id, ok := parseRowID(spec[0])
		rows[i] = PromptRow{
			PhysicalRow: i + 2,
			RowID:       id,
			Valid:       ok,
			Topic:       spec[1],
			Prompt:      "prompt " + spec[0],
			Used:        spec[2],
		}
	}
	return rows
}

func batchIDs(batch []BatchItem) []int {
	ids := []int{}
	for _, item := range batch {
		ids = append(ids, item.RowID)
	}
	return ids
}

func TestNextBatch(t *testing.T) {
	tests := []struct {
		name     string
		rows     []PromptRow
		expected []int
	}{
		{
			"contiguous block stops at other topic",
			rowsOf([3]string{"1", "A", ""}, [3]string{"2", "A", ""}, [3]string{"3", "B", ""}, [3]string{"4", "A", ""}),
			[]int{1, 2},
		},
		{
			"starts at first unused row",
			rowsOf([3]string{"1", "X", "yes"}, [3]string{"2", "X", ""}),
			[]int{2},
		},
		{
			"used row ends the run",
			rowsOf([3]string{"1", "A", ""}, [3]string{"2", "A", "LOCKED"}, [3]string{"3", "A", ""}),
			[]int{1},
		},
		{
			"invalid row ends the run",
			rowsOf([3]string{"1", "A", ""}, [3]string{"", "A", ""}, [3]string{"3", "A", ""}),
			[]int{1},
		},
		{
			"invalid row never starts a run",
			rowsOf([3]string{"abc", "A", ""}, [3]string{"2", "B", ""}),
			[]int{2},
		},
		{
			"used marker compared case-insensitively",
			rowsOf([3]string{"1", "A", "Yes"}, [3]string{"2", "A", "locked"}, [3]string{"3", "C", ""}),
			[]int{3},
		},
		{
			"nothing unused",
			rowsOf([3]string{"1", "A", "yes"}, [3]string{"2", "A", "FAILED"}),
			[]int{},
		},
		{"empty table", nil, []int{}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := batchIDs(NextBatch(test.rows))
			if !reflect.DeepEqual(got, test.expected) {
				t.Errorf("expected %v, got %v", test.expected, got)
			}
		})
	}
}

func TestDeriveTitle(t *testing.T) {
	long := strings.Repeat("ab", 50)
	tests := []struct {
		name     string
		row      PromptRow
		expected string
	}{
		{"stored title wins", PromptRow{Title: " Stored ", Topic: "topic"}, "Stored"},
		{"topic", PromptRow{Topic: "cats", Prompt: "a cute cat"}, "cats"},
		{"prompt when no topic", PromptRow{Prompt: "  a cute cat  "}, "a cute cat"},
		{"truncated to 70", PromptRow{Topic: long}, long[:70]},
		{"trailing space after cut trimmed", PromptRow{Topic: strings.Repeat("x", 69) + " tail"}, strings.Repeat("x", 69)},
		{"runes not bytes", PromptRow{Topic: strings.Repeat("แ", 80)}, strings.Repeat("แ", 70)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := DeriveTitle(test.row); got != test.expected {
				t.Errorf("expected %q, got %q", test.expected, got)
			}
		})
	}
}

func TestDeriveKeywords(t *testing.T) {
	tests := []struct {
		name     string
		row      PromptRow
		expected []string
	}{
		{
			"from prompt only",
			PromptRow{Prompt: "A cute, (fluffy) cat."},
			[]string{"a", "cute", "fluffy", "cat"},
		},
		{
			"columns first then prompt tokens",
			PromptRow{Keywords: []string{"Cat", "pet"}, Prompt: "a cat and a PET"},
			[]string{"Cat", "pet", "a", "cat", "and"},
		},
		{
			"exact duplicate columns dropped",
			PromptRow{Keywords: []string{"cat", "CAT", "dog", "cat"}},
			[]string{"cat", "CAT", "dog"},
		},
		{
			"capped at ten",
			PromptRow{Prompt: "one two three four five six seven eight nine ten eleven twelve"},
			[]string{"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"},
		},
		{
			"eleven columns truncated",
			PromptRow{Keywords: []string{"k1", "k2", "k3", "k4", "k5", "k6", "k7", "k8", "k9", "k10", "k11"}, Prompt: "extra"},
			[]string{"k1", "k2", "k3", "k4", "k5", "k6", "k7", "k8", "k9", "k10"},
		},
		{
			"punctuation only tokens skipped",
			PromptRow{Prompt: "... cat ;; \"dog\""},
			[]string{"cat", "dog"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			first := DeriveKeywords(test.row)
			second := DeriveKeywords(test.row)
			if !reflect.DeepEqual(first, test.expected) {
				t.Errorf("expected %v, got %v", test.expected, first)
			}
			if !reflect.DeepEqual(first, second) {
				t.Errorf("derivation not deterministic: %v vs %v", first, second)
			}
		})
	}
}
