package prompts

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewColumnIndex(t *testing.T) {
	tests := []struct {
		name      string
		headers   []string
		missing   []string
		duplicate []string
	}{
		{"full header", []string{"rowId", "topic", "prompt", "title", "keyword1", "used", "log_id", "timestamp"}, nil, nil},
		{"minimal header", []string{"used", "prompt", "topic", "rowId"}, nil, nil},
		{"padded names", []string{" rowId ", "topic", "prompt\t", "used"}, nil, nil},
		{"blank cells ignored", []string{"rowId", "", "topic", "", "prompt", "used"}, nil, nil},
		{"missing used", []string{"rowId", "topic", "prompt"}, []string{"used"}, nil},
		{"empty header", nil, []string{"rowId", "topic", "prompt", "used"}, nil},
		{"duplicate", []string{"rowId", "topic", "prompt", "used", "topic"}, nil, []string{"topic"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ci, err := NewColumnIndex(test.headers, 10)
			if test.missing == nil && test.duplicate == nil {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				if ci.RowCount() != 10 || ci.Width() != len(test.headers) {
					t.Errorf("unexpected shape %d/%d", ci.RowCount(), ci.Width())
				}
				return
			}
			var schemaErr *SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("expected SchemaError, got %v", err)
			}
			if !reflect.DeepEqual(schemaErr.Missing, test.missing) || !reflect.DeepEqual(schemaErr.Duplicate, test.duplicate) {
				t.Errorf("unexpected error contents %+v", schemaErr)
			}
		})
	}
}

func TestColumnIndexPositions(t *testing.T) {
	ci, err := NewColumnIndex([]string{"rowId", "Keyword2", "topic", "prompt", "keyword1", "used", "KEYWORD10", "keywords_note"}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if pos, ok := ci.Position("used"); !ok || pos != 5 {
		t.Errorf("used at %d %v", pos, ok)
	}
	if _, ok := ci.Position("log_id"); ok {
		t.Error("log_id should be absent")
	}
	if got := ci.KeywordColumns(); !reflect.DeepEqual(got, []int{1, 4, 6, 7}) {
		t.Errorf("keyword columns %v", got)
	}
	if pos, ok := ci.KeywordColumn(2); !ok || pos != 1 {
		t.Errorf("keyword2 at %d %v", pos, ok)
	}
	if pos, ok := ci.KeywordColumn(10); !ok || pos != 6 {
		t.Errorf("keyword10 at %d %v", pos, ok)
	}
	if _, ok := ci.KeywordColumn(3); ok {
		t.Error("keyword3 should be absent")
	}

	err = ci.Require("title", "used", "timestamp")
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) || !reflect.DeepEqual(schemaErr.Missing, []string{"title", "timestamp"}) {
		t.Errorf("unexpected Require result %v", err)
	}
}
