package util

import "testing"

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in       string
		max      int
		expected string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"แมวน่ารัก", 3, "แมว"},
		{"abc", 0, ""},
	}
	for _, test := range tests {
		if got := TruncateRunes(test.in, test.max); got != test.expected {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", test.in, test.max, got, test.expected)
		}
	}
}

func TestSameFold(t *testing.T) {
	if !SameFold(" Locked ", "LOCKED") {
		t.Error("expected case and space insensitive match")
	}
	if SameFold("yes", "no") {
		t.Error("different values must not match")
	}
}
