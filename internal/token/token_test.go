package token

import (
	"strings"
	"testing"
)

func TestNewIsValid(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := New()
		if !Valid(id) {
			t.Fatalf("New() produced invalid token %q", id)
		}
		if len(id) != 36 {
			t.Fatalf("New() length = %d, want 36", len(id))
		}
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"canonical lowercase", "9b2edd6d-3a18-4c33-a45f-4d7fb9f4c3aa", true},
		{"canonical uppercase", "9B2EDD6D-3A18-4C33-A45F-4D7FB9F4C3AA", true},
		{"variant 8", "9b2edd6d-3a18-4c33-845f-4d7fb9f4c3aa", true},
		{"variant 9", "9b2edd6d-3a18-4c33-945f-4d7fb9f4c3aa", true},
		{"variant b", "9b2edd6d-3a18-4c33-b45f-4d7fb9f4c3aa", true},
		{"empty", "", false},
		{"too short", "9b2edd6d-3a18-4c33-a45f", false},
		{"too long", "9b2edd6d-3a18-4c33-a45f-4d7fb9f4c3aa0", false},
		{"version 1", "9b2edd6d-3a18-1c33-a45f-4d7fb9f4c3aa", false},
		{"bad variant", "9b2edd6d-3a18-4c33-c45f-4d7fb9f4c3aa", false},
		{"missing hyphens", "9b2edd6d3a184c33a45f4d7fb9f4c3aa", false},
		{"braced form", "{9b2edd6d-3a18-4c33-a45f-4d7fb9f4c3a}", false},
		{"urn form", "urn:uuid:9b2edd6d-3a18-4c33-a45f-4d7f", false},
		{"path traversal", "../../../../../../etc/passwd-aaaaaaa", false},
		{"embedded slash", "9b2edd6d-3a18-4c33-a45f-4d7fb9f/c3aa", false},
		{"embedded dotdot", "../edd6d-3a18-4c33-a45f-4d7fb9f4c3aa", false},
		{"null byte", "9b2edd6d-3a18-4c33-a45f-4d7fb9f4c3\x00a", false},
		{"non-hex chars", "9b2edd6d-3a18-4c33-a45f-4d7fb9f4c3zz", false},
		{"hyphen misplaced", "9b2edd6d3-a18-4c33-a45f-4d7fb9f4c3aa", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Valid(tt.input); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidRejectsAllNonCanonicalLengths(t *testing.T) {
	base := "9b2edd6d-3a18-4c33-a45f-4d7fb9f4c3aa"
	for l := 0; l < len(base); l++ {
		if Valid(base[:l]) {
			t.Errorf("Valid accepted %d-char prefix", l)
		}
	}
	if Valid(base + strings.Repeat("a", 4)) {
		t.Error("Valid accepted over-long token")
	}
}
