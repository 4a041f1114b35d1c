package idgen

import (
	"strings"
	"testing"
)

func TestShort_Length(t *testing.T) {
	gen := Short(12)
	id := gen()
	if len(id) != 12 {
		t.Errorf("length: got %d, want 12", len(id))
	}
}

func TestShort_Alphabet(t *testing.T) {
	gen := Short(64)
	id := gen()
	for _, ch := range id {
		if !strings.ContainsRune("0123456789abcdefghijklmnopqrstuvwxyz", ch) {
			t.Errorf("unexpected character %q in %q", ch, id)
		}
	}
}

func TestUUIDv7_Unique(t *testing.T) {
	gen := UUIDv7()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := gen()
		if seen[id] {
			t.Fatalf("duplicate ID: %s", id)
		}
		seen[id] = true
	}
}

func TestPrefixed(t *testing.T) {
	gen := Prefixed("sum_", UUIDv7())
	id := gen()
	if !strings.HasPrefix(id, "sum_") {
		t.Errorf("got %q, want sum_ prefix", id)
	}
}

func TestParse(t *testing.T) {
	id := New()
	got, err := Parse(id)
	if err != nil {
		t.Fatalf("Parse(%q): %v", id, err)
	}
	if got != id {
		t.Errorf("got %q, want %q", got, id)
	}
	if _, err := Parse("not-a-uuid"); err == nil {
		t.Error("expected error for invalid UUID")
	}
}
