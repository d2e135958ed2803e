package idgen

import (
	"strings"
	"testing"
)

func TestNanoID(t *testing.T) {
	for _, length := range []int{8, 12, 24} {
		id := NanoID(length)()
		if len(id) != length {
			t.Fatalf("NanoID(%d): got length %d", length, len(id))
		}
		for _, c := range id {
			if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'z')) {
				t.Fatalf("NanoID: unexpected character %q in %q", c, id)
			}
		}
	}
}

func TestUUIDv7_UniqueAndSortable(t *testing.T) {
	gen := UUIDv7()
	prev := ""
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		id := gen()
		if len(id) != 36 {
			t.Fatalf("UUIDv7: expected length 36, got %d", len(id))
		}
		if _, ok := seen[id]; ok {
			t.Fatalf("UUIDv7: duplicate at iteration %d", i)
		}
		seen[id] = struct{}{}
		if id <= prev {
			t.Fatalf("UUIDv7: %q not after %q", id, prev)
		}
		prev = id
	}
}

func TestSession_Prefix(t *testing.T) {
	id := Session()
	if !strings.HasPrefix(id, "ses_") || len(id) != 4+12 {
		t.Fatalf("Session: got %q", id)
	}
}

func TestSequence(t *testing.T) {
	gen := Sequence("doc")
	for _, want := range []string{"doc-1", "doc-2", "doc-3"} {
		if got := gen(); got != want {
			t.Fatalf("Sequence: got %q, want %q", got, want)
		}
	}
}
