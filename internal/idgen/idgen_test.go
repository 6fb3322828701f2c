package idgen

import (
	"testing"

	"github.com/google/uuid"
)

func TestNew_UniqueWithinTick(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id := New()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id after %d calls: %s", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestNew_IsTimeOrderedUUID(t *testing.T) {
	id, err := uuid.Parse(New())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id.Version() != 7 {
		t.Fatalf("expected version 7, got %d", id.Version())
	}
}
