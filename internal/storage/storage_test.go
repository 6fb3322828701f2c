package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"taskpad/internal/store"
)

func slotContract(t *testing.T, slot Slot) {
	t.Helper()
	ctx := context.Background()

	if _, err := slot.Load(ctx, "state"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load on empty slot: want ErrNotFound, got %v", err)
	}
	if err := slot.Save(ctx, "state", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := slot.Save(ctx, "state", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, err := slot.Load(ctx, "state")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `{"v":2}` {
		t.Fatalf("Load = %s", got)
	}
	if _, err := slot.Load(ctx, "other"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("keys must be independent, got %v", err)
	}
}

func TestSQLiteSlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "taskpad.db")
	slot, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	slotContract(t, slot)
	if err := slot.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Load(context.Background(), "state")
	if err != nil || string(got) != `{"v":2}` {
		t.Fatalf("value did not survive reopen: %s %v", got, err)
	}
}

func TestSQLiteSlot_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestFileSlot(t *testing.T) {
	dir := t.TempDir()
	slot, err := OpenFile(dir)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	slotContract(t, slot)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "state.json" {
		t.Fatalf("unexpected files left behind: %v", entries)
	}
	if err := slot.Save(context.Background(), "../escape", []byte("x")); err == nil {
		t.Fatalf("expected key with path separator to be rejected")
	}
}

func TestRedisSlot(t *testing.T) {
	mr := miniredis.RunT(t)
	slot, err := OpenRedis(RedisOptions{Addr: mr.Addr(), Prefix: "taskpad:"})
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	defer slot.Close()
	slotContract(t, slot)

	raw, err := mr.Get("taskpad:state")
	if err != nil || raw != `{"v":2}` {
		t.Fatalf("expected prefixed key, got %q %v", raw, err)
	}
}

func TestRedisSlot_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()
	if _, err := OpenRedis(RedisOptions{Addr: addr}); err == nil {
		t.Fatalf("expected ping failure")
	}
}

func TestMemorySlot(t *testing.T) {
	slotContract(t, NewMemory())
}

func TestAdapter_SaveAndLoad(t *testing.T) {
	slot := NewMemory()
	a := NewAdapter(slot, "", nil)

	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := store.New(
		store.WithPersister(a),
		store.WithClock(func() time.Time { return created }),
	)
	s.AddTask("Buy milk")
	s.AddTask("Walk dog")
	s.DeleteTask(s.Tasks()[0].ID)
	s.SetItemsPerPage(20)

	if _, err := slot.Load(context.Background(), DefaultKey); err != nil {
		t.Fatalf("nothing persisted under default key: %v", err)
	}

	restored := store.Restore(a.Load())
	got := restored.Tasks()
	if len(got) != 1 || got[0].Text != "Buy milk" || !got[0].CreatedAt.Equal(created) {
		t.Fatalf("restored tasks %+v", got)
	}
	if restored.Pagination().ItemsPerPage != 20 {
		t.Fatalf("restored pagination %+v", restored.Pagination())
	}
	if !restored.UndoDelete() || restored.Tasks()[0].Text != "Walk dog" {
		t.Fatalf("undo stack not restored: %+v", restored.Tasks())
	}
}

type failingSlot struct{ Memory }

func (*failingSlot) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("io failure")
}

func TestAdapter_LoadFallsBackToDefaults(t *testing.T) {
	corrupt := NewMemory()
	_ = corrupt.Save(context.Background(), DefaultKey, []byte("{not json"))

	for name, slot := range map[string]Slot{
		"missing": NewMemory(),
		"corrupt": corrupt,
		"failing": &failingSlot{},
	} {
		t.Run(name, func(t *testing.T) {
			snap := NewAdapter(slot, DefaultKey, nil).Load()
			if len(snap.Tasks) != 0 || len(snap.DeletedTasks) != 0 || snap.Pagination != store.EmptySnapshot().Pagination {
				t.Fatalf("expected empty defaults, got %+v", snap)
			}
		})
	}
}
