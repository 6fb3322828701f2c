package storage

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"taskpad/internal/store"
)

const DefaultKey = "taskpad-state"

const ioTimeout = 3 * time.Second

// Adapter binds a Slot and key to the store's persistence hook.
type Adapter struct {
	slot Slot
	key  string
	log  *zap.Logger
}

func NewAdapter(slot Slot, key string, log *zap.Logger) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{slot: slot, key: key, log: log}
}

// Save implements store.Persister.
func (a *Adapter) Save(snap store.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()
	return a.slot.Save(ctx, a.key, data)
}

// Load reads the persisted snapshot. A missing, unreadable or corrupt slot
// yields the empty snapshot; Load never fails.
func (a *Adapter) Load() store.Snapshot {
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()

	data, err := a.slot.Load(ctx, a.key)
	if errors.Is(err, ErrNotFound) {
		return store.EmptySnapshot()
	}
	if err != nil {
		a.log.Warn("read persisted state failed, starting empty", zap.String("key", a.key), zap.Error(err))
		return store.EmptySnapshot()
	}
	snap, dropped, err := Decode(data)
	if err != nil {
		a.log.Warn("persisted state unreadable, starting empty", zap.String("key", a.key), zap.Error(err))
		return store.EmptySnapshot()
	}
	if dropped > 0 {
		a.log.Warn("dropped unreadable records from persisted state", zap.String("key", a.key), zap.Int("dropped", dropped))
	}
	a.log.Debug("restored state",
		zap.Int("tasks", len(snap.Tasks)),
		zap.Int("deleted", len(snap.DeletedTasks)),
	)
	return snap
}
