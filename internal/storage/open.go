package storage

import (
	"fmt"

	"taskpad/internal/config"
)

// Open returns the slot selected by cfg.Backend.
func Open(cfg config.Storage) (Slot, error) {
	var (
		slot Slot
		err  error
	)
	switch cfg.Backend {
	case config.BackendSQLite:
		var s *SQLite
		s, err = OpenSQLite(cfg.DBPath)
		slot = s
	case config.BackendFile:
		var f *File
		f, err = OpenFile(cfg.Dir)
		slot = f
	case config.BackendRedis:
		var r *Redis
		r, err = OpenRedis(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		slot = r
	case config.BackendMemory:
		slot = NewMemory()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Backend, err)
	}
	return slot, nil
}
