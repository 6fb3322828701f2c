package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"taskpad/internal/config"
	"taskpad/internal/logging"
	"taskpad/internal/storage"
	"taskpad/internal/store"
	"taskpad/internal/task"
	"taskpad/internal/ui"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr, ui.Run))
}

// run wires the application and returns the process exit code. Deferred
// cleanup finishes before main calls os.Exit.
func run(args []string, stderr io.Writer, runUI func(*store.Store, config.Config) error) int {
	flags := flag.NewFlagSet("taskpad", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", config.ResolveConfigPath(), "path to config.toml")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.LoadOrCreate(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}

	log := logging.New(cfg.Log)
	defer log.Sync()

	slot, err := storage.Open(cfg.Storage)
	if err != nil {
		fmt.Fprintf(stderr, "failed to open storage: %v\n", err)
		return 1
	}
	defer slot.Close()

	adapter := storage.NewAdapter(slot, cfg.Storage.Key, log)
	s := store.Restore(adapter.Load(),
		store.WithPersister(adapter),
		store.WithLogger(log),
		store.WithUndoLimit(cfg.UndoLimit),
		store.WithItemsPerPage(cfg.ItemsPerPage),
		store.WithStatusFilter(task.ParseStatus(cfg.DefaultFilter)),
	)
	log.Info("started",
		zap.String("config", *configPath),
		zap.String("backend", cfg.Storage.Backend),
		zap.Int("tasks", len(s.Tasks())),
	)

	if err := runUI(s, cfg); err != nil {
		log.Error("ui exited", zap.Error(err))
		fmt.Fprintf(stderr, "error running program: %v\n", err)
		return 1
	}
	return 0
}
