// Package app wires the storage backend, gateway, cache and store together
// and owns their lifecycle.
package app

import (
	"context"
	"fmt"
	"log"

	"taskboard/internal/cache"
	"taskboard/internal/config"
	"taskboard/internal/storage"
	"taskboard/internal/store"
	"taskboard/internal/task"
)

type App struct {
	Config  config.Config
	KV      storage.KV
	Gateway *storage.Gateway
	Cache   *cache.Cache[[]task.Task]
	Store   *store.Store
	Logger  *log.Logger
}

// Open builds the object graph for cfg and loads the collection into the
// store. logger may be nil.
func Open(ctx context.Context, cfg config.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}
	kv, err := OpenKV(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gcfg := storage.GatewayConfig{
		Key:            cfg.StorageKey,
		LegacyOrderKey: cfg.LegacyOrderKey,
		Logger:         logger,
	}
	if cfg.SeedDefaults {
		gcfg.Seed = storage.DefaultTasks
	}
	gw := storage.NewGateway(kv, gcfg)
	c := cache.New(gw.Load)
	s := store.New(store.Options{
		Persister: gw,
		Cache:     c,
		Logger:    logger,
	})

	a := &App{Config: cfg, KV: kv, Gateway: gw, Cache: c, Store: s, Logger: logger}
	if err := a.Reload(ctx); err != nil {
		kv.Close()
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	return a, nil
}

// OpenKV opens the backend named by cfg.Backend.
func OpenKV(ctx context.Context, cfg config.Config) (storage.KV, error) {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		db, err := storage.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db, nil
	case config.BackendPostgres:
		db, err := storage.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return db, nil
	case config.BackendMemory:
		return storage.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Reload drops the cached collection and reads it again from storage.
func (a *App) Reload(ctx context.Context) error {
	a.Cache.Invalidate()
	return a.Store.Load(ctx, a.Cache)
}

// Close waits for pending mirror writes and releases the backend.
func (a *App) Close() error {
	a.Store.Wait()
	return a.KV.Close()
}
