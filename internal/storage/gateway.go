package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"taskboard/internal/task"
)

const (
	DefaultKey            = "task-management-tasks"
	DefaultLegacyOrderKey = "task-order"
)

type GatewayConfig struct {
	// Key holds the full task collection, in display order.
	Key string
	// LegacyOrderKey names an old order-only entry. When present at load it
	// is folded into the collection and removed. Empty disables the check.
	LegacyOrderKey string
	// Seed supplies the collection used on first run and when the stored
	// value cannot be parsed. Nil means start empty.
	Seed   func() []task.Task
	Logger *log.Logger
}

// Gateway mirrors the task collection into a KV. It has no authority over
// the collection: write failures are logged and dropped.
type Gateway struct {
	kv     KV
	cfg    GatewayConfig
	logger *log.Logger
}

func NewGateway(kv KV, cfg GatewayConfig) *Gateway {
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Gateway{kv: kv, cfg: cfg, logger: logger}
}

// Load returns the persisted collection. A missing key yields the seed set,
// which is written back so later loads see stable ids. Unparseable data also
// yields the seed set but is left in place. Only backend read failures are
// returned as errors.
func (g *Gateway) Load(ctx context.Context) ([]task.Task, error) {
	raw, err := g.kv.Get(ctx, g.cfg.Key)
	if errors.Is(err, ErrNotFound) {
		tasks := g.seed()
		if len(tasks) > 0 {
			g.Save(ctx, tasks)
		}
		return tasks, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	tasks, err := decodeTasks(raw)
	if err != nil {
		g.logger.Printf("Warning: failed to parse stored tasks, using defaults: %v", err)
		return g.seed(), nil
	}
	tasks = g.sanitize(tasks)

	if g.cfg.LegacyOrderKey != "" {
		tasks = g.migrateLegacyOrder(ctx, tasks)
	}
	return tasks, nil
}

// Save writes tasks best-effort. Failures are logged, never returned.
func (g *Gateway) Save(ctx context.Context, tasks []task.Task) {
	if err := g.Write(ctx, tasks); err != nil {
		g.logger.Printf("Warning: failed to save tasks: %v", err)
	}
}

// Write is the strict form of Save.
func (g *Gateway) Write(ctx context.Context, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	if err := g.kv.Put(ctx, g.cfg.Key, string(data)); err != nil {
		return fmt.Errorf("write tasks: %w", err)
	}
	return nil
}

func (g *Gateway) seed() []task.Task {
	if g.cfg.Seed == nil {
		return []task.Task{}
	}
	return g.cfg.Seed()
}

func decodeTasks(raw string) ([]task.Task, error) {
	var tasks []task.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

// sanitize drops records that could never have been produced by the store
// and repairs timestamps that violate updatedAt >= createdAt.
func (g *Gateway) sanitize(tasks []task.Task) []task.Task {
	out := tasks[:0]
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if t.ID == "" || !t.Status.Valid() || !t.Priority.Valid() {
			g.logger.Printf("Warning: dropping malformed stored task %q", t.ID)
			continue
		}
		if _, dup := seen[t.ID]; dup {
			g.logger.Printf("Warning: dropping duplicate stored task %q", t.ID)
			continue
		}
		seen[t.ID] = struct{}{}
		if t.UpdatedAt.Before(t.CreatedAt) {
			t.UpdatedAt = t.CreatedAt
		}
		t.Tags = task.NormalizeTags(t.Tags)
		out = append(out, t)
	}
	return out
}

func (g *Gateway) migrateLegacyOrder(ctx context.Context, tasks []task.Task) []task.Task {
	raw, err := g.kv.Get(ctx, g.cfg.LegacyOrderKey)
	if errors.Is(err, ErrNotFound) {
		return tasks
	}
	if err != nil {
		g.logger.Printf("Warning: failed to read legacy task order: %v", err)
		return tasks
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		g.logger.Printf("Warning: discarding unreadable legacy task order: %v", err)
	} else {
		tasks = ApplyOrder(tasks, ids)
		if err := g.Write(ctx, tasks); err != nil {
			// Keep the legacy key so the next load can retry.
			g.logger.Printf("Warning: failed to save migrated task order: %v", err)
			return tasks
		}
	}
	if err := g.kv.Delete(ctx, g.cfg.LegacyOrderKey); err != nil {
		g.logger.Printf("Warning: failed to delete legacy task order: %v", err)
	}
	return tasks
}

// ApplyOrder arranges tasks by ids. Unknown ids are skipped and tasks not
// listed keep their relative order after the listed ones.
func ApplyOrder(tasks []task.Task, ids []string) []task.Task {
	byID := make(map[string]task.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	out := make([]task.Task, 0, len(tasks))
	placed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := placed[id]; dup {
			continue
		}
		placed[id] = struct{}{}
		out = append(out, t)
	}
	for _, t := range tasks {
		if _, ok := placed[t.ID]; !ok {
			out = append(out, t)
		}
	}
	return out
}
