package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorhill/cronexpr"
	"github.com/mohammad-safakhou/icebreak/config"
	"github.com/mohammad-safakhou/icebreak/models"
)

// Backend identifies a task persistence backend.
type Backend string

const (
	// MemoryBackend keeps tasks in process memory. Tasks do not survive restarts.
	MemoryBackend Backend = "memory"
	// RedisBackend keeps tasks in Redis with a native TTL on finished tasks.
	RedisBackend Backend = "redis"
	// PostgresBackend keeps tasks in Postgres. Requires migrations to be applied.
	PostgresBackend Backend = "postgres"
)

const defaultCleanupSchedule = "0 * * * *"

// TaskStore persists generation tasks for polling clients. All backends share
// the same semantics: a task is created in the processing state, transitions
// exactly once to completed or failed, and finished tasks expire after the
// configured TTL as if they never existed.
type TaskStore interface {
	// Create registers a new processing task and returns it with its assigned ID.
	Create(ctx context.Context, name string) (models.Task, error)
	// Get returns a task by ID. Unknown and expired IDs yield models.ErrTaskNotFound.
	Get(ctx context.Context, id string) (models.Task, error)
	// Complete marks a task completed and attaches its result.
	Complete(ctx context.Context, id string, result models.IceBreakerResult) error
	// Fail marks a task failed and records the failure reason.
	Fail(ctx context.Context, id string, reason string) error
	// List returns up to limit tasks, newest first.
	List(ctx context.Context, limit int) ([]models.Task, error)
	// Close releases backend resources and stops background cleanup.
	Close() error
}

// New constructs the task store selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig, logger *log.Logger) (TaskStore, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[STORE] ", log.LstdFlags)
	}
	switch Backend(cfg.Backend) {
	case MemoryBackend, "":
		return NewMemoryStore(cfg, logger), nil
	case RedisBackend:
		s, err := NewRedisStore(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis store: %w", err)
		}
		return s, nil
	case PostgresBackend:
		s, err := NewPostgresStore(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

func newTaskID() string {
	return uuid.New().String()
}

// cleanupLoop runs sweep on the given cron schedule until stop is closed.
// Invalid schedules fall back to hourly sweeps.
func cleanupLoop(schedule string, stop <-chan struct{}, logger *log.Logger, sweep func()) {
	expr, err := cronexpr.Parse(schedule)
	if err != nil {
		logger.Printf("invalid cleanup schedule %q, using hourly sweeps: %v", schedule, err)
		expr = cronexpr.MustParse(defaultCleanupSchedule)
	}
	for {
		wait := time.Until(expr.Next(time.Now()))
		if wait < time.Second {
			wait = time.Second
		}
		select {
		case <-stop:
			return
		case <-time.After(wait):
			sweep()
		}
	}
}
