package store

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/mohammad-safakhou/icebreak/config"
	"github.com/mohammad-safakhou/icebreak/models"
)

// MemoryStore is the default task store. It is safe for concurrent use and
// sweeps expired tasks on the configured cleanup schedule.
type MemoryStore struct {
	mu     sync.RWMutex
	tasks  map[string]models.Task
	ttl    time.Duration
	logger *log.Logger

	stop      chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore creates an in-memory task store. When cfg.ResultTTL is
// positive a background janitor removes finished tasks past their TTL.
func NewMemoryStore(cfg config.StorageConfig, logger *log.Logger) *MemoryStore {
	if logger == nil {
		logger = log.New(log.Writer(), "[STORE] ", log.LstdFlags)
	}
	s := &MemoryStore{
		tasks:  make(map[string]models.Task),
		ttl:    cfg.ResultTTL,
		logger: logger,
		stop:   make(chan struct{}),
	}
	if s.ttl > 0 {
		go cleanupLoop(cfg.CleanupSchedule, s.stop, logger, func() {
			if removed := s.sweep(time.Now()); removed > 0 {
				logger.Printf("cleanup removed %d expired tasks", removed)
			}
		})
	}
	return s
}

func (s *MemoryStore) Create(ctx context.Context, name string) (models.Task, error) {
	task := models.Task{
		ID:        newTaskID(),
		Status:    models.TaskStatusProcessing,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.tasks[task.ID] = task
	s.mu.Unlock()
	return task, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (models.Task, error) {
	s.mu.RLock()
	task, ok := s.tasks[id]
	s.mu.RUnlock()
	if !ok {
		return models.Task{}, fmt.Errorf("task %s: %w", id, models.ErrTaskNotFound)
	}
	if s.expired(task, time.Now()) {
		s.mu.Lock()
		delete(s.tasks, id)
		s.mu.Unlock()
		return models.Task{}, fmt.Errorf("task %s: %w", id, models.ErrTaskNotFound)
	}
	return task, nil
}

func (s *MemoryStore) Complete(ctx context.Context, id string, result models.IceBreakerResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task %s: %w", id, models.ErrTaskNotFound)
	}
	now := time.Now().UTC()
	task.Status = models.TaskStatusCompleted
	task.CompletedAt = &now
	task.Result = &result
	task.Error = nil
	s.tasks[id] = task
	return nil
}

func (s *MemoryStore) Fail(ctx context.Context, id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task %s: %w", id, models.ErrTaskNotFound)
	}
	now := time.Now().UTC()
	task.Status = models.TaskStatusFailed
	task.CompletedAt = &now
	task.Result = nil
	task.Error = &reason
	s.tasks[id] = task
	return nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]models.Task, error) {
	now := time.Now()
	s.mu.RLock()
	tasks := make([]models.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if s.expired(task, now) {
			continue
		}
		tasks = append(tasks, task)
	}
	s.mu.RUnlock()
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return tasks, nil
}

func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryStore) expired(task models.Task, now time.Time) bool {
	if s.ttl <= 0 || !task.Terminal() || task.CompletedAt == nil {
		return false
	}
	return now.Sub(*task.CompletedAt) > s.ttl
}

func (s *MemoryStore) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, task := range s.tasks {
		if s.expired(task, now) {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed
}
