package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mohammad-safakhou/icebreak/config"
	"github.com/mohammad-safakhou/icebreak/models"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), config.StorageConfig{
		Backend:   "redis",
		ResultTTL: ttl,
		Redis:     config.RedisConfig{Host: mr.Host(), Port: mr.Port()},
	})
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStoreLifecycle(t *testing.T) {
	s, _ := newTestRedisStore(t, time.Hour)
	ctx := context.Background()

	task, err := s.Create(ctx, "Jane Roe")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := s.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.TaskStatusProcessing || got.Name != "Jane Roe" {
		t.Fatalf("unexpected pending task: %+v", got)
	}

	if err := s.Complete(ctx, task.ID, sampleResult()); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	got, err = s.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Get after complete: %v", err)
	}
	if got.Status != models.TaskStatusCompleted || got.CompletedAt == nil {
		t.Fatalf("unexpected completed task: %+v", got)
	}
	if got.Result == nil || len(got.Result.Sources) != 1 || got.Result.Sources[0].Platform != models.PlatformLinkedIn {
		t.Fatalf("result did not round-trip: %+v", got.Result)
	}
}

func TestRedisStoreFail(t *testing.T) {
	s, _ := newTestRedisStore(t, time.Hour)
	ctx := context.Background()

	task, err := s.Create(ctx, "Jane Roe")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Fail(ctx, task.ID, "model timed out"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	got, err := s.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.TaskStatusFailed || got.Error == nil || *got.Error != "model timed out" {
		t.Fatalf("unexpected failed task: %+v", got)
	}
}

func TestRedisStoreGetUnknown(t *testing.T) {
	s, _ := newTestRedisStore(t, time.Hour)
	if _, err := s.Get(context.Background(), "no-such-task"); !errors.Is(err, models.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestRedisStoreTTL(t *testing.T) {
	s, mr := newTestRedisStore(t, time.Hour)
	ctx := context.Background()

	finished, _ := s.Create(ctx, "Jane Roe")
	if err := s.Complete(ctx, finished.ID, sampleResult()); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	pending, _ := s.Create(ctx, "John Stiles")

	mr.FastForward(2 * time.Hour)

	if _, err := s.Get(ctx, finished.ID); !errors.Is(err, models.ErrTaskNotFound) {
		t.Fatalf("expected finished task to expire, got %v", err)
	}
	if _, err := s.Get(ctx, pending.ID); err != nil {
		t.Fatalf("processing task must not expire: %v", err)
	}
}

func TestRedisStoreList(t *testing.T) {
	s, _ := newTestRedisStore(t, time.Hour)
	ctx := context.Background()

	first, _ := s.Create(ctx, "Jane Roe")
	time.Sleep(2 * time.Millisecond)
	second, _ := s.Create(ctx, "John Stiles")

	tasks, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != second.ID || tasks[1].ID != first.ID {
		t.Fatalf("expected newest first, got %s then %s", tasks[0].ID, tasks[1].ID)
	}
}
