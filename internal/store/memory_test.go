package store

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/mohammad-safakhou/icebreak/config"
	"github.com/mohammad-safakhou/icebreak/models"
)

func newTestMemoryStore(t *testing.T, ttl time.Duration) *MemoryStore {
	t.Helper()
	s := NewMemoryStore(config.StorageConfig{
		Backend:         "memory",
		ResultTTL:       ttl,
		CleanupSchedule: "0 * * * *",
	}, log.New(io.Discard, "", 0))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleResult() models.IceBreakerResult {
	return models.IceBreakerResult{
		IceBreakers: []string{
			"I saw you led the platform reliability group at Initech, what drew you to that work?",
			"Your post about on-call rotations made the rounds on my team.",
		},
		Sources: []models.RankedProfile{
			{URL: "https://www.linkedin.com/in/janeroe", Platform: models.PlatformLinkedIn, Title: "Jane Roe - Initech", RelevanceScore: 0.9},
		},
		ExecutionTime: 1.42,
	}
}

func TestMemoryStoreLifecycle(t *testing.T) {
	s := newTestMemoryStore(t, 0)
	ctx := context.Background()

	task, err := s.Create(ctx, "Jane Roe")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.ID == "" {
		t.Fatal("expected task ID to be assigned")
	}
	if task.Status != models.TaskStatusProcessing {
		t.Fatalf("expected processing status, got %s", task.Status)
	}

	got, err := s.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.TaskStatusProcessing || got.Result != nil || got.Error != nil {
		t.Fatalf("unexpected pending task: %+v", got)
	}

	if err := s.Complete(ctx, task.ID, sampleResult()); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	got, err = s.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Get after complete: %v", err)
	}
	if got.Status != models.TaskStatusCompleted {
		t.Fatalf("expected completed status, got %s", got.Status)
	}
	if got.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}
	if got.Result == nil || len(got.Result.IceBreakers) != 2 {
		t.Fatalf("expected result with 2 ice breakers, got %+v", got.Result)
	}
	if got.Error != nil {
		t.Fatalf("expected no error on completed task, got %q", *got.Error)
	}
}

func TestMemoryStoreFail(t *testing.T) {
	s := newTestMemoryStore(t, 0)
	ctx := context.Background()

	task, err := s.Create(ctx, "Jane Roe")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Fail(ctx, task.ID, "search provider unavailable"); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	got, err := s.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.TaskStatusFailed {
		t.Fatalf("expected failed status, got %s", got.Status)
	}
	if got.Error == nil || *got.Error != "search provider unavailable" {
		t.Fatalf("unexpected error field: %v", got.Error)
	}
	if got.Result != nil {
		t.Fatal("failed task must not carry a result")
	}
}

func TestMemoryStoreGetUnknown(t *testing.T) {
	s := newTestMemoryStore(t, 0)
	if _, err := s.Get(context.Background(), "no-such-task"); !errors.Is(err, models.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if err := s.Complete(context.Background(), "no-such-task", sampleResult()); !errors.Is(err, models.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound on complete, got %v", err)
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	s := newTestMemoryStore(t, 25*time.Millisecond)
	ctx := context.Background()

	finished, _ := s.Create(ctx, "Jane Roe")
	if err := s.Complete(ctx, finished.ID, sampleResult()); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	pending, _ := s.Create(ctx, "John Stiles")

	if _, err := s.Get(ctx, finished.ID); err != nil {
		t.Fatalf("fresh finished task should be readable: %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	if _, err := s.Get(ctx, finished.ID); !errors.Is(err, models.ErrTaskNotFound) {
		t.Fatalf("expected expired task to be gone, got %v", err)
	}
	if _, err := s.Get(ctx, pending.ID); err != nil {
		t.Fatalf("processing task must not expire: %v", err)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	s := newTestMemoryStore(t, time.Hour)
	ctx := context.Background()

	finished, _ := s.Create(ctx, "Jane Roe")
	if err := s.Complete(ctx, finished.ID, sampleResult()); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	pending, _ := s.Create(ctx, "John Stiles")

	if removed := s.sweep(time.Now().Add(2 * time.Hour)); removed != 1 {
		t.Fatalf("expected sweep to remove 1 task, removed %d", removed)
	}
	if _, err := s.Get(ctx, pending.ID); err != nil {
		t.Fatalf("sweep must keep processing tasks: %v", err)
	}
}

func TestMemoryStoreList(t *testing.T) {
	s := newTestMemoryStore(t, 0)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"Jane Roe", "John Stiles", "Richard Miles"} {
		task, err := s.Create(ctx, name)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, task.ID)
		time.Sleep(2 * time.Millisecond)
	}

	tasks, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != ids[2] || tasks[1].ID != ids[1] {
		t.Fatalf("expected newest first, got %s then %s", tasks[0].ID, tasks[1].ID)
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	s := newTestMemoryStore(t, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task, err := s.Create(ctx, "Jane Roe")
			if err != nil {
				t.Errorf("Create: %v", err)
				return
			}
			if _, err := s.Get(ctx, task.ID); err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			if err := s.Complete(ctx, task.ID, sampleResult()); err != nil {
				t.Errorf("Complete: %v", err)
			}
		}()
	}
	wg.Wait()

	tasks, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 25 {
		t.Fatalf("expected 25 tasks, got %d", len(tasks))
	}
}
