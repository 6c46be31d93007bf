package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/mohammad-safakhou/icebreak/config"
	"github.com/mohammad-safakhou/icebreak/models"
)

// PostgresStore keeps tasks in Postgres. Results are stored as JSONB so the
// task row round-trips without schema changes when the result shape grows.
type PostgresStore struct {
	DB     *sql.DB
	ttl    time.Duration
	logger *log.Logger

	stop      chan struct{}
	closeOnce sync.Once
}

// NewPostgresStore connects using cfg.Postgres and verifies the connection.
// When cfg.ResultTTL is positive a janitor deletes expired finished tasks on
// the cleanup schedule.
func NewPostgresStore(ctx context.Context, cfg config.StorageConfig, logger *log.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[STORE] ", log.LstdFlags)
	}
	db, err := sql.Open("postgres", cfg.Postgres.DSN())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	s := &PostgresStore{
		DB:     db,
		ttl:    cfg.ResultTTL,
		logger: logger,
		stop:   make(chan struct{}),
	}
	if s.ttl > 0 {
		go cleanupLoop(cfg.CleanupSchedule, s.stop, logger, func() {
			if removed, err := s.sweepExpired(context.Background()); err != nil {
				logger.Printf("cleanup failed: %v", err)
			} else if removed > 0 {
				logger.Printf("cleanup removed %d expired tasks", removed)
			}
		})
	}
	return s, nil
}

func (s *PostgresStore) Create(ctx context.Context, name string) (models.Task, error) {
	task := models.Task{
		ID:        newTaskID(),
		Status:    models.TaskStatusProcessing,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO tasks (id, name, status, created_at) VALUES ($1,$2,$3,$4)`,
		task.ID, task.Name, string(task.Status), task.CreatedAt)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (models.Task, error) {
	task, err := s.scanTask(s.DB.QueryRowContext(ctx,
		`SELECT id, name, status, result, error, created_at, completed_at FROM tasks WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task %s: %w", id, models.ErrTaskNotFound)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to load task %s: %w", id, err)
	}
	if s.expired(task, time.Now()) {
		_, _ = s.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id=$1`, id)
		return models.Task{}, fmt.Errorf("task %s: %w", id, models.ErrTaskNotFound)
	}
	return task, nil
}

func (s *PostgresStore) Complete(ctx context.Context, id string, result models.IceBreakerResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result for task %s: %w", id, err)
	}
	res, err := s.DB.ExecContext(ctx,
		`UPDATE tasks SET status=$2, result=$3, error=NULL, completed_at=$4 WHERE id=$1`,
		id, string(models.TaskStatusCompleted), payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to complete task %s: %w", id, err)
	}
	return s.requireRow(res, id)
}

func (s *PostgresStore) Fail(ctx context.Context, id string, reason string) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE tasks SET status=$2, result=NULL, error=$3, completed_at=$4 WHERE id=$1`,
		id, string(models.TaskStatusFailed), reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to fail task %s: %w", id, err)
	}
	return s.requireRow(res, id)
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]models.Task, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name, status, result, error, created_at, completed_at FROM tasks ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	now := time.Now()
	var tasks []models.Task
	for rows.Next() {
		task, err := s.scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if s.expired(task, now) {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.closeOnce.Do(func() { close(s.stop) })
	return s.DB.Close()
}

// CreateUser registers a user for the authenticated API surface.
func (s *PostgresStore) CreateUser(ctx context.Context, email, hash string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES ($1,$2)`, email, hash)
	return err
}

// GetUserByEmail returns the user ID and password hash for login checks.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (id string, hash string, err error) {
	err = s.DB.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email=$1`, email).Scan(&id, &hash)
	return
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *PostgresStore) scanTask(row rowScanner) (models.Task, error) {
	var (
		task        models.Task
		status      string
		result      []byte
		errMsg      sql.NullString
		completedAt sql.NullTime
	)
	if err := row.Scan(&task.ID, &task.Name, &status, &result, &errMsg, &task.CreatedAt, &completedAt); err != nil {
		return models.Task{}, err
	}
	task.Status = models.TaskStatus(status)
	task.CreatedAt = task.CreatedAt.UTC()
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		task.CompletedAt = &t
	}
	if errMsg.Valid {
		msg := errMsg.String
		task.Error = &msg
	}
	if len(result) > 0 {
		var r models.IceBreakerResult
		if err := json.Unmarshal(result, &r); err != nil {
			return models.Task{}, fmt.Errorf("failed to decode result: %w", err)
		}
		task.Result = &r
	}
	return task, nil
}

func (s *PostgresStore) requireRow(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("task %s: %w", id, models.ErrTaskNotFound)
	}
	return nil
}

func (s *PostgresStore) expired(task models.Task, now time.Time) bool {
	if s.ttl <= 0 || !task.Terminal() || task.CompletedAt == nil {
		return false
	}
	return now.Sub(*task.CompletedAt) > s.ttl
}

func (s *PostgresStore) sweepExpired(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM tasks WHERE status IN ($1,$2) AND completed_at < $3`,
		string(models.TaskStatusCompleted), string(models.TaskStatusFailed), time.Now().UTC().Add(-s.ttl))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
