package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/mohammad-safakhou/icebreak/config"
	"github.com/mohammad-safakhou/icebreak/models"
	"github.com/redis/go-redis/v9"
)

const taskKeyPrefix = "task:"

// RedisStore keeps tasks as JSON values in Redis. Finished tasks carry the
// configured TTL so expiry needs no janitor.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis using cfg.Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg config.StorageConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{client: client, ttl: cfg.ResultTTL}, nil
}

func (s *RedisStore) Create(ctx context.Context, name string) (models.Task, error) {
	task := models.Task{
		ID:        newTaskID(),
		Status:    models.TaskStatusProcessing,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.save(ctx, task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (models.Task, error) {
	payload, err := s.client.Get(ctx, taskKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return models.Task{}, fmt.Errorf("task %s: %w", id, models.ErrTaskNotFound)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to load task %s: %w", id, err)
	}
	var task models.Task
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return models.Task{}, fmt.Errorf("failed to decode task %s: %w", id, err)
	}
	return task, nil
}

func (s *RedisStore) Complete(ctx context.Context, id string, result models.IceBreakerResult) error {
	task, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	task.Status = models.TaskStatusCompleted
	task.CompletedAt = &now
	task.Result = &result
	task.Error = nil
	return s.save(ctx, task)
}

func (s *RedisStore) Fail(ctx context.Context, id string, reason string) error {
	task, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	task.Status = models.TaskStatusFailed
	task.CompletedAt = &now
	task.Result = nil
	task.Error = &reason
	return s.save(ctx, task)
}

func (s *RedisStore) List(ctx context.Context, limit int) ([]models.Task, error) {
	keys, err := s.client.Keys(ctx, taskKeyPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	tasks := make([]models.Task, 0, len(keys))
	for _, key := range keys {
		payload, err := s.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue // expired between KEYS and GET
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load task %s: %w", key, err)
		}
		var task models.Task
		if err := json.Unmarshal([]byte(payload), &task); err != nil {
			continue
		}
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return tasks, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// save writes the task back. Finished tasks get the result TTL, processing
// tasks persist until they finish.
func (s *RedisStore) save(ctx context.Context, task models.Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task %s: %w", task.ID, err)
	}
	var expiry time.Duration
	if task.Terminal() && s.ttl > 0 {
		expiry = s.ttl
	}
	if err := s.client.Set(ctx, taskKeyPrefix+task.ID, payload, expiry).Err(); err != nil {
		return fmt.Errorf("failed to store task %s: %w", task.ID, err)
	}
	return nil
}
