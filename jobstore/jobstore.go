// Package jobstore keeps job status snapshots so the API can report progress
// of jobs running in this or another process.
package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"storyreel/config"
	"storyreel/state"
	"storyreel/types"
)

// ErrNotFound is returned for unknown job ids.
var ErrNotFound = errors.New("job not found")

// Store saves and loads job snapshots.
type Store interface {
	Save(ctx context.Context, status types.JobStatus) error
	Load(ctx context.Context, jobID string) (types.JobStatus, error)
}

// Key returns the redis key of a job snapshot
func Key(jobID string) string {
	return "job:" + jobID
}

// Redis stores snapshots as JSON strings with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to cfg.Addr and checks the connection.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return &Redis{client: client, ttl: config.JobStatusTTL}, nil
}

func (r *Redis) Save(ctx context.Context, status types.JobStatus) error {
	b, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, Key(status.JobID), b, r.ttl).Err()
}

func (r *Redis) Load(ctx context.Context, jobID string) (types.JobStatus, error) {
	var status types.JobStatus

	b, err := r.client.Get(ctx, Key(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return status, ErrNotFound
	}
	if err != nil {
		return status, err
	}

	if err := json.Unmarshal(b, &status); err != nil {
		return status, fmt.Errorf("corrupt snapshot for job %s: %w", jobID, err)
	}
	return status, nil
}

// Close closes the redis connection pool
func (r *Redis) Close() error {
	return r.client.Close()
}

// Memory keeps snapshots in process. It is used when redis is not configured.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]types.JobStatus
}

// NewMemory creates an empty in-process store
func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]types.JobStatus)}
}

func (m *Memory) Save(_ context.Context, status types.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[status.JobID] = status
	return nil
}

func (m *Memory) Load(_ context.Context, jobID string) (types.JobStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.jobs[jobID]
	if !ok {
		return s, ErrNotFound
	}
	return s, nil
}

// Observer saves every status change to store. Save errors are logged and
// never interrupt the job.
func Observer(store Store) state.Observer {
	return state.ObserverFunc(func(s types.JobStatus) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Save(ctx, s); err != nil {
			log.Printf("Failed to save status of job %s: %v", s.JobID, err)
		}
	})
}
