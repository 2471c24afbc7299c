package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"ats-pipeline/domain"
)

// Redis key scheme: ats:{module}:{entity}:{id}
const (
	keyFileHashToResume = "ats:file:hash_to_id:%s"
	keyTaskStatus       = "ats:task:status:%s"
)

func NewRedisClient(addr, password string, db int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	return client
}

// HashCache maps content hashes to admitted resume ids. It is the fast
// first level of the dedup gate; the DB unique index stays authoritative.
type HashCache struct {
	client *redis.Client
}

func NewHashCache(client *redis.Client) *HashCache { return &HashCache{client: client} }

func (c *HashCache) GetResumeID(ctx context.Context, hash string) (int64, bool, error) {
	id, err := c.client.Get(ctx, fmt.Sprintf(keyFileHashToResume, hash)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (c *HashCache) SetResumeID(ctx context.Context, hash string, id int64, ttl time.Duration) error {
	return c.client.Set(ctx, fmt.Sprintf(keyFileHashToResume, hash), id, ttl).Err()
}

// IdempotencyMarker implements atomic set-if-absent flags shared across
// worker instances. In-process memory is never used for these; multiple
// consumers must observe the same marker.
type IdempotencyMarker struct {
	client *redis.Client
}

func NewIdempotencyMarker(client *redis.Client) *IdempotencyMarker {
	return &IdempotencyMarker{client: client}
}

func (m *IdempotencyMarker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return m.client.SetNX(ctx, key, time.Now().Unix(), ttl).Result()
}

func (m *IdempotencyMarker) Release(ctx context.Context, key string) error {
	return m.client.Del(ctx, key).Err()
}

// TaskStatusStore keeps the per-task observability records with a bounded
// retention window.
type TaskStatusStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTaskStatusStore(client *redis.Client, ttl time.Duration) *TaskStatusStore {
	return &TaskStatusStore{client: client, ttl: ttl}
}

func (s *TaskStatusStore) Put(ctx context.Context, taskID string, rec domain.TaskStatusRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, fmt.Sprintf(keyTaskStatus, taskID), b, s.ttl).Err()
}

func (s *TaskStatusStore) Get(ctx context.Context, taskID string) (*domain.TaskStatusRecord, error) {
	b, err := s.client.Get(ctx, fmt.Sprintf(keyTaskStatus, taskID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec domain.TaskStatusRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
