package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
)

// ResultQueue is the return path from engine workers back to the output
// handler: PushResult is called by a worker once a node finishes,
// PollResults by the output handler loop.
type ResultQueue interface {
	PushResult(ctx context.Context, result model.TaskResult) error
	PollResults(ctx context.Context, max int) ([]model.TaskResult, error)
	Close() error
}

// InMemoryResultQueue is a plain mutex-guarded FIFO, the counterpart to
// InMemoryEngineQueue for single-process deployments and tests.
type InMemoryResultQueue struct {
	mu    sync.Mutex
	items []model.TaskResult
}

// NewInMemoryResultQueue builds an empty in-memory result queue.
func NewInMemoryResultQueue() *InMemoryResultQueue {
	return &InMemoryResultQueue{}
}

// PushResult appends a result; never blocks.
func (q *InMemoryResultQueue) PushResult(ctx context.Context, result model.TaskResult) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, result)
	return nil
}

// PollResults drains up to max queued results without blocking — callers
// poll on their own interval rather than waiting inline.
func (q *InMemoryResultQueue) PollResults(ctx context.Context, max int) ([]model.TaskResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, nil
	}
	if max <= 0 || max > len(q.items) {
		max = len(q.items)
	}
	taken := q.items[:max]
	q.items = q.items[max:]
	return taken, nil
}

// Close is a no-op for the in-memory queue.
func (q *InMemoryResultQueue) Close() error { return nil }

// RedisResultQueue carries results over a Redis list: LPush on push,
// RPop batches on poll, mirroring the priority queue's simpler sibling
// since results have no priority ordering of their own.
type RedisResultQueue struct {
	client *redis.Client
	key    string
}

// NewRedisResultQueue dials Redis and verifies connectivity before
// returning the queue.
func NewRedisResultQueue(cfg RedisEngineQueueConfig) (*RedisResultQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	name := cfg.QueueName
	if name == "" {
		name = "miniflow:engine:tasks"
	}

	return &RedisResultQueue{client: client, key: name + ":results"}, nil
}

// PushResult LPushes the serialized result.
func (q *RedisResultQueue) PushResult(ctx context.Context, result model.TaskResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal task result: %w", err)
	}
	return q.client.LPush(ctx, q.key, data).Err()
}

// PollResults RPops up to max results without blocking.
func (q *RedisResultQueue) PollResults(ctx context.Context, max int) ([]model.TaskResult, error) {
	if max <= 0 {
		max = 1
	}

	results := make([]model.TaskResult, 0, max)
	for i := 0; i < max; i++ {
		data, err := q.client.RPop(ctx, q.key).Result()
		if err == redis.Nil {
			break
		}
		if err != nil {
			return results, fmt.Errorf("failed to poll result queue: %w", err)
		}
		var r model.TaskResult
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

// Close releases the underlying Redis client.
func (q *RedisResultQueue) Close() error {
	return q.client.Close()
}
