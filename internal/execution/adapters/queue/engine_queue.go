// Package queue adapts the execution core's EngineQueue abstraction onto an
// in-process queue for single-node deployments and a Redis-backed queue for
// distributed ones, following the priority-queue patterns of
// internal/engine/queue.go.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
)

// EngineQueue is the put_bulk/poll contract §6 requires between the
// scheduler and whatever runs nodes. put_bulk either durably accepts every
// payload or accepts none of them — the input handler only deletes their
// ExecutionInput rows after a true return.
type EngineQueue interface {
	PutBulk(ctx context.Context, payloads []model.TaskPayload) (bool, error)
	Poll(ctx context.Context, max int) ([]model.TaskPayload, error)
	Close() error
}

// InMemoryEngineQueue is a single-process priority queue: useful for tests
// and for running the whole engine embedded in one binary.
type InMemoryEngineQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []model.TaskPayload
	closed bool
}

// NewInMemoryEngineQueue builds an empty in-memory queue.
func NewInMemoryEngineQueue() *InMemoryEngineQueue {
	q := &InMemoryEngineQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// PutBulk inserts every payload in priority order (highest first) and
// always succeeds once the queue isn't closed — there is no partial
// acceptance for the in-memory queue, so callers never see put_bulk return
// false without an error accompanying it.
func (q *InMemoryEngineQueue) PutBulk(ctx context.Context, payloads []model.TaskPayload) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false, fmt.Errorf("engine queue is closed")
	}

	for _, p := range payloads {
		inserted := false
		for i, existing := range q.items {
			if p.Priority > existing.Priority {
				q.items = append(q.items[:i], append([]model.TaskPayload{p}, q.items[i:]...)...)
				inserted = true
				break
			}
		}
		if !inserted {
			q.items = append(q.items, p)
		}
	}

	q.cond.Broadcast()
	return true, nil
}

// Poll returns up to max queued payloads, blocking until at least one is
// available or the queue closes.
func (q *InMemoryEngineQueue) Poll(ctx context.Context, max int) ([]model.TaskPayload, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
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

// Close unblocks any pending Poll call.
func (q *InMemoryEngineQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
	return nil
}

// RedisEngineQueue is a Redis sorted-set priority queue shared by every
// engine worker process, with a dead-letter list for payloads that a worker
// could never successfully claim.
type RedisEngineQueue struct {
	client        *redis.Client
	queueKey      string
	deadLetterKey string
}

// RedisEngineQueueConfig configures the backing Redis connection and key
// namespace.
type RedisEngineQueueConfig struct {
	Addr      string
	Password  string
	DB        int
	QueueName string
}

// NewRedisEngineQueue dials Redis and verifies connectivity before
// returning the queue.
func NewRedisEngineQueue(cfg RedisEngineQueueConfig) (*RedisEngineQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	name := cfg.QueueName
	if name == "" {
		name = "miniflow:engine:tasks"
	}

	return &RedisEngineQueue{
		client:        client,
		queueKey:      name,
		deadLetterKey: name + ":deadletter",
	}, nil
}

// PutBulk ZADDs every payload atomically via a pipeline; it reports false,
// rather than an error, only when the pipeline itself ran but some members
// were rejected — the caller (input handler) must not delete the
// corresponding ExecutionInput rows on a false/err return (§5 at-most-once
// dispatch).
func (q *RedisEngineQueue) PutBulk(ctx context.Context, payloads []model.TaskPayload) (bool, error) {
	if len(payloads) == 0 {
		return true, nil
	}

	pipe := q.client.Pipeline()
	now := float64(time.Now().UnixNano())
	for _, p := range payloads {
		data, err := json.Marshal(p)
		if err != nil {
			return false, fmt.Errorf("failed to marshal task payload: %w", err)
		}
		score := now - float64(p.Priority)*1e9
		pipe.ZAdd(ctx, q.queueKey, redis.Z{Score: score, Member: data})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to submit task batch: %w", err)
	}
	return true, nil
}

// Poll pops up to max lowest-score (highest-priority) members.
func (q *RedisEngineQueue) Poll(ctx context.Context, max int) ([]model.TaskPayload, error) {
	if max <= 0 {
		max = 1
	}
	results, err := q.client.ZPopMin(ctx, q.queueKey, int64(max)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to poll task queue: %w", err)
	}

	payloads := make([]model.TaskPayload, 0, len(results))
	for _, r := range results {
		member, ok := r.Member.(string)
		if !ok {
			continue
		}
		var p model.TaskPayload
		if err := json.Unmarshal([]byte(member), &p); err != nil {
			q.client.LPush(ctx, q.deadLetterKey, member)
			continue
		}
		payloads = append(payloads, p)
	}
	return payloads, nil
}

// ReprocessDeadLetter moves every dead-lettered payload back onto the live
// queue at its original priority, for operator-triggered recovery after a
// transient marshal or Redis failure.
func (q *RedisEngineQueue) ReprocessDeadLetter(ctx context.Context) (int, error) {
	count := 0
	for {
		member, err := q.client.RPop(ctx, q.deadLetterKey).Result()
		if err == redis.Nil {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to drain dead letter queue: %w", err)
		}
		var p model.TaskPayload
		if err := json.Unmarshal([]byte(member), &p); err != nil {
			continue
		}
		if _, err := q.PutBulk(ctx, []model.TaskPayload{p}); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Close releases the underlying Redis client.
func (q *RedisEngineQueue) Close() error {
	return q.client.Close()
}
