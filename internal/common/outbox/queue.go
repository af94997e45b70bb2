// Package outbox keeps notifications that failed synchronous delivery in a
// Redis list and retries them in the background.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"iiot-site/internal/common/mail"
	"iiot-site/internal/common/metrics"
)

// Envelope is one pending notification.
type Envelope struct {
	ID           string        `json:"id"`
	Kind         string        `json:"kind"`
	SubmissionID string        `json:"submissionId"`
	Message      *mail.Message `json:"message"`
	Attempts     int           `json:"attempts"`
	LastError    string        `json:"lastError,omitempty"`
	EnqueuedAt   time.Time     `json:"enqueuedAt"`
}

// Queue is a FIFO over a Redis list: LPUSH to enqueue, RPOP to dequeue.
// Envelopes that exhaust their attempts move to <key>:dead.
type Queue struct {
	redis   *redis.Client
	key     string
	deadKey string
}

func NewQueue(client *redis.Client, key string) *Queue {
	return &Queue{redis: client, key: key, deadKey: key + ":dead"}
}

// Enqueue stores env, assigning an ID and timestamp when unset.
func (q *Queue) Enqueue(ctx context.Context, env *Envelope) error {
	if env.Message == nil {
		return fmt.Errorf("envelope has no message")
	}
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	if env.EnqueuedAt.IsZero() {
		env.EnqueuedAt = time.Now().UTC()
	}

	if err := q.push(ctx, q.key, env); err != nil {
		return err
	}
	metrics.OutboxEventsTotal.WithLabelValues("enqueued").Inc()
	return nil
}

// Dequeue pops the oldest envelope. It returns (nil, nil) when empty.
func (q *Queue) Dequeue(ctx context.Context) (*Envelope, error) {
	raw, err := q.redis.RPop(ctx, q.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue envelope: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Undecodable payloads go straight to the dead list.
		_ = q.redis.LPush(ctx, q.deadKey, raw).Err()
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &env, nil
}

// Requeue pushes env back for a later pass.
func (q *Queue) Requeue(ctx context.Context, env *Envelope) error {
	return q.push(ctx, q.key, env)
}

// Restore puts env back at the dequeue end so it is the next one out.
// Attempts are left untouched.
func (q *Queue) Restore(ctx context.Context, env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := q.redis.RPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("restore envelope to %s: %w", q.key, err)
	}
	return nil
}

// Bury moves env to the dead list.
func (q *Queue) Bury(ctx context.Context, env *Envelope) error {
	return q.push(ctx, q.deadKey, env)
}

func (q *Queue) push(ctx context.Context, key string, env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := q.redis.LPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("push envelope to %s: %w", key, err)
	}
	return nil
}

func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.redis.LLen(ctx, q.key).Result()
}

func (q *Queue) DeadLen(ctx context.Context) (int64, error) {
	return q.redis.LLen(ctx, q.deadKey).Result()
}
