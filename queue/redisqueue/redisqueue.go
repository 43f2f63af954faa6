// Package redisqueue implements the queue contract on a Redis list, letting
// the HTTP bridge's handlers and dispatcher run in separate processes.
package redisqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"

	"github.com/ggoodman/mcp-transport-go/queue"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("queue is closed")

// Config for a Redis-backed queue. Defaults can be loaded via envdecode.
type Config struct {
	// RedisAddr like "localhost:6379". ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`
	// Key is the Redis list holding the queue. ENV: BRIDGE_QUEUE_KEY
	Key string `env:"BRIDGE_QUEUE_KEY,default=mcp:bridge:queue"`

	// Client overrides the Redis client. When set, RedisAddr is ignored
	// and Close leaves the client open.
	Client redis.UniversalClient `env:"-"`
}

// Queue is a FIFO backed by a Redis list (RPUSH to produce, BLPOP to
// consume). Multiple processes may share one key.
type Queue struct {
	client       redis.UniversalClient
	ownClient    bool
	key          string
	closed       atomic.Bool
	clientClosed atomic.Bool
}

var _ queue.Queue = (*Queue)(nil)

type wireEnvelope struct {
	ID   string `json:"id"`
	Data []byte `json:"data"`
}

// New builds a queue from the given config, verifying connectivity with a
// ping.
func New(cfg Config) (*Queue, error) {
	client := cfg.Client
	ownClient := false
	if client == nil {
		addr := cfg.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		client = redis.NewClient(&redis.Options{Addr: addr})
		ownClient = true
	}
	if err := client.Ping(context.Background()).Err(); err != nil {
		if ownClient {
			_ = client.Close()
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = "mcp:bridge:queue"
	}
	return &Queue{client: client, ownClient: ownClient, key: key}, nil
}

// NewFromEnv builds a queue using envdecode to populate Config.
func NewFromEnv() (*Queue, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode queue config: %w", err)
	}
	return New(cfg)
}

// Enqueue appends a payload and returns its assigned ID.
func (q *Queue) Enqueue(ctx context.Context, data []byte) (string, error) {
	if q.closed.Load() {
		return "", ErrClosed
	}

	env := wireEnvelope{ID: uuid.NewString(), Data: data}
	b, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("encode queue envelope: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, b).Err(); err != nil {
		return "", fmt.Errorf("rpush %s: %w", q.key, err)
	}
	return env.ID, nil
}

// Dequeue blocks until a payload is available or ctx ends. After Close it
// drains the list and then returns io.EOF.
func (q *Queue) Dequeue(ctx context.Context) (queue.Envelope, error) {
	for {
		if err := ctx.Err(); err != nil {
			return queue.Envelope{}, err
		}

		if q.closed.Load() {
			// Drain without blocking.
			raw, err := q.client.LPop(ctx, q.key).Result()
			if err == redis.Nil {
				q.releaseClient()
				return queue.Envelope{}, io.EOF
			}
			if err != nil {
				return queue.Envelope{}, fmt.Errorf("lpop %s: %w", q.key, err)
			}
			return decodeEnvelope([]byte(raw))
		}

		// Block briefly so closure and cancellation are observed.
		vals, err := q.client.BLPop(ctx, time.Second, q.key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return queue.Envelope{}, ctx.Err()
			}
			if q.closed.Load() {
				// Close raced the blocking pop.
				return queue.Envelope{}, io.EOF
			}
			return queue.Envelope{}, fmt.Errorf("blpop %s: %w", q.key, err)
		}
		// BLPOP returns [key, value].
		return decodeEnvelope([]byte(vals[1]))
	}
}

func decodeEnvelope(raw []byte) (queue.Envelope, error) {
	var env wireEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return queue.Envelope{}, fmt.Errorf("decode queue envelope: %w", err)
	}
	return queue.Envelope{ID: env.ID, Data: env.Data}, nil
}

// Len reports the current list length.
func (q *Queue) Len() int {
	n, err := q.client.LLen(context.Background(), q.key).Result()
	if err != nil {
		return 0
	}
	return int(n)
}

// Close stops the queue for new payloads. Payloads already in the list stay
// dequeueable; a client this queue created is released once the list drains.
func (q *Queue) Close() error {
	if q.closed.Swap(true) {
		return nil
	}
	if q.Len() == 0 {
		q.releaseClient()
	}
	return nil
}

func (q *Queue) releaseClient() {
	if q.ownClient && !q.clientClosed.Swap(true) {
		_ = q.client.Close()
	}
}
