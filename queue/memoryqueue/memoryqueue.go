// Package memoryqueue implements an in-process FIFO queue. It suits tests
// and single-process deployments where the HTTP bridge and dispatcher share
// an address space.
package memoryqueue

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/ggoodman/mcp-transport-go/queue"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("queue is closed")

// Queue is an unbounded in-memory FIFO.
type Queue struct {
	mu     sync.Mutex
	items  []queue.Envelope
	closed bool
	// wake is closed and replaced whenever the queue state changes, waking
	// every blocked Dequeue.
	wake chan struct{}

	nextID atomic.Uint64
}

var _ queue.Queue = (*Queue)(nil)

// New builds an empty queue.
func New() *Queue {
	return &Queue{wake: make(chan struct{})}
}

// Enqueue appends a payload and returns its assigned ID. The payload is
// copied so the caller may reuse the slice.
func (q *Queue) Enqueue(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := strconv.FormatUint(q.nextID.Add(1), 10)
	buf := make([]byte, len(data))
	copy(buf, data)

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return "", ErrClosed
	}
	q.items = append(q.items, queue.Envelope{ID: id, Data: buf})
	q.wakeLocked()
	return id, nil
}

// Dequeue blocks until a payload is available or ctx ends. After Close it
// drains remaining payloads and then returns io.EOF.
func (q *Queue) Dequeue(ctx context.Context) (queue.Envelope, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			env := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return env, nil
		}
		if q.closed {
			q.mu.Unlock()
			return queue.Envelope{}, io.EOF
		}
		wake := q.wake
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return queue.Envelope{}, ctx.Err()
		case <-wake:
		}
	}
}

// Len reports the number of queued payloads.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops the queue for new payloads. Idempotent.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		q.wakeLocked()
	}
	return nil
}

func (q *Queue) wakeLocked() {
	close(q.wake)
	q.wake = make(chan struct{})
}
