// Package queue defines the ordered byte-payload queue used by the HTTP
// bridge to hand frames between its HTTP handlers and the dispatcher.
package queue

import "context"

// Envelope is one queued payload with the ID assigned at enqueue time.
type Envelope struct {
	ID   string
	Data []byte
}

// Queue is an ordered FIFO of opaque payloads. Implementations are safe for
// concurrent producers and consumers.
type Queue interface {
	// Enqueue appends a payload and returns its assigned ID.
	Enqueue(ctx context.Context, data []byte) (string, error)

	// Dequeue blocks until a payload is available or the context ends. It
	// returns io.EOF once the queue has been closed and drained.
	Dequeue(ctx context.Context) (Envelope, error)

	// Len reports the number of payloads currently queued.
	Len() int

	// Close stops the queue for new payloads. Payloads already queued can
	// still be dequeued.
	Close() error
}
