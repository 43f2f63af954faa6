package httpbridge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ggoodman/mcp-transport-go/internal/logctx"
	"github.com/ggoodman/mcp-transport-go/mcp"
	"github.com/ggoodman/mcp-transport-go/queue"
	"github.com/ggoodman/mcp-transport-go/queue/memoryqueue"
	"github.com/ggoodman/mcp-transport-go/transport"
)

// Transport bridges HTTP handlers to the transport contract. HTTP requests
// are framed and queued; the dispatcher drains the queue via Receive and
// answers via Send, which completes the waiting handler's slot.
type Transport struct {
	cfg  transport.Config
	addr string
	log  *slog.Logger

	requests queue.Queue

	// slots routes dispatcher responses back to waiting HTTP handlers,
	// keyed by envelope ID. A slot is buffered so Send never blocks.
	slotsMu sync.Mutex
	slots   map[string]chan *mcp.Response

	// inflight holds envelope IDs handed to the dispatcher, in arrival
	// order. Send completes the oldest.
	inflightMu sync.Mutex
	inflight   []string

	srv      *http.Server
	listener net.Listener

	connected atomic.Bool
	// drained flips once Receive has observed the closed queue's end;
	// later calls fail with ErrNotConnected instead of repeating io.EOF.
	drained   atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

var _ transport.Transport = (*Transport)(nil)

// Option customizes a Transport.
type Option func(*Transport)

// WithLogger overrides the logger.
func WithLogger(log *slog.Logger) Option {
	return func(t *Transport) { t.log = log }
}

// WithQueue overrides the inbound request queue. The default is an
// in-process queue; a Redis-backed queue lets the HTTP front end and the
// dispatcher run in separate processes.
func WithQueue(q queue.Queue) Option {
	return func(t *Transport) { t.requests = q }
}

// New builds a bridge bound to cfg.Addr once started.
func New(cfg Config, opts ...Option) *Transport {
	t := &Transport{
		cfg:   cfg.Transport.Normalized(),
		addr:  cfg.Addr,
		log:   slog.New(logctx.Handler{Handler: slog.NewJSONHandler(os.Stderr, nil)}),
		slots: make(map[string]chan *mcp.Response),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.requests == nil {
		t.requests = memoryqueue.New()
	}
	if t.addr == "" {
		t.addr = ":8080"
	}
	t.connected.Store(true)
	return t
}

// Start binds the listener and serves HTTP until Close. A failed bind
// surfaces as the returned error; serving itself proceeds in the
// background.
func (t *Transport) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return &ConnectionError{Addr: t.addr, Err: err}
	}
	t.listener = ln

	t.srv = &http.Server{
		Handler: t.routes(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if serr := t.srv.Serve(ln); serr != nil && serr != http.ErrServerClosed {
			t.log.Error("http server stopped", slog.String("err", serr.Error()))
		}
	}()

	t.log.InfoContext(ctx, "http bridge listening", slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound listener address, or the configured address before
// Start.
func (t *Transport) Addr() string {
	if t.listener != nil {
		return t.listener.Addr().String()
	}
	return t.addr
}

// Receive blocks until the next framed request is dequeued. The first call
// after the bridge closes and the queue drains returns io.EOF; calls after
// that fail with ErrNotConnected. Undecodable payloads are dropped without
// surfacing to the caller: they never came from a handler, so there is no
// waiting peer to answer.
func (t *Transport) Receive(ctx context.Context) (*mcp.Request, error) {
	if t.drained.Load() {
		return nil, transport.ErrNotConnected
	}

	ctx = logctx.WithTransportData(ctx, &logctx.TransportData{Kind: "http", Peer: t.addr})

	for {
		env, err := t.requests.Dequeue(ctx)
		if err != nil {
			if err == io.EOF {
				t.connected.Store(false)
				t.drained.Store(true)
				return nil, io.EOF
			}
			return nil, err
		}

		msg, err := transport.Decode(env.Data, t.cfg.MaxMessageSize)
		if err != nil {
			t.log.WarnContext(ctx, "dropping undecodable frame",
				slog.String("queue_id", env.ID),
				slog.String("err", err.Error()),
			)
			continue
		}
		if msg.Content.Type != transport.ContentTypeRequest {
			t.log.WarnContext(ctx, "discarding non-request frame", slog.String("type", string(msg.Content.Type)))
			continue
		}
		if msg.ID == nil {
			t.log.WarnContext(ctx, "discarding uncorrelatable request frame")
			continue
		}

		t.inflightMu.Lock()
		t.inflight = append(t.inflight, *msg.ID)
		t.inflightMu.Unlock()

		return msg.Content.Request, nil
	}
}

// Send completes the oldest in-flight request with the response. Responses
// to requests whose HTTP handler already timed out are dropped.
func (t *Transport) Send(ctx context.Context, resp *mcp.Response) error {
	if !t.connected.Load() {
		return transport.ErrNotConnected
	}

	t.inflightMu.Lock()
	var id string
	if len(t.inflight) > 0 {
		id = t.inflight[0]
		t.inflight = t.inflight[1:]
	}
	t.inflightMu.Unlock()

	if id == "" {
		return errors.New("no request is awaiting a response")
	}

	t.slotsMu.Lock()
	slot, ok := t.slots[id]
	if ok {
		delete(t.slots, id)
	}
	t.slotsMu.Unlock()

	if !ok {
		t.log.DebugContext(ctx, "dropping response for expired request", slog.String("id", id))
		return nil
	}
	slot <- resp
	return nil
}

// submit frames a request, registers a completion slot, and enqueues it. It
// waits up to the configured timeout for the dispatcher's response; ok is
// false when the wait expired or the bridge closed.
func (t *Transport) submit(ctx context.Context, req *mcp.Request) (resp *mcp.Response, id string, ok bool, err error) {
	id = uuid.NewString()
	msg := &transport.Message{ID: &id, Content: transport.RequestContent(req)}
	frame, err := transport.Encode(msg, t.cfg.MaxMessageSize)
	if err != nil {
		return nil, "", false, err
	}

	slot := make(chan *mcp.Response, 1)
	t.slotsMu.Lock()
	t.slots[id] = slot
	t.slotsMu.Unlock()

	abandon := func() {
		t.slotsMu.Lock()
		delete(t.slots, id)
		t.slotsMu.Unlock()
	}

	if _, err := t.requests.Enqueue(ctx, frame); err != nil {
		abandon()
		return nil, "", false, err
	}

	timer := time.NewTimer(t.cfg.Timeout)
	defer timer.Stop()

	select {
	case resp, open := <-slot:
		if !open {
			return nil, id, false, transport.ErrClosed
		}
		return resp, id, true, nil
	case <-timer.C:
		abandon()
		return nil, id, false, nil
	case <-ctx.Done():
		abandon()
		return nil, id, false, ctx.Err()
	}
}

// Connected reports whether the bridge can still carry messages.
func (t *Transport) Connected() bool {
	return t.connected.Load()
}

// Close shuts the HTTP server down, closes the queue, and releases every
// waiting handler. Idempotent.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.connected.Store(false)

		if t.srv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			t.closeErr = t.srv.Shutdown(ctx)
		}

		if err := t.requests.Close(); err != nil && t.closeErr == nil {
			t.closeErr = err
		}

		t.slotsMu.Lock()
		for id, slot := range t.slots {
			close(slot)
			delete(t.slots, id)
		}
		t.slotsMu.Unlock()
	})
	return t.closeErr
}

// Config returns the transport's effective configuration.
func (t *Transport) Config() transport.Config {
	return t.cfg
}

// Metadata describes the transport.
func (t *Transport) Metadata() map[string]string {
	return map[string]string{
		"transport": "http",
		"addr":      t.Addr(),
	}
}
