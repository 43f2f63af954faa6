package stdio

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ggoodman/mcp-transport-go/internal/logctx"
	"github.com/ggoodman/mcp-transport-go/mcp"
	"github.com/ggoodman/mcp-transport-go/transport"
)

// Transport carries protocol messages over a newline-delimited JSON stream.
// It supports one concurrent receiver and one concurrent sender.
type Transport struct {
	in  io.Reader
	out io.Writer
	log *slog.Logger
	cfg transport.Config

	reader *bufio.Reader

	writeMu sync.Mutex
	writer  *bufio.Writer

	// pending holds the envelope IDs of requests handed to the caller, in
	// arrival order. Send stamps the oldest onto the outgoing response.
	pendingMu sync.Mutex
	pending   []*string

	connected atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

var _ transport.Transport = (*Transport)(nil)

// New builds a Transport reading from stdin and writing to stdout unless
// overridden by options.
func New(opts ...Option) *Transport {
	t := &Transport{
		in:  os.Stdin,
		out: os.Stdout,
		log: slog.New(logctx.Handler{Handler: slog.NewJSONHandler(os.Stderr, nil)}),
		cfg: transport.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.reader = bufio.NewReaderSize(t.in, t.cfg.BufferSize)
	t.writer = bufio.NewWriterSize(t.out, t.cfg.BufferSize)
	t.connected.Store(true)
	return t
}

// Receive blocks until the next request frame arrives. Control frames are
// consumed internally and response frames are skipped; a control close frame
// or stream end returns io.EOF.
func (t *Transport) Receive(ctx context.Context) (*mcp.Request, error) {
	ctx = logctx.WithTransportData(ctx, &logctx.TransportData{Kind: "stdio", Peer: "stdin"})

	for {
		if !t.connected.Load() {
			return nil, transport.ErrNotConnected
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, err := t.readFrame()
		if err != nil {
			if err == io.EOF {
				t.connected.Store(false)
				return nil, io.EOF
			}
			return nil, err
		}
		if len(line) == 0 {
			continue
		}

		msg, err := transport.Decode(line, t.cfg.MaxMessageSize)
		if err != nil {
			t.log.WarnContext(ctx, "dropping undecodable frame", slog.String("err", err.Error()))
			return nil, err
		}

		switch msg.Content.Type {
		case transport.ContentTypeRequest:
			t.pendingMu.Lock()
			t.pending = append(t.pending, msg.ID)
			t.pendingMu.Unlock()
			return msg.Content.Request, nil
		case transport.ContentTypeResponse:
			t.log.WarnContext(ctx, "discarding unexpected response frame")
		case transport.ContentTypeControl:
			if eof := t.handleControl(ctx, msg.Content.Control); eof {
				t.connected.Store(false)
				return nil, io.EOF
			}
		}
	}
}

// readFrame reads one newline-terminated line, honoring the size limit. When
// a line overflows the limit the remainder is drained so the next call
// starts on a fresh frame.
func (t *Transport) readFrame() ([]byte, error) {
	var buf []byte
	for {
		chunk, err := t.reader.ReadSlice('\n')
		buf = append(buf, chunk...)

		if err == bufio.ErrBufferFull {
			if t.cfg.MaxMessageSize > 0 && len(buf) > t.cfg.MaxMessageSize {
				size, drainErr := t.drainLine(len(buf))
				if drainErr != nil && drainErr != io.EOF {
					return nil, drainErr
				}
				return nil, &transport.SizeError{Size: size, Max: t.cfg.MaxMessageSize}
			}
			continue
		}
		if err != nil {
			if err == io.EOF && len(bytes.TrimSpace(buf)) > 0 {
				// Final line without a trailing newline.
				return trimFrame(buf), nil
			}
			return nil, err
		}
		return trimFrame(buf), nil
	}
}

// drainLine consumes the rest of an oversized line and returns its total
// size.
func (t *Transport) drainLine(size int) (int, error) {
	for {
		chunk, err := t.reader.ReadSlice('\n')
		size += len(chunk)
		if err == bufio.ErrBufferFull {
			continue
		}
		return size, err
	}
}

func trimFrame(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return line
}

func (t *Transport) handleControl(ctx context.Context, ctl *transport.ControlMessage) (eof bool) {
	switch ctl.Action {
	case transport.ControlPing:
		if err := t.writeMessage(transport.NewControlMessage(transport.NewPong(ctl))); err != nil {
			t.log.WarnContext(ctx, "failed to answer ping", slog.String("err", err.Error()))
		}
	case transport.ControlClose:
		t.log.InfoContext(ctx, "peer requested close", slog.String("reason", ctl.Reason))
		return true
	default:
		t.log.DebugContext(ctx, "ignoring control frame", slog.String("action", string(ctl.Action)))
	}
	return false
}

// Send writes a response as one atomic frame, correlated to the oldest
// request still awaiting a reply.
func (t *Transport) Send(ctx context.Context, resp *mcp.Response) error {
	if !t.connected.Load() {
		return transport.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.pendingMu.Lock()
	var id *string
	if len(t.pending) > 0 {
		id = t.pending[0]
		t.pending = t.pending[1:]
	}
	t.pendingMu.Unlock()

	return t.writeMessage(transport.NewResponseMessage(id, resp))
}

func (t *Transport) writeMessage(msg *transport.Message) error {
	frame, err := transport.Encode(msg, t.cfg.MaxMessageSize)
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if _, err := t.writer.Write(frame); err != nil {
		return err
	}
	if err := t.writer.WriteByte('\n'); err != nil {
		return err
	}
	return t.writer.Flush()
}

// Connected reports whether the stream can still carry messages.
func (t *Transport) Connected() bool {
	return t.connected.Load()
}

// Close flushes buffered output and marks the transport disconnected. It is
// idempotent and never closes the process's own stdin or stdout.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.connected.Store(false)

		t.writeMu.Lock()
		t.closeErr = t.writer.Flush()
		t.writeMu.Unlock()

		if c, ok := t.out.(io.Closer); ok && t.out != os.Stdout {
			if err := c.Close(); err != nil && t.closeErr == nil {
				t.closeErr = err
			}
		}
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
		"transport": "stdio",
	}
}
