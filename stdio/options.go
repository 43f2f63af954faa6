package stdio

import (
	"io"
	"log/slog"

	"github.com/ggoodman/mcp-transport-go/transport"
)

// Option customizes a Transport.
type Option func(*Transport)

// WithIO overrides both the input and output streams. The default is the
// process's stdin and stdout.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(t *Transport) {
		t.in = r
		t.out = w
	}
}

// WithReader overrides the input stream.
func WithReader(r io.Reader) Option {
	return func(t *Transport) {
		t.in = r
	}
}

// WithWriter overrides the output stream.
func WithWriter(w io.Writer) Option {
	return func(t *Transport) {
		t.out = w
	}
}

// WithLogger overrides the logger. The default discards nothing and writes
// to stderr so log output never corrupts the framed stdout stream.
func WithLogger(log *slog.Logger) Option {
	return func(t *Transport) {
		t.log = log
	}
}

// WithConfig overrides the transport configuration. Zero-valued fields fall
// back to defaults.
func WithConfig(cfg transport.Config) Option {
	return func(t *Transport) {
		t.cfg = cfg.Normalized()
	}
}
