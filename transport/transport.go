package transport

import (
	"context"
	"time"

	"github.com/ggoodman/mcp-transport-go/mcp"
)

// Config carries the tunables shared by every transport implementation.
type Config struct {
	// MaxMessageSize bounds a single encoded frame in bytes. Oversized
	// frames are rejected with a SizeError without tearing down the
	// transport.
	MaxMessageSize int `env:"TRANSPORT_MAX_MESSAGE_SIZE"`

	// Timeout bounds a single blocking operation.
	Timeout time.Duration `env:"TRANSPORT_TIMEOUT"`

	// KeepAlive is the interval between liveness probes on transports
	// that support them.
	KeepAlive time.Duration `env:"TRANSPORT_KEEP_ALIVE"`

	// Compression enables payload compression on transports that support
	// negotiating it.
	Compression bool `env:"TRANSPORT_COMPRESSION"`

	// BufferSize is the size of the transport's read and write buffers.
	BufferSize int `env:"TRANSPORT_BUFFER_SIZE"`
}

// DefaultConfig returns the baseline transport configuration.
func DefaultConfig() Config {
	return Config{
		MaxMessageSize: 1 << 20,
		Timeout:        30 * time.Second,
		KeepAlive:      60 * time.Second,
		Compression:    false,
		BufferSize:     8 << 10,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = def.KeepAlive
	}
	if c.BufferSize <= 0 {
		c.BufferSize = def.BufferSize
	}
	return c
}

// Normalized returns the config with zero-valued fields replaced by
// defaults.
func (c Config) Normalized() Config {
	return c.withDefaults()
}

// Transport is a bidirectional message channel between a protocol server and
// one peer. Implementations are safe for one concurrent sender and one
// concurrent receiver.
type Transport interface {
	// Send writes a response to the peer as one atomic frame. It fails
	// with ErrNotConnected after the transport has disconnected.
	Send(ctx context.Context, resp *mcp.Response) error

	// Receive blocks until the next request arrives. It returns io.EOF
	// when the peer has closed the channel cleanly. Malformed or
	// oversized frames surface as *InvalidMessageError or *SizeError and
	// leave the transport usable.
	Receive(ctx context.Context) (*mcp.Request, error)

	// Connected reports whether the transport can still carry messages.
	// Once false it never becomes true again.
	Connected() bool

	// Close flushes pending writes and releases the transport. It is
	// idempotent.
	Close() error

	// Config returns the transport's effective configuration.
	Config() Config

	// Metadata returns transport-specific descriptive attributes, such
	// as the transport kind and peer address.
	Metadata() map[string]string
}
