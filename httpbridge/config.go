package httpbridge

import (
	"fmt"

	"github.com/joeshaw/envdecode"

	"github.com/ggoodman/mcp-transport-go/transport"
)

// Config for the HTTP bridge. Defaults can be loaded via envdecode.
type Config struct {
	// Addr to bind, like ":8080". ENV: BRIDGE_ADDR
	Addr string `env:"BRIDGE_ADDR,default=:8080"`

	// Transport carries the shared transport tunables; zero-valued fields
	// fall back to defaults.
	Transport transport.Config
}

// NewConfigFromEnv populates Config from the environment via envdecode.
func NewConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode bridge config: %w", err)
	}
	return cfg, nil
}
