package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/ggoodman/mcp-transport-go/mcp"
)

var (
	// ErrToolNotFound is returned when a lookup or unregister names an
	// unknown tool.
	ErrToolNotFound = errors.New("tool not found")
)

// Stats summarizes the registry contents.
type Stats struct {
	Tools      int
	Attributes map[string]int
}

// Registry is a concurrent name-to-tool map. Registration overwrites an
// existing tool with the same name; the overwrite is logged, not rejected.
// The lock guards only map access, never tool invocation.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	log   *slog.Logger
}

// NewRegistry builds an empty registry. A nil logger falls back to
// slog.Default.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		tools: make(map[string]Tool),
		log:   log,
	}
}

// Register adds a tool, replacing any existing tool with the same name.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("cannot register a nil tool")
	}
	name := t.Name()
	if name == "" {
		return fmt.Errorf("cannot register a tool with an empty name")
	}

	r.mu.Lock()
	_, replaced := r.tools[name]
	r.tools[name] = t
	r.mu.Unlock()

	if replaced {
		r.log.Warn("replaced existing tool", slog.String("tool", name))
	}
	return nil
}

// RegisterAll registers every tool, stopping at the first failure.
func (r *Registry) RegisterAll(tools ...Tool) error {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Unregister removes the named tool.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; !ok {
		return fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	delete(r.tools, name)
	return nil
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Has reports whether the named tool is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// List returns the descriptors of every registered tool, sorted by name.
func (r *Registry) List() []mcp.Tool {
	r.mu.RLock()
	out := make([]mcp.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, Descriptor(t))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.tools))
	for name := range r.tools {
		out = append(out, name)
	}
	r.mu.RUnlock()

	sort.Strings(out)
	return out
}

// Count reports the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Clear removes every tool.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools = make(map[string]Tool)
}

// FindByCapability returns every tool advertising the named capability,
// sorted by name.
func (r *Registry) FindByCapability(capability string) []Tool {
	r.mu.RLock()
	out := make([]Tool, 0)
	for _, t := range r.tools {
		if t.SupportsCapability(capability) {
			out = append(out, t)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Validate checks structural invariants over the registered tools: every
// tool reports a non-empty name matching its registration key.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for key, t := range r.tools {
		name := t.Name()
		if name == "" {
			return fmt.Errorf("tool registered as %q reports an empty name", key)
		}
		if name != key {
			return fmt.Errorf("tool registered as %q reports name %q", key, name)
		}
	}
	return nil
}

// Stats summarizes the registry: the tool count plus how many tools carry
// each metadata attribute.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make(map[string]int)
	for _, t := range r.tools {
		for k, v := range t.Metadata() {
			caps[k+"="+v]++
		}
	}
	return Stats{Tools: len(r.tools), Attributes: caps}
}
