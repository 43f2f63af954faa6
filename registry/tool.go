// Package registry holds the concurrent tool registry and helpers for
// defining tools, including a typed builder that derives input schemas from
// Go argument structs.
package registry

import (
	"context"

	"github.com/ggoodman/mcp-transport-go/mcp"
)

// Tool is a callable unit of functionality exposed through tools/list and
// tools/call. Implementations must be safe for concurrent calls.
type Tool interface {
	// Name is the unique identifier used to look the tool up. It must be
	// non-empty and stable.
	Name() string

	// Description is a human-readable summary surfaced in listings.
	Description() string

	// InputSchema describes the arguments the tool accepts.
	InputSchema() mcp.ToolInputSchema

	// Call invokes the tool. A returned error is reported to the caller
	// as a tool failure; it never tears down the transport.
	Call(ctx context.Context, args map[string]any) (*mcp.ToolCallResult, error)

	// Metadata returns descriptive attributes such as version or author.
	Metadata() map[string]string

	// SupportsCapability reports whether the tool advertises the named
	// capability.
	SupportsCapability(capability string) bool
}

// Descriptor renders a tool into its listing form.
func Descriptor(t Tool) mcp.Tool {
	return mcp.Tool{
		Name:        t.Name(),
		Description: t.Description(),
		InputSchema: t.InputSchema(),
	}
}

// FuncTool adapts a plain function into a Tool.
type FuncTool struct {
	name         string
	description  string
	schema       mcp.ToolInputSchema
	metadata     map[string]string
	capabilities map[string]bool
	fn           func(ctx context.Context, args map[string]any) (*mcp.ToolCallResult, error)
}

var _ Tool = (*FuncTool)(nil)

// NewFuncTool builds a tool from a raw-arguments handler. The zero schema is
// replaced by an empty object schema.
func NewFuncTool(name, description string, schema mcp.ToolInputSchema, fn func(ctx context.Context, args map[string]any) (*mcp.ToolCallResult, error)) *FuncTool {
	if schema.Type == "" {
		schema = mcp.ToolInputSchema{Type: "object", Properties: map[string]mcp.SchemaProperty{}}
	}
	return &FuncTool{
		name:        name,
		description: description,
		schema:      schema,
		fn:          fn,
	}
}

// WithMetadata attaches descriptive attributes. It returns the receiver for
// chaining during construction.
func (t *FuncTool) WithMetadata(metadata map[string]string) *FuncTool {
	t.metadata = metadata
	return t
}

// WithCapabilities marks the named capabilities as supported.
func (t *FuncTool) WithCapabilities(capabilities ...string) *FuncTool {
	if t.capabilities == nil {
		t.capabilities = make(map[string]bool, len(capabilities))
	}
	for _, c := range capabilities {
		t.capabilities[c] = true
	}
	return t
}

func (t *FuncTool) Name() string                     { return t.name }
func (t *FuncTool) Description() string              { return t.description }
func (t *FuncTool) InputSchema() mcp.ToolInputSchema { return t.schema }
func (t *FuncTool) Metadata() map[string]string      { return t.metadata }
func (t *FuncTool) SupportsCapability(c string) bool { return t.capabilities[c] }

func (t *FuncTool) Call(ctx context.Context, args map[string]any) (*mcp.ToolCallResult, error) {
	return t.fn(ctx, args)
}
