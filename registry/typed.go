package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/ggoodman/mcp-transport-go/mcp"
)

// TypedHandler handles a tool invocation with arguments already decoded into
// the typed struct A.
type TypedHandler[A any] func(ctx context.Context, args A) (*mcp.ToolCallResult, error)

type toolConfig struct {
	description               string
	metadata                  map[string]string
	capabilities              []string
	allowAdditionalProperties bool
}

// ToolOption customizes a typed tool.
type ToolOption func(*toolConfig)

// WithToolDescription sets the listing description.
func WithToolDescription(description string) ToolOption {
	return func(c *toolConfig) { c.description = description }
}

// WithToolMetadata attaches descriptive attributes.
func WithToolMetadata(metadata map[string]string) ToolOption {
	return func(c *toolConfig) { c.metadata = metadata }
}

// WithToolCapabilities marks the named capabilities as supported.
func WithToolCapabilities(capabilities ...string) ToolOption {
	return func(c *toolConfig) { c.capabilities = append(c.capabilities, capabilities...) }
}

// WithToolAllowAdditionalProperties controls whether unknown argument fields
// are tolerated. The default rejects them.
func WithToolAllowAdditionalProperties(allow bool) ToolOption {
	return func(c *toolConfig) { c.allowAdditionalProperties = allow }
}

// New builds a tool whose input schema is reflected from the argument struct
// A and whose handler receives decoded arguments. Struct tags (json,
// jsonschema) shape the advertised schema.
func New[A any](name string, fn TypedHandler[A], opts ...ToolOption) Tool {
	var cfg toolConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	schema := reflectInputSchema[A](cfg.allowAdditionalProperties)

	t := NewFuncTool(name, cfg.description, schema, func(ctx context.Context, args map[string]any) (*mcp.ToolCallResult, error) {
		var a A
		if len(args) > 0 {
			raw, err := json.Marshal(args)
			if err != nil {
				return nil, mcp.Errorf(mcp.ErrorCodeInvalidParams, "invalid arguments: %v", err)
			}
			if cfg.allowAdditionalProperties {
				if err := json.Unmarshal(raw, &a); err != nil {
					return nil, mcp.Errorf(mcp.ErrorCodeInvalidParams, "invalid arguments: %v", err)
				}
			} else {
				dec := json.NewDecoder(bytes.NewReader(raw))
				dec.DisallowUnknownFields()
				if err := dec.Decode(&a); err != nil {
					return nil, mcp.Errorf(mcp.ErrorCodeInvalidParams, "invalid arguments: %v", err)
				}
			}
		}
		return fn(ctx, a)
	})
	t.WithMetadata(cfg.metadata)
	t.WithCapabilities(cfg.capabilities...)
	return t
}

// reflectInputSchema reflects the Go type A into a jsonschema.Schema and
// converts it to the simplified wire schema. Non-object types surface as an
// empty object schema.
func reflectInputSchema[A any](allowAdditional bool) mcp.ToolInputSchema {
	r := &jsonschema.Reflector{
		DoNotReference:            true, // inline defs
		ExpandedStruct:            true, // put struct at root
		AllowAdditionalProperties: allowAdditional,
	}
	s := r.Reflect(new(A))

	if s == nil || s.Type != "object" {
		return mcp.ToolInputSchema{
			Type:                 "object",
			Properties:           map[string]mcp.SchemaProperty{},
			AdditionalProperties: allowAdditional,
		}
	}

	props := make(map[string]mcp.SchemaProperty)
	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			props[el.Key] = toSchemaProperty(el.Value)
		}
	}
	var required []string
	if len(s.Required) > 0 {
		required = append(required, s.Required...)
	}

	return mcp.ToolInputSchema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: allowAdditional,
	}
}

func toSchemaProperty(s *jsonschema.Schema) mcp.SchemaProperty {
	if s == nil {
		return mcp.SchemaProperty{}
	}
	p := mcp.SchemaProperty{
		Type:        s.Type,
		Description: s.Description,
	}
	if len(s.Enum) > 0 {
		p.Enum = s.Enum
	}
	if s.Type == "array" && s.Items != nil {
		item := toSchemaProperty(s.Items)
		p.Items = &item
	}
	if s.Type == "object" && s.Properties != nil {
		m := make(map[string]mcp.SchemaProperty, s.Properties.Len())
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			m[el.Key] = toSchemaProperty(el.Value)
		}
		p.Properties = m
	}
	return p
}

// TextResult builds a successful tool payload with a single text block.
func TextResult(text string) *mcp.ToolCallResult {
	return &mcp.ToolCallResult{Content: []mcp.ToolContent{mcp.TextContent(text)}}
}

// ErrorResult builds a tool-level failure payload.
func ErrorResult(format string, args ...any) *mcp.ToolCallResult {
	return &mcp.ToolCallResult{
		Content: []mcp.ToolContent{mcp.TextContent(fmt.Sprintf(format, args...))},
		IsError: true,
	}
}
