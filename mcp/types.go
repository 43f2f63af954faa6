package mcp

// Tool describes a callable tool and its input schema as surfaced in
// tools/list results.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema ToolInputSchema `json:"inputSchema"`
}

// ToolInputSchema is a JSON-schema-like description of tool input. Only the
// object shape is representable; tools with non-object input advertise an
// empty object schema.
type ToolInputSchema struct {
	Type                 string                    `json:"type"`
	Properties           map[string]SchemaProperty `json:"properties,omitempty"`
	Required             []string                  `json:"required,omitempty"`
	AdditionalProperties bool                      `json:"additionalProperties,omitzero"`
}

// SchemaProperty describes one property within a ToolInputSchema.
type SchemaProperty struct {
	Type        string                    `json:"type,omitempty"`
	Description string                    `json:"description,omitempty"`
	Enum        []any                     `json:"enum,omitempty"`
	Items       *SchemaProperty           `json:"items,omitempty"`
	Properties  map[string]SchemaProperty `json:"properties,omitempty"`
}

// ToolContent is a typed content part of a tool result. Type selects which
// of the remaining fields are meaningful: "text" uses Text; "image" uses
// Data and MimeType; "resource" uses URI and optionally MimeType.
type ToolContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitzero"`
	Data     string `json:"data,omitzero"`
	MimeType string `json:"mimeType,omitzero"`
	URI      string `json:"uri,omitzero"`
}

// TextContent builds a "text" tool content part.
func TextContent(text string) ToolContent {
	return ToolContent{Type: "text", Text: text}
}

// ResourceLinkContent builds a "resource" tool content part.
func ResourceLinkContent(uri, mimeType string) ToolContent {
	return ToolContent{Type: "resource", URI: uri, MimeType: mimeType}
}

// Resource describes a readable resource as surfaced in resources/list
// results.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceContents carries one unit of resource content. Exactly one of Text
// or Blob is populated; Blob holds base64-encoded bytes for content that is
// not valid UTF-8 text.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitzero"`
	Blob     string `json:"blob,omitzero"`
}
