package mcp

import (
	"encoding/json"
	"fmt"
)

// Method identifies a protocol request kind.
type Method string

const (
	MethodPing          Method = "ping"
	MethodListTools     Method = "tools/list"
	MethodCallTool      Method = "tools/call"
	MethodListResources Method = "resources/list"
	MethodReadResource  Method = "resources/read"
)

// KnownMethod reports whether m is one of the protocol-defined methods.
func KnownMethod(m Method) bool {
	switch m {
	case MethodPing, MethodListTools, MethodCallTool, MethodListResources, MethodReadResource:
		return true
	default:
		return false
	}
}

// ListToolsParams carries the parameters of a tools/list request.
type ListToolsParams struct {
	Cursor *string `json:"cursor,omitempty"`
}

// CallToolParams carries the parameters of a tools/call request.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ListResourcesParams carries the parameters of a resources/list request.
type ListResourcesParams struct {
	Cursor *string `json:"cursor,omitempty"`
}

// ReadResourceParams carries the parameters of a resources/read request.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// Request is the tagged union of protocol requests. Method selects the
// variant; at most one of the variant pointers is non-nil (ping carries no
// parameters). Wire shape: {"method": "<m>", "params": {...}} with params
// omitted for parameterless methods.
type Request struct {
	Method Method

	ListTools     *ListToolsParams
	CallTool      *CallToolParams
	ListResources *ListResourcesParams
	ReadResource  *ReadResourceParams
}

// PingRequest builds a ping request.
func PingRequest() *Request {
	return &Request{Method: MethodPing}
}

// ListToolsRequest builds a tools/list request with an optional cursor.
func ListToolsRequest(cursor *string) *Request {
	return &Request{Method: MethodListTools, ListTools: &ListToolsParams{Cursor: cursor}}
}

// CallToolRequest builds a tools/call request.
func CallToolRequest(name string, arguments map[string]any) *Request {
	return &Request{Method: MethodCallTool, CallTool: &CallToolParams{Name: name, Arguments: arguments}}
}

// ListResourcesRequest builds a resources/list request with an optional cursor.
func ListResourcesRequest(cursor *string) *Request {
	return &Request{Method: MethodListResources, ListResources: &ListResourcesParams{Cursor: cursor}}
}

// ReadResourceRequest builds a resources/read request.
func ReadResourceRequest(uri string) *Request {
	return &Request{Method: MethodReadResource, ReadResource: &ReadResourceParams{URI: uri}}
}

type requestWire struct {
	Method Method          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r *Request) MarshalJSON() ([]byte, error) {
	var params any
	switch r.Method {
	case MethodPing:
		params = nil
	case MethodListTools:
		params = r.ListTools
	case MethodCallTool:
		params = r.CallTool
	case MethodListResources:
		params = r.ListResources
	case MethodReadResource:
		params = r.ReadResource
	default:
		return nil, fmt.Errorf("cannot encode unknown method %q", r.Method)
	}

	w := requestWire{Method: r.Method}
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s params: %w", r.Method, err)
		}
		w.Params = b
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. It enforces the method
// discriminator and decodes params into the matching typed variant; unknown
// methods and structurally invalid params are rejected.
func (r *Request) UnmarshalJSON(data []byte) error {
	var w requestWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("invalid request object: %w", err)
	}
	if w.Method == "" {
		return fmt.Errorf("request is missing a method")
	}

	out := Request{Method: w.Method}
	switch w.Method {
	case MethodPing:
		// No params.
	case MethodListTools:
		out.ListTools = &ListToolsParams{}
		if len(w.Params) > 0 {
			if err := json.Unmarshal(w.Params, out.ListTools); err != nil {
				return fmt.Errorf("invalid %s params: %w", w.Method, err)
			}
		}
	case MethodCallTool:
		out.CallTool = &CallToolParams{}
		if len(w.Params) == 0 {
			return fmt.Errorf("%s requires params", w.Method)
		}
		if err := json.Unmarshal(w.Params, out.CallTool); err != nil {
			return fmt.Errorf("invalid %s params: %w", w.Method, err)
		}
		if out.CallTool.Name == "" {
			return fmt.Errorf("%s requires a tool name", w.Method)
		}
	case MethodListResources:
		out.ListResources = &ListResourcesParams{}
		if len(w.Params) > 0 {
			if err := json.Unmarshal(w.Params, out.ListResources); err != nil {
				return fmt.Errorf("invalid %s params: %w", w.Method, err)
			}
		}
	case MethodReadResource:
		out.ReadResource = &ReadResourceParams{}
		if len(w.Params) == 0 {
			return fmt.Errorf("%s requires params", w.Method)
		}
		if err := json.Unmarshal(w.Params, out.ReadResource); err != nil {
			return fmt.Errorf("invalid %s params: %w", w.Method, err)
		}
		if out.ReadResource.URI == "" {
			return fmt.Errorf("%s requires a uri", w.Method)
		}
	default:
		return fmt.Errorf("unknown method %q", w.Method)
	}

	*r = out
	return nil
}
