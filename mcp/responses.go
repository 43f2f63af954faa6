package mcp

import (
	"encoding/json"
	"fmt"
)

// ResultKind identifies a success result variant.
type ResultKind string

const (
	ResultKindTools            ResultKind = "tools"
	ResultKindToolResult       ResultKind = "toolResult"
	ResultKindResources        ResultKind = "resources"
	ResultKindResourceContents ResultKind = "resourceContents"
	ResultKindPong             ResultKind = "pong"
	ResultKindSuccess          ResultKind = "success"
)

// ToolsResult is the payload of a tools/list success.
type ToolsResult struct {
	Tools      []Tool  `json:"tools"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

// ToolCallResult is the payload of a tools/call success. IsError marks a
// tool-level failure that is still a protocol-level success (the tool ran
// and reported a problem to the caller).
type ToolCallResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError"`
}

// ResourcesResult is the payload of a resources/list success.
type ResourcesResult struct {
	Resources  []Resource `json:"resources"`
	NextCursor *string    `json:"nextCursor,omitempty"`
}

// ResourceContentsResult is the payload of a resources/read success.
type ResourceContentsResult struct {
	Contents []ResourceContents `json:"contents"`
}

// SuccessResult is a generic acknowledgment payload.
type SuccessResult struct {
	Message string `json:"message"`
}

// Result is the tagged union of success payloads. Kind selects the variant;
// the matching pointer is non-nil except for pong, which carries no payload.
// Wire shape: {"type": "<kind>", "data": {...}} with data omitted for pong.
type Result struct {
	Kind ResultKind

	Tools            *ToolsResult
	ToolResult       *ToolCallResult
	Resources        *ResourcesResult
	ResourceContents *ResourceContentsResult
	Success          *SuccessResult
}

// NewToolsResult builds a tools listing result.
func NewToolsResult(tools []Tool, nextCursor *string) *Result {
	return &Result{Kind: ResultKindTools, Tools: &ToolsResult{Tools: tools, NextCursor: nextCursor}}
}

// NewToolCallResult builds a tool invocation result.
func NewToolCallResult(content []ToolContent, isError bool) *Result {
	return &Result{Kind: ResultKindToolResult, ToolResult: &ToolCallResult{Content: content, IsError: isError}}
}

// TextToolResult builds a successful tool result with a single text block.
func TextToolResult(text string) *Result {
	return NewToolCallResult([]ToolContent{TextContent(text)}, false)
}

// NewResourcesResult builds a resources listing result.
func NewResourcesResult(resources []Resource, nextCursor *string) *Result {
	return &Result{Kind: ResultKindResources, Resources: &ResourcesResult{Resources: resources, NextCursor: nextCursor}}
}

// NewResourceContentsResult builds a resources/read result.
func NewResourceContentsResult(contents []ResourceContents) *Result {
	return &Result{Kind: ResultKindResourceContents, ResourceContents: &ResourceContentsResult{Contents: contents}}
}

// Pong builds the reply to a ping.
func Pong() *Result {
	return &Result{Kind: ResultKindPong}
}

// SimpleSuccess builds a generic acknowledgment result.
func SimpleSuccess(message string) *Result {
	return &Result{Kind: ResultKindSuccess, Success: &SuccessResult{Message: message}}
}

type resultWire struct {
	Kind ResultKind      `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r *Result) MarshalJSON() ([]byte, error) {
	var data any
	switch r.Kind {
	case ResultKindTools:
		data = r.Tools
	case ResultKindToolResult:
		data = r.ToolResult
	case ResultKindResources:
		data = r.Resources
	case ResultKindResourceContents:
		data = r.ResourceContents
	case ResultKindPong:
		data = nil
	case ResultKindSuccess:
		data = r.Success
	default:
		return nil, fmt.Errorf("cannot encode unknown result kind %q", r.Kind)
	}

	w := resultWire{Kind: r.Kind}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s result: %w", r.Kind, err)
		}
		w.Data = b
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Result) UnmarshalJSON(data []byte) error {
	var w resultWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("invalid result object: %w", err)
	}

	out := Result{Kind: w.Kind}
	decode := func(v any) error {
		if len(w.Data) == 0 {
			return fmt.Errorf("result kind %q requires data", w.Kind)
		}
		if err := json.Unmarshal(w.Data, v); err != nil {
			return fmt.Errorf("invalid %s result data: %w", w.Kind, err)
		}
		return nil
	}

	switch w.Kind {
	case ResultKindTools:
		out.Tools = &ToolsResult{}
		if err := decode(out.Tools); err != nil {
			return err
		}
	case ResultKindToolResult:
		out.ToolResult = &ToolCallResult{}
		if err := decode(out.ToolResult); err != nil {
			return err
		}
	case ResultKindResources:
		out.Resources = &ResourcesResult{}
		if err := decode(out.Resources); err != nil {
			return err
		}
	case ResultKindResourceContents:
		out.ResourceContents = &ResourceContentsResult{}
		if err := decode(out.ResourceContents); err != nil {
			return err
		}
	case ResultKindPong:
		// No payload.
	case ResultKindSuccess:
		out.Success = &SuccessResult{}
		if err := decode(out.Success); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown result kind %q", w.Kind)
	}

	*r = out
	return nil
}

// Response is the outcome of handling a request. Exactly one of Result and
// Err is populated. Wire shape: {"result": {...}} | {"error": {...}}.
type Response struct {
	Result *Result `json:"result,omitempty"`
	Err    *Error  `json:"error,omitempty"`
}

// NewSuccessResponse wraps a result in a success response.
func NewSuccessResponse(result *Result) *Response {
	return &Response{Result: result}
}

// NewErrorResponse builds an error response with the given code and message.
func NewErrorResponse(code ErrorCode, message string) *Response {
	return &Response{Err: NewError(code, message)}
}

// ResponseFromError converts an arbitrary error into an error response. A
// protocol *Error in the chain keeps its code; anything else becomes an
// internal error.
func ResponseFromError(err error) *Response {
	if pe, ok := AsError(err); ok {
		return &Response{Err: pe}
	}
	return NewErrorResponse(ErrorCodeInternalError, err.Error())
}

// IsError reports whether the response carries an error.
func (r *Response) IsError() bool {
	return r.Err != nil
}

// Validate checks the exactly-one-variant invariant.
func (r *Response) Validate() error {
	if (r.Result == nil) == (r.Err == nil) {
		return fmt.Errorf("response must carry exactly one of result and error")
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler, enforcing that exactly one of
// result and error is present.
func (r *Response) UnmarshalJSON(data []byte) error {
	type raw Response
	var out raw
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("invalid response object: %w", err)
	}
	if (out.Result == nil) == (out.Err == nil) {
		return fmt.Errorf("response must carry exactly one of result and error")
	}
	*r = Response(out)
	return nil
}
