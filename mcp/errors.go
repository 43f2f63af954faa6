package mcp

import (
	"errors"
	"fmt"
)

// ErrorCode is a protocol error code. The negative five-digit range follows
// JSON-RPC 2.0; the -32000 block carries implementation-defined codes.
type ErrorCode int

const (
	// ErrorCodeParseError indicates invalid JSON was received.
	ErrorCodeParseError ErrorCode = -32700
	// ErrorCodeInvalidRequest indicates the payload is not a valid request object.
	ErrorCodeInvalidRequest ErrorCode = -32600
	// ErrorCodeMethodNotFound indicates the method does not exist / is not available.
	ErrorCodeMethodNotFound ErrorCode = -32601
	// ErrorCodeInvalidParams indicates invalid method parameters.
	ErrorCodeInvalidParams ErrorCode = -32602
	// ErrorCodeInternalError indicates an internal processing error.
	ErrorCodeInternalError ErrorCode = -32603
	// ErrorCodeToolError indicates a tool invocation failed.
	ErrorCodeToolError ErrorCode = -32000
	// ErrorCodeResourceNotFound indicates the requested resource does not exist.
	ErrorCodeResourceNotFound ErrorCode = -32001
	// ErrorCodePermissionDenied indicates the caller lacks authorization.
	ErrorCodePermissionDenied ErrorCode = -32002
	// ErrorCodeRateLimitExceeded indicates the caller is being throttled.
	ErrorCodeRateLimitExceeded ErrorCode = -32003
	// ErrorCodeServerOverloaded indicates the server shed the request under load.
	ErrorCodeServerOverloaded ErrorCode = -32004
)

// String returns the conventional human name for the code.
func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeParseError:
		return "parse error"
	case ErrorCodeInvalidRequest:
		return "invalid request"
	case ErrorCodeMethodNotFound:
		return "method not found"
	case ErrorCodeInvalidParams:
		return "invalid params"
	case ErrorCodeInternalError:
		return "internal error"
	case ErrorCodeToolError:
		return "tool error"
	case ErrorCodeResourceNotFound:
		return "resource not found"
	case ErrorCodePermissionDenied:
		return "permission denied"
	case ErrorCodeRateLimitExceeded:
		return "rate limit exceeded"
	case ErrorCodeServerOverloaded:
		return "server overloaded"
	default:
		return fmt.Sprintf("error %d", int(c))
	}
}

// Error is the protocol error object carried inside an error Response. It
// implements the error interface so it can propagate through ordinary Go
// error returns and be recovered at the dispatch boundary via errors.As.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("mcp error %d (%s): %s", int(e.Code), e.Code, e.Message)
}

// NewError builds a protocol error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf builds a protocol error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithData returns a copy of the error with structured data attached.
func (e *Error) WithData(data any) *Error {
	cp := *e
	cp.Data = data
	return &cp
}

// AsError extracts a protocol *Error from an arbitrary error chain. ok is
// false when the chain contains no protocol error.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
