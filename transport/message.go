package transport

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ggoodman/mcp-transport-go/mcp"
)

// ContentType discriminates the payload carried by a Message.
type ContentType string

const (
	ContentTypeRequest  ContentType = "Request"
	ContentTypeResponse ContentType = "Response"
	ContentTypeControl  ContentType = "Control"
)

// Content is the tagged union of payloads a transport frame can carry.
// Type selects the variant; exactly one of the pointers is non-nil.
type Content struct {
	Type ContentType

	Request  *mcp.Request
	Response *mcp.Response
	Control  *ControlMessage
}

// RequestContent wraps a request for framing.
func RequestContent(req *mcp.Request) Content {
	return Content{Type: ContentTypeRequest, Request: req}
}

// ResponseContent wraps a response for framing.
func ResponseContent(resp *mcp.Response) Content {
	return Content{Type: ContentTypeResponse, Response: resp}
}

// ControlContent wraps a control message for framing.
func ControlContent(ctl *ControlMessage) Content {
	return Content{Type: ContentTypeControl, Control: ctl}
}

type contentWire struct {
	Type ContentType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON implements json.Marshaler.
func (c Content) MarshalJSON() ([]byte, error) {
	var data any
	switch c.Type {
	case ContentTypeRequest:
		data = c.Request
	case ContentTypeResponse:
		data = c.Response
	case ContentTypeControl:
		data = c.Control
	default:
		return nil, fmt.Errorf("cannot encode unknown content type %q", c.Type)
	}
	if data == nil {
		return nil, fmt.Errorf("content type %q has no payload", c.Type)
	}

	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s content: %w", c.Type, err)
	}
	return json.Marshal(contentWire{Type: c.Type, Data: b})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Content) UnmarshalJSON(data []byte) error {
	var w contentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("invalid content object: %w", err)
	}
	if len(w.Data) == 0 {
		return fmt.Errorf("content type %q requires data", w.Type)
	}

	out := Content{Type: w.Type}
	switch w.Type {
	case ContentTypeRequest:
		out.Request = &mcp.Request{}
		if err := json.Unmarshal(w.Data, out.Request); err != nil {
			return fmt.Errorf("invalid request content: %w", err)
		}
	case ContentTypeResponse:
		out.Response = &mcp.Response{}
		if err := json.Unmarshal(w.Data, out.Response); err != nil {
			return fmt.Errorf("invalid response content: %w", err)
		}
	case ContentTypeControl:
		out.Control = &ControlMessage{}
		if err := json.Unmarshal(w.Data, out.Control); err != nil {
			return fmt.Errorf("invalid control content: %w", err)
		}
	default:
		return fmt.Errorf("unknown content type %q", w.Type)
	}

	*c = out
	return nil
}

// Message is the framed envelope exchanged on the wire. ID correlates a
// response with its originating request; a null ID marks an uncorrelated
// frame such as a control message.
type Message struct {
	ID       *string           `json:"id"`
	Content  Content           `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewRequestMessage frames a request with a fresh correlation ID.
func NewRequestMessage(req *mcp.Request) *Message {
	id := uuid.NewString()
	return &Message{ID: &id, Content: RequestContent(req)}
}

// NewResponseMessage frames a response correlated to the given request ID.
func NewResponseMessage(id *string, resp *mcp.Response) *Message {
	return &Message{ID: id, Content: ResponseContent(resp)}
}

// NewControlMessage frames an uncorrelated control message.
func NewControlMessage(ctl *ControlMessage) *Message {
	return &Message{Content: ControlContent(ctl)}
}
