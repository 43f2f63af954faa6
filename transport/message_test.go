package transport

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/ggoodman/mcp-transport-go/mcp"
)

func TestMessageRoundTrip(t *testing.T) {
	id := "req-1"
	cases := []struct {
		name string
		msg  *Message
	}{
		{"request", &Message{ID: &id, Content: RequestContent(mcp.CallToolRequest("echo", map[string]any{"message": "hi"}))}},
		{"response", &Message{ID: &id, Content: ResponseContent(mcp.NewSuccessResponse(mcp.TextToolResult("hi")))}},
		{"error response", NewResponseMessage(&id, mcp.NewErrorResponse(mcp.ErrorCodeToolError, "boom"))},
		{"control ping", NewControlMessage(&ControlMessage{Action: ControlPing, Timestamp: 12345})},
		{"control close", NewControlMessage(NewClose("shutting down"))},
		{"control ack", NewControlMessage(NewAck("msg-9"))},
		{"control negotiate", NewControlMessage(NewNegotiate(map[string]string{"compression": "gzip"}))},
		{"metadata", &Message{Content: RequestContent(mcp.PingRequest()), Metadata: map[string]string{"peer": "stdin"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := json.Marshal(tc.msg)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			var got Message
			if err := json.Unmarshal(b, &got); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if !reflect.DeepEqual(&got, tc.msg) {
				t.Fatalf("round trip mismatch: got %+v, want %+v", &got, tc.msg)
			}
		})
	}
}

func TestMessageNullID(t *testing.T) {
	b, err := json.Marshal(NewControlMessage(NewClose("")))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(b), `"id":null`) {
		t.Fatalf("expected explicit null id: %s", b)
	}
}

func TestNewRequestMessageAssignsUniqueIDs(t *testing.T) {
	a := NewRequestMessage(mcp.PingRequest())
	b := NewRequestMessage(mcp.PingRequest())
	if a.ID == nil || b.ID == nil {
		t.Fatal("expected ids to be assigned")
	}
	if *a.ID == *b.ID {
		t.Fatalf("expected distinct ids, both %q", *a.ID)
	}
}

func TestContentUnmarshalRejectsInvalid(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"unknown type", `{"type":"Event","data":{}}`},
		{"missing data", `{"type":"Request"}`},
		{"bad request payload", `{"type":"Request","data":{"method":"tools/destroy"}}`},
		{"bad response payload", `{"type":"Response","data":{}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var c Content
			if err := json.Unmarshal([]byte(tc.input), &c); err == nil {
				t.Fatalf("expected error for %s", tc.input)
			}
		})
	}
}
