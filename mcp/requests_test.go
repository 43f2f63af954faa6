package mcp

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func strptr(s string) *string { return &s }

func TestRequestRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		req  *Request
	}{
		{"ping", PingRequest()},
		{"list tools no cursor", ListToolsRequest(nil)},
		{"list tools with cursor", ListToolsRequest(strptr("10"))},
		{"call tool", CallToolRequest("echo", map[string]any{"message": "hi"})},
		{"call tool no args", CallToolRequest("noop", nil)},
		{"list resources", ListResourcesRequest(nil)},
		{"read resource", ReadResourceRequest("file:///etc/motd")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := json.Marshal(tc.req)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			var got Request
			if err := json.Unmarshal(b, &got); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if !reflect.DeepEqual(&got, tc.req) {
				t.Fatalf("round trip mismatch: got %+v, want %+v", &got, tc.req)
			}
		})
	}
}

func TestRequestWireShape(t *testing.T) {
	b, err := json.Marshal(CallToolRequest("echo", map[string]any{"message": "hi"}))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal raw failed: %v", err)
	}
	if string(raw["method"]) != `"tools/call"` {
		t.Fatalf("unexpected method: %s", raw["method"])
	}
	if _, ok := raw["params"]; !ok {
		t.Fatalf("expected params to be present: %s", b)
	}

	b, err = json.Marshal(PingRequest())
	if err != nil {
		t.Fatalf("marshal ping failed: %v", err)
	}
	if strings.Contains(string(b), "params") {
		t.Fatalf("ping should omit params: %s", b)
	}
}

func TestRequestUnmarshalRejectsInvalid(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"unknown method", `{"method":"tools/destroy"}`},
		{"missing method", `{"params":{}}`},
		{"call tool without params", `{"method":"tools/call"}`},
		{"call tool without name", `{"method":"tools/call","params":{"arguments":{}}}`},
		{"read resource without params", `{"method":"resources/read"}`},
		{"read resource without uri", `{"method":"resources/read","params":{}}`},
		{"not an object", `"ping"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req Request
			if err := json.Unmarshal([]byte(tc.input), &req); err == nil {
				t.Fatalf("expected error for %s, decoded %+v", tc.input, req)
			}
		})
	}
}

func TestRequestMarshalRejectsUnknownMethod(t *testing.T) {
	if _, err := json.Marshal(&Request{Method: "tools/destroy"}); err == nil {
		t.Fatal("expected error for unknown method")
	}
}

func TestKnownMethod(t *testing.T) {
	for _, m := range []Method{MethodPing, MethodListTools, MethodCallTool, MethodListResources, MethodReadResource} {
		if !KnownMethod(m) {
			t.Fatalf("expected %q to be known", m)
		}
	}
	if KnownMethod("tools/destroy") {
		t.Fatal("expected unknown method to be rejected")
	}
}
