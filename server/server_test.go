package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ggoodman/mcp-transport-go/mcp"
	"github.com/ggoodman/mcp-transport-go/registry"
	"github.com/ggoodman/mcp-transport-go/resources"
	"github.com/ggoodman/mcp-transport-go/stdio"
	"github.com/ggoodman/mcp-transport-go/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type echoArgs struct {
	Message string `json:"message"`
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	reg := registry.NewRegistry(testLogger())
	echo := registry.New[echoArgs]("echo", func(ctx context.Context, args echoArgs) (*mcp.ToolCallResult, error) {
		return registry.TextResult(args.Message), nil
	}, registry.WithToolDescription("echoes its message"))
	if err := reg.Register(echo); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	opts = append([]Option{WithLogger(testLogger())}, opts...)
	return New(Config{Name: "test", Version: "1.0.0"}, reg, opts...)
}

func TestHandlePing(t *testing.T) {
	s := newTestServer(t)
	resp := s.Handle(context.Background(), mcp.PingRequest())
	if resp.IsError() || resp.Result.Kind != mcp.ResultKindPong {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHandleListTools(t *testing.T) {
	s := newTestServer(t)
	resp := s.Handle(context.Background(), mcp.ListToolsRequest(nil))
	if resp.IsError() {
		t.Fatalf("unexpected error: %+v", resp.Err)
	}
	tools := resp.Result.Tools
	if tools == nil || len(tools.Tools) != 1 || tools.Tools[0].Name != "echo" {
		t.Fatalf("unexpected listing: %+v", tools)
	}
	if tools.NextCursor != nil {
		t.Fatal("expected final page")
	}
}

func TestHandleListToolsPagination(t *testing.T) {
	reg := registry.NewRegistry(testLogger())
	for _, name := range []string{"alpha", "beta", "gamma"} {
		tool := registry.NewFuncTool(name, "", mcp.ToolInputSchema{Type: "object"}, func(ctx context.Context, args map[string]any) (*mcp.ToolCallResult, error) {
			return registry.TextResult(""), nil
		})
		if err := reg.Register(tool); err != nil {
			t.Fatalf("register failed: %v", err)
		}
	}
	s := New(Config{PageSize: 2}, reg, WithLogger(testLogger()))

	resp := s.Handle(context.Background(), mcp.ListToolsRequest(nil))
	first := resp.Result.Tools
	if len(first.Tools) != 2 || first.NextCursor == nil {
		t.Fatalf("unexpected first page: %+v", first)
	}
	if first.Tools[0].Name != "alpha" || first.Tools[1].Name != "beta" {
		t.Fatalf("unexpected order: %+v", first.Tools)
	}

	resp = s.Handle(context.Background(), mcp.ListToolsRequest(first.NextCursor))
	second := resp.Result.Tools
	if len(second.Tools) != 1 || second.Tools[0].Name != "gamma" || second.NextCursor != nil {
		t.Fatalf("unexpected second page: %+v", second)
	}

	bad := "wat"
	resp = s.Handle(context.Background(), mcp.ListToolsRequest(&bad))
	if !resp.IsError() || resp.Err.Code != mcp.ErrorCodeInvalidParams {
		t.Fatalf("expected invalid params for bad cursor, got %+v", resp)
	}
}

func TestHandleCallTool(t *testing.T) {
	s := newTestServer(t)
	resp := s.Handle(context.Background(), mcp.CallToolRequest("echo", map[string]any{"message": "hi"}))
	if resp.IsError() {
		t.Fatalf("unexpected error: %+v", resp.Err)
	}
	result := resp.Result.ToolResult
	if result == nil || result.IsError || result.Content[0].Text != "hi" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestHandleCallToolMissing(t *testing.T) {
	s := newTestServer(t)
	resp := s.Handle(context.Background(), mcp.CallToolRequest("nope", nil))
	if !resp.IsError() || resp.Err.Code != mcp.ErrorCodeMethodNotFound {
		t.Fatalf("expected method not found, got %+v", resp)
	}
}

func TestHandleCallToolErrorWrapping(t *testing.T) {
	reg := registry.NewRegistry(testLogger())
	failing := registry.NewFuncTool("fail", "", mcp.ToolInputSchema{Type: "object"}, func(ctx context.Context, args map[string]any) (*mcp.ToolCallResult, error) {
		return nil, io.ErrUnexpectedEOF
	})
	denied := registry.NewFuncTool("denied", "", mcp.ToolInputSchema{Type: "object"}, func(ctx context.Context, args map[string]any) (*mcp.ToolCallResult, error) {
		return nil, mcp.NewError(mcp.ErrorCodePermissionDenied, "not yours")
	})
	if err := reg.RegisterAll(failing, denied); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	s := New(Config{}, reg, WithLogger(testLogger()))

	resp := s.Handle(context.Background(), mcp.CallToolRequest("fail", nil))
	if !resp.IsError() || resp.Err.Code != mcp.ErrorCodeToolError {
		t.Fatalf("expected tool error, got %+v", resp)
	}

	resp = s.Handle(context.Background(), mcp.CallToolRequest("denied", nil))
	if !resp.IsError() || resp.Err.Code != mcp.ErrorCodePermissionDenied {
		t.Fatalf("expected permission denied passthrough, got %+v", resp)
	}
}

func TestHandleResourcesWithoutProvider(t *testing.T) {
	s := newTestServer(t)
	resp := s.Handle(context.Background(), mcp.ListResourcesRequest(nil))
	if !resp.IsError() || resp.Err.Code != mcp.ErrorCodeMethodNotFound {
		t.Fatalf("expected method not found, got %+v", resp)
	}
}

func TestHandleResources(t *testing.T) {
	static := resources.NewStatic(0)
	static.AddText("mem://greeting", "greeting", "text/plain", "hello")
	s := newTestServer(t, WithResources(static))

	resp := s.Handle(context.Background(), mcp.ListResourcesRequest(nil))
	if resp.IsError() {
		t.Fatalf("unexpected error: %+v", resp.Err)
	}
	if got := resp.Result.Resources; len(got.Resources) != 1 || got.Resources[0].URI != "mem://greeting" {
		t.Fatalf("unexpected listing: %+v", got)
	}

	resp = s.Handle(context.Background(), mcp.ReadResourceRequest("mem://greeting"))
	if resp.IsError() {
		t.Fatalf("unexpected error: %+v", resp.Err)
	}
	if got := resp.Result.ResourceContents; len(got.Contents) != 1 || got.Contents[0].Text != "hello" {
		t.Fatalf("unexpected contents: %+v", got)
	}

	resp = s.Handle(context.Background(), mcp.ReadResourceRequest("mem://missing"))
	if !resp.IsError() || resp.Err.Code != mcp.ErrorCodeResourceNotFound {
		t.Fatalf("expected resource not found, got %+v", resp)
	}
}

func TestHandleShedsUnderLoad(t *testing.T) {
	reg := registry.NewRegistry(testLogger())
	release := make(chan struct{})
	started := make(chan struct{})
	slow := registry.NewFuncTool("slow", "", mcp.ToolInputSchema{Type: "object"}, func(ctx context.Context, args map[string]any) (*mcp.ToolCallResult, error) {
		started <- struct{}{}
		<-release
		return registry.TextResult("done"), nil
	})
	if err := reg.Register(slow); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	s := New(Config{MaxConcurrentRequests: 1}, reg, WithLogger(testLogger()))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Handle(context.Background(), mcp.CallToolRequest("slow", nil))
	}()
	<-started

	resp := s.Handle(context.Background(), mcp.CallToolRequest("slow", nil))
	if !resp.IsError() || resp.Err.Code != mcp.ErrorCodeServerOverloaded {
		t.Fatalf("expected server overloaded, got %+v", resp)
	}

	close(release)
	wg.Wait()

	if s.Stats().Shed != 1 {
		t.Fatalf("expected 1 shed request, got %d", s.Stats().Shed)
	}
}

func frame(t *testing.T, id string, req *mcp.Request) string {
	t.Helper()
	msg := &transport.Message{ID: &id, Content: transport.RequestContent(req)}
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	return string(b) + "\n"
}

func TestRunEndToEndOverStdio(t *testing.T) {
	s := newTestServer(t)

	var in strings.Builder
	in.WriteString(frame(t, "r1", mcp.CallToolRequest("echo", map[string]any{"message": "hi"})))
	in.WriteString(frame(t, "r2", mcp.PingRequest()))
	var out bytes.Buffer

	tr := stdio.New(stdio.WithIO(strings.NewReader(in.String()), &out), stdio.WithLogger(testLogger()))

	if err := s.Run(context.Background(), tr); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 response frames, got %d: %q", len(lines), out.String())
	}

	first, err := transport.Decode([]byte(lines[0]), 0)
	if err != nil {
		t.Fatalf("decode first response: %v", err)
	}
	if first.ID == nil || *first.ID != "r1" {
		t.Fatalf("first response not correlated: %+v", first.ID)
	}
	result := first.Content.Response.Result
	if result == nil || result.ToolResult == nil || result.ToolResult.Content[0].Text != "hi" {
		t.Fatalf("unexpected first response: %+v", first.Content.Response)
	}

	second, err := transport.Decode([]byte(lines[1]), 0)
	if err != nil {
		t.Fatalf("decode second response: %v", err)
	}
	if second.Content.Response.Result.Kind != mcp.ResultKindPong {
		t.Fatalf("unexpected second response: %+v", second.Content.Response)
	}
}

func TestRunAnswersMalformedFrames(t *testing.T) {
	s := newTestServer(t)

	in := "not json\n" + frame(t, "r1", mcp.PingRequest())
	var out bytes.Buffer
	tr := stdio.New(stdio.WithIO(strings.NewReader(in), &out), stdio.WithLogger(testLogger()))

	if err := s.Run(context.Background(), tr); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 frames, got %q", out.String())
	}
	errFrame, err := transport.Decode([]byte(lines[0]), 0)
	if err != nil {
		t.Fatalf("decode error frame: %v", err)
	}
	if errFrame.Content.Response.Err == nil || errFrame.Content.Response.Err.Code != mcp.ErrorCodeParseError {
		t.Fatalf("expected parse error, got %+v", errFrame.Content.Response)
	}
}

func TestRunRejectsInvalidRegistry(t *testing.T) {
	reg := registry.NewRegistry(testLogger())
	s := New(Config{}, reg, WithLogger(testLogger()))

	// A tool whose reported name diverges from its key after registration.
	mutable := &renamable{name: "good"}
	if err := reg.Register(mutable); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	mutable.name = "bad"

	tr := stdio.New(stdio.WithIO(strings.NewReader(""), io.Discard), stdio.WithLogger(testLogger()))
	if err := s.Run(context.Background(), tr); err == nil {
		t.Fatal("expected registry validation failure")
	}
}

type renamable struct {
	name string
}

func (r *renamable) Name() string                     { return r.name }
func (r *renamable) Description() string              { return "" }
func (r *renamable) InputSchema() mcp.ToolInputSchema { return mcp.ToolInputSchema{Type: "object"} }
func (r *renamable) Metadata() map[string]string      { return nil }
func (r *renamable) SupportsCapability(string) bool   { return false }
func (r *renamable) Call(ctx context.Context, args map[string]any) (*mcp.ToolCallResult, error) {
	return registry.TextResult(""), nil
}

func TestRunStopsWhenPeerCloses(t *testing.T) {
	s := newTestServer(t)

	pr, pw := io.Pipe()
	tr := stdio.New(stdio.WithIO(pr, io.Discard), stdio.WithLogger(testLogger()))

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), tr) }()

	time.Sleep(20 * time.Millisecond)
	pw.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean stop, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop")
	}
}
