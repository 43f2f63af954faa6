// Package server implements the request dispatcher: it pulls requests off a
// transport, routes them to the tool registry and resource provider, and
// writes back responses.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/joeshaw/envdecode"

	"github.com/ggoodman/mcp-transport-go/internal/logctx"
	"github.com/ggoodman/mcp-transport-go/mcp"
	"github.com/ggoodman/mcp-transport-go/registry"
	"github.com/ggoodman/mcp-transport-go/resources"
	"github.com/ggoodman/mcp-transport-go/transport"
)

// Config identifies the server and bounds its concurrency.
type Config struct {
	// Name identifies the server to peers. ENV: SERVER_NAME
	Name string `env:"SERVER_NAME,default=mcp-server"`
	// Version of the server. ENV: SERVER_VERSION
	Version string `env:"SERVER_VERSION,default=0.0.0"`
	// MaxConcurrentRequests bounds in-flight dispatches; requests beyond
	// the bound are shed with a server-overloaded error. ENV:
	// SERVER_MAX_CONCURRENT_REQUESTS
	MaxConcurrentRequests int `env:"SERVER_MAX_CONCURRENT_REQUESTS,default=64"`
	// PageSize bounds tools/list pages. ENV: SERVER_PAGE_SIZE
	PageSize int `env:"SERVER_PAGE_SIZE,default=50"`
}

// NewConfigFromEnv populates Config from the environment via envdecode.
func NewConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode server config: %w", err)
	}
	return cfg, nil
}

// Stats are cumulative dispatch counters.
type Stats struct {
	Requests uint64
	Errors   uint64
	Shed     uint64
}

// Option customizes a Server.
type Option func(*Server)

// WithResources attaches a resource provider, enabling the resources/*
// methods.
func WithResources(p resources.Provider) Option {
	return func(s *Server) { s.resources = p }
}

// WithLogger overrides the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// Server routes protocol requests to their handlers. It is safe for
// concurrent use.
type Server struct {
	cfg       Config
	reg       *registry.Registry
	resources resources.Provider
	log       *slog.Logger

	sem chan struct{}

	requests atomic.Uint64
	failures atomic.Uint64
	shed     atomic.Uint64
}

// New builds a server over the given registry.
func New(cfg Config, reg *registry.Registry, opts ...Option) *Server {
	if cfg.Name == "" {
		cfg.Name = "mcp-server"
	}
	if cfg.Version == "" {
		cfg.Version = "0.0.0"
	}
	if cfg.MaxConcurrentRequests <= 0 {
		cfg.MaxConcurrentRequests = 64
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}

	s := &Server{
		cfg: cfg,
		reg: reg,
		log: slog.Default(),
		sem: make(chan struct{}, cfg.MaxConcurrentRequests),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the configured server name.
func (s *Server) Name() string { return s.cfg.Name }

// Version returns the configured server version.
func (s *Server) Version() string { return s.cfg.Version }

// Registry returns the tool registry the server dispatches to.
func (s *Server) Registry() *registry.Registry { return s.reg }

// Stats returns cumulative dispatch counters.
func (s *Server) Stats() Stats {
	return Stats{
		Requests: s.requests.Load(),
		Errors:   s.failures.Load(),
		Shed:     s.shed.Load(),
	}
}

// Handle dispatches one request and always produces a response; failures
// surface as error responses, never as torn connections.
func (s *Server) Handle(ctx context.Context, req *mcp.Request) *mcp.Response {
	s.requests.Add(1)

	if req == nil {
		s.failures.Add(1)
		return mcp.NewErrorResponse(mcp.ErrorCodeInvalidRequest, "missing request")
	}

	ctx = logctx.WithRequestData(ctx, &logctx.RequestData{Method: string(req.Method)})

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	default:
		s.shed.Add(1)
		s.failures.Add(1)
		s.log.WarnContext(ctx, "shedding request under load")
		return mcp.NewErrorResponse(mcp.ErrorCodeServerOverloaded, "server is at capacity")
	}

	resp := s.dispatch(ctx, req)
	if resp.IsError() {
		s.failures.Add(1)
		s.log.WarnContext(ctx, "request failed",
			slog.Int("code", int(resp.Err.Code)),
			slog.String("err", resp.Err.Message),
		)
	}
	return resp
}

func (s *Server) dispatch(ctx context.Context, req *mcp.Request) *mcp.Response {
	switch req.Method {
	case mcp.MethodPing:
		return mcp.NewSuccessResponse(mcp.Pong())
	case mcp.MethodListTools:
		return s.handleListTools(ctx, req.ListTools)
	case mcp.MethodCallTool:
		return s.handleCallTool(ctx, req.CallTool)
	case mcp.MethodListResources:
		return s.handleListResources(ctx, req.ListResources)
	case mcp.MethodReadResource:
		return s.handleReadResource(ctx, req.ReadResource)
	default:
		return mcp.NewErrorResponse(mcp.ErrorCodeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method))
	}
}

func (s *Server) handleListTools(ctx context.Context, params *mcp.ListToolsParams) *mcp.Response {
	all := s.reg.List()

	start := 0
	if params != nil && params.Cursor != nil && *params.Cursor != "" {
		n, err := strconv.Atoi(*params.Cursor)
		if err != nil || n < 0 || n > len(all) {
			return mcp.NewErrorResponse(mcp.ErrorCodeInvalidParams, fmt.Sprintf("invalid cursor: %q", *params.Cursor))
		}
		start = n
	}

	end := start + s.cfg.PageSize
	if end > len(all) {
		end = len(all)
	}
	page := all[start:end]

	var next *string
	if end < len(all) {
		cursor := strconv.Itoa(end)
		next = &cursor
	}
	return mcp.NewSuccessResponse(mcp.NewToolsResult(page, next))
}

func (s *Server) handleCallTool(ctx context.Context, params *mcp.CallToolParams) *mcp.Response {
	if params == nil || params.Name == "" {
		return mcp.NewErrorResponse(mcp.ErrorCodeInvalidParams, "tools/call requires a tool name")
	}

	tool, ok := s.reg.Get(params.Name)
	if !ok {
		return mcp.NewErrorResponse(mcp.ErrorCodeMethodNotFound, fmt.Sprintf("tool not found: %s", params.Name))
	}

	ctx = logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: params.Name})
	s.log.DebugContext(ctx, "calling tool")

	result, err := tool.Call(ctx, params.Arguments)
	if err != nil {
		if pe, ok := mcp.AsError(err); ok {
			return &mcp.Response{Err: pe}
		}
		return mcp.NewErrorResponse(mcp.ErrorCodeToolError, fmt.Sprintf("tool %s failed: %v", params.Name, err))
	}
	if result == nil {
		result = &mcp.ToolCallResult{Content: []mcp.ToolContent{}}
	}
	return mcp.NewSuccessResponse(&mcp.Result{Kind: mcp.ResultKindToolResult, ToolResult: result})
}

func (s *Server) handleListResources(ctx context.Context, params *mcp.ListResourcesParams) *mcp.Response {
	if s.resources == nil {
		return mcp.NewErrorResponse(mcp.ErrorCodeMethodNotFound, "resources are not available")
	}

	var cursor *string
	if params != nil {
		cursor = params.Cursor
	}
	page, err := s.resources.List(ctx, cursor)
	if err != nil {
		return mcp.ResponseFromError(err)
	}
	return mcp.NewSuccessResponse(mcp.NewResourcesResult(page.Resources, page.NextCursor))
}

func (s *Server) handleReadResource(ctx context.Context, params *mcp.ReadResourceParams) *mcp.Response {
	if s.resources == nil {
		return mcp.NewErrorResponse(mcp.ErrorCodeMethodNotFound, "resources are not available")
	}
	if params == nil || params.URI == "" {
		return mcp.NewErrorResponse(mcp.ErrorCodeInvalidParams, "resources/read requires a uri")
	}

	contents, err := s.resources.Read(ctx, params.URI)
	if err != nil {
		if errors.Is(err, resources.ErrNotFound) {
			return mcp.NewErrorResponse(mcp.ErrorCodeResourceNotFound, fmt.Sprintf("resource not found: %s", params.URI))
		}
		return mcp.ResponseFromError(err)
	}
	return mcp.NewSuccessResponse(mcp.NewResourceContentsResult(contents))
}

// Run serves requests from the transport until it closes or ctx ends. A
// clean peer closure returns nil. Malformed and oversized frames are
// answered with error responses without stopping the loop.
func (s *Server) Run(ctx context.Context, t transport.Transport) error {
	if err := s.reg.Validate(); err != nil {
		return fmt.Errorf("invalid registry: %w", err)
	}

	s.log.InfoContext(ctx, "serving",
		slog.String("server", s.cfg.Name),
		slog.String("version", s.cfg.Version),
		slog.Int("tools", s.reg.Count()),
	)

	for {
		req, err := t.Receive(ctx)
		if err != nil {
			switch {
			case err == io.EOF:
				s.log.InfoContext(ctx, "transport closed")
				return nil
			case ctx.Err() != nil:
				return ctx.Err()
			default:
				var se *transport.SizeError
				var ime *transport.InvalidMessageError
				if errors.As(err, &se) {
					s.failures.Add(1)
					if serr := t.Send(ctx, mcp.NewErrorResponse(mcp.ErrorCodeInvalidRequest, se.Error())); serr != nil {
						return serr
					}
					continue
				}
				if errors.As(err, &ime) {
					s.failures.Add(1)
					if serr := t.Send(ctx, mcp.NewErrorResponse(mcp.ErrorCodeParseError, ime.Error())); serr != nil {
						return serr
					}
					continue
				}
				return fmt.Errorf("receive: %w", err)
			}
		}

		resp := s.Handle(ctx, req)
		if err := t.Send(ctx, resp); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}
}
