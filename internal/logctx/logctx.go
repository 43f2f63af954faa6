package logctx

import (
	"context"
	"log/slog"
)

// Handler decorates an inner slog.Handler with attributes harvested from the
// context, so call sites log with plain messages and still get transport,
// dispatch, and tool correlation fields.
type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if td, ok := ctx.Value(transportDataKey{}).(*TransportData); ok {
		r.AddAttrs(slog.Group("transport",
			slog.String("kind", td.Kind),
			slog.String("peer", td.Peer),
		))
	}

	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		r.AddAttrs(slog.Group("rpc",
			slog.String("id", rd.MessageID),
			slog.String("method", rd.Method),
		))
	}

	if hd, ok := ctx.Value(httpDataKey{}).(*HTTPData); ok {
		r.AddAttrs(slog.Group("http",
			slog.String("method", hd.Method),
			slog.String("path", hd.Path),
			slog.String("remote_addr", hd.RemoteAddr),
		))
	}

	if td, ok := ctx.Value(toolCallDataKey{}).(*ToolCallData); ok {
		r.AddAttrs(slog.Group("tool",
			slog.String("name", td.ToolName),
		))
	}

	return h.Handler.Handle(ctx, r)
}

type transportDataKey struct{}

type TransportData struct {
	Kind string
	Peer string
}

func WithTransportData(ctx context.Context, data *TransportData) context.Context {
	return context.WithValue(ctx, transportDataKey{}, data)
}

type requestDataKey struct{}

type RequestData struct {
	MessageID string
	Method    string
}

func WithRequestData(ctx context.Context, data *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, data)
}

type httpDataKey struct{}

type HTTPData struct {
	Method     string
	Path       string
	RemoteAddr string
}

func WithHTTPData(ctx context.Context, data *HTTPData) context.Context {
	return context.WithValue(ctx, httpDataKey{}, data)
}

type toolCallDataKey struct{}

type ToolCallData struct {
	ToolName string
}

func WithToolCallData(ctx context.Context, data *ToolCallData) context.Context {
	return context.WithValue(ctx, toolCallDataKey{}, data)
}
