package httpbridge

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/elnormous/contenttype"

	"github.com/ggoodman/mcp-transport-go/internal/logctx"
	"github.com/ggoodman/mcp-transport-go/mcp"
	"github.com/ggoodman/mcp-transport-go/transport"
)

var jsonMediaType = contenttype.NewMediaType("application/json")

func (t *Transport) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", t.handleHealth)
	mux.HandleFunc("GET /mcp/tools/list", t.handleListTools)
	mux.HandleFunc("POST /mcp/tools/call", t.handleCallTool)
	mux.HandleFunc("GET /mcp/resources/list", t.handleListResources)
	mux.HandleFunc("POST /mcp/resources/read", t.handleReadResource)
	mux.HandleFunc("POST /mcp/request", t.handleRawRequest)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requireJSONBody enforces an application/json content type on POSTs.
func requireJSONBody(w http.ResponseWriter, r *http.Request) bool {
	ctype, err := contenttype.GetMediaType(r)
	if err != nil || !ctype.Matches(jsonMediaType) {
		writeJSONError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
		return false
	}
	return true
}

func (t *Transport) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "mcp-http-bridge",
	})
}

// dispatch submits the request and renders the dispatcher's response, or a
// 202 acknowledgment when no response arrived within the timeout.
func (t *Transport) dispatch(w http.ResponseWriter, r *http.Request, req *mcp.Request) {
	ctx := logctx.WithHTTPData(r.Context(), &logctx.HTTPData{
		Method:     r.Method,
		Path:       r.URL.Path,
		RemoteAddr: r.RemoteAddr,
	})

	if !t.connected.Load() {
		writeJSONError(w, http.StatusServiceUnavailable, "bridge is shut down")
		return
	}

	resp, id, ok, err := t.submit(ctx, req)
	if err != nil {
		var se *transport.SizeError
		var ime *transport.InvalidMessageError
		if errors.As(err, &se) || errors.As(err, &ime) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		t.log.WarnContext(ctx, "submit failed", slog.String("err", err.Error()))
		writeJSONError(w, http.StatusServiceUnavailable, "bridge is shut down")
		return
	}
	if !ok {
		t.log.InfoContext(ctx, "request accepted without response", slog.String("id", id))
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "id": id})
		return
	}

	status := http.StatusOK
	if resp.IsError() {
		status = statusForCode(resp.Err.Code)
	}
	writeJSON(w, status, resp)
}

func statusForCode(code mcp.ErrorCode) int {
	switch code {
	case mcp.ErrorCodeParseError, mcp.ErrorCodeInvalidRequest, mcp.ErrorCodeInvalidParams:
		return http.StatusBadRequest
	case mcp.ErrorCodeMethodNotFound, mcp.ErrorCodeResourceNotFound:
		return http.StatusNotFound
	case mcp.ErrorCodePermissionDenied:
		return http.StatusForbidden
	case mcp.ErrorCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case mcp.ErrorCodeServerOverloaded:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func cursorParam(r *http.Request) *string {
	if c := r.URL.Query().Get("cursor"); c != "" {
		return &c
	}
	return nil
}

func (t *Transport) handleListTools(w http.ResponseWriter, r *http.Request) {
	t.dispatch(w, r, mcp.ListToolsRequest(cursorParam(r)))
}

func (t *Transport) handleCallTool(w http.ResponseWriter, r *http.Request) {
	if !requireJSONBody(w, r) {
		return
	}

	var body struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "missing tool name")
		return
	}

	t.dispatch(w, r, mcp.CallToolRequest(body.Name, body.Arguments))
}

func (t *Transport) handleListResources(w http.ResponseWriter, r *http.Request) {
	t.dispatch(w, r, mcp.ListResourcesRequest(cursorParam(r)))
}

func (t *Transport) handleReadResource(w http.ResponseWriter, r *http.Request) {
	if !requireJSONBody(w, r) {
		return
	}

	var body struct {
		URI string `json:"uri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.URI == "" {
		writeJSONError(w, http.StatusBadRequest, "missing uri")
		return
	}

	t.dispatch(w, r, mcp.ReadResourceRequest(body.URI))
}

// handleRawRequest accepts a full protocol request object, for clients that
// speak the wire format directly.
func (t *Transport) handleRawRequest(w http.ResponseWriter, r *http.Request) {
	if !requireJSONBody(w, r) {
		return
	}

	var req mcp.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	t.dispatch(w, r, &req)
}
