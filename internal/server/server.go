// Package server binds the catalog tools to an MCP server and serves it over
// stdio or HTTP/SSE.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mcphub-mcp/internal/config"
	"mcphub-mcp/internal/tools"
)

// Version is reported to MCP clients and tagged on exported spans.
const Version = "0.1.0"

// Routes served in HTTP mode.
const (
	healthPath   = "/health"
	ssePath      = "/sse"
	messagesPath = "/messages"
)

// Server contains the MCP server, its router, and the dispatcher that runs tool calls.
type Server struct {
	cfg        config.Config
	router     *chi.Mux
	mcp        *mcp.Server
	sse        *mcp.SSEHandler
	dispatcher *tools.Dispatcher
}

// New constructs a Server with every registered tool bound to the dispatcher and
// the HTTP routes configured.
func New(cfg config.Config, dispatcher *tools.Dispatcher) *Server {
	s := &Server{
		cfg:        cfg,
		router:     chi.NewRouter(),
		dispatcher: dispatcher,
		mcp:        mcp.NewServer(&mcp.Implementation{Name: cfg.ServerName, Version: Version}, nil),
	}
	s.registerTools()
	s.mcp.AddReceivingMiddleware(s.unknownToolMiddleware)

	// One MCP server backs every SSE session; tool calls share no mutable state.
	s.sse = mcp.NewSSEHandler(func(*http.Request) *mcp.Server { return s.mcp }, nil)

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.Default(), NoColor: true}))
	s.router.Use(middleware.Recoverer)

	s.router.Get(healthPath, s.handleHealth)
	s.router.Get(ssePath, s.handleSSE)
	s.router.Post(messagesPath, s.sse.ServeHTTP)
	s.router.NotFound(handleNotFound)

	return s
}

func (s *Server) registerTools() {
	for _, tool := range s.dispatcher.Registry().ListTools() {
		s.mcp.AddTool(&mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema(),
		}, s.callTool)
	}
}

// Router exposes the root HTTP handler for the server.
func (s *Server) Router() http.Handler { return s.router }

// callTool decodes the call's arguments and hands it to the dispatcher. Every
// outcome, including undecodable arguments, is a text result.
func (s *Server) callTool(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, raw := "", json.RawMessage(nil)
	if req != nil && req.Params != nil {
		name, raw = req.Params.Name, req.Params.Arguments
	}
	args, err := decodeArguments(raw)
	if err != nil {
		log.Printf("tool %s: %v", name, err)
		return textResult(tools.Result{Content: []tools.Content{{Type: "text", Text: "Error: " + err.Error()}}}), nil
	}
	return textResult(s.dispatcher.Dispatch(ctx, name, args)), nil
}

// unknownToolMiddleware answers tools/call for unregistered names with the
// dispatcher's text result instead of a protocol error.
func (s *Server) unknownToolMiddleware(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		if method != "tools/call" {
			return next(ctx, method, req)
		}
		call, ok := req.(*mcp.CallToolRequest)
		if !ok || call.Params == nil {
			return next(ctx, method, req)
		}
		if _, known := s.dispatcher.Registry().Lookup(call.Params.Name); known {
			return next(ctx, method, req)
		}
		// Arguments stay undecoded so a malformed payload cannot mask the unknown name.
		return textResult(s.dispatcher.Dispatch(ctx, call.Params.Name, nil)), nil
	}
}

func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return args, nil
}

func textResult(res tools.Result) *mcp.CallToolResult {
	out := &mcp.CallToolResult{Content: make([]mcp.Content, 0, len(res.Content))}
	for _, c := range res.Content {
		out.Content = append(out.Content, &mcp.TextContent{Text: c.Text})
	}
	return out
}

// handleSSE opens an SSE session. The endpoint event sent to the client points at
// the messages route, where the SDK routes POSTed frames by session id.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	r = r.Clone(r.Context())
	r.URL.Path, r.URL.RawPath = messagesPath, ""
	s.sse.ServeHTTP(w, r)
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body, _ := json.Marshal(healthResponse{Status: "healthy", Service: s.cfg.ServerName})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("Not Found"))
}
