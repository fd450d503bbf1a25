package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quantfolio/portfolio-mcp/internal/dispatch"
	"github.com/quantfolio/portfolio-mcp/internal/tool"
)

// methodHandler resolves one routed request into a response. A returned
// error is a fault outside the dispatcher's own catch and is converted to
// an internal-error response at the loop level.
type methodHandler func(ctx context.Context, req *Request) (*Response, error)

// Server runs the read loop for one connection.
//
// The loop is sequential: one request is fully resolved, awaiting any
// suspending handler, before the next line is read. A server fronting
// several concurrent clients runs one Serve per connection; the registry,
// session store, and dispatcher it shares are safe for that.
type Server struct {
	log        *slog.Logger
	info       ServerInfo
	registry   *tool.Registry
	dispatcher *dispatch.Dispatcher
	sessionID  string
	handlers   map[Method]methodHandler
}

// NewServer creates a protocol server.
//
// sessionID is the authorization session used for every call-tool dispatch
// on this connection; session creation is not part of the wire protocol.
func NewServer(
	log *slog.Logger,
	info ServerInfo,
	registry *tool.Registry,
	dispatcher *dispatch.Dispatcher,
	sessionID string,
) *Server {
	s := &Server{
		log:        log.With("component", "protocol_server"),
		info:       info,
		registry:   registry,
		dispatcher: dispatcher,
		sessionID:  sessionID,
	}

	s.handlers = map[Method]methodHandler{
		MethodInitialize: s.handleInitialize,
		MethodListTools:  s.handleListTools,
		MethodCallTool:   s.handleCallTool,
	}

	return s
}

// Serve reads framed requests from r and writes responses to w until the
// input stream is exhausted or ctx is done. End-of-input is a normal
// termination and returns nil.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	transport := NewTransport(r, w)

	s.log.Info("Serving", "server", s.info.Name, "version", s.info.Version, "tools", s.registry.Len())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, ok := transport.ReadLine()
		if !ok {
			break
		}

		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			// Best-effort framing: a corrupted line must not stall the
			// server, and gets no response.
			s.log.Debug("Dropping unparseable line", "error", err)

			continue
		}

		resp := s.route(ctx, &req)
		if err := transport.Write(resp); err != nil {
			return err
		}
	}

	if err := transport.Err(); err != nil {
		return fmt.Errorf("read request: %w", err)
	}

	s.log.Info("Input stream exhausted, connection done")

	return nil
}

// route resolves one parsed request into exactly one response. Panics and
// handler-returned faults become internal-error responses carrying the
// request id.
func (s *Server) route(ctx context.Context, req *Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Panic while handling request", "method", req.Method, "panic", r)
			resp = ErrorResponse(req.ID, CodeInternalError, fmt.Sprintf("Internal error: %v", r))
		}
	}()

	handler, ok := s.handlers[req.Method]
	if !ok {
		s.log.Warn("Unknown method", "method", req.Method)

		return ErrorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
	}

	resp, err := handler(ctx, req)
	if err != nil {
		s.log.Error("Request handling failed", "method", req.Method, "error", err)

		return ErrorResponse(req.ID, CodeInternalError, fmt.Sprintf("Internal error: %s", err))
	}

	return resp
}

func (s *Server) handleInitialize(_ context.Context, req *Request) (*Response, error) {
	return &Response{
		ID: req.ID,
		Result: InitializeResult{
			ProtocolVersion: Version,
			Capabilities:    Capabilities{Tools: map[string]any{}},
			ServerInfo:      s.info,
		},
	}, nil
}

func (s *Server) handleListTools(_ context.Context, req *Request) (*Response, error) {
	defs := s.registry.List()

	tools := make([]*mcp.Tool, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, &mcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.Schema,
		})
	}

	return &Response{
		ID:     req.ID,
		Result: map[string]any{"tools": tools},
	}, nil
}

func (s *Server) handleCallTool(ctx context.Context, req *Request) (*Response, error) {
	var params CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid call-tool params: %w", err)
	}

	env := s.dispatcher.Dispatch(ctx, params.Name, params.Arguments, s.sessionID)

	text, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		// Serialization of handler data is an adapter concern; the
		// handler's side effects already happened.
		return nil, fmt.Errorf("serialize envelope: %w", err)
	}

	resp := &Response{
		ID: req.ID,
		Result: &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(text)}},
			IsError: !env.Success,
		},
	}

	// Failure is visible both inside the envelope and at the transport
	// error level.
	if !env.Success {
		resp.Error = &RPCError{Code: CodeDispatchFailed, Message: env.Error}
	}

	return resp, nil
}
