package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mcpkit-go/mcpkit/pkg/frame"
)

const serverScannerBuffer = 1024 * 1024

type registeredTool struct {
	def     ToolDefinition
	handler ToolHandler
}

// Server hosts a set of registered tools behind an MCP JSON-RPC endpoint.
// Serve reads one framed request stream and writes one framed response
// stream, matching the wire format mcpclient.Client and transport.Transport
// expect from a stdio child process.
type Server struct {
	Name    string
	Version string
	Logger  *slog.Logger

	mu    sync.Mutex
	order []string
	tools map[string]registeredTool
}

// NewServer returns an empty Server advertising name/version during
// initialize.
func NewServer(name, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Name:    name,
		Version: version,
		Logger:  logger,
		tools:   make(map[string]registeredTool),
	}
}

// RegisterTool adds a tool to tools/list and binds handler to tools/call
// for def.Name. Registering the same name again replaces the prior
// registration without disturbing listing order.
func (s *Server) RegisterTool(def ToolDefinition, handler ToolHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tools[def.Name]; !exists {
		s.order = append(s.order, def.Name)
	}
	s.tools[def.Name] = registeredTool{def: def, handler: handler}
}

// Serve reads framed JSON-RPC requests from r and writes framed responses
// to w until r is exhausted or ctx is cancelled. It returns nil on a clean
// EOF.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), serverScannerBuffer)

	reassembler := frame.NewReassembler()
	var writeMu sync.Mutex

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		payload, ok := s.extractPayload(reassembler, line)
		if !ok {
			continue
		}

		var req jsonrpcRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			s.Logger.Warn("mcpserver: dropped unparseable request", "error", err)
			continue
		}

		resp := s.dispatch(ctx, req)
		if resp == nil {
			// Notification: no response expected.
			continue
		}

		if err := s.writeResponse(w, &writeMu, resp); err != nil {
			return fmt.Errorf("mcpserver: write response: %w", err)
		}
	}

	return scanner.Err()
}

// extractPayload tries framed reassembly first and falls back to treating
// the line as a bare (unframed) JSON-RPC message, which keeps Serve usable
// against writers that don't speak the chunking codec (e.g. direct tests).
func (s *Server) extractPayload(reassembler *frame.Reassembler, line []byte) ([]byte, bool) {
	f, err := frame.Parse(line)
	if err != nil {
		return line, true
	}
	return reassembler.Feed(f)
}

func (s *Server) writeResponse(w io.Writer, mu *sync.Mutex, resp *jsonrpcResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	for _, line := range frame.Chunk(uuid.NewString(), data) {
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) dispatch(ctx context.Context, req jsonrpcRequest) *jsonrpcResponse {
	if len(req.ID) == 0 || string(req.ID) == "null" {
		// Notifications (initialize/initialized, cancellation) require no
		// response and carry no tool-execution semantics for this server.
		return nil
	}

	switch req.Method {
	case "initialize":
		return &jsonrpcResponse{JSONRPC: "2.0", ID: req.ID, Result: initializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    map[string]any{"tools": map[string]any{}},
			ServerInfo:      serverInfo{Name: s.Name, Version: s.Version},
		}}

	case "tools/list":
		return &jsonrpcResponse{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{"tools": s.listTools()}}

	case "tools/call":
		return s.handleToolsCall(ctx, req)

	case "resources/list":
		return &jsonrpcResponse{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{"resources": []any{}}}

	case "prompts/list":
		return &jsonrpcResponse{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{"prompts": []any{}}}

	default:
		return &jsonrpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{
			Code:    errCodeMethodNotFound,
			Message: "method not found: " + req.Method,
		}}
	}
}

func (s *Server) listTools() []ToolDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	defs := make([]ToolDefinition, 0, len(s.order))
	for _, name := range s.order {
		defs = append(defs, s.tools[name].def)
	}
	return defs
}

func (s *Server) handleToolsCall(ctx context.Context, req jsonrpcRequest) *jsonrpcResponse {
	var params toolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return &jsonrpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{
			Code:    errCodeInvalidParams,
			Message: "invalid tools/call params: " + err.Error(),
		}}
	}

	s.mu.Lock()
	tool, ok := s.tools[params.Name]
	s.mu.Unlock()
	if !ok {
		return &jsonrpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{
			Code:    errCodeMethodNotFound,
			Message: "unknown tool: " + params.Name,
		}}
	}

	result, err := tool.handler(ctx, params.Arguments)
	if err != nil {
		return &jsonrpcResponse{JSONRPC: "2.0", ID: req.ID, Result: toolsCallResult{
			Content: []ContentPart{{Type: "text", Text: err.Error()}},
			IsError: true,
		}}
	}

	return &jsonrpcResponse{JSONRPC: "2.0", ID: req.ID, Result: toolsCallResult{
		Content: DecodeContentParts(result),
	}}
}
