// Package mcp serves the tool set over JSON-RPC 2.0 on stdio. Messages
// are newline-delimited JSON, one per line. Stdout carries only protocol
// frames; all logging goes to stderr.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

const protocolVersion = "2024-11-05"

// Version is stamped at build time.
var Version = "dev"

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server runs the JSON-RPC loop against a tool registry.
type Server struct {
	registry *Registry
	in       io.Reader
	out      io.Writer
	log      logrus.FieldLogger

	mu sync.Mutex // serializes writes to out
}

// NewServer creates a server reading requests from in and writing
// responses to out.
func NewServer(registry *Registry, in io.Reader, out io.Writer, log logrus.FieldLogger) *Server {
	return &Server{registry: registry, in: in, out: out, log: log}
}

// Run processes requests until in is exhausted or ctx is cancelled. A
// malformed line yields a parse error response; the loop never stops for
// a bad request.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	s.log.WithField("version", Version).Info("server ready")

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.WithError(err).Warn("unparseable request")
			s.reply(response{JSONRPC: "2.0", ID: json.RawMessage("null"), Error: &rpcError{Code: codeParseError, Message: "parse error"}})
			continue
		}

		s.dispatch(ctx, req)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read loop failed: %w", err)
	}
	s.log.Info("input closed, shutting down")
	return nil
}

// dispatch routes one request. Notifications (no ID) get no response.
func (s *Server) dispatch(ctx context.Context, req request) {
	notification := len(req.ID) == 0

	result, rpcErr := s.handle(ctx, req)
	if notification {
		return
	}

	resp := response{JSONRPC: "2.0", ID: req.ID}
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}
	s.reply(resp)
}

func (s *Server) handle(ctx context.Context, req request) (any, *rpcError) {
	s.log.WithField("method", req.Method).Debug("request")

	switch req.Method {
	case "initialize":
		return map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo": map[string]any{
				"name":    "etrade-mcp",
				"version": Version,
			},
		}, nil

	case "notifications/initialized", "notifications/cancelled":
		return nil, nil

	case "ping":
		return map[string]any{}, nil

	case "tools/list":
		return map[string]any{"tools": s.registry.List()}, nil

	case "tools/call":
		return s.callTool(ctx, req.Params)

	default:
		return nil, &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
	}
}

// callTool executes a tool and wraps its payload as text content. Tool
// failures are part of the payload, not protocol errors, so a client
// always gets a well-formed tool result to read.
func (s *Server) callTool(ctx context.Context, params json.RawMessage) (any, *rpcError) {
	var call struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(params, &call); err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: "invalid tools/call params"}
	}
	if call.Name == "" {
		return nil, &rpcError{Code: codeInvalidParams, Message: "tool name is required"}
	}

	payload, found := s.registry.Call(ctx, call.Name, call.Arguments)
	if !found {
		return nil, &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("unknown tool: %s", call.Name)}
	}

	text, err := json.Marshal(payload)
	if err != nil {
		s.log.WithError(err).WithField("tool", call.Name).Error("unencodable tool result")
		text = []byte(`{"error": "internal encoding failure"}`)
	}

	isError := false
	if m, ok := payload.(map[string]string); ok {
		_, isError = m["error"]
	}
	if isError {
		s.log.WithField("tool", call.Name).Warn("tool returned error payload")
	}

	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(text)},
		},
		"isError": isError,
	}, nil
}

// reply writes one response frame followed by a newline.
func (s *Server) reply(resp response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.WithError(err).Error("unencodable response")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(append(data, '\n')); err != nil {
		s.log.WithError(err).Error("write failed")
	}
}
