// Package rpc serves engine handlers as line-delimited JSON-RPC 2.0 over a
// reader/writer pair, typically stdin and stdout of a child process.
package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"leadplan/engine/internal/errinfo"
	"leadplan/engine/internal/llm"
	"leadplan/engine/internal/logging"
)

const (
	jsonRPCVersion = "2.0"
	maxMessageSize = 1 << 20
)

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeServerError    = -32000
)

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *ErrorPayload   `json:"error,omitempty"`
}

type ErrorPayload struct {
	Code    int                `json:"code"`
	Message string             `json:"message"`
	Data    *errinfo.ErrorInfo `json:"data,omitempty"`
}

// Handler matches the engine's request handler signature.
type Handler func(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo)

type Server struct {
	reader   *bufio.Reader
	writer   *bufio.Writer
	mu       sync.Mutex
	handlers map[string]Handler
	logger   *slog.Logger
	inflight sync.WaitGroup
}

func NewServer(r io.Reader, w io.Writer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{
		reader:   bufio.NewReader(r),
		writer:   bufio.NewWriter(w),
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

func (s *Server) Register(method string, handler Handler) {
	s.handlers[method] = handler
}

// Serve reads requests until EOF or ctx is done. Requests run concurrently;
// Serve returns after every in-flight request has been answered.
func (s *Server) Serve(ctx context.Context) error {
	defer s.inflight.Wait()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := s.reader.ReadBytes('\n')
		if len(line) > 0 {
			s.dispatch(ctx, line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.logger.Error("rpc.read_failed", "error", err.Error())
			return err
		}
	}
}

func (s *Server) dispatch(ctx context.Context, line []byte) {
	if len(line) > maxMessageSize {
		s.logger.Warn("rpc.message_too_large", "bytes", len(line))
		s.sendError(nil, CodeInvalidRequest, "message too large", nil)
		return
	}
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.logger.Warn("rpc.invalid_json", "error", err.Error())
		s.sendError(nil, CodeParseError, "invalid json", nil)
		return
	}
	if req.JSONRPC != jsonRPCVersion {
		s.logger.Warn("rpc.invalid_version", "version", req.JSONRPC)
		s.sendError(req.ID, CodeInvalidRequest, "invalid jsonrpc version", nil)
		return
	}
	handler, ok := s.handlers[req.Method]
	if !ok {
		s.logger.Warn("rpc.method_not_found", "method", req.Method)
		s.sendError(req.ID, CodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method), nil)
		return
	}
	s.logger.Debug("rpc.request", "method", req.Method, "id", string(req.ID), "params", logging.RedactJSON(req.Params))
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.handleRequest(ctx, req, handler)
	}()
}

func (s *Server) handleRequest(ctx context.Context, req Request, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("rpc.handler_panic", "method", req.Method, "id", string(req.ID), "panic", fmt.Sprint(r))
			if req.ID != nil {
				s.sendError(req.ID, CodeServerError, "internal error", nil)
			}
		}
	}()
	if id := requestID(req.ID); id != "" {
		ctx = llm.WithRequestProfile(ctx, llm.RequestProfile{RequestID: "rpc-" + id})
	}
	result, info := handler(ctx, req.Params)
	if req.ID == nil {
		return
	}
	if info != nil {
		s.logger.Warn("rpc.response_error", "method", req.Method, "id", string(req.ID), "error_code", info.ErrorCode)
		message := info.Detail
		if message == "" {
			message = info.ErrorCode
		}
		s.sendError(req.ID, codeFor(info), message, info)
		return
	}
	s.logger.Debug("rpc.response", "method", req.Method, "id", string(req.ID))
	s.send(Response{JSONRPC: jsonRPCVersion, ID: req.ID, Result: result})
}

// requestID renders a JSON-RPC id for logs and headers. String ids lose
// their quotes; numbers are kept as written.
func requestID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}

func codeFor(info *errinfo.ErrorInfo) int {
	switch info.ErrorCode {
	case errinfo.CodeInvalidInput, errinfo.CodeValidationFailed:
		return CodeInvalidParams
	default:
		return CodeServerError
	}
}

func (s *Server) sendError(id json.RawMessage, code int, message string, data *errinfo.ErrorInfo) {
	s.send(Response{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error:   &ErrorPayload{Code: code, Message: message, Data: data},
	})
}

func (s *Server) send(payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("rpc.encode_failed", "error", err.Error())
		return
	}
	_, _ = s.writer.Write(append(data, '\n'))
	_ = s.writer.Flush()
}
