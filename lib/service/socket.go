// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/bureau-foundation/scull/lib/codec"
)

// Error codes the server itself produces. Handlers add their own
// through SocketOptions.Classify.
const (
	CodeInvalidRequest = "invalid_request"
	CodeUnknownAction  = "unknown_action"
	CodeInternal       = "internal"
)

// ActionFunc processes a socket request for a specific action. The raw
// parameter is the full CBOR request (including the "action" field);
// the handler decodes its own fields from it.
//
// A nil result produces {ok: true}. A non-nil result is marshaled into
// the response's "data" field.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// Response is the wire envelope for every socket response.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Code  string           `cbor:"code,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// SocketOptions configures a SocketServer.
type SocketOptions struct {
	// Path is the Unix socket path. Required.
	Path string

	// Mode is applied to the socket file after listening. Zero leaves
	// the umask-derived permissions alone.
	Mode os.FileMode

	// Classify maps a handler error to a short machine-readable code
	// carried in the response. Nil, or an empty return, sends no code.
	Classify func(error) string

	// Logger receives connection and dispatch events. Nil discards
	// everything below error level to stderr.
	Logger *slog.Logger
}

// SocketServer serves the request-response protocol on a Unix socket.
// Each connection carries exactly one request and one response.
type SocketServer struct {
	path     string
	mode     os.FileMode
	classify func(error) string
	handlers map[string]ActionFunc
	logger   *slog.Logger

	ready     chan struct{}
	readyOnce sync.Once

	// activeConnections lets Serve drain in-flight handlers before
	// returning.
	activeConnections sync.WaitGroup
}

// NewSocketServer creates a server. Register actions with Handle
// before calling Serve.
func NewSocketServer(options SocketOptions) *SocketServer {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}
	return &SocketServer{
		path:     options.Path,
		mode:     options.Mode,
		classify: options.Classify,
		handlers: make(map[string]ActionFunc),
		logger:   logger,
		ready:    make(chan struct{}),
	}
}

// Handle registers a handler for an action name. Panics on a duplicate
// registration.
func (s *SocketServer) Handle(action string, handler ActionFunc) {
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("service.SocketServer: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// Actions returns the registered action names in sorted order.
func (s *SocketServer) Actions() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Path returns the socket path the server listens on.
func (s *SocketServer) Path() string {
	return s.path
}

// Ready is closed once the socket is listening.
func (s *SocketServer) Ready() <-chan struct{} {
	return s.ready
}

// Serve listens on the socket and dispatches requests until ctx is
// cancelled, then stops accepting and waits for active handlers.
//
// A stale socket file at the path is removed first. The socket file is
// removed on return.
func (s *SocketServer) Serve(ctx context.Context) error {
	if s.path == "" {
		return errors.New("service.SocketServer: socket path is required")
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.path, err)
	}

	listener, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.path, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.path)
	}()

	if s.mode != 0 {
		if err := os.Chmod(s.path, s.mode); err != nil {
			return fmt.Errorf("setting mode %v on %s: %w", s.mode, s.path, err)
		}
	}

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("socket server listening", "path", s.path, "actions", s.Actions())
	s.readyOnce.Do(func() { close(s.ready) })

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

// readTimeout bounds how long a client may take to send its request.
const readTimeout = 30 * time.Second

// writeTimeout bounds writing the response.
const writeTimeout = 10 * time.Second

// maxRequestSize caps one CBOR request. The largest legitimate request
// is a write carrying MaxTransfer bytes of payload.
const maxRequestSize = MaxTransfer + 64*1024

// MaxTransfer is the largest payload a single read or write action
// moves. Clients split larger transfers.
const MaxTransfer = 512 * 1024

func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		s.writeError(conn, CodeInvalidRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	var header struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		s.writeError(conn, CodeInvalidRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if header.Action == "" {
		s.logRejected("missing action", raw)
		s.writeError(conn, CodeInvalidRequest, "missing required field: action")
		return
	}

	handler, exists := s.handlers[header.Action]
	if !exists {
		s.logRejected("unknown action", raw)
		s.writeError(conn, CodeUnknownAction, fmt.Sprintf("unknown action %q", header.Action))
		return
	}

	result, err := handler(ctx, []byte(raw))
	if err != nil {
		s.logger.Debug("action failed", "action", header.Action, "error", err)
		code := ""
		if s.classify != nil {
			code = s.classify(err)
		}
		s.writeError(conn, code, err.Error())
		return
	}

	s.writeSuccess(conn, result)
}

// logRejected logs a rejected request in CBOR diagnostic notation.
func (s *SocketServer) logRejected(reason string, raw []byte) {
	if !s.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	notation, err := codec.Diagnose(raw)
	if err != nil {
		notation = fmt.Sprintf("<undiagnosable: %v>", err)
	}
	s.logger.Debug("request rejected", "reason", reason, "request", notation)
}

// writeError sends {ok: false, error, code}. The connection closes
// either way, so write failures are only logged.
func (s *SocketServer) writeError(conn net.Conn, code, message string) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(Response{
		OK:    false,
		Error: message,
		Code:  code,
	}); err != nil {
		s.logger.Debug("failed to write error response", "error", err)
	}
}

func (s *SocketServer) writeSuccess(conn net.Conn, result any) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))

	response := Response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.writeError(conn, CodeInternal, fmt.Sprintf("internal: marshaling response: %v", err))
			return
		}
		response.Data = data
	}

	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("failed to write success response", "error", err)
	}
}
