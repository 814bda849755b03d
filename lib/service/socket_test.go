// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/scull/lib/codec"
	"github.com/bureau-foundation/scull/lib/testutil"
)

// sendRequest connects, sends one CBOR request, and returns the
// decoded envelope.
func sendRequest(t *testing.T, socketPath string, request any) Response {
	t.Helper()

	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to socket: %v", err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		t.Fatalf("writing request: %v", err)
	}
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	var response Response
	if err := codec.NewDecoder(conn).Decode(&response); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return response
}

func decodeData(t *testing.T, response Response, target any) {
	t.Helper()
	if len(response.Data) == 0 {
		t.Fatal("response has no data to decode")
	}
	if err := codec.Unmarshal(response.Data, target); err != nil {
		t.Fatalf("decoding response data: %v", err)
	}
}

func testSocketPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(testutil.SocketDir(t), "scull.sock")
}

// startServer runs server.Serve until the test ends and waits for the
// socket to be ready. The returned channel receives Serve's result.
func startServer(t *testing.T, server *SocketServer) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()
	t.Cleanup(cancel)
	testutil.RequireClosed(t, server.Ready(), 5*time.Second, "socket server ready")
	return cancel, serveDone
}

func TestSocketServerStatus(t *testing.T) {
	server := NewSocketServer(SocketOptions{Path: testSocketPath(t)})
	server.Handle("status", func(ctx context.Context, raw []byte) (any, error) {
		return map[string]any{"size": 10, "quantums": 3}, nil
	})
	startServer(t, server)

	response := sendRequest(t, server.Path(), map[string]string{"action": "status"})
	if !response.OK {
		t.Fatalf("expected ok=true, got error %q", response.Error)
	}

	var data map[string]any
	decodeData(t, response, &data)
	if data["size"] != uint64(10) {
		t.Errorf("size = %v (%T), want 10", data["size"], data["size"])
	}
	if data["quantums"] != uint64(3) {
		t.Errorf("quantums = %v (%T), want 3", data["quantums"], data["quantums"])
	}
}

func TestSocketServerHandlerDecodesFields(t *testing.T) {
	server := NewSocketServer(SocketOptions{Path: testSocketPath(t)})
	server.Handle("write", func(ctx context.Context, raw []byte) (any, error) {
		var request struct {
			Offset int64  `cbor:"offset"`
			Data   []byte `cbor:"data"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, err
		}
		return map[string]any{"offset": request.Offset, "length": len(request.Data)}, nil
	})
	startServer(t, server)

	response := sendRequest(t, server.Path(), map[string]any{
		"action": "write",
		"offset": 4000,
		"data":   []byte{0, 1, 2, 3},
	})
	if !response.OK {
		t.Fatalf("expected ok=true, got error %q", response.Error)
	}

	var data struct {
		Offset int64 `cbor:"offset"`
		Length int   `cbor:"length"`
	}
	decodeData(t, response, &data)
	if data.Offset != 4000 || data.Length != 4 {
		t.Errorf("got %+v, want offset 4000 length 4", data)
	}
}

func TestSocketServerUnknownAction(t *testing.T) {
	server := NewSocketServer(SocketOptions{Path: testSocketPath(t)})
	startServer(t, server)

	response := sendRequest(t, server.Path(), map[string]string{"action": "ioctl-42"})
	if response.OK {
		t.Fatal("expected ok=false for unknown action")
	}
	if response.Code != CodeUnknownAction {
		t.Errorf("code = %q, want %q", response.Code, CodeUnknownAction)
	}
}

func TestSocketServerMissingAction(t *testing.T) {
	server := NewSocketServer(SocketOptions{Path: testSocketPath(t)})
	startServer(t, server)

	response := sendRequest(t, server.Path(), map[string]any{"offset": 0})
	if response.OK {
		t.Fatal("expected ok=false for missing action")
	}
	if response.Code != CodeInvalidRequest {
		t.Errorf("code = %q, want %q", response.Code, CodeInvalidRequest)
	}
}

func TestSocketServerInvalidCBOR(t *testing.T) {
	server := NewSocketServer(SocketOptions{Path: testSocketPath(t)})
	startServer(t, server)

	conn, err := net.DialTimeout("unix", server.Path(), 5*time.Second)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer conn.Close()

	// 0xFF is a break code with no enclosing indefinite-length item.
	if _, err := conn.Write([]byte{0xFF}); err != nil {
		t.Fatalf("writing garbage: %v", err)
	}
	conn.(*net.UnixConn).CloseWrite()

	var response Response
	if err := codec.NewDecoder(conn).Decode(&response); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if response.OK || response.Code != CodeInvalidRequest {
		t.Errorf("got %+v, want invalid_request failure", response)
	}
}

var errTestExhausted = errors.New("out of memory")

func TestSocketServerClassifiesHandlerErrors(t *testing.T) {
	server := NewSocketServer(SocketOptions{
		Path: testSocketPath(t),
		Classify: func(err error) string {
			if errors.Is(err, errTestExhausted) {
				return "resource_exhausted"
			}
			return ""
		},
	})
	server.Handle("write", func(ctx context.Context, raw []byte) (any, error) {
		return nil, fmt.Errorf("allocating quantum: %w", errTestExhausted)
	})
	server.Handle("seek", func(ctx context.Context, raw []byte) (any, error) {
		return nil, errors.New("not supported")
	})
	startServer(t, server)

	response := sendRequest(t, server.Path(), map[string]string{"action": "write"})
	if response.OK {
		t.Fatal("expected ok=false from failing handler")
	}
	if response.Error != "allocating quantum: out of memory" {
		t.Errorf("error = %q", response.Error)
	}
	if response.Code != "resource_exhausted" {
		t.Errorf("code = %q, want resource_exhausted", response.Code)
	}

	response = sendRequest(t, server.Path(), map[string]string{"action": "seek"})
	if response.OK || response.Code != "" {
		t.Errorf("unclassified error: got %+v, want failure with no code", response)
	}
}

func TestSocketServerNilResult(t *testing.T) {
	server := NewSocketServer(SocketOptions{Path: testSocketPath(t)})
	server.Handle("truncate", func(ctx context.Context, raw []byte) (any, error) {
		return nil, nil
	})
	startServer(t, server)

	response := sendRequest(t, server.Path(), map[string]string{"action": "truncate"})
	if !response.OK {
		t.Fatalf("expected ok=true, got error %q", response.Error)
	}
	if len(response.Data) != 0 {
		t.Errorf("expected no data, got %d bytes", len(response.Data))
	}
}

func TestSocketServerConcurrentRequests(t *testing.T) {
	server := NewSocketServer(SocketOptions{Path: testSocketPath(t)})
	var mu sync.Mutex
	total := 0
	server.Handle("add", func(ctx context.Context, raw []byte) (any, error) {
		mu.Lock()
		defer mu.Unlock()
		total++
		return nil, nil
	})
	startServer(t, server)

	const clients = 16
	var wg sync.WaitGroup
	for range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if response := sendRequest(t, server.Path(), map[string]string{"action": "add"}); !response.OK {
				t.Errorf("request failed: %q", response.Error)
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if total != clients {
		t.Errorf("handled %d requests, want %d", total, clients)
	}
}

func TestSocketServerGracefulShutdown(t *testing.T) {
	server := NewSocketServer(SocketOptions{Path: testSocketPath(t)})

	handlerStarted := make(chan struct{})
	handlerRelease := make(chan struct{})
	server.Handle("slow", func(ctx context.Context, raw []byte) (any, error) {
		close(handlerStarted)
		<-handlerRelease
		return map[string]any{"completed": true}, nil
	})
	cancel, serveDone := startServer(t, server)

	responses := make(chan Response, 1)
	go func() {
		responses <- sendRequest(t, server.Path(), map[string]string{"action": "slow"})
	}()

	testutil.RequireClosed(t, handlerStarted, 5*time.Second, "handler started")
	cancel()
	close(handlerRelease)

	response := testutil.RequireReceive(t, responses, 5*time.Second, "in-flight response")
	if !response.OK {
		t.Errorf("in-flight request failed: %q", response.Error)
	}

	if err := testutil.RequireReceive(t, serveDone, 5*time.Second, "Serve did not return after cancellation"); err != nil {
		t.Errorf("Serve returned error: %v", err)
	}
	if _, err := os.Stat(server.Path()); !os.IsNotExist(err) {
		t.Error("socket file not cleaned up after Serve returned")
	}
}

func TestSocketServerRemovesStaleSocket(t *testing.T) {
	path := testSocketPath(t)
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("creating stale file: %v", err)
	}

	server := NewSocketServer(SocketOptions{Path: path})
	server.Handle("status", func(ctx context.Context, raw []byte) (any, error) {
		return nil, nil
	})
	startServer(t, server)

	if response := sendRequest(t, path, map[string]string{"action": "status"}); !response.OK {
		t.Errorf("status failed: %q", response.Error)
	}
}

func TestSocketServerMode(t *testing.T) {
	server := NewSocketServer(SocketOptions{Path: testSocketPath(t), Mode: 0o600})
	startServer(t, server)

	info, err := os.Stat(server.Path())
	if err != nil {
		t.Fatalf("stat socket: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("socket mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestSocketServerActions(t *testing.T) {
	server := NewSocketServer(SocketOptions{Path: "/tmp/unused.sock"})
	noop := func(ctx context.Context, raw []byte) (any, error) { return nil, nil }
	server.Handle("write", noop)
	server.Handle("read", noop)
	server.Handle("status", noop)

	got := server.Actions()
	want := []string{"read", "status", "write"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Actions() = %v, want %v", got, want)
	}
}

func TestSocketServerDuplicateHandlerPanics(t *testing.T) {
	server := NewSocketServer(SocketOptions{Path: "/tmp/unused.sock"})
	noop := func(ctx context.Context, raw []byte) (any, error) { return nil, nil }
	server.Handle("read", noop)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate handler")
		}
	}()
	server.Handle("read", noop)
}
