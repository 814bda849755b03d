// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bureau-foundation/scull/lib/codec"
)

func TestClientCall(t *testing.T) {
	server := NewSocketServer(SocketOptions{Path: testSocketPath(t)})
	server.Handle("read", func(ctx context.Context, raw []byte) (any, error) {
		var request struct {
			Offset int64 `cbor:"offset"`
			Length int   `cbor:"length"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, err
		}
		return map[string]any{"data": bytes.Repeat([]byte{'x'}, request.Length)}, nil
	})
	startServer(t, server)

	client := NewClient(server.Path())
	var result struct {
		Data []byte `cbor:"data"`
	}
	if err := client.Call(context.Background(), "read", map[string]any{"offset": 0, "length": 5}, &result); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if string(result.Data) != "xxxxx" {
		t.Errorf("data = %q, want xxxxx", result.Data)
	}
}

func TestClientCallNilFieldsAndResult(t *testing.T) {
	server := NewSocketServer(SocketOptions{Path: testSocketPath(t)})
	called := make(chan struct{}, 1)
	server.Handle("truncate", func(ctx context.Context, raw []byte) (any, error) {
		called <- struct{}{}
		return map[string]any{"ignored": true}, nil
	})
	startServer(t, server)

	if err := NewClient(server.Path()).Call(context.Background(), "truncate", nil, nil); err != nil {
		t.Fatalf("Call: %v", err)
	}
	select {
	case <-called:
	default:
		t.Error("handler was not called")
	}
}

func TestClientCallServiceError(t *testing.T) {
	server := NewSocketServer(SocketOptions{
		Path:     testSocketPath(t),
		Classify: func(error) string { return "unsupported" },
	})
	server.Handle("seek", func(ctx context.Context, raw []byte) (any, error) {
		return nil, errors.New("seek is not supported")
	})
	startServer(t, server)

	err := NewClient(server.Path()).Call(context.Background(), "seek", nil, nil)
	var serviceError *ServiceError
	if !errors.As(err, &serviceError) {
		t.Fatalf("expected *ServiceError, got %T: %v", err, err)
	}
	if serviceError.Action != "seek" || serviceError.Code != "unsupported" {
		t.Errorf("got %+v", serviceError)
	}
	if serviceError.Message != "seek is not supported" {
		t.Errorf("message = %q", serviceError.Message)
	}
}

func TestClientCallUnknownAction(t *testing.T) {
	server := NewSocketServer(SocketOptions{Path: testSocketPath(t)})
	startServer(t, server)

	err := NewClient(server.Path()).Call(context.Background(), "mmap", nil, nil)
	var serviceError *ServiceError
	if !errors.As(err, &serviceError) {
		t.Fatalf("expected *ServiceError, got %T: %v", err, err)
	}
	if serviceError.Code != CodeUnknownAction {
		t.Errorf("code = %q, want %q", serviceError.Code, CodeUnknownAction)
	}
}

func TestClientCallConnectionRefused(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.sock")
	err := NewClient(path).Call(context.Background(), "status", nil, nil)
	if err == nil {
		t.Fatal("expected error dialing a missing socket")
	}
	var serviceError *ServiceError
	if errors.As(err, &serviceError) {
		t.Errorf("transport failure should not be a *ServiceError: %v", err)
	}
}

func TestClientConcurrentCalls(t *testing.T) {
	server := NewSocketServer(SocketOptions{Path: testSocketPath(t)})
	server.Handle("echo", func(ctx context.Context, raw []byte) (any, error) {
		var request struct {
			Value int `cbor:"value"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, err
		}
		return map[string]any{"value": request.Value}, nil
	})
	startServer(t, server)

	client := NewClient(server.Path())
	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var result struct {
				Value int `cbor:"value"`
			}
			if err := client.Call(context.Background(), "echo", map[string]any{"value": i}, &result); err != nil {
				t.Errorf("Call %d: %v", i, err)
				return
			}
			if result.Value != i {
				t.Errorf("Call %d returned %d", i, result.Value)
			}
		}()
	}
	wg.Wait()
}
