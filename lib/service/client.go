// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/bureau-foundation/scull/lib/codec"
)

// dialTimeout covers only the connect phase.
const dialTimeout = 5 * time.Second

// responseReadTimeout is the server's read plus write timeout, with
// room for the handler itself.
const responseReadTimeout = 45 * time.Second

// maxResponseSize caps one CBOR response. A read returns at most
// MaxTransfer bytes plus the envelope.
const maxResponseSize = MaxTransfer + 64*1024

// ServiceError is returned by Call when the server answers ok=false.
type ServiceError struct {
	Action  string
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Action, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

// Client sends requests to a control socket. Each Call uses its own
// connection, matching the server's one-request-per-connection model.
type Client struct {
	socketPath string
}

// NewClient returns a client for the socket at socketPath. No
// connection is made until Call.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// SocketPath returns the path the client dials.
func (c *Client) SocketPath() string {
	return c.socketPath
}

// Call sends action with the given fields and decodes the response
// data into result.
//
// Fields may be nil. The client sets "action" itself; fields must not
// contain it. If result is nil or the response carries no data,
// decoding is skipped.
//
// A failure envelope returns *ServiceError. Transport and encoding
// failures return plain errors.
func (c *Client) Call(ctx context.Context, action string, fields map[string]any, result any) error {
	request := make(map[string]any, len(fields)+1)
	for key, value := range fields {
		request[key] = value
	}
	request["action"] = action

	response, err := c.send(ctx, request)
	if err != nil {
		return fmt.Errorf("calling %q on %s: %w", action, c.socketPath, err)
	}

	if !response.OK {
		return &ServiceError{
			Action:  action,
			Code:    response.Code,
			Message: response.Error,
		}
	}

	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", action, err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, request any) (*Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	if _, ok := ctx.Deadline(); !ok {
		conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	}
	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &response, nil
}
