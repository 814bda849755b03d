// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the control socket shared by sculld and
// scullctl.
//
// The protocol is one CBOR request and one CBOR response per Unix
// socket connection. A request is a CBOR map with an "action" field
// naming the handler plus any action-specific fields. The response is
// a [Response] envelope: {ok: true, data: ...} on success or
// {ok: false, error: "...", code: "..."} on failure. CBOR is
// self-delimiting, so neither side needs framing.
//
// [SocketServer] dispatches by action and drains in-flight requests
// on shutdown. [Client] opens a fresh connection per [Client.Call] and
// turns failure envelopes into [*ServiceError].
//
// There is no authentication. Access to the device is governed by the
// socket file's permissions, set through [SocketOptions.Mode].
package service
