// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding used on the scull control
// socket.
//
// Requests and responses cross the socket as single self-delimiting
// CBOR values. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items, so the same request always produces the
// same bytes. Byte slices travel as CBOR byte strings, which keeps
// device data binary-safe without base64.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// Types shared with CLI --json output carry `json` tags only;
// fxamacker/cbor reads them when `cbor` tags are absent. Types that
// never leave the socket carry `cbor` tags. A field never has both.
package codec
