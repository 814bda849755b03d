// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scull

import (
	"errors"
	"io"
	"testing"
)

// stuckWriter accepts the first accept bytes and then stores nothing.
type stuckWriter struct {
	accept int
}

func (w *stuckWriter) Write(data []byte, offset int64) (int, error) {
	n := min(len(data), w.accept)
	w.accept -= n
	return n, nil
}

func TestWriteFullReportsStall(t *testing.T) {
	n, err := WriteFull(&stuckWriter{accept: 3}, make([]byte, 10), 0)
	if !errors.Is(err, io.ErrShortWrite) {
		t.Fatalf("WriteFull error = %v, want io.ErrShortWrite", err)
	}
	if n != 3 {
		t.Errorf("WriteFull wrote %d, want 3", n)
	}
}

func TestReadFullStopsAtHole(t *testing.T) {
	engine := newTestEngine(t, 4, 2)
	if _, err := WriteFull(engine, []byte("abcd"), 0); err != nil {
		t.Fatalf("WriteFull: %v", err)
	}
	if _, err := WriteFull(engine, []byte("wxyz"), 8); err != nil {
		t.Fatalf("WriteFull: %v", err)
	}

	dest := make([]byte, 12)
	n, err := ReadFull(engine, dest, 0)
	if err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if string(dest[:n]) != "abcd" {
		t.Errorf("ReadFull = %q, want %q (stop at the hole at 4)", dest[:n], "abcd")
	}

	n, err = ReadFull(engine, dest, 8)
	if err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if string(dest[:n]) != "wxyz" {
		t.Errorf("ReadFull past hole = %q, want %q", dest[:n], "wxyz")
	}
}

func TestReadFullPropagatesError(t *testing.T) {
	engine := newTestEngine(t, 4, 2)
	handle, err := Open(engine, WriteOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := ReadFull(handle, make([]byte, 4), 0); !errors.Is(err, ErrAccessMode) {
		t.Errorf("ReadFull error = %v, want ErrAccessMode", err)
	}
}
