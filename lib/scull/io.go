// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scull

import (
	"fmt"
	"io"
)

// OffsetReader is anything that reads at an explicit offset with
// short-read semantics: a Handle or an Engine.
type OffsetReader interface {
	Read(dest []byte, offset int64) (int, error)
}

// OffsetWriter is anything that writes at an explicit offset with
// short-write semantics: a Handle or an Engine.
type OffsetWriter interface {
	Write(data []byte, offset int64) (int, error)
}

// ReadFull reads into dest starting at offset, issuing as many calls
// as needed. It stops early, without error, at the first call that
// returns zero bytes: the end of data or a hole.
func ReadFull(reader OffsetReader, dest []byte, offset int64) (int, error) {
	total := 0
	for total < len(dest) {
		n, err := reader.Read(dest[total:], offset+int64(total))
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

// WriteFull writes all of data starting at offset, issuing as many
// calls as needed. A call that stores nothing without an error is
// reported as io.ErrShortWrite.
func WriteFull(writer OffsetWriter, data []byte, offset int64) (int, error) {
	total := 0
	for total < len(data) {
		n, err := writer.Write(data[total:], offset+int64(total))
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, fmt.Errorf("write at offset %d: %w", offset+int64(total), io.ErrShortWrite)
		}
	}
	return total, nil
}
