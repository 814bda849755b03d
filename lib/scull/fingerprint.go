// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scull

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Fingerprint is a 32-byte BLAKE3 digest of an engine's contents.
type Fingerprint [32]byte

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// fingerprintKey keys the BLAKE3 hash so fingerprints never collide
// with digests of the same bytes taken elsewhere. ASCII, zero-padded.
var fingerprintKey = [32]byte{
	's', 'c', 'u', 'l', 'l', '.', 'e', 'n', 'g', 'i', 'n', 'e', '.',
	'f', 'i', 'n', 'g', 'e', 'r', 'p', 'r', 'i', 'n', 't',
}

// Fingerprint hashes the geometry, the logical size, and every
// allocated quantum together with its (set, slot) position. Holes are
// skipped, so the cost is proportional to allocated memory rather than
// to the logical size. Two engines with the same geometry report the
// same fingerprint exactly when a reader would see the same bytes and
// the same holes.
func (e *Engine) Fingerprint() Fingerprint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fingerprintLocked()
}

// Snapshot returns the engine's stats and fingerprint taken under one
// hold of the lock, so both describe the same contents.
func (e *Engine) Snapshot() (EngineStats, Fingerprint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statsLocked(), e.fingerprintLocked()
}

// fingerprintLocked must be called with e.mu held.
func (e *Engine) fingerprintLocked() Fingerprint {
	hasher, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		panic("scull: BLAKE3 keyed hash initialization failed: " + err.Error())
	}

	var header [24]byte
	binary.BigEndian.PutUint64(header[0:], uint64(e.geometry.Quantum))
	binary.BigEndian.PutUint64(header[8:], uint64(e.geometry.QSet))
	binary.BigEndian.PutUint64(header[16:], uint64(e.size))
	hasher.Write(header[:])

	var slotHeader [16]byte
	for setIndex := range e.sets {
		for slotIndex, quantum := range e.sets[setIndex].slots {
			if quantum == nil {
				continue
			}
			binary.BigEndian.PutUint64(slotHeader[0:], uint64(setIndex))
			binary.BigEndian.PutUint64(slotHeader[8:], uint64(slotIndex))
			hasher.Write(slotHeader[:])
			hasher.Write(quantum)
		}
	}

	var result Fingerprint
	copy(result[:], hasher.Sum(nil))
	return result
}
