// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scull

import (
	"fmt"
	"math"
	"sync"
	"unsafe"
)

// slotHeaderBytes is what one quantum slot costs before its buffer is
// allocated. Charged per slot when a set is appended.
const slotHeaderBytes = int64(unsafe.Sizeof([]byte(nil)))

// DefaultMaxSets caps how many quantum sets an engine holds when
// EngineOptions.MaxSets is zero. With the default geometry that is
// 64 GiB of addressable data.
const DefaultMaxSets = 1 << 14

// maxAllocation caps any single buffer the engine makes: one quantum or
// one set's slot array. It applies even without a memory limit.
const maxAllocation = 1 << 30

// quantumSet is one group of QSet slots. A nil slot is a hole.
type quantumSet struct {
	slots [][]byte
}

// EngineOptions configures a new Engine.
type EngineOptions struct {
	// Geometry supplies quantum and qset sizes at construction and at
	// every trim. Required.
	Geometry GeometrySource

	// MemoryLimit caps the bytes the engine may allocate for quantum
	// buffers and set slot arrays. Zero or negative means unlimited.
	MemoryLimit int64

	// MaxSets caps the number of quantum sets, and so the highest
	// writable offset, independent of MemoryLimit. Zero or negative
	// uses DefaultMaxSets.
	MaxSets int
}

// Engine is the shared storage behind a device. All methods are safe
// for concurrent use; every call holds the engine's single mutex for
// its whole duration.
type Engine struct {
	source      GeometrySource
	memoryLimit int64
	maxSets     int

	mu        sync.Mutex
	geometry  Geometry
	sets      []quantumSet
	size      int64
	quantums  int
	allocated int64
}

// NewEngine builds an empty engine with the geometry currently
// reported by options.Geometry. Returns ErrInvalidGeometry if that
// geometry is unusable.
func NewEngine(options EngineOptions) (*Engine, error) {
	if options.Geometry == nil {
		return nil, fmt.Errorf("%w: geometry source is required", ErrInvalidGeometry)
	}

	geometry := options.Geometry.Current()
	if err := geometry.Validate(); err != nil {
		return nil, err
	}

	maxSets := options.MaxSets
	if maxSets <= 0 {
		maxSets = DefaultMaxSets
	}

	return &Engine{
		source:      options.Geometry,
		memoryLimit: options.MemoryLimit,
		maxSets:     maxSets,
		geometry:    geometry,
	}, nil
}

// Trim discards all stored data, re-reads the geometry from the
// source, and resets the logical size to zero. If the new geometry is
// invalid the engine is left untouched and ErrInvalidGeometry is
// returned.
func (e *Engine) Trim() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	geometry := e.source.Current()
	if err := geometry.Validate(); err != nil {
		return fmt.Errorf("trim: %w", err)
	}

	e.sets = nil
	e.geometry = geometry
	e.size = 0
	e.quantums = 0
	e.allocated = 0
	return nil
}

// Read copies stored bytes starting at offset into dest and returns
// how many were copied. It returns 0 with a nil error when offset is
// at or past the logical end, or when the quantum holding offset was
// never written. A read never crosses a quantum boundary, so the
// count may be less than len(dest) even when more data follows.
func (e *Engine) Read(dest []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidOffset, offset)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if offset >= e.size {
		return 0, nil
	}

	count := int64(len(dest))
	if remaining := e.size - offset; count > remaining {
		count = remaining
	}

	position := e.geometry.locate(offset)
	if position.set >= int64(len(e.sets)) {
		return 0, nil
	}
	quantum := e.sets[position.set].slots[position.slot]
	if quantum == nil {
		return 0, nil
	}

	if tail := int64(e.geometry.Quantum - position.offset); count > tail {
		count = tail
	}

	return copy(dest[:count], quantum[position.offset:]), nil
}

// Write copies data into storage starting at offset and returns how
// many bytes were stored. The set holding offset, and every set
// before it, is allocated if missing; the target quantum is allocated
// zero-filled if empty. Offsets in sets past the set cap fail with
// ErrResourceExhausted. A write never crosses a quantum boundary, so
// the count may be less than len(data).
//
// On ErrResourceExhausted nothing has changed. An empty data slice
// returns 0 without touching the engine.
func (e *Engine) Write(data []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidOffset, offset)
	}
	if len(data) == 0 {
		return 0, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	position := e.geometry.locate(offset)

	count := len(data)
	if tail := e.geometry.Quantum - position.offset; count > tail {
		count = tail
	}
	if offset > math.MaxInt64-int64(count) {
		return 0, fmt.Errorf("%w: write of %d bytes at %d overflows", ErrInvalidOffset, count, offset)
	}

	quantum, err := e.prepare(position)
	if err != nil {
		return 0, err
	}
	copy(quantum[position.offset:], data[:count])

	if end := offset + int64(count); end > e.size {
		e.size = end
	}
	return count, nil
}

// prepare returns the quantum buffer at position, appending every
// missing set up to position.set and allocating the quantum if it is
// empty. The sets and the quantum are priced and charged together
// before anything is touched, so a failure leaves the engine as it was.
// Must be called with e.mu held.
func (e *Engine) prepare(position position) ([]byte, error) {
	var missing int64
	if have := int64(len(e.sets)); position.set >= have {
		if position.set >= int64(e.maxSets) {
			return nil, fmt.Errorf("%w: set %d is beyond the %d-set cap", ErrResourceExhausted, position.set, e.maxSets)
		}
		missing = position.set + 1 - have
	} else if quantum := e.sets[position.set].slots[position.slot]; quantum != nil {
		return quantum, nil
	}

	quantumBytes := int64(e.geometry.Quantum)
	if quantumBytes > maxAllocation {
		return nil, fmt.Errorf("%w: quantum of %d bytes exceeds the %d-byte allocation cap",
			ErrResourceExhausted, quantumBytes, int64(maxAllocation))
	}
	cost := quantumBytes
	if missing > 0 {
		if int64(e.geometry.QSet) > maxAllocation/slotHeaderBytes {
			return nil, fmt.Errorf("%w: slot array of %d slots exceeds the %d-byte allocation cap",
				ErrResourceExhausted, e.geometry.QSet, int64(maxAllocation))
		}
		perSet := int64(e.geometry.QSet) * slotHeaderBytes
		if missing > (math.MaxInt64-cost)/perSet {
			return nil, fmt.Errorf("%w: %d sets of %d slots", ErrResourceExhausted, missing, e.geometry.QSet)
		}
		cost += missing * perSet
	}
	if err := e.charge(cost); err != nil {
		return nil, fmt.Errorf("allocating %d sets and quantum %d of set %d: %w",
			missing, position.slot, position.set, err)
	}

	if missing > 0 {
		extension := make([]quantumSet, missing)
		for i := range extension {
			extension[i].slots = make([][]byte, e.geometry.QSet)
		}
		e.sets = append(e.sets, extension...)
	}

	quantum := make([]byte, e.geometry.Quantum)
	e.sets[position.set].slots[position.slot] = quantum
	e.quantums++
	return quantum, nil
}

// charge reserves bytes against the memory limit. Must be called with
// e.mu held, immediately before the allocations it pays for.
func (e *Engine) charge(bytes int64) error {
	if e.memoryLimit > 0 && (bytes > e.memoryLimit || e.allocated > e.memoryLimit-bytes) {
		return fmt.Errorf("%w: %d bytes allocated, %d more requested, limit %d",
			ErrResourceExhausted, e.allocated, bytes, e.memoryLimit)
	}
	e.allocated += bytes
	return nil
}

// Size returns the logical end of data: the highest offset+count of
// any write since the last trim.
func (e *Engine) Size() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.size
}

// Geometry returns the geometry the current data is laid out with.
// This can differ from the source's current values until the next
// trim.
func (e *Engine) Geometry() Geometry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.geometry
}

// EngineStats is a point-in-time view of an engine.
type EngineStats struct {
	Geometry       Geometry `json:"geometry"`
	Size           int64    `json:"size"`
	Sets           int      `json:"sets"`
	Quantums       int      `json:"quantums"`
	AllocatedBytes int64    `json:"allocated_bytes"`
	MemoryLimit    int64    `json:"memory_limit"`
	MaxSets        int      `json:"max_sets"`
}

// Stats returns a consistent snapshot of the engine's bookkeeping.
func (e *Engine) Stats() EngineStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statsLocked()
}

func (e *Engine) statsLocked() EngineStats {
	return EngineStats{
		Geometry:       e.geometry,
		Size:           e.size,
		Sets:           len(e.sets),
		Quantums:       e.quantums,
		AllocatedBytes: e.allocated,
		MemoryLimit:    e.memoryLimit,
		MaxSets:        e.maxSets,
	}
}
