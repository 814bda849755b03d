// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scull

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Default sizes used when nothing else is configured.
const (
	DefaultQuantum = 4000
	DefaultQSet    = 1000
)

// Geometry is the addressing shape of an engine: the size of one
// quantum in bytes and the number of quantum slots per set.
type Geometry struct {
	Quantum int `json:"quantum"`
	QSet    int `json:"qset"`
}

// DefaultGeometry returns the default quantum and qset sizes.
func DefaultGeometry() Geometry {
	return Geometry{Quantum: DefaultQuantum, QSet: DefaultQSet}
}

// Validate reports whether g can address storage. Both sizes must be
// positive and the bytes covered by one set must fit in an int64.
func (g Geometry) Validate() error {
	if g.Quantum <= 0 {
		return fmt.Errorf("%w: quantum must be positive, got %d", ErrInvalidGeometry, g.Quantum)
	}
	if g.QSet <= 0 {
		return fmt.Errorf("%w: qset must be positive, got %d", ErrInvalidGeometry, g.QSet)
	}
	if int64(g.Quantum) > math.MaxInt64/int64(g.QSet) {
		return fmt.Errorf("%w: quantum %d * qset %d overflows", ErrInvalidGeometry, g.Quantum, g.QSet)
	}
	return nil
}

// SetBytes returns the number of bytes addressed by one quantum set.
// Only meaningful for a geometry that passed Validate.
func (g Geometry) SetBytes() int64 {
	return int64(g.Quantum) * int64(g.QSet)
}

// Current returns g, so a fixed Geometry can be used wherever a
// GeometrySource is expected.
func (g Geometry) Current() Geometry {
	return g
}

func (g Geometry) String() string {
	return fmt.Sprintf("quantum=%d qset=%d", g.Quantum, g.QSet)
}

// position is an offset resolved against a geometry.
type position struct {
	set    int64
	slot   int
	offset int // byte within the quantum
}

// locate splits offset into set index, slot index and byte within the
// quantum. offset must be non-negative and g must be valid.
func (g Geometry) locate(offset int64) position {
	setBytes := g.SetBytes()
	remainder := offset % setBytes
	return position{
		set:    offset / setBytes,
		slot:   int(remainder / int64(g.Quantum)),
		offset: int(remainder % int64(g.Quantum)),
	}
}

// GeometrySource supplies the geometry an engine adopts at
// construction and at every trim.
type GeometrySource interface {
	Current() Geometry
}

// Parameters holds the two runtime-settable size knobs. Values are
// stored as given; an engine only validates them when it snapshots
// them, so a bad value surfaces as ErrInvalidGeometry at the next
// construction or trim rather than at Set time.
//
// Parameters is safe for concurrent use. Current never observes half
// of a Set.
type Parameters struct {
	current atomic.Pointer[Geometry]
}

// NewParameters returns parameters initialised to initial.
func NewParameters(initial Geometry) *Parameters {
	parameters := &Parameters{}
	parameters.Set(initial)
	return parameters
}

// Current returns a snapshot of both knobs.
func (p *Parameters) Current() Geometry {
	return *p.current.Load()
}

// Set replaces both knobs.
func (p *Parameters) Set(geometry Geometry) {
	p.current.Store(&geometry)
}

// SetQuantum replaces the quantum size, keeping qset.
func (p *Parameters) SetQuantum(quantum int) {
	p.update(func(g *Geometry) { g.Quantum = quantum })
}

// SetQSet replaces the number of quantums per set, keeping quantum.
func (p *Parameters) SetQSet(qset int) {
	p.update(func(g *Geometry) { g.QSet = qset })
}

// Apply changes both knobs atomically, but only if the result is a
// valid geometry. It returns the stored geometry, or the current one
// with ErrInvalidGeometry.
func (p *Parameters) Apply(change func(*Geometry)) (Geometry, error) {
	for {
		old := p.current.Load()
		next := *old
		change(&next)
		if err := next.Validate(); err != nil {
			return *old, err
		}
		if p.current.CompareAndSwap(old, &next) {
			return next, nil
		}
	}
}

func (p *Parameters) update(change func(*Geometry)) {
	for {
		old := p.current.Load()
		next := *old
		change(&next)
		if p.current.CompareAndSwap(old, &next) {
			return
		}
	}
}
