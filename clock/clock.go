// Package clock provides millisecond time sources for identifier generation.
//
// A Source may repeat or go backwards between calls; consumers must cope.
// Offset lets an outside process (such as the ntp sub-package) correct the
// wall clock without the consumer knowing about it.
package clock

import (
	"sync/atomic"
	"time"
)

// Source returns the current time in milliseconds since the Unix epoch.
type Source interface {
	NowMilli() int64
}

// SourceFunc adapts a function to a Source.
type SourceFunc func() int64

func (f SourceFunc) NowMilli() int64 { return f() }

// System is the wall clock.
var System Source = SourceFunc(func() int64 { return time.Now().UnixMilli() })

// Offset adds an adjustable correction to a base Source.
type Offset struct {
	base   Source
	offset atomic.Int64 // ms
}

// NewOffset wraps base. A nil base means System.
func NewOffset(base Source) *Offset {
	if base == nil {
		base = System
	}
	return &Offset{base: base}
}

func (o *Offset) NowMilli() int64 {
	return o.base.NowMilli() + o.offset.Load()
}

// SetOffset replaces the correction. Sub-millisecond precision is dropped.
func (o *Offset) SetOffset(d time.Duration) {
	o.offset.Store(d.Milliseconds())
}

func (o *Offset) Offset() time.Duration {
	return time.Duration(o.offset.Load()) * time.Millisecond
}

// Manual is a Source that only moves when told to.
type Manual struct {
	now atomic.Int64
}

func NewManual(ms int64) *Manual {
	m := &Manual{}
	m.now.Store(ms)
	return m
}

func (m *Manual) NowMilli() int64 { return m.now.Load() }

// Set moves the clock to ms, forwards or backwards.
func (m *Manual) Set(ms int64) { m.now.Store(ms) }

// Advance moves the clock by d, which may be negative.
func (m *Manual) Advance(d time.Duration) { m.now.Add(d.Milliseconds()) }
