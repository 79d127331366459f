package flake

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/paraglidehq/flake/clock"
)

// ErrInvalidConfiguration is returned by NewCodec in strict mode when the
// epoch is negative or the bit budget is exceeded.
var ErrInvalidConfiguration = errors.New("flake: invalid configuration")

type settings struct {
	epoch         int64
	machineIDBits int
	sequenceBits  int
	strict        bool
	clock         clock.Source
}

// Option configures a Codec.
type Option func(*settings)

// WithEpoch sets the custom epoch in milliseconds since the Unix epoch.
func WithEpoch(ms int64) Option {
	return func(s *settings) { s.epoch = ms }
}

// WithBits sets the machine id and sequence field widths.
// Negative widths are treated as zero.
func WithBits(machineIDBits, sequenceBits int) Option {
	return func(s *settings) {
		s.machineIDBits = machineIDBits
		s.sequenceBits = sequenceBits
	}
}

// WithStrict makes NewCodec fail on an invalid epoch or bit budget instead
// of falling back to the defaults.
func WithStrict(strict bool) Option {
	return func(s *settings) { s.strict = strict }
}

// WithClock sets the time source. Defaults to clock.System.
func WithClock(c clock.Source) Option {
	return func(s *settings) { s.clock = c }
}

// Codec generates identifiers for one machine id and decodes identifiers of
// its layout.
//
// Generate mutates the codec and must not be called from more than one
// goroutine at a time; concurrent callers race and can receive duplicate
// identifiers. Use Generator, or one Codec per goroutine with distinct
// machine ids. The Extract methods only read the immutable layout and are
// safe to call concurrently with anything.
type Codec struct {
	layout    Layout
	machineID uint64
	seqMask   uint64
	clock     clock.Source

	lastTimestamp int64
	sequence      uint64
}

// NewCodec returns a Codec for machineID. A negative machineID is treated as
// zero, and only its low MachineIDBits bits are kept.
func NewCodec(machineID int64, opts ...Option) (*Codec, error) {
	s := settings{
		machineIDBits: DefaultMachineIDBits,
		sequenceBits:  DefaultSequenceBits,
		clock:         clock.System,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.clock == nil {
		s.clock = clock.System
	}

	if machineID < 0 {
		machineID = 0
	}

	if s.epoch < 0 {
		if s.strict {
			return nil, fmt.Errorf("%w: epoch %d is negative", ErrInvalidConfiguration, s.epoch)
		}
		s.epoch = 0
	}

	s.machineIDBits = max(s.machineIDBits, 0)
	s.sequenceBits = max(s.sequenceBits, 0)

	// Each width is checked alone first so the sum cannot overflow.
	if s.machineIDBits > MaxLayoutBits || s.sequenceBits > MaxLayoutBits ||
		s.machineIDBits+s.sequenceBits > MaxLayoutBits {
		if s.strict {
			return nil, fmt.Errorf("%w: machine id bits %d + sequence bits %d exceed %d",
				ErrInvalidConfiguration, s.machineIDBits, s.sequenceBits, MaxLayoutBits)
		}
		s.machineIDBits = DefaultMachineIDBits
		s.sequenceBits = DefaultSequenceBits
	}

	layout := Layout{
		Epoch:         s.epoch,
		MachineIDBits: uint8(s.machineIDBits),
		SequenceBits:  uint8(s.sequenceBits),
	}
	return &Codec{
		layout:        layout,
		machineID:     uint64(machineID) & layout.MaxMachineID(),
		seqMask:       layout.MaxSequence(),
		clock:         s.clock,
		lastTimestamp: -1,
	}, nil
}

// Layout returns the effective layout after validation.
func (c *Codec) Layout() Layout { return c.layout }

// MachineID returns the effective, masked machine id.
func (c *Codec) MachineID() uint64 { return c.machineID }

// Generate returns the next identifier.
//
// When the clock stalls or goes backwards the sequence is incremented on top
// of the last emitted timestamp. When the sequence wraps to zero the
// timestamp is pushed one millisecond past the last one, so a
// (timestamp, sequence) pair is never emitted twice.
func (c *Codec) Generate() ID {
	ts := max(c.clock.NowMilli()-c.layout.Epoch, 1)

	if ts <= c.lastTimestamp {
		c.sequence = (c.sequence + 1) & c.seqMask
		ts = c.lastTimestamp
	} else {
		c.sequence = 0
	}

	if c.sequence == 0 {
		ts = max(ts, c.lastTimestamp+1)
	}

	c.lastTimestamp = ts
	return c.layout.pack(ts, c.machineID, c.sequence)
}

// Extract decomposes id using the codec's layout.
func (c *Codec) Extract(id ID) Parts { return c.layout.Extract(id) }

// ExtractTimestamp returns the absolute time of id in milliseconds since the Unix epoch.
func (c *Codec) ExtractTimestamp(id ID) int64 { return c.layout.ExtractTimestamp(id) }

// ExtractMachineID returns the machine id field of id.
func (c *Codec) ExtractMachineID(id ID) uint64 { return c.layout.ExtractMachineID(id) }

// ExtractSequence returns the sequence field of id.
func (c *Codec) ExtractSequence(id ID) uint64 { return c.layout.ExtractSequence(id) }

// ExtractDate returns the absolute time of id.
func (c *Codec) ExtractDate(id ID) time.Time { return c.layout.ExtractDate(id) }

// Generator is a Codec guarded by a mutex. It is safe for concurrent use.
type Generator struct {
	mu    sync.Mutex
	codec *Codec
}

// NewGenerator returns a Generator; see NewCodec for the arguments.
func NewGenerator(machineID int64, opts ...Option) (*Generator, error) {
	c, err := NewCodec(machineID, opts...)
	if err != nil {
		return nil, err
	}
	return &Generator{codec: c}, nil
}

// MustGenerator is like NewGenerator but panics on error.
func MustGenerator(machineID int64, opts ...Option) *Generator {
	g, err := NewGenerator(machineID, opts...)
	if err != nil {
		panic(err)
	}
	return g
}

// Generate returns the next identifier. It is safe for concurrent use.
func (g *Generator) Generate() ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.codec.Generate()
}

// Layout returns the generator's layout, which also decodes its identifiers.
func (g *Generator) Layout() Layout { return g.codec.layout }

// Extract decomposes id using the generator's layout. It does not lock.
func (g *Generator) Extract(id ID) Parts { return g.codec.layout.Extract(id) }
