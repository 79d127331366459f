package flake

import "time"

// Default bit widths. Together they leave a 42-bit timestamp field.
const (
	DefaultMachineIDBits = 10
	DefaultSequenceBits  = 12

	// MaxLayoutBits is the budget shared by the machine id and sequence fields.
	MaxLayoutBits = 22
)

// Layout is the effective bit layout of an identifier:
//
//	[ timestamp (64 - MachineIDBits - SequenceBits) ][ machine id ][ sequence ]
//
// Identifiers are only meaningful together with the Layout that produced them.
// Decoding with a different Layout gives wrong values, not an error.
type Layout struct {
	Epoch         int64 // milliseconds since the Unix epoch
	MachineIDBits uint8
	SequenceBits  uint8
}

// Parts is the decomposition of an identifier.
type Parts struct {
	Timestamp int64  `json:"timestamp"` // milliseconds since the Unix epoch
	MachineID uint64 `json:"machineId"`
	Sequence  uint64 `json:"sequence"`
}

// DefaultLayout returns the 42/10/12 layout anchored at the Unix epoch.
func DefaultLayout() Layout {
	return Layout{
		Epoch:         0,
		MachineIDBits: DefaultMachineIDBits,
		SequenceBits:  DefaultSequenceBits,
	}
}

// Computed values
func (l Layout) TimeShift() uint8     { return l.MachineIDBits + l.SequenceBits }
func (l Layout) TimestampBits() uint8 { return 64 - l.TimeShift() }
func (l Layout) MaxMachineID() uint64 { return (1 << l.MachineIDBits) - 1 }
func (l Layout) MaxSequence() uint64  { return (1 << l.SequenceBits) - 1 }

// Extract decomposes id into its fields.
func (l Layout) Extract(id ID) Parts {
	return Parts{
		Timestamp: l.ExtractTimestamp(id),
		MachineID: l.ExtractMachineID(id),
		Sequence:  l.ExtractSequence(id),
	}
}

// ExtractTimestamp returns the absolute time of id in milliseconds since the Unix epoch.
func (l Layout) ExtractTimestamp(id ID) int64 {
	return int64(uint64(id)>>l.TimeShift()) + l.Epoch
}

func (l Layout) ExtractDate(id ID) time.Time {
	return time.UnixMilli(l.ExtractTimestamp(id))
}

func (l Layout) ExtractMachineID(id ID) uint64 {
	return (uint64(id) >> l.SequenceBits) & l.MaxMachineID()
}

func (l Layout) ExtractSequence(id ID) uint64 {
	return uint64(id) & l.MaxSequence()
}

// pack assembles an identifier. machineID and seq must already be masked.
func (l Layout) pack(ts int64, machineID, seq uint64) ID {
	return ID(uint64(ts)<<l.TimeShift() | machineID<<l.SequenceBits | seq)
}
