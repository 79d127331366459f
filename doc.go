// Package flake generates and decodes Snowflake-style 64-bit identifiers.
//
// An identifier packs three fields, most significant first:
//
//	+--------------------------------+-----------------+---------------+
//	| timestamp (ms since the epoch) | machine id      | sequence      |
//	| 64 - m - s bits                | m bits (10)     | s bits (12)   |
//	+--------------------------------+-----------------+---------------+
//
// The machine id and sequence widths are configurable with m + s <= 22, so
// the timestamp field is always at least 42 bits wide.
//
// Usage
//
//	c, err := flake.NewCodec(7, flake.WithEpoch(1288834974657))
//	id := c.Generate()
//	parts := c.Extract(id)
//
// A Codec is owned by a single goroutine. Generator wraps one in a mutex for
// shared use. Identifiers from codecs with different layouts are not
// comparable.
package flake
