package flake

import (
	"database/sql"
	"database/sql/driver"
	"encoding"
	"encoding/json"
)

var (
	_ driver.Valuer            = NullID{}
	_ sql.Scanner              = (*NullID)(nil)
	_ json.Marshaler           = NullID{}
	_ json.Unmarshaler         = (*NullID)(nil)
	_ encoding.TextMarshaler   = NullID{}
	_ encoding.TextUnmarshaler = (*NullID)(nil)
)

// NullID is an ID for a nullable bigint column.
//
// Like ID, a valid NullID is written as the raw 64 bits reinterpreted as
// int64. IDs with the high bit set (a timestamp field past 2^(63-shift) ms,
// or one produced by a custom layout) therefore land in Postgres as negative
// bigints and come back unchanged through Scan. SQL comparisons on such
// columns order them before every non-negative ID.
type NullID struct {
	ID    ID
	Valid bool
}

// NullIDFrom wraps id, treating Nil as NULL.
func NullIDFrom(id ID) NullID {
	return NullID{ID: id, Valid: !id.IsNil()}
}

// NullIDFromPtr wraps *id, treating a nil pointer as NULL.
func NullIDFromPtr(id *ID) NullID {
	if id == nil {
		return NullID{}
	}
	return NullID{ID: *id, Valid: true}
}

// Ptr returns nil for NULL.
func (n NullID) Ptr() *ID {
	if !n.Valid {
		return nil
	}
	id := n.ID
	return &id
}

// NullInt64 returns the column value as database/sql stores it.
func (n NullID) NullInt64() sql.NullInt64 {
	return sql.NullInt64{Int64: n.ID.Int64(), Valid: n.Valid}
}

// Value writes NULL or the ID's bits as an int64.
func (n NullID) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.ID.Value()
}

// Scan accepts NULL and anything ID.Scan accepts. On error the NullID is NULL.
func (n *NullID) Scan(src any) error {
	if src == nil {
		*n = NullID{}
		return nil
	}
	if err := n.ID.Scan(src); err != nil {
		*n = NullID{}
		return err
	}
	n.Valid = true
	return nil
}

// MarshalJSON writes null or the ID's text form.
func (n NullID) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return n.ID.MarshalJSON()
}

func (n *NullID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullID{}
		return nil
	}
	err := n.ID.UnmarshalJSON(b)
	n.Valid = err == nil
	return err
}

// MarshalText writes an empty string for NULL.
func (n NullID) MarshalText() ([]byte, error) {
	if !n.Valid {
		return []byte{}, nil
	}
	return n.ID.MarshalText()
}

func (n *NullID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*n = NullID{}
		return nil
	}
	err := n.ID.UnmarshalText(b)
	n.Valid = err == nil
	return err
}
