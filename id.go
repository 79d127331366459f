package flake

import (
	"database/sql"
	"database/sql/driver"
	"encoding"
	"encoding/base64"
	"encoding/binary"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/paraglidehq/flake/base58"
	"github.com/paraglidehq/flake/crockford"
)

// Compile-time interface checks for ID
var (
	_ fmt.Stringer               = ID(0)
	_ driver.Valuer              = ID(0)
	_ sql.Scanner                = (*ID)(nil)
	_ encoding.TextMarshaler     = ID(0)
	_ encoding.TextUnmarshaler   = (*ID)(nil)
	_ encoding.BinaryMarshaler   = ID(0)
	_ encoding.BinaryUnmarshaler = (*ID)(nil)
	_ json.Marshaler             = ID(0)
	_ json.Unmarshaler           = (*ID)(nil)
	_ gob.GobEncoder             = ID(0)
	_ gob.GobDecoder             = (*ID)(nil)
)

type Format string

const (
	FormatBase58    Format = "base58"
	FormatCrockford Format = "crockford"
	FormatBase64    Format = "base64"
	FormatHash      Format = "hash"
	FormatDecimal   Format = "decimal"
)

// DefaultFormat is used by String, Parse and the text/JSON codecs.
var DefaultFormat Format = FormatBase58

// ParseFormat maps a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatBase58, FormatCrockford, FormatBase64, FormatHash, FormatDecimal:
		return f, nil
	case "hex":
		return FormatHash, nil
	default:
		return "", fmt.Errorf("flake: unknown format %q", s)
	}
}

// ID is a packed [timestamp][machine id][sequence] identifier.
// The field widths are not part of the value; see Layout.
type ID uint64

var Nil ID = 0

func (id ID) Uint64() uint64 {
	return uint64(id)
}

// Int64 reinterprets the bits as a signed integer. With the default layout
// and a non-negative epoch the high bit is clear for the next 139 years.
func (id ID) Int64() int64 {
	return int64(id)
}

func (id ID) IsNil() bool {
	return id == Nil
}

// Bytes returns the ID as an 8-byte big-endian slice.
func (id ID) Bytes() []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, 8), uint64(id))
}

func (id ID) String() string {
	return id.Format(DefaultFormat)
}

// Format renders the ID, obfuscated if DefaultObfuscator is set.
func (id ID) Format(f Format) string {
	v := uint64(obfuscate(id))
	switch f {
	case FormatDecimal:
		return strconv.FormatUint(v, 10)
	case FormatBase64:
		return base64.StdEncoding.EncodeToString(ID(v).Bytes())
	case FormatHash:
		return strconv.FormatUint(v, 16)
	case FormatCrockford:
		return crockford.Encode(v)
	default:
		return base58.Encode(v)
	}
}

// MarshalText implements encoding.TextMarshaler
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalJSON implements json.Marshaler
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *ID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = Nil
		return nil
	}
	// Bare numbers are raw values and bypass the obfuscator.
	if len(b) > 0 && b[0] != '"' {
		n, err := strconv.ParseUint(string(b), 10, 64)
		if err != nil {
			return errors.New("flake: invalid JSON value")
		}
		*id = ID(n)
		return nil
	}
	if len(b) < 2 || b[len(b)-1] != '"' {
		return errors.New("flake: invalid JSON string")
	}
	return id.UnmarshalText(b[1 : len(b)-1])
}

// Value implements driver.Valuer. The bits are stored as a bigint since
// database/sql rejects uint64 values with the high bit set.
func (id ID) Value() (driver.Value, error) {
	return int64(id), nil
}

// Scan implements sql.Scanner for database retrieval
func (id *ID) Scan(src interface{}) error {
	if src == nil {
		*id = Nil
		return nil
	}
	switch v := src.(type) {
	case ID:
		*id = v
		return nil
	case int64:
		*id = ID(v)
		return nil
	case uint64:
		*id = ID(v)
		return nil
	case []byte:
		return id.UnmarshalText(v)
	case string:
		return id.UnmarshalText([]byte(v))
	default:
		return fmt.Errorf("flake: cannot scan %T", src)
	}
}

// Parse parses a string into an ID using DefaultFormat.
func Parse(s string) (ID, error) {
	return ParseAs(s, DefaultFormat)
}

// ParseAs parses a string rendered in format f.
func ParseAs(s string, f Format) (ID, error) {
	switch f {
	case FormatDecimal:
		return ParseDecimal(s)
	case FormatBase64:
		return ParseBase64(s)
	case FormatHash:
		return ParseHash(s)
	case FormatCrockford:
		return ParseCrockford(s)
	default:
		return ParseBase58(s)
	}
}

// ParseBase58 parses a base58-encoded string into an ID.
func ParseBase58(s string) (ID, error) {
	if len(s) == 0 {
		return Nil, errors.New("flake: empty string")
	}
	n, err := base58.Decode(s)
	if err != nil {
		return Nil, err
	}
	return deobfuscate(ID(n)), nil
}

// ParseCrockford parses a Crockford base32 string into an ID.
func ParseCrockford(s string) (ID, error) {
	if len(s) == 0 {
		return Nil, errors.New("flake: empty string")
	}
	n, err := crockford.Decode(s)
	if err != nil {
		return Nil, err
	}
	return deobfuscate(ID(n)), nil
}

// ParseBase64 parses a base64-encoded string into an ID.
func ParseBase64(s string) (ID, error) {
	if len(s) == 0 {
		return Nil, errors.New("flake: empty string")
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Nil, fmt.Errorf("flake: invalid base64: %w", err)
	}
	id, err := FromBytes(b)
	if err != nil {
		return Nil, err
	}
	return deobfuscate(id), nil
}

// ParseHash parses a hex-encoded string into an ID.
func ParseHash(s string) (ID, error) {
	if len(s) == 0 {
		return Nil, errors.New("flake: empty string")
	}
	if len(s) > 16 || !isHex(s) {
		return Nil, errors.New("flake: invalid hex string")
	}
	n, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return Nil, errors.New("flake: invalid hex string")
	}
	return deobfuscate(ID(n)), nil
}

// ParseDecimal parses a decimal string into an ID.
func ParseDecimal(s string) (ID, error) {
	if len(s) == 0 {
		return Nil, errors.New("flake: empty string")
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Nil, fmt.Errorf("flake: invalid decimal: %w", err)
	}
	return deobfuscate(ID(n)), nil
}

// Parse parses a string into the ID receiver.
func (id *ID) Parse(s string) error {
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func isHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// FromString returns an ID parsed from the input string.
// Alias for Parse.
func FromString(s string) (ID, error) {
	return Parse(s)
}

// FromStringOrNil returns an ID parsed from the input string.
// Returns Nil on error.
func FromStringOrNil(s string) ID {
	id, err := Parse(s)
	if err != nil {
		return Nil
	}
	return id
}

// FromBytes returns an ID from an 8-byte big-endian slice.
func FromBytes(b []byte) (ID, error) {
	if len(b) != 8 {
		return Nil, fmt.Errorf("flake: ID must be exactly 8 bytes, got %d", len(b))
	}
	return ID(binary.BigEndian.Uint64(b)), nil
}

// FromBytesOrNil returns an ID from an 8-byte slice.
// Returns Nil on error.
func FromBytesOrNil(b []byte) ID {
	id, err := FromBytes(b)
	if err != nil {
		return Nil
	}
	return id
}

func FromUint64(n uint64) ID {
	return ID(n)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (id ID) MarshalBinary() ([]byte, error) {
	return id.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (id *ID) UnmarshalBinary(data []byte) error {
	parsed, err := FromBytes(data)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// GobEncode implements gob.GobEncoder.
func (id ID) GobEncode() ([]byte, error) {
	return id.MarshalBinary()
}

// GobDecode implements gob.GobDecoder.
func (id *ID) GobDecode(data []byte) error {
	return id.UnmarshalBinary(data)
}

// Must panics if err is not nil
func Must(id ID, err error) ID {
	if err != nil {
		panic(err)
	}
	return id
}
