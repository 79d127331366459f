// Package crockford provides Crockford Base32 encoding and decoding for uint64 values.
// It uses the Crockford alphabet which excludes I, L, O, U to avoid ambiguity.
// Decoding is case-insensitive.
package crockford

import "errors"

var encode = [32]byte{
	'0', '1', '2', '3', '4', '5', '6', '7', '8', '9',
	'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'j', 'k',
	'm', 'n', 'p', 'q', 'r', 's', 't', 'v', 'w', 'x',
	'y', 'z',
}

var decode [128]int8

func init() {
	for i := range decode {
		decode[i] = -1
	}
	for i, c := range encode {
		decode[c] = int8(i)
		if c >= 'a' && c <= 'z' {
			decode[c-32] = int8(i)
		}
	}
	// Crockford substitutions
	decode['I'] = 1
	decode['i'] = 1
	decode['L'] = 1
	decode['l'] = 1
	decode['O'] = 0
	decode['o'] = 0
}

var (
	// ErrInvalid is returned when decoding a string with invalid characters.
	ErrInvalid = errors.New("flake: invalid crockford character")
	// ErrOverflow is returned when the decoded value does not fit in 64 bits.
	ErrOverflow = errors.New("flake: crockford value overflows uint64")
)

// Encode returns the Crockford Base32 encoding of n. Output is at most 13 characters.
func Encode(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [13]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = encode[n&0x1f]
		n >>= 5
	}
	return string(buf[i:])
}

// Decode parses a Crockford Base32-encoded string. Hyphens are ignored;
// I and L read as 1, O reads as 0.
func Decode(s string) (uint64, error) {
	var n uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '-' {
			continue
		}
		if c >= 128 || decode[c] < 0 {
			return 0, ErrInvalid
		}
		if n>>59 != 0 {
			return 0, ErrOverflow
		}
		n = n<<5 | uint64(decode[c])
	}
	return n, nil
}
