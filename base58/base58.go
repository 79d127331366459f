// Package base58 provides Base58 encoding and decoding for uint64 values.
// It uses the Bitcoin alphabet which excludes 0, O, I, and l to avoid ambiguity.
package base58

import "errors"

const alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var decode [128]int8

func init() {
	for i := range decode {
		decode[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		decode[alphabet[i]] = int8(i)
	}
}

var (
	// ErrInvalidBase58 is returned when decoding a string with invalid Base58 characters.
	ErrInvalidBase58 = errors.New("flake: invalid base58 character")
	// ErrOverflow is returned when the decoded value does not fit in 64 bits.
	ErrOverflow = errors.New("flake: base58 value overflows uint64")
)

// Encode returns the Base58 encoding of n. Output is at most 11 characters.
func Encode(n uint64) string {
	if n == 0 {
		return "1"
	}
	var buf [11]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = alphabet[n%58]
		n /= 58
	}
	return string(buf[i:])
}

// Decode parses a Base58-encoded string.
func Decode(s string) (uint64, error) {
	var n uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 128 || decode[c] < 0 {
			return 0, ErrInvalidBase58
		}
		v := uint64(decode[c])
		if n > (^uint64(0)-v)/58 {
			return 0, ErrOverflow
		}
		n = n*58 + v
	}
	return n, nil
}
