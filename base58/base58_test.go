package base58

import (
	"errors"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{0, "1"},
		{57, "z"},
		{58, "21"},
		{^uint64(0), "jpXCZedGfVQ"},
	}
	for _, tt := range tests {
		if got := Encode(tt.n); got != tt.want {
			t.Errorf("Encode(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestRoundtrip(t *testing.T) {
	for _, n := range []uint64{0, 1, 58, 1234567890123456789, 1 << 63, ^uint64(0)} {
		got, err := Decode(Encode(n))
		if err != nil {
			t.Fatalf("Decode(Encode(%d)) failed: %v", n, err)
		}
		if got != n {
			t.Errorf("Decode(Encode(%d)) = %d", n, got)
		}
	}
}

func TestDecodeInvalid(t *testing.T) {
	for _, s := range []string{"0", "O", "I", "l", "abc!", "\xff"} {
		if _, err := Decode(s); !errors.Is(err, ErrInvalidBase58) {
			t.Errorf("Decode(%q) err = %v, want ErrInvalidBase58", s, err)
		}
	}
}

func TestDecodeOverflow(t *testing.T) {
	if _, err := Decode("jpXCZedGfVR"); !errors.Is(err, ErrOverflow) {
		t.Errorf("Decode(max+1) err = %v, want ErrOverflow", err)
	}
	if _, err := Decode("zzzzzzzzzzzz"); !errors.Is(err, ErrOverflow) {
		t.Errorf("Decode(12 chars) err = %v, want ErrOverflow", err)
	}
}
