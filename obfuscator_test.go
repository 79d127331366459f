package flake

import (
	"encoding/json"
	"testing"
)

func withObfuscator(t *testing.T, key uint64) {
	t.Helper()
	prev := DefaultObfuscator
	SetObfuscator(key)
	t.Cleanup(func() { DefaultObfuscator = prev })
}

func TestObfuscatorNil(t *testing.T) {
	var o *Obfuscator
	if o.Key() != 0 {
		t.Errorf("nil Key() = %d, want 0", o.Key())
	}
	if got := o.Obfuscate(testID); got != testID {
		t.Errorf("nil Obfuscate = %d, want %d", got, testID)
	}
	if got := o.Deobfuscate(testID); got != testID {
		t.Errorf("nil Deobfuscate = %d, want %d", got, testID)
	}
}

func TestObfuscatorXOR(t *testing.T) {
	o := NewObfuscator(0x1111111111111111)
	if o.Key() != 0x1111111111111111 {
		t.Errorf("Key() = %x", o.Key())
	}

	id := ID(0x2222222222222222)
	if got := o.Obfuscate(id); got != 0x3333333333333333 {
		t.Errorf("Obfuscate = %x, want 3333333333333333", got)
	}
	if got := o.Deobfuscate(o.Obfuscate(id)); got != id {
		t.Errorf("Deobfuscate(Obfuscate(id)) = %x, want %x", got, id)
	}

	// The high bit is masked like any other
	if got := o.Obfuscate(highBitID); uint64(got) != uint64(highBitID)^0x1111111111111111 {
		t.Errorf("Obfuscate(high bit) = %x", got)
	}
}

func TestObfuscatedTextForms(t *testing.T) {
	withObfuscator(t, 0x123456789ABCDEF0)
	id := MustGenerator(1).Generate()

	for _, f := range []Format{FormatBase58, FormatCrockford, FormatDecimal, FormatHash, FormatBase64} {
		t.Run(string(f), func(t *testing.T) {
			s := id.Format(f)
			parsed, err := ParseAs(s, f)
			if err != nil {
				t.Fatalf("ParseAs(%s) failed: %v", s, err)
			}
			if parsed != id {
				t.Errorf("roundtrip = %d, want %d", parsed, id)
			}

			o := DefaultObfuscator
			DefaultObfuscator = nil
			raw, err := ParseAs(s, f)
			DefaultObfuscator = o
			if err != nil {
				t.Fatal(err)
			}
			if raw != o.Obfuscate(id) {
				t.Errorf("%s form %s = %d unmasked, want %d", f, s, raw, o.Obfuscate(id))
			}
		})
	}
}

func TestObfuscatedJSON(t *testing.T) {
	withObfuscator(t, 0x1EADBEEFCAFEBABE)
	id := MustGenerator(1).Generate()

	data, err := json.Marshal(id)
	if err != nil {
		t.Fatal(err)
	}
	var parsed ID
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatal(err)
	}
	if parsed != id {
		t.Errorf("JSON roundtrip = %d, want %d", parsed, id)
	}

	// Bare numbers are raw values
	var bare ID
	if err := json.Unmarshal([]byte(`42`), &bare); err != nil || bare != 42 {
		t.Errorf("Unmarshal(42) = %d, %v; want 42", bare, err)
	}
}

func TestObfuscatorLeavesRawFormsAlone(t *testing.T) {
	withObfuscator(t, 0xFEDCBA9876543210)
	gen := MustGenerator(5)
	id := gen.Generate()

	if got := gen.Extract(id).MachineID; got != 5 {
		t.Errorf("MachineID = %d, want 5", got)
	}
	if restored, _ := FromBytes(id.Bytes()); restored != id {
		t.Errorf("Bytes roundtrip = %d, want %d", restored, id)
	}
	if v, _ := id.Value(); v != id.Int64() {
		t.Errorf("Value() = %v, want %d", v, id.Int64())
	}
	var scanned ID
	if err := scanned.Scan(id.Int64()); err != nil || scanned != id {
		t.Errorf("Scan(int64) = %d, %v; want %d", scanned, err, id)
	}
}

func TestSetObfuscator(t *testing.T) {
	withObfuscator(t, 0xAA)
	if got := ID(0xFF).Format(FormatDecimal); got != "85" {
		t.Errorf("Format(decimal) = %s, want 85", got)
	}
	if got, err := ParseDecimal("85"); err != nil || got != 0xFF {
		t.Errorf("ParseDecimal(85) = %d, %v; want 255", got, err)
	}
}
