package flake

// DefaultObfuscator masks every text form of an ID: String, Format, the
// Parse family, text and JSON codecs, and Scan of string columns. Raw
// forms (Uint64, Int64, Bytes, binary, gob and driver values) are never
// masked, so extraction and storage keep working on the real bits.
//
// Set it once at startup, before any ID is rendered or parsed.
var DefaultObfuscator *Obfuscator

// Obfuscator hides the timestamp, machine id and sequence of an ID from
// casual inspection by XOR-ing all 64 bits with a fixed key. It is not
// encryption: anyone holding two IDs and their raw values can recover the key.
type Obfuscator struct {
	key uint64
}

// NewObfuscator returns an Obfuscator for key. A zero key is the identity.
func NewObfuscator(key uint64) *Obfuscator {
	return &Obfuscator{key: key}
}

// SetObfuscator installs an Obfuscator for key as DefaultObfuscator.
func SetObfuscator(key uint64) {
	DefaultObfuscator = NewObfuscator(key)
}

// Key returns the mask. A nil Obfuscator has key 0.
func (o *Obfuscator) Key() uint64 {
	if o == nil {
		return 0
	}
	return o.key
}

// Obfuscate masks id. A nil Obfuscator returns id unchanged.
func (o *Obfuscator) Obfuscate(id ID) ID {
	return ID(uint64(id) ^ o.Key())
}

// Deobfuscate undoes Obfuscate.
func (o *Obfuscator) Deobfuscate(id ID) ID {
	return o.Obfuscate(id)
}

func obfuscate(id ID) ID   { return DefaultObfuscator.Obfuscate(id) }
func deobfuscate(id ID) ID { return DefaultObfuscator.Deobfuscate(id) }
