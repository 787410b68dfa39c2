package crypto

import "fmt"

// EnvelopeOverhead is the fixed prefix of every envelope: salt, nonce and tag.
const EnvelopeOverhead = SaltSize + NonceSize + TagSize

// Material holds the cryptographic fields produced by one encryption.
type Material struct {
	Salt       []byte
	Nonce      []byte
	Tag        []byte
	Ciphertext []byte
}

// Pack concatenates the fields as salt‖nonce‖tag‖ciphertext.
func (m *Material) Pack() []byte {
	out := make([]byte, 0, EnvelopeOverhead+len(m.Ciphertext))
	out = append(out, m.Salt...)
	out = append(out, m.Nonce...)
	out = append(out, m.Tag...)
	return append(out, m.Ciphertext...)
}

// Unpack splits an envelope at offsets 16, 32 and 48. The returned Material
// does not alias envelope.
func Unpack(envelope []byte) (*Material, error) {
	if len(envelope) < EnvelopeOverhead {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedEnvelope, len(envelope), EnvelopeOverhead)
	}

	b := append([]byte(nil), envelope...)
	return &Material{
		Salt:       b[:SaltSize:SaltSize],
		Nonce:      b[SaltSize : SaltSize+NonceSize : SaltSize+NonceSize],
		Tag:        b[SaltSize+NonceSize : EnvelopeOverhead : EnvelopeOverhead],
		Ciphertext: b[EnvelopeOverhead:],
	}, nil
}
