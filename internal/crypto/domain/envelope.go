package domain

import (
	"encoding/base64"
	"fmt"
)

// Envelope is the parsed form of one sealed secret.
//
// The slices of a parsed Envelope alias the decoded buffer.
type Envelope struct {
	Salt       []byte
	Nonce      []byte
	Tag        []byte
	Ciphertext []byte
}

// Bytes concatenates the fields in wire order: salt ‖ nonce ‖ tag ‖ ciphertext.
func (e *Envelope) Bytes() []byte {
	buf := make([]byte, 0, HeaderSize+len(e.Ciphertext))
	buf = append(buf, e.Salt...)
	buf = append(buf, e.Nonce...)
	buf = append(buf, e.Tag...)
	buf = append(buf, e.Ciphertext...)
	return buf
}

// Encode renders the envelope as padded standard base64.
func (e *Envelope) Encode() string {
	return base64.StdEncoding.EncodeToString(e.Bytes())
}

// Validate checks the fixed field widths.
func (e *Envelope) Validate() error {
	if len(e.Salt) != SaltSize || len(e.Nonce) != NonceSize || len(e.Tag) != TagSize {
		return fmt.Errorf(
			"%w: field sizes salt=%d nonce=%d tag=%d",
			ErrMalformedEnvelope,
			len(e.Salt),
			len(e.Nonce),
			len(e.Tag),
		)
	}
	return nil
}

// ParseEnvelope decodes envelope text and splits it at the fixed offsets.
//
// Returns ErrMalformedEnvelope when the text is not valid standard base64 or the
// decoded payload is shorter than HeaderSize. An empty ciphertext is valid: it is
// what an empty plaintext seals to.
func ParseEnvelope(text string) (*Envelope, error) {
	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64", ErrMalformedEnvelope)
	}
	if len(raw) < HeaderSize {
		return nil, fmt.Errorf(
			"%w: got %d bytes, need at least %d",
			ErrMalformedEnvelope,
			len(raw),
			HeaderSize,
		)
	}

	return &Envelope{
		Salt:       raw[:SaltSize],
		Nonce:      raw[SaltSize : SaltSize+NonceSize],
		Tag:        raw[SaltSize+NonceSize : HeaderSize],
		Ciphertext: raw[HeaderSize:],
	}, nil
}
