package core

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Format is the text transport of an envelope.
type Format int

const (
	FormatAuto    Format = iota // Detect on decode; symbols on encode
	FormatHex                   // Lowercase hexadecimal
	FormatSymbols               // Password-derived alphabet
)

func (f Format) String() string {
	switch f {
	case FormatHex:
		return "hex"
	case FormatSymbols:
		return "symbols"
	default:
		return "auto"
	}
}

// ParseFormat parses "auto", "hex" or "symbols".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "hex":
		return FormatHex, nil
	case "symbols", "symbol":
		return FormatSymbols, nil
	}
	return FormatAuto, fmt.Errorf("unknown format %q (want auto, hex or symbols)", s)
}

// DetectFormat classifies transport text: an even number of hex digits
// and nothing else is hex, anything else is symbol text.
func DetectFormat(text string) Format {
	text = strings.TrimSpace(text)
	if text == "" || len(text)%2 != 0 {
		return FormatSymbols
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return FormatSymbols
		}
	}
	return FormatHex
}

// EncodeText seals plaintext and renders the envelope in format.
func (e *Engine) EncodeText(plaintext, password string, format Format) (string, error) {
	envelope, err := e.Seal(plaintext, password)
	if err != nil {
		return "", err
	}

	if format == FormatHex {
		return hex.EncodeToString(envelope), nil
	}
	return e.Alphabet(password).Encode(envelope), nil
}

// DecodeText parses transport text in format, detecting it for
// FormatAuto, and opens the envelope.
func (e *Engine) DecodeText(text, password string, format Format) (string, error) {
	if password == "" {
		return "", ErrPasswordRequired
	}

	text = strings.TrimSpace(text)
	if format == FormatAuto {
		format = DetectFormat(text)
	}

	var envelope []byte
	switch format {
	case FormatHex:
		var err error
		if envelope, err = hex.DecodeString(text); err != nil {
			return "", fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
		}
	default:
		var err error
		if envelope, err = e.Alphabet(password).Decode(text); err != nil {
			return "", err
		}
	}

	return e.Open(envelope, password)
}
