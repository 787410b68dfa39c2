// Package symbols maps bytes to a password-keyed alphabet of 256 printable
// runes and back.
//
// The base pool is fixed; only its order depends on the password. Two
// passwords may in principle share an alphabet, so a successful Decode says
// nothing about authenticity.
package symbols

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"unicode"
)

// Size is the number of symbols, one per byte value.
const Size = 256

// ErrUnknownSymbol is returned when decoding meets a rune outside the alphabet.
var ErrUnknownSymbol = errors.New("unknown symbol")

// SymbolError reports the first rune that is not part of the alphabet.
type SymbolError struct {
	Symbol rune
	Offset int // rune offset within the input
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("unknown symbol %q at offset %d", e.Symbol, e.Offset)
}

// Is implements errors.Is for sentinel error matching.
func (e *SymbolError) Is(target error) bool {
	return target == ErrUnknownSymbol
}

var mathSymbols = []rune{
	'∀', '∂', '∃', '∅', '∇', '∈', '∉', '∋', '∏', '∑', '−', '∗',
	'√', '∝', '∞', '∠', '∫', '≈', '≠', '≡', '≤', '≥',
}

var (
	poolOnce sync.Once
	pool     []rune
)

// basePool returns the unshuffled pool. It is immutable once built.
func basePool() []rune {
	poolOnce.Do(func() {
		seen := make(map[rune]bool, Size)
		add := func(r rune) {
			if len(pool) < Size && unicode.IsPrint(r) && !seen[r] {
				seen[r] = true
				pool = append(pool, r)
			}
		}

		for _, r := range "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789" {
			add(r)
		}
		for r := rune(0x0391); r <= 0x03A9; r++ {
			add(r)
		}
		for _, r := range mathSymbols {
			add(r)
		}
		for r := rune(0x2600); len(pool) < Size; r++ {
			add(r)
		}
	})
	return pool
}

// Alphabet is a password-specific byte↔symbol bijection.
type Alphabet struct {
	symbols [Size]rune
	index   map[rune]byte
}

// For builds the alphabet for password. It is a pure function of password.
func For(password string) *Alphabet {
	return fromDigest(sha256.Sum256([]byte(password)))
}

func fromDigest(seed [32]byte) *Alphabet {
	a := &Alphabet{index: make(map[rune]byte, Size)}
	copy(a.symbols[:], basePool())

	// Fisher-Yates driven by ChaCha8; the loop is spelled out so the
	// permutation does not depend on rand.Shuffle internals.
	rng := rand.New(rand.NewChaCha8(seed))
	for i := Size - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		a.symbols[i], a.symbols[j] = a.symbols[j], a.symbols[i]
	}

	for i, r := range a.symbols {
		a.index[r] = byte(i)
	}
	return a
}

// Symbols returns the alphabet in byte order.
func (a *Alphabet) Symbols() []rune {
	out := make([]rune, Size)
	copy(out, a.symbols[:])
	return out
}

// Symbol returns the rune for byte value b.
func (a *Alphabet) Symbol(b byte) rune {
	return a.symbols[b]
}

// Contains reports whether r is part of the alphabet.
func (a *Alphabet) Contains(r rune) bool {
	_, ok := a.index[r]
	return ok
}

// Encode maps each byte to its symbol. The result has len(data) runes.
func (a *Alphabet) Encode(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data) * 3)
	for _, b := range data {
		sb.WriteRune(a.symbols[b])
	}
	return sb.String()
}

// Decode maps each rune back to its byte value. It stops at the first rune
// outside the alphabet.
func (a *Alphabet) Decode(text string) ([]byte, error) {
	out := make([]byte, 0, len(text))
	offset := 0
	for _, r := range text {
		b, ok := a.index[r]
		if !ok {
			return nil, &SymbolError{Symbol: r, Offset: offset}
		}
		out = append(out, b)
		offset++
	}
	return out, nil
}

// Encode maps data with the alphabet of password.
func Encode(data []byte, password string) string {
	return For(password).Encode(data)
}

// Decode reverses Encode with the alphabet of password.
func Decode(text, password string) ([]byte, error) {
	return For(password).Decode(text)
}

// Cache memoises alphabets per password digest. A Cache belongs to one
// session; the zero value is ready to use.
type Cache struct {
	mu        sync.Mutex
	alphabets map[[32]byte]*Alphabet
}

// For returns the cached alphabet for password, building it on first use.
func (c *Cache) For(password string) *Alphabet {
	digest := sha256.Sum256([]byte(password))

	c.mu.Lock()
	defer c.mu.Unlock()

	if a, ok := c.alphabets[digest]; ok {
		return a
	}
	if c.alphabets == nil {
		c.alphabets = make(map[[32]byte]*Alphabet)
	}
	a := fromDigest(digest)
	c.alphabets[digest] = a
	return a
}

// Len returns the number of cached alphabets.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.alphabets)
}
