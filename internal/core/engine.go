package core

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/illarion/varicrypt/internal/carrier"
	"github.com/illarion/varicrypt/internal/crypto"
	"github.com/illarion/varicrypt/internal/lsb"
	"github.com/illarion/varicrypt/internal/symbols"
)

const (
	DefaultMaxWords = 20 // Plaintext word budget
	maxSealAttempts = 8  // Fresh encryptions tried when an envelope collides with the sentinel
)

var (
	ErrPasswordRequired = errors.New("password required")
	ErrMessageTooLong   = errors.New("message too long")
)

// Engine runs the encode and decode pipelines. One Engine is one session:
// it owns the alphabet cache and the carrier collaborators.
type Engine struct {
	logger     *slog.Logger
	acquirer   *carrier.Acquirer
	transcoder carrier.Transcoder
	planner    carrier.Planner
	maxWords   int
	alphabets  symbols.Cache

	// seal produces the envelopes hide embeds. It is Seal outside tests.
	seal func(plaintext, password string) ([]byte, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger handed to the carrier collaborators.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithAcquirer sets the source of carrier images for EncodeImage.
func WithAcquirer(a *carrier.Acquirer) Option {
	return func(e *Engine) {
		e.acquirer = a
	}
}

// WithTranscoder sets the audio normaliser. Without one only PCM WAV input
// is accepted.
func WithTranscoder(t carrier.Transcoder) Option {
	return func(e *Engine) {
		e.transcoder = t
	}
}

// WithMaxWords sets the plaintext word budget; 0 disables it.
func WithMaxWords(n int) Option {
	return func(e *Engine) {
		e.maxWords = n
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:   slog.New(slog.DiscardHandler),
		maxWords: DefaultMaxWords,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.acquirer == nil {
		e.acquirer = carrier.NewAcquirer(e.logger)
	}
	e.planner = carrier.Planner{Logger: e.logger}
	e.seal = e.Seal
	return e
}

// Alphabet returns the session's alphabet for password.
func (e *Engine) Alphabet(password string) *symbols.Alphabet {
	return e.alphabets.For(password)
}

// CheckMessage enforces the word budget.
func (e *Engine) CheckMessage(plaintext string) error {
	if e.maxWords <= 0 {
		return nil
	}
	if n := len(strings.Fields(plaintext)); n > e.maxWords {
		return fmt.Errorf("%w: %d words, limit is %d", ErrMessageTooLong, n, e.maxWords)
	}
	return nil
}

// Seal encrypts plaintext and returns the packed envelope.
func (e *Engine) Seal(plaintext, password string) ([]byte, error) {
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if err := e.CheckMessage(plaintext); err != nil {
		return nil, err
	}

	pw := []byte(password)
	defer crypto.ClearBytes(pw)

	m, err := crypto.Encrypt([]byte(plaintext), pw)
	if err != nil {
		return nil, err
	}
	return m.Pack(), nil
}

// Open unpacks and decrypts an envelope.
func (e *Engine) Open(envelope []byte, password string) (string, error) {
	if password == "" {
		return "", ErrPasswordRequired
	}

	m, err := crypto.Unpack(envelope)
	if err != nil {
		return "", err
	}

	pw := []byte(password)
	defer crypto.ClearBytes(pw)

	plaintext, err := crypto.Decrypt(m, pw)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// hide seals plaintext into c, sealing again with a fresh salt and nonce
// whenever the envelope happens to contain the sentinel. fit may replace
// the carrier before embedding; it is called with the needed unit count.
func (e *Engine) hide(plaintext, password string, c carrier.BitCarrier, fit func(carrier.BitCarrier, int) (carrier.BitCarrier, error)) (carrier.BitCarrier, error) {
	for attempt := 1; ; attempt++ {
		envelope, err := e.seal(plaintext, password)
		if err != nil {
			return nil, err
		}

		target, err := fit(c, carrier.Needed(envelope))
		if err != nil {
			return nil, err
		}

		err = carrier.Hide(target, envelope)
		if !errors.Is(err, lsb.ErrSentinelCollision) {
			return target, err
		}
		if attempt >= maxSealAttempts {
			return nil, fmt.Errorf("%w after %d attempts", err, attempt)
		}
		e.logger.Debug("envelope contains terminator pattern, sealing again", "attempt", attempt)
	}
}

// reveal extracts and opens an envelope hidden in c.
func (e *Engine) reveal(c carrier.BitCarrier, password string) (string, error) {
	envelope, err := carrier.Reveal(c)
	if errors.Is(err, lsb.ErrMisaligned) {
		return "", fmt.Errorf("%w: %w", crypto.ErrMalformedEnvelope, err)
	}
	if err != nil {
		return "", err
	}
	return e.Open(envelope, password)
}
