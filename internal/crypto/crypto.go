package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	SaltSize  = 16        // Salt size in bytes
	KeySize   = 32        // AES-256 key size
	NonceSize = 16        // GCM nonce size (non-default, matches the envelope slot)
	TagSize   = 16        // GCM authentication tag size
	TimeCost  = 3         // Argon2id passes
	MemoryKiB = 64 * 1024 // Argon2id memory in KiB
	Threads   = 4         // Argon2id parallelism
)

var (
	// ErrIntegrity is returned when tag verification fails: wrong password
	// or a tampered salt, nonce, tag or ciphertext.
	ErrIntegrity = errors.New("integrity check failed")
	// ErrMalformedEnvelope is returned for envelopes that cannot be split.
	ErrMalformedEnvelope = errors.New("malformed envelope")
)

// KDF handles key derivation from passwords
type KDF struct {
	Salt    []byte
	Time    uint32
	Memory  uint32
	Threads uint8
}

// NewKDF creates a new KDF with a random salt
func NewKDF() (*KDF, error) {
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return KDFWithSalt(salt), nil
}

// KDFWithSalt returns a KDF using the fixed cost parameters and the given salt
func KDFWithSalt(salt []byte) *KDF {
	return &KDF{
		Salt:    salt,
		Time:    TimeCost,
		Memory:  MemoryKiB,
		Threads: Threads,
	}
}

// DeriveKey derives an encryption key from a password
func (k *KDF) DeriveKey(password []byte) []byte {
	return argon2.IDKey(password, k.Salt, k.Time, k.Memory, k.Threads, KeySize)
}

// Encryptor provides authenticated encryption
type Encryptor struct {
	key []byte
}

// NewEncryptor creates a new encryptor with the given key
func NewEncryptor(key []byte) *Encryptor {
	return &Encryptor{
		key: key,
	}
}

func (e *Encryptor) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Seal encrypts plaintext under a fresh random nonce. The returned Material
// has no salt; callers that derived the key from a password fill it in.
func (e *Encryptor) Seal(plaintext []byte) (*Material, error) {
	gcm, err := e.aead()
	if err != nil {
		return nil, err
	}

	nonce, err := GenerateRandom(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends the tag; split it off so the envelope can carry it
	// in its own slot.
	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - TagSize

	return &Material{
		Nonce:      nonce,
		Tag:        append([]byte(nil), sealed[split:]...),
		Ciphertext: sealed[:split:split],
	}, nil
}

// Open verifies and decrypts m. Authentication failures are ErrIntegrity.
func (e *Encryptor) Open(m *Material) ([]byte, error) {
	if len(m.Nonce) != NonceSize || len(m.Tag) != TagSize {
		return nil, ErrMalformedEnvelope
	}

	gcm, err := e.aead()
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(m.Ciphertext)+TagSize)
	sealed = append(sealed, m.Ciphertext...)
	sealed = append(sealed, m.Tag...)

	plaintext, err := gcm.Open(nil, m.Nonce, sealed, nil)
	if err != nil {
		return nil, ErrIntegrity
	}

	return plaintext, nil
}

// Destroy clears the encryptor's key from memory
func (e *Encryptor) Destroy() {
	ClearBytes(e.key)
}

// Encrypt derives a key from password under a fresh salt and seals plaintext.
func Encrypt(plaintext, password []byte) (*Material, error) {
	kdf, err := NewKDF()
	if err != nil {
		return nil, err
	}

	enc := NewEncryptor(kdf.DeriveKey(password))
	defer enc.Destroy()

	m, err := enc.Seal(plaintext)
	if err != nil {
		return nil, err
	}
	m.Salt = kdf.Salt

	return m, nil
}

// Decrypt re-derives the key from m.Salt and password, then verifies and
// decrypts in one step.
func Decrypt(m *Material, password []byte) ([]byte, error) {
	if len(m.Salt) != SaltSize {
		return nil, ErrMalformedEnvelope
	}

	enc := NewEncryptor(KDFWithSalt(m.Salt).DeriveKey(password))
	defer enc.Destroy()

	return enc.Open(m)
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
