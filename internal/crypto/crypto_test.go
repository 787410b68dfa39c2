package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncryptDecrypt(t *testing.T) {
	m, err := Encrypt([]byte("hello world"), []byte("secret123"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if len(m.Salt) != SaltSize {
		t.Errorf("Salt length: got %d, want %d", len(m.Salt), SaltSize)
	}
	if len(m.Nonce) != NonceSize {
		t.Errorf("Nonce length: got %d, want %d", len(m.Nonce), NonceSize)
	}
	if len(m.Tag) != TagSize {
		t.Errorf("Tag length: got %d, want %d", len(m.Tag), TagSize)
	}
	if len(m.Ciphertext) != len("hello world") {
		t.Errorf("Ciphertext length: got %d, want %d", len(m.Ciphertext), len("hello world"))
	}

	plaintext, err := Decrypt(m, []byte("secret123"))
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if string(plaintext) != "hello world" {
		t.Errorf("Plaintext mismatch: got %q, want %q", plaintext, "hello world")
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	m, err := Encrypt([]byte("hello world"), []byte("secret123"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	plaintext, err := Decrypt(m, []byte("wrong"))
	if !errors.Is(err, ErrIntegrity) {
		t.Fatalf("Expected ErrIntegrity, got %v", err)
	}
	if plaintext != nil {
		t.Errorf("Expected no plaintext on failure, got %q", plaintext)
	}
}

func TestEncryptFreshSaltAndNonce(t *testing.T) {
	a, err := Encrypt([]byte("same"), []byte("pw"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	b, err := Encrypt([]byte("same"), []byte("pw"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if bytes.Equal(a.Salt, b.Salt) {
		t.Error("Salt should differ between encryptions")
	}
	if bytes.Equal(a.Nonce, b.Nonce) {
		t.Error("Nonce should differ between encryptions")
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, SaltSize)

	k1 := KDFWithSalt(salt).DeriveKey([]byte("password"))
	k2 := KDFWithSalt(salt).DeriveKey([]byte("password"))
	if !bytes.Equal(k1, k2) {
		t.Error("Same password and salt should derive the same key")
	}
	if len(k1) != KeySize {
		t.Errorf("Key length: got %d, want %d", len(k1), KeySize)
	}

	k3 := KDFWithSalt(salt).DeriveKey([]byte("other"))
	if bytes.Equal(k1, k3) {
		t.Error("Different passwords should derive different keys")
	}
}

// Every single-bit flip in the tag or the ciphertext must fail
// authentication. The key is derived once so the sweep stays fast.
func TestOpenDetectsSingleBitTamper(t *testing.T) {
	key := KDFWithSalt(bytes.Repeat([]byte{1}, SaltSize)).DeriveKey([]byte("secret123"))
	enc := NewEncryptor(key)
	defer enc.Destroy()

	m, err := enc.Seal([]byte("hello world"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	fields := map[string][]byte{"tag": m.Tag, "ciphertext": m.Ciphertext, "nonce": m.Nonce}
	for name, field := range fields {
		for i := 0; i < len(field)*8; i++ {
			field[i/8] ^= 1 << (i % 8)
			plaintext, err := enc.Open(m)
			field[i/8] ^= 1 << (i % 8)

			if !errors.Is(err, ErrIntegrity) {
				t.Fatalf("%s bit %d: expected ErrIntegrity, got %v (plaintext %q)", name, i, err, plaintext)
			}
		}
	}

	// Untouched material still opens
	if _, err := enc.Open(m); err != nil {
		t.Fatalf("Open after restore failed: %v", err)
	}
}

func TestDecryptTamperedSalt(t *testing.T) {
	m, err := Encrypt([]byte("hello world"), []byte("secret123"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	m.Salt[0] ^= 0x80
	if _, err := Decrypt(m, []byte("secret123")); !errors.Is(err, ErrIntegrity) {
		t.Fatalf("Expected ErrIntegrity, got %v", err)
	}
}

func TestOpenRejectsBadFieldSizes(t *testing.T) {
	enc := NewEncryptor(make([]byte, KeySize))
	_, err := enc.Open(&Material{Nonce: make([]byte, 12), Tag: make([]byte, TagSize)})
	if !errors.Is(err, ErrMalformedEnvelope) {
		t.Fatalf("Expected ErrMalformedEnvelope, got %v", err)
	}
}

func TestClearBytes(t *testing.T) {
	b := []byte("sensitive")
	ClearBytes(b)
	for i, c := range b {
		if c != 0 {
			t.Fatalf("byte %d not cleared", i)
		}
	}
}
