// Package crypto provides the cipher core and envelope codec for varicrypt.
//
// Encryption uses AES-256-GCM with:
//   - 32-byte key derived from password via Argon2id
//   - 16-byte random nonce per encryption operation
//   - 16-byte authentication tag kept separate from the ciphertext
//
// Key derivation uses Argon2id with:
//   - 16-byte random salt (stored unencrypted in the envelope)
//   - time cost 3, memory 64 MiB, parallelism 4
//
// The envelope is salt‖nonce‖tag‖ciphertext with fixed offsets 0, 16, 32
// and 48. Anything shorter than 48 bytes is rejected as malformed.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - Call Encryptor.Destroy() when done with encryption operations
package crypto
