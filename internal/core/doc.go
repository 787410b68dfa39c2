// Package core runs the varicrypt encode and decode pipelines.
//
// Every pipeline starts the same way: the plaintext is encrypted under a
// password-derived key and packed into an envelope (salt, nonce, tag,
// ciphertext). The envelope then travels as one of:
//   - Text: lowercase hex or the password's symbol alphabet
//   - Image: LSBs of the R, G and B channels of a PNG
//   - Audio: LSBs of the samples of a PCM WAV
//
// Decoding reverses the chain. Failures keep their kind (see Kind) so
// callers can tell a wrong password from a foreign carrier.
//
// An Engine is one session. It memoises symbol alphabets and holds the
// carrier acquirer and the audio transcoder.
package core
