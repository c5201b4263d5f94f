// Copyright 2026 The CodeChain-Go Authors

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
)

// ErrShortCiphertext is returned when a frame is too small to contain
// even the keystream counter state.
var ErrShortCiphertext = errors.New("crypto: ciphertext shorter than AES block size")

// SessionCipher wraps AES-256-CTR keystream encryption for framed p2p
// messages. CTR mode, not an AEAD: framing integrity comes from the
// outer RLP length prefix and the handshake's authenticated key
// agreement, not a per-frame MAC.
type SessionCipher struct {
	block cipher.Block
}

// NewSessionCipher builds a cipher from a 32-byte session secret.
func NewSessionCipher(key [32]byte) (*SessionCipher, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return &SessionCipher{block: block}, nil
}

// Encrypt XORs plaintext with the AES-CTR keystream started at the
// caller-supplied iv and returns the ciphertext alone; the IV is not
// prepended.
func (c *SessionCipher) Encrypt(iv [16]byte, plaintext []byte) []byte {
	stream := cipher.NewCTR(c.block, iv[:])
	out := make([]byte, len(plaintext))
	stream.XORKeyStream(out, plaintext)
	return out
}

// Decrypt reverses Encrypt; CTR mode is its own inverse.
func (c *SessionCipher) Decrypt(iv [16]byte, ciphertext []byte) []byte {
	return c.Encrypt(iv, ciphertext)
}
