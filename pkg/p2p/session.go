// Copyright 2026 The CodeChain-Go Authors

// Package p2p implements the node's session/framing layer: a
// two-phase ECDH handshake establishing a per-peer Session, framed
// RLP messages (encrypted under AES-256-CTR or left in the clear),
// dispatch to named extensions, two discovery flavours, and a
// CIDR-based IP filter gating both directions. Handshake identity
// keys reuse the same secp256k1 KeyPair type as account signing, and
// the resulting Session wraps crypto.SessionCipher for framed-message
// encryption.
package p2p

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"errors"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/kode-chain/codechain-go/pkg/crypto"
)

// ErrHandshakeRejected is returned when a peer responds to a Sync
// message with Nack instead of Ack.
var ErrHandshakeRejected = errors.New("p2p: handshake rejected (nack)")

// Session is the per-peer cryptographic context established by the
// handshake: an ECDH-derived shared secret plus an exchanged nonce.
// All framed traffic on a connection after the handshake is encrypted
// under Secret; Nonce is exchanged once and never reused as an IV
// directly (each message gets a fresh IV, see Encrypt).
type Session struct {
	Secret [32]byte
	Nonce  [16]byte
	cipher *crypto.SessionCipher
}

// NewSession derives shared key material from a local identity key
// and a remote public key via ECDH, the two-phase handshake's core
// step. localNonce is the locally-generated nonce exchanged as part
// of the Sync/Ack pair; the session secret folds in both the ECDH
// point and the exchanged nonces so a passive observer of only the
// public keys cannot derive it.
func NewSession(local *crypto.KeyPair, remotePub *ecdsa.PublicKey, localNonce, remoteNonce [16]byte) (*Session, error) {
	curve := gethcrypto.S256()
	x, _ := curve.ScalarMult(remotePub.X, remotePub.Y, local.Private.D.Bytes())

	// Nonces are folded in canonical byte order, not local-then-remote,
	// so both ends of the handshake derive the identical secret.
	first, second := localNonce, remoteNonce
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}
	h := sha256.New()
	h.Write(x.Bytes())
	h.Write(first[:])
	h.Write(second[:])
	var secret [32]byte
	copy(secret[:], h.Sum(nil))

	cipher, err := crypto.NewSessionCipher(secret)
	if err != nil {
		return nil, err
	}

	var nonce [16]byte
	copy(nonce[:], xorBytes(localNonce[:], remoteNonce[:]))
	return &Session{Secret: secret, Nonce: nonce, cipher: cipher}, nil
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// GenerateNonce produces a fresh 128-bit IV/nonce for one side of the
// handshake.
func GenerateNonce() ([16]byte, error) {
	var n [16]byte
	_, err := rand.Read(n[:])
	return n, err
}

// Encrypt wraps plaintext as this session's AES-256-CTR ciphertext
// under a freshly drawn IV, returning iv||ciphertext.
func (s *Session) Encrypt(plaintext []byte) ([]byte, error) {
	iv, err := GenerateNonce()
	if err != nil {
		return nil, err
	}
	ct := s.cipher.Encrypt(iv, plaintext)
	return append(iv[:], ct...), nil
}

// Decrypt reverses Encrypt given iv||ciphertext.
func (s *Session) Decrypt(framed []byte) ([]byte, error) {
	if len(framed) < 16 {
		return nil, crypto.ErrShortCiphertext
	}
	var iv [16]byte
	copy(iv[:], framed[:16])
	return s.cipher.Decrypt(iv, framed[16:]), nil
}
