// Copyright 2026 The CodeChain-Go Authors

package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/ed25519"
)

// Ed25519KeyPair is the default validator vote-signing key:
// unlike the secp256k1 transaction key, a vote signature does not
// support recovery, so votes are verified by looking the signer index
// up in the validator set and checking against its known public key.
type Ed25519KeyPair struct {
	Private ed25519.PrivateKey
	Public  ed25519.PublicKey
}

// GenerateEd25519KeyPair creates a fresh validator signing key.
func GenerateEd25519KeyPair() (*Ed25519KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Ed25519KeyPair{Private: priv, Public: pub}, nil
}

// Ed25519KeyPairFromSeed derives a deterministic key pair. An exact
// 32-byte seed is used as-is, so a key persisted via Private.Seed()
// reloads to the identical pair; longer or shorter material is hashed
// down to seed size first.
func Ed25519KeyPairFromSeed(seed []byte) *Ed25519KeyPair {
	if len(seed) != ed25519.SeedSize {
		h := sha256.Sum256(seed)
		seed = h[:]
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Ed25519KeyPair{Private: priv, Public: priv.Public().(ed25519.PublicKey)}
}

// Sign signs domain||msg, domain-separating the four vote kinds a
// validator signs over a height (Propose/Prevote/Precommit/Seed) so a
// prevote and a precommit over the same hash never collide.
func (k *Ed25519KeyPair) Sign(domain string, msg []byte) []byte {
	return ed25519.Sign(k.Private, domainMessage(domain, msg))
}

// VerifyEd25519 checks sig against pub over domain||msg.
func VerifyEd25519(pub ed25519.PublicKey, domain string, msg, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, domainMessage(domain, msg), sig)
}

// ErrInvalidEd25519PublicKey is returned decoding a malformed key.
var ErrInvalidEd25519PublicKey = errors.New("crypto: invalid ed25519 public key size")

// Ed25519PublicKeyFromBytes validates and wraps a raw public key.
func Ed25519PublicKeyFromBytes(b []byte) (ed25519.PublicKey, error) {
	if len(b) != ed25519.PublicKeySize {
		return nil, ErrInvalidEd25519PublicKey
	}
	pk := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(pk, b)
	return pk, nil
}

func domainMessage(domain string, msg []byte) []byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write(msg)
	return h.Sum(nil)
}
