// Copyright 2026 The CodeChain-Go Authors

package crypto

import (
	"crypto/ecdsa"
	"errors"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidSignatureLength is returned when a seal or vote signature
// does not have the expected 65-byte recoverable-signature shape.
var ErrInvalidSignatureLength = errors.New("crypto: invalid signature length")

// KeyPair is a secp256k1 signing identity: the same suite transaction
// and SimplePoA/PoW seal signatures use. Recovery of the public key
// from a signature (ecrecover) is available for this suite, so
// SimplePoA and transaction signatures use it directly.
type KeyPair struct {
	Private *ecdsa.PrivateKey
}

// GenerateKeyPair creates a new random secp256k1 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := gethcrypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &KeyPair{Private: priv}, nil
}

// Address returns the 160-bit address hash derived from the public key.
func (k *KeyPair) Address() [20]byte {
	pub := gethcrypto.FromECDSAPub(&k.Private.PublicKey)
	return AddressHash160(pub[1:])
}

// Sign produces a 65-byte recoverable ECDSA signature over digest,
// which must be 32 bytes (a Blake256 hash).
func (k *KeyPair) Sign(digest []byte) ([]byte, error) {
	return gethcrypto.Sign(digest, k.Private)
}

// RecoverAddress recovers the signer's 160-bit address hash from a
// digest and a 65-byte recoverable signature. Whether a signature
// supports recovery is suite-dependent: for the secp256k1 suite used
// here, recovery is natively available, so SimplePoA and transaction
// verification use it. The Tendermint engine, whose votes are signed
// with ed25519 (no recovery), verifies by address-indexed lookup
// instead (see pkg/tendermint/signer.go) rather than recovery.
func RecoverAddress(digest, sig []byte) ([20]byte, error) {
	if len(sig) != 65 {
		return [20]byte{}, ErrInvalidSignatureLength
	}
	pub, err := gethcrypto.SigToPub(digest, sig)
	if err != nil {
		return [20]byte{}, err
	}
	pubBytes := gethcrypto.FromECDSAPub(pub)
	return AddressHash160(pubBytes[1:]), nil
}
