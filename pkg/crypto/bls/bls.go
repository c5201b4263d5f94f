// Copyright 2026 The CodeChain-Go Authors

// Package bls implements BLS12-381 signatures for the optional BLS
// vote-signing scheme: validators may sign votes with BLS instead of
// ed25519. The Tendermint seal carries one signature per set bit of
// the precommit bitset under either scheme; it does not hold a single
// aggregate signature. Built on gnark-crypto's pure-Go BLS12-381
// implementation.
package bls

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

var (
	initOnce sync.Once

	g1Gen bls12381.G1Affine
	g2Gen bls12381.G2Affine
)

// Domain separation tags for the vote kinds a validator signs over the
// course of one height (Propose, Prevote, Precommit) plus the VRF-seed
// announcement carried in the seal.
const (
	DomainPrevote   = "CODECHAIN_TENDERMINT_PREVOTE_V1"
	DomainPrecommit = "CODECHAIN_TENDERMINT_PRECOMMIT_V1"
	DomainProposal  = "CODECHAIN_TENDERMINT_PROPOSAL_V1"
	DomainSeed      = "CODECHAIN_TENDERMINT_SEED_V1"
)

// Size constants.
const (
	PrivateKeySize = 32 // BLS12-381 scalar
	PublicKeySize  = 96 // G2 point, compressed
	SignatureSize  = 48 // G1 point, compressed
)

// Initialize loads the curve's generator points. Idempotent; callers
// don't need to guard repeated calls.
func Initialize() error {
	initOnce.Do(func() {
		_, _, g1GenPoint, g2GenPoint := bls12381.Generators()
		g1Gen = g1GenPoint
		g2Gen = g2GenPoint
	})
	return nil
}

// PrivateKey is a BLS signing key: a scalar in Fr.
type PrivateKey struct {
	scalar fr.Element
}

// PublicKey is a point on G2.
type PublicKey struct {
	point bls12381.G2Affine
}

// Signature is a point on G1.
type Signature struct {
	point bls12381.G1Affine
}

// GenerateKeyPair generates a new random key pair.
func GenerateKeyPair() (*PrivateKey, *PublicKey, error) {
	if err := Initialize(); err != nil {
		return nil, nil, fmt.Errorf("initialize BLS: %w", err)
	}

	var sk fr.Element
	if _, err := sk.SetRandom(); err != nil {
		return nil, nil, fmt.Errorf("generate random scalar: %w", err)
	}

	privateKey := &PrivateKey{scalar: sk}
	return privateKey, privateKey.PublicKey(), nil
}

// GenerateKeyPairFromSeed derives a deterministic key pair from a seed,
// for tests and for recovering a validator's BLS key alongside its
// ed25519 key from the same backup material.
func GenerateKeyPairFromSeed(seed []byte) (*PrivateKey, *PublicKey, error) {
	if err := Initialize(); err != nil {
		return nil, nil, fmt.Errorf("initialize BLS: %w", err)
	}
	if len(seed) < 32 {
		return nil, nil, errors.New("seed must be at least 32 bytes")
	}

	hash := sha256.Sum256(seed)
	var sk fr.Element
	sk.SetBytes(hash[:])

	privateKey := &PrivateKey{scalar: sk}
	return privateKey, privateKey.PublicKey(), nil
}

// PrivateKeyFromBytes deserializes a private key.
func PrivateKeyFromBytes(data []byte) (*PrivateKey, error) {
	if err := Initialize(); err != nil {
		return nil, fmt.Errorf("initialize BLS: %w", err)
	}
	if len(data) != PrivateKeySize {
		return nil, fmt.Errorf("invalid private key size: got %d, want %d", len(data), PrivateKeySize)
	}
	var sk fr.Element
	sk.SetBytes(data)
	return &PrivateKey{scalar: sk}, nil
}

// PrivateKeyFromHex deserializes a private key from a hex string.
func PrivateKeyFromHex(hexStr string) (*PrivateKey, error) {
	data, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return PrivateKeyFromBytes(data)
}

// PublicKeyFromBytes deserializes a public key.
func PublicKeyFromBytes(data []byte) (*PublicKey, error) {
	if err := Initialize(); err != nil {
		return nil, fmt.Errorf("initialize BLS: %w", err)
	}
	var pk bls12381.G2Affine
	if _, err := pk.SetBytes(data); err != nil {
		return nil, fmt.Errorf("deserialize public key: %w", err)
	}
	return &PublicKey{point: pk}, nil
}

// PublicKeyFromHex deserializes a public key from a hex string.
func PublicKeyFromHex(hexStr string) (*PublicKey, error) {
	data, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return PublicKeyFromBytes(data)
}

// SignatureFromBytes deserializes a signature.
func SignatureFromBytes(data []byte) (*Signature, error) {
	if err := Initialize(); err != nil {
		return nil, fmt.Errorf("initialize BLS: %w", err)
	}
	var sig bls12381.G1Affine
	if _, err := sig.SetBytes(data); err != nil {
		return nil, fmt.Errorf("deserialize signature: %w", err)
	}
	return &Signature{point: sig}, nil
}

// SignatureFromHex deserializes a signature from a hex string.
func SignatureFromHex(hexStr string) (*Signature, error) {
	data, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return SignatureFromBytes(data)
}

// Bytes returns the serialized private key.
func (sk *PrivateKey) Bytes() []byte {
	b := sk.scalar.Bytes()
	return b[:]
}

// Hex returns the private key as a hex string.
func (sk *PrivateKey) Hex() string {
	return hex.EncodeToString(sk.Bytes())
}

// PublicKey derives pk = sk * G2.
func (sk *PrivateKey) PublicKey() *PublicKey {
	var pk bls12381.G2Affine
	var skBig big.Int
	sk.scalar.BigInt(&skBig)
	pk.ScalarMultiplication(&g2Gen, &skBig)
	return &PublicKey{point: pk}
}

// Sign returns sig = sk * H(message), with no domain separation.
func (sk *PrivateKey) Sign(message []byte) *Signature {
	h := hashToG1(message)
	var sig bls12381.G1Affine
	var skBig big.Int
	sk.scalar.BigInt(&skBig)
	sig.ScalarMultiplication(&h, &skBig)
	return &Signature{point: sig}
}

// SignWithDomain signs message under one of the Domain* tags, so a
// precommit and a prevote over the same block hash never collide.
func (sk *PrivateKey) SignWithDomain(message []byte, domain string) *Signature {
	return sk.Sign(computeDomainMessage(domain, message))
}

// Bytes returns the serialized public key (compressed G2 point).
func (pk *PublicKey) Bytes() []byte {
	b := pk.point.Bytes()
	return b[:]
}

// Hex returns the public key as a hex string.
func (pk *PublicKey) Hex() string {
	return hex.EncodeToString(pk.Bytes())
}

// Verify checks e(sig, G2) == e(H(message), pk) via a single pairing
// check, e(sig, G2) * e(H(msg), -pk) == 1.
func (pk *PublicKey) Verify(sig *Signature, message []byte) bool {
	h := hashToG1(message)

	var negPk bls12381.G2Affine
	negPk.Neg(&pk.point)

	ok, err := bls12381.PairingCheck(
		[]bls12381.G1Affine{sig.point, h},
		[]bls12381.G2Affine{g2Gen, negPk},
	)
	if err != nil {
		return false
	}
	return ok
}

// VerifyWithDomain verifies a SignWithDomain signature.
func (pk *PublicKey) VerifyWithDomain(sig *Signature, message []byte, domain string) bool {
	return pk.Verify(sig, computeDomainMessage(domain, message))
}

// Equal reports whether two public keys are the same point.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	return pk.point.Equal(&other.point)
}

// Bytes returns the serialized signature (compressed G1 point).
func (sig *Signature) Bytes() []byte {
	b := sig.point.Bytes()
	return b[:]
}

// Hex returns the signature as a hex string.
func (sig *Signature) Hex() string {
	return hex.EncodeToString(sig.Bytes())
}

// AggregateSignatures sums signatures on G1: the seal's single
// aggregate precommit signature, over whichever validators' bits are
// set in the precommit bitset.
func AggregateSignatures(signatures []*Signature) (*Signature, error) {
	if err := Initialize(); err != nil {
		return nil, fmt.Errorf("initialize BLS: %w", err)
	}
	if len(signatures) == 0 {
		return nil, errors.New("no signatures to aggregate")
	}

	var aggSig bls12381.G1Jac
	aggSig.FromAffine(&signatures[0].point)
	for i := 1; i < len(signatures); i++ {
		var jac bls12381.G1Jac
		jac.FromAffine(&signatures[i].point)
		aggSig.AddAssign(&jac)
	}

	var result bls12381.G1Affine
	result.FromJacobian(&aggSig)
	return &Signature{point: result}, nil
}

// AggregatePublicKeys sums public keys on G2, matching the same subset
// of validators an aggregate signature was built from.
func AggregatePublicKeys(publicKeys []*PublicKey) (*PublicKey, error) {
	if err := Initialize(); err != nil {
		return nil, fmt.Errorf("initialize BLS: %w", err)
	}
	if len(publicKeys) == 0 {
		return nil, errors.New("no public keys to aggregate")
	}

	var aggPk bls12381.G2Jac
	aggPk.FromAffine(&publicKeys[0].point)
	for i := 1; i < len(publicKeys); i++ {
		var jac bls12381.G2Jac
		jac.FromAffine(&publicKeys[i].point)
		aggPk.AddAssign(&jac)
	}

	var result bls12381.G2Affine
	result.FromJacobian(&aggPk)
	return &PublicKey{point: result}, nil
}

// VerifyAggregateSignature checks an aggregate signature against the
// public keys of every validator it claims to cover, all of whom must
// have signed the same message (the block hash being precommitted).
func VerifyAggregateSignature(aggSig *Signature, publicKeys []*PublicKey, message []byte) bool {
	if err := Initialize(); err != nil {
		return false
	}
	if len(publicKeys) == 0 {
		return false
	}

	aggPk, err := AggregatePublicKeys(publicKeys)
	if err != nil {
		return false
	}
	return aggPk.Verify(aggSig, message)
}

// VerifyAggregateSignatureWithDomain verifies an aggregate signature
// produced by SignWithDomain.
func VerifyAggregateSignatureWithDomain(aggSig *Signature, publicKeys []*PublicKey, message []byte, domain string) bool {
	return VerifyAggregateSignature(aggSig, publicKeys, computeDomainMessage(domain, message))
}

// hashToG1 hashes message to a point on G1 by repeated SHA-256 probing
// until a valid curve point falls out, falling back to a scalar
// multiple of the generator. Not constant-time, but message content
// here (vote digests) is never secret.
func hashToG1(message []byte) bls12381.G1Affine {
	h := sha256.New()
	h.Write([]byte("BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_"))
	h.Write(message)

	var counter uint64
	for {
		h2 := sha256.New()
		h2.Write(h.Sum(nil))
		binary.Write(h2, binary.BigEndian, counter)
		hash := h2.Sum(nil)

		var point bls12381.G1Affine
		if _, err := point.SetBytes(hash); err == nil && !point.IsInfinity() {
			return point
		}

		var scalar fr.Element
		scalar.SetBytes(hash)
		var scalarBig big.Int
		scalar.BigInt(&scalarBig)

		var result bls12381.G1Affine
		result.ScalarMultiplication(&g1Gen, &scalarBig)
		if !result.IsInfinity() {
			return result
		}

		counter++
		if counter > 1000 {
			return g1Gen
		}
	}
}

func computeDomainMessage(domain string, message []byte) []byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write(message)
	return h.Sum(nil)
}

// ComputeMessageHash hashes domain||data..., giving every validator
// signing the same logical vote an identical message to sign.
func ComputeMessageHash(domain string, data ...[]byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(domain))
	for _, d := range data {
		h.Write(d)
	}
	var result [32]byte
	copy(result[:], h.Sum(nil))
	return result
}

// GenerateRandomBytes returns n cryptographically secure random bytes.
func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ValidatePublicKeySubgroup checks that pubKeyBytes deserializes to a
// G2 point on the curve, not the identity, and in the correct
// subgroup; the last check is what stops rogue-key attacks against
// aggregate verification.
func ValidatePublicKeySubgroup(pubKeyBytes []byte) error {
	if err := Initialize(); err != nil {
		return fmt.Errorf("initialize BLS: %w", err)
	}
	if len(pubKeyBytes) != PublicKeySize {
		return fmt.Errorf("invalid public key size: got %d, expected %d", len(pubKeyBytes), PublicKeySize)
	}

	var pk bls12381.G2Affine
	if _, err := pk.SetBytes(pubKeyBytes); err != nil {
		return fmt.Errorf("invalid public key encoding: %w", err)
	}
	if !pk.IsOnCurve() {
		return errors.New("public key not on BLS12-381 G2 curve")
	}
	if pk.IsInfinity() {
		return errors.New("public key is identity point")
	}
	if !pk.IsInSubGroup() {
		return errors.New("public key not in correct G2 subgroup")
	}
	return nil
}

// ValidateSignatureSubgroup is ValidatePublicKeySubgroup's G1 analog
// for signatures.
func ValidateSignatureSubgroup(sigBytes []byte) error {
	if err := Initialize(); err != nil {
		return fmt.Errorf("initialize BLS: %w", err)
	}
	if len(sigBytes) != SignatureSize {
		return fmt.Errorf("invalid signature size: got %d, expected %d", len(sigBytes), SignatureSize)
	}

	var sig bls12381.G1Affine
	if _, err := sig.SetBytes(sigBytes); err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	if !sig.IsOnCurve() {
		return errors.New("signature not on BLS12-381 G1 curve")
	}
	if sig.IsInfinity() {
		return errors.New("signature is identity point")
	}
	if !sig.IsInSubGroup() {
		return errors.New("signature not in correct G1 subgroup")
	}
	return nil
}

// IsValidPrivateKeySize reports whether data has the expected private
// key length.
func IsValidPrivateKeySize(data []byte) bool {
	return len(data) == PrivateKeySize
}

// IsValidPublicKeySize reports whether data has the expected public
// key length.
func IsValidPublicKeySize(data []byte) bool {
	return len(data) == PublicKeySize
}

// IsValidSignatureSize reports whether data has the expected
// signature length.
func IsValidSignatureSize(data []byte) bool {
	return len(data) == SignatureSize
}

// IsValid reports whether pk is on-curve, non-identity, and in the
// correct subgroup.
func (pk *PublicKey) IsValid() bool {
	if pk == nil {
		return false
	}
	return pk.point.IsOnCurve() && !pk.point.IsInfinity() && pk.point.IsInSubGroup()
}

// IsValid reports whether sig is on-curve, non-identity, and in the
// correct subgroup.
func (sig *Signature) IsValid() bool {
	if sig == nil {
		return false
	}
	return sig.point.IsOnCurve() && !sig.point.IsInfinity() && sig.point.IsInSubGroup()
}
