// Copyright 2026 The CodeChain-Go Authors

package tendermint

import (
	"errors"

	"github.com/kode-chain/codechain-go/pkg/crypto"
	"github.com/kode-chain/codechain-go/pkg/crypto/bls"
)

// Scheme identifies which vote-signing scheme a validator uses. Vote
// signatures don't support recovery, only address/index-indexed
// lookup, unlike the secp256k1 transaction signer.
type Scheme string

const (
	// SchemeEd25519 is the default vote-signing scheme: cheap, no
	// aggregation, one signature per precommit in the seal.
	SchemeEd25519 Scheme = "ed25519"
	// SchemeBLS is the optional BLS scheme: the seal still carries one
	// signature per set bit of the precommit bitset, as with ed25519.
	SchemeBLS Scheme = "bls"
)

var ErrUnknownScheme = errors.New("tendermint: unknown vote-signing scheme")

// Signer signs a validator's own votes. Two concrete implementations
// exist behind this one interface, selected by the validator's
// configured scheme.
type Signer interface {
	Scheme() Scheme
	Sign(domain string, msg []byte) []byte
	PublicKeyBytes() []byte
}

// Ed25519Signer is the default Signer.
type Ed25519Signer struct {
	key *crypto.Ed25519KeyPair
}

func NewEd25519Signer(key *crypto.Ed25519KeyPair) *Ed25519Signer {
	return &Ed25519Signer{key: key}
}

func (s *Ed25519Signer) Scheme() Scheme { return SchemeEd25519 }
func (s *Ed25519Signer) Sign(domain string, msg []byte) []byte { return s.key.Sign(domain, msg) }
func (s *Ed25519Signer) PublicKeyBytes() []byte { return []byte(s.key.Public) }

// BLSSigner is the optional BLS Signer. Its precommit signatures go
// into the seal one per set bit, the same as Ed25519Signer's; the
// seal does not combine them into a single aggregate signature.
type BLSSigner struct {
	key *bls.PrivateKey
	pub *bls.PublicKey
}

func NewBLSSigner(key *bls.PrivateKey) *BLSSigner {
	return &BLSSigner{key: key, pub: key.PublicKey()}
}

func (s *BLSSigner) Scheme() Scheme { return SchemeBLS }
func (s *BLSSigner) Sign(domain string, msg []byte) []byte {
	return s.key.SignWithDomain(msg, domain).Bytes()
}
func (s *BLSSigner) PublicKeyBytes() []byte { return s.pub.Bytes() }

// VerifyVote checks sig against a validator's known public key bytes
// under scheme, address-indexed rather than recovered.
func VerifyVote(scheme Scheme, pubKeyBytes []byte, domain string, msg, sig []byte) (bool, error) {
	switch scheme {
	case SchemeEd25519:
		pub, err := crypto.Ed25519PublicKeyFromBytes(pubKeyBytes)
		if err != nil {
			return false, err
		}
		return crypto.VerifyEd25519(pub, domain, msg, sig), nil
	case SchemeBLS:
		pub, err := bls.PublicKeyFromBytes(pubKeyBytes)
		if err != nil {
			return false, err
		}
		s, err := bls.SignatureFromBytes(sig)
		if err != nil {
			return false, err
		}
		return pub.VerifyWithDomain(s, msg, domain), nil
	default:
		return false, ErrUnknownScheme
	}
}
