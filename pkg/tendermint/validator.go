// Copyright 2026 The CodeChain-Go Authors

package tendermint

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/kode-chain/codechain-go/pkg/consensus"
	"github.com/kode-chain/codechain-go/pkg/crypto/bls"
	"github.com/kode-chain/codechain-go/pkg/types"
	"golang.org/x/crypto/ed25519"
)

// ValidatorInfo is one validator's identity and key material: the
// secp256k1 public key used for the VRF, and the vote-signing public
// key under whichever Scheme this deployment signed votes with (the
// dual ed25519/BLS signer schemes).
type ValidatorInfo struct {
	Address     types.Address
	VoteScheme  Scheme
	Ed25519Key  ed25519.PublicKey
	BLSKey      *bls.PublicKey
	VRFKey      *ecdsa.PublicKey
	VotingPower uint64
}

// ValidatorSet is the fixed, ordered validator list for one height,
// reusing consensus.RoundRobinValidator for the address-ordering and
// proposer-rotation logic every engine shares, and adding the
// vote-key lookups the BFT engine alone needs.
type ValidatorSet struct {
	*consensus.RoundRobinValidator
	infos []ValidatorInfo
}

// NewValidatorSet builds a set from infos, in list order; Proposer and
// IndexOf follow the embedded RoundRobinValidator's round-robin over
// that same order.
func NewValidatorSet(infos []ValidatorInfo) *ValidatorSet {
	addrs := make([]types.Address, len(infos))
	cp := make([]ValidatorInfo, len(infos))
	for i, v := range infos {
		addrs[i] = v.Address
		cp[i] = v
	}
	return &ValidatorSet{
		RoundRobinValidator: consensus.NewRoundRobinValidator(addrs),
		infos:               cp,
	}
}

// InfoAt returns the validator info at index i.
func (v *ValidatorSet) InfoAt(i int) (ValidatorInfo, bool) {
	if i < 0 || i >= len(v.infos) {
		return ValidatorInfo{}, false
	}
	return v.infos[i], true
}

// Len is the validator count, the width every Bitset for this height
// must be sized to.
func (v *ValidatorSet) Len() int { return len(v.infos) }

// TotalVotingPower sums every validator's weight, the denominator
// priority sortition draws against.
func (v *ValidatorSet) TotalVotingPower() uint64 {
	var total uint64
	for _, i := range v.infos {
		total += i.VotingPower
	}
	return total
}

// MinimumScore is unused by Tendermint (no PoW score floor) but kept
// so ValidatorSet can satisfy consensus.MinimumScore if ever queried
// generically; returns zero.
func (v *ValidatorSet) MinimumScore() *big.Int { return big.NewInt(0) }
