// Copyright 2026 The CodeChain-Go Authors

package types

import (
	"errors"

	"github.com/kode-chain/codechain-go/pkg/rlp"
)

// ErrMalformedSeal is returned decoding a header seal that does not
// have the single-element shape EncodeSeal produces.
var ErrMalformedSeal = errors.New("types: malformed tendermint seal")

// Step is one phase of the per-(height,view) BFT round.
type Step uint8

const (
	StepPropose Step = iota
	StepPrevote
	StepPrecommit
	// StepCommit is never voted on directly; it is the internal state
	// a node enters once it has gathered a precommit supermajority.
	StepCommit
)

// VoteStep identifies which round and phase a vote belongs to.
type VoteStep struct {
	Height uint64
	View   uint64
	Step   Step
}

// VoteOn is the payload a validator signs for Prevote/Precommit: the
// step it is voting at, and the block hash it votes for (or the zero
// hash for a nil vote).
type VoteOn struct {
	Step      VoteStep
	BlockHash Hash
	IsNil     bool
}

// SignedVote pairs a VoteOn with the signer's index in the validator
// set for that height and their signature over it.
type SignedVote struct {
	On          VoteOn
	SignerIndex uint32
	Signature   []byte
}

// Proposal is the Propose-step message: it carries the full candidate
// block body alongside the VoteOn a proposer implicitly casts for it,
// plus the VRF seed proof for the round. Priority is only present
// when the engine runs priority sortition instead of the round-robin
// schedule.
type Proposal struct {
	On          VoteOn
	SignerIndex uint32
	Signature   []byte
	Block       rlp.RawValue
	Seed        SeedInfo
	Priority    *PriorityMessage `rlp:"nil"`
}

// SeedInfo is the VRF output a proposer attaches to its proposal,
// deriving the next round's randomness from the previous seed.
type SeedInfo struct {
	SignerIndex uint32
	Seed        Hash
	Proof       []byte
}

// PriorityInfo proves a validator's right to speak at a given
// sub-user index under priority sortition: the sub-user index it
// claims, the priority scalar that draw produced, and the VRF
// hash/proof the whole round's draws derive from.
type PriorityInfo struct {
	SubUserIndex uint32
	Priority     Hash
	VRFHash      Hash
	VRFProof     []byte
}

// PriorityMessage pairs a round's seed with one validator's priority
// proof against it.
type PriorityMessage struct {
	Seed Hash
	Info PriorityInfo
}

// TendermintSeal is the engine-specific payload carried in a Header's
// Seal field once committed: prev_view, cur_view, precommits,
// precommit_bitset, and the VRF seed info. precommits holds one
// signature per set bit in PrecommitBitset, in bitset order.
type TendermintSeal struct {
	PrevView        uint64
	CurView         uint64
	Precommits      [][]byte
	PrecommitBitset []byte
	VRFSeedInfo     SeedInfo
}

// EncodeSeal packs s into the opaque [][]byte a Header carries,
// keeping the header's own RLP shape engine-agnostic.
func EncodeSeal(s *TendermintSeal) ([][]byte, error) {
	raw, err := rlp.Encode(s)
	if err != nil {
		return nil, err
	}
	return [][]byte{raw}, nil
}

// DecodeSeal unpacks a Header's opaque seal back into a
// TendermintSeal.
func DecodeSeal(seal [][]byte) (*TendermintSeal, error) {
	if len(seal) != 1 {
		return nil, ErrMalformedSeal
	}
	var s TendermintSeal
	if err := rlp.Decode(seal[0], &s); err != nil {
		return nil, err
	}
	return &s, nil
}
