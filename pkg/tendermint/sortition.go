// Copyright 2026 The CodeChain-Go Authors

package tendermint

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"math"

	"github.com/kode-chain/codechain-go/pkg/crypto"
	"github.com/kode-chain/codechain-go/pkg/types"
)

var (
	ErrPriorityOutOfRange = errors.New("tendermint: priority sub-user index outside binomial tail")
	ErrPriorityMalformed  = errors.New("tendermint: priority scalar does not match VRF hash and sub-user index")
	ErrPriorityMissing    = errors.New("tendermint: proposal carries no priority proof")
	ErrPriorityTooLow     = errors.New("tendermint: held proposal has equal or higher priority")
	ErrPrioritySeed       = errors.New("tendermint: priority proof drawn against the wrong round seed")
)

// Sortition is the priority-sortition configuration for proposer
// weighting: each validator runs the VRF once per round over the round
// seed and wins a binomially distributed number of sub-users, each
// unit of stake succeeding with probability Expectation/TotalPower.
// The highest sub-user priority across the validator set wins the
// round. A nil *Sortition on the engine keeps the plain round-robin
// schedule.
type Sortition struct {
	TotalPower  uint64
	Expectation float64
}

// winCount inverts the binomial CDF at the VRF hash: treating
// hash/2^256 as a uniform draw in [0,1), it returns the j such that
// CDF(j-1) <= draw < CDF(j) for the Binomial(votingPower,
// Expectation/TotalPower) distribution, the number of sub-users this
// draw won. Zero means the validator sits this round out.
func (s *Sortition) winCount(vrfHash types.Hash, votingPower uint64) uint64 {
	if s.TotalPower == 0 || votingPower == 0 {
		return 0
	}
	p := s.Expectation / float64(s.TotalPower)
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return votingPower
	}

	draw := hashRatio(vrfHash)
	n := float64(votingPower)
	// pmf(0) = (1-p)^n; pmf(k+1) = pmf(k) * (n-k)/(k+1) * p/(1-p).
	pmf := math.Pow(1-p, n)
	cdf := pmf
	j := uint64(0)
	for cdf <= draw && j < votingPower {
		pmf *= (n - float64(j)) / float64(j+1) * p / (1 - p)
		cdf += pmf
		j++
	}
	return j
}

// hashRatio maps a VRF hash to [0,1). The top 64 bits carry more
// precision than the float64 mantissa holds, so truncating the rest
// of the hash loses nothing.
func hashRatio(h types.Hash) float64 {
	return float64(binary.BigEndian.Uint64(h[:8])) / math.Exp2(64)
}

// priorityOf derives the priority scalar of one sub-user draw from
// the round's VRF hash.
func priorityOf(vrfHash types.Hash, subUserIndex uint32) types.Hash {
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], subUserIndex)
	return crypto.Blake256(vrfHash[:], idx[:])
}

// Draw runs one validator's sortition for the round seeded by seed:
// a single VRF evaluation, a binomial win count from its hash, and
// the highest-priority sub-user among the wins. Reports won=false
// when the binomial draw yields no sub-user at all.
func (s *Sortition) Draw(sk *ecdsa.PrivateKey, seed types.Hash, votingPower uint64) (types.PriorityInfo, bool, error) {
	hash, proof, err := crypto.ProveVRF(sk, seed[:])
	if err != nil {
		return types.PriorityInfo{}, false, err
	}
	vrfHash := types.BytesToHash(hash)
	won := s.winCount(vrfHash, votingPower)
	if won == 0 {
		return types.PriorityInfo{}, false, nil
	}

	best := types.PriorityInfo{
		SubUserIndex: 0,
		Priority:     priorityOf(vrfHash, 0),
		VRFHash:      vrfHash,
		VRFProof:     proof,
	}
	for j := uint64(1); j < won; j++ {
		if p := priorityOf(vrfHash, uint32(j)); bytes.Compare(p[:], best.Priority[:]) > 0 {
			best.SubUserIndex = uint32(j)
			best.Priority = p
		}
	}
	return best, true, nil
}

// VerifyPriorityMessage checks the three conditions a priority proof
// must satisfy: the sub-user index is within the binomial tail at
// (votingPower, TotalPower, Expectation), the priority scalar is
// well-formed (it recomputes from the VRF hash and sub-user index),
// and the VRF hash verifies against the signer's public key and the
// round seed.
func (s *Sortition) VerifyPriorityMessage(signerKey *ecdsa.PublicKey, msg *types.PriorityMessage, votingPower uint64) error {
	if uint64(msg.Info.SubUserIndex) >= s.winCount(msg.Info.VRFHash, votingPower) {
		return ErrPriorityOutOfRange
	}
	if priorityOf(msg.Info.VRFHash, msg.Info.SubUserIndex) != msg.Info.Priority {
		return ErrPriorityMalformed
	}
	ok, err := crypto.VerifyVRF(signerKey, msg.Seed[:], msg.Info.VRFHash[:], msg.Info.VRFProof)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSeedMismatch
	}
	return nil
}
