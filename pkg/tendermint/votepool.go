// Copyright 2026 The CodeChain-Go Authors

package tendermint

import (
	"errors"
	"sync"

	"github.com/kode-chain/codechain-go/pkg/types"
)

// ErrRegression is returned when a signer's vote regresses behind one
// it has already cast, or equivocates at an equal (height, view, step)
// for a different block hash.
var ErrRegression = errors.New("tendermint: vote regresses a prior vote from the same signer")

// voteKey identifies one pool slot: (height, view, step, signer_index).
type voteKey struct {
	height uint64
	view   uint64
	step   types.Step
	signer uint32
}

// VotePool stores votes keyed by (height, view, step, signer_index) so
// re-delivering the same vote is idempotent.
type VotePool struct {
	mu    sync.Mutex
	votes map[voteKey]*types.SignedVote
}

func NewVotePool() *VotePool {
	return &VotePool{votes: make(map[voteKey]*types.SignedVote)}
}

// Add inserts v, overwriting only an identical re-delivery (same key,
// same vote); returns false without modifying the pool if a vote
// already occupies the slot with a different payload.
func (p *VotePool) Add(v *types.SignedVote) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := voteKey{v.On.Step.Height, v.On.Step.View, v.On.Step.Step, v.SignerIndex}
	if existing, ok := p.votes[key]; ok {
		return existing.On == v.On
	}
	p.votes[key] = v
	return true
}

// VotesFor returns every vote cast for (height, view, step) that votes
// for blockHash (IsNil false) or for nil (IsNil true, blockHash
// ignored), along with which signer indices cast them.
func (p *VotePool) VotesFor(height, view uint64, step types.Step, blockHash types.Hash, nil_ bool) []*types.SignedVote {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*types.SignedVote
	for k, v := range p.votes {
		if k.height != height || k.view != view || k.step != step {
			continue
		}
		if v.On.IsNil != nil_ {
			continue
		}
		if !nil_ && v.On.BlockHash != blockHash {
			continue
		}
		out = append(out, v)
	}
	return out
}

// All returns every vote currently held for any (height, view, step),
// the snapshot the engine's backup record persists verbatim.
func (p *VotePool) All() []types.SignedVote {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.SignedVote, 0, len(p.votes))
	for _, v := range p.votes {
		out = append(out, *v)
	}
	return out
}

// EvictHeight drops every vote at or below height, called once a
// height finalizes so the pool doesn't grow without bound.
func (p *VotePool) EvictHeight(height uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k := range p.votes {
		if k.height <= height {
			delete(p.votes, k)
		}
	}
}

// Bitset builds the Bitset of signer indices that voted at
// (height, view, step) for blockHash, over a validator set of size n.
func (p *VotePool) Bitset(height, view uint64, step types.Step, blockHash types.Hash, n int) *Bitset {
	b := NewBitset(n)
	for _, v := range p.VotesFor(height, view, step, blockHash, false) {
		b.Set(int(v.SignerIndex))
	}
	return b
}

// RegressionChecker enforces per-signer monotonicity: a validator may
// not vote on an earlier (height, view, step) than one it already
// voted on; at an equal triple the block hash must match. It panics
// if asked to check a Commit-step vote, since Commit is an internal
// state transition and never voted on directly.
type RegressionChecker struct {
	mu   sync.Mutex
	last map[types.Address]types.VoteOn
}

func NewRegressionChecker() *RegressionChecker {
	return &RegressionChecker{last: make(map[types.Address]types.VoteOn)}
}

// Check validates on against signer's prior vote and, if it passes,
// records on as signer's new latest vote.
func (r *RegressionChecker) Check(signer types.Address, on types.VoteOn) error {
	if on.Step.Step == types.StepCommit {
		panic("tendermint: regression checker asked to check a Commit-step vote")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.last[signer]
	if ok {
		if less(on.Step, prev.Step) {
			return ErrRegression
		}
		if on.Step == prev.Step && on != prev {
			return ErrRegression
		}
	}
	r.last[signer] = on
	return nil
}

func less(a, b types.VoteStep) bool {
	if a.Height != b.Height {
		return a.Height < b.Height
	}
	if a.View != b.View {
		return a.View < b.View
	}
	return a.Step < b.Step
}
