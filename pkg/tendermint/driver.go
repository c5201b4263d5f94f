// Copyright 2026 The CodeChain-Go Authors

package tendermint

import (
	"bytes"

	"github.com/kode-chain/codechain-go/pkg/crypto"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// isProposerLocked reports whether this node may propose at
// (e.height, e.curView): under round-robin, whether it holds the
// schedule slot; under sortition, whether its own draw won at least
// one sub-user. Caller must hold e.mu.
func (e *Engine) isProposerLocked() bool {
	if e.selfIndex < 0 {
		return false
	}
	if e.sortition != nil {
		_, won := e.drawPriorityLocked()
		return won
	}
	proposer, err := e.validators.Proposer(e.height, e.curView)
	if err != nil {
		return false
	}
	self, ok := e.validators.InfoAt(e.selfIndex)
	return ok && self.Address == proposer
}

// roundSortitionSeedLocked is the seed this round's priority draws
// run against, chained from the same prev_seed the proposal's
// SeedInfo proves. Caller must hold e.mu.
func (e *Engine) roundSortitionSeedLocked() types.Hash {
	return crypto.Blake256(seedMessage(e.prevSeed, e.height, e.curView))
}

// drawPriorityLocked runs this node's own sortition draw for the
// current round. Caller must hold e.mu.
func (e *Engine) drawPriorityLocked() (types.PriorityInfo, bool) {
	self, ok := e.validators.InfoAt(e.selfIndex)
	if !ok || e.vrfKey == nil {
		return types.PriorityInfo{}, false
	}
	info, won, err := e.sortition.Draw(e.vrfKey, e.roundSortitionSeedLocked(), self.VotingPower)
	if err != nil || !won {
		return types.PriorityInfo{}, false
	}
	return info, true
}

// Propose builds and records this node's own proposal for block at
// (e.height, e.curView), signing a VRF seed derived from the previous
// round's seed. Only valid when isProposerLocked(); callers should
// check SealsInternally first.
func (e *Engine) Propose(block *types.Block) (*types.Proposal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.isProposerLocked() {
		return nil, ErrNotDesignatedProposer
	}

	// Votes are cast on the bare hash: the seal embeds these very
	// signatures, so the voted digest cannot cover it.
	hash := block.Header.BareHash()
	on := types.VoteOn{
		Step:      types.VoteStep{Height: e.height, View: e.curView, Step: types.StepPropose},
		BlockHash: hash,
	}
	self, _ := e.validators.InfoAt(e.selfIndex)
	if err := e.regress.Check(self.Address, on); err != nil {
		return nil, err
	}

	seed, err := GenerateSeed(e.vrfKey, uint32(e.selfIndex), e.prevSeed, e.height, e.curView)
	if err != nil {
		return nil, err
	}

	var priority *types.PriorityMessage
	if e.sortition != nil {
		info, won := e.drawPriorityLocked()
		if !won {
			return nil, ErrNotDesignatedProposer
		}
		priority = &types.PriorityMessage{Seed: e.roundSortitionSeedLocked(), Info: info}
	}

	blockRLP, err := block.RLP()
	if err != nil {
		return nil, err
	}

	sig := e.signer.Sign(domainFor(types.StepPropose), voteMessage(on))
	p := &types.Proposal{
		On:          on,
		SignerIndex: uint32(e.selfIndex),
		Signature:   sig,
		Block:       blockRLP,
		Seed:        seed,
		Priority:    priority,
	}
	e.proposal = p
	e.persistLocked()
	return p, nil
}

// ReceiveProposal validates and records a peer's proposal for
// (e.height, e.curView): under round-robin the signer must hold the
// schedule slot; under sortition the proposal must carry a valid
// priority proof and beat the priority of whatever proposal is
// already held. A proposal for any other (height, view), or from an
// ineligible signer, is rejected silently: this is an engine-state
// error, dropped without logging here since callers own the logging.
func (e *Engine) ReceiveProposal(p *types.Proposal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p.On.Step.Height != e.height || p.On.Step.View != e.curView || p.On.Step.Step != types.StepPropose {
		return ErrWrongVoteStep
	}
	info, ok := e.validators.InfoAt(int(p.SignerIndex))
	if !ok {
		return ErrUnknownSigner
	}
	if e.sortition != nil {
		if p.Priority == nil {
			return ErrPriorityMissing
		}
		if p.Priority.Seed != e.roundSortitionSeedLocked() {
			return ErrPrioritySeed
		}
		if err := e.sortition.VerifyPriorityMessage(info.VRFKey, p.Priority, info.VotingPower); err != nil {
			return err
		}
		// Among competing winners, only a strictly higher priority
		// displaces the proposal already held.
		if e.proposal != nil && e.proposal.Priority != nil &&
			bytes.Compare(p.Priority.Info.Priority[:], e.proposal.Priority.Info.Priority[:]) <= 0 {
			return ErrPriorityTooLow
		}
	} else {
		proposer, err := e.validators.Proposer(e.height, e.curView)
		if err != nil {
			return err
		}
		if info.Address != proposer {
			return ErrNotDesignatedProposer
		}
	}

	ok, err := VerifyVote(info.VoteScheme, signerPubKeyBytes(info), domainFor(types.StepPropose), voteMessage(p.On), p.Signature)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidVoteSignature
	}
	if err := VerifySeed(e.validators, p.Seed, e.prevSeed, e.height, e.curView); err != nil {
		return err
	}
	block, err := types.DecodeBlock(p.Block)
	if err != nil {
		return err
	}
	if block.Header.BareHash() != p.On.BlockHash {
		return ErrProposalHashMismatch
	}
	if err := e.regress.Check(info.Address, p.On); err != nil {
		return err
	}

	e.proposal = p
	e.persistLocked()
	return nil
}

// Prevote transitions to Prevote and returns this node's vote: for the
// current proposal's block hash if one has been received at this
// (height, view), or nil (a nil vote) if the proposal is missing or
// invalid. Returns nil, nil for an observer node (selfIndex < 0).
func (e *Engine) Prevote() (*types.SignedVote, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.step = types.StepPrevote

	if e.selfIndex < 0 {
		e.persistLocked()
		return nil, nil
	}

	on := types.VoteOn{Step: types.VoteStep{Height: e.height, View: e.curView, Step: types.StepPrevote}}
	if e.proposal != nil {
		on.BlockHash = e.proposal.On.BlockHash
	} else {
		on.IsNil = true
	}

	self, _ := e.validators.InfoAt(e.selfIndex)
	if err := e.regress.Check(self.Address, on); err != nil {
		return nil, err
	}
	sig := e.signer.Sign(domainFor(types.StepPrevote), voteMessage(on))
	v := &types.SignedVote{On: on, SignerIndex: uint32(e.selfIndex), Signature: sig}
	e.votes.Add(v)
	e.persistLocked()
	return v, nil
}

// ReceivePrevote validates and records a peer's prevote.
func (e *Engine) ReceivePrevote(v *types.SignedVote) error {
	return e.receiveVote(v, types.StepPrevote)
}

// ReceivePrecommit validates and records a peer's precommit.
func (e *Engine) ReceivePrecommit(v *types.SignedVote) error {
	return e.receiveVote(v, types.StepPrecommit)
}

func (e *Engine) receiveVote(v *types.SignedVote, want types.Step) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v.On.Step.Height != e.height || v.On.Step.View != e.curView || v.On.Step.Step != want {
		return ErrWrongVoteStep
	}
	info, ok := e.validators.InfoAt(int(v.SignerIndex))
	if !ok {
		return ErrUnknownSigner
	}
	ok, err := VerifyVote(info.VoteScheme, signerPubKeyBytes(info), domainFor(want), voteMessage(v.On), v.Signature)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidVoteSignature
	}
	if err := e.regress.Check(info.Address, v.On); err != nil {
		return err
	}
	e.votes.Add(v)
	e.persistLocked()
	return nil
}

// Polka reports the block hash with a prevote supermajority at the
// current (height, view), if one exists.
func (e *Engine) Polka() (types.Hash, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.polkaLocked()
}

func (e *Engine) polkaLocked() (types.Hash, bool) {
	if e.proposal == nil {
		return types.Hash{}, false
	}
	hash := e.proposal.On.BlockHash
	bitset := e.votes.Bitset(e.height, e.curView, types.StepPrevote, hash, e.validators.Len())
	if CheckEnoughVotes(bitset, e.validators.Len()) {
		return hash, true
	}
	return types.Hash{}, false
}

// Precommit transitions to Precommit and returns this node's vote: for
// the polka hash if one has formed at this (height, view), nil
// otherwise.
func (e *Engine) Precommit() (*types.SignedVote, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.step = types.StepPrecommit

	if e.selfIndex < 0 {
		e.persistLocked()
		return nil, nil
	}

	on := types.VoteOn{Step: types.VoteStep{Height: e.height, View: e.curView, Step: types.StepPrecommit}}
	if hash, ok := e.polkaLocked(); ok {
		on.BlockHash = hash
	} else {
		on.IsNil = true
	}

	self, _ := e.validators.InfoAt(e.selfIndex)
	if err := e.regress.Check(self.Address, on); err != nil {
		return nil, err
	}
	sig := e.signer.Sign(domainFor(types.StepPrecommit), voteMessage(on))
	v := &types.SignedVote{On: on, SignerIndex: uint32(e.selfIndex), Signature: sig}
	e.votes.Add(v)
	e.persistLocked()
	return v, nil
}

// TryCommit checks whether a precommit supermajority has formed for
// the current (height, view); if so it builds the committed seal,
// moves to the internal Commit meta-state, and returns the hash that
// was committed. A caller that gets ok==true still must drive the
// block import itself; AdvanceHeight finalizes the engine's own state
// once that import completes.
func (e *Engine) TryCommit() (hash types.Hash, ok bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.proposal == nil {
		return types.Hash{}, false, nil
	}
	h := e.proposal.On.BlockHash
	bitset := e.votes.Bitset(e.height, e.curView, types.StepPrecommit, h, e.validators.Len())
	if !CheckEnoughVotes(bitset, e.validators.Len()) {
		return types.Hash{}, false, nil
	}

	votes := e.votes.VotesFor(e.height, e.curView, types.StepPrecommit, h, false)
	precommits := make([][]byte, bitset.Popcount())
	idx := 0
	for i := 0; i < e.validators.Len(); i++ {
		if !bitset.IsSet(i) {
			continue
		}
		for _, v := range votes {
			if v.SignerIndex == uint32(i) {
				precommits[idx] = v.Signature
				idx++
				break
			}
		}
	}

	e.pendingSeal = &types.TendermintSeal{
		PrevView:        e.prevFinalizedView,
		CurView:         e.curView,
		Precommits:      precommits,
		PrecommitBitset: bitset.Bytes(),
		VRFSeedInfo:     e.proposal.Seed,
	}
	e.curFinalizedView = e.curView
	e.step = types.StepCommit
	e.persistLocked()
	return h, true, nil
}

// AdvanceView increments the view and re-enters Propose with the next
// proposer, called when a step timer expires without the required
// supermajority.
func (e *Engine) AdvanceView() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.curView++
	e.step = types.StepPropose
	e.proposal = nil
	e.pendingSeal = nil
	e.persistLocked()
}

// AdvanceHeight is called once the block committed by TryCommit has
// actually been imported: it resets the engine to (height+1, view=0),
// rolls the VRF seed chain forward to the committed seal's seed,
// records the finalizing view, evicts the finished height's votes, and
// re-enters Propose.
func (e *Engine) AdvanceHeight(committedSeal *types.TendermintSeal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	finishedHeight := e.height
	e.height++
	e.curView = 0
	e.step = types.StepPropose
	e.prevSeed = committedSeal.VRFSeedInfo.Seed
	e.prevFinalizedView = e.curFinalizedView
	e.curFinalizedView = 0
	e.proposal = nil
	e.pendingSeal = nil
	e.votes.EvictHeight(finishedHeight)
	e.persistLocked()
}

// PendingSeal returns the seal TryCommit built for the current height,
// or nil if no supermajority has formed yet.
func (e *Engine) PendingSeal() *types.TendermintSeal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pendingSeal
}

// Height returns the height this engine is currently working on.
func (e *Engine) Height() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.height
}

// View returns the current view within Height().
func (e *Engine) View() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.curView
}

// prevSeedForHeight is VerifyExternal's view of the seed chain: since
// verification always runs against the already-imported parent, the
// engine's own e.prevSeed (rolled forward by the last AdvanceHeight)
// is exactly the seed that header's seal must have been derived from.
func (e *Engine) prevSeedForHeight(height uint64) types.Hash {
	return e.prevSeed
}

// persistLocked writes the current engine state to its backup record.
// Caller must hold e.mu.
func (e *Engine) persistLocked() {
	if e.backend == nil {
		return
	}
	_ = Write(e.backend, &Backup{
		Height:            e.height,
		View:              e.curView,
		Step:              e.step,
		Votes:             e.votes.All(),
		Proposal:          e.proposal,
		PrevFinalizedView: e.prevFinalizedView,
		CurFinalizedView:  e.curFinalizedView,
	})
}
