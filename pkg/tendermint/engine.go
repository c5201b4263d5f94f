// Copyright 2026 The CodeChain-Go Authors

// Package tendermint implements the principal Tendermint-style BFT
// consensus engine: a from-scratch state machine over
// Propose/Prevote/Precommit/Commit, its own vote pool and regression
// guard, VRF-seeded leader randomness, and crash-recovery backup. It
// satisfies the consensus.Engine contract like Solo, SimplePoA and PoW
// do, so an importer drives it through the same uniform interface.
package tendermint

import (
	"crypto/ecdsa"
	"math/big"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kode-chain/codechain-go/pkg/consensus"
	"github.com/kode-chain/codechain-go/pkg/state"
	"github.com/kode-chain/codechain-go/pkg/storage"
	"github.com/kode-chain/codechain-go/pkg/types"
)

const tendermintSealFields = 1

// maxExtraDataSize mirrors consensus.MaxExtraDataSize; kept local so
// this package doesn't need to import consensus just for a constant
// every engine happens to share.
const maxExtraDataSize = consensus.MaxExtraDataSize

// Engine drives one validator's view of the BFT state machine. It is
// not internally goroutine-driven: step timers live on the
// miner/sealer thread, outside this package, so
// Propose/Prevote/Precommit/AdvanceView are called explicitly by that
// driver (or, in tests, directly) rather than firing off their own
// timers.
type Engine struct {
	mu sync.Mutex

	validators *ValidatorSet
	signer     Signer
	vrfKey     *ecdsa.PrivateKey
	selfIndex  int // -1 for an observer node that never proposes or votes

	votes     *VotePool
	regress   *RegressionChecker
	backend   storage.Backend
	sortition *Sortition

	view consensus.ChainView

	height            uint64
	curView           uint64
	step              types.Step
	proposal          *types.Proposal
	prevSeed          types.Hash
	prevFinalizedView uint64
	curFinalizedView  uint64
	pendingSeal       *types.TendermintSeal
}

// NewEngine builds an Engine for validators, signing with signer and
// vrfKey if selfIndex >= 0 (an observer passes selfIndex -1 and nil
// key/signer and never proposes or votes). genesisSeed seeds the VRF
// chain for height 1.
func NewEngine(validators *ValidatorSet, signer Signer, vrfKey *ecdsa.PrivateKey, selfIndex int, backend storage.Backend, genesisSeed types.Hash) *Engine {
	e := &Engine{
		validators: validators,
		signer:     signer,
		vrfKey:     vrfKey,
		selfIndex:  selfIndex,
		votes:      NewVotePool(),
		regress:    NewRegressionChecker(),
		backend:    backend,
		height:     1,
		curView:    0,
		step:       types.StepPropose,
		prevSeed:   genesisSeed,
	}
	if backup, err := Read(backend); err == nil {
		e.height = backup.Height
		e.curView = backup.View
		e.step = backup.Step
		e.proposal = backup.Proposal
		e.prevFinalizedView = backup.PrevFinalizedView
		e.curFinalizedView = backup.CurFinalizedView
		for i := range backup.Votes {
			e.votes.Add(&backup.Votes[i])
		}
		if backup.Step == types.StepCommit {
			// A crash recorded mid-Commit cannot be trusted to have
			// actually finished importing its block, so recovery backs
			// off one step and requires the precommit supermajority to
			// be re-confirmed before this node treats the block as
			// final again.
			log.Warn().
				Uint64("height", e.height).
				Uint64("view", e.curView).
				Msg("tendermint: recovered backup was mid-Commit; re-confirming before finalizing")
			e.step = types.StepPrecommit
		}
	}
	return e
}

// SetSortition switches proposer selection from the round-robin
// schedule to VRF priority sortition: any validator whose binomial
// draw wins at least one sub-user may propose, and among competing
// proposals the highest priority scalar is kept. Must be called
// before the engine starts driving rounds.
func (e *Engine) SetSortition(s *Sortition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sortition = s
}

func (e *Engine) Name() string { return "tendermint" }

func (e *Engine) SealFields(header *types.Header) int { return tendermintSealFields }

// SealsInternally reports SealsInternallyNow only once this engine has
// itself advanced to the height parent implies and holds the proposer
// slot for (height, curView); SealsInternallyNotNow otherwise, never
// SealsExternally (BFT never delegates sealing to an outside worker).
func (e *Engine) SealsInternally(parent *types.Header) consensus.SealsInternally {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selfIndex < 0 || e.height != parent.Number+1 {
		return consensus.SealsInternallyNotNow
	}
	if e.isProposerLocked() {
		return consensus.SealsInternallyNow
	}
	return consensus.SealsInternallyNotNow
}

// GenerateSeal returns the committed TendermintSeal once TryCommit has
// gathered a precommit supermajority for this height; BFT sealing is
// not a single-call operation like PoA/PoW's, so this only succeeds
// after the full propose/prevote/precommit dance the driver runs
// through Propose/Prevote/Precommit/TryCommit has completed.
func (e *Engine) GenerateSeal(block *types.Block, parent *types.Header) ([][]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pendingSeal == nil {
		return nil, ErrNotCommitted
	}
	return types.EncodeSeal(e.pendingSeal)
}

func (e *Engine) VerifyBasic(header *types.Header) error {
	if len(header.Seal) != tendermintSealFields {
		return consensus.ErrWrongSealArity
	}
	if len(header.Extra) > maxExtraDataSize {
		return consensus.ErrExtraDataTooLarge
	}
	return nil
}

// VerifyUnordered checks the seal's internal shape: precommits length
// must equal the bitset's popcount.
func (e *Engine) VerifyUnordered(header *types.Header) error {
	seal, err := types.DecodeSeal(header.Seal)
	if err != nil {
		return err
	}
	bitset := DecodeBitset(seal.PrecommitBitset, e.validators.Len())
	if bitset.Popcount() != len(seal.Precommits) {
		return ErrMalformedSeal
	}
	return nil
}

func (e *Engine) VerifyFamily(header, parent *types.Header) error {
	if header.Timestamp < parent.Timestamp {
		return consensus.ErrTimestampOutOfRange
	}
	want := new(big.Int).Add(parent.Score, big.NewInt(1))
	if header.Score.Cmp(want) != 0 {
		return consensus.ErrScoreMismatch
	}
	return nil
}

// VerifyExternal is the BFT-specific end-of-queue check: every signer
// in the seal's bitset is a known validator at this height, its
// signature verifies over the precommit VoteOn, and the supermajority
// predicate holds.
func (e *Engine) VerifyExternal(header *types.Header, view consensus.ChainView) error {
	seal, err := types.DecodeSeal(header.Seal)
	if err != nil {
		return err
	}
	bitset := DecodeBitset(seal.PrecommitBitset, e.validators.Len())
	if !CheckEnoughVotes(bitset, e.validators.Len()) {
		return ErrNoQuorum
	}

	on := types.VoteOn{
		Step:      types.VoteStep{Height: header.Number, View: seal.CurView, Step: types.StepPrecommit},
		BlockHash: header.BareHash(),
		IsNil:     false,
	}
	msg := voteMessage(on)

	sigIdx := 0
	for i := 0; i < e.validators.Len(); i++ {
		if !bitset.IsSet(i) {
			continue
		}
		val, ok := e.validators.InfoAt(i)
		if !ok {
			return ErrUnknownSigner
		}
		ok, err := VerifyVote(val.VoteScheme, signerPubKeyBytes(val), domainPrecommit, msg, seal.Precommits[sigIdx])
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidVoteSignature
		}
		sigIdx++
	}
	return VerifySeed(e.validators, seal.VRFSeedInfo, e.prevSeedForHeight(header.Number), header.Number, seal.CurView)
}

func signerPubKeyBytes(v ValidatorInfo) []byte {
	if v.VoteScheme == SchemeBLS && v.BLSKey != nil {
		return v.BLSKey.Bytes()
	}
	return []byte(v.Ed25519Key)
}

// OnNewBlock stamps a BFT header's score as parent.Score + 1: BFT
// blocks don't compete on weight the way PoW chains do (finality is
// absolute once a seal commits), but the blockchain index still
// compares scores to order forks it hasn't yet pruned, so score simply
// tracks height.
func (e *Engine) OnNewBlock(header *types.Header, parent *types.Header) error {
	if parent == nil {
		header.Score = big.NewInt(1)
		return nil
	}
	header.Score = new(big.Int).Add(parent.Score, big.NewInt(1))
	return nil
}

// OnCloseBlock is a no-op: the BFT engine does not specify a block
// reward the way Solo does.
func (e *Engine) OnCloseBlock(s *state.TopLevelState, header *types.Header) error { return nil }

func (e *Engine) RegisterClient(view consensus.ChainView) { e.view = view }

func (e *Engine) PossibleAuthors(height uint64) ([]types.Address, error) {
	return e.validators.Validators(height)
}

func (e *Engine) RecommendedConfirmations() uint64 { return 0 }
