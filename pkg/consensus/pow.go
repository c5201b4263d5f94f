// Copyright 2026 The CodeChain-Go Authors

package consensus

import (
	"math/big"

	"github.com/kode-chain/codechain-go/pkg/crypto"
	"github.com/kode-chain/codechain-go/pkg/state"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// maxScore is the PoW suites' score ceiling, the MAX in the
// score_to_target formula.
var maxScore = new(big.Int).Lsh(big.NewInt(1), 256)

const powSealFields = 1 // a single nonce element

// PoWHasher abstracts the one step BlakePoW and Cuckoo differ in:
// hashing a header's bare digest plus a nonce into a proof-of-work
// digest. Both are alternate implementations of the engine interface;
// this interface is what lets them share every other line of PoW.
type PoWHasher interface {
	Name() string
	PoWHash(headerDigest []byte, nonce []byte) []byte
}

// blakeHasher hashes with Blake256, the cheapest of the two named PoW
// suites.
type blakeHasher struct{}

func (blakeHasher) Name() string { return "blake_pow" }
func (blakeHasher) PoWHash(headerDigest, nonce []byte) []byte {
	h := crypto.Blake256(headerDigest, nonce)
	return h[:]
}

// cuckooHasher stands in for Cuckoo Cycle: a memory-hard PoW whose
// actual graph-cycle search is out of scope here (an engine only
// needs to satisfy the interface, not a specific ASIC-resistant proof
// construction), so it is modelled as an independent hash function,
// exercising VerifyUnordered's target-comparison logic identically to
// BlakePoW.
type cuckooHasher struct{}

func (cuckooHasher) Name() string { return "cuckoo" }
func (cuckooHasher) PoWHash(headerDigest, nonce []byte) []byte {
	h := crypto.Blake256(nonce, headerDigest)
	return h[:]
}

// NewBlakePoW and NewCuckoo are the two named PoW engines.
func NewBlakePoW(author types.Address, blockReward *big.Int) *PoW {
	return newPoW(blakeHasher{}, author, blockReward)
}

func NewCuckoo(author types.Address, blockReward *big.Int) *PoW {
	return newPoW(cuckooHasher{}, author, blockReward)
}

// PoW implements Engine for both named external-PoW suites, sharing
// score-recomputation and target-comparison logic and differing only
// in PoWHasher.
type PoW struct {
	hasher        PoWHasher
	author        types.Address
	blockReward   *big.Int
	blockInterval int64
	minScore      *big.Int
	view          ChainView
}

// defaultBlockInterval is the target spacing RecomputeScore measures
// Δt against when a PoW engine is constructed with the package-level
// NewBlakePoW/NewCuckoo helpers.
const defaultBlockInterval = 1

func newPoW(hasher PoWHasher, author types.Address, blockReward *big.Int) *PoW {
	return &PoW{hasher: hasher, author: author, blockReward: blockReward, blockInterval: defaultBlockInterval, minScore: big.NewInt(1)}
}

func (p *PoW) Name() string { return p.hasher.Name() }

func (p *PoW) SealFields(header *types.Header) int { return powSealFields }

// SealsInternally is always SealsExternally: an external PoW worker
// (a stratum adapter, out of scope here) is responsible for finding
// the nonce, not this node's own sealer thread.
func (p *PoW) SealsInternally(parent *types.Header) SealsInternally { return SealsExternally }

func (p *PoW) GenerateSeal(block *types.Block, parent *types.Header) ([][]byte, error) {
	return nil, ErrNotProposer
}

func (p *PoW) VerifyBasic(header *types.Header) error {
	if len(header.Seal) != powSealFields {
		return ErrWrongSealArity
	}
	if len(header.Extra) > MaxExtraDataSize {
		return ErrExtraDataTooLarge
	}
	return nil
}

// VerifyUnordered checks the PoW nonce against the target the
// header's own declared score implies: the seal hash is tested
// against a target derived from score_to_target = (MAX - score) /
// score.
func (p *PoW) VerifyUnordered(header *types.Header) error {
	target := ScoreToTarget(header.Score)
	digest := header.BareHash()
	powHash := p.hasher.PoWHash(digest[:], header.Seal[0])
	if new(big.Int).SetBytes(powHash).Cmp(target) > 0 {
		return ErrInvalidSealSignature
	}
	return nil
}

// ScoreToTarget computes (MAX - score) / score, the formula mapping a
// claimed score to the hash target a valid nonce must fall under.
func ScoreToTarget(score *big.Int) *big.Int {
	if score.Sign() <= 0 {
		return big.NewInt(0)
	}
	num := new(big.Int).Sub(maxScore, score)
	return num.Div(num, score)
}

// RecomputeScore applies an EMA-style difficulty adjustment: diff =
// Δt/interval; when diff <= 1 the score gains parent_score/2048 ×
// (1 − diff) (at diff = 0, the full bonus; at diff = 1, no change);
// otherwise it loses parent_score/2048 × min(diff − 1, 99), so the
// penalty saturates once blocks arrive 100 intervals late or more.
// minScore floors the result so the chain can't stall at a score too
// low for any miner to clear.
func RecomputeScore(parentScore *big.Int, dt, interval int64, minScore *big.Int) *big.Int {
	if interval <= 0 {
		interval = 1
	}
	diff := dt / interval
	var score *big.Int
	if diff <= 1 {
		delta := new(big.Int).Div(parentScore, big.NewInt(2048))
		delta.Mul(delta, big.NewInt(1-diff))
		score = new(big.Int).Add(parentScore, delta)
	} else {
		penalty := diff - 1
		if penalty > 99 {
			penalty = 99
		}
		delta := new(big.Int).Div(parentScore, big.NewInt(2048))
		delta.Mul(delta, big.NewInt(penalty))
		score = new(big.Int).Sub(parentScore, delta)
	}
	if minScore != nil && score.Cmp(minScore) < 0 {
		return new(big.Int).Set(minScore)
	}
	return score
}

func (p *PoW) VerifyFamily(header, parent *types.Header) error {
	if header.Timestamp < parent.Timestamp {
		return ErrTimestampOutOfRange
	}
	want := RecomputeScore(parent.Score, int64(header.Timestamp-parent.Timestamp), p.blockInterval, p.minScore)
	if header.Score.Cmp(want) != 0 {
		return ErrScoreMismatch
	}
	return nil
}

// MinimumScore implements the optional MinimumScore interface.
func (p *PoW) MinimumScore() *big.Int { return p.minScore }

func (p *PoW) VerifyExternal(header *types.Header, view ChainView) error { return nil }

func (p *PoW) OnNewBlock(header *types.Header, parent *types.Header) error { return nil }

func (p *PoW) OnCloseBlock(s *state.TopLevelState, header *types.Header) error {
	acc, err := s.Account(header.Author)
	if err != nil {
		return err
	}
	acc.Balance = new(big.Int).Add(acc.Balance, p.blockReward)
	s.SetAccount(header.Author, acc)
	return nil
}

func (p *PoW) RegisterClient(view ChainView) { p.view = view }

// PossibleAuthors returns nil, nil: PoW has no fixed or closed author
// set, so there is no list to return, and that is intentional rather
// than an unfinished implementation. Any address that finds a valid
// nonce may author a block.
func (p *PoW) PossibleAuthors(height uint64) ([]types.Address, error) { return nil, nil }

func (p *PoW) RecommendedConfirmations() uint64 { return 6 }
