// Copyright 2026 The CodeChain-Go Authors

// Package verification implements the node's four-phase
// block-verification pipeline: a single entry point per phase
// dispatching to the engine's own check for that phase, each
// returning a typed error so invalid blocks are rejected as cheaply
// as possible. Phase 2 (signature-bearing checks) runs on a worker
// pool so it pipelines across blocks instead of blocking the network
// thread.
package verification

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kode-chain/codechain-go/pkg/consensus"
	"github.com/kode-chain/codechain-go/pkg/errkind"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// Phase identifies one of the pipeline's four verification stages.
type Phase int

const (
	PhaseBasic Phase = iota
	PhaseUnordered
	PhaseFamily
	PhaseExternal
)

func (p Phase) String() string {
	switch p {
	case PhaseBasic:
		return "basic"
	case PhaseUnordered:
		return "unordered"
	case PhaseFamily:
		return "family"
	case PhaseExternal:
		return "external"
	default:
		return "unknown"
	}
}

// ParentLookup resolves a header's parent header for the family/
// external phases; satisfied by the blockchain index.
type ParentLookup interface {
	Header(hash types.Hash) (*types.Header, error)
}

// Rejection is returned when a block fails one of the four phases: it
// names which phase failed, wraps the engine's error as a typed
// errkind.Error, and records whether the supplying peer should be
// penalised. Every phase failure results in the block being rejected
// with a category, and the peer that supplied it penalised.
type Rejection struct {
	Phase    Phase
	Err      error
	Penalise bool
}

func (r *Rejection) Error() string { return r.Err.Error() }
func (r *Rejection) Unwrap() error { return r.Err }

func rejection(phase Phase, err error) *Rejection {
	// Every phase failure here is a consensus-kind error (seal
	// signature invalid, signer not in validator set, score mismatch)
	// except basic, which is syntactic; both kinds penalise the peer.
	kind := errkind.KindConsensus
	if phase == PhaseBasic {
		kind = errkind.KindSyntactic
	}
	return &Rejection{
		Phase:    phase,
		Err:      errkind.New(kind, phase.String(), err.Error()),
		Penalise: true,
	}
}

// VerifyBasic runs phase 1: header well-formedness plus the engine's
// own basic check and, if the engine advertises a MinimumScore floor,
// a score-floor check.
func VerifyBasic(engine consensus.Engine, header *types.Header) error {
	if len(header.Seal) != engine.SealFields(header) {
		return rejection(PhaseBasic, consensus.ErrWrongSealArity)
	}
	if len(header.Extra) > consensus.MaxExtraDataSize {
		return rejection(PhaseBasic, consensus.ErrExtraDataTooLarge)
	}
	if mc, ok := engine.(consensus.MinimumScore); ok {
		if header.Score.Cmp(mc.MinimumScore()) < 0 {
			return rejection(PhaseBasic, consensus.ErrScoreTooLow)
		}
	}
	if err := engine.VerifyBasic(header); err != nil {
		return rejection(PhaseBasic, err)
	}
	return nil
}

// VerifyUnordered runs phase 2: the engine's signature/PoW/VRF checks
// that need no parent context.
func VerifyUnordered(engine consensus.Engine, header *types.Header) error {
	if err := engine.VerifyUnordered(header); err != nil {
		return rejection(PhaseUnordered, err)
	}
	return nil
}

// VerifyFamily runs phase 3: checks against parent (timestamp
// ordering, score recomputation, parent-seal references).
func VerifyFamily(engine consensus.Engine, header, parent *types.Header) error {
	if err := engine.VerifyFamily(header, parent); err != nil {
		return rejection(PhaseFamily, err)
	}
	return nil
}

// VerifyExternal runs phase 4: the engine-specific end-of-queue check
// (PoA signer membership, BFT validator-set membership).
func VerifyExternal(engine consensus.Engine, header *types.Header, view consensus.ChainView) error {
	if err := engine.VerifyExternal(header, view); err != nil {
		return rejection(PhaseExternal, err)
	}
	return nil
}

// Item is one block in flight through the queue.
type Item struct {
	Block *types.Block
	// done is closed once the item has cleared the unordered phase or
	// been rejected; Err holds the rejection, if any.
	Err  error
	done chan struct{}
}

// Wait blocks until the item has cleared unordered verification (the
// pipelined phase), returning its error if rejected.
func (it *Item) Wait(ctx context.Context) error {
	select {
	case <-it.done:
		return it.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Queue is the pipelined verifier: basic runs synchronously on
// Enqueue (cheap, ingress thread), unordered runs on a worker pool
// (signature/PoW work, never blocking the network thread), and
// family/external are left for the importer to run itself once it has
// the chain lock and a resolved parent.
type Queue struct {
	engine consensus.Engine
	chain  ParentLookup

	jobs chan *Item
	wg   sync.WaitGroup
}

// New builds a Queue with the given number of unordered-phase workers
// (default 4). A worker pool sized for deep trie operations is a
// statement about goroutine call depth in Go, not a literal stack
// allocation, so it isn't modelled here.
func New(engine consensus.Engine, chain ParentLookup, workers int) *Queue {
	if workers <= 0 {
		workers = 4
	}
	q := &Queue{engine: engine, chain: chain, jobs: make(chan *Item, 256)}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for it := range q.jobs {
		if it.Err == nil {
			it.Err = VerifyUnordered(q.engine, &it.Block.Header)
		}
		close(it.done)
	}
}

// Enqueue runs phase 1 synchronously and, if it passes, schedules
// phase 2 on the worker pool. The returned Item's Wait unblocks once
// phase 2 completes (or phase 1 rejected it immediately).
func (q *Queue) Enqueue(block *types.Block) *Item {
	it := &Item{Block: block, done: make(chan struct{})}
	if err := VerifyBasic(q.engine, &block.Header); err != nil {
		it.Err = err
		close(it.done)
		log.Debug().Err(err).Uint64("number", block.Header.Number).Msg("verification: basic phase rejected block")
		return it
	}
	q.jobs <- it
	return it
}

// VerifyRemaining runs phases 3 and 4 against the already-resolved
// parent and chain view; callers hold the chain lock at this point.
func (q *Queue) VerifyRemaining(block *types.Block, parent *types.Header, view consensus.ChainView) error {
	if err := VerifyFamily(q.engine, &block.Header, parent); err != nil {
		return err
	}
	return VerifyExternal(q.engine, &block.Header, view)
}

// Close stops accepting new items and waits for in-flight unordered
// work to finish.
func (q *Queue) Close() {
	close(q.jobs)
	q.wg.Wait()
}
