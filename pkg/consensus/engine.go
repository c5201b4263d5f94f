// Copyright 2026 The CodeChain-Go Authors

// Package consensus defines the pluggable consensus-engine contract
// and its simpler implementations (Solo, SimplePoA, the PoW engines);
// the principal Tendermint-style BFT engine lives in the sibling
// pkg/tendermint package, itself an implementation of Engine.
package consensus

import (
	"math/big"

	"github.com/kode-chain/codechain-go/pkg/state"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// ChainView is the narrow read-only interface an Engine queries the
// chain through, resolving the cyclic client/engine ownership: a
// one-way weak handle from engine back to client, even though the
// client owns the engine. Modelled here as a plain interface rather
// than an actual weak pointer, since Go has no native weak-reference
// primitive; RegisterClient's doc comment below records the intended
// discipline for callers.
type ChainView interface {
	Header(hash types.Hash) (*types.Header, error)
	Best() types.Hash
	StateAt(hash types.Hash) (*state.TopLevelState, error)
}

// SealsInternally tri-states whether this node is responsible for
// producing the next seal itself: external (an external PoW worker),
// internally now (this node is a proposer right now), or internally
// but not yet (not its turn).
type SealsInternally int

const (
	// SealsExternally means an external worker (a PoW miner) produces
	// the seal; the engine itself never calls GenerateSeal.
	SealsExternally SealsInternally = iota
	SealsInternallyNow
	SealsInternallyNotNow
)

// Engine is the uniform interface every consensus implementation
// satisfies.
type Engine interface {
	Name() string

	// SealFields reports how many RLP items this engine's seal
	// occupies in a header, so the basic verification phase can
	// reject a header with the wrong seal arity before doing any
	// engine-specific work.
	SealFields(header *types.Header) int

	// SealsInternally reports, for the block about to be built on top
	// of parent, whether this node is the one responsible for sealing
	// it right now.
	SealsInternally(parent *types.Header) SealsInternally

	// GenerateSeal produces the seal for a candidate block built on
	// top of parent. Only called when SealsInternally reports
	// SealsInternallyNow.
	GenerateSeal(block *types.Block, parent *types.Header) ([][]byte, error)

	VerifyBasic(header *types.Header) error
	VerifyUnordered(header *types.Header) error
	VerifyFamily(header, parent *types.Header) error
	VerifyExternal(header *types.Header, view ChainView) error

	// OnNewBlock lets the engine adjust a candidate block's header
	// before transactions are applied (e.g. stamping extra data).
	OnNewBlock(header *types.Header, parent *types.Header) error
	// OnCloseBlock runs the engine's own state mutation after every
	// transaction has been applied, before the block is committed
	// (reward distribution, validator-set rotation).
	OnCloseBlock(s *state.TopLevelState, header *types.Header) error

	// RegisterClient installs view as the ChainView this engine
	// queries for validator-set membership and ancestor headers. The
	// client (importer) owns the engine and calls this once after
	// construction; the engine must not retain view beyond what it
	// needs for the lifetime of the node, keeping to the weak-handle
	// discipline ChainView's own doc comment describes.
	RegisterClient(view ChainView)

	// PossibleAuthors lists the addresses allowed to author a block at
	// height, or nil if the engine does not restrict authorship
	// (PoW engines return nil; PoA and BFT return the signer/validator
	// set).
	PossibleAuthors(height uint64) ([]types.Address, error)

	// RecommendedConfirmations is how many blocks deep a client should
	// wait before treating a block as final.
	RecommendedConfirmations() uint64
}

// MinimumScore is the per-engine floor the basic verification phase
// checks a header's score against.
type MinimumScore interface {
	MinimumScore() *big.Int
}
