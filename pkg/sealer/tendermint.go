// Copyright 2026 The CodeChain-Go Authors

package sealer

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kode-chain/codechain-go/pkg/client"
	"github.com/kode-chain/codechain-go/pkg/consensus"
	"github.com/kode-chain/codechain-go/pkg/execution"
	"github.com/kode-chain/codechain-go/pkg/mempool"
	"github.com/kode-chain/codechain-go/pkg/tendermint"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// TendermintSealer drives one validator's *tendermint.Engine through
// its explicit Propose/Prevote/Precommit/TryCommit/AdvanceHeight state
// machine, the multi-step cycle GenerateSeal alone cannot complete the
// way Solo/PoA's single-call seal does.
//
// A genuine multi-validator deployment drives this same state machine
// from messages arriving over the network (ReceiveProposal,
// ReceivePrevote, ReceivePrecommit); a network transport is out of
// scope here, though pkg/p2p's extension registry is the seam a
// consensus-message extension would plug into to wire that up. Absent
// that transport, this sealer only drives a validator set of size
// one, where the local node's own Propose/Prevote/Precommit calls
// already self-record every vote the supermajority check needs
// (3*popcount > 2*n, trivially true at n=1). It refuses to run
// against a larger set rather than produce a block that silently
// never reaches real quorum.
type TendermintSealer struct {
	c       *client.Client
	engine  *tendermint.Engine
	pool    *mempool.Pool
	handler *execution.HandlerRegistry
	author  types.Address

	validatorCount int
	roundTimeout   time.Duration
	pollInterval   time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewTendermintSealer builds a driver for engine, whose validator set
// has validatorCount members; roundTimeout bounds how long a round
// waits for a polka before calling AdvanceView.
func NewTendermintSealer(c *client.Client, engine *tendermint.Engine, pool *mempool.Pool, handler *execution.HandlerRegistry, author types.Address, validatorCount int, roundTimeout time.Duration) *TendermintSealer {
	return &TendermintSealer{
		c:              c,
		engine:         engine,
		pool:           pool,
		handler:        handler,
		author:         author,
		validatorCount: validatorCount,
		roundTimeout:   roundTimeout,
		pollInterval:   200 * time.Millisecond,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

func (s *TendermintSealer) Start(ctx context.Context) { go s.run(ctx) }

func (s *TendermintSealer) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *TendermintSealer) run(ctx context.Context) {
	defer close(s.doneCh)
	if s.validatorCount != 1 {
		log.Warn().Int("validators", s.validatorCount).
			Msg("tendermint sealer: no network transport wired; refusing to drive a multi-validator set locally")
		return
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.tryRound(); err != nil {
				log.Warn().Err(err).Msg("tendermint sealer: round failed")
			}
		}
	}
}

// tryRound runs exactly one height if this node is the proposer for
// it; otherwise it is a no-op (there is nothing for an n=1 sealer to
// wait on besides its own turn).
func (s *TendermintSealer) tryRound() error {
	parent, parentHash := parentOf(s.c)
	if parent == nil {
		return nil // genesis not yet imported
	}
	if s.engine.SealsInternally(parent) != consensus.SealsInternallyNow {
		return nil
	}

	block, err := buildCandidate(s.c, s.engine, s.pool, s.handler, s.author, parentHash, parent)
	if err != nil {
		return err
	}

	if _, err := s.engine.Propose(block); err != nil {
		return err
	}
	if _, err := s.engine.Prevote(); err != nil {
		return err
	}
	if _, err := s.engine.Precommit(); err != nil {
		return err
	}
	_, ok, err := s.engine.TryCommit()
	if err != nil {
		return err
	}
	if !ok {
		// No polka even at n=1 means the single local vote didn't land
		// on this proposal (e.g. a nil prevote); advance the view and
		// let the next tick retry as the new round's proposer.
		s.engine.AdvanceView()
		return nil
	}

	seal, err := s.engine.GenerateSeal(block, parent)
	if err != nil {
		return err
	}
	block.Header.Seal = seal

	result, _, err := s.c.Import(block)
	if err != nil {
		return err
	}
	s.engine.AdvanceHeight(s.engine.PendingSeal())
	log.Info().Uint64("number", block.Header.Number).Int("result", int(result)).Msg("tendermint sealer: produced block")
	return nil
}
