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
	"github.com/kode-chain/codechain-go/pkg/types"
)

// Sealer drives engines whose GenerateSeal is a single-call operation
// once SealsInternally reports SealsInternallyNow: Solo (always) and
// SimplePoA (on this node's round-robin turn). PoW's engine always
// reports SealsExternally and needs the separate Miner; Tendermint's
// seal depends on a multi-step vote cycle and needs TendermintSealer.
type Sealer struct {
	c       *client.Client
	engine  consensus.Engine
	pool    *mempool.Pool
	handler *execution.HandlerRegistry
	author  types.Address

	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New builds a Sealer that checks for its turn every interval.
func New(c *client.Client, engine consensus.Engine, pool *mempool.Pool, handler *execution.HandlerRegistry, author types.Address, interval time.Duration) *Sealer {
	return &Sealer{
		c:        c,
		engine:   engine,
		pool:     pool,
		handler:  handler,
		author:   author,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the sealer loop in its own goroutine until ctx is
// cancelled or Stop is called.
func (s *Sealer) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop signals the loop to exit and waits for it to do so.
func (s *Sealer) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *Sealer) run(ctx context.Context) {
	defer close(s.doneCh)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.tryProduce(); err != nil {
				log.Warn().Err(err).Msg("sealer: block production attempt failed")
			}
		}
	}
}

func (s *Sealer) tryProduce() error {
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
	seal, err := s.engine.GenerateSeal(block, parent)
	if err != nil {
		return err
	}
	block.Header.Seal = seal

	result, _, err := s.c.Import(block)
	if err != nil {
		return err
	}
	log.Info().Uint64("number", block.Header.Number).Int("result", int(result)).Msg("sealer: produced block")
	return nil
}
