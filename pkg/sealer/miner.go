// Copyright 2026 The CodeChain-Go Authors

package sealer

import (
	"context"
	"encoding/binary"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kode-chain/codechain-go/pkg/client"
	"github.com/kode-chain/codechain-go/pkg/consensus"
	"github.com/kode-chain/codechain-go/pkg/crypto"
	"github.com/kode-chain/codechain-go/pkg/execution"
	"github.com/kode-chain/codechain-go/pkg/mempool"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// powBlockInterval mirrors pkg/consensus's unexported
// defaultBlockInterval: the Δt denominator RecomputeScore measures a
// candidate's timestamp gap against. Both engines this module builds
// (NewBlakePoW, NewCuckoo) are constructed with that same default, so
// duplicating the constant here keeps the miner's own score
// computation consistent with what VerifyFamily will check.
const powBlockInterval = 1

// PoWSuite selects which of the two named hash functions the miner
// searches nonces against, matching pkg/consensus's unexported
// blakeHasher/cuckooHasher byte order exactly so a nonce this miner
// finds verifies under PoW.VerifyUnordered.
type PoWSuite string

const (
	SuiteBlake  PoWSuite = "blake"
	SuiteCuckoo PoWSuite = "cuckoo"
)

func powHash(suite PoWSuite, headerDigest, nonce []byte) [32]byte {
	if suite == SuiteCuckoo {
		return crypto.Blake256(nonce, headerDigest)
	}
	return crypto.Blake256(headerDigest, nonce)
}

// Miner drives a PoW engine, which always reports SealsExternally and
// leaves nonce-finding to an external worker. Miner is that worker: it
// builds a candidate the same way Sealer does, then searches nonces
// in-process rather than delegating to a stratum adapter, since no
// external mining pool integration is in scope here.
type Miner struct {
	c        *client.Client
	engine   consensus.Engine
	pool     *mempool.Pool
	handler  *execution.HandlerRegistry
	author   types.Address
	suite    PoWSuite
	minScore *big.Int

	interval   time.Duration
	nonceBatch uint64

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewMiner builds a Miner for engine (a *consensus.PoW built with
// NewBlakePoW or NewCuckoo, matching suite). interval bounds how long
// one nonce search attempt runs before the loop checks for a new best
// block to build on top of.
func NewMiner(c *client.Client, engine consensus.Engine, pool *mempool.Pool, handler *execution.HandlerRegistry, author types.Address, suite PoWSuite, interval time.Duration) *Miner {
	minScore := big.NewInt(1)
	if mc, ok := engine.(consensus.MinimumScore); ok {
		minScore = mc.MinimumScore()
	}
	return &Miner{
		c:          c,
		engine:     engine,
		pool:       pool,
		handler:    handler,
		author:     author,
		suite:      suite,
		minScore:   minScore,
		interval:   interval,
		nonceBatch: 1 << 20,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

func (m *Miner) Start(ctx context.Context) { go m.run(ctx) }

func (m *Miner) Stop() {
	close(m.stopCh)
	<-m.doneCh
}

func (m *Miner) run(ctx context.Context) {
	defer close(m.doneCh)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			if err := m.tryMine(); err != nil {
				log.Warn().Err(err).Msg("miner: block production attempt failed")
			}
		}
	}
}

// tryMine builds one candidate on top of the current best block and
// searches up to nonceBatch nonces for a hash under the candidate's
// target; a batch that exhausts without success simply waits for the
// next tick and rebuilds against whatever the chain head is by then.
func (m *Miner) tryMine() error {
	parent, parentHash := parentOf(m.c)
	if parent == nil {
		return nil // genesis not yet imported
	}

	block, err := buildCandidate(m.c, m.engine, m.pool, m.handler, m.author, parentHash, parent)
	if err != nil {
		return err
	}

	dt := int64(block.Header.Timestamp - parent.Timestamp)
	block.Header.Score = consensus.RecomputeScore(parent.Score, dt, powBlockInterval, m.minScore)
	target := consensus.ScoreToTarget(block.Header.Score)
	digest := block.Header.BareHash()

	nonce := make([]byte, 8)
	for i := uint64(0); i < m.nonceBatch; i++ {
		binary.BigEndian.PutUint64(nonce, i)
		h := powHash(m.suite, digest[:], nonce)
		if new(big.Int).SetBytes(h[:]).Cmp(target) <= 0 {
			block.Header.Seal = [][]byte{append([]byte(nil), nonce...)}
			result, _, err := m.c.Import(block)
			if err != nil {
				return err
			}
			log.Info().Uint64("number", block.Header.Number).Uint64("nonce", i).
				Int("result", int(result)).Msg("miner: found block")
			return nil
		}
	}
	return nil
}
