// Copyright 2026 The CodeChain-Go Authors

// Package client is the node's importer: the component that drives
// verified blocks from pkg/verification through pkg/execution against
// pkg/state, commits the result into pkg/blockchain's index, and fans
// the resulting ImportRoute out to the mempool and any other
// subscriber. It is also the concrete consensus.ChainView every
// engine queries back through (a one-way weak handle from engine to
// client) and the AccountView the mempool queries for seq lookups,
// both narrow adapters over the same underlying state and index
// rather than new concepts. The shape here is assembled from its
// collaborators' own interfaces rather than mirroring any one of them
// directly.
package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kode-chain/codechain-go/pkg/blockchain"
	"github.com/kode-chain/codechain-go/pkg/consensus"
	"github.com/kode-chain/codechain-go/pkg/errkind"
	"github.com/kode-chain/codechain-go/pkg/execution"
	"github.com/kode-chain/codechain-go/pkg/mempool"
	"github.com/kode-chain/codechain-go/pkg/metrics"
	"github.com/kode-chain/codechain-go/pkg/state"
	"github.com/kode-chain/codechain-go/pkg/storage"
	"github.com/kode-chain/codechain-go/pkg/trie"
	"github.com/kode-chain/codechain-go/pkg/types"
	"github.com/kode-chain/codechain-go/pkg/verification"
)

// Client owns the chain lock, a single read-write lock with the
// importer and reorg path as writers and every other component as a
// reader, and is the only place blocks are applied to state and
// committed to the index.
type Client struct {
	mu sync.RWMutex

	db       *trie.HashDB
	index    *blockchain.Index
	engine   consensus.Engine
	queue    *verification.Queue
	global   *state.GlobalCache
	pool     *mempool.Pool
	notify   *blockchain.Notifier
	handler  *execution.HandlerRegistry
	metrics  *metrics.Metrics
	invoices *blockchain.InvoiceStore
}

// New wires a Client over an already-open index and engine; the
// caller is expected to have called engine.RegisterClient(the
// returned *Client) immediately afterward (see NewAndRegister) so the
// engine's ChainView queries resolve against this same Client rather
// than a stale one.
func New(db *trie.HashDB, index *blockchain.Index, engine consensus.Engine, pool *mempool.Pool, handler *execution.HandlerRegistry) *Client {
	c := &Client{
		db:      db,
		index:   index,
		engine:  engine,
		global:  state.NewGlobalCache(4096),
		pool:    pool,
		notify:  blockchain.NewNotifier(),
		handler: handler,
	}
	c.queue = verification.New(engine, index, 4)
	return c
}

// NewAndRegister builds a Client and immediately registers it as the
// engine's ChainView, the usual construction path for a running node.
func NewAndRegister(db *trie.HashDB, index *blockchain.Index, engine consensus.Engine, pool *mempool.Pool, handler *execution.HandlerRegistry) *Client {
	c := New(db, index, engine, pool, handler)
	engine.RegisterClient(c)
	if pool != nil {
		c.Notifier().Subscribe(blockchain.ChainNotifyFunc(func(route *blockchain.ImportRoute) {
			c.reconcileMempool(route)
		}))
	}
	return c
}

// Notifier returns the subscriber hook fired after every ImportRoute
// (new best block or reorg) lands.
func (c *Client) Notifier() *blockchain.Notifier { return c.notify }

// AttachPool wires pool into a Client built via New (rather than
// NewAndRegister), completing the two-phase construction a server
// command needs when the pool's own AccountView is the Client itself:
// the pool cannot exist before the Client does, so New takes a nil
// pool and the caller attaches the real one once it has built it
// against this Client as its AccountView.
func (c *Client) AttachPool(pool *mempool.Pool) {
	c.mu.Lock()
	c.pool = pool
	c.mu.Unlock()
	c.notify.Subscribe(blockchain.ChainNotifyFunc(func(route *blockchain.ImportRoute) {
		c.reconcileMempool(route)
	}))
}

// AttachMetrics wires m into the Client so Import observes block
// import outcomes and latency as Prometheus series a running node's
// dashboard can watch.
func (c *Client) AttachMetrics(m *metrics.Metrics) {
	c.metrics = m
}

// AttachInvoiceStore wires the by-transaction-hash invoice index so
// every imported block's invoices also land under their own hashes,
// not just in the per-block list.
func (c *Client) AttachInvoiceStore(s *blockchain.InvoiceStore) {
	c.invoices = s
}

// Queue returns the verification queue blocks must clear before
// Import will accept them.
func (c *Client) Queue() *verification.Queue { return c.queue }

// --- consensus.ChainView ---

// Header satisfies consensus.ChainView, letting an engine look up an
// ancestor header (e.g. a parent's validator set) without depending
// on pkg/blockchain directly.
func (c *Client) Header(hash types.Hash) (*types.Header, error) {
	return c.index.Header(hash)
}

// Best satisfies consensus.ChainView.
func (c *Client) Best() types.Hash {
	return c.index.Best().Hash
}

// StateAt opens a read-only TopLevelState rooted at the state root
// recorded in hash's header, seeded from the shared global cache so
// repeated queries at the chain head amortise trie descents.
func (c *Client) StateAt(hash types.Hash) (*state.TopLevelState, error) {
	header, err := c.index.Header(hash)
	if err != nil {
		return nil, err
	}
	return state.New(c.db, header.StateRoot, c.global)
}

// --- mempool.AccountView ---

// Seq satisfies mempool.AccountView by reading addr's seq out of the
// state rooted at the current best block.
func (c *Client) Seq(addr types.Address) (uint64, error) {
	c.mu.RLock()
	best := c.index.Best()
	c.mu.RUnlock()
	if best.TotalScore == nil {
		return 0, nil
	}
	st, err := c.StateAt(best.Hash)
	if err != nil {
		return 0, err
	}
	acc, err := st.Account(addr)
	if err != nil {
		return 0, err
	}
	return acc.Seq, nil
}

// --- import pipeline ---

// Import verifies, applies and commits block, confirming that the
// state root produced by applying block.Transactions to the parent
// state under the engine's close hook equals block.Header.StateRoot
// before the block is ever written to the index. It is the sole
// writer of both state and the index, serialised by c.mu.
func (c *Client) Import(block *types.Block) (blockchain.InsertResult, *blockchain.ImportRoute, error) {
	start := time.Now()
	result, route, err := c.doImport(block)
	if c.metrics != nil {
		c.metrics.ImportSeconds.Observe(time.Since(start).Seconds())
		c.metrics.BlocksImported.WithLabelValues(importOutcomeLabel(result, err)).Inc()
	}
	return result, route, err
}

// doImport holds Import's original body; split out so the metrics
// wrapper above has a single call site to time regardless of which of
// Import's several error paths is taken.
func (c *Client) doImport(block *types.Block) (blockchain.InsertResult, *blockchain.ImportRoute, error) {
	item := c.queue.Enqueue(block)
	if err := item.Wait(context.Background()); err != nil {
		return 0, nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	hash := block.Hash()
	if _, err := c.index.Header(hash); err == nil {
		return blockchain.ResultNoChange, nil, nil // already imported
	}

	parent, err := c.index.Header(block.Header.ParentHash)
	if err != nil {
		return 0, nil, errkind.New(errkind.KindConsensus, "unknown_parent", err.Error())
	}
	if err := c.queue.VerifyRemaining(block, parent, c); err != nil {
		return 0, nil, err
	}

	st, err := c.stateForImport(parent)
	if err != nil {
		return 0, nil, err
	}

	invoices, err := c.applyBlock(st, block, parent)
	if err != nil {
		return 0, nil, err
	}

	root, err := st.Commit()
	if err != nil {
		return 0, nil, errkind.New(errkind.KindStorage, "commit", err.Error())
	}
	if root != block.Header.StateRoot {
		return 0, nil, errkind.New(errkind.KindConsensus, "state_root_mismatch",
			fmt.Sprintf("computed %x, header claims %x", root, block.Header.StateRoot))
	}

	result, route, err := c.index.Insert(&block.Header, block.Transactions, invoices)
	if err != nil {
		return 0, nil, errkind.New(errkind.KindStorage, "index_insert", err.Error())
	}
	if c.invoices != nil {
		if err := c.invoices.Record(invoices); err != nil {
			return 0, nil, errkind.New(errkind.KindStorage, "invoice_record", err.Error())
		}
	}

	log.Info().Uint64("number", block.Header.Number).Str("result", insertResultString(result)).Msg("client: imported block")

	if route != nil {
		if len(route.Retracted) > 0 {
			c.invalidateGlobalCache(route)
		}
		c.notify.Fire(route)
	}
	return result, route, nil
}

// invalidateGlobalCache replays a reorg's tree-route and drops every
// cross-block cache entry its transactions touched, so state opened at
// the new head never serves values cached on the retracted branch.
func (c *Client) invalidateGlobalCache(route *blockchain.ImportRoute) {
	var addrs []types.Address
	var shards []uint16
	seen := make(map[types.Address]struct{})
	record := func(a types.Address) {
		if _, ok := seen[a]; !ok {
			seen[a] = struct{}{}
			addrs = append(addrs, a)
		}
	}
	for _, hashes := range [][]types.Hash{route.Retracted, route.Enacted} {
		for _, h := range hashes {
			if header, err := c.index.Header(h); err == nil {
				record(header.Author)
			}
			txs, err := c.index.Body(h)
			if err != nil {
				continue
			}
			for _, tx := range txs {
				if signer, err := tx.Signer(); err == nil {
					record(signer)
				}
				switch a := tx.Action.(type) {
				case types.PayAction:
					record(a.Receiver)
				case types.AssetMintAction:
					shards = append(shards, a.ShardID)
				case types.AssetUnwrapCCCAction:
					record(a.Receiver)
					shards = append(shards, a.Input.Prevout.ShardID)
				}
			}
		}
	}
	c.global.InvalidateRoute(addrs, shards)
}

// stateForImport opens the parent's committed state, or a fresh
// genesis state if parent is nil (the first block this client has
// ever seen).
func (c *Client) stateForImport(parent *types.Header) (*state.TopLevelState, error) {
	root := types.Hash{}
	if parent != nil {
		root = parent.StateRoot
	}
	return state.New(c.db, root, c.global)
}

// applyBlock runs the engine's OnNewBlock hook, applies every
// transaction under its own checkpoint, then the engine's
// OnCloseBlock hook, all inside one outer checkpoint so a failure
// anywhere in the block-close sequence reverts the whole block
// atomically before Commit is ever called.
func (c *Client) applyBlock(st *state.TopLevelState, block *types.Block, parent *types.Header) ([]types.Invoice, error) {
	st.Checkpoint()

	if err := c.engine.OnNewBlock(&block.Header, parent); err != nil {
		st.RevertToCheckpoint()
		return nil, errkind.New(errkind.KindConsensus, "on_new_block", err.Error())
	}

	invoices := make([]types.Invoice, 0, len(block.Transactions))
	for _, tx := range block.Transactions {
		invoice, err := execution.Apply(st, tx, block.Header.Author, c.handler)
		if err != nil {
			st.RevertToCheckpoint()
			return nil, errkind.New(errkind.KindStorage, "apply_transaction", err.Error())
		}
		invoices = append(invoices, invoice)
	}

	if err := c.engine.OnCloseBlock(st, &block.Header); err != nil {
		st.RevertToCheckpoint()
		return nil, errkind.New(errkind.KindConsensus, "on_close_block", err.Error())
	}

	if err := st.DiscardCheckpoint(); err != nil {
		return nil, errkind.New(errkind.KindStorage, "discard_checkpoint", err.Error())
	}
	return invoices, nil
}

// reconcileMempool applies the pool's chain-event rules after a block
// lands: retracted transactions are re-introduced before the new
// head's own transactions are removed, so a flip never loses one
// that appears on both branches. An appended block carries no
// Retracted, so this degenerates to a plain mined-set removal in the
// common case.
func (c *Client) reconcileMempool(route *blockchain.ImportRoute) {
	if c.pool == nil || route == nil {
		return
	}
	var retractedTxs, enactedTxs []*types.Transaction
	for _, h := range route.Retracted {
		txs, err := c.index.Body(h)
		if err != nil {
			continue
		}
		retractedTxs = append(retractedTxs, txs...)
	}
	for _, h := range route.Enacted {
		txs, err := c.index.Body(h)
		if err != nil {
			continue
		}
		enactedTxs = append(enactedTxs, txs...)
	}
	if len(retractedTxs) > 0 {
		c.pool.OnReorg(retractedTxs, enactedTxs)
		return
	}
	mined := make([]types.Hash, 0, len(enactedTxs))
	for _, tx := range enactedTxs {
		if h, err := tx.Hash(); err == nil {
			mined = append(mined, h)
		}
	}
	c.pool.OnNewBlock(mined)
}

func insertResultString(r blockchain.InsertResult) string {
	switch r {
	case blockchain.ResultAppended:
		return "appended"
	case blockchain.ResultBranchBecameCanonical:
		return "branch_became_canonical"
	default:
		return "no_change"
	}
}

// importOutcomeLabel is insertResultString's counterpart for the
// Prometheus label set: a rejected block has no meaningful
// InsertResult, so an error takes priority over the (always zero)
// result value in that case.
func importOutcomeLabel(r blockchain.InsertResult, err error) string {
	if err != nil {
		return "rejected"
	}
	return insertResultString(r)
}

// GenesisState opens the empty-root state used to build the genesis
// block (number 0, no parent), wiring the initial account balances a
// chain spec provides.
func GenesisState(db *trie.HashDB) (*state.TopLevelState, error) {
	return state.New(db, types.Hash{}, nil)
}

// ImportGenesis writes block directly into the index with no
// verification queue and no engine hooks: block 0 has no parent to
// verify a family/external phase against, and its state root is
// expected to already reflect whatever allocation state the caller
// committed into st (see GenesisState) before calling this. Only
// valid when the index is empty; returns an error otherwise.
func (c *Client) ImportGenesis(block *types.Block, st *state.TopLevelState) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index.Best().TotalScore != nil {
		return errkind.New(errkind.KindConsensus, "genesis_already_set", "")
	}
	root, err := st.Commit()
	if err != nil {
		return errkind.New(errkind.KindStorage, "commit", err.Error())
	}
	if root != block.Header.StateRoot {
		return errkind.New(errkind.KindConsensus, "state_root_mismatch",
			fmt.Sprintf("computed %x, header claims %x", root, block.Header.StateRoot))
	}
	invoices := make([]types.Invoice, 0)
	if _, _, err := c.index.Insert(&block.Header, block.Transactions, invoices); err != nil {
		return errkind.New(errkind.KindStorage, "index_insert", err.Error())
	}
	return nil
}

// OpenHashDB is a small convenience constructor so callers outside
// this package (cmd/codechain) don't need to import pkg/trie directly
// just to stand up a Client.
func OpenHashDB(backend storage.Backend, cacheSize int) *trie.HashDB {
	return trie.NewHashDB(backend, cacheSize)
}
