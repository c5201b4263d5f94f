// Copyright 2026 The CodeChain-Go Authors

// Package sealer is the node's block producer: it polls the
// configured consensus engine for its turn to seal, assembles a
// candidate from the mempool's ready queue, and drives it through to
// Import. Its run loop is a ticker plus a select over a stop channel
// driving a periodic background action.
package sealer

import (
	"math/big"
	"time"

	"github.com/kode-chain/codechain-go/pkg/client"
	"github.com/kode-chain/codechain-go/pkg/consensus"
	"github.com/kode-chain/codechain-go/pkg/execution"
	"github.com/kode-chain/codechain-go/pkg/mempool"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// buildCandidate assembles a candidate block on top of parent (nil
// for the first block after genesis), applying every ready mempool
// transaction under its own checkpoint so a transaction whose Apply
// returns an error is dropped from the candidate and invalidated in
// the pool rather than aborting the whole block, mirroring
// client.applyBlock's per-transaction checkpoint discipline. A
// transaction that fails at runtime gets a failed invoice from Apply,
// not an error, and stays in the candidate.
func buildCandidate(c *client.Client, engine consensus.Engine, pool *mempool.Pool, handler *execution.HandlerRegistry, author types.Address, parentHash types.Hash, parent *types.Header) (*types.Block, error) {
	st, err := c.StateAt(parentHash)
	if err != nil {
		return nil, err
	}

	header := &types.Header{
		ParentHash: parentHash,
		Author:     author,
		Timestamp:  uint64(time.Now().Unix()),
	}
	if parent == nil {
		header.Number = 0
		header.Score = big.NewInt(1)
	} else {
		header.Number = parent.Number + 1
		header.Score = new(big.Int).Add(parent.Score, big.NewInt(1))
	}

	if err := engine.OnNewBlock(header, parent); err != nil {
		return nil, err
	}

	var txs []*types.Transaction
	invoices := make([]types.Invoice, 0)
	for _, e := range pool.Ready() {
		st.Checkpoint()
		invoice, err := execution.Apply(st, e.Tx, author, handler)
		if err != nil {
			st.RevertToCheckpoint()
			pool.Invalidate(e.Hash)
			continue
		}
		if err := st.DiscardCheckpoint(); err != nil {
			return nil, err
		}
		txs = append(txs, e.Tx)
		invoices = append(invoices, invoice)
	}

	if err := engine.OnCloseBlock(st, header); err != nil {
		return nil, err
	}

	root, err := st.Commit()
	if err != nil {
		return nil, err
	}
	header.StateRoot = root

	txRoot, err := types.ComputeTransactionsRoot(txs)
	if err != nil {
		return nil, err
	}
	header.TransactionsRoot = txRoot

	invRoot, err := types.ComputeInvoicesRoot(invoices)
	if err != nil {
		return nil, err
	}
	header.InvoicesRoot = invRoot

	return &types.Block{Header: *header, Transactions: txs}, nil
}

// parentOf resolves c's current best header, returning (nil, zero
// hash) when the chain is still empty (genesis not yet imported).
func parentOf(c *client.Client) (*types.Header, types.Hash) {
	hash := c.Best()
	header, err := c.Header(hash)
	if err != nil {
		return nil, types.Hash{}
	}
	return header, hash
}
