// Copyright 2026 The CodeChain-Go Authors

package mempool

import (
	"sync"

	"github.com/kode-chain/codechain-go/pkg/types"
)

// Record is one terminal-state entry retained for an owner's RPC
// queries after it has left the active pool.
type Record struct {
	Hash   types.Hash
	Status Status
	Tx     *types.Transaction
}

// LocalParcels retains up to maxOld terminal-state records per
// owner, FIFO-evicted beyond that, so an
// RPC client can still ask "what happened to my transaction" for a
// bounded history window after it leaves the active queues.
type LocalParcels struct {
	mu      sync.Mutex
	maxOld  int
	byOwner map[types.Address][]Record
}

// NewLocalParcels builds a list retaining up to maxOld records per
// owner address.
func NewLocalParcels(maxOld int) *LocalParcels {
	if maxOld <= 0 {
		maxOld = 1
	}
	return &LocalParcels{maxOld: maxOld, byOwner: make(map[types.Address][]Record)}
}

// Record appends a terminal entry for owner, evicting the oldest
// record once the per-owner list exceeds maxOld.
func (l *LocalParcels) Record(owner types.Address, hash types.Hash, status Status, tx *types.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	list := append(l.byOwner[owner], Record{Hash: hash, Status: status, Tx: tx})
	if len(list) > l.maxOld {
		list = list[len(list)-l.maxOld:]
	}
	l.byOwner[owner] = list
}

// For returns a copy of owner's retained records, oldest first.
func (l *LocalParcels) For(owner types.Address) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	list := l.byOwner[owner]
	out := make([]Record, len(list))
	copy(out, list)
	return out
}
