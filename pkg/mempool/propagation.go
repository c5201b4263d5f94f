// Copyright 2026 The CodeChain-Go Authors

package mempool

import (
	"sync"
	"time"

	"github.com/kode-chain/codechain-go/pkg/types"
)

// Peer is the narrow identity the propagator needs; the p2p layer's
// session type satisfies this.
type Peer interface {
	ID() string
}

// Sender delivers a batch of transactions to a peer; implemented by
// the p2p tx-sync extension.
type Sender interface {
	SendTransactions(peer Peer, txs []*types.Transaction) error
}

// knownSet is a bounded per-peer FIFO of transaction hashes already
// sent, so the propagator never re-sends novelty a peer has already
// acknowledged.
type knownSet struct {
	cap   int
	has   map[types.Hash]struct{}
	order []types.Hash
}

func newKnownSet(cap int) *knownSet {
	return &knownSet{cap: cap, has: make(map[types.Hash]struct{})}
}

func (k *knownSet) Has(h types.Hash) bool {
	_, ok := k.has[h]
	return ok
}

func (k *knownSet) Add(h types.Hash) {
	if k.Has(h) {
		return
	}
	k.has[h] = struct{}{}
	k.order = append(k.order, h)
	for len(k.order) > k.cap {
		oldest := k.order[0]
		k.order = k.order[1:]
		delete(k.has, oldest)
	}
}

// Propagator runs a periodic broadcast loop: every refresh interval,
// diff each peer's known-set against the pool's current ready-set and
// send the transactions it hasn't seen yet. Fan-out is per-peer and
// fire-and-forget; a peer that fails to receive a round is retried on
// the next tick rather than individually acknowledged.
type Propagator struct {
	mu       sync.Mutex
	pool     *Pool
	sender   Sender
	refresh  time.Duration
	knownCap int

	peers map[string]Peer
	known map[string]*knownSet

	stop chan struct{}
	done chan struct{}
}

// NewPropagator builds a Propagator that diffs against pool's ready
// set every refresh and keeps up to knownCap hashes per peer.
func NewPropagator(pool *Pool, sender Sender, refresh time.Duration, knownCap int) *Propagator {
	if knownCap <= 0 {
		knownCap = 4096
	}
	return &Propagator{
		pool:     pool,
		sender:   sender,
		refresh:  refresh,
		knownCap: knownCap,
		peers:    make(map[string]Peer),
		known:    make(map[string]*knownSet),
	}
}

// AddPeer starts tracking a peer with an empty known-set.
func (pr *Propagator) AddPeer(p Peer) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.peers[p.ID()] = p
	pr.known[p.ID()] = newKnownSet(pr.knownCap)
}

// RemovePeer stops tracking a disconnected peer.
func (pr *Propagator) RemovePeer(id string) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	delete(pr.peers, id)
	delete(pr.known, id)
}

// MarkKnown records that peer already has hash, without sending it;
// used when the pool learns a hash arrived from that peer in the
// first place, so it is never echoed back.
func (pr *Propagator) MarkKnown(peerID string, hash types.Hash) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if ks, ok := pr.known[peerID]; ok {
		ks.Add(hash)
	}
}

// Start runs the periodic diff-and-broadcast loop on its own
// goroutine until Stop is called.
func (pr *Propagator) Start() {
	pr.stop = make(chan struct{})
	pr.done = make(chan struct{})
	go func() {
		defer close(pr.done)
		ticker := time.NewTicker(pr.refresh)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pr.broadcastRound()
			case <-pr.stop:
				return
			}
		}
	}()
}

// Stop halts the broadcast loop and waits for it to exit.
func (pr *Propagator) Stop() {
	if pr.stop == nil {
		return
	}
	close(pr.stop)
	<-pr.done
}

func (pr *Propagator) broadcastRound() {
	ready := pr.pool.Ready()

	pr.mu.Lock()
	peers := make([]Peer, 0, len(pr.peers))
	for _, p := range pr.peers {
		peers = append(peers, p)
	}
	pr.mu.Unlock()

	for _, peer := range peers {
		pr.mu.Lock()
		ks, ok := pr.known[peer.ID()]
		pr.mu.Unlock()
		if !ok {
			continue
		}
		var missing []*types.Transaction
		var missingHashes []types.Hash
		for _, e := range ready {
			if !ks.Has(e.Hash) {
				missing = append(missing, e.Tx)
				missingHashes = append(missingHashes, e.Hash)
			}
		}
		if len(missing) == 0 {
			continue
		}
		if err := pr.sender.SendTransactions(peer, missing); err != nil {
			continue
		}
		pr.mu.Lock()
		for _, h := range missingHashes {
			ks.Add(h)
		}
		pr.mu.Unlock()
	}
}
