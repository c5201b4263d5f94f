// Copyright 2026 The CodeChain-Go Authors

package blockchain

import "sync"

// ChainNotify is the subscriber hook fired whenever an ImportRoute
// lands: the miner and mempool both need to react to "there is a new
// best block", not just the importer itself.
type ChainNotify interface {
	NewBestBlock(route *ImportRoute)
}

// ChainNotifyFunc adapts a plain function to ChainNotify.
type ChainNotifyFunc func(route *ImportRoute)

func (f ChainNotifyFunc) NewBestBlock(route *ImportRoute) { f(route) }

// Notifier fans an ImportRoute out to every subscribed ChainNotify,
// in subscription order, synchronously: reorg already runs under the
// single chain read-write lock, so a slow subscriber here
// would hold up the next import, the same tradeoff the importer
// thread makes for every other chain-lock critical section.
type Notifier struct {
	mu   sync.Mutex
	subs []ChainNotify
}

func NewNotifier() *Notifier { return &Notifier{} }

func (n *Notifier) Subscribe(sub ChainNotify) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, sub)
}

func (n *Notifier) Fire(route *ImportRoute) {
	n.mu.Lock()
	subs := append([]ChainNotify(nil), n.subs...)
	n.mu.Unlock()
	for _, sub := range subs {
		sub.NewBestBlock(route)
	}
}
