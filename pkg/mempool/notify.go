// Copyright 2026 The CodeChain-Go Authors

package mempool

import "sync"

// Notifier lets a block producer watch for pool changes: every
// subscriber gets a single-slot channel that is signalled, never queued, whenever the
// pool reacts to a new best block; a sealer thread drains it to
// decide whether its candidate block is stale.
type Notifier struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

// NewNotifier builds an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan struct{})}
}

// Subscribe registers a new listener and returns its id (for
// Unsubscribe) and the channel it should select on.
func (n *Notifier) Subscribe() (int, <-chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	ch := make(chan struct{}, 1)
	n.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a listener registered by Subscribe.
func (n *Notifier) Unsubscribe(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, id)
}

// notify signals every subscriber without blocking; a subscriber that
// hasn't drained its previous signal yet simply coalesces the two.
func (n *Notifier) notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
