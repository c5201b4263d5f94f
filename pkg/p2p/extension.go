// Copyright 2026 The CodeChain-Go Authors

package p2p

import (
	"sync"
	"time"
)

// PeerID identifies one connected peer for the lifetime of a session.
type PeerID uint64

// Api is the narrow surface an Extension is given to act on: send a
// frame to a peer, or arm a one-shot timer. The mempool's propagation
// loop and the consensus engine's step timers are both built on
// exactly this pair. Timer callbacks run on the io-worker pool, never
// on the network I/O thread.
type Api interface {
	Send(peer PeerID, name string, payload []byte, encrypted bool) error
	SetTimer(token uint64, after time.Duration) Canceller
}

// Canceller cancels a timer armed by Api.SetTimer; timers are
// cancelable by token.
type Canceller interface {
	Cancel()
}

// Extension is a pluggable network protocol dispatched by name
// (discovery, block-sync, tx-sync, consensus messages) sharing one
// session layer.
type Extension interface {
	Name() string
	OnConnect(peer PeerID, api Api)
	OnDisconnect(peer PeerID)
	OnMessage(peer PeerID, payload []byte, api Api)
	OnTimeout(token uint64, api Api)
}

// Registry dispatches inbound ExtensionFrames to the Extension
// registered under their Name.
type Registry struct {
	mu   sync.RWMutex
	exts map[string]Extension
}

func NewRegistry() *Registry {
	return &Registry{exts: make(map[string]Extension)}
}

// Register installs ext under its own Name().
func (r *Registry) Register(ext Extension) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exts[ext.Name()] = ext
}

// Len reports how many extensions are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.exts)
}

// Dispatch routes an inbound frame to its named extension, silently
// dropping frames for unregistered names: the connection is closed
// only on decode failure, not on an unknown but well-formed extension
// name, since a node running a subset of extensions must tolerate
// peers advertising more.
func (r *Registry) Dispatch(peer PeerID, f *ExtensionFrame, api Api) {
	r.mu.RLock()
	ext, ok := r.exts[f.Name]
	r.mu.RUnlock()
	if !ok {
		return
	}
	ext.OnMessage(peer, f.Payload, api)
}

// BroadcastConnect notifies every registered extension of a new peer.
func (r *Registry) BroadcastConnect(peer PeerID, api Api) {
	r.mu.RLock()
	exts := make([]Extension, 0, len(r.exts))
	for _, e := range r.exts {
		exts = append(exts, e)
	}
	r.mu.RUnlock()
	for _, e := range exts {
		e.OnConnect(peer, api)
	}
}

// BroadcastDisconnect notifies every registered extension a peer left.
func (r *Registry) BroadcastDisconnect(peer PeerID) {
	r.mu.RLock()
	exts := make([]Extension, 0, len(r.exts))
	for _, e := range r.exts {
		exts = append(exts, e)
	}
	r.mu.RUnlock()
	for _, e := range exts {
		e.OnDisconnect(peer)
	}
}
