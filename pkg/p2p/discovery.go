// Copyright 2026 The CodeChain-Go Authors

package p2p

import (
	"math/bits"
	"sort"
	"sync"
	"time"

	"github.com/kode-chain/codechain-go/pkg/crypto"
)

// NodeID is a discovery participant's identity: Blake256 of its
// public key, the same address space accounts live in, reused here
// rather than inventing a parallel 256-bit id space.
type NodeID [32]byte

// NodeInfo is one entry in a discovery table.
type NodeInfo struct {
	ID   NodeID
	Addr string // host:port
}

func xorDistance(a, b NodeID) NodeID {
	var out NodeID
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

func bucketIndex(d NodeID) int {
	for i, b := range d {
		if b == 0 {
			continue
		}
		return i*8 + bits.LeadingZeros8(b)
	}
	return len(d) * 8
}

// UnstructuredDiscovery runs a periodic request/response exchange of
// a shuffled sample of peer addresses: the simpler of the two
// discovery flavours, with no notion of distance-ranked buckets.
type UnstructuredDiscovery struct {
	mu    sync.Mutex
	self  NodeID
	known map[NodeID]NodeInfo

	sampleSize int
	refresh    time.Duration
	rngState   uint64
}

func NewUnstructuredDiscovery(self NodeID, sampleSize int, refresh time.Duration) *UnstructuredDiscovery {
	return &UnstructuredDiscovery{
		self:       self,
		known:      make(map[NodeID]NodeInfo),
		sampleSize: sampleSize,
		refresh:    refresh,
		rngState:   1,
	}
}

func (d *UnstructuredDiscovery) Name() string { return "discovery/unstructured" }

func (d *UnstructuredDiscovery) Add(n NodeInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.known[n.ID] = n
}

// Sample returns up to sampleSize entries in a deterministic shuffled
// order seeded off d.rngState, advancing the generator so repeated
// calls within one refresh window don't hand out the same sample.
func (d *UnstructuredDiscovery) Sample() []NodeInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	all := make([]NodeInfo, 0, len(d.known))
	for _, n := range d.known {
		all = append(all, n)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID[0] < all[j].ID[0] })
	d.shuffleLocked(all)
	if len(all) > d.sampleSize {
		all = all[:d.sampleSize]
	}
	return all
}

func (d *UnstructuredDiscovery) shuffleLocked(nodes []NodeInfo) {
	for i := len(nodes) - 1; i > 0; i-- {
		d.rngState = d.rngState*6364136223846793005 + 1442695040888963407
		j := int(d.rngState % uint64(i+1))
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
}

func (d *UnstructuredDiscovery) OnConnect(peer PeerID, api Api) {}
func (d *UnstructuredDiscovery) OnDisconnect(peer PeerID) {}
func (d *UnstructuredDiscovery) OnMessage(peer PeerID, payload []byte, api Api) {}
func (d *UnstructuredDiscovery) OnTimeout(token uint64, api Api) {}

// KademliaDiscovery is an XOR-distance-ranked neighbour lookup: nodes
// are organised into buckets keyed by the index of the first
// differing bit from self, the classic Kademlia layout.
type KademliaDiscovery struct {
	mu      sync.Mutex
	self    NodeID
	buckets [256][]NodeInfo

	bucketSize int
}

func NewKademliaDiscovery(self NodeID, bucketSize int) *KademliaDiscovery {
	return &KademliaDiscovery{self: self, bucketSize: bucketSize}
}

func (k *KademliaDiscovery) Name() string { return "discovery/kademlia" }

// Add inserts n into the bucket its XOR distance from self falls
// into, evicting the oldest entry once a bucket is full (the
// standard Kademlia least-recently-seen eviction, simplified here to
// FIFO since this node doesn't liveness-ping bucket tails).
func (k *KademliaDiscovery) Add(n NodeInfo) {
	if n.ID == k.self {
		return
	}
	idx := bucketIndex(xorDistance(k.self, n.ID))
	k.mu.Lock()
	defer k.mu.Unlock()
	b := k.buckets[idx]
	for _, existing := range b {
		if existing.ID == n.ID {
			return
		}
	}
	b = append(b, n)
	if len(b) > k.bucketSize {
		b = b[1:]
	}
	k.buckets[idx] = b
}

// Closest returns the up-to-count nodes with the smallest XOR
// distance to target, the primitive a Kademlia lookup iterates.
func (k *KademliaDiscovery) Closest(target NodeID, count int) []NodeInfo {
	k.mu.Lock()
	all := make([]NodeInfo, 0)
	for _, b := range k.buckets {
		all = append(all, b...)
	}
	k.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		di := xorDistance(target, all[i].ID)
		dj := xorDistance(target, all[j].ID)
		for x := range di {
			if di[x] != dj[x] {
				return di[x] < dj[x]
			}
		}
		return false
	})
	if len(all) > count {
		all = all[:count]
	}
	return all
}

func (k *KademliaDiscovery) OnConnect(peer PeerID, api Api) {}
func (k *KademliaDiscovery) OnDisconnect(peer PeerID) {}
func (k *KademliaDiscovery) OnMessage(peer PeerID, payload []byte, api Api) {}
func (k *KademliaDiscovery) OnTimeout(token uint64, api Api) {}

// NodeIDFromPublicKey derives a NodeID the same way an account
// address is derived, so a validator's discovery identity and its
// signing identity are linkable without a second key.
func NodeIDFromPublicKey(pub []byte) NodeID {
	return NodeID(crypto.Blake256(pub))
}

var _ Extension = (*UnstructuredDiscovery)(nil)
var _ Extension = (*KademliaDiscovery)(nil)
