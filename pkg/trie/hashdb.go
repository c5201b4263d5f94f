// Copyright 2026 The CodeChain-Go Authors

// Package trie implements the content-addressed node store backing
// every state trie, plus an in-process LRU sitting in front of it
// so repeated reads of hot nodes (ancestor headers' state roots
// during a reorg replay, for instance) don't all round-trip through
// the key-value Backend.
package trie

import (
	"container/list"
	"sync"

	"github.com/kode-chain/codechain-go/pkg/crypto"
	"github.com/kode-chain/codechain-go/pkg/storage"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// nodeKeyPrefix namespaces trie node keys within the shared Backend,
// the same per-subsystem prefixing discipline pkg/blockchain and
// pkg/mempool use.
const nodeKeyPrefix = "t:"

// HashDB stores RLP-encoded trie nodes keyed by their own Blake256
// hash: inserting is idempotent (re-inserting the same bytes is a
// no-op after the first write) and retrieval needs nothing but the
// hash.
type HashDB struct {
	backend storage.Backend
	cache   *lru
}

// NewHashDB wraps backend with a HashDB and a cache holding up to
// cacheSize nodes.
func NewHashDB(backend storage.Backend, cacheSize int) *HashDB {
	return &HashDB{backend: backend, cache: newLRU(cacheSize)}
}

func nodeKey(h types.Hash) []byte {
	key := make([]byte, 0, len(nodeKeyPrefix)+types.HashLength)
	key = append(key, nodeKeyPrefix...)
	key = append(key, h[:]...)
	return key
}

// Insert content-addresses data, returning its hash. The node is
// durable once Insert returns.
func (db *HashDB) Insert(data []byte) (types.Hash, error) {
	h := crypto.Blake256(data)
	hash := types.Hash(h)
	if _, ok := db.cache.get(hash); ok {
		return hash, nil
	}
	if err := db.backend.Set(nodeKey(hash), data); err != nil {
		return types.Hash{}, err
	}
	db.cache.put(hash, data)
	return hash, nil
}

// Get retrieves the node stored under hash.
func (db *HashDB) Get(hash types.Hash) ([]byte, error) {
	if data, ok := db.cache.get(hash); ok {
		return data, nil
	}
	data, err := db.backend.Get(nodeKey(hash))
	if err != nil {
		return nil, err
	}
	db.cache.put(hash, data)
	return data, nil
}

// Has reports whether hash is present.
func (db *HashDB) Has(hash types.Hash) (bool, error) {
	if _, ok := db.cache.get(hash); ok {
		return true, nil
	}
	return db.backend.Has(nodeKey(hash))
}

// lru is a hand-rolled fixed-capacity cache: trie node values are
// plain []byte with no eviction callback or weighting need, so
// reaching for a generic third-party LRU package would only add an
// interface-conversion tax over container/list + a map, which is what
// most such packages are internally anyway.
type lru struct {
	mu       sync.Mutex
	capacity int
	items    map[types.Hash]*list.Element
	order    *list.List
}

type lruEntry struct {
	key   types.Hash
	value []byte
}

func newLRU(capacity int) *lru {
	if capacity <= 0 {
		capacity = 1
	}
	return &lru{
		capacity: capacity,
		items:    make(map[types.Hash]*list.Element),
		order:    list.New(),
	}
}

func (c *lru) get(key types.Hash) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry).value, true
}

func (c *lru) put(key types.Hash, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*lruEntry).value = value
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&lruEntry{key: key, value: value})
	c.items[key] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*lruEntry).key)
		}
	}
}
