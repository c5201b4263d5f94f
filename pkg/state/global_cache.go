// Copyright 2026 The CodeChain-Go Authors

package state

import (
	"container/list"

	"github.com/kode-chain/codechain-go/pkg/types"
)

// globalLRU is the same hand-rolled, fixed-capacity cache shape as
// pkg/trie's node LRU, parameterised over the entity key instead of a
// trie hash. Kept as its own small type rather than shared with
// pkg/trie to avoid a cyclic or overly generic dependency between the
// two packages for what is, in both places, a dozen lines of
// container/list bookkeeping.
type globalLRU[K comparable, V any] struct {
	capacity int
	items    map[K]*list.Element
	order    *list.List
}

type globalLRUEntry[K comparable, V any] struct {
	key   K
	value V
}

func newGlobalLRU[K comparable, V any](capacity int) *globalLRU[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &globalLRU[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element),
		order:    list.New(),
	}
}

func (c *globalLRU[K, V]) get(key K) (V, bool) {
	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*globalLRUEntry[K, V]).value, true
}

func (c *globalLRU[K, V]) put(key K, value V) {
	if el, ok := c.items[key]; ok {
		el.Value.(*globalLRUEntry[K, V]).value = value
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&globalLRUEntry[K, V]{key: key, value: value})
	c.items[key] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*globalLRUEntry[K, V]).key)
		}
	}
}

func (c *globalLRU[K, V]) invalidate(key K) {
	if el, ok := c.items[key]; ok {
		c.order.Remove(el)
		delete(c.items, key)
	}
}

// GlobalCache amortises trie descents across blocks: it holds the
// most recently touched accounts, regular accounts, metadata and
// shard roots, seeded across block boundaries rather than discarded
// when one TopLevelState is replaced by the next. It is safe to share
// a single GlobalCache across the sequence of TopLevelState values the
// importer constructs for consecutive blocks.
type GlobalCache struct {
	accounts        *globalLRU[types.Address, *Account]
	regularAccounts *globalLRU[types.Address, *RegularAccount]
	shards          *globalLRU[uint16, *Shard]
}

// NewGlobalCache returns a GlobalCache whose per-entity LRUs each hold
// up to size entries.
func NewGlobalCache(size int) *GlobalCache {
	return &GlobalCache{
		accounts:        newGlobalLRU[types.Address, *Account](size),
		regularAccounts: newGlobalLRU[types.Address, *RegularAccount](size),
		shards:          newGlobalLRU[uint16, *Shard](size),
	}
}

// InvalidateRoute drops every cached entry touched by the blocks in a
// reorg's enacted/retracted ranges, forcing the next TopLevelState to
// re-descend the trie for them rather than serve stale pre-reorg
// values.
func (g *GlobalCache) InvalidateRoute(accounts []types.Address, shards []uint16) {
	for _, a := range accounts {
		g.accounts.invalidate(a)
		g.regularAccounts.invalidate(a)
	}
	for _, s := range shards {
		g.shards.invalidate(s)
	}
}
