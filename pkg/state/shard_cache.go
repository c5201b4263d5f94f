// Copyright 2026 The CodeChain-Go Authors

package state

import (
	"sort"

	"github.com/kode-chain/codechain-go/pkg/trie"
	"github.com/kode-chain/codechain-go/pkg/types"
)

const (
	prefixAssetScheme = "as:"
	prefixOwnedAsset  = "oa:"
)

// ShardCache is the write-back cache over one shard's own sub-trie:
// asset schemes and owned assets, committed last among the top-level
// state's entities since they live below each shard's own root.
type ShardCache struct {
	ID      uint16
	trie    *trie.Trie
	schemes *cache[types.Hash, *AssetScheme]
	assets  *cache[types.Hash, *OwnedAsset]
}

// newShardCache opens the shard's sub-trie at root (the zero hash for
// a brand new shard).
func newShardCache(db *trie.HashDB, id uint16, root types.Hash) *ShardCache {
	return &ShardCache{
		ID:      id,
		trie:    trie.New(db, root),
		schemes: newCache[types.Hash, *AssetScheme](),
		assets:  newCache[types.Hash, *OwnedAsset](),
	}
}

func assetSchemeKey(assetType types.Hash) []byte {
	return append([]byte(prefixAssetScheme), assetType[:]...)
}

func ownedAssetKey(assetType types.Hash) []byte {
	return append([]byte(prefixOwnedAsset), assetType[:]...)
}

// AssetScheme returns the scheme for assetType, reading through to the
// shard trie on a cache miss.
func (s *ShardCache) AssetScheme(assetType types.Hash) (*AssetScheme, error) {
	if v, ok := s.schemes.get(assetType); ok {
		return v.clone(), nil
	}
	raw, ok, err := s.trie.Get(assetSchemeKey(assetType))
	if err != nil {
		return nil, ErrTrieNodeMissing
	}
	if !ok {
		return nil, ErrAssetSchemeNotFound
	}
	scheme, err := decodeAssetScheme(raw)
	if err != nil {
		return nil, ErrPrefixMismatch
	}
	return scheme, nil
}

// SetAssetScheme buffers scheme for assetType.
func (s *ShardCache) SetAssetScheme(assetType types.Hash, scheme *AssetScheme) {
	s.schemes.set(assetType, scheme)
}

// OwnedAsset returns the unspent output for assetType.
func (s *ShardCache) OwnedAsset(assetType types.Hash) (*OwnedAsset, error) {
	if v, ok := s.assets.get(assetType); ok {
		return v.clone(), nil
	}
	raw, ok, err := s.trie.Get(ownedAssetKey(assetType))
	if err != nil {
		return nil, ErrTrieNodeMissing
	}
	if !ok {
		return nil, ErrAssetNotFound
	}
	asset, err := decodeOwnedAsset(raw)
	if err != nil {
		return nil, ErrPrefixMismatch
	}
	return asset, nil
}

// SetOwnedAsset buffers asset for assetType.
func (s *ShardCache) SetOwnedAsset(assetType types.Hash, asset *OwnedAsset) {
	s.assets.set(assetType, asset)
}

// RemoveOwnedAsset buffers the removal of a spent output.
func (s *ShardCache) RemoveOwnedAsset(assetType types.Hash) {
	s.assets.remove(assetType)
}

func (s *ShardCache) checkpoint() {
	s.schemes.checkpoint()
	s.assets.checkpoint()
}

func (s *ShardCache) discardCheckpoint() error {
	if err := s.schemes.discardCheckpoint(); err != nil {
		return err
	}
	return s.assets.discardCheckpoint()
}

func (s *ShardCache) revertToCheckpoint() error {
	if err := s.schemes.revertToCheckpoint(); err != nil {
		return err
	}
	return s.assets.revertToCheckpoint()
}

// commit flushes buffered asset-scheme and owned-asset writes to the
// shard's own trie in that fixed order, returning the new shard root.
func (s *ShardCache) commit() (types.Hash, error) {
	schemeKeys := s.schemes.dirtyKeys()
	sort.Slice(schemeKeys, func(i, j int) bool { return lessHash(schemeKeys[i], schemeKeys[j]) })
	for _, k := range schemeKeys {
		it, ok := s.schemes.items[k]
		if !ok {
			continue
		}
		if it.deleted {
			if err := s.trie.Delete(assetSchemeKey(k)); err != nil {
				return types.Hash{}, err
			}
			continue
		}
		data, err := it.value.rlpBytes()
		if err != nil {
			return types.Hash{}, err
		}
		if err := s.trie.Put(assetSchemeKey(k), data); err != nil {
			return types.Hash{}, err
		}
	}
	s.schemes.clearDirty()

	assetKeys := s.assets.dirtyKeys()
	sort.Slice(assetKeys, func(i, j int) bool { return lessHash(assetKeys[i], assetKeys[j]) })
	for _, k := range assetKeys {
		it, ok := s.assets.items[k]
		if !ok {
			continue
		}
		if it.deleted {
			if err := s.trie.Delete(ownedAssetKey(k)); err != nil {
				return types.Hash{}, err
			}
			continue
		}
		data, err := it.value.rlpBytes()
		if err != nil {
			return types.Hash{}, err
		}
		if err := s.trie.Put(ownedAssetKey(k), data); err != nil {
			return types.Hash{}, err
		}
	}
	s.assets.clearDirty()

	return s.trie.Root, nil
}

func lessHash(a, b types.Hash) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
