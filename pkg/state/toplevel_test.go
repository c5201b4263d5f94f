// Copyright 2026 The CodeChain-Go Authors

package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kode-chain/codechain-go/pkg/storage"
	"github.com/kode-chain/codechain-go/pkg/trie"
	"github.com/kode-chain/codechain-go/pkg/types"
)

func newTestState(t *testing.T) (*TopLevelState, *trie.HashDB) {
	t.Helper()
	db := trie.NewHashDB(storage.NewMemoryBackend(), 64)
	s, err := New(db, types.Hash{}, nil)
	require.NoError(t, err)
	return s, db
}

func addr(b byte) types.Address {
	var a types.Address
	a[0] = b
	return a
}

func TestTopLevelState_AccountRoundTrip(t *testing.T) {
	s, _ := newTestState(t)

	a, err := s.Account(addr(1))
	require.NoError(t, err)
	require.Equal(t, uint64(0), a.Seq)
	require.Equal(t, int64(0), a.Balance.Int64())

	a.Balance = big.NewInt(100)
	a.Seq = 1
	s.SetAccount(addr(1), a)

	root, err := s.Commit()
	require.NoError(t, err)
	require.False(t, root.IsZero())

	got, err := s.Account(addr(1))
	require.NoError(t, err)
	require.Equal(t, int64(100), got.Balance.Int64())
	require.Equal(t, uint64(1), got.Seq)
}

func TestTopLevelState_NullAccountPruned(t *testing.T) {
	s, _ := newTestState(t)

	a, err := s.Account(addr(2))
	require.NoError(t, err)
	a.Balance = big.NewInt(5)
	s.SetAccount(addr(2), a)
	_, err = s.Commit()
	require.NoError(t, err)

	// Drain it back to zero with seq still zero: the account should be
	// pruned entirely rather than written as an empty leaf.
	a, err = s.Account(addr(2))
	require.NoError(t, err)
	a.Balance = big.NewInt(0)
	s.SetAccount(addr(2), a)
	root, err := s.Commit()
	require.NoError(t, err)

	s2, err := New(s.db, root, nil)
	require.NoError(t, err)
	fresh, err := s2.Account(addr(2))
	require.NoError(t, err)
	require.Equal(t, int64(0), fresh.Balance.Int64())
	require.True(t, s2.trie.Root == root)
	_, ok, err := s2.trie.Get(accountKey(addr(2)))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTopLevelState_CheckpointRevert(t *testing.T) {
	s, _ := newTestState(t)

	a, err := s.Account(addr(3))
	require.NoError(t, err)
	a.Balance = big.NewInt(10)
	s.SetAccount(addr(3), a)
	_, err = s.Commit()
	require.NoError(t, err)

	s.Checkpoint()
	a, err = s.Account(addr(3))
	require.NoError(t, err)
	a.Balance = big.NewInt(999)
	s.SetAccount(addr(3), a)

	got, err := s.Account(addr(3))
	require.NoError(t, err)
	require.Equal(t, int64(999), got.Balance.Int64())

	require.NoError(t, s.RevertToCheckpoint())

	got, err = s.Account(addr(3))
	require.NoError(t, err)
	require.Equal(t, int64(10), got.Balance.Int64())
}

func TestTopLevelState_NestedCheckpoints(t *testing.T) {
	s, _ := newTestState(t)

	s.Checkpoint() // outer, block-close style
	a, _ := s.Account(addr(4))
	a.Balance = big.NewInt(1)
	s.SetAccount(addr(4), a)

	s.Checkpoint() // inner, one transaction
	a, _ = s.Account(addr(4))
	a.Balance = big.NewInt(2)
	s.SetAccount(addr(4), a)
	require.NoError(t, s.RevertToCheckpoint())

	got, err := s.Account(addr(4))
	require.NoError(t, err)
	require.Equal(t, int64(1), got.Balance.Int64())

	require.NoError(t, s.DiscardCheckpoint())
	_, err = s.Commit()
	require.NoError(t, err)
}

func TestTopLevelState_ShardLifecycle(t *testing.T) {
	s, _ := newTestState(t)

	id := s.IncrementShardCount()
	require.Equal(t, uint16(0), id)
	s.SetShard(id, &Shard{Owner: addr(5)})

	sc, err := s.ShardState(id)
	require.NoError(t, err)

	var assetType types.Hash
	assetType[0] = 0xAA
	sc.SetAssetScheme(assetType, &AssetScheme{Metadata: "gold", Amount: 1000})
	sc.SetOwnedAsset(assetType, &OwnedAsset{AssetType: assetType, Quantity: 1000})

	root, err := s.Commit()
	require.NoError(t, err)
	require.False(t, root.IsZero())

	s2, err := New(s.db, root, nil)
	require.NoError(t, err)
	sh, err := s2.Shard(id)
	require.NoError(t, err)
	require.False(t, sh.Root.IsZero())

	sc2, err := s2.ShardState(id)
	require.NoError(t, err)
	scheme, err := sc2.AssetScheme(assetType)
	require.NoError(t, err)
	require.Equal(t, "gold", scheme.Metadata)
}

func TestTopLevelState_GlobalCacheSeeding(t *testing.T) {
	db := trie.NewHashDB(storage.NewMemoryBackend(), 64)
	global := NewGlobalCache(16)

	s1, err := New(db, types.Hash{}, global)
	require.NoError(t, err)
	a, _ := s1.Account(addr(6))
	a.Balance = big.NewInt(42)
	s1.SetAccount(addr(6), a)
	root, err := s1.Commit()
	require.NoError(t, err)

	s2, err := New(db, root, global)
	require.NoError(t, err)
	got, err := s2.Account(addr(6))
	require.NoError(t, err)
	require.Equal(t, int64(42), got.Balance.Int64())
}
