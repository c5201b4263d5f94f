// Copyright 2026 The CodeChain-Go Authors

package blockchain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kode-chain/codechain-go/pkg/storage"
	"github.com/kode-chain/codechain-go/pkg/types"
)

func header(parent types.Hash, number uint64, score int64, extra byte) *types.Header {
	return &types.Header{
		ParentHash: parent,
		Score:      big.NewInt(score),
		Number:     number,
		Extra:      []byte{extra},
	}
}

func mustInsert(t *testing.T, idx *Index, h *types.Header) types.Hash {
	t.Helper()
	_, _, err := idx.Insert(h, nil, nil)
	require.NoError(t, err)
	return h.Hash()
}

func TestTreeRouteIdempotent(t *testing.T) {
	idx, err := Open(storage.NewMemoryBackend())
	require.NoError(t, err)

	g := header(types.Hash{}, 0, 10, 0)
	gh := mustInsert(t, idx, g)

	route, err := idx.TreeRoute(gh, gh)
	require.NoError(t, err)
	require.Equal(t, gh, route.Ancestor)
	require.Empty(t, route.Enacted)
	require.Empty(t, route.Retracted)
}

// TestReorg: chain A1-A2-A3 (total score 30) is canonical; a branch
// A1-B2-B3-B4 (total score 40) arrives block by block, stays
// non-canonical while its total trails (18, then 28), and flips the
// chain only once B4 pushes it past 30, with tree_route(A3, B4) =
// {ancestor: A1, retracted: [A3,A2], enacted: [B2,B3,B4]}.
func TestReorg(t *testing.T) {
	idx, err := Open(storage.NewMemoryBackend())
	require.NoError(t, err)

	a1 := header(types.Hash{}, 1, 10, 1)
	a1h := mustInsert(t, idx, a1)
	a2 := header(a1h, 2, 10, 2)
	a2h := mustInsert(t, idx, a2)
	a3 := header(a2h, 3, 10, 3)
	a3h := mustInsert(t, idx, a3)

	require.Equal(t, a3h, idx.Best().Hash)

	b2 := header(a1h, 2, 8, 20)
	r, _, err := idx.Insert(b2, nil, nil)
	require.NoError(t, err)
	require.Equal(t, ResultNoChange, r)
	b2h := b2.Hash()
	b3 := header(b2h, 3, 10, 21)
	r, _, err = idx.Insert(b3, nil, nil)
	require.NoError(t, err)
	require.Equal(t, ResultNoChange, r)
	b3h := b3.Hash()
	b4 := header(b3h, 4, 12, 22)

	result, route, err := idx.Insert(b4, nil, nil)
	require.NoError(t, err)
	require.Equal(t, ResultBranchBecameCanonical, result)
	require.Equal(t, a1h, route.Ancestor)
	require.Equal(t, []types.Hash{a3h, a2h}, route.Retracted)
	require.Equal(t, []types.Hash{b2h, b3h, b4.Hash()}, route.Enacted)

	require.Equal(t, b4.Hash(), idx.Best().Hash)
}

func TestAppendedKeepsScore(t *testing.T) {
	idx, err := Open(storage.NewMemoryBackend())
	require.NoError(t, err)

	g := header(types.Hash{}, 0, 5, 0)
	gh := mustInsert(t, idx, g)

	child := header(gh, 1, 5, 1)
	result, route, err := idx.Insert(child, nil, nil)
	require.NoError(t, err)
	require.Equal(t, ResultAppended, result)
	require.Equal(t, []types.Hash{child.Hash()}, route.Enacted)
	require.Equal(t, 0, big.NewInt(10).Cmp(idx.Best().TotalScore))
}
