// Copyright 2026 The CodeChain-Go Authors

package trie

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kode-chain/codechain-go/pkg/storage"
)

func newTestTrie(t *testing.T) (*Trie, *HashDB) {
	t.Helper()
	db := NewHashDB(storage.NewMemoryBackend(), 64)
	return New(db, [32]byte{}), db
}

func TestTrie_PutGet(t *testing.T) {
	tr, _ := newTestTrie(t)

	require.NoError(t, tr.Put([]byte("alice"), []byte("100")))
	require.NoError(t, tr.Put([]byte("bob"), []byte("200")))
	require.NoError(t, tr.Put([]byte("alicia"), []byte("300")))

	v, ok, err := tr.Get([]byte("alice"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("100"), v)

	v, ok, err = tr.Get([]byte("bob"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("200"), v)

	v, ok, err = tr.Get([]byte("alicia"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("300"), v)

	_, ok, err = tr.Get([]byte("carol"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTrie_Overwrite(t *testing.T) {
	tr, _ := newTestTrie(t)

	require.NoError(t, tr.Put([]byte("k"), []byte("v1")))
	require.NoError(t, tr.Put([]byte("k"), []byte("v2")))

	v, ok, err := tr.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v2"), v)
}

func TestTrie_Delete(t *testing.T) {
	tr, _ := newTestTrie(t)

	require.NoError(t, tr.Put([]byte("alice"), []byte("100")))
	require.NoError(t, tr.Put([]byte("bob"), []byte("200")))

	require.NoError(t, tr.Delete([]byte("alice")))

	_, ok, err := tr.Get([]byte("alice"))
	require.NoError(t, err)
	require.False(t, ok)

	v, ok, err := tr.Get([]byte("bob"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("200"), v)
}

func TestTrie_DeleteAllEmptiesRoot(t *testing.T) {
	tr, _ := newTestTrie(t)

	require.NoError(t, tr.Put([]byte("only"), []byte("1")))
	require.NoError(t, tr.Delete([]byte("only")))

	require.True(t, tr.Root.IsZero())
}

func TestTrie_DeterministicRoot(t *testing.T) {
	tr1, _ := newTestTrie(t)
	tr2, _ := newTestTrie(t)

	for _, kv := range [][2]string{{"a", "1"}, {"b", "2"}, {"c", "3"}} {
		require.NoError(t, tr1.Put([]byte(kv[0]), []byte(kv[1])))
	}
	// Insert in a different order.
	require.NoError(t, tr2.Put([]byte("c"), []byte("3")))
	require.NoError(t, tr2.Put([]byte("a"), []byte("1")))
	require.NoError(t, tr2.Put([]byte("b"), []byte("2")))

	require.Equal(t, tr1.Root, tr2.Root)
}
