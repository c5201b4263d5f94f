// Copyright 2026 The CodeChain-Go Authors

package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kode-chain/codechain-go/pkg/storage"
	"github.com/kode-chain/codechain-go/pkg/trie"
	"github.com/kode-chain/codechain-go/pkg/types"
)

func buildTrie(t *testing.T, entries int) (*trie.HashDB, types.Hash) {
	t.Helper()
	db := trie.NewHashDB(storage.NewMemoryBackend(), 256)
	tr := trie.New(db, types.Hash{})
	for i := 0; i < entries; i++ {
		key := []byte(fmt.Sprintf("account-%03d", i))
		value := []byte(fmt.Sprintf("balance-%03d", i))
		require.NoError(t, tr.Put(key, value))
	}
	return db, tr.Root
}

func TestWriteRestoreRoundTrip(t *testing.T) {
	db, root := buildTrie(t, 50)
	var blockHash types.Hash
	blockHash[0] = 0xB1

	dir := t.TempDir()
	snapDir, err := Write(dir, blockHash, db, root)
	require.NoError(t, err)

	fresh := trie.NewHashDB(storage.NewMemoryBackend(), 256)
	require.NoError(t, Restore(snapDir, fresh))

	tr := trie.New(fresh, root)
	for i := 0; i < 50; i++ {
		v, ok, err := tr.Get([]byte(fmt.Sprintf("account-%03d", i)))
		require.NoError(t, err)
		require.True(t, ok, "key %d missing after restore", i)
		require.Equal(t, []byte(fmt.Sprintf("balance-%03d", i)), v)
	}
}

func TestWriteIsIdempotentPerBlock(t *testing.T) {
	db, root := buildTrie(t, 10)
	var blockHash types.Hash
	blockHash[0] = 0xB2

	dir := t.TempDir()
	first, err := Write(dir, blockHash, db, root)
	require.NoError(t, err)
	second, err := Write(dir, blockHash, db, root)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestChunkCountBounded(t *testing.T) {
	db, root := buildTrie(t, 200)
	head, subs, err := trie.Chunks(db, root)
	require.NoError(t, err)
	require.NotEmpty(t, head.Nodes)
	// Binary trie: at most 4 sub-chunks two levels down.
	require.LessOrEqual(t, len(subs), 4)

	total := len(head.Nodes)
	for _, c := range subs {
		total += len(c.Nodes)
	}
	require.Greater(t, total, 200, "every leaf plus internal nodes should be covered")
}

func TestRestoreRejectsCorruptChunk(t *testing.T) {
	db, root := buildTrie(t, 20)
	var blockHash types.Hash
	blockHash[0] = 0xB3

	dir := t.TempDir()
	snapDir, err := Write(dir, blockHash, db, root)
	require.NoError(t, err)

	entries, err := os.ReadDir(snapDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	victim := filepath.Join(snapDir, entries[0].Name())
	require.NoError(t, os.WriteFile(victim, []byte("not snappy data"), 0o644))

	fresh := trie.NewHashDB(storage.NewMemoryBackend(), 256)
	require.Error(t, Restore(snapDir, fresh))
}

func TestRestoreRejectsMisnamedChunk(t *testing.T) {
	db, root := buildTrie(t, 20)
	var blockHash types.Hash
	blockHash[0] = 0xB4

	dir := t.TempDir()
	snapDir, err := Write(dir, blockHash, db, root)
	require.NoError(t, err)

	entries, err := os.ReadDir(snapDir)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(snapDir, entries[0].Name()))
	require.NoError(t, err)
	var wrong types.Hash
	wrong[31] = 0xFF
	require.NoError(t, os.WriteFile(filepath.Join(snapDir, chunkFileName(wrong)), data, 0o644))

	fresh := trie.NewHashDB(storage.NewMemoryBackend(), 256)
	err = Restore(snapDir, fresh)
	require.ErrorIs(t, err, ErrChunkMismatch)
}
