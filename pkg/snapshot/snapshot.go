// Copyright 2026 The CodeChain-Go Authors

// Package snapshot writes and restores chunked state-trie snapshots: a
// snapshot for block B is a directory named by B's hash containing one
// snappy-compressed file per trie chunk, named by the chunk's root
// hash. A chunk is a bounded sub-trie rooted two levels below the
// state root, so the file count stays bounded by the branching factor
// squared; the nodes above that level travel in a head chunk named by
// the state root itself.
package snapshot

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/snappy"

	"github.com/kode-chain/codechain-go/pkg/rlp"
	"github.com/kode-chain/codechain-go/pkg/trie"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// ErrCompressionFormat is returned restoring a chunk file whose snappy
// framing is corrupt or whose decompressed size exceeds the limit.
var ErrCompressionFormat = errors.New("snapshot: invalid compression format")

// ErrChunkMismatch is returned when a chunk file's contents do not
// reproduce the root hash its name claims.
var ErrChunkMismatch = errors.New("snapshot: chunk root mismatch")

// MaxChunkSize bounds a decompressed chunk on restore. Chunks are whole
// sub-tries and are not split by size, so a chunk whose encoded nodes
// exceed this limit is written but rejected on restore.
const MaxChunkSize = 64 * 1024 * 1024

func chunkFileName(root types.Hash) string {
	return hex.EncodeToString(root[:])
}

// Write snapshots the trie rooted at stateRoot into
// dir/<blockHash hex>/, one file per chunk. It returns the snapshot
// directory path. An existing directory for the same block is left
// untouched: chunk contents are content-addressed, so a finished
// snapshot never needs rewriting.
func Write(dir string, blockHash types.Hash, db *trie.HashDB, stateRoot types.Hash) (string, error) {
	snapDir := filepath.Join(dir, hex.EncodeToString(blockHash[:]))
	if _, err := os.Stat(snapDir); err == nil {
		return snapDir, nil
	}

	head, subs, err := trie.Chunks(db, stateRoot)
	if err != nil {
		return "", fmt.Errorf("collect chunks at %s: %w", stateRoot, err)
	}

	tmpDir := snapDir + ".tmp"
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", err
	}
	for _, c := range append([]*trie.Chunk{head}, subs...) {
		if len(c.Nodes) == 0 {
			continue
		}
		if err := writeChunk(tmpDir, c); err != nil {
			os.RemoveAll(tmpDir)
			return "", err
		}
	}
	// Rename last so a crash mid-write never leaves a directory that
	// looks like a complete snapshot.
	if err := os.Rename(tmpDir, snapDir); err != nil {
		os.RemoveAll(tmpDir)
		return "", err
	}
	return snapDir, nil
}

func writeChunk(dir string, c *trie.Chunk) error {
	raw, err := rlp.Encode(c.Nodes)
	if err != nil {
		return err
	}
	compressed := snappy.Encode(nil, raw)
	return os.WriteFile(filepath.Join(dir, chunkFileName(c.Root)), compressed, 0o644)
}

// Restore reads every chunk file under snapDir and inserts the node
// blobs into db, verifying that each file reproduces the chunk root
// its name declares. After a successful restore the trie rooted at the
// snapshot's state root is fully readable from db.
func Restore(snapDir string, db *trie.HashDB) error {
	entries, err := os.ReadDir(snapDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		declared, err := types.HexToHash("0x" + entry.Name())
		if err != nil {
			return fmt.Errorf("snapshot: chunk file %q is not named by a root hash", entry.Name())
		}
		if err := restoreChunk(filepath.Join(snapDir, entry.Name()), declared, db); err != nil {
			return err
		}
	}
	return nil
}

func restoreChunk(path string, declared types.Hash, db *trie.HashDB) error {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if n, err := snappy.DecodedLen(compressed); err != nil || n > MaxChunkSize {
		return ErrCompressionFormat
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return ErrCompressionFormat
	}
	var nodes [][]byte
	if err := rlp.Decode(raw, &nodes); err != nil {
		return fmt.Errorf("snapshot: chunk %s: %w", declared, err)
	}
	found := false
	for _, blob := range nodes {
		h, err := db.Insert(blob)
		if err != nil {
			return err
		}
		if h == declared {
			found = true
		}
	}
	if !found {
		return ErrChunkMismatch
	}
	return nil
}
