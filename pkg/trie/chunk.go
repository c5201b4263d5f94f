// Copyright 2026 The CodeChain-Go Authors

package trie

import (
	"github.com/kode-chain/codechain-go/pkg/types"
)

// ChunkDepth is how many node levels below the state root a chunk is
// rooted. Rooting chunks two levels down bounds the number of chunk
// files by the branching factor squared.
const ChunkDepth = 2

// Chunk is one unit of snapshot transfer: the sub-trie rooted at Root,
// carried as the raw content-addressed node blobs in encounter order.
// Re-inserting every blob into a HashDB reproduces the sub-trie
// exactly, since node hashes are derived from the blobs themselves.
type Chunk struct {
	Root  types.Hash
	Nodes [][]byte
}

// Chunks splits the trie rooted at root into the head chunk (the nodes
// above ChunkDepth, rooted at root itself) and one sub-chunk per node
// sitting exactly at ChunkDepth. A trie shallower than ChunkDepth
// yields only the head chunk.
func Chunks(db *HashDB, root types.Hash) (*Chunk, []*Chunk, error) {
	head := &Chunk{Root: root}
	if root.IsZero() {
		return head, nil, nil
	}

	var subRoots []types.Hash
	if err := walkToDepth(db, root, 0, &head.Nodes, &subRoots); err != nil {
		return nil, nil, err
	}

	subs := make([]*Chunk, 0, len(subRoots))
	for _, r := range subRoots {
		c := &Chunk{Root: r}
		if err := collect(db, r, &c.Nodes); err != nil {
			return nil, nil, err
		}
		subs = append(subs, c)
	}
	return head, subs, nil
}

// walkToDepth collects nodes shallower than ChunkDepth into top and
// records the roots found exactly at ChunkDepth.
func walkToDepth(db *HashDB, root types.Hash, depth int, top *[][]byte, subRoots *[]types.Hash) error {
	if root.IsZero() {
		return nil
	}
	if depth == ChunkDepth {
		*subRoots = append(*subRoots, root)
		return nil
	}
	data, err := db.Get(root)
	if err != nil {
		return err
	}
	*top = append(*top, data)
	n, err := decodeNode(data)
	if err != nil {
		return err
	}
	switch n.Kind {
	case kindExtension:
		return walkToDepth(db, n.Children[0], depth+1, top, subRoots)
	case kindBranch:
		for _, child := range n.Children {
			if err := walkToDepth(db, child, depth+1, top, subRoots); err != nil {
				return err
			}
		}
	}
	return nil
}

// collect gathers every node blob in the sub-trie rooted at root.
func collect(db *HashDB, root types.Hash, nodes *[][]byte) error {
	if root.IsZero() {
		return nil
	}
	data, err := db.Get(root)
	if err != nil {
		return err
	}
	*nodes = append(*nodes, data)
	n, err := decodeNode(data)
	if err != nil {
		return err
	}
	switch n.Kind {
	case kindExtension:
		return collect(db, n.Children[0], nodes)
	case kindBranch:
		for _, child := range n.Children {
			if err := collect(db, child, nodes); err != nil {
				return err
			}
		}
	}
	return nil
}
