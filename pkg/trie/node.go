// Copyright 2026 The CodeChain-Go Authors

package trie

import (
	"errors"

	"github.com/kode-chain/codechain-go/pkg/rlp"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// ErrCorruptNode is returned decoding a node whose kind tag is not one
// this package understands.
var ErrCorruptNode = errors.New("trie: corrupt node")

// The trie is a binary (bitwise) Patricia trie: every internal node
// branches on one bit of the key, and a path of single-child branches
// collapses into an extension node. This is a deliberately simpler
// cousin of Ethereum's 16-ary hex trie: the state layer above it
// only ever needs "does this root commit to this set of key/value
// pairs", never partial-key iteration, so the extra branching factor
// buys nothing here.
//
// path values below are bitstrings: one byte per bit, 0 or 1.

type nodeKind uint8

const (
	kindLeaf nodeKind = iota
	kindExtension
	kindBranch
)

// rlpNode is the on-disk envelope for all three node kinds; which
// fields are meaningful depends on Kind.
type rlpNode struct {
	Kind     nodeKind
	Path     []byte
	Value    []byte
	Children [2]types.Hash
}

func encodeNode(n rlpNode) ([]byte, error) {
	return rlp.Encode(&n)
}

func decodeNode(data []byte) (rlpNode, error) {
	var n rlpNode
	err := rlp.Decode(data, &n)
	return n, err
}

func leaf(path, value []byte) rlpNode {
	return rlpNode{Kind: kindLeaf, Path: path, Value: value}
}

func extension(path []byte, child types.Hash) rlpNode {
	return rlpNode{Kind: kindExtension, Path: path, Children: [2]types.Hash{child}}
}

func branch(children [2]types.Hash, value []byte) rlpNode {
	return rlpNode{Kind: kindBranch, Children: children, Value: value}
}

// keyToPath expands key into a one-byte-per-bit path, most
// significant bit first.
func keyToPath(key []byte) []byte {
	path := make([]byte, 0, len(key)*8)
	for _, b := range key {
		for i := 7; i >= 0; i-- {
			path = append(path, (b>>uint(i))&1)
		}
	}
	return path
}

func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
