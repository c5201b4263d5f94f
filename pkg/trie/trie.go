// Copyright 2026 The CodeChain-Go Authors

package trie

import (
	"github.com/kode-chain/codechain-go/pkg/types"
)

// Trie is a single version of the binary Patricia trie rooted at
// Root. Every mutation writes new nodes through db and returns a new
// root; old roots remain valid and readable as long as their nodes
// are retained, which is what lets the state layer above keep a
// checkpoint stack of roots instead of copying data.
type Trie struct {
	db   *HashDB
	Root types.Hash
}

// New returns a Trie over db rooted at root. The zero hash is a valid
// empty trie.
func New(db *HashDB, root types.Hash) *Trie {
	return &Trie{db: db, Root: root}
}

// Get looks up key, reporting whether it was present.
func (t *Trie) Get(key []byte) ([]byte, bool, error) {
	return t.get(t.Root, keyToPath(key))
}

func (t *Trie) get(root types.Hash, path []byte) ([]byte, bool, error) {
	if root.IsZero() {
		return nil, false, nil
	}
	data, err := t.db.Get(root)
	if err != nil {
		return nil, false, err
	}
	n, err := decodeNode(data)
	if err != nil {
		return nil, false, err
	}

	switch n.Kind {
	case kindLeaf:
		if string(n.Path) == string(path) {
			return n.Value, true, nil
		}
		return nil, false, nil
	case kindExtension:
		cp := commonPrefixLen(path, n.Path)
		if cp != len(n.Path) {
			return nil, false, nil
		}
		return t.get(n.Children[0], path[cp:])
	case kindBranch:
		if len(path) == 0 {
			return n.Value, n.Value != nil, nil
		}
		return t.get(n.Children[path[0]], path[1:])
	default:
		return nil, false, nil
	}
}

// Put inserts or overwrites key, updating t.Root to the new root.
func (t *Trie) Put(key, value []byte) error {
	newRoot, err := t.put(t.Root, keyToPath(key), value)
	if err != nil {
		return err
	}
	t.Root = newRoot
	return nil
}

func (t *Trie) insert(n rlpNode) (types.Hash, error) {
	data, err := encodeNode(n)
	if err != nil {
		return types.Hash{}, err
	}
	return t.db.Insert(data)
}

func (t *Trie) put(root types.Hash, path, value []byte) (types.Hash, error) {
	if root.IsZero() {
		return t.insert(leaf(path, value))
	}

	data, err := t.db.Get(root)
	if err != nil {
		return types.Hash{}, err
	}
	n, err := decodeNode(data)
	if err != nil {
		return types.Hash{}, err
	}

	switch n.Kind {
	case kindLeaf:
		if string(n.Path) == string(path) {
			return t.insert(leaf(path, value))
		}
		return t.splitLeaf(n, path, value)

	case kindExtension:
		cp := commonPrefixLen(path, n.Path)
		if cp == len(n.Path) {
			childHash, err := t.put(n.Children[0], path[cp:], value)
			if err != nil {
				return types.Hash{}, err
			}
			return t.insert(extension(n.Path, childHash))
		}
		return t.splitExtension(n, path, value)

	case kindBranch:
		if len(path) == 0 {
			return t.insert(branch(n.Children, value))
		}
		bit := path[0]
		childHash, err := t.put(n.Children[bit], path[1:], value)
		if err != nil {
			return types.Hash{}, err
		}
		children := n.Children
		children[bit] = childHash
		return t.insert(branch(children, n.Value))

	default:
		return types.Hash{}, ErrCorruptNode
	}
}

// splitLeaf handles inserting (path, value) where an existing leaf
// occupies the same spot but with a different key.
func (t *Trie) splitLeaf(existing rlpNode, path, value []byte) (types.Hash, error) {
	cp := commonPrefixLen(path, existing.Path)

	var children [2]types.Hash
	var branchValue []byte

	if cp == len(existing.Path) {
		// existing key is a strict prefix of the new key: it sits on
		// the branch itself, the new key continues below it.
		branchValue = existing.Value
	} else {
		bitOld := existing.Path[cp]
		oldHash, err := t.insert(leaf(existing.Path[cp+1:], existing.Value))
		if err != nil {
			return types.Hash{}, err
		}
		children[bitOld] = oldHash
	}

	if cp == len(path) {
		branchValue = value
	} else {
		bitNew := path[cp]
		newHash, err := t.insert(leaf(path[cp+1:], value))
		if err != nil {
			return types.Hash{}, err
		}
		children[bitNew] = newHash
	}

	return t.wrapBranch(path[:cp], children, branchValue)
}

// splitExtension handles inserting (path, value) where the path
// diverges from an existing extension's prefix partway through.
func (t *Trie) splitExtension(existing rlpNode, path, value []byte) (types.Hash, error) {
	cp := commonPrefixLen(path, existing.Path)

	var children [2]types.Hash
	var branchValue []byte

	bitOld := existing.Path[cp]
	oldRemaining := existing.Path[cp+1:]
	var oldHash types.Hash
	var err error
	if len(oldRemaining) == 0 {
		oldHash = existing.Children[0]
	} else {
		oldHash, err = t.insert(extension(oldRemaining, existing.Children[0]))
		if err != nil {
			return types.Hash{}, err
		}
	}
	children[bitOld] = oldHash

	if cp == len(path) {
		branchValue = value
	} else {
		bitNew := path[cp]
		newHash, err := t.insert(leaf(path[cp+1:], value))
		if err != nil {
			return types.Hash{}, err
		}
		children[bitNew] = newHash
	}

	return t.wrapBranch(path[:cp], children, branchValue)
}

func (t *Trie) wrapBranch(prefix []byte, children [2]types.Hash, value []byte) (types.Hash, error) {
	branchHash, err := t.insert(branch(children, value))
	if err != nil {
		return types.Hash{}, err
	}
	if len(prefix) == 0 {
		return branchHash, nil
	}
	return t.insert(extension(prefix, branchHash))
}

// Delete removes key if present, updating t.Root. Deleting an absent
// key is a no-op.
func (t *Trie) Delete(key []byte) error {
	newRoot, _, err := t.del(t.Root, keyToPath(key))
	if err != nil {
		return err
	}
	t.Root = newRoot
	return nil
}

func (t *Trie) del(root types.Hash, path []byte) (types.Hash, bool, error) {
	if root.IsZero() {
		return root, false, nil
	}

	data, err := t.db.Get(root)
	if err != nil {
		return types.Hash{}, false, err
	}
	n, err := decodeNode(data)
	if err != nil {
		return types.Hash{}, false, err
	}

	switch n.Kind {
	case kindLeaf:
		if string(n.Path) != string(path) {
			return root, false, nil
		}
		return types.Hash{}, true, nil

	case kindExtension:
		cp := commonPrefixLen(path, n.Path)
		if cp != len(n.Path) {
			return root, false, nil
		}
		childHash, existed, err := t.del(n.Children[0], path[cp:])
		if err != nil || !existed {
			return root, existed, err
		}
		if childHash.IsZero() {
			return types.Hash{}, true, nil
		}
		merged, err := t.mergeIntoExtension(n.Path, childHash)
		return merged, true, err

	case kindBranch:
		if len(path) == 0 {
			if n.Value == nil {
				return root, false, nil
			}
			newHash, err := t.collapseOrRebuildBranch(n.Children, nil)
			return newHash, true, err
		}

		bit := path[0]
		if n.Children[bit].IsZero() {
			return root, false, nil
		}
		childHash, existed, err := t.del(n.Children[bit], path[1:])
		if err != nil || !existed {
			return root, existed, err
		}
		children := n.Children
		children[bit] = childHash
		newHash, err := t.collapseOrRebuildBranch(children, n.Value)
		return newHash, true, err

	default:
		return types.Hash{}, false, ErrCorruptNode
	}
}

// mergeIntoExtension prepends prefix to child, folding consecutive
// extensions/leaves into one node rather than leaving a chain of
// single-child extensions behind after a delete.
func (t *Trie) mergeIntoExtension(prefix []byte, child types.Hash) (types.Hash, error) {
	data, err := t.db.Get(child)
	if err != nil {
		return types.Hash{}, err
	}
	n, err := decodeNode(data)
	if err != nil {
		return types.Hash{}, err
	}

	switch n.Kind {
	case kindLeaf:
		return t.insert(leaf(append(append([]byte{}, prefix...), n.Path...), n.Value))
	case kindExtension:
		return t.insert(extension(append(append([]byte{}, prefix...), n.Path...), n.Children[0]))
	default:
		return t.insert(extension(prefix, child))
	}
}

// collapseOrRebuildBranch rebuilds a branch node after one of its
// children or its own value changed, collapsing it into an
// extension/leaf if at most one child now remains and it holds no
// value of its own.
func (t *Trie) collapseOrRebuildBranch(children [2]types.Hash, value []byte) (types.Hash, error) {
	nonEmpty := -1
	count := 0
	for i, c := range children {
		if !c.IsZero() {
			count++
			nonEmpty = i
		}
	}

	if value == nil && count == 0 {
		return types.Hash{}, nil
	}
	if value == nil && count == 1 {
		bit := byte(nonEmpty)
		return t.mergeIntoExtension([]byte{bit}, children[nonEmpty])
	}
	return t.insert(branch(children, value))
}
