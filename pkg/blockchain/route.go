// Copyright 2026 The CodeChain-Go Authors

package blockchain

import "github.com/kode-chain/codechain-go/pkg/types"

// ImportRoute is the ordered set of blocks whose transactions must
// be undone (retracted) and re-applied (enacted) to rebase the best
// chain onto the new head. Retracted is ordered from the old best
// block down to (but excluding) Ancestor, Enacted is ordered from
// just after Ancestor up to the new head.
type ImportRoute struct {
	Ancestor  types.Hash
	Enacted   []types.Hash
	Retracted []types.Hash
	Omitted   []types.Hash
}

// TreeRoute computes the route between from and to: walk both back
// along parents to equal block numbers, then walk both in lockstep
// until the hashes meet. It returns
// ErrNoRoute if either side's ancestry cannot be resolved from the
// index (pruned history).
func (idx *Index) TreeRoute(from, to types.Hash) (*ImportRoute, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.treeRouteLocked(from, to)
}

func (idx *Index) treeRouteLocked(from, to types.Hash) (*ImportRoute, error) {
	if from == to {
		return &ImportRoute{Ancestor: from}, nil
	}

	fromNum, err := idx.numberOf(from)
	if err != nil {
		return nil, err
	}
	toNum, err := idx.numberOf(to)
	if err != nil {
		return nil, err
	}

	var retracted, enacted []types.Hash
	fromCursor, toCursor := from, to

	for fromNum > toNum {
		retracted = append(retracted, fromCursor)
		parent, err := idx.parentOf(fromCursor)
		if err != nil {
			return nil, ErrNoRoute
		}
		fromCursor = parent
		fromNum--
	}
	for toNum > fromNum {
		enacted = append(enacted, toCursor)
		parent, err := idx.parentOf(toCursor)
		if err != nil {
			return nil, ErrNoRoute
		}
		toCursor = parent
		toNum--
	}

	for fromCursor != toCursor {
		retracted = append(retracted, fromCursor)
		enacted = append(enacted, toCursor)
		fp, err := idx.parentOf(fromCursor)
		if err != nil {
			return nil, ErrNoRoute
		}
		tp, err := idx.parentOf(toCursor)
		if err != nil {
			return nil, ErrNoRoute
		}
		fromCursor, toCursor = fp, tp
	}

	reverseHashes(enacted)

	return &ImportRoute{Ancestor: fromCursor, Enacted: enacted, Retracted: retracted}, nil
}

func (idx *Index) numberOf(hash types.Hash) (uint64, error) {
	h, err := idx.Header(hash)
	if err != nil {
		return 0, ErrNoRoute
	}
	return h.Number, nil
}

func (idx *Index) parentOf(hash types.Hash) (types.Hash, error) {
	h, err := idx.Header(hash)
	if err != nil {
		return types.Hash{}, err
	}
	return h.ParentHash, nil
}

func reverseHashes(s []types.Hash) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
