// Copyright 2026 The CodeChain-Go Authors

package consensus

import "github.com/kode-chain/codechain-go/pkg/types"

// ValidatorSet is a fixed, ordered list per height, the interface
// engine-configured validator membership is indirected through. PoA's
// signer list and the Tendermint engine's validator schedule both
// implement it.
type ValidatorSet interface {
	// Validators returns the ordered validator list effective at
	// height.
	Validators(height uint64) ([]types.Address, error)
	// IndexOf returns addr's position in the list at height, or false
	// if addr is not a validator there.
	IndexOf(height uint64, addr types.Address) (int, bool, error)
	// Proposer returns the designated proposer for (height, view),
	// round-robin over Validators(height).
	Proposer(height, view uint64) (types.Address, error)
}

// RoundRobinValidator is the simple case: a fixed list, cycled by
// (height+view) for the next proposer.
type RoundRobinValidator struct {
	list []types.Address
}

func NewRoundRobinValidator(list []types.Address) *RoundRobinValidator {
	cp := make([]types.Address, len(list))
	copy(cp, list)
	return &RoundRobinValidator{list: cp}
}

func (r *RoundRobinValidator) Validators(height uint64) ([]types.Address, error) {
	return r.list, nil
}

func (r *RoundRobinValidator) IndexOf(height uint64, addr types.Address) (int, bool, error) {
	for i, v := range r.list {
		if v == addr {
			return i, true, nil
		}
	}
	return 0, false, nil
}

func (r *RoundRobinValidator) Proposer(height, view uint64) (types.Address, error) {
	if len(r.list) == 0 {
		return types.Address{}, ErrEmptyValidatorSet
	}
	idx := (height + view) % uint64(len(r.list))
	return r.list[idx], nil
}
