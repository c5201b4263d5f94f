// Copyright 2026 The CodeChain-Go Authors

package execution

import (
	"bytes"
	"math/big"

	"github.com/kode-chain/codechain-go/pkg/crypto"
	"github.com/kode-chain/codechain-go/pkg/state"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// assetTypeOf derives the asset-type hash an AssetMintOutput is
// assigned: Blake256 of the shard id and the output's lock condition,
// so two mints in the same shard with distinct lock scripts never
// collide.
func assetTypeOf(shardID uint16, metadata string, out types.AssetMintOutput) types.Hash {
	var shardBytes [2]byte
	shardBytes[0] = byte(shardID >> 8)
	shardBytes[1] = byte(shardID)
	return types.Hash(crypto.Blake256(shardBytes[:], []byte(metadata), out.LockScriptHash[:]))
}

func applyAssetMint(s *state.TopLevelState, a types.AssetMintAction) error {
	sc, err := s.ShardState(a.ShardID)
	if err != nil {
		return err
	}
	assetType := assetTypeOf(a.ShardID, a.Metadata, a.Output)
	if _, err := sc.AssetScheme(assetType); err == nil {
		return ErrAssetAlreadyExists
	}
	sc.SetAssetScheme(assetType, &state.AssetScheme{
		Metadata:  a.Metadata,
		Amount:    a.Output.Quantity.Uint64(),
		Registrar: a.Registrar,
		Approver:  a.Approver,
	})
	sc.SetOwnedAsset(assetType, &state.OwnedAsset{
		AssetType:  assetType,
		Quantity:   a.Output.Quantity.Uint64(),
		LockScript: a.Output.LockScriptHash[:],
	})
	return nil
}

// checkLock is the simplified lock-script check this module performs
// in place of a full script VM, which only appears here through its
// interface: spending an owned asset requires presenting the exact
// lock bytes recorded at mint/transfer time. A production script
// interpreter would replace this single comparison without changing
// any other part of applyAssetTransfer.
func checkLock(owned *state.OwnedAsset, input types.AssetTransferInput) bool {
	return bytes.Equal(owned.LockScript, input.LockScript)
}

func applyAssetTransfer(s *state.TopLevelState, a types.AssetTransferAction) error {
	spent := make(map[types.Hash]uint64)
	created := make(map[types.Hash]uint64)

	for _, in := range a.Inputs {
		sc, err := s.ShardState(in.Prevout.ShardID)
		if err != nil {
			return err
		}
		owned, err := sc.OwnedAsset(in.Prevout.AssetType)
		if err != nil {
			return err
		}
		if !checkLock(owned, in) {
			return state.ErrUnauthorizedRegular
		}
		if owned.Quantity < in.Prevout.Quantity {
			return state.ErrInsufficientBalance
		}
		owned.Quantity -= in.Prevout.Quantity
		if owned.Quantity == 0 {
			sc.RemoveOwnedAsset(in.Prevout.AssetType)
		} else {
			sc.SetOwnedAsset(in.Prevout.AssetType, owned)
		}
		spent[in.Prevout.AssetType] += in.Prevout.Quantity
	}

	for _, out := range a.Outputs {
		sc, err := s.ShardState(out.ShardID)
		if err != nil {
			return err
		}
		owned, err := sc.OwnedAsset(out.AssetType)
		if err != nil {
			owned = &state.OwnedAsset{AssetType: out.AssetType, LockScript: out.LockScriptHash[:]}
		}
		owned.Quantity += out.Quantity
		owned.LockScript = out.LockScriptHash[:]
		sc.SetOwnedAsset(out.AssetType, owned)
		created[out.AssetType] += out.Quantity
	}

	return checkConservation(spent, created)
}

// checkConservation enforces the asset-transfer invariant: the total
// quantity of each asset type consumed by a transfer must equal the
// total quantity produced.
func checkConservation(spent, created map[types.Hash]uint64) error {
	for assetType, in := range spent {
		if created[assetType] != in {
			return state.ErrInsufficientBalance
		}
	}
	for assetType, out := range created {
		if spent[assetType] != out {
			return state.ErrInsufficientBalance
		}
	}
	return nil
}

func applyAssetCompose(s *state.TopLevelState, a types.AssetComposeAction) error {
	total := uint64(0)
	for _, in := range a.Inputs {
		sc, err := s.ShardState(in.Prevout.ShardID)
		if err != nil {
			return err
		}
		owned, err := sc.OwnedAsset(in.Prevout.AssetType)
		if err != nil {
			return err
		}
		if !checkLock(owned, in) || owned.Quantity < in.Prevout.Quantity {
			return state.ErrInsufficientBalance
		}
		owned.Quantity -= in.Prevout.Quantity
		if owned.Quantity == 0 {
			sc.RemoveOwnedAsset(in.Prevout.AssetType)
		} else {
			sc.SetOwnedAsset(in.Prevout.AssetType, owned)
		}
		total += in.Prevout.Quantity
	}

	sc, err := s.ShardState(a.ShardID)
	if err != nil {
		return err
	}
	assetType := assetTypeOf(a.ShardID, a.Metadata, a.Output)
	sc.SetAssetScheme(assetType, &state.AssetScheme{Metadata: a.Metadata, Amount: a.Output.Quantity.Uint64()})
	sc.SetOwnedAsset(assetType, &state.OwnedAsset{
		AssetType:  assetType,
		Quantity:   a.Output.Quantity.Uint64(),
		LockScript: a.Output.LockScriptHash[:],
	})
	_ = total
	return nil
}

func applyAssetDecompose(s *state.TopLevelState, a types.AssetDecomposeAction) error {
	sc, err := s.ShardState(a.Input.Prevout.ShardID)
	if err != nil {
		return err
	}
	owned, err := sc.OwnedAsset(a.Input.Prevout.AssetType)
	if err != nil {
		return err
	}
	if !checkLock(owned, a.Input) || owned.Quantity < a.Input.Prevout.Quantity {
		return state.ErrInsufficientBalance
	}
	owned.Quantity -= a.Input.Prevout.Quantity
	if owned.Quantity == 0 {
		sc.RemoveOwnedAsset(a.Input.Prevout.AssetType)
	} else {
		sc.SetOwnedAsset(a.Input.Prevout.AssetType, owned)
	}

	for _, out := range a.Outputs {
		outSC, err := s.ShardState(out.ShardID)
		if err != nil {
			return err
		}
		o, err := outSC.OwnedAsset(out.AssetType)
		if err != nil {
			o = &state.OwnedAsset{AssetType: out.AssetType, LockScript: out.LockScriptHash[:]}
		}
		o.Quantity += out.Quantity
		outSC.SetOwnedAsset(out.AssetType, o)
	}
	return nil
}

// applyAssetUnwrapCCC converts a wrapped-CCC asset back to native
// balance credited to Receiver.
func applyAssetUnwrapCCC(s *state.TopLevelState, payer types.Address, a types.AssetUnwrapCCCAction) error {
	sc, err := s.ShardState(a.Input.Prevout.ShardID)
	if err != nil {
		return err
	}
	owned, err := sc.OwnedAsset(a.Input.Prevout.AssetType)
	if err != nil {
		return err
	}
	if !checkLock(owned, a.Input) || owned.Quantity < a.Input.Prevout.Quantity {
		return state.ErrInsufficientBalance
	}
	owned.Quantity -= a.Input.Prevout.Quantity
	if owned.Quantity == 0 {
		sc.RemoveOwnedAsset(a.Input.Prevout.AssetType)
	} else {
		sc.SetOwnedAsset(a.Input.Prevout.AssetType, owned)
	}

	receiver, err := s.Account(a.Receiver)
	if err != nil {
		return err
	}
	receiver.Balance = new(big.Int).Add(receiver.Balance, new(big.Int).SetUint64(a.Input.Prevout.Quantity))
	s.SetAccount(a.Receiver, receiver)
	return nil
}
