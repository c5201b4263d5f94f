// Copyright 2026 The CodeChain-Go Authors

// Package execution applies a transaction's Action to a
// state.TopLevelState, the step the block-import pipeline (the
// client/importer) runs once per transaction between the engine's
// on_new_block and on_close_block hooks. Every mutation here runs
// inside its own checkpoint so a failing transaction reverts exactly
// its own effects.
package execution

import (
	"math/big"

	"github.com/kode-chain/codechain-go/pkg/errkind"
	"github.com/kode-chain/codechain-go/pkg/state"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// Apply executes tx against s, charging its fee to author regardless
// of outcome, and returns the invoice recorded for it. A semantic
// failure (insufficient balance, bad seq, unauthorised regular key,
// asset conservation violated) reverts tx's own checkpoint and yields
// a failed invoice; it does not propagate as an error, since runtime
// errors are scoped to the one transaction and never abort the rest of
// the block. A storage-layer error (trie corruption) does propagate,
// since that is fatal to the whole node.
func Apply(s *state.TopLevelState, tx *types.Transaction, author types.Address, registry *HandlerRegistry) (types.Invoice, error) {
	hash, err := tx.Hash()
	if err != nil {
		return types.Invoice{}, err
	}

	s.Checkpoint()

	signer, err := tx.Signer()
	if err != nil {
		s.RevertToCheckpoint()
		return failedInvoice(hash, err), nil
	}

	payer, err := resolvePayer(s, signer)
	if err != nil {
		s.RevertToCheckpoint()
		return failedInvoice(hash, err), nil
	}

	if err := chargeSeqAndFee(s, payer, tx.Seq, tx.Fee, author); err != nil {
		s.RevertToCheckpoint()
		return failedInvoice(hash, err), nil
	}

	// The action runs under a checkpoint of its own so that its failure
	// reverts only the action, leaving the seq bump and fee charge.
	s.Checkpoint()
	if err := applyAction(s, tx.Action, payer, registry); err != nil {
		s.RevertToCheckpoint()
		if err := s.DiscardCheckpoint(); err != nil {
			return types.Invoice{}, err
		}
		return failedInvoice(hash, err), nil
	}
	if err := s.DiscardCheckpoint(); err != nil {
		return types.Invoice{}, err
	}

	if err := s.DiscardCheckpoint(); err != nil {
		return types.Invoice{}, err
	}
	return types.Invoice{TxHash: hash, Success: true}, nil
}

func failedInvoice(hash types.Hash, err error) types.Invoice {
	return types.Invoice{TxHash: hash, Success: false, Error: err.Error()}
}

// resolvePayer returns the account address that authorises tx: signer
// itself if it directly owns an account, or the owner signer delegates
// for if signer is registered as a regular key.
func resolvePayer(s *state.TopLevelState, signer types.Address) (types.Address, error) {
	reg, ok, err := s.RegularAccount(signer)
	if err != nil {
		return types.Address{}, err
	}
	if ok {
		return reg.Owner, nil
	}
	return signer, nil
}

// chargeSeqAndFee enforces that seq is monotonic per account and
// balance never goes negative, then transfers fee from payer to author
// unconditionally: the fee is charged whether or not the action itself
// later fails, since it compensates the author for including the
// transaction at all.
func chargeSeqAndFee(s *state.TopLevelState, payer types.Address, seq uint64, fee *big.Int, author types.Address) error {
	acc, err := s.Account(payer)
	if err != nil {
		return err
	}
	if acc.Seq != seq {
		return state.ErrInvalidSeq
	}
	if acc.Balance.Cmp(fee) < 0 {
		return state.ErrInsufficientBalance
	}
	acc.Seq++
	acc.Balance = new(big.Int).Sub(acc.Balance, fee)
	s.SetAccount(payer, acc)

	authorAcc, err := s.Account(author)
	if err != nil {
		return err
	}
	authorAcc.Balance = new(big.Int).Add(authorAcc.Balance, fee)
	s.SetAccount(author, authorAcc)
	return nil
}

// applyAction dispatches on the action's concrete type. Custom
// actions are the one open extension point: they are routed to
// registry by HandlerID rather than interpreted here, so the core
// depends only on the HandlerRegistry interface and not on any
// particular custom action's semantics.
func applyAction(s *state.TopLevelState, action types.Action, payer types.Address, registry *HandlerRegistry) error {
	switch a := action.(type) {
	case types.PayAction:
		return applyPay(s, payer, a)
	case types.SetRegularKeyAction:
		return applySetRegularKey(s, payer, a)
	case types.CreateShardAction:
		return applyCreateShard(s, a)
	case types.AssetMintAction:
		return applyAssetMint(s, a)
	case types.AssetTransferAction:
		return applyAssetTransfer(s, a)
	case types.AssetComposeAction:
		return applyAssetCompose(s, a)
	case types.AssetDecomposeAction:
		return applyAssetDecompose(s, a)
	case types.AssetUnwrapCCCAction:
		return applyAssetUnwrapCCC(s, payer, a)
	case types.CustomAction:
		if registry == nil {
			return errkind.New(errkind.KindSemantic, "no_handler_registry", "")
		}
		return registry.Execute(s, payer, a.HandlerID, a.Payload)
	default:
		return errkind.New(errkind.KindSemantic, "unknown_action", "")
	}
}

func applyPay(s *state.TopLevelState, payer types.Address, a types.PayAction) error {
	from, err := s.Account(payer)
	if err != nil {
		return err
	}
	if from.Balance.Cmp(a.Quantity) < 0 {
		return state.ErrInsufficientBalance
	}
	from.Balance = new(big.Int).Sub(from.Balance, a.Quantity)
	s.SetAccount(payer, from)

	to, err := s.Account(a.Receiver)
	if err != nil {
		return err
	}
	to.Balance = new(big.Int).Add(to.Balance, a.Quantity)
	s.SetAccount(a.Receiver, to)
	return nil
}

func applySetRegularKey(s *state.TopLevelState, payer types.Address, a types.SetRegularKeyAction) error {
	keyAddr := types.BytesToAddress(a.Key)
	s.SetRegularAccount(keyAddr, &state.RegularAccount{Owner: payer})
	return nil
}

func applyCreateShard(s *state.TopLevelState, a types.CreateShardAction) error {
	id := s.IncrementShardCount()
	s.SetShard(id, &state.Shard{Users: a.Users})
	return nil
}
