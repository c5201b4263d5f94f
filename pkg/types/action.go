// Copyright 2026 The CodeChain-Go Authors

package types

import (
	"fmt"
	"math/big"

	"github.com/kode-chain/codechain-go/pkg/rlp"
)

// ActionType tags which of the action kinds a transaction carries:
// payments, asset mint/transfer/compose/decompose/unwrap, regular-key
// set, shard creation, and opaque custom-handler payloads addressed by
// a handler id.
type ActionType uint8

const (
	ActionPay ActionType = iota + 1
	ActionSetRegularKey
	ActionCreateShard
	ActionAssetMint
	ActionAssetTransfer
	ActionAssetCompose
	ActionAssetDecompose
	ActionAssetUnwrapCCC
	ActionCustom
)

// Action is one transaction payload kind. Every concrete action type
// in this file implements it.
type Action interface {
	Type() ActionType
}

// PayAction transfers Quantity CCC from the signer to Receiver.
type PayAction struct {
	Receiver Address
	Quantity *big.Int
}

func (PayAction) Type() ActionType { return ActionPay }

// SetRegularKeyAction installs key as the signer account's regular
// key: a second public key that may sign on the account's behalf
// without exposing the primary key.
type SetRegularKeyAction struct {
	Key []byte
}

func (SetRegularKeyAction) Type() ActionType { return ActionSetRegularKey }

// CreateShardAction allocates a new shard, owned initially by Users.
type CreateShardAction struct {
	Users []Address
}

func (CreateShardAction) Type() ActionType { return ActionCreateShard }

// AssetOutPoint names one asset output being spent or referenced: the
// transaction that created it, its output index, and (for transfer
// inputs) the asset type and amount being consumed.
type AssetOutPoint struct {
	Tracker   Hash
	Index     uint64
	AssetType Hash
	ShardID   uint16
	Quantity  uint64
}

// AssetMintOutput describes the newly minted asset's lock condition
// and quantity.
type AssetMintOutput struct {
	LockScriptHash Hash
	Parameters     [][]byte
	Quantity       *big.Int
}

// AssetMintAction creates a new asset type in ShardID, owned per
// Output's lock script. Approver and Registrar are the zero Address
// when unset: RLP's struct codec requires nil-able fields to be
// trailing, which AllowedScriptHashes here is not, so absence is
// represented by the zero value rather than a pointer.
type AssetMintAction struct {
	NetworkID           NetworkID
	ShardID             uint16
	Metadata            string
	Output              AssetMintOutput
	Approver            Address
	Registrar           Address
	AllowedScriptHashes []Hash
}

func (AssetMintAction) Type() ActionType { return ActionAssetMint }

// AssetTransferInput spends one prior output, proving the right to do
// so with LockScript/UnlockScript.
type AssetTransferInput struct {
	Prevout      AssetOutPoint
	LockScript   []byte
	UnlockScript []byte
}

// AssetTransferOutput is one newly created output of a transfer.
type AssetTransferOutput struct {
	LockScriptHash Hash
	Parameters     [][]byte
	AssetType      Hash
	ShardID        uint16
	Quantity       uint64
}

// AssetTransferAction spends Inputs and creates Outputs, conserving
// quantity per asset type.
type AssetTransferAction struct {
	NetworkID NetworkID
	Inputs    []AssetTransferInput
	Outputs   []AssetTransferOutput
	Orders    []byte
}

func (AssetTransferAction) Type() ActionType { return ActionAssetTransfer }

// AssetComposeAction burns a set of inputs and mints a single
// composed asset in their place.
type AssetComposeAction struct {
	NetworkID NetworkID
	ShardID   uint16
	Metadata  string
	Inputs    []AssetTransferInput
	Output    AssetMintOutput
}

func (AssetComposeAction) Type() ActionType { return ActionAssetCompose }

// AssetDecomposeAction is the inverse of compose: it burns one
// composed asset and mints its constituent outputs.
type AssetDecomposeAction struct {
	Input   AssetTransferInput
	Outputs []AssetTransferOutput
}

func (AssetDecomposeAction) Type() ActionType { return ActionAssetDecompose }

// AssetUnwrapCCCAction converts a wrapped-CCC asset back into native
// CCC balance credited to Receiver.
type AssetUnwrapCCCAction struct {
	Input    AssetTransferInput
	Receiver Address
}

func (AssetUnwrapCCCAction) Type() ActionType { return ActionAssetUnwrapCCC }

// CustomAction is an opaque payload addressed to a pluggable
// action-handler by HandlerID; the core only routes it, never
// interprets it.
type CustomAction struct {
	HandlerID uint64
	Payload   []byte
}

func (CustomAction) Type() ActionType { return ActionCustom }

// encodeAction returns the action's type tag and its RLP-encoded
// payload, the two fields a Transaction's envelope carries instead of
// a single polymorphic field (RLP has no native tagged-union support).
func encodeAction(a Action) (ActionType, []byte, error) {
	payload, err := rlp.Encode(a)
	if err != nil {
		return 0, nil, err
	}
	return a.Type(), payload, nil
}

// decodeAction reconstructs an Action from its type tag and payload.
func decodeAction(t ActionType, payload []byte) (Action, error) {
	var a Action
	switch t {
	case ActionPay:
		a = new(PayAction)
	case ActionSetRegularKey:
		a = new(SetRegularKeyAction)
	case ActionCreateShard:
		a = new(CreateShardAction)
	case ActionAssetMint:
		a = new(AssetMintAction)
	case ActionAssetTransfer:
		a = new(AssetTransferAction)
	case ActionAssetCompose:
		a = new(AssetComposeAction)
	case ActionAssetDecompose:
		a = new(AssetDecomposeAction)
	case ActionAssetUnwrapCCC:
		a = new(AssetUnwrapCCCAction)
	case ActionCustom:
		a = new(CustomAction)
	default:
		return nil, fmt.Errorf("types: unknown action type %d", t)
	}
	if err := rlp.Decode(payload, a); err != nil {
		return nil, err
	}
	return reflectDeref(a), nil
}

// reflectDeref returns the pointed-to value so callers hold the same
// value kind encodeAction accepted (Action methods are defined on
// value receivers throughout this file).
func reflectDeref(a Action) Action {
	switch v := a.(type) {
	case *PayAction:
		return *v
	case *SetRegularKeyAction:
		return *v
	case *CreateShardAction:
		return *v
	case *AssetMintAction:
		return *v
	case *AssetTransferAction:
		return *v
	case *AssetComposeAction:
		return *v
	case *AssetDecomposeAction:
		return *v
	case *AssetUnwrapCCCAction:
		return *v
	case *CustomAction:
		return *v
	default:
		return a
	}
}
