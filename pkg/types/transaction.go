// Copyright 2026 The CodeChain-Go Authors

package types

import (
	"math/big"

	"github.com/kode-chain/codechain-go/pkg/crypto"
	"github.com/kode-chain/codechain-go/pkg/rlp"
)

// Transaction is a signed state mutation: network-id, seq, fee, and an
// action. Seq is the per-account nonce; Fee is paid to the block
// author regardless of which action is chosen.
type Transaction struct {
	NetworkID NetworkID
	Seq       uint64
	Fee       *big.Int
	Action    Action
	Signature []byte
}

// rlpTransaction is the envelope Transaction encodes to: the action
// is split into a type tag and its own RLP payload because RLP has no
// native tagged-union support (see encodeAction/decodeAction).
type rlpTransaction struct {
	NetworkID     NetworkID
	Seq           uint64
	Fee           *big.Int
	ActionType    ActionType
	ActionPayload rlp.RawValue
	Signature     []byte
}

// unsignedRLP encodes everything but the signature: the payload a
// signer signs and a verifier recomputes.
func (tx *Transaction) unsignedRLP() ([]byte, error) {
	actionType, payload, err := encodeAction(tx.Action)
	if err != nil {
		return nil, err
	}
	return rlp.Encode(&struct {
		NetworkID     NetworkID
		Seq           uint64
		Fee           *big.Int
		ActionType    ActionType
		ActionPayload rlp.RawValue
	}{tx.NetworkID, tx.Seq, tx.Fee, actionType, payload})
}

// SigningHash is Blake256 of the unsigned payload: what Sign signs and
// Signer recovers the signing address from.
func (tx *Transaction) SigningHash() (Hash, error) {
	raw, err := tx.unsignedRLP()
	if err != nil {
		return Hash{}, err
	}
	return crypto.Blake256(raw), nil
}

// Sign fills in tx.Signature using kp, over SigningHash.
func (tx *Transaction) Sign(kp *crypto.KeyPair) error {
	digest, err := tx.SigningHash()
	if err != nil {
		return err
	}
	sig, err := kp.Sign(digest[:])
	if err != nil {
		return err
	}
	tx.Signature = sig
	return nil
}

// Signer recovers the 160-bit address that produced tx.Signature.
func (tx *Transaction) Signer() (Address, error) {
	digest, err := tx.SigningHash()
	if err != nil {
		return Address{}, err
	}
	return crypto.RecoverAddress(digest[:], tx.Signature)
}

// Hash is Blake256 of the fully signed transaction, the identity used
// by the mempool, the invoice store and transaction sync.
func (tx *Transaction) Hash() (Hash, error) {
	raw, err := tx.RLP()
	if err != nil {
		return Hash{}, err
	}
	return crypto.Blake256(raw), nil
}

// RLP encodes the full, signed transaction.
func (tx *Transaction) RLP() ([]byte, error) {
	actionType, payload, err := encodeAction(tx.Action)
	if err != nil {
		return nil, err
	}
	return rlp.Encode(&rlpTransaction{
		NetworkID:     tx.NetworkID,
		Seq:           tx.Seq,
		Fee:           tx.Fee,
		ActionType:    actionType,
		ActionPayload: payload,
		Signature:     tx.Signature,
	})
}

// DecodeTransaction parses a fully signed on-wire transaction.
func DecodeTransaction(data []byte) (*Transaction, error) {
	var raw rlpTransaction
	if err := rlp.Decode(data, &raw); err != nil {
		return nil, err
	}
	action, err := decodeAction(raw.ActionType, raw.ActionPayload)
	if err != nil {
		return nil, err
	}
	return &Transaction{
		NetworkID: raw.NetworkID,
		Seq:       raw.Seq,
		Fee:       raw.Fee,
		Action:    action,
		Signature: raw.Signature,
	}, nil
}
