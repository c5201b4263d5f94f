// Copyright 2026 The CodeChain-Go Authors

package types

import (
	"github.com/kode-chain/codechain-go/pkg/crypto"
	"github.com/kode-chain/codechain-go/pkg/rlp"
)

// Block is an ordered sequence of transactions under a Header.
type Block struct {
	Header       Header
	Transactions []*Transaction
}

// rlpBlock mirrors Block for wire encoding; transactions are stored
// pre-encoded rather than relying on Transaction's own RLP tags so
// that a block body can be decoded even if this module later adds
// transaction fields the sender didn't know about.
type rlpBlock struct {
	Header       rlpHeader
	Transactions []rlp.RawValue
}

// RLP encodes the full block.
func (b *Block) RLP() ([]byte, error) {
	txs := make([]rlp.RawValue, len(b.Transactions))
	for i, tx := range b.Transactions {
		raw, err := tx.RLP()
		if err != nil {
			return nil, err
		}
		txs[i] = raw
	}
	return rlp.Encode(&rlpBlock{
		Header: rlpHeader{
			ParentHash:       b.Header.ParentHash,
			Author:           b.Header.Author,
			StateRoot:        b.Header.StateRoot,
			TransactionsRoot: b.Header.TransactionsRoot,
			InvoicesRoot:     b.Header.InvoicesRoot,
			Score:            b.Header.Score,
			Number:           b.Header.Number,
			Timestamp:        b.Header.Timestamp,
			Extra:            b.Header.Extra,
			Seal:             b.Header.Seal,
		},
		Transactions: txs,
	})
}

// DecodeBlock parses a full on-wire block body.
func DecodeBlock(data []byte) (*Block, error) {
	var raw rlpBlock
	if err := rlp.Decode(data, &raw); err != nil {
		return nil, err
	}

	txs := make([]*Transaction, len(raw.Transactions))
	for i, encoded := range raw.Transactions {
		tx, err := DecodeTransaction(encoded)
		if err != nil {
			return nil, err
		}
		txs[i] = tx
	}

	return &Block{
		Header: Header{
			ParentHash:       raw.Header.ParentHash,
			Author:           raw.Header.Author,
			StateRoot:        raw.Header.StateRoot,
			TransactionsRoot: raw.Header.TransactionsRoot,
			InvoicesRoot:     raw.Header.InvoicesRoot,
			Score:            raw.Header.Score,
			Number:           raw.Header.Number,
			Timestamp:        raw.Header.Timestamp,
			Extra:            raw.Header.Extra,
			Seal:             raw.Header.Seal,
		},
		Transactions: txs,
	}, nil
}

// Hash is the block's header hash, seal included: the identity the
// blockchain index, vote pool and sync protocol all key on.
func (b *Block) Hash() Hash {
	return b.Header.Hash()
}

// ComputeTransactionsRoot content-addresses an ordered transaction
// list as Blake256 of the RLP-encoded list of their hashes. This is a
// flat commitment rather than an incremental Merkle trie: the header
// only needs to bind the block body, never to prove membership of one
// transaction without the rest, so a full trie buys nothing here.
func ComputeTransactionsRoot(txs []*Transaction) (Hash, error) {
	hashes := make([]Hash, len(txs))
	for i, tx := range txs {
		h, err := tx.Hash()
		if err != nil {
			return Hash{}, err
		}
		hashes[i] = h
	}
	raw, err := rlp.Encode(hashes)
	if err != nil {
		return Hash{}, err
	}
	return crypto.Blake256(raw), nil
}

// ComputeInvoicesRoot content-addresses the ordered invoice list
// produced by applying a block's transactions, the same way
// ComputeTransactionsRoot does for the transactions themselves.
func ComputeInvoicesRoot(invoices []Invoice) (Hash, error) {
	raw, err := rlp.Encode(invoices)
	if err != nil {
		return Hash{}, err
	}
	return crypto.Blake256(raw), nil
}
