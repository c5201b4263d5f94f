// Copyright 2026 The CodeChain-Go Authors

package types

import (
	"math/big"

	"github.com/kode-chain/codechain-go/pkg/crypto"
	"github.com/kode-chain/codechain-go/pkg/rlp"
)

// Header is a block header: parent hash, author address, state root,
// transactions root, invoices root, score (cumulative
// difficulty/weight), number, timestamp, extra data, and a
// variable-length seal whose meaning is engine-specific.
type Header struct {
	ParentHash       Hash
	Author           Address
	StateRoot        Hash
	TransactionsRoot Hash
	InvoicesRoot     Hash
	Score            *big.Int
	Number           uint64
	Timestamp        uint64
	Extra            []byte
	Seal             [][]byte
}

// sealableHeader is the RLP shape of a header with its seal blanked
// out, used to compute the bare hash an engine signs over: the seal
// itself usually embeds that signature, so it cannot cover itself.
type sealableHeader struct {
	ParentHash       Hash
	Author           Address
	StateRoot        Hash
	TransactionsRoot Hash
	InvoicesRoot     Hash
	Score            *big.Int
	Number           uint64
	Timestamp        uint64
	Extra            []byte
}

// rlpHeader is the full on-wire header, seal included.
type rlpHeader struct {
	ParentHash       Hash
	Author           Address
	StateRoot        Hash
	TransactionsRoot Hash
	InvoicesRoot     Hash
	Score            *big.Int
	Number           uint64
	Timestamp        uint64
	Extra            []byte
	Seal             [][]byte
}

// BareRLP encodes the header without its seal, the payload an engine
// signs: the seal itself carries the signature over this.
func (h *Header) BareRLP() ([]byte, error) {
	return rlp.Encode(&sealableHeader{
		ParentHash:       h.ParentHash,
		Author:           h.Author,
		StateRoot:        h.StateRoot,
		TransactionsRoot: h.TransactionsRoot,
		InvoicesRoot:     h.InvoicesRoot,
		Score:            h.Score,
		Number:           h.Number,
		Timestamp:        h.Timestamp,
		Extra:            h.Extra,
	})
}

// BareHash is Blake256 of BareRLP, the digest engines sign and verify
// seals against.
func (h *Header) BareHash() Hash {
	raw, err := h.BareRLP()
	if err != nil {
		panic(err)
	}
	return crypto.Blake256(raw)
}

// RLP encodes the full header, seal included.
func (h *Header) RLP() ([]byte, error) {
	return rlp.Encode(&rlpHeader{
		ParentHash:       h.ParentHash,
		Author:           h.Author,
		StateRoot:        h.StateRoot,
		TransactionsRoot: h.TransactionsRoot,
		InvoicesRoot:     h.InvoicesRoot,
		Score:            h.Score,
		Number:           h.Number,
		Timestamp:        h.Timestamp,
		Extra:            h.Extra,
		Seal:             h.Seal,
	})
}

// Hash is Blake256 of the full header including its seal: the block
// hash every index, vote and route computation keys off.
func (h *Header) Hash() Hash {
	raw, err := h.RLP()
	if err != nil {
		panic(err)
	}
	return crypto.Blake256(raw)
}

// DecodeHeader parses a full on-wire header.
func DecodeHeader(data []byte) (*Header, error) {
	var raw rlpHeader
	if err := rlp.Decode(data, &raw); err != nil {
		return nil, err
	}
	return &Header{
		ParentHash:       raw.ParentHash,
		Author:           raw.Author,
		StateRoot:        raw.StateRoot,
		TransactionsRoot: raw.TransactionsRoot,
		InvoicesRoot:     raw.InvoicesRoot,
		Score:            raw.Score,
		Number:           raw.Number,
		Timestamp:        raw.Timestamp,
		Extra:            raw.Extra,
		Seal:             raw.Seal,
	}, nil
}
