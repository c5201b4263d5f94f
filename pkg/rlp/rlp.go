// Copyright 2026 The CodeChain-Go Authors

// Package rlp re-exports go-ethereum's RLP codec under the core's own
// name so that every wire type in this module (headers, transactions,
// blocks, consensus messages) shares one encoding discipline without
// each package reaching into an Ethereum-branded import path directly.
//
// RLP was picked, rather than a hand-rolled framing format, because
// the whole surface of types that need to round-trip here (block wire
// format, peer protocol, consensus seal) is closed and RLP's
// reflection-based struct encoding already does exactly that with no
// schema compiler step.
package rlp

import (
	gethrlp "github.com/ethereum/go-ethereum/rlp"
)

// Encode appends the RLP encoding of val to a new byte slice.
func Encode(val interface{}) ([]byte, error) {
	return gethrlp.EncodeToBytes(val)
}

// Decode parses RLP-encoded data into val, which must be a pointer.
func Decode(data []byte, val interface{}) error {
	return gethrlp.DecodeBytes(data, val)
}

// RawValue is a raw, undecoded RLP value, used to defer decoding of a
// sub-field (e.g. an action-handler payload keyed by handler id).
type RawValue = gethrlp.RawValue

// ListSize returns the encoded size of a list given its payload size,
// used when a component needs to size a frame before encoding it.
func ListSize(contentSize uint64) uint64 {
	return gethrlp.ListSize(contentSize)
}
