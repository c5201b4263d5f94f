// Copyright 2026 The CodeChain-Go Authors

// Package crypto collects the hash, signature and VRF primitives
// shared by the trie, block-import pipeline and consensus engines.
package crypto

import (
	"golang.org/x/crypto/blake2b"
)

// Blake256 is the 256-bit Blake2b digest used to content-address trie
// nodes and RLP blobs.
func Blake256(data ...[]byte) [32]byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only errors on a bad key, and we never pass one.
		panic(err)
	}
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// AddressHash160 hashes the address space down to 160 bits: the low
// 20 bytes of Blake256, matching the sparse trie's key space of
// Blake256-hashed addresses.
func AddressHash160(data ...[]byte) [20]byte {
	full := Blake256(data...)
	var out [20]byte
	copy(out[:], full[12:])
	return out
}

// Nonce128 derives a 128-bit IV/nonce from arbitrary seed material.
func Nonce128(data ...[]byte) [16]byte {
	full := Blake256(data...)
	var out [16]byte
	copy(out[:], full[:16])
	return out
}
