// Copyright 2026 The CodeChain-Go Authors

// Package types holds the wire-level data model shared by every core
// component: hashes, addresses, headers, blocks, transactions and
// invoices.
package types

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// HashLength is the size in bytes of a content hash (Blake2b-256 of RLP).
const HashLength = 32

// Hash256Length is an alias kept for readability at call sites that
// compare against the 160-bit and 128-bit variants below.
const Hash256Length = HashLength

// AddressLength is the size of an account address hash (160 bits).
const AddressLength = 20

// NonceLength is the size of the short-lived IV/nonce hash (128 bits).
const NonceLength = 16

// Hash is a 256-bit content identifier, the Blake2b-256 digest of a
// node's canonical RLP encoding.
type Hash [HashLength]byte

// ZeroHash is the empty hash, used as "no parent" / "no value" sentinel.
var ZeroHash = Hash{}

// BytesToHash copies b into the rightmost bytes of a Hash, zero-padding
// on the left and keeping only the last HashLength bytes if b is too
// long.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// HexToHash decodes a 0x-prefixed or bare hex string into a Hash.
func HexToHash(s string) (Hash, error) {
	b, err := decodeHex(s)
	if err != nil {
		return Hash{}, err
	}
	if len(b) != HashLength {
		return Hash{}, fmt.Errorf("types: hash must be %d bytes, got %d", HashLength, len(b))
	}
	return BytesToHash(b), nil
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) IsZero() bool { return h == ZeroHash }

func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }

// Address is a 160-bit account address hash.
type Address [AddressLength]byte

var ZeroAddress = Address{}

func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

func HexToAddress(s string) (Address, error) {
	b, err := decodeHex(s)
	if err != nil {
		return Address{}, err
	}
	if len(b) != AddressLength {
		return Address{}, fmt.Errorf("types: address must be %d bytes, got %d", AddressLength, len(b))
	}
	return BytesToAddress(b), nil
}

func (a Address) Bytes() []byte { return a[:] }

func (a Address) IsZero() bool { return a == ZeroAddress }

func (a Address) String() string { return "0x" + hex.EncodeToString(a[:]) }

// Nonce is a 128-bit value used for session IVs and handshake nonces.
type Nonce [NonceLength]byte

func (n Nonce) Bytes() []byte { return n[:] }

func decodeHex(s string) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s)%2 != 0 {
		return nil, errors.New("types: odd-length hex string")
	}
	return hex.DecodeString(s)
}
