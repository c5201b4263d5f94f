// Copyright 2026 The CodeChain-Go Authors

// Package storage provides the key-value Backend every other core
// package (trie node store, blockchain index, invoice store, mempool
// local-parcels list, consensus backup record) is built on, plus two
// concrete backends: an in-memory one for tests and a cometbft-db one
// for production use.
package storage

import "errors"

// ErrNotFound is returned by Get when key is absent.
var ErrNotFound = errors.New("storage: key not found")

// Backend is the minimal key-value contract the rest of the core
// depends on. It intentionally has no notion of buckets or columns:
// every caller namespaces its own keys with a short prefix (see the
// key layouts documented in pkg/blockchain and pkg/trie).
type Backend interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key []byte) ([]byte, error)
	// Has reports whether key exists.
	Has(key []byte) (bool, error)
	// Set writes key durably. Writes must survive a crash immediately
	// after Set returns.
	Set(key, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key []byte) error
	// NewBatch returns a batch of writes applied atomically on Commit.
	NewBatch() Batch
	// Iterator returns an iterator over keys in [start, end), or over
	// every key from start onward when end is nil.
	Iterator(start, end []byte) (Iterator, error)
	// Close releases any underlying resources.
	Close() error
}

// Batch accumulates writes for atomic application.
type Batch interface {
	Set(key, value []byte)
	Delete(key []byte)
	Commit() error
}

// Iterator walks a key range in ascending order.
type Iterator interface {
	Valid() bool
	Next()
	Key() []byte
	Value() []byte
	Close() error
}
