// Copyright 2026 The CodeChain-Go Authors

package types

// Invoice records the outcome of applying one transaction during
// block import: whether it succeeded, and if not, a short error tag.
// The invoice store keeps these indefinitely alongside the
// transaction hash, in a store of its own rather than folded into the
// receipt the block body already carries.
type Invoice struct {
	TxHash  Hash
	Success bool
	Error   string
}
