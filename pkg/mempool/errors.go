// Copyright 2026 The CodeChain-Go Authors

package mempool

import "errors"

var (
	// ErrTooCheapToReplace enforces the replacement rule: a same-(sender,
	// seq) transaction only displaces the one it collides with if its
	// fee is strictly greater; a tie or a lower fee is rejected.
	ErrTooCheapToReplace = errors.New("mempool: replacement fee must be strictly greater to replace")
	// ErrAlreadyIncluded is returned for a seq the account has already
	// consumed on the current best state.
	ErrAlreadyIncluded = errors.New("mempool: sequence already included on best state")
	// ErrUnsigned is returned when a transaction's signer cannot be
	// recovered.
	ErrUnsigned = errors.New("mempool: cannot recover transaction signer")
	// ErrNoAccountView is returned when the pool has no account view
	// attached to resolve sequence numbers against.
	ErrNoAccountView = errors.New("mempool: no account view attached")
)
