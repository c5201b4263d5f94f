// Copyright 2026 The CodeChain-Go Authors

// Package errkind implements the node's typed-error taxonomy: every
// error that can cross a subsystem boundary (mempool insertion, block
// verification, the RPC surface stub) is tagged with a stable Kind so
// a caller can dispatch on policy (reject-and-penalise vs.
// reject-and-continue vs. fatal) without string-matching messages.
package errkind

import (
	"fmt"

	"github.com/kode-chain/codechain-go/pkg/rlp"
)

// Kind is the stable tag byte identifying an error's category. The
// numeric values are part of the wire format (a
// typed error round-trips through RLP with its tag) so existing
// values must never be renumbered, only appended to.
type Kind uint8

const (
	// KindSyntactic covers malformed RLP, bad seal arity, oversized
	// extra data: reject block/tx, penalise peer.
	KindSyntactic Kind = iota + 1
	// KindSemantic covers invalid seq, insufficient balance, unknown
	// asset: reject tx with a typed error, the block still imports.
	KindSemantic
	// KindConsensus covers an invalid seal signature, a signer absent
	// from the validator set, a score mismatch: reject block, penalise
	// peer, do not advance.
	KindConsensus
	// KindEngineState covers a proposal for the wrong (height,view), a
	// vote regression: drop the message silently, log at debug.
	KindEngineState
	// KindStorage covers a missing trie node, a DB write failure:
	// fatal, propagate up, shut down cleanly.
	KindStorage
	// KindNetwork covers a decode failure, a timeout, a queue
	// overflow: close the connection, keep the node running.
	KindNetwork
	// KindMempool covers a pool at capacity, a too-cheap replacement,
	// an expired time-lock: reject the insertion with a typed error.
	KindMempool
)

func (k Kind) String() string {
	switch k {
	case KindSyntactic:
		return "syntactic"
	case KindSemantic:
		return "semantic"
	case KindConsensus:
		return "consensus"
	case KindEngineState:
		return "engine_state"
	case KindStorage:
		return "storage"
	case KindNetwork:
		return "network"
	case KindMempool:
		return "mempool"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Policy names what the node does in response to an error of a given
// Kind.
type Policy uint8

const (
	PolicyRejectAndPenalise Policy = iota
	PolicyRejectOnly
	PolicyDropSilently
	PolicyFatal
	PolicyCloseConnection
)

// PolicyFor returns the handling policy for k.
func PolicyFor(k Kind) Policy {
	switch k {
	case KindSyntactic, KindConsensus:
		return PolicyRejectAndPenalise
	case KindSemantic, KindMempool:
		return PolicyRejectOnly
	case KindEngineState:
		return PolicyDropSilently
	case KindStorage:
		return PolicyFatal
	case KindNetwork:
		return PolicyCloseConnection
	default:
		return PolicyRejectOnly
	}
}

// Error is a tagged error: user-visible failures preserve Kind and a
// short Code across a boundary (RPC, peer-penalty bookkeeping, logs),
// while Detail carries a free-form message for internal diagnosis
// only.
type Error struct {
	Kind   Kind
	Code   string
	Detail string
}

func New(kind Kind, code, detail string) *Error {
	return &Error{Kind: kind, Code: code, Detail: detail}
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Code, e.Detail)
}

// rlpError mirrors Error's three fields for wire encoding; kept
// separate so Error itself stays a plain exported struct usable with
// errors.As without an encoding-only field leaking into call sites.
type rlpError struct {
	Kind   uint8
	Code   string
	Detail string
}

// RLP encodes e as a tagged payload: every typed error is
// RLP-encodable with its Kind as a leading tag byte.
func (e *Error) RLP() ([]byte, error) {
	return rlp.Encode(&rlpError{Kind: uint8(e.Kind), Code: e.Code, Detail: e.Detail})
}

// Decode parses a wire-encoded Error.
func Decode(data []byte) (*Error, error) {
	var raw rlpError
	if err := rlp.Decode(data, &raw); err != nil {
		return nil, err
	}
	return &Error{Kind: Kind(raw.Kind), Code: raw.Code, Detail: raw.Detail}, nil
}
