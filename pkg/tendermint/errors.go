// Copyright 2026 The CodeChain-Go Authors

package tendermint

import "errors"

var (
	ErrNotDesignatedProposer = errors.New("tendermint: signer is not the designated proposer for this (height, view)")
	ErrWrongVoteStep         = errors.New("tendermint: vote does not belong to the current (height, view, step)")
	ErrInvalidVoteSignature  = errors.New("tendermint: vote signature does not verify")
	ErrNotCommitted          = errors.New("tendermint: no precommit supermajority gathered yet for this height")
	ErrMalformedSeal         = errors.New("tendermint: seal bitset/precommit count mismatch")
	ErrNoQuorum              = errors.New("tendermint: seal does not carry a precommit supermajority")
	ErrProposalHashMismatch  = errors.New("tendermint: proposal body does not hash to the voted block hash")
)
