// Copyright 2026 The CodeChain-Go Authors

package tendermint

import (
	"github.com/kode-chain/codechain-go/pkg/crypto/bls"
	"github.com/kode-chain/codechain-go/pkg/rlp"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// Domain separation tags for the four message kinds a validator signs
// over the course of one height, reused verbatim from pkg/crypto/bls
// so an ed25519-scheme validator and a BLS-scheme validator domain
// separate identically.
const (
	domainPropose   = bls.DomainProposal
	domainPrevote   = bls.DomainPrevote
	domainPrecommit = bls.DomainPrecommit
)

// voteMessage is the canonical payload a validator signs for a
// VoteOn: its RLP encoding, so Propose/Prevote/Precommit all sign
// over an unambiguous, self-describing byte string.
func voteMessage(on types.VoteOn) []byte {
	raw, err := rlp.Encode(&on)
	if err != nil {
		panic(err)
	}
	return raw
}

func domainFor(step types.Step) string {
	switch step {
	case types.StepPropose:
		return domainPropose
	case types.StepPrevote:
		return domainPrevote
	case types.StepPrecommit:
		return domainPrecommit
	default:
		return domainPrecommit
	}
}
