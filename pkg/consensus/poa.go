// Copyright 2026 The CodeChain-Go Authors

package consensus

import (
	"github.com/kode-chain/codechain-go/pkg/crypto"
	"github.com/kode-chain/codechain-go/pkg/state"
	"github.com/kode-chain/codechain-go/pkg/types"
)

const poaSealFields = 1

// SimplePoA requires the header's author to be a known signer and
// verifies the single signature in the seal over the bare hash.
// Signers are a round-robin list; GenerateSeal signs only when this
// node controls the next signer.
type SimplePoA struct {
	signers *RoundRobinValidator
	self    *crypto.KeyPair
	view    ChainView
}

// NewSimplePoA returns a PoA engine over signers, signing with self if
// non-nil (an observer-only node passes nil and never seals).
func NewSimplePoA(signers []types.Address, self *crypto.KeyPair) *SimplePoA {
	return &SimplePoA{signers: NewRoundRobinValidator(signers), self: self}
}

func (p *SimplePoA) Name() string { return "simple_poa" }

func (p *SimplePoA) SealFields(header *types.Header) int { return poaSealFields }

func (p *SimplePoA) SealsInternally(parent *types.Header) SealsInternally {
	if p.self == nil {
		return SealsInternallyNotNow
	}
	ok, err := p.sealsNow(parent.Number + 1)
	if err != nil || !ok {
		return SealsInternallyNotNow
	}
	return SealsInternallyNow
}

// GenerateSeal signs header's bare hash with self's key, the single
// seal element a PoA header carries. It returns ErrNotProposer unless
// self is the signer whose turn it is at the block's height.
func (p *SimplePoA) GenerateSeal(block *types.Block, parent *types.Header) ([][]byte, error) {
	if p.self == nil {
		return nil, ErrNotProposer
	}
	ok, err := p.sealsNow(block.Header.Number)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotProposer
	}
	digest := block.Header.BareHash()
	sig, err := p.self.Sign(digest[:])
	if err != nil {
		return nil, err
	}
	return [][]byte{sig}, nil
}

func (p *SimplePoA) VerifyBasic(header *types.Header) error {
	if len(header.Seal) != poaSealFields {
		return ErrWrongSealArity
	}
	if len(header.Extra) > MaxExtraDataSize {
		return ErrExtraDataTooLarge
	}
	return nil
}

// VerifyUnordered recovers the seal's signer and checks it matches
// header.Author, then that the author is a known signer.
func (p *SimplePoA) VerifyUnordered(header *types.Header) error {
	digest := header.BareHash()
	signer, err := crypto.RecoverAddress(digest[:], header.Seal[0])
	if err != nil {
		return ErrInvalidSealSignature
	}
	if types.Address(signer) != header.Author {
		return ErrInvalidSealSignature
	}
	_, ok, err := p.signers.IndexOf(header.Number, header.Author)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownAuthor
	}
	return nil
}

func (p *SimplePoA) VerifyFamily(header, parent *types.Header) error {
	if header.Timestamp < parent.Timestamp {
		return ErrTimestampOutOfRange
	}
	return nil
}

func (p *SimplePoA) VerifyExternal(header *types.Header, view ChainView) error { return nil }

func (p *SimplePoA) OnNewBlock(header *types.Header, parent *types.Header) error { return nil }

func (p *SimplePoA) OnCloseBlock(s *state.TopLevelState, header *types.Header) error { return nil }

func (p *SimplePoA) RegisterClient(view ChainView) { p.view = view }

func (p *SimplePoA) PossibleAuthors(height uint64) ([]types.Address, error) {
	return p.signers.Validators(height)
}

func (p *SimplePoA) RecommendedConfirmations() uint64 { return 1 }

// sealsNow reports whether self controls the signer whose turn
// it is at height, the condition GenerateSeal's SealsInternallyNow
// promise depends on.
func (p *SimplePoA) sealsNow(height uint64) (bool, error) {
	if p.self == nil {
		return false, nil
	}
	next, err := p.signers.Proposer(height, 0)
	if err != nil {
		return false, err
	}
	return types.Address(p.self.Address()) == next, nil
}
