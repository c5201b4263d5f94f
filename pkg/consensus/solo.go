// Copyright 2026 The CodeChain-Go Authors

package consensus

import (
	"math/big"

	"github.com/kode-chain/codechain-go/pkg/execution"
	"github.com/kode-chain/codechain-go/pkg/state"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// MaxExtraDataSize bounds a header's Extra field.
const MaxExtraDataSize = 64

// soloSealFields is the Solo engine's seal field count: one fixed marker
// byte, just enough to satisfy the variable-length seal shape without
// carrying any real proof, since Solo has nothing to prove.
const soloSealFields = 1

// Solo always seals unconditionally; it exists for single-node
// development and integration tests. The block reward is distributed
// to the addresses listed in a stake table kept in action-data;
// transaction fees are not split by the table, they go to the block
// author as each transaction is applied.
type Solo struct {
	author      types.Address
	view        ChainView
	blockReward *big.Int
}

// NewSolo returns a Solo engine that always seals as author,
// crediting blockReward to the addresses in the action-data stake
// table each time a block closes. Transaction fees are not part of
// that split.
func NewSolo(author types.Address, blockReward *big.Int) *Solo {
	return &Solo{author: author, blockReward: blockReward}
}

func (s *Solo) Name() string { return "solo" }

func (s *Solo) SealFields(header *types.Header) int { return soloSealFields }

func (s *Solo) SealsInternally(parent *types.Header) SealsInternally { return SealsInternallyNow }

func (s *Solo) GenerateSeal(block *types.Block, parent *types.Header) ([][]byte, error) {
	return [][]byte{{1}}, nil
}

func (s *Solo) VerifyBasic(header *types.Header) error {
	if len(header.Seal) != soloSealFields {
		return ErrWrongSealArity
	}
	if len(header.Extra) > MaxExtraDataSize {
		return ErrExtraDataTooLarge
	}
	return nil
}

func (s *Solo) VerifyUnordered(header *types.Header) error { return nil }

func (s *Solo) VerifyFamily(header, parent *types.Header) error {
	if header.Timestamp < parent.Timestamp {
		return ErrTimestampOutOfRange
	}
	return nil
}

func (s *Solo) VerifyExternal(header *types.Header, view ChainView) error { return nil }

func (s *Solo) OnNewBlock(header *types.Header, parent *types.Header) error { return nil }

// OnCloseBlock splits s.blockReward across the stake table's entries
// in proportion to weight, crediting any remainder (from integer
// division) to the last entry so the sum exactly matches
// blockReward. An empty table credits the whole reward to the
// author; a table whose weights sum to zero credits nothing.
func (s *Solo) OnCloseBlock(st *state.TopLevelState, header *types.Header) error {
	table, err := execution.LoadStakeTable(st)
	if err != nil {
		return err
	}
	if len(table.Entries) == 0 {
		acc, err := st.Account(s.author)
		if err != nil {
			return err
		}
		acc.Balance = new(big.Int).Add(acc.Balance, s.blockReward)
		st.SetAccount(s.author, acc)
		return nil
	}

	totalWeight := uint64(0)
	for _, e := range table.Entries {
		totalWeight += e.Weight
	}
	if totalWeight == 0 {
		return nil
	}

	distributed := big.NewInt(0)
	for i, e := range table.Entries {
		share := new(big.Int).Mul(s.blockReward, big.NewInt(int64(e.Weight)))
		share.Div(share, big.NewInt(int64(totalWeight)))
		if i == len(table.Entries)-1 {
			share = new(big.Int).Sub(s.blockReward, distributed)
		} else {
			distributed.Add(distributed, share)
		}
		acc, err := st.Account(e.Address)
		if err != nil {
			return err
		}
		acc.Balance = new(big.Int).Add(acc.Balance, share)
		st.SetAccount(e.Address, acc)
	}
	return nil
}

func (s *Solo) RegisterClient(view ChainView) { s.view = view }

func (s *Solo) PossibleAuthors(height uint64) ([]types.Address, error) {
	return []types.Address{s.author}, nil
}

func (s *Solo) RecommendedConfirmations() uint64 { return 0 }
