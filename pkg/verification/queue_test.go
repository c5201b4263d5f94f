// Copyright 2026 The CodeChain-Go Authors

package verification

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kode-chain/codechain-go/pkg/consensus"
	"github.com/kode-chain/codechain-go/pkg/types"
)

type stubParentLookup struct {
	headers map[types.Hash]*types.Header
}

func (s *stubParentLookup) Header(hash types.Hash) (*types.Header, error) {
	h, ok := s.headers[hash]
	if !ok {
		return nil, consensus.ErrEmptyValidatorSet
	}
	return h, nil
}

func soloBlock(number uint64, extra []byte) *types.Block {
	return &types.Block{Header: types.Header{
		Number:    number,
		Score:     big.NewInt(1),
		Timestamp: number,
		Extra:     extra,
		Seal:      [][]byte{{1}},
	}}
}

func TestQueue_BasicPhaseRejectsBadSealArity(t *testing.T) {
	engine := consensus.NewSolo(types.Address{}, big.NewInt(0))
	q := New(engine, &stubParentLookup{headers: map[types.Hash]*types.Header{}}, 2)
	defer q.Close()

	block := soloBlock(1, nil)
	block.Header.Seal = nil // wrong arity: Solo wants exactly one element

	it := q.Enqueue(block)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := it.Wait(ctx)
	require.Error(t, err)
	rej, ok := err.(*Rejection)
	require.True(t, ok)
	require.Equal(t, PhaseBasic, rej.Phase)
}

func TestQueue_BasicPhaseRejectsOversizedExtra(t *testing.T) {
	engine := consensus.NewSolo(types.Address{}, big.NewInt(0))
	q := New(engine, &stubParentLookup{headers: map[types.Hash]*types.Header{}}, 2)
	defer q.Close()

	block := soloBlock(1, make([]byte, consensus.MaxExtraDataSize+1))
	it := q.Enqueue(block)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := it.Wait(ctx)
	require.Error(t, err)
	rej := err.(*Rejection)
	require.Equal(t, PhaseBasic, rej.Phase)
}

func TestQueue_PipelinePassesValidBlock(t *testing.T) {
	engine := consensus.NewSolo(types.Address{}, big.NewInt(0))
	q := New(engine, &stubParentLookup{headers: map[types.Hash]*types.Header{}}, 2)
	defer q.Close()

	block := soloBlock(1, nil)
	it := q.Enqueue(block)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, it.Wait(ctx))
}

func TestQueue_FamilyPhaseRejectsStaleTimestamp(t *testing.T) {
	engine := consensus.NewSolo(types.Address{}, big.NewInt(0))
	parent := &types.Header{Number: 1, Timestamp: 100, Score: big.NewInt(1)}
	q := New(engine, &stubParentLookup{}, 2)
	defer q.Close()

	block := soloBlock(2, nil)
	block.Header.Timestamp = 50

	err := q.VerifyRemaining(block, parent, nil)
	require.Error(t, err)
	rej := err.(*Rejection)
	require.Equal(t, PhaseFamily, rej.Phase)
}
