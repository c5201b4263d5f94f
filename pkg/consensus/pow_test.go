// Copyright 2026 The CodeChain-Go Authors

package consensus

import (
	"math/big"
	"testing"

	"github.com/kode-chain/codechain-go/pkg/types"
	"github.com/stretchr/testify/require"
)

func testAddress(b byte) types.Address {
	var a types.Address
	a[len(a)-1] = b
	return a
}

func TestRecomputeScoreOnTimeBonus(t *testing.T) {
	parent := big.NewInt(2048 * 100)
	got := RecomputeScore(parent, 0, 1, nil)
	want := new(big.Int).Add(parent, new(big.Int).Div(parent, big.NewInt(2048)))
	require.Equal(t, 0, got.Cmp(want))
}

func TestRecomputeScoreNoChangeAtOneInterval(t *testing.T) {
	parent := big.NewInt(2048 * 100)
	got := RecomputeScore(parent, 1, 1, nil)
	require.Equal(t, 0, got.Cmp(parent))
}

func TestRecomputeScoreSaturatesPenaltyAtNinetyNine(t *testing.T) {
	parent := big.NewInt(2048 * 100)
	got := RecomputeScore(parent, 100, 1, nil)
	delta := new(big.Int).Div(parent, big.NewInt(2048))
	delta.Mul(delta, big.NewInt(99))
	want := new(big.Int).Sub(parent, delta)
	require.Equal(t, 0, got.Cmp(want))

	// Past the 100-interval mark the penalty no longer grows.
	gotFurther := RecomputeScore(parent, 1000, 1, nil)
	require.Equal(t, 0, got.Cmp(gotFurther))
}

func TestRecomputeScoreFloorsAtMinimum(t *testing.T) {
	parent := big.NewInt(2048 * 10)
	min := big.NewInt(20000)
	got := RecomputeScore(parent, 1000, 1, min)
	require.Equal(t, 0, got.Cmp(min))
}

func TestScoreToTarget(t *testing.T) {
	score := big.NewInt(16)
	target := ScoreToTarget(score)
	want := new(big.Int).Sub(maxScore, score)
	want.Div(want, score)
	require.Equal(t, 0, target.Cmp(want))
	require.Equal(t, 0, ScoreToTarget(big.NewInt(0)).Sign())
}

func TestPoWVerifyUnorderedAcceptsValidNonce(t *testing.T) {
	engine := NewBlakePoW(testAddress(1), big.NewInt(1000))
	h := &types.Header{Number: 1, Score: big.NewInt(1), Seal: [][]byte{{0x01}}}
	require.NoError(t, engine.VerifyUnordered(h))
}

func TestPoWNeverSealsInternally(t *testing.T) {
	engine := NewBlakePoW(testAddress(1), big.NewInt(1000))
	parent := &types.Header{Number: 0}
	require.Equal(t, SealsExternally, engine.SealsInternally(parent))
}
