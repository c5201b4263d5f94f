// Copyright 2026 The CodeChain-Go Authors

package mempool

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kode-chain/codechain-go/pkg/crypto"
	"github.com/kode-chain/codechain-go/pkg/types"
)

type stubAccountView struct {
	seq map[types.Address]uint64
}

func (s *stubAccountView) Seq(addr types.Address) (uint64, error) {
	return s.seq[addr], nil
}

func newSignedTx(t *testing.T, kp *crypto.KeyPair, seq uint64, fee int64) *types.Transaction {
	t.Helper()
	tx := &types.Transaction{
		NetworkID: types.TestNetworkID,
		Seq:       seq,
		Fee:       big.NewInt(fee),
		Action:    types.PayAction{Receiver: types.Address{0xaa}, Quantity: big.NewInt(1)},
	}
	require.NoError(t, tx.Sign(kp))
	return tx
}

// TestMempoolReplacement: equal-fee replacement
// is rejected, strictly-greater-fee replacement always succeeds and
// transitions the displaced entry to Replaced.
func TestMempoolReplacement(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	sender := kp.Address()

	view := &stubAccountView{seq: map[types.Address]uint64{sender: 5}}
	pool := New(view, 1000, 10)

	t1 := newSignedTx(t, kp, 5, 100)
	h1, err := pool.Insert(t1)
	require.NoError(t, err)

	t2 := newSignedTx(t, kp, 5, 100)
	_, err = pool.Insert(t2)
	require.ErrorIs(t, err, ErrTooCheapToReplace)

	entry, ok := pool.Get(h1)
	require.True(t, ok)
	require.Equal(t, StatusPending, entry.Status)

	t3 := newSignedTx(t, kp, 5, 101)
	h3, err := pool.Insert(t3)
	require.NoError(t, err)

	_, ok = pool.Get(h1)
	require.False(t, ok)
	_, ok = pool.Get(h3)
	require.True(t, ok)

	records := pool.Local().For(sender)
	require.Len(t, records, 1)
	require.Equal(t, StatusReplaced, records[0].Status)
	require.Equal(t, h1, records[0].Hash)
}

func TestMempoolCurrentVsFutureQueues(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	sender := kp.Address()
	view := &stubAccountView{seq: map[types.Address]uint64{sender: 5}}
	pool := New(view, 1000, 10)

	current := newSignedTx(t, kp, 5, 10)
	future := newSignedTx(t, kp, 7, 10)
	_, err = pool.Insert(current)
	require.NoError(t, err)
	_, err = pool.Insert(future)
	require.NoError(t, err)

	require.Len(t, pool.Ready(), 1)
	require.Len(t, pool.Future(), 1)
}

func TestMempoolReadyOrderingByFeeThenSeq(t *testing.T) {
	kpA, _ := crypto.GenerateKeyPair()
	kpB, _ := crypto.GenerateKeyPair()
	view := &stubAccountView{seq: map[types.Address]uint64{
		kpA.Address(): 0,
		kpB.Address(): 0,
	}}
	pool := New(view, 1000, 10)

	low := newSignedTx(t, kpA, 0, 5)
	high := newSignedTx(t, kpB, 0, 50)
	_, err := pool.Insert(low)
	require.NoError(t, err)
	_, err = pool.Insert(high)
	require.NoError(t, err)

	ready := pool.Ready()
	require.Len(t, ready, 2)
	require.Equal(t, int64(50), ready[0].Tx.Fee.Int64())
	require.Equal(t, int64(5), ready[1].Tx.Fee.Int64())
}

func TestMempoolOnNewBlockPromotesFuture(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	sender := kp.Address()
	view := &stubAccountView{seq: map[types.Address]uint64{sender: 5}}
	pool := New(view, 1000, 10)

	mined := newSignedTx(t, kp, 5, 10)
	next := newSignedTx(t, kp, 6, 10)
	minedHash, err := pool.Insert(mined)
	require.NoError(t, err)
	_, err = pool.Insert(next)
	require.NoError(t, err)
	require.Len(t, pool.Future(), 1)

	view.seq[sender] = 6
	pool.OnNewBlock([]types.Hash{minedHash})

	require.Len(t, pool.Ready(), 1)
	require.Len(t, pool.Future(), 0)
	_, ok := pool.Get(minedHash)
	require.False(t, ok)
}

func TestMempoolEvictsLowestPriorityOverCap(t *testing.T) {
	kpA, _ := crypto.GenerateKeyPair()
	kpB, _ := crypto.GenerateKeyPair()
	view := &stubAccountView{seq: map[types.Address]uint64{
		kpA.Address(): 0,
		kpB.Address(): 0,
	}}
	pool := New(view, 1, 10)

	low := newSignedTx(t, kpA, 0, 1)
	high := newSignedTx(t, kpB, 0, 100)
	lowHash, err := pool.Insert(low)
	require.NoError(t, err)
	_, err = pool.Insert(high)
	require.NoError(t, err)

	require.Equal(t, 1, pool.Len())
	_, ok := pool.Get(lowHash)
	require.False(t, ok)
}
