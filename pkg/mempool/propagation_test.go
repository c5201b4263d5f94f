// Copyright 2026 The CodeChain-Go Authors

package mempool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kode-chain/codechain-go/pkg/crypto"
	"github.com/kode-chain/codechain-go/pkg/types"
)

type stubPeer struct{ id string }

func (p stubPeer) ID() string { return p.id }

type recordingSender struct {
	mu  sync.Mutex
	got map[string][]*types.Transaction
}

func newRecordingSender() *recordingSender {
	return &recordingSender{got: make(map[string][]*types.Transaction)}
}

func (r *recordingSender) SendTransactions(peer Peer, txs []*types.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got[peer.ID()] = append(r.got[peer.ID()], txs...)
	return nil
}

func TestPropagatorSendsOnlyNovelTransactions(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	sender := kp.Address()
	view := &stubAccountView{seq: map[types.Address]uint64{sender: 0}}
	pool := New(view, 1000, 10)
	tx := newSignedTx(t, kp, 0, 10)
	_, err = pool.Insert(tx)
	require.NoError(t, err)

	rs := newRecordingSender()
	pr := NewPropagator(pool, rs, time.Hour, 16)
	peer := stubPeer{id: "peer-1"}
	pr.AddPeer(peer)

	pr.broadcastRound()
	require.Len(t, rs.got["peer-1"], 1)

	pr.broadcastRound()
	require.Len(t, rs.got["peer-1"], 1)
}

func TestPropagatorSkipsMarkedKnownHash(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	sender := kp.Address()
	view := &stubAccountView{seq: map[types.Address]uint64{sender: 0}}
	pool := New(view, 1000, 10)
	tx := newSignedTx(t, kp, 0, 10)
	hash, err := pool.Insert(tx)
	require.NoError(t, err)

	rs := newRecordingSender()
	pr := NewPropagator(pool, rs, time.Hour, 16)
	peer := stubPeer{id: "peer-1"}
	pr.AddPeer(peer)
	pr.MarkKnown("peer-1", hash)

	pr.broadcastRound()
	require.Len(t, rs.got["peer-1"], 0)
}
