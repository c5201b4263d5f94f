// Copyright 2026 The CodeChain-Go Authors

package types

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kode-chain/codechain-go/pkg/crypto"
	"github.com/kode-chain/codechain-go/pkg/rlp"
)

// decode(encode(m)) = m for every typed wire message: votes, seed and
// priority proofs, the committed seal, transactions, and full blocks.

func TestSignedVoteRLPRoundTrip(t *testing.T) {
	var h Hash
	h[0] = 0x01
	v := SignedVote{
		On: VoteOn{
			Step:      VoteStep{Height: 42, View: 3, Step: StepPrecommit},
			BlockHash: h,
		},
		SignerIndex: 7,
		Signature:   []byte{0xDE, 0xAD},
	}
	raw, err := rlp.Encode(&v)
	require.NoError(t, err)
	var got SignedVote
	require.NoError(t, rlp.Decode(raw, &got))
	require.Equal(t, v, got)
}

func TestNilVoteRLPRoundTrip(t *testing.T) {
	v := SignedVote{
		On: VoteOn{
			Step:  VoteStep{Height: 1, View: 1, Step: StepPrevote},
			IsNil: true,
		},
		SignerIndex: 0,
		Signature:   []byte{0x00},
	}
	raw, err := rlp.Encode(&v)
	require.NoError(t, err)
	var got SignedVote
	require.NoError(t, rlp.Decode(raw, &got))
	require.Equal(t, v, got)
	require.True(t, got.On.IsNil)
}

func TestSeedInfoRLPRoundTrip(t *testing.T) {
	var seed Hash
	seed[5] = 0x55
	s := SeedInfo{SignerIndex: 2, Seed: seed, Proof: make([]byte, 81)}
	raw, err := rlp.Encode(&s)
	require.NoError(t, err)
	var got SeedInfo
	require.NoError(t, rlp.Decode(raw, &got))
	require.Equal(t, s, got)
}

func TestPriorityMessageRLPRoundTrip(t *testing.T) {
	var seed, vrfHash Hash
	seed[0] = 0x10
	vrfHash[0] = 0x20
	var priority Hash
	priority[0] = 0x30
	m := PriorityMessage{
		Seed: seed,
		Info: PriorityInfo{SubUserIndex: 4, Priority: priority, VRFHash: vrfHash, VRFProof: []byte{1, 2, 3}},
	}
	raw, err := rlp.Encode(&m)
	require.NoError(t, err)
	var got PriorityMessage
	require.NoError(t, rlp.Decode(raw, &got))
	require.Equal(t, m, got)
}

func TestTendermintSealRoundTrip(t *testing.T) {
	var seed Hash
	seed[1] = 0x11
	seal := &TendermintSeal{
		PrevView:        0,
		CurView:         2,
		Precommits:      [][]byte{{0xAA}, {0xBB}, {0xCC}},
		PrecommitBitset: []byte{0b0000_1011},
		VRFSeedInfo:     SeedInfo{SignerIndex: 1, Seed: seed, Proof: []byte{9}},
	}
	encoded, err := EncodeSeal(seal)
	require.NoError(t, err)
	require.Len(t, encoded, 1)

	got, err := DecodeSeal(encoded)
	require.NoError(t, err)
	require.Equal(t, seal, got)
}

func TestDecodeSealRejectsWrongArity(t *testing.T) {
	_, err := DecodeSeal([][]byte{{1}, {2}})
	require.ErrorIs(t, err, ErrMalformedSeal)
}

func TestTransactionRLPRoundTrip(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	var to Address
	to[19] = 0x42
	tx := &Transaction{
		NetworkID: NewNetworkID("tc"),
		Seq:       5,
		Fee:       big.NewInt(100),
		Action:    PayAction{Receiver: to, Quantity: big.NewInt(12345)},
	}
	require.NoError(t, tx.Sign(kp))

	raw, err := tx.RLP()
	require.NoError(t, err)
	got, err := DecodeTransaction(raw)
	require.NoError(t, err)

	require.Equal(t, tx.NetworkID, got.NetworkID)
	require.Equal(t, tx.Seq, got.Seq)
	require.Zero(t, tx.Fee.Cmp(got.Fee))
	require.Equal(t, tx.Action, got.Action)
	require.Equal(t, tx.Signature, got.Signature)

	signer, err := got.Signer()
	require.NoError(t, err)
	require.Equal(t, Address(kp.Address()), signer)
}

func TestBlockRLPRoundTrip(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	var to Address
	to[19] = 0x99
	tx := &Transaction{
		NetworkID: NewNetworkID("tc"),
		Seq:       0,
		Fee:       big.NewInt(10),
		Action:    PayAction{Receiver: to, Quantity: big.NewInt(7)},
	}
	require.NoError(t, tx.Sign(kp))

	var parent Hash
	parent[0] = 0x0F
	b := &Block{
		Header: Header{
			ParentHash: parent,
			Author:     Address(kp.Address()),
			Score:      big.NewInt(2),
			Number:     1,
			Timestamp:  1700000000,
			Extra:      []byte("x"),
			Seal:       [][]byte{{1}},
		},
		Transactions: []*Transaction{tx},
	}

	raw, err := b.RLP()
	require.NoError(t, err)
	got, err := DecodeBlock(raw)
	require.NoError(t, err)

	require.Equal(t, b.Header.Hash(), got.Header.Hash())
	require.Len(t, got.Transactions, 1)
	wantHash, err := tx.Hash()
	require.NoError(t, err)
	gotHash, err := got.Transactions[0].Hash()
	require.NoError(t, err)
	require.Equal(t, wantHash, gotHash)
}

func TestProposalRLPRoundTrip(t *testing.T) {
	var h, seed Hash
	h[0] = 0x01
	seed[1] = 0x02
	base := Proposal{
		On: VoteOn{
			Step:      VoteStep{Height: 3, View: 1, Step: StepPropose},
			BlockHash: h,
		},
		SignerIndex: 2,
		Signature:   []byte{0x51},
		Block:       rlp.RawValue{0xC0},
		Seed:        SeedInfo{SignerIndex: 2, Seed: seed, Proof: []byte{7}},
	}

	// Round-robin mode: no priority proof attached.
	raw, err := rlp.Encode(&base)
	require.NoError(t, err)
	var got Proposal
	require.NoError(t, rlp.Decode(raw, &got))
	require.Equal(t, base, got)
	require.Nil(t, got.Priority)

	// Sortition mode: the optional priority proof rides along.
	var pr Hash
	pr[0] = 0x40
	withPriority := base
	withPriority.Priority = &PriorityMessage{
		Seed: seed,
		Info: PriorityInfo{SubUserIndex: 1, Priority: pr, VRFHash: h, VRFProof: []byte{8, 9}},
	}
	raw, err = rlp.Encode(&withPriority)
	require.NoError(t, err)
	var got2 Proposal
	require.NoError(t, rlp.Decode(raw, &got2))
	require.Equal(t, withPriority, got2)
}
