// Copyright 2026 The CodeChain-Go Authors

package tendermint

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kode-chain/codechain-go/pkg/crypto"
	"github.com/kode-chain/codechain-go/pkg/storage"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// testNode bundles one validator's engine with its identity, so a
// test can drive all four as independent nodes exchanging messages.
type testNode struct {
	engine *Engine
	addr   types.Address
}

func newTestValidators(t *testing.T, n int) ([]ValidatorInfo, []*crypto.Ed25519KeyPair, []*crypto.KeyPair) {
	t.Helper()
	infos := make([]ValidatorInfo, n)
	signers := make([]*crypto.Ed25519KeyPair, n)
	vrfKeys := make([]*crypto.KeyPair, n)
	for i := 0; i < n; i++ {
		ed, err := crypto.GenerateEd25519KeyPair()
		require.NoError(t, err)
		vrf, err := crypto.GenerateKeyPair()
		require.NoError(t, err)
		signers[i] = ed
		vrfKeys[i] = vrf
		infos[i] = ValidatorInfo{
			Address:     vrf.Address(),
			VoteScheme:  SchemeEd25519,
			Ed25519Key:  ed.Public,
			VRFKey:      &vrf.Private.PublicKey,
			VotingPower: 1,
		}
	}
	return infos, signers, vrfKeys
}

func newTestNodes(t *testing.T, n int) ([]*testNode, *ValidatorSet) {
	t.Helper()
	infos, signers, vrfKeys := newTestValidators(t, n)
	vs := NewValidatorSet(infos)

	nodes := make([]*testNode, n)
	for i := 0; i < n; i++ {
		backend := storage.NewMemoryBackend()
		eng := NewEngine(vs, NewEd25519Signer(signers[i]), vrfKeys[i].Private, i, backend, types.Hash{})
		nodes[i] = &testNode{engine: eng, addr: infos[i].Address}
	}
	return nodes, vs
}

func testBlock(height uint64, seal int) *types.Block {
	return &types.Block{Header: types.Header{
		Number: height,
		Score:  big.NewInt(int64(height)),
		Extra:  []byte{byte(seal)},
	}}
}

// TestFourValidatorCommit: four validators, all
// online, commit one block and all advance to height 2.
func TestFourValidatorCommit(t *testing.T) {
	nodes, vs := newTestNodes(t, 4)

	proposerAddr, err := vs.Proposer(1, 0)
	require.NoError(t, err)
	var proposer *testNode
	for _, n := range nodes {
		if n.addr == proposerAddr {
			proposer = n
		}
	}
	require.NotNil(t, proposer)

	block := testBlock(1, 0)
	proposal, err := proposer.engine.Propose(block)
	require.NoError(t, err)

	for _, n := range nodes {
		if n == proposer {
			continue
		}
		require.NoError(t, n.engine.ReceiveProposal(proposal))
	}

	prevotes := make([]*types.SignedVote, 4)
	for i, n := range nodes {
		v, err := n.engine.Prevote()
		require.NoError(t, err)
		require.NotNil(t, v)
		require.False(t, v.On.IsNil)
		prevotes[i] = v
	}
	for _, n := range nodes {
		for i, v := range prevotes {
			if nodes[i] == n {
				continue
			}
			require.NoError(t, n.engine.ReceivePrevote(v))
		}
	}

	for _, n := range nodes {
		hash, ok := n.engine.Polka()
		require.True(t, ok)
		require.Equal(t, block.Header.BareHash(), hash)
	}

	precommits := make([]*types.SignedVote, 4)
	for i, n := range nodes {
		v, err := n.engine.Precommit()
		require.NoError(t, err)
		require.NotNil(t, v)
		require.False(t, v.On.IsNil)
		precommits[i] = v
	}
	for _, n := range nodes {
		for i, v := range precommits {
			if nodes[i] == n {
				continue
			}
			require.NoError(t, n.engine.ReceivePrecommit(v))
		}
	}

	for _, n := range nodes {
		hash, ok, err := n.engine.TryCommit()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, block.Header.BareHash(), hash)

		seal := n.engine.PendingSeal()
		require.NotNil(t, seal)
		require.Equal(t, 4, len(seal.Precommits))
		bitset := DecodeBitset(seal.PrecommitBitset, 4)
		require.Equal(t, 4, bitset.Popcount())

		n.engine.AdvanceHeight(seal)
		require.Equal(t, uint64(2), n.engine.Height())
		require.Equal(t, uint64(0), n.engine.View())
	}
}

// TestViewChangeOnMissingProposer: the height-1
// view-0 proposer never sends a proposal, so every other node times
// out to a nil prevote/precommit and advances the view; the new
// proposer then commits normally.
func TestViewChangeOnMissingProposer(t *testing.T) {
	nodes, vs := newTestNodes(t, 4)

	offlineAddr, err := vs.Proposer(1, 0)
	require.NoError(t, err)

	var online []*testNode
	for _, n := range nodes {
		if n.addr != offlineAddr {
			online = append(online, n)
		}
	}
	require.Len(t, online, 3)

	for _, n := range online {
		v, err := n.engine.Prevote()
		require.NoError(t, err)
		require.True(t, v.On.IsNil)
	}
	for _, n := range online {
		v, err := n.engine.Precommit()
		require.NoError(t, err)
		require.True(t, v.On.IsNil)
	}
	for _, n := range online {
		_, ok, err := n.engine.TryCommit()
		require.NoError(t, err)
		require.False(t, ok)
		n.engine.AdvanceView()
		require.Equal(t, uint64(1), n.engine.View())
	}

	newProposerAddr, err := vs.Proposer(1, 1)
	require.NoError(t, err)
	require.NotEqual(t, offlineAddr, newProposerAddr)

	var newProposer *testNode
	for _, n := range online {
		if n.addr == newProposerAddr {
			newProposer = n
		}
	}
	require.NotNil(t, newProposer)

	block := testBlock(1, 1)
	proposal, err := newProposer.engine.Propose(block)
	require.NoError(t, err)

	for _, n := range online {
		if n == newProposer {
			continue
		}
		require.NoError(t, n.engine.ReceiveProposal(proposal))
	}
	prevotes := make([]*types.SignedVote, len(online))
	for i, n := range online {
		v, err := n.engine.Prevote()
		require.NoError(t, err)
		require.False(t, v.On.IsNil)
		prevotes[i] = v
	}
	for _, n := range online {
		for i, v := range prevotes {
			if online[i] == n {
				continue
			}
			require.NoError(t, n.engine.ReceivePrevote(v))
		}
	}
	for _, n := range online {
		hash, ok := n.engine.Polka()
		require.True(t, ok)
		require.Equal(t, block.Header.BareHash(), hash)
	}
}

// TestBackupRecovery: a node crashes mid-
// Precommit having seen 3 prevotes and 2 precommits for H; on restart
// it resumes at exactly that (height, view, step) with those five
// votes reloaded.
func TestBackupRecovery(t *testing.T) {
	_, vs := newTestNodes(t, 4)
	backend := storage.NewMemoryBackend()
	eng := NewEngine(vs, nil, nil, -1, backend, types.Hash{})

	block := testBlock(42, 0)
	blockRLP, err := block.RLP()
	require.NoError(t, err)
	proposerAddr, err := vs.Proposer(42, 3)
	require.NoError(t, err)
	_ = proposerAddr

	// Drive three nodes' worth of prevotes and two precommits directly
	// into the observer's pool at (42, 3, step) to simulate a crash
	// mid-Precommit after having already recorded that many votes.
	eng.height = 42
	eng.curView = 3
	eng.step = types.StepPrecommit
	eng.proposal = &types.Proposal{On: types.VoteOn{
		Step:      types.VoteStep{Height: 42, View: 3, Step: types.StepPropose},
		BlockHash: block.Header.BareHash(),
	}, Block: blockRLP}
	for i := 0; i < 3; i++ {
		eng.votes.Add(&types.SignedVote{
			On:          types.VoteOn{Step: types.VoteStep{Height: 42, View: 3, Step: types.StepPrevote}, BlockHash: block.Header.BareHash()},
			SignerIndex: uint32(i),
		})
	}
	for i := 0; i < 2; i++ {
		eng.votes.Add(&types.SignedVote{
			On:          types.VoteOn{Step: types.VoteStep{Height: 42, View: 3, Step: types.StepPrecommit}, BlockHash: block.Header.BareHash()},
			SignerIndex: uint32(i),
		})
	}
	eng.persistLocked()

	recovered := NewEngine(vs, nil, nil, -1, backend, types.Hash{})
	require.Equal(t, uint64(42), recovered.Height())
	require.Equal(t, uint64(3), recovered.View())
	require.Equal(t, types.StepPrecommit, recovered.step)
	require.Len(t, recovered.votes.All(), 5)

	// One more precommit (index 2) completes the 3-of-4 supermajority.
	recovered.votes.Add(&types.SignedVote{
		On:          types.VoteOn{Step: types.VoteStep{Height: 42, View: 3, Step: types.StepPrecommit}, BlockHash: block.Header.BareHash()},
		SignerIndex: uint32(2),
	})
	hash, ok, err := recovered.TryCommit()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, block.Header.BareHash(), hash)
}

// TestSortitionProposalFlow switches the engines from round-robin to
// priority sortition with Expectation == TotalPower, so every
// validator's draw wins and any of them may propose; delivering every
// competing proposal to every node must leave them all holding the
// same highest-priority proposal, and prevotes then form a polka on
// that one block.
func TestSortitionProposalFlow(t *testing.T) {
	nodes, vs := newTestNodes(t, 4)
	sortition := &Sortition{TotalPower: vs.TotalVotingPower(), Expectation: float64(vs.TotalVotingPower())}
	for _, n := range nodes {
		n.engine.SetSortition(sortition)
	}

	proposals := make([]*types.Proposal, len(nodes))
	for i, n := range nodes {
		block := testBlock(1, i)
		p, err := n.engine.Propose(block)
		require.NoError(t, err, "with certain sortition every validator may propose")
		require.NotNil(t, p.Priority)
		proposals[i] = p
	}

	for _, n := range nodes {
		for i, p := range proposals {
			if nodes[i] == n {
				continue
			}
			err := n.engine.ReceiveProposal(p)
			if err != nil {
				// A lower-priority competitor is rejected, never adopted.
				require.ErrorIs(t, err, ErrPriorityTooLow)
			}
		}
	}

	best := proposals[0]
	for _, p := range proposals[1:] {
		if bytes.Compare(p.Priority.Info.Priority[:], best.Priority.Info.Priority[:]) > 0 {
			best = p
		}
	}
	for _, n := range nodes {
		require.Equal(t, best.On.BlockHash, n.engine.proposal.On.BlockHash,
			"every node must converge on the highest-priority proposal")
	}

	prevotes := make([]*types.SignedVote, len(nodes))
	for i, n := range nodes {
		v, err := n.engine.Prevote()
		require.NoError(t, err)
		require.False(t, v.On.IsNil)
		require.Equal(t, best.On.BlockHash, v.On.BlockHash)
		prevotes[i] = v
	}
	for _, n := range nodes {
		for i, v := range prevotes {
			if nodes[i] == n {
				continue
			}
			require.NoError(t, n.engine.ReceivePrevote(v))
		}
	}
	for _, n := range nodes {
		hash, ok := n.engine.Polka()
		require.True(t, ok)
		require.Equal(t, best.On.BlockHash, hash)
	}
}

// TestSortitionRejectsForeignRoundSeed covers the proposal-side guard:
// a priority proof drawn against some other round's seed is rejected
// before any VRF work happens.
func TestSortitionRejectsForeignRoundSeed(t *testing.T) {
	nodes, vs := newTestNodes(t, 4)
	sortition := &Sortition{TotalPower: vs.TotalVotingPower(), Expectation: float64(vs.TotalVotingPower())}
	for _, n := range nodes {
		n.engine.SetSortition(sortition)
	}

	p, err := nodes[0].engine.Propose(testBlock(1, 0))
	require.NoError(t, err)

	tampered := *p
	wrongPriority := *p.Priority
	wrongPriority.Seed[0] ^= 0xFF
	tampered.Priority = &wrongPriority
	require.ErrorIs(t, nodes[1].engine.ReceiveProposal(&tampered), ErrPrioritySeed)

	missing := *p
	missing.Priority = nil
	require.ErrorIs(t, nodes[1].engine.ReceiveProposal(&missing), ErrPriorityMissing)

	require.NoError(t, nodes[1].engine.ReceiveProposal(p))
}
