// Copyright 2026 The CodeChain-Go Authors

package tendermint

import (
	"crypto/ecdsa"
	"encoding/binary"
	"errors"

	"github.com/kode-chain/codechain-go/pkg/crypto"
	"github.com/kode-chain/codechain-go/pkg/types"
)

var (
	ErrSeedMismatch  = errors.New("tendermint: VRF output does not match declared seed")
	ErrUnknownSigner = errors.New("tendermint: seed signer index not in validator set")
)

// seedMessage builds the VRF input prevSeed||height||view.
func seedMessage(prevSeed types.Hash, height, view uint64) []byte {
	buf := make([]byte, 32+8+8)
	copy(buf, prevSeed[:])
	binary.BigEndian.PutUint64(buf[32:40], height)
	binary.BigEndian.PutUint64(buf[40:48], view)
	return buf
}

// GenerateSeed runs the VRF under sk over prevSeed||height||view,
// returning the SeedInfo a proposer attaches to its proposal.
func GenerateSeed(sk *ecdsa.PrivateKey, signerIndex uint32, prevSeed types.Hash, height, view uint64) (types.SeedInfo, error) {
	hash, proof, err := crypto.ProveVRF(sk, seedMessage(prevSeed, height, view))
	if err != nil {
		return types.SeedInfo{}, err
	}
	return types.SeedInfo{
		SignerIndex: signerIndex,
		Seed:        types.BytesToHash(hash),
		Proof:       proof,
	}, nil
}

// VerifySeed checks a SeedInfo against the validator set effective at
// height: look the signer up by index, run
// VRF.verify(pubkey, proof, prev_seed||h||v), and check the produced
// hash equals the declared seed.
func VerifySeed(vs *ValidatorSet, info types.SeedInfo, prevSeed types.Hash, height, view uint64) error {
	val, ok := vs.InfoAt(int(info.SignerIndex))
	if !ok {
		return ErrUnknownSigner
	}
	ok, err := crypto.VerifyVRF(val.VRFKey, seedMessage(prevSeed, height, view), info.Seed[:], info.Proof)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSeedMismatch
	}
	return nil
}
