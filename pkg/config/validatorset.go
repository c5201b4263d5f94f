// Copyright 2026 The CodeChain-Go Authors

package config

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/ed25519"

	"github.com/kode-chain/codechain-go/pkg/crypto/bls"
	"github.com/kode-chain/codechain-go/pkg/tendermint"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// validatorSetEntry is one line of a tendermint engine's genesis
// validator set file: every key is hex-encoded the way the rest of
// this module's CLI-facing material is, since keys never appear in
// their raw binary form outside a signed message.
type validatorSetEntry struct {
	Address     string `json:"address"`
	VoteScheme  string `json:"vote_scheme"` // "ed25519" or "bls"
	Ed25519Key  string `json:"ed25519_key,omitempty"`
	BLSKey      string `json:"bls_key,omitempty"`
	VRFKey      string `json:"vrf_key"`
	VotingPower uint64 `json:"voting_power"`
}

// LoadValidatorSet parses a tendermint engine's validator set from a
// JSON file at path, the genesis material operators exchange before a
// chain's first height.
func LoadValidatorSet(path string) (*tendermint.ValidatorSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read validator set %s: %w", path, err)
	}
	var entries []validatorSetEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse validator set %s: %w", path, err)
	}

	infos := make([]tendermint.ValidatorInfo, len(entries))
	for i, e := range entries {
		addrBytes, err := hex.DecodeString(trimHexPrefix(e.Address))
		if err != nil || len(addrBytes) != types.AddressLength {
			return nil, fmt.Errorf("validator %d: invalid address %q", i, e.Address)
		}
		var addr types.Address
		copy(addr[:], addrBytes)

		vrfPub, err := decodeVRFKey(e.VRFKey)
		if err != nil {
			return nil, fmt.Errorf("validator %d: %w", i, err)
		}

		info := tendermint.ValidatorInfo{
			Address:     addr,
			VotingPower: e.VotingPower,
		}
		switch e.VoteScheme {
		case "ed25519", "":
			info.VoteScheme = tendermint.SchemeEd25519
			pub, err := decodeEd25519Key(e.Ed25519Key)
			if err != nil {
				return nil, fmt.Errorf("validator %d: %w", i, err)
			}
			info.Ed25519Key = pub
		case "bls":
			info.VoteScheme = tendermint.SchemeBLS
			pub, err := bls.PublicKeyFromHex(trimHexPrefix(e.BLSKey))
			if err != nil {
				return nil, fmt.Errorf("validator %d: %w", i, err)
			}
			info.BLSKey = pub
		default:
			return nil, fmt.Errorf("validator %d: unknown vote_scheme %q", i, e.VoteScheme)
		}
		info.VRFKey = vrfPub
		infos[i] = info
	}
	return tendermint.NewValidatorSet(infos), nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func decodeEd25519Key(s string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(trimHexPrefix(s))
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid ed25519 key %q", s)
	}
	return ed25519.PublicKey(raw), nil
}

func decodeVRFKey(s string) (*ecdsa.PublicKey, error) {
	raw, err := hex.DecodeString(trimHexPrefix(s))
	if err != nil {
		return nil, fmt.Errorf("invalid vrf key %q", s)
	}
	pub, err := gethcrypto.UnmarshalPubkey(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid vrf key %q: %w", s, err)
	}
	return pub, nil
}
