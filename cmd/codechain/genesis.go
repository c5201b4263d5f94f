// Copyright 2026 The CodeChain-Go Authors

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/kode-chain/codechain-go/pkg/client"
	"github.com/kode-chain/codechain-go/pkg/state"
	"github.com/kode-chain/codechain-go/pkg/trie"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// genesisSpec is the chain-spec file a network's genesis_path points
// at: an initial account allocation plus the handful of header fields
// that aren't implied by state (the genesis block is numbered 0 and
// has no parent). Balances are decimal strings since a raw JSON
// number can't carry the full range of a *big.Int.
type genesisSpec struct {
	Timestamp uint64            `json:"timestamp"`
	ExtraData string            `json:"extra_data"`
	Alloc     map[string]string `json:"alloc"`
}

// loadGenesis reads path and builds block 0's header plus the state
// it commits to, mirroring pkg/client's own test helper
// (buildGenesis in client_test.go): every alloc entry is credited into
// a fresh GenesisState, committed once, and its root becomes the
// header's state_root.
func loadGenesis(path string, db *trie.HashDB) (*types.Block, *state.TopLevelState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read genesis %s: %w", path, err)
	}
	var spec genesisSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, nil, fmt.Errorf("parse genesis %s: %w", path, err)
	}

	st, err := client.GenesisState(db)
	if err != nil {
		return nil, nil, err
	}

	for addrHex, balanceStr := range spec.Alloc {
		addrBytes, err := hex.DecodeString(trimHex(addrHex))
		if err != nil || len(addrBytes) != types.AddressLength {
			return nil, nil, fmt.Errorf("genesis alloc: invalid address %q", addrHex)
		}
		var addr types.Address
		copy(addr[:], addrBytes)

		balance, ok := new(big.Int).SetString(balanceStr, 10)
		if !ok {
			return nil, nil, fmt.Errorf("genesis alloc: invalid balance %q for %s", balanceStr, addrHex)
		}
		acc, err := st.Account(addr)
		if err != nil {
			return nil, nil, err
		}
		acc.Balance = balance
		st.SetAccount(addr, acc)
	}

	root, err := st.Commit()
	if err != nil {
		return nil, nil, err
	}

	extra := []byte(spec.ExtraData)
	header := types.Header{
		StateRoot: root,
		Score:     big.NewInt(1),
		Number:    0,
		Timestamp: spec.Timestamp,
		Extra:     extra,
		Seal:      [][]byte{{1}},
	}
	return &types.Block{Header: header}, st, nil
}

func trimHex(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
