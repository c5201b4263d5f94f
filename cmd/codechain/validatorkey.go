// Copyright 2026 The CodeChain-Go Authors

package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/kode-chain/codechain-go/pkg/crypto"
)

// loadOrGenerateEd25519Key loads the hex-encoded ed25519 vote-signing
// key at path, generating and persisting a fresh one if path doesn't
// exist yet; mirrors pkg/crypto/bls.KeyManager's LoadOrGenerateKey for
// the default (non-BLS) vote scheme, which has no key-manager type of
// its own since an ed25519 seed is a single 32-byte file rather than a
// BLS scheme's curve-specific encoding.
func loadOrGenerateEd25519Key(path string) (*crypto.Ed25519KeyPair, error) {
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		seed, err := hex.DecodeString(string(data))
		if err != nil || len(seed) != 32 {
			return nil, fmt.Errorf("validator key %s: expected 32-byte hex seed", path)
		}
		return crypto.Ed25519KeyPairFromSeed(seed), nil
	}

	kp, err := crypto.GenerateEd25519KeyPair()
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(kp.Private.Seed())), 0600); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}
	return kp, nil
}

// loadOrGenerateVRFKey loads the raw secp256k1 VRF key at path,
// generating and persisting a fresh one if absent. The VRF key is a
// plain crypto.KeyPair (seed proofs use the same secp256k1 suite
// transactions sign with), so this mirrors loadOrGenerateEd25519Key's
// shape rather than going through the Web3 keystore, since a VRF key
// is node-local operational material rather than an account an
// operator manages interactively.
func loadOrGenerateVRFKey(path string) (*crypto.KeyPair, error) {
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read vrf key file: %w", err)
		}
		priv, err := gethcrypto.ToECDSA(data)
		if err != nil {
			return nil, fmt.Errorf("vrf key %s: %w", path, err)
		}
		return &crypto.KeyPair{Private: priv}, nil
	}

	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("generate vrf key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create vrf key directory: %w", err)
	}
	if err := os.WriteFile(path, gethcrypto.FromECDSA(kp.Private), 0600); err != nil {
		return nil, fmt.Errorf("write vrf key file: %w", err)
	}
	return kp, nil
}
