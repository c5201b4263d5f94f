// Copyright 2026 The CodeChain-Go Authors

package bls

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kode-chain/codechain-go/pkg/crypto"
)

// KeyManager loads, generates and persists a validator's BLS signing
// key, mirroring the ed25519 key file a validator already keeps for
// vote signing: backups and key material live alongside
// each other under the same data directory.
type KeyManager struct {
	keyPath    string
	privateKey *PrivateKey
	publicKey  *PublicKey
}

// NewKeyManager creates a key manager rooted at keyPath. keyPath may
// be empty, in which case keys are kept in memory only.
func NewKeyManager(keyPath string) *KeyManager {
	return &KeyManager{keyPath: keyPath}
}

// LoadOrGenerateKey loads the key at keyPath if it exists, otherwise
// generates and persists a fresh one.
func (km *KeyManager) LoadOrGenerateKey() error {
	if err := Initialize(); err != nil {
		return fmt.Errorf("initialize BLS: %w", err)
	}

	if km.keyPath != "" {
		if _, err := os.Stat(km.keyPath); err == nil {
			return km.LoadKey()
		}
	}
	return km.GenerateNewKey()
}

// LoadKey reads a hex-encoded private key from keyPath.
func (km *KeyManager) LoadKey() error {
	if km.keyPath == "" {
		return fmt.Errorf("no key path specified")
	}

	data, err := os.ReadFile(km.keyPath)
	if err != nil {
		return fmt.Errorf("read key file: %w", err)
	}

	keyBytes, err := hex.DecodeString(string(data))
	if err != nil {
		return fmt.Errorf("decode key hex: %w", err)
	}

	km.privateKey, err = PrivateKeyFromBytes(keyBytes)
	if err != nil {
		return fmt.Errorf("parse private key: %w", err)
	}

	km.publicKey = km.privateKey.PublicKey()
	return nil
}

// GenerateNewKey generates a fresh key pair and persists it if keyPath
// is set.
func (km *KeyManager) GenerateNewKey() error {
	var err error
	km.privateKey, km.publicKey, err = GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("generate key pair: %w", err)
	}
	if km.keyPath != "" {
		return km.SaveKey()
	}
	return nil
}

// GenerateFromSeed derives a deterministic key pair from seed, without
// persisting it.
func (km *KeyManager) GenerateFromSeed(seed []byte) error {
	var err error
	km.privateKey, km.publicKey, err = GenerateKeyPairFromSeed(seed)
	if err != nil {
		return fmt.Errorf("generate from seed: %w", err)
	}
	return nil
}

// GenerateFromValidatorSeed derives a key deterministically from a
// validator address and chain id, so a restarted validator recovers
// the same BLS key without reading it off disk (mirrors the ed25519
// recovery path a backup restore already provides).
func (km *KeyManager) GenerateFromValidatorSeed(validatorAddr [20]byte, chainID uint64) error {
	msg := fmt.Sprintf("CODECHAIN_BLS_KEY_V1:%x:%d", validatorAddr, chainID)
	seed := crypto.Blake256([]byte(msg))
	return km.GenerateFromSeed(seed[:])
}

// SaveKey writes the private key, hex-encoded, to keyPath.
func (km *KeyManager) SaveKey() error {
	if km.keyPath == "" {
		return fmt.Errorf("no key path specified")
	}
	if km.privateKey == nil {
		return fmt.Errorf("no private key to save")
	}

	dir := filepath.Dir(km.keyPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}

	keyHex := hex.EncodeToString(km.privateKey.Bytes())
	if err := os.WriteFile(km.keyPath, []byte(keyHex), 0600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

// PrivateKey returns the loaded private key, or nil.
func (km *KeyManager) PrivateKey() *PrivateKey {
	return km.privateKey
}

// PublicKey returns the loaded public key, or nil.
func (km *KeyManager) PublicKey() *PublicKey {
	return km.publicKey
}

// PublicKeyHex returns the public key as a hex string, or "" if none
// is loaded.
func (km *KeyManager) PublicKeyHex() string {
	if km.publicKey == nil {
		return ""
	}
	return km.publicKey.Hex()
}

// Sign signs message with the loaded private key.
func (km *KeyManager) Sign(message []byte) (*Signature, error) {
	if km.privateKey == nil {
		return nil, fmt.Errorf("no private key loaded")
	}
	return km.privateKey.Sign(message), nil
}

// SignWithDomain signs message under domain with the loaded private
// key.
func (km *KeyManager) SignWithDomain(message []byte, domain string) (*Signature, error) {
	if km.privateKey == nil {
		return nil, fmt.Errorf("no private key loaded")
	}
	return km.privateKey.SignWithDomain(message, domain), nil
}
