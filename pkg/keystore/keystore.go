// Copyright 2026 The CodeChain-Go Authors

// Package keystore persists a validator's secp256k1 signing key to
// disk as a Web3 Secret Storage JSON file, reusing go-ethereum's
// accounts/keystore encryption primitives directly (the same
// scrypt-then-AES format cmd/geth's `account` subcommands write)
// rather than inventing a new on-disk format, the way the pack's
// CPC-Yao-chain launch scripts lean on their own fork of the identical
// package for the same job.
package keystore

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/kode-chain/codechain-go/pkg/crypto"
)

// scryptN/scryptP match go-ethereum's "light" KDF parameters: fast
// enough for a CLI invocation, still well above the Web3 Secret
// Storage minimum.
const (
	scryptN = keystore.LightScryptN
	scryptP = keystore.LightScryptP
)

// ErrKeyfileExists is returned by Create when the target path is
// already occupied, to avoid silently clobbering an existing key.
var ErrKeyfileExists = errors.New("keystore: key file already exists")

// Create generates a fresh secp256k1 key pair, encrypts it under
// passphrase, and writes it to path. It returns the new key pair so
// the caller can print its address without a second decrypt round
// trip.
func Create(path, passphrase string) (*crypto.KeyPair, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, ErrKeyfileExists
	}
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	if err := save(path, kp, passphrase); err != nil {
		return nil, err
	}
	return kp, nil
}

// ImportRaw wraps an already-known raw private key (hex-decoded by
// the caller) the same way Create wraps a freshly generated one.
func ImportRaw(path string, priv *ecdsa.PrivateKey, passphrase string) (*crypto.KeyPair, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, ErrKeyfileExists
	}
	kp := &crypto.KeyPair{Private: priv}
	if err := save(path, kp, passphrase); err != nil {
		return nil, err
	}
	return kp, nil
}

// Import re-encrypts an existing Web3 Secret Storage JSON file (e.g.
// exported from another node) under this module's own KDF parameters,
// the same "import a foreign keyfile" operation cmd/geth's account
// subcommand exposes.
func Import(dstPath string, keyJSON []byte, passphrase, newPassphrase string) (*crypto.KeyPair, error) {
	if _, err := os.Stat(dstPath); err == nil {
		return nil, ErrKeyfileExists
	}
	key, err := keystore.DecryptKey(keyJSON, passphrase)
	if err != nil {
		return nil, err
	}
	kp := &crypto.KeyPair{Private: key.PrivateKey}
	if err := save(dstPath, kp, newPassphrase); err != nil {
		return nil, err
	}
	return kp, nil
}

// Load decrypts the key file at path under passphrase.
func Load(path, passphrase string) (*crypto.KeyPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key, err := keystore.DecryptKey(data, passphrase)
	if err != nil {
		return nil, err
	}
	return &crypto.KeyPair{Private: key.PrivateKey}, nil
}

// ChangePassphrase re-encrypts the key file at path under a new
// passphrase, rewriting it in place only once decryption and
// re-encryption both succeed.
func ChangePassphrase(path, oldPassphrase, newPassphrase string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	key, err := keystore.DecryptKey(data, oldPassphrase)
	if err != nil {
		return err
	}
	out, err := keystore.EncryptKey(key, newPassphrase, scryptN, scryptP)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

// Remove deletes the key file at path after confirming it decrypts
// under passphrase, so a typo'd passphrase can't be used to destroy a
// key whose correct passphrase the caller doesn't actually hold.
func Remove(path, passphrase string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if _, err := keystore.DecryptKey(data, passphrase); err != nil {
		return err
	}
	return os.Remove(path)
}

// Entry describes one key file found by List.
type Entry struct {
	Path    string
	Address [20]byte
}

// addressMarker is the subset of the Web3 Secret Storage JSON schema
// List needs: just enough to report each file's address without a
// passphrase, matching the cleartext "address" field every Web3
// keystore file carries alongside its encrypted payload.
type addressMarker struct {
	Address string `json:"address"`
}

// List enumerates the key files under dir, reading only their
// cleartext address field.
func List(dir string) ([]Entry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var marker addressMarker
		if err := json.Unmarshal(data, &marker); err != nil {
			continue
		}
		addrBytes := common.FromHex("0x" + marker.Address)
		var addr [20]byte
		copy(addr[20-len(addrBytes):], addrBytes)
		out = append(out, Entry{Path: path, Address: addr})
	}
	return out, nil
}

// save encrypts kp under passphrase and writes it to path, stamping
// the cleartext address field with this module's own Blake160 address
// rather than go-ethereum's Keccak-based one, since that address
// space is what every other package in this module indexes accounts
// by.
func save(path string, kp *crypto.KeyPair, passphrase string) error {
	addr := kp.Address()
	key := &keystore.Key{
		Id:         uuid.New(),
		Address:    common.BytesToAddress(addr[:]),
		PrivateKey: kp.Private,
	}
	out, err := keystore.EncryptKey(key, passphrase, scryptN, scryptP)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}
