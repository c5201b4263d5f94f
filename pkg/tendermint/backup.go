// Copyright 2026 The CodeChain-Go Authors

package tendermint

import (
	"errors"

	"github.com/kode-chain/codechain-go/pkg/rlp"
	"github.com/kode-chain/codechain-go/pkg/storage"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// backupKey is the fixed key every backup record is written under in
// the key-value store.
var backupKey = []byte("consensus:backup")

// ErrNoBackup is returned reading a backup record before one has ever
// been written (a brand-new validator's first run).
var ErrNoBackup = errors.New("tendermint: no backup record found")

// backupVersion is the schema version tag a record is written with.
// A versioned record is kept so a validator upgrading mid-deployment
// doesn't lose its crash-recovery state; v0 lacked PrevFinalizedView,
// added in v1.
type backupVersion uint8

const (
	backupV0 backupVersion = 0
	backupV1 backupVersion = 1

	currentBackupVersion = backupV1
)

// Backup is the crash-recovery record written at every state
// transition: height, view, step, every vote seen this height, and
// the finalising views of the previous and current blocks.
type Backup struct {
	Version           backupVersion
	Height            uint64
	View              uint64
	Step              types.Step
	Votes             []types.SignedVote
	Proposal          *types.Proposal
	PrevFinalizedView uint64
	CurFinalizedView  uint64
}

// rlpBackupV1 is the on-wire shape of the current version.
type rlpBackupV1 struct {
	Version           uint8
	Height            uint64
	View              uint64
	Step              types.Step
	Votes             []types.SignedVote
	HasProposal       bool
	ProposalRaw       []byte
	PrevFinalizedView uint64
	CurFinalizedView  uint64
}

// rlpBackupV0 is the pre-migration shape: no PrevFinalizedView field.
type rlpBackupV0 struct {
	Height           uint64
	View             uint64
	Step             types.Step
	Votes            []types.SignedVote
	HasProposal      bool
	ProposalRaw      []byte
	CurFinalizedView uint64
}

// Write persists b under the fixed backup key, always in the current
// schema version regardless of what b.Version was set to.
func Write(backend storage.Backend, b *Backup) error {
	raw, err := encodeBackupV1(b)
	if err != nil {
		return err
	}
	return backend.Set(backupKey, raw)
}

// Read loads the backup record, migrating a v0 record to v1 in memory.
// Returns ErrNoBackup if none exists.
func Read(backend storage.Backend) (*Backup, error) {
	raw, err := backend.Get(backupKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoBackup
	}
	if err != nil {
		return nil, err
	}

	// v1's struct has two more fields than v0 (Version,
	// PrevFinalizedView), so gethrlp's struct decoder rejects a v0
	// record's shorter list outright; try v1 first since every record
	// after the first migration will be one.
	var v1 rlpBackupV1
	if err := rlp.Decode(raw, &v1); err == nil && backupVersion(v1.Version) == backupV1 {
		return decodeBackupV1(&v1)
	}

	var v0 rlpBackupV0
	if err := rlp.Decode(raw, &v0); err != nil {
		return nil, err
	}
	return migrateV0(&v0), nil
}

func encodeBackupV1(b *Backup) ([]byte, error) {
	raw := rlpBackupV1{
		Version:           uint8(currentBackupVersion),
		Height:            b.Height,
		View:              b.View,
		Step:              b.Step,
		Votes:             b.Votes,
		PrevFinalizedView: b.PrevFinalizedView,
		CurFinalizedView:  b.CurFinalizedView,
	}
	if b.Proposal != nil {
		encoded, err := rlp.Encode(b.Proposal)
		if err != nil {
			return nil, err
		}
		raw.HasProposal = true
		raw.ProposalRaw = encoded
	}
	return rlp.Encode(&raw)
}

func decodeBackupV1(raw *rlpBackupV1) (*Backup, error) {
	b := &Backup{
		Version:           backupV1,
		Height:            raw.Height,
		View:              raw.View,
		Step:              raw.Step,
		Votes:             raw.Votes,
		PrevFinalizedView: raw.PrevFinalizedView,
		CurFinalizedView:  raw.CurFinalizedView,
	}
	if raw.HasProposal {
		var p types.Proposal
		if err := rlp.Decode(raw.ProposalRaw, &p); err != nil {
			return nil, err
		}
		b.Proposal = &p
	}
	return b, nil
}

// migrateV0 upgrades a v0 record: PrevFinalizedView wasn't tracked, so
// it is seeded from CurFinalizedView (the closest available
// approximation; the engine re-derives the exact value as soon as it
// next finalizes a block).
func migrateV0(raw *rlpBackupV0) *Backup {
	b := &Backup{
		Version:           backupV1,
		Height:            raw.Height,
		View:              raw.View,
		Step:              raw.Step,
		Votes:             raw.Votes,
		PrevFinalizedView: raw.CurFinalizedView,
		CurFinalizedView:  raw.CurFinalizedView,
	}
	if raw.HasProposal {
		var p types.Proposal
		if err := rlp.Decode(raw.ProposalRaw, &p); err == nil {
			b.Proposal = &p
		}
	}
	return b
}
