// Copyright 2026 The CodeChain-Go Authors

package storage

import (
	dbm "github.com/cometbft/cometbft-db"
)

// cometBackend adapts a cometbft-db DB (goleveldb/badgerdb/rocksdb/
// memdb, chosen at open time) to Backend. Writes go through SetSync
// so that a crash immediately after a call returns never loses data,
// the same durability discipline the consensus backup record and the
// invoice store both depend on.
type cometBackend struct {
	db dbm.DB
}

// OpenGoLevelDB opens (creating if absent) a goleveldb-backed Backend
// rooted at dir/name.db.
func OpenGoLevelDB(name, dir string) (Backend, error) {
	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		return nil, err
	}
	return &cometBackend{db: db}, nil
}

// NewCometBackend wraps an already-open cometbft-db DB.
func NewCometBackend(db dbm.DB) Backend {
	return &cometBackend{db: db}
}

func (b *cometBackend) Get(key []byte) ([]byte, error) {
	v, err := b.db.Get(key)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrNotFound
	}
	return v, nil
}

func (b *cometBackend) Has(key []byte) (bool, error) {
	return b.db.Has(key)
}

func (b *cometBackend) Set(key, value []byte) error {
	return b.db.SetSync(key, value)
}

func (b *cometBackend) Delete(key []byte) error {
	return b.db.DeleteSync(key)
}

func (b *cometBackend) Close() error {
	return b.db.Close()
}

func (b *cometBackend) NewBatch() Batch {
	return &cometBatch{batch: b.db.NewBatch()}
}

func (b *cometBackend) Iterator(start, end []byte) (Iterator, error) {
	it, err := b.db.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	return &cometIterator{it: it}, nil
}

type cometBatch struct {
	batch dbm.Batch
}

func (b *cometBatch) Set(key, value []byte) { b.batch.Set(key, value) }
func (b *cometBatch) Delete(key []byte) { b.batch.Delete(key) }
func (b *cometBatch) Commit() error { return b.batch.WriteSync() }

type cometIterator struct {
	it dbm.Iterator
}

func (i *cometIterator) Valid() bool { return i.it.Valid() }
func (i *cometIterator) Next() { i.it.Next() }
func (i *cometIterator) Key() []byte { return i.it.Key() }
func (i *cometIterator) Value() []byte { return i.it.Value() }
func (i *cometIterator) Close() error { return i.it.Close() }
