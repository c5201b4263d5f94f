// Copyright 2026 The CodeChain-Go Authors

package storage

import (
	"bytes"
	"sort"
	"sync"
)

// memBackend is an in-memory Backend for unit tests, where a real
// cometbft-db instance would only add setup/teardown noise.
type memBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryBackend returns an empty in-memory Backend.
func NewMemoryBackend() Backend {
	return &memBackend{data: make(map[string][]byte)}
}

func (m *memBackend) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *memBackend) Has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[string(key)]
	return ok, nil
}

func (m *memBackend) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[string(key)] = v
	return nil
}

func (m *memBackend) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *memBackend) Close() error { return nil }

func (m *memBackend) NewBatch() Batch {
	return &memBatch{parent: m}
}

func (m *memBackend) Iterator(start, end []byte) (Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		kb := []byte(k)
		if start != nil && bytes.Compare(kb, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(kb, end) >= 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = m.data[k]
	}
	return &memIterator{keys: keys, values: values}, nil
}

type memBatch struct {
	parent  *memBackend
	sets    map[string][]byte
	deletes map[string]struct{}
}

func (b *memBatch) Set(key, value []byte) {
	if b.sets == nil {
		b.sets = make(map[string][]byte)
	}
	v := make([]byte, len(value))
	copy(v, value)
	b.sets[string(key)] = v
}

func (b *memBatch) Delete(key []byte) {
	if b.deletes == nil {
		b.deletes = make(map[string]struct{})
	}
	b.deletes[string(key)] = struct{}{}
}

func (b *memBatch) Commit() error {
	b.parent.mu.Lock()
	defer b.parent.mu.Unlock()
	for k, v := range b.sets {
		b.parent.data[k] = v
	}
	for k := range b.deletes {
		delete(b.parent.data, k)
	}
	return nil
}

type memIterator struct {
	keys   []string
	values [][]byte
	pos    int
}

func (it *memIterator) Valid() bool { return it.pos < len(it.keys) }
func (it *memIterator) Next() { it.pos++ }
func (it *memIterator) Key() []byte { return []byte(it.keys[it.pos]) }
func (it *memIterator) Value() []byte { return it.values[it.pos] }
func (it *memIterator) Close() error { return nil }
