// Copyright 2026 The CodeChain-Go Authors

// Package blockchain implements the block index: headers,
// bodies and invoices keyed by hash, a best-block pointer with its
// cumulative score, and the tree-route computation a reorg needs to
// compute an ImportRoute between any two known hashes.
package blockchain

import (
	"encoding/binary"
	"errors"
	"math/big"
	"sync"

	"github.com/kode-chain/codechain-go/pkg/rlp"
	"github.com/kode-chain/codechain-go/pkg/storage"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// Key layout, one short prefix per logical column family, mirrored
// here over one storage.Backend since the interface has no native
// notion of columns (see pkg/storage's own doc comment).
const (
	prefixHeader  = "h:"
	prefixBody    = "b:"
	prefixInvoice = "r:"
	prefixNumber  = "n:"
	prefixTotal   = "t:"
	keyBest       = "best"
)

var (
	// ErrUnknownBlock is returned looking up a hash the index has
	// never seen.
	ErrUnknownBlock = errors.New("blockchain: unknown block")
	// ErrNoRoute is returned when a tree-route walk crosses pruned
	// history on either side; the caller must treat the operation as
	// unsafe.
	ErrNoRoute = errors.New("blockchain: no route between blocks (pruned history)")
)

func headerKey(h types.Hash) []byte { return append([]byte(prefixHeader), h[:]...) }
func bodyKey(h types.Hash) []byte { return append([]byte(prefixBody), h[:]...) }
func invoiceKey(h types.Hash) []byte { return append([]byte(prefixInvoice), h[:]...) }
func numberKey(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return append([]byte(prefixNumber), b...)
}
func totalKey(h types.Hash) []byte { return append([]byte(prefixTotal), h[:]...) }

// BestBlock names the current head of the canonical chain and its
// cumulative score, the quantity best-block comparisons are decided
// on.
type BestBlock struct {
	Hash       types.Hash
	Number     uint64
	TotalScore *big.Int
}

// Index is the blockchain's header/body/invoice store plus the
// best-block pointer, all backed by one storage.Backend. A single
// sync.RWMutex serialises writers (import, reorg) against the many
// readers on the hot path; since storage.Backend
// itself has no transaction isolation beyond Batch, the mutex is what
// actually provides that guarantee here.
type Index struct {
	mu      sync.RWMutex
	backend storage.Backend
	best    BestBlock
}

// Open loads (or initialises, for an empty backend) an Index over
// backend.
func Open(backend storage.Backend) (*Index, error) {
	idx := &Index{backend: backend}
	raw, err := backend.Get([]byte(keyBest))
	if errors.Is(err, storage.ErrNotFound) {
		return idx, nil
	}
	if err != nil {
		return nil, err
	}
	var best rlpBestBlock
	if err := rlp.Decode(raw, &best); err != nil {
		return nil, err
	}
	idx.best = BestBlock{Hash: best.Hash, Number: best.Number, TotalScore: best.TotalScore}
	return idx, nil
}

type rlpBestBlock struct {
	Hash       types.Hash
	Number     uint64
	TotalScore *big.Int
}

// Best returns the current best-block pointer.
func (idx *Index) Best() BestBlock {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.best
}

// Header returns the header stored under hash.
func (idx *Index) Header(hash types.Hash) (*types.Header, error) {
	raw, err := idx.backend.Get(headerKey(hash))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnknownBlock
	}
	if err != nil {
		return nil, err
	}
	return types.DecodeHeader(raw)
}

// HashAtNumber returns the canonical block hash at height n, if any
// has been recorded there.
func (idx *Index) HashAtNumber(n uint64) (types.Hash, bool, error) {
	raw, err := idx.backend.Get(numberKey(n))
	if errors.Is(err, storage.ErrNotFound) {
		return types.Hash{}, false, nil
	}
	if err != nil {
		return types.Hash{}, false, err
	}
	return types.BytesToHash(raw), true, nil
}

// Body returns the transaction list stored under hash.
func (idx *Index) Body(hash types.Hash) ([]*types.Transaction, error) {
	raw, err := idx.backend.Get(bodyKey(hash))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnknownBlock
	}
	if err != nil {
		return nil, err
	}
	var txs []rlp.RawValue
	if err := rlp.Decode(raw, &txs); err != nil {
		return nil, err
	}
	out := make([]*types.Transaction, len(txs))
	for i, raw := range txs {
		tx, err := types.DecodeTransaction(raw)
		if err != nil {
			return nil, err
		}
		out[i] = tx
	}
	return out, nil
}

// TotalScore returns the cumulative score recorded for hash: the sum
// of per-block scores from genesis to hash along its own branch, the
// quantity best-block selection compares.
func (idx *Index) TotalScore(hash types.Hash) (*big.Int, error) {
	raw, err := idx.backend.Get(totalKey(hash))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnknownBlock
	}
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}

// Invoices returns the invoice list recorded for hash's transactions.
func (idx *Index) Invoices(hash types.Hash) ([]types.Invoice, error) {
	raw, err := idx.backend.Get(invoiceKey(hash))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnknownBlock
	}
	if err != nil {
		return nil, err
	}
	var invoices []types.Invoice
	if err := rlp.Decode(raw, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// InsertResult names which best-block outcome an Insert produced:
// appended, branch-becomes-canonical, or no change.
type InsertResult uint8

const (
	// ResultAppended means the new block's parent was already best:
	// the canonical chain simply grew by one.
	ResultAppended InsertResult = iota
	// ResultBranchBecameCanonical means a tree-route existed between
	// the old best and the new block and the new block's total score
	// was strictly greater, or equal with the new block's hash winning
	// the tie-break, so the canonical branch switched.
	ResultBranchBecameCanonical
	// ResultNoChange means the new block was stored but did not
	// become canonical (its branch's total score was lower than the
	// current best's, or equal and it lost the hash tie-break).
	ResultNoChange
)

// Insert stores header, body, invoices and the block's cumulative
// total score under header.Hash(), then updates the best-block
// pointer per the three outcomes: appended (parent was best),
// branch-becomes-canonical (a route exists and the new total is
// strictly greater), or no change. Total-score ties are broken
// deterministically by hash ordering, so two competing branches of
// equal total resolve identically on every honest node regardless of
// arrival order.
func (idx *Index) Insert(header *types.Header, txs []*types.Transaction, invoices []types.Invoice) (InsertResult, *ImportRoute, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	hash := header.Hash()
	batch := idx.backend.NewBatch()

	hdrRaw, err := header.RLP()
	if err != nil {
		return 0, nil, err
	}
	batch.Set(headerKey(hash), hdrRaw)

	rawTxs := make([]rlp.RawValue, len(txs))
	for i, tx := range txs {
		raw, err := tx.RLP()
		if err != nil {
			return 0, nil, err
		}
		rawTxs[i] = raw
	}
	bodyRaw, err := rlp.Encode(rawTxs)
	if err != nil {
		return 0, nil, err
	}
	batch.Set(bodyKey(hash), bodyRaw)

	invRaw, err := rlp.Encode(invoices)
	if err != nil {
		return 0, nil, err
	}
	batch.Set(invoiceKey(hash), invRaw)

	if idx.best.TotalScore == nil {
		// genesis: the first block this index has ever seen.
		total := new(big.Int).Set(header.Score)
		batch.Set(totalKey(hash), total.Bytes())
		idx.best = BestBlock{Hash: hash, Number: header.Number, TotalScore: total}
		batch.Set(numberKey(header.Number), hash[:])
		if err := idx.writeBest(batch); err != nil {
			return 0, nil, err
		}
		if err := batch.Commit(); err != nil {
			return 0, nil, err
		}
		return ResultAppended, &ImportRoute{Ancestor: hash}, nil
	}

	if header.ParentHash == idx.best.Hash {
		total := new(big.Int).Add(idx.best.TotalScore, header.Score)
		batch.Set(totalKey(hash), total.Bytes())
		idx.best = BestBlock{Hash: hash, Number: header.Number, TotalScore: total}
		batch.Set(numberKey(header.Number), hash[:])
		if err := idx.writeBest(batch); err != nil {
			return 0, nil, err
		}
		if err := batch.Commit(); err != nil {
			return 0, nil, err
		}
		return ResultAppended, &ImportRoute{Ancestor: header.ParentHash, Enacted: []types.Hash{hash}}, nil
	}

	parentTotal, err := idx.TotalScore(header.ParentHash)
	if err != nil {
		return 0, nil, err
	}
	total := new(big.Int).Add(parentTotal, header.Score)
	batch.Set(totalKey(hash), total.Bytes())

	if err := batch.Commit(); err != nil {
		return 0, nil, err
	}

	becomesCanonical := total.Cmp(idx.best.TotalScore) > 0 ||
		(total.Cmp(idx.best.TotalScore) == 0 && lessHash(idx.best.Hash, hash))
	if !becomesCanonical {
		return ResultNoChange, nil, nil
	}

	route, err := idx.treeRouteLocked(idx.best.Hash, hash)
	if err != nil {
		return ResultNoChange, nil, nil
	}

	rebatch := idx.backend.NewBatch()
	for _, enacted := range route.Enacted {
		h, err := idx.Header(enacted)
		if err != nil {
			return 0, nil, err
		}
		rebatch.Set(numberKey(h.Number), enacted[:])
	}
	// A heavier branch can still be shorter; clear canonical-number
	// mappings the retracted chain left above the new head.
	for n := header.Number + 1; n <= idx.best.Number; n++ {
		rebatch.Delete(numberKey(n))
	}
	idx.best = BestBlock{Hash: hash, Number: header.Number, TotalScore: total}
	if err := idx.writeBest(rebatch); err != nil {
		return 0, nil, err
	}
	if err := rebatch.Commit(); err != nil {
		return 0, nil, err
	}
	return ResultBranchBecameCanonical, route, nil
}

func (idx *Index) writeBest(batch storage.Batch) error {
	raw, err := rlp.Encode(&rlpBestBlock{Hash: idx.best.Hash, Number: idx.best.Number, TotalScore: idx.best.TotalScore})
	if err != nil {
		return err
	}
	batch.Set([]byte(keyBest), raw)
	return nil
}

func lessHash(a, b types.Hash) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
