// Copyright 2026 The CodeChain-Go Authors

package blockchain

import (
	"errors"

	"github.com/kode-chain/codechain-go/pkg/rlp"
	"github.com/kode-chain/codechain-go/pkg/storage"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// ErrInvoiceNotFound is returned looking up a transaction hash no
// block's invoice list recorded.
var ErrInvoiceNotFound = errors.New("blockchain: invoice not found")

// InvoiceStore is its own addressable lookup from a transaction hash
// to its outcome, kept separate from the per-block Invoices column so
// an RPC query by transaction hash never has to find the enclosing
// block first. A transaction hash, once recorded, is retained
// indefinitely regardless of later reorgs retracting the block it was
// mined in.
type InvoiceStore struct {
	backend storage.Backend
}

const prefixTxInvoice = "tx-inv:"

func txInvoiceKey(hash types.Hash) []byte { return append([]byte(prefixTxInvoice), hash[:]...) }

func NewInvoiceStore(backend storage.Backend) *InvoiceStore {
	return &InvoiceStore{backend: backend}
}

// Record indexes every invoice in invoices by its own transaction
// hash, in addition to the per-block list Index.Insert already wrote.
func (s *InvoiceStore) Record(invoices []types.Invoice) error {
	batch := s.backend.NewBatch()
	for _, inv := range invoices {
		raw, err := rlp.Encode(inv)
		if err != nil {
			return err
		}
		batch.Set(txInvoiceKey(inv.TxHash), raw)
	}
	return batch.Commit()
}

// Lookup returns the recorded outcome for txHash.
func (s *InvoiceStore) Lookup(txHash types.Hash) (types.Invoice, error) {
	raw, err := s.backend.Get(txInvoiceKey(txHash))
	if errors.Is(err, storage.ErrNotFound) {
		return types.Invoice{}, ErrInvoiceNotFound
	}
	if err != nil {
		return types.Invoice{}, err
	}
	var inv types.Invoice
	if err := rlp.Decode(raw, &inv); err != nil {
		return types.Invoice{}, err
	}
	return inv, nil
}
