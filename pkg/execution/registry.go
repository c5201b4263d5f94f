// Copyright 2026 The CodeChain-Go Authors

package execution

import (
	"fmt"
	"sync"

	"github.com/kode-chain/codechain-go/pkg/rlp"
	"github.com/kode-chain/codechain-go/pkg/state"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// Handler is the interface a pluggable action handler implements: an
// opaque custom-action payload addressed by a handler id, so new
// handlers can be added without touching the core.
type Handler interface {
	// Execute mutates s on behalf of payer given the raw action
	// payload. Returning one of the state package's runtime errors
	// aborts only this transaction's invoice.
	Execute(s *state.TopLevelState, payer types.Address, payload []byte) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(s *state.TopLevelState, payer types.Address, payload []byte) error

func (f HandlerFunc) Execute(s *state.TopLevelState, payer types.Address, payload []byte) error {
	return f(s, payer, payload)
}

// HandlerRegistry is an open registry: the core depends only on the
// Handler interface, never on a concrete handler's business logic, so
// new handler ids can be registered by an embedder without a change to
// this package.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[uint64]Handler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[uint64]Handler)}
}

// Register installs handler under id, replacing any prior registrant.
func (r *HandlerRegistry) Register(id uint64, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[id] = handler
}

// Execute routes payload to the handler registered for id.
func (r *HandlerRegistry) Execute(s *state.TopLevelState, payer types.Address, id uint64, payload []byte) error {
	r.mu.RLock()
	h, ok := r.handlers[id]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("execution: no handler registered for id %d", id)
	}
	return h.Execute(s, payer, payload)
}

// StakeHandlerID is the handler id the bundled stake-table handler
// registers under, used by the Solo engine's reward distribution:
// Solo distributes the block reward per a stake table kept in
// action-data (fees go to the block author, not through the table).
const StakeHandlerID uint64 = 1

// stakeTableKey is the action-data key the stake table is stored
// under, namespaced the same way pkg/state's own trie keys are.
const stakeTableKey = "stake:table"

// StakeTable is a flat list of (address, weight) entries Solo
// consults to split a block reward.
type StakeTable struct {
	Entries []StakeEntry
}

type StakeEntry struct {
	Address types.Address
	Weight  uint64
}

// LoadStakeTable reads the stake table from action-data, returning an
// empty table if none has been set yet.
func LoadStakeTable(s *state.TopLevelState) (*StakeTable, error) {
	v, ok, err := s.ActionData([]byte(stakeTableKey))
	if err != nil {
		return nil, err
	}
	if !ok {
		return &StakeTable{}, nil
	}
	var t StakeTable
	if err := decodeStakeTable(v.Value, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// SetStakeTable buffers a new stake table.
func SetStakeTable(s *state.TopLevelState, t *StakeTable) error {
	raw, err := encodeStakeTable(t)
	if err != nil {
		return err
	}
	s.SetActionData([]byte(stakeTableKey), raw)
	return nil
}

func encodeStakeTable(t *StakeTable) ([]byte, error) { return rlp.Encode(t) }

func decodeStakeTable(data []byte, t *StakeTable) error { return rlp.Decode(data, t) }
