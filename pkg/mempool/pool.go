// Copyright 2026 The CodeChain-Go Authors

// Package mempool implements the node's transaction pool: two logical
// queues (current, ready to include; future, seq ahead of the
// account) ordered by (fee descending, seq ascending, arrival order),
// a strictly-greater-fee replacement rule, a per-entry status machine,
// chain-event re-evaluation on new blocks and reorgs, and per-peer
// propagation. The pool is an open accumulation structure guarded by
// one mutex, with entries moving through a terminal-state machine as
// they are mined, dropped, replaced, or rejected.
package mempool

import (
	"sort"
	"sync"

	"github.com/kode-chain/codechain-go/pkg/types"
)

// AccountView resolves an account's next expected sequence number
// against the current best state; narrowed to exactly what the pool
// needs so it doesn't have to import the state or consensus packages
// just to ask one question.
type AccountView interface {
	Seq(addr types.Address) (uint64, error)
}

// Entry is one transaction tracked by the pool.
type Entry struct {
	Tx      *types.Transaction
	Hash    types.Hash
	Sender  types.Address
	Arrival uint64
	Status  Status
}

func higherPriority(a, b *Entry) bool {
	if c := a.Tx.Fee.Cmp(b.Tx.Fee); c != 0 {
		return c > 0
	}
	if a.Tx.Seq != b.Tx.Seq {
		return a.Tx.Seq < b.Tx.Seq
	}
	return a.Arrival < b.Arrival
}

// Pool is the mempool's single mutex-guarded structure; every
// operation is expected to be short, since it runs holding the lock.
type Pool struct {
	mu sync.Mutex

	view    AccountView
	maxSize int
	arrival uint64

	bySender map[types.Address]map[uint64]*Entry
	byHash   map[types.Hash]*Entry

	local    *LocalParcels
	notifier *Notifier

	rejectHook func(reason string)
}

// New builds a Pool backed by view for account-seq lookups, capped at
// maxSize active entries (current+future combined) and retaining up
// to maxOld terminal entries per owner for RPC queries.
func New(view AccountView, maxSize, maxOld int) *Pool {
	return &Pool{
		view:     view,
		maxSize:  maxSize,
		bySender: make(map[types.Address]map[uint64]*Entry),
		byHash:   make(map[types.Hash]*Entry),
		local:    NewLocalParcels(maxOld),
		notifier: NewNotifier(),
	}
}

// Notifier returns the subscriber hook fired after every chain event
// the pool reacts to.
func (p *Pool) Notifier() *Notifier { return p.notifier }

// seq resolves sender's account seq, treating a pool with no attached
// view (possible during two-phase construction) as having no account
// information rather than crashing.
func (p *Pool) seq(sender types.Address) (uint64, error) {
	if p.view == nil {
		return 0, ErrNoAccountView
	}
	return p.view.Seq(sender)
}

// Local returns the terminal-entry history list for RPC queries.
func (p *Pool) Local() *LocalParcels { return p.local }

// SetRejectHook installs fn to be called with a short reason tag every
// time Insert rejects a transaction, the seam the node's metrics hang
// off without this package importing a metrics library itself.
func (p *Pool) SetRejectHook(fn func(reason string)) {
	p.mu.Lock()
	p.rejectHook = fn
	p.mu.Unlock()
}

func (p *Pool) rejectedLocked(reason string) {
	if p.rejectHook != nil {
		p.rejectHook(reason)
	}
}

// Insert adds tx to the pool, replacing any existing entry at the same
// (sender, seq) only if tx's fee is strictly greater.
func (p *Pool) Insert(tx *types.Transaction) (types.Hash, error) {
	sender, err := tx.Signer()
	if err != nil {
		return types.Hash{}, ErrUnsigned
	}
	hash, err := tx.Hash()
	if err != nil {
		return types.Hash{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	bySeq, ok := p.bySender[sender]
	if !ok {
		bySeq = make(map[uint64]*Entry)
		p.bySender[sender] = bySeq
	}

	if old, exists := bySeq[tx.Seq]; exists {
		if tx.Fee.Cmp(old.Tx.Fee) <= 0 {
			p.rejectedLocked("too_cheap_to_replace")
			return types.Hash{}, ErrTooCheapToReplace
		}
		old.Status = StatusReplaced
		p.local.Record(old.Sender, old.Hash, StatusReplaced, old.Tx)
		delete(p.byHash, old.Hash)
	}

	status := StatusFuture
	if accSeq, err := p.seq(sender); err == nil {
		switch {
		case tx.Seq < accSeq:
			p.rejectedLocked("already_included")
			return types.Hash{}, ErrAlreadyIncluded
		case tx.Seq == accSeq:
			status = StatusPending
		}
	}

	entry := &Entry{Tx: tx, Hash: hash, Sender: sender, Arrival: p.arrival, Status: status}
	p.arrival++
	bySeq[tx.Seq] = entry
	p.byHash[hash] = entry

	p.evictOverCapLocked()
	return hash, nil
}

// evictOverCapLocked drops the lowest-priority tail once the pool
// exceeds maxSize active entries. Caller holds p.mu.
func (p *Pool) evictOverCapLocked() {
	if p.maxSize <= 0 || len(p.byHash) <= p.maxSize {
		return
	}
	active := make([]*Entry, 0, len(p.byHash))
	for _, e := range p.byHash {
		active = append(active, e)
	}
	sort.Slice(active, func(i, j int) bool { return higherPriority(active[i], active[j]) })
	for _, e := range active[p.maxSize:] {
		e.Status = StatusDropped
		p.local.Record(e.Sender, e.Hash, StatusDropped, e.Tx)
		delete(p.byHash, e.Hash)
		if bySeq := p.bySender[e.Sender]; bySeq != nil {
			delete(bySeq, e.Tx.Seq)
		}
	}
}

// Ready returns the current queue, ordered for block inclusion (fee
// descending, seq ascending, arrival ascending).
func (p *Pool) Ready() []*Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.collectLocked(StatusPending)
}

// Future returns the future queue in the same priority order (used
// only for introspection; the producer never selects from it).
func (p *Pool) Future() []*Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.collectLocked(StatusFuture)
}

func (p *Pool) collectLocked(want Status) []*Entry {
	out := make([]*Entry, 0)
	for _, e := range p.byHash {
		if e.Status == want {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return higherPriority(out[i], out[j]) })
	return out
}

// Get returns the entry for hash, if still tracked as active.
func (p *Pool) Get(hash types.Hash) (*Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.byHash[hash]
	return e, ok
}

// Len returns the number of active (pending+future) entries.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byHash)
}

// OnNewBlock removes every mined hash, then re-evaluates each affected
// sender's remaining entries against the new best state, promoting
// futures whose seq is now current.
func (p *Pool) OnNewBlock(mined []types.Hash) {
	p.mu.Lock()
	touched := make(map[types.Address]struct{})
	for _, h := range mined {
		e, ok := p.byHash[h]
		if !ok {
			continue
		}
		e.Status = StatusMined
		p.local.Record(e.Sender, e.Hash, StatusMined, e.Tx)
		delete(p.byHash, h)
		if bySeq := p.bySender[e.Sender]; bySeq != nil {
			delete(bySeq, e.Tx.Seq)
		}
		touched[e.Sender] = struct{}{}
	}
	for sender := range touched {
		p.refreshSenderLocked(sender)
	}
	p.mu.Unlock()
	p.notifier.notify()
}

func (p *Pool) refreshSenderLocked(sender types.Address) {
	bySeq := p.bySender[sender]
	if bySeq == nil {
		return
	}
	accSeq, err := p.seq(sender)
	if err != nil {
		return
	}
	for seq, e := range bySeq {
		switch {
		case seq < accSeq:
			e.Status = StatusDropped
			p.local.Record(e.Sender, e.Hash, StatusDropped, e.Tx)
			delete(p.byHash, e.Hash)
			delete(bySeq, seq)
		case seq == accSeq:
			e.Status = StatusPending
		default:
			e.Status = StatusFuture
		}
	}
}

// OnReorg re-introduces every retracted transaction before removing
// the enacted ones, so a transaction present on both branches (or
// re-ordered between them) is never dropped from the pool across the
// flip.
func (p *Pool) OnReorg(retracted, enacted []*types.Transaction) {
	for _, tx := range retracted {
		if _, err := p.Insert(tx); err != nil {
			continue
		}
	}
	mined := make([]types.Hash, 0, len(enacted))
	for _, tx := range enacted {
		if h, err := tx.Hash(); err == nil {
			mined = append(mined, h)
		}
	}
	p.OnNewBlock(mined)
}

// Cancel marks a still-active entry Canceled, the RPC-driven terminal
// transition (owner withdraws a pending transaction).
func (p *Pool) Cancel(hash types.Hash) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.byHash[hash]
	if !ok {
		return false
	}
	e.Status = StatusCanceled
	p.local.Record(e.Sender, e.Hash, StatusCanceled, e.Tx)
	delete(p.byHash, hash)
	if bySeq := p.bySender[e.Sender]; bySeq != nil {
		delete(bySeq, e.Tx.Seq)
	}
	return true
}

// Invalidate marks a still-active entry Invalid, the transition the
// block producer uses when applying a selected transaction returns an
// error rather than an invoice. A runtime failure that Apply reports
// as a failed invoice does not lead here.
func (p *Pool) Invalidate(hash types.Hash) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.byHash[hash]
	if !ok {
		return false
	}
	e.Status = StatusInvalid
	p.local.Record(e.Sender, e.Hash, StatusInvalid, e.Tx)
	delete(p.byHash, hash)
	if bySeq := p.bySender[e.Sender]; bySeq != nil {
		delete(bySeq, e.Tx.Seq)
	}
	return true
}

// Reject marks hash Rejected without ever having been active (used by
// the importer when basic validation, e.g. a bad signature, fails
// before the entry is ever added).
func (p *Pool) Reject(tx *types.Transaction) {
	sender, err := tx.Signer()
	if err != nil {
		return
	}
	hash, err := tx.Hash()
	if err != nil {
		return
	}
	p.local.Record(sender, hash, StatusRejected, tx)
}
