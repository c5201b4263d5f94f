// Copyright 2026 The CodeChain-Go Authors

package mempool

// Status is a transaction's place in the per-entry status machine:
// every entry starts Pending (current queue) or Future (future
// queue) and moves to exactly one terminal state.
type Status int

const (
	StatusPending Status = iota
	StatusFuture
	StatusMined
	StatusDropped
	StatusReplaced
	StatusRejected
	StatusInvalid
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFuture:
		return "future"
	case StatusMined:
		return "mined"
	case StatusDropped:
		return "dropped"
	case StatusReplaced:
		return "replaced"
	case StatusRejected:
		return "rejected"
	case StatusInvalid:
		return "invalid"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is one of the machine's terminal states;
// only terminal entries are ever handed to the local-parcels list.
func (s Status) Terminal() bool {
	switch s {
	case StatusMined, StatusDropped, StatusReplaced, StatusRejected, StatusInvalid, StatusCanceled:
		return true
	default:
		return false
	}
}
