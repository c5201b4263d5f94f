// Copyright 2026 The CodeChain-Go Authors

package tendermint

import (
	cmtbits "github.com/cometbft/cometbft/libs/bits"
)

// Bitset records which validator indices have signed a vote: votes are
// aggregated into a bitset whose length matches the validator count.
// Backed by CometBFT's own BitArray rather than a hand-rolled lane
// encoding: CometBFT is literally a Tendermint implementation, and its
// bits package is the same fixed-width signer-set bitmap a precommit
// aggregation needs here. The wire byte layout (Bytes/DecodeBitset) is
// kept independent of BitArray's internal packing so a seal encoded by
// one version round-trips through any future upgrade of the library.
type Bitset struct {
	arr *cmtbits.BitArray
}

// NewBitset allocates a bitset wide enough for n validators.
func NewBitset(n int) *Bitset {
	return &Bitset{arr: cmtbits.NewBitArray(n)}
}

// Set marks index i as signed.
func (b *Bitset) Set(i int) {
	if i < 0 || i >= b.arr.Size() {
		return
	}
	b.arr.SetIndex(i, true)
}

// IsSet reports whether index i has signed.
func (b *Bitset) IsSet(i int) bool {
	if i < 0 || i >= b.arr.Size() {
		return false
	}
	return b.arr.GetIndex(i)
}

// Popcount counts set bits across the whole set.
func (b *Bitset) Popcount() int {
	count := 0
	for i := 0; i < b.arr.Size(); i++ {
		if b.arr.GetIndex(i) {
			count++
		}
	}
	return count
}

// Len is the number of validator slots this bitset covers.
func (b *Bitset) Len() int { return b.arr.Size() }

// Bytes returns a little-endian-bit-per-lane encoding of the set, the
// form a TendermintSeal's PrecommitBitset field carries on the wire;
// independent of BitArray's own (JSON-oriented) serialization.
func (b *Bitset) Bytes() []byte {
	raw := make([]byte, (b.arr.Size()+7)/8)
	for i := 0; i < b.arr.Size(); i++ {
		if b.arr.GetIndex(i) {
			raw[i/8] |= 1 << uint(i%8)
		}
	}
	return raw
}

// DecodeBitset rebuilds a Bitset of n validators from its wire bytes.
func DecodeBitset(raw []byte, n int) *Bitset {
	b := NewBitset(n)
	for i := 0; i < n; i++ {
		if i/8 < len(raw) && raw[i/8]&(1<<uint(i%8)) != 0 {
			b.arr.SetIndex(i, true)
		}
	}
	return b
}

// CheckEnoughVotes is the supermajority predicate:
// 3*popcount(bitset) > 2*n.
func CheckEnoughVotes(b *Bitset, n int) bool {
	if n == 0 {
		return false
	}
	return 3*b.Popcount() > 2*n
}
