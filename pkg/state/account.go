// Copyright 2026 The CodeChain-Go Authors

package state

import (
	"math/big"

	"github.com/kode-chain/codechain-go/pkg/rlp"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// Account is the top-level per-address entry: balance and the next
// expected transaction sequence number. An account with zero balance
// and zero seq is pruned from the trie on commit (see
// TopLevelState.Commit); a RegularAccount delegation pointing at this
// address does not prevent that, since the delegation is tracked
// separately with no back-reference here.
type Account struct {
	Seq     uint64
	Balance *big.Int
}

func NewAccount() *Account {
	return &Account{Balance: big.NewInt(0)}
}

func (a *Account) clone() *Account {
	return &Account{Seq: a.Seq, Balance: new(big.Int).Set(a.Balance)}
}

func (a *Account) rlpBytes() ([]byte, error) { return rlp.Encode(a) }

func decodeAccount(data []byte) (*Account, error) {
	a := &Account{Balance: big.NewInt(0)}
	if err := rlp.Decode(data, a); err != nil {
		return nil, err
	}
	if a.Balance == nil {
		a.Balance = big.NewInt(0)
	}
	return a, nil
}

// RegularAccount lets an owner address delegate signing to a separate
// regular key.
type RegularAccount struct {
	Owner types.Address
}

func (r *RegularAccount) clone() *RegularAccount {
	c := *r
	return &c
}

func (r *RegularAccount) rlpBytes() ([]byte, error) { return rlp.Encode(r) }

func decodeRegularAccount(data []byte) (*RegularAccount, error) {
	r := &RegularAccount{}
	if err := rlp.Decode(data, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Metadata is the single chain-wide record tracking the number of
// shards created so far, assigned fresh ids as CreateShard actions
// land.
type Metadata struct {
	NumberOfShards uint16
}

func (m *Metadata) clone() *Metadata {
	c := *m
	return &c
}

func (m *Metadata) rlpBytes() ([]byte, error) { return rlp.Encode(m) }

func decodeMetadata(data []byte) (*Metadata, error) {
	m := &Metadata{}
	if err := rlp.Decode(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Shard is the root of one shard's own sub-trie (asset schemes and
// owned assets live below it), plus the owner set allowed to manage
// it.
type Shard struct {
	Root  types.Hash
	Owner types.Address
	Users []types.Address
}

func (s *Shard) clone() *Shard {
	c := &Shard{Root: s.Root, Owner: s.Owner, Users: make([]types.Address, len(s.Users))}
	copy(c.Users, s.Users)
	return c
}

func (s *Shard) rlpBytes() ([]byte, error) { return rlp.Encode(s) }

func decodeShard(data []byte) (*Shard, error) {
	s := &Shard{}
	if err := rlp.Decode(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

// ActionData is an opaque, handler-owned blob keyed by an arbitrary
// key the action handler chooses (e.g. a stake table entry).
type ActionData struct {
	Value []byte
}

func (a *ActionData) clone() *ActionData {
	v := make([]byte, len(a.Value))
	copy(v, a.Value)
	return &ActionData{Value: v}
}

func (a *ActionData) rlpBytes() ([]byte, error) { return rlp.Encode(a) }

func decodeActionData(data []byte) (*ActionData, error) {
	a := &ActionData{}
	if err := rlp.Decode(data, a); err != nil {
		return nil, err
	}
	return a, nil
}

// AssetScheme describes one asset type minted under a shard.
type AssetScheme struct {
	Metadata  string
	Amount    uint64
	Registrar types.Address
	Approver  types.Address
	Pool      []byte
}

func (s *AssetScheme) clone() *AssetScheme {
	c := *s
	c.Pool = append([]byte(nil), s.Pool...)
	return &c
}

func (s *AssetScheme) rlpBytes() ([]byte, error) { return rlp.Encode(s) }

func decodeAssetScheme(data []byte) (*AssetScheme, error) {
	s := &AssetScheme{}
	if err := rlp.Decode(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

// OwnedAsset is a single unspent asset output tracked inside a shard.
type OwnedAsset struct {
	AssetType  types.Hash
	Quantity   uint64
	LockScript []byte
}

func (o *OwnedAsset) clone() *OwnedAsset {
	c := *o
	c.LockScript = append([]byte(nil), o.LockScript...)
	return &c
}

func (o *OwnedAsset) rlpBytes() ([]byte, error) { return rlp.Encode(o) }

func decodeOwnedAsset(data []byte) (*OwnedAsset, error) {
	o := &OwnedAsset{}
	if err := rlp.Decode(data, o); err != nil {
		return nil, err
	}
	return o, nil
}
