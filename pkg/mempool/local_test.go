// Copyright 2026 The CodeChain-Go Authors

package mempool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kode-chain/codechain-go/pkg/types"
)

func TestLocalParcelsEvictsFIFOBeyondMaxOld(t *testing.T) {
	owner := types.Address{0x1}
	lp := NewLocalParcels(2)

	lp.Record(owner, types.Hash{1}, StatusMined, nil)
	lp.Record(owner, types.Hash{2}, StatusMined, nil)
	lp.Record(owner, types.Hash{3}, StatusMined, nil)

	records := lp.For(owner)
	require.Len(t, records, 2)
	require.Equal(t, types.Hash{2}, records[0].Hash)
	require.Equal(t, types.Hash{3}, records[1].Hash)
}
