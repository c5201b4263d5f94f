// Copyright 2026 The CodeChain-Go Authors

package execution

import "errors"

// ErrAssetAlreadyExists is returned minting an asset type that
// collides with one already recorded in the shard (the lock
// condition and metadata happened to hash to an existing scheme).
var ErrAssetAlreadyExists = errors.New("execution: asset type already minted")
