// Copyright 2026 The CodeChain-Go Authors

package snapshot

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/kode-chain/codechain-go/pkg/trie"
	"github.com/kode-chain/codechain-go/pkg/types"
)

// request identifies one block to snapshot.
type request struct {
	blockHash types.Hash
	stateRoot types.Hash
}

// Service is the snapshot writer thread: it wakes on a channel and
// writes trie chunks compressed to disk, off the importer's critical
// path. The request channel holds a single slot and Notify never
// blocks; if a new request arrives while a write is still running, the
// older pending one is superseded, since a later block's snapshot
// subsumes the earlier one's purpose.
type Service struct {
	dir string
	db  *trie.HashDB

	requests chan request
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewService builds a Service writing snapshots under dir.
func NewService(dir string, db *trie.HashDB) *Service {
	return &Service{
		dir:      dir,
		db:       db,
		requests: make(chan request, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the writer loop until ctx is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop signals the loop to exit and waits for it.
func (s *Service) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// Notify asks the service to snapshot the state at blockHash. It never
// blocks: a still-pending older request is dropped in favour of this
// one.
func (s *Service) Notify(blockHash, stateRoot types.Hash) {
	req := request{blockHash: blockHash, stateRoot: stateRoot}
	for {
		select {
		case s.requests <- req:
			return
		default:
		}
		select {
		case <-s.requests:
		default:
		}
	}
}

func (s *Service) run(ctx context.Context) {
	defer close(s.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case req := <-s.requests:
			snapDir, err := Write(s.dir, req.blockHash, s.db, req.stateRoot)
			if err != nil {
				log.Error().Err(err).Str("block", req.blockHash.String()).Msg("snapshot: write failed")
				continue
			}
			log.Info().Str("block", req.blockHash.String()).Str("dir", snapDir).Msg("snapshot: written")
		}
	}
}
