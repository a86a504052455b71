package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/artledger/nft-registry-backend/interfaces"
	"github.com/artledger/nft-registry-backend/ledgerstate"
)

// Archiver ships committed ledger snapshots to a storage backend. It is
// installed as the store's commit hook; archival is best effort and never
// blocks or fails a commit.
type Archiver struct {
	backend interfaces.StorageBackend
	timeout time.Duration
	log     *slog.Logger
}

// NewArchiver creates an archiver writing to backend. timeout bounds each
// archival attempt.
func NewArchiver(backend interfaces.StorageBackend, timeout time.Duration, log *slog.Logger) *Archiver {
	return &Archiver{backend: backend, timeout: timeout, log: log}
}

// CommitHook returns the function to install with SetCommitHook. The hook
// runs under the store lock, so it only serializes there; the upload happens
// on a separate goroutine.
func (a *Archiver) CommitHook() func(*ledgerstate.State) {
	return func(s *ledgerstate.State) {
		data, err := json.Marshal(s)
		if err != nil {
			a.log.Warn("Snapshot archival failed", "err", err)
			return
		}
		go a.ship(data)
	}
}

func (a *Archiver) ship(data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	id, err := a.backend.Store(ctx, data, interfaces.SnapshotContent)
	if err != nil {
		a.log.Warn("Snapshot archival failed", "err", err)
		return
	}

	a.log.Debug("Archived ledger snapshot",
		slog.String("content_id", fmt.Sprintf("%x", id[:8])),
		slog.Int("size", len(data)))
}
