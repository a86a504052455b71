package ledgerstate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store is the mutation boundary around the ledger state. Implementations
// must guarantee that Update is all-or-nothing and that concurrent
// operations are serialized.
type Store interface {
	// View runs fn with read access to the current state. fn must not
	// mutate the state or retain references past its return.
	View(fn func(*State) error) error

	// Update runs fn against a copy of the state and commits the copy only
	// if fn returns nil. A non-nil error discards every change fn made.
	Update(fn func(*State) error) error
}

// MemoryStore keeps state in process memory. Fresh instances back unit
// tests; FileStore builds on it for durability.
type MemoryStore struct {
	mu    sync.RWMutex
	state *State

	// persist, when set, must succeed before a commit becomes visible.
	persist func(*State) error

	// onCommit, when set, runs after every successful commit. Best effort;
	// used for snapshot archival.
	onCommit func(*State)
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: NewState()}
}

// SetCommitHook installs a function invoked with the new state after every
// successful commit. The hook runs under the store lock and must only read.
func (s *MemoryStore) SetCommitHook(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCommit = fn
}

// View implements Store.
func (s *MemoryStore) View(fn func(*State) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

// Update implements Store. The mutation runs against a deep copy; the copy
// is persisted (if a persist function is configured) and swapped in only
// when the mutation succeeds.
func (s *MemoryStore) Update(fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.state.Clone()
	if err := fn(draft); err != nil {
		return err
	}

	if s.persist != nil {
		if err := s.persist(draft); err != nil {
			return fmt.Errorf("persisting update: %w", err)
		}
	}

	s.state = draft
	if s.onCommit != nil {
		s.onCommit(s.state)
	}
	return nil
}

// FileStore is a MemoryStore whose committed state is mirrored to a JSON
// file. The file is rewritten on every commit via a temp file and rename, so
// a crash mid-write never corrupts the previous snapshot, and every read
// after reopen reflects the latest committed write.
type FileStore struct {
	*MemoryStore
	path string
	log  *slog.Logger
}

// NewFileStore opens or creates a durable store at path.
func NewFileStore(path string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	state := NewState()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, state); err != nil {
			return nil, fmt.Errorf("failed to decode state file %s: %w", path, err)
		}
		state.normalize()
		log.Info("Loaded ledger state",
			slog.String("path", path),
			slog.Uint64("totalSupply", state.TotalSupply),
			slog.Uint64("tokenPointer", uint64(state.TokenPointer)))
	case os.IsNotExist(err):
		log.Info("Initializing fresh ledger state", slog.String("path", path))
	default:
		return nil, fmt.Errorf("failed to read state file %s: %w", path, err)
	}

	fs := &FileStore{
		MemoryStore: &MemoryStore{state: state},
		path:        path,
		log:         log,
	}
	fs.MemoryStore.persist = fs.writeSnapshot
	return fs, nil
}

func (fs *FileStore) writeSnapshot(state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	fs.log.Debug("Persisted ledger state",
		slog.String("path", fs.path),
		slog.Int("size", len(data)))
	return nil
}
