package storage

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artledger/nft-registry-backend/interfaces"
	"github.com/artledger/nft-registry-backend/ledgerstate"
)

func TestFileBackendRoundTrip(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), slog.Default())
	require.NoError(t, err)

	ctx := context.Background()
	payload := []byte(`{"name":"composition no. 7"}`)

	id, err := backend.Store(ctx, payload, interfaces.MetadataContent)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ContentID(sha256.Sum256(payload)), id)

	got, err := backend.Fetch(ctx, id, interfaces.MetadataContent)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	assert.True(t, backend.Available(ctx))
}

func TestFileBackendNotFound(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), slog.Default())
	require.NoError(t, err)

	_, err = backend.Fetch(context.Background(), interfaces.ContentID{0x01}, interfaces.SnapshotContent)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
}

func TestFileBackendKindsAreSeparate(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), slog.Default())
	require.NoError(t, err)

	ctx := context.Background()
	payload := []byte("blob")

	id, err := backend.Store(ctx, payload, interfaces.SnapshotContent)
	require.NoError(t, err)

	// Same id, different kind: separate namespace.
	_, err = backend.Fetch(ctx, id, interfaces.MetadataContent)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
}

// stubBackend is an in-memory backend with switchable availability.
type stubBackend struct {
	name      string
	available bool
	mu        sync.Mutex
	blobs     map[interfaces.ContentID][]byte
	storeErr  error
}

func newStubBackend(name string, available bool) *stubBackend {
	return &stubBackend{name: name, available: available, blobs: make(map[interfaces.ContentID][]byte)}
}

func (s *stubBackend) Fetch(ctx context.Context, id interfaces.ContentID, kind interfaces.ContentKind) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[id]
	if !ok {
		return nil, interfaces.ErrContentNotFound
	}
	return data, nil
}

func (s *stubBackend) Store(ctx context.Context, data []byte, kind interfaces.ContentKind) (interfaces.ContentID, error) {
	id := interfaces.ContentID(sha256.Sum256(data))
	if s.storeErr != nil {
		return id, s.storeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[id] = data
	return id, nil
}

func (s *stubBackend) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

func (s *stubBackend) has(id interfaces.ContentID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[id]
	return ok
}

func (s *stubBackend) Available(ctx context.Context) bool { return s.available }
func (s *stubBackend) Name() string                       { return s.name }
func (s *stubBackend) LocationURI() string                { return "stub://" + s.name }

func TestMultiBackendReplicatesStores(t *testing.T) {
	first := newStubBackend("first", true)
	second := newStubBackend("second", true)
	multi := NewMultiBackend([]interfaces.StorageBackend{first, second}, slog.Default())

	ctx := context.Background()
	id, err := multi.Store(ctx, []byte("replicated"), interfaces.SnapshotContent)
	require.NoError(t, err)

	assert.True(t, first.has(id))
	assert.True(t, second.has(id))
}

func TestMultiBackendFetchFallsBack(t *testing.T) {
	down := newStubBackend("down", false)
	up := newStubBackend("up", true)
	multi := NewMultiBackend([]interfaces.StorageBackend{down, up}, slog.Default())

	ctx := context.Background()
	id, err := up.Store(ctx, []byte("only here"), interfaces.MetadataContent)
	require.NoError(t, err)

	got, err := multi.Fetch(ctx, id, interfaces.MetadataContent)
	require.NoError(t, err)
	assert.Equal(t, []byte("only here"), got)
}

func TestMultiBackendAllUnavailable(t *testing.T) {
	multi := NewMultiBackend([]interfaces.StorageBackend{newStubBackend("down", false)}, slog.Default())

	_, err := multi.Fetch(context.Background(), interfaces.ContentID{}, interfaces.SnapshotContent)
	assert.Error(t, err)

	assert.False(t, multi.Available(context.Background()))
}

func TestFactoryFileScheme(t *testing.T) {
	factory := NewFactory(slog.Default())

	dir := t.TempDir()
	backend, err := factory.StorageBackendFor(interfaces.StorageBackendLocation("file://" + dir))
	require.NoError(t, err)
	assert.True(t, backend.Available(context.Background()))
}

func TestFactoryRejectsUnknownScheme(t *testing.T) {
	factory := NewFactory(slog.Default())

	_, err := factory.StorageBackendFor("gopher://example.com")
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}

func TestFactoryMultiBackendSkipsInvalid(t *testing.T) {
	factory := NewFactory(slog.Default())

	backend, err := factory.CreateMultiBackend([]interfaces.StorageBackendLocation{
		"gopher://bad",
		interfaces.StorageBackendLocation("file://" + t.TempDir()),
	})
	require.NoError(t, err)
	assert.True(t, backend.Available(context.Background()))

	_, err = factory.CreateMultiBackend([]interfaces.StorageBackendLocation{"gopher://bad"})
	assert.Error(t, err)
}

func TestArchiverShipsCommittedSnapshots(t *testing.T) {
	backend := newStubBackend("archive", true)
	archiver := NewArchiver(backend, time.Second, slog.Default())

	store := ledgerstate.NewMemoryStore()
	store.SetCommitHook(archiver.CommitHook())

	require.NoError(t, store.Update(func(s *ledgerstate.State) error {
		s.TokenPointer = 7
		return nil
	}))

	// Archival runs on its own goroutine.
	require.Eventually(t, func() bool { return backend.count() == 1 }, time.Second, 10*time.Millisecond)
}
