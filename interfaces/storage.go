package interfaces

import (
	"context"
	"errors"
)

// ContentID uniquely identifies stored content by its SHA-256 hash.
type ContentID [32]byte

// ContentKind categorizes stored blobs.
type ContentKind int

const (
	// SnapshotContent is a serialized ledger state snapshot.
	SnapshotContent ContentKind = iota

	// MetadataContent is a token metadata document, pinned before minting.
	MetadataContent
)

// StorageBackendLocation is a URI identifying a storage backend, e.g.
// file:///var/lib/artledger or s3://bucket/prefix?region=us-east-1.
type StorageBackendLocation string

// Storage error conditions.
var (
	// ErrContentNotFound is returned when the requested content does not
	// exist in the backend.
	ErrContentNotFound = errors.New("content not found")

	// ErrBackendUnavailable is returned when the backend cannot be reached.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned for malformed backend URIs.
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

// StorageBackend stores and retrieves content-addressed blobs: ledger
// snapshots and token metadata documents.
type StorageBackend interface {
	// Fetch retrieves content by its identifier and kind.
	Fetch(ctx context.Context, id ContentID, kind ContentKind) ([]byte, error)

	// Store saves data and returns its content identifier.
	Store(ctx context.Context, data []byte, kind ContentKind) (ContentID, error)

	// Available checks whether the backend is currently reachable.
	Available(ctx context.Context) bool

	// Name returns a unique identifier for this backend.
	Name() string

	// LocationURI returns the URI this backend was created from.
	LocationURI() string
}

// StorageBackendFactory creates storage backends from location URIs.
type StorageBackendFactory interface {
	// StorageBackendFor creates a backend for a single location URI.
	StorageBackendFor(location StorageBackendLocation) (StorageBackend, error)

	// CreateMultiBackend aggregates several locations into one replicating
	// backend.
	CreateMultiBackend(locations []StorageBackendLocation) (StorageBackend, error)
}
