package storage

import (
	"context"

	"github.com/poiesic/fileoracle/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// FindSimilar finds chunks similar to the given vector.
	// Returns chunks with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ChunkMatch, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository.
	Close() error
}

// ChunkRepository provides operations for managing indexed text chunks.
type ChunkRepository interface {
	Repository

	// AddChunks stores chunks, replacing any chunk with the same ID.
	// Chunks with ID=0 get a content-based ID from core.ChunkID.
	// InsertedAt is preserved for replaced chunks and set for new ones.
	// Returns ErrInvalidChunk-wrapping errors for chunks that fail validation.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// UpdateChunks updates existing chunks.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// DeleteChunks removes chunks by their IDs.
	// Returns ErrNotFound if any chunk doesn't exist.
	DeleteChunks(ctx context.Context, ids ...core.ID) error

	// DeleteChunksBySource removes every chunk extracted from source.
	// Returns the number of chunks removed.
	DeleteChunksBySource(ctx context.Context, source string) (int, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunks retrieves multiple chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error)

	// GetChunksBySource retrieves the chunks of source ordered by Ordinal.
	GetChunksBySource(ctx context.Context, source string) ([]*core.Chunk, error)

	// ListChunks retrieves every stored chunk.
	ListChunks(ctx context.Context) ([]*core.Chunk, error)

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)
}

// SourceRepository records what has been indexed for each source so unchanged
// files can be skipped.
type SourceRepository interface {
	// SaveSource persists the state of a source, replacing any previous state.
	SaveSource(ctx context.Context, state *core.SourceState) error

	// LoadSource retrieves the state of a source.
	// Returns nil, nil if the source has never been indexed.
	LoadSource(ctx context.Context, source string) (*core.SourceState, error)

	// DeleteSource forgets a source. Missing sources are not an error.
	DeleteSource(ctx context.Context, source string) error

	// ListSources returns every recorded source ordered by path.
	ListSources(ctx context.Context) ([]*core.SourceState, error)
}
