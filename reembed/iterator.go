package reembed

import (
	"context"

	"github.com/poiesic/fileoracle/core"
	"github.com/poiesic/fileoracle/storage"
)

// DefaultBatchSize is the number of chunks handed to the callback at a time.
const DefaultBatchSize = 100

// ChunkIterator walks every stored chunk in fixed-size batches.
type ChunkIterator struct {
	repo      storage.ChunkRepository
	batchSize int
}

func NewChunkIterator(repo storage.ChunkRepository, batchSize int) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ChunkIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn with successive batches. It stops at the first error
// returned by fn or when ctx is done.
func (it *ChunkIterator) ForEach(ctx context.Context, fn func([]*core.Chunk) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	chunks, err := it.repo.ListChunks(ctx)
	if err != nil {
		return err
	}

	for start := 0; start < len(chunks); start += it.batchSize {
		end := min(start+it.batchSize, len(chunks))
		if err := fn(chunks[start:end]); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
