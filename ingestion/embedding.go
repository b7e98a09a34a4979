package ingestion

import (
	"context"
	"log/slog"

	"github.com/poiesic/fileoracle/ai"
	"github.com/poiesic/fileoracle/core"
	"github.com/poiesic/fileoracle/reembed"
)

// chunkEmbedder fills in chunk vectors, one embedding request per batch.
type chunkEmbedder struct {
	embedder  ai.Embedder
	policy    reembed.RetryPolicy
	batchSize int
	logger    *slog.Logger
}

func (ce *chunkEmbedder) embed(ctx context.Context, chunks []*core.Chunk) error {
	for start := 0; start < len(chunks); start += ce.batchSize {
		end := min(start+ce.batchSize, len(chunks))
		ce.logger.Debug("embedding chunks", "from", start, "to", end, "total", len(chunks))
		if err := reembed.EmbedChunks(ctx, ce.embedder, ce.policy, chunks[start:end]); err != nil {
			return err
		}
	}
	return nil
}
