package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/fileoracle/ai"
	"github.com/poiesic/fileoracle/core"
	"github.com/poiesic/fileoracle/storage"
)

type Config struct {
	// BatchSize is the number of chunks embedded per request
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

func (c *Config) policy() RetryPolicy {
	return RetryPolicy{MaxAttempts: c.MaxRetries, BaseDelay: c.RetryDelay, MaxDelay: 30 * time.Second}
}

// Reembedder rebuilds the vector of every chunk in a repository.
type Reembedder struct {
	repo      storage.ChunkRepository
	config    *Config
	out       io.Writer
	reporter  Reporter
	processor *BatchProcessor
	iterator  *ChunkIterator
}

// NewReembedder creates a Reembedder. Summary lines go to out; a nil
// reporter falls back to a ProgressTracker writing to out.
func NewReembedder(repo storage.ChunkRepository, embedder ai.Embedder, config *Config, out io.Writer, reporter Reporter) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}
	if out == nil {
		out = io.Discard
	}
	if reporter == nil {
		reporter = NewProgressTracker(out, "chunks", config.ReportInterval)
	}

	return &Reembedder{
		repo:      repo,
		config:    config,
		out:       out,
		reporter:  reporter,
		processor: NewBatchProcessor(repo, embedder, config.policy()),
		iterator:  NewChunkIterator(repo, config.BatchSize),
	}
}

// Run re-embeds every chunk and returns the number processed.
func (r *Reembedder) Run(ctx context.Context) (int, error) {
	total, err := r.repo.CountChunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.out, "No chunks found in index (0 chunks)\n")
		return 0, nil
	}

	fmt.Fprintf(r.out, "Starting reembedding of %d chunks (batch size: %d)\n", total, r.config.BatchSize)

	start := time.Now()
	r.reporter.Start(total)
	processed := 0
	err = r.iterator.ForEach(ctx, func(chunks []*core.Chunk) error {
		if err := r.processor.Process(ctx, chunks); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		processed += len(chunks)
		r.reporter.Update(processed)
		return nil
	})
	if err != nil {
		return processed, err
	}
	r.reporter.Finish()

	elapsed := time.Since(start)
	fmt.Fprintf(r.out, "Reembedding complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		processed, elapsed.Round(time.Second), float64(processed)/elapsed.Seconds())
	return processed, nil
}
