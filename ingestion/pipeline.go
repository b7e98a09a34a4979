package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/fileoracle/ai"
	"github.com/poiesic/fileoracle/core"
	"github.com/poiesic/fileoracle/extract"
	"github.com/poiesic/fileoracle/reembed"
	"github.com/poiesic/fileoracle/storage"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
	DefaultBatchSize    = 64
)

// Pipeline orchestrates extraction, chunking, embedding and storage of
// documents. Files are processed concurrently on a worker pool.
type Pipeline struct {
	chunks       storage.ChunkRepository
	sources      storage.SourceRepository
	pool         *ants.Pool
	proc         *processor
	chunkSize    int
	chunkOverlap int
	batchSize    int
	policy       reembed.RetryPolicy
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithChunking sets the chunk size and overlap in characters.
// Default is 1000 with an overlap of 100.
func WithChunking(size, overlap int) Option {
	return func(p *Pipeline) error {
		if size < 1 || overlap < 0 || overlap >= size {
			return fmt.Errorf("%w: size %d, overlap %d", ErrInvalidChunking, size, overlap)
		}
		p.chunkSize = size
		p.chunkOverlap = overlap
		return nil
	}
}

// WithBatchSize sets how many chunks go into one embedding request.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = DefaultBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// WithRetry sets the retry policy for embedding requests.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts < 1 {
			return reembed.ErrInvalidMaxAttempts
		}
		p.policy = reembed.RetryPolicy{MaxAttempts: maxAttempts, BaseDelay: baseDelay, MaxDelay: 30 * time.Second}
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	chunks storage.ChunkRepository,
	sources storage.SourceRepository,
	embedder ai.Embedder,
	extractor extract.Extractor,
	opts ...Option,
) (*Pipeline, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if sources == nil {
		return nil, ErrSourceRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		chunks:       chunks,
		sources:      sources,
		pool:         pool,
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		batchSize:    DefaultBatchSize,
		policy:       reembed.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second},
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	// Processors are built after options so they see the final configuration
	p.proc = &processor{
		chunks:    chunks,
		sources:   sources,
		extractor: extractor,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(p.chunkSize),
			textsplitter.WithChunkOverlap(p.chunkOverlap),
		),
		embedder: &chunkEmbedder{
			embedder:  embedder,
			policy:    p.policy,
			batchSize: p.batchSize,
			logger:    p.logger,
		},
		logger: p.logger,
	}
	return p, nil
}

// IngestOptions holds optional parameters for file ingestion.
type IngestOptions struct {
	// Force re-indexes files even when they look unchanged.
	Force bool

	// Progress is called once per file as it completes. It may be called
	// from several goroutines, but never concurrently.
	Progress func(FileResult)
}

// Report summarizes a file ingestion run.
type Report struct {
	Results     []FileResult
	Indexed     int
	Unchanged   int
	Unsupported int
	Empty       int
	Failed      int
	Chunks      int
}

func (r *Report) add(result FileResult) {
	r.Results = append(r.Results, result)
	switch result.Status {
	case StatusIndexed:
		r.Indexed++
		r.Chunks += result.Chunks
	case StatusUnchanged:
		r.Unchanged++
	case StatusUnsupported:
		r.Unsupported++
	case StatusEmpty:
		r.Empty++
	case StatusFailed:
		r.Failed++
	}
}

// IngestFiles indexes every path. Per-file failures are recorded in the
// report rather than aborting the run; only cancellation returns an error.
func (p *Pipeline) IngestFiles(ctx context.Context, paths []string, opts *IngestOptions) (*Report, error) {
	if opts == nil {
		opts = &IngestOptions{}
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		report = &Report{}
	)
	collect := func(result FileResult) {
		mu.Lock()
		defer mu.Unlock()
		report.add(result)
		if result.Status == StatusFailed {
			p.logger.Warn("failed to index file", "path", result.Path, "err", result.Err)
		}
		if opts.Progress != nil {
			opts.Progress(result)
		}
	}

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			collect(p.proc.processFile(ctx, path, opts.Force))
		}
		if err := p.pool.Submit(task); err != nil {
			p.logger.Warn("worker pool rejected task, running inline", "err", err)
			task()
		}
	}
	wg.Wait()

	p.logger.Info("ingestion complete",
		"files", len(report.Results), "indexed", report.Indexed, "unchanged", report.Unchanged,
		"unsupported", report.Unsupported, "failed", report.Failed, "chunks", report.Chunks)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// IngestFile indexes a single path synchronously.
func (p *Pipeline) IngestFile(ctx context.Context, path string, force bool) FileResult {
	return p.proc.processFile(ctx, path, force)
}

// IngestText indexes text under the given source label, replacing any
// chunks previously stored for it. It returns the number of chunks stored.
func (p *Pipeline) IngestText(ctx context.Context, source, text string) (int, error) {
	if source == "" {
		return 0, core.ErrEmptySource
	}
	n, err := p.proc.store(ctx, source, text)
	if err != nil {
		return 0, err
	}
	state := &core.SourceState{Source: source, Size: int64(len(text)), Chunks: n}
	if err := p.sources.SaveSource(ctx, state); err != nil {
		return n, err
	}
	return n, nil
}

// Remove drops every chunk and the recorded state of source.
func (p *Pipeline) Remove(ctx context.Context, source string) error {
	removed, err := p.chunks.DeleteChunksBySource(ctx, source)
	if err != nil {
		return err
	}
	if err := p.sources.DeleteSource(ctx, source); err != nil {
		return err
	}
	p.logger.Debug("removed source", "source", source, "chunks", removed)
	return nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
