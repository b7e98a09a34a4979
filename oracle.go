// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package fileoracle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/fileoracle/ai"
	"github.com/poiesic/fileoracle/ai/openai"
	"github.com/poiesic/fileoracle/answer"
	"github.com/poiesic/fileoracle/config"
	"github.com/poiesic/fileoracle/core"
	"github.com/poiesic/fileoracle/extract"
	"github.com/poiesic/fileoracle/filesearch"
	"github.com/poiesic/fileoracle/ingestion"
	"github.com/poiesic/fileoracle/reembed"
	"github.com/poiesic/fileoracle/search"
	"github.com/poiesic/fileoracle/storage"
	"github.com/poiesic/fileoracle/storage/badger"
)

// NoRelevantContent is the answer text used when nothing could be found.
const NoRelevantContent = "No relevant content found."

// Oracle wires search, indexing and answering over one retrieval index.
type Oracle struct {
	config     *config.AppConfig
	backend    *badger.Backend
	chunks     storage.ChunkRepository
	sources    storage.SourceRepository
	provider   ai.AIProvider
	extractor  extract.Extractor
	agent      *search.Agent
	pipeline   *ingestion.Pipeline
	answerer   *answer.Answerer
	monitor    search.SearchMonitor
	candidates int
	logger     *slog.Logger
}

// Option configures an Oracle.
type Option func(*oracleOptions)

type oracleOptions struct {
	provider  ai.AIProvider
	searcher  filesearch.Searcher
	extractor extract.Extractor
	monitor   search.SearchMonitor
	inMemory  bool
	logger    *slog.Logger
}

// WithProvider replaces the OpenAI-compatible provider built from the config.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *oracleOptions) {
		o.provider = provider
	}
}

// WithSearcher replaces the ripgrep-backed file searcher.
func WithSearcher(searcher filesearch.Searcher) Option {
	return func(o *oracleOptions) {
		o.searcher = searcher
	}
}

// WithExtractor replaces the default text extractor.
func WithExtractor(extractor extract.Extractor) Option {
	return func(o *oracleOptions) {
		o.extractor = extractor
	}
}

// WithMonitor observes every search the Oracle runs.
func WithMonitor(monitor search.SearchMonitor) Option {
	return func(o *oracleOptions) {
		o.monitor = monitor
	}
}

// WithInMemoryIndex keeps the index in memory instead of at the configured path.
func WithInMemoryIndex() Option {
	return func(o *oracleOptions) {
		o.inMemory = true
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *oracleOptions) {
		o.logger = logger
	}
}

// Open validates cfg, opens the index and builds every component.
func Open(cfg *config.AppConfig, opts ...Option) (*Oracle, error) {
	options := &oracleOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	logger := options.logger

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	limits, err := cfg.Limits()
	if err != nil {
		return nil, err
	}

	backend, err := badger.OpenBackend(cfg.Index.Path, options.inMemory)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}

	o := &Oracle{
		config:     cfg,
		backend:    backend,
		chunks:     badger.NewChunkRepository(backend),
		sources:    badger.NewSourceRepository(backend),
		provider:   options.provider,
		extractor:  options.extractor,
		monitor:    options.monitor,
		candidates: cfg.Index.Candidates,
		logger:     logger.With("component", "oracle"),
	}
	if err := o.build(cfg, limits, options); err != nil {
		o.Close()
		return nil, err
	}
	return o, nil
}

func (o *Oracle) build(cfg *config.AppConfig, limits filesearch.Limits, options *oracleOptions) error {
	logger := options.logger
	if o.provider == nil {
		provider, err := openai.NewProvider(cfg.AIConfig())
		if err != nil {
			return fmt.Errorf("creating AI provider: %w", err)
		}
		o.provider = provider
	}
	if o.extractor == nil {
		extractOpts := []extract.Option{extract.WithLogger(logger)}
		if creds := cfg.Google.CredentialsFile; creds != "" {
			client, err := extract.GoogleHTTPClient(context.Background(), creds, cfg.Google.TokenFile, logger)
			switch {
			case errors.Is(err, extract.ErrGoogleLoginRequired):
				logger.Warn("google credentials configured but not logged in, private documents unavailable", "err", err)
			case err != nil:
				return err
			default:
				extractOpts = append(extractOpts, extract.WithGoogleClient(client))
			}
		}
		extractor, err := extract.NewExtractor(extractOpts...)
		if err != nil {
			return err
		}
		o.extractor = extractor
	}
	searcher := options.searcher
	if searcher == nil {
		searcher = filesearch.New(limits, logger)
	}

	agentOpts := []search.Option{
		search.WithLogger(logger),
		search.WithLimits(limits),
		search.WithMaxAttempts(cfg.Search.MaxAttempts),
		search.WithNameThreshold(cfg.Search.NameThreshold),
		search.WithMinMatches(cfg.Search.MinMatches),
		search.WithNumKeywords(cfg.Search.NumKeywords),
		search.WithMaxDepth(cfg.Search.MaxDepth),
		search.WithMaxResults(cfg.Search.MaxResults),
		search.WithCallTimeout(cfg.Search.CallTimeout),
	}
	pipelineOpts := []ingestion.Option{
		ingestion.WithLogger(logger),
		ingestion.WithChunking(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap),
		ingestion.WithBatchSize(cfg.Index.BatchSize),
	}
	if cfg.Search.PoolSize > 0 {
		agentOpts = append(agentOpts, search.WithPoolSize(cfg.Search.PoolSize))
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(cfg.Search.PoolSize))
	}

	agent, err := search.NewAgent(cfg.Roots, o.provider.Completer(), searcher, agentOpts...)
	if err != nil {
		return fmt.Errorf("creating search agent: %w", err)
	}
	o.agent = agent

	pipeline, err := ingestion.NewPipeline(o.chunks, o.sources, o.provider.Embedder(), o.extractor, pipelineOpts...)
	if err != nil {
		return fmt.Errorf("creating ingestion pipeline: %w", err)
	}
	o.pipeline = pipeline

	answerer, err := answer.NewAnswerer(o.chunks, o.provider.Embedder(), o.provider.Completer(),
		answer.WithLogger(logger),
		answer.WithTopK(cfg.Index.TopK),
		answer.WithCallTimeout(cfg.Search.CallTimeout),
	)
	if err != nil {
		return fmt.Errorf("creating answerer: %w", err)
	}
	o.answerer = answerer
	return nil
}

// Close releases the worker pools, the AI provider and the index.
func (o *Oracle) Close() error {
	if o.agent != nil {
		o.agent.Release()
	}
	if o.pipeline != nil {
		o.pipeline.Release()
	}
	if o.provider != nil {
		if err := o.provider.Close(); err != nil {
			o.logger.Error("error closing AI provider", "err", err)
		}
	}
	if err := o.backend.Close(); err != nil {
		o.logger.Error("error closing index", "err", err)
		return err
	}
	return nil
}

// Config returns the validated configuration.
func (o *Oracle) Config() *config.AppConfig {
	return o.config
}

// Pipeline returns the ingestion pipeline.
func (o *Oracle) Pipeline() *ingestion.Pipeline {
	return o.pipeline
}

// Chunks returns the chunk repository.
func (o *Oracle) Chunks() storage.ChunkRepository {
	return o.chunks
}

// Sources returns the source repository.
func (o *Oracle) Sources() storage.SourceRepository {
	return o.sources
}

// Search finds the file best matching query across the configured roots.
func (o *Oracle) Search(ctx context.Context, query string, opts ...search.SearchOption) (*core.SearchReport, error) {
	if o.monitor != nil {
		opts = append([]search.SearchOption{search.WithMonitor(o.monitor)}, opts...)
	}
	return o.agent.Search(ctx, query, opts...)
}

// Index ingests files into the retrieval index.
func (o *Oracle) Index(ctx context.Context, paths []string, opts *ingestion.IngestOptions) (*ingestion.Report, error) {
	return o.pipeline.IngestFiles(ctx, paths, opts)
}

// Answer answers question from the chunks already indexed.
func (o *Oracle) Answer(ctx context.Context, question string) (*answer.Answer, error) {
	return o.answerer.Answer(ctx, question, 0)
}

// Reembedder rebuilds every stored vector with the configured embedding model.
func (o *Oracle) Reembedder(config *reembed.Config, out io.Writer, reporter reembed.Reporter) *reembed.Reembedder {
	return reembed.NewReembedder(o.chunks, o.provider.Embedder(), config, out, reporter)
}

// Response is the result of Ask.
type Response struct {
	Report  *core.SearchReport
	Indexed *ingestion.Report // nil when the search found nothing
	Answer  *answer.Answer
}

// Found reports whether the answer drew on indexed content.
func (r *Response) Found() bool {
	return len(r.Answer.Sources) > 0
}

// String renders the answer with citations, or NoRelevantContent.
func (r *Response) String() string {
	if !r.Found() {
		return r.Answer.Text
	}
	return r.Answer.String()
}

// Ask searches for the file best matching query, indexes it together with
// the top candidates and answers query from the index. A search that finds
// nothing yields a NoRelevantContent answer, not an error.
func (o *Oracle) Ask(ctx context.Context, query string) (*Response, error) {
	report, err := o.Search(ctx, query)
	if err != nil && !errors.Is(err, search.ErrExhausted) {
		return nil, err
	}
	resp := &Response{Report: report}

	files := o.filesToIndex(report)
	if len(files) == 0 {
		o.logger.Info("search found no files", "query", query, "outcome", report.Outcome)
		resp.Answer = noContent(query)
		return resp, nil
	}

	indexed, err := o.pipeline.IngestFiles(ctx, files, nil)
	if err != nil {
		return nil, err
	}
	resp.Indexed = indexed

	ans, err := o.answerer.Answer(ctx, query, 0)
	if errors.Is(err, answer.ErrNoRelevantContent) {
		resp.Answer = noContent(query)
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	resp.Answer = ans
	return resp, nil
}

// filesToIndex returns the best file followed by up to o.candidates other candidates.
func (o *Oracle) filesToIndex(report *core.SearchReport) []string {
	if report.BestFile == "" {
		return nil
	}
	files := []string{report.BestFile}
	for _, candidate := range report.Candidates {
		if len(files) > o.candidates {
			break
		}
		if candidate != report.BestFile {
			files = append(files, candidate)
		}
	}
	return files
}

func noContent(query string) *answer.Answer {
	return &answer.Answer{Question: query, Text: NoRelevantContent}
}
