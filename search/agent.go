package search

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
	"github.com/poiesic/fileoracle/filesearch"
)

// DefaultMaxAttempts bounds the number of search attempts, the first included.
const DefaultMaxAttempts = 3

// Agent runs the full search: narrowing, keyword generation, dual-channel
// search, filtering, refinement retries and re-ranking.
type Agent struct {
	roots       []string
	completer   ai.Completer
	searcher    filesearch.Searcher
	limits      filesearch.Limits
	pool        *ants.Pool
	keywords    *KeywordGenerator
	narrower    *Narrower
	channels    *DualChannel
	reranker    *Reranker
	numKeywords int
	minMatches  int
	maxAttempts int
	maxDepth    int
	maxResults  int
	threshold   int
	callTimeout time.Duration
	logger      *slog.Logger
}

// Option configures an Agent.
type Option func(*Agent) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// WithPoolSize sets the worker pool size used for narrowing and directory search.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(a *Agent) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if a.pool != nil {
			a.pool.Release()
		}
		a.pool = pool
		return nil
	}
}

// WithMaxAttempts bounds the number of attempts including the first.
// Default is DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(a *Agent) error {
		if n < 1 {
			return fmt.Errorf("max attempts must be at least 1, got %d", n)
		}
		a.maxAttempts = n
		return nil
	}
}

// WithNameThreshold sets the name-hit count that suppresses content search.
// Default is DefaultNameThreshold.
func WithNameThreshold(n int) Option {
	return func(a *Agent) error {
		a.threshold = n
		return nil
	}
}

// WithMinMatches sets how many keywords a path must contain to pass the filter.
// Default is DefaultMinMatches.
func WithMinMatches(n int) Option {
	return func(a *Agent) error {
		a.minMatches = n
		return nil
	}
}

// WithNumKeywords sets the keyword count requested from the model.
// Default is DefaultNumKeywords.
func WithNumKeywords(n int) Option {
	return func(a *Agent) error {
		a.numKeywords = n
		return nil
	}
}

// WithMaxDepth bounds directory descent during narrowing.
// Default is DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(a *Agent) error {
		a.maxDepth = n
		return nil
	}
}

// WithMaxResults caps the candidate list. Zero means no cap.
// Individual searches may override it with WithResultLimit.
func WithMaxResults(n int) Option {
	return func(a *Agent) error {
		a.maxResults = n
		return nil
	}
}

// WithLimits sets the limits whose exclusions also apply to narrowing.
// Default is filesearch.DefaultLimits().
func WithLimits(limits filesearch.Limits) Option {
	return func(a *Agent) error {
		a.limits = limits
		return nil
	}
}

// WithCallTimeout bounds each completion call. Zero disables the bound.
// Default is 30 seconds.
func WithCallTimeout(timeout time.Duration) Option {
	return func(a *Agent) error {
		a.callTimeout = timeout
		return nil
	}
}

// NewAgent creates a search agent over roots, in priority order.
func NewAgent(
	roots []string,
	completer ai.Completer,
	searcher filesearch.Searcher,
	opts ...Option,
) (*Agent, error) {
	if err := core.ValidateRoots(roots); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoRoots, err)
	}
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	if searcher == nil {
		return nil, ErrSearcherRequired
	}

	a := &Agent{
		roots:       append([]string(nil), roots...),
		completer:   completer,
		searcher:    searcher,
		limits:      filesearch.DefaultLimits(),
		numKeywords: DefaultNumKeywords,
		minMatches:  DefaultMinMatches,
		maxAttempts: DefaultMaxAttempts,
		maxDepth:    DefaultMaxDepth,
		threshold:   DefaultNameThreshold,
		callTimeout: 30 * time.Second,
		logger:      slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(a); err != nil {
			a.Release()
			return nil, err
		}
	}

	if a.pool == nil {
		poolSize := runtime.NumCPU() / 2
		if poolSize < 1 {
			poolSize = 1
		}
		pool, err := ants.NewPool(poolSize)
		if err != nil {
			return nil, err
		}
		a.pool = pool
	}

	base := a.logger
	a.logger = base.With("component", "agent")
	bounded := withCallTimeout(completer, a.callTimeout)
	a.completer = bounded
	a.keywords = NewKeywordGenerator(bounded, base)
	a.narrower = NewNarrower(bounded, a.maxDepth, a.limits, base)
	a.channels = NewDualChannel(searcher, a.threshold, base)
	a.reranker = NewReranker(bounded, base)
	return a, nil
}

// Release frees the worker pool. The agent must not be used afterwards.
func (a *Agent) Release() {
	if a.pool != nil {
		a.pool.Release()
	}
}

// SearchOption configures a single search.
type SearchOption func(*searchRequest)

type searchRequest struct {
	maxResults    int
	filterKeyword string
	monitor       SearchMonitor
}

// WithResultLimit caps the candidate list for one search. Zero means no cap.
func WithResultLimit(n int) SearchOption {
	return func(r *searchRequest) {
		r.maxResults = n
	}
}

// WithFilterKeyword restricts candidates to paths containing keyword verbatim,
// unless that would leave none.
func WithFilterKeyword(keyword string) SearchOption {
	return func(r *searchRequest) {
		r.filterKeyword = keyword
	}
}

// WithMonitor reports the stages of one search to monitor.
func WithMonitor(monitor SearchMonitor) SearchOption {
	return func(r *searchRequest) {
		if monitor != nil {
			r.monitor = monitor
		}
	}
}

// Search finds the files most likely to satisfy query.
//
// When an attempt yields no candidates the query is rewritten by the model and
// the whole pipeline restarts, up to the configured number of attempts. When
// every attempt is empty the returned report carries OutcomeExhausted and the
// error wraps ErrExhausted.
func (a *Agent) Search(ctx context.Context, query string, opts ...SearchOption) (*core.SearchReport, error) {
	if err := core.ValidateQuery(query); err != nil {
		return nil, err
	}

	req := &searchRequest{maxResults: a.maxResults, monitor: &noopMonitor{}}
	for _, opt := range opts {
		opt(req)
	}
	monitor := req.monitor

	report := &core.SearchReport{Query: query}
	current := query
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.Attempts = attempt
		report.FinalQuery = current
		monitor.Start(current, attempt)

		candidates, keywords := a.attempt(ctx, current, req)
		report.Keywords = keywords
		if len(candidates) > 0 {
			best, outcome := a.reranker.Rerank(ctx, candidates, current)
			monitor.AfterRerank(best, outcome)

			report.BestFile = best
			report.Candidates = candidates
			report.Outcome = core.OutcomeOK
			monitor.Finish(report)
			a.logger.Info("search complete", "query", query, "attempts", attempt, "candidates", len(candidates), "best", best)
			return report, nil
		}

		if attempt == a.maxAttempts {
			break
		}
		refined, outcome := a.refine(ctx, current)
		monitor.Refined(current, refined, outcome)
		a.logger.Info("no results, refining query", "attempt", attempt, "from", current, "to", refined)
		current = refined
	}

	report.Outcome = core.OutcomeExhausted
	monitor.Finish(report)
	a.logger.Info("search exhausted", "query", query, "attempts", report.Attempts)
	return report, fmt.Errorf("%w after %d attempts", ErrExhausted, report.Attempts)
}

// attempt runs one pass of the pipeline and returns the surviving candidates.
func (a *Agent) attempt(ctx context.Context, query string, req *searchRequest) ([]string, core.KeywordSet) {
	monitor := req.monitor

	searchQuery, targets := ParseOverride(query)
	dirs := resolveTargets(targets, a.roots)
	overridden := len(dirs) > 0
	if len(targets) > 0 && !overridden {
		a.logger.Warn("override names no existing directory, narrowing instead", "targets", targets)
	}
	if !overridden {
		dirs = a.narrowRoots(ctx, searchQuery, monitor)
	}
	monitor.AfterNarrowing(dirs, overridden)
	a.logger.Debug("candidate directories", "dirs", dirs, "overridden", overridden)

	keywords, outcome := a.keywords.Generate(ctx, searchQuery, a.numKeywords)
	monitor.AfterKeywordGeneration(keywords, outcome)

	paths := a.searchDirectories(ctx, dirs, keywords, monitor).Sorted()

	filtered, fellBack := ApplyFilter(paths, keywords, a.minMatches)
	monitor.AfterFiltering(len(paths), len(filtered), fellBack)

	if req.filterKeyword != "" {
		before := len(filtered)
		filtered = FilterByKeyword(filtered, req.filterKeyword)
		a.logger.Debug("filter keyword applied", "keyword", req.filterKeyword, "before", before, "after", len(filtered))
	}
	return Truncate(filtered, req.maxResults), keywords
}

// narrowRoots narrows every root concurrently and returns the distinct results.
func (a *Agent) narrowRoots(ctx context.Context, query string, monitor SearchMonitor) []string {
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		dirs = core.NewResultSet()
	)
	for _, root := range a.roots {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			dir := a.narrower.TraverseWithMonitor(ctx, root, query, monitor)
			mu.Lock()
			dirs.Add(dir)
			mu.Unlock()
		}
		if err := a.pool.Submit(task); err != nil {
			a.logger.Warn("pool rejected narrowing task, running inline", "root", root, "err", err)
			task()
		}
	}
	wg.Wait()
	return dirs.Sorted()
}

// searchDirectories runs the dual-channel search for each directory concurrently.
func (a *Agent) searchDirectories(ctx context.Context, dirs []string, keywords core.KeywordSet, monitor SearchMonitor) core.ResultSet {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = core.NewResultSet()
	)
	for _, dir := range dirs {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			found := a.channels.searchDirectory(ctx, dir, keywords, monitor)
			mu.Lock()
			results.Union(found)
			mu.Unlock()
		}
		if err := a.pool.Submit(task); err != nil {
			a.logger.Warn("pool rejected search task, running inline", "dir", dir, "err", err)
			task()
		}
	}
	wg.Wait()
	return results
}

// refine asks the model to rewrite query. When the model cannot help the
// query is reduced to its content words instead.
func (a *Agent) refine(ctx context.Context, query string) (string, core.Outcome) {
	response, err := a.completer.Complete(ctx, fmt.Sprintf(refinePrompt, query))
	if err != nil {
		outcome := outcomeOf(err)
		a.logger.Warn("query refinement failed, simplifying query", "outcome", outcome, "err", err)
		return simplifyQuery(query), outcome
	}
	refined := cleanChoice(response)
	if refined == "" {
		return simplifyQuery(query), core.OutcomeEmpty
	}
	return refined, core.OutcomeOK
}
