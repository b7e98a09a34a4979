package search

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poiesic/fileoracle/ai"
	"github.com/poiesic/fileoracle/core"
)

// DefaultMinMatches is the keyword count a path must contain to pass the relevance filter.
const DefaultMinMatches = 2

// FilterRelevant keeps paths whose text contains at least minMatches distinct
// keywords, compared case-insensitively. Files are never opened.
func FilterRelevant(paths []string, keywords core.KeywordSet, minMatches int) []string {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if !slices.Contains(lowered, kw) {
			lowered = append(lowered, kw)
		}
	}

	var kept []string
	for _, path := range paths {
		lowerPath := strings.ToLower(path)
		matches := 0
		for _, kw := range lowered {
			if strings.Contains(lowerPath, kw) {
				matches++
			}
		}
		if matches >= minMatches {
			kept = append(kept, path)
		}
	}
	return kept
}

// ApplyFilter runs FilterRelevant and substitutes the unfiltered paths when
// filtering would discard every one of them. fellBack reports the substitution.
func ApplyFilter(paths []string, keywords core.KeywordSet, minMatches int) (filtered []string, fellBack bool) {
	filtered = FilterRelevant(paths, keywords, minMatches)
	if len(filtered) == 0 && len(paths) > 0 {
		return paths, true
	}
	return filtered, false
}

// FilterByKeyword keeps paths containing keyword verbatim. An empty keyword
// leaves paths unchanged; otherwise the result may be empty.
func FilterByKeyword(paths []string, keyword string) []string {
	if keyword == "" {
		return paths
	}
	var filtered []string
	for _, path := range paths {
		if strings.Contains(path, keyword) {
			filtered = append(filtered, path)
		}
	}
	return filtered
}

// Truncate caps paths at max entries. max below 1 means no cap.
func Truncate(paths []string, max int) []string {
	if max < 1 || len(paths) <= max {
		return paths
	}
	return paths[:max]
}

// Reranker asks the model to pick the single best file from a candidate list.
type Reranker struct {
	completer ai.Completer
	logger    *slog.Logger
}

// NewReranker creates a Reranker. A nil logger uses slog.Default().
func NewReranker(completer ai.Completer, logger *slog.Logger) *Reranker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reranker{
		completer: completer,
		logger:    logger.With("component", "reranker"),
	}
}

// Rerank returns the path the model names as the best match for query.
// The answer is trusted as a path; when it names a candidate case-insensitively
// or by base name the candidate's spelling is used. A failed or empty
// completion falls back to the first candidate. Empty input returns "".
func (r *Reranker) Rerank(ctx context.Context, paths []string, query string) (string, core.Outcome) {
	if len(paths) == 0 {
		return "", core.OutcomeEmpty
	}

	prompt := fmt.Sprintf(rerankPrompt, query, strings.Join(paths, "\n"))
	response, err := r.completer.Complete(ctx, prompt)
	if err != nil {
		outcome := outcomeOf(err)
		r.logger.Warn("re-ranking failed, using first candidate", "outcome", outcome, "err", err)
		return paths[0], outcome
	}

	choice := cleanChoice(response)
	if choice == "" {
		r.logger.Warn("model named no file, using first candidate")
		return paths[0], core.OutcomeEmpty
	}
	return canonicalCandidate(choice, paths), core.OutcomeOK
}

// canonicalCandidate maps choice onto a candidate when it unambiguously names one.
func canonicalCandidate(choice string, paths []string) string {
	var byBase []string
	for _, path := range paths {
		if path == choice {
			return path
		}
		if strings.EqualFold(path, choice) {
			return path
		}
		if strings.EqualFold(filepath.Base(path), choice) {
			byBase = append(byBase, path)
		}
	}
	if len(byBase) == 1 {
		return byBase[0]
	}
	return choice
}
