package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/fileoracle/ai"
	"github.com/poiesic/fileoracle/core"
)

// DefaultNumKeywords is the keyword count requested from the model.
const DefaultNumKeywords = 3

// KeywordGenerator turns a free-text query into search terms with one completion call.
type KeywordGenerator struct {
	completer ai.Completer
	logger    *slog.Logger
}

// NewKeywordGenerator creates a KeywordGenerator. A nil logger uses slog.Default().
func NewKeywordGenerator(completer ai.Completer, logger *slog.Logger) *KeywordGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &KeywordGenerator{
		completer: completer,
		logger:    logger.With("component", "keywords"),
	}
}

// Generate asks the model for numKeywords comma-separated keywords and expands
// every multi-word keyword with underscore and hyphen joined variants.
// numKeywords is a hint; the model may return more or fewer.
//
// Generate never fails: when the completion errors or yields nothing usable the
// set degrades to the verbatim query and the outcome records why.
func (g *KeywordGenerator) Generate(ctx context.Context, query string, numKeywords int) (core.KeywordSet, core.Outcome) {
	if numKeywords < 1 {
		numKeywords = DefaultNumKeywords
	}
	fallback := core.NewKeywordSet(query)

	response, err := g.completer.Complete(ctx, fmt.Sprintf(keywordPrompt, query, numKeywords))
	if err != nil {
		outcome := outcomeOf(err)
		g.logger.Warn("keyword generation failed, using query verbatim", "query", query, "outcome", outcome, "err", err)
		return fallback, outcome
	}

	keywords := parseKeywords(response)
	if len(keywords) == 0 {
		g.logger.Warn("model returned no keywords, using query verbatim", "query", query)
		return fallback, core.OutcomeEmpty
	}

	g.logger.Debug("generated keywords", "query", query, "keywords", keywords)
	return keywords, core.OutcomeOK
}

// parseKeywords splits a comma-separated response and adds separator variants.
func parseKeywords(response string) core.KeywordSet {
	var terms []string
	for _, part := range strings.Split(response, ",") {
		keyword := cleanChoice(part)
		if keyword == "" {
			continue
		}
		terms = append(terms, keyword)
		if strings.Contains(keyword, " ") {
			words := strings.Fields(keyword)
			terms = append(terms, strings.Join(words, "_"), strings.Join(words, "-"))
		}
	}
	return core.NewKeywordSet(terms...)
}
