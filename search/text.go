package search

import "strings"

// Stop words dropped when a query is simplified without the model
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "my": true, "me": true, "find": true, "where": true,
	"what": true, "which": true, "file": true, "files": true, "i": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// simplifyQuery reduces query to its content words. Returns query unchanged
// when nothing would be left.
func simplifyQuery(query string) string {
	words := tokenizeAndFilter(query)
	if len(words) == 0 {
		return query
	}
	return strings.Join(words, " ")
}
