package core

import (
	"fmt"
	"strings"
)

// ValidateQuery validates a free-text query.
//
// Validation rules:
//   - Query must contain at least one non-whitespace character
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrEmptyQuery)
	}
	return nil
}

// ValidateRoots validates the prioritized list of root directories.
//
// Validation rules:
//   - At least one root must be supplied
//   - No root may be blank
//
// Roots are not checked for existence; a missing root contributes nothing
// to a search rather than failing it.
func ValidateRoots(roots []string) error {
	if len(roots) == 0 {
		return ErrNoRoots
	}
	for i, root := range roots {
		if strings.TrimSpace(root) == "" {
			return fmt.Errorf("%w: index %d", ErrEmptyRoot, i)
		}
	}
	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Source must not be empty
//
// NOT validated (populated by the ingestion pipeline):
//   - Vector (can be empty until embedded)
//   - ID (derived from content when zero)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptySource)
	}

	return nil
}
