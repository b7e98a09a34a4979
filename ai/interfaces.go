package ai

import "context"

// Completer turns a natural-language prompt into best-effort text.
//
// Every LLM decision in the search pipeline (keyword generation, directory
// selection, query refinement, re-ranking) and the final answer composition
// goes through this interface.
type Completer interface {
	// Complete sends prompt to the model and returns its trimmed text response.
	// Returns an error if the service call fails or the model returns no choices.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Embedder generates vector embeddings for text.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// AIProvider aggregates the AI services used by FileOracle.
type AIProvider interface {
	// Completer returns the text completion service.
	// The returned Completer is safe for concurrent use.
	Completer() Completer

	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
