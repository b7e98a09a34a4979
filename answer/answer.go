package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/fileoracle/ai"
	"github.com/poiesic/fileoracle/core"
	"github.com/poiesic/fileoracle/reembed"
	"github.com/poiesic/fileoracle/storage"
)

const (
	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = 5

	// DefaultMinScore drops chunks pointing away from the question.
	DefaultMinScore = 0.0
)

const answerPrompt = `Use the following pieces of context to answer the question at the end.
If you don't know the answer, just say that you don't know, don't try to make up an answer.

%s

Question: %s
Helpful Answer:`

// Answer is a generated answer with the sources it drew on.
type Answer struct {
	Question string
	Text     string
	// Sources are the distinct chunk sources in retrieval order.
	Sources []string
	Matches []*core.ChunkMatch
}

// String renders the answer followed by its citations.
func (a *Answer) String() string {
	var b strings.Builder
	b.WriteString(a.Text)
	b.WriteString("\n\nCitations:")
	for _, source := range a.Sources {
		b.WriteString("\n- ")
		b.WriteString(source)
	}
	return b.String()
}

// Answerer answers questions from the chunks stored in a repository.
type Answerer struct {
	repo        storage.Repository
	embedder    ai.Embedder
	completer   ai.Completer
	topK        int
	minScore    float32
	callTimeout time.Duration
	logger      *slog.Logger
}

// Option configures an Answerer.
type Option func(*Answerer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Answerer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// WithTopK sets the default number of chunks retrieved per question.
func WithTopK(k int) Option {
	return func(a *Answerer) error {
		if k < 1 {
			return fmt.Errorf("top-k must be positive, got %d", k)
		}
		a.topK = k
		return nil
	}
}

// WithMinScore sets the lowest similarity a retrieved chunk may have.
func WithMinScore(score float32) Option {
	return func(a *Answerer) error {
		a.minScore = score
		return nil
	}
}

// WithCallTimeout bounds each embedding and completion call. Zero disables the bound.
func WithCallTimeout(timeout time.Duration) Option {
	return func(a *Answerer) error {
		a.callTimeout = timeout
		return nil
	}
}

// NewAnswerer creates an Answerer.
func NewAnswerer(repo storage.Repository, embedder ai.Embedder, completer ai.Completer, opts ...Option) (*Answerer, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if completer == nil {
		return nil, ErrCompleterRequired
	}

	a := &Answerer{
		repo:        repo,
		embedder:    embedder,
		completer:   completer,
		topK:        DefaultTopK,
		minScore:    DefaultMinScore,
		callTimeout: 30 * time.Second,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	a.logger = a.logger.With("component", "answerer")
	return a, nil
}

// Answer retrieves the k chunks most similar to question and asks the model
// to answer from them. k <= 0 uses the configured default. When nothing is
// retrieved it returns ErrNoRelevantContent.
func (a *Answerer) Answer(ctx context.Context, question string, k int) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if k <= 0 {
		k = a.topK
	}

	matches, err := a.Retrieve(ctx, question, k)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		a.logger.Info("no chunks matched question", "question", question)
		return nil, ErrNoRelevantContent
	}

	callCtx, cancel := a.callContext(ctx)
	defer cancel()
	text, err := a.completer.Complete(callCtx, fmt.Sprintf(answerPrompt, formatContext(matches), question))
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	result := &Answer{
		Question: question,
		Text:     strings.TrimSpace(text),
		Sources:  sources(matches),
		Matches:  matches,
	}
	a.logger.Debug("answered question", "chunks", len(matches), "sources", len(result.Sources))
	return result, nil
}

// Retrieve returns the k stored chunks most similar to question.
func (a *Answerer) Retrieve(ctx context.Context, question string, k int) ([]*core.ChunkMatch, error) {
	callCtx, cancel := a.callContext(ctx)
	defer cancel()
	vector, err := a.embedder.EmbedText(callCtx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	matches, err := a.repo.FindSimilar(ctx, reembed.NormalizeVector(vector), a.minScore, k)
	if err != nil {
		return nil, fmt.Errorf("retrieving chunks: %w", err)
	}
	return matches, nil
}

func (a *Answerer) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.callTimeout)
}

func formatContext(matches []*core.ChunkMatch) string {
	var b strings.Builder
	for i, match := range matches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] (source: %s)\n%s", i+1, match.Chunk.Source, match.Chunk.Text)
	}
	return b.String()
}

func sources(matches []*core.ChunkMatch) []string {
	seen := make(map[string]bool, len(matches))
	var out []string
	for _, match := range matches {
		if seen[match.Chunk.Source] {
			continue
		}
		seen[match.Chunk.Source] = true
		out = append(out, match.Chunk.Source)
	}
	return out
}
