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
package reembed

import (
	"context"
	"fmt"

	"github.com/poiesic/fileoracle/ai"
	"github.com/poiesic/fileoracle/core"
	"github.com/poiesic/fileoracle/storage"
)

// EmbedChunks fills in the normalized vector of each chunk, retrying the
// embedding call according to policy.
func EmbedChunks(ctx context.Context, embedder ai.Embedder, policy RetryPolicy, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, policy, func(ctx context.Context) error {
		var err error
		embeddings, err = embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", policy.MaxAttempts, err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingMismatch, len(chunks), len(embeddings))
	}

	for i := range chunks {
		chunks[i].Vector = NormalizeVector(embeddings[i])
	}
	return nil
}

// BatchProcessor re-embeds a batch of stored chunks and writes them back.
type BatchProcessor struct {
	repo     storage.ChunkRepository
	embedder ai.Embedder
	policy   RetryPolicy
}

func NewBatchProcessor(repo storage.ChunkRepository, embedder ai.Embedder, policy RetryPolicy) *BatchProcessor {
	return &BatchProcessor{
		repo:     repo,
		embedder: embedder,
		policy:   policy,
	}
}

func (bp *BatchProcessor) Process(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := EmbedChunks(ctx, bp.embedder, bp.policy, chunks); err != nil {
		return err
	}
	if _, err := bp.repo.UpdateChunks(ctx, chunks...); err != nil {
		return fmt.Errorf("failed to update chunks: %w", err)
	}
	return nil
}
