package reembed

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/fileoracle/core"
	"github.com/poiesic/fileoracle/storage"
	"github.com/poiesic/fileoracle/storage/badger"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (storage.ChunkRepository, func()) {
	repo, backend, err := badger.NewMemoryChunkRepository()
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		backend.Close()
	}
	return repo, cleanup
}

func addChunks(t *testing.T, repo storage.ChunkRepository, n int) []*core.Chunk {
	t.Helper()
	chunks := make([]*core.Chunk, n)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			Source:  fmt.Sprintf("/docs/file%d.txt", i%3),
			Ordinal: i,
			Text:    fmt.Sprintf("chunk text %d", i),
		}
	}
	added, err := repo.AddChunks(context.Background(), chunks...)
	require.NoError(t, err)
	require.Len(t, added, n)
	return added
}

// mockEmbedder for testing
type mockEmbedder struct {
	embedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *mockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *mockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if m.embedTextsFunc != nil {
		return m.embedTextsFunc(ctx, texts)
	}
	// Default: unnormalized vectors with magnitude 3
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{1.0, 2.0, 2.0}
	}
	return result, nil
}

type recordingReporter struct {
	total    int
	updates  []int
	finished bool
}

func (r *recordingReporter) Start(total int)    { r.total = total }
func (r *recordingReporter) Update(current int) { r.updates = append(r.updates, current) }
func (r *recordingReporter) Finish()            { r.finished = true }
