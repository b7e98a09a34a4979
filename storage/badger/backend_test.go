package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/fileoracle/core"
	"github.com/poiesic/fileoracle/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_FilePath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := OpenBackend(file, false)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	_, err = backend.FindSimilar(context.Background(), []float32{1}, 0, 1)
	assert.True(t, errors.Is(err, storage.ErrStorageClosed))
}

func TestFindSimilar_NoChunks(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	results, err := backend.FindSimilar(context.Background(), []float32{0.1, 0.2, 0.3}, 0.5, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_WithChunks(t *testing.T) {
	chunks, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	_, err = chunks.AddChunks(ctx,
		&core.Chunk{Source: "/a.txt", Ordinal: 0, Text: "first", Vector: []float32{1, 0, 0}},
		&core.Chunk{Source: "/a.txt", Ordinal: 1, Text: "second", Vector: []float32{0.9, 0.1, 0}},
		&core.Chunk{Source: "/b.txt", Ordinal: 0, Text: "third", Vector: []float32{0, 0, 1}},
		&core.Chunk{Source: "/b.txt", Ordinal: 1, Text: "no vector"},
	)
	require.NoError(t, err)

	results, err := backend.FindSimilar(ctx, []float32{1, 0, 0}, 0.8, 10)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Chunk.Text)
	assert.Equal(t, "second", results[1].Chunk.Text)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestFindSimilar_ThresholdFiltering(t *testing.T) {
	chunks, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	_, err = chunks.AddChunks(ctx,
		&core.Chunk{Source: "/s", Ordinal: 0, Text: "high", Vector: []float32{1, 0, 0}},
		&core.Chunk{Source: "/s", Ordinal: 1, Text: "medium", Vector: []float32{0.7, 0.3, 0}},
		&core.Chunk{Source: "/s", Ordinal: 2, Text: "low", Vector: []float32{0.3, 0.7, 0}},
	)
	require.NoError(t, err)
	query := []float32{1, 0, 0}

	t.Run("high threshold", func(t *testing.T) {
		results, err := backend.FindSimilar(ctx, query, 0.95, 10)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("medium threshold", func(t *testing.T) {
		results, err := backend.FindSimilar(ctx, query, 0.6, 10)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("low threshold", func(t *testing.T) {
		results, err := backend.FindSimilar(ctx, query, 0.2, 10)
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})
}

func TestFindSimilar_LimitResults(t *testing.T) {
	chunks, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_, err := chunks.AddChunks(ctx, &core.Chunk{
			Source:  "/s",
			Ordinal: i,
			Text:    fmt.Sprintf("chunk %d", i),
			Vector:  []float32{0.9, 0.1, 0},
		})
		require.NoError(t, err)
	}
	query := []float32{1, 0, 0}

	for _, limit := range []int{3, 5} {
		t.Run(fmt.Sprintf("limit to %d", limit), func(t *testing.T) {
			results, err := backend.FindSimilar(ctx, query, 0.5, limit)
			require.NoError(t, err)
			assert.Len(t, results, limit)
		})
	}

	t.Run("limit higher than results", func(t *testing.T) {
		results, err := backend.FindSimilar(ctx, query, 0.5, 100)
		require.NoError(t, err)
		assert.Len(t, results, 10)
	})

	t.Run("zero limit returns everything", func(t *testing.T) {
		results, err := backend.FindSimilar(ctx, query, 0.5, 0)
		require.NoError(t, err)
		assert.Len(t, results, 10)
	})
}

func TestFindSimilar_Cancelled(t *testing.T) {
	chunks, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	_, err = chunks.AddChunks(context.Background(), &core.Chunk{Source: "/s", Text: "x", Vector: []float32{1}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = backend.FindSimilar(ctx, []float32{1}, 0, 10)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDotProduct(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float32
	}{
		{
			name:     "identical vectors",
			a:        []float32{1.0, 0.0, 0.0},
			b:        []float32{1.0, 0.0, 0.0},
			expected: 1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1.0, 0.0, 0.0},
			b:        []float32{0.0, 1.0, 0.0},
			expected: 0.0,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1.0, 0.0, 0.0},
			b:        []float32{-1.0, 0.0, 0.0},
			expected: -1.0,
		},
		{
			name:     "different lengths - use min",
			a:        []float32{1.0, 2.0, 3.0},
			b:        []float32{1.0, 2.0},
			expected: 5.0,
		},
		{
			name:     "empty vectors",
			a:        []float32{},
			b:        []float32{},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, dotProduct(tt.a, tt.b), 0.0001)
		})
	}
}

func TestWithTransaction(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	t.Run("successful transaction", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(ctx context.Context) error {
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("failed transaction", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(ctx context.Context) error {
			return assert.AnError
		})
		assert.Equal(t, assert.AnError, err)
	})
}
