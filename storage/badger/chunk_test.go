package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/fileoracle/core"
	"github.com/poiesic/fileoracle/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkBasics(t *testing.T) {
	chunks, backend, err := NewMemoryChunkRepository()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	added, err := chunks.AddChunks(ctx, &core.Chunk{Source: "/docs/a.txt", Ordinal: 0, Text: "hello"})
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, core.ChunkID("/docs/a.txt", 0, "hello"), added[0].Id)
	assert.False(t, added[0].InsertedAt.IsZero())

	got, err := chunks.GetChunk(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)

	_, err = chunks.GetChunk(ctx, core.ID(42))
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	count, err := chunks.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAddChunksValidates(t *testing.T) {
	chunks, backend, err := NewMemoryChunkRepository()
	require.NoError(t, err)
	defer backend.Close()

	_, err = chunks.AddChunks(context.Background(), &core.Chunk{Source: "/a", Text: "  "})
	assert.True(t, errors.Is(err, core.ErrInvalidChunk))

	_, err = chunks.AddChunks(context.Background(), &core.Chunk{Text: "text"})
	assert.True(t, errors.Is(err, core.ErrEmptySource))
}

func TestAddChunksReplacesPreservingInsertedAt(t *testing.T) {
	chunks, backend, err := NewMemoryChunkRepository()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	first := &core.Chunk{Source: "/a", Ordinal: 0, Text: "same"}
	_, err = chunks.AddChunks(ctx, first)
	require.NoError(t, err)
	inserted := first.InsertedAt

	time.Sleep(2 * time.Millisecond)
	again := &core.Chunk{Source: "/a", Ordinal: 0, Text: "same", Vector: []float32{1}}
	_, err = chunks.AddChunks(ctx, again)
	require.NoError(t, err)

	got, err := chunks.GetChunk(ctx, first.Id)
	require.NoError(t, err)
	assert.True(t, inserted.Equal(got.InsertedAt))
	assert.Equal(t, []float32{1}, got.Vector)

	bySource, err := chunks.GetChunksBySource(ctx, "/a")
	require.NoError(t, err)
	assert.Len(t, bySource, 1)
}

func TestChunksBySource(t *testing.T) {
	chunks, backend, err := NewMemoryChunkRepository()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	_, err = chunks.AddChunks(ctx,
		&core.Chunk{Source: "/a", Ordinal: 2, Text: "a2"},
		&core.Chunk{Source: "/a", Ordinal: 0, Text: "a0"},
		&core.Chunk{Source: "/b", Ordinal: 0, Text: "b0"},
		&core.Chunk{Source: "/a", Ordinal: 1, Text: "a1"},
	)
	require.NoError(t, err)

	got, err := chunks.GetChunksBySource(ctx, "/a")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a0", "a1", "a2"}, []string{got[0].Text, got[1].Text, got[2].Text})

	removed, err := chunks.DeleteChunksBySource(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	all, err := chunks.ListChunks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b0", all[0].Text)

	removed, err = chunks.DeleteChunksBySource(ctx, "/missing")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestUpdateAndDeleteChunks(t *testing.T) {
	chunks, backend, err := NewMemoryChunkRepository()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	added, err := chunks.AddChunks(ctx, &core.Chunk{Source: "/a", Text: "text"})
	require.NoError(t, err)
	chunk := added[0]

	chunk.Vector = []float32{0.6, 0.8}
	_, err = chunks.UpdateChunks(ctx, chunk)
	require.NoError(t, err)

	got, err := chunks.GetChunks(ctx, chunk.Id, core.ID(7))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []float32{0.6, 0.8}, got[0].Vector)

	_, err = chunks.UpdateChunks(ctx, &core.Chunk{Id: core.ID(7), Source: "/x", Text: "y"})
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	require.NoError(t, chunks.DeleteChunks(ctx, chunk.Id))
	assert.True(t, errors.Is(chunks.DeleteChunks(ctx, chunk.Id), storage.ErrNotFound))

	bySource, err := chunks.GetChunksBySource(ctx, "/a")
	require.NoError(t, err)
	assert.Empty(t, bySource)
}

func TestSourceRepository(t *testing.T) {
	_, sources, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	state, err := sources.LoadSource(ctx, "/docs/a.txt")
	require.NoError(t, err)
	assert.Nil(t, state)

	mod := time.Unix(1700000000, 0).UTC()
	require.NoError(t, sources.SaveSource(ctx, &core.SourceState{Source: "/docs/b.txt", ModTime: mod, Size: 10, Chunks: 1}))
	require.NoError(t, sources.SaveSource(ctx, &core.SourceState{Source: "/docs/a.txt", ModTime: mod, Size: 20, Chunks: 2}))

	state, err = sources.LoadSource(ctx, "/docs/a.txt")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.True(t, state.Unchanged(mod, 20))
	assert.False(t, state.IndexedAt.IsZero())

	all, err := sources.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "/docs/a.txt", all[0].Source)

	require.NoError(t, sources.DeleteSource(ctx, "/docs/a.txt"))
	state, err = sources.LoadSource(ctx, "/docs/a.txt")
	require.NoError(t, err)
	assert.Nil(t, state)

	assert.True(t, errors.Is(sources.SaveSource(ctx, &core.SourceState{}), core.ErrEmptySource))
}
