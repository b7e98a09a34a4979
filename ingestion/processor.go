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
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/fileoracle/core"
	"github.com/poiesic/fileoracle/extract"
	"github.com/poiesic/fileoracle/storage"
	"github.com/tmc/langchaingo/textsplitter"
)

// FileStatus is what happened to one file during ingestion.
type FileStatus int

const (
	StatusIndexed FileStatus = iota
	StatusUnchanged
	StatusUnsupported
	StatusEmpty
	StatusFailed
)

func (s FileStatus) String() string {
	switch s {
	case StatusIndexed:
		return "indexed"
	case StatusUnchanged:
		return "unchanged"
	case StatusUnsupported:
		return "unsupported"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FileResult reports the ingestion of a single file.
type FileResult struct {
	Path   string
	Status FileStatus
	Chunks int
	Err    error
}

// processor turns one source into stored chunks.
type processor struct {
	chunks    storage.ChunkRepository
	sources   storage.SourceRepository
	extractor extract.Extractor
	splitter  textsplitter.TextSplitter
	embedder  *chunkEmbedder
	logger    *slog.Logger
}

// processFile indexes path unless its recorded state shows it is unchanged.
func (p *processor) processFile(ctx context.Context, path string, force bool) FileResult {
	result := FileResult{Path: path}

	if !p.extractor.Supports(path) {
		result.Status = StatusUnsupported
		return result
	}

	state := &core.SourceState{Source: path}
	if !isRemote(path) {
		info, err := os.Stat(path)
		if err != nil {
			return failed(result, err)
		}
		state.ModTime = info.ModTime().UTC()
		state.Size = info.Size()

		if !force {
			previous, err := p.sources.LoadSource(ctx, path)
			if err != nil {
				return failed(result, err)
			}
			if previous.Unchanged(state.ModTime, state.Size) {
				result.Status = StatusUnchanged
				result.Chunks = previous.Chunks
				return result
			}
		}
	}

	text, err := p.extractor.Extract(ctx, path)
	if errors.Is(err, extract.ErrUnsupported) {
		result.Status = StatusUnsupported
		return result
	}
	if err != nil {
		return failed(result, err)
	}

	n, err := p.store(ctx, path, text)
	if err != nil {
		return failed(result, err)
	}
	state.Chunks = n
	if err := p.sources.SaveSource(ctx, state); err != nil {
		return failed(result, err)
	}

	result.Chunks = n
	result.Status = StatusIndexed
	if n == 0 {
		result.Status = StatusEmpty
	}
	p.logger.Debug("processed file", "path", path, "status", result.Status, "chunks", n)
	return result
}

// store replaces every chunk of source with chunks of text.
// New chunks are embedded before the old ones are removed.
func (p *processor) store(ctx context.Context, source, text string) (int, error) {
	pieces, err := p.split(text)
	if err != nil {
		return 0, err
	}

	chunks := make([]*core.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &core.Chunk{Source: source, Ordinal: i, Text: piece}
	}
	if err := p.embedder.embed(ctx, chunks); err != nil {
		return 0, err
	}

	removed, err := p.chunks.DeleteChunksBySource(ctx, source)
	if err != nil {
		return 0, fmt.Errorf("removing stale chunks: %w", err)
	}
	if removed > 0 {
		p.logger.Debug("removed stale chunks", "source", source, "chunks", removed)
	}
	if len(chunks) == 0 {
		return 0, nil
	}
	if _, err := p.chunks.AddChunks(ctx, chunks...); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func (p *processor) split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	parts, err := p.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("splitting text: %w", err)
	}
	pieces := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			pieces = append(pieces, part)
		}
	}
	return pieces, nil
}

func failed(result FileResult, err error) FileResult {
	result.Status = StatusFailed
	result.Err = err
	return result
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "gdoc:") || strings.HasPrefix(ref, "gsheet:")
}
