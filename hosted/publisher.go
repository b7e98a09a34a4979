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
package hosted

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sashabaranov/go-openai"
)

// DefaultStoreName names vector stores created without an explicit name.
const DefaultStoreName = "FileOracle Vector Store"

// EnvVectorStoreID is the .env key holding the published store ID.
const EnvVectorStoreID = "VECTOR_STORE_ID"

// client is the subset of the OpenAI API the publisher needs.
type client interface {
	CreateFileBytes(ctx context.Context, request openai.FileBytesRequest) (openai.File, error)
	CreateVectorStore(ctx context.Context, request openai.VectorStoreRequest) (openai.VectorStore, error)
}

// Upload records one file sent to the hosted store.
type Upload struct {
	Path   string
	FileID string
	Err    error
}

// Result describes a published vector store.
type Result struct {
	VectorStoreID string
	Name          string
	Uploads       []Upload
}

// Uploaded returns the number of files that made it into the store.
func (r *Result) Uploaded() int {
	n := 0
	for _, u := range r.Uploads {
		if u.Err == nil {
			n++
		}
	}
	return n
}

// Publisher uploads files and creates a hosted vector store from them.
type Publisher struct {
	client      client
	baseURL     string
	httpClient  *http.Client
	maxFileSize int64
	logger      *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher) error

// WithBaseURL points the publisher at an OpenAI-compatible API.
func WithBaseURL(baseURL string) Option {
	return func(p *Publisher) error {
		p.baseURL = baseURL
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(p *Publisher) error {
		p.httpClient = httpClient
		return nil
	}
}

// WithMaxFileSize skips files larger than size bytes. Zero means no limit.
func WithMaxFileSize(size int64) Option {
	return func(p *Publisher) error {
		p.maxFileSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPublisher creates a Publisher authenticated with apiKey.
func NewPublisher(apiKey string, opts ...Option) (*Publisher, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}
	p := &Publisher{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "publisher")

	cfg := openai.DefaultConfig(apiKey)
	if p.baseURL != "" {
		cfg.BaseURL = p.baseURL
	}
	if p.httpClient != nil {
		cfg.HTTPClient = p.httpClient
	}
	p.client = openai.NewClientWithConfig(cfg)
	return p, nil
}

// Publish uploads files and creates a vector store named name holding them.
// Files that fail to upload are reported in the result and left out of the
// store. An empty name uses DefaultStoreName.
func (p *Publisher) Publish(ctx context.Context, files []string, name string) (*Result, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if name == "" {
		name = DefaultStoreName
	}

	result := &Result{Name: name}
	var fileIDs []string
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		id, err := p.upload(ctx, path)
		result.Uploads = append(result.Uploads, Upload{Path: path, FileID: id, Err: err})
		if err != nil {
			p.logger.Warn("upload failed", "path", path, "err", err)
			continue
		}
		p.logger.Info("uploaded file", "path", path, "file_id", id)
		fileIDs = append(fileIDs, id)
	}
	if len(fileIDs) == 0 {
		return result, ErrNothingUploaded
	}

	p.logger.Info("creating vector store", "name", name, "files", len(fileIDs))
	store, err := p.client.CreateVectorStore(ctx, openai.VectorStoreRequest{
		Name:    name,
		FileIDs: fileIDs,
	})
	if err != nil {
		return result, fmt.Errorf("creating vector store: %w", err)
	}
	result.VectorStoreID = store.ID
	return result, nil
}

func (p *Publisher) upload(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if p.maxFileSize > 0 && info.Size() > p.maxFileSize {
		return "", fmt.Errorf("%s is %d bytes, over the %d byte limit", path, info.Size(), p.maxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	file, err := p.client.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    filepath.Base(path),
		Bytes:   data,
		Purpose: openai.PurposeAssistants,
	})
	if err != nil {
		return "", err
	}
	return file.ID, nil
}
