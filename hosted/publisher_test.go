package hosted

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/joho/godotenv"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClient is a func-field stand-in for the OpenAI API.
type fakeClient struct {
	CreateFileBytesFunc   func(ctx context.Context, request openai.FileBytesRequest) (openai.File, error)
	CreateVectorStoreFunc func(ctx context.Context, request openai.VectorStoreRequest) (openai.VectorStore, error)
}

func (f *fakeClient) CreateFileBytes(ctx context.Context, request openai.FileBytesRequest) (openai.File, error) {
	return f.CreateFileBytesFunc(ctx, request)
}

func (f *fakeClient) CreateVectorStore(ctx context.Context, request openai.VectorStoreRequest) (openai.VectorStore, error) {
	return f.CreateVectorStoreFunc(ctx, request)
}

func writeFiles(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(paths[i], []byte("contents of "+name), 0o644))
	}
	return paths
}

func TestNewPublisher_RequiresKey(t *testing.T) {
	_, err := NewPublisher("")
	assert.ErrorIs(t, err, ErrAPIKeyRequired)
}

func TestPublish(t *testing.T) {
	files := writeFiles(t, "a.txt", "b.md")
	var (
		uploaded []string
		request  openai.VectorStoreRequest
	)
	p := &Publisher{logger: testLogger(), client: &fakeClient{
		CreateFileBytesFunc: func(ctx context.Context, r openai.FileBytesRequest) (openai.File, error) {
			assert.Equal(t, openai.PurposeAssistants, r.Purpose)
			assert.Equal(t, "contents of "+r.Name, string(r.Bytes))
			uploaded = append(uploaded, r.Name)
			return openai.File{ID: "file-" + r.Name}, nil
		},
		CreateVectorStoreFunc: func(ctx context.Context, r openai.VectorStoreRequest) (openai.VectorStore, error) {
			request = r
			return openai.VectorStore{ID: "vs_123"}, nil
		},
	}}

	result, err := p.Publish(context.Background(), files, "")
	require.NoError(t, err)
	assert.Equal(t, "vs_123", result.VectorStoreID)
	assert.Equal(t, DefaultStoreName, result.Name)
	assert.Equal(t, 2, result.Uploaded())
	assert.Equal(t, []string{"a.txt", "b.md"}, uploaded)
	assert.Equal(t, DefaultStoreName, request.Name)
	assert.Equal(t, []string{"file-a.txt", "file-b.md"}, request.FileIDs)
}

func TestPublish_PartialFailure(t *testing.T) {
	files := writeFiles(t, "good.txt", "bad.txt")
	files = append(files, filepath.Join(t.TempDir(), "missing.txt"))

	var storeFiles []string
	p := &Publisher{logger: testLogger(), client: &fakeClient{
		CreateFileBytesFunc: func(ctx context.Context, r openai.FileBytesRequest) (openai.File, error) {
			if r.Name == "bad.txt" {
				return openai.File{}, errors.New("rejected")
			}
			return openai.File{ID: "file-1"}, nil
		},
		CreateVectorStoreFunc: func(ctx context.Context, r openai.VectorStoreRequest) (openai.VectorStore, error) {
			storeFiles = r.FileIDs
			return openai.VectorStore{ID: "vs_1"}, nil
		},
	}}

	result, err := p.Publish(context.Background(), files, "Docs")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Uploaded())
	assert.Len(t, result.Uploads, 3)
	assert.Equal(t, []string{"file-1"}, storeFiles)
	assert.True(t, errors.Is(result.Uploads[2].Err, os.ErrNotExist))
}

func TestPublish_Errors(t *testing.T) {
	files := writeFiles(t, "a.txt")
	failUpload := func(ctx context.Context, r openai.FileBytesRequest) (openai.File, error) {
		return openai.File{}, errors.New("quota")
	}
	okUpload := func(ctx context.Context, r openai.FileBytesRequest) (openai.File, error) {
		return openai.File{ID: "f"}, nil
	}
	storeCalled := false
	failStore := func(ctx context.Context, r openai.VectorStoreRequest) (openai.VectorStore, error) {
		storeCalled = true
		return openai.VectorStore{}, errors.New("boom")
	}

	p := &Publisher{logger: testLogger(), client: &fakeClient{CreateFileBytesFunc: failUpload, CreateVectorStoreFunc: failStore}}
	_, err := p.Publish(context.Background(), nil, "x")
	assert.ErrorIs(t, err, ErrNoFiles)

	_, err = p.Publish(context.Background(), files, "x")
	assert.ErrorIs(t, err, ErrNothingUploaded)
	assert.False(t, storeCalled)

	p.client = &fakeClient{CreateFileBytesFunc: okUpload, CreateVectorStoreFunc: failStore}
	_, err = p.Publish(context.Background(), files, "x")
	assert.ErrorContains(t, err, "creating vector store")

	p.maxFileSize = 1
	result, err := p.Publish(context.Background(), files, "x")
	assert.ErrorIs(t, err, ErrNothingUploaded)
	assert.ErrorContains(t, result.Uploads[0].Err, "byte limit")
}

func TestPublish_AgainstHTTPServer(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/files"):
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "assistants", r.FormValue("purpose"))
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "file-abc", "object": "file"})
		case strings.HasSuffix(r.URL.Path, "/vector_stores"):
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Notes", body["name"])
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "vs_http", "object": "vector_store", "name": "Notes"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	p, err := NewPublisher("sk-test", WithBaseURL(server.URL+"/v1"), WithHTTPClient(server.Client()), WithLogger(testLogger()))
	require.NoError(t, err)

	result, err := p.Publish(context.Background(), writeFiles(t, "notes.txt"), "Notes")
	require.NoError(t, err)
	assert.Equal(t, "vs_http", result.VectorStoreID)
	assert.Equal(t, []string{"POST /v1/files", "POST /v1/vector_stores"}, paths)
}

func TestUpdateEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	require.NoError(t, UpdateEnvFile(path, EnvVectorStoreID, "vs_1"))
	env, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{EnvVectorStoreID: "vs_1"}, env)

	require.NoError(t, os.WriteFile(path, []byte("OPENAI_API_KEY=sk-abc\nVECTOR_STORE_ID=old\n"), 0o600))
	require.NoError(t, UpdateEnvFile(path, EnvVectorStoreID, "vs_2"))
	env, err = godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"OPENAI_API_KEY": "sk-abc", EnvVectorStoreID: "vs_2"}, env)
}
