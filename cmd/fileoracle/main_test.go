package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/poiesic/fileoracle"
	"github.com/poiesic/fileoracle/ai/mock"
	"github.com/poiesic/fileoracle/config"
	"github.com/poiesic/fileoracle/extract"
	"github.com/poiesic/fileoracle/filesearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func init() {
	color.NoColor = true
}

type testApp struct {
	*cliApp
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	dir    string
	config string
}

// newTestApp writes a config rooted at root and wires mock AI services.
func newTestApp(t *testing.T, root string, completer *mock.MockCompleter, mutate func(*config.AppConfig)) *testApp {
	t.Helper()
	t.Setenv(config.EnvRoots, "")
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvVectorStoreID, "")
	t.Setenv(config.EnvGoogleCreds, "")

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Roots = []string{root}
	cfg.Index.Path = filepath.Join(dir, "index")
	cfg.Search.MaxAttempts = 2
	if mutate != nil {
		mutate(cfg)
	}
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.Save(path, cfg))

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{0, 1}, nil
	}
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{0, 1}
		}
		return vectors, nil
	}
	return &testApp{
		cliApp: &cliApp{
			in:     strings.NewReader(""),
			out:    stdout,
			errOut: stderr,
			oracleOptions: []fileoracle.Option{
				fileoracle.WithProvider(mock.NewMockProviderWithServices(completer, embedder)),
				fileoracle.WithSearcher(filesearch.NewWalker(filesearch.DefaultLimits(), logger)),
				fileoracle.WithLogger(logger),
			},
		},
		stdout: stdout,
		stderr: stderr,
		dir:    dir,
		config: path,
	}
}

func (a *testApp) run(args ...string) error {
	full := append([]string{"fileoracle", "--config", a.config, "--env-file", filepath.Join(a.dir, ".env")}, args...)
	return a.newApp().Run(full)
}

func routedCompleter(keywords, rerank, answer string) *mock.MockCompleter {
	c := mock.NewMockCompleter()
	c.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		switch {
		case strings.HasPrefix(prompt, "Given the search query"), strings.HasPrefix(prompt, "Refine"):
			return keywords, nil
		case strings.Contains(prompt, "subdirectories"):
			return "none", nil
		case strings.Contains(prompt, "which of the following files"):
			return rerank, nil
		default:
			return answer, nil
		}
	}
	return c
}

func budgetRoot(t *testing.T) (root, report string) {
	t.Helper()
	root = t.TempDir()
	report = filepath.Join(root, "budget_report.txt")
	require.NoError(t, os.WriteFile(report, []byte("Budget report. The Q4 budget is 42 thousand."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "groceries.txt"), []byte("milk, eggs"), 0o644))
	return root, report
}

func TestGlobalFlags(t *testing.T) {
	t.Run("invalid log level", func(t *testing.T) {
		app := newTestApp(t, t.TempDir(), mock.NewMockCompleter(), nil)
		err := app.run("--log-level", "loud", "search", "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log level has default value", func(t *testing.T) {
		app := (&cliApp{}).newApp()
		var levelFlag *cli.StringFlag
		for _, flag := range app.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "log-level" {
				levelFlag = f
			}
		}
		require.NotNil(t, levelFlag)
		assert.Equal(t, "warn", levelFlag.Value)
	})
}

func TestSearchCommand(t *testing.T) {
	root, report := budgetRoot(t)

	t.Run("prints best match and candidates", func(t *testing.T) {
		app := newTestApp(t, root, routedCompleter("budget, report", report, ""), nil)
		require.NoError(t, app.run("search", "find", "my", "budget", "report"))

		out := app.stdout.String()
		assert.Contains(t, out, "Best match: "+report)
		assert.Contains(t, out, "Candidates (1):")
	})

	t.Run("nothing found is not an error", func(t *testing.T) {
		app := newTestApp(t, root, routedCompleter("quantum, flux", "", ""), nil)
		require.NoError(t, app.run("search", "quantum flux"))
		assert.Contains(t, app.stdout.String(), "No files found matching your query.")
	})

	t.Run("missing query", func(t *testing.T) {
		app := newTestApp(t, root, mock.NewMockCompleter(), nil)
		require.NoError(t, app.run("search"))
		assert.Contains(t, app.stdout.String(), "Please provide a query.")
	})

	t.Run("invalid config fails", func(t *testing.T) {
		app := newTestApp(t, root, mock.NewMockCompleter(), func(cfg *config.AppConfig) {
			cfg.Search.MaxFileSize = "huge"
		})
		err := app.run("search", "budget")
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("writes metrics file", func(t *testing.T) {
		app := newTestApp(t, root, routedCompleter("budget, report", report, ""), nil)
		metricsFile := filepath.Join(app.dir, "fileoracle.prom")
		require.NoError(t, app.run("--metrics-file", metricsFile, "search", "budget report"))

		data, err := os.ReadFile(metricsFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), `fileoracle_searches_total{outcome="ok"} 1`)
	})
}

func TestAskCommand(t *testing.T) {
	root, report := budgetRoot(t)

	t.Run("answers with citations", func(t *testing.T) {
		app := newTestApp(t, root, routedCompleter("budget, report", report, "It is 42 thousand."), nil)
		require.NoError(t, app.run("ask", "what is the Q4 budget in my report?"))

		out := app.stdout.String()
		assert.Contains(t, out, "Extracted text from: "+report)
		assert.Contains(t, out, "It is 42 thousand.\n\nCitations:\n- "+report)
	})

	t.Run("prompts when no query is given", func(t *testing.T) {
		app := newTestApp(t, root, routedCompleter("budget, report", report, "42."), nil)
		app.in = strings.NewReader("budget report total\n")
		require.NoError(t, app.run("ask"))

		out := app.stdout.String()
		assert.Contains(t, out, "Enter your query: ")
		assert.Contains(t, out, "Citations:")
	})

	t.Run("nothing found", func(t *testing.T) {
		app := newTestApp(t, root, routedCompleter("quantum, flux", "", ""), nil)
		require.NoError(t, app.run("ask", "quantum flux"))
		assert.Contains(t, app.stdout.String(), fileoracle.NoRelevantContent)
	})
}

func TestIndexCommand(t *testing.T) {
	root, _ := budgetRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "photo.jpg"), []byte{0xff, 0xd8}, 0o644))

	t.Run("indexes a directory", func(t *testing.T) {
		app := newTestApp(t, root, mock.NewMockCompleter(), nil)
		require.NoError(t, app.run("index", "--dir", root))
		assert.Contains(t, app.stdout.String(), "Indexed 2 files (2 chunks), 0 unchanged")
	})

	t.Run("extension filter", func(t *testing.T) {
		app := newTestApp(t, root, mock.NewMockCompleter(), nil)
		require.NoError(t, app.run("index", "--dir", root, "--extensions", "md"))
		assert.Contains(t, app.stdout.String(), "Indexed 0 files")
	})

	t.Run("reports failures", func(t *testing.T) {
		app := newTestApp(t, root, mock.NewMockCompleter(), nil)
		missing := filepath.Join(root, "missing.txt")
		require.NoError(t, app.run("index", "--files", missing))
		out := app.stdout.String()
		assert.Contains(t, out, "failed  "+missing)
		assert.Contains(t, out, ", 1 failed")
	})

	t.Run("requires input", func(t *testing.T) {
		app := newTestApp(t, root, mock.NewMockCompleter(), nil)
		err := app.run("index")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--dir or --files")
	})
}

func TestReembedCommand(t *testing.T) {
	root, _ := budgetRoot(t)

	t.Run("embedding-model is required", func(t *testing.T) {
		app := newTestApp(t, root, mock.NewMockCompleter(), nil)
		err := app.run("reembed")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding-model")
	})

	t.Run("batch-size must be positive", func(t *testing.T) {
		app := newTestApp(t, root, mock.NewMockCompleter(), nil)
		err := app.run("reembed", "--embedding-model", "nomic-embed-text", "--batch-size", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch-size")
	})

	t.Run("reembeds an empty index", func(t *testing.T) {
		app := newTestApp(t, root, mock.NewMockCompleter(), nil)
		require.NoError(t, app.run("reembed", "--embedding-model", "nomic-embed-text"))
		out := app.stdout.String()
		assert.Contains(t, out, "Embedding model: nomic-embed-text")
		assert.Contains(t, out, "Reembedded 0 chunks")
	})

	t.Run("flag defaults", func(t *testing.T) {
		app := (&cliApp{}).newApp()
		var cmd *cli.Command
		for _, c := range app.Commands {
			if c.Name == "reembed" {
				cmd = c
			}
		}
		require.NotNil(t, cmd)
		for _, flag := range cmd.Flags {
			switch f := flag.(type) {
			case *cli.IntFlag:
				if f.Name == "batch-size" {
					assert.Equal(t, 100, f.Value)
				}
				if f.Name == "max-retries" {
					assert.Equal(t, 3, f.Value)
				}
			case *cli.StringFlag:
				if f.Name == "embedding-model" {
					assert.True(t, f.Required)
					assert.Empty(t, f.EnvVars)
				}
			}
		}
	})
}

func TestPublishCommand(t *testing.T) {
	docs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docs, "plan.md"), []byte("# Plan"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "photo.jpg"), []byte{0xff}, 0o644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/files"):
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "file-1", "object": "file"})
		case strings.HasSuffix(r.URL.Path, "/vector_stores"):
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "vs_cli", "object": "vector_store", "name": "Docs"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	withServer := func(cfg *config.AppConfig) { cfg.Hosted.BaseURL = server.URL + "/v1" }

	t.Run("uploads and updates env", func(t *testing.T) {
		app := newTestApp(t, docs, mock.NewMockCompleter(), withServer)
		t.Setenv(config.EnvAPIKey, "sk-test")
		require.NoError(t, app.run("publish", "--dir", docs, "--name", "Docs", "--update-env"))

		out := app.stdout.String()
		assert.Contains(t, out, "uploaded "+filepath.Join(docs, "plan.md"))
		assert.NotContains(t, out, "photo.jpg")
		assert.Contains(t, out, `Created vector store "Docs" with ID vs_cli (1 of 1 files)`)

		env, err := godotenv.Read(filepath.Join(app.dir, ".env"))
		require.NoError(t, err)
		assert.Equal(t, "vs_cli", env["VECTOR_STORE_ID"])
	})

	t.Run("requires an API key", func(t *testing.T) {
		app := newTestApp(t, docs, mock.NewMockCompleter(), withServer)
		err := app.run("publish", "--dir", docs)
		require.Error(t, err)
	})
}

func TestGoogleLoginCommand(t *testing.T) {
	var (
		mu    sync.Mutex
		codes []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		mu.Lock()
		codes = append(codes, r.PostForm.Get("code"))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-" + r.PostForm.Get("code"),
			"token_type":    "Bearer",
			"refresh_token": "rt",
			"expires_in":    3600,
		})
	}))
	defer server.Close()

	withGoogle := func(t *testing.T) func(*config.AppConfig) {
		dir := t.TempDir()
		creds := filepath.Join(dir, "credentials.json")
		data := fmt.Sprintf(`{"installed": {"client_id": "c", "client_secret": "s",
			"redirect_uris": ["http://localhost"], "auth_uri": "https://accounts.example.com/auth",
			"token_uri": %q}}`, server.URL+"/token")
		require.NoError(t, os.WriteFile(creds, []byte(data), 0o600))
		return func(cfg *config.AppConfig) {
			cfg.Google.CredentialsFile = creds
			cfg.Google.TokenFile = filepath.Join(dir, "token.json")
		}
	}

	t.Run("prompts for the code", func(t *testing.T) {
		app := newTestApp(t, t.TempDir(), mock.NewMockCompleter(), withGoogle(t))
		app.in = strings.NewReader("abc\n")

		require.NoError(t, app.run("google-login"))

		out := app.stdout.String()
		assert.Contains(t, out, "https://accounts.example.com/auth?")
		assert.Contains(t, out, "Saved Google token to ")
		cfg, err := config.Load(app.config)
		require.NoError(t, err)
		tok, err := extract.LoadGoogleToken(cfg.Google.TokenFile)
		require.NoError(t, err)
		assert.Equal(t, "at-abc", tok.AccessToken)
		assert.Equal(t, "rt", tok.RefreshToken)
	})

	t.Run("code flag", func(t *testing.T) {
		app := newTestApp(t, t.TempDir(), mock.NewMockCompleter(), withGoogle(t))
		require.NoError(t, app.run("google-login", "--code", "xyz"))
		assert.NotContains(t, app.stdout.String(), "Enter the authorization code")
		mu.Lock()
		defer mu.Unlock()
		assert.Contains(t, codes, "xyz")
	})

	t.Run("empty code", func(t *testing.T) {
		app := newTestApp(t, t.TempDir(), mock.NewMockCompleter(), withGoogle(t))
		err := app.run("google-login")
		assert.ErrorContains(t, err, "no authorization code")
	})

	t.Run("requires credentials", func(t *testing.T) {
		app := newTestApp(t, t.TempDir(), mock.NewMockCompleter(), nil)
		err := app.run("google-login")
		assert.ErrorContains(t, err, config.EnvGoogleCreds)
	})
}
