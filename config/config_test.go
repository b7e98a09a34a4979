package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvRoots, "")
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvVectorStoreID, "")
	t.Setenv(EnvGoogleCreds, "")
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 1000, cfg.Index.ChunkSize)
	assert.Equal(t, 100, cfg.Index.ChunkOverlap)
	assert.Equal(t, 5, cfg.Index.TopK)
}

func TestLoad_FillsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
roots:
  - /data/dropbox
  - /data/documents
search:
  timeout: 10s
  name_threshold: 5
  max_file_size: 2 MB
ai:
  completion_host: http://gpu-box:8080
  completion_model: llama3
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/dropbox", "/data/documents"}, cfg.Roots)
	assert.Equal(t, 10*time.Second, cfg.Search.Timeout)
	assert.Equal(t, 5, cfg.Search.NameThreshold)
	assert.Equal(t, Default().Search.MinMatches, cfg.Search.MinMatches)
	assert.Equal(t, "http://gpu-box:8080", cfg.AI.EmbeddingHost, "embedding host follows completion host")
	assert.Equal(t, "llama3", cfg.AI.CompletionModel)
	assert.Equal(t, Default().AI.EmbeddingModel, cfg.AI.EmbeddingModel)
	assert.Equal(t, Default().Index.Extensions, cfg.Index.Extensions)

	limits, err := cfg.Limits()
	require.NoError(t, err)
	assert.Equal(t, int64(2_000_000), limits.MaxFileSize)
	assert.Equal(t, 10*time.Second, limits.Timeout)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roots: [unclosed"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	roots := "/first" + string(os.PathListSeparator) + " " + string(os.PathListSeparator) + "/second"
	t.Setenv(EnvRoots, roots)
	t.Setenv(EnvAPIKey, "sk-test")
	t.Setenv(EnvVectorStoreID, "vs_123")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/first", "/second"}, cfg.Roots)
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.Equal(t, "sk-test", cfg.Hosted.APIKey)
	assert.Equal(t, "vs_123", cfg.Hosted.VectorStoreID)
}

func TestLoad_GoogleSettings(t *testing.T) {
	clearEnv(t)
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("google:\n  credentials_file: ~/secrets/google.json\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Google.TokenFile, cfg.Google.TokenFile)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, filepath.Join(home, "secrets", "google.json"), cfg.Google.CredentialsFile)
	assert.Equal(t, filepath.Join(home, ".config", "fileoracle", "google-token.json"), cfg.Google.TokenFile)

	t.Setenv(EnvGoogleCreds, "/etc/fileoracle/sa.json")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/etc/fileoracle/sa.json", cfg.Google.CredentialsFile)
}

func TestSaveAndLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Roots = []string{"/srv/files"}
	cfg.Search.MaxResults = 20

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))

	// godotenv never overrides a variable that is already set, even to "".
	require.NoError(t, os.Unsetenv(EnvVectorStoreID))
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("VECTOR_STORE_ID=vs_env\n"), 0o644))
	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "vs_env", os.Getenv(EnvVectorStoreID))
}

func TestValidate(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*AppConfig) {}},
		{name: "no roots", mutate: func(c *AppConfig) { c.Roots = nil }, wantErr: true},
		{name: "bad size", mutate: func(c *AppConfig) { c.Search.MaxFileSize = "lots" }, wantErr: true},
		{name: "overlap too large", mutate: func(c *AppConfig) { c.Index.ChunkOverlap = c.Index.ChunkSize }, wantErr: true},
		{name: "no model", mutate: func(c *AppConfig) { c.AI.CompletionModel = "" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{filepath.Join(home, "Documents")}, cfg.Roots)
			assert.True(t, filepath.IsAbs(cfg.Index.Path))
		})
	}
}

func TestAIConfig(t *testing.T) {
	cfg := Default()
	cfg.AI.APIKey = "secret"
	aiCfg := cfg.AIConfig()
	assert.Equal(t, cfg.AI.CompletionModel, aiCfg.CompletionModel)
	assert.Equal(t, "secret", aiCfg.APIKey)
	assert.NoError(t, aiCfg.Validate())
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, filepath.Join(home, "notes"), ExpandHome("~/notes"))
	assert.Equal(t, "/abs/~/x", ExpandHome("/abs/~/x"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
}
