// Package config loads the fileoracle application configuration from YAML,
// layered with .env files and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/poiesic/fileoracle/ai"
	"github.com/poiesic/fileoracle/answer"
	"github.com/poiesic/fileoracle/core"
	"github.com/poiesic/fileoracle/extract"
	"github.com/poiesic/fileoracle/filesearch"
	"github.com/poiesic/fileoracle/hosted"
	"github.com/poiesic/fileoracle/ingestion"
	"github.com/poiesic/fileoracle/search"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvRoots         = "FILEORACLE_ROOTS"
	EnvAPIKey        = "OPENAI_API_KEY"
	EnvVectorStoreID = hosted.EnvVectorStoreID
	EnvGoogleCreds   = "FILEORACLE_GOOGLE_CREDENTIALS"
)

// SearchConfig holds the search agent tunables.
type SearchConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	CallTimeout   time.Duration `yaml:"call_timeout"`
	NameThreshold int           `yaml:"name_threshold"`
	MinMatches    int           `yaml:"min_matches"`
	NumKeywords   int           `yaml:"num_keywords"`
	MaxDepth      int           `yaml:"max_depth"`
	MaxAttempts   int           `yaml:"max_attempts"`
	MaxResults    int           `yaml:"max_results"`
	MaxFileSize   string        `yaml:"max_file_size"` // e.g. "10 MiB" or "25MB"
	ExcludeDirs   []string      `yaml:"exclude_dirs"`
	PoolSize      int           `yaml:"pool_size"`
}

// IndexConfig holds retrieval index settings.
type IndexConfig struct {
	Path         string   `yaml:"path"`
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
	BatchSize    int      `yaml:"batch_size"`
	TopK         int      `yaml:"top_k"`
	Candidates   int      `yaml:"candidates"` // search candidates indexed per question, besides the best file
	Extensions   []string `yaml:"extensions"`
}

// AIConfig holds completion and embedding service settings.
type AIConfig struct {
	CompletionHost  string  `yaml:"completion_host"`
	EmbeddingHost   string  `yaml:"embedding_host"`
	CompletionModel string  `yaml:"completion_model"`
	EmbeddingModel  string  `yaml:"embedding_model"`
	APIKey          string  `yaml:"api_key,omitempty"`
	Temperature     float64 `yaml:"temperature"`
}

// HostedConfig holds hosted vector store settings.
type HostedConfig struct {
	BaseURL       string `yaml:"base_url,omitempty"`
	StoreName     string `yaml:"store_name"`
	VectorStoreID string `yaml:"vector_store_id,omitempty"`
	APIKey        string `yaml:"-"`
}

// GoogleConfig enables reading private Google Docs and Sheets.
// Leaving CredentialsFile empty limits gdoc:/gsheet: references to link-shared documents.
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file,omitempty"` // client secrets or service account key
	TokenFile       string `yaml:"token_file"`
}

// AppConfig is the root application configuration.
type AppConfig struct {
	// Roots are searched in priority order.
	Roots  []string     `yaml:"roots"`
	Search SearchConfig `yaml:"search"`
	Index  IndexConfig  `yaml:"index"`
	AI     AIConfig     `yaml:"ai"`
	Hosted HostedConfig `yaml:"hosted"`
	Google GoogleConfig `yaml:"google"`
}

// DefaultPath returns ~/.config/fileoracle/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "fileoracle", "config.yaml"), nil
}

// Default returns the configuration used when no file exists.
func Default() *AppConfig {
	limits := filesearch.DefaultLimits()
	aiCfg := ai.DefaultConfig()
	cfg := &AppConfig{
		Roots: []string{"~/Documents"},
		Search: SearchConfig{
			Timeout:       limits.Timeout,
			CallTimeout:   30 * time.Second,
			NameThreshold: search.DefaultNameThreshold,
			MinMatches:    search.DefaultMinMatches,
			NumKeywords:   search.DefaultNumKeywords,
			MaxDepth:      search.DefaultMaxDepth,
			MaxAttempts:   search.DefaultMaxAttempts,
			MaxFileSize:   humanize.IBytes(uint64(limits.MaxFileSize)),
			ExcludeDirs:   limits.ExcludeDirs,
		},
		Index: IndexConfig{
			Path:         "~/.local/share/fileoracle/index",
			ChunkSize:    ingestion.DefaultChunkSize,
			ChunkOverlap: ingestion.DefaultChunkOverlap,
			BatchSize:    ingestion.DefaultBatchSize,
			TopK:         answer.DefaultTopK,
			Candidates:   2,
			Extensions:   extract.SupportedExtensions(),
		},
		AI: AIConfig{
			CompletionHost:  aiCfg.CompletionHost,
			EmbeddingHost:   aiCfg.EmbeddingHost,
			CompletionModel: aiCfg.CompletionModel,
			EmbeddingModel:  aiCfg.EmbeddingModel,
			Temperature:     aiCfg.Temperature,
		},
		Hosted: HostedConfig{StoreName: hosted.DefaultStoreName},
		Google: GoogleConfig{TokenFile: "~/.config/fileoracle/google-token.json"},
	}
	return cfg
}

// Load reads the config at path. A missing file yields defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		cfg = &AppConfig{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		applyDefaults(cfg)
	}
	applyEnv(cfg)
	return cfg, nil
}

// LoadDefault loads the config from DefaultPath, writing defaults there
// first when the file does not exist yet.
func LoadDefault() (*AppConfig, string, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(path, Default()); err != nil {
			return nil, "", err
		}
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// Save writes cfg to path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadEnvFile loads variables from a .env file without overriding ones
// already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *AppConfig) {
	def := Default()
	if len(cfg.Roots) == 0 {
		cfg.Roots = def.Roots
	}

	s := &cfg.Search
	if s.Timeout <= 0 {
		s.Timeout = def.Search.Timeout
	}
	if s.CallTimeout <= 0 {
		s.CallTimeout = def.Search.CallTimeout
	}
	if s.NameThreshold < 1 {
		s.NameThreshold = def.Search.NameThreshold
	}
	if s.MinMatches < 1 {
		s.MinMatches = def.Search.MinMatches
	}
	if s.NumKeywords < 1 {
		s.NumKeywords = def.Search.NumKeywords
	}
	if s.MaxDepth < 1 {
		s.MaxDepth = def.Search.MaxDepth
	}
	if s.MaxAttempts < 1 {
		s.MaxAttempts = def.Search.MaxAttempts
	}
	if s.MaxFileSize == "" {
		s.MaxFileSize = def.Search.MaxFileSize
	}
	if s.ExcludeDirs == nil {
		s.ExcludeDirs = def.Search.ExcludeDirs
	}

	idx := &cfg.Index
	if idx.Path == "" {
		idx.Path = def.Index.Path
	}
	if idx.ChunkSize <= 0 {
		idx.ChunkSize = def.Index.ChunkSize
	}
	if idx.ChunkOverlap < 0 {
		idx.ChunkOverlap = def.Index.ChunkOverlap
	}
	if idx.BatchSize <= 0 {
		idx.BatchSize = def.Index.BatchSize
	}
	if idx.TopK <= 0 {
		idx.TopK = def.Index.TopK
	}
	if idx.Candidates < 0 {
		idx.Candidates = 0
	}
	if len(idx.Extensions) == 0 {
		idx.Extensions = def.Index.Extensions
	}

	a := &cfg.AI
	if a.CompletionHost == "" {
		a.CompletionHost = def.AI.CompletionHost
	}
	if a.EmbeddingHost == "" {
		a.EmbeddingHost = a.CompletionHost
	}
	if a.CompletionModel == "" {
		a.CompletionModel = def.AI.CompletionModel
	}
	if a.EmbeddingModel == "" {
		a.EmbeddingModel = def.AI.EmbeddingModel
	}

	if cfg.Hosted.StoreName == "" {
		cfg.Hosted.StoreName = def.Hosted.StoreName
	}
	if cfg.Google.TokenFile == "" {
		cfg.Google.TokenFile = def.Google.TokenFile
	}
}

func applyEnv(cfg *AppConfig) {
	if roots := os.Getenv(EnvRoots); roots != "" {
		var list []string
		for _, r := range filepath.SplitList(roots) {
			if r = strings.TrimSpace(r); r != "" {
				list = append(list, r)
			}
		}
		if len(list) > 0 {
			cfg.Roots = list
		}
	}
	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.Hosted.APIKey = key
		if cfg.AI.APIKey == "" {
			cfg.AI.APIKey = key
		}
	}
	if id := os.Getenv(EnvVectorStoreID); id != "" {
		cfg.Hosted.VectorStoreID = id
	}
	if creds := os.Getenv(EnvGoogleCreds); creds != "" {
		cfg.Google.CredentialsFile = creds
	}
}

// Validate checks the configuration and expands ~ in paths.
func (c *AppConfig) Validate() error {
	roots := make([]string, 0, len(c.Roots))
	for _, r := range c.Roots {
		roots = append(roots, ExpandHome(r))
	}
	if err := core.ValidateRoots(roots); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	c.Roots = roots
	c.Index.Path = ExpandHome(c.Index.Path)
	c.Google.CredentialsFile = ExpandHome(c.Google.CredentialsFile)
	c.Google.TokenFile = ExpandHome(c.Google.TokenFile)

	if _, err := c.Limits(); err != nil {
		return err
	}
	if c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			ErrInvalidConfig, c.Index.ChunkOverlap, c.Index.ChunkSize)
	}
	if err := c.AIConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Limits converts the search settings into file search limits.
func (c *AppConfig) Limits() (filesearch.Limits, error) {
	limits := filesearch.DefaultLimits()
	limits.Timeout = c.Search.Timeout
	limits.MaxDepth = c.Search.MaxDepth
	limits.ExcludeDirs = c.Search.ExcludeDirs
	if c.Search.MaxFileSize != "" {
		size, err := humanize.ParseBytes(c.Search.MaxFileSize)
		if err != nil {
			return limits, fmt.Errorf("%w: max_file_size: %w", ErrInvalidConfig, err)
		}
		limits.MaxFileSize = int64(size)
	}
	return limits, nil
}

// AIConfig converts the AI settings.
func (c *AppConfig) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithCompletionHost(c.AI.CompletionHost),
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithCompletionModel(c.AI.CompletionModel),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithAPIKey(c.AI.APIKey),
		ai.WithTemperature(c.AI.Temperature),
	)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
