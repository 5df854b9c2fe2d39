// Package config loads and validates the backend configuration.
//
// Configuration hierarchy (later wins):
//  1. Hardcoded defaults (DefaultConfig)
//  2. Config file (.aidocs.yaml or an explicit path)
//  3. Environment variables (AIDOCS_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Sergey0703/aidocsbackend-sub002/internal/errors"
)

// DefaultConfigFile is the project-level configuration file name.
const DefaultConfigFile = ".aidocs.yaml"

// Config represents the complete backend configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Paths      PathsConfig      `yaml:"paths" json:"paths"`
	Retrieval  RetrievalConfig  `yaml:"retrieval" json:"retrieval"`
	Rerank     RerankConfig     `yaml:"rerank" json:"rerank"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Answer     AnswerConfig     `yaml:"answer" json:"answer"`
	Ingest     IngestConfig     `yaml:"ingest" json:"ingest"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// PathsConfig configures where documents and indices live.
type PathsConfig struct {
	// DocsDir is the directory of source documents to ingest.
	DocsDir string `yaml:"docs_dir" json:"docs_dir"`
	// IndexDir is where lexical, vector, and metadata stores are persisted.
	IndexDir string `yaml:"index_dir" json:"index_dir"`
}

// RetrievalConfig configures the multi-strategy retriever and fusion engine.
type RetrievalConfig struct {
	// MaxResults is the default number of results returned per query.
	MaxResults int `yaml:"max_results" json:"max_results"`

	// CandidatesPerStrategy is how many candidates each adapter fetches.
	// Kept higher than MaxResults so fusion has enough evidence to merge.
	CandidatesPerStrategy int `yaml:"candidates_per_strategy" json:"candidates_per_strategy"`

	// CorroborationBonus is the fused-score multiplier step per additional
	// corroborating strategy (0.0-1.0). With bonus b and n strategies the
	// fused score is max(scores) * (1 + b*(n-1)), capped at 1.0.
	CorroborationBonus float64 `yaml:"corroboration_bonus" json:"corroboration_bonus"`

	// Parallelism bounds concurrent adapter invocations.
	Parallelism int `yaml:"parallelism" json:"parallelism"`

	// VectorEnabled, LexicalEnabled, EntityEnabled toggle individual adapters.
	VectorEnabled  bool `yaml:"vector_enabled" json:"vector_enabled"`
	LexicalEnabled bool `yaml:"lexical_enabled" json:"lexical_enabled"`
	EntityEnabled  bool `yaml:"entity_enabled" json:"entity_enabled"`
}

// RerankConfig configures the optional LLM re-ranking stage.
type RerankConfig struct {
	// Enabled gates the whole re-ranking stage.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Host is the Ollama endpoint used for relevance scoring.
	Host string `yaml:"host" json:"host"`

	// Model is the scoring model name.
	Model string `yaml:"model" json:"model"`

	// Timeout is the per-candidate scoring timeout.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Concurrency bounds in-flight scoring requests.
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	// Threshold drops candidates whose LLM score (0-10) falls below it.
	// 0 disables threshold filtering; negative verdicts still drop.
	Threshold float64 `yaml:"threshold" json:"threshold"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the embedder: "ollama" (default) or "static".
	Provider   string `yaml:"provider" json:"provider"`
	Host       string `yaml:"host" json:"host"`
	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`
	BatchSize  int    `yaml:"batch_size" json:"batch_size"`
	CacheSize  int    `yaml:"cache_size" json:"cache_size"`
}

// AnswerConfig configures answer generation from retrieved context.
type AnswerConfig struct {
	Host             string        `yaml:"host" json:"host"`
	Model            string        `yaml:"model" json:"model"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout"`
	MaxContextChunks int           `yaml:"max_context_chunks" json:"max_context_chunks"`
}

// IngestConfig configures document chunking and watching.
type IngestConfig struct {
	// ChunkSize is the target chunk size in characters.
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`
	// ChunkOverlap is the overlap between adjacent chunks in characters.
	ChunkOverlap int `yaml:"chunk_overlap" json:"chunk_overlap"`
	// WatchDebounce is the file-watcher debounce window.
	WatchDebounce time.Duration `yaml:"watch_debounce" json:"watch_debounce"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns the hardcoded default configuration.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			DocsDir:  "./docs",
			IndexDir: "./.aidocs/index",
		},
		Retrieval: RetrievalConfig{
			MaxResults:            10,
			CandidatesPerStrategy: 50,
			CorroborationBonus:    0.1,
			Parallelism:           4,
			VectorEnabled:         true,
			LexicalEnabled:        true,
			EntityEnabled:         true,
		},
		Rerank: RerankConfig{
			Enabled:     false,
			Host:        "http://localhost:11434",
			Model:       "qwen3:0.6b",
			Timeout:     10 * time.Second,
			Concurrency: 8,
			Threshold:   4.0,
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "ollama",
			Host:      "http://localhost:11434",
			Model:     "nomic-embed-text",
			BatchSize: 32,
			CacheSize: 1000,
		},
		Answer: AnswerConfig{
			Host:             "http://localhost:11434",
			Model:            "qwen3:4b",
			Timeout:          60 * time.Second,
			MaxContextChunks: 6,
		},
		Ingest: IngestConfig{
			ChunkSize:     1500,
			ChunkOverlap:  200,
			WatchDebounce: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the given path (or DefaultConfigFile when
// empty), merges it over the defaults, and applies environment overrides.
// A missing file is not an error; defaults are used.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.New(apperrors.ErrCodeConfigInvalid,
				fmt.Sprintf("invalid config file %s: %v", path, err), err)
		}
	case os.IsNotExist(err):
		// Fall through to defaults.
	default:
		return nil, apperrors.New(apperrors.ErrCodeConfigNotFound,
			fmt.Sprintf("cannot read config file %s: %v", path, err), err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies AIDOCS_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("AIDOCS_DOCS_DIR"); v != "" {
		c.Paths.DocsDir = v
	}
	if v := os.Getenv("AIDOCS_INDEX_DIR"); v != "" {
		c.Paths.IndexDir = v
	}
	if v := os.Getenv("AIDOCS_OLLAMA_HOST"); v != "" {
		c.Embeddings.Host = v
		c.Rerank.Host = v
		c.Answer.Host = v
	}
	if v := os.Getenv("AIDOCS_EMBED_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("AIDOCS_EMBED_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("AIDOCS_RERANK_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Rerank.Enabled = b
		}
	}
	if v := os.Getenv("AIDOCS_RERANK_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Rerank.Threshold = f
		}
	}
	if v := os.Getenv("AIDOCS_CORROBORATION_BONUS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Retrieval.CorroborationBonus = f
		}
	}
	if v := os.Getenv("AIDOCS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for fatal errors.
// Invalid retrieval configuration is surfaced here, at startup, because a
// per-query failure would be unrecoverable and masking it would mislead.
func (c *Config) Validate() error {
	if !c.Retrieval.VectorEnabled && !c.Retrieval.LexicalEnabled && !c.Retrieval.EntityEnabled {
		return apperrors.New(apperrors.ErrCodeNoAdapters,
			"no retrieval strategies enabled", nil).
			WithSuggestion("enable at least one of retrieval.vector_enabled, lexical_enabled, entity_enabled")
	}
	if c.Retrieval.CorroborationBonus < 0 || c.Retrieval.CorroborationBonus > 1 {
		return apperrors.ConfigError(
			fmt.Sprintf("retrieval.corroboration_bonus must be in [0,1], got %v", c.Retrieval.CorroborationBonus), nil)
	}
	if c.Retrieval.MaxResults <= 0 {
		return apperrors.ConfigError("retrieval.max_results must be positive", nil)
	}
	if c.Rerank.Threshold < 0 || c.Rerank.Threshold > 10 {
		return apperrors.ConfigError(
			fmt.Sprintf("rerank.threshold must be in [0,10], got %v", c.Rerank.Threshold), nil)
	}
	if c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return apperrors.ConfigError("ingest.chunk_overlap must be smaller than ingest.chunk_size", nil)
	}
	switch strings.ToLower(c.Embeddings.Provider) {
	case "", "ollama", "static":
	default:
		return apperrors.ConfigError(
			fmt.Sprintf("unknown embeddings.provider %q", c.Embeddings.Provider), nil)
	}
	return nil
}

// Save writes the configuration to the given path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return apperrors.InternalError("cannot marshal config", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.ConfigError("cannot create config directory", err)
	}
	return os.WriteFile(path, data, 0o644)
}
