// Package config loads and validates the engine's YAML configuration.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ragmcp/ragmcp/internal/ragerr"
)

// Config is the top-level configuration structure.
type Config struct {
	Ragmcp      RagmcpConfig      `yaml:"ragmcp"`
	Embeddings  EmbeddingsConfig  `yaml:"embeddings"`
	Search      SearchConfig      `yaml:"search"`
	Performance PerformanceConfig `yaml:"performance"`
}

// RagmcpConfig holds the engine's root paths.
type RagmcpConfig struct {
	RagFolder string `yaml:"rag_folder"`
	DBPath    string `yaml:"db_path"`
	LogLevel  string `yaml:"log_level"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	Provider      string `yaml:"provider"`
	Model         string `yaml:"model"`
	APIKeyEnv     string `yaml:"api_key_env"`
	BatchSize     int    `yaml:"batch_size"`
	Dimensions    int    `yaml:"dimensions"`
	CacheCapacity int    `yaml:"cache_capacity"`
}

// SearchConfig configures hybrid search defaults.
type SearchConfig struct {
	DefaultK           int     `yaml:"default_k"`
	MinScore           float32 `yaml:"min_score"`
	HybridBM25Weight   float32 `yaml:"hybrid_bm25_weight"`
	HybridVectorWeight float32 `yaml:"hybrid_vector_weight"`
}

// PerformanceConfig configures ingestion/runtime tuning.
type PerformanceConfig struct {
	MaxLatencyMS       int64 `yaml:"max_latency_ms"`
	ChunkSizeTokens    int   `yaml:"chunk_size_tokens"`
	ChunkOverlapTokens int   `yaml:"chunk_overlap_tokens"`
	WatchDebounceMS    int   `yaml:"watch_debounce_ms"`
}

const defaultConfigPath = "config.yaml"

// Load reads and validates the config file. The path is resolved from
// the RAGMCP_CONFIG environment variable, falling back to
// ./config.yaml.
func Load() (*Config, error) {
	path := os.Getenv("RAGMCP_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	return LoadFile(path)
}

// LoadFile reads and validates the config file at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ragerr.New(ragerr.Config, "failed to read config file: "+path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, ragerr.New(ragerr.Config, "failed to parse config file: "+path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the invariants the engine depends on at startup.
func (c *Config) Validate() error {
	info, err := os.Stat(c.Ragmcp.RagFolder)
	if err != nil {
		return ragerr.New(ragerr.Config, "rag_folder does not exist: "+c.Ragmcp.RagFolder, err)
	}
	if !info.IsDir() {
		return ragerr.New(ragerr.Config, "rag_folder must be a directory: "+c.Ragmcp.RagFolder, nil)
	}

	if c.Search.DefaultK <= 0 {
		return ragerr.New(ragerr.Config, "search.default_k must be greater than zero", nil)
	}
	if c.Search.MinScore < 0 || c.Search.MinScore > 1 {
		return ragerr.New(ragerr.Config, "search.min_score must be in [0,1]", nil)
	}
	if c.Performance.ChunkOverlapTokens >= c.Performance.ChunkSizeTokens {
		return ragerr.New(ragerr.Config, "performance.chunk_overlap_tokens must be less than chunk_size_tokens", nil)
	}

	if c.Embeddings.APIKeyEnv != "" {
		if strings.TrimSpace(os.Getenv(c.Embeddings.APIKeyEnv)) == "" {
			return ragerr.New(ragerr.Config, "embeddings.api_key_env names an unset variable: "+c.Embeddings.APIKeyEnv, nil)
		}
	}

	return nil
}

// Default returns a Config populated with the engine's documented
// defaults. LoadFile does not merge it into a loaded file: options
// missing from the YAML keep their zero values.
func Default() Config {
	return Config{
		Ragmcp: RagmcpConfig{
			DBPath:   ".ragmcp/index.db",
			LogLevel: "info",
		},
		Embeddings: EmbeddingsConfig{
			Provider:      "openai",
			Model:         "text-embedding-3-small",
			APIKeyEnv:     "RAGMCP_API_KEY",
			BatchSize:     32,
			Dimensions:    1536,
			CacheCapacity: 1000,
		},
		Search: SearchConfig{
			DefaultK:           5,
			MinScore:           0.65,
			HybridBM25Weight:   1.0,
			HybridVectorWeight: 1.0,
		},
		Performance: PerformanceConfig{
			MaxLatencyMS:       2000,
			ChunkSizeTokens:    512,
			ChunkOverlapTokens: 64,
			WatchDebounceMS:    500,
		},
	}
}
