package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/ragmcp/ragmcp/internal/cache"
	"github.com/ragmcp/ragmcp/internal/chunk"
	"github.com/ragmcp/ragmcp/internal/config"
	"github.com/ragmcp/ragmcp/internal/embed"
	"github.com/ragmcp/ragmcp/internal/ingest"
	"github.com/ragmcp/ragmcp/internal/parse"
	"github.com/ragmcp/ragmcp/internal/store"
)

// app bundles the long-lived resources every subcommand assembles the
// same way: validated config, the locked index, the embedding client,
// the chunk cache, and the ingestion pipeline over all of them.
type app struct {
	cfg        *config.Config
	db         *store.DB
	embedder   embed.Embedder
	chunkCache *cache.ChunkEmbeddingCache
	registry   *parse.Registry
	pipeline   *ingest.Pipeline
	lock       *flock.Flock
	logger     *slog.Logger
}

// openApp loads config, takes the single-writer file lock next to the
// index, opens storage, and wires the pipeline. Call close when done.
func openApp(ctx context.Context) (*app, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	logger := slog.Default()

	lockPath := cfg.Ragmcp.DBPath + ".lock"
	if dir := filepath.Dir(lockPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire index lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another ragmcp process holds the index lock at %s", lockPath)
	}

	db, err := store.Open(ctx, cfg.Ragmcp.DBPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	embedder := buildEmbedder(cfg)
	chunkCache := cache.New()
	registry := parse.NewRegistry(logger)

	a := &app{
		cfg:        cfg,
		db:         db,
		embedder:   embedder,
		chunkCache: chunkCache,
		registry:   registry,
		pipeline: &ingest.Pipeline{
			DB:         db,
			Registry:   registry,
			Embedder:   embedder,
			ChunkCache: chunkCache,
			ChunkCfg: chunk.Config{
				SizeTokens:    cfg.Performance.ChunkSizeTokens,
				OverlapTokens: cfg.Performance.ChunkOverlapTokens,
			},
			Logger: logger,
		},
		lock:   lock,
		logger: logger,
	}

	if err := a.loadChunkCache(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) close() {
	_ = a.embedder.Close()
	_ = a.db.Close()
	_ = a.lock.Unlock()
}

// loadChunkCache bulk-loads every stored embedding so vector search
// starts on the in-memory path instead of the full-scan fallback.
func (a *app) loadChunkCache(ctx context.Context) error {
	embeddings, err := a.db.AllEmbeddedChunkIDs(ctx)
	if err != nil {
		return err
	}
	docIDs := make(map[string]string, len(embeddings))
	for chunkID := range embeddings {
		docIDs[chunkID] = chunkDocID(chunkID)
	}
	a.chunkCache.Load(embeddings, docIDs)
	a.logger.Info("chunk embedding cache loaded", slog.Int("chunks", a.chunkCache.Len()))
	return nil
}

// chunkDocID strips the "::<ordinal>" suffix off a chunk ID.
func chunkDocID(chunkID string) string {
	if i := strings.Index(chunkID, "::"); i >= 0 {
		return chunkID[:i]
	}
	return chunkID
}

// buildEmbedder selects the provider from config: any OpenAI-compatible
// HTTP provider when a credential env var is named and the provider is
// not "static", the deterministic static embedder otherwise (offline
// operation and tests).
func buildEmbedder(cfg *config.Config) embed.Embedder {
	var inner embed.Embedder
	if cfg.Embeddings.Provider == "static" || cfg.Embeddings.APIKeyEnv == "" {
		inner = embed.NewStaticEmbedder(store.EmbeddingDimensions)
	} else {
		inner = embed.NewHTTPEmbedder(embed.HTTPEmbedderConfig{
			APIKey:     os.Getenv(cfg.Embeddings.APIKeyEnv),
			Model:      cfg.Embeddings.Model,
			Dimensions: cfg.Embeddings.Dimensions,
			BatchSize:  cfg.Embeddings.BatchSize,
			Timeout:    30 * time.Second,
		})
	}
	return embed.NewCachedEmbedder(inner, cfg.Embeddings.CacheCapacity)
}
