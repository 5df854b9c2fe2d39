package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/config"
	"github.com/Sergey0703/aidocsbackend-sub002/internal/embed"
	"github.com/Sergey0703/aidocsbackend-sub002/internal/ingest"
	"github.com/Sergey0703/aidocsbackend-sub002/internal/retrieval"
	"github.com/Sergey0703/aidocsbackend-sub002/internal/store"
)

// timeRound is the display granularity for durations.
const timeRound = 10 * time.Millisecond

// Index file names inside the index directory.
const (
	lexicalIndexName  = "lexical.bleve"
	vectorIndexName   = "vectors.hnsw"
	metadataStoreName = "metadata.db"
)

// app bundles the opened stores and embedder shared by the commands.
type app struct {
	cfg      *config.Config
	lexical  store.LexicalIndex
	vectors  *store.HNSWStore
	meta     store.MetadataStore
	embedder embed.Embedder
}

// openApp loads config and opens all stores. The vector index is loaded
// from disk when a previous run saved one.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	indexDir := cfg.Paths.IndexDir
	if err := os.MkdirAll(indexDir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create index directory: %w", err)
	}

	embedder, err := embed.NewEmbedder(ctx, cfg.Embeddings.Provider, embed.OllamaConfig{
		Host:       cfg.Embeddings.Host,
		Model:      cfg.Embeddings.Model,
		Dimensions: cfg.Embeddings.Dimensions,
		BatchSize:  cfg.Embeddings.BatchSize,
	}, cfg.Embeddings.CacheSize)
	if err != nil {
		return nil, err
	}

	lexical, err := store.NewBleveLexicalIndex(filepath.Join(indexDir, lexicalIndexName))
	if err != nil {
		embedder.Close()
		return nil, err
	}

	vectors, err := store.NewHNSWStore(store.VectorStoreConfig{Dimensions: embedder.Dimensions()})
	if err != nil {
		lexical.Close()
		embedder.Close()
		return nil, err
	}
	vectorsPath := filepath.Join(indexDir, vectorIndexName)
	if _, err := os.Stat(vectorsPath); err == nil {
		if err := vectors.Load(vectorsPath); err != nil {
			vectors.Close()
			lexical.Close()
			embedder.Close()
			return nil, err
		}
	}

	meta, err := store.NewSQLiteMetadataStore(filepath.Join(indexDir, metadataStoreName))
	if err != nil {
		vectors.Close()
		lexical.Close()
		embedder.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		lexical:  lexical,
		vectors:  vectors,
		meta:     meta,
		embedder: embedder,
	}, nil
}

func (a *app) close() {
	a.meta.Close()
	a.vectors.Close()
	a.lexical.Close()
	a.embedder.Close()
}

func (a *app) vectorsPath() string {
	return filepath.Join(a.cfg.Paths.IndexDir, vectorIndexName)
}

// saveVectors persists the vector index to disk.
func (a *app) saveVectors() error {
	return a.vectors.Save(a.vectorsPath())
}

// newIndexer builds the ingest pipeline over the opened stores.
func (a *app) newIndexer() *ingest.Indexer {
	return ingest.NewIndexer(ingest.IndexerConfig{
		DocsDir:      a.cfg.Paths.DocsDir,
		ChunkSize:    a.cfg.Ingest.ChunkSize,
		ChunkOverlap: a.cfg.Ingest.ChunkOverlap,
		BatchSize:    a.cfg.Embeddings.BatchSize,
	}, a.embedder, a.lexical, a.vectors, a.meta)
}

// newPipeline builds the retrieval pipeline from the configured adapters.
func (a *app) newPipeline() (*retrieval.Pipeline, error) {
	var adapters []retrieval.Adapter
	if a.cfg.Retrieval.VectorEnabled {
		adapters = append(adapters, retrieval.NewVectorAdapter(a.embedder, a.vectors, a.meta))
	}
	if a.cfg.Retrieval.LexicalEnabled {
		adapters = append(adapters, retrieval.NewLexicalAdapter(a.lexical, a.meta))
	}
	if a.cfg.Retrieval.EntityEnabled {
		adapters = append(adapters, retrieval.NewEntityAdapter(a.lexical, a.meta))
	}

	retrievalCfg := retrieval.Config{
		MaxResults:            a.cfg.Retrieval.MaxResults,
		CandidatesPerStrategy: a.cfg.Retrieval.CandidatesPerStrategy,
		CorroborationBonus:    a.cfg.Retrieval.CorroborationBonus,
		Parallelism:           a.cfg.Retrieval.Parallelism,
	}

	var opts []retrieval.PipelineOption
	if a.cfg.Rerank.Enabled {
		reranker := retrieval.NewOllamaReranker(retrieval.OllamaRerankerConfig{
			Host:  a.cfg.Rerank.Host,
			Model: a.cfg.Rerank.Model,
		})
		opts = append(opts, retrieval.WithReranker(reranker, retrieval.BatchOptions{
			Timeout:     a.cfg.Rerank.Timeout,
			Concurrency: a.cfg.Rerank.Concurrency,
			Threshold:   a.cfg.Rerank.Threshold,
		}))
	}

	return retrieval.NewPipeline(adapters, retrievalCfg, opts...)
}
