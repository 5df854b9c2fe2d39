package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/embed"
	"github.com/Sergey0703/aidocsbackend-sub002/internal/errors"
	"github.com/Sergey0703/aidocsbackend-sub002/internal/store"
)

// indexableExtensions are the document formats the pipeline accepts.
var indexableExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".json":     true,
	".txt":      true,
}

// IsIndexable reports whether the pipeline accepts this file format.
func IsIndexable(path string) bool {
	return indexableExtensions[strings.ToLower(filepath.Ext(path))]
}

// Stats summarizes one indexing run.
type Stats struct {
	DocumentsScanned int
	DocumentsIndexed int
	DocumentsSkipped int
	DocumentsRemoved int
	ChunksIndexed    int
	Duration         time.Duration
}

// Indexer coordinates the ingest pipeline: scan the docs directory, chunk
// changed documents, embed in batches, and write all three stores.
type Indexer struct {
	docsDir   string
	chunker   *Chunker
	embedder  embed.Embedder
	lexical   store.LexicalIndex
	vectors   store.VectorStore
	meta      store.MetadataStore
	batchSize int
}

// IndexerConfig configures the indexer.
type IndexerConfig struct {
	// DocsDir is the root directory of source documents.
	DocsDir string

	// ChunkSize and ChunkOverlap tune the chunker (characters).
	ChunkSize    int
	ChunkOverlap int

	// BatchSize bounds how many chunks embed at once (default: 32).
	BatchSize int
}

// NewIndexer creates an indexer over the given stores.
func NewIndexer(cfg IndexerConfig, embedder embed.Embedder, lexical store.LexicalIndex, vectors store.VectorStore, meta store.MetadataStore) *Indexer {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = embed.DefaultBatchSize
	}
	return &Indexer{
		docsDir:   cfg.DocsDir,
		chunker:   NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		embedder:  embedder,
		lexical:   lexical,
		vectors:   vectors,
		meta:      meta,
		batchSize: batchSize,
	}
}

// IndexAll walks the docs directory and brings the indices in sync:
// changed documents are re-indexed, unchanged ones skipped by content
// hash, and documents that disappeared from disk are removed.
func (ix *Indexer) IndexAll(ctx context.Context) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}

	onDisk := make(map[string]bool)

	err := filepath.WalkDir(ix.docsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != ix.docsDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !indexableExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		rel, err := filepath.Rel(ix.docsDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		onDisk[rel] = true
		stats.DocumentsScanned++

		indexed, chunks, err := ix.indexFile(ctx, rel)
		if err != nil {
			return err
		}
		if indexed {
			stats.DocumentsIndexed++
			stats.ChunksIndexed += chunks
		} else {
			stats.DocumentsSkipped++
		}
		return nil
	})
	if err != nil {
		return nil, errors.IndexError("indexing walk failed", err)
	}

	// Remove documents no longer on disk.
	docs, err := ix.meta.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if onDisk[doc.Path] {
			continue
		}
		if err := ix.removeDocument(ctx, doc); err != nil {
			return nil, err
		}
		stats.DocumentsRemoved++
	}

	stats.Duration = time.Since(start)
	slog.Info("index_complete",
		slog.Int("scanned", stats.DocumentsScanned),
		slog.Int("indexed", stats.DocumentsIndexed),
		slog.Int("skipped", stats.DocumentsSkipped),
		slog.Int("removed", stats.DocumentsRemoved),
		slog.Int("chunks", stats.ChunksIndexed),
		slog.Duration("duration", stats.Duration))

	return stats, nil
}

// IndexFile indexes a single document given its path relative to the docs
// directory. Used by the watcher for incremental updates.
func (ix *Indexer) IndexFile(ctx context.Context, relPath string) error {
	_, _, err := ix.indexFile(ctx, filepath.ToSlash(relPath))
	return err
}

// RemoveFile removes a document and its chunks from all indices.
func (ix *Indexer) RemoveFile(ctx context.Context, relPath string) error {
	relPath = filepath.ToSlash(relPath)
	doc, err := ix.meta.GetDocumentByPath(ctx, relPath)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	return ix.removeDocument(ctx, doc)
}

// indexFile reads, chunks, embeds, and indexes one document. Returns
// (false, 0, nil) when the document is unchanged.
func (ix *Indexer) indexFile(ctx context.Context, relPath string) (bool, int, error) {
	absPath := filepath.Join(ix.docsDir, filepath.FromSlash(relPath))

	content, err := os.ReadFile(absPath)
	if err != nil {
		return false, 0, errors.New(errors.ErrCodeDocumentNotFound,
			"cannot read document "+relPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return false, 0, err
	}

	contentHash := hashBytes(content)

	// Skip unchanged documents.
	existing, err := ix.meta.GetDocumentByPath(ctx, relPath)
	if err != nil && !stderrors.Is(err, store.ErrNotFound) {
		return false, 0, err
	}
	if existing != nil && existing.ContentHash == contentHash {
		return false, 0, nil
	}

	doc := &store.Document{
		ID:          hashBytes([]byte(relPath)),
		Path:        relPath,
		Filename:    filepath.Base(relPath),
		ContentHash: contentHash,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		IndexedAt:   time.Now(),
	}

	chunks, err := ix.chunker.Chunk(doc, content)
	if err != nil {
		return false, 0, err
	}

	// Drop the previous version before writing the new one. Deleting the
	// document row cascades its chunk rows in the metadata store.
	if existing != nil {
		if err := ix.removeChunks(ctx, existing.ID); err != nil {
			return false, 0, err
		}
		if err := ix.meta.DeleteDocument(ctx, existing.ID); err != nil {
			return false, 0, err
		}
	}

	if err := ix.writeChunks(ctx, doc, chunks); err != nil {
		return false, 0, err
	}

	slog.Debug("document_indexed",
		slog.String("path", relPath),
		slog.Int("chunks", len(chunks)))

	return true, len(chunks), nil
}

// writeChunks persists a document and its chunks to all three stores.
func (ix *Indexer) writeChunks(ctx context.Context, doc *store.Document, chunks []*store.Chunk) error {
	if err := ix.meta.SaveDocument(ctx, doc); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}
	if err := ix.meta.SaveChunks(ctx, chunks); err != nil {
		return err
	}

	lexDocs := make([]*store.LexicalDoc, len(chunks))
	for i, chunk := range chunks {
		lexDocs[i] = &store.LexicalDoc{ID: chunk.ID, Content: chunk.Content}
	}
	if err := ix.lexical.Index(ctx, lexDocs); err != nil {
		return err
	}

	// Embed in batches to bound memory and request size.
	for start := 0; start < len(chunks); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		ids := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Content
			ids[i] = chunk.ID
		}

		vectors, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		if err := ix.vectors.Add(ctx, ids, vectors); err != nil {
			return err
		}
	}
	return nil
}

// removeDocument deletes a document and its chunks from all stores.
func (ix *Indexer) removeDocument(ctx context.Context, doc *store.Document) error {
	if err := ix.removeChunks(ctx, doc.ID); err != nil {
		return err
	}
	if err := ix.meta.DeleteDocument(ctx, doc.ID); err != nil {
		return err
	}
	slog.Debug("document_removed", slog.String("path", doc.Path))
	return nil
}

// removeChunks removes a document's chunks from the lexical and vector
// indices. The metadata rows cascade when the document row is deleted.
func (ix *Indexer) removeChunks(ctx context.Context, documentID string) error {
	ids, err := ix.meta.ChunkIDsByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := ix.lexical.Delete(ctx, ids); err != nil {
		return err
	}
	return ix.vectors.Delete(ctx, ids)
}

func hashBytes(b []byte) string {
	hash := sha256.Sum256(b)
	return hex.EncodeToString(hash[:])
}
