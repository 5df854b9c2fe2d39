// Package store provides the persistence layer for indexed documents:
// lexical search (Bleve), vector search (HNSW), and chunk metadata (SQLite).
package store

import (
	"context"
	"fmt"
	"time"
)

// ContentType represents the type of content in a chunk.
type ContentType string

const (
	ContentTypeMarkdown ContentType = "markdown"
	ContentTypeJSON     ContentType = "json"
	ContentTypeText     ContentType = "text"
)

// Chunk represents one indexed passage of a source document, the unit of
// retrieval.
type Chunk struct {
	ID          string            // SHA256(document path + position + content)
	DocumentID  string            // Parent document ID
	Filename    string            // Base name of the source document
	Path        string            // Path relative to the docs directory
	Section     string            // Heading path for markdown chunks
	Content     string            // Chunk text
	ContentType ContentType       // markdown, json, text
	Position    int               // 0-indexed position within the document
	Metadata    map[string]string // Open per-chunk annotations
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Document represents a tracked source document.
type Document struct {
	ID          string    // SHA256(relative path)
	Path        string    // Relative to the docs directory
	Filename    string    // Base name
	ContentHash string    // SHA256 of content
	Size        int64     // File size in bytes
	ModTime     time.Time // Last modification time
	IndexedAt   time.Time // When indexed
}

// LexicalDoc is the document shape fed to the lexical index.
type LexicalDoc struct {
	ID      string
	Content string
}

// LexicalResult is a single lexical search hit.
type LexicalResult struct {
	ChunkID      string
	Score        float64  // Raw BM25 score, unbounded
	MatchedTerms []string // Analyzer terms that matched in content
}

// VectorResult is a single vector search hit.
type VectorResult struct {
	ID       string
	Distance float32
	Score    float32 // Similarity in [0,1]
}

// LexicalIndex provides BM25 keyword search over chunks.
type LexicalIndex interface {
	// Index adds documents to the index.
	Index(ctx context.Context, docs []*LexicalDoc) error

	// Search executes an analyzed match query.
	Search(ctx context.Context, query string, limit int) ([]*LexicalResult, error)

	// SearchExact executes an exact phrase match, used for entity lookups.
	SearchExact(ctx context.Context, phrase string, limit int) ([]*LexicalResult, error)

	// Delete removes documents from the index.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of indexed documents.
	Count() (int, error)

	// Close releases index resources.
	Close() error
}

// VectorStore provides approximate nearest-neighbor search over embeddings.
type VectorStore interface {
	// Add inserts vectors with their IDs. Existing IDs are updated.
	Add(ctx context.Context, ids []string, vectors [][]float32) error

	// Search finds the k nearest neighbors to the query vector.
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)

	// Delete removes vectors by ID.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of stored vectors.
	Count() int

	// Save persists the store to disk.
	Save(path string) error

	// Load restores the store from disk.
	Load(path string) error

	// Close releases resources.
	Close() error
}

// MetadataStore persists documents and chunks.
type MetadataStore interface {
	SaveDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	GetDocumentByPath(ctx context.Context, path string) (*Document, error)
	ListDocuments(ctx context.Context) ([]*Document, error)
	DeleteDocument(ctx context.Context, id string) error

	SaveChunks(ctx context.Context, chunks []*Chunk) error
	GetChunk(ctx context.Context, id string) (*Chunk, error)
	GetChunks(ctx context.Context, ids []string) ([]*Chunk, error)
	ChunkIDsByDocument(ctx context.Context, documentID string) ([]string, error)

	Close() error
}

// VectorStoreConfig configures the HNSW vector store.
type VectorStoreConfig struct {
	Dimensions int
	Metric     string // "cos" (default) or "l2"
	M          int    // HNSW connectivity parameter
	EfSearch   int    // HNSW search depth
}

// ErrDimensionMismatch indicates a vector's dimension differs from the
// store's configured dimension.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
