package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteMetadataStore persists documents and chunks in SQLite.
// WAL mode allows concurrent readers during ingestion.
type SQLiteMetadataStore struct {
	db *sql.DB
}

// Verify interface implementation at compile time
var _ MetadataStore = (*SQLiteMetadataStore)(nil)

// ErrNotFound is returned when a requested document or chunk does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	path         TEXT NOT NULL UNIQUE,
	filename     TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	size         INTEGER NOT NULL,
	mod_time     INTEGER NOT NULL,
	indexed_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	id           TEXT PRIMARY KEY,
	document_id  TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	filename     TEXT NOT NULL,
	path         TEXT NOT NULL,
	section      TEXT NOT NULL DEFAULT '',
	content      TEXT NOT NULL,
	content_type TEXT NOT NULL,
	position     INTEGER NOT NULL,
	metadata     TEXT NOT NULL DEFAULT '{}',
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);
`

// NewSQLiteMetadataStore opens (or creates) the metadata database at path.
// An empty path opens an in-memory database for testing.
func NewSQLiteMetadataStore(path string) (*SQLiteMetadataStore, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create metadata directory: %w", err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata database: %w", err)
	}

	// Single connection avoids SQLITE_BUSY with the pure-Go driver.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteMetadataStore{db: db}, nil
}

// SaveDocument inserts or replaces a document row.
func (s *SQLiteMetadataStore) SaveDocument(ctx context.Context, doc *Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, path, filename, content_hash, size, mod_time, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path=excluded.path, filename=excluded.filename,
			content_hash=excluded.content_hash, size=excluded.size,
			mod_time=excluded.mod_time, indexed_at=excluded.indexed_at`,
		doc.ID, doc.Path, doc.Filename, doc.ContentHash, doc.Size,
		doc.ModTime.UnixNano(), doc.IndexedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	return nil
}

// GetDocument fetches a document by ID.
func (s *SQLiteMetadataStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, path, filename, content_hash, size, mod_time, indexed_at
		 FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// GetDocumentByPath fetches a document by its relative path.
func (s *SQLiteMetadataStore) GetDocumentByPath(ctx context.Context, path string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, path, filename, content_hash, size, mod_time, indexed_at
		 FROM documents WHERE path = ?`, path)
	return scanDocument(row)
}

// ListDocuments returns all tracked documents ordered by path.
func (s *SQLiteMetadataStore) ListDocuments(ctx context.Context) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, filename, content_hash, size, mod_time, indexed_at
		 FROM documents ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document and, via cascade, its chunks.
func (s *SQLiteMetadataStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

// SaveChunks inserts or replaces chunk rows in one transaction.
func (s *SQLiteMetadataStore) SaveChunks(ctx context.Context, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save chunks: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, filename, path, section, content,
			content_type, position, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id=excluded.document_id, filename=excluded.filename,
			path=excluded.path, section=excluded.section, content=excluded.content,
			content_type=excluded.content_type, position=excluded.position,
			metadata=excluded.metadata, updated_at=excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare save chunks: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now()
	for _, c := range chunks {
		meta, err := json.Marshal(orEmpty(c.Metadata))
		if err != nil {
			return fmt.Errorf("marshal chunk metadata %s: %w", c.ID, err)
		}
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.DocumentID, c.Filename, c.Path, c.Section, c.Content,
			string(c.ContentType), c.Position, string(meta),
			createdAt.UnixNano(), now.UnixNano()); err != nil {
			return fmt.Errorf("save chunk %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// GetChunk fetches a chunk by ID.
func (s *SQLiteMetadataStore) GetChunk(ctx context.Context, id string) (*Chunk, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, document_id, filename, path, section, content, content_type,
			position, metadata, created_at, updated_at
		 FROM chunks WHERE id = ?`, id)
	return scanChunk(row)
}

// GetChunks fetches multiple chunks by ID. Missing IDs are skipped; the
// result preserves the requested order.
func (s *SQLiteMetadataStore) GetChunks(ctx context.Context, ids []string) ([]*Chunk, error) {
	if len(ids) == 0 {
		return []*Chunk{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, filename, path, section, content, content_type,
			position, metadata, created_at, updated_at
		 FROM chunks WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[string]*Chunk, len(ids))
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		byID[chunk.ID] = chunk
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ordered := make([]*Chunk, 0, len(byID))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

// ChunkIDsByDocument returns the chunk IDs belonging to a document.
func (s *SQLiteMetadataStore) ChunkIDsByDocument(ctx context.Context, documentID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM chunks WHERE document_id = ? ORDER BY position`, documentID)
	if err != nil {
		return nil, fmt.Errorf("chunk ids by document: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database.
func (s *SQLiteMetadataStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var modTime, indexedAt int64
	err := row.Scan(&doc.ID, &doc.Path, &doc.Filename, &doc.ContentHash,
		&doc.Size, &modTime, &indexedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}
	doc.ModTime = time.Unix(0, modTime)
	doc.IndexedAt = time.Unix(0, indexedAt)
	return &doc, nil
}

func scanChunk(row rowScanner) (*Chunk, error) {
	var c Chunk
	var contentType, metaJSON string
	var createdAt, updatedAt int64
	err := row.Scan(&c.ID, &c.DocumentID, &c.Filename, &c.Path, &c.Section,
		&c.Content, &contentType, &c.Position, &metaJSON, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan chunk: %w", err)
	}

	c.ContentType = ContentType(contentType)
	c.CreatedAt = time.Unix(0, createdAt)
	c.UpdatedAt = time.Unix(0, updatedAt)
	if err := json.Unmarshal([]byte(metaJSON), &c.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal chunk metadata %s: %w", c.ID, err)
	}
	return &c, nil
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
