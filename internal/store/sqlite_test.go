package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetadataStore(t *testing.T) *SQLiteMetadataStore {
	t.Helper()
	s, err := NewSQLiteMetadataStore("") // in-memory
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testDocument(id, path string) *Document {
	return &Document{
		ID:          id,
		Path:        path,
		Filename:    path,
		ContentHash: "hash-" + id,
		Size:        42,
		ModTime:     time.Now(),
		IndexedAt:   time.Now(),
	}
}

func TestSQLiteMetadataStore_DocumentRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)

	doc := testDocument("d1", "policies/claims.md")
	require.NoError(t, s.SaveDocument(ctx, doc))

	got, err := s.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, doc.Path, got.Path)
	assert.Equal(t, doc.ContentHash, got.ContentHash)

	byPath, err := s.GetDocumentByPath(ctx, "policies/claims.md")
	require.NoError(t, err)
	assert.Equal(t, "d1", byPath.ID)
}

func TestSQLiteMetadataStore_GetDocumentNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)

	_, err := s.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteMetadataStore_ChunkRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)

	require.NoError(t, s.SaveDocument(ctx, testDocument("d1", "a.md")))

	chunks := []*Chunk{
		{
			ID: "c1", DocumentID: "d1", Filename: "a.md", Path: "a.md",
			Section: "Overview", Content: "first chunk",
			ContentType: ContentTypeMarkdown, Position: 0,
			Metadata: map[string]string{"lang": "en"},
		},
		{
			ID: "c2", DocumentID: "d1", Filename: "a.md", Path: "a.md",
			Content: "second chunk", ContentType: ContentTypeMarkdown, Position: 1,
		},
	}
	require.NoError(t, s.SaveChunks(ctx, chunks))

	got, err := s.GetChunk(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "first chunk", got.Content)
	assert.Equal(t, "Overview", got.Section)
	assert.Equal(t, "en", got.Metadata["lang"])

	ids, err := s.ChunkIDsByDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, ids)
}

func TestSQLiteMetadataStore_GetChunksPreservesRequestOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)

	require.NoError(t, s.SaveDocument(ctx, testDocument("d1", "a.md")))
	require.NoError(t, s.SaveChunks(ctx, []*Chunk{
		{ID: "c1", DocumentID: "d1", Filename: "a.md", Path: "a.md", Content: "one", ContentType: ContentTypeText, Position: 0},
		{ID: "c2", DocumentID: "d1", Filename: "a.md", Path: "a.md", Content: "two", ContentType: ContentTypeText, Position: 1},
		{ID: "c3", DocumentID: "d1", Filename: "a.md", Path: "a.md", Content: "three", ContentType: ContentTypeText, Position: 2},
	}))

	got, err := s.GetChunks(ctx, []string{"c3", "missing", "c1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c3", got[0].ID)
	assert.Equal(t, "c1", got[1].ID)
}

func TestSQLiteMetadataStore_DeleteDocumentCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)

	require.NoError(t, s.SaveDocument(ctx, testDocument("d1", "a.md")))
	require.NoError(t, s.SaveChunks(ctx, []*Chunk{
		{ID: "c1", DocumentID: "d1", Filename: "a.md", Path: "a.md", Content: "x", ContentType: ContentTypeText, Position: 0},
	}))

	require.NoError(t, s.DeleteDocument(ctx, "d1"))

	_, err := s.GetChunk(ctx, "c1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteMetadataStore_SaveChunksUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)

	require.NoError(t, s.SaveDocument(ctx, testDocument("d1", "a.md")))

	chunk := &Chunk{ID: "c1", DocumentID: "d1", Filename: "a.md", Path: "a.md",
		Content: "original", ContentType: ContentTypeText, Position: 0}
	require.NoError(t, s.SaveChunks(ctx, []*Chunk{chunk}))

	chunk.Content = "updated"
	require.NoError(t, s.SaveChunks(ctx, []*Chunk{chunk}))

	got, err := s.GetChunk(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Content)
}
