package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/embed"
	"github.com/Sergey0703/aidocsbackend-sub002/internal/store"
)

type testEnv struct {
	docsDir string
	indexer *Indexer
	lexical store.LexicalIndex
	vectors store.VectorStore
	meta    store.MetadataStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	docsDir := t.TempDir()

	lexical, err := store.NewBleveLexicalIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = lexical.Close() })

	vectors, err := store.NewHNSWStore(store.VectorStoreConfig{Dimensions: embed.StaticDimensions})
	require.NoError(t, err)
	t.Cleanup(func() { _ = vectors.Close() })

	meta, err := store.NewSQLiteMetadataStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = meta.Close() })

	embedder := embed.NewCachedEmbedder(embed.NewStaticEmbedder(), 100)

	indexer := NewIndexer(IndexerConfig{DocsDir: docsDir}, embedder, lexical, vectors, meta)

	return &testEnv{
		docsDir: docsDir,
		indexer: indexer,
		lexical: lexical,
		vectors: vectors,
		meta:    meta,
	}
}

func (e *testEnv) writeDoc(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(e.docsDir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestIndexer_IndexAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.writeDoc(t, "guide.md", "# Registration\n\nRenewal is annual.\n")
	env.writeDoc(t, "sub/record.json", `{"reg": "191-D-12345"}`)
	env.writeDoc(t, "ignored.pdf", "binary-ish")

	stats, err := env.indexer.IndexAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.DocumentsScanned)
	assert.Equal(t, 2, stats.DocumentsIndexed)
	assert.Equal(t, 0, stats.DocumentsSkipped)
	assert.Greater(t, stats.ChunksIndexed, 0)

	docs, err := env.meta.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	count, err := env.lexical.Count()
	require.NoError(t, err)
	assert.Equal(t, stats.ChunksIndexed, count)
	assert.Equal(t, stats.ChunksIndexed, env.vectors.Count())
}

func TestIndexer_SkipsUnchanged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.writeDoc(t, "guide.md", "# Registration\n\nRenewal is annual.\n")

	_, err := env.indexer.IndexAll(ctx)
	require.NoError(t, err)

	stats, err := env.indexer.IndexAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.DocumentsIndexed)
	assert.Equal(t, 1, stats.DocumentsSkipped)
}

func TestIndexer_ReindexesChangedContent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.writeDoc(t, "guide.md", "# Registration\n\nOld content.\n")
	_, err := env.indexer.IndexAll(ctx)
	require.NoError(t, err)

	env.writeDoc(t, "guide.md", "# Registration\n\nNew content entirely.\n")
	stats, err := env.indexer.IndexAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentsIndexed)

	// Old chunks are replaced, not accumulated.
	hits, err := env.lexical.Search(ctx, "old", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = env.lexical.Search(ctx, "entirely", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, hits)
}

func TestIndexer_RemovesDeletedDocuments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.writeDoc(t, "keep.md", "# Keep\n\nStays around.\n")
	env.writeDoc(t, "gone.md", "# Gone\n\nWill be deleted.\n")
	_, err := env.indexer.IndexAll(ctx)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(env.docsDir, "gone.md")))

	stats, err := env.indexer.IndexAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentsRemoved)

	docs, err := env.meta.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "keep.md", docs[0].Path)
}

func TestIndexer_RemoveFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.writeDoc(t, "doc.md", "# Doc\n\nIndexed content here.\n")
	_, err := env.indexer.IndexAll(ctx)
	require.NoError(t, err)

	require.NoError(t, env.indexer.RemoveFile(ctx, "doc.md"))

	docs, err := env.meta.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 0, env.vectors.Count())

	// Removing an unknown document is not an error.
	assert.NoError(t, env.indexer.RemoveFile(ctx, "never-existed.md"))
}

func TestRebuildLock_SecondAcquireFails(t *testing.T) {
	dir := t.TempDir()

	first := NewRebuildLock(dir)
	require.NoError(t, first.Acquire())
	defer first.Release()

	second := NewRebuildLock(dir)
	err := second.Acquire()
	require.Error(t, err)

	require.NoError(t, first.Release())
	require.NoError(t, second.Acquire())
	require.NoError(t, second.Release())
}
