package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/store"
)

func testDoc(path string) *store.Document {
	return &store.Document{
		ID:       "doc-1",
		Path:     path,
		Filename: path,
	}
}

func TestChunker_MarkdownSections(t *testing.T) {
	content := `# Vehicle Registration

Intro paragraph about registration.

## Renewal

Renewal happens annually.

## Transfer

Ownership transfer needs form RF200.
`
	chunks, err := NewChunker(0, 0).Chunk(testDoc("guide.md"), []byte(content))
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "Vehicle Registration", chunks[0].Section)
	assert.Equal(t, "Vehicle Registration > Renewal", chunks[1].Section)
	assert.Equal(t, "Vehicle Registration > Transfer", chunks[2].Section)
	assert.Contains(t, chunks[2].Content, "RF200")
	assert.Equal(t, store.ContentTypeMarkdown, chunks[0].ContentType)
}

func TestChunker_MarkdownPreamble(t *testing.T) {
	content := "Leading text before any heading.\n\n# First\n\nBody.\n"

	chunks, err := NewChunker(0, 0).Chunk(testDoc("notes.md"), []byte(content))
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "", chunks[0].Section)
	assert.Contains(t, chunks[0].Content, "Leading text")
}

func TestChunker_LargeSectionSplitsWithOverlap(t *testing.T) {
	paragraph := strings.Repeat("Sentence about the inspection process. ", 20)
	content := "# Inspections\n\n" + paragraph + "\n\n" + paragraph

	chunks, err := NewChunker(500, 100).Chunk(testDoc("inspections.md"), []byte(content))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.Equal(t, "Inspections", chunk.Section)
		assert.LessOrEqual(t, len(chunk.Content), 500)
	}
}

func TestChunker_JSONFlattening(t *testing.T) {
	content := `{"vehicle": {"reg": "191-D-12345", "make": "Toyota"}, "owners": ["Alice", "Bob"], "valid": true}`

	chunks, err := NewChunker(0, 0).Chunk(testDoc("record.json"), []byte(content))
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, store.ContentTypeJSON, chunks[0].ContentType)
	assert.Contains(t, chunks[0].Content, "vehicle.reg: 191-D-12345")
	assert.Contains(t, chunks[0].Content, "owners[0]: Alice")
	assert.Contains(t, chunks[0].Content, "valid: true")
}

func TestChunker_MalformedJSON(t *testing.T) {
	_, err := NewChunker(0, 0).Chunk(testDoc("broken.json"), []byte(`{"unclosed": `))
	assert.Error(t, err)
}

func TestChunker_PlainText(t *testing.T) {
	chunks, err := NewChunker(0, 0).Chunk(testDoc("readme.txt"), []byte("plain text body"))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, store.ContentTypeText, chunks[0].ContentType)
}

func TestChunker_EmptyContent(t *testing.T) {
	chunks, err := NewChunker(0, 0).Chunk(testDoc("empty.md"), []byte("   \n  "))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunker_StableIDs(t *testing.T) {
	content := []byte("# Title\n\nSame content both times.\n")

	first, err := NewChunker(0, 0).Chunk(testDoc("a.md"), content)
	require.NoError(t, err)
	second, err := NewChunker(0, 0).Chunk(testDoc("a.md"), content)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}

	// A different path yields different IDs for identical content.
	other, err := NewChunker(0, 0).Chunk(testDoc("b.md"), content)
	require.NoError(t, err)
	assert.NotEqual(t, first[0].ID, other[0].ID)
}
