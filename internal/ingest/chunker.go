// Package ingest turns source documents into indexed chunks: splitting,
// embedding, and writing to the lexical, vector, and metadata stores.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/errors"
	"github.com/Sergey0703/aidocsbackend-sub002/internal/store"
)

// Default chunking parameters, in characters.
const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 200
)

// headerPattern matches markdown headings of any level.
var headerPattern = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

// Chunker splits document content into retrieval-sized chunks. Markdown is
// split on headings first so chunks stay within one section; oversized
// sections are split further with overlap. JSON documents are flattened to
// "path: value" lines before chunking.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker. Non-positive arguments fall back to the
// package defaults.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Chunk splits content into chunks for the given document. Empty or
// whitespace-only content yields no chunks and no error.
func (c *Chunker) Chunk(doc *store.Document, content []byte) ([]*store.Chunk, error) {
	text := string(content)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var (
		pieces      []piece
		contentType store.ContentType
	)

	switch strings.ToLower(filepath.Ext(doc.Path)) {
	case ".md", ".markdown":
		contentType = store.ContentTypeMarkdown
		pieces = c.splitMarkdown(text)
	case ".json":
		contentType = store.ContentTypeJSON
		flat, err := flattenJSON(content)
		if err != nil {
			return nil, errors.New(errors.ErrCodeUnsupportedFormat,
				fmt.Sprintf("malformed JSON document %s", doc.Path), err)
		}
		pieces = c.splitPlain(flat, "")
	default:
		contentType = store.ContentTypeText
		pieces = c.splitPlain(text, "")
	}

	now := time.Now()
	chunks := make([]*store.Chunk, 0, len(pieces))
	for i, p := range pieces {
		trimmed := strings.TrimSpace(p.content)
		if trimmed == "" {
			continue
		}
		chunks = append(chunks, &store.Chunk{
			ID:          chunkID(doc.Path, i, trimmed),
			DocumentID:  doc.ID,
			Filename:    doc.Filename,
			Path:        doc.Path,
			Section:     p.section,
			Content:     trimmed,
			ContentType: contentType,
			Position:    i,
			Metadata:    map[string]string{},
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return chunks, nil
}

// piece is a pre-chunk unit of content with its heading path.
type piece struct {
	section string
	content string
}

// splitMarkdown splits on headings, keeping each heading with its body and
// tracking the heading path. Sections larger than chunkSize are split
// further with overlap.
func (c *Chunker) splitMarkdown(text string) []piece {
	matches := headerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return c.splitPlain(text, "")
	}

	var pieces []piece

	// Preamble before the first heading.
	if lead := text[:matches[0][0]]; strings.TrimSpace(lead) != "" {
		pieces = append(pieces, c.splitPlain(lead, "")...)
	}

	// Heading path stack: path[level-1] = title at that level.
	var path [6]string

	for i, m := range matches {
		level := m[3] - m[2]
		title := strings.TrimSpace(text[m[4]:m[5]])
		path[level-1] = title
		for l := level; l < 6; l++ {
			path[l] = ""
		}

		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := text[m[0]:end]

		section := joinHeadingPath(path[:level])
		pieces = append(pieces, c.splitPlain(body, section)...)
	}
	return pieces
}

// splitPlain splits text into chunkSize pieces with overlap, breaking on
// paragraph boundaries where possible.
func (c *Chunker) splitPlain(text, section string) []piece {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.chunkSize {
		return []piece{{section: section, content: text}}
	}

	var pieces []piece
	start := 0
	for start < len(text) {
		end := start + c.chunkSize
		if end >= len(text) {
			pieces = append(pieces, piece{section: section, content: text[start:]})
			break
		}

		// Prefer a paragraph break, then a line break, then a space.
		cut := end
		window := text[start:end]
		if idx := strings.LastIndex(window, "\n\n"); idx > c.chunkSize/2 {
			cut = start + idx
		} else if idx := strings.LastIndex(window, "\n"); idx > c.chunkSize/2 {
			cut = start + idx
		} else if idx := strings.LastIndex(window, " "); idx > c.chunkSize/2 {
			cut = start + idx
		}

		pieces = append(pieces, piece{section: section, content: text[start:cut]})

		next := cut - c.overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return pieces
}

func joinHeadingPath(parts []string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " > ")
}

// flattenJSON renders a JSON document as sorted "path: value" lines so
// structured records are searchable as text.
func flattenJSON(content []byte) (string, error) {
	var root interface{}
	if err := json.Unmarshal(content, &root); err != nil {
		return "", err
	}

	lines := make(map[string]string)
	flattenValue("", root, lines)

	keys := make([]string, 0, len(lines))
	for k := range lines {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(lines[k])
		b.WriteString("\n")
	}
	return b.String(), nil
}

func flattenValue(prefix string, v interface{}, out map[string]string) {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, child := range val {
			flattenValue(joinPath(prefix, k), child, out)
		}
	case []interface{}:
		for i, child := range val {
			flattenValue(fmt.Sprintf("%s[%d]", prefix, i), child, out)
		}
	case string:
		out[prefix] = val
	case float64:
		out[prefix] = strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		out[prefix] = strconv.FormatBool(val)
	case nil:
		out[prefix] = "null"
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// chunkID derives a stable chunk identifier from the document path, chunk
// position, and content. Position keeps repeated content within one
// document from colliding.
func chunkID(path string, position int, content string) string {
	hash := sha256.Sum256([]byte(path + "\x00" + strconv.Itoa(position) + "\x00" + content))
	return hex.EncodeToString(hash[:])
}
