package answer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/retrieval"
)

func fused(filename, content string, score float64) *retrieval.FusedResult {
	return &retrieval.FusedResult{
		ChunkID:  filename + "#0",
		Filename: filename,
		Content:  content,
		Score:    score,
		Metadata: map[string]string{},
	}
}

func TestGenerator_EmptyResultsIsNegativeAnswer(t *testing.T) {
	g := NewGenerator(Config{Host: "http://localhost:1"})

	answer, err := g.Generate(context.Background(), "any question", nil)

	// No backend call happens; empty retrieval short-circuits.
	require.NoError(t, err)
	assert.Equal(t, NoResultsMessage, answer.Text)
	assert.Empty(t, answer.Sources)
}

func TestGenerator_GroundedAnswer(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt = req.Prompt
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "Renewal is due annually."})
	}))
	defer srv.Close()

	g := NewGenerator(Config{Host: srv.URL})
	results := []*retrieval.FusedResult{
		fused("guide.md", "Registration renewal is due every year.", 0.9),
		fused("fees.md", "The renewal fee depends on emissions.", 0.7),
	}

	answer, err := g.Generate(context.Background(), "When is renewal due?", results)

	require.NoError(t, err)
	assert.Equal(t, "Renewal is due annually.", answer.Text)
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, "guide.md", answer.Sources[0].Filename)
	assert.InDelta(t, 0.9, answer.Sources[0].Score, 1e-9)

	assert.Contains(t, gotPrompt, "When is renewal due?")
	assert.Contains(t, gotPrompt, "Registration renewal is due every year.")
	assert.Contains(t, gotPrompt, "[2] fees.md")
}

func TestGenerator_ContextChunkCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		// Only the first two chunks should appear in the prompt.
		assert.False(t, strings.Contains(req.Prompt, "third chunk"))
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "ok"})
	}))
	defer srv.Close()

	g := NewGenerator(Config{Host: srv.URL, MaxContextChunks: 2})
	results := []*retrieval.FusedResult{
		fused("a.md", "first chunk", 0.9),
		fused("b.md", "second chunk", 0.8),
		fused("c.md", "third chunk", 0.7),
	}

	answer, err := g.Generate(context.Background(), "q", results)

	require.NoError(t, err)
	assert.Len(t, answer.Sources, 2)
}

func TestGenerator_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	g := NewGenerator(Config{Host: srv.URL})

	_, err := g.Generate(context.Background(), "q", []*retrieval.FusedResult{
		fused("a.md", "content", 0.9),
	})

	assert.Error(t, err)
}
