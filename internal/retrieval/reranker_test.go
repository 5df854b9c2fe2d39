package retrieval

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReranker returns canned scores per content string. Contents without
// an entry fail as if the scoring call timed out.
type fakeReranker struct {
	mu        sync.Mutex
	scores    map[string]RelevanceScore
	available bool
	calls     int
	delay     time.Duration
}

func newFakeReranker(scores map[string]RelevanceScore) *fakeReranker {
	return &fakeReranker{scores: scores, available: true}
}

func (f *fakeReranker) ScoreRelevance(ctx context.Context, query, content string) (RelevanceScore, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return RelevanceScore{}, ctx.Err()
		}
	}

	score, ok := f.scores[content]
	if !ok {
		return RelevanceScore{}, context.DeadlineExceeded
	}
	return score, nil
}

func (f *fakeReranker) Available(_ context.Context) bool { return f.available }
func (f *fakeReranker) Close() error                     { return nil }

func makeFused(chunkID string, score float64, content string) *FusedResult {
	return &FusedResult{
		DocumentID: "doc-" + chunkID,
		ChunkID:    chunkID,
		Filename:   "doc-" + chunkID + ".md",
		Content:    content,
		Score:      score,
		Strategies: []string{StrategyVector},
		Metadata:   map[string]string{},
	}
}

func TestRerankResults_DisplayScoreFromLLM(t *testing.T) {
	reranker := newFakeReranker(map[string]RelevanceScore{
		"highly relevant chunk": {Score: 8.5, Relevant: true},
	})

	results := []*FusedResult{makeFused("A", 0.62, "highly relevant chunk")}

	ranked, applied := RerankResults(context.Background(), reranker, "query", results, BatchOptions{})

	require.True(t, applied)
	require.Len(t, ranked, 1)
	assert.True(t, ranked[0].LLMScored)
	assert.InDelta(t, 8.5, ranked[0].LLMScore, 1e-9)
	assert.InDelta(t, 0.85, ranked[0].DisplayScore(), 1e-9)
	assert.Equal(t, "8.5", ranked[0].Metadata[MetaLLMScore])
	assert.Equal(t, "true", ranked[0].Metadata[MetaLLMRelevant])
}

func TestRerankResults_AllFailuresKeepOriginalList(t *testing.T) {
	// No canned scores: every scoring call fails.
	reranker := newFakeReranker(map[string]RelevanceScore{})

	results := []*FusedResult{
		makeFused("A", 0.9, "first chunk"),
		makeFused("B", 0.8, "second chunk"),
		makeFused("C", 0.7, "third chunk"),
	}

	ranked, applied := RerankResults(context.Background(), reranker, "query", results, BatchOptions{})

	assert.False(t, applied)
	require.Len(t, ranked, 3)
	for i, r := range ranked {
		assert.Same(t, results[i], r)
		assert.False(t, r.LLMScored)
	}
	assert.InDelta(t, 0.9, ranked[0].DisplayScore(), 1e-9)
}

func TestRerankResults_BackendUnavailable(t *testing.T) {
	reranker := newFakeReranker(map[string]RelevanceScore{
		"chunk": {Score: 9, Relevant: true},
	})
	reranker.available = false

	results := []*FusedResult{makeFused("A", 0.5, "chunk")}

	ranked, applied := RerankResults(context.Background(), reranker, "query", results, BatchOptions{})

	assert.False(t, applied)
	assert.Equal(t, results, ranked)
	assert.Equal(t, 0, reranker.calls)
}

func TestRerankResults_PartialFailureKeepsFusedScore(t *testing.T) {
	reranker := newFakeReranker(map[string]RelevanceScore{
		"scored chunk": {Score: 9.0, Relevant: true},
	})

	results := []*FusedResult{
		makeFused("scored", 0.4, "scored chunk"),
		makeFused("failed", 0.8, "unscored chunk"),
	}

	ranked, applied := RerankResults(context.Background(), reranker, "query", results, BatchOptions{})

	require.True(t, applied)
	require.Len(t, ranked, 2)

	// The scored candidate jumps ahead on its 0.9 display score; the failed
	// one keeps its 0.8 fused score.
	assert.Equal(t, "scored", ranked[0].ChunkID)
	assert.InDelta(t, 0.9, ranked[0].DisplayScore(), 1e-9)
	assert.Equal(t, "failed", ranked[1].ChunkID)
	assert.False(t, ranked[1].LLMScored)
	assert.InDelta(t, 0.8, ranked[1].DisplayScore(), 1e-9)
}

func TestRerankResults_ThresholdOverridesFusedScore(t *testing.T) {
	reranker := newFakeReranker(map[string]RelevanceScore{
		"looks great scores poorly": {Score: 2.0, Relevant: false},
		"modest but relevant":       {Score: 7.0, Relevant: true},
	})

	results := []*FusedResult{
		makeFused("high-fused", 0.98, "looks great scores poorly"),
		makeFused("low-fused", 0.3, "modest but relevant"),
	}

	ranked, applied := RerankResults(context.Background(), reranker, "query", results,
		BatchOptions{Threshold: 4.0})

	require.True(t, applied)
	require.Len(t, ranked, 1)
	assert.Equal(t, "low-fused", ranked[0].ChunkID)
}

func TestRerankResults_NegativeVerdictDropsAboveThresholdScore(t *testing.T) {
	reranker := newFakeReranker(map[string]RelevanceScore{
		"scored high but judged irrelevant": {Score: 8.0, Relevant: false},
	})

	results := []*FusedResult{makeFused("A", 0.9, "scored high but judged irrelevant")}

	ranked, applied := RerankResults(context.Background(), reranker, "query", results,
		BatchOptions{Threshold: 4.0})

	require.True(t, applied)
	assert.Empty(t, ranked)
}

func TestRerankResults_ResultsKeyedByIndex(t *testing.T) {
	// Staggered delays force out-of-order completion; scores must still
	// land on the right candidates.
	scores := make(map[string]RelevanceScore)
	results := make([]*FusedResult, 0, 8)
	for i := 0; i < 8; i++ {
		content := fmt.Sprintf("chunk content %d", i)
		scores[content] = RelevanceScore{Score: float64(i + 1), Relevant: true}
		results = append(results, makeFused(fmt.Sprintf("c%d", i), 0.5, content))
	}
	reranker := newFakeReranker(scores)
	reranker.delay = time.Millisecond

	ranked, applied := RerankResults(context.Background(), reranker, "query", results,
		BatchOptions{Concurrency: 4})

	require.True(t, applied)
	require.Len(t, ranked, 8)
	// Highest LLM score first: chunk 7 scored 8.0.
	assert.Equal(t, "c7", ranked[0].ChunkID)
	assert.Equal(t, "c0", ranked[7].ChunkID)
	for _, r := range ranked {
		assert.Equal(t, scores[r.Content].Score, r.LLMScore)
	}
}

func TestRerankResults_EmptyInput(t *testing.T) {
	reranker := newFakeReranker(nil)

	ranked, applied := RerankResults(context.Background(), reranker, "query", nil, BatchOptions{})

	assert.False(t, applied)
	assert.Empty(t, ranked)
}

func TestNoOpReranker(t *testing.T) {
	r := &NoOpReranker{}

	assert.False(t, r.Available(context.Background()))
	_, err := r.ScoreRelevance(context.Background(), "q", "c")
	assert.Error(t, err)
	assert.NoError(t, r.Close())
}
