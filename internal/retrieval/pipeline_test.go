package retrieval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Sergey0703/aidocsbackend-sub002/internal/errors"
)

func newTestPipeline(t *testing.T, adapters []Adapter, opts ...PipelineOption) *Pipeline {
	t.Helper()
	p, err := NewPipeline(adapters, Config{CorroborationBonus: 0.1}, opts...)
	require.NoError(t, err)
	return p
}

func TestPipeline_EmptyQueryRejected(t *testing.T) {
	p := newTestPipeline(t, []Adapter{&fakeAdapter{name: StrategyVector}})

	_, err := p.Run(context.Background(), Query{Texts: []string{"   "}})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeEmptyQuery, apperrors.CodeOf(err))
}

func TestPipeline_EntityOnlyQueryAccepted(t *testing.T) {
	p := newTestPipeline(t, []Adapter{
		&fakeAdapter{name: StrategyEntity, candidates: []*Candidate{
			makeCandidate("A", StrategyEntity, 1.0, "record for 191-D-12345"),
		}},
	})

	result, err := p.Run(context.Background(), Query{Entity: "191-D-12345"})

	require.NoError(t, err)
	assert.Equal(t, 1, result.FinalCount)
}

func TestPipeline_FinalCountMatchesResults(t *testing.T) {
	p := newTestPipeline(t, []Adapter{
		&fakeAdapter{name: StrategyVector, candidates: []*Candidate{
			makeCandidate("A", StrategyVector, 0.9, "first relevant chunk"),
			makeCandidate("B", StrategyVector, 0.8, "second relevant chunk"),
		}},
		&fakeAdapter{name: StrategyLexical, candidates: []*Candidate{
			makeCandidate("A", StrategyLexical, 0.7, "first relevant chunk"),
		}},
	})

	result, err := p.Run(context.Background(), Query{Texts: []string{"relevant chunk"}})

	require.NoError(t, err)
	assert.Equal(t, len(result.Results), result.FinalCount)
	assert.False(t, result.RerankingApplied)

	seen := make(map[string]bool)
	for _, r := range result.Results {
		assert.False(t, seen[r.ChunkID])
		seen[r.ChunkID] = true
	}
}

func TestPipeline_EmptyResultIsValid(t *testing.T) {
	p := newTestPipeline(t, []Adapter{
		&fakeAdapter{name: StrategyVector, candidates: []*Candidate{}},
	})

	result, err := p.Run(context.Background(), Query{Texts: []string{"nothing matches this"}})

	require.NoError(t, err)
	assert.Equal(t, 0, result.FinalCount)
	assert.Empty(t, result.Results)
}

func TestPipeline_LimitApplied(t *testing.T) {
	candidates := make([]*Candidate, 0, 20)
	for i := 0; i < 20; i++ {
		candidates = append(candidates,
			makeCandidate(string(rune('a'+i)), StrategyVector, 0.9-float64(i)*0.01, "matching content"))
	}
	p := newTestPipeline(t, []Adapter{
		&fakeAdapter{name: StrategyVector, candidates: candidates},
	})

	result, err := p.Run(context.Background(), Query{Texts: []string{"matching"}, Limit: 5})

	require.NoError(t, err)
	assert.Equal(t, 5, result.FinalCount)
}

func TestPipeline_Idempotent(t *testing.T) {
	adapters := []Adapter{
		&fakeAdapter{name: StrategyVector, candidates: []*Candidate{
			makeCandidate("A", StrategyVector, 0.8, "registration renewal steps"),
			makeCandidate("B", StrategyVector, 0.8, "registration transfer steps"),
			makeCandidate("C", StrategyVector, 0.6, "registration fees table"),
		}},
		&fakeAdapter{name: StrategyLexical, candidates: []*Candidate{
			makeCandidate("B", StrategyLexical, 0.9, "registration transfer steps"),
			makeCandidate("C", StrategyLexical, 0.5, "registration fees table"),
		}},
	}
	p := newTestPipeline(t, adapters)
	q := Query{Texts: []string{"registration"}}

	first, err := p.Run(context.Background(), q)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), q)
	require.NoError(t, err)

	require.Equal(t, first.FinalCount, second.FinalCount)
	for i := range first.Results {
		assert.Equal(t, first.Results[i].ChunkID, second.Results[i].ChunkID)
		assert.Equal(t, first.Results[i].Score, second.Results[i].Score)
	}
}

func TestPipeline_RerankingOrdersByLLMScore(t *testing.T) {
	reranker := newFakeReranker(map[string]RelevanceScore{
		"weak semantic match":   {Score: 9.0, Relevant: true},
		"strong semantic match": {Score: 3.0, Relevant: true},
	})

	p := newTestPipeline(t, []Adapter{
		&fakeAdapter{name: StrategyVector, candidates: []*Candidate{
			makeCandidate("strong", StrategyVector, 0.95, "strong semantic match"),
			makeCandidate("weak", StrategyVector, 0.4, "weak semantic match"),
		}},
	}, WithReranker(reranker, BatchOptions{}))

	result, err := p.Run(context.Background(), Query{Texts: []string{"match"}})

	require.NoError(t, err)
	require.True(t, result.RerankingApplied)
	require.Equal(t, 2, result.FinalCount)
	assert.Equal(t, "weak", result.Results[0].ChunkID)
	assert.InDelta(t, 0.9, result.Results[0].DisplayScore(), 1e-9)
}

func TestPipeline_RerankerUnavailableFallsBack(t *testing.T) {
	reranker := newFakeReranker(nil)
	reranker.available = false

	p := newTestPipeline(t, []Adapter{
		&fakeAdapter{name: StrategyVector, candidates: []*Candidate{
			makeCandidate("A", StrategyVector, 0.9, "relevant chunk"),
		}},
	}, WithReranker(reranker, BatchOptions{}))

	result, err := p.Run(context.Background(), Query{Texts: []string{"relevant"}})

	require.NoError(t, err)
	assert.False(t, result.RerankingApplied)
	assert.Equal(t, 1, result.FinalCount)
	assert.InDelta(t, 0.9, result.Results[0].DisplayScore(), 1e-9)
}

func TestPipeline_TimingsRecorded(t *testing.T) {
	p := newTestPipeline(t, []Adapter{
		&fakeAdapter{name: StrategyVector, candidates: []*Candidate{
			makeCandidate("A", StrategyVector, 0.9, "chunk"),
		}},
	})

	result, err := p.Run(context.Background(), Query{Texts: []string{"chunk"}})

	require.NoError(t, err)
	assert.Greater(t, result.Timings.Total, time.Duration(0))
}

func TestPipeline_CancellationKeepsCompletedResults(t *testing.T) {
	fast := &fakeAdapter{name: StrategyVector, candidates: []*Candidate{
		makeCandidate("A", StrategyVector, 0.9, "renewal notice issued"),
	}}
	blocker := &blockingAdapter{name: StrategyLexical, started: make(chan struct{})}
	pipeline := newTestPipeline(t, []Adapter{fast, blocker})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type outcome struct {
		result *FusionResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := pipeline.Run(ctx, Query{Texts: []string{"renewal"}})
		done <- outcome{result, err}
	}()

	<-blocker.started
	cancel()
	out := <-done

	// Mid-request cancellation degrades to whatever completed, not an error.
	require.NoError(t, out.err)
	require.Len(t, out.result.Results, 1)
	assert.Equal(t, "A", out.result.Results[0].ChunkID)
	assert.Equal(t, []string{StrategyVector}, out.result.Strategies)
}
