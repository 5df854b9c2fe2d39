package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

// Fused-result metadata keys written by re-ranking.
const (
	// MetaLLMScore holds the raw LLM relevance score (0-10).
	MetaLLMScore = "llm_score"

	// MetaLLMRelevant holds the LLM's boolean verdict.
	MetaLLMRelevant = "llm_relevant"
)

// Default re-ranking parameters.
const (
	// DefaultRerankTimeout bounds each per-candidate scoring call.
	DefaultRerankTimeout = 10 * time.Second

	// DefaultRerankConcurrency bounds in-flight scoring requests.
	DefaultRerankConcurrency = 8
)

// RelevanceScore is one LLM relevance judgement.
type RelevanceScore struct {
	// Score is the relevance score on a 0-10 scale.
	Score float64

	// Relevant is the model's boolean verdict.
	Relevant bool
}

// Reranker scores a single query/content pair with an LLM.
type Reranker interface {
	// ScoreRelevance judges how relevant content is to the query.
	ScoreRelevance(ctx context.Context, query, content string) (RelevanceScore, error)

	// Available reports whether the scoring backend is reachable.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// BatchOptions configures a batch re-ranking pass.
type BatchOptions struct {
	// Timeout bounds each candidate's scoring call (default: 10s).
	Timeout time.Duration

	// Concurrency bounds in-flight scoring requests (default: 8).
	Concurrency int

	// Threshold, when positive, drops candidates the LLM judged not
	// relevant or scored below it. Zero disables threshold filtering.
	Threshold float64
}

func (o BatchOptions) withDefaults() BatchOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultRerankTimeout
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultRerankConcurrency
	}
	return o
}

// RerankResults scores every fused result concurrently and re-orders the
// list by LLM relevance. Scores are collected keyed by input index and
// merged only after the whole batch completes, never in arrival order.
//
// A candidate whose scoring call times out or fails keeps its pre-rerank
// score. When the backend is unavailable, or no candidate scores
// successfully, the input list is returned unchanged and applied is false.
func RerankResults(ctx context.Context, reranker Reranker, query string, results []*FusedResult, opts BatchOptions) (ranked []*FusedResult, applied bool) {
	if len(results) == 0 || reranker == nil {
		return results, false
	}
	opts = opts.withDefaults()

	if !reranker.Available(ctx) {
		slog.Warn("rerank_backend_unavailable", slog.String("query", query))
		return results, false
	}

	start := time.Now()

	// One slot per input index. A nil entry means that candidate's scoring
	// call failed and it keeps its fused score.
	scores := make([]*RelevanceScore, len(results))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, result := range results {
		i, result := i, result
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, opts.Timeout)
			defer cancel()

			score, err := reranker.ScoreRelevance(callCtx, query, result.Content)
			if err != nil {
				slog.Debug("rerank_candidate_failed",
					slog.String("chunk_id", result.ChunkID),
					slog.String("error", err.Error()))
				return nil // candidate keeps its pre-rerank score
			}
			scores[i] = &score
			return nil
		})
	}
	_ = g.Wait()

	scored := 0
	for _, s := range scores {
		if s != nil {
			scored++
		}
	}
	if scored == 0 {
		slog.Warn("rerank_no_scores",
			slog.String("query", query),
			slog.Int("candidates", len(results)))
		return results, false
	}

	ranked = make([]*FusedResult, 0, len(results))
	for i, result := range results {
		s := scores[i]
		if s == nil {
			ranked = append(ranked, result)
			continue
		}

		result.LLMScored = true
		result.LLMScore = s.Score
		result.LLMRelevant = s.Relevant
		result.Score = s.Score / 10.0
		if result.Metadata == nil {
			result.Metadata = make(map[string]string)
		}
		result.Metadata[MetaLLMScore] = fmt.Sprintf("%.1f", s.Score)
		result.Metadata[MetaLLMRelevant] = strconv.FormatBool(s.Relevant)

		if opts.Threshold > 0 && (!s.Relevant || s.Score < opts.Threshold) {
			continue
		}
		ranked = append(ranked, result)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DisplayScore() > ranked[j].DisplayScore()
	})

	slog.Debug("rerank_complete",
		slog.Int("candidates", len(results)),
		slog.Int("scored", scored),
		slog.Int("kept", len(ranked)),
		slog.Duration("duration", time.Since(start)))

	return ranked, true
}

// NoOpReranker scores nothing and reports unavailable. Used when
// re-ranking is disabled.
type NoOpReranker struct{}

// Verify interface implementation at compile time
var _ Reranker = (*NoOpReranker)(nil)

// ScoreRelevance always fails; NoOpReranker never scores.
func (n *NoOpReranker) ScoreRelevance(_ context.Context, _, _ string) (RelevanceScore, error) {
	return RelevanceScore{}, fmt.Errorf("reranking disabled")
}

// Available always returns false.
func (n *NoOpReranker) Available(_ context.Context) bool {
	return false
}

// Close is a no-op.
func (n *NoOpReranker) Close() error {
	return nil
}
