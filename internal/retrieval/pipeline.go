package retrieval

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/errors"
)

// Pipeline orchestrates a full retrieval request:
// retrieve -> lexical safety filter -> fuse -> rerank.
type Pipeline struct {
	retriever  *Retriever
	fusion     *FusionEngine
	reranker   Reranker
	rerankOpts BatchOptions
	cfg        Config
}

// PipelineOption configures the pipeline.
type PipelineOption func(*Pipeline)

// WithReranker enables LLM re-ranking with the given reranker and options.
func WithReranker(r Reranker, opts BatchOptions) PipelineOption {
	return func(p *Pipeline) {
		p.reranker = r
		p.rerankOpts = opts
	}
}

// NewPipeline creates a retrieval pipeline over the given adapters.
// Re-ranking is off unless WithReranker is supplied.
func NewPipeline(adapters []Adapter, cfg Config, opts ...PipelineOption) (*Pipeline, error) {
	retriever, err := NewRetriever(adapters, cfg)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		retriever: retriever,
		fusion:    NewFusionEngine(cfg),
		cfg:       cfg.withDefaults(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run executes the pipeline. An empty result list is a valid outcome, not
// an error: only an invalid query returns one. Cancelling the request
// context mid-flight degrades to whatever the stages had produced.
func (p *Pipeline) Run(ctx context.Context, q Query) (*FusionResult, error) {
	if strings.TrimSpace(q.Primary()) == "" && strings.TrimSpace(q.Entity) == "" {
		return nil, errors.New(errors.ErrCodeEmptyQuery, "query is empty", nil).
			WithSuggestion("provide query text or an entity identifier")
	}

	total := time.Now()
	var timings StageTimings

	stage := time.Now()
	retrieved, err := p.retriever.Retrieve(ctx, q)
	if err != nil {
		return nil, err
	}
	timings.Retrieve = time.Since(stage)

	stage = time.Now()
	filtered := FilterLexical(retrieved.Candidates, q)
	fused := p.fusion.Fuse(filtered, q)

	limit := q.Limit
	if limit <= 0 {
		limit = p.cfg.MaxResults
	}
	if len(fused) > limit {
		fused = fused[:limit]
	}
	timings.Fuse = time.Since(stage)

	applied := false
	if p.reranker != nil && len(fused) > 0 {
		stage = time.Now()
		fused, applied = RerankResults(ctx, p.reranker, q.Primary(), fused, p.rerankOpts)
		timings.Rerank = time.Since(stage)
	}

	timings.Total = time.Since(total)

	result := &FusionResult{
		Results:          fused,
		FinalCount:       len(fused),
		Strategies:       retrieved.Strategies,
		RerankingApplied: applied,
		Timings:          timings,
	}

	slog.Info("retrieval_pipeline_complete",
		slog.String("query", q.Primary()),
		slog.Int("candidates", len(retrieved.Candidates)),
		slog.Int("results", result.FinalCount),
		slog.Bool("reranked", applied),
		slog.Duration("duration", timings.Total))

	return result, nil
}

// Close releases the pipeline's reranker, if any.
func (p *Pipeline) Close() error {
	if p.reranker != nil {
		return p.reranker.Close()
	}
	return nil
}
