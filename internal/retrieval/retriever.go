package retrieval

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/errors"
)

// Retriever fans a query out to every configured adapter concurrently and
// collects the raw candidate multiset. One adapter failing never fails the
// whole retrieval: the failure is logged and that strategy contributes
// nothing.
type Retriever struct {
	adapters    []Adapter
	limit       int
	parallelism int
}

// NewRetriever creates a retriever over the given adapters. Zero adapters
// is a configuration error: a retriever that can never produce candidates
// should fail at startup, not per query.
func NewRetriever(adapters []Adapter, cfg Config) (*Retriever, error) {
	if len(adapters) == 0 {
		return nil, errors.New(errors.ErrCodeNoAdapters,
			"no retrieval adapters configured", nil).
			WithSuggestion("enable at least one of vector, lexical, or entity retrieval in the config")
	}
	cfg = cfg.withDefaults()
	return &Retriever{
		adapters:    adapters,
		limit:       cfg.CandidatesPerStrategy,
		parallelism: cfg.Parallelism,
	}, nil
}

// Retrieve runs all adapters in parallel and returns the combined candidate
// multiset. All adapters failing yields an empty result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, q Query) (*RetrievalResult, error) {
	start := time.Now()

	perAdapter := make([][]*Candidate, len(r.adapters))

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, r.parallelism)
	var mu sync.Mutex

	for i, adapter := range r.adapters {
		i, adapter := i, adapter

		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				// A cancelled request keeps whatever the other adapters
				// already delivered; this one contributes nothing.
				slog.Warn("retrieval_adapter_skipped",
					slog.String("strategy", adapter.Name()),
					slog.String("error", gctx.Err().Error()))
				return nil
			}

			candidates, err := adapter.Search(gctx, q, r.limit)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("retrieval_adapter_failed",
					slog.String("strategy", adapter.Name()),
					slog.String("error", err.Error()))
				perAdapter[i] = nil
				return nil // isolate the failure, keep the other strategies
			}
			perAdapter[i] = candidates
			return nil
		})
	}

	// No goroutine returns an error: failed and cancelled adapters
	// contribute zero candidates, so partial results survive a
	// whole-request timeout.
	_ = g.Wait()

	result := &RetrievalResult{
		Candidates: make([]*Candidate, 0),
		Strategies: make([]string, 0, len(r.adapters)),
		Attempted:  len(r.adapters),
	}
	for i, candidates := range perAdapter {
		if len(candidates) == 0 {
			continue
		}
		result.Candidates = append(result.Candidates, candidates...)
		result.Strategies = append(result.Strategies, r.adapters[i].Name())
	}

	slog.Debug("retrieval_complete",
		slog.Int("adapters", len(r.adapters)),
		slog.Int("contributing", len(result.Strategies)),
		slog.Int("candidates", len(result.Candidates)),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}
