package retrieval

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/store"
)

// MetaMatchedTerms is the candidate metadata key holding the
// comma-separated analyzer terms that matched.
const MetaMatchedTerms = "matched_terms"

// LexicalAdapter retrieves candidates by BM25 keyword match. Raw BM25
// scores are unbounded, so each batch is normalized to its top hit.
type LexicalAdapter struct {
	index store.LexicalIndex
	meta  store.MetadataStore
}

// Verify interface implementation at compile time
var _ Adapter = (*LexicalAdapter)(nil)

// NewLexicalAdapter creates a lexical retrieval adapter.
func NewLexicalAdapter(index store.LexicalIndex, meta store.MetadataStore) *LexicalAdapter {
	return &LexicalAdapter{
		index: index,
		meta:  meta,
	}
}

// Name returns the strategy name.
func (a *LexicalAdapter) Name() string {
	return StrategyLexical
}

// Search runs one match query per query variant and keeps the best hit per
// chunk, with scores normalized so the top hit of the batch scores 1.0.
func (a *LexicalAdapter) Search(ctx context.Context, q Query, limit int) ([]*Candidate, error) {
	if limit <= 0 {
		limit = DefaultCandidatesPerStrategy
	}

	type hit struct {
		score   float64
		matched []string
	}
	best := make(map[string]*hit)
	order := make([]string, 0, limit)
	var topScore float64

	for _, text := range q.Texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		results, err := a.index.Search(ctx, text, limit)
		if err != nil {
			return nil, err
		}

		for _, r := range results {
			if r.Score > topScore {
				topScore = r.Score
			}
			existing, seen := best[r.ChunkID]
			if !seen {
				best[r.ChunkID] = &hit{score: r.Score, matched: r.MatchedTerms}
				order = append(order, r.ChunkID)
			} else if r.Score > existing.score {
				existing.score = r.Score
				existing.matched = mergeTerms(existing.matched, r.MatchedTerms)
			} else {
				existing.matched = mergeTerms(existing.matched, r.MatchedTerms)
			}
		}
	}

	if len(order) == 0 || topScore <= 0 {
		return []*Candidate{}, nil
	}

	chunks, err := a.meta.GetChunks(ctx, order)
	if err != nil {
		return nil, err
	}

	candidates := make([]*Candidate, 0, len(chunks))
	for _, chunk := range chunks {
		h := best[chunk.ID]
		md := map[string]string{}
		if len(h.matched) > 0 {
			md[MetaMatchedTerms] = strings.Join(h.matched, ",")
		}
		if chunk.Section != "" {
			md[MetaSection] = chunk.Section
		}
		candidates = append(candidates, &Candidate{
			DocumentID: chunk.DocumentID,
			ChunkID:    chunk.ID,
			Filename:   chunk.Filename,
			Content:    chunk.Content,
			Score:      h.score / topScore,
			Strategy:   StrategyLexical,
			Metadata:   md,
		})
	}

	slog.Debug("lexical_search_complete",
		slog.Int("variants", len(q.Texts)),
		slog.Int("candidates", len(candidates)))

	return candidates, nil
}

// mergeTerms unions two term lists preserving first-seen order.
func mergeTerms(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := make([]string, 0, len(a)+len(b))
	for _, t := range a {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range b {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
