package retrieval

import (
	"context"
	"log/slog"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/embed"
	"github.com/Sergey0703/aidocsbackend-sub002/internal/store"
)

// VectorAdapter retrieves candidates by dense-vector similarity: the query
// is embedded and searched against the HNSW index, then hydrated from the
// metadata store.
type VectorAdapter struct {
	embedder embed.Embedder
	vectors  store.VectorStore
	meta     store.MetadataStore
}

// Verify interface implementation at compile time
var _ Adapter = (*VectorAdapter)(nil)

// NewVectorAdapter creates a vector retrieval adapter.
func NewVectorAdapter(embedder embed.Embedder, vectors store.VectorStore, meta store.MetadataStore) *VectorAdapter {
	return &VectorAdapter{
		embedder: embedder,
		vectors:  vectors,
		meta:     meta,
	}
}

// Name returns the strategy name.
func (a *VectorAdapter) Name() string {
	return StrategyVector
}

// Search embeds the primary query text and returns the nearest chunks.
// Additional query variants contribute via their best hit per chunk.
func (a *VectorAdapter) Search(ctx context.Context, q Query, limit int) ([]*Candidate, error) {
	if limit <= 0 {
		limit = DefaultCandidatesPerStrategy
	}

	// Best score per chunk across query variants.
	best := make(map[string]float64)
	order := make([]string, 0, limit)

	for _, text := range q.Texts {
		if text == "" {
			continue
		}
		vec, err := a.embedder.Embed(ctx, text)
		if err != nil {
			return nil, err
		}

		hits, err := a.vectors.Search(ctx, vec, limit)
		if err != nil {
			return nil, err
		}

		for _, hit := range hits {
			score := float64(hit.Score)
			prev, seen := best[hit.ID]
			if !seen {
				order = append(order, hit.ID)
			}
			if !seen || score > prev {
				best[hit.ID] = score
			}
		}
	}

	if len(order) == 0 {
		return []*Candidate{}, nil
	}

	chunks, err := a.meta.GetChunks(ctx, order)
	if err != nil {
		return nil, err
	}

	candidates := make([]*Candidate, 0, len(chunks))
	for _, chunk := range chunks {
		md := map[string]string{}
		if chunk.Section != "" {
			md[MetaSection] = chunk.Section
		}
		candidates = append(candidates, &Candidate{
			DocumentID: chunk.DocumentID,
			ChunkID:    chunk.ID,
			Filename:   chunk.Filename,
			Content:    chunk.Content,
			Score:      best[chunk.ID],
			Strategy:   StrategyVector,
			Metadata:   md,
		})
	}

	slog.Debug("vector_search_complete",
		slog.Int("variants", len(q.Texts)),
		slog.Int("candidates", len(candidates)))

	return candidates, nil
}
