package retrieval

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/store"
)

// MetaEntity is the candidate metadata key holding the entity hint that
// scoped the search.
const MetaEntity = "entity"

// EntityAdapter retrieves candidates by exact entity match. It only
// activates when the query carries an entity hint, such as a vehicle
// registration number, and issues a phrase query so the identifier must
// appear verbatim.
type EntityAdapter struct {
	index store.LexicalIndex
	meta  store.MetadataStore
}

// Verify interface implementation at compile time
var _ Adapter = (*EntityAdapter)(nil)

// NewEntityAdapter creates an entity retrieval adapter.
func NewEntityAdapter(index store.LexicalIndex, meta store.MetadataStore) *EntityAdapter {
	return &EntityAdapter{
		index: index,
		meta:  meta,
	}
}

// Name returns the strategy name.
func (a *EntityAdapter) Name() string {
	return StrategyEntity
}

// Search issues an exact phrase query for the entity hint. Without an
// entity hint it contributes nothing. Hits where the entity does not
// survive a whole-word check against the chunk content are discarded, so a
// partial identifier embedded in a longer token gives no credit.
func (a *EntityAdapter) Search(ctx context.Context, q Query, limit int) ([]*Candidate, error) {
	entity := strings.TrimSpace(q.Entity)
	if entity == "" {
		return []*Candidate{}, nil
	}
	if limit <= 0 {
		limit = DefaultCandidatesPerStrategy
	}

	results, err := a.index.SearchExact(ctx, entity, limit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return []*Candidate{}, nil
	}

	ids := make([]string, 0, len(results))
	scores := make(map[string]float64, len(results))
	var topScore float64
	for _, r := range results {
		ids = append(ids, r.ChunkID)
		scores[r.ChunkID] = r.Score
		if r.Score > topScore {
			topScore = r.Score
		}
	}
	if topScore <= 0 {
		return []*Candidate{}, nil
	}

	chunks, err := a.meta.GetChunks(ctx, ids)
	if err != nil {
		return nil, err
	}

	candidates := make([]*Candidate, 0, len(chunks))
	for _, chunk := range chunks {
		if !ContainsWholeWord(chunk.Content, entity) {
			continue
		}
		md := map[string]string{MetaEntity: entity}
		if chunk.Section != "" {
			md[MetaSection] = chunk.Section
		}
		candidates = append(candidates, &Candidate{
			DocumentID: chunk.DocumentID,
			ChunkID:    chunk.ID,
			Filename:   chunk.Filename,
			Content:    chunk.Content,
			Score:      scores[chunk.ID] / topScore,
			Strategy:   StrategyEntity,
			Metadata:   md,
		})
	}

	slog.Debug("entity_search_complete",
		slog.String("entity", entity),
		slog.Int("candidates", len(candidates)))

	return candidates, nil
}
