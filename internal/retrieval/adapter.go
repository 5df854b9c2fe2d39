package retrieval

import (
	"context"
)

// MetaSection is the candidate metadata key holding the source chunk's
// heading path, when it has one.
const MetaSection = "section"

// Adapter is a single retrieval strategy. Implementations return candidates
// in the uniform Candidate shape with strategy-local scores in [0,1].
type Adapter interface {
	// Name returns the strategy name used for attribution.
	Name() string

	// Search retrieves up to limit candidates for the query. Adapters that
	// do not apply to the query (for example the entity adapter without an
	// entity hint) return an empty slice and no error.
	Search(ctx context.Context, q Query, limit int) ([]*Candidate, error)
}
