// Package retrieval implements hybrid retrieval: multi-strategy candidate
// fan-out, word-boundary lexical filtering, score fusion with corroboration
// boosting, and optional async LLM re-ranking.
package retrieval

import (
	"time"
)

// Strategy names, used for candidate attribution and fusion metadata.
const (
	StrategyVector  = "vector"
	StrategyLexical = "lexical"
	StrategyEntity  = "entity"
)

// Default retrieval parameters.
const (
	// DefaultMaxResults is the default number of fused results returned.
	DefaultMaxResults = 10

	// DefaultCandidatesPerStrategy is how many candidates each adapter
	// fetches. Kept above MaxResults so fusion sees enough evidence.
	DefaultCandidatesPerStrategy = 50

	// DefaultCorroborationBonus is the per-extra-strategy score multiplier
	// step applied during fusion.
	DefaultCorroborationBonus = 0.1

	// DefaultParallelism bounds concurrent adapter invocations.
	DefaultParallelism = 4
)

// Query is a single retrieval request.
type Query struct {
	// Texts are the query variants to search for. The first entry is the
	// primary query; additional entries are reformulations that widen recall.
	Texts []string

	// Entity is an optional exact identifier hint (e.g. a vehicle
	// registration number). When set the entity adapter activates and
	// entity-bearing chunks win score ties.
	Entity string

	// RequiredTerms must appear as whole words in a result's content.
	// Candidates missing any term are dropped during fusion.
	RequiredTerms []string

	// Limit caps the number of fused results (default: DefaultMaxResults).
	Limit int
}

// Primary returns the first query text, or "" when empty.
func (q Query) Primary() string {
	if len(q.Texts) == 0 {
		return ""
	}
	return q.Texts[0]
}

// Candidate is one retrieval hit from a single strategy, the uniform shape
// every adapter produces.
type Candidate struct {
	// DocumentID identifies the source document.
	DocumentID string

	// ChunkID identifies the chunk, the dedup key during fusion.
	ChunkID string

	// Filename is the base name of the source document.
	Filename string

	// Content is the chunk text.
	Content string

	// Score is the strategy-local relevance score in [0,1].
	Score float64

	// Strategy names the adapter that produced this candidate.
	Strategy string

	// Metadata carries per-strategy annotations (matched terms, entity span).
	Metadata map[string]string
}

// RetrievalResult is the unordered output of the multi-strategy fan-out.
type RetrievalResult struct {
	// Candidates is the raw multiset, duplicates across strategies included.
	Candidates []*Candidate

	// Strategies is the set of adapters that contributed at least one
	// candidate.
	Strategies []string

	// Attempted is the number of adapters invoked.
	Attempted int
}

// FusedResult is one deduplicated, score-merged retrieval result.
type FusedResult struct {
	// DocumentID identifies the source document.
	DocumentID string

	// ChunkID identifies the merged chunk.
	ChunkID string

	// Filename is the base name of the source document.
	Filename string

	// Content is the chunk text.
	Content string

	// Score is the fused score in [0,1]. After successful re-ranking it is
	// replaced by LLMScore/10.
	Score float64

	// Strategies lists the adapters that retrieved this chunk.
	Strategies []string

	// HasEntity reports whether the query's entity hint appears in the
	// content as a whole word.
	HasEntity bool

	// LLMScored is true when the re-ranker successfully scored this result.
	LLMScored bool

	// LLMScore is the raw re-ranker relevance score (0-10).
	LLMScore float64

	// LLMRelevant is the re-ranker's boolean verdict.
	LLMRelevant bool

	// Metadata holds merged per-strategy annotations plus fusion evidence
	// under "strategy_scores".
	Metadata map[string]string
}

// DisplayScore returns the user-facing score: LLMScore/10 when the result
// was re-ranked, otherwise the fused score.
func (r *FusedResult) DisplayScore() float64 {
	if r.LLMScored {
		return r.LLMScore / 10.0
	}
	return r.Score
}

// FusionResult is the final ordered output of the pipeline.
type FusionResult struct {
	// Results is the deduplicated, deterministically ordered result list.
	Results []*FusedResult

	// FinalCount equals len(Results).
	FinalCount int

	// Strategies is the set of adapters that contributed candidates.
	Strategies []string

	// RerankingApplied is true when at least one result received an LLM
	// score. It stays false when re-ranking is disabled, the backend is
	// unavailable, or every scoring call failed.
	RerankingApplied bool

	// Timings holds per-stage elapsed times.
	Timings StageTimings
}

// StageTimings records per-stage pipeline latency.
type StageTimings struct {
	Retrieve time.Duration
	Fuse     time.Duration
	Rerank   time.Duration
	Total    time.Duration
}

// Config tunes the retriever and fusion engine.
type Config struct {
	// MaxResults caps the fused result list (default: 10).
	MaxResults int

	// CandidatesPerStrategy is each adapter's fetch limit (default: 50).
	CandidatesPerStrategy int

	// CorroborationBonus is the fusion multiplier step: with bonus b and n
	// contributing strategies the fused score is max(scores)*(1+b*(n-1)),
	// capped at 1.0 (default: 0.1).
	CorroborationBonus float64

	// Parallelism bounds concurrent adapter invocations (default: 4).
	Parallelism int
}

// withDefaults fills zero fields with package defaults.
func (c Config) withDefaults() Config {
	if c.MaxResults <= 0 {
		c.MaxResults = DefaultMaxResults
	}
	if c.CandidatesPerStrategy <= 0 {
		c.CandidatesPerStrategy = DefaultCandidatesPerStrategy
	}
	if c.CorroborationBonus < 0 {
		c.CorroborationBonus = 0
	}
	if c.Parallelism <= 0 {
		c.Parallelism = DefaultParallelism
	}
	return c
}
