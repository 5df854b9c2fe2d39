package retrieval

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// MetaStrategyScores is the fused-result metadata key holding each
// contributing strategy's score as "name:score" pairs.
const MetaStrategyScores = "strategy_scores"

// FusionEngine deduplicates the candidate multiset by chunk ID and merges
// scores with a corroboration bonus: chunks found by multiple strategies
// rank above single-strategy hits with the same best score.
type FusionEngine struct {
	cfg Config
}

// NewFusionEngine creates a fusion engine.
func NewFusionEngine(cfg Config) *FusionEngine {
	return &FusionEngine{cfg: cfg.withDefaults()}
}

// FilterLexical drops lexical candidates whose content does not contain any
// query token as a whole word. This blocks substring false positives: a
// query for "river" gives no credit to a chunk that only contains "driver".
// Non-lexical strategies pass through untouched.
func FilterLexical(candidates []*Candidate, q Query) []*Candidate {
	tokens := queryTokens(q)
	if len(tokens) == 0 {
		return candidates
	}

	filtered := make([]*Candidate, 0, len(candidates))
	dropped := 0
	for _, c := range candidates {
		if c.Strategy != StrategyLexical {
			filtered = append(filtered, c)
			continue
		}
		if containsAnyWholeWord(c.Content, tokens) {
			filtered = append(filtered, c)
			continue
		}
		dropped++
	}

	if dropped > 0 {
		slog.Debug("lexical_safety_filter",
			slog.Int("dropped", dropped),
			slog.Int("kept", len(filtered)))
	}
	return filtered
}

// Fuse merges the candidate multiset into a deduplicated, deterministically
// ordered result list:
//
//  1. Group candidates by chunk ID, preserving first-sighting order.
//  2. Merge each group: score = max(scores) * (1 + bonus*(strategies-1)),
//     capped at 1.0, so corroboration never lowers a score.
//  3. Drop results missing any required term as a whole word.
//  4. Flag entity presence; it breaks score ties but never filters.
//  5. Sort by score desc, strategy count desc, entity presence, then
//     first-seen order.
func (f *FusionEngine) Fuse(candidates []*Candidate, q Query) []*FusedResult {
	groups := make(map[string][]*Candidate)
	order := make([]string, 0, len(candidates))

	for _, c := range candidates {
		if _, seen := groups[c.ChunkID]; !seen {
			order = append(order, c.ChunkID)
		}
		groups[c.ChunkID] = append(groups[c.ChunkID], c)
	}

	type ranked struct {
		result *FusedResult
		seq    int
	}
	merged := make([]ranked, 0, len(order))

	for seq, chunkID := range order {
		result := f.merge(groups[chunkID])

		if !ContainsAllWholeWords(result.Content, q.RequiredTerms) {
			continue
		}
		if q.Entity != "" {
			result.HasEntity = ContainsWholeWord(result.Content, q.Entity)
		}
		merged = append(merged, ranked{result: result, seq: seq})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.result.Score != b.result.Score {
			return a.result.Score > b.result.Score
		}
		if len(a.result.Strategies) != len(b.result.Strategies) {
			return len(a.result.Strategies) > len(b.result.Strategies)
		}
		if a.result.HasEntity != b.result.HasEntity {
			return a.result.HasEntity
		}
		return a.seq < b.seq
	})

	results := make([]*FusedResult, len(merged))
	for i, r := range merged {
		results[i] = r.result
	}
	return results
}

// merge combines one chunk's candidates into a single fused result.
func (f *FusionEngine) merge(group []*Candidate) *FusedResult {
	base := group[0]
	result := &FusedResult{
		DocumentID: base.DocumentID,
		ChunkID:    base.ChunkID,
		Filename:   base.Filename,
		Content:    base.Content,
		Metadata:   make(map[string]string),
	}

	// Best score per distinct strategy.
	strategyBest := make(map[string]float64)
	maxScore := 0.0
	for _, c := range group {
		if c.Score > maxScore {
			maxScore = c.Score
		}
		if prev, ok := strategyBest[c.Strategy]; !ok || c.Score > prev {
			if !ok {
				result.Strategies = append(result.Strategies, c.Strategy)
			}
			strategyBest[c.Strategy] = c.Score
		}
		for k, v := range c.Metadata {
			if _, exists := result.Metadata[k]; !exists {
				result.Metadata[k] = v
			}
		}
	}

	result.Score = MergeScores(maxScore, len(result.Strategies), f.cfg.CorroborationBonus)

	pairs := make([]string, 0, len(result.Strategies))
	for _, name := range result.Strategies {
		pairs = append(pairs, fmt.Sprintf("%s:%.3f", name, strategyBest[name]))
	}
	result.Metadata[MetaStrategyScores] = strings.Join(pairs, ",")

	return result
}

// MergeScores computes the fused score for a chunk retrieved by n distinct
// strategies whose best individual score is maxScore. The result is at
// least maxScore (monotonic in corroboration) and never exceeds 1.0.
func MergeScores(maxScore float64, n int, bonus float64) float64 {
	if n < 1 {
		return 0
	}
	fused := maxScore * (1 + bonus*float64(n-1))
	if fused > 1.0 {
		fused = 1.0
	}
	return fused
}

// queryTokens collects the distinct word tokens of all query texts, split
// on the same letter-or-digit rune class the whole-word matcher uses so
// non-ASCII queries tokenize consistently.
func queryTokens(q Query) []string {
	seen := make(map[string]bool)
	tokens := make([]string, 0)
	for _, text := range q.Texts {
		for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !isWordRune(r)
		}) {
			if !seen[tok] {
				seen[tok] = true
				tokens = append(tokens, tok)
			}
		}
	}
	return tokens
}

func containsAnyWholeWord(text string, terms []string) bool {
	for _, term := range terms {
		if ContainsWholeWord(text, term) {
			return true
		}
	}
	return false
}
