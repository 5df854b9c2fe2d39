package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/retrieval"
	"github.com/Sergey0703/aidocsbackend-sub002/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit    int
	entity   string
	require  []string
	format   string // "text", "json"
	noRerank bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed documents",
		Long: `Search runs the hybrid retrieval pipeline: vector, keyword, and
entity strategies fused into one ranked list.

Examples:
  aidocs search "registration renewal"
  aidocs search "inspection history" --entity 191-D-12345
  aidocs search "engine specs" --require VIN --limit 5
  aidocs search "fees" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.entity, "entity", "e", "", "Exact identifier to prioritize (e.g. a registration number)")
	cmd.Flags().StringSliceVarP(&opts.require, "require", "r", nil, "Terms that must appear as whole words (repeatable)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.noRerank, "no-rerank", false, "Skip LLM re-ranking even when enabled in config")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	ctx := cmd.Context()

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	if opts.noRerank {
		app.cfg.Rerank.Enabled = false
	}

	pipeline, err := app.newPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Close()

	result, err := pipeline.Run(ctx, retrieval.Query{
		Texts:         []string{query},
		Entity:        opts.entity,
		RequiredTerms: opts.require,
		Limit:         opts.limit,
	})
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(searchOutput(result))
	}

	ui.NewRenderer(cmd.OutOrStdout()).RenderResults(result)
	return nil
}

// jsonResult is the JSON shape of one search result.
type jsonResult struct {
	ChunkID    string            `json:"chunk_id"`
	Filename   string            `json:"filename"`
	Content    string            `json:"content"`
	Score      float64           `json:"score"`
	Strategies []string          `json:"strategies"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type jsonOutput struct {
	Results          []jsonResult `json:"results"`
	FinalCount       int          `json:"final_count"`
	Strategies       []string     `json:"strategies"`
	RerankingApplied bool         `json:"reranking_applied"`
}

func searchOutput(result *retrieval.FusionResult) jsonOutput {
	out := jsonOutput{
		Results:          make([]jsonResult, len(result.Results)),
		FinalCount:       result.FinalCount,
		Strategies:       result.Strategies,
		RerankingApplied: result.RerankingApplied,
	}
	for i, r := range result.Results {
		out.Results[i] = jsonResult{
			ChunkID:    r.ChunkID,
			Filename:   r.Filename,
			Content:    r.Content,
			Score:      r.DisplayScore(),
			Strategies: r.Strategies,
			Metadata:   r.Metadata,
		}
	}
	return out
}
