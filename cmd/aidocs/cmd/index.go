package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/ingest"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index the docs directory",
		Long: `Index scans the configured docs directory, chunks and embeds every
document, and writes the lexical, vector, and metadata stores.
Unchanged documents are skipped; deleted ones are removed.

Examples:
  aidocs index
  aidocs index --config ./prod.aidocs.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd)
		},
	}
	return cmd
}

func runIndex(cmd *cobra.Command) error {
	ctx := cmd.Context()

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	lock := ingest.NewRebuildLock(app.cfg.Paths.IndexDir)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer lock.Release()

	stats, err := app.newIndexer().IndexAll(ctx)
	if err != nil {
		return err
	}
	if err := app.saveVectors(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Indexed %d documents (%d chunks) in %s\n",
		stats.DocumentsIndexed, stats.ChunksIndexed, stats.Duration.Round(timeRound))
	if stats.DocumentsSkipped > 0 {
		fmt.Fprintf(out, "Skipped %d unchanged documents\n", stats.DocumentsSkipped)
	}
	if stats.DocumentsRemoved > 0 {
		fmt.Fprintf(out, "Removed %d deleted documents\n", stats.DocumentsRemoved)
	}
	return nil
}
