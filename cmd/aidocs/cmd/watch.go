package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the docs directory and re-index on changes",
		Long: `Watch runs an initial index, then keeps the index in sync with the
docs directory: changed documents are re-indexed and deleted ones
removed, debounced so editor save bursts index once.

Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd)
		},
	}
	return cmd
}

func runWatch(cmd *cobra.Command) error {
	ctx := cmd.Context()

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	indexer := app.newIndexer()

	stats, err := indexer.IndexAll(ctx)
	if err != nil {
		return err
	}
	if err := app.saveVectors(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d documents, watching %s\n",
		stats.DocumentsIndexed, app.cfg.Paths.DocsDir)

	w := watcher.NewDocsWatcher(watcher.Options{
		DebounceWindow: app.cfg.Ingest.WatchDebounce,
	})
	if err := w.Start(ctx, app.cfg.Paths.DocsDir); err != nil {
		return err
	}
	defer w.Stop()

	syncer := watcher.NewSyncer(indexer)
	syncer.AfterBatch = func(_ context.Context) error {
		return app.saveVectors()
	}

	// Blocks until ctx is cancelled or the watcher stops.
	syncer.Run(ctx, w.Events())
	return nil
}
