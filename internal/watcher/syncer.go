package watcher

import (
	"context"
	"log/slog"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/ingest"
)

// Syncer applies debounced event batches to the index. One failing
// document is logged and skipped; the batch continues.
type Syncer struct {
	indexer *ingest.Indexer

	// AfterBatch, when set, runs after each applied batch. Used to persist
	// the vector index to disk.
	AfterBatch func(ctx context.Context) error
}

// NewSyncer creates a syncer over the indexer.
func NewSyncer(indexer *ingest.Indexer) *Syncer {
	return &Syncer{indexer: indexer}
}

// Run consumes event batches until the channel closes or ctx is cancelled.
func (s *Syncer) Run(ctx context.Context, batches <-chan []FileEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-batches:
			if !ok {
				return
			}
			s.apply(ctx, batch)
		}
	}
}

func (s *Syncer) apply(ctx context.Context, batch []FileEvent) {
	indexed, removed, failed := 0, 0, 0

	for _, ev := range batch {
		var err error
		switch ev.Operation {
		case OpDelete:
			err = s.indexer.RemoveFile(ctx, ev.Path)
			removed++
		default:
			err = s.indexer.IndexFile(ctx, ev.Path)
			indexed++
		}
		if err != nil {
			failed++
			slog.Warn("sync_event_failed",
				slog.String("path", ev.Path),
				slog.String("op", ev.Operation.String()),
				slog.String("error", err.Error()))
		}
	}

	if s.AfterBatch != nil {
		if err := s.AfterBatch(ctx); err != nil {
			slog.Warn("sync_after_batch_failed", slog.String("error", err.Error()))
		}
	}

	slog.Info("sync_batch_applied",
		slog.Int("indexed", indexed),
		slog.Int("removed", removed),
		slog.Int("failed", failed))
}
