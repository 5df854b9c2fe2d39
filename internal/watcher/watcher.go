package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/ingest"
)

// DocsWatcher watches a docs directory tree with fsnotify and emits
// debounced batches of document events. New subdirectories are added to
// the watch as they appear.
type DocsWatcher struct {
	opts      Options
	root      string
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	errs      chan error
	stopOnce  sync.Once
	done      chan struct{}
}

// NewDocsWatcher creates a watcher with the given options.
func NewDocsWatcher(opts Options) *DocsWatcher {
	opts = opts.WithDefaults()
	return &DocsWatcher{
		opts:      opts,
		debouncer: NewDebouncer(opts.DebounceWindow),
		errs:      make(chan error, 10),
		done:      make(chan struct{}),
	}
}

// Start begins watching root recursively. It returns once the watch is
// established; events flow until Stop is called or ctx is cancelled.
func (w *DocsWatcher) Start(ctx context.Context, root string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw
	w.root = root

	if err := w.watchTree(root); err != nil {
		fsw.Close()
		return err
	}

	go w.run(ctx)

	slog.Info("watcher_started", slog.String("root", root))
	return nil
}

// Events returns the channel of debounced event batches.
func (w *DocsWatcher) Events() <-chan []FileEvent {
	return w.debouncer.Output()
}

// Errors returns non-fatal watcher errors.
func (w *DocsWatcher) Errors() <-chan error {
	return w.errs
}

// Stop stops watching and closes the event channels. Safe to call
// multiple times.
func (w *DocsWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		if w.fsw != nil {
			err = w.fsw.Close()
		}
		w.debouncer.Stop()
		close(w.errs)
	})
	return err
}

// watchTree adds root and all its subdirectories to the watch.
func (w *DocsWatcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *DocsWatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

func (w *DocsWatcher) handle(ev fsnotify.Event) {
	// New directories join the watch; their contents arrive as events.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !strings.HasPrefix(filepath.Base(ev.Name), ".") {
				_ = w.watchTree(ev.Name)
			}
			return
		}
	}

	if !ingest.IsIndexable(ev.Name) {
		return
	}

	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	var op Operation
	switch {
	case ev.Op.Has(fsnotify.Create):
		op = OpCreate
	case ev.Op.Has(fsnotify.Write):
		op = OpModify
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		op = OpDelete
	default:
		return
	}

	w.debouncer.Add(FileEvent{
		Path:      rel,
		Operation: op,
		Timestamp: time.Now(),
	})
}
