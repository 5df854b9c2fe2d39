// Package watcher watches the docs directory for changes and drives
// incremental re-indexing through a debounced event stream.
package watcher

import (
	"time"
)

// Operation is the kind of change observed on a document.
type Operation int

const (
	// OpCreate indicates a new document appeared.
	OpCreate Operation = iota
	// OpModify indicates an existing document changed.
	OpModify
	// OpDelete indicates a document was removed.
	OpDelete
)

// String returns a human-readable operation name.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one observed document change.
type FileEvent struct {
	// Path is relative to the watched docs directory.
	Path string

	// Operation is the kind of change.
	Operation Operation

	// Timestamp is when the event was observed.
	Timestamp time.Time
}

// Options configures the watcher.
type Options struct {
	// DebounceWindow is how long to coalesce rapid events before emitting
	// a batch (default: 500ms).
	DebounceWindow time.Duration

	// EventBufferSize is the raw event channel buffer (default: 1000).
	EventBufferSize int
}

// WithDefaults fills zero fields with defaults.
func (o Options) WithDefaults() Options {
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = 500 * time.Millisecond
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = 1000
	}
	return o
}
