package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(path string, op Operation) FileEvent {
	return FileEvent{Path: path, Operation: op, Timestamp: time.Now()}
}

func collectBatch(t *testing.T, d *Debouncer) []FileEvent {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debounced batch")
		return nil
	}
}

func TestDebouncer_CoalescesRapidModifies(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Add(event("doc.md", OpModify))
	}

	batch := collectBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, OpModify, batch[0].Operation)
}

func TestDebouncer_CreateThenModifyIsCreate(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Add(event("doc.md", OpCreate))
	d.Add(event("doc.md", OpModify))

	batch := collectBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, OpCreate, batch[0].Operation)
}

func TestDebouncer_CreateThenDeleteCancels(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Add(event("temp.md", OpCreate))
	d.Add(event("temp.md", OpDelete))
	d.Add(event("other.md", OpModify))

	batch := collectBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, "other.md", batch[0].Path)
}

func TestDebouncer_DeleteThenCreateIsModify(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Add(event("doc.md", OpDelete))
	d.Add(event("doc.md", OpCreate))

	batch := collectBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, OpModify, batch[0].Operation)
}

func TestDebouncer_SeparatePathsStaySeparate(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Add(event("a.md", OpModify))
	d.Add(event("b.md", OpModify))

	batch := collectBatch(t, d)
	assert.Len(t, batch, 2)
}

func TestDebouncer_AddAfterStopIsIgnored(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	d.Stop()

	d.Add(event("doc.md", OpModify))

	_, ok := <-d.Output()
	assert.False(t, ok)
}
