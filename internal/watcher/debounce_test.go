package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerSingleEventPassesThrough(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "test.go", Operation: OpCreate, Timestamp: time.Now()})

	select {
	case event := <-d.Output():
		assert.Equal(t, "test.go", event.Path)
		assert.Equal(t, OpCreate, event.Operation)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for debounced event")
	}
}

func TestDebouncerCoalescesRepeatedModify(t *testing.T) {
	d := NewDebouncer(60 * time.Millisecond)
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Add(FileEvent{Path: "test.go", Operation: OpModify, Timestamp: time.Now()})
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case event := <-d.Output():
		assert.Equal(t, "test.go", event.Path)
		assert.Equal(t, OpModify, event.Operation)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for debounced event")
	}

	select {
	case extra, ok := <-d.Output():
		if ok {
			t.Fatalf("expected no second event, got %+v", extra)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncerCreateThenDeleteCancels(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "temp.go", Operation: OpCreate, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "temp.go", Operation: OpDelete, Timestamp: time.Now()})

	select {
	case event, ok := <-d.Output():
		if ok {
			t.Fatalf("expected no event, got %+v", event)
		}
	case <-time.After(200 * time.Millisecond):
	}
}

func TestDebouncerDeleteThenCreateBecomesModify(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "swap.go", Operation: OpDelete, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "swap.go", Operation: OpCreate, Timestamp: time.Now()})

	select {
	case event := <-d.Output():
		require.Equal(t, OpModify, event.Operation)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for debounced event")
	}
}

func TestDebouncerStopClosesOutput(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	d.Stop()
	d.Stop() // safe to call twice

	_, ok := <-d.Output()
	require.False(t, ok)
}
