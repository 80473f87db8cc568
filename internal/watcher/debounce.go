package watcher

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultWindow is the debounce window used when none is configured,
// per the documented 500ms default.
const DefaultWindow = 500 * time.Millisecond

// Debouncer coalesces rapid events for the same path within a window
// so a burst of writes to one file produces one downstream event.
// Coalescing rules, keyed by the first operation seen for a path:
//   - CREATE + MODIFY = CREATE (file is still new)
//   - CREATE + DELETE = nothing (file never really existed)
//   - MODIFY + MODIFY = latest MODIFY
//   - MODIFY + DELETE = DELETE
//   - DELETE + CREATE = MODIFY (file was replaced)
type Debouncer struct {
	window  time.Duration
	pending map[string]*pendingEvent
	mu      sync.Mutex
	output  chan FileEvent
	timer   *time.Timer
	stopped bool
}

type pendingEvent struct {
	event   FileEvent
	firstOp Operation
}

// NewDebouncer creates a debouncer that coalesces within window. A
// zero window uses DefaultWindow.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{
		window:  window,
		pending: make(map[string]*pendingEvent),
		output:  make(chan FileEvent, 64),
	}
}

// Add records a raw event, coalescing it with any pending event for
// the same path, and (re)schedules the flush timer.
func (d *Debouncer) Add(event FileEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if existing, ok := d.pending[event.Path]; ok {
		coalesced := coalesce(existing.firstOp, existing.event, event)
		if coalesced == nil {
			delete(d.pending, event.Path)
		} else {
			existing.event = *coalesced
		}
	} else {
		d.pending[event.Path] = &pendingEvent{event: event, firstOp: event.Operation}
	}

	d.scheduleFlush()
}

// coalesce merges an existing pending event with a newly arrived one
// for the same path, according to firstOp. Returns nil if the pair
// cancels out.
func coalesce(firstOp Operation, existing, incoming FileEvent) *FileEvent {
	switch firstOp {
	case OpCreate:
		switch incoming.Operation {
		case OpModify:
			return &existing
		case OpDelete:
			return nil
		default:
			return &incoming
		}
	case OpModify:
		return &incoming
	case OpDelete:
		if incoming.Operation == OpCreate {
			result := incoming
			result.Operation = OpModify
			return &result
		}
		return &incoming
	default:
		return &incoming
	}
}

func (d *Debouncer) scheduleFlush() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.pending) == 0 {
		return
	}

	for path, pe := range d.pending {
		select {
		case d.output <- pe.event:
		default:
			slog.Warn("debouncer output full, dropping event", slog.String("path", path))
		}
	}
	d.pending = make(map[string]*pendingEvent)
}

// Output returns the channel of debounced, coalesced events.
func (d *Debouncer) Output() <-chan FileEvent {
	return d.output
}

// Stop stops the debouncer's timer and closes Output. Safe to call
// more than once.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.output)
}
