package reactive

import "log/slog"

// DebugMode enables debug logging of action boundaries.
// This should be set at startup and not changed during runtime.
var DebugMode bool

// Batch groups multiple signal updates into a single notification phase.
// All signal updates within fn are collected, deduplicated, and affected
// listeners are notified once when the outermost batch completes.
//
// Batches can be nested. Notifications only fire when the outermost batch
// on the current goroutine completes.
func Batch(fn func()) {
	f := current()
	f.depth++
	defer func() {
		f.depth--
		if f.depth == 0 {
			flush(f)
			forget()
		}
	}()
	fn()
}

// flush notifies every listener queued on f once, in queue order. Listeners
// queued while flushing are picked up by the same loop.
func flush(f *frame) {
	seen := make(map[uint64]struct{})
	for len(f.queued) > 0 {
		queued := f.queued
		f.queued = nil
		for _, l := range queued {
			if _, dup := seen[l.ID()]; dup {
				continue
			}
			seen[l.ID()] = struct{}{}
			l.MarkDirty()
		}
	}
}

// enqueue defers l until the open batch on this goroutine ends. It reports
// false when no batch is open.
func enqueue(l Listener) bool {
	f := current()
	if f.depth == 0 {
		return false
	}
	f.queued = append(f.queued, l)
	return true
}

// Action runs fn as a named write region. It is the boundary every tree
// mutation goes through: dependents observe all writes made inside fn as one
// update.
//
//	Action("array:move", func() {
//	    values.Set(reordered)
//	    names.Set(renumbered)
//	})
func Action(name string, fn func()) {
	if DebugMode {
		slog.Debug("reactive: action start", "name", name)
		defer slog.Debug("reactive: action end", "name", name)
	}
	Batch(fn)
}

// InBatch reports whether the current goroutine is inside Batch or Action.
func InBatch() bool {
	return current().depth > 0
}

// Untracked runs a function without tracking signal reads as dependencies.
//
// For single signal reads, prefer signal.Peek().
func Untracked(fn func()) {
	prev := swapListener(nil)
	defer func() {
		swapListener(prev)
		forget()
	}()
	fn()
}
