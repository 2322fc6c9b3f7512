package reactive

import (
	"sync"
	"sync/atomic"
)

// Tracker is a one-shot Listener. It records the signals read inside Track
// and invokes its invalidation callback the first time any of them changes.
//
// A Tracker is the building block for reactions and for code that needs to
// re-run work on another goroutine, where the current listener is not
// inherited automatically.
type Tracker struct {
	id uint64

	onInvalidate func()

	mu       sync.Mutex
	sources  []*cell
	disposed bool

	fired atomic.Bool
}

// NewTracker creates a tracker that calls onInvalidate at most once.
func NewTracker(onInvalidate func()) *Tracker {
	return &Tracker{
		id:           nextID(),
		onInvalidate: onInvalidate,
	}
}

// ID implements Listener.
func (t *Tracker) ID() uint64 {
	return t.id
}

// Track runs fn with t installed as the goroutine's listener.
func (t *Tracker) Track(fn func()) {
	WithListener(t, fn)
}

// MarkDirty implements Listener.
func (t *Tracker) MarkDirty() {
	t.mu.Lock()
	disposed := t.disposed
	t.mu.Unlock()
	if disposed {
		return
	}
	if !t.fired.CompareAndSwap(false, true) {
		return
	}
	if t.onInvalidate != nil {
		t.onInvalidate()
	}
}

// Fired reports whether the invalidation callback has been invoked.
func (t *Tracker) Fired() bool {
	return t.fired.Load()
}

// Sources returns the number of distinct signals read so far.
func (t *Tracker) Sources() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sources)
}

func (t *Tracker) addSource(s *cell) {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		s.unsubscribe(t)
		return
	}
	for _, existing := range t.sources {
		if existing == s {
			t.mu.Unlock()
			return
		}
	}
	t.sources = append(t.sources, s)
	t.mu.Unlock()
}

// Dispose unsubscribes from every recorded signal. The callback never fires
// after Dispose returns.
func (t *Tracker) Dispose() {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return
	}
	t.disposed = true
	sources := t.sources
	t.sources = nil
	t.mu.Unlock()

	for _, s := range sources {
		s.unsubscribe(t)
	}
}
