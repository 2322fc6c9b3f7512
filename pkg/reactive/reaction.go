package reactive

import (
	"sync"
	"sync/atomic"
)

// Reaction re-runs a function whenever the signals it read during its last
// run change. Each run collects a fresh dependency set.
//
// A Reaction created while an Owner is current is disposed with that Owner.
type Reaction struct {
	id uint64
	fn func()

	mu      sync.Mutex
	tracker *Tracker
	running bool
	rerun   bool

	disposed atomic.Bool
}

// NewReaction creates a reaction. It does not run until Run is called.
func NewReaction(fn func()) *Reaction {
	r := &Reaction{
		id: nextID(),
		fn: fn,
	}
	if owner := CurrentOwner(); owner != nil {
		owner.OnCleanup(r.Dispose)
	}
	return r
}

// ID returns the unique identifier for this reaction.
func (r *Reaction) ID() uint64 {
	return r.id
}

// Run executes the reaction now. A Run requested while another run is in
// progress is coalesced into one more pass after it.
func (r *Reaction) Run() {
	r.mu.Lock()
	if r.disposed.Load() {
		r.mu.Unlock()
		return
	}
	if r.running {
		r.rerun = true
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	for {
		var t *Tracker
		t = NewTracker(func() { r.invalidate(t) })

		r.mu.Lock()
		prev := r.tracker
		r.tracker = t
		r.mu.Unlock()

		r.runOnce(t)
		// Released after the new run subscribed, so a source read by both
		// runs never sees its observer count drop to zero.
		if prev != nil {
			prev.Dispose()
		}

		r.mu.Lock()
		if r.rerun && !r.disposed.Load() {
			r.rerun = false
			r.mu.Unlock()
			continue
		}
		r.rerun = false
		r.running = false
		r.mu.Unlock()

		if r.disposed.Load() {
			t.Dispose()
		}
		return
	}
}

// invalidate re-runs the reaction if t is still its current tracker.
func (r *Reaction) invalidate(t *Tracker) {
	r.mu.Lock()
	current := r.tracker == t
	r.mu.Unlock()
	if current {
		r.Run()
	}
}

func (r *Reaction) runOnce(t *Tracker) {
	defer func() {
		if p := recover(); p != nil {
			r.mu.Lock()
			r.running = false
			r.rerun = false
			r.mu.Unlock()
			panic(p)
		}
	}()
	t.Track(r.fn)
}

// Dispose stops the reaction and releases its subscriptions.
func (r *Reaction) Dispose() {
	if r.disposed.Swap(true) {
		return
	}
	r.mu.Lock()
	t := r.tracker
	r.tracker = nil
	r.mu.Unlock()
	if t != nil {
		t.Dispose()
	}
}

// IsDisposed reports whether Dispose has been called.
func (r *Reaction) IsDisposed() bool {
	return r.disposed.Load()
}

// WatchOption configures Watch.
type WatchOption func(*watchConfig)

type watchConfig struct {
	fireImmediately bool
	equals          func(a, b any) bool
}

// FireImmediately makes Watch call effect with the first value of expr.
func FireImmediately() WatchOption {
	return func(c *watchConfig) {
		c.fireImmediately = true
	}
}

// WatchEquals replaces the comparison used to decide whether expr changed.
func WatchEquals(fn func(a, b any) bool) WatchOption {
	return func(c *watchConfig) {
		c.equals = fn
	}
}

// Watch tracks expr and calls effect(next, prev) whenever its result
// changes. effect runs untracked. The returned function stops watching.
//
//	stop := reactive.Watch(
//	    func() any { return model.Value("name") },
//	    func(next, prev any) { log.Println(prev, "->", next) },
//	)
//	defer stop()
func Watch[T any](expr func() T, effect func(next, prev T), opts ...WatchOption) (stop func()) {
	cfg := &watchConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	equals := defaultEquals[T]
	if cfg.equals != nil {
		equals = func(a, b T) bool { return cfg.equals(a, b) }
	}

	var (
		mu    sync.Mutex
		prev  T
		first = true
	)
	r := NewReaction(func() {
		next := expr()

		mu.Lock()
		wasFirst := first
		old := prev
		first = false
		prev = next
		mu.Unlock()

		if wasFirst {
			if cfg.fireImmediately {
				Untracked(func() { effect(next, old) })
			}
			return
		}
		if equals(old, next) {
			return
		}
		Untracked(func() { effect(next, old) })
	})
	r.Run()
	return r.Dispose
}
