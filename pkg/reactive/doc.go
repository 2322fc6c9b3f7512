// Package reactive provides the observation substrate used by xform.
//
// The engine only needs two capabilities from a reactive runtime: an
// observable cell that notifies its readers when it changes, and a reaction
// that re-runs whenever any cell it read last time changes. Both are
// implemented here with explicit subscriber lists; dependencies are tracked
// automatically at runtime.
//
// # Core Types
//
// Signal[T] is an observable cell:
//
//	count := NewSignal(0)
//	value := count.Get()  // Read (subscribes current listener)
//	count.Set(5)          // Write (notifies subscribers)
//	count.Update(func(n int) int { return n + 1 })
//
// Tracker records the cells read inside Track and reports the first change:
//
//	t := NewTracker(func() { fmt.Println("stale") })
//	t.Track(func() { _ = count.Get() })
//
// Reaction re-runs a function when its dependencies change, and Watch
// builds the familiar expression/effect pair on top of it:
//
//	stop := Watch(func() int { return count.Get() }, func(next, prev int) {
//	    fmt.Println(prev, "->", next)
//	}, WatchOptions{})
//	defer stop()
//
// # Actions
//
// Writes that belong together are grouped with Batch or Action. Listeners
// are notified once, after the outermost batch on the goroutine completes:
//
//	Action("form:reset", func() {
//	    a.Set(1)
//	    b.Set(2)
//	})
//
// # Thread Safety
//
// All primitives are safe for concurrent use. The tracking context is
// per-goroutine, so a goroutine that should record dependencies must install
// its own listener via WithListener or Tracker.Track.
package reactive
