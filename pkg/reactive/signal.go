package reactive

import (
	"reflect"
	"slices"
	"sync"
)

// cell is the untyped half of a Signal: who is subscribed and what to do
// when that set becomes empty or non-empty. Trackers keep *cell so they can
// hold sources of any value type.
type cell struct {
	id uint64

	mu         sync.RWMutex
	listeners  []Listener
	observed   func()
	unobserved func()
}

func (c *cell) subscribe(l Listener) {
	if l == nil {
		return
	}
	id := l.ID()

	c.mu.Lock()
	if slices.ContainsFunc(c.listeners, func(x Listener) bool { return x.ID() == id }) {
		c.mu.Unlock()
		return
	}
	c.listeners = append(c.listeners, l)
	var hook func()
	if len(c.listeners) == 1 {
		hook = c.observed
	}
	c.mu.Unlock()

	// Hooks may read or subscribe again, so they run unlocked.
	if hook != nil {
		hook()
	}
}

func (c *cell) unsubscribe(l Listener) {
	if l == nil {
		return
	}
	id := l.ID()

	c.mu.Lock()
	n := len(c.listeners)
	c.listeners = slices.DeleteFunc(c.listeners, func(x Listener) bool { return x.ID() == id })
	var hook func()
	if n > 0 && len(c.listeners) == 0 {
		hook = c.unobserved
	}
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// notify marks every subscriber dirty, or queues them if a batch is open
// on this goroutine. The subscriber list is copied first so listeners may
// unsubscribe while being notified.
func (c *cell) notify() {
	c.mu.RLock()
	listeners := slices.Clone(c.listeners)
	c.mu.RUnlock()

	for _, l := range listeners {
		if !enqueue(l) {
			l.MarkDirty()
		}
	}
}

// read subscribes the goroutine's listener, if any.
func (c *cell) read() {
	l := activeListener()
	if l == nil {
		return
	}
	c.subscribe(l)
	if sc, ok := l.(sourceCollector); ok {
		sc.addSource(c)
	}
}

// Signal is an observable value cell.
// Reading a Signal's value while a listener is installed on the goroutine
// subscribes that listener to future changes.
type Signal[T any] struct {
	cell cell

	mu    sync.RWMutex
	value T
	equal func(T, T) bool
}

// NewSignal creates a new signal with the given initial value.
func NewSignal[T any](initial T) *Signal[T] {
	s := &Signal[T]{value: initial}
	s.cell.id = nextID()
	return s
}

// Get returns the current value and subscribes the current listener.
func (s *Signal[T]) Get() T {
	v := s.Peek()
	s.cell.read()
	return v
}

// Peek returns the current value without subscribing.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set stores value. Subscribers are notified only if the equality function
// reports a change.
func (s *Signal[T]) Set(value T) {
	s.Update(func(T) T { return value })
}

// Update replaces the value with fn(old) under the signal's lock.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	next := fn(s.value)
	eq := s.equal
	if eq == nil {
		eq = defaultEquals[T]
	}
	changed := !eq(s.value, next)
	if changed {
		s.value = next
	}
	s.mu.Unlock()

	if changed {
		s.cell.notify()
	}
}

// Notify reports a change to subscribers without touching the value.
func (s *Signal[T]) Notify() {
	s.cell.notify()
}

// WithEquals sets the equality function used by Set and Update and returns s.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.mu.Lock()
	s.equal = fn
	s.mu.Unlock()
	return s
}

// OnObserved registers fn to run when the signal gains its first subscriber.
// Passing nil removes the hook.
func (s *Signal[T]) OnObserved(fn func()) {
	s.cell.mu.Lock()
	s.cell.observed = fn
	s.cell.mu.Unlock()
}

// OnUnobserved registers fn to run when the signal loses its last subscriber.
// Passing nil removes the hook.
func (s *Signal[T]) OnUnobserved(fn func()) {
	s.cell.mu.Lock()
	s.cell.unobserved = fn
	s.cell.mu.Unlock()
}

// Observers returns the number of subscribed listeners.
func (s *Signal[T]) Observers() int {
	s.cell.mu.RLock()
	defer s.cell.mu.RUnlock()
	return len(s.cell.listeners)
}

// Subscribe attaches l directly, outside of any tracking scope.
func (s *Signal[T]) Subscribe(l Listener) {
	s.cell.subscribe(l)
}

func (s *Signal[T]) Unsubscribe(l Listener) {
	s.cell.unsubscribe(l)
}

func (s *Signal[T]) ID() uint64 {
	return s.cell.id
}

// defaultEquals compares common scalar types with == and falls back to
// reflect.DeepEqual.
func defaultEquals[T any](a, b T) bool {
	switch x := any(a).(type) {
	case string:
		y, ok := any(b).(string)
		return ok && x == y
	case int:
		y, ok := any(b).(int)
		return ok && x == y
	case int64:
		y, ok := any(b).(int64)
		return ok && x == y
	case uint64:
		y, ok := any(b).(uint64)
		return ok && x == y
	case float64:
		y, ok := any(b).(float64)
		return ok && x == y
	case bool:
		y, ok := any(b).(bool)
		return ok && x == y
	}
	return reflect.DeepEqual(a, b)
}
