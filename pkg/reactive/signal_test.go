package reactive

import (
	"sync"
	"testing"
)

func TestSignalBasic(t *testing.T) {
	count := NewSignal(0)

	if count.Get() != 0 {
		t.Errorf("expected initial value 0, got %d", count.Get())
	}

	count.Set(5)
	if count.Get() != 5 {
		t.Errorf("expected value 5, got %d", count.Get())
	}

	count.Update(func(n int) int { return n * 2 })
	if count.Get() != 10 {
		t.Errorf("expected value 10, got %d", count.Get())
	}
}

func TestSignalPeek(t *testing.T) {
	count := NewSignal(42)

	listener := newTestListener()
	WithListener(listener, func() {
		if v := count.Peek(); v != 42 {
			t.Errorf("expected 42, got %d", v)
		}
	})

	count.Set(100)
	if listener.getDirtyCount() != 0 {
		t.Errorf("Peek should not subscribe listener, got %d notifications", listener.getDirtyCount())
	}
}

func TestSignalSubscription(t *testing.T) {
	count := NewSignal(0)
	listener := newTestListener()

	WithListener(listener, func() {
		_ = count.Get()
	})

	count.Set(1)
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification, got %d", listener.getDirtyCount())
	}

	// Same value should not notify
	count.Set(1)
	if listener.getDirtyCount() != 1 {
		t.Errorf("same value should not notify, got %d", listener.getDirtyCount())
	}

	count.Set(2)
	if listener.getDirtyCount() != 2 {
		t.Errorf("expected 2 notifications, got %d", listener.getDirtyCount())
	}
}

func TestSignalNotify(t *testing.T) {
	rev := NewSignal(struct{}{})
	listener := newTestListener()
	WithListener(listener, func() {
		rev.Get()
	})

	rev.Notify()
	rev.Notify()
	if listener.getDirtyCount() != 2 {
		t.Errorf("expected 2 notifications, got %d", listener.getDirtyCount())
	}
}

func TestSignalAnyMixedTypes(t *testing.T) {
	v := NewSignal[any](1)
	listener := newTestListener()
	WithListener(listener, func() {
		v.Get()
	})

	v.Set("1")
	if listener.getDirtyCount() != 1 {
		t.Errorf("changing dynamic type should notify, got %d", listener.getDirtyCount())
	}

	v.Set(map[string]any{"a": 1})
	v.Set(map[string]any{"a": 1})
	if listener.getDirtyCount() != 2 {
		t.Errorf("deep-equal maps should not notify twice, got %d", listener.getDirtyCount())
	}
}

func TestSignalWithEquals(t *testing.T) {
	always := NewSignal(0).WithEquals(func(a, b int) bool { return false })
	listener := newTestListener()
	WithListener(listener, func() {
		always.Get()
	})

	always.Set(0)
	if listener.getDirtyCount() != 1 {
		t.Errorf("custom equals should force notification, got %d", listener.getDirtyCount())
	}
}

func TestSignalObservedHooks(t *testing.T) {
	s := NewSignal(0)
	var observed, unobserved int
	s.OnObserved(func() { observed++ })
	s.OnUnobserved(func() { unobserved++ })

	a := newTestListener()
	b := newTestListener()
	s.Subscribe(a)
	s.Subscribe(b)
	s.Subscribe(a)

	if observed != 1 {
		t.Errorf("expected observed once, got %d", observed)
	}
	if s.Observers() != 2 {
		t.Errorf("expected 2 observers, got %d", s.Observers())
	}

	s.Unsubscribe(a)
	if unobserved != 0 {
		t.Errorf("unobserved should wait for last subscriber, got %d", unobserved)
	}
	s.Unsubscribe(b)
	if unobserved != 1 {
		t.Errorf("expected unobserved once, got %d", unobserved)
	}
}

func TestSignalConcurrentAccess(t *testing.T) {
	count := NewSignal(0)
	const numGoroutines = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			count.Update(func(n int) int { return n + 1 })
			WithListener(newTestListener(), func() {
				_ = count.Get()
			})
		}()
	}
	wg.Wait()

	if count.Peek() != numGoroutines {
		t.Errorf("expected %d, got %d", numGoroutines, count.Peek())
	}
}
