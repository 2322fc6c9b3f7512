package reactive

import (
	"sync"
	"testing"
	"time"
)

func TestTrackerFiresOnce(t *testing.T) {
	a := NewSignal(0)
	b := NewSignal(0)
	fired := 0
	tr := NewTracker(func() { fired++ })
	tr.Track(func() {
		a.Get()
		b.Get()
		a.Get()
	})

	if tr.Sources() != 2 {
		t.Errorf("expected 2 sources, got %d", tr.Sources())
	}

	a.Set(1)
	b.Set(1)
	if fired != 1 {
		t.Errorf("expected 1 invalidation, got %d", fired)
	}
	if !tr.Fired() {
		t.Error("expected Fired to be true")
	}
}

func TestTrackerDispose(t *testing.T) {
	a := NewSignal(0)
	fired := 0
	tr := NewTracker(func() { fired++ })
	tr.Track(func() { a.Get() })
	tr.Dispose()

	a.Set(1)
	if fired != 0 {
		t.Errorf("disposed tracker should not fire, got %d", fired)
	}
	if a.Observers() != 0 {
		t.Errorf("expected no observers after dispose, got %d", a.Observers())
	}
}

func TestTrackerAcrossGoroutines(t *testing.T) {
	a := NewSignal(0)
	fired := make(chan struct{}, 1)
	tr := NewTracker(func() { fired <- struct{}{} })

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		tr.Track(func() { a.Get() })
	}()
	wg.Wait()

	a.Set(1)
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("tracker installed on another goroutine should fire")
	}
}

func TestReactionRerunsWithFreshDependencies(t *testing.T) {
	useA := NewSignal(true)
	a := NewSignal(0)
	b := NewSignal(0)
	runs := 0

	r := NewReaction(func() {
		runs++
		if useA.Get() {
			a.Get()
		} else {
			b.Get()
		}
	})
	r.Run()
	defer r.Dispose()

	b.Set(1)
	if runs != 1 {
		t.Errorf("b is not a dependency yet, got %d runs", runs)
	}

	useA.Set(false)
	if runs != 2 {
		t.Errorf("expected 2 runs, got %d", runs)
	}

	a.Set(1)
	if runs != 2 {
		t.Errorf("a should no longer be a dependency, got %d runs", runs)
	}

	b.Set(2)
	if runs != 3 {
		t.Errorf("expected 3 runs, got %d", runs)
	}
}

func TestReactionSelfWriteCoalesces(t *testing.T) {
	n := NewSignal(0)
	runs := 0
	r := NewReaction(func() {
		runs++
		if v := n.Get(); v < 3 {
			n.Set(v + 1)
		}
	})
	r.Run()
	defer r.Dispose()

	if n.Peek() != 3 {
		t.Errorf("expected 3, got %d", n.Peek())
	}
	if runs != 4 {
		t.Errorf("expected 4 runs, got %d", runs)
	}
}

func TestWatch(t *testing.T) {
	s := NewSignal(1)
	var got [][2]int
	stop := Watch(func() int { return s.Get() * 10 }, func(next, prev int) {
		got = append(got, [2]int{next, prev})
	})

	if len(got) != 0 {
		t.Fatalf("effect should not fire initially, got %v", got)
	}

	s.Set(2)
	s.Set(2)
	s.Set(3)
	stop()
	s.Set(4)

	want := [][2]int{{20, 10}, {30, 20}}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestWatchFireImmediately(t *testing.T) {
	s := NewSignal("a")
	calls := 0
	stop := Watch(func() string { return s.Get() }, func(next, prev string) {
		calls++
		if calls == 1 && (next != "a" || prev != "") {
			t.Errorf("unexpected first call next=%q prev=%q", next, prev)
		}
	}, FireImmediately())
	defer stop()

	if calls != 1 {
		t.Errorf("expected immediate call, got %d", calls)
	}
}

func TestWatchCustomEquals(t *testing.T) {
	s := NewSignal(1)
	calls := 0
	stop := Watch(func() int { return s.Get() }, func(next, prev int) {
		calls++
	}, WatchEquals(func(a, b any) bool { return a.(int)%2 == b.(int)%2 }))
	defer stop()

	s.Set(3)
	if calls != 0 {
		t.Errorf("same parity should be equal, got %d calls", calls)
	}
	s.Set(4)
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestReactionKeepsSharedSourceObserved(t *testing.T) {
	shared := NewSignal(0)
	trigger := NewSignal(0)
	var unobserved int
	shared.OnUnobserved(func() { unobserved++ })

	r := NewReaction(func() {
		shared.Get()
		trigger.Get()
	})
	r.Run()

	trigger.Set(1)
	trigger.Set(2)
	if unobserved != 0 {
		t.Errorf("shared source lost its observer during reruns %d time(s)", unobserved)
	}
	if shared.Observers() != 1 {
		t.Errorf("expected 1 observer, got %d", shared.Observers())
	}

	r.Dispose()
	if unobserved != 1 {
		t.Errorf("expected unobserved after dispose, got %d", unobserved)
	}
}
