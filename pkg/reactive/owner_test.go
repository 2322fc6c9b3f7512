package reactive

import "testing"

func TestOwnerDisposeOrder(t *testing.T) {
	root := NewOwner(nil)
	child := NewOwner(root)

	var order []string
	root.OnCleanup(func() { order = append(order, "root-1") })
	root.OnCleanup(func() { order = append(order, "root-2") })
	child.OnCleanup(func() { order = append(order, "child") })

	root.Dispose()

	want := []string{"child", "root-2", "root-1"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d]: expected %s, got %s", i, want[i], order[i])
		}
	}
	if !child.IsDisposed() {
		t.Error("child should be disposed with parent")
	}
}

func TestOwnerDisposeIdempotent(t *testing.T) {
	o := NewOwner(nil)
	calls := 0
	o.OnCleanup(func() { calls++ })
	o.Dispose()
	o.Dispose()
	if calls != 1 {
		t.Errorf("expected cleanup once, got %d", calls)
	}
}

func TestOwnerCleanupAfterDispose(t *testing.T) {
	o := NewOwner(nil)
	o.Dispose()
	ran := false
	o.OnCleanup(func() { ran = true })
	if !ran {
		t.Error("cleanup on disposed owner should run immediately")
	}
}

func TestOwnerDisposesReactions(t *testing.T) {
	o := NewOwner(nil)
	s := NewSignal(0)
	runs := 0
	var r *Reaction
	WithOwner(o, func() {
		r = NewReaction(func() {
			s.Get()
			runs++
		})
	})
	r.Run()
	o.Dispose()

	s.Set(1)
	if runs != 1 {
		t.Errorf("disposed reaction should not re-run, got %d runs", runs)
	}
	if s.Observers() != 0 {
		t.Errorf("expected no observers, got %d", s.Observers())
	}
}
