package reactive

import "sync"

// Owner is a disposal scope. Reactions created while an Owner is current,
// and cleanups registered with OnCleanup, are released when it is disposed.
//
// Disposing an Owner disposes its child scopes first, newest first, and then
// runs its own cleanups in reverse registration order.
type Owner struct {
	id     uint64
	parent *Owner

	mu       sync.Mutex
	disposed bool
	scopes   []*Owner
	cleanups []func()
}

// NewOwner returns a scope nested under parent. A nil parent makes a root.
func NewOwner(parent *Owner) *Owner {
	o := &Owner{id: nextID(), parent: parent}
	if parent == nil {
		return o
	}
	parent.mu.Lock()
	dead := parent.disposed
	if !dead {
		parent.scopes = append(parent.scopes, o)
	}
	parent.mu.Unlock()
	if dead {
		o.Dispose()
	}
	return o
}

func (o *Owner) ID() uint64 {
	return o.id
}

// Parent returns the enclosing scope, or nil for a root.
func (o *Owner) Parent() *Owner {
	return o.parent
}

func (o *Owner) IsDisposed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.disposed
}

// OnCleanup registers fn to run on Dispose. If the scope is already gone,
// fn runs right away.
func (o *Owner) OnCleanup(fn func()) {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		fn()
		return
	}
	o.cleanups = append(o.cleanups, fn)
	o.mu.Unlock()
}

// Dispose releases the scope. Calling it more than once is a no-op.
func (o *Owner) Dispose() {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return
	}
	o.disposed = true
	scopes, cleanups := o.scopes, o.cleanups
	o.scopes, o.cleanups = nil, nil
	o.mu.Unlock()

	if p := o.parent; p != nil {
		p.detach(o)
	}
	for i := len(scopes) - 1; i >= 0; i-- {
		scopes[i].Dispose()
	}
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

func (o *Owner) detach(child *Owner) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, s := range o.scopes {
		if s == child {
			o.scopes = append(o.scopes[:i], o.scopes[i+1:]...)
			return
		}
	}
}
