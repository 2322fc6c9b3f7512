package reactive

import (
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

var idSeq atomic.Uint64

// nextID hands out identifiers shared by signals, listeners and owners.
func nextID() uint64 {
	return idSeq.Add(1)
}

// frame is the reactive state of one goroutine: the scope new primitives
// attach to, the listener that reads subscribe, and the open batch.
type frame struct {
	owner    *Owner
	listener Listener
	depth    int
	queued   []Listener
}

func (f *frame) idle() bool {
	return f.owner == nil && f.listener == nil && f.depth == 0 && len(f.queued) == 0
}

// frames maps goroutine ids to their frame.
var frames sync.Map

func goid() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	// "goroutine 123 [running]:..."
	b = b[len("goroutine "):]
	for i, c := range b {
		if c == ' ' {
			b = b[:i]
			break
		}
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}

func current() *frame {
	id := goid()
	if f, ok := frames.Load(id); ok {
		return f.(*frame)
	}
	f := &frame{}
	frames.Store(id, f)
	return f
}

// forget drops the goroutine's frame when nothing is left in it. Producers
// run on short-lived goroutines and would otherwise leak entries.
func forget() {
	id := goid()
	if f, ok := frames.Load(id); ok && f.(*frame).idle() {
		frames.Delete(id)
	}
}

func activeListener() Listener {
	return current().listener
}

func swapListener(l Listener) Listener {
	f := current()
	prev := f.listener
	f.listener = l
	return prev
}

// CurrentOwner returns the owner installed on this goroutine, or nil.
func CurrentOwner() *Owner {
	return current().owner
}

// IsTracking reports whether reads on this goroutine currently subscribe a
// listener.
func IsTracking() bool {
	return activeListener() != nil
}

// WithOwner runs fn with owner as the current owner.
// Goroutines that create scoped primitives must install the owner themselves:
//
//	go func() {
//	    WithOwner(scope, func() {
//	        // primitives created here are disposed with scope
//	    })
//	}()
func WithOwner(owner *Owner, fn func()) {
	f := current()
	prev := f.owner
	f.owner = owner
	defer func() {
		f.owner = prev
		forget()
	}()
	fn()
}

// WithListener runs fn with l as the listener for dependency tracking.
func WithListener(l Listener, fn func()) {
	prev := swapListener(l)
	defer func() {
		swapListener(prev)
		forget()
	}()
	fn()
}
