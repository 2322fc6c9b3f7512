package form

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-dev/xform/pkg/reactive"
	"github.com/vango-dev/xform/pkg/telemetry"
)

// Trigger names the event that started a validation.
type Trigger string

const (
	TriggerMount  Trigger = "mount"
	TriggerChange Trigger = "change"
	TriggerBlur   Trigger = "blur"
	// TriggerAll runs regardless of the field's trigger settings.
	TriggerAll Trigger = "*"
)

// State is the observable validation state of a field or check.
type State struct {
	Error      error
	Validating bool
}

func sameState(a, b State) bool {
	return a.Validating == b.Validating && sameError(a.Error, b.Error)
}

func sameError(a, b error) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !reflect.TypeOf(a).Comparable() {
		return false
	}
	return a == b
}

// validationCell holds the state of the latest validation of a field or
// check. Starting a run supersedes the pending one: the older run's result
// is dropped when it settles.
type validationCell struct {
	kind string

	mu      sync.Mutex
	pending *validationRun
	state   *reactive.Signal[State]
}

func newValidationCell(kind string) *validationCell {
	return &validationCell{
		kind:  kind,
		state: reactive.NewSignal(State{}).WithEquals(sameState),
	}
}

type validationRun struct {
	cell    *validationCell
	ctx     context.Context
	stop    context.CancelFunc
	fn      func(ctx context.Context) error
	started time.Time

	cancelled atomic.Bool
}

// update applies fn to the state while holding mu. Notifications are
// delivered after mu is released.
func (c *validationCell) update(fn func()) {
	reactive.Batch(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		fn()
	})
}

func (c *validationCell) start(ctx context.Context, fn func(ctx context.Context) error) *validationRun {
	vctx, stop := context.WithCancel(ctx)
	run := &validationRun{
		cell:    c,
		ctx:     vctx,
		stop:    stop,
		fn:      fn,
		started: time.Now(),
	}

	var prev *validationRun
	c.update(func() {
		prev = c.pending
		c.pending = run
		s := c.state.Peek()
		s.Validating = true
		c.state.Set(s)
	})
	if prev != nil {
		prev.cancelled.Store(true)
		prev.stop()
	}
	return run
}

// Run executes the validator and commits its result unless the run was
// superseded or cancelled in the meantime.
func (r *validationRun) Run() error {
	defer r.stop()
	return r.finish(r.fn(r.ctx))
}

func (r *validationRun) finish(err error) error {
	c := r.cell
	committed := false
	c.update(func() {
		if r.cancelled.Load() || c.pending != r {
			return
		}
		committed = true
		c.pending = nil
		c.state.Set(State{Error: err})
	})

	elapsed := time.Since(r.started)
	switch {
	case !committed:
		telemetry.RecordValidation(c.kind, telemetry.OutcomeCancelled, elapsed)
		return nil
	case err != nil:
		telemetry.RecordValidation(c.kind, telemetry.OutcomeInvalid, elapsed)
	default:
		telemetry.RecordValidation(c.kind, telemetry.OutcomeOK, elapsed)
	}
	return err
}

func (r *validationRun) cancel() {
	c := r.cell
	c.update(func() {
		r.cancelled.Store(true)
		if c.pending != r {
			return
		}
		c.pending = nil
		s := c.state.Peek()
		s.Validating = false
		c.state.Set(s)
	})
	r.stop()
}

func (c *validationCell) cancelPending() {
	c.mu.Lock()
	run := c.pending
	c.mu.Unlock()
	if run != nil {
		run.cancel()
	}
}

func (c *validationCell) setError(err error) {
	c.update(func() {
		s := c.state.Peek()
		s.Error = err
		c.state.Set(s)
	})
}

func (c *validationCell) get() State {
	return c.state.Get()
}
