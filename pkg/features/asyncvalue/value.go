package asyncvalue

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	xerrors "github.com/vango-dev/xform/internal/errors"
	"github.com/vango-dev/xform/pkg/reactive"
	"github.com/vango-dev/xform/pkg/telemetry"
)

// Status is the evaluation state of a Value.
type Status int

const (
	Loading Status = iota
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Failed:
		return "error"
	default:
		return "loading"
	}
}

type state[T any] struct {
	status Status
	value  T
	err    error
	rev    uint64
}

// Value holds the latest result of an asynchronous producer. It is safe for
// concurrent use.
type Value[T any] struct {
	name      string
	producer  func(ctx context.Context) (T, error)
	keepAlive bool
	logger    *slog.Logger

	state   *reactive.Signal[state[T]]
	refresh *reactive.Signal[uint64]

	// mu guards the fields below and serializes state commits.
	mu       sync.Mutex
	running  bool
	disposed bool
	seq      uint64
	tracker  *reactive.Tracker
	cancel   context.CancelFunc
}

// New creates a Value whose current result starts as initial. Nothing runs
// until the value is observed.
func New[T any](producer func(ctx context.Context) (T, error), initial T, opts ...Option) *Value[T] {
	cfg := config{
		logger: slog.Default(),
		owner:  reactive.CurrentOwner(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.name == "" {
		cfg.name = "AsyncValue_" + uuid.NewString()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	v := &Value[T]{
		name:      cfg.name,
		producer:  producer,
		keepAlive: cfg.keepAlive,
		logger:    cfg.logger,
		state: reactive.NewSignal(state[T]{status: Loading, value: initial}).
			WithEquals(func(a, b state[T]) bool { return a.rev == b.rev }),
		refresh: reactive.NewSignal[uint64](0),
	}
	v.state.OnObserved(v.start)
	v.state.OnUnobserved(func() {
		if !v.keepAlive {
			v.stop()
		}
	})
	if cfg.owner != nil {
		cfg.owner.OnCleanup(v.Dispose)
	}
	return v
}

// Name returns the value's name.
func (v *Value[T]) Name() string {
	return v.name
}

// Current returns the latest committed result. While loading or failed it
// is the previous result.
func (v *Value[T]) Current() T {
	return v.state.Get().value
}

// Status returns the evaluation status.
func (v *Value[T]) Status() Status {
	return v.state.Get().status
}

// Err returns the producer error when the status is Failed.
func (v *Value[T]) Err() error {
	return v.state.Get().err
}

func (v *Value[T]) IsLoading() bool { return v.Status() == Loading }

func (v *Value[T]) IsReady() bool { return v.Status() == Ready }

func (v *Value[T]) IsError() bool { return v.Status() == Failed }

// Observe keeps the value evaluating until release is called.
func (v *Value[T]) Observe() (release func()) {
	t := reactive.NewTracker(nil)
	v.state.Subscribe(t)
	var once sync.Once
	return func() {
		once.Do(func() {
			v.state.Unsubscribe(t)
		})
	}
}

// Wait observes the value until its status leaves Loading and returns the
// result, or the producer's error.
func (v *Value[T]) Wait(ctx context.Context) (T, error) {
	release := v.Observe()
	defer release()

	for {
		changed := make(chan struct{})
		t := reactive.NewTracker(func() { close(changed) })
		var s state[T]
		t.Track(func() {
			s = v.state.Get()
		})

		switch s.status {
		case Ready:
			t.Dispose()
			return s.value, nil
		case Failed:
			t.Dispose()
			return s.value, s.err
		}

		select {
		case <-changed:
			t.Dispose()
		case <-ctx.Done():
			t.Dispose()
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Refresh starts a new evaluation if the value is being observed.
func (v *Value[T]) Refresh() {
	v.refresh.Update(func(n uint64) uint64 { return n + 1 })
}

// Dispose stops evaluating and resets the value to ready with a zero
// result. A disposed value never evaluates again.
func (v *Value[T]) Dispose() {
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		return
	}
	v.disposed = true
	v.mu.Unlock()

	v.state.OnObserved(nil)
	v.state.OnUnobserved(nil)
	v.stop()
	v.commit(func(s *state[T]) {
		var zero T
		s.status = Ready
		s.value = zero
		s.err = nil
	})
}

// commit applies fn to the state under mu. Subscribers are notified after
// mu is released.
func (v *Value[T]) commit(fn func(s *state[T])) {
	reactive.Batch(func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		s := v.state.Peek()
		fn(&s)
		s.rev++
		v.state.Set(s)
	})
}

func (v *Value[T]) start() {
	v.mu.Lock()
	if v.running || v.disposed {
		v.mu.Unlock()
		return
	}
	v.running = true
	v.mu.Unlock()

	v.evaluate(nil)
}

func (v *Value[T]) stop() {
	v.mu.Lock()
	v.running = false
	v.seq++
	t, cancel := v.tracker, v.cancel
	v.tracker, v.cancel = nil, nil
	v.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if t != nil {
		t.Dispose()
	}
	v.commit(func(s *state[T]) {
		s.status = Loading
	})
}

type producerKey struct{}

// evaluate supersedes the running evaluation and starts a new one. from is
// the tracker that fired; invalidations from superseded trackers are ignored.
func (v *Value[T]) evaluate(from *reactive.Tracker) {
	var (
		seq       uint64
		ctx       context.Context
		t         *reactive.Tracker
		oldT      *reactive.Tracker
		oldCancel context.CancelFunc
		started   bool
	)
	reactive.Batch(func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if !v.running || (from != nil && from != v.tracker) {
			return
		}
		started = true
		v.seq++
		seq = v.seq
		oldT, oldCancel = v.tracker, v.cancel

		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(context.WithValue(context.Background(), producerKey{}, v.name))
		var next *reactive.Tracker
		next = reactive.NewTracker(func() { v.evaluate(next) })
		t = next
		v.tracker, v.cancel = t, cancel

		if s := v.state.Peek(); s.status != Loading {
			s.status = Loading
			s.rev++
			v.state.Set(s)
		}
	})
	if !started {
		return
	}
	if oldCancel != nil {
		oldCancel()
	}

	// The previous tracker keeps dependencies observed until the new
	// evaluation has subscribed to them.
	go v.run(ctx, seq, t, oldT)
}

func (v *Value[T]) run(ctx context.Context, seq uint64, t, prev *reactive.Tracker) {
	spanCtx, span := telemetry.StartSpan(ctx, "asyncvalue.evaluate",
		attribute.String("xform.async_value", v.name),
	)

	var (
		value T
		err   error
	)
	t.Track(func() {
		v.refresh.Get()
		value, err = v.producer(spanCtx)
	})
	if prev != nil {
		prev.Dispose()
	}

	outcome := telemetry.OutcomeOK
	v.commitIfCurrent(seq, func(s *state[T]) {
		switch {
		case errors.Is(err, ErrStillLoading):
			outcome = telemetry.OutcomeSkipped
			return
		case errors.Is(err, ErrSkip):
			s.status = Ready
			s.err = nil
		case err != nil:
			outcome = telemetry.OutcomeError
			s.status = Failed
			s.err = err
		default:
			s.status = Ready
			s.value = value
			s.err = nil
		}
		s.rev++
	}, func() {
		outcome = telemetry.OutcomeCancelled
	})

	if outcome == telemetry.OutcomeError {
		v.logger.Warn("asyncvalue: producer failed", "name", v.name, "error", err)
		telemetry.EndSpan(span, err)
	} else {
		telemetry.EndSpan(span, nil)
	}
	telemetry.RecordAsyncEvaluation(outcome)
}

// commitIfCurrent applies fn only if seq is still the latest evaluation;
// otherwise it calls stale.
func (v *Value[T]) commitIfCurrent(seq uint64, fn func(s *state[T]), stale func()) {
	reactive.Batch(func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if seq != v.seq || !v.running {
			stale()
			return
		}
		s := v.state.Peek()
		before := s.rev
		fn(&s)
		if s.rev != before {
			v.state.Set(s)
		}
	})
}

// Use reads dep from inside a producer. It returns ErrStillLoading while dep
// is loading and dep's error when it failed; either is meant to be returned
// from the producer as is. Use panics when ctx is not a producer context.
func Use[T any](ctx context.Context, dep *Value[T]) (T, error) {
	if ctx.Value(producerKey{}) == nil {
		panic(xerrors.New(xerrors.CodeUseOutsideProducer).WithPath(dep.name))
	}
	s := dep.state.Get()
	switch s.status {
	case Loading:
		var zero T
		return zero, ErrStillLoading
	case Failed:
		var zero T
		return zero, s.err
	default:
		return s.value, nil
	}
}
