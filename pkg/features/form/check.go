package form

import (
	"context"
	"sync"

	xerrors "github.com/vango-dev/xform/internal/errors"
	"github.com/vango-dev/xform/pkg/pathutil"
	"github.com/vango-dev/xform/pkg/reactive"
	"github.com/vango-dev/xform/pkg/telemetry"
)

// CheckValidateFunc validates a snapshot of the whole model value.
type CheckValidateFunc func(ctx context.Context, values any, m *Model) error

// CheckConfig is the configuration of a mounted check.
type CheckConfig struct {
	Validate        CheckValidateFunc
	ValidateOnMount bool
}

// Check is a named cross-field validation attached to a model. Its error
// appears in the error tree at the check's name.
type Check struct {
	parent *Model
	name   string

	mu       sync.Mutex
	config   *CheckConfig
	mountGen uint64
	mounted  *reactive.Signal[bool]

	cell *validationCell
}

func newCheck(m *Model, name string) *Check {
	return &Check{
		parent:  m,
		name:    name,
		mounted: reactive.NewSignal(false),
		cell:    newValidationCell(telemetry.KindCheck),
	}
}

func (c *Check) Name() string { return c.name }

func (c *Check) Parent() *Model { return c.parent }

// Path returns the parent's path followed by the check's name.
func (c *Check) Path() []string {
	return append(c.parent.Path(), c.name)
}

func (c *Check) pathString() string {
	var p []string
	reactive.Untracked(func() {
		p = c.Path()
	})
	return pathutil.Join(p)
}

// Track mounts the check. Mounting an already mounted check is ignored
// with a warning.
func (c *Check) Track(cfg CheckConfig) (untrack func()) {
	untrack, _ = c.track(cfg)
	return untrack
}

func (c *Check) track(cfg CheckConfig) (func(), bool) {
	var (
		gen uint64
		ok  = true
	)
	reactive.Batch(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.config != nil {
			ok = false
			return
		}
		cc := cfg
		c.config = &cc
		c.mountGen++
		gen = c.mountGen
		c.mounted.Set(true)
	})
	if !ok {
		c.parent.warnStale(xerrors.CodeCheckMounted, c.pathString())
		return func() {}, false
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			reactive.Batch(func() {
				c.mu.Lock()
				defer c.mu.Unlock()
				if c.mountGen != gen || c.config == nil {
					return
				}
				c.config = nil
				c.mounted.Set(false)
			})
		})
	}, true
}

// IsMounted reports whether the check has a config.
func (c *Check) IsMounted() bool {
	return c.mounted.Get()
}

func (c *Check) peekConfig() (CheckConfig, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.config == nil {
		return CheckConfig{}, false
	}
	return *c.config, true
}

// Validate runs the check against a snapshot of its model's value. Only a
// mounted check validates.
func (c *Check) Validate(ctx context.Context) error {
	run := c.startRun(ctx)
	if run == nil {
		return nil
	}
	return run.Run()
}

// StartValidate runs Validate in a goroutine and returns a function that
// cancels it.
func (c *Check) StartValidate(ctx context.Context) (cancel func()) {
	run := c.startRun(ctx)
	if run == nil {
		return func() {}
	}
	go run.Run()
	return run.cancel
}

func (c *Check) startRun(ctx context.Context) *validationRun {
	cfg, ok := c.peekConfig()
	if !ok {
		return nil
	}
	var values any
	reactive.Untracked(func() {
		values = c.parent.Snapshot()
	})
	return c.cell.start(ctx, func(ctx context.Context) error {
		if cfg.Validate == nil {
			return nil
		}
		return cfg.Validate(ctx, values, c.parent)
	})
}

// CancelValidation drops the pending validation's result, if any.
func (c *Check) CancelValidation() {
	c.cell.cancelPending()
}

func (c *Check) State() State {
	return c.cell.get()
}

func (c *Check) Error() error {
	return c.cell.get().Error
}

func (c *Check) Validating() bool {
	return c.cell.get().Validating
}

func (c *Check) ClearError() {
	c.cell.setError(nil)
}
