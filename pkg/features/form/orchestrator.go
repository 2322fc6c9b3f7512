package form

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/xform/pkg/pathutil"
	"github.com/vango-dev/xform/pkg/reactive"
	"github.com/vango-dev/xform/pkg/telemetry"
)

// ValidationResult is the settled outcome of ValidateAll.
type ValidationResult struct {
	HasError bool

	// Errors mirrors the validated model's value shape. Each failing field
	// or check contributes its error message at its path relative to the
	// model.
	Errors any

	// ErrorFields lists failing fields in traversal order.
	ErrorFields []*Field
}

// ValidateAll validates every mounted field and every check under m
// concurrently and waits for all of them to settle.
func ValidateAll(ctx context.Context, m *Model, trigger Trigger) ValidationResult {
	ctx, span := telemetry.StartSpan(ctx, "form.ValidateAll",
		attribute.String("xform.model", m.ID()),
		attribute.String("xform.trigger", string(trigger)),
	)

	var fields []*Field
	m.IterateFields(func(f *Field) {
		if _, ok := f.peekConfig(); ok {
			fields = append(fields, f)
		}
	})
	var checks []*Check
	m.IterateChecks(func(c *Check) {
		checks = append(checks, c)
	})

	fieldErrs := make([]error, len(fields))
	checkErrs := make([]error, len(checks))

	var g errgroup.Group
	for i, f := range fields {
		i, f := i, f
		g.Go(func() error {
			fieldErrs[i] = f.Validate(ctx, trigger)
			return nil
		})
	}
	for i, c := range checks {
		i, c := i, c
		g.Go(func() error {
			checkErrs[i] = c.Validate(ctx)
			return nil
		})
	}
	_ = g.Wait()

	var base []string
	reactive.Untracked(func() {
		base = m.Path()
	})

	res := ValidationResult{Errors: emptyContainer(m)}
	put := func(path []string, err error) {
		res.HasError = true
		if next, serr := pathutil.SetIn(res.Errors, relativePath(base, path), err.Error()); serr == nil {
			res.Errors = next
		}
	}
	for i, f := range fields {
		if err := fieldErrs[i]; err != nil {
			put(pathOf(f.Path), err)
			res.ErrorFields = append(res.ErrorFields, f)
		}
	}
	for i, c := range checks {
		if err := checkErrs[i]; err != nil {
			put(pathOf(c.Path), err)
		}
	}

	span.SetAttributes(
		attribute.Int("xform.fields", len(fields)),
		attribute.Int("xform.checks", len(checks)),
		attribute.Int("xform.error_fields", len(res.ErrorFields)),
	)
	telemetry.EndSpan(span, ctx.Err())
	return res
}

func pathOf(fn func() []string) []string {
	var p []string
	reactive.Untracked(func() {
		p = fn()
	})
	return p
}

func relativePath(base, path []string) []string {
	if len(path) >= len(base) {
		return path[len(base):]
	}
	return path
}

func emptyContainer(m *Model) any {
	if m.Shape() == ShapeArray {
		return []any{}
	}
	return map[string]any{}
}

// =============================================================================
// Submit
// =============================================================================

// ValueFilter selects the base of a submitted value.
type ValueFilter string

const (
	// ValueFilterMounted submits only the values of mounted fields.
	ValueFilterMounted ValueFilter = "mounted"
	// ValueFilterAll starts from the model's whole value.
	ValueFilterAll ValueFilter = "all"
)

// SubmitOption configures Submit.
type SubmitOption func(*submitConfig)

type submitConfig struct {
	valueFilter        ValueFilter
	mergeDefaultValue  bool
	scrollToFirstError bool
	animateErrorFields bool
	onSubmit           func(values any, m *Model)
	onError            func(errors any, m *Model)
}

// WithValueFilter sets the value filter.
// Default: ValueFilterMounted
func WithValueFilter(f ValueFilter) SubmitOption {
	return func(c *submitConfig) {
		c.valueFilter = f
	}
}

// WithMergeDefaultValue controls whether absent values take the field's
// default.
// Default: true
func WithMergeDefaultValue(merge bool) SubmitOption {
	return func(c *submitConfig) {
		c.mergeDefaultValue = merge
	}
}

// WithScrollToFirstError controls scrolling to the first failing field.
// Default: true
func WithScrollToFirstError(scroll bool) SubmitOption {
	return func(c *submitConfig) {
		c.scrollToFirstError = scroll
	}
}

// WithAnimateErrorFields controls animating the failing fields.
// Default: false
func WithAnimateErrorFields(animate bool) SubmitOption {
	return func(c *submitConfig) {
		c.animateErrorFields = animate
	}
}

// OnSubmit overrides the environment's success callback.
func OnSubmit(fn func(values any, m *Model)) SubmitOption {
	return func(c *submitConfig) {
		c.onSubmit = fn
	}
}

// OnError overrides the environment's failure callback.
func OnError(fn func(errors any, m *Model)) SubmitOption {
	return func(c *submitConfig) {
		c.onError = fn
	}
}

// SubmitError is returned by Submit when validation fails.
type SubmitError struct {
	Errors any
	Fields []*Field
}

func (e *SubmitError) Error() string {
	if len(e.Fields) == 0 {
		return "xform: submit failed validation"
	}
	return fmt.Sprintf("xform: submit failed validation on %d field(s)", len(e.Fields))
}

// Submit validates m with every trigger. On failure it presents the error
// fields, calls the error callback and returns a *SubmitError. On success it
// merges the mounted fields' values, calls the submit callback with a deep
// copy and returns the same copy.
func Submit(ctx context.Context, m *Model, opts ...SubmitOption) (any, error) {
	env := m.Env()
	cfg := submitConfig{
		valueFilter:        ValueFilterMounted,
		mergeDefaultValue:  true,
		scrollToFirstError: true,
		onSubmit:           env.OnSubmit,
		onError:            env.OnError,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, span := telemetry.StartSpan(ctx, "form.Submit",
		attribute.String("xform.model", m.ID()),
		attribute.String("xform.value_filter", string(cfg.valueFilter)),
	)

	res := ValidateAll(ctx, m, TriggerAll)
	if err := ctx.Err(); err != nil {
		telemetry.RecordSubmit(telemetry.OutcomeCancelled)
		telemetry.EndSpan(span, err)
		return nil, err
	}

	if res.HasError {
		if env.Presenter != nil {
			if cfg.scrollToFirstError {
				scrollToFirstError(env.Presenter, res.ErrorFields)
			}
			if cfg.animateErrorFields {
				animateErrorFields(env.Presenter, res.ErrorFields)
			}
		}
		if cfg.onError != nil {
			cfg.onError(res.Errors, m)
		}
		err := &SubmitError{Errors: res.Errors, Fields: res.ErrorFields}
		telemetry.RecordSubmit(telemetry.OutcomeInvalid)
		telemetry.EndSpan(span, err)
		return nil, err
	}

	var result any
	if cfg.valueFilter == ValueFilterAll {
		result = m.Snapshot()
	} else {
		result = emptyContainer(m)
	}
	result = pathutil.Clone(MergeValuesFromView(result, m, cfg.mergeDefaultValue))

	if cfg.onSubmit != nil {
		cfg.onSubmit(result, m)
	}
	telemetry.RecordSubmit(telemetry.OutcomeOK)
	telemetry.EndSpan(span, nil)
	return result, nil
}

// presentable filters the error fields that address a value, in order.
func presentable(fields []*Field) []*Field {
	var out []*Field
	for _, f := range fields {
		if len(pathOf(f.Path)) > 0 {
			out = append(out, f)
		}
	}
	return out
}

func scrollToFirstError(p Presenter, fields []*Field) {
	for _, f := range presentable(fields) {
		if p.ScrollTo(f) {
			return
		}
	}
}

func animateErrorFields(p Presenter, fields []*Field) {
	if targets := presentable(fields); len(targets) > 0 {
		p.Animate(targets)
	}
}

// =============================================================================
// Reset and merge
// =============================================================================

// ResetOption configures Reset.
type ResetOption func(*resetConfig)

type resetConfig struct {
	onReset func(m *Model)
}

// OnReset overrides the environment's reset callback.
func OnReset(fn func(m *Model)) ResetOption {
	return func(c *resetConfig) {
		c.onReset = fn
	}
}

// Reset replaces m's value with an empty container of its shape, clears
// every error under m and calls the reset callback. Mount state is kept.
func Reset(m *Model, opts ...ResetOption) {
	cfg := resetConfig{onReset: m.Env().OnReset}
	for _, opt := range opts {
		opt(&cfg)
	}

	reactive.Action("form:reset", func() {
		m.write("reset", nil, emptyContainer(m))
		ClearErrors(m)
	})
	if cfg.onReset != nil {
		cfg.onReset(m)
	}
}

// ClearErrors clears the error of every field and check under m.
func ClearErrors(m *Model) {
	reactive.Action("form:clearErrors", func() {
		m.IterateFields(func(f *Field) {
			f.ClearError()
		})
		m.IterateChecks(func(c *Check) {
			c.ClearError()
		})
	})
}

// AcceptValuesFromView writes the mounted fields' effective values into m.
func AcceptValuesFromView(m *Model, mergeDefaultValue bool) {
	var current any
	reactive.Untracked(func() {
		current = m.Values()
	})
	m.write("acceptValues", nil, MergeValuesFromView(current, m, mergeDefaultValue))
}

// MergeValuesFromView returns target with the effective value of every
// mounted field under m written at the field's path relative to m. target
// is not modified.
//
// A normal field contributes its ValueProp if set, else its value if
// present, else its default when mergeDefaultValue is true. A tuple
// field contributes its parts' values if any part is present, otherwise
// its default for every part.
func MergeValuesFromView(target any, m *Model, mergeDefaultValue bool) any {
	var base []string
	reactive.Untracked(func() {
		base = m.Path()
	})

	set := func(path []string, v any) {
		if next, err := pathutil.SetIn(target, relativePath(base, path), pathutil.Normalize(v)); err == nil {
			target = next
		}
	}

	reactive.Untracked(func() {
		m.IterateFields(func(f *Field) {
			cfg, ok := f.peekConfig()
			if !ok {
				return
			}
			switch f.kind {
			case KindNormal:
				if cfg.ValueProp.Set {
					set(f.Path(), cfg.ValueProp.Value)
				} else if v, ok := f.LookupValue(); ok {
					set(f.Path(), v)
				} else if def, ok := cfg.defaultValue(); ok && mergeDefaultValue {
					set(f.Path(), def)
				}
			case KindTuple:
				parent := f.parent.Path()
				if f.anyPartPresent() {
					for _, part := range f.tupleParts {
						if v, ok := f.parent.lookupSegs([]string{part}); ok {
							set(append(parent[:len(parent):len(parent)], part), v)
						}
					}
				} else if def, ok := cfg.defaultValue(); ok && mergeDefaultValue {
					defaults, _ := pathutil.Normalize(def).([]any)
					for i, part := range f.tupleParts {
						if i < len(defaults) {
							set(append(parent[:len(parent):len(parent)], part), defaults[i])
						}
					}
				}
			}
		})
	})
	return target
}
