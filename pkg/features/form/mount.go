package form

import (
	"context"
	"sync"

	"github.com/vango-dev/xform/pkg/reactive"
)

// ItemProps are the per-item settings of a mounted field. Env overrides the
// model's environment for this item only.
type ItemProps struct {
	// Value, when set, makes the item controlled: it wins over the model
	// value on submit.
	Value        Optional
	DefaultValue Optional

	IsEmpty         func(value any) bool
	Required        bool
	RequiredMessage string
	Validate        ValidateFunc
	AfterChange     func(value any, rest ...any)

	Env EnvOverride
}

// MountField mounts f the way a rendered form item does and returns the
// function that unmounts it.
//
// While mounted, the item's default is written to the model according to
// WriteDefaultValueToModel: once at mount, or whenever the value becomes
// absent when forced. With ValidateOnMount, a mount validation starts in the
// background. Unmounting cancels that validation, stops the default writer,
// clears the field when AutoUnmount is set and releases the mount.
//
// Mounting an already mounted field logs a warning and returns a no-op.
func MountField(ctx context.Context, f *Field, props ItemProps) (unmount func()) {
	env := props.Env.Apply(f.parent.Env())
	cfg := FieldConfig{
		HTMLID:                   f.HTMLID(env.HTMLIDPrefix),
		ValueProp:                props.Value,
		DefaultValueProp:         props.DefaultValue,
		DefaultValue:             props.DefaultValue.Or(nil),
		IsEmpty:                  props.IsEmpty,
		Required:                 props.Required,
		RequiredMessage:          props.RequiredMessage,
		Validate:                 props.Validate,
		ValidateOnMount:          env.ValidateOnMount,
		ValidateOnChange:         env.ValidateOnChange,
		ValidateOnBlur:           env.ValidateOnBlur,
		WriteDefaultValueToModel: env.WriteDefaultValueToModel,
		AutoUnmount:              env.AutoUnmount,
		AfterChange:              props.AfterChange,
	}

	untrack, ok := f.track(cfg)
	if !ok {
		return untrack
	}

	stopDefault := func() {}
	if def, hasDefault := props.DefaultValue.Get(); hasDefault {
		switch cfg.WriteDefaultValueToModel {
		case WriteDefaultForce:
			stopDefault = reactive.Watch(
				func() any {
					if v, ok := f.LookupValue(); ok {
						return v
					}
					return Undefined
				},
				func(next, _ any) {
					if IsUndefined(next) {
						f.SetValue(def)
					}
				},
				reactive.FireImmediately(),
			)
		case WriteDefaultOn:
			var present bool
			reactive.Untracked(func() {
				_, present = f.LookupValue()
			})
			if !present {
				f.SetValue(def)
			}
		}
	}

	cancelMount := func() {}
	if cfg.ValidateOnMount {
		cancelMount = f.StartValidate(ctx, TriggerMount)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			cancelMount()
			stopDefault()
			if cfg.AutoUnmount {
				f.Clear()
			}
			untrack()
		})
	}
}

// CheckProps are the settings of a mounted check.
type CheckProps struct {
	Validate CheckValidateFunc

	// ValidateOnMount defaults to the model's environment.
	ValidateOnMount *bool

	// Watch selects the values that re-run the check when they change. A nil
	// Watch never re-runs it.
	Watch func() any
}

// MountCheck mounts c and re-validates it in the background whenever the
// Watch expression changes. It returns the function that unmounts it.
func MountCheck(ctx context.Context, c *Check, props CheckProps) (unmount func()) {
	validateOnMount := c.parent.Env().ValidateOnMount
	if props.ValidateOnMount != nil {
		validateOnMount = *props.ValidateOnMount
	}

	untrack, ok := c.track(CheckConfig{
		Validate:        props.Validate,
		ValidateOnMount: validateOnMount,
	})
	if !ok {
		return untrack
	}

	watch := props.Watch
	if watch == nil {
		watch = func() any { return nil }
	}
	var opts []reactive.WatchOption
	if validateOnMount {
		opts = append(opts, reactive.FireImmediately())
	}
	stop := reactive.Watch(watch, func(_, _ any) {
		c.StartValidate(ctx)
	}, opts...)

	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			c.CancelValidation()
			untrack()
		})
	}
}

// WatchPath calls effect whenever the value at name, relative to m,
// changes. It returns the function that stops watching.
func WatchPath(m *Model, name string, effect func(next, prev any)) (stop func()) {
	return reactive.Watch(func() any {
		return m.GetValue(name)
	}, effect)
}

// Watch returns a watch expression over the values at names, for
// CheckProps.Watch.
//
//	form.MountCheck(ctx, m.GetCheck("range"), form.CheckProps{
//	    Validate: validateRange,
//	    Watch:    form.Watch(m, "min", "max"),
//	})
func Watch(m *Model, names ...string) func() any {
	return func() any {
		out := make([]any, len(names))
		for i, name := range names {
			out[i] = m.GetValue(name)
		}
		return out
	}
}
