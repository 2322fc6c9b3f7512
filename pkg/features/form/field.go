package form

import (
	"context"
	"strconv"
	"sync"

	xerrors "github.com/vango-dev/xform/internal/errors"
	"github.com/vango-dev/xform/pkg/pathutil"
	"github.com/vango-dev/xform/pkg/reactive"
	"github.com/vango-dev/xform/pkg/telemetry"
)

// OriginalFork is the fork name of the field returned by GetField.
const OriginalFork = "original"

// DefaultRequiredMessage is reported by required fields without a message.
const DefaultRequiredMessage = "This field is required"

// FieldKind distinguishes how a field maps to the model's value.
type FieldKind int

const (
	// KindNormal reads and writes one key of its parent.
	KindNormal FieldKind = iota
	// KindTuple reads and writes several sibling keys as one array.
	KindTuple
	// KindReadonly holds a constant value that is not part of any model.
	KindReadonly
)

func (k FieldKind) String() string {
	switch k {
	case KindTuple:
		return "tuple"
	case KindReadonly:
		return "readonly"
	default:
		return "normal"
	}
}

// ValidateFunc validates a field's value. A nil error means valid.
type ValidateFunc func(ctx context.Context, value any, f *Field, trigger Trigger) error

// FieldConfig is the configuration a mounted field validates and merges
// with.
type FieldConfig struct {
	HTMLID string

	// ValueProp, when set, overrides the model value on submit merge.
	ValueProp Optional
	// DefaultValueProp fills an absent value on submit merge.
	DefaultValueProp Optional
	// DefaultValue is written to the model on mount, per
	// WriteDefaultValueToModel.
	DefaultValue any

	IsEmpty         func(value any) bool
	Required        bool
	RequiredMessage string
	Validate        ValidateFunc

	ValidateOnMount          bool
	ValidateOnChange         bool
	ValidateOnBlur           bool
	WriteDefaultValueToModel WriteDefault
	AutoUnmount              bool

	AfterChange func(value any, rest ...any)
}

// defaultValue returns the value used in place of an absent one: the
// default prop when set, else a non-nil DefaultValue.
func (c *FieldConfig) defaultValue() (any, bool) {
	if c.DefaultValueProp.Set {
		return c.DefaultValueProp.Value, true
	}
	if c.DefaultValue != nil {
		return c.DefaultValue, true
	}
	return nil, false
}

func (c *FieldConfig) accepts(t Trigger) bool {
	switch t {
	case TriggerAll:
		return true
	case TriggerMount:
		return c.ValidateOnMount
	case TriggerChange:
		return c.ValidateOnChange
	case TriggerBlur:
		return c.ValidateOnBlur
	default:
		return false
	}
}

// forkRegistry is shared by all forks of one field. Guarded by root.mu.
type forkRegistry struct {
	list   []*Field
	byName map[string]*Field
}

// Field is a bindable view of one value in a model. Forks of a field share
// its value but each carries its own mount state and validation.
type Field struct {
	id            string
	parent        *Model
	name          string
	kind          FieldKind
	forkName      string
	tupleParts    []string
	readonlyValue any
	forks         *forkRegistry

	mu       sync.Mutex
	config   *FieldConfig
	mountGen uint64
	mounted  *reactive.Signal[bool]

	cell *validationCell
}

func (m *Model) newFieldLocked(kind FieldKind, name, fork string, parts []string, value any, forks *forkRegistry) *Field {
	r := m.root
	r.fieldSeq++
	if forks == nil {
		forks = &forkRegistry{byName: make(map[string]*Field)}
	}
	f := &Field{
		id:            "Field_" + strconv.Itoa(r.fieldSeq),
		parent:        m,
		name:          name,
		kind:          kind,
		forkName:      fork,
		tupleParts:    parts,
		readonlyValue: value,
		forks:         forks,
		mounted:       reactive.NewSignal(false),
		cell:          newValidationCell(telemetry.KindField),
	}
	forks.byName[fork] = f
	forks.list = append(forks.list, f)
	return f
}

// NewReadonlyField returns a field holding value under m. It is not
// registered in the model: writes are ignored and validateAll skips it.
func NewReadonlyField(m *Model, value any) *Field {
	m.root.mu.Lock()
	defer m.root.mu.Unlock()
	return m.newFieldLocked(KindReadonly, "readonly", OriginalFork, nil, value, nil)
}

// ID returns the field's id, unique within its root model.
func (f *Field) ID() string { return f.id }

func (f *Field) Name() string { return f.name }

func (f *Field) Kind() FieldKind { return f.kind }

func (f *Field) ForkName() string { return f.forkName }

func (f *Field) Parent() *Model { return f.parent }

func (f *Field) TupleParts() []string { return append([]string(nil), f.tupleParts...) }

// IsOriginal reports whether f is the field returned by GetField.
func (f *Field) IsOriginal() bool { return f.forkName == OriginalFork }

func (f *Field) String() string { return f.id + "(" + f.name + "#" + f.forkName + ")" }

// Path returns the parent's path followed by the field's name.
func (f *Field) Path() []string {
	return append(f.parent.Path(), f.name)
}

func (f *Field) pathString() string {
	var p []string
	reactive.Untracked(func() {
		p = f.Path()
	})
	return pathutil.Join(p)
}

func (f *Field) parentUntracked(fn func(m *Model)) {
	reactive.Untracked(func() {
		fn(f.parent)
	})
}

// IsDeleted reports whether the field's model was removed from its array.
func (f *Field) IsDeleted() bool {
	return f.parent.IsDeleted()
}

func (f *Field) peekDeleted() bool {
	var deleted bool
	reactive.Untracked(func() {
		deleted = f.parent.IsDeleted()
	})
	return deleted
}

// GetFork returns the fork named name, creating it on first access. Forks
// share the field's value.
func (f *Field) GetFork(name string) *Field {
	m := f.parent
	m.root.mu.Lock()
	defer m.root.mu.Unlock()
	if fork := f.forks.byName[name]; fork != nil {
		return fork
	}
	return m.newFieldLocked(f.kind, f.name, name, f.tupleParts, f.readonlyValue, f.forks)
}

// Forks returns every fork of the field, the original first.
func (f *Field) Forks() []*Field {
	m := f.parent
	m.root.mu.RLock()
	defer m.root.mu.RUnlock()
	return append([]*Field(nil), f.forks.list...)
}

// =============================================================================
// Value
// =============================================================================

// Value returns the field's value. A tuple field returns one element per
// part, nil for absent parts.
func (f *Field) Value() any {
	switch f.kind {
	case KindReadonly:
		return f.readonlyValue
	case KindTuple:
		out := make([]any, len(f.tupleParts))
		for i, part := range f.tupleParts {
			out[i], _ = f.parent.lookupSegs([]string{part})
		}
		return out
	default:
		v, _ := f.parent.lookupSegs([]string{f.name})
		return v
	}
}

// LookupValue returns the value and whether it is present. Tuple and
// readonly fields are always present.
func (f *Field) LookupValue() (any, bool) {
	if f.kind == KindNormal {
		return f.parent.lookupSegs([]string{f.name})
	}
	return f.Value(), true
}

func (f *Field) anyPartPresent() bool {
	for _, part := range f.tupleParts {
		if _, ok := f.parent.lookupSegs([]string{part}); ok {
			return true
		}
	}
	return false
}

// SetValue writes the field's value into its model. For a tuple field, the
// i-th element goes to the i-th part; nil clears every part to nil.
func (f *Field) SetValue(value any) {
	switch {
	case f.kind == KindReadonly:
		f.parent.warnStale(xerrors.CodeReadonlyWrite, f.pathString())
		return
	case f.peekDeleted():
		f.parent.warnStale(xerrors.CodeDeletedWrite, f.pathString())
		return
	case f.kind == KindTuple:
		f.setTuple(value)
	default:
		f.parent.write("field:setValue", []string{f.name}, value)
	}
}

func (f *Field) setTuple(value any) {
	var list []any
	if value != nil && !IsUndefined(value) {
		list, _ = pathutil.Normalize(value).([]any)
	}
	reactive.Action("field:setTuple", func() {
		for i, part := range f.tupleParts {
			var pv any
			switch {
			case value == nil:
				pv = nil
			case i < len(list):
				pv = list[i]
			default:
				pv = Undefined
			}
			f.parent.write("field:setValue", []string{part}, pv)
		}
	})
}

func (f *Field) deleteValue() {
	switch f.kind {
	case KindReadonly:
	case KindTuple:
		reactive.Action("field:clear", func() {
			for _, part := range f.tupleParts {
				f.parent.write("field:clear", []string{part}, Undefined)
			}
		})
	default:
		f.parent.write("field:clear", []string{f.name}, Undefined)
	}
}

// =============================================================================
// Mount
// =============================================================================

// Track mounts the field with cfg and returns the function that unmounts
// it. Mounting an already mounted field is ignored with a warning and
// returns a no-op.
func (f *Field) Track(cfg FieldConfig) (untrack func()) {
	untrack, _ = f.track(cfg)
	return untrack
}

func (f *Field) track(cfg FieldConfig) (func(), bool) {
	var (
		gen uint64
		ok  = true
	)
	reactive.Batch(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.config != nil {
			ok = false
			return
		}
		c := cfg
		if c.RequiredMessage == "" {
			c.RequiredMessage = DefaultRequiredMessage
		}
		f.config = &c
		f.mountGen++
		gen = f.mountGen
		f.mounted.Set(true)
	})
	if !ok {
		f.parent.warnStale(xerrors.CodeFieldMounted, f.pathString())
		return func() {}, false
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			reactive.Batch(func() {
				f.mu.Lock()
				defer f.mu.Unlock()
				if f.mountGen != gen || f.config == nil {
					return
				}
				f.config = nil
				f.mounted.Set(false)
			})
		})
	}, true
}

// IsMounted reports whether the field currently has a config.
func (f *Field) IsMounted() bool {
	return f.mounted.Get()
}

// Config returns the mounted config.
func (f *Field) Config() (FieldConfig, bool) {
	f.mounted.Get()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.config == nil {
		return FieldConfig{}, false
	}
	return *f.config, true
}

// HTMLID returns the element id for the field under prefix, or "" when
// prefix is empty. Non-original forks append "#fork".
func (f *Field) HTMLID(prefix string) string {
	if prefix == "" {
		return ""
	}
	id := prefix + pathutil.Join(f.Path())
	if f.forkName != OriginalFork {
		id += "#" + f.forkName
	}
	return id
}

// =============================================================================
// Events
// =============================================================================

// HandleChange writes value, calls AfterChange and validates with the
// change trigger.
func (f *Field) HandleChange(ctx context.Context, value any, rest ...any) error {
	if IsUndefined(value) {
		f.parent.warnStale(xerrors.CodeUndefinedChange, f.pathString())
		value = nil
	}
	f.SetValue(value)
	if cfg, ok := f.peekConfig(); ok && cfg.AfterChange != nil {
		cfg.AfterChange(value, rest...)
	}
	return f.Validate(ctx, TriggerChange)
}

// HandleBlur validates with the blur trigger.
func (f *Field) HandleBlur(ctx context.Context) error {
	return f.Validate(ctx, TriggerBlur)
}

// HandleFocus is a hook for focus events. Focus does not validate.
func (f *Field) HandleFocus() {}

// Clear cancels pending validation, clears the error and removes the
// field's value from the model.
func (f *Field) Clear() {
	if f.peekDeleted() {
		return
	}
	f.cell.cancelPending()
	f.cell.setError(nil)
	f.deleteValue()
}

// =============================================================================
// Validation
// =============================================================================

func (f *Field) peekConfig() (FieldConfig, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.config == nil {
		return FieldConfig{}, false
	}
	return *f.config, true
}

// Validate validates the field's current value if it is mounted and
// configured for trigger. It supersedes any pending validation. The result
// is nil when the run was skipped or superseded.
func (f *Field) Validate(ctx context.Context, trigger Trigger) error {
	run := f.startRun(ctx, trigger)
	if run == nil {
		return nil
	}
	return run.Run()
}

// StartValidate runs Validate in a goroutine and returns a function that
// cancels it.
func (f *Field) StartValidate(ctx context.Context, trigger Trigger) (cancel func()) {
	run := f.startRun(ctx, trigger)
	if run == nil {
		return func() {}
	}
	go run.Run()
	return run.cancel
}

func (f *Field) startRun(ctx context.Context, trigger Trigger) *validationRun {
	cfg, ok := f.peekConfig()
	if !ok {
		return nil
	}
	if !cfg.accepts(trigger) {
		telemetry.RecordValidation(telemetry.KindField, telemetry.OutcomeSkipped, 0)
		return nil
	}

	var value any
	reactive.Untracked(func() {
		value = f.effectiveValue(&cfg)
	})
	path := f.pathString()
	return f.cell.start(ctx, func(ctx context.Context) error {
		isEmpty := cfg.IsEmpty
		if isEmpty == nil {
			isEmpty = IsEmptyValue
		}
		if cfg.Required && isEmpty(value) {
			return ValidationError{Field: path, Message: cfg.RequiredMessage}
		}
		if cfg.Validate != nil {
			return cfg.Validate(ctx, value, f, trigger)
		}
		return nil
	})
}

// effectiveValue is the value a validation sees: a private copy of the
// field's value, or of its default when the value is absent. A tuple is
// absent when none of its parts is.
func (f *Field) effectiveValue(cfg *FieldConfig) any {
	var (
		value   any
		present bool
	)
	if f.kind == KindTuple {
		value, present = f.Value(), f.anyPartPresent()
	} else {
		value, present = f.LookupValue()
	}
	if !present {
		if def, ok := cfg.defaultValue(); ok {
			value = pathutil.Normalize(def)
		}
	}
	return pathutil.Clone(value)
}

// CancelValidation drops the pending validation's result, if any.
func (f *Field) CancelValidation() {
	f.cell.cancelPending()
}

// State returns the error and validating flag.
func (f *Field) State() State {
	return f.cell.get()
}

// Error returns the last committed validation error.
func (f *Field) Error() error {
	return f.cell.get().Error
}

// Validating reports whether a validation is pending.
func (f *Field) Validating() bool {
	return f.cell.get().Validating
}

// SetError replaces the field's error.
func (f *Field) SetError(err error) {
	f.cell.setError(err)
}

// ClearError removes the field's error without touching pending validation.
func (f *Field) ClearError() {
	f.cell.setError(nil)
}
