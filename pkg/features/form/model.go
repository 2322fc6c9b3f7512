package form

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	xerrors "github.com/vango-dev/xform/internal/errors"
	"github.com/vango-dev/xform/pkg/pathutil"
	"github.com/vango-dev/xform/pkg/reactive"
	"github.com/vango-dev/xform/pkg/telemetry"
)

// deletedName replaces the name of a model removed from its array.
const deletedName = "(deleted)"

// Shape is the container shape a model's value is locked to.
type Shape = pathutil.Shape

const (
	ShapeAuto   = pathutil.ShapeAuto
	ShapeArray  = pathutil.ShapeArray
	ShapeObject = pathutil.ShapeObject
)

// ModelOption configures a root Model.
type ModelOption func(*modelConfig)

type modelConfig struct {
	logger *slog.Logger
	env    EnvOverride
}

// WithLogger sets the logger used for stale-operation warnings.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) ModelOption {
	return func(c *modelConfig) {
		c.logger = logger
	}
}

// WithEnv sets the root model's environment override.
func WithEnv(o EnvOverride) ModelOption {
	return func(c *modelConfig) {
		c.env = o
	}
}

// Model is a node in the value tree. The root model stores the value; every
// other model is a view that addresses the root's storage by its path.
//
// Sub-models, fields and checks are created on first access and memoized,
// so each path has exactly one Model.
type Model struct {
	id     string
	root   *Model
	parent *Model

	// Fields below are guarded by root.mu.
	name        string
	selfDeleted bool
	shape       Shape
	subKeys     []string
	subObj      map[string]*Model
	subArr      []*Model
	fieldKeys   []string
	fields      map[string]*Field
	checkKeys   []string
	checks      map[string]*Check
	env         EnvOverride

	// rev is bumped whenever the model's value, name or deletion state may
	// have changed.
	rev *reactive.Signal[uint64]

	// Root only.
	mu           sync.RWMutex
	values       any
	modelSeq     int
	fieldSeq     int
	logger       *slog.Logger
	htmlIDPrefix string
}

// NewModel creates a root model. A nil initial value starts as an empty
// object.
func NewModel(initial any, opts ...ModelOption) *Model {
	cfg := modelConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	m := &Model{
		logger:       cfg.logger,
		htmlIDPrefix: NewHTMLIDPrefix(),
		env:          cfg.env,
		rev:    reactive.NewSignal[uint64](0),
		fields: make(map[string]*Field),
		checks: make(map[string]*Check),
	}
	m.root = m
	m.modelSeq++
	m.id = "Model_" + strconv.Itoa(m.modelSeq)

	if initial == nil || IsUndefined(initial) {
		m.values = map[string]any{}
	} else {
		m.values = pathutil.Normalize(initial)
	}
	return m
}

func (m *Model) newSubLocked(name string) *Model {
	r := m.root
	r.modelSeq++
	return &Model{
		id:     "Model_" + strconv.Itoa(r.modelSeq),
		root:   r,
		parent: m,
		name:   name,
		rev:    reactive.NewSignal[uint64](0),
		fields: make(map[string]*Field),
		checks: make(map[string]*Check),
	}
}

// ID returns the model's id, unique within its root.
func (m *Model) ID() string {
	return m.id
}

// Root returns the root model.
func (m *Model) Root() *Model {
	return m.root
}

// Parent returns the parent model, or nil for the root.
func (m *Model) Parent() *Model {
	return m.parent
}

// IsRoot reports whether m owns the value storage.
func (m *Model) IsRoot() bool {
	return m.parent == nil
}

// Logger returns the root's logger.
func (m *Model) Logger() *slog.Logger {
	return m.root.logger
}

// String returns "id(name)".
func (m *Model) String() string {
	return fmt.Sprintf("%s(%s)", m.id, m.Name())
}

// Name returns the model's current name. Array items are renamed when the
// array is reordered.
func (m *Model) Name() string {
	m.rev.Get()
	m.root.mu.RLock()
	defer m.root.mu.RUnlock()
	return m.name
}

// Path returns the names from the root to m. The root's path is empty.
func (m *Model) Path() []string {
	m.rev.Get()
	m.root.mu.RLock()
	defer m.root.mu.RUnlock()
	return m.pathLocked()
}

func (m *Model) pathLocked() []string {
	if m.parent == nil {
		return []string{}
	}
	return append(m.parent.pathLocked(), m.name)
}

// Shape returns the model's value shape.
func (m *Model) Shape() Shape {
	m.root.mu.RLock()
	defer m.root.mu.RUnlock()
	return m.shape
}

// IsDeleted reports whether m or any ancestor was removed from an array.
func (m *Model) IsDeleted() bool {
	m.rev.Get()
	m.root.mu.RLock()
	defer m.root.mu.RUnlock()
	return m.isDeletedLocked()
}

func (m *Model) isDeletedLocked() bool {
	for c := m; c != nil; c = c.parent {
		if c.selfDeleted {
			return true
		}
	}
	return false
}

func (m *Model) markDeletedLocked() {
	if m.parent == nil {
		panic(xerrors.New(xerrors.CodeDeleteNonSubModel).WithPath(m.id))
	}
	m.name = deletedName
	m.selfDeleted = true
}

func (m *Model) updateShapeLocked(s Shape) {
	if m.shape == ShapeAuto {
		m.shape = s
		if s == ShapeObject {
			m.subObj = make(map[string]*Model)
		}
		return
	}
	if m.shape != s {
		panic(xerrors.New(xerrors.CodeShapeMismatch).
			WithPath(pathutil.Join(m.pathLocked())).
			WithDetail(fmt.Sprintf("model %s is locked to %s and cannot be accessed as %s", m.id, m.shape, s)))
	}
}

// childLocked returns an existing sub-model without creating it.
func (m *Model) childLocked(seg string) *Model {
	switch m.shape {
	case ShapeObject:
		return m.subObj[seg]
	case ShapeArray:
		i, ok := pathutil.Index(seg)
		if !ok || i >= len(m.subArr) {
			return nil
		}
		return m.subArr[i]
	}
	return nil
}

func (m *Model) subModelLocked(seg string) *Model {
	m.updateShapeLocked(pathutil.ShapeOf(seg))

	if m.shape == ShapeArray {
		i, ok := pathutil.Index(seg)
		if !ok {
			panic(xerrors.New(xerrors.CodeInvalidPath).
				WithPath(pathutil.Join(append(m.pathLocked(), seg))).
				WithDetail(fmt.Sprintf("array index above %d", pathutil.MaxIndex)))
		}
		for len(m.subArr) <= i {
			m.subArr = append(m.subArr, nil)
		}
		if m.subArr[i] == nil {
			m.subArr[i] = m.newSubLocked(strconv.Itoa(i))
		}
		return m.subArr[i]
	}

	sub := m.subObj[seg]
	if sub == nil {
		sub = m.newSubLocked(seg)
		m.subObj[seg] = sub
		m.subKeys = append(m.subKeys, seg)
	}
	return sub
}

// walkLocked visits m and its sub-models in pre-order.
func (m *Model) walkLocked(fn func(*Model)) {
	fn(m)
	switch m.shape {
	case ShapeObject:
		for _, k := range m.subKeys {
			m.subObj[k].walkLocked(fn)
		}
	case ShapeArray:
		for _, sub := range m.subArr {
			if sub != nil {
				sub.walkLocked(fn)
			}
		}
	}
}

// affectedLocked is called on the root. It returns the models whose view may
// change after a write at the absolute path abs: the root, every existing model along abs, and all
// descendants of the model at abs.
func (m *Model) affectedLocked(abs []string) []*Model {
	out := []*Model{m}
	cur := m
	for _, seg := range abs {
		next := cur.childLocked(seg)
		if next == nil {
			return out
		}
		out = append(out, next)
		cur = next
	}
	cur.walkLocked(func(d *Model) {
		if d != cur {
			out = append(out, d)
		}
	})
	return out
}

// notify bumps the revision of every model in models as one batch.
func notify(op string, models []*Model) {
	if len(models) == 0 {
		return
	}
	reactive.Action("form:"+op, func() {
		for _, m := range models {
			m.rev.Update(func(n uint64) uint64 { return n + 1 })
		}
	})
}

func (m *Model) warnStale(code, path string) {
	err := xerrors.New(code).WithPath(path)
	m.root.logger.Warn("xform: "+strings.ToLower(err.Message), "id", m.id, "path", path, "error", err)
	telemetry.RecordStale(code)
}

func splitName(name string) []string {
	segs := pathutil.Split(name)
	if len(segs) == 0 {
		panic(xerrors.New(xerrors.CodeInvalidPath).WithPath(name).WithDetail("empty name"))
	}
	return segs
}

// =============================================================================
// Values
// =============================================================================

// Values returns the model's value. The returned tree is never mutated by
// later writes.
func (m *Model) Values() any {
	m.rev.Get()
	m.root.mu.RLock()
	defer m.root.mu.RUnlock()
	v, _ := m.lookupLocked(nil)
	return v
}

// Snapshot returns a deep copy of the model's value.
func (m *Model) Snapshot() any {
	return pathutil.Clone(m.Values())
}

// Len returns the length of an array value, or 0.
func (m *Model) Len() int {
	list, _ := m.Values().([]any)
	return len(list)
}

func (m *Model) lookupLocked(rel []string) (any, bool) {
	abs := append(m.pathLocked(), rel...)
	return pathutil.LookupIn(m.root.values, abs)
}

// GetValue returns the value at name, relative to m, or nil when absent.
//
//	m.GetValue("items.0.name")
//	m.GetValue("items[0].name")
func (m *Model) GetValue(name string) any {
	v, _ := m.LookupValue(name)
	return v
}

// LookupValue returns the value at name and whether it exists. A present
// nil exists.
func (m *Model) LookupValue(name string) (any, bool) {
	return m.lookupSegs(pathutil.Split(name))
}

func (m *Model) lookupSegs(segs []string) (any, bool) {
	m.rev.Get()
	m.root.mu.RLock()
	defer m.root.mu.RUnlock()
	return m.lookupLocked(segs)
}

// SetValue writes value at name, relative to m. Writing Undefined removes
// the key. Writes to a deleted model are ignored with a warning.
func (m *Model) SetValue(name string, value any) {
	m.write("setValue", splitName(name), value)
}

// DeleteValue removes the value at name.
func (m *Model) DeleteValue(name string) {
	m.write("deleteValue", splitName(name), Undefined)
}

// SetValues replaces the model's whole value.
func (m *Model) SetValues(values any) {
	if m.parent == nil && values == nil {
		m.root.logger.Warn("xform: root model values should not be nil", "id", m.id)
	}
	m.write("setValues", nil, values)
}

func (m *Model) write(op string, rel []string, value any) {
	if !IsUndefined(value) {
		value = pathutil.Normalize(value)
	}

	r := m.root
	var (
		affected    []*Model
		deleted     bool
		deletedPath string
	)
	func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if m.isDeletedLocked() {
			deleted = true
			deletedPath = pathutil.Join(m.pathLocked())
			return
		}
		affected = m.writeLocked(rel, value)
	}()

	if deleted {
		m.warnStale(xerrors.CodeDeletedWrite, deletedPath)
		return
	}
	notify(op, affected)
}

func (m *Model) writeLocked(rel []string, value any) []*Model {
	r := m.root
	base := m.pathLocked()

	// A sub-model without a value takes its shape from the first written key.
	if m.parent != nil && len(rel) > 0 {
		if cur, _ := pathutil.LookupIn(r.values, base); cur == nil {
			m.updateShapeLocked(pathutil.ShapeOf(rel[0]))
		}
	}

	abs := append(base, rel...)
	switch {
	case IsUndefined(value) && len(abs) == 0:
		r.values = map[string]any{}
	case IsUndefined(value):
		r.values = pathutil.DeleteIn(r.values, abs)
	default:
		next, err := pathutil.SetIn(r.values, abs, value)
		if err != nil {
			panic(xerrors.New(xerrors.CodeInvalidPath).WithPath(pathutil.Join(abs)).Wrap(err))
		}
		r.values = next
	}
	return r.affectedLocked(abs)
}

// =============================================================================
// Structure
// =============================================================================

// GetSubModel returns the model at name, relative to m, creating every
// model along the way. Each segment locks the shape of the model it indexes.
func (m *Model) GetSubModel(name string) *Model {
	return m.subModelPath(splitName(name))
}

// Item returns the sub-model at array index i.
func (m *Model) Item(i int) *Model {
	return m.subModelPath([]string{strconv.Itoa(i)})
}

func (m *Model) subModelPath(segs []string) *Model {
	m.root.mu.Lock()
	defer m.root.mu.Unlock()
	cur := m
	for _, seg := range segs {
		cur = cur.subModelLocked(seg)
	}
	return cur
}

// GetField returns the original fork of the field at name.
func (m *Model) GetField(name string) *Field {
	segs := splitName(name)

	m.root.mu.Lock()
	defer m.root.mu.Unlock()
	owner := m
	for _, seg := range segs[:len(segs)-1] {
		owner = owner.subModelLocked(seg)
	}
	return owner.fieldLocked(segs[len(segs)-1])
}

func (m *Model) fieldLocked(name string) *Field {
	m.updateShapeLocked(pathutil.ShapeOf(name))
	if f := m.fields[name]; f != nil {
		return f
	}
	f := m.newFieldLocked(KindNormal, name, OriginalFork, nil, nil, nil)
	m.fields[name] = f
	m.fieldKeys = append(m.fieldKeys, name)
	return f
}

// GetTupleField returns a field that reads and writes several sibling keys
// as one array value. Tuple fields require an object-shaped model.
func (m *Model) GetTupleField(parts ...string) *Field {
	name := "tuple(" + strings.Join(parts, ",") + ")"

	m.root.mu.Lock()
	defer m.root.mu.Unlock()
	m.updateShapeLocked(ShapeObject)
	if f := m.fields[name]; f != nil {
		return f
	}
	f := m.newFieldLocked(KindTuple, name, OriginalFork, append([]string(nil), parts...), nil, nil)
	m.fields[name] = f
	m.fieldKeys = append(m.fieldKeys, name)
	return f
}

// AsField returns the parent's field that addresses this model's value.
// The root has no such field.
func (m *Model) AsField() *Field {
	if m.parent == nil {
		panic(xerrors.New(xerrors.CodeRootAsField).WithPath(m.id))
	}
	m.root.mu.Lock()
	defer m.root.mu.Unlock()
	return m.parent.fieldLocked(m.name)
}

// GetCheck returns the check named name, creating it on first access.
func (m *Model) GetCheck(name string) *Check {
	m.root.mu.Lock()
	defer m.root.mu.Unlock()
	if c := m.checks[name]; c != nil {
		return c
	}
	c := newCheck(m, name)
	m.checks[name] = c
	m.checkKeys = append(m.checkKeys, name)
	return c
}

// IterateModels visits m and every existing sub-model in pre-order.
func (m *Model) IterateModels(fn func(*Model)) {
	var list []*Model
	m.root.mu.RLock()
	m.walkLocked(func(x *Model) {
		list = append(list, x)
	})
	m.root.mu.RUnlock()

	for _, x := range list {
		fn(x)
	}
}

// IterateFields visits every fork of every field under m, models in
// pre-order.
func (m *Model) IterateFields(fn func(*Field)) {
	var list []*Field
	m.root.mu.RLock()
	m.walkLocked(func(x *Model) {
		for _, k := range x.fieldKeys {
			list = append(list, x.fields[k].forks.list...)
		}
	})
	m.root.mu.RUnlock()

	for _, f := range list {
		fn(f)
	}
}

// IterateChecks visits every check under m, models in pre-order.
func (m *Model) IterateChecks(fn func(*Check)) {
	var list []*Check
	m.root.mu.RLock()
	m.walkLocked(func(x *Model) {
		for _, k := range x.checkKeys {
			list = append(list, x.checks[k])
		}
	})
	m.root.mu.RUnlock()

	for _, c := range list {
		fn(c)
	}
}

// =============================================================================
// Env
// =============================================================================

// SetEnv replaces the model's environment override. Descendants inherit it
// unless they override it themselves.
func (m *Model) SetEnv(o EnvOverride) {
	m.root.mu.Lock()
	m.env = o
	m.root.mu.Unlock()
}

// Env resolves the model's environment: defaults with the root's generated
// HTMLIDPrefix, then each ancestor's override from the root down, then m's
// own.
func (m *Model) Env() Env {
	m.root.mu.RLock()
	var chain []EnvOverride
	for c := m; c != nil; c = c.parent {
		chain = append(chain, c.env)
	}
	m.root.mu.RUnlock()

	env := DefaultEnv()
	env.HTMLIDPrefix = m.root.htmlIDPrefix
	for i := len(chain) - 1; i >= 0; i-- {
		env = chain[i].Apply(env)
	}
	return env
}
