package form

import (
	"fmt"
	"strconv"

	xerrors "github.com/vango-dev/xform/internal/errors"
	"github.com/vango-dev/xform/pkg/pathutil"
)

// Array helpers mutate an array model's value and its sub-models together.
// After every operation sub-model i addresses value i and is named by its
// index. Sub-models looked up past the end of the value stay unbacked views
// until a row is appended at their index. Sub-models keep their
// ids across reorders, so ItemKey is stable for a moving item.

// Append adds an item produced by factory. A nil factory, or one that
// returns Undefined, appends an empty object.
//
//	form.Append(items, func(m *form.Model) any {
//	    return map[string]any{"name": "", "pos": m.Len()}
//	})
func Append(m *Model, factory func(m *Model) any) {
	item := Undefined
	if factory != nil {
		item = factory(m)
	}
	AppendValue(m, item)
}

// AppendValue adds item to the array. Undefined appends an empty object.
func AppendValue(m *Model, item any) {
	if IsUndefined(item) {
		item = map[string]any{}
	} else {
		item = pathutil.Normalize(item)
	}
	arrayOp(m, "array:append", func(list []any, subs []*Model) ([]any, []*Model, []*Model) {
		return append(list, item), append(subs, nil), nil
	})
}

// Delete removes the item at index and marks its sub-model deleted.
func Delete(m *Model, index int) {
	arrayOp(m, "array:delete", func(list []any, subs []*Model) ([]any, []*Model, []*Model) {
		if index < 0 || index >= len(list) {
			return nil, nil, nil
		}
		removed := subs[index]
		list = append(list[:index], list[index+1:]...)
		subs = append(subs[:index], subs[index+1:]...)
		return list, subs, []*Model{removed}
	})
}

// MoveUp swaps the item at index with its predecessor. The first item does
// not move.
func MoveUp(m *Model, index int) {
	arrayOp(m, "array:moveUp", func(list []any, subs []*Model) ([]any, []*Model, []*Model) {
		if index <= 0 || index >= len(list) {
			return nil, nil, nil
		}
		swap(list, subs, index, index-1)
		return list, subs, nil
	})
}

// MoveDown swaps the item at index with its successor. The last item does
// not move.
func MoveDown(m *Model, index int) {
	arrayOp(m, "array:moveDown", func(list []any, subs []*Model) ([]any, []*Model, []*Model) {
		if index < 0 || index >= len(list)-1 {
			return nil, nil, nil
		}
		swap(list, subs, index, index+1)
		return list, subs, nil
	})
}

// Swap exchanges the items at a and b.
func Swap(m *Model, a, b int) {
	arrayOp(m, "array:swap", func(list []any, subs []*Model) ([]any, []*Model, []*Model) {
		if a < 0 || b < 0 || a >= len(list) || b >= len(list) || a == b {
			return nil, nil, nil
		}
		swap(list, subs, a, b)
		return list, subs, nil
	})
}

// Move removes the item at from and reinserts it at to.
func Move(m *Model, from, to int) {
	arrayOp(m, "array:move", func(list []any, subs []*Model) ([]any, []*Model, []*Model) {
		if from < 0 || to < 0 || from >= len(list) || to >= len(list) || from == to {
			return nil, nil, nil
		}
		return reorder(list, from, to), reorder(subs, from, to), nil
	})
}

// Clear empties the array and marks every sub-model backed by a row
// deleted.
func Clear(m *Model) {
	arrayOp(m, "array:clear", func(list []any, subs []*Model) ([]any, []*Model, []*Model) {
		if len(list) == 0 {
			return nil, nil, nil
		}
		return []any{}, []*Model{}, subs
	})
}

func swap(list []any, subs []*Model, a, b int) {
	list[a], list[b] = list[b], list[a]
	subs[a], subs[b] = subs[b], subs[a]
}

func reorder[T any](list []T, from, to int) []T {
	item := list[from]
	out := make([]T, 0, len(list))
	out = append(out, list[:from]...)
	out = append(out, list[from+1:]...)
	out = append(out[:to], append([]T{item}, out[to:]...)...)
	return out
}

// arrayOp applies fn to private copies of the value array and the sub-model
// array. fn returns nil slices for a no-op, plus the sub-models to mark
// deleted.
func arrayOp(m *Model, op string, fn func(list []any, subs []*Model) ([]any, []*Model, []*Model)) {
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
		if m.shape == ShapeObject {
			panic(xerrors.New(xerrors.CodeArrayShape).WithPath(pathutil.Join(m.pathLocked())))
		}

		cur, _ := m.lookupLocked(nil)
		list, ok := cur.([]any)
		if cur != nil && !ok {
			panic(xerrors.New(xerrors.CodeArrayShape).
				WithPath(pathutil.Join(m.pathLocked())).
				WithDetail(fmt.Sprintf("model %s holds %T, not an array", m.id, cur)))
		}
		m.updateShapeLocked(ShapeArray)

		// Sub-models past the end of the value are views created ahead of
		// their data. They keep their index and are never backed by padding.
		n := len(list)
		list = append([]any(nil), list...)
		subs := append([]*Model(nil), m.subArr...)
		var ahead []*Model
		if len(subs) > n {
			ahead = subs[n:]
			subs = subs[:n:n]
		}
		for len(subs) < n {
			subs = append(subs, nil)
		}

		nextList, nextSubs, removed := fn(list, subs)
		if nextList == nil {
			return
		}
		for k, sub := range ahead {
			i := n + k
			for len(nextSubs) <= i {
				nextSubs = append(nextSubs, nil)
			}
			switch {
			case nextSubs[i] == nil:
				nextSubs[i] = sub
			case sub != nil:
				removed = append(removed, sub)
			}
		}
		for len(nextSubs) > len(nextList) && nextSubs[len(nextSubs)-1] == nil {
			nextSubs = nextSubs[:len(nextSubs)-1]
		}

		m.subArr = nextSubs
		for i, sub := range nextSubs {
			if sub != nil {
				sub.name = strconv.Itoa(i)
			}
		}
		affected = m.writeLocked(nil, nextList)
		for _, sub := range removed {
			if sub == nil {
				continue
			}
			sub.markDeletedLocked()
			sub.walkLocked(func(d *Model) {
				affected = append(affected, d)
			})
		}
	}()

	if deleted {
		m.warnStale(xerrors.CodeDeletedWrite, deletedPath)
		return
	}
	notify(op, affected)
}

// =============================================================================
// Rendering
// =============================================================================

// ItemKey returns the identity key of item i: its sub-model's id. Keys
// follow items through reorders, unlike indices.
func ItemKey(m *Model, i int) string {
	return m.Item(i).ID()
}

// Item is one rendered array item.
type Item[T any] struct {
	Key   string
	Index int
	Model *Model
	Node  T
}

// RenderItem renders item i with content.
func RenderItem[T any](m *Model, i int, content func(i int, item *Model) T) Item[T] {
	sub := m.Item(i)
	return Item[T]{
		Key:   sub.ID(),
		Index: i,
		Model: sub,
		Node:  content(i, sub),
	}
}

// RenderItems renders every item of the array in order.
func RenderItems[T any](m *Model, content func(i int, item *Model) T) []Item[T] {
	n := m.Len()
	out := make([]Item[T], 0, n)
	for i := 0; i < n; i++ {
		out = append(out, RenderItem(m, i, content))
	}
	return out
}
