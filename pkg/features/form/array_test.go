package form

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "github.com/vango-dev/xform/internal/errors"
)

func items(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = map[string]any{"v": i + 1}
	}
	return out
}

// checkParity asserts that the value array and the sub-model array of m
// line up.
func checkParity(t *testing.T, m *Model) {
	t.Helper()
	list, _ := m.Values().([]any)

	m.root.mu.RLock()
	subs := append([]*Model(nil), m.subArr...)
	names := make([]string, len(subs))
	for i, s := range subs {
		if s != nil {
			names[i] = s.name
		}
	}
	m.root.mu.RUnlock()

	// Sub-models past the value are unbacked views; the value is never
	// padded to reach them.
	require.GreaterOrEqual(t, len(subs), len(list), "sub-model array shorter than value")
	if len(subs) > len(list) {
		require.NotNil(t, subs[len(subs)-1], "trailing nil sub-model")
	}
	for i, s := range subs {
		if s == nil {
			continue
		}
		assert.Equal(t, strconv.Itoa(i), names[i])
		assert.False(t, s.IsDeleted())
		if i < len(list) {
			assert.Equal(t, list[i], s.Values(), "sub-model %d does not address value %d", i, i)
		} else {
			assert.Nil(t, s.Values(), "unbacked sub-model %d has a value", i)
		}
	}
}

func TestAppendBindsFieldLookedUpFirst(t *testing.T) {
	m := quietModel(map[string]any{"items": []any{}})
	name := m.GetField("items.0.name")
	list := m.GetSubModel("items")
	checkParity(t, list)

	Append(list, func(*Model) any {
		return map[string]any{"name": "a"}
	})

	if diff := cmp.Diff([]any{map[string]any{"name": "a"}}, list.Values()); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "a", name.Value())
	assert.Same(t, name.Parent(), list.Item(0))
	checkParity(t, list)

	name.SetValue("b")
	assert.Equal(t, "b", m.GetValue("items.0.name"))
}

func TestViewsAheadOfDataKeepTheirIndex(t *testing.T) {
	m := quietModel(map[string]any{"items": items(2)})
	list := m.GetSubModel("items")
	ahead := list.Item(3)

	Delete(list, 0)
	checkParity(t, list)
	assert.Equal(t, "3", ahead.Name())
	assert.Equal(t, 1, list.Len())

	AppendValue(list, "x")
	AppendValue(list, "y")
	AppendValue(list, "z")
	checkParity(t, list)
	assert.Equal(t, "z", ahead.Values())
	assert.Same(t, ahead, list.Item(3))
}

func TestAppend(t *testing.T) {
	m := quietModel(map[string]any{"items": []any{}})
	list := m.GetSubModel("items")

	Append(list, func(*Model) any {
		return map[string]any{"name": ""}
	})
	assert.Equal(t, 1, list.Len())

	Append(list, nil)
	AppendValue(list, "plain")
	Append(list, func(x *Model) any {
		return map[string]any{"pos": x.Len()}
	})

	want := []any{
		map[string]any{"name": ""},
		map[string]any{},
		"plain",
		map[string]any{"pos": 3},
	}
	if diff := cmp.Diff(want, m.GetValue("items")); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	checkParity(t, list)
}

func TestAppendInitializesArray(t *testing.T) {
	m := quietModel(nil)
	list := m.GetSubModel("items")
	Append(list, nil)
	assert.Equal(t, []any{map[string]any{}}, m.GetValue("items"))
	assert.Equal(t, ShapeArray, list.Shape())
}

func TestMovePreservesIdentity(t *testing.T) {
	m := quietModel(map[string]any{"items": items(3)})
	list := m.GetSubModel("items")
	first := list.Item(0)
	id := first.ID()

	Move(list, 0, 2)

	assert.Equal(t, id, list.Item(2).ID())
	assert.Equal(t, id, ItemKey(list, 2))
	assert.Equal(t, []string{"items", "2"}, first.Path())
	want := []any{
		map[string]any{"v": 2},
		map[string]any{"v": 3},
		map[string]any{"v": 1},
	}
	if diff := cmp.Diff(want, m.GetValue("items")); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	checkParity(t, list)
}

func TestMoveBackwards(t *testing.T) {
	m := quietModel(map[string]any{"items": items(4)})
	list := m.GetSubModel("items")
	last := list.Item(3)

	Move(list, 3, 1)
	assert.Same(t, last, list.Item(1))
	assert.Equal(t, []any{
		map[string]any{"v": 1},
		map[string]any{"v": 4},
		map[string]any{"v": 2},
		map[string]any{"v": 3},
	}, m.GetValue("items"))
}

func TestMoveUpDownBoundaries(t *testing.T) {
	m := quietModel(map[string]any{"items": items(3)})
	list := m.GetSubModel("items")
	before := m.GetValue("items")

	MoveUp(list, 0)
	MoveDown(list, 2)
	MoveUp(list, 7)
	assert.Equal(t, before, m.GetValue("items"))

	a, b := list.Item(0), list.Item(1)
	MoveDown(list, 0)
	assert.Same(t, a, list.Item(1))
	assert.Same(t, b, list.Item(0))
	assert.Equal(t, "1", a.Name())

	MoveUp(list, 1)
	assert.Same(t, a, list.Item(0))
	assert.Equal(t, before, m.GetValue("items"))
}

func TestSwap(t *testing.T) {
	m := quietModel(map[string]any{"items": items(3)})
	list := m.GetSubModel("items")
	a, c := list.Item(0), list.Item(2)

	Swap(list, 0, 2)
	assert.Same(t, c, list.Item(0))
	assert.Same(t, a, list.Item(2))
	assert.Equal(t, map[string]any{"v": 3}, m.GetValue("items.0"))
	checkParity(t, list)
}

func TestDeleteCascades(t *testing.T) {
	m := quietModel(map[string]any{"items": []any{
		map[string]any{"tags": []any{"x"}},
		map[string]any{"tags": []any{"y"}},
	}})
	list := m.GetSubModel("items")
	first := list.Item(0)
	tags := first.GetSubModel("tags")
	tag := tags.Item(0)
	second := list.Item(1)

	Delete(list, 0)

	assert.True(t, first.IsDeleted())
	assert.True(t, tags.IsDeleted())
	assert.True(t, tag.IsDeleted())
	assert.True(t, first.GetField("tags").IsDeleted())
	assert.Equal(t, deletedName, first.Name())

	assert.False(t, second.IsDeleted())
	assert.False(t, list.IsDeleted())
	assert.False(t, m.IsDeleted())
	assert.Equal(t, "0", second.Name())
	assert.Equal(t, []any{map[string]any{"tags": []any{"y"}}}, m.GetValue("items"))
	checkParity(t, list)
}

func TestClearMarksSubModelsDeleted(t *testing.T) {
	m := quietModel(map[string]any{"items": items(2)})
	list := m.GetSubModel("items")
	a, b := list.Item(0), list.Item(1)

	Clear(list)

	assert.Equal(t, []any{}, m.GetValue("items"))
	assert.True(t, a.IsDeleted())
	assert.True(t, b.IsDeleted())
	assert.NotSame(t, a, list.Item(0))
	Delete(list, 0)
	checkParity(t, list)
}

func TestArrayOpOnObjectModelPanics(t *testing.T) {
	m := quietModel(nil)
	obj := m.GetSubModel("obj")
	obj.GetField("name")

	assert.Equal(t, xerrors.CodeArrayShape, panicCode(t, func() {
		Append(obj, nil)
	}))
	assert.Equal(t, xerrors.CodeArrayShape, panicCode(t, func() {
		Move(obj, 0, 1)
	}))
}

func TestArrayParityUnderRandomOps(t *testing.T) {
	m := quietModel(map[string]any{"items": items(5)})
	list := m.GetSubModel("items")
	rnd := rand.New(rand.NewSource(7))

	for step := 0; step < 200; step++ {
		n := list.Len()
		if n > 0 {
			// Materialize some sub-models so both arrays are exercised.
			list.Item(rnd.Intn(n))
		}
		switch rnd.Intn(6) {
		case 0:
			AppendValue(list, map[string]any{"v": step})
		case 1:
			if n > 0 {
				Delete(list, rnd.Intn(n))
			}
		case 2:
			if n > 0 {
				Move(list, rnd.Intn(n), rnd.Intn(n))
			}
		case 3:
			if n > 0 {
				Swap(list, rnd.Intn(n), rnd.Intn(n))
			}
		case 4:
			if n > 0 {
				MoveUp(list, rnd.Intn(n))
			}
		case 5:
			if rnd.Intn(10) == 0 {
				Clear(list)
			} else if n > 0 {
				MoveDown(list, rnd.Intn(n))
			}
		}
		checkParity(t, list)
	}
}

func TestRenderItems(t *testing.T) {
	m := quietModel(map[string]any{"items": []any{"a", "b"}})
	list := m.GetSubModel("items")

	render := func(i int, item *Model) string {
		return item.Name() + "=" + item.Values().(string)
	}
	before := RenderItems(list, render)
	require.Len(t, before, 2)
	assert.Equal(t, "0=a", before[0].Node)

	MoveDown(list, 0)
	after := RenderItems(list, render)
	assert.Equal(t, before[0].Key, after[1].Key)
	assert.Equal(t, "1=a", after[1].Node)
	assert.Equal(t, 1, after[1].Index)
}
