package pathutil

import (
	"fmt"
	"reflect"
)

// LookupIn returns the value at path and whether it exists.
// A present nil value exists; a missing key or out-of-range index does not.
func LookupIn(root any, path []string) (any, bool) {
	cur := root
	for _, seg := range path {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, ok := Index(seg)
			if !ok || i >= len(c) {
				return nil, false
			}
			cur = c[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// GetIn returns the value at path, or def when it does not exist.
func GetIn(root any, path []string, def any) any {
	if v, ok := LookupIn(root, path); ok {
		return v
	}
	return def
}

// SetIn returns a copy of root with value written at path. Missing or
// non-container intermediates are replaced by a new container whose shape
// is inferred from the next segment. Arrays grow with nil padding.
func SetIn(root any, path []string, value any) (any, error) {
	if len(path) == 0 {
		return value, nil
	}
	seg, rest := path[0], path[1:]

	switch c := root.(type) {
	case map[string]any:
		child, err := SetIn(c[seg], rest, value)
		if err != nil {
			return nil, err
		}
		next := make(map[string]any, len(c)+1)
		for k, v := range c {
			next[k] = v
		}
		next[seg] = child
		return next, nil

	case []any:
		i, ok := Index(seg)
		if !ok {
			return nil, fmt.Errorf("%w: segment %q on array", ErrInvalidPath, seg)
		}
		var old any
		if i < len(c) {
			old = c[i]
		}
		child, err := SetIn(old, rest, value)
		if err != nil {
			return nil, err
		}
		n := len(c)
		if i >= n {
			n = i + 1
		}
		next := make([]any, n)
		copy(next, c)
		next[i] = child
		return next, nil

	default:
		if ShapeOf(seg) == ShapeArray {
			return SetIn([]any{}, path, value)
		}
		return SetIn(map[string]any{}, path, value)
	}
}

// DeleteIn returns a copy of root without the value at path. Deleting an
// array element leaves a nil hole so sibling indexes are kept. A path that
// does not exist returns root unchanged.
func DeleteIn(root any, path []string) any {
	if len(path) == 0 {
		return root
	}
	seg, rest := path[0], path[1:]

	switch c := root.(type) {
	case map[string]any:
		old, ok := c[seg]
		if !ok {
			return root
		}
		next := make(map[string]any, len(c))
		for k, v := range c {
			if k != seg {
				next[k] = v
			}
		}
		if len(rest) > 0 {
			next[seg] = DeleteIn(old, rest)
		}
		return next

	case []any:
		i, ok := Index(seg)
		if !ok || i >= len(c) {
			return root
		}
		next := make([]any, len(c))
		copy(next, c)
		if len(rest) > 0 {
			next[i] = DeleteIn(c[i], rest)
		} else {
			next[i] = nil
		}
		return next

	default:
		return root
	}
}

// Clone deep-copies the containers of a value tree. Leaves are shared.
func Clone(v any) any {
	switch c := v.(type) {
	case map[string]any:
		next := make(map[string]any, len(c))
		for k, item := range c {
			next[k] = Clone(item)
		}
		return next
	case []any:
		next := make([]any, len(c))
		for i, item := range c {
			next[i] = Clone(item)
		}
		return next
	default:
		return v
	}
}

// Normalize converts typed maps and slices (map[string]string, []int) into
// the map[string]any / []any form the tree functions understand. Containers
// are copied and leaves are shared. Structs are returned unchanged.
func Normalize(v any) any {
	switch c := v.(type) {
	case nil:
		return nil
	case map[string]any:
		next := make(map[string]any, len(c))
		for k, item := range c {
			next[k] = Normalize(item)
		}
		return next
	case []any:
		next := make([]any, len(c))
		for i, item := range c {
			next[i] = Normalize(item)
		}
		return next
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		next := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			next[iter.Key().String()] = Normalize(iter.Value().Interface())
		}
		return next
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		next := make([]any, rv.Len())
		for i := range next {
			next[i] = Normalize(rv.Index(i).Interface())
		}
		return next
	default:
		return v
	}
}
