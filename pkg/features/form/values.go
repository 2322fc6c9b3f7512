package form

import (
	"reflect"
	"strings"
)

type undefined struct{}

// Undefined marks an absent value. Writing it removes the key; it is never
// stored in a value tree.
var Undefined any = undefined{}

// IsUndefined reports whether v is the Undefined marker.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// Optional is a value that may be unset. The zero Optional is unset, which
// is distinct from a set nil.
type Optional struct {
	Value any
	Set   bool
}

// Some returns a set Optional holding v.
func Some(v any) Optional {
	return Optional{Value: v, Set: true}
}

// Get returns the value and whether it is set.
func (o Optional) Get() (any, bool) {
	return o.Value, o.Set
}

// Or returns the value, or def when unset.
func (o Optional) Or(def any) any {
	if o.Set {
		return o.Value
	}
	return def
}

// IsEmptyValue is the default emptiness predicate used by required fields:
// nil, blank strings and empty arrays or objects are empty. Zero numbers
// and false are not.
func IsEmptyValue(value any) bool {
	if value == nil || IsUndefined(value) {
		return true
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case []byte:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer:
		return rv.IsNil()
	default:
		return false
	}
}
