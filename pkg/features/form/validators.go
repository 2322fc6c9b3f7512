package form

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Validator checks a single value. A nil error means valid.
type Validator interface {
	Validate(value any) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(value any) error

func (f ValidatorFunc) Validate(value any) error {
	return f(value)
}

// ValidationError is a validation failure. Its Error is the message shown
// next to the field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// Rules composes validators into a field ValidateFunc. Validators run in
// order and the first failure wins.
//
//	form.MountField(ctx, m.GetField("email"), form.ItemProps{
//	    Required: true,
//	    Validate: form.Rules(form.Email(""), form.MaxLength(254, "")),
//	})
func Rules(vs ...Validator) ValidateFunc {
	return func(ctx context.Context, value any, f *Field, _ Trigger) error {
		for _, v := range vs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := v.Validate(value); err != nil {
				if ve, ok := err.(ValidationError); ok && ve.Field == "" && f != nil {
					ve.Field = f.pathString()
					return ve
				}
				return err
			}
		}
		return nil
	}
}

func fail(msg string) error {
	return ValidationError{Message: msg}
}

// Required fails on empty values as defined by IsEmptyValue.
func Required(msg string) Validator {
	if msg == "" {
		msg = DefaultRequiredMessage
	}
	return ValidatorFunc(func(value any) error {
		if IsEmptyValue(value) {
			return fail(msg)
		}
		return nil
	})
}

// MinLength requires at least n characters in a string or n elements in
// a list. Empty values pass; combine with Required.
func MinLength(n int, msg string) Validator {
	if msg == "" {
		msg = fmt.Sprintf("Must be at least %d characters", n)
	}
	return ValidatorFunc(func(value any) error {
		l, ok := length(value)
		if ok && l > 0 && l < n {
			return fail(msg)
		}
		return nil
	})
}

// MaxLength allows at most n characters or elements.
func MaxLength(n int, msg string) Validator {
	if msg == "" {
		msg = fmt.Sprintf("Must be at most %d characters", n)
	}
	return ValidatorFunc(func(value any) error {
		if l, ok := length(value); ok && l > n {
			return fail(msg)
		}
		return nil
	})
}

// Pattern requires a string matching pattern. It panics if pattern does not
// compile.
func Pattern(pattern, msg string) Validator {
	re := regexp.MustCompile(pattern)
	if msg == "" {
		msg = "Invalid format"
	}
	return matching(msg, func(s string) bool {
		return re.MatchString(s)
	})
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Email requires an email address.
func Email(msg string) Validator {
	if msg == "" {
		msg = "Invalid email address"
	}
	return matching(msg, emailRegex.MatchString)
}

// URL requires an absolute http or https URL.
func URL(msg string) Validator {
	if msg == "" {
		msg = "Invalid URL"
	}
	return matching(msg, func(s string) bool {
		u, err := url.Parse(s)
		return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	})
}

// UUID requires a UUID in canonical or braced form.
func UUID(msg string) Validator {
	if msg == "" {
		msg = "Invalid UUID"
	}
	return matching(msg, func(s string) bool {
		return uuid.Validate(s) == nil
	})
}

// Numeric requires a string that parses as a number.
func Numeric(msg string) Validator {
	if msg == "" {
		msg = "Must be a number"
	}
	return matching(msg, func(s string) bool {
		_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return err == nil
	})
}

// matching applies ok to non-empty string values.
func matching(msg string, ok func(string) bool) Validator {
	return ValidatorFunc(func(value any) error {
		s, isString := value.(string)
		if value == nil || (isString && s == "") {
			return nil
		}
		if !isString || !ok(s) {
			return fail(msg)
		}
		return nil
	})
}

// Min requires a number >= n. Numeric strings are parsed.
func Min(n float64, msg string) Validator {
	if msg == "" {
		msg = "Must be at least " + strconv.FormatFloat(n, 'f', -1, 64)
	}
	return number(msg, func(v float64) bool { return v >= n })
}

// Max requires a number <= n.
func Max(n float64, msg string) Validator {
	if msg == "" {
		msg = "Must be at most " + strconv.FormatFloat(n, 'f', -1, 64)
	}
	return number(msg, func(v float64) bool { return v <= n })
}

// Between requires a number in [lo, hi].
func Between(lo, hi float64, msg string) Validator {
	if msg == "" {
		msg = fmt.Sprintf("Must be between %s and %s",
			strconv.FormatFloat(lo, 'f', -1, 64), strconv.FormatFloat(hi, 'f', -1, 64))
	}
	return number(msg, func(v float64) bool { return v >= lo && v <= hi })
}

func number(msg string, ok func(float64) bool) Validator {
	return ValidatorFunc(func(value any) error {
		if IsEmptyValue(value) {
			return nil
		}
		v, isNumber := toFloat64(value)
		if !isNumber || !ok(v) {
			return fail(msg)
		}
		return nil
	})
}

// OneOf requires the value to equal one of options.
func OneOf(options []any, msg string) Validator {
	if msg == "" {
		msg = "Not an allowed value"
	}
	return ValidatorFunc(func(value any) error {
		if IsEmptyValue(value) {
			return nil
		}
		for _, o := range options {
			if reflect.DeepEqual(o, value) {
				return nil
			}
		}
		return fail(msg)
	})
}

// Custom wraps fn as a Validator.
func Custom(fn func(value any) error) Validator {
	return ValidatorFunc(fn)
}

// SameAs is a field validator that requires the value to equal the value
// at name in the field's model.
//
//	Validate: form.SameAs("password", "Passwords do not match")
func SameAs(name, msg string) ValidateFunc {
	if msg == "" {
		msg = "Must match " + name
	}
	return func(_ context.Context, value any, f *Field, _ Trigger) error {
		var other any
		f.parentUntracked(func(m *Model) {
			other = m.GetValue(name)
		})
		if !reflect.DeepEqual(value, other) {
			return ValidationError{Field: f.pathString(), Message: msg}
		}
		return nil
	}
}

func length(value any) (int, bool) {
	switch v := value.(type) {
	case nil:
		return 0, true
	case string:
		return utf8.RuneCountInString(v), true
	case []any:
		return len(v), true
	case map[string]any:
		return len(v), true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	default:
		return 0, false
	}
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}
