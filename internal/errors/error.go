package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
)

// Category represents the type of error.
type Category string

const (
	CategoryUsage  Category = "usage"
	CategoryStale  Category = "stale"
	CategoryConfig Category = "config"
)

// XFormError is a coded error with an optional value path.
type XFormError struct {
	// Code is a unique error identifier (e.g., "X001").
	Code string

	// Category is the error type (usage, stale, config).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Path is the dotted value path the error refers to, if any.
	Path string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *XFormError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s (path %q)", msg, e.Path)
	}
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *XFormError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is an *XFormError with the same code.
func (e *XFormError) Is(target error) bool {
	t, ok := target.(*XFormError)
	return ok && t.Code != "" && t.Code == e.Code
}

// LogValue renders the error as a slog group.
func (e *XFormError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("code", e.Code),
		slog.String("category", string(e.Category)),
		slog.String("message", e.Message),
	}
	if e.Path != "" {
		attrs = append(attrs, slog.String("path", e.Path))
	}
	if e.Wrapped != nil {
		attrs = append(attrs, slog.String("cause", e.Wrapped.Error()))
	}
	return slog.GroupValue(attrs...)
}

// WithPath records the value path the error refers to.
func (e *XFormError) WithPath(path string) *XFormError {
	e.Path = path
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *XFormError) WithDetail(d string) *XFormError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *XFormError) Wrap(err error) *XFormError {
	e.Wrapped = err
	return e
}

// New creates an XFormError from a registered error code.
func New(code string) *XFormError {
	template, ok := registry[code]
	if !ok {
		return &XFormError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &XFormError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new XFormError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *XFormError {
	return &XFormError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an XFormError.
func FromError(err error, code string) *XFormError {
	if err == nil {
		return nil
	}
	var xe *XFormError
	if stderrors.As(err, &xe) {
		return xe
	}
	return New(code).Wrap(err)
}

// CodeOf returns the code of the first XFormError in err's chain, or "".
func CodeOf(err error) string {
	var xe *XFormError
	if stderrors.As(err, &xe) {
		return xe.Code
	}
	return ""
}
