// Package errors provides the coded errors raised by xform.
//
// Every error has a stable code (e.g. "X001") that maps to a short message
// and a longer explanation, so callers can match on the code instead of the
// text.
//
// # Error Categories
//
//   - usage: programming defects in the caller (shape mismatch, deleting a
//     model that is not a sub-model). These are raised with panic.
//   - stale: operations on deleted or already mounted nodes. These are logged
//     as warnings and ignored, since host lifecycles can produce them
//     transiently.
//   - config: environment configuration that cannot be decoded.
//
// # Usage
//
//	panic(errors.New("X001").WithPath("items.0"))
//
//	logger.Warn("write ignored", "error", errors.New("X101").WithPath(path))
package errors
