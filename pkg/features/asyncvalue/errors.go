package asyncvalue

import "errors"

var (
	// ErrStillLoading is returned by Use while the dependency is loading.
	// A producer that returns it leaves its value loading until the
	// dependency settles.
	ErrStillLoading = errors.New("asyncvalue: dependency still loading")

	// ErrSkip, returned by a producer, marks the value ready without
	// replacing the current result.
	ErrSkip = errors.New("asyncvalue: skip")
)
