package container

import (
	"errors"
	"fmt"
)

// Container errors.
var (
	// ErrNotBound indicates nothing is registered under the requested abstract.
	ErrNotBound = errors.New("no binding registered")

	// ErrCircularDependency indicates a binding was resolved while it was
	// already being built.
	ErrCircularDependency = errors.New("circular dependency")

	// ErrNotCallable indicates Call was given something that is not a function.
	ErrNotCallable = errors.New("not callable")
)

// BindingError reports a failure to register or resolve an abstract.
type BindingError struct {
	Abstract string // Abstract being resolved
	Err      error  // Underlying error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("container: [%s]: %v", e.Abstract, e.Err)
}

func (e *BindingError) Unwrap() error {
	return e.Err
}
