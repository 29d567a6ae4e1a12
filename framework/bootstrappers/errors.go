package bootstrappers

import (
	"errors"
	"fmt"
)

// Registry errors.
var (
	// ErrUnknownBootstrapper indicates the registry has no factory for a class id.
	ErrUnknownBootstrapper = errors.New("unknown bootstrapper")

	// ErrDuplicateBootstrapper indicates a class id was registered twice.
	ErrDuplicateBootstrapper = errors.New("bootstrapper already registered")

	// ErrNilBootstrapper indicates a factory returned nil.
	ErrNilBootstrapper = errors.New("factory returned nil bootstrapper")
)

// Dispatch operations reported in DispatchError.Op.
const (
	OpResolve  = "resolve"
	OpRegister = "register"
	OpRun      = "run"
	OpShutdown = "shutdown"
)

// DispatchError identifies the bootstrapper and step that failed.
type DispatchError struct {
	Class ClassID // Bootstrapper that failed
	Op    string  // One of OpResolve, OpRegister, OpRun, OpShutdown
	Err   error   // Underlying error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("bootstrapper %s: %s: %v", e.Class, e.Op, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
