package compute

import (
	"errors"
	"fmt"
)

// Error kinds reported by kernel compilation and dispatch.
var (
	ErrCompilation     = errors.New("kernel compilation failed")
	ErrArgumentBinding = errors.New("kernel argument binding failed")
	ErrInvalidState    = errors.New("invalid operation state")
)

// CompilationError reports malformed program text or a backend rejecting it.
type CompilationError struct {
	Entry string // Entry point that was requested
	Hash  string // Program hash, empty if the program was never hashed
	Err   error  // Underlying cause
}

// Error implements the error interface.
func (e *CompilationError) Error() string {
	if e.Hash != "" {
		return fmt.Sprintf("compile %q (program %.12s): %v", e.Entry, e.Hash, e.Err)
	}
	return fmt.Sprintf("compile %q: %v", e.Entry, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CompilationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrCompilation) match.
func (e *CompilationError) Is(target error) bool { return target == ErrCompilation }

// ArgumentBindingError reports slot exhaustion or a kind/type mismatch while
// binding kernel arguments.
type ArgumentBindingError struct {
	Slot    int    // Argument slot, -1 when not slot specific
	Name    string // Argument name, if known
	Details string
}

// Error implements the error interface.
func (e *ArgumentBindingError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("argument %d (%s): %s", e.Slot, e.Name, e.Details)
	}
	return fmt.Sprintf("argument %d: %s", e.Slot, e.Details)
}

// Is makes errors.Is(err, ErrArgumentBinding) match.
func (e *ArgumentBindingError) Is(target error) bool { return target == ErrArgumentBinding }

// InvalidStateError reports an operation invoked in the wrong lifecycle state,
// such as dispatching before compiling.
type InvalidStateError struct {
	Op    string
	State string
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: not allowed in state %s", e.Op, e.State)
}

// Is makes errors.Is(err, ErrInvalidState) match.
func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }
