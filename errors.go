package polysat

import "github.com/pkg/errors"

// ContractError is panicked when a caller violates the solver's contract:
// mixing polynomials of different widths, an out-of-range bit index in
// Assign, Pop without a matching Push, or otherwise calling an operation
// outside its documented preconditions. Using a variable id after the Pop
// that retracted it is not detected as a contract violation. It is not meant
// to be recovered; it indicates a bug in the caller, not a property of the
// input problem.
type ContractError struct {
	cause error
}

func (e *ContractError) Error() string { return e.cause.Error() }
func (e *ContractError) Unwrap() error { return e.cause }

func contractViolation(format string, args ...interface{}) {
	panic(&ContractError{cause: errors.Errorf(format, args...)})
}

// ResourceError is returned by (*Solver).Err when CheckSat gave up with an
// Unknown verdict because a viable-set enumeration, the solution set of a
// linear equation, or a bit-forcing range set exceeded the WithMaxEnumeration
// budget, rather than because the caller cancelled the search. The
// polynomial hash-cons table has no budget.
type ResourceError struct {
	cause error
}

func (e *ResourceError) Error() string { return e.cause.Error() }
func (e *ResourceError) Unwrap() error { return e.cause }
func (e *ResourceError) Cause() error  { return e.cause }

func resourceExhausted(format string, args ...interface{}) *ResourceError {
	return &ResourceError{cause: errors.Errorf(format, args...)}
}

// CancelledError is returned by (*Solver).Err when CheckSat returned
// Unknown because the caller's cancellation channel fired.
type CancelledError struct{}

func (e *CancelledError) Error() string { return "polysat: search cancelled" }
