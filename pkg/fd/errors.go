package fd

import (
	"errors"
	"fmt"
)

// FD errors
var (
	// ErrInconsistent signals a dead end during propagation. Search treats it
	// as an ordinary failure and backtracks.
	ErrInconsistent = errors.New("constraint store is inconsistent")

	ErrEmptyDomain      = errors.New("variable domain is empty")
	ErrUnknownVariable  = errors.New("unknown variable")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrPredicateFailure = errors.New("predicate evaluation failed")
)

// PredicateError reports a predicate that returned an error instead of a
// verdict. It aborts the whole enumeration; it is never a backtracking signal.
type PredicateError struct {
	Constraint int
	Vars       []string
	Err        error
}

func (e *PredicateError) Error() string {
	return fmt.Sprintf("constraint %d over %v: %v", e.Constraint, e.Vars, e.Err)
}

func (e *PredicateError) Unwrap() []error {
	return []error{ErrPredicateFailure, e.Err}
}
