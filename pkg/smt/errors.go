package smt

import "errors"

var (
	// ErrUnsat is returned by Check when the assertions have no model.
	ErrUnsat = errors.New("unsatisfiable")
	// ErrUnknown is returned when the SAT core gives up.
	ErrUnknown = errors.New("satisfiability unknown")
	// ErrUnbounded means a handle has no finite support.
	ErrUnbounded = errors.New("handle has no finite support")
	// ErrTooLarge means grounding exceeds Config.MaxDomain or Config.MaxTuples.
	ErrTooLarge = errors.New("grounding too large")
	// ErrSort reports an ill-typed term.
	ErrSort = errors.New("sort mismatch")
	// ErrParse reports an expression that cannot be parsed into a term.
	ErrParse = errors.New("cannot parse expression")
	// ErrUnbound is returned by Eval for a handle missing from the environment.
	ErrUnbound = errors.New("unbound handle")
	// ErrDivByZero is returned by Eval for division or modulo by zero.
	ErrDivByZero = errors.New("division by zero")
	// ErrOverflow is returned by Eval when integer arithmetic leaves int64.
	ErrOverflow = errors.New("integer overflow")
)
