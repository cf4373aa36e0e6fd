package csp

import (
	"errors"
	"fmt"
)

// ErrorClass classifies the errors produced by a CSP.
type ErrorClass string

const (
	// ClassDefinition marks an inconsistent or unsupported variable
	// type/domain combination found while translating a problem. The CSP
	// absorbs these: it logs them and becomes exhausted.
	ClassDefinition ErrorClass = "definition"

	// ClassNoSolution marks a finite-domain problem whose very first solve
	// found nothing.
	ClassNoSolution ErrorClass = "no_solution"

	// ClassPrecondition marks a call that was invalid to begin with.
	ClassPrecondition ErrorClass = "precondition"
)

// Sentinel errors, usable with errors.Is.
var (
	ErrDefinition        = &Error{Class: ClassDefinition}
	ErrNoSolution        = &Error{Class: ClassNoSolution}
	ErrPrecondition      = &Error{Class: ClassPrecondition}
	ErrEmptyDomain       = errors.New("domain is empty")
	ErrIndexOutOfRange   = errors.New("constraint index out of range")
	ErrMixedKinds        = errors.New("constraints mix finite-domain and symbolic kinds")
	ErrMissingCapability = errors.New("required solving capability is missing")
	ErrNoSnapshot        = errors.New("no saved domains to restore")
	ErrNoConstraints     = errors.New("at least one constraint is required")
)

// Error is a classified error with the operation and variable involved.
type Error struct {
	Class ErrorClass
	Op    string
	Var   string
	Err   error
}

func (e *Error) Error() string {
	msg := string(e.Class)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Var != "" {
		msg += fmt.Sprintf(" (var=%s)", e.Var)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same class, so callers can test
// errors.Is(err, csp.ErrNoSolution).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Class == t.Class
}

func definitionError(op, v string, err error) *Error {
	return &Error{Class: ClassDefinition, Op: op, Var: v, Err: err}
}

func preconditionError(op, v string, err error) *Error {
	return &Error{Class: ClassPrecondition, Op: op, Var: v, Err: err}
}
