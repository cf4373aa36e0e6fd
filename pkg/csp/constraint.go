package csp

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gitrdm/gokancsp/pkg/smt"
)

// Kind identifies the solving capability a constraint needs.
type Kind int

const (
	KindFiniteDomain Kind = iota
	KindSymbolic
)

func (k Kind) String() string {
	if k == KindSymbolic {
		return "symbolic"
	}
	return "fd"
}

// Constraint is a relation over an ordered tuple of variables. It is either
// an *FDConstraint or a *SymbolicConstraint.
//
// The original relation is kept for the lifetime of the constraint; Negate
// and ResetToOriginal only flip which form is active.
type Constraint interface {
	Kind() Kind
	// Vars returns the variable tuple in declaration order.
	Vars() []string
	// Namespaces maps every variable to its namespace; a variable without an
	// explicit namespace maps to itself.
	Namespaces() map[string]string
	// Types returns the declared variable types.
	Types() map[string]VarType
	Negated() bool
	Negate()
	ResetToOriginal()
	// Clone returns a copy with its own negation state.
	Clone() Constraint
	String() string

	sealed()
}

// Relation is a fallible predicate over one value per constraint variable.
type Relation func(args []Value) (bool, error)

// ConstraintOption configures a constraint at construction.
type ConstraintOption func(*descriptor)

// WithNamespaces sets namespace qualifiers for some or all variables.
func WithNamespaces(ns map[string]string) ConstraintOption {
	return func(d *descriptor) {
		for v, n := range ns {
			d.namespaces[v] = n
		}
	}
}

// WithTypes declares variable types.
func WithTypes(types map[string]VarType) ConstraintOption {
	return func(d *descriptor) {
		for v, t := range types {
			d.types[v] = t
		}
	}
}

// descriptor holds what both constraint kinds share. Clones share vars,
// namespaces and types, which are never modified after construction.
type descriptor struct {
	vars       []string
	namespaces map[string]string
	types      map[string]VarType
	negated    bool
}

func newDescriptor(op string, vars []string, opts []ConstraintOption) (descriptor, error) {
	if len(vars) == 0 {
		return descriptor{}, preconditionError(op, "", errors.New("constraint has no variables"))
	}
	d := descriptor{
		vars:       slices.Clone(vars),
		namespaces: make(map[string]string, len(vars)),
		types:      make(map[string]VarType),
	}
	for _, opt := range opts {
		opt(&d)
	}
	for v := range d.namespaces {
		if !slices.Contains(d.vars, v) {
			return descriptor{}, definitionError(op, v, errors.New("namespace given for a variable outside the constraint"))
		}
	}
	for v := range d.types {
		if !slices.Contains(d.vars, v) {
			return descriptor{}, definitionError(op, v, errors.New("type given for a variable outside the constraint"))
		}
	}
	for _, v := range d.vars {
		if _, ok := d.namespaces[v]; !ok {
			d.namespaces[v] = v
		}
	}
	return d, nil
}

func (d *descriptor) Vars() []string                { return slices.Clone(d.vars) }
func (d *descriptor) Namespaces() map[string]string { return maps.Clone(d.namespaces) }
func (d *descriptor) Types() map[string]VarType     { return maps.Clone(d.types) }
func (d *descriptor) Negated() bool                 { return d.negated }
func (d *descriptor) Negate()                       { d.negated = !d.negated }
func (d *descriptor) ResetToOriginal()              { d.negated = false }
func (d *descriptor) sealed()                       {}

// FDConstraint is a predicate for the finite-domain capability.
type FDConstraint struct {
	descriptor
	relation Relation
	label    string
}

// NewConstraint creates a finite-domain constraint from a boolean predicate.
func NewConstraint(pred func(args []Value) bool, vars []string, opts ...ConstraintOption) (*FDConstraint, error) {
	if pred == nil {
		return nil, preconditionError("NewConstraint", "", errors.New("nil predicate"))
	}
	return NewCheckedConstraint(func(args []Value) (bool, error) { return pred(args), nil }, vars, opts...)
}

// NewCheckedConstraint creates a finite-domain constraint from a predicate
// that can fail, for example on a value of the wrong type. A failure during
// solving is a definition error.
func NewCheckedConstraint(rel Relation, vars []string, opts ...ConstraintOption) (*FDConstraint, error) {
	if rel == nil {
		return nil, preconditionError("NewCheckedConstraint", "", errors.New("nil relation"))
	}
	d, err := newDescriptor("NewCheckedConstraint", vars, opts)
	if err != nil {
		return nil, err
	}
	return &FDConstraint{descriptor: d, relation: rel}, nil
}

// WithLabel sets the text shown by String, typically the source of the
// predicate.
func (c *FDConstraint) WithLabel(label string) *FDConstraint {
	c.label = label
	return c
}

func (c *FDConstraint) Kind() Kind { return KindFiniteDomain }

// Original returns the relation as constructed.
func (c *FDConstraint) Original() Relation { return c.relation }

// Relation returns the active relation: the original, or its complement
// while negated. Errors pass through unchanged.
func (c *FDConstraint) Relation() Relation {
	if !c.negated {
		return c.relation
	}
	orig := c.relation
	return func(args []Value) (bool, error) {
		ok, err := orig(args)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}
}

func (c *FDConstraint) Clone() Constraint {
	cp := *c
	return &cp
}

func (c *FDConstraint) String() string {
	label := c.label
	if label == "" {
		label = "predicate"
	}
	if c.negated {
		label = "not " + label
	}
	return fmt.Sprintf("fd(%s)[%s]", label, strings.Join(c.vars, ", "))
}

// SymbolicConstraint is an expression for the symbolic capability. The
// expression is parsed once, at construction, against one typed handle per
// variable.
type SymbolicConstraint struct {
	descriptor
	source  string
	expr    smt.Expr
	handles map[string]smt.Handle
}

// NewSymbolicConstraint parses src, an expression over vars (see smt.Parse
// for the syntax). Variables are integers unless declared as strings with
// WithTypes.
func NewSymbolicConstraint(src string, vars []string, opts ...ConstraintOption) (*SymbolicConstraint, error) {
	const op = "NewSymbolicConstraint"
	d, err := newDescriptor(op, vars, opts)
	if err != nil {
		return nil, err
	}
	handles := make(map[string]smt.Handle, len(vars))
	for _, v := range d.vars {
		handles[v] = handleFor(v, d.types[v])
	}
	expr, err := smt.Parse(src, handles)
	if err != nil {
		return nil, definitionError(op, "", err)
	}
	return &SymbolicConstraint{descriptor: d, source: src, expr: expr, handles: handles}, nil
}

// NewSymbolicConstraintExpr wraps an already built expression. Every handle
// in expr must belong to vars.
func NewSymbolicConstraintExpr(expr smt.Expr, vars []string, opts ...ConstraintOption) (*SymbolicConstraint, error) {
	const op = "NewSymbolicConstraintExpr"
	d, err := newDescriptor(op, vars, opts)
	if err != nil {
		return nil, err
	}
	if err := smt.TypeCheck(expr); err != nil {
		return nil, definitionError(op, "", err)
	}
	if expr.Sort() != smt.SortBool {
		return nil, definitionError(op, "", fmt.Errorf("%w: expression is %s", smt.ErrSort, expr.Sort()))
	}
	handles := make(map[string]smt.Handle, len(vars))
	for _, v := range d.vars {
		handles[v] = handleFor(v, d.types[v])
	}
	for _, h := range smt.Vars(expr) {
		if handles[h.Name] != h {
			return nil, definitionError(op, h.Name, errors.New("handle does not match a constraint variable"))
		}
	}
	return &SymbolicConstraint{descriptor: d, source: expr.String(), expr: expr, handles: handles}, nil
}

func handleFor(name string, t VarType) smt.Handle {
	if t == TypeString {
		return smt.StringHandle(name)
	}
	return smt.IntHandle(name)
}

func (c *SymbolicConstraint) Kind() Kind { return KindSymbolic }

// Source returns the expression text.
func (c *SymbolicConstraint) Source() string { return c.source }

// Original returns the parsed expression.
func (c *SymbolicConstraint) Original() smt.Expr { return c.expr }

// Expr returns the active expression, wrapped in Not while negated.
func (c *SymbolicConstraint) Expr() smt.Expr {
	if c.negated {
		return smt.Not(c.expr)
	}
	return c.expr
}

// Handles returns the handle of every variable.
func (c *SymbolicConstraint) Handles() map[string]smt.Handle { return maps.Clone(c.handles) }

func (c *SymbolicConstraint) Clone() Constraint {
	cp := *c
	return &cp
}

func (c *SymbolicConstraint) String() string {
	src := c.source
	if c.negated {
		src = "Not(" + src + ")"
	}
	return fmt.Sprintf("symbolic(%s)[%s]", src, strings.Join(c.vars, ", "))
}
