// Package csp orchestrates constraint satisfaction problems over named,
// typed variables. A CSP aggregates constraints of one kind, owns the
// variable domains, and hands out distinct models one at a time from the
// matching solving capability: a finite-domain engine for predicate
// constraints or a symbolic engine for expression constraints.
//
// Lifecycle:
//
//	Unsolved --first solve--> Solving --> HasSolution --NextSolution--> ...
//	                                  \-> Exhausted
//
// Any domain change, negation or reset of a constraint drops the solver
// state; the next solve starts from scratch.
//
// A CSP is not safe for concurrent use.
package csp

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gitrdm/gokancsp/pkg/smt"
)

// State is the solving state of a CSP.
type State int

const (
	StateUnsolved State = iota
	StateSolving
	StateHasSolution
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateSolving:
		return "solving"
	case StateHasSolution:
		return "has_solution"
	case StateExhausted:
		return "exhausted"
	}
	return "unsolved"
}

// Option configures a CSP.
type Option func(*CSP)

// WithHighlight sets the highlight flag read back by HighlightVariables.
func WithHighlight(on bool) Option { return func(c *CSP) { c.highlight = on } }

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option { return func(c *CSP) { c.baseLog = l } }

// WithMetrics records solving activity on m.
func WithMetrics(m *Metrics) Option { return func(c *CSP) { c.metrics = m } }

// CSP is a constraint satisfaction problem.
type CSP struct {
	id          uuid.UUID
	caps        Capabilities
	kind        Kind
	constraints []Constraint
	vars        []string
	namespaces  map[string]string
	types       map[string]VarType
	handles     map[string]smt.Handle
	domains     map[string]Domain
	saved       map[string]Domain
	dirty       bool
	nodes       map[string]any
	highlight   bool

	state     State
	problem   FiniteDomainProblem
	stream    SolutionStream
	session   SymbolicSession
	last      *smt.Model
	model     Model
	exhausted bool
	queried   bool
	lastErr   error

	baseLog zerolog.Logger
	log     zerolog.Logger
	metrics *Metrics
}

// New builds a CSP from one or more constraints of the same kind. The
// constraints are cloned; later changes to the arguments do not affect the
// CSP. caps must provide the capability matching the constraint kind.
func New(caps Capabilities, constraints []Constraint, opts ...Option) (*CSP, error) {
	const op = "New"
	if len(constraints) == 0 {
		return nil, preconditionError(op, "", ErrNoConstraints)
	}
	kind := constraints[0].Kind()
	for _, cons := range constraints[1:] {
		if cons.Kind() != kind {
			return nil, preconditionError(op, "", ErrMixedKinds)
		}
	}
	if !caps.forKind(kind) {
		return nil, preconditionError(op, "", fmt.Errorf("%w: %s", ErrMissingCapability, kind))
	}

	c := &CSP{
		id:         uuid.New(),
		caps:       caps,
		kind:       kind,
		namespaces: make(map[string]string),
		types:      make(map[string]VarType),
		handles:    make(map[string]smt.Handle),
		domains:    make(map[string]Domain),
		nodes:      make(map[string]any),
		baseLog:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, cons := range constraints {
		cp := cons.Clone()
		c.constraints = append(c.constraints, cp)
		c.vars = append(c.vars, cp.Vars()...)
		maps.Copy(c.namespaces, cp.Namespaces())
		for v, t := range cp.Types() {
			if prev, ok := c.types[v]; ok && prev != t {
				return nil, definitionError(op, v, fmt.Errorf("declared as %s and %s", prev, t))
			}
			c.types[v] = t
		}
		if sc, ok := cp.(*SymbolicConstraint); ok {
			for v, h := range sc.handles {
				if prev, ok := c.handles[v]; ok && prev != h {
					return nil, definitionError(op, v, fmt.Errorf("handle sorts %s and %s", prev.Sort, h.Sort))
				}
				c.handles[v] = h
			}
		}
	}
	c.log = c.baseLog.With().Str("csp_id", c.id.String()).Str("backend", kind.String()).Logger()
	c.log.Debug().Int("constraints", len(c.constraints)).Strs("vars", c.vars).Msg("csp created")
	return c, nil
}

// ID identifies the CSP in logs.
func (c *CSP) ID() string { return c.id.String() }

// Kind returns the constraint kind shared by all constraints.
func (c *CSP) Kind() Kind { return c.kind }

// State returns the current solving state.
func (c *CSP) State() State { return c.state }

// Vars returns the aggregated variable list in constraint order. A variable
// used by several constraints appears several times.
func (c *CSP) Vars() []string { return slices.Clone(c.vars) }

// VarNamespace returns the namespace of v, or v itself when none is known.
func (c *CSP) VarNamespace(v string) string {
	if ns, ok := c.namespaces[v]; ok {
		return ns
	}
	return v
}

// VarTypes returns the declared variable types.
func (c *CSP) VarTypes() map[string]VarType { return maps.Clone(c.types) }

// HighlightVariables returns the highlight flag given at construction.
func (c *CSP) HighlightVariables() bool { return c.highlight }

// VarDomain returns the domain currently set for v.
func (c *CSP) VarDomain(v string) (Domain, bool) {
	d, ok := c.domains[v]
	return d, ok
}

// VarDomains returns a copy of the domain map.
func (c *CSP) VarDomains() map[string]Domain { return maps.Clone(c.domains) }

// VarDomainUpdated reports whether domains changed since the last save or
// restore.
func (c *CSP) VarDomainUpdated() bool { return c.dirty }

// SetVarDomain sets the domain of v. Empty domains are rejected. Setting a
// domain resets the solver state.
func (c *CSP) SetVarDomain(v string, d Domain) error {
	if d.IsEmpty() {
		return preconditionError("SetVarDomain", v, ErrEmptyDomain)
	}
	c.domains[v] = d
	c.dirty = true
	c.Reset()
	return nil
}

// SaveCurrentVarDomains snapshots all domains. A later snapshot replaces
// the earlier one; snapshots do not nest.
func (c *CSP) SaveCurrentVarDomains() {
	c.saved = maps.Clone(c.domains)
	c.dirty = false
}

// RestoreVarDomains rolls the domains back to the last snapshot and resets
// the solver state.
func (c *CSP) RestoreVarDomains() error {
	if c.saved == nil {
		return preconditionError("RestoreVarDomains", "", ErrNoSnapshot)
	}
	c.domains = maps.Clone(c.saved)
	c.dirty = false
	c.Reset()
	return nil
}

// MapVarToNode associates v with an external object. The CSP never reads
// the association itself.
func (c *CSP) MapVarToNode(v string, node any) { c.nodes[v] = node }

// VarMapping returns the variable to node associations.
func (c *CSP) VarMapping() map[string]any { return maps.Clone(c.nodes) }

// NumConstraints returns the number of constraints.
func (c *CSP) NumConstraints() int { return len(c.constraints) }

// Constraint returns a copy of constraint i. Use NegateConstraint and
// ResetConstraint to change the CSP's own constraints.
func (c *CSP) Constraint(i int) (Constraint, error) {
	if i < 0 || i >= len(c.constraints) {
		return nil, preconditionError("Constraint", "", fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(c.constraints)))
	}
	return c.constraints[i].Clone(), nil
}

// Constraints returns copies of all constraints.
func (c *CSP) Constraints() []Constraint {
	out := make([]Constraint, len(c.constraints))
	for i, cons := range c.constraints {
		out[i] = cons.Clone()
	}
	return out
}

// NegateConstraint activates the complement of constraint i and resets the
// solver state.
func (c *CSP) NegateConstraint(i int) error {
	if i < 0 || i >= len(c.constraints) {
		return preconditionError("NegateConstraint", "", fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(c.constraints)))
	}
	c.constraints[i].Negate()
	c.log.Debug().Int("constraint", i).Bool("negated", c.constraints[i].Negated()).Msg("constraint negated")
	c.Reset()
	return nil
}

// ResetConstraint restores the original relation of constraint i and resets
// the solver state.
func (c *CSP) ResetConstraint(i int) error {
	if i < 0 || i >= len(c.constraints) {
		return preconditionError("ResetConstraint", "", fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(c.constraints)))
	}
	c.constraints[i].ResetToOriginal()
	c.Reset()
	return nil
}

// Exhausted reports whether no further models exist for the current
// configuration.
func (c *CSP) Exhausted() bool { return c.exhausted }

// SolutionQueried reports whether the current model was read with Solution.
func (c *CSP) SolutionQueried() bool { return c.queried }

// LastError returns the definition error that exhausted the CSP, if any.
func (c *CSP) LastError() error { return c.lastErr }

// Solution returns the current model, solving for the first one if needed,
// and marks it as read. The result is nil when the CSP exhausted without a
// model.
func (c *CSP) Solution() (Model, error) {
	if c.model == nil && !c.exhausted {
		if err := c.NextSolution(); err != nil {
			return nil, err
		}
	}
	c.queried = true
	return c.model.Clone(), nil
}

// All iterates over the current model and every further model until the CSP
// is exhausted. An error ends the iteration after being yielded.
func (c *CSP) All() iter.Seq2[Model, error] {
	return func(yield func(Model, error) bool) {
		if c.model == nil && !c.exhausted {
			if err := c.NextSolution(); err != nil {
				yield(nil, err)
				return
			}
		}
		for c.model != nil && !c.exhausted {
			if !yield(c.model.Clone(), nil) {
				return
			}
			if err := c.NextSolution(); err != nil {
				yield(nil, err)
				return
			}
		}
	}
}

// Copy returns an independent CSP with cloned constraints, copied domains
// and node mapping, and the current model. The copy has no solver state: its
// next solve starts a fresh enumeration.
func (c *CSP) Copy() *CSP {
	cp := *c
	cp.id = uuid.New()
	cp.constraints = make([]Constraint, len(c.constraints))
	for i, cons := range c.constraints {
		cp.constraints[i] = cons.Clone()
	}
	cp.vars = slices.Clone(c.vars)
	cp.namespaces = maps.Clone(c.namespaces)
	cp.types = maps.Clone(c.types)
	cp.handles = maps.Clone(c.handles)
	cp.domains = maps.Clone(c.domains)
	if c.saved != nil {
		cp.saved = maps.Clone(c.saved)
	}
	cp.nodes = maps.Clone(c.nodes)
	cp.model = c.model.Clone()
	cp.problem, cp.stream, cp.session, cp.last = nil, nil, nil, nil
	if cp.state == StateSolving || cp.state == StateHasSolution {
		cp.state = StateUnsolved
	}
	cp.log = cp.baseLog.With().Str("csp_id", cp.id.String()).Str("backend", cp.kind.String()).Logger()
	cp.log.Debug().Str("source", c.id.String()).Msg("csp copied")
	return &cp
}

func (c *CSP) String() string {
	parts := make([]string, len(c.constraints))
	for i, cons := range c.constraints {
		parts[i] = cons.String()
	}
	return fmt.Sprintf("CSP{%s, %v, state=%s}", c.kind, parts, c.state)
}
