package csp

import (
	"errors"
	"fmt"
	"time"

	"github.com/gitrdm/gokancsp/pkg/smt"
)

// maxExpandedRange bounds how many values a range domain may expand to for
// the finite-domain engine.
const maxExpandedRange = 1 << 20

// Reset drops the solver state and starts a fresh one for the CSP's
// backend. The model and the exhausted and queried flags are cleared.
// Domains and constraints are kept.
func (c *CSP) Reset() {
	c.problem, c.stream, c.session, c.last = nil, nil, nil, nil
	switch c.kind {
	case KindFiniteDomain:
		c.problem = c.caps.FiniteDomain.NewProblem()
	case KindSymbolic:
		c.session = c.caps.Symbolic.NewSession()
	}
	c.model = nil
	c.exhausted = false
	c.queried = false
	c.lastErr = nil
	c.state = StateUnsolved
}

// NextSolution advances to the next distinct model.
//
// The first call after construction or a reset translates the problem and
// looks for a first model. A finite-domain problem without any solution
// returns an error matching ErrNoSolution; every other outcome, including
// definition errors and running out of models later, is reported only
// through Exhausted. Once exhausted, NextSolution does nothing until a
// domain or constraint change.
func (c *CSP) NextSolution() error {
	if c.exhausted {
		return nil
	}
	start := time.Now()
	defer c.metrics.observe(c.kind, start)
	defer func() { c.queried = false }()

	if c.state != StateHasSolution {
		return c.first()
	}
	c.advance()
	return nil
}

func (c *CSP) first() error {
	c.Reset()
	c.state = StateSolving
	c.metrics.inc(solvesCounter, c.kind)
	c.log.Debug().Msg("solving")

	if err := c.translate(); err != nil {
		c.fail(err)
		return nil
	}

	switch c.kind {
	case KindFiniteDomain:
		m, ok := c.stream.Next()
		if ok {
			c.found(m)
			return nil
		}
		if err := c.stream.Err(); err != nil {
			c.fail(definitionError("NextSolution", "", err))
			return nil
		}
		c.metrics.inc(noSolutionCounter, c.kind)
		c.exhaust()
		c.log.Warn().Strs("vars", c.vars).Msg("no solution found")
		return &Error{Class: ClassNoSolution, Op: "NextSolution", Err: fmt.Errorf("no solution for variables %v", c.vars)}
	case KindSymbolic:
		c.check()
	}
	return nil
}

func (c *CSP) advance() {
	switch c.kind {
	case KindFiniteDomain:
		m, ok := c.stream.Next()
		if ok {
			c.found(m)
			return
		}
		if err := c.stream.Err(); err != nil {
			c.fail(definitionError("NextSolution", "", err))
			return
		}
		c.exhaust()
	case KindSymbolic:
		if err := c.session.Assert(c.last.Exclude()); err != nil {
			c.fail(definitionError("NextSolution", "", err))
			return
		}
		c.check()
	}
}

// check runs the symbolic session and decodes its model.
func (c *CSP) check() {
	m, err := c.session.Check()
	switch {
	case errors.Is(err, smt.ErrUnsat):
		c.exhaust()
		return
	case err != nil:
		c.fail(definitionError("NextSolution", "", err))
		return
	}
	model := make(Model, len(c.handles))
	for v, h := range c.handles {
		val, ok := m.Value(h)
		if !ok {
			c.fail(definitionError("NextSolution", v, errors.New("variable missing from model")))
			return
		}
		if h.Sort == smt.SortString {
			model[v] = Str(val.Str())
		} else {
			model[v] = Int(val.Int())
		}
	}
	c.last = m
	c.found(model)
}

func (c *CSP) found(m Model) {
	c.model = m
	c.state = StateHasSolution
	c.metrics.inc(modelsCounter, c.kind)
	c.log.Debug().Stringer("model", m).Msg("model found")
}

func (c *CSP) exhaust() {
	c.exhausted = true
	c.state = StateExhausted
	c.metrics.inc(exhaustionsCounter, c.kind)
	c.log.Debug().Msg("solutions exhausted")
}

// fail absorbs a definition error: it is logged and the CSP becomes
// exhausted without a model.
func (c *CSP) fail(err error) {
	c.lastErr = err
	c.model = nil
	c.metrics.inc(definitionCounter, c.kind)
	c.log.Error().Err(err).Strs("vars", c.vars).Interface("domains", c.domainStrings()).
		Msg("variable types in the constraint formula are not consistent")
	c.exhaust()
}

func (c *CSP) domainStrings() map[string]string {
	out := make(map[string]string, len(c.domains))
	for v, d := range c.domains {
		out[v] = d.String()
	}
	return out
}

// distinctVars lists each variable once, in first-use order.
func (c *CSP) distinctVars() []string {
	seen := make(map[string]bool, len(c.vars))
	out := make([]string, 0, len(c.vars))
	for _, v := range c.vars {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// domainFor returns the domain of v after checking it against the declared
// type.
func (c *CSP) domainFor(v string) (Domain, error) {
	d, ok := c.domains[v]
	if !ok {
		return Domain{}, definitionError("translate", v, errors.New("no domain set"))
	}
	t := c.types[v]
	if c.kind == KindSymbolic && t == TypeUnset {
		t = TypeInt
	}
	if d.IsRange() {
		if t == TypeString {
			return Domain{}, definitionError("translate", v, errors.New("range domain for a string variable"))
		}
		return d, nil
	}
	if t == TypeUnset {
		return d, nil
	}
	for _, val := range d.values {
		if val.Type() != t {
			return Domain{}, definitionError("translate", v, fmt.Errorf("value %s in domain of %s variable", val, t))
		}
	}
	return d, nil
}

func (c *CSP) translate() error {
	if c.kind == KindSymbolic {
		return c.translateSymbolic()
	}
	return c.translateFD()
}

func (c *CSP) translateFD() error {
	for _, v := range c.distinctVars() {
		d, err := c.domainFor(v)
		if err != nil {
			return err
		}
		if d.Len() > maxExpandedRange {
			return definitionError("translate", v, fmt.Errorf("range %s has more than %d values", d, maxExpandedRange))
		}
		if err := c.problem.AddVariable(v, d.Values()); err != nil {
			return definitionError("translate", v, err)
		}
	}
	for i, cons := range c.constraints {
		fc := cons.(*FDConstraint)
		if err := c.problem.AddConstraint(fc.Relation(), fc.vars); err != nil {
			return definitionError("translate", "", fmt.Errorf("constraint %d: %w", i, err))
		}
	}
	stream, err := c.problem.Solutions()
	if err != nil {
		return definitionError("translate", "", err)
	}
	c.stream = stream
	return nil
}

func (c *CSP) translateSymbolic() error {
	for _, v := range c.distinctVars() {
		d, err := c.domainFor(v)
		if err != nil {
			return err
		}
		ref := smt.V(c.handles[v])
		var membership smt.Expr
		if lo, hi, ok := d.Bounds(); ok {
			membership = smt.And(smt.Ge(ref, smt.Int(lo)), smt.Le(ref, smt.Int(hi)))
		} else {
			eqs := make([]smt.Expr, len(d.values))
			for i, val := range d.values {
				if val.IsString() {
					eqs[i] = smt.Eq(ref, smt.Str(val.AsString()))
				} else {
					eqs[i] = smt.Eq(ref, smt.Int(val.AsInt()))
				}
			}
			membership = smt.Or(eqs...)
		}
		if err := c.session.Assert(membership); err != nil {
			return definitionError("translate", v, err)
		}
	}
	for i, cons := range c.constraints {
		sc := cons.(*SymbolicConstraint)
		if err := c.session.Assert(sc.Expr()); err != nil {
			return definitionError("translate", "", fmt.Errorf("constraint %d: %w", i, err))
		}
	}
	return nil
}
