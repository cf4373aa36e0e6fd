package fd

import (
	"fmt"
)

// Predicate decides whether a tuple of values satisfies a relation. The slice
// holds one value per constraint variable, in declaration order. It is only
// valid during the call: one propagation reuses it for every candidate value,
// so a predicate that keeps the tuple must copy it. A non-nil error means the
// predicate could not be evaluated at all; it aborts the enumeration instead
// of pruning.
type Predicate[V comparable] func(args []V) (bool, error)

// PredicateConstraint applies an arbitrary predicate to a variable tuple.
//
// Propagation is forward checking:
//   - all variables bound: evaluate the predicate, fail if false
//   - exactly one distinct variable unbound: keep only the values of that
//     variable for which the predicate holds
//   - otherwise: nothing to do yet
type PredicateConstraint[V comparable] struct {
	index int
	pred  Predicate[V]
	vars  []*Variable[V]
	// distinct holds each variable once, vars may repeat a variable.
	distinct []*Variable[V]
}

func newPredicateConstraint[V comparable](index int, pred Predicate[V], vars []*Variable[V]) *PredicateConstraint[V] {
	seen := make(map[int]bool, len(vars))
	distinct := make([]*Variable[V], 0, len(vars))
	for _, v := range vars {
		if !seen[v.id] {
			seen[v.id] = true
			distinct = append(distinct, v)
		}
	}
	return &PredicateConstraint[V]{index: index, pred: pred, vars: vars, distinct: distinct}
}

// Variables returns the constraint's variable tuple.
func (c *PredicateConstraint[V]) Variables() []*Variable[V] { return c.vars }

// Type returns the constraint identifier.
func (c *PredicateConstraint[V]) Type() string { return "Predicate" }

func (c *PredicateConstraint[V]) String() string {
	names := make([]string, len(c.vars))
	for i, v := range c.vars {
		names[i] = v.name
	}
	return fmt.Sprintf("Predicate#%d%v", c.index, names)
}

func (c *PredicateConstraint[V]) names() []string {
	names := make([]string, len(c.vars))
	for i, v := range c.vars {
		names[i] = v.name
	}
	return names
}

// Propagate narrows domains in st. It returns the (possibly new) state, or
// ErrInconsistent on a dead end, or a *PredicateError.
func (c *PredicateConstraint[V]) Propagate(s *Solver[V], st *state) (*state, error) {
	var unbound *Variable[V]
	for _, v := range c.distinct {
		d := s.domainOf(st, v.id)
		if d.Count() == 0 {
			return nil, ErrInconsistent
		}
		if d.IsSingleton() {
			continue
		}
		if unbound != nil {
			return st, nil
		}
		unbound = v
	}

	args := make([]V, len(c.vars))
	for i, v := range c.vars {
		if v != unbound {
			args[i] = v.values[s.domainOf(st, v.id).SingletonValue()-1]
		}
	}

	if unbound == nil {
		ok, err := c.eval(args)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInconsistent
		}
		return st, nil
	}

	dom := s.domainOf(st, unbound.id)
	var supported []int
	var evalErr error
	dom.IterateValues(func(idx int) {
		if evalErr != nil {
			return
		}
		val := unbound.values[idx-1]
		for i, v := range c.vars {
			if v == unbound {
				args[i] = val
			}
		}
		ok, err := c.eval(args)
		if err != nil {
			evalErr = err
			return
		}
		if ok {
			supported = append(supported, idx)
		}
	})
	if evalErr != nil {
		return nil, evalErr
	}
	if len(supported) == 0 {
		return nil, ErrInconsistent
	}
	if len(supported) == dom.Count() {
		return st, nil
	}
	next, _ := s.setDomain(st, unbound.id, NewBitSetDomainFromValues(dom.MaxValue(), supported))
	return next, nil
}

func (c *PredicateConstraint[V]) eval(args []V) (bool, error) {
	ok, err := c.pred(args)
	if err != nil {
		return false, &PredicateError{Constraint: c.index, Vars: c.names(), Err: err}
	}
	return ok, nil
}
