// Solver performs backtracking search over a Model and hands out solutions
// lazily.
//
// # State
//
// The model is never modified during search. Domain changes live in a
// persistent chain of state nodes, each recording one variable's new domain
// and pointing at its parent:
//
//	state3 -> x={2}     (parent: state2)
//	state2 -> y={1,3}   (parent: state1)
//	state1 -> z={1}     (parent: nil)
//
// Reading a domain walks the chain to the most recent entry and falls back to
// the model's initial domain. Branching is O(1) and backtracking just drops
// nodes.
//
// # Enumeration
//
// The search uses an explicit stack of frames instead of recursion. A Cursor
// keeps that stack between calls, so each Next resumes exactly where the
// previous solution was found. A cursor only moves forward; restarting means
// asking the Solver for a new cursor.

package fd

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"time"
)

// Solution maps variable names to values.
type Solution[V comparable] map[string]V

// Solver searches a Model. Solver instances are not safe for concurrent use.
type Solver[V comparable] struct {
	model  *Model[V]
	config Config
	rng    *rand.Rand
	stats  Stats
}

// state is one node of the copy-on-write domain chain.
type state struct {
	parent *state
	varID  int
	domain Domain
	depth  int
}

// NewSolver creates a solver for a fully constructed model.
func NewSolver[V comparable](model *Model[V], config Config) *Solver[V] {
	return &Solver[V]{
		model:  model,
		config: config,
		rng:    rand.New(rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15)),
	}
}

// Stats returns a copy of the statistics gathered so far.
func (s *Solver[V]) Stats() Stats { return s.stats }

// Model returns the model being solved.
func (s *Solver[V]) Model() *Model[V] { return s.model }

// Solutions validates the model and returns a cursor positioned before the
// first solution.
func (s *Solver[V]) Solutions() (*Cursor[V], error) {
	if err := s.model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}
	return &Cursor[V]{solver: s}, nil
}

// domainOf returns the current domain of a variable in st.
func (s *Solver[V]) domainOf(st *state, varID int) Domain {
	for cur := st; cur != nil; cur = cur.parent {
		if cur.varID == varID {
			return cur.domain
		}
	}
	return s.model.variables[varID].domain
}

// setDomain returns a child state with the variable's domain replaced.
// If nothing changes the original state is returned with false.
func (s *Solver[V]) setDomain(st *state, varID int, d Domain) (*state, bool) {
	if s.domainOf(st, varID).Equal(d) {
		return st, false
	}
	depth := 1
	if st != nil {
		depth = st.depth + 1
	}
	return &state{parent: st, varID: varID, domain: d, depth: depth}, true
}

// propagate runs every constraint until no domain changes.
func (s *Solver[V]) propagate(st *state) (*state, error) {
	s.stats.PropagationCount++
	constraints := s.model.constraints
	if len(constraints) == 0 {
		return st, nil
	}

	const maxIterations = 1000
	current := st
	for iteration := 0; iteration < maxIterations; iteration++ {
		changed := false
		for _, c := range constraints {
			next, err := c.Propagate(s, current)
			if err != nil {
				return nil, err
			}
			if next != current {
				changed = true
				current = next
			}
		}
		if !changed {
			return current, nil
		}
	}
	return nil, fmt.Errorf("propagation failed to reach fixed-point after %d iterations", maxIterations)
}

func (s *Solver[V]) isComplete(st *state) bool {
	for _, v := range s.model.variables {
		if !s.domainOf(st, v.id).IsSingleton() {
			return false
		}
	}
	return true
}

func (s *Solver[V]) extractSolution(st *state) Solution[V] {
	sol := make(Solution[V], len(s.model.variables))
	for _, v := range s.model.variables {
		sol[v.name] = v.values[s.domainOf(st, v.id).SingletonValue()-1]
	}
	return sol
}

// selectVariable picks the next branching variable and its ordered values.
// Returns (-1, nil) when every variable is bound.
func (s *Solver[V]) selectVariable(st *state) (int, []int) {
	best := -1
	bestScore := 0.0
	for _, v := range s.model.variables {
		d := s.domainOf(st, v.id)
		if d.IsSingleton() {
			continue
		}
		score := s.score(v, d)
		if best == -1 || score < bestScore {
			best = v.id
			bestScore = score
		}
	}
	if best == -1 {
		return -1, nil
	}

	values := make([]int, 0)
	s.domainOf(st, best).IterateValues(func(idx int) { values = append(values, idx) })
	return best, s.orderValues(values)
}

// score computes the branching score of a variable. Lower is better.
func (s *Solver[V]) score(v *Variable[V], d Domain) float64 {
	switch s.config.VariableHeuristic {
	case HeuristicDom:
		return float64(d.Count())
	case HeuristicDeg:
		return -float64(s.degree(v))
	case HeuristicLex:
		return float64(v.id)
	default:
		return float64(d.Count()) / float64(1+s.degree(v))
	}
}

func (s *Solver[V]) degree(v *Variable[V]) int {
	degree := 0
	for _, c := range s.model.constraints {
		if slices.Contains(c.distinct, v) {
			degree++
		}
	}
	return degree
}

func (s *Solver[V]) orderValues(values []int) []int {
	switch s.config.ValueOrder {
	case ValueOrderDesc:
		slices.Reverse(values)
	case ValueOrderRandom:
		s.rng.Shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })
	}
	return values
}

// Cursor is a forward-only stream over all solutions of a model.
type Cursor[V comparable] struct {
	solver  *Solver[V]
	stack   []*frame
	started bool
	done    bool
	err     error
}

type frame struct {
	state  *state
	varID  int
	values []int
	next   int
}

// Next returns the next solution, or false once the search space is
// exhausted or a predicate failed (see Err).
func (c *Cursor[V]) Next() (Solution[V], bool) {
	if c.done {
		return nil, false
	}
	s := c.solver
	start := time.Now()
	defer func() { s.stats.SearchTime += time.Since(start) }()

	if !c.started {
		c.started = true
		root, err := s.propagate(nil)
		if err != nil {
			return c.fail(err)
		}
		if s.isComplete(root) {
			c.done = true
			s.stats.SolutionsFound++
			return s.extractSolution(root), true
		}
		varID, values := s.selectVariable(root)
		c.stack = append(c.stack, &frame{state: root, varID: varID, values: values})
	}

	for len(c.stack) > 0 {
		f := c.stack[len(c.stack)-1]
		if f.next >= len(f.values) {
			c.stack = c.stack[:len(c.stack)-1]
			s.stats.Backtracks++
			continue
		}

		s.stats.NodesExplored++
		s.stats.recordDepth(len(c.stack))

		idx := f.values[f.next]
		f.next++

		dom := s.domainOf(f.state, f.varID)
		assigned, _ := s.setDomain(f.state, f.varID, NewBitSetDomainFromValues(dom.MaxValue(), []int{idx}))
		propagated, err := s.propagate(assigned)
		if err != nil {
			if err == ErrInconsistent {
				continue
			}
			return c.fail(err)
		}

		if s.isComplete(propagated) {
			s.stats.SolutionsFound++
			return s.extractSolution(propagated), true
		}

		nextVar, nextValues := s.selectVariable(propagated)
		if nextVar == -1 {
			continue
		}
		c.stack = append(c.stack, &frame{state: propagated, varID: nextVar, values: nextValues})
	}

	c.done = true
	return nil, false
}

// fail ends the enumeration. Root-level inconsistency is a normal "no
// solutions" outcome; anything else is kept for Err.
func (c *Cursor[V]) fail(err error) (Solution[V], bool) {
	c.done = true
	c.stack = nil
	if err != ErrInconsistent {
		c.err = err
	}
	return nil, false
}

// Err returns the error that stopped the enumeration early, if any.
func (c *Cursor[V]) Err() error { return c.err }

// Done reports whether the cursor has nothing more to return.
func (c *Cursor[V]) Done() bool { return c.done }
