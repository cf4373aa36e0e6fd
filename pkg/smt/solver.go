package smt

import (
	"fmt"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

// Config bounds the size of the propositional encoding.
type Config struct {
	// MaxDomain is the largest support a single handle may be grounded on.
	MaxDomain int
	// MaxTuples is the largest number of value combinations enumerated for
	// one assertion that spans several handles.
	MaxTuples int
}

// DefaultConfig returns limits suitable for interactive use.
func DefaultConfig() Config {
	return Config{MaxDomain: 1 << 16, MaxTuples: 1 << 20}
}

// Stats counts the work done by a Solver.
type Stats struct {
	Assertions int // conjuncts accepted by Assert
	Handles    int // handles grounded so far
	Literals   int // SAT variables allocated
	Clauses    int // clauses added to the SAT core
	Checks     int
}

// Solver decides conjunctions of Bool terms.
//
// Every handle is grounded the first time Check sees it: its support, the set
// of values it may take, is read off the assertions that mention that handle
// alone (equalities, bounds, and disjunctions of those). Each support value
// gets one SAT literal, with exactly one of them true. Assertions are then
// compiled to clauses, directly when every disjunct speaks about a single
// handle, otherwise by ruling out each violating combination of values.
//
// Assertions can be added between checks; earlier clauses are kept.
type Solver struct {
	cfg      Config
	g        *gini.Gini
	supports map[Handle]support
	grounded map[Handle]*grounding
	order    []Handle
	pending  []Expr
	unsat    bool
	stats    Stats
}

type grounding struct {
	vals []Value
	lits []z.Lit
}

// NewSolver creates an empty solver.
func NewSolver(cfg Config) *Solver {
	if cfg.MaxDomain <= 0 || cfg.MaxTuples <= 0 {
		def := DefaultConfig()
		if cfg.MaxDomain <= 0 {
			cfg.MaxDomain = def.MaxDomain
		}
		if cfg.MaxTuples <= 0 {
			cfg.MaxTuples = def.MaxTuples
		}
	}
	return &Solver{
		cfg:      cfg,
		g:        gini.New(),
		supports: make(map[Handle]support),
		grounded: make(map[Handle]*grounding),
	}
}

// Stats returns a snapshot of the solver counters.
func (s *Solver) Stats() Stats { return s.stats }

// Assert adds a Bool term to the problem.
func (s *Solver) Assert(e Expr) error {
	if err := TypeCheck(e); err != nil {
		return err
	}
	if e.Sort() != SortBool {
		return fmt.Errorf("%w: cannot assert %s term %s", ErrSort, e.Sort(), e)
	}
	for _, c := range conjuncts(e, nil) {
		if hs := Vars(c); len(hs) == 1 {
			s.supports[hs[0]] = s.supports[hs[0]].intersect(inferSupport(c, hs[0]))
		}
		s.pending = append(s.pending, c)
		s.stats.Assertions++
	}
	return nil
}

// conjuncts flattens nested And and splits Distinct into pairwise
// disequalities.
func conjuncts(e Expr, out []Expr) []Expr {
	if n, ok := e.(Nary); ok {
		switch n.Op {
		case OpAnd:
			for _, a := range n.Args {
				out = conjuncts(a, out)
			}
			return out
		case OpDistinct:
			for i := range n.Args {
				for j := i + 1; j < len(n.Args); j++ {
					out = append(out, Ne(n.Args[i], n.Args[j]))
				}
			}
			return out
		}
	}
	return append(out, e)
}

// Check decides the assertions made so far. It returns a model, ErrUnsat, or
// an error explaining why the problem could not be grounded.
func (s *Solver) Check() (*Model, error) {
	s.stats.Checks++
	if err := s.flush(); err != nil {
		return nil, err
	}
	if s.unsat {
		return nil, ErrUnsat
	}
	switch s.g.Solve() {
	case 1:
		return s.model(), nil
	case -1:
		return nil, ErrUnsat
	}
	return nil, ErrUnknown
}

func (s *Solver) flush() error {
	for _, c := range s.pending {
		for _, h := range Vars(c) {
			if _, ok := s.grounded[h]; ok {
				continue
			}
			if err := s.ground(h); err != nil {
				return err
			}
		}
	}
	for i, c := range s.pending {
		if err := s.encode(c); err != nil {
			s.pending = s.pending[i:]
			return err
		}
	}
	s.pending = s.pending[:0]
	return nil
}

func (s *Solver) ground(h Handle) error {
	sup := s.supports[h]
	var vals []Value
	if h.Sort == SortBool {
		for _, b := range []bool{false, true} {
			if sup.admits(BoolVal(b)) {
				vals = append(vals, BoolVal(b))
			}
		}
	} else {
		if !sup.finite() {
			return fmt.Errorf("%w: %s", ErrUnbounded, h.Name)
		}
		var err error
		if vals, err = sup.values(s.cfg.MaxDomain); err != nil {
			return fmt.Errorf("%s: %w", h.Name, err)
		}
	}

	gr := &grounding{vals: vals, lits: make([]z.Lit, len(vals))}
	for i := range vals {
		gr.lits[i] = s.g.Lit()
	}
	s.stats.Literals += len(vals)
	s.grounded[h] = gr
	s.order = append(s.order, h)
	s.stats.Handles++

	if len(vals) == 0 {
		s.unsat = true
		return nil
	}
	s.clause(gr.lits...)
	s.atMostOne(gr.lits)
	return nil
}

func (s *Solver) encode(c Expr) error {
	hs := Vars(c)
	if len(hs) == 0 {
		if !holds(c, nil) {
			s.unsat = true
		}
		return nil
	}
	if lits, trivial, ok := s.directClause(c); ok {
		if !trivial {
			s.clause(lits...)
		}
		return nil
	}
	return s.nogoods(c, hs)
}

// directClause compiles a disjunction whose disjuncts each mention at most one
// handle into a single clause over value literals. trivial reports that some
// disjunct is constantly true.
func (s *Solver) directClause(c Expr) (lits []z.Lit, trivial, ok bool) {
	for _, d := range disjuncts(c, nil) {
		hs := Vars(d)
		switch len(hs) {
		case 0:
			if holds(d, nil) {
				return nil, true, true
			}
		case 1:
			h := hs[0]
			gr := s.grounded[h]
			for i, v := range gr.vals {
				if holds(d, Env{h: v}) {
					lits = append(lits, gr.lits[i])
				}
			}
		default:
			return nil, false, false
		}
	}
	return lits, false, true
}

func disjuncts(e Expr, out []Expr) []Expr {
	if n, ok := e.(Nary); ok && n.Op == OpOr {
		for _, a := range n.Args {
			out = disjuncts(a, out)
		}
		return out
	}
	return append(out, e)
}

// nogoods forbids every combination of values of hs that falsifies c.
func (s *Solver) nogoods(c Expr, hs []Handle) error {
	gs := make([]*grounding, len(hs))
	total := 1
	for i, h := range hs {
		gs[i] = s.grounded[h]
		n := len(gs[i].vals)
		if n == 0 {
			return nil
		}
		if total > s.cfg.MaxTuples/n {
			return fmt.Errorf("%w: %s spans more than %d combinations", ErrTooLarge, c, s.cfg.MaxTuples)
		}
		total *= n
	}

	idx := make([]int, len(hs))
	env := make(Env, len(hs))
	clause := make([]z.Lit, len(hs))
	for {
		for i, h := range hs {
			env[h] = gs[i].vals[idx[i]]
		}
		if !holds(c, env) {
			for i := range hs {
				clause[i] = gs[i].lits[idx[i]].Not()
			}
			s.clause(clause...)
		}

		k := len(idx) - 1
		for ; k >= 0; k-- {
			idx[k]++
			if idx[k] < len(gs[k].vals) {
				break
			}
			idx[k] = 0
		}
		if k < 0 {
			return nil
		}
	}
}

func (s *Solver) clause(lits ...z.Lit) {
	if len(lits) == 0 {
		s.unsat = true
		return
	}
	for _, m := range lits {
		s.g.Add(m)
	}
	s.g.Add(z.LitNull)
	s.stats.Clauses++
}

// atMostOne uses pairwise exclusion for short lists and the sequential
// counter encoding otherwise.
func (s *Solver) atMostOne(xs []z.Lit) {
	n := len(xs)
	if n < 2 {
		return
	}
	if n <= 4 {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				s.clause(xs[i].Not(), xs[j].Not())
			}
		}
		return
	}
	aux := make([]z.Lit, n-1)
	for i := range aux {
		aux[i] = s.g.Lit()
	}
	s.stats.Literals += len(aux)
	s.clause(xs[0].Not(), aux[0])
	for i := 1; i < n-1; i++ {
		s.clause(xs[i].Not(), aux[i])
		s.clause(aux[i-1].Not(), aux[i])
		s.clause(xs[i].Not(), aux[i-1].Not())
	}
	s.clause(xs[n-1].Not(), aux[n-2].Not())
}

func (s *Solver) model() *Model {
	m := &Model{values: make(map[Handle]Value, len(s.order))}
	for _, h := range s.order {
		gr := s.grounded[h]
		for i, l := range gr.lits {
			if s.g.Value(l) {
				m.values[h] = gr.vals[i]
				break
			}
		}
	}
	m.handles = sortedHandles(m.values)
	return m
}
