package csp

import (
	"github.com/gitrdm/gokancsp/pkg/fd"
	"github.com/gitrdm/gokancsp/pkg/smt"
)

// FiniteDomainCapability creates finite-domain problems.
type FiniteDomainCapability interface {
	NewProblem() FiniteDomainProblem
}

// FiniteDomainProblem collects variables and predicates and enumerates every
// satisfying assignment.
type FiniteDomainProblem interface {
	// AddVariable registers a variable. Registering a name twice keeps the
	// first registration.
	AddVariable(name string, values []Value) error
	AddConstraint(rel Relation, vars []string) error
	// Solutions starts a fresh enumeration.
	Solutions() (SolutionStream, error)
}

// SolutionStream is a forward-only sequence of assignments.
type SolutionStream interface {
	// Next returns the next assignment, or false when the stream has ended.
	Next() (Model, bool)
	// Err reports why the stream ended early, if it did.
	Err() error
}

// SymbolicCapability creates symbolic solving sessions.
type SymbolicCapability interface {
	NewSession() SymbolicSession
}

// SymbolicSession accepts assertions incrementally. Check returns a model or
// an error wrapping smt.ErrUnsat; assertions may be added after a check.
type SymbolicSession interface {
	Assert(e smt.Expr) error
	Check() (*smt.Model, error)
}

// Capabilities are the solving engines available to a CSP. A CSP only needs
// the one matching its constraint kind.
type Capabilities struct {
	FiniteDomain FiniteDomainCapability
	Symbolic     SymbolicCapability
}

// DefaultCapabilities returns the bundled engines with default settings.
func DefaultCapabilities() Capabilities {
	return NewCapabilities(fd.DefaultConfig(), smt.DefaultConfig())
}

// NewCapabilities returns the bundled engines with the given settings.
func NewCapabilities(fdCfg fd.Config, smtCfg smt.Config) Capabilities {
	return Capabilities{
		FiniteDomain: fdCapability{cfg: fdCfg},
		Symbolic:     smtCapability{cfg: smtCfg},
	}
}

func (c Capabilities) forKind(k Kind) bool {
	if k == KindSymbolic {
		return c.Symbolic != nil
	}
	return c.FiniteDomain != nil
}

type fdCapability struct{ cfg fd.Config }

func (c fdCapability) NewProblem() FiniteDomainProblem {
	return &fdProblem{cfg: c.cfg, model: fd.NewModel[Value]()}
}

type fdProblem struct {
	cfg   fd.Config
	model *fd.Model[Value]
}

func (p *fdProblem) AddVariable(name string, values []Value) error {
	_, err := p.model.AddVariable(name, values)
	return err
}

func (p *fdProblem) AddConstraint(rel Relation, vars []string) error {
	return p.model.AddConstraint(fd.Predicate[Value](rel), vars)
}

func (p *fdProblem) Solutions() (SolutionStream, error) {
	cur, err := fd.NewSolver(p.model, p.cfg).Solutions()
	if err != nil {
		return nil, err
	}
	return fdStream{cur}, nil
}

type fdStream struct{ cur *fd.Cursor[Value] }

func (s fdStream) Next() (Model, bool) {
	sol, ok := s.cur.Next()
	if !ok {
		return nil, false
	}
	return Model(sol), true
}

func (s fdStream) Err() error { return s.cur.Err() }

type smtCapability struct{ cfg smt.Config }

func (c smtCapability) NewSession() SymbolicSession { return smt.NewSolver(c.cfg) }
