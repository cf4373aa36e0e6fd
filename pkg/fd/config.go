package fd

import (
	"fmt"
	"strings"
)

// VariableHeuristic selects which unbound variable the search branches on.
type VariableHeuristic int

const (
	// HeuristicDomDeg picks the smallest domain size divided by degree.
	HeuristicDomDeg VariableHeuristic = iota
	// HeuristicDom picks the smallest domain first.
	HeuristicDom
	// HeuristicDeg picks the variable involved in the most constraints.
	HeuristicDeg
	// HeuristicLex picks variables in registration order.
	HeuristicLex
)

func (h VariableHeuristic) String() string {
	switch h {
	case HeuristicDomDeg:
		return "domdeg"
	case HeuristicDom:
		return "dom"
	case HeuristicDeg:
		return "deg"
	case HeuristicLex:
		return "lex"
	}
	return fmt.Sprintf("VariableHeuristic(%d)", int(h))
}

// ValueOrder selects the order in which a branching variable's values are tried.
type ValueOrder int

const (
	ValueOrderAsc ValueOrder = iota
	ValueOrderDesc
	// ValueOrderRandom shuffles values with a generator seeded from Config.Seed,
	// so a given seed always yields the same enumeration order.
	ValueOrderRandom
)

func (o ValueOrder) String() string {
	switch o {
	case ValueOrderAsc:
		return "asc"
	case ValueOrderDesc:
		return "desc"
	case ValueOrderRandom:
		return "random"
	}
	return fmt.Sprintf("ValueOrder(%d)", int(o))
}

// Config holds search parameters.
type Config struct {
	VariableHeuristic VariableHeuristic
	ValueOrder        ValueOrder
	Seed              uint64
}

// DefaultConfig returns dom/deg branching with ascending values.
func DefaultConfig() Config {
	return Config{VariableHeuristic: HeuristicDomDeg, ValueOrder: ValueOrderAsc}
}

// ParseVariableHeuristic maps a heuristic name ("dom", "domdeg", "deg", "lex").
func ParseVariableHeuristic(name string) (VariableHeuristic, error) {
	for _, h := range []VariableHeuristic{HeuristicDomDeg, HeuristicDom, HeuristicDeg, HeuristicLex} {
		if strings.EqualFold(h.String(), name) {
			return h, nil
		}
	}
	return 0, fmt.Errorf("%w: variable heuristic %q", ErrInvalidArgument, name)
}

// ParseValueOrder maps a value order name ("asc", "desc", "random").
func ParseValueOrder(name string) (ValueOrder, error) {
	for _, o := range []ValueOrder{ValueOrderAsc, ValueOrderDesc, ValueOrderRandom} {
		if strings.EqualFold(o.String(), name) {
			return o, nil
		}
	}
	return 0, fmt.Errorf("%w: value order %q", ErrInvalidArgument, name)
}
