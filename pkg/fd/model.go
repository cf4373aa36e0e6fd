package fd

import (
	"fmt"
)

// Model is a finite-domain problem under construction: named variables, each
// with a table of candidate values, and predicate constraints over them.
//
// Values are opaque to the engine. Internally a variable's domain holds
// indices into its value table (index i+1 is values[i]), which keeps the
// propagation and search code independent of V.
//
// Models are built sequentially and are read-only once a Solver exists.
type Model[V comparable] struct {
	variables   []*Variable[V]
	byName      map[string]*Variable[V]
	constraints []*PredicateConstraint[V]
}

// Variable is a named finite-domain variable.
type Variable[V comparable] struct {
	id     int
	name   string
	values []V
	domain *BitSetDomain
}

// ID returns the registration index of the variable.
func (v *Variable[V]) ID() int { return v.id }

// Name returns the variable name.
func (v *Variable[V]) Name() string { return v.name }

// Values returns the variable's value table. It must not be modified.
func (v *Variable[V]) Values() []V { return v.values }

// Domain returns the initial domain.
func (v *Variable[V]) Domain() Domain { return v.domain }

func (v *Variable[V]) String() string {
	return fmt.Sprintf("%s∈%s", v.name, v.domain.String())
}

// NewModel creates an empty model.
func NewModel[V comparable]() *Model[V] {
	return &Model[V]{byName: make(map[string]*Variable[V])}
}

// AddVariable registers a variable with the given candidate values.
// Re-registering an existing name keeps the first registration and returns it,
// so callers can add the variables of overlapping constraints without
// de-duplicating first. Duplicate values are collapsed.
func (m *Model[V]) AddVariable(name string, values []V) (*Variable[V], error) {
	if v, ok := m.byName[name]; ok {
		return v, nil
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDomain, name)
	}

	seen := make(map[V]struct{}, len(values))
	table := make([]V, 0, len(values))
	for _, val := range values {
		if _, dup := seen[val]; dup {
			continue
		}
		seen[val] = struct{}{}
		table = append(table, val)
	}

	v := &Variable[V]{
		id:     len(m.variables),
		name:   name,
		values: table,
		domain: NewBitSetDomain(len(table)),
	}
	m.variables = append(m.variables, v)
	m.byName[name] = v
	return v, nil
}

// Variable looks a variable up by name.
func (m *Model[V]) Variable(name string) (*Variable[V], bool) {
	v, ok := m.byName[name]
	return v, ok
}

// Variables returns all variables in registration order.
func (m *Model[V]) Variables() []*Variable[V] { return m.variables }

// VariableCount returns the number of registered variables.
func (m *Model[V]) VariableCount() int { return len(m.variables) }

// AddConstraint posts pred over the named variables. The predicate receives
// one value per name, in the given order; names may repeat.
func (m *Model[V]) AddConstraint(pred Predicate[V], names []string) error {
	if pred == nil || len(names) == 0 {
		return fmt.Errorf("%w: constraint needs a predicate and at least one variable", ErrInvalidArgument)
	}
	vars := make([]*Variable[V], len(names))
	for i, name := range names {
		v, ok := m.byName[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownVariable, name)
		}
		vars[i] = v
	}
	m.constraints = append(m.constraints, newPredicateConstraint(len(m.constraints), pred, vars))
	return nil
}

// Constraints returns all posted constraints.
func (m *Model[V]) Constraints() []*PredicateConstraint[V] { return m.constraints }

// ConstraintCount returns the number of posted constraints.
func (m *Model[V]) ConstraintCount() int { return len(m.constraints) }

// Validate checks the model is ready for solving.
func (m *Model[V]) Validate() error {
	for _, v := range m.variables {
		if v.domain.Count() == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyDomain, v.name)
		}
	}
	return nil
}

// String returns a short summary.
func (m *Model[V]) String() string {
	return fmt.Sprintf("Model{variables: %d, constraints: %d}", len(m.variables), len(m.constraints))
}
