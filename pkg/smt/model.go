package smt

import (
	"strings"
)

// Model is a satisfying assignment returned by Check.
type Model struct {
	values  map[Handle]Value
	handles []Handle
}

// Value returns the value assigned to h.
func (m *Model) Value(h Handle) (Value, bool) {
	v, ok := m.values[h]
	return v, ok
}

// Handles returns the assigned handles sorted by name.
func (m *Model) Handles() []Handle { return m.handles }

// Len returns the number of assigned handles.
func (m *Model) Len() int { return len(m.handles) }

// Exclude returns a term that holds exactly when at least one handle takes a
// different value than in m. Asserting it and checking again yields the next
// distinct model.
func (m *Model) Exclude() Expr {
	diffs := make([]Expr, len(m.handles))
	for i, h := range m.handles {
		diffs[i] = Ne(V(h), C(m.values[h]))
	}
	return Or(diffs...)
}

func (m *Model) String() string {
	parts := make([]string, len(m.handles))
	for i, h := range m.handles {
		parts[i] = h.Name + "=" + m.values[h].String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func sortedHandles(values map[Handle]Value) []Handle {
	out := make([]Handle, 0, len(values))
	for h := range values {
		out = append(out, h)
	}
	sortHandles(out)
	return out
}
