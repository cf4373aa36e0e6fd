package smt

import (
	"fmt"
	"math"
	"sort"
)

// support over-approximates the values a handle may take. A support is the
// intersection of an optional explicit value set and optional integer bounds.
// The zero support is unconstrained.
type support struct {
	set          map[Value]struct{} // nil: no explicit set
	lo, hi       int64
	hasLo, hasHi bool
}

func setSupport(vals ...Value) support {
	s := support{set: make(map[Value]struct{}, len(vals))}
	for _, v := range vals {
		s.set[v] = struct{}{}
	}
	return s
}

func (s support) finite() bool { return s.set != nil || (s.hasLo && s.hasHi) }

func (s support) admits(v Value) bool {
	if s.set != nil {
		if _, ok := s.set[v]; !ok {
			return false
		}
	}
	if v.sort == SortInt {
		if s.hasLo && v.i < s.lo {
			return false
		}
		if s.hasHi && v.i > s.hi {
			return false
		}
	}
	return true
}

func (s support) intersect(o support) support {
	out := s
	if o.hasLo && (!out.hasLo || o.lo > out.lo) {
		out.lo, out.hasLo = o.lo, true
	}
	if o.hasHi && (!out.hasHi || o.hi < out.hi) {
		out.hi, out.hasHi = o.hi, true
	}
	switch {
	case s.set == nil:
		out.set = o.set
	case o.set != nil:
		out.set = make(map[Value]struct{})
		for v := range s.set {
			if _, ok := o.set[v]; ok {
				out.set[v] = struct{}{}
			}
		}
	}
	return out
}

// maxUnion caps the size of an enumerated disjunction.
const maxUnion = 1 << 20

// union of two finite supports; ok is false if either is not finite.
func (s support) union(o support) (support, bool) {
	if !s.finite() || !o.finite() {
		return support{}, false
	}
	a, err := s.values(maxUnion)
	if err != nil {
		return support{}, false
	}
	b, err := o.values(maxUnion)
	if err != nil {
		return support{}, false
	}
	return setSupport(append(a, b...)...), true
}

// values enumerates a finite support in ascending order. It fails with
// ErrTooLarge if more than limit values would be produced.
func (s support) values(limit int) ([]Value, error) {
	var out []Value
	if s.set != nil {
		for v := range s.set {
			if s.admits(v) {
				out = append(out, v)
			}
		}
		if len(out) > limit {
			return nil, fmt.Errorf("%w: %d values", ErrTooLarge, len(out))
		}
		sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
		return out, nil
	}
	if s.hi < s.lo {
		return nil, nil
	}
	if uint64(s.hi-s.lo) >= uint64(limit) {
		return nil, fmt.Errorf("%w: range [%d, %d]", ErrTooLarge, s.lo, s.hi)
	}
	out = make([]Value, 0, s.hi-s.lo+1)
	for i := s.lo; ; i++ {
		out = append(out, IntVal(i))
		if i == s.hi {
			break
		}
	}
	return out, nil
}

// inferSupport derives what a Bool term says about h alone. It only looks at
// conjunctions, disjunctions and comparisons between h and a constant; every
// other term leaves h unconstrained.
func inferSupport(e Expr, h Handle) support {
	switch e := e.(type) {
	case Nary:
		switch e.Op {
		case OpAnd:
			var out support
			for _, a := range e.Args {
				out = out.intersect(inferSupport(a, h))
			}
			return out
		case OpOr:
			if len(e.Args) == 0 {
				return setSupport()
			}
			out := inferSupport(e.Args[0], h)
			for _, a := range e.Args[1:] {
				var ok bool
				if out, ok = out.union(inferSupport(a, h)); !ok {
					return support{}
				}
			}
			return out
		}
	case Binary:
		if !e.Op.isComparison() {
			return support{}
		}
		op := e.Op
		ref, rok := e.X.(Ref)
		c, cok := e.Y.(Const)
		if !rok || !cok {
			// constant on the left: flip the comparison
			ref, rok = e.Y.(Ref)
			c, cok = e.X.(Const)
			op = flip(op)
		}
		if !rok || !cok || ref.H != h {
			return support{}
		}
		return atomSupport(op, c.Val)
	}
	return support{}
}

func flip(op Op) Op {
	switch op {
	case OpLt:
		return OpGt
	case OpLe:
		return OpGe
	case OpGt:
		return OpLt
	case OpGe:
		return OpLe
	}
	return op
}

func atomSupport(op Op, c Value) support {
	if op == OpEq {
		return setSupport(c)
	}
	if c.sort != SortInt {
		return support{}
	}
	switch op {
	case OpLt:
		if c.i == math.MinInt64 {
			return setSupport()
		}
		return support{hi: c.i - 1, hasHi: true}
	case OpLe:
		return support{hi: c.i, hasHi: true}
	case OpGt:
		if c.i == math.MaxInt64 {
			return setSupport()
		}
		return support{lo: c.i + 1, hasLo: true}
	case OpGe:
		return support{lo: c.i, hasLo: true}
	}
	return support{}
}
