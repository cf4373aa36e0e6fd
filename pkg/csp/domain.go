package csp

import (
	"fmt"
	"math"
	"strings"
)

// Domain is the set of values a variable may take: either an enumerated set
// or an inclusive integer range. Domains are immutable.
type Domain struct {
	values  []Value
	isRange bool
	lo, hi  int64
}

// Range returns the inclusive integer range [lo, hi]. A range with lo > hi is
// empty.
func Range(lo, hi int64) Domain { return Domain{isRange: true, lo: lo, hi: hi} }

// Set returns an enumerated domain. Duplicates are dropped, keeping the
// first occurrence.
func Set(values ...Value) Domain {
	seen := make(map[Value]struct{}, len(values))
	out := make([]Value, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return Domain{values: out}
}

// Ints returns an enumerated domain of integers.
func Ints(values ...int64) Domain {
	vs := make([]Value, len(values))
	for i, v := range values {
		vs[i] = Int(v)
	}
	return Set(vs...)
}

// Strings returns an enumerated domain of strings.
func Strings(values ...string) Domain {
	vs := make([]Value, len(values))
	for i, v := range values {
		vs[i] = Str(v)
	}
	return Set(vs...)
}

// IsRange reports whether the domain was given as a range.
func (d Domain) IsRange() bool { return d.isRange }

// Bounds returns the range bounds; ok is false for enumerated domains.
func (d Domain) Bounds() (lo, hi int64, ok bool) { return d.lo, d.hi, d.isRange }

// Len returns the number of values. A range with more values than an int
// can hold reports math.MaxInt.
func (d Domain) Len() int {
	if d.isRange {
		if d.hi < d.lo {
			return 0
		}
		// The unsigned difference is exact for any hi >= lo.
		n := uint64(d.hi) - uint64(d.lo)
		if n >= math.MaxInt {
			return math.MaxInt
		}
		return int(n) + 1
	}
	return len(d.values)
}

// IsEmpty reports whether the domain has no values.
func (d Domain) IsEmpty() bool {
	if d.isRange {
		return d.hi < d.lo
	}
	return len(d.values) == 0
}

// Contains reports whether v belongs to the domain.
func (d Domain) Contains(v Value) bool {
	if d.isRange {
		return v.IsInt() && v.i >= d.lo && v.i <= d.hi
	}
	for _, x := range d.values {
		if x == v {
			return true
		}
	}
	return false
}

// Values lists the domain, expanding ranges in ascending order. Callers
// bound Len before expanding a range.
func (d Domain) Values() []Value {
	if !d.isRange {
		out := make([]Value, len(d.values))
		copy(out, d.values)
		return out
	}
	out := make([]Value, 0, min(d.Len(), maxExpandedRange))
	for i := d.lo; i <= d.hi; i++ {
		out = append(out, Int(i))
		if i == d.hi {
			break
		}
	}
	return out
}

func (d Domain) String() string {
	if d.isRange {
		return fmt.Sprintf("(%d, %d)", d.lo, d.hi)
	}
	parts := make([]string, len(d.values))
	for i, v := range d.values {
		parts[i] = v.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
