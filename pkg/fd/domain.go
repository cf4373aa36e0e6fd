// Package fd provides a finite-domain constraint engine.
// This file defines the Domain abstraction over 1-based value indices.
package fd

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Domain represents the finite set of value indices a variable can still take.
// Indices are 1-based and refer to positions in the owning variable's value
// table, so a domain never stores user values directly.
//
// All implementations are immutable: operations return new domains rather
// than modifying the receiver. Search states share domains freely because of
// this.
type Domain interface {
	// Count returns the number of indices in the domain.
	// An empty domain (Count() == 0) represents an inconsistent state.
	Count() int

	// Has reports whether the domain contains the index.
	Has(index int) bool

	// IsSingleton reports whether exactly one index remains.
	IsSingleton() bool

	// SingletonValue returns the remaining index of a singleton domain.
	// Behavior is undefined if the domain is not a singleton.
	SingletonValue() int

	// IterateValues calls f for each index in ascending order.
	IterateValues(f func(index int))

	// Intersect returns the indices present in both domains.
	Intersect(other Domain) Domain

	// Equal reports whether both domains hold exactly the same indices.
	Equal(other Domain) bool

	// MaxValue returns the largest index this domain can hold.
	MaxValue() int

	// String returns a human-readable representation.
	String() string
}

// BitSetDomain is a Domain backed by a bitset: bit i represents index i+1.
// Memory usage is one bit per possible index.
type BitSetDomain struct {
	maxValue int
	bits     *bitset.BitSet
}

// NewBitSetDomain creates a domain containing every index from 1 to maxValue.
func NewBitSetDomain(maxValue int) *BitSetDomain {
	if maxValue <= 0 {
		return &BitSetDomain{bits: bitset.New(0)}
	}
	b := bitset.New(uint(maxValue))
	for i := 0; i < maxValue; i++ {
		b.Set(uint(i))
	}
	return &BitSetDomain{maxValue: maxValue, bits: b}
}

// NewBitSetDomainFromValues creates a domain holding only the given indices.
// Indices outside [1, maxValue] are ignored.
func NewBitSetDomainFromValues(maxValue int, indices []int) *BitSetDomain {
	if maxValue <= 0 {
		return &BitSetDomain{bits: bitset.New(0)}
	}
	b := bitset.New(uint(maxValue))
	for _, v := range indices {
		if v >= 1 && v <= maxValue {
			b.Set(uint(v - 1))
		}
	}
	return &BitSetDomain{maxValue: maxValue, bits: b}
}

// Count returns the number of indices in the domain.
func (d *BitSetDomain) Count() int {
	return int(d.bits.Count())
}

// Has reports whether the index is in the domain. O(1).
func (d *BitSetDomain) Has(index int) bool {
	if index < 1 || index > d.maxValue {
		return false
	}
	return d.bits.Test(uint(index - 1))
}

// IsSingleton reports whether exactly one index remains.
func (d *BitSetDomain) IsSingleton() bool {
	return d.Count() == 1
}

// SingletonValue returns the lowest index in the domain.
// Panics if the domain is empty.
func (d *BitSetDomain) SingletonValue() int {
	i, ok := d.bits.NextSet(0)
	if !ok {
		panic("SingletonValue called on empty domain")
	}
	return int(i) + 1
}

// IterateValues calls f for each index in ascending order.
func (d *BitSetDomain) IterateValues(f func(index int)) {
	for i, ok := d.bits.NextSet(0); ok; i, ok = d.bits.NextSet(i + 1) {
		f(int(i) + 1)
	}
}

// Intersect returns a new domain containing indices in both domains.
// Domains of different sizes never intersect.
func (d *BitSetDomain) Intersect(other Domain) Domain {
	o, ok := other.(*BitSetDomain)
	if !ok || d.maxValue != o.maxValue {
		return &BitSetDomain{maxValue: d.maxValue, bits: bitset.New(uint(d.maxValue))}
	}
	return &BitSetDomain{maxValue: d.maxValue, bits: d.bits.Intersection(o.bits)}
}

// Equal reports whether other holds exactly the same indices.
func (d *BitSetDomain) Equal(other Domain) bool {
	o, ok := other.(*BitSetDomain)
	if !ok || d.maxValue != o.maxValue {
		return false
	}
	return d.bits.Equal(o.bits)
}

// MaxValue returns the largest index the domain can hold.
func (d *BitSetDomain) MaxValue() int {
	return d.maxValue
}

// ToSlice returns the indices in ascending order.
func (d *BitSetDomain) ToSlice() []int {
	values := make([]int, 0, d.Count())
	d.IterateValues(func(v int) { values = append(values, v) })
	return values
}

// String renders the domain, using range notation for consecutive runs.
// Example: "{1,3,5}" or "{1..100}".
func (d *BitSetDomain) String() string {
	values := d.ToSlice()
	switch {
	case len(values) == 0:
		return "{}"
	case len(values) == 1:
		return fmt.Sprintf("{%d}", values[0])
	case values[len(values)-1]-values[0] == len(values)-1:
		return fmt.Sprintf("{%d..%d}", values[0], values[len(values)-1])
	}

	var builder strings.Builder
	builder.WriteString("{")
	for i, v := range values {
		if i > 0 {
			builder.WriteString(",")
		}
		fmt.Fprintf(&builder, "%d", v)
		if i >= 19 && len(values) > 20 {
			fmt.Fprintf(&builder, ",...+%d more", len(values)-20)
			break
		}
	}
	builder.WriteString("}")
	return builder.String()
}
