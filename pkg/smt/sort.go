// Package smt is a small symbolic constraint engine. Expressions over typed
// handles are asserted into a Solver, which grounds every handle onto the
// finite support implied by its unary assertions and decides the resulting
// propositional problem with an incremental SAT solver.
//
// The engine only decides problems whose handles have finite supports: a
// handle that is never bounded by an assertion of its own makes Check fail
// with ErrUnbounded.
package smt

import (
	"fmt"
	"strconv"
)

// Sort is the type of a term.
type Sort int

const (
	SortInt Sort = iota
	SortString
	SortBool
)

func (s Sort) String() string {
	switch s {
	case SortInt:
		return "Int"
	case SortString:
		return "String"
	case SortBool:
		return "Bool"
	}
	return fmt.Sprintf("Sort(%d)", int(s))
}

// Handle names a symbolic variable. Handles are values: two handles with the
// same name and sort are the same variable.
type Handle struct {
	Name string
	Sort Sort
}

// IntHandle returns an integer handle.
func IntHandle(name string) Handle { return Handle{Name: name, Sort: SortInt} }

// StringHandle returns a string handle.
func StringHandle(name string) Handle { return Handle{Name: name, Sort: SortString} }

// BoolHandle returns a boolean handle.
func BoolHandle(name string) Handle { return Handle{Name: name, Sort: SortBool} }

func (h Handle) String() string { return h.Name }

// Value is a constant of some sort. The zero Value is the integer 0.
type Value struct {
	sort Sort
	i    int64
	s    string
	b    bool
}

// IntVal returns an integer constant.
func IntVal(i int64) Value { return Value{sort: SortInt, i: i} }

// StrVal returns a string constant.
func StrVal(s string) Value { return Value{sort: SortString, s: s} }

// BoolVal returns a boolean constant.
func BoolVal(b bool) Value { return Value{sort: SortBool, b: b} }

func (v Value) Sort() Sort     { return v.sort }
func (v Value) Int() int64     { return v.i }
func (v Value) Str() string    { return v.s }
func (v Value) Bool() bool     { return v.b }
func (v Value) IsTrue() bool   { return v.sort == SortBool && v.b }
func (v Value) IsInt() bool    { return v.sort == SortInt }
func (v Value) IsString() bool { return v.sort == SortString }

func (v Value) String() string {
	switch v.sort {
	case SortString:
		return strconv.Quote(v.s)
	case SortBool:
		if v.b {
			return "True"
		}
		return "False"
	}
	return strconv.FormatInt(v.i, 10)
}

// less orders values of the same sort.
func (v Value) less(o Value) bool {
	switch v.sort {
	case SortString:
		return v.s < o.s
	case SortBool:
		return !v.b && o.b
	}
	return v.i < o.i
}
