package csp

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// VarType is the declared type of a variable.
type VarType int

const (
	// TypeUnset means no type was declared. Symbolic variables default to
	// integers; finite-domain variables accept any value.
	TypeUnset VarType = iota
	TypeInt
	TypeString
)

func (t VarType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	}
	return "unset"
}

// ParseVarType maps "int", "integer", "string", "str" or "" to a VarType.
func ParseVarType(s string) (VarType, error) {
	switch strings.ToLower(s) {
	case "":
		return TypeUnset, nil
	case "int", "integer":
		return TypeInt, nil
	case "string", "str":
		return TypeString, nil
	}
	return TypeUnset, fmt.Errorf("unknown variable type %q", s)
}

// Value is an integer or a string. Values are comparable and can be used as
// map keys.
type Value struct {
	isStr bool
	i     int64
	s     string
}

// Int returns an integer value.
func Int(i int64) Value { return Value{i: i} }

// Str returns a string value.
func Str(s string) Value { return Value{isStr: true, s: s} }

func (v Value) IsInt() bool      { return !v.isStr }
func (v Value) IsString() bool   { return v.isStr }
func (v Value) AsInt() int64     { return v.i }
func (v Value) AsString() string { return v.s }

// Type returns TypeInt or TypeString.
func (v Value) Type() VarType {
	if v.isStr {
		return TypeString
	}
	return TypeInt
}

func (v Value) String() string {
	if v.isStr {
		return strconv.Quote(v.s)
	}
	return strconv.FormatInt(v.i, 10)
}

// Any returns the value as an int64 or a string.
func (v Value) Any() any {
	if v.isStr {
		return v.s
	}
	return v.i
}

// Model assigns a value to each variable of a CSP.
type Model map[string]Value

// Clone returns an independent copy.
func (m Model) Clone() Model {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// Equal reports whether both models assign the same values.
func (m Model) Equal(o Model) bool { return maps.Equal(m, o) }

// String renders the model with variables in name order.
func (m Model) String() string {
	names := slices.Sorted(maps.Keys(m))
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + "=" + m[n].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
