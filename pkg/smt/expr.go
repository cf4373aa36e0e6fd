package smt

import (
	"fmt"
	"sort"
	"strings"
)

// Op identifies the operator of a compound term.
type Op int

const (
	OpNot Op = iota
	OpNeg
	OpAbs
	OpLen

	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpImplies

	OpAnd
	OpOr
	OpDistinct
)

var opNames = map[Op]string{
	OpNot: "Not", OpNeg: "-", OpAbs: "abs", OpLen: "Length",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%", OpImplies: "Implies",
	OpAnd: "And", OpOr: "Or", OpDistinct: "Distinct",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

func (o Op) isComparison() bool { return o >= OpEq && o <= OpGe }

// Expr is a term. Terms are immutable and may be shared between assertions.
type Expr interface {
	// Sort is the result sort of a well-typed term.
	Sort() Sort
	String() string
	expr()
}

// Const is a literal value.
type Const struct{ Val Value }

// Ref refers to a handle.
type Ref struct{ H Handle }

// Unary applies Not, Neg, Abs or Len.
type Unary struct {
	Op Op
	X  Expr
}

// Binary applies a comparison, arithmetic operator or Implies.
type Binary struct {
	Op   Op
	X, Y Expr
}

// Nary applies And, Or or Distinct.
type Nary struct {
	Op   Op
	Args []Expr
}

// Ite is if-then-else.
type Ite struct{ Cond, Then, Else Expr }

func (Const) expr()  {}
func (Ref) expr()    {}
func (Unary) expr()  {}
func (Binary) expr() {}
func (Nary) expr()   {}
func (Ite) expr()    {}

func (c Const) Sort() Sort { return c.Val.Sort() }
func (r Ref) Sort() Sort   { return r.H.Sort }

func (u Unary) Sort() Sort {
	switch u.Op {
	case OpNot:
		return SortBool
	default:
		return SortInt
	}
}

func (b Binary) Sort() Sort {
	if b.Op.isComparison() || b.Op == OpImplies {
		return SortBool
	}
	return b.X.Sort()
}

func (Nary) Sort() Sort  { return SortBool }
func (i Ite) Sort() Sort { return i.Then.Sort() }

func (c Const) String() string { return c.Val.String() }
func (r Ref) String() string   { return r.H.Name }

func (u Unary) String() string {
	if u.Op == OpNeg {
		return "-" + u.X.String()
	}
	return fmt.Sprintf("%s(%s)", u.Op, u.X)
}

func (b Binary) String() string {
	if b.Op == OpImplies {
		return fmt.Sprintf("Implies(%s, %s)", b.X, b.Y)
	}
	return fmt.Sprintf("(%s %s %s)", b.X, b.Op, b.Y)
}

func (n Nary) String() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", n.Op, strings.Join(parts, ", "))
}

func (i Ite) String() string {
	return fmt.Sprintf("If(%s, %s, %s)", i.Cond, i.Then, i.Else)
}

// Term builders.

func C(v Value) Expr             { return Const{Val: v} }
func Int(i int64) Expr           { return Const{Val: IntVal(i)} }
func Str(s string) Expr          { return Const{Val: StrVal(s)} }
func Bool(b bool) Expr           { return Const{Val: BoolVal(b)} }
func V(h Handle) Expr            { return Ref{H: h} }
func Not(x Expr) Expr            { return Unary{Op: OpNot, X: x} }
func Neg(x Expr) Expr            { return Unary{Op: OpNeg, X: x} }
func Abs(x Expr) Expr            { return Unary{Op: OpAbs, X: x} }
func Len(x Expr) Expr            { return Unary{Op: OpLen, X: x} }
func Eq(x, y Expr) Expr          { return Binary{Op: OpEq, X: x, Y: y} }
func Ne(x, y Expr) Expr          { return Binary{Op: OpNe, X: x, Y: y} }
func Lt(x, y Expr) Expr          { return Binary{Op: OpLt, X: x, Y: y} }
func Le(x, y Expr) Expr          { return Binary{Op: OpLe, X: x, Y: y} }
func Gt(x, y Expr) Expr          { return Binary{Op: OpGt, X: x, Y: y} }
func Ge(x, y Expr) Expr          { return Binary{Op: OpGe, X: x, Y: y} }
func Add(x, y Expr) Expr         { return Binary{Op: OpAdd, X: x, Y: y} }
func Sub(x, y Expr) Expr         { return Binary{Op: OpSub, X: x, Y: y} }
func Mul(x, y Expr) Expr         { return Binary{Op: OpMul, X: x, Y: y} }
func Div(x, y Expr) Expr         { return Binary{Op: OpDiv, X: x, Y: y} }
func Mod(x, y Expr) Expr         { return Binary{Op: OpMod, X: x, Y: y} }
func Implies(x, y Expr) Expr     { return Binary{Op: OpImplies, X: x, Y: y} }
func And(args ...Expr) Expr      { return Nary{Op: OpAnd, Args: args} }
func Or(args ...Expr) Expr       { return Nary{Op: OpOr, Args: args} }
func Distinct(args ...Expr) Expr { return Nary{Op: OpDistinct, Args: args} }
func If(c, t, e Expr) Expr       { return Ite{Cond: c, Then: t, Else: e} }

// TypeCheck verifies that every operator is applied to operands of the right
// sorts. Errors wrap ErrSort.
func TypeCheck(e Expr) error {
	switch e := e.(type) {
	case Const, Ref:
		return nil
	case Unary:
		if err := TypeCheck(e.X); err != nil {
			return err
		}
		want := SortInt
		switch e.Op {
		case OpNot:
			want = SortBool
		case OpLen:
			want = SortString
		case OpNeg, OpAbs:
		default:
			return fmt.Errorf("%w: %s is not a unary operator", ErrSort, e.Op)
		}
		if e.X.Sort() != want {
			return fmt.Errorf("%w: %s expects %s, got %s in %s", ErrSort, e.Op, want, e.X.Sort(), e)
		}
		return nil
	case Binary:
		if err := TypeCheck(e.X); err != nil {
			return err
		}
		if err := TypeCheck(e.Y); err != nil {
			return err
		}
		xs, ys := e.X.Sort(), e.Y.Sort()
		if xs != ys {
			return fmt.Errorf("%w: %s applied to %s and %s in %s", ErrSort, e.Op, xs, ys, e)
		}
		switch e.Op {
		case OpEq, OpNe:
			return nil
		case OpLt, OpLe, OpGt, OpGe, OpAdd:
			if xs == SortBool {
				return fmt.Errorf("%w: %s is not defined on Bool in %s", ErrSort, e.Op, e)
			}
			return nil
		case OpSub, OpMul, OpDiv, OpMod:
			if xs != SortInt {
				return fmt.Errorf("%w: %s expects Int in %s", ErrSort, e.Op, e)
			}
			return nil
		case OpImplies:
			if xs != SortBool {
				return fmt.Errorf("%w: Implies expects Bool in %s", ErrSort, e)
			}
			return nil
		}
		return fmt.Errorf("%w: %s is not a binary operator", ErrSort, e.Op)
	case Nary:
		for _, a := range e.Args {
			if err := TypeCheck(a); err != nil {
				return err
			}
		}
		switch e.Op {
		case OpAnd, OpOr:
			for _, a := range e.Args {
				if a.Sort() != SortBool {
					return fmt.Errorf("%w: %s expects Bool arguments, got %s", ErrSort, e.Op, a)
				}
			}
			return nil
		case OpDistinct:
			for _, a := range e.Args[min(1, len(e.Args)):] {
				if a.Sort() != e.Args[0].Sort() {
					return fmt.Errorf("%w: Distinct mixes %s and %s", ErrSort, e.Args[0].Sort(), a.Sort())
				}
			}
			return nil
		}
		return fmt.Errorf("%w: %s is not an n-ary operator", ErrSort, e.Op)
	case Ite:
		for _, x := range []Expr{e.Cond, e.Then, e.Else} {
			if err := TypeCheck(x); err != nil {
				return err
			}
		}
		if e.Cond.Sort() != SortBool {
			return fmt.Errorf("%w: If condition must be Bool in %s", ErrSort, e)
		}
		if e.Then.Sort() != e.Else.Sort() {
			return fmt.Errorf("%w: If branches differ (%s, %s)", ErrSort, e.Then.Sort(), e.Else.Sort())
		}
		return nil
	case nil:
		return fmt.Errorf("%w: nil term", ErrSort)
	}
	return fmt.Errorf("%w: unknown term %T", ErrSort, e)
}

// Vars returns the distinct handles referenced by e, sorted by name.
func Vars(e Expr) []Handle {
	seen := map[Handle]struct{}{}
	collectVars(e, seen)
	out := make([]Handle, 0, len(seen))
	for h := range seen {
		out = append(out, h)
	}
	sortHandles(out)
	return out
}

func sortHandles(hs []Handle) {
	sort.Slice(hs, func(i, j int) bool {
		if hs[i].Name != hs[j].Name {
			return hs[i].Name < hs[j].Name
		}
		return hs[i].Sort < hs[j].Sort
	})
}

func collectVars(e Expr, seen map[Handle]struct{}) {
	switch e := e.(type) {
	case Ref:
		seen[e.H] = struct{}{}
	case Unary:
		collectVars(e.X, seen)
	case Binary:
		collectVars(e.X, seen)
		collectVars(e.Y, seen)
	case Nary:
		for _, a := range e.Args {
			collectVars(a, seen)
		}
	case Ite:
		collectVars(e.Cond, seen)
		collectVars(e.Then, seen)
		collectVars(e.Else, seen)
	}
}
