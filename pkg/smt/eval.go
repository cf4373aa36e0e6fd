package smt

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// Env assigns values to handles.
type Env map[Handle]Value

// Eval computes the value of a well-typed term under env. Integer division
// and modulo are Euclidean: the remainder is never negative. Integer
// arithmetic whose result does not fit in an int64 fails with ErrOverflow
// instead of wrapping.
func Eval(e Expr, env Env) (Value, error) {
	switch e := e.(type) {
	case Const:
		return e.Val, nil
	case Ref:
		v, ok := env[e.H]
		if !ok {
			return Value{}, fmt.Errorf("%w: %s", ErrUnbound, e.H.Name)
		}
		return v, nil
	case Unary:
		x, err := Eval(e.X, env)
		if err != nil {
			return Value{}, err
		}
		switch e.Op {
		case OpNot:
			return BoolVal(!x.b), nil
		case OpNeg, OpAbs:
			if e.Op == OpAbs && x.i >= 0 {
				return x, nil
			}
			if x.i == math.MinInt64 {
				return Value{}, fmt.Errorf("%w: %s(%d)", ErrOverflow, e.Op, x.i)
			}
			return IntVal(-x.i), nil
		case OpLen:
			return IntVal(int64(utf8.RuneCountInString(x.s))), nil
		}
	case Binary:
		if e.Op == OpImplies {
			x, err := Eval(e.X, env)
			if err != nil || !x.b {
				return BoolVal(err == nil), err
			}
			return Eval(e.Y, env)
		}
		x, err := Eval(e.X, env)
		if err != nil {
			return Value{}, err
		}
		y, err := Eval(e.Y, env)
		if err != nil {
			return Value{}, err
		}
		return evalBinary(e.Op, x, y)
	case Nary:
		return evalNary(e, env)
	case Ite:
		c, err := Eval(e.Cond, env)
		if err != nil {
			return Value{}, err
		}
		if c.b {
			return Eval(e.Then, env)
		}
		return Eval(e.Else, env)
	}
	return Value{}, fmt.Errorf("%w: cannot evaluate %v", ErrSort, e)
}

func evalBinary(op Op, x, y Value) (Value, error) {
	switch op {
	case OpEq:
		return BoolVal(x == y), nil
	case OpNe:
		return BoolVal(x != y), nil
	case OpLt:
		return BoolVal(x.less(y)), nil
	case OpLe:
		return BoolVal(!y.less(x)), nil
	case OpGt:
		return BoolVal(y.less(x)), nil
	case OpGe:
		return BoolVal(!x.less(y)), nil
	case OpAdd:
		if x.sort == SortString {
			return StrVal(x.s + y.s), nil
		}
		fallthrough
	case OpSub, OpMul:
		r, ok := arith(op, x.i, y.i)
		if !ok {
			return Value{}, fmt.Errorf("%w: %d %s %d", ErrOverflow, x.i, op, y.i)
		}
		return IntVal(r), nil
	case OpDiv, OpMod:
		if y.i == 0 {
			return Value{}, ErrDivByZero
		}
		if op == OpDiv && x.i == math.MinInt64 && y.i == -1 {
			return Value{}, fmt.Errorf("%w: %d %s %d", ErrOverflow, x.i, op, y.i)
		}
		q, r := x.i/y.i, x.i%y.i
		if r < 0 {
			if y.i > 0 {
				q, r = q-1, r+y.i
			} else {
				q, r = q+1, r-y.i
			}
		}
		if op == OpDiv {
			return IntVal(q), nil
		}
		return IntVal(r), nil
	}
	return Value{}, fmt.Errorf("%w: %s is not a binary operator", ErrSort, op)
}

// arith applies +, - or * and reports whether the result fits in an int64.
func arith(op Op, x, y int64) (int64, bool) {
	switch op {
	case OpAdd:
		r := x + y
		return r, (r < x) == (y < 0)
	case OpSub:
		r := x - y
		return r, (r > x) == (y < 0)
	default:
		if x == 0 || y == 0 {
			return 0, true
		}
		if (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
			return 0, false
		}
		r := x * y
		return r, r/y == x
	}
}

func evalNary(e Nary, env Env) (Value, error) {
	switch e.Op {
	case OpAnd, OpOr:
		// And stops at the first false argument, Or at the first true one.
		stop := e.Op == OpOr
		for _, a := range e.Args {
			v, err := Eval(a, env)
			if err != nil {
				return Value{}, err
			}
			if v.b == stop {
				return BoolVal(stop), nil
			}
		}
		return BoolVal(!stop), nil
	case OpDistinct:
		seen := make(map[Value]struct{}, len(e.Args))
		for _, a := range e.Args {
			v, err := Eval(a, env)
			if err != nil {
				return Value{}, err
			}
			if _, dup := seen[v]; dup {
				return BoolVal(false), nil
			}
			seen[v] = struct{}{}
		}
		return BoolVal(true), nil
	}
	return Value{}, fmt.Errorf("%w: %s is not an n-ary operator", ErrSort, e.Op)
}

// holds evaluates a Bool term, treating evaluation errors such as division by
// zero or overflow as false.
func holds(e Expr, env Env) bool {
	v, err := Eval(e, env)
	return err == nil && v.b
}
