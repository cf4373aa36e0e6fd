package smt

import (
	"fmt"
	"math/big"

	"go.starlark.net/syntax"
)

// Parse turns a Python-style boolean expression into a term bound to the
// given handles. Every identifier must name a handle, a boolean literal
// (True, False) or one of the supported functions:
//
//	And(a, b, ...)  Or(a, b, ...)  Not(a)  Implies(a, b)
//	If(c, t, e)     Distinct(a, b, ...)
//	Length(s) len(s)  abs(n)
//
// And, Or and Distinct also accept a single list argument. The operators
// and, or, not, comparisons, + - * // / % and conditional expressions
// (t if c else e) map to the matching terms; / and // both denote Euclidean
// integer division.
//
// The result is type checked and must be Bool.
func Parse(src string, handles map[string]Handle) (Expr, error) {
	node, err := syntax.ParseExpr("constraint", src, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	p := parser{handles: handles}
	e, err := p.expr(node)
	if err != nil {
		return nil, err
	}
	if err := TypeCheck(e); err != nil {
		return nil, fmt.Errorf("%q: %w", src, err)
	}
	if e.Sort() != SortBool {
		return nil, fmt.Errorf("%w: %q is %s, not a relation", ErrSort, src, e.Sort())
	}
	return e, nil
}

type parser struct {
	handles map[string]Handle
}

func (p parser) errorf(n syntax.Node, format string, args ...any) error {
	start, _ := n.Span()
	return fmt.Errorf("%w: col %d: %s", ErrParse, start.Col, fmt.Sprintf(format, args...))
}

func (p parser) expr(n syntax.Expr) (Expr, error) {
	switch n := n.(type) {
	case *syntax.ParenExpr:
		return p.expr(n.X)
	case *syntax.Ident:
		switch n.Name {
		case "True":
			return Bool(true), nil
		case "False":
			return Bool(false), nil
		}
		h, ok := p.handles[n.Name]
		if !ok {
			return nil, p.errorf(n, "unknown identifier %q", n.Name)
		}
		return V(h), nil
	case *syntax.Literal:
		switch v := n.Value.(type) {
		case int64:
			return Int(v), nil
		case *big.Int:
			if !v.IsInt64() {
				return nil, p.errorf(n, "integer literal %s out of range", v)
			}
			return Int(v.Int64()), nil
		case string:
			return Str(v), nil
		}
		return nil, p.errorf(n, "unsupported literal %s", n.Raw)
	case *syntax.UnaryExpr:
		x, err := p.expr(n.X)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case syntax.NOT:
			return Not(x), nil
		case syntax.MINUS:
			if c, ok := x.(Const); ok && c.Val.IsInt() {
				return Int(-c.Val.Int()), nil
			}
			return Neg(x), nil
		case syntax.PLUS:
			return x, nil
		}
		return nil, p.errorf(n, "unsupported unary operator %s", n.Op)
	case *syntax.BinaryExpr:
		return p.binary(n)
	case *syntax.CondExpr:
		c, err := p.expr(n.Cond)
		if err != nil {
			return nil, err
		}
		t, err := p.expr(n.True)
		if err != nil {
			return nil, err
		}
		e, err := p.expr(n.False)
		if err != nil {
			return nil, err
		}
		return If(c, t, e), nil
	case *syntax.CallExpr:
		return p.call(n)
	}
	return nil, p.errorf(n, "unsupported expression %T", n)
}

var binaryOps = map[syntax.Token]func(x, y Expr) Expr{
	syntax.EQL:        Eq,
	syntax.NEQ:        Ne,
	syntax.LT:         Lt,
	syntax.LE:         Le,
	syntax.GT:         Gt,
	syntax.GE:         Ge,
	syntax.PLUS:       Add,
	syntax.MINUS:      Sub,
	syntax.STAR:       Mul,
	syntax.SLASH:      Div,
	syntax.SLASHSLASH: Div,
	syntax.PERCENT:    Mod,
	syntax.AND:        func(x, y Expr) Expr { return And(x, y) },
	syntax.OR:         func(x, y Expr) Expr { return Or(x, y) },
}

func (p parser) binary(n *syntax.BinaryExpr) (Expr, error) {
	build, ok := binaryOps[n.Op]
	if !ok {
		return nil, p.errorf(n, "unsupported operator %s", n.Op)
	}
	x, err := p.expr(n.X)
	if err != nil {
		return nil, err
	}
	y, err := p.expr(n.Y)
	if err != nil {
		return nil, err
	}
	return build(x, y), nil
}

func (p parser) call(n *syntax.CallExpr) (Expr, error) {
	fn, ok := n.Fn.(*syntax.Ident)
	if !ok {
		return nil, p.errorf(n, "only plain function calls are supported")
	}
	args, err := p.args(n)
	if err != nil {
		return nil, err
	}

	arity := func(want int) error {
		if len(args) != want {
			return p.errorf(n, "%s takes %d argument(s), got %d", fn.Name, want, len(args))
		}
		return nil
	}

	switch fn.Name {
	case "And":
		return And(args...), nil
	case "Or":
		return Or(args...), nil
	case "Distinct":
		if len(args) == 0 {
			return nil, p.errorf(n, "Distinct needs at least one argument")
		}
		return Distinct(args...), nil
	case "Not":
		if err := arity(1); err != nil {
			return nil, err
		}
		return Not(args[0]), nil
	case "Implies":
		if err := arity(2); err != nil {
			return nil, err
		}
		return Implies(args[0], args[1]), nil
	case "If":
		if err := arity(3); err != nil {
			return nil, err
		}
		return If(args[0], args[1], args[2]), nil
	case "Length", "len":
		if err := arity(1); err != nil {
			return nil, err
		}
		return Len(args[0]), nil
	case "abs":
		if err := arity(1); err != nil {
			return nil, err
		}
		return Abs(args[0]), nil
	}
	return nil, p.errorf(n, "unknown function %q", fn.Name)
}

// args converts call arguments, flattening a lone list or tuple argument.
func (p parser) args(n *syntax.CallExpr) ([]Expr, error) {
	raw := n.Args
	if len(raw) == 1 {
		switch l := raw[0].(type) {
		case *syntax.ListExpr:
			raw = l.List
		case *syntax.TupleExpr:
			raw = l.List
		}
	}
	out := make([]Expr, 0, len(raw))
	for _, a := range raw {
		if b, ok := a.(*syntax.BinaryExpr); ok && b.Op == syntax.EQ {
			return nil, p.errorf(a, "keyword arguments are not supported")
		}
		e, err := p.expr(a)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
