package problem

import (
	"fmt"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/gitrdm/gokancsp/pkg/csp"
)

// builtins are predeclared in every relation in addition to the Starlark
// universe.
var builtins = starlark.StringDict{
	"distinct": starlark.NewBuiltin("distinct", builtinDistinct),
	"abs":      starlark.NewBuiltin("abs", builtinAbs),
}

// compileRelation turns a Starlark expression over vars into a relation. The
// expression is compiled once as a lambda taking the distinct variables in
// first-use order. Duplicate variables bind to the same argument position.
func compileRelation(src string, vars []string) (csp.Relation, error) {
	params := make([]string, 0, len(vars))
	index := make(map[string]int, len(vars))
	for _, v := range vars {
		if _, ok := index[v]; ok {
			continue
		}
		if !isIdent(v) {
			return nil, fmt.Errorf("%w: %q is not a valid relation variable name", ErrInvalid, v)
		}
		index[v] = len(params)
		params = append(params, v)
	}
	positions := make([]int, len(vars))
	for i, v := range vars {
		positions[i] = index[v]
	}

	thread := &starlark.Thread{Name: "compile"}
	lambda := fmt.Sprintf("lambda %s: (%s)", strings.Join(params, ", "), src)
	val, err := starlark.Eval(thread, "relation", lambda, builtins)
	if err != nil {
		return nil, fmt.Errorf("relation %q: %w", src, err)
	}
	fn, ok := val.(*starlark.Function)
	if !ok {
		return nil, fmt.Errorf("relation %q did not compile to a function", src)
	}
	fn.Freeze()

	return func(args []csp.Value) (bool, error) {
		sargs := make(starlark.Tuple, len(params))
		for i, a := range args {
			sargs[positions[i]] = toStarlark(a)
		}
		res, err := starlark.Call(&starlark.Thread{Name: "relation"}, fn, sargs, nil)
		if err != nil {
			return false, fmt.Errorf("relation %q: %w", src, err)
		}
		b, ok := res.(starlark.Bool)
		if !ok {
			return false, fmt.Errorf("relation %q returned %s, want bool", src, res.Type())
		}
		return bool(b), nil
	}, nil
}

func toStarlark(v csp.Value) starlark.Value {
	if v.IsString() {
		return starlark.String(v.AsString())
	}
	return starlark.MakeInt64(v.AsInt())
}

func isIdent(s string) bool {
	expr, err := syntax.ParseExpr("name", s, 0)
	if err != nil {
		return false
	}
	_, ok := expr.(*syntax.Ident)
	return ok
}

func builtinDistinct(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	seen := make(map[string]bool, len(args))
	for _, a := range args {
		key := a.Type() + ":" + a.String()
		if seen[key] {
			return starlark.False, nil
		}
		seen[key] = true
	}
	return starlark.True, nil
}

func builtinAbs(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x starlark.Int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &x); err != nil {
		return nil, err
	}
	if x.Sign() < 0 {
		return starlark.MakeInt(0).Sub(x), nil
	}
	return x, nil
}
