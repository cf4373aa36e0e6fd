package smt

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	handles := map[string]Handle{
		"x": IntHandle("x"),
		"y": IntHandle("y"),
		"s": StringHandle("s"),
	}
	env := Env{IntHandle("x"): IntVal(2), IntHandle("y"): IntVal(-3), StringHandle("s"): StrVal("héllo")}

	tests := []struct {
		src  string
		want bool
	}{
		{"x + y == -1", true},
		{"x > 1 and y < 0", true},
		{"not (x == 2)", false},
		{"x == 2 or y == 2", true},
		{"And(x > 0, y > 0)", false},
		{"And([x > 0, y < 0])", true},
		{"Or(x > 5, y > 5, s == 'héllo')", true},
		{"Not(x > 5)", true},
		{"Implies(x > 5, y > 5)", true},
		{"Implies(x > 1, y > 5)", false},
		{"If(x > 1, y, x) == -3", true},
		{"(y if x > 1 else x) == -3", true},
		{"Distinct(x, y, 7)", true},
		{"Distinct([x, y, 2])", false},
		{"Length(s) == 5", true},
		{"len(s + '!') == 6", true},
		{"abs(y) == 3", true},
		{"y // x == -2", true},
		{"y / x == -2", true},
		{"y % x == 1", true},
		{"x * y == -6", true},
		{"-x == -2", true},
		{"True", true},
		{"False or x == 2", true},
		{"s < 'z'", true},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			e, err := Parse(tt.src, handles)
			require.NoError(t, err)
			v, err := Eval(e, env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Bool())
		})
	}
}

func TestParseErrors(t *testing.T) {
	handles := map[string]Handle{"x": IntHandle("x"), "s": StringHandle("s")}

	tests := []struct {
		name string
		src  string
		want error
	}{
		{"syntax", "x ==", ErrParse},
		{"unknown identifier", "z > 1", ErrParse},
		{"unknown function", "Foo(x)", ErrParse},
		{"wrong arity", "Not(x > 1, x < 3)", ErrParse},
		{"keyword argument", "And(a=x > 1)", ErrParse},
		{"not a relation", "x + 1", ErrSort},
		{"mixed sorts", "x == s", ErrSort},
		{"string arithmetic", "s * 2 == s", ErrSort},
		{"unsupported operator", "x in [1, 2]", ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src, handles)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEvalEuclidean(t *testing.T) {
	tests := []struct {
		x, y, q, r int64
	}{
		{7, 2, 3, 1},
		{-7, 2, -4, 1},
		{7, -2, -3, 1},
		{-7, -2, 4, 1},
	}
	for _, tt := range tests {
		q, err := Eval(Div(Int(tt.x), Int(tt.y)), nil)
		require.NoError(t, err)
		r, err := Eval(Mod(Int(tt.x), Int(tt.y)), nil)
		require.NoError(t, err)
		assert.Equal(t, tt.q, q.Int(), "%d div %d", tt.x, tt.y)
		assert.Equal(t, tt.r, r.Int(), "%d mod %d", tt.x, tt.y)
	}

	_, err := Eval(Div(Int(1), Int(0)), nil)
	assert.ErrorIs(t, err, ErrDivByZero)

	_, err = Eval(Gt(V(IntHandle("x")), Int(0)), Env{})
	assert.ErrorIs(t, err, ErrUnbound)
}

func TestEvalOverflow(t *testing.T) {
	tests := []struct {
		name string
		e    Expr
	}{
		{"add", Add(Int(math.MaxInt64), Int(1))},
		{"add negative", Add(Int(math.MinInt64), Int(-1))},
		{"sub", Sub(Int(math.MinInt64), Int(1))},
		{"sub negative", Sub(Int(math.MaxInt64), Int(-1))},
		{"mul", Mul(Int(1<<32), Int(1<<32))},
		{"mul by minus one", Mul(Int(math.MinInt64), Int(-1))},
		{"minus one times min", Mul(Int(-1), Int(math.MinInt64))},
		{"neg", Neg(Int(math.MinInt64))},
		{"abs", Abs(Int(math.MinInt64))},
		{"div", Div(Int(math.MinInt64), Int(-1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Eval(tt.e, nil)
			assert.ErrorIs(t, err, ErrOverflow)
			assert.False(t, holds(Gt(tt.e, Int(0)), nil))
			assert.False(t, holds(Le(tt.e, Int(0)), nil))
		})
	}

	// Results at the edges of int64 are exact.
	edges := []struct {
		e    Expr
		want int64
	}{
		{Add(Int(math.MaxInt64-1), Int(1)), math.MaxInt64},
		{Sub(Int(math.MinInt64+1), Int(1)), math.MinInt64},
		{Mul(Int(math.MinInt64/2), Int(2)), math.MinInt64},
		{Neg(Int(math.MaxInt64)), math.MinInt64 + 1},
		{Abs(Int(math.MinInt64 + 1)), math.MaxInt64},
		{Mod(Int(math.MinInt64), Int(-1)), 0},
	}
	for _, tt := range edges {
		v, err := Eval(tt.e, nil)
		require.NoError(t, err, "%v", tt.e)
		assert.Equal(t, tt.want, v.Int(), "%v", tt.e)
	}
}

func TestEvalArithmeticProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	exact := func(op Op, x, y int64) *big.Int {
		a, b := big.NewInt(x), big.NewInt(y)
		switch op {
		case OpAdd:
			return a.Add(a, b)
		case OpSub:
			return a.Sub(a, b)
		default:
			return a.Mul(a, b)
		}
	}
	build := map[Op]func(x, y Expr) Expr{OpAdd: Add, OpSub: Sub, OpMul: Mul}

	properties.Property("int64 arithmetic is exact or fails", prop.ForAll(
		func(x, y int64, pick int) bool {
			op := []Op{OpAdd, OpSub, OpMul}[pick]
			want := exact(op, x, y)
			v, err := Eval(build[op](Int(x), Int(y)), nil)
			if !want.IsInt64() {
				return errors.Is(err, ErrOverflow)
			}
			return err == nil && v.Int() == want.Int64()
		},
		gen.OneGenOf(gen.Int64(), gen.Int64Range(-1<<32, 1<<32), gen.OneConstOf(int64(math.MinInt64), int64(math.MaxInt64), int64(-1))),
		gen.OneGenOf(gen.Int64(), gen.Int64Range(-1<<32, 1<<32), gen.OneConstOf(int64(math.MinInt64), int64(math.MaxInt64), int64(-1))),
		gen.IntRange(0, 2),
	))

	properties.TestingRun(t)
}

func TestVars(t *testing.T) {
	x, y := IntHandle("x"), IntHandle("y")
	e := And(Gt(V(y), Int(1)), Eq(Add(V(x), V(y)), Int(3)), Lt(V(x), Int(9)))
	assert.Equal(t, []Handle{x, y}, Vars(e))
	assert.Empty(t, Vars(Bool(true)))
}

func TestExprString(t *testing.T) {
	x := IntHandle("x")
	e := And(Ge(V(x), Int(1)), Not(Eq(V(x), Str("a"))), If(Bool(true), V(x), Neg(V(x))))
	assert.Equal(t, `And((x >= 1), Not((x == "a")), If(True, x, -x))`, e.String())
}
