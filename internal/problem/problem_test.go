package problem

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/gokancsp/pkg/csp"
)

func collect(t *testing.T, p *csp.CSP) []csp.Model {
	t.Helper()
	var out []csp.Model
	for m, err := range p.All() {
		require.NoError(t, err)
		out = append(out, m)
	}
	return out
}

func TestLoadAndSolve(t *testing.T) {
	tests := []struct {
		file      string
		name      string
		kind      csp.Kind
		models    int
		highlight bool
	}{
		{"testdata/sum.yaml", "sum", csp.KindFiniteDomain, 4, false},
		{"testdata/colors.yaml", "triangle", csp.KindFiniteDomain, 4, true},
		{"testdata/queens4.yaml", "queens4", csp.KindSymbolic, 2, false},
		{"testdata/negated.yaml", "negated", csp.KindSymbolic, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Load(tt.file)
			require.NoError(t, err)
			assert.Equal(t, tt.name, f.Name)

			p, err := f.Build(csp.DefaultCapabilities())
			require.NoError(t, err)
			assert.Equal(t, tt.kind, p.Kind())
			assert.Equal(t, tt.highlight, p.HighlightVariables())
			assert.Len(t, collect(t, p), tt.models)
			assert.True(t, p.Exhausted())
			assert.NoError(t, p.LastError())
		})
	}
}

func TestBuildDetails(t *testing.T) {
	f, err := Load("testdata/sum.yaml")
	require.NoError(t, err)
	p, err := f.Build(csp.DefaultCapabilities())
	require.NoError(t, err)

	assert.Equal(t, "right", p.VarNamespace("y"))
	assert.Equal(t, "x", p.VarNamespace("x"))
	assert.Equal(t, map[string]csp.VarType{"y": csp.TypeInt}, p.VarTypes())
	d, ok := p.VarDomain("x")
	require.True(t, ok)
	assert.True(t, d.IsRange())

	c, err := p.Constraint(0)
	require.NoError(t, err)
	assert.Equal(t, "fd(sum)[x, y]", c.(*csp.FDConstraint).String())

	m, err := p.Solution()
	require.NoError(t, err)
	assert.Equal(t, csp.Model{"x": csp.Int(0), "y": csp.Int(3)}, m)
}

func TestColorsRespectUnary(t *testing.T) {
	f, err := Load("testdata/colors.yaml")
	require.NoError(t, err)
	p, err := f.Build(csp.DefaultCapabilities())
	require.NoError(t, err)
	for _, m := range collect(t, p) {
		assert.NotEqual(t, csp.Str("blue"), m["a"])
		assert.NotEqual(t, m["a"], m["b"])
		assert.NotEqual(t, m["b"], m["c"])
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ""},
		{"no constraints", "variables: [{name: x, values: [1]}]"},
		{"values and range", "variables: [{name: x, values: [1], range: [0, 1]}]\nconstraints: [{kind: fd, vars: [x], relation: 'True'}]"},
		{"neither values nor range", "variables: [{name: x}]\nconstraints: [{kind: fd, vars: [x], relation: 'True'}]"},
		{"short range", "variables: [{name: x, range: [0]}]\nconstraints: [{kind: fd, vars: [x], relation: 'True'}]"},
		{"bad kind", "variables: [{name: x, values: [1]}]\nconstraints: [{kind: sat, vars: [x], relation: 'True'}]"},
		{"bad type", "variables: [{name: x, type: float, values: [1]}]\nconstraints: [{kind: fd, vars: [x], relation: 'True'}]"},
		{"undeclared", "variables: [{name: x, values: [1]}]\nconstraints: [{kind: fd, vars: [y], relation: 'True'}]"},
		{"duplicate", "variables: [{name: x, values: [1]}, {name: x, values: [2]}]\nconstraints: [{kind: fd, vars: [x], relation: 'True'}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := Parse(strings.NewReader("variables: []\nextra: 1"))
	assert.Error(t, err)
}

func TestBuildErrors(t *testing.T) {
	build := func(src string) error {
		f, err := Parse(strings.NewReader(src))
		require.NoError(t, err)
		_, err = f.Build(csp.DefaultCapabilities())
		return err
	}

	err := build("variables: [{name: x, values: [1]}]\nconstraints: [{kind: fd, vars: [x], relation: 'x +'}]")
	assert.ErrorContains(t, err, "constraint 0")

	err = build("variables: [{name: x, values: [1]}]\nconstraints: [{kind: symbolic, vars: [x], relation: 'x +'}]")
	assert.ErrorIs(t, err, csp.ErrDefinition)

	err = build("variables: [{name: x, values: [1]}]\nconstraints: [{kind: fd, vars: [x], relation: 'x > 0'}, {kind: symbolic, vars: [x], relation: 'x > 0'}]")
	assert.ErrorIs(t, err, csp.ErrMixedKinds)

	err = build("variables: [{name: x, values: []}]\nconstraints: [{kind: fd, vars: [x], relation: 'x > 0'}]")
	assert.ErrorIs(t, err, csp.ErrEmptyDomain)

	err = build("variables: [{name: x, values: [1.5]}]\nconstraints: [{kind: fd, vars: [x], relation: 'x > 0'}]")
	assert.ErrorIs(t, err, ErrInvalid)

	err = build("variables: [{name: not-an-ident, values: [1]}]\nconstraints: [{kind: fd, vars: [not-an-ident], relation: 'True'}]")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestStarlarkRelation(t *testing.T) {
	rel, err := compileRelation("x * 2 == y", []string{"x", "y"})
	require.NoError(t, err)
	ok, err := rel([]csp.Value{csp.Int(2), csp.Int(4)})
	require.NoError(t, err)
	assert.True(t, ok)

	rel, err = compileRelation("x + x == 4", []string{"x", "x"})
	require.NoError(t, err)
	ok, err = rel([]csp.Value{csp.Int(2), csp.Int(2)})
	require.NoError(t, err)
	assert.True(t, ok)

	rel, err = compileRelation("abs(x) == 3 and distinct(x, y)", []string{"x", "y"})
	require.NoError(t, err)
	ok, err = rel([]csp.Value{csp.Int(-3), csp.Int(3)})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = rel([]csp.Value{csp.Int(3), csp.Int(3)})
	require.NoError(t, err)
	assert.False(t, ok)

	rel, err = compileRelation("x", []string{"x"})
	require.NoError(t, err)
	_, err = rel([]csp.Value{csp.Int(1)})
	assert.ErrorContains(t, err, "want bool")

	rel, err = compileRelation("x < 1", []string{"x"})
	require.NoError(t, err)
	_, err = rel([]csp.Value{csp.Str("a")})
	assert.Error(t, err, "comparing a string with an int fails")
}

func TestRelationErrorIsDefinitionError(t *testing.T) {
	f, err := Parse(strings.NewReader(`
variables:
  - {name: x, values: [1, two]}
constraints:
  - {kind: fd, vars: [x], relation: "x < 5"}
`))
	require.NoError(t, err)
	p, err := f.Build(csp.DefaultCapabilities())
	require.NoError(t, err)

	require.NoError(t, p.NextSolution())
	require.NoError(t, p.NextSolution())
	assert.True(t, p.Exhausted())
	assert.ErrorIs(t, p.LastError(), csp.ErrDefinition)
}
