package fd

import (
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ints(lo, hi int) []int {
	out := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, i)
	}
	return out
}

func collect[V comparable](t *testing.T, s *Solver[V]) []Solution[V] {
	t.Helper()
	cur, err := s.Solutions()
	require.NoError(t, err)
	var out []Solution[V]
	for {
		sol, ok := cur.Next()
		if !ok {
			break
		}
		out = append(out, sol)
	}
	require.NoError(t, cur.Err())
	return out
}

func render(sols []Solution[int]) []string {
	out := make([]string, len(sols))
	for i, s := range sols {
		out[i] = fmt.Sprintf("x=%d y=%d", s["x"], s["y"])
	}
	sort.Strings(out)
	return out
}

func TestSolver_SumEnumeratesAllSolutions(t *testing.T) {
	m := NewModel[int]()
	_, err := m.AddVariable("x", ints(0, 3))
	require.NoError(t, err)
	_, err = m.AddVariable("y", ints(0, 3))
	require.NoError(t, err)
	require.NoError(t, m.AddConstraint(func(a []int) (bool, error) { return a[0]+a[1] == 3, nil }, []string{"x", "y"}))

	got := render(collect(t, NewSolver(m, DefaultConfig())))
	want := []string{"x=0 y=3", "x=1 y=2", "x=2 y=1", "x=3 y=0"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("solutions mismatch (-want +got):\n%s", diff)
	}
}

func TestSolver_PredicateSeesDeclarationOrder(t *testing.T) {
	m := NewModel[int]()
	_, err := m.AddVariable("x", ints(0, 2))
	require.NoError(t, err)
	_, err = m.AddVariable("y", ints(5, 6))
	require.NoError(t, err)

	var calls [][]int
	require.NoError(t, m.AddConstraint(func(a []int) (bool, error) {
		calls = append(calls, append([]int(nil), a...))
		return a[0]+a[1] != 6, nil
	}, []string{"x", "y", "x"}))

	sols := collect(t, NewSolver(m, DefaultConfig()))
	require.NotEmpty(t, calls)
	for _, c := range calls {
		require.Len(t, c, 3)
		assert.Equal(t, c[0], c[2], "a repeated variable gets the same value in %v", c)
		assert.Contains(t, ints(0, 2), c[0])
		assert.Contains(t, ints(5, 6), c[1])
	}
	// Copies taken during the search still hold the tuples they were given.
	for _, sol := range sols {
		assert.Contains(t, calls, []int{sol["x"], sol["y"], sol["x"]})
	}
	assert.Len(t, sols, 4)
}

func TestSolver_UnaryFiltersDomain(t *testing.T) {
	m := NewModel[int]()
	_, err := m.AddVariable("x", []int{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, m.AddConstraint(func(a []int) (bool, error) { return a[0] > 1, nil }, []string{"x"}))

	sols := collect(t, NewSolver(m, DefaultConfig()))
	require.Len(t, sols, 2)
	assert.Equal(t, 2, sols[0]["x"])
	assert.Equal(t, 3, sols[1]["x"])
}

func TestSolver_Unsatisfiable(t *testing.T) {
	m := NewModel[int]()
	_, err := m.AddVariable("x", []int{1})
	require.NoError(t, err)
	require.NoError(t, m.AddConstraint(func(a []int) (bool, error) { return a[0] > 5, nil }, []string{"x"}))

	s := NewSolver(m, DefaultConfig())
	cur, err := s.Solutions()
	require.NoError(t, err)
	_, ok := cur.Next()
	assert.False(t, ok)
	assert.NoError(t, cur.Err())
	assert.True(t, cur.Done())

	_, ok = cur.Next()
	assert.False(t, ok, "an exhausted cursor stays exhausted")
}

func TestSolver_RepeatedVariable(t *testing.T) {
	m := NewModel[int]()
	_, err := m.AddVariable("x", ints(0, 5))
	require.NoError(t, err)
	require.NoError(t, m.AddConstraint(func(a []int) (bool, error) { return a[0]*a[1] == 4, nil }, []string{"x", "x"}))

	sols := collect(t, NewSolver(m, DefaultConfig()))
	require.Len(t, sols, 1)
	assert.Equal(t, 2, sols[0]["x"])
}

func TestSolver_StringValues(t *testing.T) {
	m := NewModel[string]()
	_, err := m.AddVariable("color", []string{"red", "green", "blue"})
	require.NoError(t, err)
	require.NoError(t, m.AddConstraint(func(a []string) (bool, error) { return a[0] != "green", nil }, []string{"color"}))

	sols := collect(t, NewSolver(m, DefaultConfig()))
	require.Len(t, sols, 2)
	assert.Equal(t, "red", sols[0]["color"])
	assert.Equal(t, "blue", sols[1]["color"])
}

func TestSolver_PredicateErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	m := NewModel[int]()
	_, err := m.AddVariable("x", ints(1, 3))
	require.NoError(t, err)
	_, err = m.AddVariable("y", ints(1, 3))
	require.NoError(t, err)
	require.NoError(t, m.AddConstraint(func(a []int) (bool, error) {
		if a[0] == 2 {
			return false, boom
		}
		return true, nil
	}, []string{"x", "y"}))

	cur, err := NewSolver(m, Config{VariableHeuristic: HeuristicLex}).Solutions()
	require.NoError(t, err)

	count := 0
	for {
		if _, ok := cur.Next(); !ok {
			break
		}
		count++
	}
	assert.Equal(t, 3, count, "x=1 yields three solutions before x=2 fails")

	var pe *PredicateError
	require.ErrorAs(t, cur.Err(), &pe)
	assert.ErrorIs(t, cur.Err(), ErrPredicateFailure)
	assert.ErrorIs(t, cur.Err(), boom)
	assert.Equal(t, []string{"x", "y"}, pe.Vars)
}

func TestSolver_ValueOrder(t *testing.T) {
	build := func() *Model[int] {
		m := NewModel[int]()
		_, _ = m.AddVariable("x", ints(1, 4))
		return m
	}

	asc := collect(t, NewSolver(build(), DefaultConfig()))
	desc := collect(t, NewSolver(build(), Config{ValueOrder: ValueOrderDesc}))
	require.Len(t, asc, 4)
	require.Len(t, desc, 4)
	assert.Equal(t, 1, asc[0]["x"])
	assert.Equal(t, 4, desc[0]["x"])

	cfg := Config{ValueOrder: ValueOrderRandom, Seed: 42}
	first := collect(t, NewSolver(build(), cfg))
	second := collect(t, NewSolver(build(), cfg))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same seed should give same order (-first +second):\n%s", diff)
	}
}

func TestSolver_RootCompleteYieldsOnce(t *testing.T) {
	m := NewModel[int]()
	_, err := m.AddVariable("x", []int{7})
	require.NoError(t, err)

	sols := collect(t, NewSolver(m, DefaultConfig()))
	require.Len(t, sols, 1)
	assert.Equal(t, 7, sols[0]["x"])
}

func TestSolver_Stats(t *testing.T) {
	m := NewModel[int]()
	_, _ = m.AddVariable("x", ints(1, 3))
	_, _ = m.AddVariable("y", ints(1, 3))
	_ = m.AddConstraint(func(a []int) (bool, error) { return a[0] < a[1], nil }, []string{"x", "y"})

	s := NewSolver(m, DefaultConfig())
	sols := collect(t, s)
	stats := s.Stats()
	assert.Equal(t, len(sols), stats.SolutionsFound)
	assert.Equal(t, 3, stats.SolutionsFound)
	assert.Positive(t, stats.NodesExplored)
	assert.Contains(t, stats.String(), "solutions=3")
}

func TestModel_Errors(t *testing.T) {
	m := NewModel[int]()
	_, err := m.AddVariable("x", nil)
	assert.ErrorIs(t, err, ErrEmptyDomain)

	_, err = m.AddVariable("y", []int{1, 1, 2})
	require.NoError(t, err)
	v, _ := m.Variable("y")
	assert.Equal(t, []int{1, 2}, v.Values())

	again, err := m.AddVariable("y", []int{9})
	require.NoError(t, err)
	assert.Same(t, v, again)

	assert.ErrorIs(t, m.AddConstraint(func([]int) (bool, error) { return true, nil }, []string{"z"}), ErrUnknownVariable)
	assert.ErrorIs(t, m.AddConstraint(nil, []string{"y"}), ErrInvalidArgument)
}

func TestParseConfigNames(t *testing.T) {
	h, err := ParseVariableHeuristic("DOM")
	require.NoError(t, err)
	assert.Equal(t, HeuristicDom, h)

	o, err := ParseValueOrder("random")
	require.NoError(t, err)
	assert.Equal(t, ValueOrderRandom, o)

	_, err = ParseValueOrder("sideways")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

// All-different over n variables with k values has k!/(k-n)! solutions, each
// with pairwise distinct values.
func TestSolver_AllDifferentProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	properties.Property("permutation count", prop.ForAll(
		func(n, extra int) bool {
			k := n + extra
			m := NewModel[int]()
			names := make([]string, n)
			for i := range names {
				names[i] = fmt.Sprintf("v%d", i)
				if _, err := m.AddVariable(names[i], ints(1, k)); err != nil {
					return false
				}
			}
			for i := 0; i < n; i++ {
				for j := i + 1; j < n; j++ {
					if err := m.AddConstraint(func(a []int) (bool, error) { return a[0] != a[1], nil },
						[]string{names[i], names[j]}); err != nil {
						return false
					}
				}
			}

			cur, err := NewSolver(m, DefaultConfig()).Solutions()
			if err != nil {
				return false
			}
			count := 0
			for {
				sol, ok := cur.Next()
				if !ok {
					break
				}
				seen := map[int]bool{}
				for _, v := range sol {
					if seen[v] {
						return false
					}
					seen[v] = true
				}
				count++
			}

			want := 1
			for i := 0; i < n; i++ {
				want *= k - i
			}
			return cur.Err() == nil && count == want
		},
		gen.IntRange(1, 4),
		gen.IntRange(0, 2),
	))

	properties.TestingRun(t)
}
