package csp_test

import (
	"errors"
	"fmt"

	"github.com/gitrdm/gokancsp/pkg/csp"
)

func ExampleCSP_NextSolution() {
	sum, _ := csp.NewConstraint(func(args []csp.Value) bool {
		return args[0].AsInt()+args[1].AsInt() == 3
	}, []string{"x", "y"})

	p, err := csp.New(csp.DefaultCapabilities(), []csp.Constraint{sum})
	if err != nil {
		fmt.Println(err)
		return
	}
	_ = p.SetVarDomain("x", csp.Range(0, 3))
	_ = p.SetVarDomain("y", csp.Ints(0, 1, 2, 3))

	for m, err := range p.All() {
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Println(m)
	}
	fmt.Println("exhausted:", p.Exhausted())

	// Output:
	// {x=0, y=3}
	// {x=1, y=2}
	// {x=2, y=1}
	// {x=3, y=0}
	// exhausted: true
}

func ExampleNewSymbolicConstraint() {
	c, err := csp.NewSymbolicConstraint("x > 1", []string{"x"})
	if err != nil {
		fmt.Println(err)
		return
	}
	p, _ := csp.New(csp.DefaultCapabilities(), []csp.Constraint{c})
	_ = p.SetVarDomain("x", csp.Range(1, 3))

	count := 0
	for range p.All() {
		count++
	}
	fmt.Println("models:", count)

	_ = p.NegateConstraint(0)
	m, _ := p.Solution()
	fmt.Println("negated:", m)

	// Output:
	// models: 2
	// negated: {x=1}
}

func ExampleErrNoSolution() {
	c, _ := csp.NewConstraint(func(args []csp.Value) bool { return args[0].AsInt() > 5 }, []string{"x"})
	p, _ := csp.New(csp.DefaultCapabilities(), []csp.Constraint{c})
	_ = p.SetVarDomain("x", csp.Ints(1))

	err := p.NextSolution()
	fmt.Println(errors.Is(err, csp.ErrNoSolution), p.Exhausted())

	// Output:
	// true true
}
