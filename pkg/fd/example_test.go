package fd_test

import (
	"fmt"

	"github.com/gitrdm/gokancsp/pkg/fd"
)

// ExampleSolver_Solutions pulls solutions one at a time from a cursor.
func ExampleSolver_Solutions() {
	m := fd.NewModel[int]()
	_, _ = m.AddVariable("x", []int{0, 1, 2, 3})
	_, _ = m.AddVariable("y", []int{0, 1, 2, 3})
	_ = m.AddConstraint(func(args []int) (bool, error) {
		return args[0]+args[1] == 3, nil
	}, []string{"x", "y"})

	cursor, err := fd.NewSolver(m, fd.Config{VariableHeuristic: fd.HeuristicLex}).Solutions()
	if err != nil {
		fmt.Println(err)
		return
	}
	for {
		sol, ok := cursor.Next()
		if !ok {
			break
		}
		fmt.Printf("x=%d y=%d\n", sol["x"], sol["y"])
	}

	// Output:
	// x=0 y=3
	// x=1 y=2
	// x=2 y=1
	// x=3 y=0
}
