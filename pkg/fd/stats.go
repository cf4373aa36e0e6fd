package fd

// stats.go: search statistics for the FD solver

import (
	"fmt"
	"time"
)

// Stats holds counters about one enumeration.
type Stats struct {
	NodesExplored    int           // branching decisions tried
	Backtracks       int           // frames popped after exhausting their values
	SolutionsFound   int           // solutions handed out so far
	PropagationCount int           // propagation fixed-point runs
	MaxDepth         int           // deepest search stack seen
	SearchTime       time.Duration // wall time spent inside Next
}

// String returns a compact, human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("nodes=%d backtracks=%d solutions=%d propagations=%d depth=%d time=%v",
		s.NodesExplored, s.Backtracks, s.SolutionsFound, s.PropagationCount, s.MaxDepth, s.SearchTime)
}

func (s *Stats) recordDepth(depth int) {
	if depth > s.MaxDepth {
		s.MaxDepth = depth
	}
}
