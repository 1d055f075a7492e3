package executors

import (
	"fmt"

	"github.com/gammazero/toposort"
)

// ValidateAcyclic checks that the dependency and trigger edges among the
// given tasks form no cycle. The executor itself never detects cycles: tasks
// on a cycle stay pending forever and their waiters block. Callers that
// build graphs dynamically can run this before submitting.
//
// Edges pointing at tasks outside the given set are treated as satisfied
// leaves, so validating a subgraph never reports a false cycle.
func ValidateAcyclic(tasks ...*Task) error {
	var edges []toposort.Edge
	for _, t := range tasks {
		dependencies, triggers := t.edgeSnapshot()
		preds := append(dependencies, triggers...)
		if len(preds) == 0 {
			// Isolated node: keep it in the sort input
			edges = append(edges, toposort.Edge{nil, t.id})
			continue
		}
		for _, pred := range preds {
			edges = append(edges, toposort.Edge{pred.id, t.id})
		}
	}

	if _, err := toposort.Toposort(edges); err != nil {
		return fmt.Errorf("task graph contains cycle: %w", err)
	}
	return nil
}
