package construct

import (
	"sort"
)

// DirectDependencies returns the resources `r` depends on directly.
// For A -> B -> C the direct dependencies of A are [B].
func DirectDependencies(g Graph, r ResourceId) ([]ResourceId, error) {
	adj, err := g.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	return sortedKeys(adj[r]), nil
}

// DirectDependents returns the resources that depend on `r` directly.
// For A -> B -> C the direct dependents of C are [B].
func DirectDependents(g Graph, r ResourceId) ([]ResourceId, error) {
	pred, err := g.PredecessorMap()
	if err != nil {
		return nil, err
	}
	return sortedKeys(pred[r]), nil
}

// AllDependencies returns every resource `r` depends on, transitively, in breadth-first order.
// For A -> B -> C -> D the dependencies of B are [C, D].
func AllDependencies(g Graph, r ResourceId) ([]ResourceId, error) {
	adj, err := g.AdjacencyMap()
	if err != nil {
		return nil, err
	}

	visited := map[ResourceId]struct{}{r: {}}
	queue := sortedKeys(adj[r])
	var ids []ResourceId
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}
		ids = append(ids, id)
		queue = append(queue, sortedKeys(adj[id])...)
	}
	return ids, nil
}

func sortedKeys(m map[ResourceId]Edge) []ResourceId {
	ids := make([]ResourceId, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Sort(sortedIds(ids))
	return ids
}
