package construct

import (
	"errors"
	"fmt"
	"sort"
)

// sortedIds is a helper type for sorting ResourceIds by purely their content, for use when deterministic ordering
// is desired (when no other sources of ordering are available).
type sortedIds []ResourceId

func (s sortedIds) Len() int           { return len(s) }
func (s sortedIds) Less(i, j int) bool { return ResourceIdLess(s[i], s[j]) }
func (s sortedIds) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// TopologicalSort provides a stable topological ordering of resource IDs: dependents come before their
// dependencies, and ties are broken by the ids themselves so the same graph always sorts the same way.
func TopologicalSort(g Graph) ([]ResourceId, error) {
	if !g.Traits().IsDirected {
		return nil, fmt.Errorf("topological sort cannot be computed on undirected graph")
	}

	predecessors, err := g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("failed to get predecessor map: %w", err)
	}
	if len(predecessors) == 0 {
		return nil, nil
	}
	adj, err := g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("failed to get adjacency map: %w", err)
	}

	remaining := make(map[ResourceId]int, len(predecessors))
	var ready []ResourceId
	for id, preds := range predecessors {
		remaining[id] = len(preds)
		if len(preds) == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]ResourceId, 0, len(predecessors))
	for len(order) < len(predecessors) {
		if len(ready) == 0 {
			// Only reachable for cyclic graphs: break the cycle at the vertex with the fewest unvisited
			// predecessors so the result is still deterministic.
			ready = append(ready, leastBlocked(remaining))
		}
		sort.Sort(sortedIds(ready))
		id := ready[0]
		ready = ready[1:]
		if _, done := remaining[id]; !done {
			continue
		}
		delete(remaining, id)
		order = append(order, id)

		for next := range adj[id] {
			count, ok := remaining[next]
			if !ok {
				continue
			}
			remaining[next] = count - 1
			if count-1 == 0 {
				ready = append(ready, next)
			}
		}
	}
	return order, nil
}

func leastBlocked(remaining map[ResourceId]int) ResourceId {
	var best ResourceId
	bestCount := -1
	for id, count := range remaining {
		if bestCount == -1 || count < bestCount || (count == bestCount && ResourceIdLess(id, best)) {
			best = id
			bestCount = count
		}
	}
	return best
}

func reverseInplace[E any](a []E) {
	for i := 0; i < len(a)/2; i++ {
		a[i], a[len(a)-i-1] = a[len(a)-i-1], a[i]
	}
}

// ReverseTopologicalSort is like TopologicalSort, but returns the reverse order: dependencies before
// dependents, which is the order in which resources are created.
func ReverseTopologicalSort(g Graph) ([]ResourceId, error) {
	topo, err := TopologicalSort(g)
	if err != nil {
		return nil, err
	}
	reverseInplace(topo)
	return topo, nil
}

// WalkGraphFunc is much like `fs.WalkDirFunc` and is used in `WalkGraph` for the callback during graph
// traversal. Return `StopWalk` to end the walk.
type WalkGraphFunc func(id ResourceId, resource *Resource, nerr error) error

// StopWalk is a special error that can be returned from WalkGraphFunc to stop walking the graph.
var StopWalk = errors.New("stop walking")

func walkGraph(g Graph, ids []ResourceId, fn WalkGraphFunc) (err error) {
	for _, id := range ids {
		v, verr := g.Vertex(id)
		err = errors.Join(err, verr)
		err = fn(id, v, err)
		if errors.Is(err, StopWalk) {
			return nil
		}
	}
	return err
}

// WalkGraph visits every resource in creation order (dependencies first).
func WalkGraph(g Graph, fn WalkGraphFunc) error {
	order, err := ReverseTopologicalSort(g)
	if err != nil {
		return err
	}
	return walkGraph(g, order, fn)
}
