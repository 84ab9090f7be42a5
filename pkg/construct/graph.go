package construct

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
)

type (
	Graph = graph.Graph[ResourceId, *Resource]
	Edge  = graph.Edge[ResourceId]
)

func resourceHash(r *Resource) ResourceId {
	return r.ID
}

func NewGraph() Graph {
	return Graph(graph.New(resourceHash, graph.Directed()))
}

// NewAcyclicGraph creates a graph that refuses edges which would introduce a cycle. Resource graphs built
// by units are always acyclic: an edge `a -> b` means `a` depends on `b`.
func NewAcyclicGraph() Graph {
	return Graph(graph.New(
		resourceHash,
		graph.Directed(),
		graph.Acyclic(),
		graph.PreventCycles(),
	))
}

// AddResource adds `r` to the graph along with an edge to every resource referenced by its properties.
// Referenced resources must already be present.
func AddResource(g Graph, r *Resource) error {
	if err := r.ID.Validate(); err != nil {
		return err
	}
	if err := g.AddVertex(r); err != nil {
		return fmt.Errorf("could not add resource %s: %w", r.ID, err)
	}
	var errs error
	for _, ref := range r.References() {
		if ref == r.ID {
			errs = errors.Join(errs, fmt.Errorf("resource %s cannot reference itself", r.ID))
			continue
		}
		err := g.AddEdge(r.ID, ref)
		if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			errs = errors.Join(errs, fmt.Errorf("could not add dependency %s -> %s: %w", r.ID, ref, err))
		}
	}
	if errs != nil {
		// Don't leave a partially wired resource behind
		adj, err := g.AdjacencyMap()
		if err == nil {
			for target := range adj[r.ID] {
				_ = g.RemoveEdge(r.ID, target)
			}
		}
		_ = g.RemoveVertex(r.ID)
	}
	return errs
}

// AddDependency adds an explicit `dependent -> dependency` edge. Adding an edge which already exists is a
// no-op.
func AddDependency(g Graph, dependent, dependency ResourceId) error {
	err := g.AddEdge(dependent, dependency)
	if errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return nil
	}
	return err
}

func Hash(g Graph) ([]byte, error) {
	sum := sha256.New()
	err := stringTo(g, sum)
	return sum.Sum(nil), err
}

func String(g Graph) (string, error) {
	w := new(strings.Builder)
	err := stringTo(g, w)
	return w.String(), err
}

func stringTo(g Graph, w io.Writer) error {
	topo, err := TopologicalSort(g)
	if err != nil {
		return err
	}
	adjacent, err := g.AdjacencyMap()
	if err != nil {
		return err
	}

	for _, id := range topo {
		_, err := fmt.Fprintf(w, "%s\n", id)
		if err != nil {
			return err
		}

		targets := make([]ResourceId, 0, len(adjacent[id]))
		for t := range adjacent[id] {
			targets = append(targets, t)
		}
		sort.Sort(sortedIds(targets))

		for _, t := range targets {
			_, err := fmt.Fprintf(w, "-> %s\n", t)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// ResourcesOf returns all the resources whose id matches `selector`, sorted by id.
func ResourcesOf(g Graph, selector ResourceId) ([]*Resource, error) {
	adj, err := g.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	ids := make([]ResourceId, 0, len(adj))
	for id := range adj {
		if selector.Matches(id) {
			ids = append(ids, id)
		}
	}
	sort.Sort(sortedIds(ids))

	resources := make([]*Resource, len(ids))
	for i, id := range ids {
		resources[i], err = g.Vertex(id)
		if err != nil {
			return nil, err
		}
	}
	return resources, nil
}
