// Package diff compares two synthesized resource graphs.
package diff

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/klothoplatform/spa-stack/pkg/construct"
	"github.com/r3labs/diff"
)

type (
	ChangeType string

	// ResourceChange is a resource present in only one graph, or present in both with different properties.
	ResourceChange struct {
		ID   construct.ResourceId
		Type ChangeType
		// Properties lists the property-level changes of an update.
		Properties diff.Changelog
	}

	EdgeChange struct {
		Source construct.ResourceId
		Target construct.ResourceId
		Type   ChangeType
	}

	Result struct {
		Resources []ResourceChange
		Edges     []EdgeChange
	}
)

const (
	Create ChangeType = diff.CREATE
	Update ChangeType = diff.UPDATE
	Delete ChangeType = diff.DELETE
)

func (r Result) IsEmpty() bool {
	return len(r.Resources) == 0 && len(r.Edges) == 0
}

// Files compares two graph files written by [construct.GraphToYAML].
func Files(oldPath, newPath string) (Result, error) {
	oldGraph, err := readGraph(oldPath)
	if err != nil {
		return Result{}, err
	}
	newGraph, err := readGraph(newPath)
	if err != nil {
		return Result{}, err
	}
	return compare(oldGraph, newGraph)
}

func readGraph(path string) (construct.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g := construct.NewGraph()
	if err := construct.AddFromYAML(g, f); err != nil {
		return nil, fmt.Errorf("could not read graph from %s: %w", path, err)
	}
	return g, nil
}

// Graphs compares two in-memory graphs. Both are normalized through their YAML form first so that intrinsic
// values compare the same as they would when read from files.
func Graphs(oldGraph, newGraph construct.Graph) (Result, error) {
	oldNorm, err := normalize(oldGraph)
	if err != nil {
		return Result{}, err
	}
	newNorm, err := normalize(newGraph)
	if err != nil {
		return Result{}, err
	}
	return compare(oldNorm, newNorm)
}

func normalize(g construct.Graph) (construct.Graph, error) {
	buf := new(bytes.Buffer)
	if err := construct.GraphToYAML(g, buf); err != nil {
		return nil, err
	}
	norm := construct.NewGraph()
	return norm, construct.AddFromYAML(norm, buf)
}

func compare(oldGraph, newGraph construct.Graph) (Result, error) {
	oldAdj, err := oldGraph.AdjacencyMap()
	if err != nil {
		return Result{}, err
	}
	newAdj, err := newGraph.AdjacencyMap()
	if err != nil {
		return Result{}, err
	}

	var result Result
	var errs error
	for _, id := range unionIds(oldAdj, newAdj) {
		_, inOld := oldAdj[id]
		_, inNew := newAdj[id]
		switch {
		case !inOld:
			result.Resources = append(result.Resources, ResourceChange{ID: id, Type: Create})
		case !inNew:
			result.Resources = append(result.Resources, ResourceChange{ID: id, Type: Delete})
		default:
			before, err := oldGraph.Vertex(id)
			if err != nil {
				errs = errors.Join(errs, err)
				continue
			}
			after, err := newGraph.Vertex(id)
			if err != nil {
				errs = errors.Join(errs, err)
				continue
			}
			// a Differ accumulates its changelog across calls
			differ, err := diff.NewDiffer(diff.SliceOrdering(true))
			if err != nil {
				return Result{}, err
			}
			changes, err := differ.Diff(diffable(before), diffable(after))
			if err != nil {
				errs = errors.Join(errs, fmt.Errorf("could not diff %s: %w", id, err))
				continue
			}
			if len(changes) > 0 {
				result.Resources = append(result.Resources, ResourceChange{ID: id, Type: Update, Properties: changes})
			}
		}

		for _, target := range unionIds(oldAdj[id], newAdj[id]) {
			_, inOld := oldAdj[id][target]
			_, inNew := newAdj[id][target]
			switch {
			case !inOld:
				result.Edges = append(result.Edges, EdgeChange{Source: id, Target: target, Type: Create})
			case !inNew:
				result.Edges = append(result.Edges, EdgeChange{Source: id, Target: target, Type: Delete})
			}
		}
	}
	return result, errs
}

func diffable(r *construct.Resource) map[string]any {
	return map[string]any{
		"imported":   r.Imported,
		"properties": map[string]any(r.Properties),
	}
}

func unionIds[V any](a, b map[construct.ResourceId]V) []construct.ResourceId {
	ids := make([]construct.ResourceId, 0, len(a)+len(b))
	for id := range a {
		ids = append(ids, id)
	}
	for id := range b {
		if _, ok := a[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return construct.ResourceIdLess(ids[i], ids[j]) })
	return ids
}
