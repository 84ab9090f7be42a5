package graphtest

import (
	"errors"
	"strings"
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/klothoplatform/spa-stack/pkg/construct"
	"github.com/stretchr/testify/assert"
)

func AssertGraphEqual(t *testing.T, expect, actual construct.Graph, message string, args ...any) {
	t.Helper()
	assert := assert.New(t)
	must := func(v any, err error) any {
		if err != nil {
			t.Fatal(err)
		}
		return v
	}

	msg := func(subMessage string) []any {
		if message == "" {
			return []any{subMessage}
		}
		return append([]any{message + ": " + subMessage}, args...)
	}

	assert.Equal(must(expect.Order()), must(actual.Order()), msg("order (# of nodes) mismatch")...)
	assert.Equal(must(expect.Size()), must(actual.Size()), msg("size (# of edges) mismatch")...)

	// Use the string representation to compare the graphs so that the diffs are nicer
	eStr := must(construct.String(expect))
	aStr := must(construct.String(actual))
	assert.Equal(eStr, aStr, msg("graph mismatch")...)
}

func ParseId(t *testing.T, str string) construct.ResourceId {
	t.Helper()
	id, err := construct.ParseId(str)
	if err != nil {
		t.Fatalf("failed to parse resource id %q: %v", str, err)
	}
	return id
}

// MakeGraph is a utility function for creating a graph from a list of elements which can be of types:
// - ResourceId : adds an empty resource with the given ID
// - *Resource : adds the given resource (without wiring its references)
// - Edge : adds the given edge
// - string : parses the string as either a ResourceId or an edge (`a -> b`) and adds it as above
//
// Vertices referenced by edges are created if they don't exist yet.
func MakeGraph(t *testing.T, g construct.Graph, elements ...any) construct.Graph {
	t.Helper()
	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	ensure := func(id construct.ResourceId) {
		if _, err := g.Vertex(id); errors.Is(err, graph.ErrVertexNotFound) {
			must(g.AddVertex(construct.CreateResource(id)))
		}
	}
	for _, e := range elements {
		switch e := e.(type) {
		case construct.ResourceId:
			must(g.AddVertex(construct.CreateResource(e)))

		case *construct.Resource:
			must(g.AddVertex(e))

		case construct.Edge:
			ensure(e.Source)
			ensure(e.Target)
			must(g.AddEdge(e.Source, e.Target))

		case string:
			var id construct.ResourceId
			idErr := id.UnmarshalText([]byte(e))
			if idErr == nil {
				must(g.AddVertex(construct.CreateResource(id)))
				continue
			}
			source, target, found := strings.Cut(e, " -> ")
			if !found {
				t.Fatalf("invalid element %q: %v", e, idErr)
			}
			src, tgt := ParseId(t, source), ParseId(t, target)
			ensure(src)
			ensure(tgt)
			must(g.AddEdge(src, tgt))

		default:
			t.Fatalf("invalid element of type %T", e)
		}
	}
	return g
}
