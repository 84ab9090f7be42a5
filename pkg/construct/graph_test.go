package construct

import (
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddResource(t *testing.T) {
	bucket := ResourceId{Provider: "aws", Type: "s3_bucket", Namespace: "storage", Name: "origin"}
	policy := ResourceId{Provider: "aws", Type: "s3_bucket_policy", Namespace: "cdn", Name: "Policy"}

	t.Run("wires references", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		g := NewAcyclicGraph()
		require.NoError(AddResource(g, CreateResource(bucket)))
		require.NoError(AddResource(g, &Resource{
			ID:         policy,
			Properties: Properties{"Bucket": Ref{Resource: bucket}},
		}))

		deps, err := DirectDependencies(g, policy)
		require.NoError(err)
		assert.Equal([]ResourceId{bucket}, deps)

		dependents, err := DirectDependents(g, bucket)
		require.NoError(err)
		assert.Equal([]ResourceId{policy}, dependents)
	})

	t.Run("missing reference leaves graph untouched", func(t *testing.T) {
		assert := assert.New(t)
		g := NewAcyclicGraph()
		err := AddResource(g, &Resource{
			ID:         policy,
			Properties: Properties{"Bucket": Ref{Resource: bucket}},
		})
		assert.ErrorIs(err, graph.ErrVertexNotFound)

		order, err := g.Order()
		assert.NoError(err)
		assert.Equal(0, order)
	})

	t.Run("duplicate", func(t *testing.T) {
		g := NewAcyclicGraph()
		require.NoError(t, AddResource(g, CreateResource(bucket)))
		assert.ErrorIs(t, AddResource(g, CreateResource(bucket)), graph.ErrVertexAlreadyExists)
	})
}

func TestTopologicalSort(t *testing.T) {
	id := func(name string) ResourceId {
		return ResourceId{Provider: "p", Type: "t", Name: name}
	}
	g := NewAcyclicGraph()
	for _, n := range []string{"dns", "cdn", "storage", "cert", "policy"} {
		require.NoError(t, g.AddVertex(CreateResource(id(n))))
	}
	for _, e := range [][2]string{
		{"dns", "cdn"},
		{"cdn", "storage"},
		{"cdn", "cert"},
		{"policy", "storage"},
	} {
		require.NoError(t, g.AddEdge(id(e[0]), id(e[1])))
	}

	topo, err := TopologicalSort(g)
	require.NoError(t, err)
	assert.Equal(t, []ResourceId{id("dns"), id("cdn"), id("cert"), id("policy"), id("storage")}, topo)

	reverse, err := ReverseTopologicalSort(g)
	require.NoError(t, err)
	assert.Equal(t, []ResourceId{id("storage"), id("policy"), id("cert"), id("cdn"), id("dns")}, reverse)

	all, err := AllDependencies(g, id("dns"))
	require.NoError(t, err)
	assert.Equal(t, []ResourceId{id("cdn"), id("cert"), id("storage")}, all)
}

func TestWalkGraph_Stop(t *testing.T) {
	g := NewAcyclicGraph()
	a := ResourceId{Provider: "p", Type: "t", Name: "a"}
	b := ResourceId{Provider: "p", Type: "t", Name: "b"}
	require.NoError(t, g.AddVertex(CreateResource(a)))
	require.NoError(t, g.AddVertex(CreateResource(b)))
	require.NoError(t, g.AddEdge(b, a))

	var visited []ResourceId
	err := WalkGraph(g, func(id ResourceId, _ *Resource, nerr error) error {
		visited = append(visited, id)
		return StopWalk
	})
	assert.NoError(t, err)
	assert.Equal(t, []ResourceId{a}, visited)
}
