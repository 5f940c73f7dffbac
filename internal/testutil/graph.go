package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/inmemorystore"
	"github.com/vk/plugflow/internal/inmemorytopology"
	"github.com/vk/plugflow/internal/value"
)

// NewGraph returns an empty graph backed by the in-memory stores, with the
// given nodes added.
func NewGraph(t *testing.T, nodes ...graph.Node) *graph.Graph {
	t.Helper()
	g := graph.New(inmemorytopology.New(), inmemorystore.New())
	for _, n := range nodes {
		require.NoError(t, g.AddNode(n))
	}
	return g
}

// Connect feeds dst from src and fails the test on error.
func Connect(t *testing.T, g *graph.Graph, dst, src *graph.Plug) {
	t.Helper()
	require.NoError(t, g.SetInput(dst, src))
}

// Set sets a static value and fails the test on error.
func Set(t *testing.T, g *graph.Graph, p *graph.Plug, v value.Value) {
	t.Helper()
	require.NoError(t, g.SetValue(p, v))
}
