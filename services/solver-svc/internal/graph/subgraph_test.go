package graph

import (
	"math/rand"
	"testing"

	"supplynet/pkg/apperror"
	"supplynet/pkg/domain"
	"supplynet/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Init("error")
}

func decomposeSample(t *testing.T, seed int64) (*domain.Graph, []*Subgraph) {
	t.Helper()
	g, demand := domain.SampleNetwork()
	subgraphs, err := Decompose(g, demand, rand.New(rand.NewSource(seed)), DefaultDecomposeOptions())
	require.NoError(t, err)
	return g, subgraphs
}

func TestDecompose_Sample(t *testing.T) {
	_, subgraphs := decomposeSample(t, 1)
	require.Len(t, subgraphs, 3)

	tests := []struct {
		supplier int64
		nodes    []int64
		edges    int
		total    float64
	}{
		{1, []int64{1, 4, 5, 6, 8, 9}, 10, 17},
		{2, []int64{2, 5, 6, 7, 8, 9}, 7, 16},
		{3, []int64{3, 5, 7, 8, 9}, 6, 12},
	}

	for i, tt := range tests {
		sg := subgraphs[i]
		assert.Equal(t, tt.supplier, sg.Supplier())
		assert.Equal(t, tt.nodes, sg.NodeIDs())
		assert.Equal(t, tt.edges, sg.EdgeCount())
		assert.InDelta(t, tt.total, sg.TotalDemand(), 1e-12)
		assert.Empty(t, sg.Unreachable())
	}
}

func TestDecompose_EdgeStateInit(t *testing.T) {
	g, subgraphs := decomposeSample(t, 7)

	for _, sg := range subgraphs {
		for _, e := range sg.Edges() {
			assert.GreaterOrEqual(t, e.Conductivity, ConductivityFloor)
			assert.LessOrEqual(t, e.Conductivity, 1.0)
			assert.Zero(t, e.Flow)
			assert.Zero(t, e.PrevConductivity)
			assert.Equal(t, 1.0, e.Length)
			assert.GreaterOrEqual(t, e.Pheromone, 1.0)
			assert.LessOrEqual(t, e.Pheromone, 1.0+DefaultPheromoneJitter)
		}
	}

	// shared graph untouched
	for _, e := range g.SortedEdges() {
		assert.Zero(t, e.Conductivity)
		assert.Zero(t, e.Pheromone)
	}
}

func TestDecompose_OwnsEdgeState(t *testing.T) {
	_, subgraphs := decomposeSample(t, 1)

	a, ok := subgraphs[0].Edge(5, 8)
	require.True(t, ok)
	b, ok := subgraphs[1].Edge(5, 8)
	require.True(t, ok)

	assert.NotSame(t, a, b)
	a.Flow = 42
	assert.Zero(t, b.Flow)
}

func TestDecompose_Deterministic(t *testing.T) {
	_, first := decomposeSample(t, 99)
	_, second := decomposeSample(t, 99)

	for i := range first {
		ea, eb := first[i].Edges(), second[i].Edges()
		require.Len(t, eb, len(ea))
		for j := range ea {
			assert.Equal(t, ea[j].Conductivity, eb[j].Conductivity)
			assert.Equal(t, ea[j].Pheromone, eb[j].Pheromone)
		}
	}
}

func TestDecompose_Unreachable(t *testing.T) {
	g := domain.NewGraph()
	g.AddNode(&domain.Node{ID: 1, Type: domain.NodeTypeSupplier})
	g.AddNode(&domain.Node{ID: 2, Type: domain.NodeTypeDC})
	g.AddNode(&domain.Node{ID: 3, Type: domain.NodeTypeRetail})
	g.AddNode(&domain.Node{ID: 4, Type: domain.NodeTypeRetail})
	g.AddEdge(&domain.Edge{From: 1, To: 2})
	g.AddEdge(&domain.Edge{From: 2, To: 3})

	demand := domain.Demand{1: {3: 5, 4: 7}}

	subgraphs, err := Decompose(g, demand, rand.New(rand.NewSource(1)), DefaultDecomposeOptions())
	require.NoError(t, err)
	require.Len(t, subgraphs, 1)

	sg := subgraphs[0]
	assert.Equal(t, []int64{4}, sg.Unreachable())
	assert.InDelta(t, 5.0, sg.TotalDemand(), 1e-12)
	assert.InDelta(t, 7.0, sg.Volume(4), 1e-12)
	assert.Equal(t, []int64{3}, sg.Targets())
	assert.False(t, sg.Reachable(4))
}

func TestDecompose_Errors(t *testing.T) {
	g, demand := domain.SampleNetwork()
	rng := rand.New(rand.NewSource(1))
	opts := DefaultDecomposeOptions()

	_, err := Decompose(nil, demand, rng, opts)
	assert.True(t, apperror.Is(err, apperror.CodeNilInput))

	_, err = Decompose(g, nil, rng, opts)
	assert.True(t, apperror.Is(err, apperror.CodeNilInput))

	_, err = Decompose(g, demand, nil, opts)
	assert.True(t, apperror.Is(err, apperror.CodeNilInput))

	_, err = Decompose(g, domain.Demand{42: {8: 1}}, rng, opts)
	assert.True(t, apperror.Is(err, apperror.CodeUnknownNode))

	_, err = Decompose(g, domain.Demand{4: {8: 1}}, rng, opts)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidDemand))
}

func TestSubgraph_RHS(t *testing.T) {
	_, subgraphs := decomposeSample(t, 1)
	sg := subgraphs[0]

	assert.InDelta(t, -17.0, sg.RHS(1), 1e-12)
	assert.InDelta(t, 5.0, sg.RHS(8), 1e-12)
	assert.InDelta(t, 12.0, sg.RHS(9), 1e-12)
	assert.Zero(t, sg.RHS(4))
	assert.Zero(t, sg.RHS(7))
}

func TestSubgraph_NeighborsAndRemove(t *testing.T) {
	_, subgraphs := decomposeSample(t, 1)
	sg := subgraphs[0]

	assert.Equal(t, []int64{1, 4, 5, 6}, sg.Neighbors(9))
	assert.Equal(t, []int64{4, 5, 6, 8, 9}, sg.Successors(1))
	assert.Equal(t, []int64{1, 4, 5}, sg.Predecessors(8))

	assert.True(t, sg.RemoveEdge(1, 9))
	assert.False(t, sg.RemoveEdge(1, 9))
	_, ok := sg.Edge(1, 9)
	assert.False(t, ok)
	assert.Equal(t, 9, sg.EdgeCount())
	assert.Equal(t, []int64{4, 5, 6}, sg.Neighbors(9))
}

func TestSubgraph_DemandIsCopy(t *testing.T) {
	_, subgraphs := decomposeSample(t, 1)
	d := subgraphs[0].Demand()
	d[8] = 1000
	assert.InDelta(t, 5.0, subgraphs[0].Volume(8), 1e-12)
}

func TestEdgeState_Weight(t *testing.T) {
	e := &EdgeState{Conductivity: 2, Length: 4}
	assert.InDelta(t, 0.5, e.Weight(), 1e-12)

	e.Length = 0
	assert.InDelta(t, 2/LengthFloor, e.Weight(), 1)
}
