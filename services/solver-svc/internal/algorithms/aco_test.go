package algorithms

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"supplynet/pkg/apperror"
	"supplynet/pkg/domain"
	"supplynet/services/solver-svc/internal/effdist"
	"supplynet/services/solver-svc/internal/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAntColony(t *testing.T, cfg ACOConfig, seed int64) *AntColony {
	t.Helper()
	a, err := NewAntColony(cfg, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return a
}

func TestAntColony_Canonical(t *testing.T) {
	g, demand := domain.SampleNetwork()
	a := newAntColony(t, DefaultACOConfig(), 1)

	result, err := a.Solve(context.Background(), g, demand, effdist.Canonical())
	require.NoError(t, err)

	assertBalanced(t, g, demand)
	assertNonNegative(t, g)

	assert.Contains(t, []Status{StatusConverged, StatusStagnated, StatusIterationLimit}, result.Status)
	assert.Len(t, result.CostHistory, result.Generations)
	assert.Len(t, result.BestCost, 3)
	assert.Empty(t, result.Warnings)

	// supplier 2 has no demand at retail 9
	assert.Len(t, result.Paths, 5)
	for _, p := range result.Paths {
		assert.Equal(t, p.Supplier, p.Nodes[0])
		assert.Equal(t, p.Retail, p.Nodes[len(p.Nodes)-1])
		assert.Equal(t, demand.Volume(p.Supplier, p.Retail), p.Volume)
	}

	sum := 0.0
	for _, c := range result.BestCost {
		sum += c
	}
	assert.InDelta(t, sum, result.TotalCost, 1e-9)
	assert.Greater(t, result.SharedCost, 0.0)
}

func TestAntColony_BestTotalNeverIncreases(t *testing.T) {
	g, demand := domain.SampleNetwork()
	cfg := DefaultACOConfig()
	cfg.Epsilon = 0
	cfg.StagnationLimit = 1000
	cfg.Generations = 20
	a := newAntColony(t, cfg, 5)

	result, err := a.Solve(context.Background(), g, demand, effdist.Canonical())
	require.NoError(t, err)

	require.NotEmpty(t, result.CostHistory)
	for i := 1; i < len(result.CostHistory); i++ {
		assert.LessOrEqual(t, result.CostHistory[i], result.CostHistory[i-1])
	}
	assert.InDelta(t, result.CostHistory[len(result.CostHistory)-1], result.TotalCost, 1e-9)
}

func TestAntColony_Deterministic(t *testing.T) {
	run := func() (map[domain.EdgeKey]float64, *ACOResult) {
		g, demand := domain.SampleNetwork()
		a := newAntColony(t, DefaultACOConfig(), 11)
		result, err := a.Solve(context.Background(), g, demand, effdist.Canonical())
		require.NoError(t, err)
		return flows(g), result
	}

	f1, r1 := run()
	f2, r2 := run()

	assert.Equal(t, f1, f2)
	assert.Equal(t, r1.CostHistory, r2.CostHistory)
	assert.Equal(t, r1.Paths, r2.Paths)
}

func TestAntColony_Disconnected(t *testing.T) {
	g, demand := disconnectedNetwork()
	a := newAntColony(t, DefaultACOConfig(), 1)

	result, err := a.Solve(context.Background(), g, demand, effdist.Canonical())
	require.NoError(t, err)

	assert.InDelta(t, 5.0, g.Inflow(3), 1e-9)
	assert.Zero(t, g.Inflow(4))
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, apperror.CodeUnreachableDemand, result.Warnings[0].Code)
}

func TestAntColony_NoPathWarnsIncomplete(t *testing.T) {
	g := domain.NewGraph()
	g.AddNode(&domain.Node{ID: 1, Type: domain.NodeTypeSupplier})
	g.AddNode(&domain.Node{ID: 2, Type: domain.NodeTypeRetail})
	demand := domain.Demand{1: {2: 3}}

	a := newAntColony(t, DefaultACOConfig(), 1)
	result, err := a.Solve(context.Background(), g, demand, effdist.Canonical())
	require.NoError(t, err)

	// the only target is unreachable: no paths, one unreachable warning
	assert.Empty(t, result.Paths)
	require.Len(t, result.Warnings, 1)
	assert.True(t, apperror.IsWarning(result.Warnings[0]))
}

func TestAntColony_Canceled(t *testing.T) {
	g, demand := domain.SampleNetwork()
	a := newAntColony(t, DefaultACOConfig(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := a.Solve(ctx, g, demand, effdist.Canonical())
	assert.True(t, errors.Is(err, ErrContextCanceled))
	require.NotNil(t, result)
	assert.Equal(t, StatusCanceled, result.Status)
	assert.Zero(t, g.TotalFlow())
	assert.Len(t, result.Warnings, 3, "every supplier lacks a complete solution")
}

func TestAntColony_GenerationCap(t *testing.T) {
	g, demand := domain.SampleNetwork()
	cfg := DefaultACOConfig()
	cfg.Generations = 1
	a := newAntColony(t, cfg, 1)

	result, err := a.Solve(context.Background(), g, demand, effdist.Canonical())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generations)
	assert.Equal(t, StatusIterationLimit, result.Status)
	assertBalanced(t, g, demand)
}

func TestAntColony_InitPheromones(t *testing.T) {
	g, demand := domain.SampleNetwork()
	a := newAntColony(t, DefaultACOConfig(), 1)

	subgraphs, err := graph.Decompose(g, demand, a.rng, graph.DefaultDecomposeOptions())
	require.NoError(t, err)
	a.initPheromones(subgraphs)

	e, _ := subgraphs[0].Edge(1, 8)
	assert.Equal(t, DefaultBoostPheromone, e.Pheromone)
	e, _ = subgraphs[0].Edge(1, 4)
	assert.GreaterOrEqual(t, e.Pheromone, 1.0)
	assert.LessOrEqual(t, e.Pheromone, 1.0+DefaultJitterPheromone)
}

func TestAntColony_EvaporateAndReinforce(t *testing.T) {
	g, demand := domain.SampleNetwork()
	cfg := DefaultACOConfig()
	cfg.MinPheromone = 0.5
	a := newAntColony(t, cfg, 1)

	subgraphs, err := graph.Decompose(g, demand, a.rng, graph.DefaultDecomposeOptions())
	require.NoError(t, err)
	sg := subgraphs[0]

	e14, _ := sg.Edge(1, 4)
	e48, _ := sg.Edge(4, 8)
	e15, _ := sg.Edge(1, 5)
	e14.Pheromone, e48.Pheromone, e15.Pheromone = 2, 2, 0.52

	a.evaporate(sg)
	assert.InDelta(t, 1.8, e14.Pheromone, 1e-12)
	assert.InDelta(t, 0.5, e15.Pheromone, 1e-12, "floored at MinPheromone")

	a.reinforce(sg, &antSolution{
		paths: []RoutedPath{{Supplier: 1, Retail: 8, Nodes: []int64{1, 4, 8}, Volume: 5}},
		cost:  50,
	})
	assert.InDelta(t, 1.8+2, e14.Pheromone, 1e-12)
	assert.InDelta(t, 1.8+2, e48.Pheromone, 1e-12)

	// zero cost is clamped to MinCost
	a.reinforce(sg, &antSolution{paths: []RoutedPath{{Nodes: []int64{1, 5}}}, cost: 0})
	assert.InDelta(t, 0.5+cfg.Q/cfg.MinCost, e15.Pheromone, 1)
}

func TestAntColony_EliteCount(t *testing.T) {
	tests := []struct {
		ratio float64
		n     int
		want  int
	}{
		{0.3, 15, 5},
		{0.3, 1, 1},
		{0.3, 0, 0},
		{0, 10, 10},
		{1, 10, 10},
		{0.01, 10, 1},
	}

	for _, tt := range tests {
		cfg := DefaultACOConfig()
		cfg.TopRatio = tt.ratio
		a := newAntColony(t, cfg, 1)
		assert.Equal(t, tt.want, a.eliteCount(tt.n), "ratio %v n %d", tt.ratio, tt.n)
	}
}

func TestAntColony_WalkFallsBackToShortestPath(t *testing.T) {
	// 1 -> 2 -> 4 is a dead end for target 3; only 1 -> 3 reaches it
	g := domain.NewGraph()
	g.AddNode(&domain.Node{ID: 1, Type: domain.NodeTypeSupplier})
	g.AddNode(&domain.Node{ID: 2, Type: domain.NodeTypeDC})
	g.AddNode(&domain.Node{ID: 3, Type: domain.NodeTypeRetail})
	g.AddNode(&domain.Node{ID: 4, Type: domain.NodeTypeRetail})
	g.AddEdge(&domain.Edge{From: 1, To: 2})
	g.AddEdge(&domain.Edge{From: 2, To: 4})
	g.AddEdge(&domain.Edge{From: 1, To: 3})

	cfg := DefaultACOConfig()
	cfg.MaxRetries = 0
	a := newAntColony(t, cfg, 1)

	subgraphs, err := graph.Decompose(g, domain.Demand{1: {3: 2}}, a.rng, graph.DefaultDecomposeOptions())
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 3}, a.walk(subgraphs[0], 3))
}

func TestFastPow(t *testing.T) {
	assert.Equal(t, 1.0, fastPow(3, 0))
	assert.Equal(t, 3.0, fastPow(3, 1))
	assert.Equal(t, 9.0, fastPow(3, 2))
	assert.InDelta(t, 27.0, fastPow(3, 3), 1e-12)
}

func TestNewAntColony_Validation(t *testing.T) {
	_, err := NewAntColony(DefaultACOConfig(), nil)
	assert.ErrorIs(t, err, ErrNilRand)

	tests := []struct {
		name   string
		mutate func(*ACOConfig)
	}{
		{"rho zero", func(c *ACOConfig) { c.Rho = 0 }},
		{"rho one", func(c *ACOConfig) { c.Rho = 1 }},
		{"no ants", func(c *ACOConfig) { c.Ants = 0 }},
		{"no generations", func(c *ACOConfig) { c.Generations = 0 }},
		{"top ratio above one", func(c *ACOConfig) { c.TopRatio = 1.5 }},
		{"zero min cost", func(c *ACOConfig) { c.MinCost = 0 }},
		{"negative alpha", func(c *ACOConfig) { c.Alpha = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultACOConfig()
			tt.mutate(&cfg)
			_, err := NewAntColony(cfg, rand.New(rand.NewSource(1)))
			assert.True(t, apperror.Is(err, apperror.CodeInvalidConfig))
		})
	}
}
