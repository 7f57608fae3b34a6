package algorithms

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"supplynet/pkg/apperror"
	"supplynet/pkg/domain"
	"supplynet/services/solver-svc/internal/effdist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPhysarum(t *testing.T, cfg PhysarumConfig, seed int64) *Physarum {
	t.Helper()
	p, err := NewPhysarum(cfg, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return p
}

func noPruneConfig() PhysarumConfig {
	cfg := DefaultPhysarumConfig()
	cfg.MinCapacity = 0
	return cfg
}

func TestPhysarum_Canonical(t *testing.T) {
	for _, seed := range []int64{1, 2, 3, 42} {
		g, demand := domain.SampleNetwork()
		p := newPhysarum(t, noPruneConfig(), seed)

		result, err := p.Solve(context.Background(), g, demand, effdist.Canonical())
		require.NoError(t, err)

		assert.True(t, result.Converged, "seed %d", seed)
		assert.Equal(t, StatusConverged, result.Status)
		assert.LessOrEqual(t, result.Iterations, DefaultPhysarumMaxIterations)
		assert.Len(t, result.Delta, result.Iterations)
		assert.Empty(t, result.PrunedEdges)

		assert.InDelta(t, 17.0, g.Outflow(1), balanceTolerance)
		assert.InDelta(t, 16.0, g.Outflow(2), balanceTolerance)
		assert.InDelta(t, 12.0, g.Outflow(3), balanceTolerance)
		assert.InDelta(t, 27.0, g.Inflow(8), balanceTolerance)
		assert.InDelta(t, 18.0, g.Inflow(9), balanceTolerance)

		assertNonNegative(t, g)
		assert.Greater(t, result.TotalCost, 0.0)
	}
}

func TestPhysarum_ReportingState(t *testing.T) {
	g, demand := domain.SampleNetwork()
	p := newPhysarum(t, noPruneConfig(), 1)

	result, err := p.Solve(context.Background(), g, demand, effdist.Canonical())
	require.NoError(t, err)
	require.Len(t, result.Subgraphs, 3)

	for _, e := range g.SortedEdges() {
		assert.GreaterOrEqual(t, e.Conductivity, 1e-9)
		assert.GreaterOrEqual(t, e.Length, 0.0)
	}
	for _, sg := range result.Subgraphs {
		for _, e := range sg.Edges() {
			assert.GreaterOrEqual(t, e.Conductivity, 1e-9)
			assert.GreaterOrEqual(t, e.Length, 0.0)
		}
	}
}

func TestPhysarum_ExtraIterationStable(t *testing.T) {
	g, demand := domain.SampleNetwork()
	p := newPhysarum(t, noPruneConfig(), 1)
	model := effdist.Canonical()

	result, err := p.Solve(context.Background(), g, demand, model)
	require.NoError(t, err)
	require.True(t, result.Converged)

	delta, err := p.iterate(context.Background(), g, result.Subgraphs, model)
	require.NoError(t, err)
	assert.LessOrEqual(t, delta, p.Config().Epsilon)
}

func TestPhysarum_Deterministic(t *testing.T) {
	run := func(parallel bool) (map[domain.EdgeKey]float64, *PhysarumResult) {
		g, demand := domain.SampleNetwork()
		cfg := DefaultPhysarumConfig()
		cfg.Parallel = parallel
		cfg.Workers = 2
		p := newPhysarum(t, cfg, 7)
		result, err := p.Solve(context.Background(), g, demand, effdist.Canonical())
		require.NoError(t, err)
		return flows(g), result
	}

	first, r1 := run(false)
	second, r2 := run(false)
	parallel, r3 := run(true)

	assert.Equal(t, first, second)
	assert.Equal(t, first, parallel)
	assert.Equal(t, r1.Delta, r2.Delta)
	assert.Equal(t, r1.Delta, r3.Delta)
}

func TestPhysarum_Disconnected(t *testing.T) {
	g, demand := disconnectedNetwork()
	p := newPhysarum(t, noPruneConfig(), 1)

	result, err := p.Solve(context.Background(), g, demand, effdist.Canonical())
	require.NoError(t, err)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, apperror.CodeUnreachableDemand, result.Warnings[0].Code)
	assert.InDelta(t, 5.0, g.Inflow(3), balanceTolerance)
	assert.Zero(t, g.Inflow(4))
	assert.InDelta(t, 5.0, g.Outflow(1), balanceTolerance)
}

func TestPhysarum_PruneAll(t *testing.T) {
	g, demand := domain.SampleNetwork()
	cfg := DefaultPhysarumConfig()
	cfg.PruneInterval = 1
	cfg.MinCapacity = math.MaxFloat64
	p := newPhysarum(t, cfg, 1)

	result, err := p.Solve(context.Background(), g, demand, effdist.Canonical())
	require.NoError(t, err)

	assert.Zero(t, g.EdgeCount())
	assert.Len(t, result.PrunedEdges, 17)
	for _, sg := range result.Subgraphs {
		assert.Zero(t, sg.EdgeCount())
	}
	assert.Zero(t, g.TotalFlow())
	assert.Zero(t, g.Outflow(1))
}

func TestPhysarum_PruneIsPermanent(t *testing.T) {
	g, demand := domain.SampleNetwork()
	cfg := DefaultPhysarumConfig()
	cfg.PruneInterval = 2
	cfg.MinCapacity = 3
	cfg.Epsilon = 1e-9
	cfg.MaxIterations = 30
	p := newPhysarum(t, cfg, 3)

	result, err := p.Solve(context.Background(), g, demand, effdist.Canonical())
	require.NoError(t, err)

	for i := 1; i < len(result.EdgeCounts); i++ {
		assert.LessOrEqual(t, result.EdgeCounts[i], result.EdgeCounts[i-1])
	}
	for _, key := range result.PrunedEdges {
		_, ok := g.GetEdge(key.From, key.To)
		assert.False(t, ok, "edge %s reappeared", key)
		for _, sg := range result.Subgraphs {
			_, ok := sg.Edge(key.From, key.To)
			assert.False(t, ok)
		}
	}
	assert.Equal(t, g.EdgeCount(), result.EdgeCounts[len(result.EdgeCounts)-1])
}

func TestPhysarum_IterationLimit(t *testing.T) {
	g, demand := domain.SampleNetwork()
	cfg := noPruneConfig()
	cfg.MaxIterations = 2
	cfg.Epsilon = 1e-12
	p := newPhysarum(t, cfg, 1)

	result, err := p.Solve(context.Background(), g, demand, effdist.Canonical())
	require.NoError(t, err)
	assert.Equal(t, StatusIterationLimit, result.Status)
	assert.False(t, result.Converged)
	assert.Equal(t, 2, result.Iterations)
}

func TestPhysarum_Canceled(t *testing.T) {
	g, demand := domain.SampleNetwork()
	p := newPhysarum(t, DefaultPhysarumConfig(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := p.Solve(ctx, g, demand, effdist.Canonical())
	assert.True(t, errors.Is(err, ErrContextCanceled))
	require.NotNil(t, result)
	assert.Equal(t, StatusCanceled, result.Status)
	assert.Zero(t, result.Iterations)
}

func TestPhysarum_InvalidInput(t *testing.T) {
	g, demand := domain.SampleNetwork()
	p := newPhysarum(t, DefaultPhysarumConfig(), 1)
	ctx := context.Background()

	_, err := p.Solve(ctx, nil, demand, effdist.Canonical())
	assert.ErrorIs(t, err, ErrNilGraph)

	_, err = p.Solve(ctx, g, nil, effdist.Canonical())
	assert.ErrorIs(t, err, ErrNilDemand)

	_, err = p.Solve(ctx, g, demand, nil)
	assert.ErrorIs(t, err, ErrNilModel)
}

func TestNewPhysarum_Validation(t *testing.T) {
	_, err := NewPhysarum(DefaultPhysarumConfig(), nil)
	assert.ErrorIs(t, err, ErrNilRand)

	tests := []struct {
		name   string
		mutate func(*PhysarumConfig)
	}{
		{"zero epsilon", func(c *PhysarumConfig) { c.Epsilon = 0 }},
		{"zero iterations", func(c *PhysarumConfig) { c.MaxIterations = 0 }},
		{"negative prune interval", func(c *PhysarumConfig) { c.PruneInterval = -1 }},
		{"negative min capacity", func(c *PhysarumConfig) { c.MinCapacity = -1 }},
		{"negative workers", func(c *PhysarumConfig) { c.Workers = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPhysarumConfig()
			tt.mutate(&cfg)
			_, err := NewPhysarum(cfg, rand.New(rand.NewSource(1)))
			assert.True(t, apperror.Is(err, apperror.CodeInvalidConfig))
		})
	}
}

func TestUpdateLengths_NonNegative(t *testing.T) {
	g, demand := domain.SampleNetwork()
	p := newPhysarum(t, noPruneConfig(), 1)

	// E - large*Q drives lengths negative before clamping
	model := effdist.Linear(1, -100)
	_, err := p.Solve(context.Background(), g, demand, model)
	require.NoError(t, err)

	for _, e := range g.SortedEdges() {
		assert.GreaterOrEqual(t, e.Length, 0.0)
	}
}
