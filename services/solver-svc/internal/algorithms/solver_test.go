package algorithms

import (
	"context"
	"testing"
	"time"

	"supplynet/pkg/config"
	"supplynet/pkg/domain"
	"supplynet/services/solver-svc/internal/effdist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolve(t *testing.T) {
	algorithms := []struct {
		name string
		algo string
	}{
		{"ppa", AlgorithmPPA},
		{"aco", AlgorithmACO},
		{"dijkstra", AlgorithmDijkstra},
		{"astar", AlgorithmAStar},
		{"empty_defaults_to_ppa", ""},
	}

	for _, tt := range algorithms {
		t.Run(tt.name, func(t *testing.T) {
			g, demand := domain.SampleNetwork()
			opts := DefaultSolverOptions().WithAlgorithm(tt.algo).WithSeed(3)

			result := Solve(context.Background(), g, demand, effdist.Canonical(), opts)

			require.NoError(t, result.Error)
			assert.Equal(t, tt.algo, result.Algorithm)
			assert.NotEqual(t, StatusError, result.Status)
			assert.Greater(t, result.TotalCost, 0.0)
			assert.Greater(t, result.Duration, time.Duration(0))
			assertBalanced(t, g, demand)
		})
	}
}

func TestSolve_AlgorithmSpecificResult(t *testing.T) {
	model := effdist.Canonical()

	g, demand := domain.SampleNetwork()
	r := Solve(context.Background(), g, demand, model, DefaultSolverOptions())
	require.NotNil(t, r.Physarum)
	assert.Equal(t, r.Physarum.Iterations, r.Iterations)
	assert.Len(t, r.Subgraphs, 3)

	g, demand = domain.SampleNetwork()
	r = Solve(context.Background(), g, demand, model, DefaultSolverOptions().WithAlgorithm(AlgorithmACO))
	require.NotNil(t, r.ACO)
	assert.Equal(t, r.ACO.Paths, r.Paths)

	g, demand = domain.SampleNetwork()
	r = Solve(context.Background(), g, demand, model, DefaultSolverOptions().WithAlgorithm(AlgorithmDijkstra))
	require.NotNil(t, r.Baseline)
	assert.Nil(t, r.Subgraphs)
}

func TestSolve_Errors(t *testing.T) {
	g, demand := domain.SampleNetwork()
	model := effdist.Canonical()
	ctx := context.Background()

	tests := []struct {
		name    string
		g       *domain.Graph
		demand  domain.Demand
		model   *effdist.Model
		opts    *SolverOptions
		wantErr error
	}{
		{"nil graph", nil, demand, model, nil, ErrNilGraph},
		{"nil demand", g, nil, model, nil, ErrNilDemand},
		{"nil model", g, demand, nil, nil, ErrNilModel},
		{"unknown algorithm", g, demand, model, DefaultSolverOptions().WithAlgorithm("genetic"), ErrUnknownAlgorithm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Solve(ctx, tt.g, tt.demand, tt.model, tt.opts)
			assert.ErrorIs(t, result.Error, tt.wantErr)
			assert.Equal(t, StatusError, result.Status)
		})
	}
}

func TestSolve_InvalidHyperparameters(t *testing.T) {
	g, demand := domain.SampleNetwork()
	opts := DefaultSolverOptions()
	opts.Physarum.MaxIterations = 0

	result := Solve(context.Background(), g, demand, effdist.Canonical(), opts)
	assert.Error(t, result.Error)
	assert.Equal(t, StatusError, result.Status)
}

func TestSolve_Timeout(t *testing.T) {
	g, demand := domain.SampleNetwork()
	opts := DefaultSolverOptions().WithTimeout(time.Nanosecond)
	opts.Physarum.Epsilon = 1e-300
	opts.Physarum.MaxIterations = 1_000_000

	result := Solve(context.Background(), g, demand, effdist.Canonical(), opts)
	assert.ErrorIs(t, result.Error, ErrTimeout)
	assert.Equal(t, StatusCanceled, result.Status)
}

func TestSolve_SeedControlsResult(t *testing.T) {
	run := func(seed int64) map[domain.EdgeKey]float64 {
		g, demand := domain.SampleNetwork()
		r := Solve(context.Background(), g, demand, effdist.Canonical(),
			DefaultSolverOptions().WithAlgorithm(AlgorithmACO).WithSeed(seed))
		require.NoError(t, r.Error)
		return flows(g)
	}

	assert.Equal(t, run(9), run(9))
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Solver.Algorithm = AlgorithmACO
	cfg.Solver.Seed = 77
	cfg.ACO.Ants = 4
	cfg.Physarum.PruneInterval = 5

	opts := OptionsFromConfig(cfg)

	assert.Equal(t, AlgorithmACO, opts.Algorithm)
	assert.Equal(t, int64(77), opts.Seed)
	assert.Equal(t, 4, opts.ACO.Ants)
	assert.Equal(t, 5, opts.Physarum.PruneInterval)
	assert.Equal(t, DefaultMinCost, opts.ACO.MinCost)
	assert.NoError(t, opts.Physarum.Validate())
	assert.NoError(t, opts.ACO.Validate())
}

func TestSolverOptions_Clone(t *testing.T) {
	opts := DefaultSolverOptions()
	c := opts.Clone().WithSeed(5).WithAlgorithm(AlgorithmAStar)

	assert.Equal(t, int64(1), opts.Seed)
	assert.Equal(t, AlgorithmPPA, opts.Algorithm)
	assert.Equal(t, int64(5), c.Seed)
}

func TestGetAlgorithmInfo(t *testing.T) {
	for _, name := range Names() {
		info := GetAlgorithmInfo(name)
		require.NotNil(t, info, name)
		assert.Equal(t, name, info.Algorithm)
		assert.NotEmpty(t, info.Name)
	}
	assert.Nil(t, GetAlgorithmInfo("genetic"))
	assert.Len(t, GetAllAlgorithms(), 4)
	assert.True(t, GetAlgorithmInfo(AlgorithmACO).Stochastic)
	assert.False(t, GetAlgorithmInfo(AlgorithmDijkstra).Iterative)
}
