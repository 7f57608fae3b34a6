package engine

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplynet/pkg/apperror"
	"supplynet/pkg/domain"
	"supplynet/services/solver-svc/internal/algorithms"
	"supplynet/services/solver-svc/internal/effdist"
)

func dijkstraOptions() *algorithms.SolverOptions {
	return algorithms.DefaultSolverOptions().WithAlgorithm(algorithms.AlgorithmDijkstra).WithSeed(1)
}

func runResilience(t *testing.T, cfg ResilienceConfig) *ResilienceResult {
	t.Helper()
	g, demand := domain.SampleNetwork()
	result, err := Resilience(context.Background(), g, demand, effdist.Canonical(), dijkstraOptions(), cfg)
	require.NoError(t, err)
	return result
}

// ============================================================
// RESILIENCE
// ============================================================

func TestResilience_SampleNetwork(t *testing.T) {
	result := runResilience(t, ResilienceConfig{Workers: 2, Tolerance: 0.5})

	assert.True(t, result.BaseBalanced)
	assert.Greater(t, result.BaseCost, 0.0)
	require.NotEmpty(t, result.Outages)
	assert.Equal(t, len(result.Outages), result.Tested)

	// ordered by base flow, heaviest first
	for i := 1; i < len(result.Outages); i++ {
		assert.GreaterOrEqual(t, result.Outages[i-1].BaseFlow, result.Outages[i].BaseFlow)
	}

	// retail 8 is reachable from suppliers 2 and 3 only through 5->8
	assert.Contains(t, result.CriticalEdges, domain.EdgeKey{From: 5, To: 8})
	assert.Equal(t, len(result.CriticalEdges), result.Failed)

	assert.InDelta(t, float64(result.Tested-result.Failed)/float64(result.Tested), result.ConnectivityRobustness, 1e-9)
	assert.GreaterOrEqual(t, result.CostRobustness, 0.0)
	assert.LessOrEqual(t, result.CostRobustness, 1.0)
	assert.InDelta(t, (result.ConnectivityRobustness+result.CostRobustness)/2, result.Score, 1e-9)
	assert.InDelta(t, 17.0/9.0, result.RedundancyLevel, 1e-9)
}

func TestResilience_EdgeLimit(t *testing.T) {
	full := runResilience(t, ResilienceConfig{Tolerance: 0.5})
	limited := runResilience(t, ResilienceConfig{Edges: 2, Tolerance: 0.5})

	require.Len(t, limited.Outages, 2)
	assert.Equal(t, full.Outages[0].Edge, limited.Outages[0].Edge)
	assert.Equal(t, full.Outages[1].Edge, limited.Outages[1].Edge)
}

func TestResilience_DeterministicAcrossWorkers(t *testing.T) {
	serial := runResilience(t, ResilienceConfig{Workers: 1, Tolerance: 0.5})
	parallel := runResilience(t, ResilienceConfig{Workers: 4, Tolerance: 0.5})

	require.Equal(t, len(serial.Outages), len(parallel.Outages))
	for i := range serial.Outages {
		assert.Equal(t, serial.Outages[i].Edge, parallel.Outages[i].Edge)
		assert.Equal(t, serial.Outages[i].TotalCost, parallel.Outages[i].TotalCost)
		assert.Equal(t, serial.Outages[i].Balanced, parallel.Outages[i].Balanced)
	}
}

func TestResilience_DoesNotMutateInput(t *testing.T) {
	g, demand := domain.SampleNetwork()
	edges := g.EdgeCount()

	_, err := Resilience(context.Background(), g, demand, effdist.Canonical(), dijkstraOptions(), ResilienceConfig{Tolerance: 0.5})
	require.NoError(t, err)

	assert.Equal(t, edges, g.EdgeCount())
	assert.Zero(t, g.TotalFlow())
}

func TestResilience_Progress(t *testing.T) {
	var calls atomic.Int32
	result := runResilience(t, ResilienceConfig{
		Edges:     3,
		Tolerance: 0.5,
		Progress:  func(done, total int) { calls.Add(1) },
	})
	assert.Equal(t, int32(len(result.Outages)), calls.Load())
}

func TestResilience_InvalidInput(t *testing.T) {
	g, demand := domain.SampleNetwork()

	_, err := Resilience(context.Background(), nil, demand, effdist.Canonical(), nil, ResilienceConfig{})
	assert.True(t, apperror.Is(err, apperror.CodeNilInput))

	_, err = Resilience(context.Background(), g, demand, effdist.Canonical(), nil, ResilienceConfig{Edges: -1})
	assert.True(t, apperror.Is(err, apperror.CodeInvalidArgument))
}

func TestResilience_Canceled(t *testing.T) {
	g, demand := domain.SampleNetwork()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Resilience(ctx, g, demand, effdist.Canonical(), dijkstraOptions(), ResilienceConfig{})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeCanceled))
}

func TestScoreOutages_NoCandidates(t *testing.T) {
	r := &ResilienceResult{}
	scoreOutages(r)
	assert.Equal(t, 1.0, r.Score)
	assert.Nil(t, r.MostCritical)
}

func TestScoreOutages_MostCriticalSkipsFailures(t *testing.T) {
	r := &ResilienceResult{
		Tested: 3,
		Outages: []Outage{
			{Edge: domain.EdgeKey{From: 1, To: 2}, Balanced: false, CostIncrease: 90},
			{Edge: domain.EdgeKey{From: 2, To: 3}, Balanced: true, CostIncrease: 25},
			{Edge: domain.EdgeKey{From: 3, To: 4}, Balanced: true, CostIncrease: -5},
		},
	}
	scoreOutages(r)

	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, []domain.EdgeKey{{From: 1, To: 2}}, r.CriticalEdges)
	require.NotNil(t, r.MostCritical)
	assert.Equal(t, domain.EdgeKey{From: 2, To: 3}, *r.MostCritical)
	assert.InDelta(t, 0.75, r.CostRobustness, 1e-9)
	assert.InDelta(t, 2.0/3.0, r.ConnectivityRobustness, 1e-9)
}
