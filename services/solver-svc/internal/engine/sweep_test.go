package engine

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplynet/pkg/apperror"
	"supplynet/pkg/domain"
	"supplynet/pkg/logger"
	"supplynet/services/solver-svc/internal/algorithms"
	"supplynet/services/solver-svc/internal/effdist"
)

func init() {
	logger.Init("error")
}

func sweepOptions() *algorithms.SolverOptions {
	cfg := algorithms.DefaultPhysarumConfig()
	cfg.MaxIterations = 60
	return algorithms.DefaultSolverOptions().WithPhysarum(cfg)
}

func runSweep(t *testing.T, cfg SweepConfig) *SweepResult {
	t.Helper()
	g, demand := domain.SampleNetwork()
	result, err := Sweep(context.Background(), g, demand, effdist.Canonical(), sweepOptions(), cfg)
	require.NoError(t, err)
	return result
}

// ============================================================
// SWEEP
// ============================================================

func TestSweep_DeterministicAcrossWorkers(t *testing.T) {
	cfg := SweepConfig{Samples: 6, Distribution: DistributionUniform, Spread: 0.2, BaseSeed: 100, Tolerance: 0.5}

	cfg.Workers = 1
	serial := runSweep(t, cfg)
	cfg.Workers = 4
	parallel := runSweep(t, cfg)

	require.Len(t, serial.Samples, 6)
	require.Len(t, parallel.Samples, 6)

	for i := range serial.Samples {
		a, b := serial.Samples[i], parallel.Samples[i]
		assert.Equal(t, i, a.Index)
		assert.Equal(t, int64(100+i), a.Seed)
		assert.Equal(t, a.Multiplier, b.Multiplier, "sample %d", i)
		assert.Equal(t, a.TotalCost, b.TotalCost, "sample %d", i)
		assert.Equal(t, a.Balanced, b.Balanced, "sample %d", i)
		assert.Equal(t, a.Status, b.Status, "sample %d", i)
	}
	assert.Equal(t, serial.Cost, parallel.Cost)
	assert.Equal(t, serial.Succeeded, parallel.Succeeded)
}

func TestSweep_DoesNotModifyInput(t *testing.T) {
	g, demand := domain.SampleNetwork()
	_, err := Sweep(context.Background(), g, demand, effdist.Canonical(), sweepOptions(),
		SweepConfig{Samples: 2, Distribution: DistributionNormal, Spread: 0.1, BaseSeed: 1})
	require.NoError(t, err)

	assert.Equal(t, 0.0, g.TotalFlow())
	assert.Equal(t, 5.0, demand.Volume(1, 8))
}

func TestSweep_NoDistribution(t *testing.T) {
	result := runSweep(t, SweepConfig{Samples: 3, Distribution: DistributionNone, BaseSeed: 1, Tolerance: 0.5})

	for _, s := range result.Samples {
		assert.Equal(t, 1.0, s.Multiplier)
		assert.NoError(t, s.Err)
		assert.Greater(t, s.TotalCost, 0.0)
	}
	assert.InDelta(t, float64(result.Succeeded)/3, result.SuccessRatio, 1e-12)
	assert.LessOrEqual(t, result.Cost.Min, result.Cost.Mean)
	assert.GreaterOrEqual(t, result.Cost.Max, result.Cost.Mean)
}

func TestSweep_Progress(t *testing.T) {
	var calls atomic.Int64
	var last atomic.Int64

	runSweep(t, SweepConfig{
		Samples:  4,
		Workers:  2,
		BaseSeed: 1,
		Progress: func(done, total int) {
			calls.Add(1)
			assert.Equal(t, 4, total)
			if int64(done) > last.Load() {
				last.Store(int64(done))
			}
		},
	})

	assert.Equal(t, int64(4), calls.Load())
	assert.Equal(t, int64(4), last.Load())
}

func TestSweep_SolverErrors(t *testing.T) {
	g, demand := domain.SampleNetwork()
	opts := algorithms.DefaultSolverOptions().WithAlgorithm("simplex")

	result, err := Sweep(context.Background(), g, demand, effdist.Canonical(), opts, SweepConfig{Samples: 3, BaseSeed: 1})
	require.NoError(t, err)

	for _, s := range result.Samples {
		assert.ErrorIs(t, s.Err, algorithms.ErrUnknownAlgorithm)
		assert.Equal(t, algorithms.StatusError, s.Status)
	}
	assert.Zero(t, result.Succeeded)
	assert.Zero(t, result.SuccessRatio)
	assert.Equal(t, Stats{}, result.Cost)
}

func TestSweep_InvalidConfig(t *testing.T) {
	g, demand := domain.SampleNetwork()
	model := effdist.Canonical()

	tests := []struct {
		name string
		g    *domain.Graph
		cfg  SweepConfig
		code apperror.ErrorCode
	}{
		{"nil graph", nil, SweepConfig{Samples: 1}, apperror.CodeNilInput},
		{"zero samples", g, SweepConfig{}, apperror.CodeInvalidArgument},
		{"negative spread", g, SweepConfig{Samples: 1, Spread: -1}, apperror.CodeInvalidArgument},
		{"unknown distribution", g, SweepConfig{Samples: 1, Distribution: "beta"}, apperror.CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sweep(context.Background(), tt.g, demand, model, nil, tt.cfg)
			require.Error(t, err)
			assert.True(t, apperror.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestSweep_Canceled(t *testing.T) {
	g, demand := domain.SampleNetwork()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Sweep(ctx, g, demand, effdist.Canonical(), sweepOptions(), SweepConfig{Samples: 5, Workers: 2})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeCanceled))
}

// ============================================================
// DISTRIBUTIONS
// ============================================================

func TestSampleMultiplier(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 1000; i++ {
		u := SampleMultiplier(DistributionUniform, 0.3, rng)
		assert.True(t, u >= 0.7 && u <= 1.3, "uniform %v", u)

		tr := SampleMultiplier(DistributionTriangular, 0.3, rng)
		assert.True(t, tr >= 0.7-1e-12 && tr <= 1.3+1e-12, "triangular %v", tr)

		n := SampleMultiplier(DistributionNormal, 2, rng)
		assert.GreaterOrEqual(t, n, 0.0)
	}

	assert.Equal(t, 1.0, SampleMultiplier(DistributionNone, 0.3, rng))
	assert.Equal(t, 1.0, SampleMultiplier("", 0.3, rng))
}

func TestSampleMultiplier_ZeroSpread(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, d := range []string{DistributionUniform, DistributionNormal, DistributionTriangular} {
		assert.Equal(t, 1.0, SampleMultiplier(d, 0, rng), d)
	}
}

func TestSampleMultiplier_TriangularMean(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var sum float64
	const n = 20000
	for i := 0; i < n; i++ {
		sum += SampleMultiplier(DistributionTriangular, 0.5, rng)
	}
	assert.InDelta(t, 1.0, sum/n, 0.01)
}

// ============================================================
// STATS
// ============================================================

func TestCalculateStats(t *testing.T) {
	s := CalculateStats([]float64{4, 1, 3, 2})

	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), s.StdDev, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.Equal(t, 2.0, s.P50)
	assert.Equal(t, 3.0, s.P95)
}

func TestCalculateStats_Empty(t *testing.T) {
	assert.Equal(t, Stats{}, CalculateStats(nil))
}

func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	assert.Equal(t, 10.0, Percentile(sorted, 0))
	assert.Equal(t, 50.0, Percentile(sorted, 50))
	assert.Equal(t, 100.0, Percentile(sorted, 100))
	assert.Equal(t, 0.0, Percentile(nil, 50))
}
