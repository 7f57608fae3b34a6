package engine

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"supplynet/pkg/apperror"
	"supplynet/pkg/domain"
	"supplynet/pkg/logger"
	"supplynet/services/solver-svc/internal/algorithms"
	"supplynet/services/solver-svc/internal/effdist"
	"supplynet/services/solver-svc/internal/validators"
)

// Распределения множителя спроса
const (
	DistributionNone       = "none"
	DistributionUniform    = "uniform"
	DistributionNormal     = "normal"
	DistributionTriangular = "triangular"
)

// SweepConfig параметры серии прогонов
type SweepConfig struct {
	Samples      int
	Workers      int
	Distribution string
	// Spread полуширина диапазона множителя (uniform, triangular) или сигма (normal)
	Spread       float64
	BaseSeed     int64
	Tolerance    float64
	RelTolerance float64
	// Progress вызывается после каждого завершённого прогона
	Progress func(done, total int)
}

// Sample результат одного прогона
type Sample struct {
	Index        int
	Seed         int64
	Multiplier   float64
	Status       algorithms.Status
	Iterations   int
	TotalCost    float64
	ErrorPercent float64
	Balanced     bool
	Duration     time.Duration
	Err          error
}

// Stats описательная статистика
type Stats struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	P50    float64
	P95    float64
}

// SweepResult результаты серии, Samples упорядочены по индексу
type SweepResult struct {
	Samples      []Sample
	Succeeded    int
	SuccessRatio float64
	Cost         Stats
	ErrorPercent Stats
	Duration     time.Duration
}

// Sweep запускает cfg.Samples независимых прогонов с возмущённым спросом.
//
// Прогон i использует seed BaseSeed+i и для множителя, и для решателя, поэтому
// результат не зависит от числа воркеров. Ошибка отдельного прогона
// сохраняется в Sample.Err и не прерывает серию.
func Sweep(ctx context.Context, g *domain.Graph, demand domain.Demand, model *effdist.Model, opts *algorithms.SolverOptions, cfg SweepConfig) (*SweepResult, error) {
	if g == nil || demand == nil || model == nil {
		return nil, apperror.New(apperror.CodeNilInput, "sweep requires graph, demand and cost model")
	}
	if cfg.Samples <= 0 {
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument, "samples must be positive", "samples")
	}
	if cfg.Spread < 0 {
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument, "spread must be non-negative", "spread")
	}
	switch cfg.Distribution {
	case "", DistributionNone, DistributionUniform, DistributionNormal, DistributionTriangular:
	default:
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument, "unknown distribution "+cfg.Distribution, "distribution")
	}
	if opts == nil {
		opts = algorithms.DefaultSolverOptions()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > cfg.Samples {
		workers = cfg.Samples
	}

	log := logger.WithContext(ctx, "component", "sweep")
	log.Info("sweep started",
		"samples", cfg.Samples,
		"workers", workers,
		"distribution", cfg.Distribution,
		"spread", cfg.Spread,
		"algorithm", opts.Algorithm,
	)

	start := time.Now()
	samples := make([]Sample, cfg.Samples)
	var done atomic.Int64

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i := 0; i < cfg.Samples; i++ {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			samples[i] = runSample(egCtx, g, demand, model, opts, cfg, i)

			n := int(done.Add(1))
			if cfg.Progress != nil {
				cfg.Progress(n, cfg.Samples)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeCanceled, "sweep canceled")
	}
	if err := ctx.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeCanceled, "sweep canceled")
	}

	result := summarize(samples)
	result.Duration = time.Since(start)

	log.Info("sweep completed",
		"succeeded", result.Succeeded,
		"success_ratio", result.SuccessRatio,
		"mean_cost", result.Cost.Mean,
		"duration_ms", result.Duration.Milliseconds(),
	)

	return result, nil
}

// runSample решает задачу на копии графа с масштабированным спросом
func runSample(ctx context.Context, g *domain.Graph, demand domain.Demand, model *effdist.Model, opts *algorithms.SolverOptions, cfg SweepConfig, index int) Sample {
	seed := cfg.BaseSeed + int64(index)
	rng := rand.New(rand.NewSource(seed))
	multiplier := SampleMultiplier(cfg.Distribution, cfg.Spread, rng)

	s := Sample{Index: index, Seed: seed, Multiplier: multiplier}

	clone := g.Clone()
	scaled := demand.Scale(multiplier)

	res := algorithms.Solve(ctx, clone, scaled, model, opts.Clone().WithSeed(seed))
	s.Status = res.Status
	s.Iterations = res.Iterations
	s.TotalCost = res.TotalCost
	s.Duration = res.Duration
	s.Err = res.Error

	if res.Error == nil {
		report := validators.CheckWithOptions(clone, scaled, validators.CheckOptions{
			Tolerance:    cfg.Tolerance,
			RelTolerance: cfg.RelTolerance,
		})
		s.Balanced = report.Balanced
		s.ErrorPercent = report.ErrorPercent
	}

	return s
}

// SampleMultiplier возвращает множитель спроса; результат не отрицателен
func SampleMultiplier(distribution string, spread float64, rng *rand.Rand) float64 {
	var m float64
	switch distribution {
	case DistributionUniform:
		m = 1 + spread*(2*rng.Float64()-1)

	case DistributionNormal:
		m = 1 + spread*rng.NormFloat64()

	case DistributionTriangular:
		// треугольное распределение на [1-spread, 1+spread] с модой 1
		u := rng.Float64()
		if u < 0.5 {
			m = 1 - spread + spread*math.Sqrt(2*u)
		} else {
			m = 1 + spread - spread*math.Sqrt(2*(1-u))
		}

	default:
		return 1
	}
	return math.Max(0, m)
}

func summarize(samples []Sample) *SweepResult {
	result := &SweepResult{Samples: samples}

	var costs, errs []float64
	for _, s := range samples {
		if s.Err != nil {
			continue
		}
		costs = append(costs, s.TotalCost)
		errs = append(errs, s.ErrorPercent)
		if s.Balanced {
			result.Succeeded++
		}
	}

	if len(samples) > 0 {
		result.SuccessRatio = float64(result.Succeeded) / float64(len(samples))
	}
	result.Cost = CalculateStats(costs)
	result.ErrorPercent = CalculateStats(errs)

	return result
}

// CalculateStats считает среднее, стандартное отклонение и перцентили
func CalculateStats(values []float64) Stats {
	n := len(values)
	if n == 0 {
		return Stats{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum, sumSq float64
	for _, v := range values {
		sum += v
		sumSq += v * v
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean

	return Stats{
		Mean:   mean,
		StdDev: math.Sqrt(math.Max(0, variance)),
		Min:    sorted[0],
		Max:    sorted[n-1],
		P50:    Percentile(sorted, 50),
		P95:    Percentile(sorted, 95),
	}
}

// Percentile берёт значение по индексу p/100*(n-1) из отсортированной выборки
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p / 100 * float64(len(sorted)-1))
	return sorted[idx]
}
