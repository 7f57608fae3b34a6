package engine

import (
	"context"
	"math"
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

// ResilienceConfig параметры анализа N-1
type ResilienceConfig struct {
	// Edges число проверяемых рёбер: самые загруженные в базовом решении; 0 - все активные
	Edges        int
	Workers      int
	Tolerance    float64
	RelTolerance float64
	// Progress вызывается после каждого сценария
	Progress func(done, total int)
}

// Outage сценарий отказа одного ребра
type Outage struct {
	Edge     domain.EdgeKey
	BaseFlow float64
	Status   algorithms.Status
	// TotalCost стоимость решения без ребра; CostDelta разница с базовой
	TotalCost    float64
	CostDelta    float64
	CostIncrease float64 // в процентах от базовой стоимости
	ErrorPercent float64
	Balanced     bool
	Err          error
}

// Failed true, если без ребра спрос не удовлетворяется
func (o *Outage) Failed() bool {
	return o.Err != nil || !o.Balanced
}

// ResilienceResult итог анализа N-1. Outages идут в порядке убывания базового потока.
type ResilienceResult struct {
	BaseCost     float64
	BaseBalanced bool
	Outages      []Outage

	Tested int
	Failed int
	// CriticalEdges рёбра, без которых баланс не достигается
	CriticalEdges []domain.EdgeKey
	// MostCritical отказ с наибольшим ростом стоимости среди сбалансированных
	MostCritical *domain.EdgeKey

	ConnectivityRobustness float64
	CostRobustness         float64
	RedundancyLevel        float64
	Score                  float64
	Duration               time.Duration
}

// Resilience решает задачу повторно без каждого из загруженных рёбер.
//
// Все сценарии используют seed базового решения, порядок результатов
// не зависит от числа воркеров. Ошибка сценария сохраняется в Outage.Err.
func Resilience(ctx context.Context, g *domain.Graph, demand domain.Demand, model *effdist.Model, opts *algorithms.SolverOptions, cfg ResilienceConfig) (*ResilienceResult, error) {
	if g == nil || demand == nil || model == nil {
		return nil, apperror.New(apperror.CodeNilInput, "resilience requires graph, demand and cost model")
	}
	if cfg.Edges < 0 {
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument, "edges must be non-negative", "edges")
	}
	if opts == nil {
		opts = algorithms.DefaultSolverOptions()
	}

	log := logger.WithContext(ctx, "component", "resilience")
	start := time.Now()

	base := g.Clone()
	baseRes := algorithms.Solve(ctx, base, demand, model, opts)
	if baseRes.Error != nil {
		if err := ctx.Err(); err != nil {
			return nil, apperror.Wrap(err, apperror.CodeCanceled, "resilience canceled")
		}
		return nil, apperror.Wrap(baseRes.Error, apperror.CodeAlgorithmError, "base solve failed")
	}
	check := validators.CheckOptions{Tolerance: cfg.Tolerance, RelTolerance: cfg.RelTolerance}
	baseCheck := validators.CheckWithOptions(base, demand, check)

	candidates := loadedEdges(base, cfg.Edges)
	result := &ResilienceResult{
		BaseCost:     baseRes.TotalCost,
		BaseBalanced: baseCheck.Balanced,
		Outages:      make([]Outage, len(candidates)),
		Tested:       len(candidates),
	}
	if n := g.NodeCount(); n > 0 {
		result.RedundancyLevel = float64(g.EdgeCount()) / float64(n)
	}

	log.Info("resilience started",
		"edges", len(candidates),
		"algorithm", opts.Algorithm,
		"base_cost", baseRes.TotalCost,
	)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var done atomic.Int64
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i, edge := range candidates {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			result.Outages[i] = runOutage(egCtx, g, demand, model, opts, check, edge, baseRes.TotalCost)

			n := int(done.Add(1))
			if cfg.Progress != nil {
				cfg.Progress(n, len(candidates))
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeCanceled, "resilience canceled")
	}
	if err := ctx.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeCanceled, "resilience canceled")
	}

	scoreOutages(result)
	result.Duration = time.Since(start)

	log.Info("resilience completed",
		"tested", result.Tested,
		"failed", result.Failed,
		"score", result.Score,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// loadedEdges возвращает активные рёбра по убыванию потока, при равенстве по ключу
func loadedEdges(g *domain.Graph, limit int) []*domain.Edge {
	edges := g.GetActiveEdges()
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Flow != edges[j].Flow {
			return edges[i].Flow > edges[j].Flow
		}
		return edges[i].Key().Compare(edges[j].Key()) < 0
	})
	if limit > 0 && len(edges) > limit {
		edges = edges[:limit]
	}
	return edges
}

func runOutage(ctx context.Context, g *domain.Graph, demand domain.Demand, model *effdist.Model, opts *algorithms.SolverOptions, check validators.CheckOptions, edge *domain.Edge, baseCost float64) Outage {
	o := Outage{Edge: edge.Key(), BaseFlow: edge.Flow}

	clone := g.Clone()
	clone.RemoveEdge(edge.From, edge.To)

	res := algorithms.Solve(ctx, clone, demand, model, opts.Clone())
	o.Status = res.Status
	o.Err = res.Error
	if res.Error != nil {
		return o
	}

	o.TotalCost = res.TotalCost
	o.CostDelta = res.TotalCost - baseCost
	if baseCost > 0 {
		o.CostIncrease = o.CostDelta / baseCost * 100
	}

	report := validators.CheckWithOptions(clone, demand, check)
	o.Balanced = report.Balanced
	o.ErrorPercent = report.ErrorPercent
	return o
}

// scoreOutages сводит сценарии в показатели устойчивости
func scoreOutages(r *ResilienceResult) {
	worst := 0.0
	for i := range r.Outages {
		o := &r.Outages[i]
		if o.Failed() {
			r.Failed++
			r.CriticalEdges = append(r.CriticalEdges, o.Edge)
			continue
		}
		if o.CostIncrease > worst {
			worst = o.CostIncrease
			key := o.Edge
			r.MostCritical = &key
		}
	}

	if r.Tested == 0 {
		r.ConnectivityRobustness = 1
		r.CostRobustness = 1
		r.Score = 1
		return
	}

	r.ConnectivityRobustness = float64(r.Tested-r.Failed) / float64(r.Tested)
	r.CostRobustness = math.Max(0, 1-worst/100)
	r.Score = (r.ConnectivityRobustness + r.CostRobustness) / 2
}
