package algorithms

import (
	"context"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"supplynet/pkg/apperror"
	"supplynet/pkg/domain"
	"supplynet/pkg/logger"
	"supplynet/services/solver-svc/internal/effdist"
	"supplynet/services/solver-svc/internal/graph"
)

// =============================================================================
// Physarum Polycephalum Algorithm (PPA)
// =============================================================================
//
// The slime mould model treats every supplier subgraph as a network of tubes.
// Each iteration:
//
//  1. RELAX: one Gauss-Seidel sweep of the Kirchhoff balance per subgraph
//  2. FLOW_UPDATE: f = (c/L)(p_from - p_to), c <- max((c + |f|)/2, floor)
//  3. AGGREGATE: positive subgraph flows are summed into the shared graph
//  4. LENGTH_UPDATE: L <- max((L + E(Q) + f*DE(Q))/2, 0)
//  5. CONVERGENCE_CHECK: sum |dc| / sum c_prev <= Epsilon
//  6. PRUNE every PruneInterval iterations: shared edges with Q < MinCapacity
//     are removed from the shared graph and from every subgraph
//
// Tubes that carry flow thicken and tubes that do not wither, so the network
// concentrates on a low cost routing that satisfies the demand.
//
// Time Complexity: O(I * S * (V + E)) for I iterations and S suppliers
//
// References:
//   - Tero, A., Kobayashi, R., Nakagaki, T. (2007). "A mathematical model for
//     adaptive transport network in path finding by true slime mold"
// =============================================================================

// Default PPA hyperparameters.
const (
	DefaultPhysarumEpsilon       = 1e-2
	DefaultPhysarumMaxIterations = 100
	DefaultPruneInterval         = 10
	DefaultMinCapacity           = 1.0

	// deltaGuard keeps the normalised convergence metric finite.
	deltaGuard = 1e-12
)

// PhysarumConfig holds the PPA hyperparameters of one invocation.
type PhysarumConfig struct {
	// Epsilon is the convergence threshold of the conductivity change.
	Epsilon float64 `validate:"gt=0"`

	// MaxIterations caps the number of iterations.
	MaxIterations int `validate:"gte=1"`

	// PruneInterval K: pruning runs when iteration % K == 0. 0 disables pruning.
	PruneInterval int `validate:"gte=0"`

	// MinCapacity is the aggregated flow below which an edge is pruned.
	MinCapacity float64 `validate:"gte=0"`

	// Normalize divides the conductivity change by the previous total.
	Normalize bool

	// Parallel runs RELAX and FLOW_UPDATE of distinct subgraphs concurrently.
	Parallel bool

	// Workers bounds the parallel phase. 0 means GOMAXPROCS.
	Workers int `validate:"gte=0"`
}

// DefaultPhysarumConfig returns the default PPA hyperparameters.
func DefaultPhysarumConfig() PhysarumConfig {
	return PhysarumConfig{
		Epsilon:       DefaultPhysarumEpsilon,
		MaxIterations: DefaultPhysarumMaxIterations,
		PruneInterval: DefaultPruneInterval,
		MinCapacity:   DefaultMinCapacity,
		Normalize:     true,
	}
}

// Validate checks the hyperparameters.
func (c PhysarumConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperror.Wrap(err, apperror.CodeInvalidConfig, "invalid physarum config")
	}
	return nil
}

// PhysarumResult contains the result of a PPA run.
type PhysarumResult struct {
	// Iterations is the number of completed iterations.
	Iterations int

	// Converged is true when the convergence metric dropped below Epsilon.
	Converged bool

	// Status is StatusConverged, StatusIterationLimit or StatusCanceled.
	Status Status

	// Delta is the convergence metric after each iteration.
	Delta []float64

	// EdgeCounts is the shared edge count after each iteration. Non-increasing.
	EdgeCounts []int

	// PrunedEdges lists the removed edges in removal order.
	PrunedEdges []domain.EdgeKey

	// TotalCost is sum E(Q)*Q over the shared edges at the end of the run.
	TotalCost float64

	// Warnings lists unreachable demand pairs.
	Warnings []*apperror.Error

	// Subgraphs holds the final per-supplier state.
	Subgraphs []*graph.Subgraph
}

// Physarum is the PPA solver.
type Physarum struct {
	cfg PhysarumConfig
	rng *rand.Rand
}

// NewPhysarum validates cfg and returns a solver drawing from rng.
func NewPhysarum(cfg PhysarumConfig, rng *rand.Rand) (*Physarum, error) {
	if rng == nil {
		return nil, ErrNilRand
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Physarum{cfg: cfg, rng: rng}, nil
}

// Config returns the hyperparameters.
func (p *Physarum) Config() PhysarumConfig {
	return p.cfg
}

// Solve runs PPA on g for demand and writes the aggregated flow into g.
//
// Non-convergence is not an error: the best-effort state is returned with
// StatusIterationLimit. On cancellation the current state is returned with
// StatusCanceled and ErrContextCanceled (or ErrTimeout).
func (p *Physarum) Solve(ctx context.Context, g *domain.Graph, demand domain.Demand, model *effdist.Model) (*PhysarumResult, error) {
	if err := validateInput(g, demand, model); err != nil {
		return nil, err
	}

	log := logger.WithContext(ctx, "component", "physarum")

	subgraphs, err := graph.Decompose(g, demand, p.rng, graph.DefaultDecomposeOptions())
	if err != nil {
		return nil, err
	}

	result := &PhysarumResult{
		Status:    StatusIterationLimit,
		Subgraphs: subgraphs,
		Warnings:  unreachableWarnings(subgraphs),
	}

	for _, sg := range subgraphs {
		sg.Relaxation()
	}

	for it := 1; it <= p.cfg.MaxIterations; it++ {
		select {
		case <-ctx.Done():
			result.Status = StatusCanceled
			p.finish(g, model, result)
			log.Warn("physarum canceled", "iteration", result.Iterations)
			return result, contextError(ctx)
		default:
		}

		delta, err := p.iterate(ctx, g, subgraphs, model)
		if err != nil {
			result.Status = StatusCanceled
			p.finish(g, model, result)
			return result, contextError(ctx)
		}

		result.Iterations = it
		result.Delta = append(result.Delta, delta)

		log.Debug("physarum iteration", "iteration", it, "delta", delta, "edges", g.EdgeCount())

		if delta <= p.cfg.Epsilon {
			result.Converged = true
			result.Status = StatusConverged
			result.EdgeCounts = append(result.EdgeCounts, g.EdgeCount())
			break
		}

		if p.cfg.PruneInterval > 0 && it%p.cfg.PruneInterval == 0 {
			pruned := prune(g, subgraphs, p.cfg.MinCapacity)
			if len(pruned) > 0 {
				log.Info("edges pruned", "iteration", it, "count", len(pruned), "remaining", g.EdgeCount())
			}
			result.PrunedEdges = append(result.PrunedEdges, pruned...)
		}

		result.EdgeCounts = append(result.EdgeCounts, g.EdgeCount())
	}

	p.finish(g, model, result)

	log.Info("physarum finished",
		"status", result.Status,
		"iterations", result.Iterations,
		"pruned", len(result.PrunedEdges),
		"total_cost", result.TotalCost,
	)

	return result, nil
}

// finish reconciles reporting state and computes the total cost.
func (p *Physarum) finish(g *domain.Graph, model *effdist.Model, result *PhysarumResult) {
	ReconcileState(g, result.Subgraphs)
	result.TotalCost = totalCost(g, model)
}

// iterate performs one PPA iteration and returns the convergence metric.
func (p *Physarum) iterate(ctx context.Context, g *domain.Graph, subgraphs []*graph.Subgraph, model *effdist.Model) (float64, error) {
	changes := make([]float64, len(subgraphs))
	prevs := make([]float64, len(subgraphs))

	if p.cfg.Parallel && len(subgraphs) > 1 {
		eg, _ := errgroup.WithContext(ctx)
		workers := p.cfg.Workers
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(0)
		}
		eg.SetLimit(workers)

		for i, sg := range subgraphs {
			eg.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				rs := sg.Relaxation()
				rs.Sweep()
				changes[i], prevs[i] = rs.UpdateFlows()
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return 0, err
		}
	} else {
		for i, sg := range subgraphs {
			rs := sg.Relaxation()
			rs.Sweep()
			changes[i], prevs[i] = rs.UpdateFlows()
		}
	}

	Aggregate(g, subgraphs)
	updateLengths(g, subgraphs, model)

	// Summed in supplier order so the metric does not depend on scheduling.
	var change, prev float64
	for i := range subgraphs {
		change += changes[i]
		prev += prevs[i]
	}

	if !p.cfg.Normalize {
		return change, nil
	}
	return change / (prev + deltaGuard), nil
}

// updateLengths applies L <- max((L + E(Q) + f*DE(Q))/2, 0) with Q the shared
// aggregated flow. E and DE are evaluated once per shared edge.
func updateLengths(g *domain.Graph, subgraphs []*graph.Subgraph, model *effdist.Model) {
	type eval struct{ e, de float64 }
	cache := make(map[domain.EdgeKey]eval, g.EdgeCount())

	for _, sg := range subgraphs {
		for _, es := range sg.Edges() {
			key := es.Key()
			v, ok := cache[key]
			if !ok {
				var q float64
				if shared, exists := g.GetEdge(key.From, key.To); exists {
					q = shared.Flow
				}
				v.e, v.de = model.Eval(q)
				cache[key] = v
			}

			l := (es.Length + v.e + es.Flow*v.de) / 2
			if l < 0 {
				l = 0
			}
			es.Length = l
		}
	}
}

// prune removes shared edges whose aggregated flow is below minCapacity from g
// and from every subgraph, then rebuilds the relaxation states it touched.
func prune(g *domain.Graph, subgraphs []*graph.Subgraph, minCapacity float64) []domain.EdgeKey {
	var pruned []domain.EdgeKey
	for _, e := range g.SortedEdges() {
		if e.Flow < minCapacity {
			pruned = append(pruned, e.Key())
		}
	}
	if len(pruned) == 0 {
		return nil
	}

	for _, key := range pruned {
		g.RemoveEdge(key.From, key.To)
	}

	for _, sg := range subgraphs {
		touched := false
		for _, key := range pruned {
			if sg.RemoveEdge(key.From, key.To) {
				touched = true
			}
		}
		if touched {
			sg.Relaxation().Rebuild()
		}
	}

	return pruned
}

// unreachableWarnings reports every demand pair that a subgraph cannot reach.
func unreachableWarnings(subgraphs []*graph.Subgraph) []*apperror.Error {
	var warnings []*apperror.Error
	for _, sg := range subgraphs {
		for _, r := range sg.Unreachable() {
			warnings = append(warnings, apperror.NewWarning(apperror.CodeUnreachableDemand,
				"demand target unreachable from supplier").
				WithDetails("supplier", sg.Supplier()).
				WithDetails("retail", r).
				WithDetails("volume", sg.Volume(r)))
		}
	}
	return warnings
}
