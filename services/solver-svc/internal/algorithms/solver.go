// Package algorithms provides the flow allocation solvers for supply networks:
// the Physarum Polycephalum relaxation (PPA), the ant colony search (ACO) and
// two sequential shortest path baselines (Dijkstra, A*).
//
// # Thread Safety
//
// Individual solvers are NOT thread-safe. Each goroutine should work with its
// own copy of the graph and its own *rand.Rand. Use domain.Graph.Clone() or
// the SolverPool for concurrent operations.
//
// # Determinism
//
// All solvers produce identical results for the same input graph, demand and
// seed. Suppliers, nodes and edges are always visited in ascending id order
// and every random draw comes from a single seeded source.
//
// # Context Support
//
// All solvers check the context once per iteration (or generation, or routed
// pair) and return the current state when it is cancelled.
//
// # Example Usage
//
//	g, demand := domain.SampleNetwork()
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//
//	result := algorithms.Solve(ctx, g, demand, effdist.Canonical(), algorithms.DefaultSolverOptions())
//	if result.Error != nil {
//	    log.Printf("Error: %v", result.Error)
//	} else {
//	    log.Printf("Status: %s, cost: %f", result.Status, result.TotalCost)
//	}
package algorithms

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"

	"supplynet/pkg/apperror"
	"supplynet/pkg/config"
	"supplynet/pkg/domain"
	"supplynet/services/solver-svc/internal/effdist"
	"supplynet/services/solver-svc/internal/graph"
)

// =============================================================================
// Error Definitions
// =============================================================================

// Standard errors returned by solver operations.
// These errors can be checked using errors.Is() for robust error handling.
var (
	// ErrNilGraph indicates that a nil graph was passed to a solver function.
	ErrNilGraph = errors.New("graph is nil")

	// ErrNilDemand indicates that a nil demand matrix was passed.
	ErrNilDemand = errors.New("demand is nil")

	// ErrNilModel indicates that no effective distance model was passed.
	ErrNilModel = errors.New("effective distance model is nil")

	// ErrNilRand indicates that a solver was constructed without a random source.
	ErrNilRand = errors.New("random source is nil")

	// ErrUnknownAlgorithm indicates an unsupported algorithm name.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")

	// ErrContextCanceled indicates that the operation was cancelled via context.
	ErrContextCanceled = errors.New("context canceled")

	// ErrTimeout indicates that the operation exceeded the configured timeout.
	ErrTimeout = errors.New("operation timeout")
)

// =============================================================================
// Algorithms and Statuses
// =============================================================================

// Algorithm names accepted by Solve.
const (
	AlgorithmPPA      = "ppa"
	AlgorithmACO      = "aco"
	AlgorithmDijkstra = "dijkstra"
	AlgorithmAStar    = "astar"
)

// Status describes how a solver run ended.
type Status string

const (
	// StatusConverged: the convergence metric dropped below epsilon.
	StatusConverged Status = "converged"

	// StatusIterationLimit: the iteration or generation cap was reached.
	StatusIterationLimit Status = "iteration_limit"

	// StatusStagnated: no best solution improved for StagnationLimit generations.
	StatusStagnated Status = "stagnated"

	// StatusComplete: a single-pass allocator routed every reachable pair.
	StatusComplete Status = "complete"

	// StatusIncomplete: some demand could not be routed.
	StatusIncomplete Status = "incomplete"

	// StatusCanceled: the context was cancelled; the state is partial.
	StatusCanceled Status = "canceled"

	// StatusError: the solver failed before producing any state.
	StatusError Status = "error"
)

// RoutedPath is a volume routed from a supplier to a retail node along Nodes.
type RoutedPath struct {
	Supplier int64
	Retail   int64
	Nodes    []int64
	Volume   float64
}

// validate checks solver configs tagged with go-playground/validator.
var validate = validator.New()

// contextError maps a done context onto the solver sentinel errors.
func contextError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrContextCanceled
}

// validateInput performs the checks shared by every solver.
func validateInput(g *domain.Graph, demand domain.Demand, model *effdist.Model) error {
	if g == nil {
		return ErrNilGraph
	}
	if demand == nil {
		return ErrNilDemand
	}
	if model == nil || model.E == nil || model.DE == nil {
		return ErrNilModel
	}
	return nil
}

// =============================================================================
// Solver Options
// =============================================================================

// SolverOptions configures a Solve call.
//
// Options can be chained using the builder pattern:
//
//	opts := DefaultSolverOptions().
//	    WithAlgorithm(AlgorithmACO).
//	    WithSeed(42).
//	    WithTimeout(10 * time.Second)
type SolverOptions struct {
	// Algorithm is one of AlgorithmPPA, AlgorithmACO, AlgorithmDijkstra, AlgorithmAStar.
	// Default: AlgorithmPPA
	Algorithm string

	// Seed initialises the single random source of the run.
	// Default: 1
	Seed int64

	// Timeout sets the maximum duration for the solver.
	// Zero means no timeout (relies on context).
	// Default: 5 minutes
	Timeout time.Duration

	// Physarum holds the PPA hyperparameters.
	Physarum PhysarumConfig

	// ACO holds the ant colony hyperparameters.
	ACO ACOConfig
}

// DefaultSolverOptions returns options with the default hyperparameters.
func DefaultSolverOptions() *SolverOptions {
	return &SolverOptions{
		Algorithm: AlgorithmPPA,
		Seed:      1,
		Timeout:   5 * time.Minute,
		Physarum:  DefaultPhysarumConfig(),
		ACO:       DefaultACOConfig(),
	}
}

// OptionsFromConfig maps the application configuration onto solver options.
func OptionsFromConfig(cfg *config.Config) *SolverOptions {
	return &SolverOptions{
		Algorithm: cfg.Solver.Algorithm,
		Seed:      cfg.Solver.Seed,
		Timeout:   cfg.Solver.Timeout,
		Physarum: PhysarumConfig{
			Epsilon:       cfg.Physarum.Epsilon,
			MaxIterations: cfg.Physarum.MaxIterations,
			PruneInterval: cfg.Physarum.PruneInterval,
			MinCapacity:   cfg.Physarum.MinCapacity,
			Normalize:     cfg.Physarum.Normalize,
			Parallel:      cfg.Physarum.Parallel,
			Workers:       cfg.Physarum.Workers,
		},
		ACO: ACOConfig{
			Alpha:           cfg.ACO.Alpha,
			Beta:            cfg.ACO.Beta,
			Rho:             cfg.ACO.Rho,
			Q:               cfg.ACO.Q,
			MinPheromone:    cfg.ACO.MinPheromone,
			Ants:            cfg.ACO.Ants,
			Generations:     cfg.ACO.Generations,
			StagnationLimit: cfg.ACO.StagnationLimit,
			TopRatio:        cfg.ACO.TopRatio,
			MaxRetries:      cfg.ACO.MaxRetries,
			BoostPheromone:  cfg.ACO.BoostPheromone,
			JitterPheromone: cfg.ACO.JitterPheromone,
			Epsilon:         cfg.ACO.Epsilon,
			MinCost:         DefaultMinCost,
		},
	}
}

// Clone returns a copy of the options.
func (o *SolverOptions) Clone() *SolverOptions {
	c := *o
	return &c
}

// WithAlgorithm sets the algorithm and returns the options for chaining.
func (o *SolverOptions) WithAlgorithm(algorithm string) *SolverOptions {
	o.Algorithm = algorithm
	return o
}

// WithSeed sets the seed and returns the options for chaining.
func (o *SolverOptions) WithSeed(seed int64) *SolverOptions {
	o.Seed = seed
	return o
}

// WithTimeout sets the timeout and returns the options for chaining.
func (o *SolverOptions) WithTimeout(timeout time.Duration) *SolverOptions {
	o.Timeout = timeout
	return o
}

// WithPhysarum sets the PPA hyperparameters and returns the options for chaining.
func (o *SolverOptions) WithPhysarum(cfg PhysarumConfig) *SolverOptions {
	o.Physarum = cfg
	return o
}

// WithACO sets the ant colony hyperparameters and returns the options for chaining.
func (o *SolverOptions) WithACO(cfg ACOConfig) *SolverOptions {
	o.ACO = cfg
	return o
}

// =============================================================================
// Solver Result
// =============================================================================

// SolverResult is the algorithm-independent outcome of Solve.
//
// Check Error first; a nil Error with StatusIterationLimit or StatusIncomplete
// is still a usable best-effort allocation:
//
//	result := Solve(ctx, g, demand, model, opts)
//	if result.Error != nil {
//	    return result.Error
//	}
//	log.Printf("%s finished: %s", result.Algorithm, result.Status)
type SolverResult struct {
	// Algorithm is the solver that produced the result.
	Algorithm string

	// Status indicates how the run ended.
	Status Status

	// Iterations is the number of PPA iterations or ACO generations.
	Iterations int

	// TotalCost is sum E(Q)*Q over the shared edges after the run.
	TotalCost float64

	// Paths holds routed paths for ACO and the baselines.
	Paths []RoutedPath

	// PrunedEdges lists edges removed by PPA pruning, in removal order.
	PrunedEdges []domain.EdgeKey

	// Warnings collects non-fatal issues such as unreachable demand.
	Warnings []*apperror.Error

	// Subgraphs holds the per-supplier state for PPA and ACO.
	Subgraphs []*graph.Subgraph

	// Physarum, ACO and Baseline carry the algorithm-specific result.
	Physarum *PhysarumResult
	ACO      *ACOResult
	Baseline *BaselineResult

	// Error contains any error that occurred during computation.
	Error error

	// Duration is the wall-clock time taken by the solver.
	Duration time.Duration
}

// =============================================================================
// Main Solver Entry Point
// =============================================================================

// Solve is the primary entry point for flow allocation.
//
// It dispatches to the solver named by opts.Algorithm, seeds a single random
// source from opts.Seed and applies opts.Timeout to the context. The shared
// graph g receives the final flow. nil opts uses DefaultSolverOptions().
//
// # Thread Safety
//
// This function is NOT thread-safe. The graph g will be modified.
// For concurrent use, clone the graph first or use SolverPool.
func Solve(ctx context.Context, g *domain.Graph, demand domain.Demand, model *effdist.Model, opts *SolverOptions) *SolverResult {
	start := time.Now()

	if opts == nil {
		opts = DefaultSolverOptions()
	}

	if err := validateInput(g, demand, model); err != nil {
		return &SolverResult{
			Algorithm: opts.Algorithm,
			Status:    StatusError,
			Error:     err,
			Duration:  time.Since(start),
		}
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	result := solveInternal(ctx, g, demand, model, rng, opts)
	result.Algorithm = opts.Algorithm
	result.Duration = time.Since(start)

	return result
}

// solveInternal dispatches to the appropriate solver implementation.
func solveInternal(ctx context.Context, g *domain.Graph, demand domain.Demand, model *effdist.Model, rng *rand.Rand, opts *SolverOptions) *SolverResult {
	switch opts.Algorithm {
	case AlgorithmPPA, "":
		return solvePhysarum(ctx, g, demand, model, rng, opts)

	case AlgorithmACO:
		return solveAntColony(ctx, g, demand, model, rng, opts)

	case AlgorithmDijkstra:
		return fromBaseline(Dijkstra(ctx, g, demand, model))

	case AlgorithmAStar:
		return fromBaseline(AStar(ctx, g, demand, model))

	default:
		return &SolverResult{
			Status: StatusError,
			Error:  fmt.Errorf("%w: %q", ErrUnknownAlgorithm, opts.Algorithm),
		}
	}
}

// solvePhysarum runs the PPA solver and wraps the result.
func solvePhysarum(ctx context.Context, g *domain.Graph, demand domain.Demand, model *effdist.Model, rng *rand.Rand, opts *SolverOptions) *SolverResult {
	p, err := NewPhysarum(opts.Physarum, rng)
	if err != nil {
		return &SolverResult{Status: StatusError, Error: err}
	}

	res, err := p.Solve(ctx, g, demand, model)
	if res == nil {
		return &SolverResult{Status: StatusError, Error: err}
	}
	return &SolverResult{
		Status:      res.Status,
		Iterations:  res.Iterations,
		TotalCost:   res.TotalCost,
		PrunedEdges: res.PrunedEdges,
		Warnings:    res.Warnings,
		Subgraphs:   res.Subgraphs,
		Physarum:    res,
		Error:       err,
	}
}

// solveAntColony runs the ACO solver and wraps the result.
func solveAntColony(ctx context.Context, g *domain.Graph, demand domain.Demand, model *effdist.Model, rng *rand.Rand, opts *SolverOptions) *SolverResult {
	a, err := NewAntColony(opts.ACO, rng)
	if err != nil {
		return &SolverResult{Status: StatusError, Error: err}
	}

	res, err := a.Solve(ctx, g, demand, model)
	if res == nil {
		return &SolverResult{Status: StatusError, Error: err}
	}
	return &SolverResult{
		Status:     res.Status,
		Iterations: res.Generations,
		TotalCost:  res.SharedCost,
		Paths:      res.Paths,
		Warnings:   res.Warnings,
		Subgraphs:  res.Subgraphs,
		ACO:        res,
		Error:      err,
	}
}

// fromBaseline wraps a baseline allocation.
func fromBaseline(res *BaselineResult, err error) *SolverResult {
	if res == nil {
		return &SolverResult{Status: StatusError, Error: err}
	}
	return &SolverResult{
		Status:     res.Status,
		Iterations: len(res.Paths),
		TotalCost:  res.TotalCost,
		Paths:      res.Paths,
		Warnings:   res.Warnings,
		Baseline:   res,
		Error:      err,
	}
}

// totalCost returns sum E(Q)*Q over the shared edges.
func totalCost(g *domain.Graph, model *effdist.Model) float64 {
	var cost float64
	for _, e := range g.SortedEdges() {
		if e.Flow > 0 {
			cost += model.Cost(e.Flow)
		}
	}
	return cost
}
