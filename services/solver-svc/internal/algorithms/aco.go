package algorithms

import (
	"context"
	"math"
	"math/rand"
	"slices"

	"supplynet/pkg/apperror"
	"supplynet/pkg/domain"
	"supplynet/pkg/logger"
	"supplynet/services/solver-svc/internal/effdist"
	"supplynet/services/solver-svc/internal/graph"
)

// =============================================================================
// Ant Colony Optimization (ACO)
// =============================================================================
//
// Every generation each ant of each supplier walks from the supplier to every
// demanded retail node, choosing the next node among unvisited successors with
// probability proportional to pheromone^Alpha * eta^Beta (eta = 1/length).
// Dead ends are retried, then replaced by the static shortest path by length.
//
// A solution is scored with the congestion-aware effective distance, using the
// load of the other suppliers' incumbent best solutions plus the volume the
// ant itself has routed so far. Pheromone evaporates on every edge and the
// top-ranked complete ants reinforce their edges with Q/cost.
//
// The lowest cost complete solution per supplier is kept across generations
// and finally written into subgraph flow and aggregated.
//
// Time Complexity: O(G * S * A * T * (V + E)) for G generations, S suppliers,
// A ants and T targets per supplier
//
// References:
//   - Dorigo, M., Stützle, T. (2004). "Ant Colony Optimization"
// =============================================================================

// Default ACO hyperparameters.
const (
	DefaultAlpha           = 1.0
	DefaultBeta            = 2.0
	DefaultRho             = 0.1
	DefaultQ               = 100.0
	DefaultMinPheromone    = 1e-4
	DefaultAnts            = 15
	DefaultGenerations     = 60
	DefaultStagnationLimit = 10
	DefaultTopRatio        = 0.3
	DefaultMaxRetries      = 3
	DefaultBoostPheromone  = 5.0
	DefaultJitterPheromone = 0.1
	DefaultACOEpsilon      = 1e-2
	DefaultMinCost         = 1e-9
)

// ACOConfig holds the ant colony hyperparameters of one invocation.
type ACOConfig struct {
	// Alpha is the pheromone exponent.
	Alpha float64 `validate:"gte=0"`

	// Beta is the heuristic exponent.
	Beta float64 `validate:"gte=0"`

	// Rho is the evaporation rate.
	Rho float64 `validate:"gt=0,lt=1"`

	// Q is the reinforcement constant.
	Q float64 `validate:"gt=0"`

	// MinPheromone bounds pheromone from below after evaporation.
	MinPheromone float64 `validate:"gt=0"`

	// Ants per supplier per generation.
	Ants int `validate:"gte=1"`

	// Generations caps the number of generations.
	Generations int `validate:"gte=1"`

	// StagnationLimit stops the search after this many generations without
	// an improvement of the best total cost.
	StagnationLimit int `validate:"gte=1"`

	// TopRatio is the share of complete ants that reinforce. 0 or 1 means all.
	TopRatio float64 `validate:"gte=0,lte=1"`

	// MaxRetries is the number of random walk attempts per target.
	MaxRetries int `validate:"gte=0"`

	// BoostPheromone is the initial pheromone of supplier->demanded retail edges.
	BoostPheromone float64 `validate:"gt=0"`

	// JitterPheromone is the spread of the initial pheromone 1 + U(0, jitter).
	JitterPheromone float64 `validate:"gte=0"`

	// Epsilon is the generation cost change regarded as no change.
	Epsilon float64 `validate:"gte=0"`

	// MinCost clamps path cost before division.
	MinCost float64 `validate:"gt=0"`
}

// DefaultACOConfig returns the default ant colony hyperparameters.
func DefaultACOConfig() ACOConfig {
	return ACOConfig{
		Alpha:           DefaultAlpha,
		Beta:            DefaultBeta,
		Rho:             DefaultRho,
		Q:               DefaultQ,
		MinPheromone:    DefaultMinPheromone,
		Ants:            DefaultAnts,
		Generations:     DefaultGenerations,
		StagnationLimit: DefaultStagnationLimit,
		TopRatio:        DefaultTopRatio,
		MaxRetries:      DefaultMaxRetries,
		BoostPheromone:  DefaultBoostPheromone,
		JitterPheromone: DefaultJitterPheromone,
		Epsilon:         DefaultACOEpsilon,
		MinCost:         DefaultMinCost,
	}
}

// Validate checks the hyperparameters.
func (c ACOConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperror.Wrap(err, apperror.CodeInvalidConfig, "invalid aco config")
	}
	return nil
}

// ACOResult contains the result of an ant colony run.
type ACOResult struct {
	// Generations is the number of completed generations.
	Generations int

	// Status is StatusConverged, StatusStagnated, StatusIterationLimit or StatusCanceled.
	Status Status

	// BestCost is the cost of the best complete solution per supplier.
	// Suppliers without a complete solution are absent.
	BestCost map[int64]float64

	// TotalCost is the sum of BestCost.
	TotalCost float64

	// SharedCost is sum E(Q)*Q over the shared edges after APPLY.
	SharedCost float64

	// Paths are the routed paths of the best solutions, by supplier then retail.
	Paths []RoutedPath

	// CostHistory is the best total cost after each generation.
	CostHistory []float64

	// Warnings lists incomplete suppliers and unreachable demand.
	Warnings []*apperror.Error

	// Subgraphs holds the final per-supplier state.
	Subgraphs []*graph.Subgraph
}

// antSolution is the set of paths one ant built for one supplier.
type antSolution struct {
	paths    []RoutedPath
	cost     float64
	complete bool
}

// AntColony is the ACO solver.
type AntColony struct {
	cfg ACOConfig
	rng *rand.Rand
}

// NewAntColony validates cfg and returns a solver drawing from rng.
func NewAntColony(cfg ACOConfig, rng *rand.Rand) (*AntColony, error) {
	if rng == nil {
		return nil, ErrNilRand
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &AntColony{cfg: cfg, rng: rng}, nil
}

// Config returns the hyperparameters.
func (a *AntColony) Config() ACOConfig {
	return a.cfg
}

// Solve runs the ant colony on g for demand and writes the best flow into g.
//
// Suppliers without a complete solution keep zero flow and produce a warning;
// this is not an error. On cancellation the best solutions found so far are
// applied and returned with StatusCanceled and ErrContextCanceled (or ErrTimeout).
func (a *AntColony) Solve(ctx context.Context, g *domain.Graph, demand domain.Demand, model *effdist.Model) (*ACOResult, error) {
	if err := validateInput(g, demand, model); err != nil {
		return nil, err
	}

	log := logger.WithContext(ctx, "component", "aco")

	subgraphs, err := graph.Decompose(g, demand, a.rng, graph.DecomposeOptions{PheromoneJitter: a.cfg.JitterPheromone})
	if err != nil {
		return nil, err
	}
	a.initPheromones(subgraphs)

	result := &ACOResult{
		Status:    StatusIterationLimit,
		BestCost:  make(map[int64]float64),
		Subgraphs: subgraphs,
		Warnings:  unreachableWarnings(subgraphs),
	}

	best := make(map[int64]*antSolution, len(subgraphs))
	loads := make(map[int64]map[domain.EdgeKey]float64, len(subgraphs))

	var ctxErr error
	prevGeneration := math.Inf(1)
	bestTotal := math.Inf(1)
	stagnation := 0

	for gen := 1; gen <= a.cfg.Generations; gen++ {
		if ctx.Err() != nil {
			result.Status = StatusCanceled
			ctxErr = contextError(ctx)
			log.Warn("aco canceled", "generation", result.Generations)
			break
		}

		generationCost := 0.0
		for _, sg := range subgraphs {
			s := sg.Supplier()
			background := backgroundLoad(loads, s)

			solutions := make([]*antSolution, a.cfg.Ants)
			for i := range solutions {
				solutions[i] = a.construct(sg, background, model)
			}

			complete := make([]*antSolution, 0, len(solutions))
			for _, sol := range solutions {
				if sol.complete {
					complete = append(complete, sol)
				}
			}
			slices.SortStableFunc(complete, func(x, y *antSolution) int {
				switch {
				case x.cost < y.cost:
					return -1
				case x.cost > y.cost:
					return 1
				default:
					return 0
				}
			})

			a.evaporate(sg)
			for _, sol := range complete[:a.eliteCount(len(complete))] {
				a.reinforce(sg, sol)
			}

			if len(complete) == 0 {
				continue
			}
			generationCost += complete[0].cost

			if cur, ok := best[s]; !ok || complete[0].cost < cur.cost {
				best[s] = complete[0]
				loads[s] = solutionLoad(complete[0])
			}
		}

		total := 0.0
		for _, s := range sortedSuppliers(best) {
			total += best[s].cost
		}

		result.Generations = gen
		result.CostHistory = append(result.CostHistory, total)

		log.Debug("aco generation", "generation", gen, "generation_cost", generationCost, "best_total", total)

		if bestTotal-total > a.cfg.Epsilon {
			stagnation = 0
		} else {
			stagnation++
		}
		if total < bestTotal {
			bestTotal = total
		}

		if gen > 1 && math.Abs(generationCost-prevGeneration) <= a.cfg.Epsilon {
			result.Status = StatusConverged
			break
		}
		if stagnation >= a.cfg.StagnationLimit {
			result.Status = StatusStagnated
			break
		}
		prevGeneration = generationCost
	}

	a.apply(g, subgraphs, best, result)
	ReconcileState(g, subgraphs)
	result.SharedCost = totalCost(g, model)

	for _, w := range result.Warnings {
		if w.Code == apperror.CodeIncompleteSolution {
			log.Warn(w.Message, w.LogAttrs()...)
		}
	}
	log.Info("aco finished",
		"status", result.Status,
		"generations", result.Generations,
		"total_cost", result.TotalCost,
	)

	return result, ctxErr
}

// initPheromones boosts supplier->demanded retail edges and jitters the rest.
func (a *AntColony) initPheromones(subgraphs []*graph.Subgraph) {
	for _, sg := range subgraphs {
		for _, e := range sg.Edges() {
			if e.From == sg.Supplier() && sg.Volume(e.To) > 0 {
				e.Pheromone = a.cfg.BoostPheromone
				continue
			}
			e.Pheromone = 1 + a.rng.Float64()*a.cfg.JitterPheromone
		}
	}
}

// construct builds one ant's solution for sg.
func (a *AntColony) construct(sg *graph.Subgraph, background map[domain.EdgeKey]float64, model *effdist.Model) *antSolution {
	sol := &antSolution{complete: true}
	own := make(map[domain.EdgeKey]float64)

	for _, target := range sg.Targets() {
		nodes := a.walk(sg, target)
		if nodes == nil {
			sol.complete = false
			continue
		}

		volume := sg.Volume(target)
		for _, key := range domain.PathEdges(nodes) {
			own[key] += volume
			sol.cost += model.E(background[key]+own[key]) * volume
		}

		sol.paths = append(sol.paths, RoutedPath{
			Supplier: sg.Supplier(),
			Retail:   target,
			Nodes:    nodes,
			Volume:   volume,
		})
	}

	return sol
}

// walk returns a path from the supplier to target: a roulette walk with up to
// MaxRetries attempts, then the shortest path by length, or nil.
func (a *AntColony) walk(sg *graph.Subgraph, target int64) []int64 {
	for attempt := 0; attempt < a.cfg.MaxRetries; attempt++ {
		if nodes := a.randomWalk(sg, target); nodes != nil {
			return nodes
		}
	}

	nodes, _ := sg.ShortestPath(sg.Supplier(), target)
	return nodes
}

// randomWalk performs one roulette walk over unvisited successors.
func (a *AntColony) randomWalk(sg *graph.Subgraph, target int64) []int64 {
	current := sg.Supplier()
	nodes := []int64{current}
	visited := map[int64]bool{current: true}

	var candidates []int64
	var weights []float64

	for current != target {
		candidates = candidates[:0]
		weights = weights[:0]
		sum := 0.0

		for _, next := range sg.Successors(current) {
			if visited[next] {
				continue
			}
			e, _ := sg.Edge(current, next)
			w := fastPow(e.Pheromone, a.cfg.Alpha) * fastPow(eta(e), a.cfg.Beta)
			candidates = append(candidates, next)
			weights = append(weights, w)
			sum += w
		}

		if len(candidates) == 0 {
			return nil
		}

		chosen := len(candidates) - 1
		if sum <= 0 || math.IsInf(sum, 0) || math.IsNaN(sum) {
			chosen = a.rng.Intn(len(candidates))
		} else {
			r := a.rng.Float64() * sum
			acc := 0.0
			for i, w := range weights {
				acc += w
				if r <= acc {
					chosen = i
					break
				}
			}
		}

		current = candidates[chosen]
		visited[current] = true
		nodes = append(nodes, current)
	}

	return nodes
}

// eliteCount returns how many of n complete ants reinforce.
func (a *AntColony) eliteCount(n int) int {
	if n == 0 || a.cfg.TopRatio <= 0 || a.cfg.TopRatio >= 1 {
		return n
	}
	k := int(math.Ceil(a.cfg.TopRatio * float64(n)))
	return max(1, min(k, n))
}

// evaporate applies tau <- max(tau(1 - rho), MinPheromone) to every edge of sg.
func (a *AntColony) evaporate(sg *graph.Subgraph) {
	for _, e := range sg.Edges() {
		e.Pheromone = math.Max(e.Pheromone*(1-a.cfg.Rho), a.cfg.MinPheromone)
	}
}

// reinforce adds Q/max(cost, MinCost) to every edge of every path of sol.
func (a *AntColony) reinforce(sg *graph.Subgraph, sol *antSolution) {
	deposit := a.cfg.Q / math.Max(sol.cost, a.cfg.MinCost)
	for _, p := range sol.paths {
		for _, key := range domain.PathEdges(p.Nodes) {
			if e, ok := sg.Edge(key.From, key.To); ok {
				e.Pheromone += deposit
			}
		}
	}
}

// apply writes the best solutions into subgraph flow and aggregates.
func (a *AntColony) apply(g *domain.Graph, subgraphs []*graph.Subgraph, best map[int64]*antSolution, result *ACOResult) {
	for _, sg := range subgraphs {
		sg.ResetFlow()

		s := sg.Supplier()
		sol, ok := best[s]
		if !ok {
			if len(sg.Targets()) > 0 {
				result.Warnings = append(result.Warnings,
					apperror.NewWarning(apperror.CodeIncompleteSolution, "no complete solution for supplier").
						WithDetails("supplier", s).
						WithDetails("demand", sg.TotalDemand()))
			}
			continue
		}

		for _, p := range sol.paths {
			for _, key := range domain.PathEdges(p.Nodes) {
				if e, ok := sg.Edge(key.From, key.To); ok {
					e.Flow += p.Volume
				}
			}
			result.Paths = append(result.Paths, p)
		}
		result.BestCost[s] = sol.cost
		result.TotalCost += sol.cost
	}

	Aggregate(g, subgraphs)
}

// backgroundLoad sums the incumbent loads of every supplier except s.
func backgroundLoad(loads map[int64]map[domain.EdgeKey]float64, s int64) map[domain.EdgeKey]float64 {
	out := make(map[domain.EdgeKey]float64)
	for _, other := range sortedSuppliers(loads) {
		if other == s {
			continue
		}
		for key, v := range loads[other] {
			out[key] += v
		}
	}
	return out
}

// solutionLoad returns the per-edge volume routed by sol.
func solutionLoad(sol *antSolution) map[domain.EdgeKey]float64 {
	load := make(map[domain.EdgeKey]float64)
	for _, p := range sol.paths {
		for _, key := range domain.PathEdges(p.Nodes) {
			load[key] += p.Volume
		}
	}
	return load
}

func sortedSuppliers[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// eta is the heuristic desirability 1/length.
func eta(e *graph.EdgeState) float64 {
	return 1 / math.Max(e.Length, graph.LengthFloor)
}

// fastPow avoids math.Pow for the common exponents.
func fastPow(x, p float64) float64 {
	switch p {
	case 0:
		return 1
	case 1:
		return x
	case 2:
		return x * x
	}
	return math.Pow(x, p)
}
