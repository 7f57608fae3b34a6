package algorithms

import (
	"context"
	"math"
	"sort"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"supplynet/pkg/apperror"
	"supplynet/pkg/domain"
	"supplynet/pkg/logger"
	"supplynet/services/solver-svc/internal/effdist"
)

// =============================================================================
// Sequential Shortest Path Baselines
// =============================================================================
//
// The baselines route demand pair by pair (suppliers ascending, then retail
// ascending). Before each pair the edge weights are rebuilt as E(Q) of the
// current shared flow, the cheapest path is found and the whole volume is
// added along it. There are no subgraphs: the baselines write shared flow
// directly.
//
// Dijkstra uses gonum's path.DijkstraFrom, A* uses path.AStar with the
// admissible heuristic h(n) = min edge weight for n != target.
//
// Both searches run over orderedGraph, which lists nodes and neighbours in
// ascending id order. simple graphs iterate Go maps, so without it two
// equal-cost paths are picked at random and the congestion seen by later
// pairs differs between identical runs.
//
// Time Complexity: O(P * (V + E) log V) for P demand pairs
// =============================================================================

// BaselineResult contains the result of a baseline allocation.
type BaselineResult struct {
	// Status is StatusComplete, StatusIncomplete or StatusCanceled.
	Status Status

	// Paths are the routed paths in routing order.
	Paths []RoutedPath

	// TotalCost is sum E(Q)*Q over the shared edges.
	TotalCost float64

	// Warnings lists pairs without a path.
	Warnings []*apperror.Error
}

// shortestFunc finds a path in the weighted graph from s to t.
type shortestFunc func(g orderedGraph, s, t int64) ([]gonum.Node, float64)

// orderedGraph is a weighted directed graph whose node iterators are sorted
// by id.
type orderedGraph struct {
	*simple.WeightedDirectedGraph
}

// Nodes returns all nodes in ascending id order.
func (g orderedGraph) Nodes() gonum.Nodes {
	return sortedNodes(g.WeightedDirectedGraph.Nodes())
}

// From returns the successors of id in ascending id order.
func (g orderedGraph) From(id int64) gonum.Nodes {
	return sortedNodes(g.WeightedDirectedGraph.From(id))
}

func sortedNodes(it gonum.Nodes) gonum.Nodes {
	nodes := gonum.NodesOf(it)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	return iterator.NewOrderedNodes(nodes)
}

// Dijkstra allocates demand along successive shortest paths.
func Dijkstra(ctx context.Context, g *domain.Graph, demand domain.Demand, model *effdist.Model) (*BaselineResult, error) {
	return allocate(ctx, g, demand, model, AlgorithmDijkstra, func(wg orderedGraph, s, t int64) ([]gonum.Node, float64) {
		return path.DijkstraFrom(wg.Node(s), wg).To(t)
	})
}

// AStar allocates demand along successive A* paths.
func AStar(ctx context.Context, g *domain.Graph, demand domain.Demand, model *effdist.Model) (*BaselineResult, error) {
	return allocate(ctx, g, demand, model, AlgorithmAStar, func(wg orderedGraph, s, t int64) ([]gonum.Node, float64) {
		floor := minWeight(wg)
		h := func(x, y gonum.Node) float64 {
			if x.ID() == y.ID() {
				return 0
			}
			return floor
		}
		shortest, _ := path.AStar(wg.Node(s), wg.Node(t), wg, h)
		return shortest.To(t)
	})
}

// allocate runs the sequential allocation with the given path finder.
func allocate(ctx context.Context, g *domain.Graph, demand domain.Demand, model *effdist.Model, name string, find shortestFunc) (*BaselineResult, error) {
	if err := validateInput(g, demand, model); err != nil {
		return nil, err
	}

	log := logger.WithContext(ctx, "component", name)
	result := &BaselineResult{Status: StatusComplete}

	g.ResetFlow()

	for _, s := range demand.Suppliers() {
		for _, r := range demand.Targets(s) {
			if ctx.Err() != nil {
				result.Status = StatusCanceled
				result.TotalCost = totalCost(g, model)
				return result, contextError(ctx)
			}

			volume := demand.Volume(s, r)
			wg := weightedGraph(g, model)

			if wg.Node(s) == nil || wg.Node(r) == nil {
				result.addMissing(s, r, volume)
				log.Warn("no path for demand pair", "supplier", s, "retail", r)
				continue
			}

			nodes, weight := find(wg, s, r)
			if len(nodes) < 2 || math.IsInf(weight, 1) {
				result.addMissing(s, r, volume)
				log.Warn("no path for demand pair", "supplier", s, "retail", r)
				continue
			}

			ids := make([]int64, len(nodes))
			for i, n := range nodes {
				ids[i] = n.ID()
			}
			if err := domain.AugmentPath(g, ids, volume); err != nil {
				return nil, apperror.NewCritical(apperror.CodeInternal, "routed path is not in the network").
					WithDetails("supplier", s).
					WithDetails("retail", r).
					WithDetails("cause", err.Error())
			}

			result.Paths = append(result.Paths, RoutedPath{Supplier: s, Retail: r, Nodes: ids, Volume: volume})
			log.Debug("pair routed", "supplier", s, "retail", r, "hops", len(ids)-1, "weight", weight)
		}
	}

	result.TotalCost = totalCost(g, model)
	return result, nil
}

func (r *BaselineResult) addMissing(s, t int64, volume float64) {
	r.Status = StatusIncomplete
	r.Warnings = append(r.Warnings, apperror.NewWarning(apperror.CodeNoPath, "no path from supplier to retail node").
		WithDetails("supplier", s).
		WithDetails("retail", t).
		WithDetails("volume", volume))
}

// weightedGraph mirrors g in gonum with weights E(current flow), clamped at 0.
func weightedGraph(g *domain.Graph, model *effdist.Model) orderedGraph {
	wg := simple.NewWeightedDirectedGraph(0, math.Inf(1))

	for _, id := range g.SortedNodeIDs() {
		wg.AddNode(simple.Node(id))
	}
	for _, e := range g.SortedEdges() {
		if e.From == e.To {
			continue
		}
		w := math.Max(model.E(e.Flow), 0)
		wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(e.From), simple.Node(e.To), w))
	}

	return orderedGraph{wg}
}

// minWeight returns the smallest edge weight of wg, or 0 when it has no edges.
func minWeight(wg orderedGraph) float64 {
	lowest := math.Inf(1)
	edges := wg.WeightedEdges()
	for edges.Next() {
		lowest = math.Min(lowest, edges.WeightedEdge().Weight())
	}
	if math.IsInf(lowest, 1) {
		return 0
	}
	return lowest
}
