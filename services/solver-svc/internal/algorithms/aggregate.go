package algorithms

import (
	"supplynet/pkg/domain"
	"supplynet/pkg/logger"
	"supplynet/services/solver-svc/internal/graph"
)

// =============================================================================
// Flow Aggregation
// =============================================================================

// Aggregate is the only writer of shared edge flow for PPA and ACO.
//
// It resets every shared flow to 0 and then adds the positive flow of each
// subgraph edge, visiting subgraphs in the given (supplier) order and edges in
// key order. Negative subgraph flow is never propagated. Subgraph edges that
// are missing from g are skipped.
func Aggregate(g *domain.Graph, subgraphs []*graph.Subgraph) {
	g.ResetFlow()

	for _, sg := range subgraphs {
		for _, e := range sg.Edges() {
			if e.Flow <= 0 {
				continue
			}
			if !g.AddFlow(e.From, e.To, e.Flow) {
				logger.Debug("subgraph edge missing from shared graph",
					"supplier", sg.Supplier(), "edge", e.Key().String())
			}
		}
	}
}

// ReconcileState copies reporting state from the subgraphs into g: mean
// conductivity and mean length over the subgraphs containing each edge, and
// the maximum pheromone. Flow is not touched.
func ReconcileState(g *domain.Graph, subgraphs []*graph.Subgraph) {
	type acc struct {
		conductivity float64
		length       float64
		pheromone    float64
		count        int
	}
	sums := make(map[domain.EdgeKey]*acc, g.EdgeCount())

	for _, sg := range subgraphs {
		for _, e := range sg.Edges() {
			a, ok := sums[e.Key()]
			if !ok {
				a = &acc{}
				sums[e.Key()] = a
			}
			a.conductivity += e.Conductivity
			a.length += e.Length
			if e.Pheromone > a.pheromone {
				a.pheromone = e.Pheromone
			}
			a.count++
		}
	}

	for _, e := range g.SortedEdges() {
		a, ok := sums[e.Key()]
		if !ok {
			continue
		}
		n := float64(a.count)
		e.Conductivity = a.conductivity / n
		e.Length = a.length / n
		e.Pheromone = a.pheromone
	}
}
