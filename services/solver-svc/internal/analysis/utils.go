package analysis

import (
	"supplynet/pkg/domain"
	"supplynet/services/solver-svc/internal/graph"
)

// Используем константы из pkg/domain
const Epsilon = domain.Epsilon

// SubgraphCosts стоимость перевозки каждого поставщика при общей загрузке g:
// поток подграфа по ребру, умноженный на E(Q) общего ребра
func SubgraphCosts(g *domain.Graph, subgraphs []*graph.Subgraph, e func(float64) float64) map[int64]float64 {
	costs := make(map[int64]float64, len(subgraphs))
	for _, sg := range subgraphs {
		var total float64
		for _, se := range sg.Edges() {
			if se.Flow <= 0 {
				continue
			}
			shared, ok := g.GetEdge(se.From, se.To)
			if !ok {
				continue
			}
			total += se.Flow * e(shared.Flow)
		}
		costs[sg.Supplier()] = total
	}
	return costs
}

// FlowShare доля потока ребра в общем потоке
func FlowShare(flow, total float64) float64 {
	if total <= Epsilon {
		return 0.0
	}
	return flow / total
}
