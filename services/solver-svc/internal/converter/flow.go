package converter

import (
	"supplynet/pkg/domain"
	"supplynet/services/solver-svc/internal/algorithms"
	"supplynet/services/solver-svc/internal/effdist"
	"supplynet/services/solver-svc/internal/graph"
)

// FlowEdge строка результата по ребру
type FlowEdge struct {
	From         int64   `json:"from"`
	To           int64   `json:"to"`
	FromType     string  `json:"from_type"`
	ToType       string  `json:"to_type"`
	Flow         float64 `json:"flow"`
	Conductivity float64 `json:"conductivity,omitempty"`
	Length       float64 `json:"length,omitempty"`
	Pheromone    float64 `json:"pheromone,omitempty"`
	Cost         float64 `json:"cost"`
	Share        float64 `json:"share"`
}

// SubgraphFlow потоки одного поставщика
type SubgraphFlow struct {
	Supplier    int64      `json:"supplier"`
	TotalDemand float64    `json:"total_demand"`
	Unreachable []int64    `json:"unreachable,omitempty"`
	Edges       []FlowEdge `json:"edges"`
}

// PathRow маршрут с объёмом и стоимостью
type PathRow struct {
	Supplier int64   `json:"supplier"`
	Retail   int64   `json:"retail"`
	Nodes    []int64 `json:"nodes"`
	Volume   float64 `json:"volume"`
	// Cost сумма E(Q) по рёбрам маршрута, умноженная на объём
	Cost float64 `json:"cost"`
}

// ToFlowEdges конвертирует рёбра с потоком в строки результата.
// model может быть nil, тогда Cost = 0.
func ToFlowEdges(g *domain.Graph, model *effdist.Model) []FlowEdge {
	total := g.TotalFlow()
	result := make([]FlowEdge, 0, g.EdgeCount())

	for _, e := range g.SortedEdges() {
		if !e.HasFlow() {
			continue
		}

		row := FlowEdge{
			From:         e.From,
			To:           e.To,
			FromType:     g.NodeType(e.From).String(),
			ToType:       g.NodeType(e.To).String(),
			Flow:         e.Flow,
			Conductivity: e.Conductivity,
			Length:       e.Length,
			Pheromone:    e.Pheromone,
		}
		if model != nil {
			row.Cost = model.Cost(e.Flow)
		}
		if total > 0 {
			row.Share = e.Flow / total
		}
		result = append(result, row)
	}

	return result
}

// ToSubgraphFlows конвертирует состояние подграфов. Отрицательный поток
// остаётся как есть: это сырое состояние решателя.
func ToSubgraphFlows(subgraphs []*graph.Subgraph) []SubgraphFlow {
	result := make([]SubgraphFlow, 0, len(subgraphs))

	for _, sg := range subgraphs {
		sf := SubgraphFlow{
			Supplier:    sg.Supplier(),
			TotalDemand: sg.TotalDemand(),
			Unreachable: sg.Unreachable(),
		}
		for _, e := range sg.Edges() {
			if domain.IsZero(e.Flow) {
				continue
			}
			sf.Edges = append(sf.Edges, FlowEdge{
				From:         e.From,
				To:           e.To,
				FromType:     sg.NodeType(e.From).String(),
				ToType:       sg.NodeType(e.To).String(),
				Flow:         e.Flow,
				Conductivity: e.Conductivity,
				Length:       e.Length,
				Pheromone:    e.Pheromone,
			})
		}
		result = append(result, sf)
	}

	return result
}

// ToPaths конвертирует маршруты решателя, стоимость считается по итоговому
// потоку общего графа
func ToPaths(paths []algorithms.RoutedPath, g *domain.Graph, model *effdist.Model) []PathRow {
	result := make([]PathRow, 0, len(paths))

	for _, p := range paths {
		row := PathRow{
			Supplier: p.Supplier,
			Retail:   p.Retail,
			Nodes:    p.Nodes,
			Volume:   p.Volume,
		}
		if model != nil {
			var unit float64
			for _, key := range domain.PathEdges(p.Nodes) {
				if e, ok := g.GetEdge(key.From, key.To); ok {
					unit += model.E(e.Flow)
				}
			}
			row.Cost = unit * p.Volume
		}
		result = append(result, row)
	}

	return result
}
