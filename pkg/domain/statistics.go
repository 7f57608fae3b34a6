package domain

// GraphStatistics статистика графа
type GraphStatistics struct {
	NodeCount     int64
	EdgeCount     int64
	SupplierCount int64
	DCCount       int64
	RetailCount   int64
	Components    int
	Density       float64
	AverageDegree float64
	MaxDegree     int
	MinDegree     int
}

// FlowStatistics статистика потока
type FlowStatistics struct {
	TotalFlow     float64
	AverageFlow   float64
	MaxEdgeFlow   float64
	MaxEdge       EdgeKey
	ActiveEdges   int64
	ZeroFlowEdges int64
}

// CalculateGraphStatistics вычисляет статистику графа
func CalculateGraphStatistics(g *Graph) *GraphStatistics {
	stats := &GraphStatistics{
		NodeCount: int64(g.NodeCount()),
		EdgeCount: int64(g.EdgeCount()),
		MinDegree: int(^uint(0) >> 1), // MaxInt
	}

	// Подсчёт узлов по типам
	for _, id := range g.SortedNodeIDs() {
		switch g.NodeType(id) {
		case NodeTypeSupplier:
			stats.SupplierCount++
		case NodeTypeDC:
			stats.DCCount++
		case NodeTypeRetail:
			stats.RetailCount++
		}
	}

	degree := make(map[int64]int)
	for _, key := range g.SortedEdgeKeys() {
		degree[key.From]++
		degree[key.To]++
	}

	if len(degree) > 0 {
		totalDegree := 0
		for _, d := range degree {
			totalDegree += d
			if d > stats.MaxDegree {
				stats.MaxDegree = d
			}
			if d < stats.MinDegree {
				stats.MinDegree = d
			}
		}
		stats.AverageDegree = float64(totalDegree) / float64(len(degree))
	}
	if stats.MinDegree == int(^uint(0)>>1) {
		stats.MinDegree = 0
	}

	if stats.NodeCount > 1 {
		maxEdges := stats.NodeCount * (stats.NodeCount - 1)
		stats.Density = float64(stats.EdgeCount) / float64(maxEdges)
	}

	stats.Components = len(FindConnectedComponents(g))

	return stats
}

// CalculateFlowStatistics вычисляет статистику потока
func CalculateFlowStatistics(g *Graph) *FlowStatistics {
	stats := &FlowStatistics{}

	for _, edge := range g.SortedEdges() {
		if !edge.HasFlow() {
			stats.ZeroFlowEdges++
			continue
		}

		stats.ActiveEdges++
		stats.TotalFlow += edge.Flow

		if edge.Flow > stats.MaxEdgeFlow {
			stats.MaxEdgeFlow = edge.Flow
			stats.MaxEdge = edge.Key()
		}
	}

	if stats.ActiveEdges > 0 {
		stats.AverageFlow = stats.TotalFlow / float64(stats.ActiveEdges)
	}

	return stats
}
