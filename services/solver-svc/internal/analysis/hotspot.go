package analysis

import (
	"fmt"
	"sort"

	"supplynet/pkg/domain"
	"supplynet/services/solver-svc/internal/effdist"
)

// Severity уровень загруженности ребра
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Hotspot ребро с большой долей общего потока
type Hotspot struct {
	Edge     domain.EdgeKey `json:"edge"`
	Tier     string         `json:"tier"`
	Flow     float64        `json:"flow"`
	Share    float64        `json:"share"`
	Cost     float64        `json:"cost"`
	Severity Severity       `json:"severity"`
}

// Recommendation рекомендация по горячему ребру
type Recommendation struct {
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Edge        domain.EdgeKey `json:"edge"`
}

// HotspotReport результат поиска горячих рёбер
type HotspotReport struct {
	Hotspots        []Hotspot        `json:"hotspots"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

// FindHotspots ранжирует рёбра с потоком по доле общего потока.
// topN <= 0 - без ограничения.
func FindHotspots(g *domain.Graph, model *effdist.Model, topN int) *HotspotReport {
	total := g.TotalFlow()
	var hotspots []Hotspot

	for _, e := range g.SortedEdges() {
		// Пропускаем рёбра без потока
		if !e.HasFlow() {
			continue
		}

		share := FlowShare(e.Flow, total)
		hotspots = append(hotspots, Hotspot{
			Edge:     e.Key(),
			Tier:     Tier(g, e.From, e.To),
			Flow:     e.Flow,
			Share:    share,
			Cost:     model.Cost(e.Flow),
			Severity: calculateSeverity(share),
		})
	}

	// Сортируем по доле (убывание), при равенстве по ключу
	sort.SliceStable(hotspots, func(i, j int) bool {
		return hotspots[i].Share > hotspots[j].Share
	})

	if topN > 0 && topN < len(hotspots) {
		hotspots = hotspots[:topN]
	}

	return &HotspotReport{
		Hotspots:        hotspots,
		Recommendations: generateRecommendations(g, hotspots),
	}
}

func calculateSeverity(share float64) Severity {
	switch {
	case share >= domain.CriticalShareThreshold:
		return SeverityCritical
	case share >= domain.HighShareThreshold:
		return SeverityHigh
	case share >= domain.MediumShareThreshold:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func generateRecommendations(g *domain.Graph, hotspots []Hotspot) []Recommendation {
	var recommendations []Recommendation

	for _, h := range hotspots {
		if h.Severity != SeverityCritical && h.Severity != SeverityHigh {
			continue
		}

		// Есть ли у узла-источника другие рёбра для разгрузки
		alternatives := len(g.GetOutgoing(h.Edge.From)) - 1
		if alternatives > 0 {
			recommendations = append(recommendations, Recommendation{
				Type: "rebalance",
				Description: fmt.Sprintf("edge %s carries %.0f%% of the flow; %d alternative edges leave node %d",
					h.Edge, h.Share*100, alternatives, h.Edge.From),
				Edge: h.Edge,
			})
			continue
		}

		recommendations = append(recommendations, Recommendation{
			Type:        "add_route",
			Description: fmt.Sprintf("edge %s carries %.0f%% of the flow and is the only exit of node %d", h.Edge, h.Share*100, h.Edge.From),
			Edge:        h.Edge,
		})
	}

	return recommendations
}
