package analysis

import (
	"supplynet/pkg/domain"
	"supplynet/services/solver-svc/internal/effdist"
)

// Уровни рёбер сети
const (
	TierSupplierDC     = "supplier->dc"
	TierDCRetail       = "dc->retail"
	TierSupplierRetail = "supplier->retail"
	TierDCDC           = "dc->dc"
	TierOther          = "other"
)

// CostOptions дополнительные затраты поверх транспортных
type CostOptions struct {
	// FixedDCCost затраты на каждый РЦ, через который идёт поток
	FixedDCCost float64
	// HandlingCost затраты на единицу потока, вышедшую от поставщиков
	HandlingCost float64
}

// CostBreakdown разбивка стоимости решения
type CostBreakdown struct {
	TotalCost       float64            `json:"total_cost"`
	TransportCost   float64            `json:"transport_cost"`
	FixedCost       float64            `json:"fixed_cost"`
	HandlingCost    float64            `json:"handling_cost"`
	CostByTier      map[string]float64 `json:"cost_by_tier"`
	FlowByTier      map[string]float64 `json:"flow_by_tier"`
	CostBySupplier  map[int64]float64  `json:"cost_by_supplier,omitempty"`
	ActiveEdges     int                `json:"active_edges"`
	ActiveDCs       int                `json:"active_dcs"`
	TotalFlow       float64            `json:"total_flow"`
	ShippedVolume   float64            `json:"shipped_volume"`
	AverageUnitCost float64            `json:"average_unit_cost"`
}

// CalculateCost вычисляет стоимость потока: сумма E(Q)*Q по рёбрам
func CalculateCost(g *domain.Graph, model *effdist.Model) *CostBreakdown {
	return CalculateCostWithOptions(g, model, CostOptions{})
}

// CalculateCostWithOptions вычисляет стоимость с фиксированными затратами
func CalculateCostWithOptions(g *domain.Graph, model *effdist.Model, opts CostOptions) *CostBreakdown {
	b := &CostBreakdown{
		CostByTier: make(map[string]float64),
		FlowByTier: make(map[string]float64),
	}

	activeDCs := make(map[int64]bool)

	for _, e := range g.SortedEdges() {
		if !e.HasFlow() {
			continue
		}

		cost := model.Cost(e.Flow)
		tier := Tier(g, e.From, e.To)

		b.ActiveEdges++
		b.TotalFlow += e.Flow
		b.TransportCost += cost
		b.CostByTier[tier] += cost
		b.FlowByTier[tier] += e.Flow

		if g.NodeType(e.From) == domain.NodeTypeSupplier {
			b.ShippedVolume += e.Flow
		}
		for _, id := range []int64{e.From, e.To} {
			if g.NodeType(id) == domain.NodeTypeDC {
				activeDCs[id] = true
			}
		}
	}

	b.ActiveDCs = len(activeDCs)
	b.FixedCost = float64(b.ActiveDCs) * opts.FixedDCCost
	b.HandlingCost = b.ShippedVolume * opts.HandlingCost
	b.TotalCost = b.TransportCost + b.FixedCost + b.HandlingCost

	if b.ShippedVolume > Epsilon {
		b.AverageUnitCost = b.TotalCost / b.ShippedVolume
	}

	return b
}

// CalculateCostSimple упрощённый расчёт (только транспорт)
func CalculateCostSimple(g *domain.Graph, model *effdist.Model) float64 {
	var total float64
	for _, e := range g.SortedEdges() {
		if e.HasFlow() {
			total += model.Cost(e.Flow)
		}
	}
	return total
}

// Tier возвращает уровень ребра по типам концов
func Tier(g *domain.Graph, from, to int64) string {
	ft, tt := g.NodeType(from), g.NodeType(to)
	switch {
	case ft == domain.NodeTypeSupplier && tt == domain.NodeTypeDC:
		return TierSupplierDC
	case ft == domain.NodeTypeDC && tt == domain.NodeTypeRetail:
		return TierDCRetail
	case ft == domain.NodeTypeSupplier && tt == domain.NodeTypeRetail:
		return TierSupplierRetail
	case ft == domain.NodeTypeDC && tt == domain.NodeTypeDC:
		return TierDCDC
	default:
		return TierOther
	}
}
