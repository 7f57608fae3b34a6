package report

import (
	"time"

	"supplynet/pkg/domain"
	"supplynet/services/solver-svc/internal/analysis"
	"supplynet/services/solver-svc/internal/converter"
	"supplynet/services/solver-svc/internal/validators"
)

func sampleRun() *ReportData {
	return &ReportData{
		Type:        TypeRun,
		Options:     &Options{Title: "Test Run", Author: "tester", IncludeRawData: true},
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Run: &RunData{
			RunID:      "run-1",
			Network:    "sample.yaml",
			Algorithm:  "ppa",
			Status:     "converged",
			Seed:       42,
			Iterations: 17,
			TotalCost:  67.5,
			Duration:   1500 * time.Microsecond,
			GraphStats: &domain.GraphStatistics{NodeCount: 9, EdgeCount: 17, SupplierCount: 3, DCCount: 3, RetailCount: 3},
			Check: &validators.CheckReport{
				Balanced:     false,
				Tolerance:    0.5,
				ErrorPercent: 4.2,
				Mismatches: []validators.Mismatch{
					{Kind: validators.MismatchRetail, Node: 8, Expected: 27, Actual: 25},
				},
			},
			Cost: &analysis.CostBreakdown{
				TotalCost:  67.5,
				CostByTier: map[string]float64{"supplier->dc": 40, "dc->retail": 27.5},
				FlowByTier: map[string]float64{"supplier->dc": 22, "dc->retail": 22},
			},
			Hotspots: &analysis.HotspotReport{
				Hotspots: []analysis.Hotspot{
					{Edge: domain.EdgeKey{From: 5, To: 8}, Tier: "dc->retail", Flow: 22, Share: 0.4, Severity: analysis.SeverityCritical},
				},
				Recommendations: []analysis.Recommendation{
					{Type: "rebalance", Description: "shift flow away from 5->8", Edge: domain.EdgeKey{From: 5, To: 8}},
				},
			},
			Edges: []converter.FlowEdge{
				{From: 1, To: 8, FromType: "supplier", ToType: "retail", Flow: 5, Cost: 5, Share: 0.1},
				{From: 2, To: 5, FromType: "supplier", ToType: "dc", Flow: 16, Cost: 16, Share: 0.3},
				{From: 5, To: 8, FromType: "dc", ToType: "retail", Flow: 22, Cost: 22, Share: 0.4},
			},
			Paths: []converter.PathRow{
				{Supplier: 2, Retail: 8, Nodes: []int64{2, 5, 8}, Volume: 16, Cost: 32},
			},
			Warnings: []string{"edge 9->3 points into a supplier"},
			Trace:    []float64{0.5, 0.1, 0.01},
		},
	}
}

func sampleComparison() *ReportData {
	return &ReportData{
		Type:    TypeComparison,
		Options: &Options{IncludeRawData: true},
		Comparison: []*ComparisonItem{
			{Algorithm: "ppa", Status: "converged", TotalCost: 70, Balanced: true, Iterations: 40, Duration: time.Millisecond},
			{Algorithm: "aco", Status: "stagnated", TotalCost: 65, Balanced: true, Iterations: 20, Duration: 2 * time.Millisecond},
			{Algorithm: "dijkstra", Status: "complete", TotalCost: 60, ErrorPercent: 12, Balanced: false, Duration: time.Microsecond},
		},
	}
}

func sampleSweep() *ReportData {
	return &ReportData{
		Type:    TypeSweep,
		Options: &Options{IncludeRawData: true},
		Sweep: &SweepData{
			Algorithm:    "ppa",
			Distribution: "uniform",
			Spread:       0.1,
			Samples:      3,
			Succeeded:    2,
			SuccessRatio: 2.0 / 3.0,
			Cost:         Summary{Mean: 66, StdDev: 1, Min: 65, Max: 67, P50: 66, P95: 67},
			Rows: []SweepRow{
				{Index: 0, Seed: 1, Multiplier: 0.95, Status: "converged", TotalCost: 65, Balanced: true},
				{Index: 1, Seed: 2, Multiplier: 1.05, Status: "converged", TotalCost: 67, Balanced: true},
				{Index: 2, Seed: 3, Multiplier: 1.1, Status: "iteration_limit", TotalCost: 66, ErrorPercent: 3},
			},
		},
	}
}

func sampleResilience() *ReportData {
	return &ReportData{
		Type:    TypeResilience,
		Options: &Options{IncludeRawData: true},
		Resilience: &ResilienceData{
			Network:                "sample.yaml",
			Algorithm:              "dijkstra",
			BaseCost:               60,
			BaseBalanced:           true,
			Tested:                 3,
			Failed:                 1,
			CriticalEdges:          []domain.EdgeKey{{From: 5, To: 8}},
			MostCritical:           "2->5",
			ConnectivityRobustness: 2.0 / 3.0,
			CostRobustness:         0.8,
			RedundancyLevel:        17.0 / 9.0,
			Score:                  0.7333,
			Rows: []OutageRow{
				{From: 5, To: 8, BaseFlow: 22, Status: "complete", TotalCost: 38, CostDelta: -22, CostIncrease: -36.7, ErrorPercent: 81.5},
				{From: 2, To: 5, BaseFlow: 16, Status: "complete", TotalCost: 72, CostDelta: 12, CostIncrease: 20, Balanced: true},
				{From: 1, To: 8, BaseFlow: 5, Status: "complete", TotalCost: 63, CostDelta: 3, CostIncrease: 5, Balanced: true},
			},
		},
	}
}
