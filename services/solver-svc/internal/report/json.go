package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"supplynet/pkg/domain"
	"supplynet/services/solver-svc/internal/analysis"
	"supplynet/services/solver-svc/internal/converter"
	"supplynet/services/solver-svc/internal/validators"
)

// JSONGenerator генератор JSON отчётов
type JSONGenerator struct {
	BaseGenerator
	Indent bool
}

// NewJSONGenerator создаёт новый генератор
func NewJSONGenerator() *JSONGenerator {
	return &JSONGenerator{Indent: true}
}

// Format возвращает формат генератора
func (g *JSONGenerator) Format() string { return FormatJSON }

// Extension возвращает расширение файла
func (g *JSONGenerator) Extension() string { return ".json" }

// JSONReport корневая структура JSON отчёта
type JSONReport struct {
	Metadata   JSONMetadata      `json:"metadata"`
	Run        *JSONRun          `json:"run,omitempty"`
	Comparison []*JSONComparison `json:"comparison,omitempty"`
	Sweep      *JSONSweep        `json:"sweep,omitempty"`
	Resilience *JSONResilience   `json:"resilience,omitempty"`
}

// JSONMetadata метаданные отчёта
type JSONMetadata struct {
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	GeneratedAt time.Time `json:"generated_at"`
}

// JSONRun результат запуска
type JSONRun struct {
	RunID       string                   `json:"run_id,omitempty"`
	Fingerprint string                   `json:"fingerprint,omitempty"`
	Network     string                   `json:"network,omitempty"`
	Algorithm   string                   `json:"algorithm"`
	Status      string                   `json:"status"`
	Seed        int64                    `json:"seed"`
	Iterations  int                      `json:"iterations"`
	TotalCost   float64                  `json:"total_cost"`
	DurationMs  float64                  `json:"duration_ms"`
	Error       string                   `json:"error,omitempty"`
	Graph       *domain.GraphStatistics  `json:"graph,omitempty"`
	Flow        *domain.FlowStatistics   `json:"flow,omitempty"`
	Check       *validators.CheckReport  `json:"check,omitempty"`
	Cost        *analysis.CostBreakdown  `json:"cost,omitempty"`
	Hotspots    *analysis.HotspotReport  `json:"hotspots,omitempty"`
	Edges       []converter.FlowEdge     `json:"edges,omitempty"`
	Paths       []converter.PathRow      `json:"paths,omitempty"`
	Subgraphs   []converter.SubgraphFlow `json:"subgraphs,omitempty"`
	PrunedEdges []domain.EdgeKey         `json:"pruned_edges,omitempty"`
	Warnings    []string                 `json:"warnings,omitempty"`
	Trace       []float64                `json:"trace,omitempty"`
}

// JSONComparison строка сравнения
type JSONComparison struct {
	Algorithm    string  `json:"algorithm"`
	Status       string  `json:"status"`
	TotalCost    float64 `json:"total_cost"`
	ErrorPercent float64 `json:"error_percent"`
	Balanced     bool    `json:"balanced"`
	Iterations   int     `json:"iterations"`
	ActiveEdges  int     `json:"active_edges"`
	DurationMs   float64 `json:"duration_ms"`
	Error        string  `json:"error,omitempty"`
}

// JSONSweep результаты серии
type JSONSweep struct {
	Algorithm    string     `json:"algorithm"`
	Distribution string     `json:"distribution"`
	Spread       float64    `json:"spread"`
	Samples      int        `json:"samples"`
	Succeeded    int        `json:"succeeded"`
	SuccessRatio float64    `json:"success_ratio"`
	Cost         Summary    `json:"cost"`
	ErrorPercent Summary    `json:"error_percent"`
	Rows         []SweepRow `json:"rows,omitempty"`
}

// JSONResilience результаты анализа отказов рёбер
type JSONResilience struct {
	Network                string           `json:"network,omitempty"`
	Algorithm              string           `json:"algorithm"`
	BaseCost               float64          `json:"base_cost"`
	BaseBalanced           bool             `json:"base_balanced"`
	Tested                 int              `json:"tested"`
	Failed                 int              `json:"failed"`
	CriticalEdges          []domain.EdgeKey `json:"critical_edges,omitempty"`
	MostCritical           string           `json:"most_critical,omitempty"`
	ConnectivityRobustness float64          `json:"connectivity_robustness"`
	CostRobustness         float64          `json:"cost_robustness"`
	RedundancyLevel        float64          `json:"redundancy_level"`
	Score                  float64          `json:"score"`
	Outages                []OutageRow      `json:"outages,omitempty"`
}

// Generate генерирует JSON отчёт
func (g *JSONGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	report := JSONReport{
		Metadata: JSONMetadata{
			Title:       g.GetTitle(data),
			Author:      g.GetAuthor(data),
			Description: g.GetDescription(data),
			Type:        string(data.Type),
			GeneratedAt: data.GeneratedAt,
		},
	}
	if report.Metadata.GeneratedAt.IsZero() {
		report.Metadata.GeneratedAt = time.Now()
	}

	if data.Run != nil {
		report.Run = g.convertRun(data)
	}

	for _, item := range data.Comparison {
		report.Comparison = append(report.Comparison, &JSONComparison{
			Algorithm:    item.Algorithm,
			Status:       item.Status,
			TotalCost:    item.TotalCost,
			ErrorPercent: item.ErrorPercent,
			Balanced:     item.Balanced,
			Iterations:   item.Iterations,
			ActiveEdges:  item.ActiveEdges,
			DurationMs:   durationMs(item.Duration),
			Error:        item.Error,
		})
	}

	if s := data.Sweep; s != nil {
		report.Sweep = &JSONSweep{
			Algorithm:    s.Algorithm,
			Distribution: s.Distribution,
			Spread:       s.Spread,
			Samples:      s.Samples,
			Succeeded:    s.Succeeded,
			SuccessRatio: s.SuccessRatio,
			Cost:         s.Cost,
			ErrorPercent: s.ErrorPercent,
		}
		if g.ShouldIncludeRawData(data) {
			report.Sweep.Rows = s.Rows
		}
	}

	if r := data.Resilience; r != nil {
		report.Resilience = &JSONResilience{
			Network:                r.Network,
			Algorithm:              r.Algorithm,
			BaseCost:               r.BaseCost,
			BaseBalanced:           r.BaseBalanced,
			Tested:                 r.Tested,
			Failed:                 r.Failed,
			CriticalEdges:          r.CriticalEdges,
			MostCritical:           r.MostCritical,
			ConnectivityRobustness: r.ConnectivityRobustness,
			CostRobustness:         r.CostRobustness,
			RedundancyLevel:        r.RedundancyLevel,
			Score:                  r.Score,
		}
		if g.ShouldIncludeRawData(data) {
			report.Resilience.Outages = r.Rows
		}
	}

	var (
		out []byte
		err error
	)
	if g.Indent {
		out, err = json.MarshalIndent(report, "", "  ")
	} else {
		out, err = json.Marshal(report)
	}
	if err != nil {
		return nil, fmt.Errorf("json marshal error: %w", err)
	}
	return out, nil
}

func (g *JSONGenerator) convertRun(data *ReportData) *JSONRun {
	r := data.Run
	out := &JSONRun{
		RunID:       r.RunID,
		Fingerprint: r.Fingerprint,
		Network:     r.Network,
		Algorithm:   r.Algorithm,
		Status:      r.Status,
		Seed:        r.Seed,
		Iterations:  r.Iterations,
		TotalCost:   r.TotalCost,
		DurationMs:  durationMs(r.Duration),
		Error:       r.Error,
		Graph:       r.GraphStats,
		Flow:        r.FlowStats,
		Check:       r.Check,
		Cost:        r.Cost,
		Hotspots:    r.Hotspots,
		Warnings:    r.Warnings,
	}

	if g.ShouldIncludeRawData(data) {
		out.Edges = r.Edges
		out.Paths = r.Paths
		out.Subgraphs = r.Subgraphs
		out.PrunedEdges = r.PrunedEdges
		out.Trace = r.Trace
	}
	return out
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
