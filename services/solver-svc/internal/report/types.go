package report

import (
	"time"

	"supplynet/pkg/domain"
	"supplynet/services/solver-svc/internal/analysis"
	"supplynet/services/solver-svc/internal/converter"
	"supplynet/services/solver-svc/internal/validators"
)

// =====================================================
// Внутренние типы для генераторов отчётов
// =====================================================

// ReportType тип отчёта
type ReportType string

const (
	TypeRun        ReportType = "run"
	TypeComparison ReportType = "comparison"
	TypeSweep      ReportType = "sweep"
	TypeResilience ReportType = "resilience"
)

// Options настройки отчёта
type Options struct {
	Title          string
	Author         string
	Description    string
	IncludeRawData bool
	// MaxRows ограничивает таблицы рёбер и маршрутов; 0 - без ограничения
	MaxRows int
}

// ReportData данные для генерации отчёта
type ReportData struct {
	Type        ReportType
	Options     *Options
	GeneratedAt time.Time

	Run        *RunData
	Comparison []*ComparisonItem
	Sweep      *SweepData
	Resilience *ResilienceData
}

// RunData результат одного запуска
type RunData struct {
	RunID       string
	Fingerprint string
	Network     string
	Algorithm   string
	Status      string
	Seed        int64
	Iterations  int
	TotalCost   float64
	Duration    time.Duration
	Error       string

	GraphStats *domain.GraphStatistics
	FlowStats  *domain.FlowStatistics
	Check      *validators.CheckReport
	Cost       *analysis.CostBreakdown
	Hotspots   *analysis.HotspotReport

	Edges       []converter.FlowEdge
	Paths       []converter.PathRow
	Subgraphs   []converter.SubgraphFlow
	PrunedEdges []domain.EdgeKey
	Warnings    []string

	// Trace дельта проводимости PPA или стоимость лучшего решения ACO по итерациям
	Trace []float64
}

// ComparisonItem строка сравнения алгоритмов
type ComparisonItem struct {
	Algorithm    string
	Status       string
	TotalCost    float64
	ErrorPercent float64
	Balanced     bool
	Iterations   int
	ActiveEdges  int
	Duration     time.Duration
	Error        string
}

// Summary описательная статистика выборки
type Summary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	P50    float64
	P95    float64
}

// SweepRow один прогон серии
type SweepRow struct {
	Index        int
	Seed         int64
	Multiplier   float64
	Status       string
	TotalCost    float64
	ErrorPercent float64
	Balanced     bool
	Error        string
}

// SweepData результаты серии прогонов с возмущённым спросом
type SweepData struct {
	Algorithm    string
	Distribution string
	Spread       float64
	Samples      int
	Succeeded    int
	SuccessRatio float64
	Cost         Summary
	ErrorPercent Summary
	Rows         []SweepRow
}

// OutageRow сценарий отказа одного ребра
type OutageRow struct {
	From         int64
	To           int64
	BaseFlow     float64
	Status       string
	TotalCost    float64
	CostDelta    float64
	CostIncrease float64
	ErrorPercent float64
	Balanced     bool
	Error        string
}

// ResilienceData результаты анализа отказов рёбер (N-1)
type ResilienceData struct {
	Network                string
	Algorithm              string
	BaseCost               float64
	BaseBalanced           bool
	Tested                 int
	Failed                 int
	CriticalEdges          []domain.EdgeKey
	MostCritical           string
	ConnectivityRobustness float64
	CostRobustness         float64
	RedundancyLevel        float64
	Score                  float64
	Rows                   []OutageRow
}
