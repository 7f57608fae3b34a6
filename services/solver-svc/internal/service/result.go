package service

import (
	"time"

	"supplynet/pkg/apperror"
	"supplynet/pkg/domain"
	"supplynet/services/solver-svc/internal/algorithms"
	"supplynet/services/solver-svc/internal/analysis"
	"supplynet/services/solver-svc/internal/converter"
	"supplynet/services/solver-svc/internal/effdist"
	"supplynet/services/solver-svc/internal/engine"
	"supplynet/services/solver-svc/internal/report"
	"supplynet/services/solver-svc/internal/validators"
)

// Этапы конвейера
const (
	StageLoad     = "load"
	StageValidate = "validate"
	StageSolve    = "solve"
	StageCheck    = "check"
	StageAnalyze  = "analyze"
	StageReport   = "report"
)

// RunResult результат одного запуска оптимизации
type RunResult struct {
	RunID       string
	Fingerprint string
	Network     string
	Algorithm   string
	Seed        int64
	StartedAt   time.Time
	// Cached true, если результат взят из memo без повторного решения
	Cached bool

	Graph  *domain.Graph
	Demand domain.Demand
	Model  *effdist.Model

	Solver     *algorithms.SolverResult
	Validation *apperror.ValidationErrors
	Check      *validators.CheckReport
	Cost       *analysis.CostBreakdown
	Hotspots   *analysis.HotspotReport
	GraphStats *domain.GraphStatistics
	FlowStats  *domain.FlowStatistics

	Timings  map[string]time.Duration
	Duration time.Duration
}

// Balanced true, если решение прошло проверку баланса
func (r *RunResult) Balanced() bool {
	return r.Check != nil && r.Check.Balanced
}

// Warnings собирает предупреждения валидации и решателя
func (r *RunResult) Warnings() []string {
	var out []string
	if r.Validation != nil {
		out = append(out, r.Validation.WarningMessages()...)
	}
	if r.Solver != nil {
		for _, w := range r.Solver.Warnings {
			out = append(out, w.Message)
		}
	}
	return out
}

// trace возвращает кривую сходимости решателя
func (r *RunResult) trace() []float64 {
	if r.Solver == nil {
		return nil
	}
	switch {
	case r.Solver.Physarum != nil:
		return r.Solver.Physarum.Delta
	case r.Solver.ACO != nil:
		return r.Solver.ACO.CostHistory
	}
	return nil
}

// ReportData конвертирует результат в данные отчёта
func (r *RunResult) ReportData(opts *report.Options) *report.ReportData {
	run := &report.RunData{
		RunID:       r.RunID,
		Fingerprint: r.Fingerprint,
		Network:     r.Network,
		Algorithm:   r.Algorithm,
		Seed:        r.Seed,
		GraphStats:  r.GraphStats,
		FlowStats:   r.FlowStats,
		Check:       r.Check,
		Cost:        r.Cost,
		Hotspots:    r.Hotspots,
		Warnings:    r.Warnings(),
		Trace:       r.trace(),
	}

	if s := r.Solver; s != nil {
		run.Status = string(s.Status)
		run.Iterations = s.Iterations
		run.TotalCost = s.TotalCost
		run.Duration = s.Duration
		run.PrunedEdges = s.PrunedEdges
		run.Subgraphs = converter.ToSubgraphFlows(s.Subgraphs)
		if s.Error != nil {
			run.Error = s.Error.Error()
		}
		if r.Graph != nil {
			run.Paths = converter.ToPaths(s.Paths, r.Graph, r.Model)
		}
	}
	if r.Graph != nil {
		run.Edges = converter.ToFlowEdges(r.Graph, r.Model)
	}

	return &report.ReportData{
		Type:        report.TypeRun,
		Options:     opts,
		GeneratedAt: r.StartedAt,
		Run:         run,
	}
}

// Comparison результат запуска всех алгоритмов на одном входе
type Comparison struct {
	RunID       string
	Network     string
	Fingerprint string
	StartedAt   time.Time
	Results     []*RunResult
}

// Best возвращает сбалансированный результат с минимальной стоимостью
func (c *Comparison) Best() *RunResult {
	var best *RunResult
	for _, r := range c.Results {
		if !r.Balanced() || r.Solver == nil || r.Solver.Error != nil {
			continue
		}
		if best == nil || r.Solver.TotalCost < best.Solver.TotalCost {
			best = r
		}
	}
	return best
}

// Balanced true, если хотя бы один алгоритм дал сбалансированное решение
func (c *Comparison) Balanced() bool {
	return c.Best() != nil
}

// ReportData конвертирует сравнение в данные отчёта
func (c *Comparison) ReportData(opts *report.Options) *report.ReportData {
	items := make([]*report.ComparisonItem, 0, len(c.Results))
	for _, r := range c.Results {
		item := &report.ComparisonItem{
			Algorithm: r.Algorithm,
			Balanced:  r.Balanced(),
		}
		if s := r.Solver; s != nil {
			item.Status = string(s.Status)
			item.TotalCost = s.TotalCost
			item.Iterations = s.Iterations
			item.Duration = s.Duration
			if s.Error != nil {
				item.Error = s.Error.Error()
			}
		}
		if r.Check != nil {
			item.ErrorPercent = r.Check.ErrorPercent
		}
		if r.Cost != nil {
			item.ActiveEdges = r.Cost.ActiveEdges
		}
		items = append(items, item)
	}

	return &report.ReportData{
		Type:        report.TypeComparison,
		Options:     opts,
		GeneratedAt: c.StartedAt,
		Comparison:  items,
	}
}

// SweepRun результат серии прогонов
type SweepRun struct {
	RunID        string
	Network      string
	Algorithm    string
	Distribution string
	Spread       float64
	StartedAt    time.Time
	Result       *engine.SweepResult
}

// ResilienceRun результат анализа отказов рёбер
type ResilienceRun struct {
	RunID     string
	Network   string
	Algorithm string
	StartedAt time.Time
	Result    *engine.ResilienceResult
}

// ReportData конвертирует анализ отказов в данные отчёта
func (rr *ResilienceRun) ReportData(opts *report.Options) *report.ReportData {
	res := rr.Result
	data := &report.ResilienceData{
		Network:                rr.Network,
		Algorithm:              rr.Algorithm,
		BaseCost:               res.BaseCost,
		BaseBalanced:           res.BaseBalanced,
		Tested:                 res.Tested,
		Failed:                 res.Failed,
		CriticalEdges:          res.CriticalEdges,
		ConnectivityRobustness: res.ConnectivityRobustness,
		CostRobustness:         res.CostRobustness,
		RedundancyLevel:        res.RedundancyLevel,
		Score:                  res.Score,
		Rows:                   make([]report.OutageRow, 0, len(res.Outages)),
	}
	if res.MostCritical != nil {
		data.MostCritical = res.MostCritical.String()
	}

	for _, o := range res.Outages {
		row := report.OutageRow{
			From:         o.Edge.From,
			To:           o.Edge.To,
			BaseFlow:     o.BaseFlow,
			Status:       string(o.Status),
			TotalCost:    o.TotalCost,
			CostDelta:    o.CostDelta,
			CostIncrease: o.CostIncrease,
			ErrorPercent: o.ErrorPercent,
			Balanced:     o.Balanced,
		}
		if o.Err != nil {
			row.Error = o.Err.Error()
		}
		data.Rows = append(data.Rows, row)
	}

	return &report.ReportData{
		Type:        report.TypeResilience,
		Options:     opts,
		GeneratedAt: rr.StartedAt,
		Resilience:  data,
	}
}

// ReportData конвертирует серию в данные отчёта
func (s *SweepRun) ReportData(opts *report.Options) *report.ReportData {
	res := s.Result
	data := &report.SweepData{
		Algorithm:    s.Algorithm,
		Distribution: s.Distribution,
		Spread:       s.Spread,
		Samples:      len(res.Samples),
		Succeeded:    res.Succeeded,
		SuccessRatio: res.SuccessRatio,
		Cost:         report.Summary(res.Cost),
		ErrorPercent: report.Summary(res.ErrorPercent),
		Rows:         make([]report.SweepRow, 0, len(res.Samples)),
	}

	for _, smp := range res.Samples {
		row := report.SweepRow{
			Index:        smp.Index,
			Seed:         smp.Seed,
			Multiplier:   smp.Multiplier,
			Status:       string(smp.Status),
			TotalCost:    smp.TotalCost,
			ErrorPercent: smp.ErrorPercent,
			Balanced:     smp.Balanced,
		}
		if smp.Err != nil {
			row.Error = smp.Err.Error()
		}
		data.Rows = append(data.Rows, row)
	}

	return &report.ReportData{
		Type:        report.TypeSweep,
		Options:     opts,
		GeneratedAt: s.StartedAt,
		Sweep:       data,
	}
}
