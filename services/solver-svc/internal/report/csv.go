package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
)

// CSVGenerator генератор CSV отчётов
type CSVGenerator struct {
	BaseGenerator
}

// NewCSVGenerator создаёт новый генератор
func NewCSVGenerator() *CSVGenerator {
	return &CSVGenerator{}
}

// Format возвращает формат генератора
func (g *CSVGenerator) Format() string { return FormatCSV }

// Extension возвращает расширение файла
func (g *CSVGenerator) Extension() string { return ".csv" }

// csvWriter обёртка для отслеживания ошибок
type csvWriter struct {
	w   *csv.Writer
	err error
}

func (cw *csvWriter) Write(record []string) {
	if cw.err != nil {
		return
	}
	cw.err = cw.w.Write(record)
}

func (cw *csvWriter) Flush() {
	if cw.err != nil {
		return
	}
	cw.w.Flush()
	cw.err = cw.w.Error()
}

func (cw *csvWriter) Error() error {
	return cw.err
}

// Generate генерирует CSV отчёт
func (g *CSVGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	var buf bytes.Buffer
	cw := &csvWriter{w: csv.NewWriter(&buf)}

	switch data.Type {
	case TypeComparison:
		g.writeComparisonCSV(cw, data)
	case TypeSweep:
		g.writeSweepCSV(cw, data)
	case TypeResilience:
		g.writeResilienceCSV(cw, data)
	default:
		g.writeRunCSV(cw, data)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("csv write error: %w", err)
	}

	return buf.Bytes(), nil
}

// writeRunCSV пишет таблицу рёбер с потоком
func (g *CSVGenerator) writeRunCSV(cw *csvWriter, data *ReportData) {
	cw.Write([]string{"from", "to", "from_type", "to_type", "flow", "conductivity", "pheromone", "cost", "share"})

	if data.Run == nil {
		return
	}

	edges := data.Run.Edges
	for _, e := range edges[:g.RowLimit(data, len(edges))] {
		cw.Write([]string{
			strconv.FormatInt(e.From, 10),
			strconv.FormatInt(e.To, 10),
			e.FromType,
			e.ToType,
			g.FormatFloat(e.Flow, 6),
			g.FormatFloat(e.Conductivity, 6),
			g.FormatFloat(e.Pheromone, 6),
			g.FormatFloat(e.Cost, 6),
			g.FormatFloat(e.Share, 6),
		})
	}
}

func (g *CSVGenerator) writeComparisonCSV(cw *csvWriter, data *ReportData) {
	cw.Write([]string{"algorithm", "status", "total_cost", "error_percent", "balanced", "iterations", "active_edges", "duration_ms", "error"})

	for _, item := range data.Comparison {
		cw.Write([]string{
			item.Algorithm,
			item.Status,
			g.FormatFloat(item.TotalCost, 6),
			g.FormatFloat(item.ErrorPercent, 4),
			strconv.FormatBool(item.Balanced),
			strconv.Itoa(item.Iterations),
			strconv.Itoa(item.ActiveEdges),
			g.FormatFloat(durationMs(item.Duration), 3),
			item.Error,
		})
	}
}

func (g *CSVGenerator) writeSweepCSV(cw *csvWriter, data *ReportData) {
	cw.Write([]string{"index", "seed", "multiplier", "status", "total_cost", "error_percent", "balanced", "error"})

	if data.Sweep == nil {
		return
	}

	rows := data.Sweep.Rows
	for _, r := range rows[:g.RowLimit(data, len(rows))] {
		cw.Write([]string{
			strconv.Itoa(r.Index),
			strconv.FormatInt(r.Seed, 10),
			g.FormatFloat(r.Multiplier, 6),
			r.Status,
			g.FormatFloat(r.TotalCost, 6),
			g.FormatFloat(r.ErrorPercent, 4),
			strconv.FormatBool(r.Balanced),
			r.Error,
		})
	}
}

func (g *CSVGenerator) writeResilienceCSV(cw *csvWriter, data *ReportData) {
	cw.Write([]string{"from", "to", "base_flow", "status", "total_cost", "cost_delta", "cost_increase", "error_percent", "balanced", "error"})

	if data.Resilience == nil {
		return
	}

	rows := data.Resilience.Rows
	for _, o := range rows[:g.RowLimit(data, len(rows))] {
		cw.Write([]string{
			strconv.FormatInt(o.From, 10),
			strconv.FormatInt(o.To, 10),
			g.FormatFloat(o.BaseFlow, 6),
			o.Status,
			g.FormatFloat(o.TotalCost, 6),
			g.FormatFloat(o.CostDelta, 6),
			g.FormatFloat(o.CostIncrease, 4),
			g.FormatFloat(o.ErrorPercent, 4),
			strconv.FormatBool(o.Balanced),
			o.Error,
		})
	}
}
