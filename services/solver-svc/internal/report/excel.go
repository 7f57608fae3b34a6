package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExcelGenerator генератор Excel отчётов
type ExcelGenerator struct {
	BaseGenerator
}

// NewExcelGenerator создаёт новый генератор
func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

// Format возвращает формат генератора
func (g *ExcelGenerator) Format() string { return FormatExcel }

// Extension возвращает расширение файла
func (g *ExcelGenerator) Extension() string { return ".xlsx" }

// Имена листов
const (
	SheetSummary    = "Summary"
	SheetEdges      = "Edge Flows"
	SheetRoutes     = "Routes"
	SheetHotspots   = "Hotspots"
	SheetComparison = "Comparison"
	SheetSweep      = "Sweep"
	SheetOutages    = "Outages"
)

// Generate генерирует Excel отчёт
func (g *ExcelGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("excel style error: %w", err)
	}

	w := &sheetWriter{f: f, header: headerStyle}

	switch data.Type {
	case TypeComparison:
		g.writeComparisonExcel(w, data)
	case TypeSweep:
		g.writeSweepExcel(w, data)
	case TypeResilience:
		g.writeResilienceExcel(w, data)
	default:
		g.writeRunExcel(w, data)
	}

	if w.err != nil {
		return nil, fmt.Errorf("excel write error: %w", w.err)
	}

	// Удаляем дефолтный лист после создания своих
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// sheetWriter запоминает первую ошибку excelize
type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (w *sheetWriter) sheet(name string) {
	if w.err != nil {
		return
	}
	_, w.err = w.f.NewSheet(name)
}

func (w *sheetWriter) set(sheet string, col, row int, v any) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetCellValue(sheet, CellByIndex(col, row), v)
}

// headerRow пишет строку заголовков таблицы со стилем
func (w *sheetWriter) headerRow(sheet string, row int, headers ...string) {
	for i, h := range headers {
		w.set(sheet, i, row, h)
	}
	if w.err != nil || len(headers) == 0 {
		return
	}
	w.err = w.f.SetCellStyle(sheet, CellByIndex(0, row), CellByIndex(len(headers)-1, row), w.header)
}

// keyValues пишет пары ключ-значение, возвращает следующую свободную строку
func (w *sheetWriter) keyValues(sheet string, row int, pairs [][2]any) int {
	for _, p := range pairs {
		w.set(sheet, 0, row, p[0])
		w.set(sheet, 1, row, p[1])
		row++
	}
	return row
}

func (g *ExcelGenerator) writeRunExcel(w *sheetWriter, data *ReportData) {
	w.sheet(SheetSummary)
	w.set(SheetSummary, 0, 1, g.GetTitle(data))
	w.set(SheetSummary, 0, 2, g.FormatTimestamp(data.GeneratedAt))

	r := data.Run
	if r == nil {
		return
	}

	row := 4
	w.headerRow(SheetSummary, row, "Parameter", "Value")
	row++
	row = w.keyValues(SheetSummary, row, [][2]any{
		{"Network", r.Network},
		{"Run ID", r.RunID},
		{"Fingerprint", r.Fingerprint},
		{"Algorithm", r.Algorithm},
		{"Status", r.Status},
		{"Seed", r.Seed},
		{"Iterations", r.Iterations},
		{"Total Cost", r.TotalCost},
		{"Duration (ms)", durationMs(r.Duration)},
	})

	if c := r.Check; c != nil {
		row = w.keyValues(SheetSummary, row, [][2]any{
			{"Balanced", c.Balanced},
			{"Error %", c.ErrorPercent},
			{"Mismatches", len(c.Mismatches)},
		})
	}

	if c := r.Cost; c != nil {
		row++
		w.headerRow(SheetSummary, row, "Tier", "Flow", "Cost")
		row++
		for _, tier := range sortedKeys(c.CostByTier) {
			w.set(SheetSummary, 0, row, tier)
			w.set(SheetSummary, 1, row, c.FlowByTier[tier])
			w.set(SheetSummary, 2, row, c.CostByTier[tier])
			row++
		}
	}

	if h := r.Hotspots; h != nil && len(h.Hotspots) > 0 {
		w.sheet(SheetHotspots)
		w.headerRow(SheetHotspots, 1, "Edge", "Tier", "Flow", "Share", "Cost", "Severity")
		for i, hs := range h.Hotspots {
			row := i + 2
			w.set(SheetHotspots, 0, row, hs.Edge.String())
			w.set(SheetHotspots, 1, row, hs.Tier)
			w.set(SheetHotspots, 2, row, hs.Flow)
			w.set(SheetHotspots, 3, row, hs.Share)
			w.set(SheetHotspots, 4, row, hs.Cost)
			w.set(SheetHotspots, 5, row, string(hs.Severity))
		}
	}

	if !g.ShouldIncludeRawData(data) {
		return
	}

	if len(r.Edges) > 0 {
		w.sheet(SheetEdges)
		w.headerRow(SheetEdges, 1, "From", "To", "From Type", "To Type", "Flow", "Conductivity", "Pheromone", "Cost", "Share")
		for i, e := range r.Edges[:g.RowLimit(data, len(r.Edges))] {
			row := i + 2
			w.set(SheetEdges, 0, row, e.From)
			w.set(SheetEdges, 1, row, e.To)
			w.set(SheetEdges, 2, row, e.FromType)
			w.set(SheetEdges, 3, row, e.ToType)
			w.set(SheetEdges, 4, row, e.Flow)
			w.set(SheetEdges, 5, row, e.Conductivity)
			w.set(SheetEdges, 6, row, e.Pheromone)
			w.set(SheetEdges, 7, row, e.Cost)
			w.set(SheetEdges, 8, row, e.Share)
		}
	}

	if len(r.Paths) > 0 {
		w.sheet(SheetRoutes)
		w.headerRow(SheetRoutes, 1, "Supplier", "Retail", "Path", "Volume", "Cost")
		for i, p := range r.Paths[:g.RowLimit(data, len(r.Paths))] {
			row := i + 2
			w.set(SheetRoutes, 0, row, p.Supplier)
			w.set(SheetRoutes, 1, row, p.Retail)
			w.set(SheetRoutes, 2, row, pathString(p.Nodes))
			w.set(SheetRoutes, 3, row, p.Volume)
			w.set(SheetRoutes, 4, row, p.Cost)
		}
	}
}

func (g *ExcelGenerator) writeComparisonExcel(w *sheetWriter, data *ReportData) {
	w.sheet(SheetComparison)
	w.headerRow(SheetComparison, 1, "Algorithm", "Status", "Total Cost", "Error %", "Balanced", "Iterations", "Active Edges", "Duration (ms)", "Error")

	for i, item := range data.Comparison {
		row := i + 2
		w.set(SheetComparison, 0, row, item.Algorithm)
		w.set(SheetComparison, 1, row, item.Status)
		w.set(SheetComparison, 2, row, item.TotalCost)
		w.set(SheetComparison, 3, row, item.ErrorPercent)
		w.set(SheetComparison, 4, row, item.Balanced)
		w.set(SheetComparison, 5, row, item.Iterations)
		w.set(SheetComparison, 6, row, item.ActiveEdges)
		w.set(SheetComparison, 7, row, durationMs(item.Duration))
		w.set(SheetComparison, 8, row, item.Error)
	}
}

func (g *ExcelGenerator) writeSweepExcel(w *sheetWriter, data *ReportData) {
	w.sheet(SheetSummary)
	s := data.Sweep
	if s == nil {
		return
	}

	row := w.keyValues(SheetSummary, 1, [][2]any{
		{"Algorithm", s.Algorithm},
		{"Distribution", s.Distribution},
		{"Spread", s.Spread},
		{"Samples", s.Samples},
		{"Succeeded", s.Succeeded},
		{"Success Ratio", s.SuccessRatio},
	})

	row++
	w.headerRow(SheetSummary, row, "Metric", "Mean", "StdDev", "Min", "P50", "P95", "Max")
	for _, m := range []struct {
		name string
		s    Summary
	}{{"Total Cost", s.Cost}, {"Error %", s.ErrorPercent}} {
		row++
		for i, v := range []any{m.name, m.s.Mean, m.s.StdDev, m.s.Min, m.s.P50, m.s.P95, m.s.Max} {
			w.set(SheetSummary, i, row, v)
		}
	}

	if !g.ShouldIncludeRawData(data) || len(s.Rows) == 0 {
		return
	}

	w.sheet(SheetSweep)
	w.headerRow(SheetSweep, 1, "Index", "Seed", "Multiplier", "Status", "Total Cost", "Error %", "Balanced", "Error")
	for i, r := range s.Rows[:g.RowLimit(data, len(s.Rows))] {
		row := i + 2
		w.set(SheetSweep, 0, row, r.Index)
		w.set(SheetSweep, 1, row, r.Seed)
		w.set(SheetSweep, 2, row, r.Multiplier)
		w.set(SheetSweep, 3, row, r.Status)
		w.set(SheetSweep, 4, row, r.TotalCost)
		w.set(SheetSweep, 5, row, r.ErrorPercent)
		w.set(SheetSweep, 6, row, r.Balanced)
		w.set(SheetSweep, 7, row, r.Error)
	}
}

func (g *ExcelGenerator) writeResilienceExcel(w *sheetWriter, data *ReportData) {
	w.sheet(SheetSummary)
	r := data.Resilience
	if r == nil {
		return
	}

	w.keyValues(SheetSummary, 1, [][2]any{
		{"Network", r.Network},
		{"Algorithm", r.Algorithm},
		{"Base Cost", r.BaseCost},
		{"Base Balanced", r.BaseBalanced},
		{"Outages Tested", r.Tested},
		{"Critical Edges", r.Failed},
		{"Most Critical", r.MostCritical},
		{"Connectivity Robustness", r.ConnectivityRobustness},
		{"Cost Robustness", r.CostRobustness},
		{"Redundancy Level", r.RedundancyLevel},
		{"Score", r.Score},
	})

	if len(r.Rows) == 0 {
		return
	}

	w.sheet(SheetOutages)
	w.headerRow(SheetOutages, 1, "From", "To", "Base Flow", "Status", "Total Cost", "Cost Delta", "Increase %", "Error %", "Balanced", "Error")
	for i, o := range r.Rows[:g.RowLimit(data, len(r.Rows))] {
		row := i + 2
		for col, v := range []any{o.From, o.To, o.BaseFlow, o.Status, o.TotalCost, o.CostDelta, o.CostIncrease, o.ErrorPercent, o.Balanced, o.Error} {
			w.set(SheetOutages, col, row, v)
		}
	}
}
