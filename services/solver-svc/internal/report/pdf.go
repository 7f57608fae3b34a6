package report

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// pdfMaxRows ограничение таблиц PDF, если MaxRows не задан
const pdfMaxRows = 30

// PDFGenerator генератор PDF отчётов
type PDFGenerator struct {
	BaseGenerator
}

// NewPDFGenerator создаёт новый генератор
func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

// Format возвращает формат генератора
func (g *PDFGenerator) Format() string { return FormatPDF }

// Extension возвращает расширение файла
func (g *PDFGenerator) Extension() string { return ".pdf" }

// Стили
var (
	primaryColor   = &props.Color{Red: 52, Green: 152, Blue: 219}  // #3498db
	headerBgColor  = &props.Color{Red: 44, Green: 62, Blue: 80}    // #2c3e50
	successColor   = &props.Color{Red: 39, Green: 174, Blue: 96}   // #27ae60
	dangerColor    = &props.Color{Red: 231, Green: 76, Blue: 60}   // #e74c3c
	lightGrayColor = &props.Color{Red: 236, Green: 240, Blue: 241} // #ecf0f1
	darkGrayColor  = &props.Color{Red: 127, Green: 140, Blue: 141} // #7f8c8d

	titleStyle = props.Text{
		Size:  20,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: headerBgColor,
	}

	h2Style = props.Text{
		Size:  14,
		Style: fontstyle.Bold,
		Color: headerBgColor,
		Top:   4,
	}

	normalStyle = props.Text{
		Size: 10,
	}

	boldStyle = props.Text{
		Size:  10,
		Style: fontstyle.Bold,
	}

	smallStyle = props.Text{
		Size:  8,
		Color: darkGrayColor,
	}

	metricValueStyle = props.Text{
		Size:  16,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: primaryColor,
	}

	metricLabelStyle = props.Text{
		Size:  9,
		Align: align.Center,
		Color: darkGrayColor,
		Top:   8,
	}

	tableHeaderStyle = &props.Cell{
		BackgroundColor: primaryColor,
	}

	tableHeaderTextStyle = props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
		Align: align.Center,
	}

	tableCellStyle = &props.Cell{
		BorderType:  border.Bottom,
		BorderColor: lightGrayColor,
	}

	tableCellTextStyle = props.Text{
		Size:  9,
		Align: align.Center,
	}
)

// Generate генерирует PDF отчёт
func (g *PDFGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	g.addHeader(m, data)

	switch data.Type {
	case TypeComparison:
		g.addComparisonContent(m, data)
	case TypeSweep:
		g.addSweepContent(m, data)
	case TypeResilience:
		g.addResilienceContent(m, data)
	default:
		g.addRunContent(m, data)
	}

	g.addFooter(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

func (g *PDFGenerator) addHeader(m core.Maroto, data *ReportData) {
	m.AddRow(15,
		text.NewCol(12, g.GetTitle(data), titleStyle),
	)

	m.AddRow(5,
		line.NewCol(12),
	)

	m.AddRow(6,
		text.NewCol(6, fmt.Sprintf("Author: %s", g.GetAuthor(data)), smallStyle),
		text.NewCol(6, fmt.Sprintf("Generated: %s", g.FormatTimestamp(data.GeneratedAt)),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Right}),
	)

	if desc := g.GetDescription(data); desc != "" {
		m.AddRow(5,
			text.NewCol(12, desc, smallStyle),
		)
	}

	m.AddRow(8)
}

func (g *PDFGenerator) addRunContent(m core.Maroto, data *ReportData) {
	r := data.Run
	if r == nil {
		g.addSection(m, "No Run Data")
		return
	}

	g.addSection(m, "Run Summary")
	g.addMetricCards(m, []metricCard{
		{Label: "Total Cost", Value: g.FormatFloat(r.TotalCost, 2), Highlight: true},
		{Label: "Status", Value: r.Status},
		{Label: "Iterations", Value: fmt.Sprintf("%d", r.Iterations)},
		{Label: "Time", Value: g.FormatDuration(r.Duration)},
	})

	g.addKeyValueTable(m, []keyValue{
		{"Network", r.Network},
		{"Algorithm", r.Algorithm},
		{"Seed", fmt.Sprintf("%d", r.Seed)},
		{"Run ID", r.RunID},
	})

	if s := r.GraphStats; s != nil {
		g.addSection(m, "Network Information")
		g.addMetricCards(m, []metricCard{
			{Label: "Suppliers", Value: fmt.Sprintf("%d", s.SupplierCount)},
			{Label: "DCs", Value: fmt.Sprintf("%d", s.DCCount)},
			{Label: "Retail", Value: fmt.Sprintf("%d", s.RetailCount)},
			{Label: "Edges", Value: fmt.Sprintf("%d", s.EdgeCount)},
		})
	}

	if c := r.Check; c != nil {
		g.addSection(m, "Balance Check")
		status, color := "BALANCED", successColor
		if !c.Balanced {
			status, color = "IMBALANCED", dangerColor
		}
		m.AddRow(8,
			text.NewCol(4, status, props.Text{Size: 12, Style: fontstyle.Bold, Color: color}),
			text.NewCol(8, fmt.Sprintf("error %.2f%%, %d mismatches", c.ErrorPercent, len(c.Mismatches)), normalStyle),
		)
	}

	if c := r.Cost; c != nil && len(c.CostByTier) > 0 {
		g.addSection(m, "Cost by Tier")
		g.addTableHeader(m, []string{"Tier", "Flow", "Cost"}, []int{4, 4, 4})
		for _, tier := range sortedKeys(c.CostByTier) {
			g.addTableRow(m, []string{tier, g.FormatFloat(c.FlowByTier[tier], 2), g.FormatFloat(c.CostByTier[tier], 2)}, []int{4, 4, 4})
		}
	}

	if h := r.Hotspots; h != nil && len(h.Hotspots) > 0 {
		g.addSection(m, "Hotspots")
		sizes := []int{3, 3, 2, 2, 2}
		g.addTableHeader(m, []string{"Edge", "Tier", "Flow", "Share", "Severity"}, sizes)
		for _, hs := range h.Hotspots {
			g.addTableRow(m, []string{hs.Edge.String(), hs.Tier, g.FormatFloat(hs.Flow, 2), g.FormatPercent(hs.Share), string(hs.Severity)}, sizes)
		}
	}

	if len(r.Edges) > 0 && g.ShouldIncludeRawData(data) {
		g.addSection(m, "Edge Flows")
		sizes := []int{2, 2, 3, 3, 2}
		g.addTableHeader(m, []string{"From", "To", "Flow", "Cost", "Share"}, sizes)

		limit := g.pdfLimit(data, len(r.Edges))
		for _, e := range r.Edges[:limit] {
			g.addTableRow(m, []string{
				fmt.Sprintf("%d", e.From),
				fmt.Sprintf("%d", e.To),
				g.FormatFloat(e.Flow, 4),
				g.FormatFloat(e.Cost, 4),
				g.FormatPercent(e.Share),
			}, sizes)
		}
		if limit < len(r.Edges) {
			m.AddRow(6,
				text.NewCol(12, fmt.Sprintf("... and %d more rows", len(r.Edges)-limit), smallStyle),
			)
		}
	}
}

func (g *PDFGenerator) addComparisonContent(m core.Maroto, data *ReportData) {
	if len(data.Comparison) == 0 {
		g.addSection(m, "No Comparison Data")
		return
	}

	g.addSection(m, "Algorithm Comparison")
	sizes := []int{2, 2, 2, 2, 2, 2}
	g.addTableHeader(m, []string{"Algorithm", "Status", "Cost", "Error %", "Iterations", "Time"}, sizes)
	for _, item := range data.Comparison {
		g.addTableRow(m, []string{
			item.Algorithm,
			item.Status,
			g.FormatFloat(item.TotalCost, 2),
			g.FormatFloat(item.ErrorPercent, 2),
			fmt.Sprintf("%d", item.Iterations),
			g.FormatDuration(item.Duration),
		}, sizes)
	}

	if best := BestComparison(data.Comparison); best != nil {
		m.AddRow(5)
		m.AddRow(8,
			text.NewCol(12, fmt.Sprintf("Best balanced solution: %s (cost %.2f)", best.Algorithm, best.TotalCost), boldStyle),
		)
	}
}

func (g *PDFGenerator) addSweepContent(m core.Maroto, data *ReportData) {
	s := data.Sweep
	if s == nil {
		g.addSection(m, "No Sweep Data")
		return
	}

	g.addSection(m, "Demand Sweep")
	g.addMetricCards(m, []metricCard{
		{Label: "Samples", Value: fmt.Sprintf("%d", s.Samples)},
		{Label: "Success Ratio", Value: g.FormatPercent(s.SuccessRatio), Highlight: true},
		{Label: "Mean Cost", Value: g.FormatFloat(s.Cost.Mean, 2)},
	})

	g.addKeyValueTable(m, []keyValue{
		{"Algorithm", s.Algorithm},
		{"Distribution", fmt.Sprintf("%s (spread %.3f)", s.Distribution, s.Spread)},
	})

	m.AddRow(5)
	sizes := []int{3, 2, 2, 1, 1, 1, 2}
	g.addTableHeader(m, []string{"Metric", "Mean", "StdDev", "Min", "P50", "P95", "Max"}, sizes)
	for _, row := range []struct {
		name string
		s    Summary
	}{{"Total Cost", s.Cost}, {"Error %", s.ErrorPercent}} {
		g.addTableRow(m, []string{
			row.name,
			g.FormatFloat(row.s.Mean, 2),
			g.FormatFloat(row.s.StdDev, 2),
			g.FormatFloat(row.s.Min, 2),
			g.FormatFloat(row.s.P50, 2),
			g.FormatFloat(row.s.P95, 2),
			g.FormatFloat(row.s.Max, 2),
		}, sizes)
	}
}

func (g *PDFGenerator) addResilienceContent(m core.Maroto, data *ReportData) {
	r := data.Resilience
	if r == nil {
		g.addSection(m, "No Resilience Data")
		return
	}

	g.addSection(m, "Edge Outages")
	g.addMetricCards(m, []metricCard{
		{Label: "Outages Tested", Value: fmt.Sprintf("%d", r.Tested)},
		{Label: "Critical Edges", Value: fmt.Sprintf("%d", r.Failed)},
		{Label: "Score", Value: g.FormatFloat(r.Score, 3), Highlight: true},
	})

	items := []keyValue{
		{"Algorithm", r.Algorithm},
		{"Base Cost", g.FormatFloat(r.BaseCost, 4)},
		{"Connectivity Robustness", g.FormatFloat(r.ConnectivityRobustness, 3)},
		{"Cost Robustness", g.FormatFloat(r.CostRobustness, 3)},
		{"Redundancy Level", g.FormatFloat(r.RedundancyLevel, 3)},
	}
	if r.MostCritical != "" {
		items = append(items, keyValue{"Most Critical", r.MostCritical})
	}
	g.addKeyValueTable(m, items)

	if len(r.Rows) == 0 {
		return
	}

	m.AddRow(5)
	sizes := []int{3, 2, 2, 2, 2, 1}
	g.addTableHeader(m, []string{"Edge", "Base Flow", "Status", "Total Cost", "Increase %", "OK"}, sizes)
	for _, o := range r.Rows[:g.pdfLimit(data, len(r.Rows))] {
		ok := "yes"
		if !o.Balanced {
			ok = "no"
		}
		g.addTableRow(m, []string{
			fmt.Sprintf("%d -> %d", o.From, o.To),
			g.FormatFloat(o.BaseFlow, 2),
			o.Status,
			g.FormatFloat(o.TotalCost, 2),
			g.FormatFloat(o.CostIncrease, 2),
			ok,
		}, sizes)
	}
}

type metricCard struct {
	Label     string
	Value     string
	Highlight bool
}

func (g *PDFGenerator) addMetricCards(m core.Maroto, cards []metricCard) {
	if len(cards) == 0 {
		return
	}

	colSize := 12 / len(cards)
	if colSize < 2 {
		colSize = 2
	}

	var cols []core.Col
	for _, card := range cards {
		valueStyle := metricValueStyle
		if !card.Highlight {
			valueStyle.Size = 12
		}

		cols = append(cols,
			col.New(colSize).Add(
				text.New(card.Value, valueStyle),
				text.New(card.Label, metricLabelStyle),
			),
		)
	}

	m.AddRow(18, cols...)
}

type keyValue struct {
	Key   string
	Value string
}

func (g *PDFGenerator) addKeyValueTable(m core.Maroto, items []keyValue) {
	for _, item := range items {
		if item.Value == "" {
			continue
		}
		m.AddRow(6,
			text.NewCol(4, item.Key, boldStyle),
			text.NewCol(8, item.Value, normalStyle),
		)
	}
}

func (g *PDFGenerator) addSection(m core.Maroto, title string) {
	m.AddRow(10,
		text.NewCol(12, title, h2Style),
	)
	m.AddRow(2,
		line.NewCol(12, props.Line{Color: primaryColor}),
	)
	m.AddRow(4)
}

func (g *PDFGenerator) addTableHeader(m core.Maroto, headers []string, sizes []int) {
	cols := make([]core.Col, len(headers))
	for i, h := range headers {
		cols[i] = text.NewCol(sizes[i], h, tableHeaderTextStyle).WithStyle(tableHeaderStyle)
	}
	m.AddRow(8, cols...)
}

func (g *PDFGenerator) addTableRow(m core.Maroto, values []string, sizes []int) {
	cols := make([]core.Col, len(values))
	for i, v := range values {
		cols[i] = text.NewCol(sizes[i], v, tableCellTextStyle).WithStyle(tableCellStyle)
	}
	m.AddRow(6, cols...)
}

func (g *PDFGenerator) pdfLimit(data *ReportData, n int) int {
	limit := g.RowLimit(data, n)
	if limit > pdfMaxRows {
		limit = pdfMaxRows
	}
	return limit
}

func (g *PDFGenerator) addFooter(m core.Maroto, data *ReportData) {
	m.AddRow(10)
	m.AddRow(2,
		line.NewCol(12, props.Line{Color: lightGrayColor}),
	)
	m.AddRow(6,
		text.NewCol(12,
			fmt.Sprintf("Generated by %s | %s", g.GetAuthor(data), g.FormatTimestamp(data.GeneratedAt)),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Center},
		),
	)
}
