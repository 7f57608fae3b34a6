package report

import (
	"bytes"
	"context"
	"fmt"
	"sort"
)

// MarkdownGenerator генератор Markdown отчётов
type MarkdownGenerator struct {
	BaseGenerator
}

// NewMarkdownGenerator создаёт новый генератор
func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{}
}

// Format возвращает формат генератора
func (g *MarkdownGenerator) Format() string { return FormatMarkdown }

// Extension возвращает расширение файла
func (g *MarkdownGenerator) Extension() string { return ".md" }

// Generate генерирует Markdown отчёт
func (g *MarkdownGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	var buf bytes.Buffer

	g.writeHeader(&buf, data)

	switch data.Type {
	case TypeComparison:
		g.writeComparisonReport(&buf, data)
	case TypeSweep:
		g.writeSweepReport(&buf, data)
	case TypeResilience:
		g.writeResilienceReport(&buf, data)
	default:
		g.writeRunReport(&buf, data)
	}

	g.writeFooter(&buf, data)

	return buf.Bytes(), nil
}

func (g *MarkdownGenerator) writeHeader(buf *bytes.Buffer, data *ReportData) {
	fmt.Fprintf(buf, "# %s\n\n", g.GetTitle(data))

	buf.WriteString("## Report Information\n\n")
	fmt.Fprintf(buf, "- **Generated:** %s\n", g.FormatTimestamp(data.GeneratedAt))
	fmt.Fprintf(buf, "- **Author:** %s\n", g.GetAuthor(data))

	if desc := g.GetDescription(data); desc != "" {
		fmt.Fprintf(buf, "- **Description:** %s\n", desc)
	}

	buf.WriteString("\n---\n\n")
}

func (g *MarkdownGenerator) writeRunReport(buf *bytes.Buffer, data *ReportData) {
	r := data.Run
	if r == nil {
		buf.WriteString("*No run data available*\n\n")
		return
	}

	buf.WriteString("## Run Summary\n\n")
	if r.Network != "" {
		fmt.Fprintf(buf, "- **Network:** %s\n", r.Network)
	}
	if r.RunID != "" {
		fmt.Fprintf(buf, "- **Run ID:** %s\n", r.RunID)
	}
	fmt.Fprintf(buf, "- **Algorithm:** %s\n", r.Algorithm)
	fmt.Fprintf(buf, "- **Status:** %s\n", r.Status)
	fmt.Fprintf(buf, "- **Seed:** %d\n", r.Seed)
	fmt.Fprintf(buf, "- **Iterations:** %d\n", r.Iterations)
	fmt.Fprintf(buf, "- **Total Cost:** %s\n", g.FormatFloat(r.TotalCost, 4))
	fmt.Fprintf(buf, "- **Duration:** %s\n", g.FormatDuration(r.Duration))
	if r.Error != "" {
		fmt.Fprintf(buf, "- **Error:** %s\n", r.Error)
	}
	buf.WriteString("\n")

	if s := r.GraphStats; s != nil {
		buf.WriteString("## Network Information\n\n")
		fmt.Fprintf(buf, "- **Nodes:** %d (suppliers %d, DCs %d, retail %d)\n", s.NodeCount, s.SupplierCount, s.DCCount, s.RetailCount)
		fmt.Fprintf(buf, "- **Edges:** %d\n", s.EdgeCount)
		fmt.Fprintf(buf, "- **Components:** %d\n", s.Components)
		fmt.Fprintf(buf, "- **Density:** %s\n", g.FormatFloat(s.Density, 4))
		buf.WriteString("\n")
	}

	if c := r.Check; c != nil {
		buf.WriteString("## Balance Check\n\n")
		fmt.Fprintf(buf, "- **Balanced:** %v\n", c.Balanced)
		fmt.Fprintf(buf, "- **Tolerance:** %s\n", g.FormatFloat(c.Tolerance, 4))
		fmt.Fprintf(buf, "- **Error:** %s%%\n", g.FormatFloat(c.ErrorPercent, 2))
		buf.WriteString("\n")

		if len(c.Mismatches) > 0 {
			buf.WriteString("| Kind | Node | Expected | Actual | Diff |\n")
			buf.WriteString("|------|------|----------|--------|------|\n")
			for _, m := range c.Mismatches {
				fmt.Fprintf(buf, "| %s | %d | %.4f | %.4f | %+.4f |\n", m.Kind, m.Node, m.Expected, m.Actual, m.Diff())
			}
			buf.WriteString("\n")
		}
	}

	if c := r.Cost; c != nil {
		buf.WriteString("## Cost Analysis\n\n")
		fmt.Fprintf(buf, "- **Total Cost:** %s\n", g.FormatFloat(c.TotalCost, 4))
		fmt.Fprintf(buf, "- **Transport Cost:** %s\n", g.FormatFloat(c.TransportCost, 4))
		fmt.Fprintf(buf, "- **Shipped Volume:** %s\n", g.FormatFloat(c.ShippedVolume, 4))
		fmt.Fprintf(buf, "- **Average Unit Cost:** %s\n", g.FormatFloat(c.AverageUnitCost, 4))
		fmt.Fprintf(buf, "- **Active Edges / DCs:** %d / %d\n", c.ActiveEdges, c.ActiveDCs)
		buf.WriteString("\n")

		if len(c.CostByTier) > 0 {
			buf.WriteString("| Tier | Flow | Cost |\n")
			buf.WriteString("|------|------|------|\n")
			for _, tier := range sortedKeys(c.CostByTier) {
				fmt.Fprintf(buf, "| %s | %.4f | %.4f |\n", tier, c.FlowByTier[tier], c.CostByTier[tier])
			}
			buf.WriteString("\n")
		}
	}

	if h := r.Hotspots; h != nil && len(h.Hotspots) > 0 {
		buf.WriteString("## Hotspots\n\n")
		buf.WriteString("| Edge | Tier | Flow | Share | Severity |\n")
		buf.WriteString("|------|------|------|-------|----------|\n")
		for _, hs := range h.Hotspots {
			fmt.Fprintf(buf, "| %s | %s | %.4f | %s | %s |\n", hs.Edge, hs.Tier, hs.Flow, g.FormatPercent(hs.Share), hs.Severity)
		}
		buf.WriteString("\n")

		if len(h.Recommendations) > 0 {
			buf.WriteString("### Recommendations\n\n")
			for i, rec := range h.Recommendations {
				fmt.Fprintf(buf, "%d. **%s** %s\n", i+1, rec.Type, rec.Description)
			}
			buf.WriteString("\n")
		}
	}

	if len(r.Warnings) > 0 {
		buf.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(buf, "- %s\n", w)
		}
		buf.WriteString("\n")
	}

	if !g.ShouldIncludeRawData(data) {
		return
	}

	if len(r.Edges) > 0 {
		limit := g.RowLimit(data, len(r.Edges))
		buf.WriteString("### Edge Flows\n\n")
		buf.WriteString("| From | To | Flow | Cost | Share |\n")
		buf.WriteString("|------|-----|------|------|-------|\n")
		for _, e := range r.Edges[:limit] {
			fmt.Fprintf(buf, "| %d | %d | %.4f | %.4f | %s |\n", e.From, e.To, e.Flow, e.Cost, g.FormatPercent(e.Share))
		}
		if limit < len(r.Edges) {
			fmt.Fprintf(buf, "\n*... and %d more rows*\n", len(r.Edges)-limit)
		}
		buf.WriteString("\n")
	}

	if len(r.Paths) > 0 {
		limit := g.RowLimit(data, len(r.Paths))
		buf.WriteString("### Routes\n\n")
		buf.WriteString("| Supplier | Retail | Path | Volume | Cost |\n")
		buf.WriteString("|----------|--------|------|--------|------|\n")
		for _, p := range r.Paths[:limit] {
			fmt.Fprintf(buf, "| %d | %d | %s | %.4f | %.4f |\n", p.Supplier, p.Retail, pathString(p.Nodes), p.Volume, p.Cost)
		}
		buf.WriteString("\n")
	}

	if len(r.PrunedEdges) > 0 {
		fmt.Fprintf(buf, "### Pruned Edges\n\n%d edges removed during optimization.\n\n", len(r.PrunedEdges))
	}
}

func (g *MarkdownGenerator) writeComparisonReport(buf *bytes.Buffer, data *ReportData) {
	if len(data.Comparison) == 0 {
		buf.WriteString("*No comparison data available*\n\n")
		return
	}

	buf.WriteString("## Algorithm Comparison\n\n")
	buf.WriteString("| Algorithm | Status | Total Cost | Error % | Balanced | Iterations | Active Edges | Time |\n")
	buf.WriteString("|-----------|--------|------------|---------|----------|------------|--------------|------|\n")

	for _, item := range data.Comparison {
		fmt.Fprintf(buf, "| %s | %s | %.4f | %.2f | %v | %d | %d | %s |\n",
			item.Algorithm, item.Status, item.TotalCost, item.ErrorPercent, item.Balanced,
			item.Iterations, item.ActiveEdges, g.FormatDuration(item.Duration))
	}
	buf.WriteString("\n")

	if best := BestComparison(data.Comparison); best != nil {
		fmt.Fprintf(buf, "**Best balanced solution:** %s (cost %.4f)\n\n", best.Algorithm, best.TotalCost)
	}
}

func (g *MarkdownGenerator) writeSweepReport(buf *bytes.Buffer, data *ReportData) {
	s := data.Sweep
	if s == nil {
		buf.WriteString("*No sweep data available*\n\n")
		return
	}

	buf.WriteString("## Demand Sweep\n\n")
	fmt.Fprintf(buf, "- **Algorithm:** %s\n", s.Algorithm)
	fmt.Fprintf(buf, "- **Distribution:** %s (spread %s)\n", s.Distribution, g.FormatFloat(s.Spread, 3))
	fmt.Fprintf(buf, "- **Samples:** %d\n", s.Samples)
	fmt.Fprintf(buf, "- **Success Ratio:** %s\n", g.FormatPercent(s.SuccessRatio))
	buf.WriteString("\n")

	buf.WriteString("| Metric | Mean | StdDev | Min | P50 | P95 | Max |\n")
	buf.WriteString("|--------|------|--------|-----|-----|-----|-----|\n")
	writeSummaryRow(buf, "Total Cost", s.Cost)
	writeSummaryRow(buf, "Error %", s.ErrorPercent)
	buf.WriteString("\n")

	if len(s.Rows) > 0 && g.ShouldIncludeRawData(data) {
		limit := g.RowLimit(data, len(s.Rows))
		buf.WriteString("### Samples\n\n")
		buf.WriteString("| # | Seed | Multiplier | Status | Total Cost | Error % |\n")
		buf.WriteString("|---|------|------------|--------|------------|---------|\n")
		for _, r := range s.Rows[:limit] {
			fmt.Fprintf(buf, "| %d | %d | %.4f | %s | %.4f | %.2f |\n", r.Index, r.Seed, r.Multiplier, r.Status, r.TotalCost, r.ErrorPercent)
		}
		buf.WriteString("\n")
	}
}

func (g *MarkdownGenerator) writeResilienceReport(buf *bytes.Buffer, data *ReportData) {
	r := data.Resilience
	if r == nil {
		buf.WriteString("*No resilience data available*\n\n")
		return
	}

	buf.WriteString("## Edge Outages\n\n")
	if r.Network != "" {
		fmt.Fprintf(buf, "- **Network:** %s\n", r.Network)
	}
	fmt.Fprintf(buf, "- **Algorithm:** %s\n", r.Algorithm)
	fmt.Fprintf(buf, "- **Base Cost:** %s (balanced: %v)\n", g.FormatFloat(r.BaseCost, 4), r.BaseBalanced)
	fmt.Fprintf(buf, "- **Outages Tested:** %d\n", r.Tested)
	fmt.Fprintf(buf, "- **Critical Edges:** %d\n", r.Failed)
	if r.MostCritical != "" {
		fmt.Fprintf(buf, "- **Most Critical:** %s\n", r.MostCritical)
	}
	fmt.Fprintf(buf, "- **Score:** %s\n", g.FormatFloat(r.Score, 3))
	buf.WriteString("\n")

	buf.WriteString("| Metric | Value |\n")
	buf.WriteString("|--------|-------|\n")
	fmt.Fprintf(buf, "| Connectivity Robustness | %.4f |\n", r.ConnectivityRobustness)
	fmt.Fprintf(buf, "| Cost Robustness | %.4f |\n", r.CostRobustness)
	fmt.Fprintf(buf, "| Redundancy Level | %.4f |\n", r.RedundancyLevel)
	buf.WriteString("\n")

	if len(r.Rows) > 0 {
		limit := g.RowLimit(data, len(r.Rows))
		buf.WriteString("### Outages\n\n")
		buf.WriteString("| Edge | Base Flow | Status | Total Cost | Increase % | Balanced |\n")
		buf.WriteString("|------|-----------|--------|------------|------------|----------|\n")
		for _, o := range r.Rows[:limit] {
			fmt.Fprintf(buf, "| %d -> %d | %.4f | %s | %.4f | %.2f | %v |\n",
				o.From, o.To, o.BaseFlow, o.Status, o.TotalCost, o.CostIncrease, o.Balanced)
		}
		buf.WriteString("\n")
	}
}

func writeSummaryRow(buf *bytes.Buffer, name string, s Summary) {
	fmt.Fprintf(buf, "| %s | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f |\n", name, s.Mean, s.StdDev, s.Min, s.P50, s.P95, s.Max)
}

func (g *MarkdownGenerator) writeFooter(buf *bytes.Buffer, data *ReportData) {
	buf.WriteString("---\n\n")
	fmt.Fprintf(buf, "*Generated by %s*\n", g.GetAuthor(data))
}

// BestComparison возвращает сбалансированное решение с минимальной стоимостью
func BestComparison(items []*ComparisonItem) *ComparisonItem {
	var best *ComparisonItem
	for _, item := range items {
		if !item.Balanced || item.Error != "" {
			continue
		}
		if best == nil || item.TotalCost < best.TotalCost {
			best = item
		}
	}
	return best
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
