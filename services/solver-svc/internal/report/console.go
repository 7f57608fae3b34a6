package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"supplynet/services/solver-svc/internal/analysis"
)

// Стили консольного вывода
var (
	consoleTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#00FFFF"))

	consoleLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888"))

	consoleOKStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FF00"))

	consoleFailStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FF0000"))

	consoleHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(lipgloss.Color("#4472C4")).
				Padding(0, 1)

	consoleCellStyle = lipgloss.NewStyle().Padding(0, 1)

	consoleBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)
)

// Console печатает краткую сводку отчёта в терминал
type Console struct {
	BaseGenerator
	MaxRows int
}

// NewConsole создаёт консольный вывод; maxRows <= 0 - 10 строк
func NewConsole(maxRows int) *Console {
	if maxRows <= 0 {
		maxRows = 10
	}
	return &Console{MaxRows: maxRows}
}

// Render возвращает сводку в виде строки
func (c *Console) Render(data *ReportData) string {
	var sections []string
	sections = append(sections, consoleTitleStyle.Render(c.GetTitle(data)))

	switch data.Type {
	case TypeComparison:
		sections = append(sections, c.renderComparison(data.Comparison))
	case TypeSweep:
		sections = append(sections, c.renderSweep(data.Sweep)...)
	case TypeResilience:
		sections = append(sections, c.renderResilience(data.Resilience)...)
	default:
		sections = append(sections, c.renderRun(data.Run)...)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

// Print пишет сводку в w
func (c *Console) Print(w io.Writer, data *ReportData) error {
	_, err := io.WriteString(w, c.Render(data))
	return err
}

func (c *Console) renderRun(r *RunData) []string {
	if r == nil {
		return []string{consoleLabelStyle.Render("no run data")}
	}

	lines := []string{
		kv("algorithm", r.Algorithm),
		kv("status", r.Status),
		kv("iterations", fmt.Sprintf("%d", r.Iterations)),
		kv("total cost", c.FormatFloat(r.TotalCost, 4)),
		kv("duration", c.FormatDuration(r.Duration)),
	}
	if r.Check != nil {
		verdict := consoleOKStyle.Render("balanced")
		if !r.Check.Balanced {
			verdict = consoleFailStyle.Render(fmt.Sprintf("imbalanced (%.2f%%)", r.Check.ErrorPercent))
		}
		lines = append(lines, consoleLabelStyle.Render("check: ")+verdict)
	}

	out := []string{consoleBoxStyle.Render(strings.Join(lines, "\n"))}

	if len(r.Edges) > 0 {
		limit := c.limit(len(r.Edges))
		rows := make([][]string, 0, limit)
		for _, e := range r.Edges[:limit] {
			rows = append(rows, []string{
				fmt.Sprintf("%d -> %d", e.From, e.To),
				c.FormatFloat(e.Flow, 3),
				c.FormatFloat(e.Cost, 3),
				c.FormatPercent(e.Share),
			})
		}
		out = append(out, c.table([]string{"Edge", "Flow", "Cost", "Share"}, rows))
		if limit < len(r.Edges) {
			out = append(out, consoleLabelStyle.Render(fmt.Sprintf("... and %d more edges", len(r.Edges)-limit)))
		}
	}

	if r.Hotspots != nil && len(r.Hotspots.Hotspots) > 0 {
		out = append(out, c.renderHotspots(r.Hotspots.Hotspots))
	}

	return out
}

// renderHotspots печатает горячие рёбра; critical и high выделяются
func (c *Console) renderHotspots(hotspots []analysis.Hotspot) string {
	limit := c.limit(len(hotspots))
	lines := []string{consoleLabelStyle.Render("hotspots:")}
	for _, h := range hotspots[:limit] {
		severity := string(h.Severity)
		if h.Severity == analysis.SeverityCritical || h.Severity == analysis.SeverityHigh {
			severity = consoleFailStyle.Render(severity)
		}
		lines = append(lines, fmt.Sprintf("  %d -> %d  %s  %s of flow", h.Edge.From, h.Edge.To, severity, c.FormatPercent(h.Share)))
	}
	if limit < len(hotspots) {
		lines = append(lines, consoleLabelStyle.Render(fmt.Sprintf("  ... and %d more hotspots", len(hotspots)-limit)))
	}
	return strings.Join(lines, "\n")
}

func (c *Console) renderComparison(items []*ComparisonItem) string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		balanced := "yes"
		if !item.Balanced {
			balanced = "no"
		}
		rows = append(rows, []string{
			item.Algorithm,
			item.Status,
			c.FormatFloat(item.TotalCost, 4),
			c.FormatFloat(item.ErrorPercent, 2),
			balanced,
			c.FormatDuration(item.Duration),
		})
	}
	return c.table([]string{"Algorithm", "Status", "Cost", "Error %", "Balanced", "Time"}, rows)
}

func (c *Console) renderSweep(s *SweepData) []string {
	if s == nil {
		return []string{consoleLabelStyle.Render("no sweep data")}
	}

	summary := consoleBoxStyle.Render(strings.Join([]string{
		kv("algorithm", s.Algorithm),
		kv("distribution", fmt.Sprintf("%s (spread %.3f)", s.Distribution, s.Spread)),
		kv("samples", fmt.Sprintf("%d/%d succeeded", s.Succeeded, s.Samples)),
	}, "\n"))

	rows := [][]string{
		summaryCells("cost", s.Cost, c),
		summaryCells("error %", s.ErrorPercent, c),
	}
	return []string{summary, c.table([]string{"Metric", "Mean", "StdDev", "Min", "P50", "P95", "Max"}, rows)}
}

func (c *Console) renderResilience(r *ResilienceData) []string {
	if r == nil {
		return []string{consoleLabelStyle.Render("no resilience data")}
	}

	verdict := consoleOKStyle.Render("no critical edges")
	if r.Failed > 0 {
		verdict = consoleFailStyle.Render(fmt.Sprintf("%d critical edges", r.Failed))
	}
	lines := []string{
		kv("algorithm", r.Algorithm),
		kv("base cost", c.FormatFloat(r.BaseCost, 4)),
		kv("outages", fmt.Sprintf("%d tested", r.Tested)),
		consoleLabelStyle.Render("check: ") + verdict,
		kv("score", c.FormatFloat(r.Score, 3)),
	}
	if r.MostCritical != "" {
		lines = append(lines, kv("most critical", r.MostCritical))
	}
	out := []string{consoleBoxStyle.Render(strings.Join(lines, "\n"))}

	if len(r.Rows) > 0 {
		limit := c.limit(len(r.Rows))
		rows := make([][]string, 0, limit)
		for _, o := range r.Rows[:limit] {
			balanced := "yes"
			if !o.Balanced {
				balanced = "no"
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d -> %d", o.From, o.To),
				c.FormatFloat(o.BaseFlow, 3),
				c.FormatFloat(o.TotalCost, 4),
				c.FormatFloat(o.CostIncrease, 2),
				balanced,
			})
		}
		out = append(out, c.table([]string{"Edge", "Base flow", "Cost", "Increase %", "Balanced"}, rows))
		if limit < len(r.Rows) {
			out = append(out, consoleLabelStyle.Render(fmt.Sprintf("... and %d more outages", len(r.Rows)-limit)))
		}
	}
	return out
}

func summaryCells(name string, s Summary, c *Console) []string {
	return []string{
		name,
		c.FormatFloat(s.Mean, 3),
		c.FormatFloat(s.StdDev, 3),
		c.FormatFloat(s.Min, 3),
		c.FormatFloat(s.P50, 3),
		c.FormatFloat(s.P95, 3),
		c.FormatFloat(s.Max, 3),
	}
}

func (c *Console) table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#00FFFF"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return consoleHeaderStyle
			}
			return consoleCellStyle
		})
	return t.Render()
}

func (c *Console) limit(n int) int {
	if c.MaxRows > 0 && c.MaxRows < n {
		return c.MaxRows
	}
	return n
}

func kv(key, value string) string {
	return consoleLabelStyle.Render(key+": ") + value
}
