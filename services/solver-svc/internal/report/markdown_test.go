package report

import (
	"context"
	"strings"
	"testing"
)

func TestMarkdownGenerator_Run(t *testing.T) {
	out, err := NewMarkdownGenerator().Generate(context.Background(), sampleRun())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	md := string(out)

	for _, want := range []string{
		"# Test Run",
		"- **Generated:** 2024-03-01 12:00:00",
		"- **Algorithm:** ppa",
		"- **Status:** converged",
		"## Balance Check",
		"| retail | 8 | 27.0000 | 25.0000 | -2.0000 |",
		"| dc->retail | 22.0000 | 27.5000 |",
		"| 5->8 | dc->retail | 22.0000 | 40.00% | critical |",
		"1. **rebalance** shift flow away from 5->8",
		"| 2 | 8 | 2 -> 5 -> 8 | 16.0000 | 32.0000 |",
		"edge 9->3 points into a supplier",
		"*Generated by tester*",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	if strings.Index(md, "| dc->retail |") > strings.Index(md, "| supplier->dc |") {
		t.Error("tiers must be sorted by name")
	}
}

func TestMarkdownGenerator_MaxRows(t *testing.T) {
	data := sampleRun()
	data.Options.MaxRows = 2

	out, err := NewMarkdownGenerator().Generate(context.Background(), data)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(string(out), "*... and 1 more rows*") {
		t.Error("expected truncation note")
	}
}

func TestMarkdownGenerator_Comparison(t *testing.T) {
	out, err := NewMarkdownGenerator().Generate(context.Background(), sampleComparison())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	md := string(out)

	if !strings.Contains(md, "## Algorithm Comparison") {
		t.Error("comparison section missing")
	}
	if !strings.Contains(md, "**Best balanced solution:** aco (cost 65.0000)") {
		t.Errorf("best solution line missing:\n%s", md)
	}
}

func TestMarkdownGenerator_Sweep(t *testing.T) {
	out, err := NewMarkdownGenerator().Generate(context.Background(), sampleSweep())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	md := string(out)

	for _, want := range []string{
		"- **Success Ratio:** 66.67%",
		"| Total Cost | 66.0000 | 1.0000 | 65.0000 | 66.0000 | 67.0000 | 67.0000 |",
		"| 2 | 3 | 1.1000 | iteration_limit | 66.0000 | 3.00 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownGenerator_Resilience(t *testing.T) {
	out, err := NewMarkdownGenerator().Generate(context.Background(), sampleResilience())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	md := string(out)

	for _, want := range []string{
		"# Edge Outage Report",
		"- **Critical Edges:** 1",
		"- **Most Critical:** 2->5",
		"| Redundancy Level | 1.8889 |",
		"| 5 -> 8 | 22.0000 | complete | 38.0000 | -36.70 | false |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownGenerator_NoData(t *testing.T) {
	for _, typ := range []ReportType{TypeRun, TypeComparison, TypeSweep, TypeResilience} {
		out, err := NewMarkdownGenerator().Generate(context.Background(), &ReportData{Type: typ})
		if err != nil {
			t.Fatalf("Generate(%s) error = %v", typ, err)
		}
		if !strings.Contains(string(out), "available*") {
			t.Errorf("%s: expected placeholder", typ)
		}
	}
}
