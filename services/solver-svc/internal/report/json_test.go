package report

import (
	"context"
	"encoding/json"
	"testing"
)

func TestJSONGenerator_Run(t *testing.T) {
	g := NewJSONGenerator()
	out, err := g.Generate(context.Background(), sampleRun())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var report JSONReport
	if err := json.Unmarshal(out, &report); err != nil {
		t.Fatalf("invalid json: %v", err)
	}

	if report.Metadata.Title != "Test Run" || report.Metadata.Type != "run" {
		t.Errorf("metadata = %+v", report.Metadata)
	}
	if report.Run == nil {
		t.Fatal("run section missing")
	}
	if report.Run.Algorithm != "ppa" || report.Run.Iterations != 17 {
		t.Errorf("run = %+v", report.Run)
	}
	if report.Run.DurationMs != 1.5 {
		t.Errorf("duration_ms = %v, want 1.5", report.Run.DurationMs)
	}
	if len(report.Run.Edges) != 3 || len(report.Run.Trace) != 3 {
		t.Errorf("raw data missing: edges %d trace %d", len(report.Run.Edges), len(report.Run.Trace))
	}
	if report.Run.Check == nil || len(report.Run.Check.Mismatches) != 1 {
		t.Errorf("check = %+v", report.Run.Check)
	}
}

func TestJSONGenerator_WithoutRawData(t *testing.T) {
	data := sampleRun()
	data.Options.IncludeRawData = false

	out, err := NewJSONGenerator().Generate(context.Background(), data)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var report JSONReport
	if err := json.Unmarshal(out, &report); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(report.Run.Edges) != 0 || len(report.Run.Paths) != 0 || len(report.Run.Trace) != 0 {
		t.Error("raw data must be omitted")
	}
	if report.Run.Cost == nil {
		t.Error("cost summary must stay")
	}
}

func TestJSONGenerator_ComparisonAndSweep(t *testing.T) {
	g := &JSONGenerator{}

	out, err := g.Generate(context.Background(), sampleComparison())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	var cmp JSONReport
	if err := json.Unmarshal(out, &cmp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(cmp.Comparison) != 3 || cmp.Comparison[1].Algorithm != "aco" {
		t.Errorf("comparison = %+v", cmp.Comparison)
	}
	if cmp.Metadata.GeneratedAt.IsZero() {
		t.Error("generated_at must default to now")
	}

	out, err = g.Generate(context.Background(), sampleSweep())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	var sw JSONReport
	if err := json.Unmarshal(out, &sw); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if sw.Sweep == nil || sw.Sweep.Succeeded != 2 || len(sw.Sweep.Rows) != 3 {
		t.Errorf("sweep = %+v", sw.Sweep)
	}
	if sw.Sweep.Cost.Mean != 66 {
		t.Errorf("cost mean = %v", sw.Sweep.Cost.Mean)
	}
}

func TestJSONGenerator_Resilience(t *testing.T) {
	out, err := NewJSONGenerator().Generate(context.Background(), sampleResilience())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	var rep JSONReport
	if err := json.Unmarshal(out, &rep); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	r := rep.Resilience
	if r == nil {
		t.Fatal("resilience section missing")
	}
	if r.Failed != 1 || len(r.CriticalEdges) != 1 || r.CriticalEdges[0].To != 8 {
		t.Errorf("resilience = %+v", r)
	}
	if len(r.Outages) != 3 || r.Outages[1].CostIncrease != 20 {
		t.Errorf("outages = %+v", r.Outages)
	}
	if rep.Metadata.Type != "resilience" {
		t.Errorf("type = %q", rep.Metadata.Type)
	}

	data := sampleResilience()
	data.Options.IncludeRawData = false
	out, err = NewJSONGenerator().Generate(context.Background(), data)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	rep = JSONReport{}
	if err := json.Unmarshal(out, &rep); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(rep.Resilience.Outages) != 0 {
		t.Errorf("outages must be omitted without raw data, got %d", len(rep.Resilience.Outages))
	}
}
