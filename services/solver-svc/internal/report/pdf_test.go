package report

import (
	"bytes"
	"context"
	"testing"
)

func TestPDFGenerator_Format(t *testing.T) {
	g := NewPDFGenerator()
	if g.Format() != FormatPDF || g.Extension() != ".pdf" {
		t.Errorf("Format() = %s, Extension() = %s", g.Format(), g.Extension())
	}
}

func TestPDFGenerator_Generate(t *testing.T) {
	tests := []struct {
		name string
		data *ReportData
	}{
		{"run", sampleRun()},
		{"comparison", sampleComparison()},
		{"sweep", sampleSweep()},
		{"resilience", sampleResilience()},
		{"empty resilience", &ReportData{Type: TypeResilience}},
		{"empty run", &ReportData{Type: TypeRun}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewPDFGenerator().Generate(context.Background(), tt.data)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if !bytes.HasPrefix(out, []byte("%PDF")) {
				t.Error("output is not a PDF document")
			}
		})
	}
}

func TestPDFGenerator_LongEdgeTable(t *testing.T) {
	data := sampleRun()
	edge := data.Run.Edges[0]
	for i := 0; i < 50; i++ {
		data.Run.Edges = append(data.Run.Edges, edge)
	}

	g := NewPDFGenerator()
	if got := g.pdfLimit(data, len(data.Run.Edges)); got != pdfMaxRows {
		t.Errorf("pdfLimit = %d, want %d", got, pdfMaxRows)
	}
	if _, err := g.Generate(context.Background(), data); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
}
