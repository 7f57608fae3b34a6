package validators

import (
	"math"
	"testing"

	"supplynet/pkg/apperror"
	"supplynet/pkg/domain"
)

func TestValidateNetwork_Sample(t *testing.T) {
	g, demand := domain.SampleNetwork()

	verrs := ValidateNetwork(g, demand)

	if verrs.HasErrors() {
		t.Errorf("unexpected errors: %v", verrs.ErrorMessages())
	}
	if verrs.HasWarnings() {
		t.Errorf("unexpected warnings: %v", verrs.WarningMessages())
	}
}

func TestValidateNetwork_NilGraph(t *testing.T) {
	verrs := ValidateNetwork(nil, domain.NewDemand())
	assertCodes(t, verrs.Errors, apperror.CodeNilInput)
}

func TestValidateStructure(t *testing.T) {
	tests := []struct {
		name      string
		build     func(g *domain.Graph)
		wantCodes []apperror.ErrorCode
	}{
		{
			name:      "empty_graph",
			build:     func(g *domain.Graph) {},
			wantCodes: []apperror.ErrorCode{apperror.CodeEmptyGraph},
		},
		{
			name: "self_loop",
			build: func(g *domain.Graph) {
				g.AddNode(&domain.Node{ID: 1, Type: domain.NodeTypeDC})
				g.AddEdge(&domain.Edge{From: 1, To: 1})
			},
			wantCodes: []apperror.ErrorCode{apperror.CodeSelfLoop},
		},
		{
			name: "unknown_endpoint",
			build: func(g *domain.Graph) {
				g.AddNode(&domain.Node{ID: 1, Type: domain.NodeTypeSupplier})
				g.AddEdge(&domain.Edge{From: 1, To: 2})
			},
			wantCodes: []apperror.ErrorCode{apperror.CodeUnknownNode},
		},
		{
			name: "unspecified_type",
			build: func(g *domain.Graph) {
				g.AddNode(&domain.Node{ID: 1})
			},
			wantCodes: []apperror.ErrorCode{apperror.CodeInvalidNodeType},
		},
		{
			name: "negative_length",
			build: func(g *domain.Graph) {
				g.AddNode(&domain.Node{ID: 1, Type: domain.NodeTypeSupplier})
				g.AddNode(&domain.Node{ID: 2, Type: domain.NodeTypeRetail})
				g.AddEdge(&domain.Edge{From: 1, To: 2, Length: -3})
			},
			wantCodes: []apperror.ErrorCode{apperror.CodeNegativeLength},
		},
		{
			name: "infinite_length",
			build: func(g *domain.Graph) {
				g.AddNode(&domain.Node{ID: 1, Type: domain.NodeTypeSupplier})
				g.AddNode(&domain.Node{ID: 2, Type: domain.NodeTypeRetail})
				g.AddEdge(&domain.Edge{From: 1, To: 2, Length: math.Inf(1)})
			},
			wantCodes: []apperror.ErrorCode{apperror.CodeNegativeLength},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := domain.NewGraph()
			tt.build(g)

			verrs := ValidateStructure(g)

			if !verrs.HasErrors() {
				t.Fatal("expected errors")
			}
			assertCodes(t, verrs.Errors, tt.wantCodes...)
		})
	}
}

func TestValidateTopology(t *testing.T) {
	g, _ := domain.SampleNetwork()
	g.AddNode(&domain.Node{ID: 10, Type: domain.NodeTypeDC})
	g.AddEdge(&domain.Edge{From: 9, To: 4})
	g.AddEdge(&domain.Edge{From: 5, To: 1})

	verrs := ValidateTopology(g)

	if verrs.HasErrors() {
		t.Errorf("topology findings must be warnings, got %v", verrs.ErrorMessages())
	}
	assertCodes(t, verrs.Warnings,
		apperror.CodeBackwardEdge,
		apperror.CodeIsolatedNode,
		apperror.CodeInvalidGraph,
	)

	backward := 0
	for _, w := range verrs.Warnings {
		if w.Code == apperror.CodeBackwardEdge {
			backward++
		}
	}
	if backward != 2 {
		t.Errorf("got %d backward edge warnings, want 2", backward)
	}
}

func TestValidateTopology_DeadEndDC(t *testing.T) {
	g, _ := domain.SampleNetwork()
	g.RemoveEdge(7, 9)

	verrs := ValidateTopology(g)

	if !hasCode(verrs.Warnings, apperror.CodeIsolatedNode) {
		t.Errorf("expected dead-end warning for node 7, got %v", verrs.WarningMessages())
	}
}

func TestValidateTopology_DCLoopWithoutRetail(t *testing.T) {
	g, _ := domain.SampleNetwork()
	g.AddNode(&domain.Node{ID: 10, Type: domain.NodeTypeDC})
	g.AddNode(&domain.Node{ID: 11, Type: domain.NodeTypeDC})
	g.AddEdge(&domain.Edge{From: 1, To: 10})
	g.AddEdge(&domain.Edge{From: 10, To: 11})
	g.AddEdge(&domain.Edge{From: 11, To: 10})

	verrs := ValidateTopology(g)

	var dead []string
	for _, w := range verrs.Warnings {
		if w.Code == apperror.CodeIsolatedNode {
			dead = append(dead, w.Field)
		}
	}
	if len(dead) != 2 || dead[0] != "nodes[10]" || dead[1] != "nodes[11]" {
		t.Errorf("expected dead-end warnings for 10 and 11, got %v", dead)
	}
}

func TestValidateDemand(t *testing.T) {
	tests := []struct {
		name         string
		demand       domain.Demand
		wantCodes    []apperror.ErrorCode
		wantWarnings []apperror.ErrorCode
	}{
		{
			name:      "negative_volume",
			demand:    domain.Demand{1: {8: -1}},
			wantCodes: []apperror.ErrorCode{apperror.CodeInvalidDemand},
		},
		{
			name:      "nan_volume",
			demand:    domain.Demand{1: {8: math.NaN()}},
			wantCodes: []apperror.ErrorCode{apperror.CodeInvalidDemand},
		},
		{
			name:      "row_from_dc",
			demand:    domain.Demand{4: {8: 1}},
			wantCodes: []apperror.ErrorCode{apperror.CodeInvalidDemand},
		},
		{
			name:      "target_is_supplier",
			demand:    domain.Demand{1: {2: 1}},
			wantCodes: []apperror.ErrorCode{apperror.CodeInvalidDemand},
		},
		{
			name:      "unknown_supplier",
			demand:    domain.Demand{99: {8: 1}},
			wantCodes: []apperror.ErrorCode{apperror.CodeUnknownNode},
		},
		{
			name:      "unknown_retail",
			demand:    domain.Demand{1: {99: 1}},
			wantCodes: []apperror.ErrorCode{apperror.CodeUnknownNode},
		},
		{
			name:         "unreachable_pair",
			demand:       domain.Demand{2: {8: 1}},
			wantWarnings: []apperror.ErrorCode{apperror.CodeUnreachableDemand},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := domain.SampleNetwork()
			if tt.name == "unreachable_pair" {
				g.RemoveEdge(2, 5)
			}

			verrs := ValidateDemand(g, tt.demand)

			assertCodes(t, verrs.Errors, tt.wantCodes...)
			assertCodes(t, verrs.Warnings, tt.wantWarnings...)
			if len(tt.wantCodes) == 0 && verrs.HasErrors() {
				t.Errorf("unexpected errors: %v", verrs.ErrorMessages())
			}
		})
	}
}

func TestValidateDemand_Nil(t *testing.T) {
	g, _ := domain.SampleNetwork()
	assertCodes(t, ValidateDemand(g, nil).Errors, apperror.CodeNilInput)
}
