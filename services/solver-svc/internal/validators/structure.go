package validators

import (
	"fmt"

	"supplynet/pkg/apperror"
	"supplynet/pkg/domain"
)

// ValidateStructure проверяет базовую структуру графа
func ValidateStructure(g *domain.Graph) *apperror.ValidationErrors {
	verrs := apperror.NewValidationErrors()

	// 1. Пустой граф
	if g.NodeCount() == 0 {
		verrs.Add(apperror.NewWithField(apperror.CodeEmptyGraph, "graph has no nodes", "nodes"))
		return verrs
	}

	// 2. Типы узлов
	for _, id := range g.SortedNodeIDs() {
		if g.NodeType(id) == domain.NodeTypeUnspecified {
			verrs.Add(apperror.NewWithField(apperror.CodeInvalidNodeType,
				fmt.Sprintf("node %d has unspecified type", id), fmt.Sprintf("nodes[%d]", id)))
		}
	}

	// 3. Рёбра
	for _, e := range g.SortedEdges() {
		field := fmt.Sprintf("edges[%s]", e.Key())

		for _, id := range []int64{e.From, e.To} {
			if _, ok := g.GetNode(id); !ok {
				verrs.Add(apperror.NewWithField(apperror.CodeUnknownNode,
					fmt.Sprintf("edge %s references unknown node %d", e.Key(), id), field))
			}
		}

		if e.From == e.To {
			verrs.Add(apperror.NewWithField(apperror.CodeSelfLoop,
				fmt.Sprintf("self loop at node %d", e.From), field))
		}

		if e.Length < 0 || !domain.IsFinite(e.Length) {
			verrs.Add(apperror.NewWithField(apperror.CodeNegativeLength,
				fmt.Sprintf("edge %s has invalid length %g", e.Key(), e.Length), field))
		}
	}

	return verrs
}
