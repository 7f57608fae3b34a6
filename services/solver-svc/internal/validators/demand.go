package validators

import (
	"fmt"
	"slices"

	"supplynet/pkg/apperror"
	"supplynet/pkg/domain"
)

// ValidateDemand проверяет матрицу спроса относительно графа
func ValidateDemand(g *domain.Graph, demand domain.Demand) *apperror.ValidationErrors {
	verrs := apperror.NewValidationErrors()

	if demand == nil {
		verrs.Add(apperror.NewWithField(apperror.CodeNilInput, "demand matrix is nil", "demand"))
		return verrs
	}

	for _, s := range demand.Suppliers() {
		field := fmt.Sprintf("demand[%d]", s)

		switch node, ok := g.GetNode(s); {
		case !ok:
			verrs.Add(apperror.NewWithField(apperror.CodeUnknownNode,
				fmt.Sprintf("demand references unknown supplier %d", s), field))
		case node.Type != domain.NodeTypeSupplier:
			verrs.Add(apperror.NewWithField(apperror.CodeInvalidDemand,
				fmt.Sprintf("demand row %d belongs to a %s node", s, node.Type), field))
		}

		row := demand.Row(s)
		retail := make([]int64, 0, len(row))
		for r := range row {
			retail = append(retail, r)
		}
		slices.Sort(retail)

		for _, r := range retail {
			v := row[r]
			cell := fmt.Sprintf("demand[%d][%d]", s, r)

			if !domain.IsFinite(v) || v < 0 {
				verrs.Add(apperror.NewWithField(apperror.CodeInvalidDemand,
					fmt.Sprintf("demand %d->%d must be a finite non-negative volume, got %g", s, r, v), cell))
			}

			switch node, ok := g.GetNode(r); {
			case !ok:
				verrs.Add(apperror.NewWithField(apperror.CodeUnknownNode,
					fmt.Sprintf("demand references unknown retail node %d", r), cell))
			case node.Type != domain.NodeTypeRetail:
				verrs.Add(apperror.NewWithField(apperror.CodeInvalidDemand,
					fmt.Sprintf("demand target %d is a %s node", r, node.Type), cell))
			}
		}
	}

	// Недостижимые пары не мешают решению: спрос просто не будет покрыт
	for _, pair := range domain.UnreachablePairs(g, demand) {
		verrs.Add(apperror.NewWarning(apperror.CodeUnreachableDemand,
			fmt.Sprintf("retail %d is unreachable from supplier %d", pair.To, pair.From)).
			WithField(fmt.Sprintf("demand[%d][%d]", pair.From, pair.To)).
			WithDetails("volume", demand.Volume(pair.From, pair.To)))
	}

	return verrs
}
