package validators

import (
	"supplynet/pkg/apperror"
	"supplynet/pkg/domain"
)

// ValidateNetwork выполняет все проверки входной сети перед решением.
// Ошибки прерывают запуск, предупреждения только логируются.
func ValidateNetwork(g *domain.Graph, demand domain.Demand) *apperror.ValidationErrors {
	verrs := apperror.NewValidationErrors()

	if g == nil {
		verrs.Add(apperror.NewWithField(apperror.CodeNilInput, "graph is nil", "graph"))
		return verrs
	}

	verrs.Merge(ValidateStructure(g))
	if g.NodeCount() == 0 {
		return verrs
	}

	verrs.Merge(ValidateTopology(g))
	verrs.Merge(ValidateDemand(g, demand))

	return verrs
}
