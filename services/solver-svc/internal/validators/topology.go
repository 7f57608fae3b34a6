package validators

import (
	"fmt"

	"supplynet/pkg/apperror"
	"supplynet/pkg/domain"
)

// ValidateTopology проверяет направление рёбер между уровнями сети.
// Все находки - предупреждения: решатели работают на любом орграфе.
func ValidateTopology(g *domain.Graph) *apperror.ValidationErrors {
	verrs := apperror.NewValidationErrors()

	// 1. Рёбра против направления поставок
	for _, key := range g.SortedEdgeKeys() {
		switch {
		case g.NodeType(key.To) == domain.NodeTypeSupplier:
			verrs.Add(apperror.NewWarning(apperror.CodeBackwardEdge,
				fmt.Sprintf("edge %s enters supplier %d", key, key.To)).
				WithField(fmt.Sprintf("edges[%s]", key)))
		case g.NodeType(key.From) == domain.NodeTypeRetail:
			verrs.Add(apperror.NewWarning(apperror.CodeBackwardEdge,
				fmt.Sprintf("edge %s leaves retail node %d", key, key.From)).
				WithField(fmt.Sprintf("edges[%s]", key)))
		}
	}

	// 2. Изолированные узлы
	for _, id := range g.SortedNodeIDs() {
		if len(g.GetOutgoing(id)) == 0 && len(g.GetIncoming(id)) == 0 {
			verrs.Add(apperror.NewWarning(apperror.CodeIsolatedNode,
				fmt.Sprintf("node %d (%s) has no edges", id, g.NodeType(id))).
				WithField(fmt.Sprintf("nodes[%d]", id)))
		}
	}

	// 3. РЦ-тупики: получают поток, но не ведут ни к одной точке
	feeds := make(map[int64]bool)
	for _, r := range g.IDsByType(domain.NodeTypeRetail) {
		for id := range domain.ReverseReachable(g, r) {
			feeds[id] = true
		}
	}
	for _, id := range g.IDsByType(domain.NodeTypeDC) {
		if len(g.GetIncoming(id)) > 0 && !feeds[id] {
			verrs.Add(apperror.NewWarning(apperror.CodeIsolatedNode,
				fmt.Sprintf("distribution center %d reaches no retail node", id)).
				WithField(fmt.Sprintf("nodes[%d]", id)))
		}
	}

	// 4. Компоненты слабой связности
	if components := domain.FindConnectedComponents(g); len(components) > 1 {
		verrs.Add(apperror.NewWarning(apperror.CodeInvalidGraph,
			fmt.Sprintf("graph has %d weakly connected components", len(components))).
			WithDetails("components", len(components)))
	}

	return verrs
}
