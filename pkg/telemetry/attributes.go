package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	AttrRunID = "run.id"
	AttrStage = "run.stage"

	// Граф
	AttrGraphNodes     = "graph.nodes"
	AttrGraphEdges     = "graph.edges"
	AttrGraphSuppliers = "graph.suppliers"
	AttrGraphRetail    = "graph.retail"
	AttrDemandTotal    = "demand.total"

	// Алгоритм
	AttrAlgorithm   = "algorithm.name"
	AttrIterations  = "algorithm.iterations"
	AttrStatus      = "algorithm.status"
	AttrTotalCost   = "algorithm.total_cost"
	AttrPrunedEdges = "algorithm.pruned_edges"
	AttrSeed        = "algorithm.seed"

	// Проверка
	AttrCheckBalanced = "check.balanced"
	AttrCheckError    = "check.error_percent"
	AttrValidationErr = "validation.errors"

	// Аналитика
	AttrHotspotsCount = "analysis.hotspots_count"
)

// GraphAttributes возвращает атрибуты графа
func GraphAttributes(nodes, edges, suppliers, retail int, demandTotal float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrGraphNodes, nodes),
		attribute.Int(AttrGraphEdges, edges),
		attribute.Int(AttrGraphSuppliers, suppliers),
		attribute.Int(AttrGraphRetail, retail),
		attribute.Float64(AttrDemandTotal, demandTotal),
	}
}

// AlgorithmAttributes возвращает атрибуты алгоритма
func AlgorithmAttributes(name, status string, iterations int, totalCost float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrAlgorithm, name),
		attribute.String(AttrStatus, status),
		attribute.Int(AttrIterations, iterations),
		attribute.Float64(AttrTotalCost, totalCost),
	}
}

// CheckAttributes возвращает атрибуты проверки баланса
func CheckAttributes(balanced bool, errorPercent float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(AttrCheckBalanced, balanced),
		attribute.Float64(AttrCheckError, errorPercent),
	}
}
