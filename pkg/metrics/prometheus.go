package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics контейнер метрик оптимизатора.
// Процесс пакетный, поэтому метрики живут в собственном реестре
// и выгружаются в textfile для node_exporter.
type Metrics struct {
	registry *prometheus.Registry

	// Решатели
	SolveOperationsTotal *prometheus.CounterVec
	SolveDuration        *prometheus.HistogramVec
	SolvesInFlight       prometheus.Gauge
	StageDuration        *prometheus.HistogramVec
	SolveIterations      *prometheus.HistogramVec
	TotalCost            *prometheus.GaugeVec
	PrunedEdgesTotal     *prometheus.CounterVec
	IncompleteSuppliers  *prometheus.CounterVec

	// Проверка баланса
	CheckErrorPercent *prometheus.GaugeVec
	CheckBalanced     *prometheus.GaugeVec

	// Граф
	GraphNodesTotal *prometheus.HistogramVec
	GraphEdgesTotal *prometheus.HistogramVec
	HotspotsFound   *prometheus.HistogramVec

	// Серии прогонов
	SweepSamplesTotal    *prometheus.CounterVec
	SweepSamplesInFlight prometheus.Gauge

	// Анализ отказов рёбер
	OutagesTotal    *prometheus.CounterVec
	ResilienceScore prometheus.Gauge

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec

	// InFlight считает решения по алгоритмам
	InFlight *InFlightTracker
}

var (
	defaultMetrics *Metrics
	defaultMu      sync.Mutex
)

// InitMetrics инициализирует метрики в новом реестре
func InitMetrics(namespace, subsystem string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,

		SolveOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_operations_total",
				Help:      "Total number of solve operations",
			},
			[]string{"algorithm", "status"},
		),

		SolveDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_duration_seconds",
				Help:      "Duration of solve operations",
				Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"algorithm"},
		),

		SolvesInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solves_in_flight",
				Help:      "Solver invocations running right now",
			},
		),

		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages outside the solver",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"stage"},
		),

		SolveIterations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_iterations",
				Help:      "Iterations (PPA) or generations (ACO) until termination",
				Buckets:   []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
			},
			[]string{"algorithm"},
		),

		TotalCost: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "total_cost",
				Help:      "Congestion cost of the last solution",
			},
			[]string{"algorithm"},
		),

		PrunedEdgesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pruned_edges_total",
				Help:      "Edges removed by capacity pruning",
			},
			[]string{"algorithm"},
		),

		IncompleteSuppliers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "incomplete_suppliers_total",
				Help:      "Suppliers left without a complete routing",
			},
			[]string{"algorithm"},
		),

		CheckErrorPercent: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "check_error_percent",
				Help:      "Flow conservation error of the last solution, percent",
			},
			[]string{"algorithm"},
		),

		CheckBalanced: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "check_balanced",
				Help:      "1 if the last solution satisfied the demand within tolerance",
			},
			[]string{"algorithm"},
		),

		GraphNodesTotal: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "graph_nodes_total",
				Help:      "Number of nodes in processed graphs",
				Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
			},
			[]string{"operation"},
		),

		GraphEdgesTotal: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "graph_edges_total",
				Help:      "Number of edges in processed graphs",
				Buckets:   []float64{20, 100, 500, 1000, 5000, 10000, 50000, 100000},
			},
			[]string{"operation"},
		),

		HotspotsFound: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "hotspots_found",
				Help:      "Number of congested edges found",
				Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
			},
			[]string{"severity"},
		),

		SweepSamplesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sweep_samples_total",
				Help:      "Sweep samples processed",
			},
			[]string{"result"},
		),

		SweepSamplesInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sweep_samples_in_flight",
				Help:      "Sweep samples being solved right now",
			},
		),

		OutagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "outages_total",
				Help:      "Edge outage scenarios solved",
			},
			[]string{"result"},
		),

		ResilienceScore: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "resilience_score",
				Help:      "Resilience score of the last outage analysis, 0..1",
			},
		),

		ServiceInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	m.InFlight = NewInFlightTracker(m.SolvesInFlight)
	reg.MustRegister(NewRuntimeCollector(namespace, subsystem))

	defaultMu.Lock()
	defaultMetrics = m
	defaultMu.Unlock()
	return m
}

// Get возвращает глобальные метрики
func Get() *Metrics {
	defaultMu.Lock()
	m := defaultMetrics
	defaultMu.Unlock()

	if m == nil {
		return InitMetrics("supplynet", "")
	}
	return m
}

// Registry возвращает реестр метрик
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordSolveOperation записывает метрики операции решения
func (m *Metrics) RecordSolveOperation(algorithm, status string, duration time.Duration, iterations int, totalCost float64) {
	m.SolveOperationsTotal.WithLabelValues(algorithm, status).Inc()
	m.SolveDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
	m.SolveIterations.WithLabelValues(algorithm).Observe(float64(iterations))
	m.TotalCost.WithLabelValues(algorithm).Set(totalCost)
}

// RecordPruned записывает число удалённых рёбер
func (m *Metrics) RecordPruned(algorithm string, count int) {
	if count > 0 {
		m.PrunedEdgesTotal.WithLabelValues(algorithm).Add(float64(count))
	}
}

// RecordIncomplete записывает поставщиков без полного решения
func (m *Metrics) RecordIncomplete(algorithm string, count int) {
	if count > 0 {
		m.IncompleteSuppliers.WithLabelValues(algorithm).Add(float64(count))
	}
}

// RecordCheck записывает результат проверки баланса
func (m *Metrics) RecordCheck(algorithm string, balanced bool, errorPercent float64) {
	v := 0.0
	if balanced {
		v = 1
	}
	m.CheckBalanced.WithLabelValues(algorithm).Set(v)
	m.CheckErrorPercent.WithLabelValues(algorithm).Set(errorPercent)
}

// RecordGraphSize записывает размер графа
func (m *Metrics) RecordGraphSize(operation string, nodes, edges int) {
	m.GraphNodesTotal.WithLabelValues(operation).Observe(float64(nodes))
	m.GraphEdgesTotal.WithLabelValues(operation).Observe(float64(edges))
}

// RecordHotspots записывает количество перегруженных рёбер
func (m *Metrics) RecordHotspots(severity string, count int) {
	m.HotspotsFound.WithLabelValues(severity).Observe(float64(count))
}

// RecordSweepSample записывает результат одного прогона серии
func (m *Metrics) RecordSweepSample(balanced bool) {
	result := "balanced"
	if !balanced {
		result = "imbalanced"
	}
	m.SweepSamplesTotal.WithLabelValues(result).Inc()
}

// RecordOutage записывает результат сценария отказа ребра
func (m *Metrics) RecordOutage(failed bool) {
	result := "survived"
	if failed {
		result = "critical"
	}
	m.OutagesTotal.WithLabelValues(result).Inc()
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// WriteTextfile выгружает метрики в файл формата textfile collector.
// Запись атомарная: сначала во временный файл, затем rename.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
