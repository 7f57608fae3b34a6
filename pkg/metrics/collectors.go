package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// runtimeStat одна метрика, снимаемая с runtime.MemStats
type runtimeStat struct {
	desc  *prometheus.Desc
	kind  prometheus.ValueType
	value func(s *runtime.MemStats) float64
}

// RuntimeCollector снимает состояние процесса в момент выгрузки метрик.
// Для пакетного запуска это состояние после решения, а не во время.
type RuntimeCollector struct {
	stats []runtimeStat
}

// NewRuntimeCollector создаёт коллектор runtime метрик
func NewRuntimeCollector(namespace, subsystem string) *RuntimeCollector {
	stat := func(name, help string, kind prometheus.ValueType, value func(s *runtime.MemStats) float64) runtimeStat {
		return runtimeStat{
			desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, nil, nil),
			kind:  kind,
			value: value,
		}
	}

	return &RuntimeCollector{stats: []runtimeStat{
		stat("runtime_goroutines", "Goroutines alive at collection time", prometheus.GaugeValue,
			func(*runtime.MemStats) float64 { return float64(runtime.NumGoroutine()) }),
		stat("runtime_heap_inuse_bytes", "Heap bytes in use", prometheus.GaugeValue,
			func(s *runtime.MemStats) float64 { return float64(s.HeapInuse) }),
		stat("runtime_heap_objects", "Live heap objects", prometheus.GaugeValue,
			func(s *runtime.MemStats) float64 { return float64(s.HeapObjects) }),
		stat("runtime_alloc_bytes_total", "Bytes allocated over the process lifetime", prometheus.CounterValue,
			func(s *runtime.MemStats) float64 { return float64(s.TotalAlloc) }),
		stat("runtime_gc_cycles_total", "Completed GC cycles", prometheus.CounterValue,
			func(s *runtime.MemStats) float64 { return float64(s.NumGC) }),
		stat("runtime_gc_last_pause_seconds", "Duration of the most recent GC pause", prometheus.GaugeValue,
			func(s *runtime.MemStats) float64 {
				if s.NumGC == 0 {
					return 0
				}
				return float64(s.PauseNs[(s.NumGC+255)%256]) / 1e9
			}),
	}}
}

// Describe implements prometheus.Collector
func (c *RuntimeCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, s := range c.stats {
		ch <- s.desc
	}
}

// Collect implements prometheus.Collector
func (c *RuntimeCollector) Collect(ch chan<- prometheus.Metric) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	for _, s := range c.stats {
		ch <- prometheus.MustNewConstMetric(s.desc, s.kind, s.value(&ms))
	}
}

// InFlightTracker ведёт число выполняющихся решений по алгоритмам
// и отражает их сумму в gauge.
type InFlightTracker struct {
	mu    sync.Mutex
	byAlg map[string]int
	gauge prometheus.Gauge
}

// NewInFlightTracker создаёт трекер поверх gauge
func NewInFlightTracker(gauge prometheus.Gauge) *InFlightTracker {
	return &InFlightTracker{byAlg: make(map[string]int), gauge: gauge}
}

// Start отмечает начало решения
func (t *InFlightTracker) Start(algorithm string) {
	t.mu.Lock()
	t.byAlg[algorithm]++
	t.mu.Unlock()
	t.gauge.Inc()
}

// End отмечает завершение решения. End без парного Start игнорируется.
func (t *InFlightTracker) End(algorithm string) {
	t.mu.Lock()
	n := t.byAlg[algorithm]
	if n > 0 {
		t.byAlg[algorithm] = n - 1
	}
	t.mu.Unlock()
	if n > 0 {
		t.gauge.Dec()
	}
}

// Active возвращает число выполняющихся решений алгоритма
func (t *InFlightTracker) Active(algorithm string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byAlg[algorithm]
}

// Timer замеряет длительность этапа и пишет её в гистограмму
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer запускает таймер для гистограммы с заданными метками
func NewTimer(histogram *prometheus.HistogramVec, labels ...string) *Timer {
	return &Timer{start: time.Now(), observer: histogram.WithLabelValues(labels...)}
}

// ObserveDuration записывает прошедшее время и возвращает его
func (t *Timer) ObserveDuration() time.Duration {
	d := time.Since(t.start)
	t.observer.Observe(d.Seconds())
	return d
}
