// services/solver-svc/factory.go
package solversvc

import (
	"io"

	"supplynet/pkg/audit"
	"supplynet/pkg/config"
	"supplynet/pkg/metrics"
	"supplynet/services/solver-svc/internal/service"
)

// NewRunner создаёт конвейер оптимизации для внешних вызывающих (CLI, бенчмарки).
// Консольный отчёт пишется в out; nil отключает вывод. nil journal - без журнала.
func NewRunner(cfg *config.Config, out io.Writer, journal audit.Logger) *service.Runner {
	return service.NewRunner(cfg,
		service.WithMetrics(metrics.Get()),
		service.WithOutput(out),
		service.WithJournal(journal),
	)
}

// NewJournal открывает журнал запусков по секции journal конфигурации
func NewJournal(cfg *config.Config) (audit.Logger, error) {
	jc := cfg.Journal
	return audit.New(&audit.Config{
		Enabled:     jc.Enabled,
		Backend:     jc.Backend,
		FilePath:    jc.FilePath,
		BufferSize:  jc.BufferSize,
		FlushPeriod: jc.FlushPeriod,
	})
}

// NewBenchmarkRunner создаёт конвейер без консоли, отчётов и кэша результатов
func NewBenchmarkRunner(algorithm string) *service.Runner {
	cfg := config.Default()
	cfg.Solver.Algorithm = algorithm
	cfg.Solver.Seed = 1
	cfg.Report.Console = false
	cfg.Report.Formats = nil
	return service.NewRunner(cfg, service.WithMemo(nil))
}
