package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"supplynet/pkg/apperror"
	"supplynet/pkg/audit"
	"supplynet/pkg/cache"
	"supplynet/pkg/config"
	"supplynet/pkg/domain"
	"supplynet/pkg/logger"
	"supplynet/pkg/metrics"
	"supplynet/pkg/telemetry"
	"supplynet/services/solver-svc/internal/algorithms"
	"supplynet/services/solver-svc/internal/analysis"
	"supplynet/services/solver-svc/internal/converter"
	"supplynet/services/solver-svc/internal/effdist"
	"supplynet/services/solver-svc/internal/engine"
	"supplynet/services/solver-svc/internal/report"
	"supplynet/services/solver-svc/internal/validators"
)

// AlgorithmAll запускает все алгоритмы и сравнивает результаты
const AlgorithmAll = "all"

// defaultTopHotspots число горячих рёбер в отчёте
const defaultTopHotspots = 10

// Runner выполняет конвейер оптимизации:
// загрузка -> валидация -> решение -> проверка -> анализ -> отчёты
type Runner struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	memo    *cache.Memo[*RunResult]
	pool    *algorithms.SolverPool
	out     io.Writer
	console *report.Console
	journal audit.Logger
	now     func() time.Time
}

// Option настраивает Runner
type Option func(*Runner)

// WithMetrics задаёт набор метрик
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithMemo задаёт кэш результатов; nil отключает кэширование
func WithMemo(m *cache.Memo[*RunResult]) Option {
	return func(r *Runner) { r.memo = m }
}

// WithOutput задаёт writer для консольного отчёта; nil отключает вывод
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// WithPool задаёт пул решателей для сравнения алгоритмов
func WithPool(p *algorithms.SolverPool) Option {
	return func(r *Runner) { r.pool = p }
}

// WithJournal задаёт журнал запусков
func WithJournal(j audit.Logger) Option {
	return func(r *Runner) {
		if j != nil {
			r.journal = j
		}
	}
}

// NewRunner создаёт Runner. nil cfg заменяется значениями по умолчанию.
func NewRunner(cfg *config.Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = config.Default()
	}

	r := &Runner{
		cfg:     cfg,
		metrics: metrics.Get(),
		memo:    cache.NewMemo[*RunResult](64, 0),
		pool:    algorithms.NewSolverPool(len(algorithms.Names())),
		console: report.NewConsole(cfg.Report.MaxRows),
		journal: &audit.NoopLogger{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config возвращает конфигурацию запуска
func (r *Runner) Config() *config.Config {
	return r.cfg
}

// Load читает файл сети
func (r *Runner) Load(ctx context.Context, path string) (*converter.Network, error) {
	defer metrics.NewTimer(r.metrics.StageDuration, StageLoad).ObserveDuration()

	var net *converter.Network
	err := telemetry.Stage(ctx, StageLoad, func(ctx context.Context) error {
		var err error
		net, err = converter.Load(path)
		return err
	}, attribute.String("network.path", path))
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx, "path", path).Debug("network loaded",
		"nodes", net.Graph.NodeCount(),
		"edges", net.Graph.EdgeCount(),
		"demand", net.Demand.Total(),
	)
	return net, nil
}

// Run загружает сеть из файла и решает её алгоритмом из конфигурации
func (r *Runner) Run(ctx context.Context, path string) (*RunResult, error) {
	net, err := r.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return r.RunNetwork(ctx, NetworkName(path), net)
}

// RunNetwork решает уже загруженную сеть алгоритмом из конфигурации
func (r *Runner) RunNetwork(ctx context.Context, name string, net *converter.Network) (*RunResult, error) {
	runID, start := uuid.NewString(), r.now()
	result, err := r.runNetwork(ctx, runID, name, net)
	r.journalRun(ctx, runID, name, start, result, err)
	return result, err
}

func (r *Runner) runNetwork(ctx context.Context, runID, name string, net *converter.Network) (*RunResult, error) {
	if r.cfg.Solver.Algorithm == AlgorithmAll {
		return nil, apperror.New(apperror.CodeInvalidAlgorithm, "algorithm 'all' requires Compare")
	}
	if net == nil || net.Graph == nil {
		return nil, apperror.New(apperror.CodeNilInput, "network is nil")
	}

	ctx = logger.ContextWithRunID(ctx, runID)
	ctx, span := telemetry.StartSpan(ctx, "Runner.RunNetwork",
		trace.WithAttributes(
			attribute.String(telemetry.AttrRunID, runID),
			attribute.String("network.name", name),
		),
	)
	defer span.End()

	model, err := r.model(net)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	verrs, err := r.validate(ctx, net)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	opts := r.options(ctx)
	fp := r.fingerprint(net, model, opts)
	key := cache.BuildSolveKey(fp, opts.Algorithm)

	if r.memo != nil {
		if cached, ok := r.memo.Get(key); ok {
			telemetry.AddEvent(ctx, "cache_hit", attribute.String("fingerprint", fp))
			span.SetAttributes(attribute.Bool("cache_hit", true))
			logger.WithContext(ctx, "fingerprint", fp).Info("reusing cached result",
				"previous_run_id", cached.RunID,
			)

			hit := *cached
			hit.RunID = runID
			hit.Network = name
			hit.Cached = true
			return &hit, nil
		}
	}

	result := &RunResult{
		RunID:       runID,
		Fingerprint: fp,
		Network:     name,
		Algorithm:   opts.Algorithm,
		Seed:        opts.Seed,
		StartedAt:   r.now(),
		Demand:      net.Demand,
		Model:       model,
		Validation:  verrs,
		Timings:     make(map[string]time.Duration),
	}

	if err := r.solve(ctx, net, opts, result); err != nil {
		telemetry.SetError(ctx, err)
		return result, err
	}

	r.check(ctx, result)
	r.analyze(ctx, result)
	result.Duration = time.Since(result.StartedAt)

	span.SetAttributes(telemetry.CheckAttributes(result.Balanced(), result.Check.ErrorPercent)...)

	if r.memo != nil {
		r.memo.Set(key, result)
	}

	logger.WithContext(ctx,
		"algorithm", result.Algorithm,
		"status", result.Solver.Status,
	).Info("run completed",
		"total_cost", result.Solver.TotalCost,
		"balanced", result.Balanced(),
		"error_percent", result.Check.ErrorPercent,
		"duration", result.Duration,
	)

	return result, nil
}

// Compare решает сеть всеми алгоритмами параллельно через пул решателей
func (r *Runner) Compare(ctx context.Context, name string, net *converter.Network) (*Comparison, error) {
	runID, start := uuid.NewString(), r.now()
	cmp, err := r.compare(ctx, runID, name, net)
	r.journalCompare(ctx, runID, name, start, cmp, err)
	return cmp, err
}

func (r *Runner) compare(ctx context.Context, runID, name string, net *converter.Network) (*Comparison, error) {
	if net == nil || net.Graph == nil {
		return nil, apperror.New(apperror.CodeNilInput, "network is nil")
	}

	ctx = logger.ContextWithRunID(ctx, runID)
	ctx, span := telemetry.StartSpan(ctx, "Runner.Compare",
		trace.WithAttributes(attribute.String(telemetry.AttrRunID, runID)),
	)
	defer span.End()

	model, err := r.model(net)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	verrs, err := r.validate(ctx, net)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	base := r.options(ctx)
	names := algorithms.Names()
	tasks := make([]algorithms.BatchTask, 0, len(names))
	for _, alg := range names {
		tasks = append(tasks, algorithms.BatchTask{
			TaskID:  alg,
			Graph:   net.Graph,
			Demand:  net.Demand,
			Model:   model,
			Options: base.Clone().WithAlgorithm(alg),
		})
	}

	cmp := &Comparison{
		RunID:       runID,
		Network:     name,
		Fingerprint: cache.Fingerprint(net.Graph, net.Demand, model.String()),
		StartedAt:   r.now(),
	}

	var batch []algorithms.BatchResult
	err = telemetry.Stage(ctx, StageSolve, func(ctx context.Context) error {
		batch = r.pool.BatchSolve(ctx, tasks)
		return ctx.Err()
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeCanceled, "comparison canceled")
	}

	for _, br := range batch {
		res := &RunResult{
			RunID:       runID,
			Fingerprint: cmp.Fingerprint,
			Network:     name,
			Algorithm:   br.TaskID,
			Seed:        base.Seed,
			StartedAt:   cmp.StartedAt,
			Graph:       br.Graph,
			Demand:      net.Demand,
			Model:       model,
			Solver:      br.Result,
			Validation:  verrs,
			Timings:     make(map[string]time.Duration),
		}
		r.recordSolve(ctx, res)

		if br.Result.Error != nil || br.Graph == nil {
			logger.WithContext(ctx, "algorithm", br.TaskID).Warn("algorithm failed",
				"error", br.Result.Error,
			)
			cmp.Results = append(cmp.Results, res)
			continue
		}

		r.check(ctx, res)
		r.analyze(ctx, res)
		res.Duration = br.Result.Duration
		cmp.Results = append(cmp.Results, res)
	}

	if best := cmp.Best(); best != nil {
		logger.WithContext(ctx, "best", best.Algorithm).Info("comparison completed",
			"total_cost", best.Solver.TotalCost,
		)
	} else {
		logger.WithContext(ctx).Warn("comparison completed without a balanced solution")
	}

	return cmp, nil
}

// Sweep выполняет серию прогонов с возмущённым спросом
func (r *Runner) Sweep(ctx context.Context, name string, net *converter.Network) (*SweepRun, error) {
	runID, start := uuid.NewString(), r.now()
	run, err := r.sweep(ctx, runID, name, net)
	r.journalSweep(ctx, runID, name, start, run, err)
	return run, err
}

func (r *Runner) sweep(ctx context.Context, runID, name string, net *converter.Network) (*SweepRun, error) {
	if net == nil || net.Graph == nil {
		return nil, apperror.New(apperror.CodeNilInput, "network is nil")
	}
	if r.cfg.Solver.Algorithm == AlgorithmAll {
		return nil, apperror.New(apperror.CodeInvalidAlgorithm, "sweep requires a single algorithm")
	}

	ctx = logger.ContextWithRunID(ctx, runID)
	ctx, span := telemetry.StartSpan(ctx, "Runner.Sweep",
		trace.WithAttributes(
			attribute.String(telemetry.AttrRunID, runID),
			attribute.Int("sweep.samples", r.cfg.Sweep.Samples),
		),
	)
	defer span.End()

	model, err := r.model(net)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}
	if _, err := r.validate(ctx, net); err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	opts := r.options(ctx)
	sc := r.cfg.Sweep
	run := &SweepRun{
		RunID:        runID,
		Network:      name,
		Algorithm:    opts.Algorithm,
		Distribution: sc.Distribution,
		Spread:       sc.Spread,
		StartedAt:    r.now(),
	}

	inFlight := r.metrics.SweepSamplesInFlight
	inFlight.Set(float64(sc.Samples))
	defer inFlight.Set(0)

	res, err := engine.Sweep(ctx, net.Graph, net.Demand, model, opts, engine.SweepConfig{
		Samples:      sc.Samples,
		Workers:      sc.Workers,
		Distribution: sc.Distribution,
		Spread:       sc.Spread,
		BaseSeed:     opts.Seed,
		Tolerance:    r.cfg.Solver.Tolerance,
		RelTolerance: r.cfg.Solver.RelTolerance,
		Progress: func(done, total int) {
			inFlight.Set(float64(total - done))
		},
	})
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	for _, smp := range res.Samples {
		if smp.Err == nil {
			r.metrics.RecordSweepSample(smp.Balanced)
		}
	}
	run.Result = res

	span.SetAttributes(attribute.Float64("sweep.success_ratio", res.SuccessRatio))
	return run, nil
}

// Resilience решает задачу повторно без каждого из самых загруженных рёбер
func (r *Runner) Resilience(ctx context.Context, name string, net *converter.Network) (*ResilienceRun, error) {
	runID, start := uuid.NewString(), r.now()
	run, err := r.resilience(ctx, runID, name, net)
	r.journalResilience(ctx, runID, name, start, run, err)
	return run, err
}

func (r *Runner) resilience(ctx context.Context, runID, name string, net *converter.Network) (*ResilienceRun, error) {
	if net == nil || net.Graph == nil {
		return nil, apperror.New(apperror.CodeNilInput, "network is nil")
	}
	if r.cfg.Solver.Algorithm == AlgorithmAll {
		return nil, apperror.New(apperror.CodeInvalidAlgorithm, "resilience requires a single algorithm")
	}

	ctx = logger.ContextWithRunID(ctx, runID)
	ctx, span := telemetry.StartSpan(ctx, "Runner.Resilience",
		trace.WithAttributes(
			attribute.String(telemetry.AttrRunID, runID),
			attribute.Int("resilience.edges", r.cfg.Resilience.Edges),
		),
	)
	defer span.End()

	model, err := r.model(net)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}
	if _, err := r.validate(ctx, net); err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	opts := r.options(ctx)
	run := &ResilienceRun{
		RunID:     runID,
		Network:   name,
		Algorithm: opts.Algorithm,
		StartedAt: r.now(),
	}

	res, err := engine.Resilience(ctx, net.Graph, net.Demand, model, opts, engine.ResilienceConfig{
		Edges:        r.cfg.Resilience.Edges,
		Workers:      r.cfg.Resilience.Workers,
		Tolerance:    r.cfg.Solver.Tolerance,
		RelTolerance: r.cfg.Solver.RelTolerance,
	})
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	for i := range res.Outages {
		r.metrics.RecordOutage(res.Outages[i].Failed())
	}
	r.metrics.ResilienceScore.Set(res.Score)
	run.Result = res

	span.SetAttributes(
		attribute.Int("resilience.failed", res.Failed),
		attribute.Float64("resilience.score", res.Score),
	)
	return run, nil
}

// Report пишет отчёты в форматах из конфигурации и печатает консольную сводку
func (r *Runner) Report(ctx context.Context, data *report.ReportData, base string) ([]string, error) {
	defer metrics.NewTimer(r.metrics.StageDuration, StageReport).ObserveDuration()

	var files []string
	err := telemetry.Stage(ctx, StageReport, func(ctx context.Context) error {
		if r.cfg.Report.Console && r.out != nil {
			if err := r.console.Print(r.out, data); err != nil {
				return apperror.Wrap(err, apperror.CodeIO, "print console report")
			}
		}
		if len(r.cfg.Report.Formats) == 0 {
			return nil
		}

		var err error
		files, err = report.WriteAll(ctx, data, r.cfg.Report.Formats, r.cfg.Report.OutputDir, base)
		return err
	})
	if err != nil {
		return files, err
	}

	for _, f := range files {
		logger.WithContext(ctx, "file", f).Info("report written")
	}
	return files, nil
}

// ReportOptions опции отчёта из конфигурации
func (r *Runner) ReportOptions() *report.Options {
	return &report.Options{
		Title:          r.cfg.Report.Title,
		Author:         r.cfg.App.Name,
		IncludeRawData: true,
		MaxRows:        r.cfg.Report.MaxRows,
	}
}

// WriteMetrics выгружает метрики в textfile, если путь задан
func (r *Runner) WriteMetrics() error {
	if r.cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := r.metrics.WriteTextfile(r.cfg.Metrics.Textfile); err != nil {
		return apperror.Wrap(err, apperror.CodeIO, "write metrics")
	}
	return nil
}

// =============================================================================
// Этапы конвейера
// =============================================================================

// model строит E(Q): блок cost из файла сети имеет приоритет над конфигурацией
func (r *Runner) model(net *converter.Network) (*effdist.Model, error) {
	cc := r.cfg.Cost
	if net.Cost != nil {
		cc = *net.Cost
	}
	m, err := effdist.FromConfig(cc)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidConfig, "build cost model")
	}
	return m, nil
}

// options собирает параметры решателя; нулевой seed заменяется временным
func (r *Runner) options(ctx context.Context) *algorithms.SolverOptions {
	opts := algorithms.OptionsFromConfig(r.cfg)
	if opts.Seed == 0 {
		opts.Seed = r.now().UnixNano()
		logger.WithContext(ctx).Info("seed derived from clock", "seed", opts.Seed)
	}
	return opts
}

func (r *Runner) fingerprint(net *converter.Network, model *effdist.Model, opts *algorithms.SolverOptions) string {
	return cache.Fingerprint(net.Graph, net.Demand,
		opts.Algorithm,
		fmt.Sprintf("seed=%d", opts.Seed),
		model.String(),
		fmt.Sprintf("%+v", opts.Physarum),
		fmt.Sprintf("%+v", opts.ACO),
	)
}

func (r *Runner) validate(ctx context.Context, net *converter.Network) (*apperror.ValidationErrors, error) {
	g := net.Graph
	stats := domain.CalculateGraphStatistics(g)

	var verrs *apperror.ValidationErrors
	err := telemetry.Stage(ctx, StageValidate, func(ctx context.Context) error {
		verrs = validators.ValidateNetwork(g, net.Demand)
		for _, w := range verrs.Warnings {
			logger.WithContext(ctx, w.LogAttrs()...).Warn("network warning")
		}
		if verrs.HasErrors() {
			telemetry.SetAttributes(ctx, attribute.Int(telemetry.AttrValidationErr, len(verrs.Errors)))
			return verrs.Err()
		}
		return nil
	}, telemetry.GraphAttributes(
		int(stats.NodeCount),
		int(stats.EdgeCount),
		int(stats.SupplierCount),
		int(stats.RetailCount),
		net.Demand.Total(),
	)...)

	r.metrics.RecordGraphSize("validate", g.NodeCount(), g.EdgeCount())
	return verrs, err
}

func (r *Runner) solve(ctx context.Context, net *converter.Network, opts *algorithms.SolverOptions, result *RunResult) error {
	start := time.Now()
	defer func() { result.Timings[StageSolve] = time.Since(start) }()

	r.metrics.InFlight.Start(opts.Algorithm)
	defer r.metrics.InFlight.End(opts.Algorithm)

	return telemetry.Stage(ctx, StageSolve, func(ctx context.Context) error {
		solved := net.Graph.Clone()
		res := algorithms.Solve(ctx, solved, net.Demand, result.Model, opts)

		result.Graph = solved
		result.Solver = res
		r.recordSolve(ctx, result)

		telemetry.SetAttributes(ctx, telemetry.AlgorithmAttributes(
			res.Algorithm, string(res.Status), res.Iterations, res.TotalCost)...)
		telemetry.SetAttributes(ctx,
			attribute.Int(telemetry.AttrPrunedEdges, len(res.PrunedEdges)),
			attribute.Int64(telemetry.AttrSeed, opts.Seed),
		)

		for _, w := range res.Warnings {
			logger.WithContext(ctx, w.LogAttrs()...).Warn("solver warning")
		}
		return solverError(res.Error)
	}, attribute.String(telemetry.AttrAlgorithm, opts.Algorithm))
}

func (r *Runner) checkOptions() validators.CheckOptions {
	return validators.CheckOptions{
		Tolerance:    r.cfg.Solver.Tolerance,
		RelTolerance: r.cfg.Solver.RelTolerance,
	}
}

func (r *Runner) check(ctx context.Context, result *RunResult) {
	start := time.Now()
	_ = telemetry.Stage(ctx, StageCheck, func(ctx context.Context) error {
		result.Check = validators.CheckWithOptions(result.Graph, result.Demand, r.checkOptions())
		telemetry.SetAttributes(ctx, telemetry.CheckAttributes(result.Check.Balanced, result.Check.ErrorPercent)...)
		return nil
	})
	result.Timings[StageCheck] = time.Since(start)

	r.metrics.RecordCheck(result.Algorithm, result.Check.Balanced, result.Check.ErrorPercent)
	if !result.Check.Balanced {
		logger.WithContext(ctx, "algorithm", result.Algorithm).Warn("flow imbalance",
			"error_percent", result.Check.ErrorPercent,
			"mismatches", len(result.Check.Mismatches),
		)
	}
}

func (r *Runner) analyze(ctx context.Context, result *RunResult) {
	start := time.Now()
	_ = telemetry.Stage(ctx, StageAnalyze, func(ctx context.Context) error {
		result.Cost = analysis.CalculateCost(result.Graph, result.Model)
		result.Hotspots = analysis.FindHotspots(result.Graph, result.Model, defaultTopHotspots)
		result.GraphStats = domain.CalculateGraphStatistics(result.Graph)
		result.FlowStats = domain.CalculateFlowStatistics(result.Graph)
		telemetry.SetAttributes(ctx, attribute.Int(telemetry.AttrHotspotsCount, len(result.Hotspots.Hotspots)))
		return nil
	})
	result.Timings[StageAnalyze] = time.Since(start)

	bySeverity := make(map[analysis.Severity]int)
	for _, h := range result.Hotspots.Hotspots {
		bySeverity[h.Severity]++
	}
	for sev, n := range bySeverity {
		r.metrics.RecordHotspots(string(sev), n)
	}
}

func (r *Runner) recordSolve(ctx context.Context, result *RunResult) {
	res := result.Solver
	if res == nil {
		return
	}

	r.metrics.RecordSolveOperation(result.Algorithm, string(res.Status), res.Duration, res.Iterations, res.TotalCost)
	r.metrics.RecordPruned(result.Algorithm, len(res.PrunedEdges))

	incomplete := 0
	for _, w := range res.Warnings {
		if w.Code == apperror.CodeIncompleteSolution {
			incomplete++
		}
	}
	r.metrics.RecordIncomplete(result.Algorithm, incomplete)

	if result.Graph != nil {
		r.metrics.RecordGraphSize("solve", result.Graph.NodeCount(), result.Graph.EdgeCount())
	}

	logger.WithContext(ctx, "algorithm", result.Algorithm).Debug("solver finished",
		"status", res.Status,
		"iterations", res.Iterations,
		"total_cost", res.TotalCost,
		"duration", res.Duration,
	)
}

// solverError переводит ошибки решателя в коды приложения
func solverError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, algorithms.ErrContextCanceled), errors.Is(err, context.Canceled):
		return apperror.Wrap(err, apperror.CodeCanceled, "solve canceled")
	case errors.Is(err, algorithms.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return apperror.Wrap(err, apperror.CodeTimeout, "solve timed out")
	case errors.Is(err, algorithms.ErrUnknownAlgorithm):
		return apperror.Wrap(err, apperror.CodeInvalidAlgorithm, "unknown algorithm")
	case errors.Is(err, algorithms.ErrNilGraph), errors.Is(err, algorithms.ErrNilDemand), errors.Is(err, algorithms.ErrNilModel):
		return apperror.Wrap(err, apperror.CodeNilInput, "invalid solver input")
	default:
		return apperror.Wrap(err, apperror.CodeAlgorithmError, "solve failed")
	}
}

// NetworkName имя сети для отчётов: базовое имя файла без расширения
func NetworkName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
