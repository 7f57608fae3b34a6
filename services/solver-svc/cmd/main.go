// Package main is the entry point of the supplynet command.
//
// supplynet allocates shipments of a multi-supplier supply network over
// shared transport edges. Each supplier's demand is routed through its own
// subgraph; flows are summed on the shared network, where the congestion
// dependent effective distance E(Q) couples the suppliers.
//
// # Algorithms
//
//	ppa       - Physarum polycephalum solver (conductivity adaptation)
//	aco       - ant colony optimization with elite reinforcement
//	dijkstra  - shortest path baseline, whole demand on one path
//	astar     - A* baseline with a zero heuristic
//	all       - run every algorithm in parallel and compare
//
// # Pipeline
//
// Every run goes through the same stages, each traced as its own span:
//
//	┌──────────┐   ┌──────────┐   ┌─────────┐   ┌─────────┐   ┌─────────┐   ┌─────────┐
//	│   load   │ → │ validate │ → │  solve  │ → │  check  │ → │ analyze │ → │ report  │
//	└──────────┘   └──────────┘   └─────────┘   └─────────┘   └─────────┘   └─────────┘
//	 yaml/json/     structure,     on a clone    outflow vs    cost by tier  console,
//	 toml file      topology,      of the        demand with   hotspots      json, csv,
//	                demand         network       tolerance                   md, xlsx, pdf
//
// # Configuration
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Command-line flags
//  2. Environment variables (prefix: SUPPLYNET_)
//  3. Config file (--config, supplynet.yaml, supplynet.toml, /etc/supplynet/supplynet.yaml)
//  4. Default values
//
// Key environment variables:
//
//	SUPPLYNET_SOLVER_ALGORITHM   - ppa, aco, dijkstra, astar, all (default: ppa)
//	SUPPLYNET_SOLVER_SEED        - random seed, 0 derives it from the clock
//	SUPPLYNET_SOLVER_TOLERANCE   - balance check tolerance (default: 0.5)
//	SUPPLYNET_SOLVER_REL_TOLERANCE - tolerance as a share of each node's demand (default: 0)
//	SUPPLYNET_PHYSARUM_EPSILON   - convergence threshold for PPA
//	SUPPLYNET_ACO_ANTS           - ants per generation
//	SUPPLYNET_COST_KIND          - exponential, linear, bpr
//	SUPPLYNET_REPORT_FORMATS     - comma separated: json,csv,markdown,xlsx,pdf
//	SUPPLYNET_LOG_LEVEL          - debug, info, warn, error
//	SUPPLYNET_TRACING_ENABLED    - export spans (stdout or otlp)
//	SUPPLYNET_WATCH_MAX_RUNS     - cap reruns per watch.window in --watch mode
//	SUPPLYNET_JOURNAL_ENABLED    - append one JSON line per run to journal.file_path
//	SUPPLYNET_RESILIENCE_EDGES   - edges tested by the outage analysis, 0 tests all
//
// # Usage
//
//	supplynet --network network.yaml
//	supplynet --network network.yaml --algorithm all --format markdown,xlsx --out reports
//	supplynet --network network.yaml --algorithm aco --sweep 50
//	supplynet --network network.yaml --watch
//	supplynet --network network.yaml --algorithm dijkstra --resilience 10
//	supplynet --demo
//	supplynet --network network.yaml --journal runs.jsonl
//	supplynet --journal runs.jsonl --history 20
//
// # Exit Codes
//
//	0   - success, the allocation is balanced
//	1   - solver or internal failure
//	2   - the allocation does not match demand within tolerance
//	64  - invalid flags or configuration
//	65  - invalid network file
//	74  - file read or write failure
//
// # Observability
//
// Logs are structured (slog) and go to stderr so stdout stays free for the
// console report. Metrics are written in Prometheus text format to the file
// given by --metrics-file, for the node_exporter textfile collector:
//
//	supplynet_solver_solve_operations_total   - solves by algorithm and status
//	supplynet_solver_solve_duration_seconds   - solver wall time
//	supplynet_solver_check_balanced           - 1 when the last check passed
//	supplynet_solver_sweep_samples_total      - sweep samples by outcome
//	supplynet_solver_outages_total            - edge outage scenarios by result
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"supplynet/pkg/apperror"
	"supplynet/pkg/config"
	"supplynet/pkg/domain"
	"supplynet/pkg/logger"
	"supplynet/pkg/metrics"
	"supplynet/pkg/ratelimit"
	"supplynet/pkg/telemetry"
	solversvc "supplynet/services/solver-svc"
	"supplynet/services/solver-svc/internal/algorithms"
	"supplynet/services/solver-svc/internal/converter"
	"supplynet/services/solver-svc/internal/service"
	"supplynet/services/solver-svc/internal/watch"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func newFlagSet(stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("supplynet", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.String("config", "", "config file (yaml or toml)")
	fs.StringP("network", "n", "", "network file (yaml, json or toml)")
	fs.StringP("algorithm", "a", "ppa", "ppa, aco, dijkstra, astar or all")
	fs.Int64("seed", 0, "random seed, 0 derives it from the clock")
	fs.Duration("timeout", 5*time.Minute, "solver timeout")
	fs.Float64("tolerance", 0.5, "balance check tolerance")
	fs.Float64("rel-tolerance", 0, "balance check tolerance as a share of node demand")
	fs.StringSlice("format", nil, "report formats: json, csv, markdown, xlsx, pdf")
	fs.StringP("out", "o", "reports", "report output directory")
	fs.Int("sweep", 0, "run N samples with perturbed demand")
	fs.String("metrics-file", "", "write Prometheus metrics to this file")
	fs.BoolP("watch", "w", false, "rerun when the network file changes")
	fs.String("log-level", "info", "debug, info, warn, error")
	fs.Bool("trace", false, "export OpenTelemetry spans")
	fs.Bool("parallel", false, "solve PPA subgraphs in parallel")
	fs.Int("resilience", 0, "rerun without each of the N most loaded edges, 0 tests all")
	fs.String("journal", "", "append a JSON line per run to this file")
	fs.Int("history", 0, "print the last N journal entries and exit")
	fs.Bool("demo", false, "solve the built-in sample network")
	fs.Bool("list-algorithms", false, "print available algorithms and exit")
	fs.Bool("version", false, "print version and exit")

	return fs
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	// =========================================================================
	// Flags
	// =========================================================================
	//
	// Flags are parsed first and handed to the config loader, which applies
	// only the flags that were actually set on top of file and environment.
	fs := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return apperror.ExitOK
		}
		return apperror.ExitUsage
	}

	if v, _ := fs.GetBool("version"); v {
		fmt.Fprintf(stdout, "supplynet %s\n", version)
		return apperror.ExitOK
	}
	if v, _ := fs.GetBool("list-algorithms"); v {
		for _, info := range algorithms.GetAllAlgorithms() {
			fmt.Fprintf(stdout, "%-10s %s\n", info.Algorithm, info.Description)
		}
		return apperror.ExitOK
	}

	// =========================================================================
	// Configuration Loading
	// =========================================================================
	configFile, _ := fs.GetString("config")
	cfg, err := config.NewLoader(
		config.WithConfigFile(configFile),
		config.WithFlags(fs),
	).Load()
	if err != nil {
		fmt.Fprintf(stderr, "supplynet: %v\n", err)
		return apperror.ExitUsage
	}

	// =========================================================================
	// Logger Initialization
	// =========================================================================
	//
	// stdout is reserved for the console report; logs default to stderr.
	// When output=file, lumberjack rotates the log.
	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	// =========================================================================
	// Telemetry Initialization
	// =========================================================================
	tp, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.Tracing.Enabled,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
		Writer:      stderr,
	})
	if err != nil {
		logger.Warn("failed to init telemetry", "error", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Warn("telemetry shutdown failed", "error", err)
			}
		}()
	}

	// =========================================================================
	// Metrics Initialization
	// =========================================================================
	m := metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	m.SetServiceInfo(cfg.App.Version, cfg.App.Environment)

	// =========================================================================
	// Run Journal
	// =========================================================================
	journal, err := solversvc.NewJournal(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "supplynet: %v\n", err)
		return apperror.ExitIO
	}
	defer func() {
		if err := journal.Close(); err != nil {
			logger.Warn("journal close failed", "error", err)
		}
	}()

	runner := solversvc.NewRunner(cfg, stdout, journal)

	if n, _ := fs.GetInt("history"); n > 0 {
		return printHistory(ctx, runner, n, stdout, stderr)
	}

	logger.Info("supplynet starting",
		"version", cfg.App.Version,
		"algorithm", cfg.Solver.Algorithm,
		"network", cfg.Solver.Network,
	)

	// =========================================================================
	// Execution
	// =========================================================================
	path := cfg.Solver.Network
	demo, _ := fs.GetBool("demo")

	if cfg.Watch.Enabled {
		if path == "" {
			fmt.Fprintln(stderr, "supplynet: --watch requires --network")
			return apperror.ExitUsage
		}
		var limiter ratelimit.Limiter
		if cfg.Watch.MaxRuns > 0 {
			limiter, err = ratelimit.New(&ratelimit.Config{
				Runs:     cfg.Watch.MaxRuns,
				Window:   cfg.Watch.Window,
				Strategy: ratelimit.StrategySlidingWindow,
			})
			if err != nil {
				fmt.Fprintf(stderr, "supplynet: %v\n", err)
				return apperror.ExitUsage
			}
			defer limiter.Close()
		}

		err := watch.RunLimited(ctx, path, cfg.Watch.Debounce, limiter, func(ctx context.Context, p string) error {
			_, err := execute(ctx, runner, p, false)
			return err
		})
		if err != nil {
			logger.Error("watch failed", "error", err)
		}
		return apperror.ExitCode(err)
	}

	if path == "" && !demo {
		fmt.Fprintln(stderr, "supplynet: --network is required (or --demo)")
		fs.Usage()
		return apperror.ExitUsage
	}

	balanced, err := execute(ctx, runner, path, demo)
	if err != nil {
		logger.Error("run failed", "error", err, "code", apperror.Code(err))
		fmt.Fprintf(stderr, "supplynet: %v\n", err)
		return apperror.ExitCode(err)
	}
	if !balanced {
		return apperror.ExitImbalance
	}
	return apperror.ExitOK
}

// printHistory печатает последние n записей журнала, старые первыми
func printHistory(ctx context.Context, runner *service.Runner, n int, stdout, stderr io.Writer) int {
	if !runner.Config().Journal.Enabled {
		fmt.Fprintln(stderr, "supplynet: --history requires --journal")
		return apperror.ExitUsage
	}

	entries, err := runner.History(ctx, n)
	if err != nil {
		fmt.Fprintf(stderr, "supplynet: %v\n", err)
		return apperror.ExitCode(err)
	}
	for _, e := range entries {
		fmt.Fprintf(stdout, "%s  %-8s %-10s %-12s %-9s cost=%.4f err=%.2f%% %dms\n",
			e.Timestamp.Format(time.RFC3339), e.Action, e.Outcome, e.Network,
			e.Algorithm, e.TotalCost, e.ErrorPercent, e.DurationMs)
	}
	return apperror.ExitOK
}

// execute выполняет один проход: решение, отчёты, метрики.
// Возвращает false, если распределение не сходится со спросом.
func execute(ctx context.Context, runner *service.Runner, path string, demo bool) (bool, error) {
	cfg := runner.Config()

	var (
		net  *converter.Network
		name string
		err  error
	)
	if demo {
		g, demand := domain.SampleNetwork()
		net, name = &converter.Network{Graph: g, Demand: demand}, "sample"
	} else {
		net, err = runner.Load(ctx, path)
		if err != nil {
			return false, err
		}
		name = service.NetworkName(path)
	}

	balanced := true
	switch {
	case cfg.Sweep.Samples > 0:
		sweep, err := runner.Sweep(ctx, name, net)
		if err != nil {
			return false, err
		}
		if _, err := runner.Report(ctx, sweep.ReportData(runner.ReportOptions()), name+"-sweep"); err != nil {
			return false, err
		}

	case cfg.Resilience.Enabled:
		res, err := runner.Resilience(ctx, name, net)
		if err != nil {
			return false, err
		}
		if _, err := runner.Report(ctx, res.ReportData(runner.ReportOptions()), name+"-resilience"); err != nil {
			return false, err
		}
		balanced = res.Result.BaseBalanced

	case cfg.Solver.Algorithm == service.AlgorithmAll:
		cmp, err := runner.Compare(ctx, name, net)
		if err != nil {
			return false, err
		}
		if _, err := runner.Report(ctx, cmp.ReportData(runner.ReportOptions()), name+"-compare"); err != nil {
			return false, err
		}
		balanced = cmp.Balanced()

	default:
		result, err := runner.RunNetwork(ctx, name, net)
		if err != nil {
			return false, err
		}
		if _, err := runner.Report(ctx, result.ReportData(runner.ReportOptions()), name+"-"+result.Algorithm); err != nil {
			return false, err
		}
		balanced = result.Balanced()
	}

	if err := runner.WriteMetrics(); err != nil {
		return balanced, err
	}
	return balanced, nil
}
