package service

import (
	"context"
	"time"

	"supplynet/pkg/apperror"
	"supplynet/pkg/audit"
	"supplynet/pkg/logger"
)

// outcome итог запуска для журнала
func outcome(balanced bool, err error) audit.Outcome {
	switch {
	case apperror.Is(err, apperror.CodeCanceled):
		return audit.OutcomeCanceled
	case err != nil:
		return audit.OutcomeFailure
	case balanced:
		return audit.OutcomeBalanced
	default:
		return audit.OutcomeImbalanced
	}
}

func withError(b *audit.Builder, err error) *audit.Builder {
	if err == nil {
		return b
	}
	return b.Error(string(apperror.Code(err)), err.Error())
}

// journalRun записывает одиночный запуск
func (r *Runner) journalRun(ctx context.Context, runID, name string, start time.Time, res *RunResult, err error) {
	b := audit.NewEntry().
		Run(runID, audit.ActionRun).
		Network(name, "").
		Algorithm(r.cfg.Solver.Algorithm, "", r.cfg.Solver.Seed).
		Duration(r.now().Sub(start))

	balanced := false
	if res != nil {
		balanced = res.Balanced()
		status := ""
		if res.Solver != nil {
			status = string(res.Solver.Status)
		}
		b.Network(name, res.Fingerprint).
			Algorithm(res.Algorithm, status, res.Seed).
			Cached(res.Cached)
		if res.Cost != nil && res.Check != nil {
			b.Result(res.Cost.TotalCost, res.Check.ErrorPercent)
		}
	}

	r.writeJournal(ctx, withError(b.Outcome(outcome(balanced, err)), err).Build())
}

// journalCompare записывает сравнение алгоритмов; итоговая стоимость берётся у лучшего
func (r *Runner) journalCompare(ctx context.Context, runID, name string, start time.Time, cmp *Comparison, err error) {
	b := audit.NewEntry().
		Run(runID, audit.ActionCompare).
		Network(name, "").
		Algorithm(AlgorithmAll, "", r.cfg.Solver.Seed).
		Duration(r.now().Sub(start))

	balanced := false
	if cmp != nil {
		balanced = cmp.Balanced()
		b.Network(name, cmp.Fingerprint).Meta("algorithms", len(cmp.Results))
		if best := cmp.Best(); best != nil {
			b.Meta("best", best.Algorithm)
			if best.Cost != nil {
				b.Result(best.Cost.TotalCost, best.Check.ErrorPercent)
			}
		}
	}

	r.writeJournal(ctx, withError(b.Outcome(outcome(balanced, err)), err).Build())
}

// journalSweep записывает серию; она сбалансирована, только если сошлись все выборки
func (r *Runner) journalSweep(ctx context.Context, runID, name string, start time.Time, run *SweepRun, err error) {
	b := audit.NewEntry().
		Run(runID, audit.ActionSweep).
		Network(name, "").
		Algorithm(r.cfg.Solver.Algorithm, "", r.cfg.Solver.Seed).
		Duration(r.now().Sub(start))

	balanced := false
	if run != nil && run.Result != nil {
		res := run.Result
		n := 0
		for _, smp := range res.Samples {
			if smp.Err == nil && smp.Balanced {
				n++
			}
		}
		balanced = len(res.Samples) > 0 && n == len(res.Samples)
		b.Algorithm(run.Algorithm, "", r.cfg.Solver.Seed).
			Result(res.Cost.Mean, res.ErrorPercent.Mean).
			Meta("samples", len(res.Samples)).
			Meta("succeeded", res.Succeeded).
			Meta("balanced_samples", n).
			Meta("distribution", run.Distribution)
	}

	r.writeJournal(ctx, withError(b.Outcome(outcome(balanced, err)), err).Build())
}

// journalResilience записывает анализ отказов; он сбалансирован, если ни одно ребро не критично
func (r *Runner) journalResilience(ctx context.Context, runID, name string, start time.Time, run *ResilienceRun, err error) {
	b := audit.NewEntry().
		Run(runID, audit.ActionResilience).
		Network(name, "").
		Algorithm(r.cfg.Solver.Algorithm, "", r.cfg.Solver.Seed).
		Duration(r.now().Sub(start))

	balanced := false
	if run != nil && run.Result != nil {
		res := run.Result
		balanced = res.BaseBalanced && res.Failed == 0
		b.Algorithm(run.Algorithm, "", r.cfg.Solver.Seed).
			Result(res.BaseCost, 0).
			Meta("tested", res.Tested).
			Meta("failed", res.Failed).
			Meta("score", res.Score)
		if res.MostCritical != nil {
			b.Meta("most_critical", res.MostCritical.String())
		}
	}

	r.writeJournal(ctx, withError(b.Outcome(outcome(balanced, err)), err).Build())
}

func (r *Runner) writeJournal(ctx context.Context, e *audit.Entry) {
	if err := r.journal.Log(ctx, e); err != nil {
		logger.WithContext(ctx, "run_id", e.RunID).Warn("failed to write journal entry", "error", err)
	}
}

// History возвращает последние limit записей журнала
func (r *Runner) History(ctx context.Context, limit int) ([]*audit.Entry, error) {
	entries, err := r.journal.Query(ctx, &audit.QueryFilter{Limit: limit})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeIO, "read journal")
	}
	return entries, nil
}
