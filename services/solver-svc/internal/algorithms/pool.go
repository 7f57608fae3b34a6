package algorithms

import (
	"context"
	"sync"

	"supplynet/pkg/domain"
	"supplynet/services/solver-svc/internal/effdist"
)

// =============================================================================
// Solver Pool
// =============================================================================

// SolverPool runs independent solver invocations concurrently.
//
// It provides:
//   - Concurrency limiting to prevent resource exhaustion
//   - Automatic graph cloning for thread safety
//
// # Example
//
//	pool := NewSolverPool(runtime.NumCPU())
//	results := pool.BatchSolve(ctx, []BatchTask{
//	    {TaskID: "ppa", Graph: g, Demand: d, Model: m, Options: ppaOpts},
//	    {TaskID: "aco", Graph: g, Demand: d, Model: m, Options: acoOpts},
//	})
type SolverPool struct {
	workers chan struct{} // Semaphore for concurrency limiting
}

// NewSolverPool creates a new solver pool with the specified maximum concurrency.
// If maxConcurrency <= 0, it defaults to 4.
func NewSolverPool(maxConcurrency int) *SolverPool {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &SolverPool{
		workers: make(chan struct{}, maxConcurrency),
	}
}

// Acquire obtains a worker slot from the pool.
//
// Blocks until a slot is available or the context is cancelled.
// Call Release() when the work is complete.
func (sp *SolverPool) Acquire(ctx context.Context) error {
	select {
	case sp.workers <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a worker slot to the pool.
//
// Must be called exactly once after each successful Acquire().
func (sp *SolverPool) Release() {
	<-sp.workers
}

// SolvePooled solves on a clone of g. The original graph is NOT modified;
// the solved clone is returned alongside the result.
func (sp *SolverPool) SolvePooled(ctx context.Context, g *domain.Graph, demand domain.Demand, model *effdist.Model, opts *SolverOptions) (*domain.Graph, *SolverResult) {
	if err := sp.Acquire(ctx); err != nil {
		return nil, &SolverResult{
			Status: StatusCanceled,
			Error:  err,
		}
	}
	defer sp.Release()

	if g == nil {
		return nil, Solve(ctx, nil, demand, model, opts)
	}

	cloned := g.Clone()
	return cloned, Solve(ctx, cloned, demand, model, opts)
}

// BatchSolve solves multiple tasks in parallel.
//
// Tasks are executed concurrently up to the pool's concurrency limit.
// Results are returned in the same order as the input tasks.
func (sp *SolverPool) BatchSolve(ctx context.Context, tasks []BatchTask) []BatchResult {
	results := make([]BatchResult, len(tasks))
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		go func(idx int, t BatchTask) {
			defer wg.Done()
			solved, result := sp.SolvePooled(ctx, t.Graph, t.Demand, t.Model, t.Options)
			results[idx] = BatchResult{
				TaskID: t.TaskID,
				Graph:  solved,
				Result: result,
			}
		}(i, task)
	}

	wg.Wait()
	return results
}

// BatchTask represents a single task for batch processing.
type BatchTask struct {
	// TaskID is a user-defined identifier for correlating results.
	TaskID string

	// Graph is the input graph. Will be cloned internally.
	Graph *domain.Graph

	// Demand is the demand matrix. Read only.
	Demand domain.Demand

	// Model is the effective distance model.
	Model *effdist.Model

	// Options for the solver. nil uses defaults.
	Options *SolverOptions
}

// BatchResult contains the result of a batch task.
type BatchResult struct {
	// TaskID matches the input BatchTask.TaskID.
	TaskID string

	// Graph is the solved clone.
	Graph *domain.Graph

	// Result is the solver result for this task.
	Result *SolverResult
}
