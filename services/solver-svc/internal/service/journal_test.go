package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplynet/pkg/apperror"
	"supplynet/pkg/audit"
	"supplynet/pkg/domain"
	"supplynet/services/solver-svc/internal/algorithms"
	"supplynet/services/solver-svc/internal/converter"
)

// recorder собирает записи журнала в памяти
type recorder struct {
	mu      sync.Mutex
	entries []*audit.Entry
	err     error
}

func (r *recorder) Log(_ context.Context, e *audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *recorder) Query(_ context.Context, f *audit.QueryFilter) ([]*audit.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*audit.Entry
	for _, e := range r.entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) last(t *testing.T) *audit.Entry {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.entries)
	return r.entries[len(r.entries)-1]
}

func TestJournal_RunNetwork(t *testing.T) {
	rec := &recorder{}
	r := newTestRunner(t, testConfig(algorithms.AlgorithmDijkstra), WithJournal(rec))

	result, err := r.RunNetwork(context.Background(), "sample", sampleNetwork())
	require.NoError(t, err)

	e := rec.last(t)
	assert.Equal(t, audit.ActionRun, e.Action)
	assert.Equal(t, audit.OutcomeBalanced, e.Outcome)
	assert.Equal(t, result.RunID, e.RunID)
	assert.Equal(t, "sample", e.Network)
	assert.Equal(t, result.Fingerprint, e.Fingerprint)
	assert.Equal(t, algorithms.AlgorithmDijkstra, e.Algorithm)
	assert.Equal(t, string(algorithms.StatusComplete), e.Status)
	assert.Equal(t, int64(7), e.Seed)
	assert.InDelta(t, result.Cost.TotalCost, e.TotalCost, 1e-9)
	assert.Empty(t, e.ErrorCode)
}

func TestJournal_RunNetwork_CachedHit(t *testing.T) {
	rec := &recorder{}
	r := newTestRunner(t, testConfig(algorithms.AlgorithmDijkstra), WithJournal(rec))
	net := sampleNetwork()

	_, err := r.RunNetwork(context.Background(), "sample", net)
	require.NoError(t, err)
	_, err = r.RunNetwork(context.Background(), "sample", net)
	require.NoError(t, err)

	require.Len(t, rec.entries, 2)
	assert.False(t, rec.entries[0].Cached)
	assert.True(t, rec.entries[1].Cached)
	assert.NotEqual(t, rec.entries[0].RunID, rec.entries[1].RunID)
}

func TestJournal_RunNetwork_Failure(t *testing.T) {
	rec := &recorder{}
	r := newTestRunner(t, testConfig(algorithms.AlgorithmDijkstra), WithJournal(rec))
	empty := &converter.Network{Graph: domain.NewGraph(), Demand: domain.NewDemand()}

	_, err := r.RunNetwork(context.Background(), "empty", empty)
	require.Error(t, err)

	e := rec.last(t)
	assert.Equal(t, audit.OutcomeFailure, e.Outcome)
	assert.Equal(t, string(apperror.Code(err)), e.ErrorCode)
	assert.NotEmpty(t, e.ErrorMessage)
	assert.Equal(t, "empty", e.Network)
}

func TestJournal_RunNetwork_Canceled(t *testing.T) {
	rec := &recorder{}
	r := newTestRunner(t, testConfig(algorithms.AlgorithmPPA), WithJournal(rec), WithMemo(nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.RunNetwork(ctx, "sample", sampleNetwork())
	require.Error(t, err)

	e := rec.last(t)
	assert.Equal(t, audit.OutcomeCanceled, e.Outcome)
	assert.Equal(t, string(algorithms.StatusCanceled), e.Status)
}

func TestJournal_Compare(t *testing.T) {
	rec := &recorder{}
	r := newTestRunner(t, testConfig(AlgorithmAll), WithJournal(rec))

	cmp, err := r.Compare(context.Background(), "sample", sampleNetwork())
	require.NoError(t, err)

	e := rec.last(t)
	assert.Equal(t, audit.ActionCompare, e.Action)
	assert.Equal(t, audit.OutcomeBalanced, e.Outcome)
	assert.Equal(t, AlgorithmAll, e.Algorithm)
	assert.Equal(t, cmp.RunID, e.RunID)
	assert.Equal(t, len(algorithms.Names()), e.Metadata["algorithms"])
	assert.Equal(t, cmp.Best().Algorithm, e.Metadata["best"])
}

func TestJournal_Sweep(t *testing.T) {
	rec := &recorder{}
	cfg := testConfig(algorithms.AlgorithmDijkstra)
	cfg.Sweep.Samples = 3
	cfg.Sweep.Distribution = "none"
	r := newTestRunner(t, cfg, WithJournal(rec))

	run, err := r.Sweep(context.Background(), "sample", sampleNetwork())
	require.NoError(t, err)

	e := rec.last(t)
	assert.Equal(t, audit.ActionSweep, e.Action)
	assert.Equal(t, audit.OutcomeBalanced, e.Outcome)
	assert.Equal(t, run.RunID, e.RunID)
	assert.InDelta(t, run.Result.Cost.Mean, e.TotalCost, 1e-9)
	assert.Equal(t, 3, e.Metadata["samples"])
	assert.Equal(t, 3, e.Metadata["balanced_samples"])
}

func TestJournal_Resilience(t *testing.T) {
	rec := &recorder{}
	cfg := testConfig(algorithms.AlgorithmDijkstra)
	cfg.Resilience.Edges = 3
	r := newTestRunner(t, cfg, WithJournal(rec))

	run, err := r.Resilience(context.Background(), "sample", sampleNetwork())
	require.NoError(t, err)

	e := rec.last(t)
	assert.Equal(t, audit.ActionResilience, e.Action)
	assert.Equal(t, run.RunID, e.RunID)
	assert.InDelta(t, run.Result.BaseCost, e.TotalCost, 1e-9)
	assert.Equal(t, 3, e.Metadata["tested"])
	assert.Equal(t, run.Result.Failed, e.Metadata["failed"])

	want := audit.OutcomeBalanced
	if run.Result.Failed > 0 {
		want = audit.OutcomeImbalanced
	}
	assert.Equal(t, want, e.Outcome)
}

func TestJournal_WriteFailureDoesNotFailRun(t *testing.T) {
	rec := &recorder{err: errors.New("disk full")}
	r := newTestRunner(t, testConfig(algorithms.AlgorithmDijkstra), WithJournal(rec))

	_, err := r.RunNetwork(context.Background(), "sample", sampleNetwork())
	assert.NoError(t, err)
}

func TestRunner_History_File(t *testing.T) {
	j, err := audit.New(&audit.Config{
		Enabled:     true,
		Backend:     "file",
		FilePath:    filepath.Join(t.TempDir(), "runs.jsonl"),
		BufferSize:  4,
		FlushPeriod: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	defer j.Close()

	r := newTestRunner(t, testConfig(algorithms.AlgorithmDijkstra), WithJournal(j), WithMemo(nil))
	for _, name := range []string{"a", "b", "c"} {
		_, err := r.RunNetwork(context.Background(), name, sampleNetwork())
		require.NoError(t, err)
	}

	entries, err := r.History(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].Network)
	assert.Equal(t, "c", entries[1].Network)
}

func TestRunner_History_StreamUnsupported(t *testing.T) {
	j := audit.NewStreamLogger(&audit.Config{Enabled: true}, &nopWriter{})
	r := newTestRunner(t, testConfig(algorithms.AlgorithmDijkstra), WithJournal(j))

	_, err := r.History(context.Background(), 5)
	assert.True(t, apperror.Is(err, apperror.CodeIO))
}

func TestOutcome(t *testing.T) {
	canceled := apperror.Wrap(context.Canceled, apperror.CodeCanceled, "canceled")

	assert.Equal(t, audit.OutcomeBalanced, outcome(true, nil))
	assert.Equal(t, audit.OutcomeImbalanced, outcome(false, nil))
	assert.Equal(t, audit.OutcomeFailure, outcome(true, errors.New("boom")))
	assert.Equal(t, audit.OutcomeCanceled, outcome(false, canceled))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
