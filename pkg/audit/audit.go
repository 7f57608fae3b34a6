// Package audit provides a journal of optimization runs.
// It defines the structure of a journal entry, actions, outcomes, and interfaces
// for the different journal backends.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action represents the kind of run recorded in the journal.
type Action string

const (
	// ActionRun indicates a single-algorithm run.
	ActionRun Action = "RUN"
	// ActionCompare indicates a run of every algorithm on the same network.
	ActionCompare Action = "COMPARE"
	// ActionSweep indicates a series of runs with perturbed demand.
	ActionSweep Action = "SWEEP"
	// ActionResilience indicates an edge outage analysis.
	ActionResilience Action = "RESILIENCE"
)

// Outcome represents the result of a run.
type Outcome string

const (
	// OutcomeBalanced indicates that the allocation matched demand within tolerance.
	OutcomeBalanced Outcome = "BALANCED"
	// OutcomeImbalanced indicates that the allocation did not match demand.
	OutcomeImbalanced Outcome = "IMBALANCED"
	// OutcomeFailure indicates that the run failed with an error.
	OutcomeFailure Outcome = "FAILURE"
	// OutcomeCanceled indicates that the run was interrupted.
	OutcomeCanceled Outcome = "CANCELED"
)

// Entry represents a single journal record.
type Entry struct {
	ID           string         `json:"id"`                      // Unique identifier for the entry.
	Timestamp    time.Time      `json:"timestamp"`               // Time when the run finished.
	RunID        string         `json:"run_id,omitempty"`        // Run identifier shared with logs and spans.
	Action       Action         `json:"action"`                  // Kind of run.
	Outcome      Outcome        `json:"outcome"`                 // Result of the run.
	Network      string         `json:"network,omitempty"`       // Network name.
	Fingerprint  string         `json:"fingerprint,omitempty"`   // Hash of network, demand and parameters.
	Algorithm    string         `json:"algorithm,omitempty"`     // Solver name.
	Status       string         `json:"status,omitempty"`        // Solver termination status.
	Seed         int64          `json:"seed,omitempty"`          // Random seed of the run.
	TotalCost    float64        `json:"total_cost"`              // Sum of E(Q)*Q over the shared edges.
	ErrorPercent float64        `json:"error_percent"`           // Balance check error.
	Cached       bool           `json:"cached,omitempty"`        // Result reused from the memo.
	DurationMs   int64          `json:"duration_ms"`             // Duration of the run in milliseconds.
	ErrorCode    string         `json:"error_code,omitempty"`    // Application error code if the run failed.
	ErrorMessage string         `json:"error_message,omitempty"` // Human-readable error message.
	Metadata     map[string]any `json:"metadata,omitempty"`      // Additional key-value metadata.
}

// Logger is the interface that journal backends must implement.
type Logger interface {
	// Log records a journal entry.
	Log(ctx context.Context, entry *Entry) error

	// Query retrieves entries matching the filter, oldest first.
	// Not all backends support querying.
	Query(ctx context.Context, filter *QueryFilter) ([]*Entry, error)

	// Close flushes pending entries and releases resources.
	Close() error
}

// QueryFilter defines criteria for querying journal entries.
type QueryFilter struct {
	StartTime   *time.Time // Start time for the query range (inclusive).
	EndTime     *time.Time // End time for the query range (exclusive).
	Action      Action     // Filter by action.
	Outcome     Outcome    // Filter by outcome.
	Network     string     // Filter by network name.
	Algorithm   string     // Filter by algorithm.
	Fingerprint string     // Filter by input fingerprint.
	Limit       int        // Keep only the last Limit matches; 0 means all.
}

// Match reports whether the entry satisfies the filter.
func (f *QueryFilter) Match(e *Entry) bool {
	if f == nil {
		return true
	}
	if f.StartTime != nil && e.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && !e.Timestamp.Before(*f.EndTime) {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Outcome != "" && e.Outcome != f.Outcome {
		return false
	}
	if f.Network != "" && e.Network != f.Network {
		return false
	}
	if f.Algorithm != "" && e.Algorithm != f.Algorithm {
		return false
	}
	if f.Fingerprint != "" && e.Fingerprint != f.Fingerprint {
		return false
	}
	return true
}

// Config holds configuration parameters for the journal.
type Config struct {
	Enabled     bool          `koanf:"enabled"`      // If true, runs are journaled.
	Backend     string        `koanf:"backend"`      // The backend to use ("file" or "stderr").
	FilePath    string        `koanf:"file_path"`    // Path to the journal, if backend is "file".
	BufferSize  int           `koanf:"buffer_size"`  // Size of the internal buffer for asynchronous writes.
	FlushPeriod time.Duration `koanf:"flush_period"` // Period to flush buffered entries to the file.
}

// DefaultConfig returns a Config struct with default values.
func DefaultConfig() *Config {
	return &Config{
		Enabled:     false,
		Backend:     "file",
		FilePath:    "supplynet-journal.jsonl",
		BufferSize:  100,
		FlushPeriod: time.Second,
	}
}

// Builder provides a fluent API for constructing an Entry object.
type Builder struct {
	entry *Entry
}

// NewEntry creates and returns a new Builder initialized with a timestamp and an empty metadata map.
func NewEntry() *Builder {
	return &Builder{
		entry: &Entry{
			Timestamp: time.Now(),
			Metadata:  make(map[string]any),
		},
	}
}

// Run sets the run identifier and the action.
func (b *Builder) Run(runID string, action Action) *Builder {
	b.entry.RunID = runID
	b.entry.Action = action
	return b
}

// Outcome sets the outcome for the entry.
func (b *Builder) Outcome(o Outcome) *Builder {
	b.entry.Outcome = o
	return b
}

// Network sets the network name and input fingerprint.
func (b *Builder) Network(name, fingerprint string) *Builder {
	b.entry.Network = name
	b.entry.Fingerprint = fingerprint
	return b
}

// Algorithm sets the solver name, its termination status and seed.
func (b *Builder) Algorithm(name, status string, seed int64) *Builder {
	b.entry.Algorithm = name
	b.entry.Status = status
	b.entry.Seed = seed
	return b
}

// Result sets the cost and balance error of the allocation.
func (b *Builder) Result(totalCost, errorPercent float64) *Builder {
	b.entry.TotalCost = totalCost
	b.entry.ErrorPercent = errorPercent
	return b
}

// Cached marks the entry as served from the memo.
func (b *Builder) Cached(cached bool) *Builder {
	b.entry.Cached = cached
	return b
}

// Duration sets the duration of the run in milliseconds.
func (b *Builder) Duration(d time.Duration) *Builder {
	b.entry.DurationMs = d.Milliseconds()
	return b
}

// Error sets the error code and message if the run failed.
func (b *Builder) Error(code, message string) *Builder {
	b.entry.ErrorCode = code
	b.entry.ErrorMessage = message
	return b
}

// Meta adds a key-value pair to the metadata map of the entry.
func (b *Builder) Meta(key string, value any) *Builder {
	b.entry.Metadata[key] = value
	return b
}

// Build finalizes the Entry construction and returns the Entry object.
// It generates a unique ID if one is not already set.
func (b *Builder) Build() *Entry {
	if b.entry.ID == "" {
		b.entry.ID = uuid.NewString()
	}
	if len(b.entry.Metadata) == 0 {
		b.entry.Metadata = nil
	}
	return b.entry
}

// MarshalJSON customizes the JSON serialization of an Entry.
func (e *Entry) MarshalJSON() ([]byte, error) {
	type Alias Entry
	return json.Marshal((*Alias)(e))
}
