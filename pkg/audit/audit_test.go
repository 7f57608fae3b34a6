// Package audit provides tests for the run journal components.
package audit

import (
	"encoding/json"
	"testing"
	"time"
)

// TestNewEntry verifies that the Builder correctly constructs an Entry with all fields set.
func TestNewEntry(t *testing.T) {
	entry := NewEntry().
		Run("run-1", ActionRun).
		Outcome(OutcomeBalanced).
		Network("regional", "fp-abc").
		Algorithm("ppa", "converged", 42).
		Result(123.5, 0.25).
		Cached(true).
		Duration(150*time.Millisecond).
		Meta("iterations", 17).
		Build()

	if entry.RunID != "run-1" {
		t.Errorf("expected run id 'run-1', got %s", entry.RunID)
	}
	if entry.Action != ActionRun {
		t.Errorf("expected action RUN, got %s", entry.Action)
	}
	if entry.Outcome != OutcomeBalanced {
		t.Errorf("expected outcome BALANCED, got %s", entry.Outcome)
	}
	if entry.Network != "regional" || entry.Fingerprint != "fp-abc" {
		t.Errorf("unexpected network fields: %s %s", entry.Network, entry.Fingerprint)
	}
	if entry.Algorithm != "ppa" || entry.Status != "converged" || entry.Seed != 42 {
		t.Errorf("unexpected algorithm fields: %s %s %d", entry.Algorithm, entry.Status, entry.Seed)
	}
	if entry.TotalCost != 123.5 || entry.ErrorPercent != 0.25 {
		t.Errorf("unexpected result: %v %v", entry.TotalCost, entry.ErrorPercent)
	}
	if !entry.Cached {
		t.Error("expected cached entry")
	}
	if entry.DurationMs != 150 {
		t.Errorf("expected duration 150ms, got %d", entry.DurationMs)
	}
	if entry.Metadata["iterations"] != 17 {
		t.Errorf("expected metadata iterations=17, got %v", entry.Metadata["iterations"])
	}
	if entry.ID == "" {
		t.Error("expected generated ID")
	}
	if entry.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestBuilder_Error(t *testing.T) {
	entry := NewEntry().
		Run("run-2", ActionSweep).
		Outcome(OutcomeFailure).
		Error("INVALID_CONFIG", "cost.capacity must be positive").
		Build()

	if entry.ErrorCode != "INVALID_CONFIG" {
		t.Errorf("expected error code INVALID_CONFIG, got %s", entry.ErrorCode)
	}
	if entry.ErrorMessage == "" {
		t.Error("expected error message")
	}
	if entry.Metadata != nil {
		t.Errorf("empty metadata must be dropped, got %v", entry.Metadata)
	}
}

func TestBuilder_UniqueIDs(t *testing.T) {
	a := NewEntry().Build()
	b := NewEntry().Build()
	if a.ID == b.ID {
		t.Errorf("expected unique IDs, got %s twice", a.ID)
	}
}

func TestEntry_MarshalJSON(t *testing.T) {
	entry := NewEntry().
		Run("run-3", ActionCompare).
		Outcome(OutcomeImbalanced).
		Network("sample", "").
		Result(10, 5).
		Build()

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("failed to marshal entry: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal entry: %v", err)
	}

	if decoded["action"] != "COMPARE" {
		t.Errorf("expected action COMPARE, got %v", decoded["action"])
	}
	if decoded["outcome"] != "IMBALANCED" {
		t.Errorf("expected outcome IMBALANCED, got %v", decoded["outcome"])
	}
	if _, ok := decoded["fingerprint"]; ok {
		t.Error("empty fingerprint must be omitted")
	}
	if _, ok := decoded["total_cost"]; !ok {
		t.Error("total_cost must always be present")
	}
}

func TestQueryFilter_Match(t *testing.T) {
	now := time.Now()
	entry := &Entry{
		Timestamp:   now,
		Action:      ActionRun,
		Outcome:     OutcomeBalanced,
		Network:     "regional",
		Algorithm:   "aco",
		Fingerprint: "fp-1",
	}
	before := now.Add(-time.Minute)
	after := now.Add(time.Minute)

	tests := []struct {
		name   string
		filter *QueryFilter
		want   bool
	}{
		{"nil filter", nil, true},
		{"empty filter", &QueryFilter{}, true},
		{"action match", &QueryFilter{Action: ActionRun}, true},
		{"action mismatch", &QueryFilter{Action: ActionSweep}, false},
		{"outcome mismatch", &QueryFilter{Outcome: OutcomeFailure}, false},
		{"network match", &QueryFilter{Network: "regional"}, true},
		{"network mismatch", &QueryFilter{Network: "sample"}, false},
		{"algorithm mismatch", &QueryFilter{Algorithm: "ppa"}, false},
		{"fingerprint match", &QueryFilter{Fingerprint: "fp-1"}, true},
		{"inside time range", &QueryFilter{StartTime: &before, EndTime: &after}, true},
		{"start is inclusive", &QueryFilter{StartTime: &now}, true},
		{"end is exclusive", &QueryFilter{EndTime: &now}, false},
		{"after range", &QueryFilter{StartTime: &after}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(entry); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestDefaultConfig verifies that DefaultConfig returns the expected default values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Enabled {
		t.Error("expected journal to be disabled by default")
	}
	if cfg.Backend != "file" {
		t.Errorf("expected backend 'file', got %s", cfg.Backend)
	}
	if cfg.FilePath != "supplynet-journal.jsonl" {
		t.Errorf("unexpected file path %s", cfg.FilePath)
	}
	if cfg.BufferSize != 100 {
		t.Errorf("expected buffer size 100, got %d", cfg.BufferSize)
	}
	if cfg.FlushPeriod != time.Second {
		t.Errorf("expected flush period 1s, got %v", cfg.FlushPeriod)
	}
}
