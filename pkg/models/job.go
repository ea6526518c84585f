package models

import (
	"strings"
	"time"
)

// JobSpec describes one planned inference job, bound to exactly one GPU.
// Built by the plan package, consumed once by the executor, never mutated.
type JobSpec struct {
	ConfigPath string `json:"config"`
	InputPath  string `json:"input"`
	Label      string `json:"label"`
	GPU        int    `json:"gpu"`
}

// JobOutcome is the immutable terminal record of one job. Set once by the
// executor, never changed. Exactly one outcome exists per JobSpec, even
// when the job failed to launch.
type JobOutcome struct {
	GPU       int           `json:"gpu"`
	Label     string        `json:"label"`
	InputPath string        `json:"input"`
	Success   bool          `json:"success"`
	Duration  time.Duration `json:"duration_ns"`

	// Stdout holds the captured standard output of a successful job.
	// Error holds the captured diagnostic text of a failed one.
	Stdout string `json:"-"`
	Error  string `json:"error,omitempty"`
}

// TimedOut reports whether the outcome was a forced termination at the
// wall-clock ceiling rather than a normal exit.
func (o JobOutcome) TimedOut() bool {
	return !o.Success && strings.HasPrefix(o.Error, TimeoutErrorTag)
}

// TimeoutErrorTag prefixes the error text of outcomes that were killed at
// the per-job wall-clock ceiling, so they are distinguishable from runtime
// failures.
const TimeoutErrorTag = "timeout"

// BatchReport is the read-only summary of one batch run, computed once
// every outcome has arrived.
type BatchReport struct {
	TotalJobs int           `json:"total_jobs"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	WallTime  time.Duration `json:"wall_time_ns"`

	// Duration stats cover successful outcomes only. Zero when no job
	// succeeded.
	AvgDuration time.Duration `json:"avg_duration_ns"`
	MinDuration time.Duration `json:"min_duration_ns"`
	MaxDuration time.Duration `json:"max_duration_ns"`

	// Speedup is the sum of successful per-job durations divided by the
	// observed wall time. Nil when no job succeeded (undefined, not zero).
	Speedup *float64 `json:"speedup,omitempty"`

	Outcomes       []JobOutcome `json:"outcomes"`
	FailedOutcomes []JobOutcome `json:"failed_outcomes,omitempty"`
}
