package report

import (
	"time"

	"github.com/gpurun/gpurun/pkg/models"
)

// Progress is the running tally emitted after each completed job.
// Completed grows by exactly one per outcome; Succeeded and Failed are
// mutually exclusive partitions of it.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Aggregate drains the outcome channel until it closes, invoking
// onProgress after every outcome, then computes the final BatchReport.
// Outcomes arrive in completion order, so the tally attributes them via
// their embedded GPU id and label only, never via position. Aggregate is
// the single consumer of the stream; no locking is needed.
func Aggregate(outcomes <-chan models.JobOutcome, total int, onProgress func(Progress)) *models.BatchReport {
	start := time.Now()

	collected := make([]models.JobOutcome, 0, total)
	tally := Progress{Total: total}

	for outcome := range outcomes {
		collected = append(collected, outcome)
		tally.Completed++
		if outcome.Success {
			tally.Succeeded++
		} else {
			tally.Failed++
		}
		if onProgress != nil {
			onProgress(tally)
		}
	}

	return Summarize(collected, time.Since(start))
}

// Summarize computes the batch-level statistics over a complete set of
// outcomes. Duration stats cover successful outcomes only; failures are
// counted but excluded from timing. Speedup is the sum of successful
// per-job durations over the observed wall time, left nil (undefined)
// when nothing succeeded.
func Summarize(outcomes []models.JobOutcome, wallTime time.Duration) *models.BatchReport {
	rep := &models.BatchReport{
		TotalJobs: len(outcomes),
		WallTime:  wallTime,
		Outcomes:  outcomes,
	}

	var sum time.Duration
	for _, o := range outcomes {
		if !o.Success {
			rep.Failed++
			rep.FailedOutcomes = append(rep.FailedOutcomes, o)
			continue
		}
		rep.Succeeded++
		sum += o.Duration
		if rep.MinDuration == 0 || o.Duration < rep.MinDuration {
			rep.MinDuration = o.Duration
		}
		if o.Duration > rep.MaxDuration {
			rep.MaxDuration = o.Duration
		}
	}

	if rep.Succeeded > 0 {
		rep.AvgDuration = sum / time.Duration(rep.Succeeded)
		if wallTime > 0 {
			speedup := sum.Seconds() / wallTime.Seconds()
			rep.Speedup = &speedup
		}
	}

	return rep
}
