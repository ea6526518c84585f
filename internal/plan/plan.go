package plan

import (
	"fmt"

	"github.com/gpurun/gpurun/internal/workload"
	"github.com/gpurun/gpurun/pkg/models"
)

// PlanError describes malformed orchestration input. It is always surfaced
// before any job launches.
type PlanError struct {
	Field  string
	Reason string
}

// Error implements the error interface
func (e *PlanError) Error() string {
	return fmt.Sprintf("invalid plan: %s %s", e.Field, e.Reason)
}

// Options holds the shared inputs of both planning modes.
type Options struct {
	ConfigPath    string
	Devices       []int
	PerDeviceJobs int
}

func (o Options) validate() error {
	if len(o.Devices) == 0 {
		return &PlanError{Field: "devices", Reason: "list is empty"}
	}
	if o.PerDeviceJobs < 1 {
		return &PlanError{Field: "per-device jobs", Reason: fmt.Sprintf("must be >= 1, got %d", o.PerDeviceJobs)}
	}
	return nil
}

// TotalJobs returns the planned concurrency: one slot per job in broadcast
// mode, one per chunk in split mode (the chunk count itself is derived
// from this number at partition time).
func (o Options) TotalJobs() int {
	return len(o.Devices) * o.PerDeviceJobs
}

// Split builds the job list for split mode: the i-th chunk is assigned
// devices[i mod len(devices)], so load spreads evenly across devices for
// any chunk count. Pure function, deterministic.
func Split(opts Options, chunks []workload.Chunk) ([]models.JobSpec, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, &PlanError{Field: "chunks", Reason: "list is empty"}
	}

	jobs := make([]models.JobSpec, 0, len(chunks))
	for i, chunk := range chunks {
		jobs = append(jobs, models.JobSpec{
			ConfigPath: opts.ConfigPath,
			InputPath:  chunk.Path,
			Label:      fmt.Sprintf("chunk_%d", i),
			GPU:        opts.Devices[i%len(opts.Devices)],
		})
	}
	return jobs, nil
}

// Broadcast builds the job list for broadcast mode: the single input is
// replicated across every device and PerDeviceJobs times per device
// (useful for running several configuration variants against the same
// input). Total job count is len(devices) * PerDeviceJobs.
func Broadcast(opts Options, inputPath string) ([]models.JobSpec, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	jobs := make([]models.JobSpec, 0, opts.TotalJobs())
	for _, gpu := range opts.Devices {
		for idx := 0; idx < opts.PerDeviceJobs; idx++ {
			jobs = append(jobs, models.JobSpec{
				ConfigPath: opts.ConfigPath,
				InputPath:  inputPath,
				Label:      fmt.Sprintf("gpu%d_job%d", gpu, idx),
				GPU:        gpu,
			})
		}
	}
	return jobs, nil
}
