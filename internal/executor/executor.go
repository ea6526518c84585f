package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gpurun/gpurun/pkg/logging"
	"github.com/gpurun/gpurun/pkg/models"
)

// DeviceEnv is the environment variable that restricts which GPU a spawned
// process may see. Scoping it to a single id per process is how device
// affinity is enforced; this is a convention the launched program is
// trusted to honor, not a kernel-level guarantee.
const DeviceEnv = "CUDA_VISIBLE_DEVICES"

// DefaultTimeout is the per-job wall-clock ceiling when none is configured.
const DefaultTimeout = 30 * time.Minute

// Executor runs planned jobs as isolated external processes under a fixed
// worker-slot budget and fans their outcomes into a single channel in
// completion order.
type Executor struct {
	// Launcher is the fixed command prefix every job runs under,
	// e.g. ["torchrun", "--standalone", "--nproc_per_node=1", "scripts/inference.py"].
	Launcher []string

	// Timeout is the per-job wall-clock ceiling. Zero means DefaultTimeout.
	Timeout time.Duration

	Log *logging.Logger

	// OnStart, when set, is called just before each job's process launches.
	OnStart func(models.JobSpec)
}

// Run launches every job and returns a channel yielding exactly one
// JobOutcome per job, in the order jobs finish. At most workerBudget jobs
// run at once; a budget <= 0 means one slot per job, so everything starts
// immediately. The channel is closed once all outcomes are delivered.
//
// A failing, crashing, or hung job never blocks or aborts its siblings:
// each runs in its own process, and errors are recorded as failed
// outcomes rather than propagated.
func (e *Executor) Run(ctx context.Context, jobs []models.JobSpec, workerBudget int) <-chan models.JobOutcome {
	if workerBudget <= 0 {
		workerBudget = len(jobs)
	}

	out := make(chan models.JobOutcome, len(jobs))
	sem := make(chan struct{}, workerBudget)

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(j models.JobSpec) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			out <- e.runOne(ctx, j)
		}(job)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// runOne executes a single job to completion and always returns an outcome.
func (e *Executor) runOne(ctx context.Context, job models.JobSpec) models.JobOutcome {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := e.buildCommand(jobCtx, job)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if e.OnStart != nil {
		e.OnStart(job)
	}
	if e.Log != nil {
		e.Log.Infof("🚀 starting job %s on GPU %d: %s", job.Label, job.GPU, job.InputPath)
	}

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	outcome := models.JobOutcome{
		GPU:       job.GPU,
		Label:     job.Label,
		InputPath: job.InputPath,
		Duration:  elapsed,
	}

	switch {
	case jobCtx.Err() == context.DeadlineExceeded:
		outcome.Error = fmt.Sprintf("%s: job exceeded %s wall-clock ceiling", models.TimeoutErrorTag, timeout)
		if e.Log != nil {
			e.Log.Warnf("⏰ GPU %d job %s timed out after %.1fs", job.GPU, job.Label, elapsed.Seconds())
		}
	case err != nil:
		outcome.Error = failureText(err, &stderr)
		if e.Log != nil {
			e.Log.Errorf("❌ GPU %d job %s failed after %.1fs", job.GPU, job.Label, elapsed.Seconds())
		}
	default:
		outcome.Success = true
		outcome.Stdout = stdout.String()
		if e.Log != nil {
			e.Log.Infof("✅ GPU %d completed %s in %.1fs", job.GPU, job.Label, elapsed.Seconds())
		}
	}

	return outcome
}

// buildCommand assembles the external process invocation for one job: the
// launcher prefix plus config and input arguments, with the job's GPU
// pinned as the only visible device.
func (e *Executor) buildCommand(ctx context.Context, job models.JobSpec) *exec.Cmd {
	args := make([]string, 0, len(e.Launcher)+3)
	args = append(args, e.Launcher[1:]...)
	args = append(args, "--config", job.ConfigPath, "--input_file", job.InputPath)

	cmd := exec.CommandContext(ctx, e.Launcher[0], args...)
	// Own process group so the workload is independent of the orchestrator
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	// Later entries win, so this overrides any inherited device list
	cmd.Env = append(os.Environ(), fmt.Sprintf("%s=%d", DeviceEnv, job.GPU))
	return cmd
}

// failureText picks the most useful diagnostic for a failed job: captured
// stderr when the process produced any, the launch error otherwise.
func failureText(err error, stderr *bytes.Buffer) string {
	msg := strings.TrimSpace(stderr.String())
	if msg == "" {
		msg = err.Error()
	}
	return msg
}
