package bench

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gpurun/gpurun/pkg/logging"
	"github.com/gpurun/gpurun/pkg/models"
)

// Result is the persisted record of one benchmark: configuration label,
// description, success flag, wall time and the scraped metrics map.
type Result struct {
	Config      string             `json:"config"`
	Description string             `json:"description"`
	Success     bool               `json:"success"`
	WallTime    float64            `json:"wall_time"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	Stdout      string             `json:"stdout,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// Runner executes benchmark entries sequentially against one test input.
// Benchmarks measure single-job latency, so there is no parallelism here.
type Runner struct {
	// Launcher is the command prefix, e.g.
	// ["torchrun", "--standalone", "--nproc_per_node=1", "scripts/profile_inference.py"].
	Launcher []string

	// Timeout is the per-benchmark wall-clock ceiling. Zero means 30 minutes.
	Timeout time.Duration

	Parser MetricsParser
	Log    *logging.Logger
}

// RunSuite runs every entry in order and returns one Result per entry.
// A failing benchmark is recorded and the suite continues.
func (r *Runner) RunSuite(ctx context.Context, entries []Entry, inputPath string) []Result {
	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		results = append(results, r.runOne(ctx, e, inputPath))
	}
	return results
}

func (r *Runner) runOne(ctx context.Context, e Entry, inputPath string) Result {
	if r.Log != nil {
		r.Log.Infof("🧪 testing %s (config: %s)", e.Description, e.Config)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	benchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := make([]string, 0, len(r.Launcher)+3)
	args = append(args, r.Launcher[1:]...)
	args = append(args, "--config", e.Config, "--input_file", inputPath)

	cmd := exec.CommandContext(benchCtx, r.Launcher[0], args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	result := Result{
		Config:      e.Config,
		Description: e.Description,
		WallTime:    elapsed.Seconds(),
	}

	switch {
	case benchCtx.Err() == context.DeadlineExceeded:
		result.Error = models.TimeoutErrorTag
		if r.Log != nil {
			r.Log.Warnf("⏰ timeout after %.1fs", elapsed.Seconds())
		}
	case err != nil:
		result.Error = tail(strings.TrimSpace(stderr.String()), 500)
		if result.Error == "" {
			result.Error = err.Error()
		}
		if r.Log != nil {
			r.Log.Errorf("❌ failed after %.1fs", elapsed.Seconds())
		}
	default:
		result.Success = true
		result.Stdout = tail(stdout.String(), 1000)
		if r.Parser != nil {
			result.Metrics = r.Parser.Parse(stdout.String())
		}
		if r.Log != nil {
			r.Log.Infof("✅ success in %.1fs", elapsed.Seconds())
		}
	}

	return result
}

// tail returns the last n bytes of s, enough context for debugging without
// persisting full process output.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// WriteResults persists benchmark results as a JSON array and returns the
// file path.
func WriteResults(dir string, results []Result) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("benchmark_results_%d.json", time.Now().Unix()))
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal benchmark results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write benchmark results %s: %w", path, err)
	}
	return path, nil
}

// CreateTestInput writes a minimal one-prompt input file for quick
// benchmarking and returns its path. The caller removes it when done.
func CreateTestInput(durationSeconds int) (string, error) {
	content := fmt.Sprintf(
		"A person speaking to camera for %d seconds@@examples/images/0000.jpeg@@examples/audios/0000.MP3\n",
		durationSeconds)

	f, err := os.CreateTemp("", "gpurun_bench_*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create test input: %w", err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write test input: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
