package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gpurun/gpurun/internal/bench"
	"github.com/gpurun/gpurun/internal/executor"
	"github.com/gpurun/gpurun/internal/gpu"
	"github.com/gpurun/gpurun/internal/metrics"
	"github.com/gpurun/gpurun/internal/plan"
	"github.com/gpurun/gpurun/internal/report"
	"github.com/gpurun/gpurun/internal/workload"
	"github.com/gpurun/gpurun/pkg/logging"
	"github.com/gpurun/gpurun/pkg/models"
	"github.com/gpurun/gpurun/pkg/shutdown"
)

var (
	runConfig      string
	runInputFile   string
	runGPUsFlag        string
	runPerGPUJobs  int
	runSplitInput  bool
	runTimeout     time.Duration
	runLauncher    string
	runMetricsAddr string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an inference batch in parallel across GPUs",
	Long: `Run launches one external inference process per planned job, each pinned
to a single GPU via ` + executor.DeviceEnv + `. With --split-input the prompt
file is partitioned into one chunk per job; without it, every job consumes
the full input file (broadcast mode).

The command exits 0 whenever the batch completes, even if some jobs failed;
failures are reported in the summary and the persisted JSON report.
A non-zero exit means a structural error before any job launched.

Example:
  gpurun run --config configs/inference.yaml --input-file prompts.txt --gpus 0,1,2,3
  gpurun run --config configs/inference.yaml --input-file prompts.txt --gpus auto --split-input`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runConfig, "config", "", "base config file passed to every job (required)")
	runCmd.Flags().StringVar(&runInputFile, "input-file", "", "input file with prompts (required)")
	runCmd.Flags().StringVar(&runGPUsFlag, "gpus", "0,1,2,3", "comma-separated GPU ids, or 'auto' to detect via nvidia-smi")
	runCmd.Flags().IntVar(&runPerGPUJobs, "per-gpu-jobs", 1, "parallel jobs per GPU (>1 oversubscribes the GPU)")
	runCmd.Flags().BoolVar(&runSplitInput, "split-input", false, "split the input file across jobs instead of replicating it")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", executor.DefaultTimeout, "per-job wall-clock ceiling")
	runCmd.Flags().StringVar(&runLauncher, "launcher", "", "launcher command prefix (default from config)")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "serve /metrics and /progress on this address while the batch runs")
	runCmd.MarkFlagRequired("config")
	runCmd.MarkFlagRequired("input-file")
}

func runRun(cmd *cobra.Command, args []string) error {
	log := newLogger()

	devices, err := resolveDevices(runGPUsFlag)
	if err != nil {
		return err
	}

	launcher, err := launcherFields(runLauncher, "launcher")
	if err != nil {
		return err
	}

	opts := plan.Options{
		ConfigPath:    runConfig,
		Devices:       devices,
		PerDeviceJobs: runPerGPUJobs,
	}

	unit, err := workload.Load(runInputFile)
	if err != nil {
		return err
	}

	fmt.Printf("🔧 Parallel inference setup:\n")
	fmt.Printf("   GPUs: %v\n", devices)
	fmt.Printf("   Jobs per GPU: %d\n", runPerGPUJobs)
	fmt.Printf("   Total parallel jobs: %d\n", opts.TotalJobs())
	fmt.Printf("   Config: %s\n", runConfig)
	fmt.Printf("   Input: %s (%d prompts)\n", runInputFile, unit.Len())

	mgr := shutdown.New(30 * time.Second)
	ctx := mgr.Context(cmd.Context())
	defer mgr.Shutdown()

	var jobs []models.JobSpec
	if runSplitInput {
		chunks, err := workload.Partition(unit, opts.TotalJobs())
		if err != nil {
			return err
		}
		mgr.Register(func(context.Context) error {
			workload.RemoveChunks(log, chunks)
			return nil
		})
		jobs, err = plan.Split(opts, chunks)
		if err != nil {
			return err
		}
	} else {
		jobs, err = plan.Broadcast(opts, unit.Source)
		if err != nil {
			return err
		}
	}
	fmt.Printf("📋 Prepared %d jobs\n", len(jobs))

	var exporter *metrics.BatchExporter
	if runMetricsAddr != "" {
		exporter = metrics.NewBatchExporter(len(jobs))
		exporter.Start(runMetricsAddr)
		mgr.Register(exporter.Stop)
		log.Infof("metrics served on %s", runMetricsAddr)
	}

	exec := &executor.Executor{
		Launcher: launcher,
		Timeout:  runTimeout,
		Log:      log,
	}
	if exporter != nil {
		exec.OnStart = exporter.JobStarted
	}

	outcomes := exec.Run(ctx, jobs, len(jobs))
	stream := outcomes
	if exporter != nil {
		tee := make(chan models.JobOutcome, len(jobs))
		go func() {
			for o := range outcomes {
				exporter.JobFinished(o)
				tee <- o
			}
			close(tee)
		}()
		stream = tee
	}

	rep := report.Aggregate(stream, len(jobs), func(p report.Progress) {
		log.Infof("📊 progress: %d/%d (%d ✅, %d ❌)", p.Completed, p.Total, p.Succeeded, p.Failed)
	})

	printSummary(rep)
	persistRun(log, rep)

	return nil
}

// resolveDevices turns the --gpus flag into a device id list
func resolveDevices(spec string) ([]int, error) {
	if spec == "auto" {
		detected, err := gpu.Detect()
		if err != nil {
			return nil, err
		}
		ids := make([]int, 0, len(detected))
		for _, d := range detected {
			ids = append(ids, d.Index)
		}
		return ids, nil
	}
	return gpu.ParseIDList(spec)
}

// printSummary renders the batch report for the terminal
func printSummary(rep *models.BatchReport) {
	if IsJSONOutput() {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err == nil {
			fmt.Println(string(data))
		}
		return
	}

	fmt.Printf("\n🎯 Parallel execution summary:\n")

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Label", "GPU", "Status", "Duration", "Detail")
	for _, o := range rep.Outcomes {
		status := "OK"
		detail := ""
		if !o.Success {
			status = "FAILED"
			if o.TimedOut() {
				status = "TIMEOUT"
			}
			detail = firstLine(o.Error)
		}
		table.Append(
			o.Label,
			fmt.Sprintf("%d", o.GPU),
			status,
			fmt.Sprintf("%.1fs", o.Duration.Seconds()),
			detail,
		)
	}
	table.Render()

	fmt.Printf("\n   Total time: %.1fs\n", rep.WallTime.Seconds())
	fmt.Printf("   Successful jobs: %d/%d\n", rep.Succeeded, rep.TotalJobs)
	fmt.Printf("   Failed jobs: %d\n", rep.Failed)
	if rep.Succeeded > 0 {
		fmt.Printf("   Job times: avg=%.1fs, min=%.1fs, max=%.1fs\n",
			rep.AvgDuration.Seconds(), rep.MinDuration.Seconds(), rep.MaxDuration.Seconds())
	}
	if rep.Speedup != nil {
		fmt.Printf("   Speedup vs sequential: %.1fx\n", *rep.Speedup)
	} else {
		fmt.Printf("   Speedup vs sequential: n/a\n")
	}

	if len(rep.FailedOutcomes) > 0 {
		fmt.Printf("\n❌ Failed jobs:\n")
		for _, o := range rep.FailedOutcomes {
			fmt.Printf("   GPU %d: %s\n", o.GPU, o.InputPath)
		}
	}
}

// persistRun writes the JSON report; a persistence failure is a warning,
// never a batch failure.
func persistRun(log *logging.Logger, rep *models.BatchReport) {
	writer, err := report.NewWriter(resultsDir)
	if err != nil {
		log.Warnf("skipping report persistence: %v", err)
		return
	}

	parser := bench.LineParser{}
	path, err := writer.WriteRun(rep, runConfig, func(o models.JobOutcome) map[string]float64 {
		return parser.Parse(o.Stdout)
	})
	if err != nil {
		log.Warnf("failed to persist report: %v", err)
		return
	}
	fmt.Printf("\n💾 Report saved to: %s\n", path)
}

// firstLine truncates diagnostic text to its first line for table display
func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}
