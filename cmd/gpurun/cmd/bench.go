package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gpurun/gpurun/internal/bench"
)

var (
	benchSuiteFile    string
	benchInputFile    string
	benchLauncher     string
	benchTimeout      time.Duration
	benchTestDuration int
)

// benchCmd represents the bench command
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark configuration variants to find the fastest",
	Long: `Bench runs each configuration variant sequentially against one small test
input, scrapes timing metrics from the captured output, and ranks the
variants fastest to slowest with projections for longer outputs.

Variants come from a YAML suite file (--suite) or the built-in default
suite. Variants whose config file does not exist are skipped.`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().StringVar(&benchSuiteFile, "suite", "", "benchmark suite YAML file (default: built-in suite)")
	benchCmd.Flags().StringVar(&benchInputFile, "input-file", "", "test input file (default: generated temp input)")
	benchCmd.Flags().StringVar(&benchLauncher, "launcher", "", "launcher command prefix (default from config)")
	benchCmd.Flags().DurationVar(&benchTimeout, "timeout", 30*time.Minute, "per-benchmark wall-clock ceiling")
	benchCmd.Flags().IntVar(&benchTestDuration, "test-duration", 6, "length in seconds of the generated test clip")
}

func runBench(cmd *cobra.Command, args []string) error {
	log := newLogger()

	launcher, err := launcherFields(benchLauncher, "bench_launcher")
	if err != nil {
		return err
	}

	suite := bench.DefaultSuite()
	if benchSuiteFile != "" {
		suite, err = bench.LoadSuite(benchSuiteFile)
		if err != nil {
			return err
		}
	}

	entries := bench.FilterExisting(log, suite.Benchmarks)
	if len(entries) == 0 {
		return fmt.Errorf("no valid benchmark configurations found")
	}

	inputPath := benchInputFile
	if inputPath == "" {
		inputPath, err = bench.CreateTestInput(benchTestDuration)
		if err != nil {
			return err
		}
		defer os.Remove(inputPath)
		fmt.Printf("📝 Created test input: %s\n", inputPath)
	}

	fmt.Printf("🚀 Speed benchmark: running %d configurations\n", len(entries))

	runner := &bench.Runner{
		Launcher: launcher,
		Timeout:  benchTimeout,
		Parser:   bench.LineParser{},
		Log:      log,
	}
	results := runner.RunSuite(cmd.Context(), entries, inputPath)

	printBenchSummary(results)

	path, err := bench.WriteResults(resultsDir, results)
	if err != nil {
		log.Warnf("failed to persist benchmark results: %v", err)
	} else {
		fmt.Printf("\n💾 Detailed results saved to: %s\n", path)
	}

	return nil
}

func printBenchSummary(results []bench.Result) {
	if IsJSONOutput() {
		data, err := json.MarshalIndent(results, "", "  ")
		if err == nil {
			fmt.Println(string(data))
		}
		return
	}

	ranked := bench.Rank(results)
	if len(ranked) == 0 {
		fmt.Println("\n❌ No successful benchmarks to compare")
		return
	}

	fmt.Printf("\n🏆 Ranking (fastest to slowest):\n")
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Description", "Time", "Speed")
	for i, r := range ranked {
		speed := "n/a"
		if v, ok := r.Metrics[bench.MetricGenerationSpeed]; ok {
			speed = fmt.Sprintf("%.1fx real-time", v)
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			r.Description,
			fmt.Sprintf("%.1fs", bench.EffectiveTime(r)),
			speed,
		)
	}
	table.Render()

	analysis, ok := bench.Analyze(ranked)
	if !ok {
		return
	}

	fmt.Printf("\n🚀 Speedup analysis:\n")
	fmt.Printf("   Baseline: %s (%.1fs)\n", analysis.Baseline.Description, bench.EffectiveTime(analysis.Baseline))
	fmt.Printf("   Fastest:  %s (%.1fs)\n", analysis.Fastest.Description, bench.EffectiveTime(analysis.Fastest))
	fmt.Printf("   Speedup:  %.1fx faster\n", analysis.Speedup)

	testClip := float64(benchTestDuration)
	fmt.Printf("\n📈 Projections for longer outputs:\n")
	for _, minutes := range []int{1, 5, 10} {
		baseline := bench.Projection(bench.EffectiveTime(analysis.Baseline), testClip, minutes)
		fastest := bench.Projection(bench.EffectiveTime(analysis.Fastest), testClip, minutes)
		fmt.Printf("   %d min output: %.1fmin → %.1fmin\n", minutes, baseline/60, fastest/60)
	}
}
