package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gpurun/gpurun/pkg/logging"
)

var (
	cfgFile      string
	logLevel     string
	logJSON      bool
	resultsDir   string
	outputFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gpurun",
	Short: "Run inference jobs in parallel across multiple GPUs",
	Long: `gpurun orchestrates long-running inference jobs across the GPUs of one
host. Each job is launched as an isolated external process pinned to a
single GPU; failures are collected per job and never abort the batch.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "gpurun config file (default is $HOME/.gpurun/config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")
	rootCmd.PersistentFlags().StringVar(&resultsDir, "results-dir", "", "directory for persisted JSON reports (default from config or ./results)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "output format: table or json")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".gpurun")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("gpurun")
	viper.AutomaticEnv()

	viper.SetDefault("results_dir", "results")
	viper.SetDefault("launcher", "torchrun --standalone --nproc_per_node=1 scripts/inference.py")
	viper.SetDefault("bench_launcher", "torchrun --standalone --nproc_per_node=1 scripts/profile_inference.py")

	// A missing config file is fine; defaults and env cover everything
	_ = viper.ReadInConfig()

	if resultsDir == "" {
		resultsDir = viper.GetString("results_dir")
	}
}

// newLogger builds the logger shared by the subcommands
func newLogger() *logging.Logger {
	return logging.New(logging.ParseLevel(logLevel), logJSON)
}

// launcherFields resolves a launcher command line: the flag value when set,
// the config key otherwise, split into argv fields.
func launcherFields(flagValue, configKey string) ([]string, error) {
	raw := flagValue
	if raw == "" {
		raw = viper.GetString(configKey)
	}
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, fmt.Errorf("launcher command is empty (set --launcher or %s in the config)", configKey)
	}
	return fields, nil
}

// IsJSONOutput returns true if JSON output is requested
func IsJSONOutput() bool {
	return outputFormat == "json"
}
