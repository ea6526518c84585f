package bench

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gpurun/gpurun/pkg/logging"
)

// Entry is one configuration variant to benchmark
type Entry struct {
	Config      string `yaml:"config"`
	Description string `yaml:"description"`
}

// Suite is a benchmark suite definition loaded from a YAML file:
//
//	benchmarks:
//	  - config: configs/inference.yaml
//	    description: Original 14B (50 steps)
type Suite struct {
	Benchmarks []Entry `yaml:"benchmarks"`
}

// LoadSuite reads a suite definition from a YAML file
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("failed to parse suite file %s: %w", path, err)
	}
	if len(suite.Benchmarks) == 0 {
		return nil, fmt.Errorf("suite file %s defines no benchmarks", path)
	}

	for i, e := range suite.Benchmarks {
		if e.Config == "" {
			return nil, fmt.Errorf("suite file %s: benchmark %d has no config path", path, i)
		}
		if e.Description == "" {
			suite.Benchmarks[i].Description = e.Config
		}
	}

	return &suite, nil
}

// DefaultSuite is the built-in configuration comparison used when no suite
// file is given.
func DefaultSuite() *Suite {
	return &Suite{Benchmarks: []Entry{
		{Config: "configs/inference.yaml", Description: "Original 14B (50 steps)"},
		{Config: "configs/inference_optimized.yaml", Description: "Optimized 14B (20 steps + TeaCache)"},
		{Config: "configs/inference_1.3B_optimized.yaml", Description: "Ultra-fast 1.3B (15 steps + TeaCache)"},
	}}
}

// FilterExisting drops entries whose config file is missing, warning about
// each skip. Running a subset is fine; running nothing is an error the
// caller handles.
func FilterExisting(log *logging.Logger, entries []Entry) []Entry {
	available := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if _, err := os.Stat(e.Config); err != nil {
			if log != nil {
				log.Warnf("⚠️  skipping %s: config not found: %s", e.Description, e.Config)
			}
			continue
		}
		available = append(available, e)
	}
	return available
}
