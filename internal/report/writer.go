package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gpurun/gpurun/pkg/models"
)

// JobRecord is the persisted shape of one job outcome: the raw per-job
// data exporters and offline inspection read.
type JobRecord struct {
	Label    string             `json:"label"`
	Config   string             `json:"config"`
	Input    string             `json:"input"`
	GPU      int                `json:"gpu"`
	Success  bool               `json:"success"`
	WallTime float64            `json:"wall_time"`
	Error    string             `json:"error,omitempty"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
}

// RunReport is the persisted shape of a whole batch run.
type RunReport struct {
	CreatedAt   time.Time   `json:"created_at"`
	TotalJobs   int         `json:"total_jobs"`
	Succeeded   int         `json:"succeeded"`
	Failed      int         `json:"failed"`
	WallTime    float64     `json:"wall_time"`
	AvgDuration float64     `json:"avg_duration,omitempty"`
	MinDuration float64     `json:"min_duration,omitempty"`
	MaxDuration float64     `json:"max_duration,omitempty"`
	Speedup     *float64    `json:"speedup,omitempty"`
	Host        HostInfo    `json:"host"`
	Jobs        []JobRecord `json:"jobs"`
}

// Writer persists batch reports as JSON files for offline inspection
type Writer struct {
	outputDir string
}

// NewWriter creates a writer targeting outputDir, creating it if needed
func NewWriter(outputDir string) (*Writer, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory %s: %w", outputDir, err)
	}
	return &Writer{outputDir: outputDir}, nil
}

// WriteRun persists a BatchReport plus its raw per-job records and returns
// the file path. extractMetrics, when non-nil, is applied to each
// successful outcome to attach a structured metrics map to its record.
func (w *Writer) WriteRun(rep *models.BatchReport, configPath string, extractMetrics func(models.JobOutcome) map[string]float64) (string, error) {
	out := RunReport{
		CreatedAt:   time.Now().UTC(),
		TotalJobs:   rep.TotalJobs,
		Succeeded:   rep.Succeeded,
		Failed:      rep.Failed,
		WallTime:    rep.WallTime.Seconds(),
		AvgDuration: rep.AvgDuration.Seconds(),
		MinDuration: rep.MinDuration.Seconds(),
		MaxDuration: rep.MaxDuration.Seconds(),
		Speedup:     rep.Speedup,
		Host:        CollectHost(),
		Jobs:        make([]JobRecord, 0, len(rep.Outcomes)),
	}

	for _, o := range rep.Outcomes {
		record := JobRecord{
			Label:    o.Label,
			Config:   configPath,
			Input:    o.InputPath,
			GPU:      o.GPU,
			Success:  o.Success,
			WallTime: o.Duration.Seconds(),
			Error:    o.Error,
		}
		if o.Success && extractMetrics != nil {
			record.Metrics = extractMetrics(o)
		}
		out.Jobs = append(out.Jobs, record)
	}

	path := filepath.Join(w.outputDir, fmt.Sprintf("run_results_%d.json", time.Now().Unix()))
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write run report %s: %w", path, err)
	}
	return path, nil
}
