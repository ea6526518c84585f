package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gpurun/gpurun/internal/report"
	"github.com/gpurun/gpurun/pkg/models"
)

// TestProgressTally verifies started/finished events keep the tally
// consistent with the monotonic progress invariants
func TestProgressTally(t *testing.T) {
	e := NewBatchExporter(3)

	jobs := []models.JobSpec{{GPU: 0, Label: "a"}, {GPU: 1, Label: "b"}, {GPU: 0, Label: "c"}}
	for _, j := range jobs {
		e.JobStarted(j)
	}

	e.JobFinished(models.JobOutcome{GPU: 0, Label: "a", Success: true, Duration: time.Second})
	e.JobFinished(models.JobOutcome{GPU: 1, Label: "b", Duration: time.Second, Error: "crashed"})

	want := report.Progress{Completed: 2, Total: 3, Succeeded: 1, Failed: 1}
	if got := e.Progress(); got != want {
		t.Errorf("Expected progress %+v, got %+v", want, got)
	}
}

// TestMetricsEndpoint verifies both the hand-written batch gauges and the
// registry metrics appear on /metrics
func TestMetricsEndpoint(t *testing.T) {
	e := NewBatchExporter(2)
	e.JobStarted(models.JobSpec{GPU: 0, Label: "a"})
	e.JobFinished(models.JobOutcome{GPU: 0, Label: "a", Success: true, Duration: 30 * time.Second})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()

	for _, metric := range []string{
		"gpurun_batch_planned_jobs 2",
		"gpurun_jobs_total{state=\"succeeded\"} 1",
		"gpurun_job_duration_seconds",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("Expected %q in metrics output:\n%s", metric, body)
		}
	}
}

// TestProgressEndpoint verifies the /progress JSON snapshot
func TestProgressEndpoint(t *testing.T) {
	e := NewBatchExporter(4)
	e.JobStarted(models.JobSpec{GPU: 0, Label: "a"})
	e.JobFinished(models.JobOutcome{GPU: 0, Label: "a", Duration: time.Second, Error: "crashed"})

	req := httptest.NewRequest(http.MethodGet, "/progress", nil)
	rec := httptest.NewRecorder()
	e.Router().ServeHTTP(rec, req)

	var p report.Progress
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("Progress endpoint is not valid JSON: %v", err)
	}
	if p.Completed != 1 || p.Total != 4 || p.Failed != 1 {
		t.Errorf("Unexpected progress: %+v", p)
	}
}
