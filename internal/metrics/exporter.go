package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/gpurun/gpurun/internal/report"
	"github.com/gpurun/gpurun/pkg/models"
)

// BatchExporter serves live metrics for one in-flight batch run: a
// Prometheus /metrics endpoint and a /progress JSON snapshot. Batches run
// for tens of minutes, long enough for a scraper to watch them.
type BatchExporter struct {
	mu        sync.RWMutex
	startTime time.Time
	total     int
	running   int
	succeeded int
	failed    int

	registry    *promclient.Registry
	jobsTotal   *promclient.CounterVec
	jobsRunning promclient.Gauge
	jobDuration promclient.Histogram

	srv *http.Server
}

// NewBatchExporter creates an exporter for a batch of total planned jobs
func NewBatchExporter(total int) *BatchExporter {
	e := &BatchExporter{
		startTime: time.Now(),
		total:     total,
		registry:  promclient.NewRegistry(),
		jobsTotal: promclient.NewCounterVec(promclient.CounterOpts{
			Name: "gpurun_jobs_total",
			Help: "Completed jobs by terminal state",
		}, []string{"state"}),
		jobsRunning: promclient.NewGauge(promclient.GaugeOpts{
			Name: "gpurun_jobs_running",
			Help: "Jobs currently executing",
		}),
		jobDuration: promclient.NewHistogram(promclient.HistogramOpts{
			Name:    "gpurun_job_duration_seconds",
			Help:    "Wall-clock duration of completed jobs",
			Buckets: promclient.ExponentialBuckets(10, 2, 10), // 10s .. ~85min
		}),
	}

	e.registry.MustRegister(e.jobsTotal, e.jobsRunning, e.jobDuration)
	return e
}

// JobStarted records a job entering execution
func (e *BatchExporter) JobStarted(models.JobSpec) {
	e.mu.Lock()
	e.running++
	e.mu.Unlock()
	e.jobsRunning.Inc()
}

// JobFinished records a terminal outcome
func (e *BatchExporter) JobFinished(o models.JobOutcome) {
	e.mu.Lock()
	e.running--
	if o.Success {
		e.succeeded++
	} else {
		e.failed++
	}
	e.mu.Unlock()

	e.jobsRunning.Dec()
	e.jobDuration.Observe(o.Duration.Seconds())
	state := "failed"
	if o.Success {
		state = "succeeded"
	}
	e.jobsTotal.WithLabelValues(state).Inc()
}

// Progress returns the current running tally
func (e *BatchExporter) Progress() report.Progress {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return report.Progress{
		Completed: e.succeeded + e.failed,
		Total:     e.total,
		Succeeded: e.succeeded,
		Failed:    e.failed,
	}
}

// Router builds the HTTP routes: /metrics and /progress
func (e *BatchExporter) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/metrics", e.handleMetrics).Methods(http.MethodGet)
	r.HandleFunc("/progress", e.handleProgress).Methods(http.MethodGet)
	return r
}

// handleMetrics writes the batch-level gauges by hand, then appends the
// registry metrics through the text encoder.
func (e *BatchExporter) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	e.mu.RLock()
	total := e.total
	uptime := time.Since(e.startTime).Seconds()
	e.mu.RUnlock()

	fmt.Fprintf(w, "# HELP gpurun_batch_planned_jobs Total jobs planned for this batch\n")
	fmt.Fprintf(w, "# TYPE gpurun_batch_planned_jobs gauge\n")
	fmt.Fprintf(w, "gpurun_batch_planned_jobs %d\n", total)

	fmt.Fprintf(w, "\n# HELP gpurun_batch_uptime_seconds Time since the batch started\n")
	fmt.Fprintf(w, "# TYPE gpurun_batch_uptime_seconds gauge\n")
	fmt.Fprintf(w, "gpurun_batch_uptime_seconds %.0f\n", uptime)

	metricFamilies, err := e.registry.Gather()
	if err != nil {
		fmt.Fprintf(w, "# Error gathering metrics: %v\n", err)
		return
	}

	fmt.Fprintf(w, "\n")
	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, mf := range metricFamilies {
		if err := encoder.Encode(mf); err != nil {
			fmt.Fprintf(w, "# Error encoding metric %s: %v\n", mf.GetName(), err)
		}
	}
	w.Write(buf.Bytes())
}

// handleProgress serves the running tally as JSON
func (e *BatchExporter) handleProgress(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(e.Progress())
}

// Start serves the exporter on addr in the background
func (e *BatchExporter) Start(addr string) {
	e.srv = &http.Server{
		Addr:         addr,
		Handler:      e.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		if err := e.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()
}

// Stop shuts the exporter server down
func (e *BatchExporter) Stop(ctx context.Context) error {
	if e.srv == nil {
		return nil
	}
	return e.srv.Shutdown(ctx)
}
