package plan

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/gpurun/gpurun/internal/workload"
)

func testChunks(n int) []workload.Chunk {
	chunks := make([]workload.Chunk, n)
	for i := range chunks {
		chunks[i] = workload.Chunk{
			Ordinal: i,
			Path:    fmt.Sprintf("prompts.txt_chunk_%d.txt", i),
			Items:   []string{fmt.Sprintf("prompt %d", i)},
		}
	}
	return chunks
}

// TestSplitRoundRobin verifies round-robin device assignment for a
// non-divisible case: 5 chunks over 3 devices
func TestSplitRoundRobin(t *testing.T) {
	opts := Options{ConfigPath: "c.yaml", Devices: []int{0, 1, 2}, PerDeviceJobs: 1}
	jobs, err := Split(opts, testChunks(5))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if len(jobs) != 5 {
		t.Fatalf("Expected 5 jobs, got %d", len(jobs))
	}

	wantGPUs := []int{0, 1, 2, 0, 1}
	for i, job := range jobs {
		if job.GPU != wantGPUs[i] {
			t.Errorf("Job %d: expected GPU %d, got %d", i, wantGPUs[i], job.GPU)
		}
		if job.Label != fmt.Sprintf("chunk_%d", i) {
			t.Errorf("Job %d: expected label chunk_%d, got %s", i, i, job.Label)
		}
	}
}

// TestSplitChunkOnce verifies every chunk appears in exactly one job
func TestSplitChunkOnce(t *testing.T) {
	chunks := testChunks(7)
	opts := Options{ConfigPath: "c.yaml", Devices: []int{0, 1}, PerDeviceJobs: 1}
	jobs, err := Split(opts, chunks)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	seen := make(map[string]int)
	for _, job := range jobs {
		seen[job.InputPath]++
	}
	for _, c := range chunks {
		if seen[c.Path] != 1 {
			t.Errorf("Chunk %s referenced %d times, expected exactly once", c.Path, seen[c.Path])
		}
	}
}

// TestSplitDeterministic verifies identical inputs produce identical plans
func TestSplitDeterministic(t *testing.T) {
	opts := Options{ConfigPath: "c.yaml", Devices: []int{2, 5, 7}, PerDeviceJobs: 1}
	chunks := testChunks(8)

	first, err := Split(opts, chunks)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	second, err := Split(opts, chunks)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("Split produced different plans for identical inputs")
	}
}

// TestBroadcast verifies replication: 4 devices x 2 jobs per device = 8 jobs,
// all referencing the same input
func TestBroadcast(t *testing.T) {
	opts := Options{ConfigPath: "c.yaml", Devices: []int{0, 1, 2, 3}, PerDeviceJobs: 2}
	jobs, err := Broadcast(opts, "prompts.txt")
	if err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}

	if len(jobs) != 8 {
		t.Fatalf("Expected 8 jobs, got %d", len(jobs))
	}

	perGPU := make(map[int]int)
	for _, job := range jobs {
		if job.InputPath != "prompts.txt" {
			t.Errorf("Job %s: expected input prompts.txt, got %s", job.Label, job.InputPath)
		}
		perGPU[job.GPU]++
	}
	for _, gpu := range opts.Devices {
		if perGPU[gpu] != 2 {
			t.Errorf("GPU %d: expected 2 jobs, got %d", gpu, perGPU[gpu])
		}
	}
}

// TestBroadcastSingleJobPerDevice covers the end-to-end shape: two devices,
// one job each, both bound to distinct devices with the identical workload
func TestBroadcastSingleJobPerDevice(t *testing.T) {
	opts := Options{ConfigPath: "c.yaml", Devices: []int{0, 1}, PerDeviceJobs: 1}
	jobs, err := Broadcast(opts, "prompts.txt")
	if err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}

	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].GPU == jobs[1].GPU {
		t.Errorf("Expected distinct devices, both jobs on GPU %d", jobs[0].GPU)
	}
	if jobs[0].InputPath != jobs[1].InputPath {
		t.Error("Expected both jobs to reference the identical workload")
	}
}

// TestPlanValidation covers the structural error cases, surfaced before
// any job could launch
func TestPlanValidation(t *testing.T) {
	if _, err := Broadcast(Options{ConfigPath: "c.yaml", PerDeviceJobs: 1}, "in.txt"); err == nil {
		t.Error("Expected error for empty device list, got nil")
	}

	opts := Options{ConfigPath: "c.yaml", Devices: []int{0}, PerDeviceJobs: 0}
	if _, err := Broadcast(opts, "in.txt"); err == nil {
		t.Error("Expected error for zero per-device jobs, got nil")
	}

	var planErr *PlanError
	_, err := Split(Options{ConfigPath: "c.yaml", Devices: []int{0}, PerDeviceJobs: 1}, nil)
	if err == nil {
		t.Fatal("Expected error for empty chunk list, got nil")
	}
	if !errors.As(err, &planErr) {
		t.Errorf("Expected *PlanError, got %T", err)
	}
}
