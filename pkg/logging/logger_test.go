package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// TestLevelFiltering verifies messages below the configured level are dropped
func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(WARN, false)
	log.SetOutput(&buf)

	log.Info("hidden")
	log.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("INFO message leaked through WARN level")
	}
	if !strings.Contains(out, "visible") {
		t.Error("WARN message missing")
	}
}

// TestJSONFormat verifies JSON lines carry level, message and fields
func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(INFO, true).WithField("gpu", 2)
	log.SetOutput(&buf)

	log.Infof("job %s done", "chunk_0")

	var e entry
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("log line is not valid JSON: %v", err)
	}
	if e.Level != "INFO" || e.Message != "job chunk_0 done" {
		t.Errorf("Unexpected entry: %+v", e)
	}
	if e.Fields["gpu"] != float64(2) {
		t.Errorf("Expected gpu field, got %v", e.Fields)
	}
}
