package bench

import (
	"testing"
)

// TestLineParser verifies the known metric lines are scraped with their
// unit suffixes stripped
func TestLineParser(t *testing.T) {
	output := `Loading checkpoint shards
Total inference time: 42.5s
Generation speed: 0.8x real-time
Video duration: 6.0s
Done.
`
	metrics := LineParser{}.Parse(output)

	if metrics[MetricTotalTime] != 42.5 {
		t.Errorf("Expected total_time 42.5, got %v", metrics[MetricTotalTime])
	}
	if metrics[MetricGenerationSpeed] != 0.8 {
		t.Errorf("Expected generation_speed 0.8, got %v", metrics[MetricGenerationSpeed])
	}
	if metrics[MetricVideoDuration] != 6.0 {
		t.Errorf("Expected video_duration 6.0, got %v", metrics[MetricVideoDuration])
	}
}

// TestLineParserMalformed verifies unparseable values are ignored instead
// of being misreported
func TestLineParserMalformed(t *testing.T) {
	output := `Total inference time: fast
Generation speed: 1.5x real-time
`
	metrics := LineParser{}.Parse(output)

	if _, ok := metrics[MetricTotalTime]; ok {
		t.Error("Malformed total_time line should be ignored")
	}
	if metrics[MetricGenerationSpeed] != 1.5 {
		t.Errorf("Expected generation_speed 1.5, got %v", metrics[MetricGenerationSpeed])
	}
}

// TestLineParserNoMetrics verifies silence yields a nil map
func TestLineParserNoMetrics(t *testing.T) {
	if m := (LineParser{}).Parse("nothing relevant here\n"); m != nil {
		t.Errorf("Expected nil metrics, got %v", m)
	}
}
