package bench

import (
	"strconv"
	"strings"
)

// MetricsParser extracts structured metrics from the text a benchmark
// process wrote to standard output. The interface is deliberately narrow:
// the output format belongs to the external program, so format drift
// should break one small, testable parser rather than misparse silently.
type MetricsParser interface {
	Parse(output string) map[string]float64
}

// LineParser scrapes the known performance lines emitted by the profiling
// script:
//
//	Total inference time: 42.5s
//	Generation speed: 0.8x real-time
//	Video duration: 6.0s
type LineParser struct{}

// Metric keys produced by LineParser.
const (
	MetricTotalTime       = "total_time"
	MetricGenerationSpeed = "generation_speed"
	MetricVideoDuration   = "video_duration"
)

// Parse scans the output line by line. Lines that do not match a known
// metric, or whose value does not parse, are ignored.
func (LineParser) Parse(output string) map[string]float64 {
	metrics := make(map[string]float64)
	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.Contains(line, "Total inference time:"):
			if v, ok := parseValue(line, "s"); ok {
				metrics[MetricTotalTime] = v
			}
		case strings.Contains(line, "Generation speed:"):
			if v, ok := parseValue(line, "x real-time"); ok {
				metrics[MetricGenerationSpeed] = v
			}
		case strings.Contains(line, "Video duration:"):
			if v, ok := parseValue(line, "s"); ok {
				metrics[MetricVideoDuration] = v
			}
		}
	}
	if len(metrics) == 0 {
		return nil
	}
	return metrics
}

// parseValue takes the text after the last colon, strips the unit suffix
// and parses the remainder as a float.
func parseValue(line, suffix string) (float64, bool) {
	idx := strings.LastIndex(line, ":")
	if idx < 0 {
		return 0, false
	}
	raw := strings.TrimSpace(line[idx+1:])
	raw = strings.TrimSpace(strings.TrimSuffix(raw, suffix))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
