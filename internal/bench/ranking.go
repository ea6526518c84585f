package bench

import (
	"sort"
)

// EffectiveTime is the time a result is ranked by: the scraped inference
// time when the parser found one, otherwise the observed wall time.
func EffectiveTime(r Result) float64 {
	if v, ok := r.Metrics[MetricTotalTime]; ok {
		return v
	}
	return r.WallTime
}

// Rank returns the successful results sorted fastest to slowest by
// effective time. The input slice is not modified.
func Rank(results []Result) []Result {
	ranked := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Success {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return EffectiveTime(ranked[i]) < EffectiveTime(ranked[j])
	})
	return ranked
}

// Analysis compares the slowest configuration (the baseline) against the
// fastest one.
type Analysis struct {
	Baseline Result
	Fastest  Result
	Speedup  float64
}

// Analyze builds the speedup analysis from a ranked result list. It
// reports ok=false when fewer than one success exists or the fastest time
// is zero.
func Analyze(ranked []Result) (Analysis, bool) {
	if len(ranked) == 0 {
		return Analysis{}, false
	}

	fastest := ranked[0]
	baseline := ranked[len(ranked)-1]
	fastestTime := EffectiveTime(fastest)
	if fastestTime <= 0 {
		return Analysis{}, false
	}

	return Analysis{
		Baseline: baseline,
		Fastest:  fastest,
		Speedup:  EffectiveTime(baseline) / fastestTime,
	}, true
}

// Projection scales a benchmark time measured on a short test clip to a
// longer target output. benchSeconds is the measured time, testClipSeconds
// the clip length the benchmark generated, targetMinutes the output length
// being projected. Returns projected seconds.
func Projection(benchSeconds, testClipSeconds float64, targetMinutes int) float64 {
	if testClipSeconds <= 0 {
		return 0
	}
	return benchSeconds * (float64(targetMinutes) * 60 / testClipSeconds)
}
