// Package staircase turns a dense (time, value) series into a sample-and-hold
// series, so consumers that interpolate between points see flat steps instead
// of ramps.
package staircase

import "github.com/OpenTraceLab/OpenTraceWave/pkg/sample"

// Sample is one point of a series. Value may be a symbolic x/z marker.
type Sample struct {
	Time  float64
	Value sample.Value
}

// Preserve returns a copy of series where every value change at time t is
// preceded by a point at t holding the previous value. Unchanged values are
// kept as they are.
func Preserve(series []Sample) []Sample {
	if len(series) == 0 {
		return nil
	}

	out := make([]Sample, 0, 2*len(series))
	out = append(out, series[0])
	for i := 1; i < len(series); i++ {
		prev, cur := series[i-1], series[i]
		if !cur.Value.Equal(prev.Value) {
			out = append(out, Sample{Time: cur.Time, Value: prev.Value})
		}
		out = append(out, cur)
	}
	return out
}

// FromPoints wraps numeric points.
func FromPoints(points []sample.Point) []Sample {
	out := make([]Sample, len(points))
	for i, p := range points {
		out[i] = Sample{Time: p.Time, Value: sample.Numeric(p.Value)}
	}
	return out
}
