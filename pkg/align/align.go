// Package align places decoded probe samples on the output time axis.
//
// The time probe's decoded series (the timebase) maps capture cycles to
// seconds. In time-scaled mode every other probe is walked against it and
// samples falling between two timebase entries are interpolated. In
// cycle-indexed mode a probe's own cycle counts are used directly.
//
// The time register has a fixed width and eventually rolls over. The first
// timebase entry that is negative or smaller than its predecessor ends the
// usable capture for all probes.
package align

import (
	"github.com/OpenTraceLab/OpenTraceWave/pkg/sample"
)

// DefaultPipelineOffset is the latency, in cycles, between a probe sample
// and the time register value that belongs to it.
const DefaultPipelineOffset = 25000

// DefaultTick is the duration of one cycle in cycle-indexed mode.
const DefaultTick = 1e-9

// Mode selects the time axis.
type Mode int

const (
	TimeScaled   Mode = iota // interpolate against the timebase
	CycleIndexed             // cycle count times a fixed tick
)

func (m Mode) String() string {
	if m == CycleIndexed {
		return "cycle-indexed"
	}
	return "time-scaled"
}

// Wrap describes where a timebase rolled over.
type Wrap struct {
	Wrapped bool
	// Index is the position of the first discarded timebase entry.
	Index int
	// Cycle is the capture cycle of that entry.
	Cycle uint64
}

// Truncate returns the usable prefix of a timebase.
func Truncate(tb []sample.Decoded) ([]sample.Decoded, Wrap) {
	for i, s := range tb {
		if s.Value < 0 || (i > 0 && s.Value < tb[i-1].Value) {
			return tb[:i], Wrap{Wrapped: true, Index: i, Cycle: s.Cycle}
		}
	}
	return tb, Wrap{}
}

// Cycles maps samples to cycle*tick seconds.
func Cycles(samples []sample.Decoded, tick float64) []sample.Point {
	out := make([]sample.Point, len(samples))
	for i, s := range samples {
		out[i] = sample.Point{Time: float64(s.Cycle) * tick, Value: s.Value}
	}
	return out
}

// Scaled walks samples against the timebase tb. Both must be ordered by
// cycle.
//
// For each sample, starting at the current timebase entry:
//   - equal cycles take the entry's time;
//   - a sample more than offset cycles before the next entry is interpolated
//     between the current entry and the next one, shifted by offset;
//   - otherwise the walk moves on to the next entry.
//
// Samples the last entry cannot place are dropped. Emitted times never
// decrease.
func Scaled(tb []sample.Decoded, samples []sample.Decoded, offset int64) []sample.Point {
	tb, _ = Truncate(tb)
	if len(tb) == 0 {
		return nil
	}

	out := make([]sample.Point, 0, len(samples))
	last := tb[0].Value
	t := 0

	emit := func(at, v float64) {
		if at < last {
			at = last
		}
		last = at
		out = append(out, sample.Point{Time: at, Value: v})
	}

walk:
	for _, s := range samples {
		for {
			cur := tb[t]
			if s.Cycle == cur.Cycle {
				emit(cur.Value, s.Value)
				break
			}
			if t+1 >= len(tb) {
				if s.Cycle > cur.Cycle {
					break walk
				}
				continue walk
			}
			next := tb[t+1]
			if int64(next.Cycle)-offset > int64(s.Cycle) {
				emit(interpolate(cur, next, s.Cycle, offset), s.Value)
				break
			}
			t++
		}
	}

	return out
}

func interpolate(cur, next sample.Decoded, cycle uint64, offset int64) float64 {
	span := int64(next.Cycle) - int64(cur.Cycle)
	if span <= 0 {
		return cur.Value
	}
	dt := next.Value - cur.Value
	steps := int64(cycle) - int64(cur.Cycle) + offset
	return dt/float64(span)*float64(steps) + cur.Value
}

// Aligner applies one mode to every probe of a conversion.
type Aligner struct {
	Mode Mode
	// Offset is the pipeline offset used in time-scaled mode.
	Offset int64
	// Tick is the seconds per cycle used in cycle-indexed mode. Zero means
	// DefaultTick.
	Tick float64
}

// New returns an aligner with the default offset and tick.
func New(mode Mode) Aligner {
	return Aligner{Mode: mode, Offset: DefaultPipelineOffset, Tick: DefaultTick}
}

// Align places samples on the output axis. Samples at or after the cycle
// where tb wraps are dropped in both modes.
func (a Aligner) Align(tb, samples []sample.Decoded) []sample.Point {
	if a.Mode == TimeScaled {
		return Scaled(tb, samples, a.Offset)
	}

	tick := a.Tick
	if tick == 0 {
		tick = DefaultTick
	}
	if _, w := Truncate(tb); w.Wrapped {
		n := 0
		for n < len(samples) && samples[n].Cycle < w.Cycle {
			n++
		}
		samples = samples[:n]
	}
	return Cycles(samples, tick)
}
