// Package sample holds the sample types that flow between the capture
// parsers, the decoder, the time aligner and the waveform writer.
package sample

// Raw is one undecoded sample of a probe.
//
// Captures deliver either a bit pattern (VCD scalar and vector changes) or a
// number (VCD real changes, CSV cells). Bits may contain 'x' and 'z'.
type Raw struct {
	Cycle  uint64
	Bits   string
	Real   float64
	IsReal bool
}

// BitsAt returns a bit-pattern sample.
func BitsAt(cycle uint64, bits string) Raw {
	return Raw{Cycle: cycle, Bits: bits}
}

// RealAt returns a numeric sample.
func RealAt(cycle uint64, v float64) Raw {
	return Raw{Cycle: cycle, Real: v, IsReal: true}
}

// Decoded is a sample converted to engineering units.
type Decoded struct {
	Cycle uint64
	Value float64
}

// Point is a decoded sample placed on the output time axis (seconds).
type Point struct {
	Time  float64
	Value float64
}

// Cycles returns the cycle counts of a raw series.
func Cycles(raw []Raw) []uint64 {
	out := make([]uint64, len(raw))
	for i, r := range raw {
		out[i] = r.Cycle
	}
	return out
}
