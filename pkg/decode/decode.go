// Package decode converts raw probe samples into engineering values.
//
// Bit patterns are decoded as two's complement (analog probes) or unsigned
// integers (digital, strobe and time probes). Analog values are then scaled by
// 2^exponent. Unknown digits (x, z) decode as 0; they are counted but never
// reported as errors.
package decode

import (
	"math"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/errors"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/probe"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/sample"
)

// Unsigned parses an MSB-first bit pattern. Unknown digits count as 0 and are
// reported in the second result. Patterns longer than 64 bits keep only the
// low 64 bits; callers check the length first.
func Unsigned(bits string) (uint64, int) {
	var u uint64
	unknown := 0
	for i := 0; i < len(bits); i++ {
		u <<= 1
		switch bits[i] {
		case '1':
			u |= 1
		case '0':
		default:
			unknown++
		}
	}
	return u, unknown
}

// TwosComplement parses an MSB-first bit pattern whose leading bit is the
// sign bit.
func TwosComplement(bits string) (int64, int) {
	u, unknown := Unsigned(bits)
	n := len(bits)
	if n == 0 || n >= 64 || bits[0] != '1' {
		return int64(u), unknown
	}
	return int64(u) - int64(1)<<uint(n), unknown
}

// Extend left-pads bits to width the way a dump does for short vectors: with
// 'x' or 'z' when the leading digit is one, else with '0'. Patterns wider than
// width keep their low width bits.
func Extend(bits string, width int) string {
	if width <= 0 || len(bits) == width || bits == "" {
		return bits
	}
	if len(bits) > width {
		return bits[len(bits)-width:]
	}
	pad := byte('0')
	if bits[0] == 'x' || bits[0] == 'z' {
		pad = bits[0]
	}
	buf := make([]byte, width)
	for i := 0; i < width-len(bits); i++ {
		buf[i] = pad
	}
	copy(buf[width-len(bits):], bits)
	return string(buf)
}

// Analog decodes an analog sample.
//
// Bit patterns are two's complement. Numeric samples are fixed-point integers
// unless floatType is set, in which case they already hold the engineering
// value. The exponent applies to every fixed-point value regardless of the
// capture format.
func Analog(r sample.Raw, exponent int, floatType bool) (float64, int) {
	if r.IsReal {
		if floatType {
			return r.Real, 0
		}
		return math.Ldexp(r.Real, exponent), 0
	}
	n, unknown := TwosComplement(r.Bits)
	if floatType {
		return float64(n), unknown
	}
	return math.Ldexp(float64(n), exponent), unknown
}

// Digital decodes a digital or strobe sample. Numeric samples are truncated
// toward zero.
func Digital(r sample.Raw) (float64, int) {
	if r.IsReal {
		return math.Trunc(r.Real), 0
	}
	u, unknown := Unsigned(r.Bits)
	return float64(u), unknown
}

// Time decodes a time register sample into seconds:
// count * 2^Exponent (when present) * Scale.
func Time(r sample.Raw, d probe.Descriptor) (float64, int) {
	count, unknown := Digital(r)
	if d.HasExponent {
		count = math.Ldexp(count, d.Exponent)
	}
	scale := d.Scale
	if scale == 0 {
		scale = probe.DefaultTimeScale
	}
	return count * scale, unknown
}

// Stats summarizes one decoded series.
type Stats struct {
	Samples int
	// Unknown is the number of x/z digits coerced to 0.
	Unknown int
	// Coerced is the number of samples that held at least one unknown digit.
	Coerced int
}

// Decoder decodes whole series for a descriptor.
type Decoder struct {
	// FloatType marks captures whose analog values are already real numbers.
	FloatType bool
}

// Series decodes raw in order. Bit patterns wider than 64 bits are a parse
// error.
func (dec Decoder) Series(d probe.Descriptor, raw []sample.Raw) ([]sample.Decoded, Stats, error) {
	out := make([]sample.Decoded, 0, len(raw))
	var st Stats

	for _, r := range raw {
		if !r.IsReal {
			if len(r.Bits) > probe.MaxWidth {
				return nil, st, errors.New(errors.KindParse).
					Source(d.Path).
					Detail("%d-bit value at cycle %d exceeds %d bits", len(r.Bits), r.Cycle, probe.MaxWidth).
					Build()
			}
			r.Bits = Extend(r.Bits, d.Width)
		}

		var (
			v       float64
			unknown int
		)
		switch d.Kind {
		case probe.Analog:
			v, unknown = Analog(r, d.Exponent, dec.FloatType)
		case probe.Time:
			v, unknown = Time(r, d)
		default:
			v, unknown = Digital(r)
		}

		st.Samples++
		st.Unknown += unknown
		if unknown > 0 {
			st.Coerced++
		}
		out = append(out, sample.Decoded{Cycle: r.Cycle, Value: v})
	}

	return out, st, nil
}

// Counter decodes the raw register value of a time probe without any scaling.
// It is what the waveform file shows for the time probe itself.
func Counter(raw []sample.Raw) []sample.Decoded {
	out := make([]sample.Decoded, len(raw))
	for i, r := range raw {
		v, _ := Digital(r)
		out[i] = sample.Decoded{Cycle: r.Cycle, Value: v}
	}
	return out
}
