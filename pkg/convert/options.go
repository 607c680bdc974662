package convert

import (
	"time"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/align"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/errors"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/probe"
)

// Options controls a conversion.
type Options struct {
	// Decoding
	FloatType bool // analog values in the capture are already real numbers (default: false)

	// Alignment
	TimeScaled     bool    // interpolate against the time probe; false uses cycle counts (default: true)
	PipelineOffset int64   // probe-to-time-register latency in cycles (default: 25000)
	CycleTick      float64 // seconds per cycle in cycle mode; 0 uses the capture's own timescale

	// Output header
	DefaultScope string // scope for probes without a hierarchical path (default: "top")
	Date         string // $date text; empty means the current time
	Comment      string // optional $comment text
}

// DefaultOptions returns Options with the defaults used by the capture flow.
func DefaultOptions() Options {
	return Options{
		FloatType:      false,
		TimeScaled:     true,
		PipelineOffset: align.DefaultPipelineOffset,
		CycleTick:      0,
		DefaultScope:   "top",
	}
}

// Apply copies the flags a structure file set.
func (o *Options) Apply(s probe.Settings) {
	if s.FloatType != nil {
		o.FloatType = *s.FloatType
	}
	if s.TimeScaled != nil {
		o.TimeScaled = *s.TimeScaled
	}
	if s.PipelineOffset != nil {
		o.PipelineOffset = *s.PipelineOffset
	}
}

// Validate checks the options and fills in derived defaults.
func (o *Options) Validate() error {
	if o.PipelineOffset < 0 {
		return errors.Configf("pipeline offset %d is negative", o.PipelineOffset)
	}
	if o.CycleTick < 0 {
		return errors.Configf("cycle tick %g is negative", o.CycleTick)
	}
	if o.DefaultScope == "" {
		o.DefaultScope = "top"
	}
	if o.Date == "" {
		o.Date = time.Now().Format(time.RFC1123)
	}
	return nil
}

func (o Options) aligner(tick float64) align.Aligner {
	a := align.Aligner{Mode: align.CycleIndexed, Offset: o.PipelineOffset, Tick: tick}
	if o.TimeScaled {
		a.Mode = align.TimeScaled
	}
	if o.CycleTick > 0 {
		a.Tick = o.CycleTick
	}
	return a
}
