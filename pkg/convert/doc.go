// Package convert turns a raw capture into a canonical waveform file.
//
// A conversion builds the probe catalog from a structure description, parses
// the capture (an ILA sample table or a dump), decodes every probe, places
// the samples on the time axis given by the time probe and writes one VCD
// file with a 1 ns timescale.
//
// Conversions are synchronous and independent. The whole capture is held in
// memory, so capture size is bounded by available memory.
//
// Basic usage:
//
//	cfg, settings, err := probe.Load("structure.hcl")
//	if err != nil {
//		return err
//	}
//	opts := convert.DefaultOptions()
//	opts.Apply(settings)
//	res, err := convert.Convert(convert.Request{
//		CapturePath: "ila.csv",
//		OutputPath:  "wave.vcd",
//		Structure:   cfg,
//		Options:     opts,
//	})
//
// Probes missing from the capture are skipped and listed in Result.Skipped.
// A missing time probe fails the conversion.
package convert
