package convert

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/align"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/decode"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/errors"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/probe"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/sample"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/vcd"
)

// Request is one conversion job.
type Request struct {
	Format      Format
	CapturePath string
	OutputPath  string
	Structure   probe.StructureConfig
	Options     Options
}

// Result summarizes a finished conversion.
type Result struct {
	// Probes lists the probes written, time probe first.
	Probes []string
	// Skipped lists configured probes the capture does not contain.
	Skipped []string
	// Events is the number of value changes handed to the writer.
	Events int
	// Wrapped is set when the time register rolled over; samples from
	// WrapCycle on were discarded.
	Wrapped   bool
	WrapCycle uint64
}

// Convert parses a capture, decodes and aligns every configured probe and
// writes the waveform file. The output file only appears when the whole
// conversion succeeded.
func Convert(req Request) (*Result, error) {
	opts := req.Options
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if req.OutputPath == "" {
		return nil, errors.Configf("no output path")
	}

	cat, err := probe.NewCatalog(req.Structure)
	if err != nil {
		return nil, err
	}

	format, err := Detect(req.Format, req.CapturePath)
	if err != nil {
		return nil, err
	}
	src, err := openCapture(format, req.CapturePath)
	if err != nil {
		return nil, err
	}

	log := Logger().With(zap.String("capture", req.CapturePath))
	dec := decode.Decoder{FloatType: opts.FloatType}
	aligner := opts.aligner(src.tick())

	td := cat.Time()
	timeRaw, ok, err := src.series(td)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(errors.KindParse).
			Source(req.CapturePath).
			Detail("no matching signals for time probe %q", td.Path).
			Build()
	}
	tb, _, err := dec.Series(td, timeRaw)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	if _, wrap := align.Truncate(tb); wrap.Wrapped {
		res.Wrapped, res.WrapCycle = true, wrap.Cycle
		log.Info("time register wrapped, truncating capture",
			zap.Uint64("cycle", wrap.Cycle),
			zap.Int("index", wrap.Index))
	}

	var out outputFile
	if err := out.create(req.OutputPath); err != nil {
		return nil, err
	}
	defer out.discard()

	w := vcd.NewWriter(out.f, vcd.WriterOptions{
		Date:         opts.Date,
		Comment:      opts.Comment,
		DefaultScope: opts.DefaultScope,
	})

	// The time probe shows its raw register value.
	if err := emit(w, td, vcd.Reg, aligner.Align(tb, decode.Counter(timeRaw))); err != nil {
		return nil, err
	}
	res.Probes = append(res.Probes, td.Name)

	for _, d := range cat.Probes() {
		raw, ok, err := src.series(d)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Debug("probe not in capture, skipping", zap.String("probe", d.Path))
			res.Skipped = append(res.Skipped, d.Name)
			continue
		}

		decoded, st, err := dec.Series(d, raw)
		if err != nil {
			return nil, err
		}
		if st.Unknown > 0 {
			log.Debug("unknown digits decoded as 0",
				zap.String("probe", d.Path),
				zap.Int("digits", st.Unknown),
				zap.Int("samples", st.Coerced))
		}

		kind := vcd.Reg
		if d.Kind == probe.Analog {
			kind = vcd.Real
		}
		if err := emit(w, d, kind, aligner.Align(tb, decoded)); err != nil {
			return nil, err
		}
		res.Probes = append(res.Probes, d.Name)
	}

	res.Events = w.Events()
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to write waveform: %w", err)
	}
	if err := out.commit(); err != nil {
		return nil, err
	}

	log.Info("conversion complete",
		zap.String("output", req.OutputPath),
		zap.Stringer("mode", aligner.Mode),
		zap.Int("probes", len(res.Probes)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("events", res.Events))

	return res, nil
}

func emit(w *vcd.Writer, d probe.Descriptor, kind vcd.VarKind, points []sample.Point) error {
	v, err := w.Register(d.Path, kind, d.Width)
	if err != nil {
		return errors.New(errors.KindConfig).Detail("probe %q", d.Name).Cause(err).Build()
	}
	for _, p := range points {
		if err := w.Change(v, p.Time, p.Value); err != nil {
			return err
		}
	}
	return nil
}

// outputFile writes to a temporary file next to the destination and renames
// it into place on commit.
type outputFile struct {
	f    *os.File
	path string
	done bool
}

func (o *outputFile) create(path string) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	o.f, o.path = f, path
	if err := f.Chmod(0o644); err != nil {
		o.discard()
		return fmt.Errorf("failed to create output: %w", err)
	}
	return nil
}

func (o *outputFile) commit() error {
	tmp := o.f.Name()
	if err := o.f.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err := os.Rename(tmp, o.path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	o.done = true
	return nil
}

// discard removes the temporary file unless commit succeeded.
func (o *outputFile) discard() {
	if o.f == nil || o.done {
		return
	}
	o.f.Close()
	os.Remove(o.f.Name())
}
