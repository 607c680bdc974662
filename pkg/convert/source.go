package convert

import (
	"path/filepath"
	"strings"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/errors"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/ilacsv"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/probe"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/sample"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/vcd"
)

// Format is a capture file format.
type Format int

const (
	FormatAuto Format = iota // chosen by file extension
	FormatCSV
	FormatVCD
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatVCD:
		return "vcd"
	default:
		return "auto"
	}
}

// ParseFormat maps "csv", "vcd" and "auto" (or "") to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "csv":
		return FormatCSV, nil
	case "vcd":
		return FormatVCD, nil
	}
	return FormatAuto, errors.Configf("unknown capture format %q", s)
}

// Detect resolves FormatAuto from the capture path.
func Detect(f Format, path string) (Format, error) {
	if f != FormatAuto {
		return f, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".vcd":
		return FormatVCD, nil
	}
	return FormatAuto, errors.Configf("cannot infer capture format of %q", path)
}

// capture is a parsed raw capture of either format.
type capture interface {
	// series returns the raw samples of a probe. ok is false when the
	// capture has no such signal.
	series(d probe.Descriptor) (raw []sample.Raw, ok bool, err error)
	// tick is the duration of one cycle in seconds.
	tick() float64
}

func openCapture(f Format, path string) (capture, error) {
	switch f {
	case FormatCSV:
		t, err := ilacsv.ParseFile(path)
		if err != nil {
			return nil, err
		}
		return csvCapture{t}, nil
	default:
		// Captures are filtered by probe after parsing; a single dump may hold
		// many more signals than the catalog names.
		c, err := vcd.ParseFile(path, vcd.ParseOptions{})
		if err != nil {
			return nil, err
		}
		return vcdCapture{c}, nil
	}
}

type csvCapture struct {
	t *ilacsv.Table
}

func (c csvCapture) series(d probe.Descriptor) ([]sample.Raw, bool, error) {
	for _, key := range candidates(d) {
		if raw, ok := c.t.Column(key); ok {
			return raw, true, nil
		}
	}
	return nil, false, nil
}

func (c csvCapture) tick() float64 {
	return probe.DefaultTimeScale
}

type vcdCapture struct {
	c *vcd.Capture
}

func (c vcdCapture) series(d probe.Descriptor) ([]sample.Raw, bool, error) {
	for _, key := range candidates(d) {
		sig, ok, err := c.c.Resolve(key)
		if err != nil {
			return nil, false, err
		}
		if ok {
			raw, _ := c.c.Series(sig.Name)
			return raw, true, nil
		}
	}
	return nil, false, nil
}

func (c vcdCapture) tick() float64 {
	return c.c.Timescale.Seconds()
}

// candidates lists the names a probe may appear under in a capture: its path
// as written, the path with the other separator, then its short name.
func candidates(d probe.Descriptor) []string {
	keys := []string{d.Path}
	if alt := strings.ReplaceAll(d.Path, "/", "."); alt != d.Path {
		keys = append(keys, alt)
	}
	if alt := strings.ReplaceAll(d.Path, ".", "/"); alt != d.Path {
		keys = append(keys, alt)
	}
	if d.Name != d.Path {
		keys = append(keys, d.Name)
	}
	return keys
}
