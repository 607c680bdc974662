package probe

import (
	"github.com/OpenTraceLab/OpenTraceWave/pkg/errors"
)

// AnalogProbe is a fixed-point probe. Exponent is nil when the structure
// source did not provide one.
type AnalogProbe struct {
	Name     string
	Path     string
	Exponent *int
	Width    int
}

// DigitalProbe is an unsigned bit vector probe.
type DigitalProbe struct {
	Name  string
	Path  string
	Width int
}

// TimeProbe is the emulator time register.
type TimeProbe struct {
	Name     string
	Path     string
	Width    int
	Exponent *int
	// Scale is seconds per LSB after exponent scaling. Zero selects 1 when
	// Exponent is set and DefaultTimeScale otherwise.
	Scale float64
}

// StrobeProbe is the decimation-compare strobe.
type StrobeProbe struct {
	Name  string
	Path  string
	Width int
}

// StructureConfig is the ordered probe list handed over by the build layer.
type StructureConfig struct {
	Analog  []AnalogProbe
	Digital []DigitalProbe
	Time    []TimeProbe
	Strobe  []StrobeProbe
}

// Settings are conversion flags carried by a structure file. Nil fields were
// not set.
type Settings struct {
	FloatType      *bool
	TimeScaled     *bool
	PipelineOffset *int64
}

// Catalog holds one Descriptor per configured probe plus the time probe.
type Catalog struct {
	probes []Descriptor
	time   Descriptor
	index  map[string]int
}

// NewCatalog validates cfg and classifies its probes.
func NewCatalog(cfg StructureConfig) (*Catalog, error) {
	switch n := len(cfg.Time); {
	case n == 0:
		return nil, errors.Configf("no time probe configured")
	case n > 1:
		return nil, errors.Configf("%d time probes configured, exactly one is required", n)
	}

	c := &Catalog{index: make(map[string]int)}

	tp := cfg.Time[0]
	td := Descriptor{
		Name:  tp.Name,
		Path:  pathOrName(tp.Path, tp.Name),
		Kind:  Time,
		Width: tp.Width,
		Scale: tp.Scale,
	}
	if tp.Exponent != nil {
		td.Exponent = *tp.Exponent
		td.HasExponent = true
	}
	if td.Scale == 0 {
		// An exponent-scaled time register already counts seconds.
		td.Scale = DefaultTimeScale
		if td.HasExponent {
			td.Scale = 1
		}
	}
	if td.Scale < 0 {
		return nil, errors.Configf("time probe %q: negative scale %g", tp.Name, tp.Scale)
	}
	if err := c.add(td); err != nil {
		return nil, err
	}
	c.time = td

	for _, p := range cfg.Analog {
		if p.Exponent == nil {
			return nil, errors.Configf("analog probe %q has no exponent", p.Name)
		}
		err := c.add(Descriptor{
			Name:        p.Name,
			Path:        pathOrName(p.Path, p.Name),
			Kind:        Analog,
			Width:       p.Width,
			Exponent:    *p.Exponent,
			HasExponent: true,
			Signed:      true,
		})
		if err != nil {
			return nil, err
		}
	}

	for _, p := range cfg.Digital {
		err := c.add(Descriptor{
			Name:  p.Name,
			Path:  pathOrName(p.Path, p.Name),
			Kind:  Digital,
			Width: widthOrOne(p.Width),
		})
		if err != nil {
			return nil, err
		}
	}

	for _, p := range cfg.Strobe {
		err := c.add(Descriptor{
			Name:  p.Name,
			Path:  pathOrName(p.Path, p.Name),
			Kind:  Strobe,
			Width: widthOrOne(p.Width),
		})
		if err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Catalog) add(d Descriptor) error {
	if d.Name == "" {
		return errors.Configf("%s probe without a name", d.Kind)
	}
	if d.Width < 1 || d.Width > MaxWidth {
		return errors.Configf("%s probe %q: width %d outside 1..%d", d.Kind, d.Name, d.Width, MaxWidth)
	}
	if _, dup := c.index[d.Path]; dup {
		return errors.Configf("duplicate probe path %q", d.Path)
	}
	idx := len(c.probes)
	c.probes = append(c.probes, d)
	c.index[d.Path] = idx
	if _, taken := c.index[d.Name]; !taken {
		c.index[d.Name] = idx
	}
	return nil
}

// Time returns the time probe.
func (c *Catalog) Time() Descriptor {
	return c.time
}

// Probes returns the non-time probes in configuration order: analog,
// digital, strobe.
func (c *Catalog) Probes() []Descriptor {
	out := make([]Descriptor, 0, len(c.probes)-1)
	for _, d := range c.probes {
		if d.Kind != Time {
			out = append(out, d)
		}
	}
	return out
}

// All returns every probe, time probe first.
func (c *Catalog) All() []Descriptor {
	out := make([]Descriptor, len(c.probes))
	copy(out, c.probes)
	return out
}

// Lookup finds a probe by path or name.
func (c *Catalog) Lookup(key string) (Descriptor, bool) {
	idx, ok := c.index[key]
	if !ok {
		return Descriptor{}, false
	}
	return c.probes[idx], true
}

// Len returns the number of probes including the time probe.
func (c *Catalog) Len() int {
	return len(c.probes)
}

func pathOrName(path, name string) string {
	if path == "" {
		return name
	}
	return path
}

func widthOrOne(w int) int {
	if w == 0 {
		return 1
	}
	return w
}
