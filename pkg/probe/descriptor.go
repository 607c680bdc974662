package probe

import "fmt"

// Kind classifies a probe.
type Kind int

const (
	Analog  Kind = iota // fixed-point signed value, scaled by 2^Exponent
	Digital             // unsigned bit vector
	Time                // emulator time register
	Strobe              // decimation-compare strobe
)

func (k Kind) String() string {
	switch k {
	case Analog:
		return "analog"
	case Digital:
		return "digital"
	case Time:
		return "time"
	case Strobe:
		return "strobe"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MaxWidth is the widest probe the decoder handles.
const MaxWidth = 64

// DefaultTimeScale is the time register resolution in seconds per LSB.
const DefaultTimeScale = 1e-9

// Descriptor describes one probe. Descriptors are values and are never
// modified after the catalog is built.
type Descriptor struct {
	Name string
	// Path is the hierarchical signal name in the capture, e.g.
	// "top.tb_i.v_out" or "top/tb_i/v_out".
	Path  string
	Kind  Kind
	Width int

	// Exponent is the fixed-point exponent. Analog probes always have one;
	// a Time probe may have one.
	Exponent    int
	HasExponent bool
	Signed      bool

	// Scale is the seconds-per-LSB of a Time probe after exponent scaling.
	Scale float64
}

func (d Descriptor) String() string {
	if d.HasExponent {
		return fmt.Sprintf("%s %s[%d] 2^%d", d.Kind, d.Path, d.Width, d.Exponent)
	}
	return fmt.Sprintf("%s %s[%d]", d.Kind, d.Path, d.Width)
}
