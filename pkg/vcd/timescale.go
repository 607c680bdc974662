package vcd

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/errors"
)

// unitExponents maps a time unit to its power of ten in seconds.
var unitExponents = map[string]int{
	"fs": -15,
	"ps": -12,
	"ns": -9,
	"us": -6,
	"ms": -3,
	"s":  0,
}

var timescalePattern = regexp.MustCompile(`^([0-9]+)\s*([a-zA-Z]+)$`)

// Timescale is the unit of one cycle marker step.
type Timescale struct {
	Magnitude int64
	Unit      string
}

// DefaultTimescale applies to dumps without a $timescale directive.
var DefaultTimescale = Timescale{Magnitude: 1, Unit: "ns"}

func (ts Timescale) String() string {
	return strconv.FormatInt(ts.Magnitude, 10) + " " + ts.Unit
}

// Seconds returns the duration of one step.
func (ts Timescale) Seconds() float64 {
	f, _ := ts.In("s").Float64()
	return f
}

// In returns how many units of target one step lasts. The result is exact.
// Unknown target units yield nil.
func (ts Timescale) In(target string) *big.Rat {
	from, ok := unitExponents[ts.Unit]
	if !ok {
		return nil
	}
	to, ok := unitExponents[target]
	if !ok {
		return nil
	}

	r := new(big.Rat).SetInt64(ts.Magnitude)
	shift := from - to
	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs(shift))), nil)
	if shift >= 0 {
		return r.Mul(r, new(big.Rat).SetInt(pow))
	}
	return r.Quo(r, new(big.Rat).SetInt(pow))
}

// ParseTimescale parses "1ns", "10 ps" and friends. Magnitudes other than 1,
// 10 and 100 and unknown units are rejected.
func ParseTimescale(text string) (Timescale, error) {
	m := timescalePattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Timescale{}, errors.Parsef("malformed timescale %q", text)
	}

	mag, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || (mag != 1 && mag != 10 && mag != 100) {
		return Timescale{}, errors.Parsef("unsupported timescale magnitude %q", m[1])
	}

	unit := strings.ToLower(m[2])
	if _, ok := unitExponents[unit]; !ok {
		return Timescale{}, errors.Parsef("unsupported timescale unit %q", m[2])
	}

	return Timescale{Magnitude: mag, Unit: unit}, nil
}

// ValidUnit reports whether unit is one of fs, ps, ns, us, ms, s.
func ValidUnit(unit string) bool {
	_, ok := unitExponents[unit]
	return ok
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
