package sample

import (
	"fmt"
	"strconv"
)

// Marker is a non-numeric logic level.
type Marker uint8

const (
	MarkerX Marker = iota + 1 // unknown
	MarkerZ                   // high impedance
)

func (m Marker) String() string {
	switch m {
	case MarkerX:
		return "x"
	case MarkerZ:
		return "z"
	default:
		return fmt.Sprintf("Marker(%d)", uint8(m))
	}
}

// ParseMarker maps 'x'/'X' and 'z'/'Z' to a Marker.
func ParseMarker(c byte) (Marker, bool) {
	switch c {
	case 'x', 'X':
		return MarkerX, true
	case 'z', 'Z':
		return MarkerZ, true
	}
	return 0, false
}

// Value is either a number or a symbolic marker. The zero Value is Numeric(0).
type Value struct {
	num    float64
	marker Marker
}

// Numeric wraps a number.
func Numeric(f float64) Value {
	return Value{num: f}
}

// Symbolic wraps a marker.
func Symbolic(m Marker) Value {
	return Value{marker: m}
}

// IsSymbolic reports whether v holds a marker.
func (v Value) IsSymbolic() bool {
	return v.marker != 0
}

// Float returns the number and true, or 0 and false for a marker.
func (v Value) Float() (float64, bool) {
	if v.marker != 0 {
		return 0, false
	}
	return v.num, true
}

// Marker returns the marker and true, or 0 and false for a number.
func (v Value) Marker() (Marker, bool) {
	return v.marker, v.marker != 0
}

// Equal compares two values. Markers are equal to themselves only.
func (v Value) Equal(o Value) bool {
	if v.marker != 0 || o.marker != 0 {
		return v.marker == o.marker
	}
	return v.num == o.num
}

func (v Value) String() string {
	if v.marker != 0 {
		return v.marker.String()
	}
	return strconv.FormatFloat(v.num, 'g', -1, 64)
}
