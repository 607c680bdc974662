package vcd

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// VarKind is the declared type of an output variable.
type VarKind int

const (
	Real VarKind = iota // unsized real
	Reg                 // unsigned bit vector
)

func (k VarKind) String() string {
	if k == Real {
		return "real"
	}
	return "reg"
}

// TicksPerSecond is the resolution of the written file: 1 ns.
const TicksPerSecond = 1e9

// Var is a registered output variable.
type Var struct {
	Scope []string
	Name  string
	Kind  VarKind
	Width int

	code    string
	last    string
	hasLast bool
}

// Code returns the identifier code used in the file.
func (v *Var) Code() string {
	return v.code
}

// WriterOptions configure the file header.
type WriterOptions struct {
	// Date is written into the $date section.
	Date string
	// Comment is written into a $comment section when non-empty.
	Comment string
	// DefaultScope holds variables whose qualified name has no scope part.
	// Empty means "top".
	DefaultScope string
}

type event struct {
	tick  int64
	seq   int
	v     *Var
	value float64
}

// Writer produces a waveform file with a fixed 1 ns timescale. Variables are
// registered first; changes may then arrive in any order and are written
// sorted by time when the writer is closed.
type Writer struct {
	out    io.Writer
	opts   WriterOptions
	vars   []*Var
	names  map[string]bool
	events []event
	closed bool
}

// NewWriter creates a writer emitting to out.
func NewWriter(out io.Writer, opts WriterOptions) *Writer {
	if opts.DefaultScope == "" {
		opts.DefaultScope = "top"
	}
	return &Writer{
		out:   out,
		opts:  opts,
		names: make(map[string]bool),
	}
}

// SplitQualified splits a qualified name on '.' and '/' into scope and leaf.
func SplitQualified(qualified string) ([]string, string) {
	parts := strings.FieldsFunc(qualified, func(r rune) bool {
		return r == '.' || r == '/'
	})
	if len(parts) == 0 {
		return nil, ""
	}
	return parts[:len(parts)-1], parts[len(parts)-1]
}

// Register declares an output variable. Real variables ignore width.
func (w *Writer) Register(qualified string, kind VarKind, width int) (*Var, error) {
	if w.closed {
		return nil, fmt.Errorf("vcd: register %q after close", qualified)
	}

	scope, name := SplitQualified(qualified)
	if name == "" {
		return nil, fmt.Errorf("vcd: empty variable name %q", qualified)
	}
	if len(scope) == 0 {
		scope = []string{w.opts.DefaultScope}
	}
	if kind == Real {
		width = 64
	} else if width < 1 || width > 64 {
		return nil, fmt.Errorf("vcd: variable %q: width %d outside 1..64", qualified, width)
	}

	key := strings.Join(append(append([]string(nil), scope...), name), ".")
	if w.names[key] {
		return nil, fmt.Errorf("vcd: duplicate variable %q", key)
	}
	w.names[key] = true

	v := &Var{
		Scope: scope,
		Name:  name,
		Kind:  kind,
		Width: width,
		code:  identCode(len(w.vars)),
	}
	w.vars = append(w.vars, v)
	return v, nil
}

// Change records a value for v at t seconds. t is rounded to whole ticks.
func (w *Writer) Change(v *Var, t float64, value float64) error {
	if w.closed {
		return fmt.Errorf("vcd: change after close")
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return fmt.Errorf("vcd: invalid time %v for %s", t, v.Name)
	}
	tick := int64(math.Round(t * TicksPerSecond))
	if tick < 0 {
		return fmt.Errorf("vcd: negative time %v for %s", t, v.Name)
	}
	w.events = append(w.events, event{tick: tick, seq: len(w.events), v: v, value: value})
	return nil
}

// Events returns the number of recorded changes.
func (w *Writer) Events() int {
	return len(w.events)
}

// Close writes the header and all changes in non-decreasing time order.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	bw := bufio.NewWriter(w.out)
	w.writeHeader(bw)

	sort.SliceStable(w.events, func(i, j int) bool {
		return w.events[i].tick < w.events[j].tick
	})

	var lines []string
	for i := 0; i < len(w.events); {
		tick := w.events[i].tick
		lines = lines[:0]
		for ; i < len(w.events) && w.events[i].tick == tick; i++ {
			e := w.events[i]
			text := formatValue(e.v, e.value)
			if e.v.hasLast && e.v.last == text {
				continue
			}
			e.v.last, e.v.hasLast = text, true
			lines = append(lines, text)
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(bw, "#%d\n", tick)
		for _, l := range lines {
			bw.WriteString(l)
			bw.WriteByte('\n')
		}
	}

	return bw.Flush()
}

type scopeNode struct {
	name     string
	vars     []*Var
	children []*scopeNode
	index    map[string]*scopeNode
}

func (n *scopeNode) child(name string) *scopeNode {
	if c, ok := n.index[name]; ok {
		return c
	}
	c := &scopeNode{name: name, index: make(map[string]*scopeNode)}
	n.index[name] = c
	n.children = append(n.children, c)
	return c
}

func (w *Writer) writeHeader(bw *bufio.Writer) {
	fmt.Fprintf(bw, "$date\n\t%s\n$end\n", w.opts.Date)
	if w.opts.Comment != "" {
		fmt.Fprintf(bw, "$comment\n\t%s\n$end\n", w.opts.Comment)
	}
	bw.WriteString("$timescale 1 ns $end\n")

	root := &scopeNode{index: make(map[string]*scopeNode)}
	for _, v := range w.vars {
		n := root
		for _, s := range v.Scope {
			n = n.child(s)
		}
		n.vars = append(n.vars, v)
	}
	for _, c := range root.children {
		writeScope(bw, c)
	}

	bw.WriteString("$enddefinitions $end\n")
}

func writeScope(bw *bufio.Writer, n *scopeNode) {
	fmt.Fprintf(bw, "$scope module %s $end\n", n.name)
	for _, v := range n.vars {
		fmt.Fprintf(bw, "$var %s %d %s %s $end\n", v.Kind, v.Width, v.code, v.Name)
	}
	for _, c := range n.children {
		writeScope(bw, c)
	}
	bw.WriteString("$upscope $end\n")
}

func formatValue(v *Var, value float64) string {
	if v.Kind == Real {
		return "r" + strconv.FormatFloat(value, 'g', -1, 64) + " " + v.code
	}

	u := uint64(int64(math.Round(value)))
	if v.Width < 64 {
		u &= 1<<uint(v.Width) - 1
	}
	if v.Width == 1 {
		return strconv.FormatUint(u, 10) + v.code
	}
	return "b" + strconv.FormatUint(u, 2) + " " + v.code
}

// identCode returns the n-th identifier code: "!" .. "~", then "!!", "\"!", ...
func identCode(n int) string {
	var b []byte
	for {
		b = append(b, byte('!'+n%94))
		n /= 94
		if n == 0 {
			break
		}
		n--
	}
	return string(b)
}
