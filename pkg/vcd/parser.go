package vcd

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/errors"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/sample"
)

// ParseOptions control which signals are extracted.
type ParseOptions struct {
	// Signals restricts extraction to these qualified names. Empty means all.
	Signals []string
	// Single requires the request to resolve to at most one signal.
	Single bool
	// OutputUnit is the unit of Capture.Multiplier. Empty means "ns".
	OutputUnit string
	// HeaderOnly stops after $enddefinitions.
	HeaderOnly bool
}

// Signal is one $var binding.
type Signal struct {
	// Name is the qualified name: the scope path and the leaf joined by '.'.
	Name  string
	Scope []string
	Leaf  string
	Type  string
	Size  int
	Code  string
}

// Capture is the result of parsing one dump. It is not modified after Parse
// returns.
type Capture struct {
	Source    string
	Timescale Timescale
	// Multiplier converts cycle marker units to the requested output unit.
	Multiplier *big.Rat
	Signals    []Signal
	// EndCycle is the last cycle marker seen.
	EndCycle uint64

	series map[string][]sample.Raw
	byName map[string]int
}

// Names returns the qualified-name directory in declaration order.
func (c *Capture) Names() []string {
	names := make([]string, len(c.Signals))
	for i, s := range c.Signals {
		names[i] = s.Name
	}
	return names
}

// Signal returns the binding for a qualified name.
func (c *Capture) Signal(name string) (Signal, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return Signal{}, false
	}
	return c.Signals[idx], true
}

// Series returns a copy of the samples recorded for a qualified name.
func (c *Capture) Series(name string) ([]sample.Raw, bool) {
	sig, ok := c.Signal(name)
	if !ok {
		return nil, false
	}
	src := c.series[sig.Code]
	out := make([]sample.Raw, len(src))
	copy(out, src)
	return out, true
}

// Find resolves a probe path against the directory. '/' separators are
// treated as '.'. An exact qualified-name match wins; otherwise the path must
// be the dotted suffix of exactly one signal.
func (c *Capture) Find(path string) (Signal, error) {
	sig, ok, err := c.Resolve(path)
	if err != nil {
		return Signal{}, err
	}
	if !ok {
		return Signal{}, errors.New(errors.KindParse).
			Source(c.Source).
			Detail("no matching signals for %q", path).
			Build()
	}
	return sig, nil
}

// Resolve is Find without the error for a path that matches nothing.
func (c *Capture) Resolve(path string) (Signal, bool, error) {
	key := strings.ReplaceAll(path, "/", ".")
	if sig, ok := c.Signal(key); ok {
		return sig, true, nil
	}

	var matches []Signal
	for _, s := range c.Signals {
		if strings.HasSuffix(s.Name, "."+key) {
			matches = append(matches, s)
		}
	}

	switch len(matches) {
	case 0:
		return Signal{}, false, nil
	case 1:
		return matches[0], true, nil
	default:
		return Signal{}, false, errors.New(errors.KindParse).
			Source(c.Source).
			Detail("too many signals for single-signal request: %q matches %d", path, len(matches)).
			Build()
	}
}

// ParseFile parses a dump from disk. The file is closed on every path.
func ParseFile(path string, opts ParseOptions) (*Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	return Parse(f, path, opts)
}

// ListSignals returns the qualified-name directory of a dump without reading
// its body.
func ListSignals(r io.Reader, source string) ([]string, error) {
	c, err := Parse(r, source, ParseOptions{HeaderOnly: true})
	if err != nil {
		return nil, err
	}
	return c.Names(), nil
}

// Parse reads a whole dump into memory and returns one densified sample
// series per signal.
//
// Densification: whenever a cycle marker arrives, every signal whose last
// sample is older than the previous marker gets a copy of that sample at the
// previous marker. The same happens at the end of the stream. After Parse,
// all series that have started share every marker cycle.
func Parse(r io.Reader, source string, opts ParseOptions) (*Capture, error) {
	tokens, err := Tokenize(r, source)
	if err != nil {
		return nil, err
	}

	outUnit := opts.OutputUnit
	if outUnit == "" {
		outUnit = "ns"
	}
	if !ValidUnit(outUnit) {
		return nil, errors.New(errors.KindParse).
			Source(source).
			Detail("unsupported output unit %q", outUnit).
			Build()
	}

	st := &parseState{
		source: source,
		opts:   opts,
		capture: &Capture{
			Source:    source,
			Timescale: DefaultTimescale,
			series:    make(map[string][]sample.Raw),
			byName:    make(map[string]int),
		},
	}
	if len(opts.Signals) > 0 {
		st.wanted = make(map[string]bool, len(opts.Signals))
		for _, s := range opts.Signals {
			st.wanted[s] = true
		}
	}

	for _, tok := range tokens {
		done, err := st.visit(tok)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}

	if !st.inBody {
		return nil, errors.New(errors.KindParse).
			Source(source).
			Detail("missing $enddefinitions").
			Build()
	}

	if st.markerSeen {
		st.densify(st.cycle)
	}

	c := st.capture
	c.EndCycle = st.cycle
	c.Multiplier = c.Timescale.In(outUnit)
	return c, nil
}

type parseState struct {
	source  string
	opts    ParseOptions
	wanted  map[string]bool
	capture *Capture

	scopes []string
	codes  []string // tracked codes in declaration order

	inBody     bool
	markerSeen bool
	cycle      uint64
}

func (st *parseState) fail(tok Token, format string, args ...any) error {
	return errors.New(errors.KindParse).
		Source(st.source).
		Line(tok.Line).
		Detail(format, args...).
		Build()
}

// visit consumes one token. It reports true when parsing should stop.
func (st *parseState) visit(tok Token) (bool, error) {
	c := st.capture

	switch tok.Kind {
	case TokIgnored:

	case TokTimescale:
		text := strings.Join(tok.Args, "")
		ts, err := ParseTimescale(text)
		if err != nil {
			return false, errors.New(errors.KindParse).
				Source(st.source).
				Line(tok.Line).
				Detail("invalid $timescale %q", text).
				Cause(err).
				Build()
		}
		c.Timescale = ts

	case TokScope:
		if len(tok.Args) < 2 {
			return false, st.fail(tok, "malformed $scope")
		}
		st.scopes = append(st.scopes, tok.Args[1])

	case TokUpscope:
		if len(st.scopes) == 0 {
			return false, st.fail(tok, "$upscope without open scope")
		}
		st.scopes = st.scopes[:len(st.scopes)-1]

	case TokVar:
		if st.inBody {
			return false, st.fail(tok, "$var after $enddefinitions")
		}
		if len(tok.Args) < 4 {
			return false, st.fail(tok, "malformed $var")
		}
		size, err := strconv.Atoi(tok.Args[1])
		if err != nil || size < 1 {
			return false, st.fail(tok, "invalid $var size %q", tok.Args[1])
		}
		scope := append([]string(nil), st.scopes...)
		leaf := tok.Args[3]
		name := strings.Join(append(append([]string(nil), scope...), leaf), ".")
		if st.wanted != nil && !st.wanted[name] {
			return false, nil
		}
		if _, dup := c.byName[name]; dup {
			return false, nil
		}
		code := tok.Args[2]
		if _, tracked := c.series[code]; !tracked {
			c.series[code] = nil
			st.codes = append(st.codes, code)
		}
		c.byName[name] = len(c.Signals)
		c.Signals = append(c.Signals, Signal{
			Name:  name,
			Scope: scope,
			Leaf:  leaf,
			Type:  tok.Args[0],
			Size:  size,
			Code:  code,
		})

	case TokEndDefinitions:
		if err := st.checkDirectory(); err != nil {
			return false, err
		}
		st.inBody = true
		if st.opts.HeaderOnly {
			return true, nil
		}

	case TokCycle:
		if !st.inBody {
			return false, st.fail(tok, "cycle marker before $enddefinitions")
		}
		if st.markerSeen {
			st.densify(st.cycle)
		}
		st.markerSeen = true
		st.cycle = tok.Cycle

	case TokScalar, TokVector, TokReal:
		if !st.inBody {
			return false, st.fail(tok, "value change before $enddefinitions")
		}
		if tok.Kind != TokReal {
			st.record(tok.Code, sample.BitsAt(st.cycle, strings.ToLower(tok.Value)))
			break
		}
		// unparsable reals (x, z, nan spellings) fall back to zero
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			v = 0
		}
		st.record(tok.Code, sample.RealAt(st.cycle, v))
	}

	return false, nil
}

func (st *parseState) checkDirectory() error {
	n := len(st.capture.Signals)
	switch {
	case n == 0 && st.wanted == nil:
		return errors.New(errors.KindParse).Source(st.source).Detail("no signals found").Build()
	case n == 0:
		return errors.New(errors.KindParse).Source(st.source).Detail("no matching signals").Build()
	case n > 1 && st.opts.Single:
		return errors.New(errors.KindParse).
			Source(st.source).
			Detail("too many signals for single-signal request (%d)", n).
			Build()
	}
	return nil
}

func (st *parseState) record(code string, r sample.Raw) {
	series, tracked := st.capture.series[code]
	if !tracked {
		return
	}
	st.capture.series[code] = append(series, r)
}

// densify carries every started series forward to the marker prev.
func (st *parseState) densify(prev uint64) {
	for _, code := range st.codes {
		series := st.capture.series[code]
		if len(series) == 0 {
			continue
		}
		last := series[len(series)-1]
		if last.Cycle != prev {
			last.Cycle = prev
			st.capture.series[code] = append(series, last)
		}
	}
}
