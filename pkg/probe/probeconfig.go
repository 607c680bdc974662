package probe

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/errors"
)

// ProbeConfigLexer tokenizes the probe list written by the trace-unit probe
// extraction script. Each line is a KEY: followed by whitespace separated
// values, e.g.
//
//	ANALOG: top/v_in top/v_out
//	ANALOG_EXPONENT: -16 -14
//	ANALOG_WIDTH: 25 25
//	TIME: top/emu_time
var ProbeConfigLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Key", Pattern: `[A-Z][A-Z_]*:`},
	{Name: "Value", Pattern: `[^\s]+`},
	{Name: "Whitespace", Pattern: `[\s]+`},
})

type probeConfigFile struct {
	Entries []*probeConfigEntry `parser:"@@*"`
}

type probeConfigEntry struct {
	Pos    lexer.Position
	Key    string   `parser:"@Key"`
	Values []string `parser:"@Value*"`
}

var probeConfigParser = participle.MustBuild[probeConfigFile](
	participle.Lexer(ProbeConfigLexer),
	participle.Elide("Whitespace"),
)

// ParseProbeConfig reads the probe-config line format.
func ParseProbeConfig(r io.Reader, source string) (StructureConfig, error) {
	file, err := probeConfigParser.Parse(source, r)
	if err != nil {
		return StructureConfig{}, errors.New(errors.KindParse).
			Source(source).
			Detail("invalid probe config").
			Cause(err).
			Build()
	}

	values := make(map[string][]string)
	lines := make(map[string]int)
	for _, e := range file.Entries {
		key := strings.TrimSuffix(e.Key, ":")
		if !knownProbeKey(key) {
			return StructureConfig{}, errors.New(errors.KindParse).
				Source(source).
				Line(e.Pos.Line).
				Detail("unknown key %q", key).
				Build()
		}
		values[key] = append(values[key], e.Values...)
		if _, seen := lines[key]; !seen {
			lines[key] = e.Pos.Line
		}
	}

	ints := func(key string) ([]int, error) {
		out := make([]int, 0, len(values[key]))
		for _, s := range values[key] {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, errors.New(errors.KindParse).
					Source(source).
					Line(lines[key]).
					Detail("%s: %q is not an integer", key, s).
					Build()
			}
			out = append(out, n)
		}
		return out, nil
	}

	anaExp, err := ints("ANALOG_EXPONENT")
	if err != nil {
		return StructureConfig{}, err
	}
	anaWidth, err := ints("ANALOG_WIDTH")
	if err != nil {
		return StructureConfig{}, err
	}
	timeExp, err := ints("TIME_EXPONENT")
	if err != nil {
		return StructureConfig{}, err
	}
	timeWidth, err := ints("TIME_WIDTH")
	if err != nil {
		return StructureConfig{}, err
	}
	mbWidth, err := ints("MB_WIDTH")
	if err != nil {
		return StructureConfig{}, err
	}

	var cfg StructureConfig
	for i, name := range values["ANALOG"] {
		p := AnalogProbe{Name: name, Path: name, Width: at(anaWidth, i)}
		if i < len(anaExp) {
			exp := anaExp[i]
			p.Exponent = &exp
		}
		cfg.Analog = append(cfg.Analog, p)
	}
	for i, name := range values["TIME"] {
		p := TimeProbe{Name: name, Path: name, Width: at(timeWidth, i)}
		if i < len(timeExp) {
			exp := timeExp[i]
			p.Exponent = &exp
		}
		cfg.Time = append(cfg.Time, p)
	}
	for _, name := range values["RESET"] {
		cfg.Digital = append(cfg.Digital, DigitalProbe{Name: name, Path: name, Width: 1})
	}
	for _, name := range values["SB"] {
		cfg.Digital = append(cfg.Digital, DigitalProbe{Name: name, Path: name, Width: 1})
	}
	for i, name := range values["MB"] {
		w := at(mbWidth, i)
		if w == 0 {
			return StructureConfig{}, errors.New(errors.KindConfig).
				Source(source).
				Line(lines["MB"]).
				Detail("multi-bit probe %q has no width", name).
				Build()
		}
		cfg.Digital = append(cfg.Digital, DigitalProbe{Name: name, Path: name, Width: w})
	}
	for _, name := range values["STROBE"] {
		cfg.Strobe = append(cfg.Strobe, StrobeProbe{Name: name, Path: name, Width: 1})
	}

	return cfg, nil
}

// ParseProbeConfigFile reads a probe-config file from disk.
func ParseProbeConfigFile(path string) (StructureConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return StructureConfig{}, fmt.Errorf("failed to open probe config: %w", err)
	}
	defer f.Close()

	return ParseProbeConfig(f, path)
}

func knownProbeKey(key string) bool {
	switch key {
	case "ANALOG", "ANALOG_EXPONENT", "ANALOG_WIDTH",
		"TIME", "TIME_EXPONENT", "TIME_WIDTH",
		"RESET", "SB", "MB", "MB_WIDTH", "STROBE":
		return true
	}
	return false
}

func at(xs []int, i int) int {
	if i < len(xs) {
		return xs[i]
	}
	return 0
}
