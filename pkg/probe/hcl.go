package probe

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/errors"
)

// hclStructureFile is the top-level layout of a structure file:
//
//	time "emu_time" {
//	  path  = "top.tb_i.emu_time"
//	  width = 40
//	}
//	analog "v_out" {
//	  path     = "top.tb_i.v_out"
//	  width    = 25
//	  exponent = -16
//	}
//	digital "en" { width = 1 }
//	settings { emu_time_scaled = true }
type hclStructureFile struct {
	Time     []*hclTime    `hcl:"time,block"`
	Analog   []*hclAnalog  `hcl:"analog,block"`
	Digital  []*hclDigital `hcl:"digital,block"`
	Strobe   []*hclStrobe  `hcl:"strobe,block"`
	Settings *hclSettings  `hcl:"settings,block"`
}

type hclTime struct {
	Name     string         `hcl:"name,label"`
	Path     string         `hcl:"path,optional"`
	Width    int            `hcl:"width"`
	Exponent hcl.Expression `hcl:"exponent,optional"`
	Scale    *float64       `hcl:"scale,optional"`
}

type hclAnalog struct {
	Name     string         `hcl:"name,label"`
	Path     string         `hcl:"path,optional"`
	Width    int            `hcl:"width"`
	Exponent hcl.Expression `hcl:"exponent,optional"`
}

type hclDigital struct {
	Name  string `hcl:"name,label"`
	Path  string `hcl:"path,optional"`
	Width int    `hcl:"width,optional"`
}

type hclStrobe struct {
	Name  string `hcl:"name,label"`
	Path  string `hcl:"path,optional"`
	Width int    `hcl:"width,optional"`
}

type hclSettings struct {
	FloatType      *bool  `hcl:"float_type,optional"`
	TimeScaled     *bool  `hcl:"emu_time_scaled,optional"`
	PipelineOffset *int64 `hcl:"pipeline_offset,optional"`
}

// LoadHCL reads a structure file from disk.
func LoadHCL(path string) (StructureConfig, Settings, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return StructureConfig{}, Settings{}, fmt.Errorf("failed to read structure file: %w", err)
	}
	return ParseHCL(src, path)
}

// ParseHCL reads a structure file from memory.
func ParseHCL(src []byte, filename string) (StructureConfig, Settings, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	return decodeHCL(file, diags, filename)
}

func decodeHCL(file *hcl.File, diags hcl.Diagnostics, source string) (StructureConfig, Settings, error) {
	if diags.HasErrors() {
		return StructureConfig{}, Settings{}, errors.New(errors.KindParse).
			Source(source).
			Detail("invalid structure file").
			Cause(diags).
			Build()
	}

	var parsed hclStructureFile
	diags = gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return StructureConfig{}, Settings{}, errors.New(errors.KindConfig).
			Source(source).
			Detail("invalid structure file").
			Cause(diags).
			Build()
	}

	var cfg StructureConfig
	for _, b := range parsed.Time {
		exp, diags := parseExponent(b.Exponent)
		if diags.HasErrors() {
			return StructureConfig{}, Settings{}, exponentError(source, b.Name, diags)
		}
		tp := TimeProbe{Name: b.Name, Path: b.Path, Width: b.Width, Exponent: exp}
		if b.Scale != nil {
			tp.Scale = *b.Scale
		}
		cfg.Time = append(cfg.Time, tp)
	}
	for _, b := range parsed.Analog {
		exp, diags := parseExponent(b.Exponent)
		if diags.HasErrors() {
			return StructureConfig{}, Settings{}, exponentError(source, b.Name, diags)
		}
		cfg.Analog = append(cfg.Analog, AnalogProbe{Name: b.Name, Path: b.Path, Width: b.Width, Exponent: exp})
	}
	for _, b := range parsed.Digital {
		cfg.Digital = append(cfg.Digital, DigitalProbe{Name: b.Name, Path: b.Path, Width: b.Width})
	}
	for _, b := range parsed.Strobe {
		cfg.Strobe = append(cfg.Strobe, StrobeProbe{Name: b.Name, Path: b.Path, Width: b.Width})
	}

	var settings Settings
	if s := parsed.Settings; s != nil {
		settings = Settings{
			FloatType:      s.FloatType,
			TimeScaled:     s.TimeScaled,
			PipelineOffset: s.PipelineOffset,
		}
	}

	return cfg, settings, nil
}

// parseExponent evaluates an optional exponent attribute. An absent attribute
// decodes to a null value and yields a nil exponent.
func parseExponent(expr hcl.Expression) (*int, hcl.Diagnostics) {
	if expr == nil {
		return nil, nil
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}

	if !val.IsKnown() || val.Type() != cty.Number {
		return nil, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid exponent value",
			Detail:   "The 'exponent' attribute must be a number.",
			Subject:  expr.Range().Ptr(),
		})
	}

	bf := val.AsBigFloat()
	if !bf.IsInt() {
		return nil, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid exponent value",
			Detail:   "The 'exponent' attribute must be a whole number.",
			Subject:  expr.Range().Ptr(),
		})
	}

	n, _ := bf.Int64()
	exp := int(n)
	return &exp, diags
}

func exponentError(source, probe string, diags hcl.Diagnostics) error {
	return errors.New(errors.KindConfig).
		Source(source).
		Detail("probe %q", probe).
		Cause(diags).
		Build()
}
