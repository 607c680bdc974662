package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/errors"
)

func intPtr(n int) *int { return &n }

func TestNewCatalogClassifiesProbes(t *testing.T) {
	cfg := StructureConfig{
		Analog: []AnalogProbe{
			{Name: "v_in", Path: "top.v_in", Exponent: intPtr(-16), Width: 25},
			{Name: "v_out", Path: "top.v_out", Exponent: intPtr(-14), Width: 25},
		},
		Digital: []DigitalProbe{{Name: "en", Path: "top.en", Width: 1}},
		Time:    []TimeProbe{{Name: "emu_time", Path: "top.emu_time", Width: 40}},
		Strobe:  []StrobeProbe{{Name: "dec_cmp", Path: "top.dec_cmp"}},
	}

	c, err := NewCatalog(cfg)
	require.NoError(t, err)

	tp := c.Time()
	assert.Equal(t, Time, tp.Kind)
	assert.Equal(t, "top.emu_time", tp.Path)
	assert.Equal(t, DefaultTimeScale, tp.Scale)
	assert.False(t, tp.HasExponent)

	probes := c.Probes()
	require.Len(t, probes, 4)
	assert.Equal(t, []Kind{Analog, Analog, Digital, Strobe},
		[]Kind{probes[0].Kind, probes[1].Kind, probes[2].Kind, probes[3].Kind})
	assert.Equal(t, -14, probes[1].Exponent)
	assert.True(t, probes[1].Signed)
	assert.Equal(t, 1, probes[3].Width, "strobe width defaults to 1")

	all := c.All()
	require.Len(t, all, 5)
	assert.Equal(t, Time, all[0].Kind)
	assert.Equal(t, 5, c.Len())

	d, ok := c.Lookup("v_out")
	require.True(t, ok)
	assert.Equal(t, "top.v_out", d.Path)
	d, ok = c.Lookup("top.en")
	require.True(t, ok)
	assert.Equal(t, Digital, d.Kind)
	_, ok = c.Lookup("missing")
	assert.False(t, ok)
}

func TestNewCatalogErrors(t *testing.T) {
	timeProbe := TimeProbe{Name: "t", Width: 32}

	tests := []struct {
		name string
		cfg  StructureConfig
	}{
		{
			name: "no time probe",
			cfg:  StructureConfig{},
		},
		{
			name: "two time probes",
			cfg:  StructureConfig{Time: []TimeProbe{timeProbe, {Name: "t2", Width: 32}}},
		},
		{
			name: "analog without exponent",
			cfg: StructureConfig{
				Time:   []TimeProbe{timeProbe},
				Analog: []AnalogProbe{{Name: "a", Width: 8}},
			},
		},
		{
			name: "width too large",
			cfg: StructureConfig{
				Time:    []TimeProbe{timeProbe},
				Digital: []DigitalProbe{{Name: "bus", Width: 65}},
			},
		},
		{
			name: "time probe without width",
			cfg:  StructureConfig{Time: []TimeProbe{{Name: "t"}}},
		},
		{
			name: "duplicate path",
			cfg: StructureConfig{
				Time:    []TimeProbe{timeProbe},
				Digital: []DigitalProbe{{Name: "a", Path: "x"}, {Name: "b", Path: "x"}},
			},
		},
		{
			name: "unnamed probe",
			cfg: StructureConfig{
				Time:    []TimeProbe{timeProbe},
				Digital: []DigitalProbe{{Width: 1}},
			},
		},
		{
			name: "negative scale",
			cfg:  StructureConfig{Time: []TimeProbe{{Name: "t", Width: 8, Scale: -1}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.cfg)
			require.Error(t, err)
			assert.True(t, errors.IsConfig(err), "want config error, got %v", err)
		})
	}
}

func TestTimeScaleDefaults(t *testing.T) {
	c, err := NewCatalog(StructureConfig{Time: []TimeProbe{{Name: "t", Width: 32, Exponent: intPtr(-20)}}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, c.Time().Scale)
	assert.Equal(t, -20, c.Time().Exponent)

	c, err = NewCatalog(StructureConfig{Time: []TimeProbe{{Name: "t", Width: 32, Scale: 1e-12}}})
	require.NoError(t, err)
	assert.Equal(t, 1e-12, c.Time().Scale)
}

func TestDescriptorString(t *testing.T) {
	d := Descriptor{Kind: Analog, Path: "top.v", Width: 8, Exponent: -3, HasExponent: true}
	assert.Equal(t, "analog top.v[8] 2^-3", d.String())
	d = Descriptor{Kind: Digital, Path: "top.en", Width: 1}
	assert.Equal(t, "digital top.en[1]", d.String())
}
