package vcd

import (
	"io/fs"
	"math/big"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/errors"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/sample"
)

const threeProbeDump = `$date today $end
$timescale 1ns $end
$scope module top $end
$scope module dut $end
$var wire 1 ! a $end
$var wire 1 " b $end
$var reg 4 # c [3:0] $end
$upscope $end
$upscope $end
$enddefinitions $end
#10
1!
#20
1"
#30
0!
`

func TestParseDensifiesOntoMarkers(t *testing.T) {
	c, err := Parse(strings.NewReader(threeProbeDump), "dump.vcd", ParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"top.dut.a", "top.dut.b", "top.dut.c"}, c.Names())

	a, ok := c.Series("top.dut.a")
	require.True(t, ok)
	want := []sample.Raw{
		sample.BitsAt(10, "1"),
		sample.BitsAt(20, "1"),
		sample.BitsAt(30, "0"),
	}
	if diff := cmp.Diff(want, a); diff != "" {
		t.Errorf("series a mismatch (-want +got):\n%s", diff)
	}

	b, _ := c.Series("top.dut.b")
	want = []sample.Raw{
		sample.BitsAt(20, "1"),
		sample.BitsAt(30, "1"),
	}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Errorf("series b mismatch (-want +got):\n%s", diff)
	}

	// never driven: stays empty
	cs, ok := c.Series("top.dut.c")
	require.True(t, ok)
	assert.Empty(t, cs)

	assert.Equal(t, uint64(30), c.EndCycle)
}

func TestParseSharedCycleLattice(t *testing.T) {
	src := `$scope module top $end
$var wire 1 ! a $end
$var wire 1 " b $end
$var wire 1 # t $end
$enddefinitions $end
#0
0!
0"
0#
#5
1!
#9
1#
#12
0"
#20
0!
`
	c, err := Parse(strings.NewReader(src), "dump.vcd", ParseOptions{})
	require.NoError(t, err)

	var lattices [][]uint64
	for _, name := range c.Names() {
		s, _ := c.Series(name)
		lattices = append(lattices, sample.Cycles(s))
	}
	for i := 1; i < len(lattices); i++ {
		assert.Equal(t, lattices[0], lattices[i], "signal %d", i)
	}
	assert.Equal(t, []uint64{0, 5, 9, 12, 20}, lattices[0])
}

func TestParseVectorAndReal(t *testing.T) {
	src := `$timescale 10 ps $end
$scope module top $end
$var reg 4 c cnt $end
$var real 64 r v $end
$upscope $end
$enddefinitions $end
#0
$dumpvars
b1010 c
r0.5 r
$end
#3
bx1z0 c
rnan_oops r
`
	c, err := Parse(strings.NewReader(src), "dump.vcd", ParseOptions{})
	require.NoError(t, err)

	cnt, _ := c.Series("top.cnt")
	require.Len(t, cnt, 2)
	assert.Equal(t, "1010", cnt[0].Bits)
	assert.False(t, cnt[0].IsReal)
	assert.Equal(t, "x1z0", cnt[1].Bits)

	v, _ := c.Series("top.v")
	require.Len(t, v, 2)
	assert.True(t, v[0].IsReal)
	assert.Equal(t, 0.5, v[0].Real)
	assert.Equal(t, 0.0, v[1].Real, "unparsable real falls back to zero")

	assert.Equal(t, Timescale{Magnitude: 10, Unit: "ps"}, c.Timescale)
	assert.Equal(t, 0, c.Multiplier.Cmp(big.NewRat(1, 100)), "10ps in ns, got %s", c.Multiplier)
}

func TestParseAliasesShareSeries(t *testing.T) {
	src := `$scope module top $end
$var wire 1 ! clk $end
$scope module sub $end
$var wire 1 ! clk_in $end
$upscope $end
$upscope $end
$enddefinitions $end
#1
1!
`
	c, err := Parse(strings.NewReader(src), "dump.vcd", ParseOptions{})
	require.NoError(t, err)

	x, _ := c.Series("top.clk")
	y, _ := c.Series("top.sub.clk_in")
	assert.Equal(t, x, y)
	assert.Len(t, x, 1)
}

func TestParseFilter(t *testing.T) {
	c, err := Parse(strings.NewReader(threeProbeDump), "dump.vcd", ParseOptions{
		Signals: []string{"top.dut.b"},
		Single:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"top.dut.b"}, c.Names())
	_, ok := c.Series("top.dut.a")
	assert.False(t, ok)
}

func TestParseErrors(t *testing.T) {
	header := "$scope module top $end\n$var wire 1 ! a $end\n$var wire 1 \" b $end\n$upscope $end\n"

	tests := []struct {
		name   string
		src    string
		opts   ParseOptions
		detail string
	}{
		{
			name:   "unknown timescale unit",
			src:    "$timescale 1 xs $end\n" + header + "$enddefinitions $end\n",
			detail: "invalid $timescale",
		},
		{
			name:   "timescale missing end",
			src:    "$timescale 1ns\n",
			detail: "missing $end",
		},
		{
			name:   "no enddefinitions",
			src:    header,
			detail: "missing $enddefinitions",
		},
		{
			name:   "no signals",
			src:    "$enddefinitions $end\n",
			detail: "no signals found",
		},
		{
			name:   "no matching signals",
			src:    header + "$enddefinitions $end\n",
			opts:   ParseOptions{Signals: []string{"top.zzz"}},
			detail: "no matching signals",
		},
		{
			name:   "too many signals",
			src:    header + "$enddefinitions $end\n",
			opts:   ParseOptions{Single: true},
			detail: "too many signals for single-signal request",
		},
		{
			name:   "upscope underflow",
			src:    "$upscope $end\n",
			detail: "$upscope without open scope",
		},
		{
			name:   "malformed var",
			src:    "$var wire 1 ! $end\n",
			detail: "malformed $var",
		},
		{
			name:   "bad size",
			src:    "$var wire wide ! a $end\n",
			detail: "invalid $var size",
		},
		{
			name:   "garbage in body",
			src:    header + "$enddefinitions $end\n#0\n?!\n",
			detail: "unexpected token",
		},
		{
			name:   "vector without code",
			src:    header + "$enddefinitions $end\n#0\nb101\n",
			detail: "missing identifier code",
		},
		{
			name:   "bad output unit",
			src:    header + "$enddefinitions $end\n",
			opts:   ParseOptions{OutputUnit: "min"},
			detail: "unsupported output unit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src), "dump.vcd", tt.opts)
			require.Error(t, err)
			assert.True(t, errors.IsParse(err), "want parse error, got %v", err)
			assert.Contains(t, err.Error(), tt.detail)
		})
	}
}

func TestListSignals(t *testing.T) {
	names, err := ListSignals(strings.NewReader(threeProbeDump), "dump.vcd")
	require.NoError(t, err)
	assert.Equal(t, []string{"top.dut.a", "top.dut.b", "top.dut.c"}, names)
}

func TestFind(t *testing.T) {
	src := `$scope module top $end
$var wire 1 ! emu_time $end
$scope module a $end
$var wire 1 " x $end
$upscope $end
$scope module b $end
$var wire 1 # x $end
$upscope $end
$upscope $end
$enddefinitions $end
`
	c, err := Parse(strings.NewReader(src), "dump.vcd", ParseOptions{})
	require.NoError(t, err)

	sig, err := c.Find("emu_time")
	require.NoError(t, err)
	assert.Equal(t, "top.emu_time", sig.Name)

	sig, err = c.Find("top/a/x")
	require.NoError(t, err)
	assert.Equal(t, "top.a.x", sig.Name)

	sig, err = c.Find("b.x")
	require.NoError(t, err)
	assert.Equal(t, "top.b.x", sig.Name)

	_, err = c.Find("x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many signals")

	_, err = c.Find("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no matching signals")
}

func TestParseCodesLookingLikeDirectives(t *testing.T) {
	src := `$timescale 1ns $end
$scope module top $end
$var reg 4 #0 cnt $end
$var real 64 $a level $end
$upscope $end
$enddefinitions $end
#0
b1010 #0
r0.5 $a
#5
b11 #0
`
	c, err := Parse(strings.NewReader(src), "dump.vcd", ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"top.cnt", "top.level"}, c.Names())

	cnt, _ := c.Series("top.cnt")
	if diff := cmp.Diff([]sample.Raw{sample.BitsAt(0, "1010"), sample.BitsAt(5, "11")}, cnt); diff != "" {
		t.Errorf("series cnt mismatch (-want +got):\n%s", diff)
	}
	level, _ := c.Series("top.level")
	if diff := cmp.Diff([]sample.Raw{sample.RealAt(0, 0.5), sample.RealAt(5, 0.5)}, level); diff != "" {
		t.Errorf("series level mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "none.vcd"), ParseOptions{})
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.False(t, errors.IsParse(err))
}
