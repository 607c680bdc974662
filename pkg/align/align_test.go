package align

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/sample"
)

func series(pairs ...float64) []sample.Decoded {
	out := make([]sample.Decoded, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, sample.Decoded{Cycle: uint64(pairs[i]), Value: pairs[i+1]})
	}
	return out
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		tb   []sample.Decoded
		keep int
		wrap Wrap
	}{
		{"monotonic", series(0, 0, 1, 100, 2, 200), 3, Wrap{}},
		{"plateau", series(0, 0, 1, 100, 2, 100), 3, Wrap{}},
		{"rollover", series(0, 0, 1, 100, 2, 200, 3, -5), 3, Wrap{Wrapped: true, Index: 3, Cycle: 3}},
		{"decrease", series(0, 50, 4, 60, 8, 10, 9, 70), 2, Wrap{Wrapped: true, Index: 2, Cycle: 8}},
		{"negative start", series(0, -1, 1, 5), 0, Wrap{Wrapped: true, Index: 0, Cycle: 0}},
		{"empty", nil, 0, Wrap{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, w := Truncate(tt.tb)
			assert.Len(t, got, tt.keep)
			assert.Equal(t, tt.wrap, w)
		})
	}
}

func TestScaledWraparound(t *testing.T) {
	tb := series(0, 0, 1, 100e-9, 2, 200e-9, 3, -5e-9)
	probe := series(0, 1, 1, 2, 2, 3, 3, 4, 4, 5)

	got := Scaled(tb, probe, 0)
	want := []sample.Point{
		{Time: 0, Value: 1},
		{Time: 100e-9, Value: 2},
		{Time: 200e-9, Value: 3},
	}
	assert.Equal(t, want, got)
}

func TestScaledInterpolates(t *testing.T) {
	tb := series(0, 0, 100, 1e-6)
	got := Scaled(tb, series(50, 7), 0)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.5e-6, got[0].Time, 1e-15)
	assert.Equal(t, 7.0, got[0].Value)
}

func TestScaledPipelineOffset(t *testing.T) {
	tb := series(0, 0, 100000, 1e-3)
	got := Scaled(tb, series(50000, 1, 80000, 2, 100000, 3), DefaultPipelineOffset)

	want := []sample.Point{
		{Time: 7.5e-4, Value: 1},
		{Time: 1e-3, Value: 3},
	}
	opt := cmpopts.EquateApprox(0, 1e-12)
	if diff := cmp.Diff(want, got, opt); diff != "" {
		t.Errorf("Scaled mismatch (-want +got):\n%s", diff)
	}
}

func TestScaledIsMonotonic(t *testing.T) {
	tb := series(0, 0, 10, 10, 20, 20)
	// cycle 6 lands past the entry at cycle 10 once the offset is applied
	got := Scaled(tb, series(6, 1, 10, 2, 12, 3), 5)

	require.Len(t, got, 3)
	assert.Equal(t, 11.0, got[0].Time)
	assert.Equal(t, 11.0, got[1].Time)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i].Time, got[i-1].Time)
	}
}

func TestScaledBeforeFirstEntry(t *testing.T) {
	tb := series(100, 5, 200, 6)
	got := Scaled(tb, series(0, 1, 100, 2), 0)
	require.Len(t, got, 2)
	assert.Equal(t, 5.0, got[0].Time, "pinned to the first timebase entry")
	assert.Equal(t, 5.0, got[1].Time)
}

func TestScaledEmptyTimebase(t *testing.T) {
	assert.Empty(t, Scaled(nil, series(0, 1), 0))
	assert.Empty(t, Scaled(series(0, -1), series(0, 1), 0))
}

func TestAlignerCycleIndexed(t *testing.T) {
	a := New(CycleIndexed)
	tb := series(0, 0, 1, 100, 2, 200, 3, -5)
	got := a.Align(tb, series(0, 1, 2, 2, 3, 3, 7, 4))

	want := []sample.Point{
		{Time: 0, Value: 1},
		{Time: 2e-9, Value: 2},
	}
	assert.Equal(t, want, got)

	a.Tick = 1e-6
	got = a.Align(series(0, 0), series(4, 1))
	assert.Equal(t, []sample.Point{{Time: 4e-6, Value: 1}}, got)
}

func TestAlignerTimeScaled(t *testing.T) {
	a := New(TimeScaled)
	a.Offset = 0
	tb := series(0, 0, 10, 1)
	got := a.Align(tb, series(0, 3, 10, 4))
	assert.Equal(t, []sample.Point{{Time: 0, Value: 3}, {Time: 1, Value: 4}}, got)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "time-scaled", TimeScaled.String())
	assert.Equal(t, "cycle-indexed", CycleIndexed.String())
}

func TestAlignIsRepeatable(t *testing.T) {
	tb := series(0, 0, 100, 1e-4, 200, 2e-4, 300, 1e-4)
	samples := series(0, 1, 50, 2, 150, 3, 250, 4, 400, 5)
	tbBefore := append([]sample.Decoded(nil), tb...)
	samplesBefore := append([]sample.Decoded(nil), samples...)

	for _, mode := range []Mode{TimeScaled, CycleIndexed} {
		a := New(mode)
		a.Offset = 20
		first := a.Align(tb, samples)
		second := a.Align(tb, samples)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("%s: second alignment differs (-first +second):\n%s", mode, diff)
		}
	}
	if diff := cmp.Diff(tbBefore, tb); diff != "" {
		t.Errorf("timebase modified (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff(samplesBefore, samples); diff != "" {
		t.Errorf("samples modified (-before +after):\n%s", diff)
	}
}
