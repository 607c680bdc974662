package staircase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/sample"
)

func num(t, v float64) Sample {
	return Sample{Time: t, Value: sample.Numeric(v)}
}

func TestPreserve(t *testing.T) {
	tests := []struct {
		name string
		in   []Sample
		want []Sample
	}{
		{"empty", nil, nil},
		{"single", []Sample{num(0, 1)}, []Sample{num(0, 1)}},
		{
			"steps",
			[]Sample{num(0, 1), num(1, 2), num(2, 2), num(3, 0)},
			[]Sample{num(0, 1), num(1, 1), num(1, 2), num(2, 2), num(3, 2), num(3, 0)},
		},
		{
			"markers",
			[]Sample{
				num(0, 1),
				{Time: 5, Value: sample.Symbolic(sample.MarkerX)},
				{Time: 6, Value: sample.Symbolic(sample.MarkerX)},
				{Time: 7, Value: sample.Symbolic(sample.MarkerZ)},
			},
			[]Sample{
				num(0, 1),
				num(5, 1),
				{Time: 5, Value: sample.Symbolic(sample.MarkerX)},
				{Time: 6, Value: sample.Symbolic(sample.MarkerX)},
				{Time: 7, Value: sample.Symbolic(sample.MarkerX)},
				{Time: 7, Value: sample.Symbolic(sample.MarkerZ)},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preserve(tt.in))
		})
	}
}

func TestPreserveLeavesInput(t *testing.T) {
	in := []Sample{num(0, 1), num(1, 2)}
	_ = Preserve(in)
	assert.Equal(t, []Sample{num(0, 1), num(1, 2)}, in)
}

func TestFromPoints(t *testing.T) {
	got := FromPoints([]sample.Point{{Time: 1, Value: 2}})
	assert.Equal(t, []Sample{num(1, 2)}, got)
}
