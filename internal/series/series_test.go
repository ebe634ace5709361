package series

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dayIndex(n int) []time.Time {
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = base.AddDate(0, 0, i)
	}
	return out
}

func TestNewFloat_NonFiniteIsUndefined(t *testing.T) {
	assert.False(t, NewFloat(math.NaN()).Valid)
	assert.False(t, NewFloat(math.Inf(1)).Valid)
	assert.False(t, NewFloat(math.Inf(-1)).Valid)
	assert.True(t, NewFloat(0).Valid, "a true zero is defined")
}

func TestNew_RejectsMisalignedAndUnsorted(t *testing.T) {
	idx := dayIndex(3)

	_, err := New(idx, []float64{1, 2})
	assert.Error(t, err)

	unsorted := []time.Time{idx[0], idx[2], idx[1]}
	_, err = New(unsorted, []float64{1, 2, 3})
	assert.Error(t, err)

	dup := []time.Time{idx[0], idx[1], idx[1]}
	_, err = New(dup, []float64{1, 2, 3})
	assert.Error(t, err, "duplicate timestamps are rejected")
}

func TestReindexZero(t *testing.T) {
	idx := dayIndex(5)
	partial, err := New([]time.Time{idx[1], idx[3]}, []float64{1, -1})
	require.NoError(t, err)

	full := partial.ReindexZero(idx)
	assert.Equal(t, []float64{0, 1, 0, -1, 0}, full.Values)
	assert.Equal(t, idx, full.Times)
}

func TestScale(t *testing.T) {
	s, err := New(dayIndex(3), []float64{1, 0, -1})
	require.NoError(t, err)

	half := s.Scale(0.5)
	assert.Equal(t, []float64{0.5, 0, -0.5}, half.Values)
	assert.Equal(t, []float64{1, 0, -1}, s.Values, "input untouched")
}

func TestRollingMeanStd_WarmupUndefined(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	mean, std := RollingMeanStd(values, 3)

	for i := 0; i < 2; i++ {
		assert.False(t, mean[i].Valid, "position %d should be undefined", i)
		assert.False(t, std[i].Valid, "position %d should be undefined", i)
	}
	require.True(t, mean[2].Valid)
	assert.InDelta(t, 2.0, mean[2].Value, 1e-12)
	// Population std of {1,2,3} is sqrt(2/3).
	assert.InDelta(t, math.Sqrt(2.0/3.0), std[2].Value, 1e-12)
}

func TestRollingMeanStd_ConstantWindowExactZero(t *testing.T) {
	values := []float64{123.456, 123.456, 123.456, 123.456}
	_, std := RollingMeanStd(values, 3)

	require.True(t, std[3].Valid)
	assert.Equal(t, 0.0, std[3].Value, "constant window must give exactly zero std")
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		in   []Float
		want Float
	}{
		{"odd count", []Float{NewFloat(3), NewFloat(1), NewFloat(2)}, NewFloat(2)},
		{"even count averages middle pair", []Float{NewFloat(4), NewFloat(1), NewFloat(3), NewFloat(2)}, NewFloat(2.5)},
		{"undefined entries ignored", []Float{Undefined, NewFloat(5), Undefined, NewFloat(1)}, NewFloat(3)},
		{"all undefined", []Float{Undefined, Undefined}, Undefined},
		{"empty", nil, Undefined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Median(tt.in))
		})
	}
}
