package sharpe

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantgate/sharpeguard/internal/series"
)

func returnSeries(t *testing.T, values []float64) series.Series {
	t.Helper()
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, len(values))
	for i := range times {
		times[i] = base.AddDate(0, 0, i)
	}
	s, err := series.New(times, values)
	require.NoError(t, err)
	return s
}

func TestRolling_WarmupUndefined(t *testing.T) {
	for _, window := range []int{1, 2, 5} {
		ret := returnSeries(t, []float64{0.01, -0.02, 0.03, 0.01, -0.01, 0.02})
		sr, err := Rolling(ret, window, DefaultAnnualization)
		require.NoError(t, err)

		for i := 0; i < window-1; i++ {
			assert.False(t, sr.Values[i].Valid, "window=%d position %d should be undefined", window, i)
		}
	}
}

func TestRolling_KnownValue(t *testing.T) {
	ret := returnSeries(t, []float64{0.01, 0.03, 0.02})
	sr, err := Rolling(ret, 2, 252)
	require.NoError(t, err)

	// Window {0.01, 0.03}: mean 0.02, population std 0.01.
	require.True(t, sr.Values[1].Valid)
	assert.InDelta(t, math.Sqrt(252)*2, sr.Values[1].Value, 1e-9)
}

func TestRolling_ZeroStdUndefined(t *testing.T) {
	ret := returnSeries(t, []float64{0, 0, 0, 0, 0})
	sr, err := Rolling(ret, 3, DefaultAnnualization)
	require.NoError(t, err)

	for i, v := range sr.Values {
		assert.False(t, v.Valid, "position %d should be undefined on zero-vol input", i)
	}
}

func TestRolling_WindowOneUndefined(t *testing.T) {
	// A single observation always has zero std, so window=1 is undefined
	// everywhere rather than infinite.
	ret := returnSeries(t, []float64{0.01, -0.02, 0.03})
	sr, err := Rolling(ret, 1, DefaultAnnualization)
	require.NoError(t, err)

	for i, v := range sr.Values {
		assert.False(t, v.Valid, "position %d should be undefined", i)
	}
}

func TestRolling_RejectsBadConfig(t *testing.T) {
	ret := returnSeries(t, []float64{0.01})

	_, err := Rolling(ret, 0, DefaultAnnualization)
	assert.Error(t, err)

	_, err = Rolling(ret, 5, 0)
	assert.Error(t, err)
}

func TestRolling_LastValue(t *testing.T) {
	ret := returnSeries(t, []float64{0.01, 0.03, 0.02, 0.04})
	sr, err := Rolling(ret, 2, 252)
	require.NoError(t, err)

	last := sr.Last()
	require.True(t, last.Valid)
	// Window {0.02, 0.04}: mean 0.03, std 0.01.
	assert.InDelta(t, math.Sqrt(252)*3, last.Value, 1e-9)
}
