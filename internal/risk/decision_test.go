package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantgate/sharpeguard/internal/series"
)

// snapshotFromScores builds a snapshot whose single monitoring column makes
// every row score equal the given value.
func snapshotFromScores(scores map[int]series.Float) *Snapshot {
	snap := NewSnapshot([]int{10})
	for w, s := range scores {
		snap.Set(w, 10, s)
	}
	return snap
}

func TestRowScore_MedianIgnoresUndefined(t *testing.T) {
	snap := NewSnapshot([]int{10, 20, 60})
	snap.Set(40, 10, series.NewFloat(1.0))
	snap.Set(40, 20, series.Undefined)
	snap.Set(40, 60, series.NewFloat(3.0))

	score := snap.RowScore(40)
	require.True(t, score.Valid)
	assert.InDelta(t, 2.0, score.Value, 1e-12)
}

func TestRowScore_AllUndefined(t *testing.T) {
	snap := NewSnapshot([]int{10, 20})
	snap.Set(40, 10, series.Undefined)
	snap.Set(40, 20, series.Undefined)

	assert.False(t, snap.RowScore(40).Valid)
}

func TestDecide_AllHealthyIsNormal(t *testing.T) {
	snap := snapshotFromScores(map[int]series.Float{
		10: series.NewFloat(0.2),
		20: series.NewFloat(0.5),
		40: series.NewFloat(1.1),
		80: series.NewFloat(0.0),
	})

	d, err := Decide(snap, 40, DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, Normal, d.Mode)
	assert.Equal(t, 1.0, d.Multiplier)
	assert.Equal(t, 0.0, d.FracBelowWarn)
	assert.Equal(t, 0.0, d.FracBelowStop)
	assert.NotEmpty(t, d.RunID)
}

func TestDecide_StopAtThreeOfFourDegraded(t *testing.T) {
	// 3 of 4 rows below -0.5 is exactly the default stop fraction.
	snap := snapshotFromScores(map[int]series.Float{
		10: series.NewFloat(-0.8),
		20: series.NewFloat(-0.6),
		40: series.NewFloat(-1.2),
		80: series.NewFloat(0.4),
	})

	d, err := Decide(snap, 40, DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, Stop, d.Mode)
	assert.Equal(t, 0.0, d.Multiplier)
	assert.InDelta(t, 0.75, d.FracBelowStop, 1e-12)
}

func TestDecide_ReduceAtHalfBelowWarn(t *testing.T) {
	snap := snapshotFromScores(map[int]series.Float{
		10: series.NewFloat(-0.1),
		20: series.NewFloat(-0.2),
		40: series.NewFloat(0.3),
		80: series.NewFloat(0.6),
	})

	d, err := Decide(snap, 40, DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, Reduce, d.Mode)
	assert.Equal(t, 0.5, d.Multiplier)
	assert.InDelta(t, 0.5, d.FracBelowWarn, 1e-12)
	assert.Equal(t, 0.0, d.FracBelowStop)
}

func TestDecide_StopDominatesReduce(t *testing.T) {
	// Every row is below both levels, satisfying warn and stop fractions at
	// once. STOP must win.
	snap := snapshotFromScores(map[int]series.Float{
		10: series.NewFloat(-1),
		20: series.NewFloat(-1),
		40: series.NewFloat(-1),
		80: series.NewFloat(-1),
	})

	d, err := Decide(snap, 40, DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, Stop, d.Mode)
}

func TestDecide_TradeScoreDoesNotDriveMode(t *testing.T) {
	// The trade window itself looks terrible but the panel is healthy.
	snap := snapshotFromScores(map[int]series.Float{
		10: series.NewFloat(0.8),
		20: series.NewFloat(0.9),
		40: series.NewFloat(-2.0),
		80: series.NewFloat(0.7),
	})

	d, err := Decide(snap, 40, DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, Normal, d.Mode)
	require.True(t, d.TradeScore.Valid)
	assert.InDelta(t, -2.0, d.TradeScore.Value, 1e-12)
}

func TestDecide_MissingTradeWindowScoreUndefined(t *testing.T) {
	snap := snapshotFromScores(map[int]series.Float{
		10: series.NewFloat(0.1),
		20: series.NewFloat(0.2),
	})

	d, err := Decide(snap, 40, DefaultThresholds())
	require.NoError(t, err)

	assert.False(t, d.TradeScore.Valid, "absent trade window yields undefined score, not an error")
	assert.Equal(t, Normal, d.Mode)
}

func TestDecide_UndefinedRowsExcludedFromBothSides(t *testing.T) {
	// Two undefined rows drop out of numerator and denominator: 1 of 2
	// defined rows below warn is exactly the warn fraction.
	snap := snapshotFromScores(map[int]series.Float{
		10: series.Undefined,
		20: series.NewFloat(-0.2),
		40: series.NewFloat(0.3),
		80: series.Undefined,
	})

	d, err := Decide(snap, 40, DefaultThresholds())
	require.NoError(t, err)

	assert.InDelta(t, 0.5, d.FracBelowWarn, 1e-12)
	assert.Equal(t, Reduce, d.Mode)
}

func TestDecide_NoDefinedRowsIsNormal(t *testing.T) {
	snap := snapshotFromScores(map[int]series.Float{
		10: series.Undefined,
		20: series.Undefined,
	})

	d, err := Decide(snap, 10, DefaultThresholds())
	require.NoError(t, err)

	assert.Equal(t, Normal, d.Mode)
	assert.Equal(t, 0.0, d.FracBelowWarn)
	assert.Equal(t, 0.0, d.FracBelowStop)
}

func TestDecide_TighteningFractionsOnlyEscalates(t *testing.T) {
	snap := snapshotFromScores(map[int]series.Float{
		10: series.NewFloat(-0.8),
		20: series.NewFloat(-0.2),
		40: series.NewFloat(0.3),
		80: series.NewFloat(0.6),
	})

	rank := func(m Mode) int { return int(m) }

	prev := Normal
	for _, frac := range []float64{1.0, 0.75, 0.5, 0.25, 0.0} {
		th := DefaultThresholds()
		th.WarnFrac = frac
		th.StopFrac = frac

		d, err := Decide(snap, 40, th)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rank(d.Mode), rank(prev),
			"tightening fractions to %g must not relax the mode", frac)
		prev = d.Mode
	}
}

func TestThresholdsValidate(t *testing.T) {
	bad := []Thresholds{
		{WarnFrac: -0.1, StopFrac: 0.75, StopLevel: -0.5},
		{WarnFrac: 0.5, StopFrac: 1.5, StopLevel: -0.5},
		{WarnFrac: 0.5, StopFrac: 0.75, WarnLevel: -1, StopLevel: 0},
	}
	for i, th := range bad {
		assert.Error(t, th.Validate(), "case %d", i)
	}
	assert.NoError(t, DefaultThresholds().Validate())
}

func TestApplyMultiplier(t *testing.T) {
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	pos, err := series.New(
		[]time.Time{base, base.AddDate(0, 0, 1), base.AddDate(0, 0, 2)},
		[]float64{1, -1, 0},
	)
	require.NoError(t, err)

	scaled := ApplyMultiplier(pos, Decision{Multiplier: 0.5})
	assert.Equal(t, []float64{0.5, -0.5, 0}, scaled.Values)
}
