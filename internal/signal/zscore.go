// Package signal generates discrete trading positions from a price series
// using a z-score mean-reversion rule with hysteresis.
package signal

import (
	"fmt"

	"github.com/quantgate/sharpeguard/internal/series"
)

// Position states. The generator is a 3-state machine: it enters only from
// flat and must pass back through the exit band before it can flip.
const (
	Short float64 = -1
	Flat  float64 = 0
	Long  float64 = 1
)

// Params configures the mean-reversion position generator.
type Params struct {
	Window int     // lookback for rolling mean/std, > 0
	ZEntry float64 // entry threshold, must exceed ZExit
	ZExit  float64 // exit band half-width, >= 0
}

// DefaultParams returns the standard thresholds for a given window.
func DefaultParams(window int) Params {
	return Params{
		Window: window,
		ZEntry: 2.0,
		ZExit:  0.5,
	}
}

// Validate rejects configurations that cannot produce a stable signal.
// ZExit >= ZEntry would let the machine oscillate every bar, so it is a
// configuration error rather than a permitted mode.
func (p Params) Validate() error {
	if p.Window <= 0 {
		return fmt.Errorf("signal window must be positive, got %d", p.Window)
	}
	if p.ZExit < 0 {
		return fmt.Errorf("z_exit must be non-negative, got %g", p.ZExit)
	}
	if p.ZExit >= p.ZEntry {
		return fmt.Errorf("z_exit %g must be below z_entry %g", p.ZExit, p.ZEntry)
	}
	return nil
}

// Positions folds the price series through the state machine and returns a
// position series on the same index with values in {-1, 0, +1}.
//
// The carried state resets to flat when z is undefined (insufficient history
// or zero std) or inside the exit band; entries happen only from flat, short
// above +ZEntry and long below -ZEntry; otherwise the position is held.
func Positions(price series.Series, p Params) (series.Series, error) {
	if err := p.Validate(); err != nil {
		return series.Series{}, err
	}
	if price.Empty() {
		return series.Series{}, fmt.Errorf("price series is empty")
	}

	mean, std := series.RollingMeanStd(price.Values, p.Window)

	out := make([]float64, price.Len())
	current := Flat
	for i := range price.Values {
		z, ok := zScore(price.Values[i], mean[i], std[i])
		switch {
		case !ok:
			current = Flat
		case abs(z) < p.ZExit:
			current = Flat
		case current == Flat:
			if z > p.ZEntry {
				current = Short
			} else if z < -p.ZEntry {
				current = Long
			}
		}
		// Held positions fall through unchanged.
		out[i] = current
	}

	return price.WithValues(out)
}

// zScore standardizes a price against the rolling window stats. Undefined
// when the window has not filled or the window std is zero.
func zScore(price float64, mean, std series.Float) (float64, bool) {
	if !mean.Valid || !std.Valid || std.Value == 0 {
		return 0, false
	}
	return (price - mean.Value) / std.Value, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
