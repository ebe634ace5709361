// Package sharpe estimates rolling annualized Sharpe ratios over a return
// series.
package sharpe

import (
	"fmt"
	"math"

	"github.com/quantgate/sharpeguard/internal/series"
)

// DefaultAnnualization is the daily-bar annualization factor.
const DefaultAnnualization = 252

// Rolling computes sqrt(annualization) * mean/std over the trailing window at
// every position, with population std. Positions with fewer than window
// observations or zero std are undefined, and any non-finite ratio maps to
// undefined as well.
func Rolling(returns series.Series, window, annualization int) (series.FloatSeries, error) {
	if window <= 0 {
		return series.FloatSeries{}, fmt.Errorf("sharpe window must be positive, got %d", window)
	}
	if annualization <= 0 {
		return series.FloatSeries{}, fmt.Errorf("annualization must be positive, got %d", annualization)
	}

	mean, std := series.RollingMeanStd(returns.Values, window)
	scale := math.Sqrt(float64(annualization))

	values := make([]series.Float, returns.Len())
	for i := range values {
		if !mean[i].Valid || !std[i].Valid || std[i].Value == 0 {
			continue
		}
		values[i] = series.NewFloat(scale * mean[i].Value / std[i].Value)
	}

	return series.FloatSeries{Times: returns.Times, Values: values}, nil
}
