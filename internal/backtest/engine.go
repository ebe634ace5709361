// Package backtest turns a price series and a position series into a
// cost-adjusted net return series and summary statistics. Positions are
// lagged one period so the return at t is earned with the position decided
// at t-1.
package backtest

import (
	"fmt"
	"math"

	"github.com/quantgate/sharpeguard/internal/series"
)

// Returns computes the net return series for a position series traded against
// a price series. The position is reindexed onto the price index with zero
// fill, lagged one period, and charged costBPS basis points per unit of
// turnover. The first return is always zero.
func Returns(price, position series.Series, costBPS float64) (series.Series, error) {
	if costBPS < 0 {
		return series.Series{}, fmt.Errorf("cost_bps must be non-negative, got %g", costBPS)
	}
	if price.Empty() {
		return series.Series{}, fmt.Errorf("price series is empty")
	}

	pos := position.ReindexZero(price.Times)
	costRate := costBPS / 10000.0

	net := make([]float64, price.Len())
	for i := 1; i < price.Len(); i++ {
		r := price.Values[i]/price.Values[i-1] - 1
		gross := pos.Values[i-1] * r
		turnover := math.Abs(pos.Values[i] - pos.Values[i-1])
		net[i] = gross - costRate*turnover
	}
	// Turnover at t=0 is defined as zero, so the first entry stays zero even
	// when the position series opens non-flat.

	return price.WithValues(net)
}

// Summary describes a whole backtest at a glance: compounded total return,
// worst peak-to-trough drawdown of the equity curve, and the annualized
// Sharpe of the net return series (undefined when volatility is degenerate).
type Summary struct {
	TotalReturn float64
	MaxDrawdown float64
	Sharpe      series.Float
}

// Summarize compounds the return series into an equity curve (starting at 1)
// and derives the summary statistics.
func Summarize(returns series.Series, annualization int) Summary {
	if returns.Empty() {
		return Summary{}
	}

	equity := 1.0
	peak := 1.0
	maxDD := 0.0
	var sum float64
	for _, r := range returns.Values {
		equity *= 1 + r
		if equity > peak {
			peak = equity
		}
		if dd := (peak - equity) / peak; dd > maxDD {
			maxDD = dd
		}
		sum += r
	}

	n := float64(returns.Len())
	mu := sum / n
	var sq float64
	for _, r := range returns.Values {
		d := r - mu
		sq += d * d
	}
	std := math.Sqrt(sq / n)

	sharpe := series.Undefined
	if std > 0 {
		sharpe = series.NewFloat(math.Sqrt(float64(annualization)) * mu / std)
	}

	return Summary{
		TotalReturn: equity - 1,
		MaxDrawdown: maxDD,
		Sharpe:      sharpe,
	}
}
