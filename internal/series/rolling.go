package series

import "math"

// RollingMeanStd computes the trailing-window mean and population standard
// deviation (denominator = window) at every position. Positions with fewer
// than window observations are undefined. The deviation pass runs over the
// window explicitly so a constant window yields an exact zero std rather than
// rounding noise.
func RollingMeanStd(values []float64, window int) (mean, std []Float) {
	n := len(values)
	mean = make([]Float, n)
	std = make([]Float, n)
	if window <= 0 {
		return mean, std
	}

	w := float64(window)
	for i := window - 1; i < n; i++ {
		var sum float64
		for j := i - window + 1; j <= i; j++ {
			sum += values[j]
		}
		mu := sum / w

		var sq float64
		for j := i - window + 1; j <= i; j++ {
			d := values[j] - mu
			sq += d * d
		}
		mean[i] = NewFloat(mu)
		std[i] = NewFloat(math.Sqrt(sq / w))
	}
	return mean, std
}

// Median returns the median of the defined entries, ignoring undefined ones.
// Undefined when no entry is defined.
func Median(values []Float) Float {
	defined := make([]float64, 0, len(values))
	for _, v := range values {
		if v.Valid {
			defined = append(defined, v.Value)
		}
	}
	if len(defined) == 0 {
		return Undefined
	}
	// Insertion sort: monitoring-window counts are tiny.
	for i := 1; i < len(defined); i++ {
		for j := i; j > 0 && defined[j] < defined[j-1]; j-- {
			defined[j], defined[j-1] = defined[j-1], defined[j]
		}
	}
	mid := len(defined) / 2
	if len(defined)%2 == 1 {
		return NewFloat(defined[mid])
	}
	return NewFloat((defined[mid-1] + defined[mid]) / 2)
}
