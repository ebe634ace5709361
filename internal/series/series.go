// Package series provides the time-indexed numeric types shared by the
// signal, backtest and risk layers: a dense float series and an optional
// ("real or undefined") variant used wherever insufficient history or zero
// volatility makes a value meaningless.
package series

import (
	"fmt"
	"math"
	"time"
)

// Float is an optional float64. The zero value is undefined. Undefined values
// never participate in threshold comparisons, which keeps "not enough data"
// distinguishable from a true zero.
type Float struct {
	Value float64
	Valid bool
}

// Undefined is the canonical undefined Float.
var Undefined = Float{}

// NewFloat returns a defined Float, except that NaN and ±Inf map to undefined.
func NewFloat(v float64) Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Undefined
	}
	return Float{Value: v, Valid: true}
}

// Series is an ordered sequence of (timestamp, value) pairs sharing one index.
// Timestamps are strictly increasing; construction does not re-sort.
type Series struct {
	Times  []time.Time
	Values []float64
}

// New creates a series after checking index/value alignment and strict
// timestamp ordering.
func New(times []time.Time, values []float64) (Series, error) {
	if len(times) != len(values) {
		return Series{}, fmt.Errorf("series index/value mismatch: %d timestamps, %d values", len(times), len(values))
	}
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return Series{}, fmt.Errorf("series timestamps not strictly increasing at position %d (%s)", i, times[i].Format(time.RFC3339))
		}
	}
	return Series{Times: times, Values: values}, nil
}

// Len returns the number of observations.
func (s Series) Len() int {
	return len(s.Values)
}

// Empty reports whether the series has no observations.
func (s Series) Empty() bool {
	return len(s.Values) == 0
}

// Last returns the final (timestamp, value) pair. Panics on an empty series;
// callers check Empty first.
func (s Series) Last() (time.Time, float64) {
	n := len(s.Values)
	return s.Times[n-1], s.Values[n-1]
}

// WithValues returns a series on the same index carrying new values.
func (s Series) WithValues(values []float64) (Series, error) {
	if len(values) != len(s.Times) {
		return Series{}, fmt.Errorf("value count %d does not match index length %d", len(values), len(s.Times))
	}
	return Series{Times: s.Times, Values: values}, nil
}

// ReindexZero aligns the series onto a reference index. Timestamps present in
// the reference but absent from s carry 0; observations outside the reference
// are dropped. Both indexes must be strictly increasing.
func (s Series) ReindexZero(ref []time.Time) Series {
	out := make([]float64, len(ref))
	j := 0
	for i, ts := range ref {
		for j < len(s.Times) && s.Times[j].Before(ts) {
			j++
		}
		if j < len(s.Times) && s.Times[j].Equal(ts) {
			out[i] = s.Values[j]
			j++
		}
	}
	return Series{Times: ref, Values: out}
}

// Scale returns the series with every value multiplied by m.
func (s Series) Scale(m float64) Series {
	out := make([]float64, len(s.Values))
	for i, v := range s.Values {
		out[i] = v * m
	}
	return Series{Times: s.Times, Values: out}
}

// FloatSeries is an ordered sequence of optional values aligned to an index.
type FloatSeries struct {
	Times  []time.Time
	Values []Float
}

// Len returns the number of observations.
func (f FloatSeries) Len() int {
	return len(f.Values)
}

// Last returns the final optional value, or undefined for an empty series.
func (f FloatSeries) Last() Float {
	if len(f.Values) == 0 {
		return Undefined
	}
	return f.Values[len(f.Values)-1]
}
