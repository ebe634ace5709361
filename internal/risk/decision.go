// Package risk aggregates the multi-window Sharpe snapshot into a discrete
// trading decision: keep going, cut exposure in half, or stop.
package risk

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/quantgate/sharpeguard/internal/series"
)

// Mode is the discrete risk state gating how much of the computed position is
// actually taken.
type Mode int

const (
	Normal Mode = iota
	Reduce
	Stop
)

func (m Mode) String() string {
	switch m {
	case Normal:
		return "NORMAL"
	case Reduce:
		return "REDUCE"
	case Stop:
		return "STOP"
	default:
		return "unknown"
	}
}

// Multiplier returns the position multiplier applied under this mode.
func (m Mode) Multiplier() float64 {
	switch m {
	case Stop:
		return 0.0
	case Reduce:
		return 0.5
	default:
		return 1.0
	}
}

// Snapshot holds the latest rolling Sharpe per (signal window, sharpe window)
// pair. One row per configured signal window; an undefined cell means the
// monitoring window never produced a defined Sharpe.
type Snapshot struct {
	SharpeWindows []int
	rows          map[int]map[int]series.Float
}

// NewSnapshot creates an empty snapshot with the given monitoring windows.
func NewSnapshot(sharpeWindows []int) *Snapshot {
	return &Snapshot{
		SharpeWindows: append([]int(nil), sharpeWindows...),
		rows:          make(map[int]map[int]series.Float),
	}
}

// Set records the latest Sharpe for a (signal window, sharpe window) pair.
func (s *Snapshot) Set(signalWindow, sharpeWindow int, value series.Float) {
	row, ok := s.rows[signalWindow]
	if !ok {
		row = make(map[int]series.Float)
		s.rows[signalWindow] = row
	}
	row[sharpeWindow] = value
}

// Get returns the cell for a (signal window, sharpe window) pair; absent
// cells are undefined.
func (s *Snapshot) Get(signalWindow, sharpeWindow int) series.Float {
	return s.rows[signalWindow][sharpeWindow]
}

// SignalWindows returns the row keys in ascending order.
func (s *Snapshot) SignalWindows() []int {
	out := make([]int, 0, len(s.rows))
	for w := range s.rows {
		out = append(out, w)
	}
	sort.Ints(out)
	return out
}

// RowScore is the per-row robustness score: the median of the row's defined
// monitoring Sharpes, undefined when the whole row is undefined.
func (s *Snapshot) RowScore(signalWindow int) series.Float {
	row, ok := s.rows[signalWindow]
	if !ok {
		return series.Undefined
	}
	cells := make([]series.Float, 0, len(s.SharpeWindows))
	for _, sw := range s.SharpeWindows {
		cells = append(cells, row[sw])
	}
	return series.Median(cells)
}

// Thresholds configures the degradation rule.
type Thresholds struct {
	WarnLevel float64 // score below this counts toward the warn fraction
	StopLevel float64 // score below this counts toward the stop fraction
	WarnFrac  float64 // fraction of degraded rows that triggers REDUCE
	StopFrac  float64 // fraction of degraded rows that triggers STOP
}

// DefaultThresholds returns the standard degradation rule.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WarnLevel: 0.0,
		StopLevel: -0.5,
		WarnFrac:  0.5,
		StopFrac:  0.75,
	}
}

// Validate rejects fraction thresholds outside [0, 1] and a stop level above
// the warn level.
func (t Thresholds) Validate() error {
	if t.WarnFrac < 0 || t.WarnFrac > 1 {
		return fmt.Errorf("warn_frac must be in [0,1], got %g", t.WarnFrac)
	}
	if t.StopFrac < 0 || t.StopFrac > 1 {
		return fmt.Errorf("stop_frac must be in [0,1], got %g", t.StopFrac)
	}
	if t.StopLevel > t.WarnLevel {
		return fmt.Errorf("stop_level %g must not exceed warn_level %g", t.StopLevel, t.WarnLevel)
	}
	return nil
}

// Decision is the immutable outcome of one evaluation.
type Decision struct {
	RunID         string
	Timestamp     time.Time
	Mode          Mode
	Multiplier    float64
	TradeWindow   int
	TradeScore    series.Float
	FracBelowWarn float64
	FracBelowStop float64
	WindowScores  map[int]series.Float
}

// Decide evaluates the degradation rule over the snapshot.
//
// Rows whose score is undefined are excluded from both the numerator and the
// denominator of the degradation fractions; with no defined row at all both
// fractions are zero and the mode is NORMAL. STOP takes priority over REDUCE.
// The trade window contributes its score as a diagnostic only and never
// drives the mode.
func Decide(snapshot *Snapshot, tradeWindow int, th Thresholds) (Decision, error) {
	if err := th.Validate(); err != nil {
		return Decision{}, err
	}
	if snapshot == nil {
		return Decision{}, fmt.Errorf("snapshot is nil")
	}

	scores := make(map[int]series.Float)
	defined, belowWarn, belowStop := 0, 0, 0
	for _, w := range snapshot.SignalWindows() {
		score := snapshot.RowScore(w)
		scores[w] = score
		if !score.Valid {
			continue
		}
		defined++
		if score.Value < th.WarnLevel {
			belowWarn++
		}
		if score.Value < th.StopLevel {
			belowStop++
		}
	}

	var fracWarn, fracStop float64
	if defined > 0 {
		fracWarn = float64(belowWarn) / float64(defined)
		fracStop = float64(belowStop) / float64(defined)
	}

	mode := Normal
	switch {
	case fracStop >= th.StopFrac && defined > 0:
		mode = Stop
	case fracWarn >= th.WarnFrac && defined > 0:
		mode = Reduce
	}

	return Decision{
		RunID:         uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		Mode:          mode,
		Multiplier:    mode.Multiplier(),
		TradeWindow:   tradeWindow,
		TradeScore:    scores[tradeWindow],
		FracBelowWarn: fracWarn,
		FracBelowStop: fracStop,
		WindowScores:  scores,
	}, nil
}

// ApplyMultiplier scales a live position series by the decision's multiplier.
// The collaborator sizing orders calls this with the positions it is about to
// trade.
func ApplyMultiplier(position series.Series, d Decision) series.Series {
	return position.Scale(d.Multiplier)
}
