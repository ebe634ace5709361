// Package pipeline runs the signal/backtest/sharpe chain across the cross
// product of signal windows and monitoring windows and assembles the long
// panel, the latest-value snapshot and per-window backtest summaries.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantgate/sharpeguard/internal/backtest"
	"github.com/quantgate/sharpeguard/internal/risk"
	"github.com/quantgate/sharpeguard/internal/series"
	"github.com/quantgate/sharpeguard/internal/sharpe"
	"github.com/quantgate/sharpeguard/internal/signal"
)

// Config holds the orchestration parameters.
type Config struct {
	SignalWindows []int
	SharpeWindows []int
	ZEntry        float64
	ZExit         float64
	CostBPS       float64
	Annualization int
	Workers       int // 0 means GOMAXPROCS
}

// DefaultConfig returns the standard research configuration.
func DefaultConfig() Config {
	return Config{
		SignalWindows: []int{10, 20, 40, 80},
		SharpeWindows: []int{10, 20, 60},
		ZEntry:        2.0,
		ZExit:         0.5,
		CostBPS:       1.0,
		Annualization: sharpe.DefaultAnnualization,
	}
}

// Validate rejects structurally unusable configurations before any
// computation runs.
func (c Config) Validate() error {
	if len(c.SignalWindows) == 0 {
		return fmt.Errorf("at least one signal window is required")
	}
	if len(c.SharpeWindows) == 0 {
		return fmt.Errorf("at least one sharpe window is required")
	}
	for _, w := range c.SignalWindows {
		if w <= 0 {
			return fmt.Errorf("signal window must be positive, got %d", w)
		}
	}
	for _, w := range c.SharpeWindows {
		if w <= 0 {
			return fmt.Errorf("sharpe window must be positive, got %d", w)
		}
	}
	if c.Annualization <= 0 {
		return fmt.Errorf("annualization must be positive, got %d", c.Annualization)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	return signal.Params{Window: c.SignalWindows[0], ZEntry: c.ZEntry, ZExit: c.ZExit}.Validate()
}

// PanelEntry is one defined rolling-Sharpe observation tagged by its window
// pair.
type PanelEntry struct {
	SignalWindow int
	SharpeWindow int
	Timestamp    time.Time
	Sharpe       float64
}

// WindowResult carries everything computed for a single signal window.
type WindowResult struct {
	SignalWindow int
	Positions    series.Series
	Returns      series.Series
	Summary      backtest.Summary
	Sharpes      map[int]series.FloatSeries // keyed by sharpe window
}

// Result is the output of one orchestrated run.
type Result struct {
	Panel    []PanelEntry
	Snapshot *risk.Snapshot
	Windows  []WindowResult // sorted by signal window ascending
}

// Run computes positions, net returns and rolling Sharpes for every signal
// window over a bounded worker pool, then assembles the outputs
// deterministically: windows sorted ascending, panel grouped by signal window
// then sharpe window in configured order, undefined panel entries dropped.
func Run(ctx context.Context, price series.Series, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	if price.Empty() {
		return nil, fmt.Errorf("price series is empty")
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(cfg.SignalWindows) {
		workers = len(cfg.SignalWindows)
	}

	log.Debug().
		Ints("signal_windows", cfg.SignalWindows).
		Ints("sharpe_windows", cfg.SharpeWindows).
		Int("workers", workers).
		Int("observations", price.Len()).
		Msg("starting multi-window run")

	jobs := make(chan int)
	results := make(chan WindowResult, len(cfg.SignalWindows))
	errs := make(chan error, len(cfg.SignalWindows))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range jobs {
				res, err := runWindow(price, w, cfg)
				if err != nil {
					errs <- fmt.Errorf("signal window %d: %w", w, err)
					continue
				}
				results <- res
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, w := range cfg.SignalWindows {
			select {
			case jobs <- w:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(results)
	close(errs)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := <-errs; err != nil {
		return nil, err
	}

	windows := make([]WindowResult, 0, len(cfg.SignalWindows))
	for res := range results {
		windows = append(windows, res)
	}
	sort.Slice(windows, func(i, j int) bool {
		return windows[i].SignalWindow < windows[j].SignalWindow
	})

	return assemble(windows, cfg), nil
}

// runWindow executes the chain for one signal window.
func runWindow(price series.Series, window int, cfg Config) (WindowResult, error) {
	params := signal.Params{Window: window, ZEntry: cfg.ZEntry, ZExit: cfg.ZExit}
	pos, err := signal.Positions(price, params)
	if err != nil {
		return WindowResult{}, err
	}

	ret, err := backtest.Returns(price, pos, cfg.CostBPS)
	if err != nil {
		return WindowResult{}, err
	}

	sharpes := make(map[int]series.FloatSeries, len(cfg.SharpeWindows))
	for _, sw := range cfg.SharpeWindows {
		sr, err := sharpe.Rolling(ret, sw, cfg.Annualization)
		if err != nil {
			return WindowResult{}, err
		}
		sharpes[sw] = sr
	}

	return WindowResult{
		SignalWindow: window,
		Positions:    pos,
		Returns:      ret,
		Summary:      backtest.Summarize(ret, cfg.Annualization),
		Sharpes:      sharpes,
	}, nil
}

// assemble builds the panel and snapshot from the sorted window results.
func assemble(windows []WindowResult, cfg Config) *Result {
	snapshot := risk.NewSnapshot(cfg.SharpeWindows)
	var panel []PanelEntry

	for _, w := range windows {
		for _, sw := range cfg.SharpeWindows {
			sr := w.Sharpes[sw]
			for i, v := range sr.Values {
				if !v.Valid {
					continue
				}
				panel = append(panel, PanelEntry{
					SignalWindow: w.SignalWindow,
					SharpeWindow: sw,
					Timestamp:    sr.Times[i],
					Sharpe:       v.Value,
				})
			}
			snapshot.Set(w.SignalWindow, sw, sr.Last())
		}
	}

	return &Result{
		Panel:    panel,
		Snapshot: snapshot,
		Windows:  windows,
	}
}
