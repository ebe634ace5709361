// Package artifacts writes time-stamped run outputs (panel, snapshot,
// decision, summary) as CSV files under the configured output directory.
package artifacts

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantgate/sharpeguard/internal/pipeline"
	"github.com/quantgate/sharpeguard/internal/risk"
	"github.com/quantgate/sharpeguard/internal/series"
)

const runTagFormat = "20060102_150405"

// Writer emits one run's artifacts, all sharing a single run tag so files
// from the same evaluation never collide with an earlier one.
type Writer struct {
	outputDir string
	runTag    string
}

// NewWriter creates a writer rooted at outputDir with a fresh run tag.
func NewWriter(outputDir string) *Writer {
	return &Writer{
		outputDir: outputDir,
		runTag:    time.Now().Format(runTagFormat),
	}
}

// RunTag returns the tag shared by this writer's files.
func (w *Writer) RunTag() string {
	return w.runTag
}

// WriteAll writes the panel, snapshot, per-window summaries and the decision.
// Returns the paths written.
func (w *Writer) WriteAll(res *pipeline.Result, d risk.Decision) ([]string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make([]string, 0, 4)
	writers := []struct {
		name  string
		write func(string) error
	}{
		{w.path("panel"), func(p string) error { return w.writePanel(p, res.Panel) }},
		{w.path("snapshot"), func(p string) error { return w.writeSnapshot(p, res.Snapshot) }},
		{w.path("summary"), func(p string) error { return w.writeSummaries(p, res.Windows) }},
		{w.path("decision"), func(p string) error { return w.writeDecision(p, d) }},
	}
	for _, a := range writers {
		if err := a.write(a.name); err != nil {
			return paths, err
		}
		paths = append(paths, a.name)
		log.Info().Str("path", a.name).Msg("wrote artifact")
	}
	return paths, nil
}

func (w *Writer) path(kind string) string {
	return filepath.Join(w.outputDir, fmt.Sprintf("%s_%s.csv", kind, w.runTag))
}

func (w *Writer) writePanel(path string, panel []pipeline.PanelEntry) error {
	return w.writeCSV(path, func(cw *csv.Writer) error {
		if err := cw.Write([]string{"timestamp", "signal_window", "sharpe_window", "rolling_sharpe"}); err != nil {
			return err
		}
		for _, e := range panel {
			record := []string{
				e.Timestamp.Format("2006-01-02"),
				strconv.Itoa(e.SignalWindow),
				strconv.Itoa(e.SharpeWindow),
				formatFloat(e.Sharpe),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *Writer) writeSnapshot(path string, snap *risk.Snapshot) error {
	return w.writeCSV(path, func(cw *csv.Writer) error {
		header := []string{"signal_window"}
		for _, sw := range snap.SharpeWindows {
			header = append(header, strconv.Itoa(sw))
		}
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, s := range snap.SignalWindows() {
			record := []string{strconv.Itoa(s)}
			for _, sw := range snap.SharpeWindows {
				record = append(record, formatOpt(snap.Get(s, sw)))
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *Writer) writeSummaries(path string, windows []pipeline.WindowResult) error {
	return w.writeCSV(path, func(cw *csv.Writer) error {
		if err := cw.Write([]string{"signal_window", "total_return", "max_drawdown", "sharpe"}); err != nil {
			return err
		}
		for _, win := range windows {
			record := []string{
				strconv.Itoa(win.SignalWindow),
				formatFloat(win.Summary.TotalReturn),
				formatFloat(win.Summary.MaxDrawdown),
				formatOpt(win.Summary.Sharpe),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *Writer) writeDecision(path string, d risk.Decision) error {
	return w.writeCSV(path, func(cw *csv.Writer) error {
		header := []string{"run_id", "timestamp", "risk_mode", "position_multiplier",
			"trade_window", "trade_score", "frac_below_warn", "frac_below_stop"}
		if err := cw.Write(header); err != nil {
			return err
		}
		record := []string{
			d.RunID,
			d.Timestamp.Format(time.RFC3339),
			d.Mode.String(),
			formatFloat(d.Multiplier),
			strconv.Itoa(d.TradeWindow),
			formatOpt(d.TradeScore),
			formatFloat(d.FracBelowWarn),
			formatFloat(d.FracBelowStop),
		}
		return cw.Write(record)
	})
}

func (w *Writer) writeCSV(path string, fill func(*csv.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := fill(cw); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// formatOpt serializes an optional value; undefined becomes an empty cell.
func formatOpt(v series.Float) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Value)
}
