package artifacts

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantgate/sharpeguard/internal/backtest"
	"github.com/quantgate/sharpeguard/internal/pipeline"
	"github.com/quantgate/sharpeguard/internal/risk"
	"github.com/quantgate/sharpeguard/internal/series"
)

func sampleResult() *pipeline.Result {
	snap := risk.NewSnapshot([]int{10, 20})
	snap.Set(10, 10, series.NewFloat(0.5))
	snap.Set(10, 20, series.Undefined)

	return &pipeline.Result{
		Panel: []pipeline.PanelEntry{
			{SignalWindow: 10, SharpeWindow: 10, Timestamp: time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), Sharpe: 0.5},
		},
		Snapshot: snap,
		Windows: []pipeline.WindowResult{
			{SignalWindow: 10, Summary: backtest.Summary{TotalReturn: 0.02, MaxDrawdown: 0.01, Sharpe: series.NewFloat(0.5)}},
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	decision := risk.Decision{
		RunID:       "run-1",
		Timestamp:   time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC),
		Mode:        risk.Reduce,
		Multiplier:  0.5,
		TradeWindow: 40,
		TradeScore:  series.Undefined,
	}

	paths, err := w.WriteAll(sampleResult(), decision)
	require.NoError(t, err)
	require.Len(t, paths, 4)

	for _, p := range paths {
		base := filepath.Base(p)
		assert.True(t, strings.HasSuffix(base, w.RunTag()+".csv"), "file %s carries the run tag", base)
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
}

func TestWriteSnapshot_UndefinedCellsEmpty(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	_, err := w.WriteAll(sampleResult(), risk.Decision{Mode: risk.Normal, Multiplier: 1})
	require.NoError(t, err)

	records := readCSV(t, filepath.Join(dir, "snapshot_"+w.RunTag()+".csv"))
	require.Len(t, records, 2)
	assert.Equal(t, []string{"signal_window", "10", "20"}, records[0])
	assert.Equal(t, "10", records[1][0])
	assert.Equal(t, "0.5", records[1][1])
	assert.Equal(t, "", records[1][2], "undefined snapshot cell stays empty")
}

func TestWriteDecision(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	decision := risk.Decision{
		RunID:         "run-2",
		Timestamp:     time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC),
		Mode:          risk.Stop,
		Multiplier:    0,
		TradeWindow:   40,
		TradeScore:    series.NewFloat(-0.9),
		FracBelowWarn: 1,
		FracBelowStop: 0.75,
	}

	_, err := w.WriteAll(sampleResult(), decision)
	require.NoError(t, err)

	records := readCSV(t, filepath.Join(dir, "decision_"+w.RunTag()+".csv"))
	require.Len(t, records, 2)
	row := records[1]
	assert.Equal(t, "run-2", row[0])
	assert.Equal(t, "STOP", row[2])
	assert.Equal(t, "0", row[3])
	assert.Equal(t, "40", row[4])
	assert.Equal(t, "-0.9", row[5])
	assert.Equal(t, "0.75", row[7])
}

func TestWriteAll_BadOutputDir(t *testing.T) {
	// A file where the directory should be.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	w := NewWriter(blocker)
	_, err := w.WriteAll(sampleResult(), risk.Decision{})
	assert.Error(t, err)
}
