package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantgate/sharpeguard/internal/risk"
)

func TestReadSnapshot_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	res := sampleResult()
	_, err := w.WriteAll(res, risk.Decision{Mode: risk.Normal, Multiplier: 1})
	require.NoError(t, err)

	snap, err := ReadSnapshot(filepath.Join(dir, "snapshot_"+w.RunTag()+".csv"))
	require.NoError(t, err)

	assert.Equal(t, []int{10, 20}, snap.SharpeWindows)
	assert.Equal(t, []int{10}, snap.SignalWindows())

	cell := snap.Get(10, 10)
	require.True(t, cell.Valid)
	assert.Equal(t, 0.5, cell.Value)
	assert.False(t, snap.Get(10, 20).Valid, "empty cell reads back undefined")
}

func TestReadSnapshot_RejectsMalformed(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"header only", "signal_window,10\n"},
		{"wrong header", "window,10\n40,0.5\n"},
		{"non-numeric sharpe window", "signal_window,abc\n40,0.5\n"},
		{"non-numeric value", "signal_window,10\n40,xyz\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "snap.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := ReadSnapshot(path)
			assert.Error(t, err)
		})
	}
}
