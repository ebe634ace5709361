package artifacts

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/quantgate/sharpeguard/internal/risk"
	"github.com/quantgate/sharpeguard/internal/series"
)

// ReadSnapshot loads a snapshot matrix from a CSV in the layout WriteAll
// emits: a signal_window column followed by one column per sharpe window,
// empty cells meaning undefined.
func ReadSnapshot(path string) (*risk.Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot CSV: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("snapshot CSV %s has no data rows", path)
	}

	header := records[0]
	if len(header) < 2 || strings.TrimSpace(header[0]) != "signal_window" {
		return nil, fmt.Errorf("unexpected snapshot header %v", header)
	}

	sharpeWindows := make([]int, 0, len(header)-1)
	for _, col := range header[1:] {
		sw, err := strconv.Atoi(strings.TrimSpace(col))
		if err != nil {
			return nil, fmt.Errorf("invalid sharpe window column %q: %w", col, err)
		}
		sharpeWindows = append(sharpeWindows, sw)
	}

	snap := risk.NewSnapshot(sharpeWindows)
	for _, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("snapshot row has %d cells, expected %d", len(record), len(header))
		}
		signalWindow, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid signal window %q: %w", record[0], err)
		}
		for i, cell := range record[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				snap.Set(signalWindow, sharpeWindows[i], series.Undefined)
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid sharpe value %q: %w", cell, err)
			}
			snap.Set(signalWindow, sharpeWindows[i], series.NewFloat(v))
		}
	}
	return snap, nil
}
