// Package data loads daily price series from CSV files, guaranteeing the
// sorted, deduplicated, all-numeric input the core stages assume.
package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantgate/sharpeguard/internal/series"
)

// Loader reads (timestamp, close) pairs out of CSV files with flexible
// headers and date formats.
type Loader struct {
	dateFormats []string
}

// NewLoader creates a loader accepting the common daily-bar date formats.
func NewLoader() *Loader {
	return &Loader{
		dateFormats: []string{
			"2006-01-02",
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02T15:04:05Z",
		},
	}
}

// LoadClose reads a CSV file and returns the close-price series along with
// the number of rows dropped. Rows with an unparseable timestamp or
// non-numeric price are dropped; the result is sorted by timestamp with
// duplicate timestamps dropped (first occurrence kept). An empty result is an
// error.
func (l *Loader) LoadClose(path string) (series.Series, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return series.Series{}, 0, fmt.Errorf("failed to open price CSV: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	header, err := r.Read()
	if err != nil {
		return series.Series{}, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	dateCol, closeCol, err := mapColumns(header)
	if err != nil {
		return series.Series{}, 0, err
	}

	type row struct {
		ts    time.Time
		price float64
	}
	var rows []row
	dropped := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return series.Series{}, dropped, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if dateCol >= len(record) || closeCol >= len(record) {
			dropped++
			continue
		}

		ts, ok := l.parseDate(record[dateCol])
		if !ok {
			dropped++
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(record[closeCol]), 64)
		if err != nil {
			dropped++
			continue
		}
		rows = append(rows, row{ts: ts, price: price})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ts.Before(rows[j].ts) })

	times := make([]time.Time, 0, len(rows))
	values := make([]float64, 0, len(rows))
	for _, rw := range rows {
		if len(times) > 0 && !rw.ts.After(times[len(times)-1]) {
			dropped++
			continue
		}
		times = append(times, rw.ts)
		values = append(values, rw.price)
	}

	if dropped > 0 {
		log.Warn().Str("path", path).Int("dropped", dropped).Msg("dropped malformed or duplicate price rows")
	}
	if len(times) == 0 {
		return series.Series{}, dropped, fmt.Errorf("no usable price rows in %s", path)
	}

	log.Info().Str("path", path).Int("rows", len(times)).
		Time("first", times[0]).Time("last", times[len(times)-1]).
		Msg("loaded price series")

	s, err := series.New(times, values)
	return s, dropped, err
}

// mapColumns locates the timestamp and close columns. The timestamp falls
// back to the first column when no Date header exists, matching the yfinance
// export layout.
func mapColumns(header []string) (dateCol, closeCol int, err error) {
	dateCol, closeCol = -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date", "time", "timestamp":
			if dateCol == -1 {
				dateCol = i
			}
		case "close":
			if closeCol == -1 {
				closeCol = i
			}
		}
	}
	if dateCol == -1 {
		dateCol = 0
	}
	if closeCol == -1 {
		return 0, 0, fmt.Errorf("close column not found in header %v", header)
	}
	return dateCol, closeCol, nil
}

func (l *Loader) parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range l.dateFormats {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
