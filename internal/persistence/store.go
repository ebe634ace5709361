// Package persistence defines the storage contracts for decision history.
package persistence

import (
	"context"
	"time"

	"github.com/quantgate/sharpeguard/internal/risk"
)

// DecisionRecord is a decision as stored, with the optional trade score
// flattened into value/validity columns.
type DecisionRecord struct {
	RunID           string    `db:"run_id"`
	Timestamp       time.Time `db:"ts"`
	RiskMode        string    `db:"risk_mode"`
	Multiplier      float64   `db:"position_multiplier"`
	TradeWindow     int       `db:"trade_window"`
	TradeScore      float64   `db:"trade_score"`
	TradeScoreValid bool      `db:"trade_score_valid"`
	FracBelowWarn   float64   `db:"frac_below_warn"`
	FracBelowStop   float64   `db:"frac_below_stop"`
	CreatedAt       time.Time `db:"created_at"`
}

// NewDecisionRecord flattens a decision for storage.
func NewDecisionRecord(d risk.Decision) DecisionRecord {
	return DecisionRecord{
		RunID:           d.RunID,
		Timestamp:       d.Timestamp,
		RiskMode:        d.Mode.String(),
		Multiplier:      d.Multiplier,
		TradeWindow:     d.TradeWindow,
		TradeScore:      d.TradeScore.Value,
		TradeScoreValid: d.TradeScore.Valid,
		FracBelowWarn:   d.FracBelowWarn,
		FracBelowStop:   d.FracBelowStop,
	}
}

// DecisionRepo stores and retrieves decision history.
type DecisionRepo interface {
	Insert(ctx context.Context, record DecisionRecord) error
	Latest(ctx context.Context) (*DecisionRecord, error)
}
