// Package postgres implements the decision history store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sony/gobreaker"

	"github.com/quantgate/sharpeguard/internal/persistence"
)

// Schema creates the decisions table.
const Schema = `
CREATE TABLE IF NOT EXISTS decisions (
	run_id              TEXT PRIMARY KEY,
	ts                  TIMESTAMPTZ NOT NULL,
	risk_mode           TEXT NOT NULL,
	position_multiplier DOUBLE PRECISION NOT NULL,
	trade_window        INTEGER NOT NULL,
	trade_score         DOUBLE PRECISION NOT NULL DEFAULT 0,
	trade_score_valid   BOOLEAN NOT NULL DEFAULT FALSE,
	frac_below_warn     DOUBLE PRECISION NOT NULL,
	frac_below_stop     DOUBLE PRECISION NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Connect opens a Postgres connection pool and verifies it.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// decisionRepo implements persistence.DecisionRepo with a circuit breaker
// around every call so a struggling database degrades the run to
// artifacts-only output instead of hanging it.
type decisionRepo struct {
	db      *sqlx.DB
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
}

// NewDecisionRepo creates a PostgreSQL decision repository.
func NewDecisionRepo(db *sqlx.DB, timeout time.Duration) persistence.DecisionRepo {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "postgres-decisions",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &decisionRepo{db: db, timeout: timeout, breaker: breaker}
}

// Insert stores one decision record.
func (r *decisionRepo) Insert(ctx context.Context, record persistence.DecisionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO decisions
		(run_id, ts, risk_mode, position_multiplier, trade_window,
		 trade_score, trade_score_valid, frac_below_warn, frac_below_stop)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.breaker.Execute(func() (interface{}, error) {
		return r.db.ExecContext(ctx, query,
			record.RunID, record.Timestamp, record.RiskMode, record.Multiplier,
			record.TradeWindow, record.TradeScore, record.TradeScoreValid,
			record.FracBelowWarn, record.FracBelowStop)
	})
	if err != nil {
		return fmt.Errorf("failed to insert decision: %w", err)
	}
	return nil
}

// Latest returns the most recent decision, or nil when none is stored.
func (r *decisionRepo) Latest(ctx context.Context) (*persistence.DecisionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT run_id, ts, risk_mode, position_multiplier, trade_window,
		       trade_score, trade_score_valid, frac_below_warn, frac_below_stop, created_at
		FROM decisions
		ORDER BY ts DESC
		LIMIT 1`

	result, err := r.breaker.Execute(func() (interface{}, error) {
		var record persistence.DecisionRecord
		err := r.db.GetContext(ctx, &record, query)
		if err == sql.ErrNoRows {
			// An empty history is a valid state, not a breaker failure.
			return (*persistence.DecisionRecord)(nil), nil
		}
		if err != nil {
			return nil, err
		}
		return &record, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load latest decision: %w", err)
	}
	return result.(*persistence.DecisionRecord), nil
}
