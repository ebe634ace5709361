// Package cache keeps the latest decision and snapshot in Redis so the
// monitor server can serve them without re-running the pipeline.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/quantgate/sharpeguard/internal/risk"
	"github.com/quantgate/sharpeguard/internal/series"
)

const (
	keyPrefix   = "sharpeguard:"
	decisionKey = keyPrefix + "decision:latest"
	snapshotKey = keyPrefix + "snapshot:latest"
)

// DecisionPayload is the JSON shape cached for the latest decision.
type DecisionPayload struct {
	RunID         string    `json:"run_id"`
	Timestamp     time.Time `json:"timestamp"`
	RiskMode      string    `json:"risk_mode"`
	Multiplier    float64   `json:"position_multiplier"`
	TradeWindow   int       `json:"trade_window"`
	TradeScore    *float64  `json:"trade_score"` // null when undefined
	FracBelowWarn float64   `json:"frac_below_warn"`
	FracBelowStop float64   `json:"frac_below_stop"`
}

// SnapshotPayload is the JSON shape cached for the latest snapshot matrix.
// Undefined cells are null.
type SnapshotPayload struct {
	SharpeWindows []int                    `json:"sharpe_windows"`
	Rows          map[int]map[int]*float64 `json:"rows"`
}

// Store caches run outputs with a TTL.
type Store struct {
	client redis.Cmdable
	ttl    time.Duration
}

// New creates a store on a fresh Redis client.
func New(addr, password string, db int, ttl time.Duration) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return NewWithClient(client, ttl)
}

// NewWithClient creates a store on an existing client (injectable for tests).
func NewWithClient(client redis.Cmdable, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// SetDecision caches the latest decision.
func (s *Store) SetDecision(ctx context.Context, d risk.Decision) error {
	payload := DecisionPayload{
		RunID:         d.RunID,
		Timestamp:     d.Timestamp,
		RiskMode:      d.Mode.String(),
		Multiplier:    d.Multiplier,
		TradeWindow:   d.TradeWindow,
		TradeScore:    optPtr(d.TradeScore),
		FracBelowWarn: d.FracBelowWarn,
		FracBelowStop: d.FracBelowStop,
	}
	return s.set(ctx, decisionKey, payload)
}

// Decision returns the cached decision; found is false on a cache miss.
func (s *Store) Decision(ctx context.Context) (DecisionPayload, bool, error) {
	var payload DecisionPayload
	found, err := s.get(ctx, decisionKey, &payload)
	return payload, found, err
}

// SetSnapshot caches the latest snapshot matrix.
func (s *Store) SetSnapshot(ctx context.Context, snap *risk.Snapshot) error {
	payload := SnapshotPayload{
		SharpeWindows: snap.SharpeWindows,
		Rows:          make(map[int]map[int]*float64),
	}
	for _, sw := range snap.SignalWindows() {
		row := make(map[int]*float64, len(snap.SharpeWindows))
		for _, m := range snap.SharpeWindows {
			row[m] = optPtr(snap.Get(sw, m))
		}
		payload.Rows[sw] = row
	}
	return s.set(ctx, snapshotKey, payload)
}

// Snapshot returns the cached snapshot; found is false on a cache miss.
func (s *Store) Snapshot(ctx context.Context) (SnapshotPayload, bool, error) {
	var payload SnapshotPayload
	found, err := s.get(ctx, snapshotKey, &payload)
	return payload, found, err
}

func (s *Store) set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string, out interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func optPtr(v series.Float) *float64 {
	if !v.Valid {
		return nil
	}
	value := v.Value
	return &value
}
